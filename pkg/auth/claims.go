package auth

import (
	"slices"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims are the JWT claims accepted by the skill service.
type Claims struct {
	jwt.RegisteredClaims
	UserID   uuid.UUID `json:"user_id"`
	TenantID uuid.UUID `json:"tenant_id"`
	Roles    []string  `json:"roles"`
}

// HasRole checks if the claims include the specified role.
func (c Claims) HasRole(role string) bool {
	return slices.Contains(c.Roles, role)
}

// HasAnyRole reports whether the claims include at least one of roles.
func (c Claims) HasAnyRole(roles ...string) bool {
	for _, r := range roles {
		if c.HasRole(r) {
			return true
		}
	}
	return false
}

// Role constants
const (
	RoleAdmin     = "admin"
	RoleAnalyst   = "analyst"
	RoleAuditor   = "auditor"
	RoleAPIClient = "api_client"
)

// EvaluateRoles may run skills.
var EvaluateRoles = []string{RoleAdmin, RoleAnalyst, RoleAPIClient}

// ReadRoles may list skills and read stored evaluations.
var ReadRoles = []string{RoleAdmin, RoleAnalyst, RoleAPIClient, RoleAuditor}
