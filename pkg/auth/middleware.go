package auth

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type contextKey string

const claimsContextKey contextKey = "claims"

// ContextWithClaims returns a new context with the given Claims attached.
func ContextWithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

// ClaimsFromContext extracts Claims from the context.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*Claims)
	return claims, ok
}

// TenantFromContext returns the caller's tenant, or uuid.Nil when the
// request is unauthenticated.
func TenantFromContext(ctx context.Context) uuid.UUID {
	if c, ok := ClaimsFromContext(ctx); ok {
		return c.TenantID
	}
	return uuid.Nil
}

// MethodRoles maps full gRPC method names to the roles allowed to call
// them. Methods not in the map are served without a token.
type MethodRoles map[string][]string

// UnaryAuthInterceptor validates the bearer token and enforces roles.
func UnaryAuthInterceptor(svc *JWTService, roles MethodRoles) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		allowed, protected := roles[info.FullMethod]
		if !protected {
			return handler(ctx, req)
		}

		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "missing metadata")
		}
		values := md.Get("authorization")
		if len(values) == 0 {
			return nil, status.Error(codes.Unauthenticated, "missing authorization header")
		}
		token, ok := BearerToken(values[0])
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "invalid authorization format")
		}

		claims, err := svc.ValidateToken(token)
		if err != nil {
			return nil, status.Errorf(codes.Unauthenticated, "invalid token: %v", err)
		}
		if !claims.HasAnyRole(allowed...) {
			return nil, status.Errorf(codes.PermissionDenied, "required role(s): %v", allowed)
		}
		return handler(ContextWithClaims(ctx, claims), req)
	}
}

// RouteRoles returns the roles allowed on a request, or nil when the route
// is public.
type RouteRoles func(r *http.Request) []string

// HTTPMiddleware validates bearer tokens on HTTP requests and enforces roles.
func HTTPMiddleware(svc *JWTService, roles RouteRoles) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed := roles(r)
			if allowed == nil {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := BearerToken(r.Header.Get("Authorization"))
			if !ok {
				writeError(w, http.StatusUnauthorized, "missing or malformed authorization header")
				return
			}
			claims, err := svc.ValidateToken(token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}
			if !claims.HasAnyRole(allowed...) {
				writeError(w, http.StatusForbidden, "insufficient role")
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithClaims(r.Context(), claims)))
		})
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	kind := "unauthorized"
	if code == http.StatusForbidden {
		kind = "forbidden"
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]map[string]string{
		"error": {"kind": kind, "message": msg},
	})
}
