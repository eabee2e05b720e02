package testutil

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
)

// Fixed UUIDs for deterministic testing
var (
	TestUserID   = uuid.MustParse("00000000-0000-0000-0000-000000000001")
	TestTenantID = uuid.MustParse("00000000-0000-0000-0000-000000000010")
)

// FixedTime is a deterministic evaluation timestamp.
var FixedTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// MustJSON marshals v or fails the test.
func MustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	return b
}
