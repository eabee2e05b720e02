//go:build e2e

package e2e

import (
	"bytes"
	"encoding/json"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/skills/pkg/auth"
	"github.com/bibbank/skills/pkg/testutil"
)

var (
	baseURL string
	token   string
)

func TestMain(m *testing.M) {
	baseURL = os.Getenv("SKILLS_URL")
	if baseURL == "" {
		baseURL = "http://localhost:9090"
	}

	// Mint a token when the server under test checks them.
	if secret := os.Getenv("SKILLS_JWT_SECRET"); secret != "" {
		svc, err := auth.NewJWTService(auth.JWTConfig{Secret: secret, Issuer: os.Getenv("SKILLS_JWT_ISSUER")})
		if err == nil {
			token, _ = svc.GenerateToken(testutil.TestUserID, testutil.TestTenantID, []string{auth.RoleAnalyst})
		}
	}

	// Wait for skilld to be ready
	for i := 0; i < 30; i++ {
		resp, err := http.Get(baseURL + "/healthz")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				break
			}
		}
		time.Sleep(2 * time.Second)
	}

	os.Exit(m.Run())
}

func TestHealthCheck(t *testing.T) {
	resp := do(t, http.MethodGet, "/healthz", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
}

func TestCatalog(t *testing.T) {
	resp := do(t, http.MethodGet, "/v1/skills", nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Skills []struct {
			Name string `json:"name"`
		} `json:"skills"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Len(t, body.Skills, 5)
}

func TestAMLScreeningFlow(t *testing.T) {
	// Step 1: Screen a cash deposit just under the reporting threshold
	resp := do(t, http.MethodPost, "/v1/skills/aml-transaction-validator/evaluate", map[string]any{
		"transaction_id":   "e2e-1",
		"amount":           9500,
		"currency":         "USD",
		"transaction_type": "cash_deposit",
		"prior_transactions": []map[string]any{
			{"amount": 9400, "days_ago": 1, "transaction_type": "cash_deposit"},
			{"amount": 9300, "days_ago": 2, "transaction_type": "cash_deposit"},
		},
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var evaluation struct {
		EvaluationID string         `json:"evaluation_id"`
		Output       map[string]any `json:"output"`
		Alerts       []string       `json:"alerts"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&evaluation))
	assert.Equal(t, true, evaluation.Output["structuring_suspected"])

	// Step 2: Read the stored evaluation back, when skilld has a database
	got := do(t, http.MethodGet, "/v1/evaluations/"+evaluation.EvaluationID, nil)
	defer got.Body.Close()
	if got.StatusCode == http.StatusNotImplemented {
		t.Skip("skilld runs without storage")
	}
	assert.Equal(t, http.StatusOK, got.StatusCode)
}

func do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, baseURL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}
