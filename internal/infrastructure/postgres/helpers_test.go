package postgres

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bibbank/skills/internal/domain/model"
	"github.com/bibbank/skills/pkg/testutil"
)

func newEvaluation(t *testing.T) *model.Evaluation {
	t.Helper()
	e, err := model.NewEvaluation(testutil.TestTenantID, "aml-transaction-validator", "1.0.0",
		[]byte(`{"amount":"9500"}`), []byte(`{"risk_score":75}`), []string{"STRUCTURING_SUSPECTED"}, testutil.FixedTime)
	require.NoError(t, err)
	return e
}
