package result_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/skills/internal/domain/result"
	"github.com/bibbank/skills/internal/domain/skillerr"
)

func outputSchema() result.Schema {
	return result.Schema{
		{Name: "risk_score", Kind: result.KindNumber, Min: skillerr.Bound(0), Max: skillerr.Bound(100), Places: 2},
		{Name: "risk_level", Kind: result.KindString, Default: "LOW"},
		{Name: "premium", Kind: result.KindDecimal, Min: skillerr.Bound(0), Places: 2},
		{Name: "ratio", Kind: result.KindNumber, Min: skillerr.Bound(0), Strict: true},
		{Name: "count", Kind: result.KindInteger},
		{Name: "compliant", Kind: result.KindBool},
		{Name: "alerts", Kind: result.KindList},
		{Name: "scores", Kind: result.KindObject},
	}
}

func TestAssemble_NeutralDefaults(t *testing.T) {
	rec, err := outputSchema().Assemble(nil)
	require.NoError(t, err)

	assert.Equal(t, 8, rec.Len())
	assert.Equal(t, outputSchema().Names(), names(rec))
	assert.Zero(t, rec.Float("risk_score"))
	assert.Equal(t, "LOW", rec.String("risk_level"))
	assert.True(t, rec.Decimal("premium").IsZero())
	assert.False(t, rec.Bool("compliant"))
	assert.NotNil(t, rec.Strings("alerts"))

	alerts, ok := rec.Get("alerts")
	require.True(t, ok)
	assert.Equal(t, []string{}, alerts)

	scores, _ := rec.Get("scores")
	assert.Equal(t, map[string]any{}, scores)
}

func TestAssemble_ClampsAndRounds(t *testing.T) {
	rec, err := outputSchema().Assemble(map[string]any{
		"risk_score": 134.0,
		"premium":    decimal.RequireFromString("-12.345"),
		"count":      int64(3),
		"alerts":     []string{"STRUCTURING_SUSPECTED"},
	})
	require.NoError(t, err)

	assert.InDelta(t, 100.0, rec.Float("risk_score"), 1e-9)
	assert.True(t, rec.Decimal("premium").IsZero())
	assert.Equal(t, []string{"STRUCTURING_SUSPECTED"}, rec.Strings("alerts"))

	count, _ := rec.Get("count")
	assert.Equal(t, int64(3), count)

	rec, err = outputSchema().Assemble(map[string]any{"risk_score": 33.456, "premium": decimal.RequireFromString("1234.565")})
	require.NoError(t, err)
	assert.InDelta(t, 33.46, rec.Float("risk_score"), 1e-9)
	assert.Equal(t, "1234.57", rec.Decimal("premium").String())
}

func TestAssemble_RangeErrors(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]any
		field  string
	}{
		{"strict bound", map[string]any{"ratio": -0.5}, "ratio"},
		{"nan", map[string]any{"risk_score": math.NaN()}, "risk_score"},
		{"inf", map[string]any{"count": math.Inf(1)}, "count"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := outputSchema().Assemble(tt.values)

			var rerr *skillerr.RangeError
			require.ErrorAs(t, err, &rerr)
			assert.Equal(t, tt.field, rerr.Field)
		})
	}
}

func TestAssemble_RejectsUndeclaredAndMistyped(t *testing.T) {
	_, err := outputSchema().Assemble(map[string]any{"surprise": 1.0})
	assert.Error(t, err)

	_, err = outputSchema().Assemble(map[string]any{"compliant": "yes"})
	assert.Error(t, err)
	assert.Empty(t, skillerr.Kind(err))
}

func TestRecord_MarshalJSON(t *testing.T) {
	rec, err := outputSchema().Assemble(map[string]any{"risk_score": 42.0, "premium": decimal.NewFromInt(1500)})
	require.NoError(t, err)

	b, err := json.Marshal(rec)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Len(t, decoded, 8)
	assert.Equal(t, 42.0, decoded["risk_score"])
	assert.Equal(t, "1500", decoded["premium"])
	assert.Equal(t, []any{}, decoded["alerts"])
}

func names(rec result.Record) []string {
	out := make([]string, 0, rec.Len())
	for _, e := range rec.Fields() {
		out = append(out, e.Name)
	}
	return out
}
