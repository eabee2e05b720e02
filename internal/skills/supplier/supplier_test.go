package supplier_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/skills/internal/domain/record"
	"github.com/bibbank/skills/internal/domain/refdata"
	"github.com/bibbank/skills/internal/domain/service"
	"github.com/bibbank/skills/internal/skills/supplier"
	"github.com/bibbank/skills/pkg/testutil"
)

func evaluate(t *testing.T, input string) (*service.Outcome, error) {
	t.Helper()
	s := supplier.New()
	rec, err := record.FromJSON(strings.NewReader(input))
	require.NoError(t, err)

	calc := service.NewCalculator(refdata.NewLoader(refdata.EmbeddedSource{supplier.Name: s.Tables()}))
	return calc.Evaluate(context.Background(), s, rec)
}

func mustEvaluate(t *testing.T, input string) *service.Outcome {
	t.Helper()
	out, err := evaluate(t, input)
	require.NoError(t, err)
	return out
}

func TestSingleSourceSemiconductorSupplier(t *testing.T) {
	out := mustEvaluate(t, `{
		"supplier_id": "sup-7",
		"country": "cn",
		"category": "semiconductors",
		"on_time_delivery_rate": 0.92,
		"defect_rate_ppm": 350,
		"financial_health_score": 70,
		"single_source": true,
		"lead_time_days": 45,
		"annual_spend": 2000000,
		"certifications": ["ISO9001", "iso27001", "iso9001"]
	}`)

	o := out.Output
	assert.InDelta(t, 51.10, o.Float("risk_score"), 1e-9)
	assert.Equal(t, "MEDIUM", o.String("risk_tier"))
	assert.Equal(t, "quarterly", o.String("review_cadence"))
	assert.InDelta(t, 1.30, o.Float("criticality_multiplier"), 1e-9)
	assert.InDelta(t, 7.0, o.Float("certification_credit"), 1e-9)
	assert.Equal(t, "1022000.00", o.Decimal("spend_at_risk").StringFixed(2))
	assert.Equal(t, []string{
		"Qualify an alternate supplier in a lower-risk country",
		"Dual-source this category to reduce concentration risk",
	}, o.Strings("mitigations"))
	assert.Equal(t, o.Strings("mitigations"), out.Alerts)

	raw, _ := o.Get("dimension_scores")
	scores := raw.(map[string]any)
	assert.InDelta(t, 55.0, scores[supplier.DimensionGeopolitical], 1e-9)
	assert.InDelta(t, 27.2, scores[supplier.DimensionDelivery], 1e-9)
	assert.InDelta(t, 20.0, scores[supplier.DimensionQuality], 1e-9)
	assert.InDelta(t, 30.0, scores[supplier.DimensionFinancial], 1e-9)
	assert.InDelta(t, 100.0, scores[supplier.DimensionConcentration], 1e-9)
}

func TestScoreClamped(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		score   float64
		tier    string
		cadence string
	}{
		{
			name:    "worst case caps at 100",
			input:   `{"supplier_id":"s","country":"KP","category":"semiconductors","on_time_delivery_rate":0,"defect_rate_ppm":10000,"financial_health_score":0,"single_source":true,"lead_time_days":120}`,
			score:   100,
			tier:    "CRITICAL",
			cadence: "weekly",
		},
		{
			name:    "credits floor at 0",
			input:   `{"supplier_id":"s","country":"US","category":"office_supplies","on_time_delivery_rate":1,"financial_health_score":90,"lead_time_days":10,"certifications":["iso9001","iso14001","iso27001","iatf16949"]}`,
			score:   0,
			tier:    "LOW",
			cadence: "annual",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := mustEvaluate(t, tt.input).Output
			assert.InDelta(t, tt.score, o.Float("risk_score"), 1e-9)
			assert.Equal(t, tt.tier, o.String("risk_tier"))
			assert.Equal(t, tt.cadence, o.String("review_cadence"))
		})
	}
}

func TestCertificationCreditCapped(t *testing.T) {
	o := mustEvaluate(t, `{"supplier_id":"s","country":"US","category":"logistics","on_time_delivery_rate":1,"certifications":["iso9001","iso14001","iso27001","iatf16949","as9100","unknown"]}`).Output
	assert.InDelta(t, 10.0, o.Float("certification_credit"), 1e-9)
}

func TestUnlistedCountry(t *testing.T) {
	o := mustEvaluate(t, `{"supplier_id":"s","country":"ZZ","category":"logistics","on_time_delivery_rate":1}`).Output

	raw, _ := o.Get("dimension_scores")
	assert.InDelta(t, 70.0, raw.(map[string]any)[supplier.DimensionGeopolitical], 1e-9)
	assert.Contains(t, o.Strings("mitigations"), "Qualify an alternate supplier in a lower-risk country")
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name  string
		input string
		field string
	}{
		{"unknown category", `{"supplier_id":"s","country":"US","category":"furniture","on_time_delivery_rate":1}`, "category"},
		{"bad country", `{"supplier_id":"s","country":"USA","category":"logistics","on_time_delivery_rate":1}`, "country"},
		{"otd above one", `{"supplier_id":"s","country":"US","category":"logistics","on_time_delivery_rate":1.2}`, "on_time_delivery_rate"},
		{"missing supplier", `{"country":"US","category":"logistics","on_time_delivery_rate":1}`, "supplier_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := evaluate(t, tt.input)
			testutil.RequireValidation(t, err, tt.field)
		})
	}
}
