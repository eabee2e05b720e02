package premium_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/skills/internal/domain/record"
	"github.com/bibbank/skills/internal/domain/refdata"
	"github.com/bibbank/skills/internal/domain/service"
	"github.com/bibbank/skills/internal/domain/skillerr"
	"github.com/bibbank/skills/internal/skills/premium"
)

func evaluate(t *testing.T, input string) (*service.Outcome, error) {
	t.Helper()
	s := premium.New()
	rec, err := record.FromJSON(strings.NewReader(input))
	require.NoError(t, err)

	calc := service.NewCalculator(refdata.NewLoader(refdata.EmbeddedSource{premium.Name: s.Tables()}))
	return calc.Evaluate(context.Background(), s, rec)
}

func mustEvaluate(t *testing.T, input string) *service.Outcome {
	t.Helper()
	out, err := evaluate(t, input)
	require.NoError(t, err)
	return out
}

func TestTechnologyPremium(t *testing.T) {
	o := mustEvaluate(t, `{
		"annual_revenue": 5000000,
		"industry": "technology",
		"coverage_limit": 1000000,
		"security_rating": 0.90,
		"has_mfa": true,
		"has_edr": true
	}`).Output

	assert.Equal(t, "2500.00", o.Decimal("base_premium").StringFixed(2))
	assert.Equal(t, "excellent", o.String("security_tier"))
	assert.InDelta(t, 0.80, o.Float("security_multiplier"), 1e-9)
	assert.Equal(t, "small", o.String("revenue_band"))
	assert.InDelta(t, 1.0, o.Float("claims_loading"), 1e-9)
	assert.InDelta(t, 0.09, o.Float("total_credit"), 1e-9)
	assert.Equal(t, "1820.00", o.Decimal("annual_premium").StringFixed(2))
	assert.Equal(t, "moderate", o.String("hazard_class"))
	assert.True(t, o.Bool("insurable"))
	assert.False(t, o.Bool("requires_underwriter_review"))
	assert.Equal(t, []string{}, o.Strings("decline_reasons"))
	assert.Equal(t, []string{
		"Add offline backups to earn a 4% premium credit",
		"Add a tested incident response plan to earn a 2% premium credit",
	}, o.Strings("recommendations"))
}

func TestSecurityTierBoundary(t *testing.T) {
	o := mustEvaluate(t, `{
		"annual_revenue": 5000000,
		"industry": "technology",
		"coverage_limit": 1000000,
		"security_rating": 0.89,
		"has_mfa": true,
		"has_edr": true
	}`).Output

	assert.Equal(t, "strong", o.String("security_tier"))
	assert.InDelta(t, 0.90, o.Float("security_multiplier"), 1e-9)
	assert.Equal(t, "2047.50", o.Decimal("annual_premium").StringFixed(2))
}

func TestTiers(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		field   string
		want    float64
		premium string
	}{
		{
			name:    "one prior claim loads the premium",
			input:   `{"annual_revenue":5000000,"industry":"technology","coverage_limit":1000000,"security_rating":0.7,"prior_claims":1}`,
			field:   "claims_loading",
			want:    1.25,
			premium: "3125.00",
		},
		{
			name:    "minimum premium floor",
			input:   `{"annual_revenue":2000000,"industry":"retail","coverage_limit":100000,"security_rating":0.7}`,
			field:   "security_multiplier",
			want:    1.0,
			premium: "1500.00",
		},
		{
			name:    "credit capped",
			input:   `{"annual_revenue":5000000,"industry":"technology","coverage_limit":1000000,"security_rating":0.7,"has_mfa":true,"has_edr":true,"has_offline_backups":true,"has_incident_response_plan":true,"deductible":250000}`,
			field:   "total_credit",
			want:    0.20,
			premium: "2000.00",
		},
		{
			name:    "deductible at a bound earns the tier below",
			input:   `{"annual_revenue":5000000,"industry":"technology","coverage_limit":1000000,"security_rating":0.7,"deductible":25000}`,
			field:   "total_credit",
			want:    0.02,
			premium: "2450.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := mustEvaluate(t, tt.input).Output
			assert.InDelta(t, tt.want, o.Float(tt.field), 1e-9)
			assert.Equal(t, tt.premium, o.Decimal("annual_premium").StringFixed(2))
		})
	}
}

func TestDeclined(t *testing.T) {
	out := mustEvaluate(t, `{
		"annual_revenue": 5000000,
		"industry": "healthcare",
		"coverage_limit": 1000000,
		"security_rating": 0.30,
		"prior_claims": 5
	}`)

	o := out.Output
	assert.False(t, o.Bool("insurable"))
	assert.True(t, o.Decimal("annual_premium").IsZero())
	assert.Equal(t, "poor", o.String("security_tier"))
	assert.InDelta(t, 2.0, o.Float("claims_loading"), 1e-9)
	assert.Len(t, o.Strings("decline_reasons"), 2)
	assert.Equal(t, o.Strings("decline_reasons"), out.Alerts)
	assert.Contains(t, o.Strings("recommendations"), "Remediate findings from the external security rating before renewal")
}

func TestUnderwriterReferral(t *testing.T) {
	o := mustEvaluate(t, `{"annual_revenue":500000,"industry":"education","coverage_limit":1000000,"security_rating":0.8}`).Output

	assert.True(t, o.Bool("requires_underwriter_review"))
	assert.Equal(t, "micro", o.String("revenue_band"))
	assert.InDelta(t, 0.85, o.Float("revenue_factor"), 1e-9)
	assert.Contains(t, o.Strings("recommendations"), "Refer to an underwriter: coverage limit is high relative to revenue")
}

func TestValidationErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		field string
	}{
		{"unknown industry", `{"annual_revenue":1,"industry":"mining","coverage_limit":1,"security_rating":0.5}`, "industry"},
		{"zero coverage", `{"annual_revenue":1,"industry":"retail","coverage_limit":0,"security_rating":0.5}`, "coverage_limit"},
		{"rating above one", `{"annual_revenue":1,"industry":"retail","coverage_limit":1,"security_rating":1.5}`, "security_rating"},
		{"negative claims", `{"annual_revenue":1,"industry":"retail","coverage_limit":1,"security_rating":0.5,"prior_claims":-1}`, "prior_claims"},
		{"missing revenue", `{"industry":"retail","coverage_limit":1,"security_rating":0.5}`, "annual_revenue"},
		{"bad currency", `{"annual_revenue":1,"industry":"retail","coverage_limit":1,"security_rating":0.5,"currency":"dollars"}`, "currency"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := evaluate(t, tt.input)
			assert.Nil(t, out)

			var verr *skillerr.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}
