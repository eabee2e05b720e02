// Package premium prices annual cyber insurance cover from an industry base
// rate and a chain of tiered multipliers: security posture, revenue band,
// claims history and control credits.
package premium

import (
	"embed"
	"io/fs"

	"github.com/bibbank/skills/internal/domain/record"
	"github.com/bibbank/skills/internal/domain/refdata"
	"github.com/bibbank/skills/internal/domain/result"
	"github.com/bibbank/skills/internal/domain/rule"
	"github.com/bibbank/skills/internal/domain/skill"
	"github.com/bibbank/skills/internal/domain/skillerr"
)

// Name is the catalog name of the skill.
const Name = "cyber-insurance-premium"

//go:embed tables/*.csv
var tablesFS embed.FS

const (
	tableIndustry   = "industry_rates"
	tableSecurity   = "security_tiers"
	tableRevenue    = "revenue_bands"
	tableClaims     = "claims_loading"
	tableControls   = "control_credits"
	tableDeductible = "deductible_credits"
	tableParams     = "premium_parameters"
)

// Skill is the cyber insurance premium calculator.
type Skill struct{}

// New returns the skill.
func New() Skill { return Skill{} }

func (Skill) Tables() fs.FS { return skill.Subtree(tablesFS, "tables") }

func (Skill) Descriptor() skill.Descriptor {
	money := func(name string) result.Field {
		return result.Field{Name: name, Kind: result.KindDecimal, Min: skillerr.Bound(0), Places: 2}
	}
	return skill.Descriptor{
		Name:        Name,
		Title:       "Cyber insurance premium",
		Description: "Prices annual cyber cover with tiered security, revenue and claims multipliers.",
		Version:     "1.0.0",
		Inputs: record.Schema{
			{Name: "annual_revenue", Kind: record.KindDecimal, Required: true, Min: skillerr.Bound(0), ExclusiveMin: true},
			{Name: "industry", Kind: record.KindString, Required: true},
			{Name: "coverage_limit", Kind: record.KindDecimal, Required: true, Min: skillerr.Bound(0), ExclusiveMin: true},
			{Name: "security_rating", Kind: record.KindNumber, Required: true, Min: skillerr.Bound(0), Max: skillerr.Bound(1)},
			{Name: "prior_claims", Kind: record.KindInteger, Default: int64(0), Min: skillerr.Bound(0)},
			{Name: "has_mfa", Kind: record.KindBool, Default: false},
			{Name: "has_edr", Kind: record.KindBool, Default: false},
			{Name: "has_offline_backups", Kind: record.KindBool, Default: false},
			{Name: "has_incident_response_plan", Kind: record.KindBool, Default: false},
			{Name: "deductible", Kind: record.KindDecimal, Default: int64(10000), Min: skillerr.Bound(0)},
			{Name: "currency", Kind: record.KindString, Default: "USD"},
		},
		Outputs: result.Schema{
			money("annual_premium"),
			money("base_premium"),
			{Name: "currency", Kind: result.KindString, Default: "USD"},
			{Name: "hazard_class", Kind: result.KindString},
			{Name: "security_tier", Kind: result.KindString},
			{Name: "security_multiplier", Kind: result.KindNumber, Min: skillerr.Bound(0), Places: 4},
			{Name: "revenue_band", Kind: result.KindString},
			{Name: "revenue_factor", Kind: result.KindNumber, Min: skillerr.Bound(0), Places: 4},
			{Name: "claims_loading", Kind: result.KindNumber, Min: skillerr.Bound(1), Places: 4},
			{Name: "total_credit", Kind: result.KindNumber, Min: skillerr.Bound(0), Max: skillerr.Bound(1), Places: 4},
			{Name: "insurable", Kind: result.KindBool},
			{Name: "requires_underwriter_review", Kind: result.KindBool},
			{Name: "decline_reasons", Kind: result.KindList},
			{Name: "recommendations", Kind: result.KindList},
		},
		Tables: []refdata.TableSchema{
			{Name: tableIndustry, Columns: []refdata.Column{{Name: "industry"}, {Name: "base_rate", Numeric: true}, {Name: "hazard_class"}}},
			{Name: tableSecurity, Columns: []refdata.Column{{Name: "tier"}, {Name: "min_rating", Numeric: true}, {Name: "multiplier", Numeric: true}}},
			{Name: tableRevenue, Columns: []refdata.Column{{Name: "band"}, {Name: "min_revenue", Numeric: true}, {Name: "factor", Numeric: true}}},
			{Name: tableClaims, Columns: []refdata.Column{{Name: "min_claims", Numeric: true}, {Name: "loading", Numeric: true}}},
			{Name: tableControls, Columns: []refdata.Column{{Name: "control"}, {Name: "input"}, {Name: "label"}, {Name: "credit", Numeric: true}}},
			{Name: tableDeductible, Columns: []refdata.Column{{Name: "min_deductible", Numeric: true}, {Name: "credit", Numeric: true}}},
			{Name: tableParams, Columns: []refdata.Column{{Name: "parameter"}, {Name: "value", Numeric: true}}},
		},
		AlertsField: "decline_reasons",
	}
}

func (Skill) Assemble(res *rule.Results, in record.Record) (map[string]any, error) {
	return map[string]any{
		"annual_premium":              res.Decimal(ruleAnnualPremium),
		"base_premium":                res.Decimal(ruleBasePremium),
		"currency":                    in.String("currency"),
		"hazard_class":                res.Label(ruleHazardClass),
		"security_tier":               res.Label(ruleSecurityTier),
		"security_multiplier":         res.Score(ruleSecurityMultiplier),
		"revenue_band":                res.Label(ruleRevenueBand),
		"revenue_factor":              res.Score(ruleRevenueFactor),
		"claims_loading":              res.Score(ruleClaimsLoading),
		"total_credit":                res.Score(ruleTotalCredit),
		"insurable":                   res.Flag(ruleInsurable),
		"requires_underwriter_review": res.Flag(ruleReferral),
		"decline_reasons":             res.List(ruleDeclineReasons),
		"recommendations":             res.List(ruleRecommendations),
	}, nil
}
