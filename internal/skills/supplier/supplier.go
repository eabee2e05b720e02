// Package supplier rates supply-chain exposure to a supplier across
// geopolitical, delivery, quality, financial and concentration dimensions.
package supplier

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
const Name = "supplier-risk"

//go:embed tables/*.csv
var tablesFS embed.FS

const (
	tableWeights     = "supplier_weights"
	tableCountries   = "country_risk_index"
	tableCategories  = "category_criticality"
	tableDefects     = "defect_bands"
	tableLeadTimes   = "lead_time_bands"
	tableCerts       = "certification_credits"
	tableTiers       = "supplier_tiers"
	tableParams      = "supplier_parameters"
	tableMitigations = "supplier_mitigations"
)

// Skill is the supplier risk calculator.
type Skill struct{}

// New returns the skill.
func New() Skill { return Skill{} }

func (Skill) Tables() fs.FS { return skill.Subtree(tablesFS, "tables") }

func (Skill) Descriptor() skill.Descriptor {
	return skill.Descriptor{
		Name:        Name,
		Title:       "Supplier risk",
		Description: "Weighted supply-chain risk with category criticality and certification credits.",
		Version:     "1.0.0",
		Inputs: record.Schema{
			{Name: "supplier_id", Kind: record.KindString, Required: true},
			{Name: "country", Kind: record.KindString, Required: true, Description: "ISO 3166 alpha-2 code"},
			{Name: "category", Kind: record.KindString, Required: true},
			{Name: "on_time_delivery_rate", Kind: record.KindNumber, Required: true, Min: skillerr.Bound(0), Max: skillerr.Bound(1)},
			{Name: "defect_rate_ppm", Kind: record.KindNumber, Default: 0.0, Min: skillerr.Bound(0)},
			{Name: "financial_health_score", Kind: record.KindNumber, Default: 50.0, Min: skillerr.Bound(0), Max: skillerr.Bound(100)},
			{Name: "single_source", Kind: record.KindBool, Default: false},
			{Name: "lead_time_days", Kind: record.KindInteger, Default: int64(30), Min: skillerr.Bound(0)},
			{Name: "annual_spend", Kind: record.KindDecimal, Default: int64(0), Min: skillerr.Bound(0)},
			{Name: "certifications", Kind: record.KindStringList},
		},
		Outputs: result.Schema{
			{Name: "supplier_id", Kind: result.KindString},
			{Name: "risk_score", Kind: result.KindNumber, Min: skillerr.Bound(0), Max: skillerr.Bound(100), Places: 2},
			{Name: "risk_tier", Kind: result.KindString, Default: "LOW"},
			{Name: "review_cadence", Kind: result.KindString},
			{Name: "dimension_scores", Kind: result.KindObject},
			{Name: "criticality_multiplier", Kind: result.KindNumber, Min: skillerr.Bound(0), Places: 4},
			{Name: "certification_credit", Kind: result.KindNumber, Min: skillerr.Bound(0), Places: 2},
			{Name: "mitigations", Kind: result.KindList},
			{Name: "spend_at_risk", Kind: result.KindDecimal, Min: skillerr.Bound(0), Places: 2},
		},
		Tables: []refdata.TableSchema{
			{Name: tableWeights, Columns: []refdata.Column{{Name: "dimension"}, {Name: "weight", Numeric: true}}},
			{Name: tableCountries, Columns: []refdata.Column{{Name: "country"}, {Name: "index", Numeric: true}}},
			{Name: tableCategories, Columns: []refdata.Column{{Name: "category"}, {Name: "multiplier", Numeric: true}}},
			{Name: tableDefects, Columns: []refdata.Column{{Name: "min_ppm", Numeric: true}, {Name: "score", Numeric: true}}},
			{Name: tableLeadTimes, Columns: []refdata.Column{{Name: "min_days", Numeric: true}, {Name: "score", Numeric: true}}},
			{Name: tableCerts, Columns: []refdata.Column{{Name: "certification"}, {Name: "credit", Numeric: true}}},
			{Name: tableTiers, Columns: []refdata.Column{{Name: "tier"}, {Name: "min_score", Numeric: true}, {Name: "review_cadence"}}},
			{Name: tableParams, Columns: []refdata.Column{{Name: "parameter"}, {Name: "value", Numeric: true}}},
			{Name: tableMitigations, Columns: []refdata.Column{{Name: "dimension"}, {Name: "min_score", Numeric: true}, {Name: "mitigation"}}},
		},
		AlertsField: "mitigations",
	}
}

func (Skill) Assemble(res *rule.Results, in record.Record) (map[string]any, error) {
	return map[string]any{
		"supplier_id":            in.String("supplier_id"),
		"risk_score":             res.Score(ruleRiskScore),
		"risk_tier":              res.Label(ruleRiskTier),
		"review_cadence":         res.Label(ruleReviewCadence),
		"dimension_scores":       res.Object(ruleDimensionScores),
		"criticality_multiplier": res.Score(ruleCriticality),
		"certification_credit":   res.Score(ruleCertCredit),
		"mitigations":            res.List(ruleMitigations),
		"spend_at_risk":          res.Decimal(ruleSpendAtRisk),
	}, nil
}
