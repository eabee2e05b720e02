// Package churn scores the likelihood that a subscription customer leaves,
// as a weighted sum of banded behavioural factors.
package churn

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
const Name = "customer-churn-risk"

//go:embed tables/*.csv
var tablesFS embed.FS

const (
	tableWeights  = "churn_weights"
	tableBands    = "churn_factor_bands"
	tableContract = "contract_risk"
	tableTiers    = "churn_tiers"
	tableActions  = "retention_actions"
)

// Skill is the customer churn risk calculator.
type Skill struct{}

// New returns the skill.
func New() Skill { return Skill{} }

func (Skill) Tables() fs.FS { return skill.Subtree(tablesFS, "tables") }

func (Skill) Descriptor() skill.Descriptor {
	return skill.Descriptor{
		Name:        Name,
		Title:       "Customer churn risk",
		Description: "Weighted churn score from tenure, engagement, support, billing, contract and satisfaction factors.",
		Version:     "1.0.0",
		Inputs: record.Schema{
			{Name: "customer_id", Kind: record.KindString, Required: true},
			{Name: "tenure_months", Kind: record.KindInteger, Required: true, Min: skillerr.Bound(0)},
			{Name: "monthly_charges", Kind: record.KindDecimal, Required: true, Min: skillerr.Bound(0)},
			{Name: "days_since_last_login", Kind: record.KindInteger, Default: int64(0), Min: skillerr.Bound(0)},
			{Name: "usage_change_pct", Kind: record.KindNumber, Default: 0.0, Min: skillerr.Bound(-100),
				Description: "change in usage over the last period, in percent"},
			{Name: "support_tickets_90d", Kind: record.KindInteger, Default: int64(0), Min: skillerr.Bound(0)},
			{Name: "payment_failures_12m", Kind: record.KindInteger, Default: int64(0), Min: skillerr.Bound(0)},
			{Name: "contract_type", Kind: record.KindString, Default: "month_to_month"},
			{Name: "satisfaction_score", Kind: record.KindInteger, Default: int64(7), Min: skillerr.Bound(0), Max: skillerr.Bound(10)},
		},
		Outputs: result.Schema{
			{Name: "customer_id", Kind: result.KindString},
			{Name: "churn_score", Kind: result.KindNumber, Min: skillerr.Bound(0), Max: skillerr.Bound(100), Places: 2},
			{Name: "churn_probability", Kind: result.KindNumber, Min: skillerr.Bound(0), Max: skillerr.Bound(1), Places: 4},
			{Name: "risk_tier", Kind: result.KindString, Default: "low"},
			{Name: "top_drivers", Kind: result.KindList},
			{Name: "retention_actions", Kind: result.KindList},
			{Name: "annual_revenue_at_risk", Kind: result.KindDecimal, Min: skillerr.Bound(0), Places: 2},
			{Name: "factor_scores", Kind: result.KindObject},
		},
		Tables: []refdata.TableSchema{
			{Name: tableWeights, Columns: []refdata.Column{{Name: "factor"}, {Name: "weight", Numeric: true}, {Name: "direction"}}},
			{Name: tableBands, Columns: []refdata.Column{{Name: "factor"}, {Name: "min_value", Numeric: true}, {Name: "score", Numeric: true}}},
			{Name: tableContract, Columns: []refdata.Column{{Name: "contract_type"}, {Name: "score", Numeric: true}}},
			{Name: tableTiers, Columns: []refdata.Column{{Name: "tier"}, {Name: "min_score", Numeric: true}}},
			{Name: tableActions, Columns: []refdata.Column{{Name: "tier"}, {Name: "priority", Numeric: true}, {Name: "action"}}},
		},
	}
}

func (Skill) Assemble(res *rule.Results, in record.Record) (map[string]any, error) {
	return map[string]any{
		"customer_id":            in.String("customer_id"),
		"churn_score":            res.Score(ruleChurnScore),
		"churn_probability":      res.Score(ruleProbability),
		"risk_tier":              res.Label(ruleRiskTier),
		"top_drivers":            res.List(ruleTopDrivers),
		"retention_actions":      res.List(ruleActions),
		"annual_revenue_at_risk": res.Decimal(ruleRevenueAtRisk),
		"factor_scores":          res.Object(ruleFactorScores),
	}, nil
}
