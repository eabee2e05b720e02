package churn

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/bibbank/skills/internal/domain/refdata"
	"github.com/bibbank/skills/internal/domain/rule"
	"github.com/bibbank/skills/internal/domain/skillerr"
)

const (
	ruleFactorScores  = "factor_scores"
	ruleChurnScore    = "churn_score"
	ruleProbability   = "churn_probability"
	ruleRiskTier      = "risk_tier"
	ruleTopDrivers    = "top_drivers"
	ruleActions       = "retention_actions"
	ruleRevenueAtRisk = "annual_revenue_at_risk"
)

const (
	directionAscending   = "ascending"
	directionDescending  = "descending"
	directionCategorical = "categorical"
)

// Factor names, in the order they are scored.
const (
	FactorTenure       = "tenure"
	FactorInactivity   = "inactivity"
	FactorUsageDecline = "usage_decline"
	FactorSupportLoad  = "support_load"
	FactorBilling      = "billing"
	FactorContract     = "contract"
	FactorSatisfaction = "satisfaction"
)

var bandedFactors = []struct {
	name  string
	input string
	value func(v float64) float64
}{
	{FactorTenure, "tenure_months", nil},
	{FactorInactivity, "days_since_last_login", nil},
	{FactorUsageDecline, "usage_change_pct", func(v float64) float64 { return math.Max(0, -v) }},
	{FactorSupportLoad, "support_tickets_90d", nil},
	{FactorBilling, "payment_failures_12m", nil},
	{FactorSatisfaction, "satisfaction_score", nil},
}

var allFactors = []string{
	FactorTenure, FactorInactivity, FactorUsageDecline, FactorSupportLoad,
	FactorBilling, FactorContract, FactorSatisfaction,
}

const weightTolerance = 0.001

func factorRule(f string) string { return f + "_score" }

func (Skill) Rules() rule.Pipeline {
	p := make(rule.Pipeline, 0, len(allFactors)+7)
	for _, f := range bandedFactors {
		p = append(p, rule.Rule{
			Name:   factorRule(f.name),
			Inputs: []string{f.input},
			Tables: []string{tableWeights, tableBands},
			Eval: func(c *rule.Context) (rule.Partial, error) {
				v := c.Input.Float(f.input)
				if f.value != nil {
					v = f.value(v)
				}
				score, err := bandScore(c, f.name, v)
				if err != nil {
					return rule.Partial{}, err
				}
				return rule.Score(score), nil
			},
		})
	}

	p = append(p, rule.Rule{
		Name:   factorRule(FactorContract),
		Inputs: []string{"contract_type"},
		Tables: []string{tableContract},
		Eval: func(c *rule.Context) (rule.Partial, error) {
			t, err := c.Table(tableContract)
			if err != nil {
				return rule.Partial{}, err
			}
			ct := c.Input.String("contract_type")
			row, ok := t.Lookup("contract_type", ct)
			if !ok {
				return rule.Partial{}, skillerr.Validation("contract_type", "unknown contract type %q", ct)
			}
			return rule.Score(row.Float("score")), nil
		},
	})

	after := make([]string, len(allFactors))
	for i, f := range allFactors {
		after[i] = factorRule(f)
	}

	return append(p,
		rule.Rule{
			Name:  ruleFactorScores,
			After: after,
			Eval: func(c *rule.Context) (rule.Partial, error) {
				scores := make(map[string]any, len(allFactors))
				for _, f := range allFactors {
					scores[f] = c.Score(factorRule(f))
				}
				return rule.Object(scores), nil
			},
		},
		rule.Rule{
			Name:        ruleChurnScore,
			Description: "sum of weight x factor score; the weights must total 1",
			After:       after,
			Tables:      []string{tableWeights},
			Eval: func(c *rule.Context) (rule.Partial, error) {
				w, err := weigh(c)
				if err != nil {
					return rule.Partial{}, err
				}
				return rule.Score(rule.Clamp(w.Float(2), 0, 100)), nil
			},
		},
		rule.Rule{
			Name:  ruleProbability,
			After: []string{ruleChurnScore},
			Eval: func(c *rule.Context) (rule.Partial, error) {
				return rule.Score(rule.Round(c.Score(ruleChurnScore)/100, 4)), nil
			},
		},
		rule.Rule{
			Name:   ruleRiskTier,
			After:  []string{ruleChurnScore},
			Tables: []string{tableTiers},
			Eval: func(c *rule.Context) (rule.Partial, error) {
				t, err := c.Table(tableTiers)
				if err != nil {
					return rule.Partial{}, err
				}
				ladder, err := rule.LadderFromTable(t, "tier", "min_score", rule.Ascending)
				if err != nil {
					return rule.Partial{}, err
				}
				return rule.Label(ladder.Select(c.Score(ruleChurnScore)).Name), nil
			},
		},
		rule.Rule{
			Name:        ruleTopDrivers,
			Description: "the three largest positive contributions, ties by name",
			After:       after,
			Tables:      []string{tableWeights},
			Eval: func(c *rule.Context) (rule.Partial, error) {
				w, err := weigh(c)
				if err != nil {
					return rule.Partial{}, err
				}
				return rule.List(w.Top(3)...), nil
			},
		},
		rule.Rule{
			Name:   ruleActions,
			After:  []string{ruleRiskTier},
			Tables: []string{tableActions},
			Eval: func(c *rule.Context) (rule.Partial, error) {
				t, err := c.Table(tableActions)
				if err != nil {
					return rule.Partial{}, err
				}
				rows := t.Filter("tier", c.Label(ruleRiskTier))
				sort.SliceStable(rows, func(i, j int) bool {
					return rows[i].Float("priority") < rows[j].Float("priority")
				})
				actions := make([]string, len(rows))
				for i, r := range rows {
					actions[i] = r.String("action")
				}
				return rule.List(actions...), nil
			},
		},
		rule.Rule{
			Name:        ruleRevenueAtRisk,
			Description: "monthly charges x 12 x churn probability",
			Inputs:      []string{"monthly_charges"},
			After:       []string{ruleProbability},
			Eval: func(c *rule.Context) (rule.Partial, error) {
				annual := c.Input.Decimal("monthly_charges").Mul(decimal.NewFromInt(12))
				return rule.Decimal(annual.Mul(decimal.NewFromFloat(c.Score(ruleProbability))).Round(2)), nil
			},
		},
	)
}

func bandScore(c *rule.Context, factor string, v float64) (float64, error) {
	weights, err := c.Table(tableWeights)
	if err != nil {
		return 0, err
	}
	w, ok := weights.Lookup("factor", factor)
	if !ok {
		return 0, skillerr.DataNotFound(tableWeights, nil, "no weight for factor %q", factor)
	}

	var dir rule.Direction
	switch w.String("direction") {
	case directionAscending:
		dir = rule.Ascending
	case directionDescending:
		dir = rule.Descending
	case directionCategorical:
		return 0, skillerr.DataNotFound(tableWeights, nil, "factor %q is categorical and has no bands", factor)
	default:
		return 0, skillerr.DataNotFound(tableWeights, nil, "factor %q has unusable direction %q", factor, w.String("direction"))
	}

	bands, err := c.Table(tableBands)
	if err != nil {
		return 0, err
	}
	ladder, err := rule.LadderFromRows(tableBands, bands.Filter("factor", factor), "min_value", "min_value", dir)
	if err != nil {
		return 0, err
	}
	return ladder.Select(v).Row.Float("score"), nil
}

func weigh(c *rule.Context) (rule.Weighted, error) {
	t, err := c.Table(tableWeights)
	if err != nil {
		return rule.Weighted{}, err
	}
	factors := make([]rule.Factor, 0, len(allFactors))
	for _, f := range allFactors {
		row, ok := t.Lookup("factor", f)
		if !ok {
			return rule.Weighted{}, skillerr.DataNotFound(tableWeights, nil, "no weight for factor %q", f)
		}
		factors = append(factors, rule.Factor{Name: f, Weight: row.Float("weight"), Score: c.Score(factorRule(f))})
	}
	if err := checkWeights(t, factors); err != nil {
		return rule.Weighted{}, err
	}
	return rule.WeightedSum(factors), nil
}

func checkWeights(t *refdata.Table, factors []rule.Factor) error {
	if err := rule.CheckWeights(t.Name(), factors, weightTolerance); err != nil {
		return err
	}
	if t.Len() != len(factors) {
		return skillerr.DataNotFound(t.Name(), nil, "expected %d factors, found %d", len(factors), t.Len())
	}
	return nil
}
