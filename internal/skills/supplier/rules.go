package supplier

import (
	"math"
	"regexp"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/bibbank/skills/internal/domain/rule"
	"github.com/bibbank/skills/internal/domain/skillerr"
	"github.com/bibbank/skills/internal/domain/valueobject"
)

// Dimension names.
const (
	DimensionGeopolitical  = "geopolitical"
	DimensionDelivery      = "delivery"
	DimensionQuality       = "quality"
	DimensionFinancial     = "financial"
	DimensionConcentration = "concentration"
)

var dimensions = []string{
	DimensionGeopolitical, DimensionDelivery, DimensionQuality, DimensionFinancial, DimensionConcentration,
}

const (
	ruleDimensionScores = "dimension_scores"
	ruleWeightedScore   = "weighted_score"
	ruleCriticality     = "criticality"
	ruleCertCredit      = "certification_credit"
	ruleRiskScore       = "risk_score"
	ruleRiskTier        = "risk_tier"
	ruleReviewCadence   = "review_cadence"
	ruleMitigations     = "mitigations"
	ruleSpendAtRisk     = "spend_at_risk"
)

// Delivery blends the on-time gap with the lead-time band.
const (
	deliveryGapShare  = 0.6
	deliveryLeadShare = 0.4
)

var countryCodeRe = regexp.MustCompile(`^[A-Z]{2}$`)

func (Skill) Rules() rule.Pipeline {
	return rule.Pipeline{
		{
			Name:        DimensionGeopolitical,
			Description: "country risk index; unlisted countries take the unknown-country index",
			Inputs:      []string{"country"},
			Tables:      []string{tableCountries, tableParams},
			Eval: func(c *rule.Context) (rule.Partial, error) {
				code := strings.ToUpper(strings.TrimSpace(c.Input.String("country")))
				if !countryCodeRe.MatchString(code) {
					return rule.Partial{}, skillerr.Validation("country", "must be an ISO 3166 alpha-2 code, got %q", code)
				}
				t, err := c.Table(tableCountries)
				if err != nil {
					return rule.Partial{}, err
				}
				if row, ok := t.Lookup("country", code); ok {
					return rule.Score(row.Float("index")), nil
				}
				unknown, err := c.Param(tableParams, "unknown_country_index")
				if err != nil {
					return rule.Partial{}, err
				}
				return rule.Score(unknown), nil
			},
		},
		{
			Name:        DimensionDelivery,
			Description: "0.6 x min(100, on-time gap x scale) + 0.4 x lead-time band",
			Inputs:      []string{"on_time_delivery_rate", "lead_time_days"},
			Tables:      []string{tableLeadTimes, tableParams},
			Eval: func(c *rule.Context) (rule.Partial, error) {
				scale, err := c.Param(tableParams, "otd_gap_scale")
				if err != nil {
					return rule.Partial{}, err
				}
				lead, err := band(c, tableLeadTimes, "min_days", float64(c.Input.Int("lead_time_days")))
				if err != nil {
					return rule.Partial{}, err
				}
				gap := math.Min(100, (1-c.Input.Float("on_time_delivery_rate"))*scale)
				return rule.Score(rule.Round(deliveryGapShare*gap+deliveryLeadShare*lead, 4)), nil
			},
		},
		{
			Name:   DimensionQuality,
			Inputs: []string{"defect_rate_ppm"},
			Tables: []string{tableDefects},
			Eval: func(c *rule.Context) (rule.Partial, error) {
				score, err := band(c, tableDefects, "min_ppm", c.Input.Float("defect_rate_ppm"))
				if err != nil {
					return rule.Partial{}, err
				}
				return rule.Score(score), nil
			},
		},
		{
			Name:   DimensionFinancial,
			Inputs: []string{"financial_health_score"},
			Eval: func(c *rule.Context) (rule.Partial, error) {
				return rule.Score(100 - c.Input.Float("financial_health_score")), nil
			},
		},
		{
			Name:   DimensionConcentration,
			Inputs: []string{"single_source"},
			Tables: []string{tableParams},
			Eval: func(c *rule.Context) (rule.Partial, error) {
				param := "multi_source_score"
				if c.Input.Bool("single_source") {
					param = "single_source_score"
				}
				v, err := c.Param(tableParams, param)
				if err != nil {
					return rule.Partial{}, err
				}
				return rule.Score(v), nil
			},
		},
		{
			Name:  ruleDimensionScores,
			After: dimensions,
			Eval: func(c *rule.Context) (rule.Partial, error) {
				scores := make(map[string]any, len(dimensions))
				for _, d := range dimensions {
					scores[d] = c.Score(d)
				}
				return rule.Object(scores), nil
			},
		},
		{
			Name:   ruleWeightedScore,
			After:  dimensions,
			Tables: []string{tableWeights},
			Eval: func(c *rule.Context) (rule.Partial, error) {
				t, err := c.Table(tableWeights)
				if err != nil {
					return rule.Partial{}, err
				}
				factors := make([]rule.Factor, 0, len(dimensions))
				for _, d := range dimensions {
					row, ok := t.Lookup("dimension", d)
					if !ok {
						return rule.Partial{}, skillerr.DataNotFound(tableWeights, nil, "no weight for dimension %q", d)
					}
					factors = append(factors, rule.Factor{Name: d, Weight: row.Float("weight"), Score: c.Score(d)})
				}
				if err := rule.CheckWeights(tableWeights, factors, 0.001); err != nil {
					return rule.Partial{}, err
				}
				return rule.Score(rule.WeightedSum(factors).Float(4)), nil
			},
		},
		{
			Name:   ruleCriticality,
			Inputs: []string{"category"},
			Tables: []string{tableCategories},
			Eval: func(c *rule.Context) (rule.Partial, error) {
				t, err := c.Table(tableCategories)
				if err != nil {
					return rule.Partial{}, err
				}
				category := c.Input.String("category")
				row, ok := t.Lookup("category", category)
				if !ok {
					return rule.Partial{}, skillerr.Validation("category", "unknown category %q", category)
				}
				return rule.Score(row.Float("multiplier")), nil
			},
		},
		{
			Name:        ruleCertCredit,
			Description: "points off for recognised certifications, capped; unrecognised ones earn nothing",
			Inputs:      []string{"certifications"},
			Tables:      []string{tableCerts, tableParams},
			Eval: func(c *rule.Context) (rule.Partial, error) {
				t, err := c.Table(tableCerts)
				if err != nil {
					return rule.Partial{}, err
				}
				limit, err := c.Param(tableParams, "max_certification_credit")
				if err != nil {
					return rule.Partial{}, err
				}
				seen := map[string]bool{}
				credit := 0.0
				for _, cert := range c.Input.Strings("certifications") {
					key := strings.ToLower(strings.TrimSpace(cert))
					if seen[key] {
						continue
					}
					seen[key] = true
					if row, ok := t.Lookup("certification", key); ok {
						credit += row.Float("credit")
					}
				}
				return rule.Score(math.Min(credit, limit)), nil
			},
		},
		{
			Name:        ruleRiskScore,
			Description: "weighted score x criticality - certification credit, clamped to 0..100",
			After:       []string{ruleWeightedScore, ruleCriticality, ruleCertCredit},
			Eval: func(c *rule.Context) (rule.Partial, error) {
				score := decimal.NewFromFloat(c.Score(ruleWeightedScore)).
					Mul(decimal.NewFromFloat(c.Score(ruleCriticality))).
					Sub(decimal.NewFromFloat(c.Score(ruleCertCredit)))
				f, _ := score.Round(2).Float64()
				return rule.Score(rule.Clamp(f, 0, 100)), nil
			},
		},
		{
			Name:   ruleRiskTier,
			After:  []string{ruleRiskScore},
			Tables: []string{tableTiers},
			Eval: func(c *rule.Context) (rule.Partial, error) {
				tier, err := supplierTier(c)
				if err != nil {
					return rule.Partial{}, err
				}
				level, err := valueobject.RiskLevelFromString(tier.Name)
				if err != nil {
					return rule.Partial{}, skillerr.DataNotFound(tableTiers, err, "bad tier label")
				}
				return rule.Label(level.String()), nil
			},
		},
		{
			Name:   ruleReviewCadence,
			After:  []string{ruleRiskScore},
			Tables: []string{tableTiers},
			Eval: func(c *rule.Context) (rule.Partial, error) {
				tier, err := supplierTier(c)
				if err != nil {
					return rule.Partial{}, err
				}
				return rule.Label(tier.Row.String("review_cadence")), nil
			},
		},
		{
			Name:        ruleMitigations,
			Description: "one mitigation per dimension at or above its trigger score",
			After:       dimensions,
			Tables:      []string{tableMitigations},
			Eval: func(c *rule.Context) (rule.Partial, error) {
				t, err := c.Table(tableMitigations)
				if err != nil {
					return rule.Partial{}, err
				}
				out := []string{}
				for _, row := range t.Rows() {
					d := row.String("dimension")
					if !slices.Contains(dimensions, d) {
						return rule.Partial{}, skillerr.DataNotFound(tableMitigations, nil, "unknown dimension %q", d)
					}
					if c.Score(d) >= row.Float("min_score") {
						out = append(out, row.String("mitigation"))
					}
				}
				return rule.List(out...), nil
			},
		},
		{
			Name:        ruleSpendAtRisk,
			Description: "annual spend x risk score / 100",
			Inputs:      []string{"annual_spend"},
			After:       []string{ruleRiskScore},
			Eval: func(c *rule.Context) (rule.Partial, error) {
				spend := c.Input.Decimal("annual_spend")
				share := decimal.NewFromFloat(c.Score(ruleRiskScore)).Div(decimal.NewFromInt(100))
				return rule.Decimal(spend.Mul(share).Round(2)), nil
			},
		},
	}
}

func band(c *rule.Context, table, boundCol string, v float64) (float64, error) {
	t, err := c.Table(table)
	if err != nil {
		return 0, err
	}
	ladder, err := rule.LadderFromTable(t, boundCol, boundCol, rule.Ascending)
	if err != nil {
		return 0, err
	}
	return ladder.Select(v).Row.Float("score"), nil
}

func supplierTier(c *rule.Context) (rule.Tier, error) {
	t, err := c.Table(tableTiers)
	if err != nil {
		return rule.Tier{}, err
	}
	ladder, err := rule.LadderFromTable(t, "tier", "min_score", rule.Ascending)
	if err != nil {
		return rule.Tier{}, err
	}
	return ladder.Select(c.Score(ruleRiskScore)), nil
}
