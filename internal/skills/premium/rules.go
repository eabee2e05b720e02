package premium

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/bibbank/skills/internal/domain/refdata"
	"github.com/bibbank/skills/internal/domain/rule"
	"github.com/bibbank/skills/internal/domain/skillerr"
	"github.com/bibbank/skills/pkg/money"
)

const (
	ruleBasePremium        = "base_premium"
	ruleHazardClass        = "hazard_class"
	ruleSecurityTier       = "security_tier"
	ruleSecurityMultiplier = "security_multiplier"
	ruleRevenueBand        = "revenue_band"
	ruleRevenueFactor      = "revenue_factor"
	ruleClaimsLoading      = "claims_loading"
	ruleControlCredit      = "control_credit"
	ruleDeductibleCredit   = "deductible_credit"
	ruleTotalCredit        = "total_credit"
	ruleDeclineReasons     = "decline_reasons"
	ruleInsurable          = "insurable"
	ruleReferral           = "underwriter_referral"
	ruleAnnualPremium      = "annual_premium"
	ruleRecommendations    = "recommendations"
)

var rateUnit = decimal.NewFromInt(1000)

func (Skill) Rules() rule.Pipeline {
	return rule.Pipeline{
		{
			Name:        ruleBasePremium,
			Description: "coverage limit / 1,000 x industry base rate",
			Inputs:      []string{"coverage_limit", "industry", "currency"},
			Tables:      []string{tableIndustry},
			Eval: func(c *rule.Context) (rule.Partial, error) {
				if _, err := money.ParseCurrency(c.Input.String("currency")); err != nil {
					return rule.Partial{}, skillerr.Validation("currency", "%s", err.Error())
				}
				row, err := industry(c)
				if err != nil {
					return rule.Partial{}, err
				}
				base := c.Input.Decimal("coverage_limit").Div(rateUnit).Mul(row.Decimal("base_rate"))
				return rule.Decimal(base.Round(2)), nil
			},
		},
		{
			Name:   ruleHazardClass,
			Inputs: []string{"industry"},
			Tables: []string{tableIndustry},
			Eval: func(c *rule.Context) (rule.Partial, error) {
				row, err := industry(c)
				if err != nil {
					return rule.Partial{}, err
				}
				return rule.Label(row.String("hazard_class")), nil
			},
		},
		{
			Name:        ruleSecurityTier,
			Description: "security tier; a rating must be strictly above a tier's floor to earn it",
			Inputs:      []string{"security_rating"},
			Tables:      []string{tableSecurity},
			Eval: func(c *rule.Context) (rule.Partial, error) {
				tier, err := securityTier(c)
				if err != nil {
					return rule.Partial{}, err
				}
				return rule.Label(tier.Name), nil
			},
		},
		{
			Name:   ruleSecurityMultiplier,
			Inputs: []string{"security_rating"},
			Tables: []string{tableSecurity},
			Eval: func(c *rule.Context) (rule.Partial, error) {
				tier, err := securityTier(c)
				if err != nil {
					return rule.Partial{}, err
				}
				return rule.Score(tier.Row.Float("multiplier")), nil
			},
		},
		{
			Name:   ruleRevenueBand,
			Inputs: []string{"annual_revenue"},
			Tables: []string{tableRevenue},
			Eval: func(c *rule.Context) (rule.Partial, error) {
				tier, err := ladderSelect(c, tableRevenue, "band", "min_revenue", rule.Ascending, c.Input.Float("annual_revenue"))
				if err != nil {
					return rule.Partial{}, err
				}
				return rule.Label(tier.Name), nil
			},
		},
		{
			Name:   ruleRevenueFactor,
			Inputs: []string{"annual_revenue"},
			Tables: []string{tableRevenue},
			Eval: func(c *rule.Context) (rule.Partial, error) {
				tier, err := ladderSelect(c, tableRevenue, "band", "min_revenue", rule.Ascending, c.Input.Float("annual_revenue"))
				if err != nil {
					return rule.Partial{}, err
				}
				return rule.Score(tier.Row.Float("factor")), nil
			},
		},
		{
			Name:   ruleClaimsLoading,
			Inputs: []string{"prior_claims"},
			Tables: []string{tableClaims},
			Eval: func(c *rule.Context) (rule.Partial, error) {
				tier, err := ladderSelect(c, tableClaims, "min_claims", "min_claims", rule.Ascending, float64(c.Input.Int("prior_claims")))
				if err != nil {
					return rule.Partial{}, err
				}
				return rule.Score(tier.Row.Float("loading")), nil
			},
		},
		{
			Name:        ruleControlCredit,
			Description: "sum of credits for the security controls in place",
			Inputs:      []string{"has_mfa", "has_edr", "has_offline_backups", "has_incident_response_plan"},
			Tables:      []string{tableControls},
			Eval: func(c *rule.Context) (rule.Partial, error) {
				table, err := c.Table(tableControls)
				if err != nil {
					return rule.Partial{}, err
				}
				credit := 0.0
				for _, row := range table.Rows() {
					if c.Input.Bool(row.String("input")) {
						credit += row.Float("credit")
					}
				}
				return rule.Score(credit), nil
			},
		},
		{
			Name:   ruleDeductibleCredit,
			Inputs: []string{"deductible"},
			Tables: []string{tableDeductible},
			Eval: func(c *rule.Context) (rule.Partial, error) {
				tier, err := ladderSelect(c, tableDeductible, "min_deductible", "min_deductible", rule.Descending, c.Input.Float("deductible"))
				if err != nil {
					return rule.Partial{}, err
				}
				return rule.Score(tier.Row.Float("credit")), nil
			},
		},
		{
			Name:   ruleTotalCredit,
			After:  []string{ruleControlCredit, ruleDeductibleCredit},
			Tables: []string{tableParams},
			Eval: func(c *rule.Context) (rule.Partial, error) {
				limit, err := c.Param(tableParams, "max_total_credit")
				if err != nil {
					return rule.Partial{}, err
				}
				total := c.Score(ruleControlCredit) + c.Score(ruleDeductibleCredit)
				return rule.Score(rule.Round(rule.Clamp(total, 0, limit), 4)), nil
			},
		},
		{
			Name:        ruleDeclineReasons,
			Description: "ratings at or below the floor and claim counts at or above the ceiling are declined",
			Inputs:      []string{"security_rating", "prior_claims"},
			Tables:      []string{tableParams},
			Eval: func(c *rule.Context) (rule.Partial, error) {
				minRating, err := c.Param(tableParams, "decline_rating")
				if err != nil {
					return rule.Partial{}, err
				}
				maxClaims, err := c.Param(tableParams, "decline_claims")
				if err != nil {
					return rule.Partial{}, err
				}
				reasons := []string{}
				if r := c.Input.Float("security_rating"); r <= minRating {
					reasons = append(reasons, fmt.Sprintf("security rating %s is at or below the minimum of %s", num(r), num(minRating)))
				}
				if n := c.Input.Int("prior_claims"); float64(n) >= maxClaims {
					reasons = append(reasons, fmt.Sprintf("%d prior claims reach the decline threshold of %s", n, num(maxClaims)))
				}
				return rule.List(reasons...), nil
			},
		},
		{
			Name:  ruleInsurable,
			After: []string{ruleDeclineReasons},
			Eval: func(c *rule.Context) (rule.Partial, error) {
				return rule.Flag(len(c.List(ruleDeclineReasons)) == 0), nil
			},
		},
		{
			Name:        ruleReferral,
			Description: "coverage at or above the permitted multiple of revenue needs an underwriter",
			Inputs:      []string{"coverage_limit", "annual_revenue"},
			Tables:      []string{tableParams},
			Eval: func(c *rule.Context) (rule.Partial, error) {
				ratio, err := c.Param(tableParams, "max_coverage_to_revenue")
				if err != nil {
					return rule.Partial{}, err
				}
				limit := c.Input.Decimal("annual_revenue").Mul(decimal.NewFromFloat(ratio))
				return rule.Flag(c.Input.Decimal("coverage_limit").GreaterThanOrEqual(limit)), nil
			},
		},
		{
			Name:        ruleAnnualPremium,
			Description: "max(minimum, base x security x revenue x claims x (1 - credit)); zero when declined",
			After:       []string{ruleBasePremium, ruleSecurityMultiplier, ruleRevenueFactor, ruleClaimsLoading, ruleTotalCredit, ruleInsurable},
			Tables:      []string{tableParams},
			Eval: func(c *rule.Context) (rule.Partial, error) {
				if !c.Flag(ruleInsurable) {
					return rule.Decimal(decimal.Zero), nil
				}
				minimum, err := c.Param(tableParams, "minimum_premium")
				if err != nil {
					return rule.Partial{}, err
				}
				premium := c.Decimal(ruleBasePremium).
					Mul(decimal.NewFromFloat(c.Score(ruleSecurityMultiplier))).
					Mul(decimal.NewFromFloat(c.Score(ruleRevenueFactor))).
					Mul(decimal.NewFromFloat(c.Score(ruleClaimsLoading))).
					Mul(decimal.NewFromInt(1).Sub(decimal.NewFromFloat(c.Score(ruleTotalCredit))))
				return rule.Decimal(decimal.Max(premium, decimal.NewFromFloat(minimum)).Round(2)), nil
			},
		},
		{
			Name:   ruleRecommendations,
			Inputs: []string{"has_mfa", "has_edr", "has_offline_backups", "has_incident_response_plan"},
			After:  []string{ruleReferral, ruleSecurityTier},
			Tables: []string{tableControls},
			Eval: func(c *rule.Context) (rule.Partial, error) {
				table, err := c.Table(tableControls)
				if err != nil {
					return rule.Partial{}, err
				}
				recs := []string{}
				for _, row := range table.Rows() {
					if !c.Input.Bool(row.String("input")) {
						recs = append(recs, fmt.Sprintf("Add %s to earn a %s%% premium credit", row.String("label"), num(row.Float("credit")*100)))
					}
				}
				if tier := c.Label(ruleSecurityTier); tier == "weak" || tier == "poor" {
					recs = append(recs, "Remediate findings from the external security rating before renewal")
				}
				if c.Flag(ruleReferral) {
					recs = append(recs, "Refer to an underwriter: coverage limit is high relative to revenue")
				}
				return rule.List(recs...), nil
			},
		},
	}
}

func industry(c *rule.Context) (refdata.Row, error) {
	table, err := c.Table(tableIndustry)
	if err != nil {
		return refdata.Row{}, err
	}
	name := c.Input.String("industry")
	row, ok := table.Lookup("industry", name)
	if !ok {
		return refdata.Row{}, skillerr.Validation("industry", "unknown industry %q", name)
	}
	return row, nil
}

func securityTier(c *rule.Context) (rule.Tier, error) {
	return ladderSelect(c, tableSecurity, "tier", "min_rating", rule.Descending, c.Input.Float("security_rating"))
}

func ladderSelect(c *rule.Context, table, nameCol, boundCol string, dir rule.Direction, v float64) (rule.Tier, error) {
	t, err := c.Table(table)
	if err != nil {
		return rule.Tier{}, err
	}
	ladder, err := rule.LadderFromTable(t, nameCol, boundCol, dir)
	if err != nil {
		return rule.Tier{}, err
	}
	return ladder.Select(v), nil
}

func num(v float64) string {
	return strconv.FormatFloat(rule.Round(v, 4), 'f', -1, 64)
}
