package aml

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/bibbank/skills/internal/domain/record"
	"github.com/bibbank/skills/internal/domain/rule"
	"github.com/bibbank/skills/internal/domain/skillerr"
	"github.com/bibbank/skills/internal/domain/valueobject"
	"github.com/bibbank/skills/pkg/money"
)

const (
	ruleCTR             = "ctr_reporting"
	ruleNearThreshold   = "near_threshold"
	ruleSimilarPriors   = "similar_priors"
	ruleWindowCount     = "window_count"
	ruleWindowVolume    = "window_volume"
	ruleStructuring     = "structuring"
	ruleVelocity        = "velocity"
	ruleJurisdiction    = "jurisdiction_tier"
	ruleGeographic      = "geographic_risk"
	ruleTypeRisk        = "type_risk"
	ruleProfileRisk     = "profile_risk"
	ruleRiskScore       = "risk_score"
	ruleRiskLevel       = "risk_level"
	ruleDecision        = "decision"
	ruleAlerts          = "alerts"
	ruleRecommendations = "recommendations"
)

// Jurisdiction tiers, least severe first. Countries missing from the table
// are treated as "unlisted", ranked with elevated.
const (
	tierStandard   = "standard"
	tierElevated   = "elevated"
	tierUnlisted   = "unlisted"
	tierHigh       = "high"
	tierProhibited = "prohibited"
)

var tierRank = map[string]int{
	tierStandard:   0,
	tierElevated:   1,
	tierUnlisted:   1,
	tierHigh:       2,
	tierProhibited: 3,
}

var countryCodeRe = regexp.MustCompile(`^[A-Z]{2}$`)

func (Skill) Rules() rule.Pipeline {
	return rule.Pipeline{
		{
			Name:        ruleCTR,
			Description: "amount at or above the currency transaction reporting threshold",
			Inputs:      []string{"amount", "currency"},
			Tables:      []string{tableParams},
			Eval: func(c *rule.Context) (rule.Partial, error) {
				if _, err := money.ParseCurrency(c.Input.String("currency")); err != nil {
					return rule.Partial{}, skillerr.Validation("currency", "%s", err.Error())
				}
				p, err := loadParams(c)
				if err != nil {
					return rule.Partial{}, err
				}
				return rule.Flag(c.Input.Decimal("amount").GreaterThanOrEqual(p.ctrThreshold)), nil
			},
		},
		{
			Name:        ruleNearThreshold,
			Description: "amount inside the structuring band just below the threshold",
			Inputs:      []string{"amount"},
			Tables:      []string{tableParams},
			Eval: func(c *rule.Context) (rule.Partial, error) {
				p, err := loadParams(c)
				if err != nil {
					return rule.Partial{}, err
				}
				amount := c.Input.Decimal("amount")
				return rule.Flag(amount.GreaterThanOrEqual(p.nearFloor()) && amount.LessThan(p.ctrThreshold)), nil
			},
		},
		{
			Name:        ruleSimilarPriors,
			Description: "recent sub-threshold priors that are near the threshold or close to this amount",
			Inputs:      []string{"amount", "prior_transactions"},
			Tables:      []string{tableParams},
			Eval: func(c *rule.Context) (rule.Partial, error) {
				p, err := loadParams(c)
				if err != nil {
					return rule.Partial{}, err
				}
				amount := c.Input.Decimal("amount")
				tolerance := amount.Mul(p.similarPct)

				n := 0
				for _, prior := range inWindow(c.Input, p.lookbackDays) {
					a := prior.Decimal("amount")
					if !a.LessThan(p.ctrThreshold) {
						continue
					}
					if a.GreaterThanOrEqual(p.nearFloor()) || a.Sub(amount).Abs().LessThanOrEqual(tolerance) {
						n++
					}
				}
				return rule.Score(float64(n)), nil
			},
		},
		{
			Name:        ruleWindowCount,
			Description: "prior transactions inside the lookback window",
			Inputs:      []string{"prior_transactions"},
			Tables:      []string{tableParams},
			Eval: func(c *rule.Context) (rule.Partial, error) {
				p, err := loadParams(c)
				if err != nil {
					return rule.Partial{}, err
				}
				return rule.Score(float64(len(inWindow(c.Input, p.lookbackDays)))), nil
			},
		},
		{
			Name:        ruleWindowVolume,
			Description: "total amount of prior transactions inside the lookback window",
			Inputs:      []string{"prior_transactions"},
			Tables:      []string{tableParams},
			Eval: func(c *rule.Context) (rule.Partial, error) {
				p, err := loadParams(c)
				if err != nil {
					return rule.Partial{}, err
				}
				total := decimal.Zero
				for _, prior := range inWindow(c.Input, p.lookbackDays) {
					total = total.Add(prior.Decimal("amount"))
				}
				return rule.Decimal(total), nil
			},
		},
		{
			Name:        ruleStructuring,
			Description: "near-threshold amount backed by enough similar recent priors",
			After:       []string{ruleNearThreshold, ruleSimilarPriors},
			Tables:      []string{tableParams},
			Eval: func(c *rule.Context) (rule.Partial, error) {
				p, err := loadParams(c)
				if err != nil {
					return rule.Partial{}, err
				}
				minPriors := max(p.minPriors, 1)
				return rule.Flag(c.Flag(ruleNearThreshold) && c.Score(ruleSimilarPriors) >= float64(minPriors)), nil
			},
		},
		{
			Name:        ruleVelocity,
			Description: "sub-threshold amounts that together reach the threshold inside the window",
			Inputs:      []string{"amount", "prior_transactions"},
			After:       []string{ruleCTR, ruleWindowCount},
			Tables:      []string{tableParams},
			Eval: func(c *rule.Context) (rule.Partial, error) {
				if c.Flag(ruleCTR) || c.Score(ruleWindowCount) < 1 {
					return rule.Flag(false), nil
				}
				p, err := loadParams(c)
				if err != nil {
					return rule.Partial{}, err
				}
				sum := c.Input.Decimal("amount")
				for _, prior := range inWindow(c.Input, p.lookbackDays) {
					if a := prior.Decimal("amount"); a.LessThan(p.ctrThreshold) {
						sum = sum.Add(a)
					}
				}
				return rule.Flag(sum.GreaterThanOrEqual(p.ctrThreshold)), nil
			},
		},
		{
			Name:        ruleJurisdiction,
			Description: "most severe tier of the origin and destination countries",
			Inputs:      []string{"origin_country", "destination_country"},
			Tables:      []string{tableCountry},
			Eval: func(c *rule.Context) (rule.Partial, error) {
				table, err := c.Table(tableCountry)
				if err != nil {
					return rule.Partial{}, err
				}
				worst := tierStandard
				for _, field := range []string{"origin_country", "destination_country"} {
					code, err := countryCode(c.Input, field)
					if err != nil {
						return rule.Partial{}, err
					}
					tier := tierUnlisted
					if row, ok := table.Lookup("country", code); ok {
						tier = strings.ToLower(row.String("tier"))
						if _, known := tierRank[tier]; !known {
							return rule.Partial{}, skillerr.DataNotFound(tableCountry, nil, "country %s has unknown tier %q", code, tier)
						}
					}
					if tierRank[tier] > tierRank[worst] {
						worst = tier
					}
				}
				return rule.Label(worst), nil
			},
		},
		{
			Name:        ruleGeographic,
			Description: "highest country points of origin and destination",
			Inputs:      []string{"origin_country", "destination_country"},
			Tables:      []string{tableCountry, tableParams},
			Eval: func(c *rule.Context) (rule.Partial, error) {
				table, err := c.Table(tableCountry)
				if err != nil {
					return rule.Partial{}, err
				}
				p, err := loadParams(c)
				if err != nil {
					return rule.Partial{}, err
				}
				points := 0.0
				for _, field := range []string{"origin_country", "destination_country"} {
					code, err := countryCode(c.Input, field)
					if err != nil {
						return rule.Partial{}, err
					}
					pts := p.unknownCountry
					if row, ok := table.Lookup("country", code); ok {
						pts = row.Float("points")
					}
					points = max(points, pts)
				}
				return rule.Score(points), nil
			},
		},
		{
			Name:        ruleTypeRisk,
			Description: "points for the transaction type",
			Inputs:      []string{"transaction_type"},
			Tables:      []string{tableTypes},
			Eval: func(c *rule.Context) (rule.Partial, error) {
				table, err := c.Table(tableTypes)
				if err != nil {
					return rule.Partial{}, err
				}
				tt := c.Input.String("transaction_type")
				row, ok := table.Lookup("transaction_type", tt)
				if !ok {
					return rule.Partial{}, skillerr.Validation("transaction_type", "unknown transaction type %q", tt)
				}
				return rule.Score(row.Float("points")), nil
			},
		},
		{
			Name:        ruleProfileRisk,
			Description: "customer risk rating points plus the PEP loading",
			Inputs:      []string{"customer_risk_rating", "is_pep"},
			Tables:      []string{tableRatings, tableParams},
			Eval: func(c *rule.Context) (rule.Partial, error) {
				table, err := c.Table(tableRatings)
				if err != nil {
					return rule.Partial{}, err
				}
				rating := c.Input.String("customer_risk_rating")
				row, ok := table.Lookup("rating", rating)
				if !ok {
					return rule.Partial{}, skillerr.Validation("customer_risk_rating", "unknown rating %q", rating)
				}
				points := row.Float("points")
				if c.Input.Bool("is_pep") {
					p, err := loadParams(c)
					if err != nil {
						return rule.Partial{}, err
					}
					points += p.pepPoints
				}
				return rule.Score(points), nil
			},
		},
		{
			Name:        ruleRiskScore,
			Description: "sum of the contributing points, clamped to 0-100",
			After:       []string{ruleCTR, ruleStructuring, ruleVelocity, ruleJurisdiction, ruleGeographic, ruleTypeRisk, ruleProfileRisk},
			Tables:      []string{tableParams},
			Eval: func(c *rule.Context) (rule.Partial, error) {
				if c.Label(ruleJurisdiction) == tierProhibited {
					return rule.Score(100), nil
				}
				p, err := loadParams(c)
				if err != nil {
					return rule.Partial{}, err
				}
				score := c.Score(ruleGeographic) + c.Score(ruleTypeRisk) + c.Score(ruleProfileRisk)
				if c.Flag(ruleCTR) {
					score += p.ctrPoints
				}
				if c.Flag(ruleStructuring) {
					score += p.structuringPoints
				}
				if c.Flag(ruleVelocity) {
					score += p.velocityPoints
				}
				return rule.Score(rule.Clamp(score, 0, 100)), nil
			},
		},
		{
			Name:   ruleRiskLevel,
			After:  []string{ruleRiskScore},
			Tables: []string{tableLevels},
			Eval: func(c *rule.Context) (rule.Partial, error) {
				table, err := c.Table(tableLevels)
				if err != nil {
					return rule.Partial{}, err
				}
				ladder, err := rule.LadderFromTable(table, "level", "min_score", rule.Ascending)
				if err != nil {
					return rule.Partial{}, err
				}
				tier := ladder.Select(c.Score(ruleRiskScore))
				level, err := valueobject.RiskLevelFromString(tier.Name)
				if err != nil {
					return rule.Partial{}, skillerr.DataNotFound(tableLevels, err, "bad level label")
				}
				return rule.Label(level.String()), nil
			},
		},
		{
			Name:        ruleDecision,
			Description: "BLOCK for sanctioned or critical, REVIEW for medium, high or any pattern alert",
			After:       []string{ruleRiskLevel, ruleJurisdiction, ruleStructuring, ruleVelocity},
			Eval: func(c *rule.Context) (rule.Partial, error) {
				level, err := valueobject.RiskLevelFromString(c.Label(ruleRiskLevel))
				if err != nil {
					return rule.Partial{}, err
				}
				decision := valueobject.DecisionForRiskLevel(level)
				if c.Flag(ruleStructuring) || c.Flag(ruleVelocity) {
					decision = decision.Escalate(valueobject.DecisionReview)
				}
				if c.Label(ruleJurisdiction) == tierProhibited {
					decision = valueobject.DecisionBlock
				}
				return rule.Label(decision.String()), nil
			},
		},
		{
			Name:   ruleAlerts,
			Inputs: []string{"is_pep"},
			After:  []string{ruleStructuring, ruleVelocity, ruleJurisdiction},
			Eval: func(c *rule.Context) (rule.Partial, error) {
				alerts := []string{}
				if c.Flag(ruleStructuring) {
					alerts = append(alerts, AlertStructuring)
				}
				if c.Flag(ruleVelocity) {
					alerts = append(alerts, AlertVelocity)
				}
				switch c.Label(ruleJurisdiction) {
				case tierProhibited:
					alerts = append(alerts, AlertSanctioned)
				case tierHigh:
					alerts = append(alerts, AlertHighRiskCountry)
				}
				if c.Input.Bool("is_pep") {
					alerts = append(alerts, AlertPEP)
				}
				return rule.List(alerts...), nil
			},
		},
		{
			Name:   ruleRecommendations,
			Inputs: []string{"is_pep", "customer_risk_rating"},
			After:  []string{ruleCTR, ruleStructuring, ruleVelocity, ruleJurisdiction},
			Eval: func(c *rule.Context) (rule.Partial, error) {
				recs := []string{}
				if c.Label(ruleJurisdiction) == tierProhibited {
					recs = append(recs, "Block the transaction and report it to the sanctions compliance officer")
				}
				if c.Flag(ruleCTR) {
					recs = append(recs, "File a Currency Transaction Report within 15 days")
				}
				if c.Flag(ruleStructuring) || c.Flag(ruleVelocity) {
					recs = append(recs, "Escalate to the BSA officer for Suspicious Activity Report review")
				}
				if c.Label(ruleJurisdiction) == tierHigh {
					recs = append(recs, "Verify the source of funds for the high-risk jurisdiction")
				}
				if c.Input.Bool("is_pep") || strings.EqualFold(c.Input.String("customer_risk_rating"), "high") {
					recs = append(recs, "Apply enhanced due diligence to the customer")
				}
				return rule.List(recs...), nil
			},
		},
	}
}

// inWindow returns the priors whose days_ago falls inside the lookback window.
func inWindow(in record.Record, lookbackDays int64) []record.Record {
	var out []record.Record
	for _, prior := range in.List("prior_transactions") {
		if prior.Int("days_ago") <= lookbackDays {
			out = append(out, prior)
		}
	}
	return out
}

// countryCode reads a country field, falling back from destination to origin.
func countryCode(in record.Record, field string) (string, error) {
	code := strings.ToUpper(in.String(field))
	if code == "" && field == "destination_country" {
		code = strings.ToUpper(in.String("origin_country"))
	}
	if !countryCodeRe.MatchString(code) {
		return "", skillerr.Validation(field, "must be an ISO 3166 alpha-2 code, got %q", code)
	}
	return code, nil
}
