// Package aml validates a single payment against anti-money-laundering
// rules: currency transaction reporting, structuring just below the
// reporting threshold, velocity aggregation across recent activity,
// jurisdiction and customer risk.
package aml

import (
	"embed"
	"io/fs"

	"github.com/shopspring/decimal"

	"github.com/bibbank/skills/internal/domain/record"
	"github.com/bibbank/skills/internal/domain/refdata"
	"github.com/bibbank/skills/internal/domain/result"
	"github.com/bibbank/skills/internal/domain/rule"
	"github.com/bibbank/skills/internal/domain/skill"
	"github.com/bibbank/skills/internal/domain/skillerr"
	"github.com/bibbank/skills/internal/domain/valueobject"
)

// Name is the catalog name of the skill.
const Name = "aml-transaction-validator"

//go:embed tables/*.csv
var tablesFS embed.FS

const (
	tableParams  = "aml_parameters"
	tableCountry = "country_risk"
	tableTypes   = "transaction_types"
	tableRatings = "customer_ratings"
	tableLevels  = "risk_levels"
)

// Alert codes.
const (
	AlertStructuring     = "STRUCTURING_SUSPECTED"
	AlertVelocity        = "VELOCITY_AGGREGATION"
	AlertSanctioned      = "SANCTIONED_JURISDICTION"
	AlertHighRiskCountry = "HIGH_RISK_JURISDICTION"
	AlertPEP             = "PEP_INVOLVED"
)

// Skill is the AML transaction validator.
type Skill struct{}

// New returns the skill.
func New() Skill { return Skill{} }

func (Skill) Tables() fs.FS { return skill.Subtree(tablesFS, "tables") }

func (Skill) Descriptor() skill.Descriptor {
	return skill.Descriptor{
		Name:        Name,
		Title:       "AML transaction validator",
		Description: "Screens a transaction for CTR obligations, structuring, velocity and jurisdiction risk.",
		Version:     "1.0.0",
		Inputs: record.Schema{
			{Name: "transaction_id", Kind: record.KindString, Required: true},
			{Name: "amount", Kind: record.KindDecimal, Required: true, Min: skillerr.Bound(0), ExclusiveMin: true},
			{Name: "currency", Kind: record.KindString, Default: "USD", Description: "ISO 4217 code"},
			{Name: "transaction_type", Kind: record.KindString, Required: true},
			{Name: "origin_country", Kind: record.KindString, Default: "US"},
			{Name: "destination_country", Kind: record.KindString, Description: "defaults to origin_country"},
			{Name: "customer_risk_rating", Kind: record.KindString, Default: "standard"},
			{Name: "is_pep", Kind: record.KindBool, Default: false},
			{Name: "prior_transactions", Kind: record.KindList, Items: record.Schema{
				{Name: "amount", Kind: record.KindDecimal, Required: true, Min: skillerr.Bound(0), ExclusiveMin: true},
				{Name: "days_ago", Kind: record.KindInteger, Required: true, Min: skillerr.Bound(0)},
				{Name: "transaction_type", Kind: record.KindString},
			}},
		},
		Outputs: result.Schema{
			{Name: "is_valid", Kind: result.KindBool, Default: true},
			{Name: "decision", Kind: result.KindString, Default: "APPROVE"},
			{Name: "risk_score", Kind: result.KindNumber, Min: skillerr.Bound(0), Max: skillerr.Bound(100), Places: 2},
			{Name: "risk_level", Kind: result.KindString, Default: "LOW"},
			{Name: "jurisdiction_tier", Kind: result.KindString, Default: "standard"},
			{Name: "ctr_required", Kind: result.KindBool},
			{Name: "structuring_suspected", Kind: result.KindBool},
			{Name: "velocity_alert", Kind: result.KindBool},
			{Name: "window_volume", Kind: result.KindDecimal, Min: skillerr.Bound(0), Places: 2},
			{Name: "alerts", Kind: result.KindList},
			{Name: "recommendations", Kind: result.KindList},
		},
		Tables: []refdata.TableSchema{
			{Name: tableParams, Columns: []refdata.Column{{Name: "parameter"}, {Name: "value", Numeric: true}}},
			{Name: tableCountry, Columns: []refdata.Column{{Name: "country"}, {Name: "tier"}, {Name: "points", Numeric: true}}},
			{Name: tableTypes, Columns: []refdata.Column{{Name: "transaction_type"}, {Name: "points", Numeric: true}}},
			{Name: tableRatings, Columns: []refdata.Column{{Name: "rating"}, {Name: "points", Numeric: true}}},
			{Name: tableLevels, Columns: []refdata.Column{{Name: "level"}, {Name: "min_score", Numeric: true}}},
		},
		AlertsField: "alerts",
	}
}

func (Skill) Assemble(res *rule.Results, in record.Record) (map[string]any, error) {
	decision := res.Label(ruleDecision)
	return map[string]any{
		"is_valid":              decision != valueobject.DecisionBlock.String(),
		"decision":              decision,
		"risk_score":            res.Score(ruleRiskScore),
		"risk_level":            res.Label(ruleRiskLevel),
		"jurisdiction_tier":     res.Label(ruleJurisdiction),
		"ctr_required":          res.Flag(ruleCTR),
		"structuring_suspected": res.Flag(ruleStructuring),
		"velocity_alert":        res.Flag(ruleVelocity),
		"window_volume":         res.Decimal(ruleWindowVolume).Add(in.Decimal("amount")),
		"alerts":                res.List(ruleAlerts),
		"recommendations":       res.List(ruleRecommendations),
	}, nil
}

// params holds the aml_parameters table.
type params struct {
	ctrThreshold      decimal.Decimal
	bandPct           decimal.Decimal
	similarPct        decimal.Decimal
	lookbackDays      int64
	minPriors         int
	ctrPoints         float64
	structuringPoints float64
	velocityPoints    float64
	pepPoints         float64
	unknownCountry    float64
}

// nearFloor is the lowest amount still counted as just under the threshold.
func (p params) nearFloor() decimal.Decimal {
	return p.ctrThreshold.Mul(decimal.NewFromInt(1).Sub(p.bandPct))
}

func loadParams(c *rule.Context) (params, error) {
	names := []string{
		"ctr_threshold", "structuring_band_pct", "similar_amount_pct", "lookback_days",
		"structuring_min_priors", "ctr_points", "structuring_points", "velocity_points",
		"pep_points", "unknown_country_points",
	}
	v := make(map[string]float64, len(names))
	for _, n := range names {
		f, err := c.Param(tableParams, n)
		if err != nil {
			return params{}, err
		}
		v[n] = f
	}
	if v["ctr_threshold"] <= 0 {
		return params{}, skillerr.DataNotFound(tableParams, nil, "ctr_threshold must be positive")
	}
	return params{
		ctrThreshold:      decimal.NewFromFloat(v["ctr_threshold"]),
		bandPct:           decimal.NewFromFloat(v["structuring_band_pct"]),
		similarPct:        decimal.NewFromFloat(v["similar_amount_pct"]),
		lookbackDays:      int64(v["lookback_days"]),
		minPriors:         int(v["structuring_min_priors"]),
		ctrPoints:         v["ctr_points"],
		structuringPoints: v["structuring_points"],
		velocityPoints:    v["velocity_points"],
		pepPoints:         v["pep_points"],
		unknownCountry:    v["unknown_country_points"],
	}, nil
}
