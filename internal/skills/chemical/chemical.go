// Package chemical checks a workplace chemical exposure against
// occupational limits and flags storage hazards.
package chemical

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
const Name = "chemical-exposure-safety"

//go:embed tables/*
var tablesFS embed.FS

const (
	tableLimits       = "exposure_limits"
	tableVentilation  = "ventilation_factors"
	tablePPE          = "ppe_protection"
	tableIncompatible = "incompatibilities"
	tableLevels       = "hazard_levels"
	tableControls     = "required_controls"
)

// LevelImmediatelyDangerous overrides the ratio ladder when the airborne
// concentration reaches the IDLH value.
const LevelImmediatelyDangerous = "immediately_dangerous"

// Skill is the chemical exposure safety calculator.
type Skill struct{}

// New returns the skill.
func New() Skill { return Skill{} }

func (Skill) Tables() fs.FS { return skill.Subtree(tablesFS, "tables") }

func (Skill) Descriptor() skill.Descriptor {
	ratio := func(name string) result.Field {
		return result.Field{Name: name, Kind: result.KindNumber, Min: skillerr.Bound(0), Strict: true, Places: 4}
	}
	return skill.Descriptor{
		Name:        Name,
		Title:       "Chemical exposure safety",
		Description: "Time-weighted exposure against TWA, STEL and IDLH limits with storage compatibility checks.",
		Version:     "1.0.0",
		Inputs: record.Schema{
			{Name: "cas_number", Kind: record.KindString, Required: true},
			{Name: "concentration_ppm", Kind: record.KindNumber, Required: true, Min: skillerr.Bound(0), RangeKind: true},
			{Name: "exposure_hours", Kind: record.KindNumber, Default: 8.0, Min: skillerr.Bound(0), ExclusiveMin: true, Max: skillerr.Bound(24)},
			{Name: "ventilation", Kind: record.KindString, Default: "general"},
			{Name: "ppe", Kind: record.KindStringList},
			{Name: "storage_temperature_c", Kind: record.KindNumber, Default: 20.0},
			{Name: "co_stored_cas", Kind: record.KindStringList},
		},
		Outputs: result.Schema{
			{Name: "chemical_name", Kind: result.KindString},
			{Name: "hazard_level", Kind: result.KindString, Default: "safe"},
			ratio("twa_exposure_ppm"),
			ratio("exposure_ratio"),
			{Name: "percent_of_limit", Kind: result.KindNumber, Min: skillerr.Bound(0), Max: skillerr.Bound(1000), Places: 2},
			{Name: "stel_exceeded", Kind: result.KindBool},
			{Name: "idlh_exceeded", Kind: result.KindBool},
			{Name: "flammability_risk", Kind: result.KindBool},
			{Name: "compliant", Kind: result.KindBool},
			{Name: "violations", Kind: result.KindList},
			{Name: "required_controls", Kind: result.KindList},
		},
		Tables: []refdata.TableSchema{
			{Name: tableLimits, Columns: []refdata.Column{
				{Name: "cas_number"}, {Name: "name"}, {Name: "twa_ppm", Numeric: true},
				{Name: "stel_ppm", Numeric: true, Optional: true},
				{Name: "idlh_ppm", Numeric: true, Optional: true},
				{Name: "flash_point_c", Numeric: true, Optional: true},
			}},
			{Name: tableVentilation, Columns: []refdata.Column{{Name: "ventilation"}, {Name: "factor", Numeric: true}}},
			{Name: tablePPE, Columns: []refdata.Column{{Name: "ppe"}, {Name: "protection_factor", Numeric: true}}},
			{Name: tableIncompatible, Format: refdata.FormatJSON, Columns: []refdata.Column{{Name: "cas_a"}, {Name: "cas_b"}, {Name: "hazard"}}},
			{Name: tableLevels, Columns: []refdata.Column{{Name: "level"}, {Name: "min_ratio", Numeric: true}}},
			{Name: tableControls, Columns: []refdata.Column{{Name: "trigger"}, {Name: "control"}}},
		},
		AlertsField: "violations",
	}
}

func (Skill) Assemble(res *rule.Results, _ record.Record) (map[string]any, error) {
	return map[string]any{
		"chemical_name":     res.Label(ruleChemical),
		"hazard_level":      res.Label(ruleHazardLevel),
		"twa_exposure_ppm":  res.Score(ruleTWA),
		"exposure_ratio":    res.Score(ruleRatio),
		"percent_of_limit":  res.Score(ruleRatio) * 100,
		"stel_exceeded":     res.Flag(ruleSTEL),
		"idlh_exceeded":     res.Flag(ruleIDLH),
		"flammability_risk": res.Flag(ruleFlammable),
		"compliant":         res.Flag(ruleCompliant),
		"violations":        res.List(ruleViolations),
		"required_controls": res.List(ruleControls),
	}, nil
}
