package chemical

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/bibbank/skills/internal/domain/refdata"
	"github.com/bibbank/skills/internal/domain/rule"
	"github.com/bibbank/skills/internal/domain/skillerr"
)

const (
	ruleChemical     = "chemical"
	ruleAirborne     = "airborne_ppm"
	ruleTWA          = "twa_exposure"
	ruleProtection   = "protection_factor"
	ruleRatio        = "exposure_ratio"
	ruleSTEL         = "stel_exceeded"
	ruleIDLH         = "idlh_exceeded"
	ruleFlammable    = "flammability_risk"
	ruleIncompatible = "incompatibilities"
	ruleHazardLevel  = "hazard_level"
	ruleViolations   = "violations"
	ruleCompliant    = "compliant"
	ruleControls     = "required_controls"
)

// Control triggers besides the hazard levels.
const (
	triggerSTEL         = "stel"
	triggerIDLH         = "idlh"
	triggerFlammable    = "flammable"
	triggerIncompatible = "incompatible"
)

// TWA limits are set for an 8-hour shift.
const shiftHours = 8

var casRe = regexp.MustCompile(`^\d{2,7}-\d{2}-\d$`)

func (Skill) Rules() rule.Pipeline {
	return rule.Pipeline{
		{
			Name:   ruleChemical,
			Inputs: []string{"cas_number"},
			Tables: []string{tableLimits},
			Eval: func(c *rule.Context) (rule.Partial, error) {
				row, err := limits(c)
				if err != nil {
					return rule.Partial{}, err
				}
				return rule.Label(row.String("name")), nil
			},
		},
		{
			Name:        ruleAirborne,
			Description: "concentration x ventilation factor",
			Inputs:      []string{"concentration_ppm", "ventilation"},
			Tables:      []string{tableVentilation},
			Eval: func(c *rule.Context) (rule.Partial, error) {
				t, err := c.Table(tableVentilation)
				if err != nil {
					return rule.Partial{}, err
				}
				v := c.Input.String("ventilation")
				row, ok := t.Lookup("ventilation", v)
				if !ok {
					return rule.Partial{}, skillerr.Validation("ventilation", "unknown ventilation %q", v)
				}
				return rule.Score(c.Input.Float("concentration_ppm") * row.Float("factor")), nil
			},
		},
		{
			Name:        ruleTWA,
			Description: "airborne x hours / 8",
			Inputs:      []string{"exposure_hours"},
			After:       []string{ruleAirborne},
			Eval: func(c *rule.Context) (rule.Partial, error) {
				return rule.Score(c.Score(ruleAirborne) * c.Input.Float("exposure_hours") / shiftHours), nil
			},
		},
		{
			Name:        ruleProtection,
			Description: "the best assigned protection factor worn, 1 with none",
			Inputs:      []string{"ppe"},
			Tables:      []string{tablePPE},
			Eval: func(c *rule.Context) (rule.Partial, error) {
				t, err := c.Table(tablePPE)
				if err != nil {
					return rule.Partial{}, err
				}
				best := 1.0
				for _, item := range c.Input.Strings("ppe") {
					row, ok := t.Lookup("ppe", strings.TrimSpace(item))
					if !ok {
						return rule.Partial{}, skillerr.Validation("ppe", "unknown protective equipment %q", item)
					}
					best = max(best, row.Float("protection_factor"))
				}
				return rule.Score(best), nil
			},
		},
		{
			Name:        ruleRatio,
			Description: "(twa / protection) / twa limit",
			After:       []string{ruleTWA, ruleProtection},
			Tables:      []string{tableLimits},
			Eval: func(c *rule.Context) (rule.Partial, error) {
				row, err := limits(c)
				if err != nil {
					return rule.Partial{}, err
				}
				limit := row.Float("twa_ppm")
				if limit <= 0 {
					return rule.Partial{}, skillerr.DataNotFound(tableLimits, nil, "%s has no positive twa_ppm", row.String("cas_number"))
				}
				return rule.Score(c.Score(ruleTWA) / c.Score(ruleProtection) / limit), nil
			},
		},
		{
			Name:   ruleSTEL,
			After:  []string{ruleAirborne, ruleProtection},
			Tables: []string{tableLimits},
			Eval: func(c *rule.Context) (rule.Partial, error) {
				row, err := limits(c)
				if err != nil {
					return rule.Partial{}, err
				}
				if !row.Has("stel_ppm") {
					return rule.Flag(false), nil
				}
				return rule.Flag(c.Score(ruleAirborne)/c.Score(ruleProtection) >= row.Float("stel_ppm")), nil
			},
		},
		{
			Name:        ruleIDLH,
			Description: "respirators do not count against IDLH",
			After:       []string{ruleAirborne},
			Tables:      []string{tableLimits},
			Eval: func(c *rule.Context) (rule.Partial, error) {
				row, err := limits(c)
				if err != nil {
					return rule.Partial{}, err
				}
				if !row.Has("idlh_ppm") {
					return rule.Flag(false), nil
				}
				return rule.Flag(c.Score(ruleAirborne) >= row.Float("idlh_ppm")), nil
			},
		},
		{
			Name:   ruleFlammable,
			Inputs: []string{"storage_temperature_c"},
			Tables: []string{tableLimits},
			Eval: func(c *rule.Context) (rule.Partial, error) {
				row, err := limits(c)
				if err != nil {
					return rule.Partial{}, err
				}
				if !row.Has("flash_point_c") {
					return rule.Flag(false), nil
				}
				return rule.Flag(c.Input.Float("storage_temperature_c") >= row.Float("flash_point_c")), nil
			},
		},
		{
			Name:        ruleIncompatible,
			Description: "hazards of co-stored chemicals; pairs match in either order",
			Inputs:      []string{"cas_number", "co_stored_cas"},
			Tables:      []string{tableIncompatible, tableLimits},
			Eval: func(c *rule.Context) (rule.Partial, error) {
				pairs, err := c.Table(tableIncompatible)
				if err != nil {
					return rule.Partial{}, err
				}
				names, err := c.Table(tableLimits)
				if err != nil {
					return rule.Partial{}, err
				}
				cas := strings.TrimSpace(c.Input.String("cas_number"))
				out := []string{}
				for _, other := range c.Input.Strings("co_stored_cas") {
					other = strings.TrimSpace(other)
					if !casRe.MatchString(other) {
						return rule.Partial{}, skillerr.Validation("co_stored_cas", "malformed CAS number %q", other)
					}
					for _, p := range pairs.Rows() {
						a, b := p.String("cas_a"), p.String("cas_b")
						if (a == cas && b == other) || (a == other && b == cas) {
							out = append(out, fmt.Sprintf("stored with %s: %s", displayName(names, other), p.String("hazard")))
						}
					}
				}
				return rule.List(out...), nil
			},
		},
		{
			Name:        ruleHazardLevel,
			Description: "ascending ladder on the exposure ratio; IDLH overrides",
			After:       []string{ruleRatio, ruleIDLH},
			Tables:      []string{tableLevels},
			Eval: func(c *rule.Context) (rule.Partial, error) {
				if c.Flag(ruleIDLH) {
					return rule.Label(LevelImmediatelyDangerous), nil
				}
				t, err := c.Table(tableLevels)
				if err != nil {
					return rule.Partial{}, err
				}
				ladder, err := rule.LadderFromTable(t, "level", "min_ratio", rule.Ascending)
				if err != nil {
					return rule.Partial{}, err
				}
				return rule.Label(ladder.Select(c.Score(ruleRatio)).Name), nil
			},
		},
		{
			Name:  ruleViolations,
			After: []string{ruleChemical, ruleRatio, ruleSTEL, ruleIDLH, ruleFlammable, ruleIncompatible},
			Eval: func(c *rule.Context) (rule.Partial, error) {
				name := c.Label(ruleChemical)
				out := []string{}
				if r := c.Score(ruleRatio); r >= 1 {
					out = append(out, fmt.Sprintf("%s 8-hour TWA exposure is %s%% of the limit", name, pct(r)))
				}
				if c.Flag(ruleSTEL) {
					out = append(out, fmt.Sprintf("%s short-term exposure limit exceeded", name))
				}
				if c.Flag(ruleIDLH) {
					out = append(out, fmt.Sprintf("%s concentration is immediately dangerous to life or health", name))
				}
				if c.Flag(ruleFlammable) {
					out = append(out, fmt.Sprintf("%s is stored at or above its flash point", name))
				}
				for _, hazard := range c.List(ruleIncompatible) {
					out = append(out, fmt.Sprintf("%s %s", name, hazard))
				}
				return rule.List(out...), nil
			},
		},
		{
			Name:  ruleCompliant,
			After: []string{ruleRatio, ruleSTEL, ruleIDLH, ruleFlammable, ruleIncompatible},
			Eval: func(c *rule.Context) (rule.Partial, error) {
				ok := c.Score(ruleRatio) < 1 &&
					!c.Flag(ruleSTEL) &&
					!c.Flag(ruleIDLH) &&
					!c.Flag(ruleFlammable) &&
					len(c.List(ruleIncompatible)) == 0
				return rule.Flag(ok), nil
			},
		},
		{
			Name:   ruleControls,
			After:  []string{ruleHazardLevel, ruleSTEL, ruleIDLH, ruleFlammable, ruleIncompatible},
			Tables: []string{tableControls},
			Eval: func(c *rule.Context) (rule.Partial, error) {
				t, err := c.Table(tableControls)
				if err != nil {
					return rule.Partial{}, err
				}
				triggers := []string{c.Label(ruleHazardLevel)}
				if c.Flag(ruleSTEL) {
					triggers = append(triggers, triggerSTEL)
				}
				if c.Flag(ruleIDLH) {
					triggers = append(triggers, triggerIDLH)
				}
				if c.Flag(ruleFlammable) {
					triggers = append(triggers, triggerFlammable)
				}
				if len(c.List(ruleIncompatible)) > 0 {
					triggers = append(triggers, triggerIncompatible)
				}
				out := []string{}
				for _, trig := range triggers {
					for _, row := range t.Filter("trigger", trig) {
						out = append(out, row.String("control"))
					}
				}
				return rule.List(out...), nil
			},
		},
	}
}

func limits(c *rule.Context) (refdata.Row, error) {
	cas := strings.TrimSpace(c.Input.String("cas_number"))
	if !casRe.MatchString(cas) {
		return refdata.Row{}, skillerr.Validation("cas_number", "malformed CAS number %q", cas)
	}
	t, err := c.Table(tableLimits)
	if err != nil {
		return refdata.Row{}, err
	}
	row, ok := t.Lookup("cas_number", cas)
	if !ok {
		return refdata.Row{}, skillerr.Validation("cas_number", "no exposure limits for %s", cas)
	}
	return row, nil
}

func displayName(t *refdata.Table, cas string) string {
	if row, ok := t.Lookup("cas_number", cas); ok {
		return row.String("name")
	}
	return cas
}

func pct(ratio float64) string {
	return strconv.FormatFloat(rule.Round(ratio*100, 2), 'f', -1, 64)
}
