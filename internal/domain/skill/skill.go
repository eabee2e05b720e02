// Package skill defines the contract every rule-based calculator implements
// and the catalog that serves them.
package skill

import (
	"fmt"
	"io/fs"

	"github.com/bibbank/skills/internal/domain/record"
	"github.com/bibbank/skills/internal/domain/refdata"
	"github.com/bibbank/skills/internal/domain/result"
	"github.com/bibbank/skills/internal/domain/rule"
)

// Descriptor is the documented interface of a skill.
type Descriptor struct {
	Name        string
	Title       string
	Description string
	Version     string
	Inputs      record.Schema
	Outputs     result.Schema
	Tables      []refdata.TableSchema
	// AlertsField names the list output whose entries raise alerts, if any.
	AlertsField string
}

// Skill is one self-contained calculator: validated input and loaded tables
// in, output values out.
type Skill interface {
	Descriptor() Descriptor
	// Tables returns the reference tables shipped with the skill.
	Tables() fs.FS
	// Rules returns the ordered rule pipeline.
	Rules() rule.Pipeline
	// Assemble maps rule results onto output field values.
	Assemble(res *rule.Results, input record.Record) (map[string]any, error)
}

// Validate checks a descriptor for internal consistency.
func (d Descriptor) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("skill has empty name")
	}
	if d.Version == "" {
		return fmt.Errorf("skill %q has empty version", d.Name)
	}
	if len(d.Outputs) == 0 {
		return fmt.Errorf("skill %q declares no outputs", d.Name)
	}

	seen := map[string]bool{}
	for _, f := range d.Inputs {
		if seen[f.Name] {
			return fmt.Errorf("skill %q: duplicate input %q", d.Name, f.Name)
		}
		seen[f.Name] = true
	}

	seen = map[string]bool{}
	alerts := d.AlertsField == ""
	for _, f := range d.Outputs {
		if seen[f.Name] {
			return fmt.Errorf("skill %q: duplicate output %q", d.Name, f.Name)
		}
		seen[f.Name] = true
		if f.Name == d.AlertsField && f.Kind == result.KindList {
			alerts = true
		}
	}
	if !alerts {
		return fmt.Errorf("skill %q: alerts field %q is not a declared list output", d.Name, d.AlertsField)
	}
	return nil
}

// TableNames returns the identifiers of the declared tables.
func (d Descriptor) TableNames() []string {
	names := make([]string, len(d.Tables))
	for i, t := range d.Tables {
		names[i] = t.Name
	}
	return names
}
