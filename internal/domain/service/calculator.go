package service

import (
	"context"
	"fmt"

	"github.com/bibbank/skills/internal/domain/record"
	"github.com/bibbank/skills/internal/domain/refdata"
	"github.com/bibbank/skills/internal/domain/result"
	"github.com/bibbank/skills/internal/domain/skill"
)

// Outcome is the result of one calculator invocation.
type Outcome struct {
	Skill  skill.Descriptor
	Input  record.Record
	Output result.Record
	// Alerts holds the entries of the skill's alerts field.
	Alerts []string
}

// Calculator runs a skill end to end: validate the input, load the tables,
// evaluate the rules and assemble the output. It keeps no state between
// calls.
type Calculator struct {
	loader *refdata.Loader
}

// NewCalculator creates a Calculator reading tables through loader.
func NewCalculator(loader *refdata.Loader) *Calculator {
	return &Calculator{loader: loader}
}

// Evaluate invokes s on input. Errors carry the skill error kinds; no
// partial output is returned on failure.
func (c *Calculator) Evaluate(ctx context.Context, s skill.Skill, input record.Record) (*Outcome, error) {
	d := s.Descriptor()

	validated, err := d.Inputs.Apply(input)
	if err != nil {
		return nil, err
	}

	tables, err := c.loader.Load(ctx, d.Name, d.Tables)
	if err != nil {
		return nil, err
	}

	results, err := s.Rules().Run(validated, tables)
	if err != nil {
		return nil, err
	}

	values, err := s.Assemble(results, validated)
	if err != nil {
		return nil, err
	}
	if err := results.Err(); err != nil {
		return nil, fmt.Errorf("skill %q: %w", d.Name, err)
	}

	output, err := d.Outputs.Assemble(values)
	if err != nil {
		return nil, err
	}

	out := &Outcome{Skill: d, Input: validated, Output: output, Alerts: []string{}}
	if d.AlertsField != "" {
		out.Alerts = output.Strings(d.AlertsField)
	}
	return out, nil
}
