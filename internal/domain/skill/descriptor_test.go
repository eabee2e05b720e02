package skill_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bibbank/skills/internal/domain/record"
	"github.com/bibbank/skills/internal/domain/result"
	"github.com/bibbank/skills/internal/domain/skill"
)

func TestDescriptor_Validate(t *testing.T) {
	valid := skill.Descriptor{
		Name:        "demo",
		Version:     "1.0.0",
		Inputs:      record.Schema{{Name: "a", Kind: record.KindNumber}},
		Outputs:     result.Schema{{Name: "alerts", Kind: result.KindList}},
		AlertsField: "alerts",
	}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(d *skill.Descriptor)
	}{
		{"empty name", func(d *skill.Descriptor) { d.Name = "" }},
		{"empty version", func(d *skill.Descriptor) { d.Version = "" }},
		{"no outputs", func(d *skill.Descriptor) { d.Outputs = nil }},
		{"duplicate input", func(d *skill.Descriptor) { d.Inputs = append(d.Inputs, d.Inputs[0]) }},
		{"alerts field missing", func(d *skill.Descriptor) { d.AlertsField = "violations" }},
		{"alerts field not a list", func(d *skill.Descriptor) {
			d.Outputs = result.Schema{{Name: "alerts", Kind: result.KindString}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := valid
			d.Inputs = append(record.Schema{}, valid.Inputs...)
			tt.mutate(&d)
			assert.Error(t, d.Validate())
		})
	}
}
