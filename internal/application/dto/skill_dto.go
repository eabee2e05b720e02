package dto

import (
	"github.com/bibbank/skills/internal/domain/record"
	"github.com/bibbank/skills/internal/domain/result"
	"github.com/bibbank/skills/internal/domain/skill"
)

// SkillSummary is the catalog listing entry of a skill.
type SkillSummary struct {
	Name        string `json:"name" yaml:"name"`
	Title       string `json:"title" yaml:"title"`
	Version     string `json:"version" yaml:"version"`
	Description string `json:"description" yaml:"description"`
}

// InputField documents one input parameter.
type InputField struct {
	Default      any          `json:"default,omitempty" yaml:"default,omitempty"`
	Min          *float64     `json:"min,omitempty" yaml:"min,omitempty"`
	Max          *float64     `json:"max,omitempty" yaml:"max,omitempty"`
	Name         string       `json:"name" yaml:"name"`
	Kind         string       `json:"kind" yaml:"kind"`
	Description  string       `json:"description,omitempty" yaml:"description,omitempty"`
	Items        []InputField `json:"items,omitempty" yaml:"items,omitempty"`
	Required     bool         `json:"required" yaml:"required"`
	ExclusiveMin bool         `json:"exclusive_min,omitempty" yaml:"exclusive_min,omitempty"`
}

// OutputField documents one output field.
type OutputField struct {
	Min         *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max         *float64 `json:"max,omitempty" yaml:"max,omitempty"`
	Name        string   `json:"name" yaml:"name"`
	Kind        string   `json:"kind" yaml:"kind"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Places      int32    `json:"places,omitempty" yaml:"places,omitempty"`
}

// TableInfo documents one reference table.
type TableInfo struct {
	Name        string   `json:"name" yaml:"name"`
	File        string   `json:"file" yaml:"file"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Columns     []string `json:"columns" yaml:"columns"`
}

// SkillDescription is the full documented interface of a skill.
type SkillDescription struct {
	SkillSummary `yaml:",inline"`
	AlertsField  string        `json:"alerts_field,omitempty" yaml:"alerts_field,omitempty"`
	Inputs       []InputField  `json:"inputs" yaml:"inputs"`
	Outputs      []OutputField `json:"outputs" yaml:"outputs"`
	Tables       []TableInfo   `json:"tables" yaml:"tables"`
}

// SummaryFromDescriptor maps a descriptor to its listing entry.
func SummaryFromDescriptor(d skill.Descriptor) SkillSummary {
	return SkillSummary{
		Name:        d.Name,
		Title:       d.Title,
		Version:     d.Version,
		Description: d.Description,
	}
}

// DescriptionFromDescriptor maps a descriptor to its full description.
func DescriptionFromDescriptor(d skill.Descriptor) SkillDescription {
	desc := SkillDescription{
		SkillSummary: SummaryFromDescriptor(d),
		AlertsField:  d.AlertsField,
		Inputs:       inputFields(d.Inputs),
		Outputs:      make([]OutputField, len(d.Outputs)),
		Tables:       make([]TableInfo, len(d.Tables)),
	}
	for i, f := range d.Outputs {
		desc.Outputs[i] = outputField(f)
	}
	for i, t := range d.Tables {
		cols := make([]string, len(t.Columns))
		for j, c := range t.Columns {
			cols[j] = c.Name
		}
		desc.Tables[i] = TableInfo{Name: t.Name, File: t.File(), Description: t.Description, Columns: cols}
	}
	return desc
}

func inputFields(s record.Schema) []InputField {
	if len(s) == 0 {
		return nil
	}
	out := make([]InputField, len(s))
	for i, f := range s {
		out[i] = InputField{
			Name:         f.Name,
			Kind:         string(f.Kind),
			Description:  f.Description,
			Required:     f.Required,
			Default:      f.Default,
			Min:          f.Min,
			Max:          f.Max,
			ExclusiveMin: f.ExclusiveMin,
			Items:        inputFields(f.Items),
		}
	}
	return out
}

func outputField(f result.Field) OutputField {
	return OutputField{
		Name:        f.Name,
		Kind:        string(f.Kind),
		Description: f.Description,
		Min:         f.Min,
		Max:         f.Max,
		Places:      f.Places,
	}
}
