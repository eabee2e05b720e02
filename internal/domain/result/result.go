// Package result assembles rule outputs into a skill's declared output record.
package result

import (
	"encoding/json"
	"fmt"
	"maps"
	"math"

	"github.com/shopspring/decimal"

	"github.com/bibbank/skills/internal/domain/skillerr"
)

// Kind is the semantic type of an output field.
type Kind string

const (
	KindNumber  Kind = "number"
	KindInteger Kind = "integer"
	KindDecimal Kind = "decimal"
	KindString  Kind = "string"
	KindBool    Kind = "bool"
	KindList    Kind = "list"
	KindObject  Kind = "object"
)

// Field declares one output field.
type Field struct {
	Name        string
	Kind        Kind
	Description string
	// Default replaces the kind's neutral value when no rule path set the field.
	Default any
	// Min and Max bound numeric fields. Out-of-range values are clamped,
	// unless Strict, in which case they are a RangeError.
	Min    *float64
	Max    *float64
	Strict bool
	// Places rounds number and decimal fields when positive.
	Places int32
}

// Schema is the ordered list of output fields of a skill.
type Schema []Field

// Names returns the declared field names in order.
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, f := range s {
		names[i] = f.Name
	}
	return names
}

// Entry is one field of an assembled record.
type Entry struct {
	Name  string
	Value any
}

// Record is an assembled output. Every declared field is present.
type Record struct {
	entries []Entry
	index   map[string]int
}

// Assemble builds the output record from values. Missing fields take their
// neutral default, numbers are clamped and rounded, lists are never nil.
// A value for an undeclared field is an error.
func (s Schema) Assemble(values map[string]any) (Record, error) {
	declared := make(map[string]bool, len(s))
	for _, f := range s {
		declared[f.Name] = true
	}
	for name := range values {
		if !declared[name] {
			return Record{}, fmt.Errorf("output field %q is not declared", name)
		}
	}

	rec := Record{entries: make([]Entry, 0, len(s)), index: make(map[string]int, len(s))}
	for _, f := range s {
		raw, ok := values[f.Name]
		if !ok || raw == nil {
			raw = f.Default
		}

		v, err := f.finalize(raw)
		if err != nil {
			return Record{}, err
		}
		rec.index[f.Name] = len(rec.entries)
		rec.entries = append(rec.entries, Entry{Name: f.Name, Value: v})
	}
	return rec, nil
}

func (f Field) finalize(raw any) (any, error) {
	switch f.Kind {
	case KindNumber:
		n, ok := toFloat(raw)
		if !ok {
			return nil, fmt.Errorf("output field %q: %T is not a number", f.Name, raw)
		}
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return nil, skillerr.Range(f.Name, n, f.Min, f.Max)
		}
		n, err := f.bound(n)
		if err != nil {
			return nil, err
		}
		if f.Places > 0 {
			n, _ = decimal.NewFromFloat(n).Round(f.Places).Float64()
		}
		return n, nil

	case KindInteger:
		n, ok := toFloat(raw)
		if !ok {
			return nil, fmt.Errorf("output field %q: %T is not an integer", f.Name, raw)
		}
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return nil, skillerr.Range(f.Name, n, f.Min, f.Max)
		}
		n, err := f.bound(n)
		if err != nil {
			return nil, err
		}
		return int64(math.Round(n)), nil

	case KindDecimal:
		d, ok := toDecimal(raw)
		if !ok {
			return nil, fmt.Errorf("output field %q: %T is not a decimal", f.Name, raw)
		}
		fv, _ := d.Float64()
		if _, err := f.bound(fv); err != nil {
			return nil, err
		}
		if f.Min != nil && d.LessThan(decimal.NewFromFloat(*f.Min)) {
			d = decimal.NewFromFloat(*f.Min)
		}
		if f.Max != nil && d.GreaterThan(decimal.NewFromFloat(*f.Max)) {
			d = decimal.NewFromFloat(*f.Max)
		}
		if f.Places > 0 {
			d = d.Round(f.Places)
		}
		return d, nil

	case KindString:
		if raw == nil {
			return "", nil
		}
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("output field %q: %T is not a string", f.Name, raw)
		}
		return s, nil

	case KindBool:
		if raw == nil {
			return false, nil
		}
		b, ok := raw.(bool)
		if !ok {
			return nil, fmt.Errorf("output field %q: %T is not a bool", f.Name, raw)
		}
		return b, nil

	case KindList:
		switch l := raw.(type) {
		case nil:
			return []string{}, nil
		case []string:
			return append([]string{}, l...), nil
		case []any:
			return append([]any{}, l...), nil
		case []map[string]any:
			out := make([]any, len(l))
			for i, m := range l {
				out[i] = maps.Clone(m)
			}
			return out, nil
		default:
			return nil, fmt.Errorf("output field %q: %T is not a list", f.Name, raw)
		}

	case KindObject:
		switch m := raw.(type) {
		case nil:
			return map[string]any{}, nil
		case map[string]any:
			return maps.Clone(m), nil
		case map[string]float64:
			out := make(map[string]any, len(m))
			for k, v := range m {
				out[k] = v
			}
			return out, nil
		default:
			return nil, fmt.Errorf("output field %q: %T is not an object", f.Name, raw)
		}

	default:
		return nil, fmt.Errorf("output field %q: unsupported kind %q", f.Name, f.Kind)
	}
}

// bound clamps n to the field's range, or rejects it when the field is strict.
func (f Field) bound(n float64) (float64, error) {
	if f.Min != nil && n < *f.Min {
		if f.Strict {
			return 0, skillerr.Range(f.Name, n, f.Min, f.Max)
		}
		n = *f.Min
	}
	if f.Max != nil && n > *f.Max {
		if f.Strict {
			return 0, skillerr.Range(f.Name, n, f.Min, f.Max)
		}
		n = *f.Max
	}
	return n, nil
}

// Get returns the value of a field and whether it is declared.
func (r Record) Get(name string) (any, bool) {
	i, ok := r.index[name]
	if !ok {
		return nil, false
	}
	return r.entries[i].Value, true
}

// Fields returns the entries in declaration order.
func (r Record) Fields() []Entry { return append([]Entry{}, r.entries...) }

// Len returns the number of fields.
func (r Record) Len() int { return len(r.entries) }

// Map returns the record as a plain map.
func (r Record) Map() map[string]any {
	out := make(map[string]any, len(r.entries))
	for _, e := range r.entries {
		out[e.Name] = e.Value
	}
	return out
}

// Float returns a number field, or 0.
func (r Record) Float(name string) float64 {
	v, _ := r.Get(name)
	f, _ := toFloat(v)
	return f
}

// Decimal returns a decimal field, or zero.
func (r Record) Decimal(name string) decimal.Decimal {
	v, _ := r.Get(name)
	d, _ := toDecimal(v)
	return d
}

// String returns a string field, or "".
func (r Record) String(name string) string {
	v, _ := r.Get(name)
	s, _ := v.(string)
	return s
}

// Bool returns a bool field, or false.
func (r Record) Bool(name string) bool {
	v, _ := r.Get(name)
	b, _ := v.(bool)
	return b
}

// Strings returns a list field of strings. It never returns nil.
func (r Record) Strings(name string) []string {
	v, _ := r.Get(name)
	switch l := v.(type) {
	case []string:
		return append([]string{}, l...)
	case []any:
		out := make([]string, 0, len(l))
		for _, item := range l {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return []string{}
	}
}

// MarshalJSON encodes the record as a JSON object with sorted keys.
func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Map())
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case nil:
		return 0, true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case decimal.Decimal:
		f, _ := n.Float64()
		return f, true
	default:
		return 0, false
	}
}

func toDecimal(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case nil:
		return decimal.Zero, true
	case decimal.Decimal:
		return n, true
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat(n), true
	case int:
		return decimal.NewFromInt(int64(n)), true
	case int64:
		return decimal.NewFromInt(n), true
	default:
		return decimal.Zero, false
	}
}
