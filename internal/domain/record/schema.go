package record

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/bibbank/skills/internal/domain/skillerr"
)

// Kind is the semantic type of an input field.
type Kind string

const (
	KindString     Kind = "string"
	KindNumber     Kind = "number"
	KindInteger    Kind = "integer"
	KindDecimal    Kind = "decimal"
	KindBool       Kind = "bool"
	KindStringList Kind = "string_list"
	KindList       Kind = "list"
	KindObject     Kind = "object"
)

// Field declares one named input parameter.
type Field struct {
	Name        string
	Kind        Kind
	Required    bool
	Default     any
	Description string

	// Min and Max are inclusive numeric bounds; ExclusiveMin makes Min strict.
	Min          *float64
	Max          *float64
	ExclusiveMin bool
	// RangeKind reports bound violations as a RangeError instead of a
	// ValidationError, for physical quantities with a hard domain.
	RangeKind bool

	// Items validates each element of a KindList field.
	Items Schema
}

// Schema is the ordered list of input parameters of a skill.
type Schema []Field

// Names returns the declared field names in order.
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, f := range s {
		names[i] = f.Name
	}
	return names
}

// Apply validates in against the schema and returns a new record with
// every value normalized and every absent optional field defaulted.
// Fields not declared by the schema are carried through unchanged.
// The input record is not modified.
func (s Schema) Apply(in Record) (Record, error) {
	return s.apply(in, "")
}

func (s Schema) apply(in Record, prefix string) (Record, error) {
	out := in.Clone()

	for _, f := range s {
		path := prefix + f.Name
		raw, present := in[f.Name]

		if !present || raw == nil {
			if f.Required {
				return nil, skillerr.Validation(path, "is required")
			}
			if f.Default == nil {
				out[f.Name] = emptyValue(f.Kind)
				continue
			}
			raw = f.Default
		} else if str, ok := raw.(string); ok && strings.TrimSpace(str) == "" && !f.Required && f.Default != nil {
			raw = f.Default
		}

		v, err := f.normalize(raw, path)
		if err != nil {
			return nil, err
		}
		out[f.Name] = v
	}

	return out, nil
}

func emptyValue(k Kind) any {
	switch k {
	case KindStringList:
		return []string{}
	case KindList:
		return []Record{}
	case KindObject:
		return Record{}
	default:
		return nil
	}
}

func (f Field) normalize(raw any, path string) (any, error) {
	switch f.Kind {
	case KindString:
		s, ok := raw.(string)
		if !ok {
			return nil, skillerr.Validation(path, "must be a string")
		}
		s = strings.TrimSpace(s)
		if f.Required && s == "" {
			return nil, skillerr.Validation(path, "must not be empty")
		}
		return s, nil

	case KindNumber:
		n, ok := toFloat(raw)
		if !ok {
			return nil, skillerr.Validation(path, "must be a number")
		}
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return nil, skillerr.Validation(path, "must be a finite number")
		}
		if err := f.checkBounds(n, path); err != nil {
			return nil, err
		}
		return n, nil

	case KindInteger:
		n, err := toInteger(raw)
		if err != nil {
			return nil, skillerr.Validation(path, "%s", err.Error())
		}
		if err := f.checkBounds(float64(n), path); err != nil {
			return nil, err
		}
		return n, nil

	case KindDecimal:
		d, ok := toDecimal(raw)
		if !ok {
			return nil, skillerr.Validation(path, "must be a decimal number")
		}
		fv, _ := d.Float64()
		if err := f.checkBounds(fv, path); err != nil {
			return nil, err
		}
		return d, nil

	case KindBool:
		b, ok := raw.(bool)
		if !ok {
			return nil, skillerr.Validation(path, "must be a boolean")
		}
		return b, nil

	case KindStringList:
		return toStringList(raw, path)

	case KindList:
		items, ok := raw.([]any)
		if !ok {
			if recs, isRecs := raw.([]Record); isRecs {
				items = make([]any, len(recs))
				for i, r := range recs {
					items[i] = r
				}
			} else {
				return nil, skillerr.Validation(path, "must be a list")
			}
		}
		out := make([]Record, 0, len(items))
		for i, item := range items {
			var rec Record
			switch m := item.(type) {
			case Record:
				rec = m
			case map[string]any:
				rec = Record(m)
			default:
				return nil, skillerr.Validation(fmt.Sprintf("%s[%d]", path, i), "must be an object")
			}
			if f.Items != nil {
				var err error
				rec, err = f.Items.apply(rec, fmt.Sprintf("%s[%d].", path, i))
				if err != nil {
					return nil, err
				}
			}
			out = append(out, rec)
		}
		return out, nil

	case KindObject:
		switch m := raw.(type) {
		case Record:
			return m.Clone(), nil
		case map[string]any:
			return Record(m).Clone(), nil
		default:
			return nil, skillerr.Validation(path, "must be an object")
		}

	default:
		return nil, fmt.Errorf("field %q: unsupported kind %q", path, f.Kind)
	}
}

func (f Field) checkBounds(v float64, path string) error {
	below := f.Min != nil && (v < *f.Min || (f.ExclusiveMin && v == *f.Min))
	above := f.Max != nil && v > *f.Max
	if !below && !above {
		return nil
	}

	if f.RangeKind {
		return skillerr.Range(path, v, f.Min, f.Max)
	}
	switch {
	case below && f.ExclusiveMin:
		return skillerr.Validation(path, "must be greater than %v", *f.Min)
	case below:
		return skillerr.Validation(path, "must be at least %v", *f.Min)
	default:
		return skillerr.Validation(path, "must be at most %v", *f.Max)
	}
}

var (
	minInt64 = decimal.NewFromInt(math.MinInt64)
	maxInt64 = decimal.NewFromInt(math.MaxInt64)
)

func toInteger(raw any) (int64, error) {
	switch n := raw.(type) {
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
		d, err := decimal.NewFromString(n.String())
		if err != nil || !d.IsInteger() {
			return 0, fmt.Errorf("must be an integer")
		}
		if d.LessThan(minInt64) || d.GreaterThan(maxInt64) {
			return 0, fmt.Errorf("must be a 64-bit integer")
		}
		return d.IntPart(), nil
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return 0, fmt.Errorf("must be an integer")
		}
		// 2^63 is the first float64 above MaxInt64.
		if n < math.MinInt64 || n >= math.MaxInt64 {
			return 0, fmt.Errorf("must be a 64-bit integer")
		}
		return int64(n), nil
	default:
		return 0, fmt.Errorf("must be an integer")
	}
}

func toStringList(raw any, path string) ([]string, error) {
	switch v := raw.(type) {
	case []string:
		return append([]string{}, v...), nil
	case []any:
		out := make([]string, 0, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, skillerr.Validation(fmt.Sprintf("%s[%d]", path, i), "must be a string")
			}
			out = append(out, strings.TrimSpace(s))
		}
		return out, nil
	default:
		return nil, skillerr.Validation(path, "must be a list of strings")
	}
}
