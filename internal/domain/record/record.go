// Package record holds the Input Record a skill is invoked with and the
// schema that validates it.
package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"

	"github.com/shopspring/decimal"
)

// Record maps named fields to scalars, strings, nested records or lists.
// A Record returned by Schema.Apply holds normalized Go values: string,
// float64, int64, decimal.Decimal, bool, []string, []Record, []any, Record.
type Record map[string]any

// FromJSON decodes a JSON object into a Record. Numbers are kept as
// json.Number so that decimal fields survive without float rounding.
func FromJSON(r io.Reader) (Record, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode input record: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("failed to decode input record: expected a JSON object")
	}
	return Record(raw), nil
}

// FromBytes is FromJSON over a byte slice.
func FromBytes(b []byte) (Record, error) {
	return FromJSON(bytes.NewReader(b))
}

// Clone returns a shallow copy of r.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Has reports whether name is present with a non-nil value.
func (r Record) Has(name string) bool {
	v, ok := r[name]
	return ok && v != nil
}

// String returns the string value of name, or "".
func (r Record) String(name string) string {
	s, _ := r[name].(string)
	return s
}

// Bool returns the bool value of name, or false.
func (r Record) Bool(name string) bool {
	b, _ := r[name].(bool)
	return b
}

// Float returns name as a float64. Integers and decimals are converted.
func (r Record) Float(name string) float64 {
	f, _ := toFloat(r[name])
	return f
}

// Int returns name as an int64. Non-integral values are truncated.
func (r Record) Int(name string) int64 {
	switch v := r[name].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	default:
		f, _ := toFloat(v)
		return int64(f)
	}
}

// Decimal returns name as a decimal.Decimal, or zero.
func (r Record) Decimal(name string) decimal.Decimal {
	d, _ := toDecimal(r[name])
	return d
}

// Strings returns a string list field. It never returns nil.
func (r Record) Strings(name string) []string {
	switch v := r[name].(type) {
	case []string:
		return append([]string{}, v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return []string{}
	}
}

// List returns a list of nested records. It never returns nil.
func (r Record) List(name string) []Record {
	switch v := r[name].(type) {
	case []Record:
		return append([]Record{}, v...)
	case []any:
		out := make([]Record, 0, len(v))
		for _, item := range v {
			switch m := item.(type) {
			case Record:
				out = append(out, m)
			case map[string]any:
				out = append(out, Record(m))
			}
		}
		return out
	default:
		return []Record{}
	}
}

// Object returns a nested record, or an empty one.
func (r Record) Object(name string) Record {
	switch v := r[name].(type) {
	case Record:
		return v
	case map[string]any:
		return Record(v)
	default:
		return Record{}
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case decimal.Decimal:
		f, _ := n.Float64()
		return f, true
	default:
		return 0, false
	}
}

func toDecimal(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case decimal.Decimal:
		return n, true
	case json.Number:
		d, err := decimal.NewFromString(n.String())
		return d, err == nil
	case string:
		d, err := decimal.NewFromString(n)
		return d, err == nil
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
