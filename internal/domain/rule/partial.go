// Package rule evaluates a skill's ordered rules over a validated input.
package rule

import (
	"fmt"
	"maps"

	"github.com/shopspring/decimal"
)

// Kind is the shape of a rule's partial result.
type Kind string

const (
	KindScore   Kind = "score"
	KindFlag    Kind = "flag"
	KindLabel   Kind = "label"
	KindList    Kind = "list"
	KindDecimal Kind = "decimal"
	KindObject  Kind = "object"
)

// Partial is the value produced by one rule.
type Partial struct {
	kind  Kind
	score float64
	flag  bool
	label string
	list  []string
	dec   decimal.Decimal
	obj   map[string]any
}

// Score wraps a numeric partial.
func Score(v float64) Partial { return Partial{kind: KindScore, score: v} }

// Flag wraps a boolean partial.
func Flag(v bool) Partial { return Partial{kind: KindFlag, flag: v} }

// Label wraps a category label.
func Label(v string) Partial { return Partial{kind: KindLabel, label: v} }

// List wraps an ordered list of strings. A nil list is stored as empty.
func List(items ...string) Partial {
	return Partial{kind: KindList, list: append([]string{}, items...)}
}

// Decimal wraps an exact decimal partial, typically a monetary amount.
func Decimal(v decimal.Decimal) Partial { return Partial{kind: KindDecimal, dec: v} }

// Object wraps a map of named values.
func Object(v map[string]any) Partial {
	return Partial{kind: KindObject, obj: maps.Clone(v)}
}

// Kind returns the partial's kind.
func (p Partial) Kind() Kind { return p.kind }

// Value returns the partial as a plain Go value.
func (p Partial) Value() any {
	switch p.kind {
	case KindScore:
		return p.score
	case KindFlag:
		return p.flag
	case KindLabel:
		return p.label
	case KindList:
		return append([]string{}, p.list...)
	case KindDecimal:
		return p.dec
	case KindObject:
		return maps.Clone(p.obj)
	default:
		return nil
	}
}

func (p Partial) String() string {
	return fmt.Sprintf("%s(%v)", p.kind, p.Value())
}
