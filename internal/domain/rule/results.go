package rule

import (
	"errors"
	"fmt"
	"maps"

	"github.com/shopspring/decimal"
)

// ErrMissingPartial is returned when a rule or the assembler reads a partial
// that was never produced, or was produced with another kind.
var ErrMissingPartial = errors.New("missing partial result")

// Results holds the partials produced by a pipeline run, in rule order.
// Reads that miss record the first failure, reported by Err.
type Results struct {
	order    []string
	partials map[string]Partial
	err      error
}

func newResults() *Results {
	return &Results{partials: make(map[string]Partial)}
}

// Names returns the rule names that produced a partial, in run order.
func (r *Results) Names() []string { return append([]string{}, r.order...) }

// Get returns a partial by rule name.
func (r *Results) Get(name string) (Partial, bool) {
	p, ok := r.partials[name]
	return p, ok
}

// Err returns the first failed read, if any.
func (r *Results) Err() error { return r.err }

func (r *Results) set(name string, p Partial) {
	r.order = append(r.order, name)
	r.partials[name] = p
}

func (r *Results) read(name string, kind Kind) (Partial, bool) {
	p, ok := r.partials[name]
	if !ok {
		r.fail(fmt.Errorf("%w: %q has not been evaluated", ErrMissingPartial, name))
		return Partial{}, false
	}
	if p.kind != kind {
		r.fail(fmt.Errorf("%w: %q is a %s, not a %s", ErrMissingPartial, name, p.kind, kind))
		return Partial{}, false
	}
	return p, true
}

func (r *Results) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

// Score reads a numeric partial.
func (r *Results) Score(name string) float64 {
	p, _ := r.read(name, KindScore)
	return p.score
}

// Flag reads a boolean partial.
func (r *Results) Flag(name string) bool {
	p, _ := r.read(name, KindFlag)
	return p.flag
}

// Label reads a category label.
func (r *Results) Label(name string) string {
	p, _ := r.read(name, KindLabel)
	return p.label
}

// List reads a string list partial. It never returns nil.
func (r *Results) List(name string) []string {
	p, _ := r.read(name, KindList)
	return append([]string{}, p.list...)
}

// Decimal reads a decimal partial.
func (r *Results) Decimal(name string) decimal.Decimal {
	p, ok := r.read(name, KindDecimal)
	if !ok {
		return decimal.Zero
	}
	return p.dec
}

// Object reads an object partial. It never returns nil.
func (r *Results) Object(name string) map[string]any {
	p, ok := r.read(name, KindObject)
	if !ok || p.obj == nil {
		return map[string]any{}
	}
	return maps.Clone(p.obj)
}
