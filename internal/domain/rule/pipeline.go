package rule

import (
	"fmt"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/bibbank/skills/internal/domain/record"
	"github.com/bibbank/skills/internal/domain/refdata"
	"github.com/bibbank/skills/internal/domain/skillerr"
)

// Rule is one deterministic step of a skill. It declares the input fields,
// earlier partials and reference tables it consumes.
type Rule struct {
	Name        string
	Description string
	Inputs      []string
	After       []string
	Tables      []string
	Eval        func(c *Context) (Partial, error)
}

// Context is what a rule sees: the validated input, the tables it declared
// and the partials of the rules it declared in After.
type Context struct {
	Input record.Record

	rule    *Rule
	tables  *refdata.Set
	results *Results
}

// Table returns a declared reference table.
func (c *Context) Table(name string) (*refdata.Table, error) {
	if !slices.Contains(c.rule.Tables, name) {
		return nil, fmt.Errorf("rule %q reads undeclared table %q", c.rule.Name, name)
	}
	return c.tables.Table(name)
}

// Param reads a parameter from a declared parameter table.
func (c *Context) Param(table, name string) (float64, error) {
	t, err := c.Table(table)
	if err != nil {
		return 0, err
	}
	return t.Param(name)
}

func (c *Context) partial(name string) bool {
	if !slices.Contains(c.rule.After, name) {
		c.results.fail(fmt.Errorf("%w: rule %q reads undeclared partial %q", ErrMissingPartial, c.rule.Name, name))
		return false
	}
	return true
}

// Score reads an earlier numeric partial.
func (c *Context) Score(name string) float64 {
	if !c.partial(name) {
		return 0
	}
	return c.results.Score(name)
}

// Flag reads an earlier boolean partial.
func (c *Context) Flag(name string) bool {
	if !c.partial(name) {
		return false
	}
	return c.results.Flag(name)
}

// Label reads an earlier label partial.
func (c *Context) Label(name string) string {
	if !c.partial(name) {
		return ""
	}
	return c.results.Label(name)
}

// List reads an earlier list partial.
func (c *Context) List(name string) []string {
	if !c.partial(name) {
		return []string{}
	}
	return c.results.List(name)
}

// Decimal reads an earlier decimal partial.
func (c *Context) Decimal(name string) decimal.Decimal {
	if !c.partial(name) {
		return decimal.Zero
	}
	return c.results.Decimal(name)
}

// Object reads an earlier object partial.
func (c *Context) Object(name string) map[string]any {
	if !c.partial(name) {
		return map[string]any{}
	}
	return c.results.Object(name)
}

// Pipeline is an ordered list of rules.
type Pipeline []Rule

// Validate checks names are unique and every After entry names an earlier rule.
func (p Pipeline) Validate() error {
	seen := make(map[string]bool, len(p))
	for _, r := range p {
		if r.Name == "" {
			return fmt.Errorf("rule with empty name")
		}
		if r.Eval == nil {
			return fmt.Errorf("rule %q has no evaluation function", r.Name)
		}
		if seen[r.Name] {
			return fmt.Errorf("duplicate rule %q", r.Name)
		}
		for _, dep := range r.After {
			if !seen[dep] {
				return fmt.Errorf("rule %q depends on %q, which does not run before it", r.Name, dep)
			}
		}
		seen[r.Name] = true
	}
	return nil
}

// Run evaluates every rule in order. A rule error aborts the run; skill
// error kinds pass through unchanged so callers can match them.
func (p Pipeline) Run(input record.Record, tables *refdata.Set) (*Results, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	results := newResults()
	for i := range p {
		r := &p[i]
		c := &Context{Input: input, rule: r, tables: tables, results: results}

		partial, err := r.Eval(c)
		if err != nil {
			if skillerr.Kind(err) != "" {
				return nil, err
			}
			return nil, fmt.Errorf("rule %q: %w", r.Name, err)
		}
		if err := results.Err(); err != nil {
			return nil, fmt.Errorf("rule %q: %w", r.Name, err)
		}
		if partial.kind == "" {
			return nil, fmt.Errorf("rule %q produced no partial", r.Name)
		}
		results.set(r.Name, partial)
	}
	return results, nil
}
