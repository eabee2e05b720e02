// Package refdata loads the reference tables that parameterize a skill.
package refdata

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/bibbank/skills/internal/domain/skillerr"
)

// Format is the on-disk encoding of a reference table.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// Column declares a column a table must carry.
type Column struct {
	Name    string
	Numeric bool
	// Optional numeric columns may hold blank cells.
	Optional bool
}

// TableSchema declares one reference table of a skill.
type TableSchema struct {
	Name        string
	Format      Format
	Columns     []Column
	Description string
}

// File returns the file name the table is stored under.
func (s TableSchema) File() string {
	format := s.Format
	if format == "" {
		format = FormatCSV
	}
	return s.Name + "." + string(format)
}

// Row is one immutable row of a reference table.
type Row struct {
	table  string
	values map[string]string
	nums   map[string]float64
}

// String returns the raw cell of column, or "".
func (r Row) String(column string) string {
	return r.values[column]
}

// Has reports whether column holds a non-blank cell.
func (r Row) Has(column string) bool {
	return strings.TrimSpace(r.values[column]) != ""
}

// Float returns a numeric cell. Blank optional cells read as 0.
func (r Row) Float(column string) float64 {
	if n, ok := r.nums[column]; ok {
		return n
	}
	f, _ := strconv.ParseFloat(strings.TrimSpace(r.values[column]), 64)
	return f
}

// Decimal returns a numeric cell as an exact decimal.
func (r Row) Decimal(column string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(r.values[column]))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Table is an ordered, immutable sequence of rows.
type Table struct {
	name    string
	columns []string
	rows    []Row
}

// Name returns the table identifier.
func (t *Table) Name() string { return t.name }

// Columns returns the header in file order.
func (t *Table) Columns() []string { return append([]string{}, t.columns...) }

// Len returns the number of data rows.
func (t *Table) Len() int { return len(t.rows) }

// Rows returns the rows in file order. The slice is a copy.
func (t *Table) Rows() []Row { return append([]Row{}, t.rows...) }

// Lookup returns the first row whose column equals value, ignoring case.
func (t *Table) Lookup(column, value string) (Row, bool) {
	for _, r := range t.rows {
		if strings.EqualFold(strings.TrimSpace(r.values[column]), strings.TrimSpace(value)) {
			return r, true
		}
	}
	return Row{}, false
}

// Filter returns every row whose column equals value, ignoring case.
func (t *Table) Filter(column, value string) []Row {
	var out []Row
	for _, r := range t.rows {
		if strings.EqualFold(strings.TrimSpace(r.values[column]), strings.TrimSpace(value)) {
			out = append(out, r)
		}
	}
	return out
}

// Param reads a two-column key/value table: the row whose first column is
// name, returning its second column as a number.
func (t *Table) Param(name string) (float64, error) {
	if len(t.columns) < 2 {
		return 0, skillerr.DataNotFound(t.name, nil, "not a parameter table")
	}
	row, ok := t.Lookup(t.columns[0], name)
	if !ok {
		return 0, skillerr.DataNotFound(t.name, nil, "missing parameter %q", name)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(row.values[t.columns[1]]), 64)
	if err != nil {
		return 0, skillerr.DataNotFound(t.name, err, "parameter %q is not numeric", name)
	}
	return v, nil
}

// Set is the collection of tables loaded for one invocation.
type Set struct {
	tables map[string]*Table
}

// NewSet builds a Set from already parsed tables.
func NewSet(tables ...*Table) *Set {
	s := &Set{tables: make(map[string]*Table, len(tables))}
	for _, t := range tables {
		s.tables[t.name] = t
	}
	return s
}

// Table returns a loaded table, or a DataNotFoundError when it was not loaded.
func (s *Set) Table(name string) (*Table, error) {
	t, ok := s.tables[name]
	if !ok {
		return nil, skillerr.DataNotFound(name, nil, "table was not loaded")
	}
	return t, nil
}

// Param reads a named parameter from a parameter table.
func (s *Set) Param(table, name string) (float64, error) {
	t, err := s.Table(table)
	if err != nil {
		return 0, err
	}
	return t.Param(name)
}

// Names returns the identifiers of the loaded tables.
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.tables))
	for n := range s.tables {
		names = append(names, n)
	}
	return names
}
