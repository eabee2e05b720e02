package refdata

import (
	"context"
	"errors"

	"github.com/bibbank/skills/internal/domain/skillerr"
)

// Loader reads and validates the tables a skill declares.
type Loader struct {
	source Source
}

// NewLoader creates a Loader backed by source.
func NewLoader(source Source) *Loader {
	return &Loader{source: source}
}

// Load reads every table in schemas for skill. The first absent or
// malformed table aborts the load with a DataNotFoundError.
func (l *Loader) Load(ctx context.Context, skill string, schemas []TableSchema) (*Set, error) {
	tables := make([]*Table, 0, len(schemas))
	for _, schema := range schemas {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		data, err := l.source.Open(ctx, TableRef{Skill: skill, Table: schema.Name, Format: schema.Format})
		if err != nil {
			if errors.Is(err, ErrTableNotFound) {
				return nil, skillerr.DataNotFound(schema.Name, err, "unknown table")
			}
			return nil, skillerr.DataNotFound(schema.Name, err, "cannot read table")
		}

		t, err := Parse(schema, data)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return NewSet(tables...), nil
}
