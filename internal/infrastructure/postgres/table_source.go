package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/bibbank/skills/internal/domain/refdata"
	pgutil "github.com/bibbank/skills/pkg/postgres"
)

// TableSource serves reference tables provisioned into PostgreSQL. It
// implements refdata.Source.
type TableSource struct {
	db pgutil.Querier
}

// NewTableSource creates a TableSource.
func NewTableSource(db pgutil.Querier) *TableSource {
	return &TableSource{db: db}
}

// Open returns the stored content of ref, or refdata.ErrTableNotFound.
func (s *TableSource) Open(ctx context.Context, ref refdata.TableRef) ([]byte, error) {
	format := ref.Format
	if format == "" {
		format = refdata.FormatCSV
	}

	var content []byte
	err := s.db.QueryRow(ctx,
		`SELECT content FROM reference_tables WHERE skill = $1 AND name = $2 AND format = $3`,
		ref.Skill, ref.Table, string(format),
	).Scan(&content)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s/%s: %w", ref.Skill, ref.File(), refdata.ErrTableNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read reference table %s/%s: %w", ref.Skill, ref.File(), err)
	}
	return content, nil
}

// Provision stores content as the named table of skill, replacing any
// earlier version.
func (s *TableSource) Provision(ctx context.Context, ref refdata.TableRef, content []byte) error {
	format := ref.Format
	if format == "" {
		format = refdata.FormatCSV
	}

	_, err := s.db.Exec(ctx, `
		INSERT INTO reference_tables (skill, name, format, content, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (skill, name, format) DO UPDATE SET
			content = EXCLUDED.content,
			updated_at = EXCLUDED.updated_at
	`, ref.Skill, ref.Table, string(format), content)
	if err != nil {
		return fmt.Errorf("failed to provision reference table %s/%s: %w", ref.Skill, ref.File(), err)
	}
	return nil
}

// ProvisionAll copies every table schema of every skill from src into
// PostgreSQL inside one transaction. It returns the number of tables stored.
func ProvisionAll(ctx context.Context, db pgutil.TxBeginner, src refdata.Source, skills map[string][]refdata.TableSchema) (int, error) {
	n := 0
	err := pgutil.WithTransaction(ctx, db, func(tx pgx.Tx) error {
		target := NewTableSource(tx)
		for skill, schemas := range skills {
			for _, schema := range schemas {
				ref := refdata.TableRef{Skill: skill, Table: schema.Name, Format: schema.Format}
				content, err := src.Open(ctx, ref)
				if err != nil {
					return fmt.Errorf("failed to read %s/%s: %w", skill, ref.File(), err)
				}
				if _, err := refdata.Parse(schema, content); err != nil {
					return err
				}
				if err := target.Provision(ctx, ref, content); err != nil {
					return err
				}
				n++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}
