package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/bibbank/skills/internal/domain/model"
	"github.com/bibbank/skills/internal/domain/port"
	pgutil "github.com/bibbank/skills/pkg/postgres"
)

// EvaluationRepository implements port.EvaluationRepository using PostgreSQL.
type EvaluationRepository struct {
	db pgutil.Querier
}

// NewEvaluationRepository creates a new PostgreSQL-backed evaluation repository.
func NewEvaluationRepository(db pgutil.Querier) *EvaluationRepository {
	return &EvaluationRepository{db: db}
}

// Save upserts an evaluation. Identical invocations share an ID, so a
// repeat overwrites the earlier row with the latest evaluation time.
func (r *EvaluationRepository) Save(ctx context.Context, e *model.Evaluation) error {
	query := `
		INSERT INTO skill_evaluations (
			id, tenant_id, skill, skill_version,
			input, output, alerts, evaluated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			output = EXCLUDED.output,
			alerts = EXCLUDED.alerts,
			evaluated_at = EXCLUDED.evaluated_at
	`

	_, err := r.db.Exec(ctx, query,
		e.ID(),
		e.TenantID(),
		e.Skill(),
		e.Version(),
		[]byte(e.Input()),
		[]byte(e.Output()),
		e.Alerts(),
		e.EvaluatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to save evaluation: %w", err)
	}
	return nil
}

// FindByID retrieves an evaluation within a tenant.
func (r *EvaluationRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.Evaluation, error) {
	query := `
		SELECT id, tenant_id, skill, skill_version,
			input, output, alerts, evaluated_at
		FROM skill_evaluations
		WHERE tenant_id = $1 AND id = $2
	`

	e, err := scanEvaluation(r.db.QueryRow(ctx, query, tenantID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, port.ErrEvaluationNotFound
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// ListBySkill returns a tenant's evaluations of one skill, newest first.
func (r *EvaluationRepository) ListBySkill(ctx context.Context, tenantID uuid.UUID, skill string, limit, offset int) ([]*model.Evaluation, error) {
	query := `
		SELECT id, tenant_id, skill, skill_version,
			input, output, alerts, evaluated_at
		FROM skill_evaluations
		WHERE tenant_id = $1 AND skill = $2
		ORDER BY evaluated_at DESC, id
		LIMIT $3 OFFSET $4
	`

	rows, err := r.db.Query(ctx, query, tenantID, skill, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query evaluations: %w", err)
	}
	defer rows.Close()

	var evaluations []*model.Evaluation
	for rows.Next() {
		e, err := scanEvaluation(rows)
		if err != nil {
			return nil, err
		}
		evaluations = append(evaluations, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate evaluations: %w", err)
	}
	return evaluations, nil
}

func scanEvaluation(row pgx.Row) (*model.Evaluation, error) {
	var (
		id          uuid.UUID
		tenantID    uuid.UUID
		skill       string
		version     string
		input       []byte
		output      []byte
		alerts      []string
		evaluatedAt time.Time
	)

	err := row.Scan(&id, &tenantID, &skill, &version, &input, &output, &alerts, &evaluatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan evaluation: %w", err)
	}

	return model.Reconstruct(id, tenantID, skill, version,
		json.RawMessage(input), json.RawMessage(output), alerts, evaluatedAt.UTC()), nil
}
