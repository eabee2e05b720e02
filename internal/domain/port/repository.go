package port

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/bibbank/skills/internal/domain/model"
	"github.com/bibbank/skills/pkg/events"
)

// ErrEvaluationNotFound is returned when no evaluation matches the lookup.
var ErrEvaluationNotFound = errors.New("evaluation not found")

// EvaluationRepository defines the persistence port for evaluations.
type EvaluationRepository interface {
	// Save persists an evaluation. Saving the same ID again overwrites it.
	Save(ctx context.Context, evaluation *model.Evaluation) error

	// FindByID retrieves an evaluation, or ErrEvaluationNotFound.
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.Evaluation, error)

	// ListBySkill returns a tenant's evaluations of one skill, newest first.
	ListBySkill(ctx context.Context, tenantID uuid.UUID, skill string, limit, offset int) ([]*model.Evaluation, error)
}

// EventPublisher defines the port for publishing domain events.
type EventPublisher interface {
	// Publish sends one or more domain events to the messaging infrastructure.
	Publish(ctx context.Context, evts ...events.DomainEvent) error
}
