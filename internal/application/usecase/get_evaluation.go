package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/bibbank/skills/internal/application/dto"
	"github.com/bibbank/skills/internal/domain/port"
)

// ErrStorageDisabled is returned by read use cases when no repository is configured.
var ErrStorageDisabled = errors.New("evaluation storage is not configured")

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// GetEvaluation is the use case for retrieving a recorded evaluation.
type GetEvaluation struct {
	repo port.EvaluationRepository
}

// NewGetEvaluation creates a new GetEvaluation use case. repo may be nil.
func NewGetEvaluation(repo port.EvaluationRepository) *GetEvaluation {
	return &GetEvaluation{repo: repo}
}

// Execute retrieves an evaluation by ID within the caller's tenant.
func (uc *GetEvaluation) Execute(ctx context.Context, req dto.GetEvaluationRequest) (dto.EvaluationResponse, error) {
	if uc.repo == nil {
		return dto.EvaluationResponse{}, ErrStorageDisabled
	}
	evaluation, err := uc.repo.FindByID(ctx, req.TenantID, req.EvaluationID)
	if err != nil {
		return dto.EvaluationResponse{}, fmt.Errorf("failed to find evaluation: %w", err)
	}
	if evaluation == nil {
		return dto.EvaluationResponse{}, fmt.Errorf("%w: %s", port.ErrEvaluationNotFound, req.EvaluationID)
	}
	return dto.FromModel(evaluation), nil
}

// ListEvaluations is the use case for paging through a skill's evaluations.
type ListEvaluations struct {
	repo port.EvaluationRepository
}

// NewListEvaluations creates a new ListEvaluations use case. repo may be nil.
func NewListEvaluations(repo port.EvaluationRepository) *ListEvaluations {
	return &ListEvaluations{repo: repo}
}

// Execute returns the tenant's evaluations of one skill, newest first.
func (uc *ListEvaluations) Execute(ctx context.Context, req dto.ListEvaluationsRequest) ([]dto.EvaluationResponse, error) {
	if uc.repo == nil {
		return nil, ErrStorageDisabled
	}
	limit := req.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	limit = min(limit, maxListLimit)
	offset := max(req.Offset, 0)

	evaluations, err := uc.repo.ListBySkill(ctx, req.TenantID, req.Skill, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list evaluations: %w", err)
	}
	out := make([]dto.EvaluationResponse, len(evaluations))
	for i, e := range evaluations {
		out[i] = dto.FromModel(e)
	}
	return out, nil
}
