package dto

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/bibbank/skills/internal/domain/model"
	"github.com/bibbank/skills/internal/domain/record"
	"github.com/bibbank/skills/internal/domain/result"
)

// EvaluateRequest is the input DTO for the EvaluateSkill use case.
type EvaluateRequest struct {
	Input    record.Record `json:"input"`
	Skill    string        `json:"skill"`
	TenantID uuid.UUID     `json:"tenant_id"`
}

// EvaluationResponse is the output DTO of an evaluation.
type EvaluationResponse struct {
	EvaluatedAt time.Time       `json:"evaluated_at"`
	Input       json.RawMessage `json:"input"`
	Output      json.RawMessage `json:"output"`
	Alerts      []string        `json:"alerts"`
	// Fields is the output in declared order. It is only set on a fresh
	// evaluation, not on one read back from storage.
	Fields       []result.Entry `json:"-"`
	EvaluationID uuid.UUID      `json:"evaluation_id"`
	TenantID     uuid.UUID      `json:"tenant_id"`
	Skill        string         `json:"skill"`
	Version      string         `json:"version"`
}

// GetEvaluationRequest is the input DTO for retrieving an evaluation.
type GetEvaluationRequest struct {
	TenantID     uuid.UUID `json:"tenant_id"`
	EvaluationID uuid.UUID `json:"evaluation_id"`
}

// ListEvaluationsRequest is the input DTO for listing a skill's evaluations.
type ListEvaluationsRequest struct {
	Skill    string    `json:"skill"`
	TenantID uuid.UUID `json:"tenant_id"`
	Limit    int       `json:"limit"`
	Offset   int       `json:"offset"`
}

// FromModel maps an evaluation aggregate to the response DTO.
func FromModel(e *model.Evaluation) EvaluationResponse {
	return EvaluationResponse{
		EvaluationID: e.ID(),
		TenantID:     e.TenantID(),
		Skill:        e.Skill(),
		Version:      e.Version(),
		Input:        e.Input(),
		Output:       e.Output(),
		Alerts:       e.Alerts(),
		EvaluatedAt:  e.EvaluatedAt(),
	}
}
