package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bibbank/skills/internal/domain/event"
	"github.com/bibbank/skills/pkg/events"
)

// evaluationNamespace seeds deterministic evaluation IDs.
var evaluationNamespace = uuid.MustParse("2b0f5c8e-6a1d-4e3b-9c47-5f2d8a9e1b30")

// Evaluation is the aggregate root recording one skill invocation.
type Evaluation struct {
	events.EventCollector

	evaluatedAt time.Time
	skill       string
	version     string
	input       json.RawMessage
	output      json.RawMessage
	alerts      []string
	tenantID    uuid.UUID
	id          uuid.UUID
}

// EvaluationID derives the ID of an evaluation from everything that
// determines its output, so identical invocations share one ID.
func EvaluationID(tenantID uuid.UUID, skill, version string, canonicalInput []byte) uuid.UUID {
	name := make([]byte, 0, len(canonicalInput)+len(skill)+len(version)+40)
	name = append(name, tenantID.String()...)
	name = append(name, '|')
	name = append(name, skill...)
	name = append(name, '|')
	name = append(name, version...)
	name = append(name, '|')
	name = append(name, canonicalInput...)
	return uuid.NewSHA1(evaluationNamespace, name)
}

// NewEvaluation records a completed evaluation and emits its domain events.
// input and output are JSON encodings of the validated input and the
// assembled output.
func NewEvaluation(
	tenantID uuid.UUID,
	skill, version string,
	input, output []byte,
	alerts []string,
	evaluatedAt time.Time,
) (*Evaluation, error) {
	if skill == "" {
		return nil, fmt.Errorf("skill name is required")
	}
	if version == "" {
		return nil, fmt.Errorf("skill version is required")
	}
	if !json.Valid(input) {
		return nil, fmt.Errorf("input must be valid JSON")
	}
	if !json.Valid(output) {
		return nil, fmt.Errorf("output must be valid JSON")
	}
	if alerts == nil {
		alerts = []string{}
	}

	e := &Evaluation{
		id:          EvaluationID(tenantID, skill, version, input),
		tenantID:    tenantID,
		skill:       skill,
		version:     version,
		input:       append(json.RawMessage{}, input...),
		output:      append(json.RawMessage{}, output...),
		alerts:      append([]string{}, alerts...),
		evaluatedAt: evaluatedAt.UTC(),
	}

	e.Record(event.NewEvaluationCompleted(e.id, tenantID, skill, version, len(alerts), e.evaluatedAt))
	if len(alerts) > 0 {
		e.Record(event.NewAlertRaised(e.id, tenantID, skill, alerts, e.evaluatedAt))
	}
	return e, nil
}

// Reconstruct rebuilds an Evaluation from persisted data (no validation, no events).
func Reconstruct(
	id, tenantID uuid.UUID,
	skill, version string,
	input, output []byte,
	alerts []string,
	evaluatedAt time.Time,
) *Evaluation {
	if alerts == nil {
		alerts = []string{}
	}
	return &Evaluation{
		id:          id,
		tenantID:    tenantID,
		skill:       skill,
		version:     version,
		input:       input,
		output:      output,
		alerts:      alerts,
		evaluatedAt: evaluatedAt,
	}
}

// --- Accessors ---

func (e *Evaluation) ID() uuid.UUID           { return e.id }
func (e *Evaluation) TenantID() uuid.UUID     { return e.tenantID }
func (e *Evaluation) Skill() string           { return e.skill }
func (e *Evaluation) Version() string         { return e.version }
func (e *Evaluation) Input() json.RawMessage  { return e.input }
func (e *Evaluation) Output() json.RawMessage { return e.output }
func (e *Evaluation) Alerts() []string        { return append([]string{}, e.alerts...) }
func (e *Evaluation) EvaluatedAt() time.Time  { return e.evaluatedAt }

// DomainEvents returns all accumulated domain events and clears them.
func (e *Evaluation) DomainEvents() []events.DomainEvent {
	return e.ClearEvents()
}
