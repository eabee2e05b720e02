package event

import (
	"time"

	"github.com/google/uuid"

	"github.com/bibbank/skills/pkg/events"
)

const (
	// EventTypeEvaluationCompleted is emitted for every successful skill evaluation.
	EventTypeEvaluationCompleted = "skills.evaluation.completed"

	// EventTypeAlertRaised is emitted when an evaluation's alerts field is non-empty.
	EventTypeAlertRaised = "skills.alert.raised"

	// AggregateTypeEvaluation is the aggregate type carried by both events.
	AggregateTypeEvaluation = "Evaluation"
)

// EvaluationCompleted is published when a skill evaluation has finished.
type EvaluationCompleted struct {
	events.BaseEvent `json:"-"`
	EvaluationID     uuid.UUID `json:"evaluation_id"`
	Skill            string    `json:"skill"`
	Version          string    `json:"version"`
	AlertCount       int       `json:"alert_count"`
	EvaluatedAt      time.Time `json:"evaluated_at"`
}

// NewEvaluationCompleted creates an EvaluationCompleted event.
func NewEvaluationCompleted(evaluationID uuid.UUID, tenantID uuid.UUID, skill, version string, alertCount int, at time.Time) EvaluationCompleted {
	return EvaluationCompleted{
		BaseEvent:    events.NewBaseEvent(EventTypeEvaluationCompleted, evaluationID, AggregateTypeEvaluation, tenantString(tenantID), at),
		EvaluationID: evaluationID,
		Skill:        skill,
		Version:      version,
		AlertCount:   alertCount,
		EvaluatedAt:  at,
	}
}

// AlertRaised is published when an evaluation surfaced alerts, violations
// or decline reasons that need a human to look at them.
type AlertRaised struct {
	events.BaseEvent `json:"-"`
	EvaluationID     uuid.UUID `json:"evaluation_id"`
	Skill            string    `json:"skill"`
	Alerts           []string  `json:"alerts"`
	RaisedAt         time.Time `json:"raised_at"`
}

// NewAlertRaised creates an AlertRaised event.
func NewAlertRaised(evaluationID uuid.UUID, tenantID uuid.UUID, skill string, alerts []string, at time.Time) AlertRaised {
	return AlertRaised{
		BaseEvent:    events.NewBaseEvent(EventTypeAlertRaised, evaluationID, AggregateTypeEvaluation, tenantString(tenantID), at),
		EvaluationID: evaluationID,
		Skill:        skill,
		Alerts:       append([]string{}, alerts...),
		RaisedAt:     at,
	}
}

func tenantString(id uuid.UUID) string {
	if id == uuid.Nil {
		return ""
	}
	return id.String()
}
