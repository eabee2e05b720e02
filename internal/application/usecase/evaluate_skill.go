package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/bibbank/skills/internal/application/dto"
	"github.com/bibbank/skills/internal/domain/model"
	"github.com/bibbank/skills/internal/domain/port"
	"github.com/bibbank/skills/internal/domain/service"
	"github.com/bibbank/skills/internal/domain/skill"
	"github.com/bibbank/skills/internal/domain/skillerr"
	"github.com/bibbank/skills/pkg/observability"
)

const tracerName = "github.com/bibbank/skills/internal/application/usecase"

// EvaluateSkill is the use case for invoking one skill on one input record.
type EvaluateSkill struct {
	catalog    *skill.Catalog
	calculator *service.Calculator
	repo       port.EvaluationRepository
	publisher  port.EventPublisher
	metrics    *observability.SkillMetrics
	tracer     trace.Tracer
	logger     *slog.Logger
	now        func() time.Time
}

// NewEvaluateSkill creates a new EvaluateSkill use case. repo, publisher and
// metrics may be nil, in which case evaluations are not persisted, events
// are dropped and nothing is measured.
func NewEvaluateSkill(
	catalog *skill.Catalog,
	calculator *service.Calculator,
	repo port.EvaluationRepository,
	publisher port.EventPublisher,
	metrics *observability.SkillMetrics,
	logger *slog.Logger,
) *EvaluateSkill {
	if logger == nil {
		logger = slog.Default()
	}
	return &EvaluateSkill{
		catalog:    catalog,
		calculator: calculator,
		repo:       repo,
		publisher:  publisher,
		metrics:    metrics,
		tracer:     otel.Tracer(tracerName),
		logger:     logger,
		now:        time.Now,
	}
}

// Execute validates the input, runs the skill, records the evaluation and
// publishes its events. On failure no output is returned and nothing is stored.
func (uc *EvaluateSkill) Execute(ctx context.Context, req dto.EvaluateRequest) (dto.EvaluationResponse, error) {
	ctx, span := uc.tracer.Start(ctx, "EvaluateSkill", trace.WithAttributes(attribute.String("skill", req.Skill)))
	defer span.End()

	start := uc.now()
	resp, alerts, err := uc.evaluate(ctx, req)
	outcome := outcomeOf(err)

	span.SetAttributes(attribute.String("outcome", outcome))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
	}
	uc.metrics.RecordEvaluation(ctx, metricSkill(req.Skill, outcome), outcome, uc.now().Sub(start), alerts)
	return resp, err
}

// metricSkill bounds the skill label to catalog names.
func metricSkill(name, outcome string) string {
	if outcome == "not_found" {
		return "unknown"
	}
	return name
}

func (uc *EvaluateSkill) evaluate(ctx context.Context, req dto.EvaluateRequest) (dto.EvaluationResponse, int, error) {
	// 1. Resolve the skill and run it.
	s, err := uc.catalog.Get(req.Skill)
	if err != nil {
		return dto.EvaluationResponse{}, 0, err
	}
	outcome, err := uc.calculator.Evaluate(ctx, s, req.Input)
	if err != nil {
		return dto.EvaluationResponse{}, 0, err
	}

	// 2. Build the evaluation aggregate from the canonical input.
	input, err := json.Marshal(outcome.Input)
	if err != nil {
		return dto.EvaluationResponse{}, 0, fmt.Errorf("failed to encode input: %w", err)
	}
	output, err := json.Marshal(outcome.Output)
	if err != nil {
		return dto.EvaluationResponse{}, 0, fmt.Errorf("failed to encode output: %w", err)
	}
	evaluation, err := model.NewEvaluation(req.TenantID, outcome.Skill.Name, outcome.Skill.Version, input, output, outcome.Alerts, uc.now())
	if err != nil {
		return dto.EvaluationResponse{}, 0, fmt.Errorf("failed to create evaluation: %w", err)
	}

	// 3. Persist the evaluation.
	if uc.repo != nil {
		if err := uc.repo.Save(ctx, evaluation); err != nil {
			return dto.EvaluationResponse{}, 0, fmt.Errorf("failed to save evaluation: %w", err)
		}
	}

	// 4. Publish domain events.
	evts := evaluation.DomainEvents()
	if uc.publisher != nil && len(evts) > 0 {
		if err := uc.publisher.Publish(ctx, evts...); err != nil {
			return dto.EvaluationResponse{}, 0, fmt.Errorf("failed to publish events: %w", err)
		}
	}

	if len(outcome.Alerts) > 0 {
		uc.logger.Info("skill raised alerts",
			"skill", outcome.Skill.Name,
			"evaluation_id", evaluation.ID().String(),
			"alerts", outcome.Alerts,
		)
	}

	resp := dto.FromModel(evaluation)
	resp.Fields = outcome.Output.Fields()
	return resp, len(outcome.Alerts), nil
}

// outcomeOf names the metric and span outcome of an evaluation error.
func outcomeOf(err error) string {
	if err == nil {
		return "ok"
	}
	if kind := skillerr.Kind(err); kind != "" {
		return kind
	}
	if errors.Is(err, skill.ErrSkillNotFound) {
		return "not_found"
	}
	return "error"
}
