package grpc

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/bibbank/skills/internal/application/dto"
	"github.com/bibbank/skills/internal/application/usecase"
	"github.com/bibbank/skills/internal/domain/port"
	"github.com/bibbank/skills/internal/domain/record"
	"github.com/bibbank/skills/internal/domain/skill"
	"github.com/bibbank/skills/internal/domain/skillerr"
	"github.com/bibbank/skills/pkg/auth"
)

// Compile-time assertion that SkillServiceHandler implements SkillServiceServer.
var _ SkillServiceServer = (*SkillServiceHandler)(nil)

// SkillServiceHandler implements the gRPC SkillServiceServer interface.
type SkillServiceHandler struct {
	UnimplementedSkillServiceServer
	listSkills      *usecase.ListSkills
	describeSkill   *usecase.DescribeSkill
	evaluateSkill   *usecase.EvaluateSkill
	getEvaluation   *usecase.GetEvaluation
	listEvaluations *usecase.ListEvaluations
	logger          *slog.Logger
}

// NewSkillServiceHandler creates a new gRPC handler.
func NewSkillServiceHandler(
	listSkills *usecase.ListSkills,
	describeSkill *usecase.DescribeSkill,
	evaluateSkill *usecase.EvaluateSkill,
	getEvaluation *usecase.GetEvaluation,
	listEvaluations *usecase.ListEvaluations,
	logger *slog.Logger,
) *SkillServiceHandler {
	return &SkillServiceHandler{
		listSkills:      listSkills,
		describeSkill:   describeSkill,
		evaluateSkill:   evaluateSkill,
		getEvaluation:   getEvaluation,
		listEvaluations: listEvaluations,
		logger:          logger,
	}
}

// ListSkills returns the catalog.
func (h *SkillServiceHandler) ListSkills(ctx context.Context, _ *ListSkillsRequest) (*ListSkillsResponse, error) {
	return &ListSkillsResponse{Skills: h.listSkills.Execute(ctx)}, nil
}

// DescribeSkill returns the documented interface of one skill.
func (h *SkillServiceHandler) DescribeSkill(ctx context.Context, req *DescribeSkillRequest) (*DescribeSkillResponse, error) {
	desc, err := h.describeSkill.Execute(ctx, req.Name)
	if err != nil {
		return nil, h.toStatus(ctx, err)
	}
	return &DescribeSkillResponse{Skill: desc}, nil
}

// Evaluate runs a skill on the request input.
func (h *SkillServiceHandler) Evaluate(ctx context.Context, req *EvaluateRequest) (*EvaluateResponse, error) {
	if req.Skill == "" {
		return nil, status.Error(codes.InvalidArgument, "skill is required")
	}
	in := record.Record{}
	if len(req.Input) > 0 {
		var err error
		if in, err = record.FromBytes(req.Input); err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "invalid input: %v", err)
		}
	}

	resp, err := h.evaluateSkill.Execute(ctx, dto.EvaluateRequest{
		Skill:    req.Skill,
		TenantID: auth.TenantFromContext(ctx),
		Input:    in,
	})
	if err != nil {
		return nil, h.toStatus(ctx, err)
	}
	return &EvaluateResponse{Evaluation: toEvaluationMsg(resp)}, nil
}

// GetEvaluation returns a recorded evaluation.
func (h *SkillServiceHandler) GetEvaluation(ctx context.Context, req *GetEvaluationRequest) (*GetEvaluationResponse, error) {
	id, err := uuid.Parse(req.EvaluationID)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid evaluation_id: %v", err)
	}

	resp, err := h.getEvaluation.Execute(ctx, dto.GetEvaluationRequest{
		TenantID:     auth.TenantFromContext(ctx),
		EvaluationID: id,
	})
	if err != nil {
		return nil, h.toStatus(ctx, err)
	}
	return &GetEvaluationResponse{Evaluation: toEvaluationMsg(resp)}, nil
}

// ListEvaluations pages through a skill's recorded evaluations.
func (h *SkillServiceHandler) ListEvaluations(ctx context.Context, req *ListEvaluationsRequest) (*ListEvaluationsResponse, error) {
	list, err := h.listEvaluations.Execute(ctx, dto.ListEvaluationsRequest{
		TenantID: auth.TenantFromContext(ctx),
		Skill:    req.Skill,
		Limit:    int(req.Limit),
		Offset:   int(req.Offset),
	})
	if err != nil {
		return nil, h.toStatus(ctx, err)
	}
	out := &ListEvaluationsResponse{Evaluations: make([]*EvaluationMsg, len(list))}
	for i, e := range list {
		out.Evaluations[i] = toEvaluationMsg(e)
	}
	return out, nil
}

func toEvaluationMsg(r dto.EvaluationResponse) *EvaluationMsg {
	return &EvaluationMsg{
		EvaluationID: r.EvaluationID.String(),
		TenantID:     r.TenantID.String(),
		Skill:        r.Skill,
		Version:      r.Version,
		EvaluatedAt:  r.EvaluatedAt.Format(time.RFC3339Nano),
		Input:        r.Input,
		Output:       r.Output,
		Alerts:       r.Alerts,
	}
}

// toStatus maps use case errors to gRPC status codes.
func (h *SkillServiceHandler) toStatus(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, skillerr.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, skillerr.ErrRange):
		return status.Error(codes.OutOfRange, err.Error())
	case errors.Is(err, skillerr.ErrDataNotFound):
		h.logger.ErrorContext(ctx, "reference data unavailable", "error", err)
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, skill.ErrSkillNotFound), errors.Is(err, port.ErrEvaluationNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, usecase.ErrStorageDisabled):
		return status.Error(codes.Unimplemented, err.Error())
	default:
		h.logger.ErrorContext(ctx, "request failed", "error", err)
		return status.Error(codes.Internal, "internal error")
	}
}
