package grpc

// proto.go defines the gRPC server interface for bib.skills.v1.SkillService.
// Messages are plain structs carried by the JSON codec registered in codec.go;
// clients select it with the "json" content subtype.

import (
	"context"
	"encoding/json"

	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/bibbank/skills/internal/application/dto"
)

// Full method names, used for role checks.
const (
	MethodListSkills      = "/bib.skills.v1.SkillService/ListSkills"
	MethodDescribeSkill   = "/bib.skills.v1.SkillService/DescribeSkill"
	MethodEvaluate        = "/bib.skills.v1.SkillService/Evaluate"
	MethodGetEvaluation   = "/bib.skills.v1.SkillService/GetEvaluation"
	MethodListEvaluations = "/bib.skills.v1.SkillService/ListEvaluations"
)

// ListSkillsRequest represents the proto ListSkillsRequest message.
type ListSkillsRequest struct{}

// ListSkillsResponse represents the proto ListSkillsResponse message.
type ListSkillsResponse struct {
	Skills []dto.SkillSummary `json:"skills"`
}

// DescribeSkillRequest represents the proto DescribeSkillRequest message.
type DescribeSkillRequest struct {
	Name string `json:"name"`
}

// DescribeSkillResponse represents the proto DescribeSkillResponse message.
type DescribeSkillResponse struct {
	Skill dto.SkillDescription `json:"skill"`
}

// EvaluateRequest represents the proto EvaluateRequest message. Input is
// the JSON object of input fields.
type EvaluateRequest struct {
	Skill string          `json:"skill"`
	Input json.RawMessage `json:"input"`
}

// EvaluationMsg represents the proto Evaluation message.
type EvaluationMsg struct {
	EvaluationID string          `json:"evaluation_id"`
	TenantID     string          `json:"tenant_id"`
	Skill        string          `json:"skill"`
	Version      string          `json:"version"`
	EvaluatedAt  string          `json:"evaluated_at"`
	Input        json.RawMessage `json:"input"`
	Output       json.RawMessage `json:"output"`
	Alerts       []string        `json:"alerts"`
}

// EvaluateResponse represents the proto EvaluateResponse message.
type EvaluateResponse struct {
	Evaluation *EvaluationMsg `json:"evaluation"`
}

// GetEvaluationRequest represents the proto GetEvaluationRequest message.
type GetEvaluationRequest struct {
	EvaluationID string `json:"evaluation_id"`
}

// GetEvaluationResponse represents the proto GetEvaluationResponse message.
type GetEvaluationResponse struct {
	Evaluation *EvaluationMsg `json:"evaluation"`
}

// ListEvaluationsRequest represents the proto ListEvaluationsRequest message.
type ListEvaluationsRequest struct {
	Skill  string `json:"skill"`
	Limit  int32  `json:"limit"`
	Offset int32  `json:"offset"`
}

// ListEvaluationsResponse represents the proto ListEvaluationsResponse message.
type ListEvaluationsResponse struct {
	Evaluations []*EvaluationMsg `json:"evaluations"`
}

// SkillServiceServer is the server API for SkillService.
type SkillServiceServer interface {
	ListSkills(context.Context, *ListSkillsRequest) (*ListSkillsResponse, error)
	DescribeSkill(context.Context, *DescribeSkillRequest) (*DescribeSkillResponse, error)
	Evaluate(context.Context, *EvaluateRequest) (*EvaluateResponse, error)
	GetEvaluation(context.Context, *GetEvaluationRequest) (*GetEvaluationResponse, error)
	ListEvaluations(context.Context, *ListEvaluationsRequest) (*ListEvaluationsResponse, error)
	mustEmbedUnimplementedSkillServiceServer()
}

// UnimplementedSkillServiceServer provides forward-compatible default implementations.
type UnimplementedSkillServiceServer struct{}

func (UnimplementedSkillServiceServer) ListSkills(context.Context, *ListSkillsRequest) (*ListSkillsResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ListSkills not implemented")
}
func (UnimplementedSkillServiceServer) DescribeSkill(context.Context, *DescribeSkillRequest) (*DescribeSkillResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method DescribeSkill not implemented")
}
func (UnimplementedSkillServiceServer) Evaluate(context.Context, *EvaluateRequest) (*EvaluateResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Evaluate not implemented")
}
func (UnimplementedSkillServiceServer) GetEvaluation(context.Context, *GetEvaluationRequest) (*GetEvaluationResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetEvaluation not implemented")
}
func (UnimplementedSkillServiceServer) ListEvaluations(context.Context, *ListEvaluationsRequest) (*ListEvaluationsResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ListEvaluations not implemented")
}
func (UnimplementedSkillServiceServer) mustEmbedUnimplementedSkillServiceServer() {}

// RegisterSkillServiceServer registers the SkillServiceServer with the gRPC server.
func RegisterSkillServiceServer(s grpclib.ServiceRegistrar, srv SkillServiceServer) {
	s.RegisterService(&_SkillService_serviceDesc, srv)
}

var _SkillService_serviceDesc = grpclib.ServiceDesc{
	ServiceName: "bib.skills.v1.SkillService",
	HandlerType: (*SkillServiceServer)(nil),
	Methods: []grpclib.MethodDesc{
		{MethodName: "ListSkills", Handler: _SkillService_ListSkills_Handler},
		{MethodName: "DescribeSkill", Handler: _SkillService_DescribeSkill_Handler},
		{MethodName: "Evaluate", Handler: _SkillService_Evaluate_Handler},
		{MethodName: "GetEvaluation", Handler: _SkillService_GetEvaluation_Handler},
		{MethodName: "ListEvaluations", Handler: _SkillService_ListEvaluations_Handler},
	},
	Streams: []grpclib.StreamDesc{},
}

// unary runs a decoded request through the interceptor chain, as generated
// handlers do.
func unary[Req any, Resp any](
	method string,
	call func(SkillServiceServer, context.Context, *Req) (*Resp, error),
) func(any, context.Context, func(any) error, grpclib.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpclib.UnaryServerInterceptor) (any, error) {
		req := new(Req)
		if err := dec(req); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(SkillServiceServer), ctx, req)
		}
		info := &grpclib.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(SkillServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, req, info, handler)
	}
}

var (
	_SkillService_ListSkills_Handler      = unary(MethodListSkills, SkillServiceServer.ListSkills)
	_SkillService_DescribeSkill_Handler   = unary(MethodDescribeSkill, SkillServiceServer.DescribeSkill)
	_SkillService_Evaluate_Handler        = unary(MethodEvaluate, SkillServiceServer.Evaluate)
	_SkillService_GetEvaluation_Handler   = unary(MethodGetEvaluation, SkillServiceServer.GetEvaluation)
	_SkillService_ListEvaluations_Handler = unary(MethodListEvaluations, SkillServiceServer.ListEvaluations)
)
