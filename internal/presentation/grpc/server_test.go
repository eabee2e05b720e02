package grpc

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/bibbank/skills/internal/application/usecase"
	"github.com/bibbank/skills/internal/domain/refdata"
	"github.com/bibbank/skills/internal/domain/service"
	"github.com/bibbank/skills/internal/skills"
	"github.com/bibbank/skills/pkg/auth"
	"github.com/bibbank/skills/pkg/testutil"
)

func newTestHandler(t *testing.T) *SkillServiceHandler {
	t.Helper()
	catalog, err := skills.Default()
	require.NoError(t, err)
	calc := service.NewCalculator(refdata.NewLoader(catalog.EmbeddedTables()))
	logger := slog.New(slog.DiscardHandler)
	return NewSkillServiceHandler(
		usecase.NewListSkills(catalog),
		usecase.NewDescribeSkill(catalog),
		usecase.NewEvaluateSkill(catalog, calc, nil, nil, nil, logger),
		usecase.NewGetEvaluation(nil),
		usecase.NewListEvaluations(nil),
		logger,
	)
}

func dial(t *testing.T, cfg ServerConfig) *grpclib.ClientConn {
	t.Helper()
	srv, err := NewServer(newTestHandler(t), cfg, slog.New(slog.DiscardHandler))
	require.NoError(t, err)

	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpclib.NewClient("passthrough:///bufnet",
		grpclib.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpclib.WithTransportCredentials(insecure.NewCredentials()),
		grpclib.WithDefaultCallOptions(grpclib.CallContentSubtype("json")),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestSkillService_Evaluate(t *testing.T) {
	conn := dial(t, ServerConfig{})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var resp EvaluateResponse
	err := conn.Invoke(ctx, MethodEvaluate, &EvaluateRequest{
		Skill: "customer-churn-risk",
		Input: json.RawMessage(`{"customer_id":"c-1","tenure_months":24,"monthly_charges":50}`),
	}, &resp)
	require.NoError(t, err)
	require.NotNil(t, resp.Evaluation)
	assert.Equal(t, "customer-churn-risk", resp.Evaluation.Skill)
	assert.Equal(t, uuid.Nil.String(), resp.Evaluation.TenantID)

	var out map[string]any
	require.NoError(t, json.Unmarshal(resp.Evaluation.Output, &out))
	assert.Contains(t, out, "churn_score")
}

func TestSkillService_ErrorCodes(t *testing.T) {
	conn := dial(t, ServerConfig{})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tests := []struct {
		name   string
		method string
		req    any
		want   codes.Code
	}{
		{"validation", MethodEvaluate, &EvaluateRequest{Skill: "customer-churn-risk", Input: json.RawMessage(`{}`)}, codes.InvalidArgument},
		{"range", MethodEvaluate, &EvaluateRequest{Skill: "chemical-exposure-safety", Input: json.RawMessage(`{"cas_number":"108-88-3","concentration_ppm":-1}`)}, codes.OutOfRange},
		{"unknown skill", MethodDescribeSkill, &DescribeSkillRequest{Name: "horoscope"}, codes.NotFound},
		{"missing skill", MethodEvaluate, &EvaluateRequest{}, codes.InvalidArgument},
		{"bad id", MethodGetEvaluation, &GetEvaluationRequest{EvaluationID: "nope"}, codes.InvalidArgument},
		{"storage disabled", MethodGetEvaluation, &GetEvaluationRequest{EvaluationID: uuid.NewString()}, codes.Unimplemented},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp json.RawMessage
			err := conn.Invoke(ctx, tt.method, tt.req, &resp)
			assert.Equal(t, tt.want, status.Code(err), "error: %v", err)
		})
	}
}

func TestSkillService_ListAndDescribe(t *testing.T) {
	conn := dial(t, ServerConfig{})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var list ListSkillsResponse
	require.NoError(t, conn.Invoke(ctx, MethodListSkills, &ListSkillsRequest{}, &list))
	assert.Len(t, list.Skills, 5)

	var desc DescribeSkillResponse
	require.NoError(t, conn.Invoke(ctx, MethodDescribeSkill, &DescribeSkillRequest{Name: "supplier-risk"}, &desc))
	assert.Equal(t, "mitigations", desc.Skill.AlertsField)
}

func TestSkillService_Auth(t *testing.T) {
	jwtSvc, err := auth.NewJWTService(auth.JWTConfig{Secret: "grpc-test-secret", Issuer: "skills-test"})
	require.NoError(t, err)
	conn := dial(t, ServerConfig{JWT: jwtSvc})

	auditor, err := jwtSvc.GenerateToken(testutil.TestUserID, testutil.TestTenantID, []string{auth.RoleAuditor})
	require.NoError(t, err)
	analyst, err := jwtSvc.GenerateToken(testutil.TestUserID, testutil.TestTenantID, []string{auth.RoleAnalyst})
	require.NoError(t, err)

	withToken := func(token string) context.Context {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		t.Cleanup(cancel)
		return metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+token)
	}
	req := &EvaluateRequest{Skill: "customer-churn-risk", Input: json.RawMessage(`{"customer_id":"c","tenure_months":1,"monthly_charges":1}`)}

	var resp EvaluateResponse
	err = conn.Invoke(context.Background(), MethodEvaluate, req, &resp)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	err = conn.Invoke(withToken(auditor), MethodEvaluate, req, &resp)
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	var list ListSkillsResponse
	assert.NoError(t, conn.Invoke(withToken(auditor), MethodListSkills, &ListSkillsRequest{}, &list))

	require.NoError(t, conn.Invoke(withToken(analyst), MethodEvaluate, req, &resp))
	assert.Equal(t, testutil.TestTenantID.String(), resp.Evaluation.TenantID)

	health, err := healthpb.NewHealthClient(conn).Check(context.Background(), &healthpb.HealthCheckRequest{},
		grpclib.CallContentSubtype("proto"))
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, health.Status)
}
