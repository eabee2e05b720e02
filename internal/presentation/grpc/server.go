package grpc

import (
	"fmt"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/bibbank/skills/pkg/auth"
	"github.com/bibbank/skills/pkg/tlsutil"
)

// ServerConfig holds the optional parts of the gRPC server.
type ServerConfig struct {
	Address string
	// JWT enables the auth interceptor when non-nil.
	JWT        *auth.JWTService
	TLS        tlsutil.Config
	Reflection bool
}

// Server wraps the gRPC server with skill service handlers.
type Server struct {
	address    string
	grpcServer *grpc.Server
	health     *health.Server
	logger     *slog.Logger
}

// MethodRoles returns the roles allowed on each SkillService method.
func MethodRoles() auth.MethodRoles {
	return auth.MethodRoles{
		MethodListSkills:      auth.ReadRoles,
		MethodDescribeSkill:   auth.ReadRoles,
		MethodEvaluate:        auth.EvaluateRoles,
		MethodGetEvaluation:   auth.ReadRoles,
		MethodListEvaluations: auth.ReadRoles,
	}
}

// NewServer creates a new gRPC server for the skill service.
func NewServer(handler *SkillServiceHandler, cfg ServerConfig, logger *slog.Logger) (*Server, error) {
	var serverOpts []grpc.ServerOption

	if cfg.JWT != nil {
		serverOpts = append(serverOpts, grpc.UnaryInterceptor(auth.UnaryAuthInterceptor(cfg.JWT, MethodRoles())))
	} else {
		logger.Warn("gRPC authentication disabled")
	}

	if cfg.TLS.Enabled() {
		creds, err := tlsutil.ServerCredentials(cfg.TLS)
		if err != nil {
			return nil, fmt.Errorf("failed to load TLS credentials: %w", err)
		}
		serverOpts = append(serverOpts, grpc.Creds(creds))
		logger.Info("gRPC TLS enabled", "cert", cfg.TLS.CertFile, "mtls", cfg.TLS.ClientCAFile != "")
	} else {
		logger.Info("gRPC TLS not configured, running without TLS")
	}

	grpcServer := grpc.NewServer(serverOpts...)

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("bib.skills.v1.SkillService", healthpb.HealthCheckResponse_SERVING)

	RegisterSkillServiceServer(grpcServer, handler)

	if cfg.Reflection {
		reflection.Register(grpcServer)
	}

	return &Server{
		address:    cfg.Address,
		grpcServer: grpcServer,
		health:     healthServer,
		logger:     logger,
	}, nil
}

// Start begins listening and serving gRPC requests.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.address, err)
	}
	return s.Serve(listener)
}

// Serve serves gRPC requests on an existing listener.
func (s *Server) Serve(listener net.Listener) error {
	s.logger.Info("gRPC server starting", slog.String("address", listener.Addr().String()))
	return s.grpcServer.Serve(listener)
}

// Stop marks the service as not serving and gracefully stops the server.
func (s *Server) Stop() {
	s.logger.Info("gRPC server shutting down")
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
}
