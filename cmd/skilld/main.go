package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bibbank/skills/internal/application/usecase"
	"github.com/bibbank/skills/internal/domain/port"
	"github.com/bibbank/skills/internal/domain/refdata"
	"github.com/bibbank/skills/internal/domain/service"
	"github.com/bibbank/skills/internal/domain/skill"
	"github.com/bibbank/skills/internal/infrastructure/config"
	"github.com/bibbank/skills/internal/infrastructure/messaging"
	"github.com/bibbank/skills/internal/infrastructure/postgres"
	grpcpresentation "github.com/bibbank/skills/internal/presentation/grpc"
	"github.com/bibbank/skills/internal/presentation/rest"
	"github.com/bibbank/skills/internal/skills"
	"github.com/bibbank/skills/migrations"
	"github.com/bibbank/skills/pkg/auth"
	"github.com/bibbank/skills/pkg/kafka"
	"github.com/bibbank/skills/pkg/observability"
	pgutil "github.com/bibbank/skills/pkg/postgres"
	"github.com/bibbank/skills/pkg/tlsutil"
)

func main() {
	if err := run(); err != nil {
		slog.Error("skilld exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Initialize structured logger via shared observability package.
	logger := observability.InitLogger(cfg.Log())
	slog.SetDefault(logger)

	logger.Info("starting skilld",
		"http_port", cfg.HTTPPort,
		"grpc_port", cfg.GRPCPort,
		"refdata_source", cfg.RefdataSource,
	)

	// Initialize tracing.
	tp, err := observability.InitTracer(ctx, cfg.Trace())
	if err != nil {
		logger.Warn("failed to initialize tracer, continuing without tracing", "error", err)
	} else {
		defer func() { _ = tp.Shutdown(context.Background()) }()
	}

	// Initialize metrics.
	metrics, err := observability.InitMetrics(observability.MetricsConfig{ServiceName: "skilld"})
	if err != nil {
		return err
	}
	defer func() { _ = metrics.Shutdown(context.Background()) }()
	skillMetrics, err := observability.NewSkillMetrics(metrics.Meter("github.com/bibbank/skills"))
	if err != nil {
		return err
	}

	catalog, err := skills.Default()
	if err != nil {
		return err
	}

	// Database connection, optional.
	var pool *pgxpool.Pool
	if cfg.Postgres().Enabled() {
		pool, err = connectDatabase(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	source, err := tableSource(cfg, catalog, pool)
	if err != nil {
		return err
	}

	// Wire infrastructure adapters.
	var repo port.EvaluationRepository
	if pool != nil {
		repo = postgres.NewEvaluationRepository(pool)
	}

	var publisher port.EventPublisher = messaging.NewLogPublisher(logger)
	if cfg.Kafka().Enabled() {
		producer, err := kafka.NewProducer(cfg.Kafka())
		if err != nil {
			return err
		}
		defer producer.Close()
		publisher = messaging.NewKafkaPublisher(producer, cfg.EventsTopic, logger)
		logger.Info("publishing events to kafka", "brokers", cfg.KafkaBrokers, "topic", cfg.EventsTopic)
	}

	var jwtService *auth.JWTService
	jwtCfg, err := cfg.JWT()
	if err != nil {
		return err
	}
	if jwtCfg.Enabled() {
		jwtService, err = auth.NewJWTService(jwtCfg)
		if err != nil {
			return err
		}
	} else {
		logger.Warn("no JWT key configured, authentication is disabled")
	}

	// Wire domain services and use cases.
	calculator := service.NewCalculator(refdata.NewLoader(source))

	listSkillsUC := usecase.NewListSkills(catalog)
	describeSkillUC := usecase.NewDescribeSkill(catalog)
	evaluateSkillUC := usecase.NewEvaluateSkill(catalog, calculator, repo, publisher, skillMetrics, logger)
	getEvaluationUC := usecase.NewGetEvaluation(repo)
	listEvaluationsUC := usecase.NewListEvaluations(repo)

	// gRPC server.
	grpcHandler := grpcpresentation.NewSkillServiceHandler(
		listSkillsUC, describeSkillUC, evaluateSkillUC, getEvaluationUC, listEvaluationsUC, logger,
	)
	grpcServer, err := grpcpresentation.NewServer(grpcHandler, grpcpresentation.ServerConfig{
		Address:    cfg.GRPCAddress(),
		JWT:        jwtService,
		TLS:        cfg.TLS(),
		Reflection: cfg.GRPCReflection,
	}, logger)
	if err != nil {
		return err
	}

	// HTTP server.
	checks := map[string]rest.Check{}
	if pool != nil {
		checks["database"] = func(ctx context.Context) error { return pgutil.HealthCheck(ctx, pool) }
	}
	var limiter *rest.ClientRateLimiter
	if cfg.RateLimitRPS > 0 {
		limiter = rest.NewClientRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
	router := rest.NewRouter(rest.RouterConfig{
		Skills: rest.NewSkillHandler(
			listSkillsUC, describeSkillUC, evaluateSkillUC, getEvaluationUC, listEvaluationsUC, logger,
		),
		Health:      rest.NewHealthHandler(logger, checks),
		Metrics:     metrics.Handler,
		JWT:         jwtService,
		RateLimiter: limiter,
		Logger:      logger,
	})

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddress(),
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	if cfg.TLS().Enabled() {
		httpServer.TLSConfig, err = tlsutil.ServerConfig(cfg.TLS())
		if err != nil {
			return err
		}
	}

	// Start servers.
	errCh := make(chan error, 2)

	go func() {
		if err := grpcServer.Start(); err != nil {
			errCh <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	go func() {
		logger.Info("HTTP server starting", "address", cfg.HTTPAddress())
		var err error
		if httpServer.TLSConfig != nil {
			err = httpServer.ListenAndServeTLS("", "")
		} else {
			err = httpServer.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	logger.Info("skilld started",
		"grpc_address", cfg.GRPCAddress(),
		"http_address", cfg.HTTPAddress(),
		"environment", cfg.Environment,
		"skills", len(catalog.List()),
	)

	// Wait for shutdown signal.
	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case serveErr = <-errCh:
		logger.Error("server error", "error", serveErr)
	}

	// Graceful shutdown.
	logger.Info("shutting down skilld")

	grpcServer.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	logger.Info("skilld stopped")
	return serveErr
}

func connectDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*pgxpool.Pool, error) {
	dbCtx, dbCancel := context.WithTimeout(ctx, 10*time.Second)
	defer dbCancel()

	pool, err := pgutil.NewPool(dbCtx, cfg.Postgres())
	if err != nil {
		return nil, err
	}
	logger.Info("connected to database")

	if cfg.AutoMigrate {
		if err := pgutil.RunMigrations(cfg.Postgres().DSN(), migrations.FS); err != nil {
			pool.Close()
			return nil, err
		}
		logger.Info("database migrations applied")
	}
	return pool, nil
}

// tableSource picks where reference tables are read from. Directory and
// database sources fall back to the tables shipped with each skill.
func tableSource(cfg *config.Config, catalog *skill.Catalog, pool *pgxpool.Pool) (refdata.Source, error) {
	embedded := catalog.EmbeddedTables()
	switch cfg.RefdataSource {
	case config.RefdataDir:
		return refdata.FallbackSource{refdata.NewDirSource(os.DirFS(cfg.RefdataDir)), embedded}, nil
	case config.RefdataPostgres:
		if pool == nil {
			return nil, errors.New("refdata source postgres requires DATABASE_URL")
		}
		return refdata.FallbackSource{postgres.NewTableSource(pool), embedded}, nil
	default:
		return embedded, nil
	}
}
