package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/utafrali/shopvista/internal/catalog"
	"github.com/utafrali/shopvista/internal/config"
	handler "github.com/utafrali/shopvista/internal/handler/http"
	"github.com/utafrali/shopvista/internal/repository"
	"github.com/utafrali/shopvista/internal/repository/memory"
	redisrepo "github.com/utafrali/shopvista/internal/repository/redis"
	"github.com/utafrali/shopvista/internal/service"
	"github.com/utafrali/shopvista/pkg/database"
	"github.com/utafrali/shopvista/pkg/health"
	"github.com/utafrali/shopvista/pkg/middleware"
	"github.com/utafrali/shopvista/pkg/tracing"
)

const (
	sessionSweepInterval = time.Minute
	slowStoreOpThreshold = 100 * time.Millisecond
)

// App wires together all dependencies and runs the storefront service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	rdb            *redis.Client
	memStore       *memory.SessionRepository
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    "storefront",
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTelEndpoint,
		SampleRate:     cfg.OTelSampleRate,
		Enabled:        cfg.OTelEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	a := &App{
		cfg:            cfg,
		logger:         logger,
		tracerShutdown: tracerShutdown,
	}

	repo, err := a.newSessionRepository(ctx)
	if err != nil {
		_ = tracerShutdown(context.Background())
		return nil, err
	}

	cat := catalog.Default()
	logger.Info("catalog loaded", slog.Int("products", cat.Len()))

	// Build the dependency graph.
	svc := service.NewStorefrontService(cat, repo, logger, service.Options{
		SessionTTL:     cfg.SessionTTL(),
		Locale:         cfg.Locale(),
		CurrencySymbol: cfg.CurrencySymbol,
	})

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("session_store", repo.Ping)

	// HTTP router.
	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.CORSAllowedOrigins
	corsCfg.Environment = cfg.Environment
	router := handler.NewRouter(svc, healthHandler, logger, handler.RouterConfig{
		CORS:       corsCfg,
		PprofCIDRs: cfg.PprofAllowedCIDRs,
	})

	a.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return a, nil
}

// newSessionRepository selects the configured session backend.
func (a *App) newSessionRepository(ctx context.Context) (repository.SessionRepository, error) {
	switch a.cfg.SessionStore {
	case config.SessionStoreRedis:
		redisCfg := database.DefaultRedisConfig()
		redisCfg.Addr = a.cfg.RedisAddr
		redisCfg.Password = a.cfg.RedisPass
		redisCfg.DB = a.cfg.RedisDB

		rdb, err := database.NewRedisClient(ctx, redisCfg, a.logger)
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		a.rdb = rdb
		database.SetSlowOpLogging(slowStoreOpThreshold, a.logger)
		a.logger.Info("connected to Redis",
			slog.String("addr", a.cfg.RedisAddr),
			slog.Int("db", a.cfg.RedisDB),
		)
		return redisrepo.NewSessionRepository(rdb, a.cfg.SessionTTL()), nil

	default:
		a.memStore = memory.NewSessionRepository()
		a.logger.Info("using in-memory session store",
			slog.Duration("session_ttl", a.cfg.SessionTTL()),
		)
		return a.memStore, nil
	}
}

// Handler returns the HTTP handler serving the storefront API.
func (a *App) Handler() http.Handler {
	return a.httpServer.Handler
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	if a.memStore != nil {
		go a.memStore.RunJanitor(ctx, sessionSweepInterval, a.logger)
	}

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		_ = a.Shutdown()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
		}
	}

	if err := a.tracerShutdown(shutdownCtx); err != nil {
		a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
	}

	a.logger.Info("application shutdown complete")
	return nil
}
