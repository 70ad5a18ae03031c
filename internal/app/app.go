package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/yehuditohana/Supermarket-Price-Comparer/internal/backend"
	"github.com/yehuditohana/Supermarket-Price-Comparer/internal/config"
	"github.com/yehuditohana/Supermarket-Price-Comparer/internal/event"
	handler "github.com/yehuditohana/Supermarket-Price-Comparer/internal/handler/http"
	pgrepo "github.com/yehuditohana/Supermarket-Price-Comparer/internal/repository/postgres"
	redisrepo "github.com/yehuditohana/Supermarket-Price-Comparer/internal/repository/redis"
	"github.com/yehuditohana/Supermarket-Price-Comparer/internal/service"
	"github.com/yehuditohana/Supermarket-Price-Comparer/pkg/database"
	"github.com/yehuditohana/Supermarket-Price-Comparer/pkg/health"
	"github.com/yehuditohana/Supermarket-Price-Comparer/pkg/httpclient"
	pkgkafka "github.com/yehuditohana/Supermarket-Price-Comparer/pkg/kafka"
	"github.com/yehuditohana/Supermarket-Price-Comparer/pkg/middleware"
	"github.com/yehuditohana/Supermarket-Price-Comparer/pkg/tracing"
)

// App wires together all dependencies and runs the price comparer.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	rdb            *redis.Client
	pool           *pgxpool.Pool
	producer       *pkgkafka.Producer
	tracerShutdown func(context.Context) error
	httpServer     *http.Server
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tracerShutdown, err := tracing.InitTracer(ctx, cfg.Tracing(handler.ServiceName))
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	rdb, err := database.NewRedisClient(ctx, cfg.Redis(), logger)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis",
		slog.String("addr", cfg.Redis().Addr()),
		slog.Int("db", cfg.RedisDB),
	)

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres(), logger)
	if err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := database.RunMigrations(ctx, pool, pgrepo.Migrations(), logger); err != nil {
		pool.Close()
		_ = rdb.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, pool, handler.ServiceName); err != nil {
		logger.Warn("failed to register pool metrics", slog.String("error", err.Error()))
	}
	database.SetSlowQueryLogging(time.Duration(cfg.SlowQueryMillis)*time.Millisecond, logger)
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.String("db", cfg.PostgresDB),
	)

	producer := pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
	if producer.Enabled() {
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	} else {
		logger.Info("no kafka brokers configured, event publishing disabled")
	}

	// Price backend behind a circuit breaker.
	breaker := httpclient.NewCircuitBreakerClient(httpclient.New(cfg.Backend()), cfg.BackendBreaker(), logger)
	backendClient := backend.NewClient(breaker, cfg.BackendBaseURL)

	// Build the dependency graph.
	sessionTTL := cfg.SessionTTL()
	eventProducer := event.NewProducer(producer, logger)

	carts := service.NewCartService(backendClient,
		redisrepo.NewActiveCartCache(rdb, cfg.ActiveCartTTL()),
		redisrepo.NewCartSnapshotRepository(rdb, sessionTTL),
		eventProducer, logger)
	selectionRepo := redisrepo.NewSelectionRepository(rdb, sessionTTL)
	comparisonCache := redisrepo.NewComparisonCache(rdb, sessionTTL)

	svcs := handler.Services{
		Carts:       carts,
		Selection:   service.NewSelectionService(backendClient, selectionRepo, redisrepo.NewBrowseRepository(rdb, sessionTTL), cfg.StorePageSize, logger),
		Comparisons: service.NewComparisonService(backendClient, carts, selectionRepo, comparisonCache, eventProducer, logger),
		Sessions:    service.NewSessionService(comparisonCache, logger),
		Auth:        service.NewAuthService(backendClient, pgrepo.NewIdentityRepository(pool), logger),
	}

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.SetTimeout(2 * time.Second)
	healthHandler.Register("redis", func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
	healthHandler.Register("postgres", pool.Ping)
	healthHandler.Register("price_backend", breaker.Check)
	if producer.Enabled() {
		healthHandler.Register("kafka", producer.Ping)
	}
	logger.Info("readiness checks registered", slog.Any("checks", healthHandler.Names()))

	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = cfg.CORSAllowedOrigins
	if cfg.IsProduction() {
		cors.Environment = "production"
	}

	router := handler.NewRouter(svcs, healthHandler, handler.RouterConfig{
		CORS:           cors,
		PprofCIDRs:     cfg.PprofAllowedCIDRs,
		RequestTimeout: time.Duration(cfg.RequestTimeoutSeconds) * time.Second,
		RateLimit:      cfg.RateLimit(),
		LoginRateLimit: cfg.LoginRateLimit(),
	}, logger)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      time.Duration(cfg.RequestTimeoutSeconds+5) * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		rdb:            rdb,
		pool:           pool,
		producer:       producer,
		tracerShutdown: tracerShutdown,
		httpServer:     httpServer,
	}, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

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

	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
	}

	if err := a.tracerShutdown(shutdownCtx); err != nil {
		a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
	}

	a.pool.Close()

	if err := a.rdb.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
	}

	a.logger.Info("application shutdown complete")
	return nil
}
