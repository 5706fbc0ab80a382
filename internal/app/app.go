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

	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/config"
	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/event"
	handler "github.com/Klimov-IS/Flowers-marketplace-sub000/internal/handler/http"
	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/marketplace"
	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/repository"
	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/repository/postgres"
	redisrepo "github.com/Klimov-IS/Flowers-marketplace-sub000/internal/repository/redis"
	"github.com/Klimov-IS/Flowers-marketplace-sub000/internal/service"
	"github.com/Klimov-IS/Flowers-marketplace-sub000/pkg/database"
	"github.com/Klimov-IS/Flowers-marketplace-sub000/pkg/health"
	pkgkafka "github.com/Klimov-IS/Flowers-marketplace-sub000/pkg/kafka"
	"github.com/Klimov-IS/Flowers-marketplace-sub000/pkg/middleware"
	"github.com/Klimov-IS/Flowers-marketplace-sub000/pkg/tracing"
)

const serviceName = "storefront"

// App wires together all dependencies and runs the storefront service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	rdb            *redis.Client
	pool           *pgxpool.Pool
	publisher      pkgkafka.Publisher
	loginLimiter   *middleware.RateLimiter
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    serviceName,
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// Initialize Redis client.
	rdb, err := database.NewRedisClient(ctx, database.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		_ = tracerShutdown(context.Background())
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis",
		slog.String("addr", cfg.RedisAddr),
		slog.Int("db", cfg.RedisDB),
	)

	a := &App{
		cfg:            cfg,
		logger:         logger,
		rdb:            rdb,
		tracerShutdown: tracerShutdown,
	}

	// Optional checkout journal.
	var journal repository.CheckoutJournal
	if cfg.JournalEnabled {
		pool, err := openJournal(ctx, cfg, logger)
		if err != nil {
			_ = a.closeStores()
			_ = tracerShutdown(context.Background())
			return nil, err
		}
		a.pool = pool
		journal = postgres.NewCheckoutJournal(pool)
	}

	// Kafka publisher; a no-op without brokers.
	a.publisher = pkgkafka.NewPublisher(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
	if len(cfg.KafkaBrokers) > 0 {
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	} else {
		logger.Info("kafka brokers not configured, events disabled")
	}

	// Build the dependency graph.
	api := marketplace.NewDefaultClient(cfg.MarketplaceURL, cfg.MarketplaceTimeout(), logger)
	events := event.NewProducer(a.publisher, logger)
	carts := service.NewCartService(redisrepo.NewCartRepository(rdb, cfg.CartTTLDuration()), events, logger)
	svcs := handler.Services{
		Sessions:    service.NewSessionService(api, redisrepo.NewSessionRepository(rdb, cfg.SessionTTLDuration()), logger, cfg.SessionTTLDuration()),
		Carts:       carts,
		Checkout:    service.NewCheckoutService(carts, api, journal, events, logger),
		Catalog:     service.NewCatalogService(api, logger),
		Orders:      service.NewOrderService(api),
		Assortment:  service.NewAssortmentService(api, logger),
		Suggestions: service.NewSuggestionService(api, logger),
	}

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("redis", func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
	if a.pool != nil {
		pool := a.pool
		healthHandler.RegisterNonCritical("postgres", func(ctx context.Context) error {
			return pool.Ping(ctx)
		})
	}
	if len(cfg.KafkaBrokers) > 0 {
		brokers := cfg.KafkaBrokers
		healthHandler.RegisterNonCritical("kafka", func(ctx context.Context) error {
			return pkgkafka.PingBrokers(ctx, brokers)
		})
	}

	if cfg.LoginRateLimitRPS > 0 {
		a.loginLimiter = middleware.NewRateLimiter(cfg.LoginRateLimitRPS, cfg.LoginRateLimitBurst, logger)
	}

	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = cfg.CORSAllowedOrigins
	cors.Environment = cfg.Environment

	// HTTP router.
	router := handler.NewRouter(svcs, healthHandler, handler.Options{
		CORS:           cors,
		CookieSecure:   cfg.CookieSecure,
		LoginLimiter:   a.loginLimiter,
		CatalogMaxAge:  cfg.CatalogMaxAge,
		OperationCIDRs: cfg.PprofAllowedCIDRs,
		EnablePprof:    cfg.PprofEnabled,
		RequestTimeout: time.Duration(cfg.RequestTimeoutSeconds) * time.Second,
	}, logger)

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      time.Duration(cfg.RequestTimeoutSeconds+5) * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return a, nil
}

// openJournal connects to PostgreSQL, registers pool metrics and applies the
// journal migrations.
func openJournal(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*pgxpool.Pool, error) {
	pgCfg := database.DefaultPostgresConfig()
	pgCfg.Host = cfg.PostgresHost
	pgCfg.Port = cfg.PostgresPort
	pgCfg.User = cfg.PostgresUser
	pgCfg.Password = cfg.PostgresPass
	pgCfg.DBName = cfg.PostgresDB
	pgCfg.SSLMode = cfg.PostgresSSL
	pgCfg.MaxConns = cfg.DBMaxConns
	pgCfg.MinConns = cfg.DBMinConns

	pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, pool, serviceName); err != nil {
		logger.Warn("register pool metrics", slog.String("error", err.Error()))
	}

	if err := database.RunMigrations(ctx, pool, postgres.Migrations(), logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	if cfg.SlowQueryThresholdMs > 0 {
		database.SetSlowQueryLogging(time.Duration(cfg.SlowQueryThresholdMs)*time.Millisecond, logger)
	}
	return pool, nil
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

// Shutdown gracefully stops all components in order: drain HTTP, flush
// spans, close the Kafka producer, then the stores.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if a.loginLimiter != nil {
		a.loginLimiter.Close()
	}

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if err := a.closeStores(); err != nil {
		errs = append(errs, err)
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

func (a *App) closeStores() error {
	if a.pool != nil {
		a.pool.Close()
	}
	if err := a.rdb.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
		return err
	}
	return nil
}
