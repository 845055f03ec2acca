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
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/utafrali/ReminderGo/internal/auth"
	"github.com/utafrali/ReminderGo/internal/cache"
	"github.com/utafrali/ReminderGo/internal/config"
	"github.com/utafrali/ReminderGo/internal/event"
	handler "github.com/utafrali/ReminderGo/internal/handler/http"
	"github.com/utafrali/ReminderGo/internal/repository"
	"github.com/utafrali/ReminderGo/internal/repository/memory"
	"github.com/utafrali/ReminderGo/internal/repository/postgres"
	"github.com/utafrali/ReminderGo/internal/service"
	"github.com/utafrali/ReminderGo/migrations"
	"github.com/utafrali/ReminderGo/pkg/database"
	"github.com/utafrali/ReminderGo/pkg/health"
	pkgkafka "github.com/utafrali/ReminderGo/pkg/kafka"
	"github.com/utafrali/ReminderGo/pkg/middleware"
	"github.com/utafrali/ReminderGo/pkg/tracing"
)

// ServiceName labels logs, metrics and traces.
const ServiceName = "reminder-api"

// App wires together all dependencies and runs the reminder API.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redis          *redis.Client
	producer       *pkgkafka.Producer
	httpServer     *http.Server
	tracerShutdown tracing.Shutdown
}

// NewApp creates a new application instance, initializing all dependencies.
// Anything opened before a failure is closed again.
func NewApp(cfg *config.Config, logger *slog.Logger) (_ *App, err error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			a.closeResources()
		}
	}()

	// Initialize OpenTelemetry tracing.
	a.tracerShutdown, err = tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    ServiceName,
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTelEndpoint,
		SampleRate:     cfg.OTelSampleRate,
		Enabled:        cfg.OTelEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	healthHandler := health.NewHandler()

	// Storage.
	var (
		users     repository.UserRepository
		reminders repository.ReminderRepository
	)
	switch cfg.StorageDriver {
	case config.StorageMemory:
		store := memory.New()
		users, reminders = store.Users(), store.Reminders()
		logger.Warn("using in-memory storage; data is lost on restart")
	default:
		if err := a.openPostgres(ctx, reg, healthHandler); err != nil {
			return nil, err
		}
		users = postgres.NewUserRepository(a.pool)
		reminders = postgres.NewReminderRepository(a.pool)
	}

	// Domain events.
	var events service.EventPublisher = event.Nop{}
	if cfg.KafkaEnabled {
		a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		events = event.NewProducer(a.producer, logger)
		healthHandler.RegisterOptional("kafka", a.producer.Ping)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}

	// Upcoming cache.
	var upcoming *cache.UpcomingCache
	if cfg.RedisEnabled {
		a.redis, err = database.NewRedisClient(ctx, database.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		upcoming = cache.NewUpcomingCache(a.redis, cfg.RedisCacheTTL, cache.DefaultBreakerConfig(), reg, logger)
		healthHandler.RegisterOptional("redis", func(ctx context.Context) error {
			return a.redis.Ping(ctx).Err()
		})
		logger.Info("connected to Redis", slog.String("addr", cfg.RedisAddr))
	}

	// Build the dependency graph.
	tokens, err := auth.NewTokenManager(auth.TokenConfig{
		Secret:    cfg.SecretKey,
		Algorithm: cfg.Algorithm,
		Lifetime:  cfg.AccessTokenLifetime(),
	})
	if err != nil {
		return nil, fmt.Errorf("create token manager: %w", err)
	}
	hasher := auth.NewBcryptHasher(cfg.BcryptCost)

	authService, err := service.NewAuthService(users, hasher, tokens, logger)
	if err != nil {
		return nil, fmt.Errorf("create auth service: %w", err)
	}

	// A nil *UpcomingCache must not become a non-nil interface.
	var userCache service.UpcomingCache
	var reminderOpts []service.ReminderOption
	if upcoming != nil {
		userCache = upcoming
		reminderOpts = append(reminderOpts, service.WithUpcomingCache(upcoming))
	}
	userService := service.NewUserService(users, hasher, events, userCache, logger)
	reminderService := service.NewReminderService(reminders, events, logger, reminderOpts...)

	// HTTP router.
	router := handler.NewRouter(handler.RouterConfig{
		Auth:      authService,
		Users:     userService,
		Reminders: reminderService,
		Health:    healthHandler,
		Metrics:   middleware.NewHTTPMetrics(reg, ServiceName),
		Gatherer:  reg,
		CORS: middleware.CORSConfig{
			AllowedOrigins: cfg.CORSAllowedOrigins,
			ExposedHeaders: []string{middleware.CorrelationIDHeader},
		},
		Logger: logger,
	})

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return a, nil
}

func (a *App) openPostgres(ctx context.Context, reg prometheus.Registerer, healthHandler *health.Handler) error {
	cfg := a.cfg
	pool, err := database.NewPostgresPool(ctx, database.PostgresConfig{
		URL:             cfg.DatabaseURL,
		MaxConns:        cfg.DBMaxConns,
		MinConns:        cfg.DBMinConns,
		MaxConnLifetime: time.Duration(cfg.DBMaxConnLifetimeMins) * time.Minute,
		MaxConnIdleTime: time.Duration(cfg.DBMaxConnIdleTimeMins) * time.Minute,
	}, a.logger)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	a.pool = pool
	a.logger.Info("connected to PostgreSQL",
		slog.String("host", pool.Config().ConnConfig.Host),
		slog.String("database", pool.Config().ConnConfig.Database),
	)

	if err := database.RegisterPoolMetrics(reg, pool, ServiceName); err != nil {
		return fmt.Errorf("register pool metrics: %w", err)
	}

	// Run database migrations.
	if err := database.RunMigrations(ctx, pool, migrations.FS, a.logger); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	a.logger.Info("database migrations completed")

	// Configure slow query logging.
	if cfg.SlowQueryThresholdMs > 0 {
		database.SetSlowQueryLogging(cfg.SlowQueryThreshold(), a.logger)
	}

	healthHandler.Register("postgres", pool.Ping)
	return nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
			slog.String("storage", a.cfg.StorageDriver),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		a.closeResources()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in the correct order:
// 1. HTTP server (drain in-flight requests)
// 2. Tracer (flush pending spans from drained requests)
// 3. Kafka producer, Redis client and PostgreSQL pool
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	// 1. Drain in-flight HTTP requests (5s budget).
	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	// 2. Flush pending spans after HTTP drain so in-flight request spans are captured.
	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
		a.tracerShutdown = nil
	}

	// 3. Close outbound clients and the pool.
	if err := a.closeResources(); err != nil {
		errs = append(errs, err)
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

// closeResources releases every client NewApp opened. It is safe to call
// with any subset of them initialized.
func (a *App) closeResources() error {
	var errs []error

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
		a.producer = nil
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
		a.redis = nil
	}
	if a.pool != nil {
		a.pool.Close()
		a.pool = nil
	}
	if a.tracerShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := a.tracerShutdown(ctx); err != nil {
			errs = append(errs, err)
		}
		a.tracerShutdown = nil
	}

	return errors.Join(errs...)
}
