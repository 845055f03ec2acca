package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/ReminderGo/internal/service"
	"github.com/utafrali/ReminderGo/pkg/health"
	"github.com/utafrali/ReminderGo/pkg/middleware"
)

// RouterConfig carries everything NewRouter mounts. Metrics and Gatherer
// are optional.
type RouterConfig struct {
	Auth      *service.AuthService
	Users     *service.UserService
	Reminders *service.ReminderService
	Health    *health.Handler
	Metrics   *middleware.HTTPMetrics
	Gatherer  prometheus.Gatherer
	CORS      middleware.CORSConfig
	Logger    *slog.Logger
}

// NewRouter creates a chi router with all reminder API routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Tracing())
	r.Use(middleware.RequestLogger(logger))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
	}

	// Health check endpoints
	r.Get("/health/live", cfg.Health.LivenessHandler())
	r.Get("/health/ready", cfg.Health.ReadinessHandler())
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	authHandler := NewAuthHandler(cfg.Auth, cfg.Users, logger)
	userHandler := NewUserHandler(cfg.Users, logger)
	reminderHandler := NewReminderHandler(cfg.Reminders, logger)
	requireUser := middleware.Auth(IdentityResolver(cfg.Auth), logger)

	// Public endpoints
	r.Post("/token", authHandler.Token)
	r.With(ContentTypeJSON).Post("/users/", authHandler.Register)

	r.Route("/users/me", func(r chi.Router) {
		r.Use(requireUser)

		r.Get("/", userHandler.Me)
		r.Delete("/", userHandler.DeleteMe)
	})

	r.Route("/reminders", func(r chi.Router) {
		r.Use(requireUser)
		r.Use(ContentTypeJSON)

		r.Post("/", reminderHandler.Create)
		r.Get("/", reminderHandler.List)
		r.Get("/upcoming", reminderHandler.Upcoming)
		r.Get("/{reminder_id}", reminderHandler.Get)
		r.Put("/{reminder_id}", reminderHandler.Update)
		r.Delete("/{reminder_id}", reminderHandler.Delete)
	})

	return r
}
