package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
)

type RouterConfig struct {
	Service      *appointment.Service
	Logger       *zap.Logger
	PgPool       *pgxpool.Pool // nil with the memory store
	Redis        *redis.Client // nil without a distributed lock
	JWTSecret    []byte
	RateLimitRPS int
	CORSOrigins  []string
	Env          string
	Version      string
}

func NewRouter(cfg RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))
	if cfg.RateLimitRPS > 0 {
		r.Use(httprate.LimitByIP(cfg.RateLimitRPS, time.Second))
	}

	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	svc := cfg.Service
	r.Group(func(r chi.Router) {
		r.Use(Authenticate(cfg.JWTSecret))

		r.Get("/doctors/{id}/slots", doctorSlotsHandler(svc))
		r.Get("/doctors/{id}/availability", doctorAvailabilityHandler(svc))

		r.Post("/appointments", bookAppointmentHandler(svc))
		r.Get("/appointments", listAppointmentsHandler(svc))
		r.Post("/appointments/manual", manualAppointmentHandler(svc))
		r.Get("/appointments/pending", listPendingHandler(svc))
		r.Get("/appointments/stats", statsHandler(svc))
		r.Get("/appointments/{id}", getAppointmentHandler(svc))
		r.Put("/appointments/{id}/schedule", rescheduleHandler(svc))
		r.Post("/appointments/{id}/confirm", confirmHandler(svc))
		r.Post("/appointments/{id}/reject", rejectHandler(svc))
		r.Post("/appointments/{id}/cancel", cancelHandler(svc))
		r.Post("/appointments/{id}/start", startHandler(svc))
		r.Post("/appointments/{id}/complete", completeHandler(svc))
		r.Post("/appointments/{id}/no-show", noShowHandler(svc))

		r.Post("/slots/{id}/reserve", reserveSlotHandler(svc))
		r.Post("/slots/{id}/release", releaseSlotHandler(svc))
		r.Post("/slots/{id}/block", blockSlotHandler(svc))
		r.Post("/slots/{id}/unblock", unblockSlotHandler(svc))
	})

	return r
}
