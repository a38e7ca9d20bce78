package api

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// HealthHandler reports on the backing services. A nil pool or client means
// the dependency is not configured (memory store, in-process lock).
type HealthHandler struct {
	pgPool  *pgxpool.Pool
	redis   *redis.Client
	env     string
	version string
}

func NewHealthHandler(pgPool *pgxpool.Pool, redis *redis.Client, env, version string) *HealthHandler {
	return &HealthHandler{
		pgPool:  pgPool,
		redis:   redis,
		env:     env,
		version: version,
	}
}

type LivenessResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Env     string `json:"env,omitempty"`
}

type ReadinessResponse struct {
	Status       string            `json:"status"`
	Version      string            `json:"version,omitempty"`
	Env          string            `json:"env,omitempty"`
	Dependencies map[string]string `json:"dependencies"`
}

func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, LivenessResponse{
		Status:  "ok",
		Version: h.version,
		Env:     h.env,
	})
}

func ping(ctx context.Context, check func(context.Context) error) string {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := check(ctx); err != nil {
		return "down"
	}
	return "ok"
}

// Readiness fails when Postgres is down. Redis only degrades it, since
// bookings are still serialised by the database.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	deps := map[string]string{"postgres": "disabled", "redis": "disabled"}
	status := "ok"

	if h.pgPool != nil {
		deps["postgres"] = ping(ctx, h.pgPool.Ping)
		if deps["postgres"] != "ok" {
			status = "error"
		}
	}

	if h.redis != nil {
		deps["redis"] = ping(ctx, func(ctx context.Context) error { return h.redis.Ping(ctx).Err() })
		if deps["redis"] != "ok" && status == "ok" {
			status = "degraded"
		}
	}

	httpStatus := http.StatusOK
	if status == "error" {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, ReadinessResponse{
		Status:       status,
		Version:      h.version,
		Env:          h.env,
		Dependencies: deps,
	})
}
