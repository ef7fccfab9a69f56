package handlers

import (
	"context"
	"net/http"
	"time"

	"billdesk/internal/caching"

	"github.com/labstack/echo/v4"
)

// Pinger is anything whose connectivity can be probed.
type Pinger interface {
	Ping(ctx context.Context) error
}

// BucketChecker probes object storage.
type BucketChecker interface {
	EnsureBucketExists(ctx context.Context) error
}

// HealthHandlers handles health check endpoints
type HealthHandlers struct {
	db      Pinger
	cache   caching.CacheService
	storage BucketChecker
	version string
	started time.Time
}

func NewHealthHandlers(db Pinger, cache caching.CacheService, storage BucketChecker, version string) *HealthHandlers {
	return &HealthHandlers{
		db:      db,
		cache:   cache,
		storage: storage,
		version: version,
		started: time.Now(),
	}
}

// HealthStatus represents the overall health status
type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Services  map[string]string `json:"services"`
	Uptime    string            `json:"uptime"`
	Version   string            `json:"version"`
}

// HealthCheck handles GET /health. Any failing dependency degrades the status.
func (h *HealthHandlers) HealthCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	health := &HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Services:  make(map[string]string, 3),
		Uptime:    time.Since(h.started).Round(time.Second).String(),
		Version:   h.version,
	}
	check := func(name string, err error) {
		if err != nil {
			health.Services[name] = "unhealthy"
			health.Status = "degraded"
			return
		}
		health.Services[name] = "healthy"
	}
	check("database", h.db.Ping(ctx))
	check("redis", h.cache.Ping(ctx))
	check("storage", h.storage.EnsureBucketExists(ctx))

	statusCode := http.StatusOK
	if health.Status == "degraded" {
		statusCode = http.StatusServiceUnavailable
	}
	return c.JSON(statusCode, health)
}

// LivenessCheck handles GET /health/live
func (h *HealthHandlers) LivenessCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":    "alive",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
