package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/memberdir/admin_api/internal/utils"
)

var startTime = time.Now()

// Pinger checks that a backing service is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// CachePinger checks that the cache is reachable.
type CachePinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler provides health endpoint.
type HealthHandler struct {
	db    Pinger
	cache CachePinger
}

// NewHealthHandler creates a new HealthHandler. cache may be nil.
func NewHealthHandler(db Pinger, cache CachePinger) *HealthHandler {
	return &HealthHandler{db: db, cache: cache}
}

// GetHealth responds with service, database and cache status. It returns 503
// when the database is unreachable.
func (h *HealthHandler) GetHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	dbStatus := "connected"
	if err := h.db.PingContext(ctx); err != nil {
		dbStatus = "disconnected"
	}

	cacheStatus := "disabled"
	if h.cache != nil {
		cacheStatus = "connected"
		if err := h.cache.Ping(ctx); err != nil {
			cacheStatus = "disconnected"
		}
	}

	if dbStatus != "connected" {
		utils.Error(c, 503, "SERVICE_UNAVAILABLE", "Database is unreachable")
		return
	}

	status := "healthy"
	if cacheStatus == "disconnected" {
		status = "degraded"
	}

	utils.Success(c, 200, "Service is "+status, gin.H{
		"status":   status,
		"version":  "1.0.0",
		"uptime":   int(time.Since(startTime).Seconds()),
		"database": dbStatus,
		"cache":    cacheStatus,
	})
}
