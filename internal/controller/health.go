package controller

import (
	"context"
	"net/http"
	"time"

	"todoapp/pkg/logger"

	"github.com/gin-gonic/gin"
)

const probeTimeout = 2 * time.Second

// Pinger is anything whose connectivity can be probed.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db          Pinger
	cache       Pinger
	environment string
}

// NewHealthHandler builds the probe handlers. cache may be nil.
func NewHealthHandler(db, cache Pinger, environment string) *HealthHandler {
	return &HealthHandler{db: db, cache: cache, environment: environment}
}

// Index returns service metadata.
func (h *HealthHandler) Index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "TODO App API",
		"version": "1.0.0",
		"status":  "running",
		"endpoints": gin.H{
			"auth":  "/api/auth",
			"todos": "/api/todos",
		},
	})
}

// Health reports the process as alive along with the database status.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), probeTimeout)
	defer cancel()
	dbStatus := "healthy"
	if err := h.db.Ping(ctx); err != nil {
		dbStatus = "error: " + err.Error()
	}
	c.JSON(http.StatusOK, gin.H{
		"status":      "healthy",
		"database":    dbStatus,
		"environment": h.environment,
	})
}

// Ready returns 200 if the database and Redis (when configured) respond.
// Used by readiness probes.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), probeTimeout)
	defer cancel()
	if err := h.db.Ping(ctx); err != nil {
		logger.Warn(ctx, "Readiness: database ping failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "database unavailable"})
		return
	}
	if h.cache != nil {
		if err := h.cache.Ping(ctx); err != nil {
			logger.Warn(ctx, "Readiness: redis ping failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "redis unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
