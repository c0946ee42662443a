package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/sitegrade/models"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// PoolStatser reports browser page pool utilization.
type PoolStatser interface {
	Stats() models.PoolStats
}

// Health returns the handler for GET /api/v1/health.
// The endpoint reports degraded when the page pool is over 80% utilized.
func Health(pool PoolStatser, startedAt time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats := pool.Stats()

		status := "healthy"
		if stats.MaxPages > 0 && float64(stats.ActivePages)/float64(stats.MaxPages) > 0.8 {
			status = "degraded"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:    status,
			Uptime:    time.Since(startedAt).Round(time.Second).String(),
			PoolStats: stats,
			Version:   Version,
		})
	}
}
