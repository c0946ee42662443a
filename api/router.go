package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/sitegrade/api/handler"
	"github.com/use-agent/sitegrade/api/middleware"
	"github.com/use-agent/sitegrade/config"
	"github.com/use-agent/sitegrade/store"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health endpoint is intentionally outside auth so monitoring probes always work.
func NewRouter(deps handler.AssessDeps, pool handler.PoolStatser, st *store.Store, cfg *config.Config, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	v1 := r.Group("/api/v1")

	// Health — no auth required.
	v1.GET("/health", handler.Health(pool, startTime))

	// Protected group — auth + rate limit.
	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	// Assess
	protected.POST("/assess", handler.Assess(deps))

	// Reports
	protected.GET("/reports", handler.ListReports(st))
	protected.GET("/reports/:id/pdf", handler.DownloadReport(st))

	return r
}
