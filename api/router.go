package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/golbat/api/handler"
	"github.com/use-agent/golbat/api/middleware"
	"github.com/use-agent/golbat/config"
	"github.com/use-agent/golbat/pipeline"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:   Recovery → Logger
//	Metadata: Auth (if enabled) → RateLimit (if enabled)
//
// The health endpoint sits outside auth.
func NewRouter(p *pipeline.Pipeline, cfg *config.Config, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	// Health: no auth required.
	r.GET("/api/v1/health", handler.Health(startTime))

	protected := r.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	if cfg.RateLimit.Enabled {
		protected.Use(middleware.RateLimit(cfg.RateLimit))
	}

	metadata := handler.Metadata(p)
	protected.GET("/metadata", metadata)
	protected.GET("/api/v1/metadata", metadata)

	return r
}
