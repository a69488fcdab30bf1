// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"belgeno/internal/infrastructure/http/v1/handlers"
	"belgeno/internal/infrastructure/http/v1/middleware"
	"belgeno/pkg/logger"
)

// RoleAdmin may reset sequence counters.
const RoleAdmin = "admin"

// RouterConfig holds router configuration.
type RouterConfig struct {
	// DB is pinged by the readiness probe.
	DB handlers.Pinger

	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	// Numbering serves the numbering endpoints.
	Numbering handlers.NumberingService

	// Idempotency enables replay of mutating requests when set.
	Idempotency middleware.IdempotencyStore

	// Version is reported by the liveness probe.
	Version string
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	log := cfg.Logger
	if log == nil {
		log = logger.Default()
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(log))
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.DB, cfg.Version)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}

	v1 := router.Group("/api/v1")
	{
		protected := v1.Group("")
		protected.Use(middleware.CompanyScope())          // 1. Resolve company
		protected.Use(middleware.Auth(cfg.JWTValidator)) // 2. Validate JWT against the company

		if cfg.Idempotency != nil {
			protected.Use(middleware.Idempotency(cfg.Idempotency))
		}

		registerNumberingRoutes(protected, cfg)
	}

	return router
}

// registerNumberingRoutes registers the numbering endpoints.
func registerNumberingRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	handler := handlers.NewNumberingHandler(handlers.NewBaseHandler(), cfg.Numbering)

	g := rg.Group("/numbering")
	g.GET("/kinds", handler.ListKinds)

	formats := g.Group("/formats")
	{
		formats.POST("/validate", handler.ValidateFormat)
		formats.POST("/preview", handler.Preview)
		formats.GET("/:kind", handler.GetFormat)
		formats.PUT("/:kind", handler.SaveFormat)
	}

	g.POST("/numbers/:kind", handler.GenerateNumber)

	sequences := g.Group("/sequences")
	{
		sequences.GET("/:kind", handler.GetSequence)
		sequences.POST("/:kind/next", handler.NextSequence)
		sequences.PUT("/:kind/reset", middleware.RequireRole(RoleAdmin), handler.ResetSequence)
	}

	g.GET("/audit/:kind", middleware.RequireRole(RoleAdmin), handler.History)
}
