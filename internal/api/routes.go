package api

import (
	"github.com/gin-gonic/gin"
	"github.com/jroosing/dnstrace/internal/api/handlers"
	"github.com/jroosing/dnstrace/internal/api/middleware"
	"github.com/jroosing/dnstrace/internal/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/jroosing/dnstrace/internal/api/docs" // swagger docs
)

func RegisterRoutes(r *gin.Engine, h *handlers.Handler, cfg *config.Config, gatherer prometheus.Gatherer) {
	// Swagger UI at /swagger/*
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	if gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	// Health stays reachable without a key so probes need no secret.
	r.GET("/api/v1/health", h.Health)

	api := r.Group("/api/v1")
	if cfg != nil && cfg.API.APIKey != "" {
		api.Use(middleware.RequireAPIKey(cfg.API.APIKey))
	}

	api.GET("/stats", h.Stats)
	api.GET("/events", h.Events)
	api.GET("/events/export", h.ExportEvents)
	api.GET("/names", h.Names)
	api.GET("/interfaces", h.Interfaces)
}
