package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/vigil-ops/vigil-backend-go/internal/api/handlers"
	"github.com/vigil-ops/vigil-backend-go/internal/api/middleware"
	"github.com/vigil-ops/vigil-backend-go/internal/config"
	"github.com/vigil-ops/vigil-backend-go/internal/core/alerting"
	"github.com/vigil-ops/vigil-backend-go/internal/core/incidents"
	"github.com/vigil-ops/vigil-backend-go/internal/websocket"
)

// NewRouter creates and configures the main HTTP router
func NewRouter(cfg *config.Config, engine *alerting.Engine, correlator *incidents.Correlator, logger *logrus.Logger, wsHub *websocket.Hub) *gin.Engine {
	if cfg.Server.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(middleware.ErrorHandlingMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.CORSMiddleware())

	rateLimiter := middleware.NewRateLimiter(100, 200) // 100 requests/sec, burst 200
	router.Use(rateLimiter.RateLimitMiddleware())

	h := handlers.NewHandlers(cfg, engine, correlator, wsHub, logger)

	// Public routes
	router.GET("/health", h.Health)

	if cfg.Metrics.Enabled {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	// WebSocket event stream
	router.GET("/ws", websocket.HandleWebSocketGin(wsHub))

	// API v1 routes
	api := router.Group("/api/v1")
	{
		metrics := api.Group("/metrics")
		{
			metrics.POST("/", h.RecordMetric)
			metrics.GET("/", h.GetMetricNames)
			metrics.GET("/:name/history", h.GetMetricHistory)
		}

		alerts := api.Group("/alerts")
		{
			alerts.GET("/", h.GetAlerts)
			alerts.GET("/:id", h.GetAlert)
			alerts.POST("/:id/resolve", h.ResolveAlert)
		}

		incidentRoutes := api.Group("/incidents")
		{
			incidentRoutes.GET("/", h.GetIncidents)
			incidentRoutes.GET("/:id", h.GetIncident)
			incidentRoutes.PUT("/:id/status", h.UpdateIncidentStatus)
		}

		rules := api.Group("/rules")
		{
			rules.GET("/", h.GetRules)
			rules.GET("/:id", h.GetRule)
			rules.PUT("/:id/enabled", h.SetRuleEnabled)
		}

		api.GET("/stats", h.GetStatistics)
	}

	return router
}
