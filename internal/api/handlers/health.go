package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vigil-ops/vigil-backend-go/pkg/utils"
	"github.com/vigil-ops/vigil-backend-go/pkg/version"
)

// Health returns the health status of the service
func (h *Handlers) Health(c *gin.Context) {
	stats := h.engine.GetStatistics()

	health := gin.H{
		"status":         "healthy",
		"timestamp":      time.Now().Format(time.RFC3339),
		"service":        h.cfg.Monitoring.ServiceName,
		"version":        version.GetVersion(),
		"active_alerts":  stats.ActiveAlerts,
		"open_incidents": stats.OpenIncidents,
	}

	if h.hub != nil {
		health["websocket"] = h.hub.GetStats()
	}

	utils.SendSuccess(c, health)
}
