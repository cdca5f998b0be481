package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/vigil-ops/vigil-backend-go/internal/api/middleware"
	apperrors "github.com/vigil-ops/vigil-backend-go/pkg/errors"
	"github.com/vigil-ops/vigil-backend-go/pkg/utils"
)

// GetAlerts returns active alerts, or every alert with ?all=true.
func (h *Handlers) GetAlerts(c *gin.Context) {
	if c.Query("all") == "true" {
		utils.SendSuccess(c, h.engine.GetAllAlerts())
		return
	}
	utils.SendSuccess(c, h.engine.GetActiveAlerts())
}

// GetAlert returns a single alert by id.
func (h *Handlers) GetAlert(c *gin.Context) {
	alert, ok := h.engine.GetAlert(c.Param("id"))
	if !ok {
		middleware.HandleError(c, h.logger, apperrors.WithDetails(apperrors.ErrNotFound, "alert "+c.Param("id")))
		return
	}
	utils.SendSuccess(c, alert)
}

// ResolveAlertRequest names who resolved the alert.
type ResolveAlertRequest struct {
	ResolvedBy string `json:"resolved_by"`
}

// ResolveAlert resolves an alert. Resolving an already-resolved or
// unknown alert is a conflict, not an error in the engine.
func (h *Handlers) ResolveAlert(c *gin.Context) {
	var req ResolveAlertRequest
	// Body is optional; a missing resolver defaults inside the engine.
	_ = c.ShouldBindJSON(&req)

	id := c.Param("id")
	if !h.engine.ResolveAlert(id, req.ResolvedBy) {
		middleware.HandleError(c, h.logger, apperrors.WithDetails(apperrors.ErrConflict, "alert missing or already resolved"))
		return
	}

	alert, _ := h.engine.GetAlert(id)
	utils.SendSuccess(c, alert)
}

// GetStatistics returns the engine's aggregate counters.
func (h *Handlers) GetStatistics(c *gin.Context) {
	utils.SendSuccess(c, h.engine.GetStatistics())
}
