package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/vigil-ops/vigil-backend-go/internal/api/middleware"
	"github.com/vigil-ops/vigil-backend-go/internal/core/incidents"
	apperrors "github.com/vigil-ops/vigil-backend-go/pkg/errors"
	"github.com/vigil-ops/vigil-backend-go/pkg/utils"
)

// GetIncidents returns open incidents, or every incident with ?all=true.
func (h *Handlers) GetIncidents(c *gin.Context) {
	if c.Query("all") == "true" {
		utils.SendSuccess(c, h.correlator.All())
		return
	}
	utils.SendSuccess(c, h.correlator.Open())
}

// GetIncident returns a single incident by id.
func (h *Handlers) GetIncident(c *gin.Context) {
	incident, ok := h.correlator.Get(c.Param("id"))
	if !ok {
		middleware.HandleError(c, h.logger, apperrors.WithDetails(apperrors.ErrNotFound, "incident "+c.Param("id")))
		return
	}
	utils.SendSuccess(c, incident)
}

// UpdateIncidentStatusRequest moves an incident through its lifecycle.
type UpdateIncidentStatusRequest struct {
	Status string `json:"status" binding:"required"`
	User   string `json:"user"`
}

// UpdateIncidentStatus changes an incident's operational status.
func (h *Handlers) UpdateIncidentStatus(c *gin.Context) {
	var req UpdateIncidentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleError(c, h.logger, apperrors.WithDetails(apperrors.ErrBadRequest, "status is required"))
		return
	}

	status := incidents.Status(req.Status)
	switch status {
	case incidents.StatusOpen, incidents.StatusInvestigating, incidents.StatusResolved, incidents.StatusClosed:
	default:
		middleware.HandleError(c, h.logger, apperrors.WithDetails(apperrors.ErrBadRequest, "unknown status "+req.Status))
		return
	}

	id := c.Param("id")
	if !h.correlator.SetStatus(id, status, req.User) {
		middleware.HandleError(c, h.logger, apperrors.WithDetails(apperrors.ErrConflict, "incident missing or already in that status"))
		return
	}

	incident, _ := h.correlator.Get(id)
	utils.SendSuccess(c, incident)
}
