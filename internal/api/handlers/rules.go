package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/vigil-ops/vigil-backend-go/internal/api/middleware"
	apperrors "github.com/vigil-ops/vigil-backend-go/pkg/errors"
	"github.com/vigil-ops/vigil-backend-go/pkg/utils"
)

// GetRules returns every registered alert rule.
func (h *Handlers) GetRules(c *gin.Context) {
	utils.SendSuccess(c, h.engine.Registry().All())
}

// GetRule returns a single rule by id.
func (h *Handlers) GetRule(c *gin.Context) {
	rule, ok := h.engine.Registry().Get(c.Param("id"))
	if !ok {
		middleware.HandleError(c, h.logger, apperrors.WithDetails(apperrors.ErrNotFound, "rule "+c.Param("id")))
		return
	}
	utils.SendSuccess(c, rule)
}

// SetRuleEnabledRequest toggles a rule.
type SetRuleEnabledRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// SetRuleEnabled enables or disables a rule. Rules are otherwise
// immutable after registration.
func (h *Handlers) SetRuleEnabled(c *gin.Context) {
	var req SetRuleEnabledRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleError(c, h.logger, apperrors.WithDetails(apperrors.ErrBadRequest, "enabled is required"))
		return
	}

	id := c.Param("id")
	if !h.engine.Registry().SetEnabled(id, *req.Enabled) {
		middleware.HandleError(c, h.logger, apperrors.WithDetails(apperrors.ErrNotFound, "rule "+c.Param("id")))
		return
	}

	rule, _ := h.engine.Registry().Get(id)
	utils.SendSuccess(c, rule)
}
