package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vigil-ops/vigil-backend-go/internal/api/middleware"
	apperrors "github.com/vigil-ops/vigil-backend-go/pkg/errors"
	"github.com/vigil-ops/vigil-backend-go/pkg/utils"
)

// RecordMetricRequest is the ingestion payload
type RecordMetricRequest struct {
	Name  string   `json:"name" binding:"required"`
	Value *float64 `json:"value" binding:"required"`
}

// RecordMetric ingests one metric sample and runs rule evaluation.
func (h *Handlers) RecordMetric(c *gin.Context) {
	var req RecordMetricRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleError(c, h.logger, apperrors.WithDetails(apperrors.ErrBadRequest, "name and value are required"))
		return
	}

	h.engine.RecordMetric(req.Name, *req.Value)

	utils.SendSuccess(c, gin.H{
		"metric":   req.Name,
		"recorded": true,
	})
}

// GetMetricNames lists metrics with recorded history.
func (h *Handlers) GetMetricNames(c *gin.Context) {
	utils.SendSuccess(c, h.engine.Store().MetricNames())
}

// GetMetricHistory returns a metric's recent samples. The optional
// "window" query parameter bounds how far back to look (default 1h).
func (h *Handlers) GetMetricHistory(c *gin.Context) {
	name := c.Param("name")

	window := time.Hour
	if raw := c.Query("window"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 {
			middleware.HandleError(c, h.logger, apperrors.WithDetails(apperrors.ErrBadRequest, "invalid window duration"))
			return
		}
		window = parsed
	}

	samples := h.engine.Store().SamplesInWindow(name, time.Now().Add(-window))
	utils.SendSuccessWithMeta(c, samples, gin.H{"count": len(samples)})
}
