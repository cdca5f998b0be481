package handlers

import (
	"github.com/sirupsen/logrus"
	"github.com/vigil-ops/vigil-backend-go/internal/config"
	"github.com/vigil-ops/vigil-backend-go/internal/core/alerting"
	"github.com/vigil-ops/vigil-backend-go/internal/core/incidents"
	"github.com/vigil-ops/vigil-backend-go/internal/websocket"
)

// Handlers contains all HTTP handlers and their dependencies
type Handlers struct {
	cfg        *config.Config
	engine     *alerting.Engine
	correlator *incidents.Correlator
	hub        *websocket.Hub
	logger     *logrus.Logger
}

// NewHandlers creates a new handlers instance
func NewHandlers(cfg *config.Config, engine *alerting.Engine, correlator *incidents.Correlator, hub *websocket.Hub, logger *logrus.Logger) *Handlers {
	return &Handlers{
		cfg:        cfg,
		engine:     engine,
		correlator: correlator,
		hub:        hub,
		logger:     logger,
	}
}
