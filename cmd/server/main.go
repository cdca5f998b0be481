package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/vigil-ops/vigil-backend-go/internal/api"
	"github.com/vigil-ops/vigil-backend-go/internal/config"
	"github.com/vigil-ops/vigil-backend-go/internal/core/alerting"
	"github.com/vigil-ops/vigil-backend-go/internal/core/incidents"
	"github.com/vigil-ops/vigil-backend-go/internal/core/metrics"
	"github.com/vigil-ops/vigil-backend-go/internal/core/monitor"
	"github.com/vigil-ops/vigil-backend-go/internal/core/notify"
	"github.com/vigil-ops/vigil-backend-go/internal/websocket"
	"github.com/vigil-ops/vigil-backend-go/pkg/logger"
)

func main() {
	// Initialize logger
	log := logger.New()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}

	if level, err := logrus.ParseLevel(cfg.Logging.Level); err == nil {
		log.SetLevel(level)
	}

	// Self-metrics collector
	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		collector = metrics.NewCollector(cfg.Metrics.Prefix)
	}

	// Build the alert engine and its collaborators
	engine := alerting.NewEngine(alerting.EngineConfig{
		Enabled:        cfg.Monitoring.Enabled,
		ServiceName:    cfg.Monitoring.ServiceName,
		MaxHistorySize: cfg.Monitoring.MaxHistorySize,
		StaleThreshold: cfg.Monitoring.StaleThreshold,
	}, log)

	if cfg.Monitoring.RulesPath != "" {
		if err := engine.Registry().LoadFromFile(cfg.Monitoring.RulesPath); err != nil {
			log.Fatal("Failed to load alert rules: ", err)
		}
		log.WithField("rules", len(engine.Registry().All())).Info("Alert rules loaded")
	}

	correlator := incidents.NewCorrelator(log)

	dispatcher := notify.NewDispatcher(notify.Options{
		Timeout:     cfg.Notifications.Timeout,
		ServiceName: cfg.Monitoring.ServiceName,
		SMTP: notify.SMTPOptions{
			Host:     cfg.Notifications.SMTP.Host,
			Port:     cfg.Notifications.SMTP.Port,
			Username: cfg.Notifications.SMTP.Username,
			Password: cfg.Notifications.SMTP.Password,
			From:     cfg.Notifications.SMTP.From,
		},
		EscalationChannel: alerting.NotificationChannel{
			Type:    alerting.ChannelType(cfg.Notifications.EscalationChannel.Type),
			Enabled: true,
			Config:  map[string]string{"webhook_url": cfg.Notifications.EscalationChannel.URL, "url": cfg.Notifications.EscalationChannel.URL},
		},
	}, log, collector)

	engine.SetDispatcher(dispatcher)
	engine.SetCorrelator(correlator)
	engine.SetCollector(collector)

	// Create WebSocket hub and bridge engine events onto it
	wsHub := websocket.NewHub(log)
	go wsHub.Run()

	engine.OnAlertCreated(func(alert alerting.Alert) {
		wsHub.BroadcastEvent(websocket.MessageTypeAlertCreated, alert)
	})
	engine.OnAlertResolved(func(alert alerting.Alert) {
		wsHub.BroadcastEvent(websocket.MessageTypeAlertResolved, alert)
	})
	engine.OnAlertEscalated(func(alert alerting.Alert) {
		wsHub.BroadcastEvent(websocket.MessageTypeAlertEscalated, alert)
	})
	correlator.OnIncidentCreated(func(incident incidents.Incident) {
		wsHub.BroadcastEvent(websocket.MessageTypeIncidentCreated, incident)
	})
	correlator.OnIncidentUpdated(func(incident incidents.Incident) {
		wsHub.BroadcastEvent(websocket.MessageTypeIncidentUpdated, incident)
	})

	// Periodic background tasks
	scheduler := cron.New()

	if _, err := scheduler.AddFunc(every(cfg.Monitoring.SweepInterval), func() {
		engine.SweepStaleAlerts(time.Now())
	}); err != nil {
		log.Fatal("Failed to schedule stale sweep: ", err)
	}

	if cfg.HealthCheck.Enabled && cfg.HealthCheck.URL != "" {
		probe := monitor.NewHealthProbe(cfg.HealthCheck.URL, cfg.HealthCheck.Timeout, engine, log)
		if _, err := scheduler.AddFunc(every(cfg.HealthCheck.Interval), func() {
			probe.Check(context.Background())
		}); err != nil {
			log.Fatal("Failed to schedule health probe: ", err)
		}
	}

	if cfg.Resources.Enabled {
		resources := monitor.NewResourceCollector(engine, log)
		if _, err := scheduler.AddFunc(every(cfg.Resources.Interval), func() {
			resources.Collect(context.Background())
		}); err != nil {
			log.Fatal("Failed to schedule resource collector: ", err)
		}
	}

	scheduler.Start()

	// Initialize router
	router := api.NewRouter(cfg, engine, correlator, log, wsHub)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverLog := logger.WithComponent(log, "server")

	// Start server
	go func() {
		serverLog.Infof("Starting Vigil backend on port %d", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverLog.Fatal("Failed to start server: ", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	serverLog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	<-scheduler.Stop().Done()
	engine.Stop()

	if err := srv.Shutdown(ctx); err != nil {
		serverLog.Fatal("Server forced to shutdown: ", err)
	}

	serverLog.Info("Server exited")
}

// every renders a duration as a cron "@every" spec.
func every(interval time.Duration) string {
	return "@every " + interval.String()
}
