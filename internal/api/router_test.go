package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vigil-ops/vigil-backend-go/internal/config"
	"github.com/vigil-ops/vigil-backend-go/internal/core/alerting"
	"github.com/vigil-ops/vigil-backend-go/internal/core/incidents"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestRouter(t *testing.T) (http.Handler, *alerting.Engine, *incidents.Correlator) {
	t.Helper()

	cfg := &config.Config{}
	cfg.Server.Mode = "production"
	cfg.Monitoring.ServiceName = "vigil"

	logger := testLogger()
	engine := alerting.NewEngine(alerting.EngineConfig{Enabled: true, ServiceName: "vigil"}, logger)
	t.Cleanup(engine.Stop)

	correlator := incidents.NewCorrelator(logger)
	engine.SetCorrelator(correlator)

	require.NoError(t, engine.Registry().Add(alerting.AlertRule{
		ID:       "high-error-rate",
		Name:     "High error rate",
		Category: "availability",
		Severity: alerting.SeverityError,
		Enabled:  true,
		Condition: alerting.Condition{
			Metric:     "error_rate",
			Operator:   alerting.OpGreaterThan,
			Threshold:  5,
			TimeWindow: 5 * time.Minute,
		},
	}))

	return NewRouter(cfg, engine, correlator, logger, nil), engine, correlator
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestRouter_Health(t *testing.T) {
	router, _, _ := newTestRouter(t)

	resp := doJSON(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"status":"healthy"`)
}

func TestRouter_RecordMetric(t *testing.T) {
	router, engine, _ := newTestRouter(t)

	resp := doJSON(t, router, http.MethodPost, "/api/v1/metrics/", map[string]interface{}{
		"name":  "error_rate",
		"value": 3.0,
	})
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, 1, engine.Store().HistoryLength("error_rate"))
	assert.Empty(t, engine.GetActiveAlerts())
}

func TestRouter_RecordMetric_Validation(t *testing.T) {
	router, _, _ := newTestRouter(t)

	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{"missing name", map[string]interface{}{"value": 1.0}},
		{"missing value", map[string]interface{}{"name": "error_rate"}},
		{"empty body", map[string]interface{}{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doJSON(t, router, http.MethodPost, "/api/v1/metrics/", tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.Code)
		})
	}
}

func TestRouter_ZeroValueIsAccepted(t *testing.T) {
	router, engine, _ := newTestRouter(t)

	resp := doJSON(t, router, http.MethodPost, "/api/v1/metrics/", map[string]interface{}{
		"name":  "database_health",
		"value": 0.0,
	})
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, 1, engine.Store().HistoryLength("database_health"))
}

func TestRouter_AlertLifecycle(t *testing.T) {
	router, engine, correlator := newTestRouter(t)

	// Breach the rule through the ingestion endpoint.
	resp := doJSON(t, router, http.MethodPost, "/api/v1/metrics/", map[string]interface{}{
		"name":  "error_rate",
		"value": 9.0,
	})
	require.Equal(t, http.StatusOK, resp.Code)

	active := engine.GetActiveAlerts()
	require.Len(t, active, 1)
	alertID := active[0].ID

	resp = doJSON(t, router, http.MethodGet, "/api/v1/alerts/", nil)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), alertID)

	resp = doJSON(t, router, http.MethodGet, "/api/v1/alerts/"+alertID, nil)
	assert.Equal(t, http.StatusOK, resp.Code)

	// The error-severity alert opened an incident.
	assert.Equal(t, 1, correlator.OpenIncidentCount())

	resp = doJSON(t, router, http.MethodPost, "/api/v1/alerts/"+alertID+"/resolve", map[string]interface{}{
		"resolved_by": "ops",
	})
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = doJSON(t, router, http.MethodPost, "/api/v1/alerts/"+alertID+"/resolve", nil)
	assert.Equal(t, http.StatusConflict, resp.Code)
}

func TestRouter_GetAlert_NotFound(t *testing.T) {
	router, _, _ := newTestRouter(t)

	resp := doJSON(t, router, http.MethodGet, "/api/v1/alerts/missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestRouter_IncidentStatus(t *testing.T) {
	router, _, correlator := newTestRouter(t)

	correlator.Correlate(alerting.Alert{
		ID:        "a1",
		Title:     "Alert",
		Severity:  alerting.SeverityError,
		Category:  "availability",
		Timestamp: time.Now(),
	})
	id := correlator.Open()[0].ID

	resp := doJSON(t, router, http.MethodPut, "/api/v1/incidents/"+id+"/status", map[string]interface{}{
		"status": "investigating",
		"user":   "ops",
	})
	assert.Equal(t, http.StatusOK, resp.Code)

	incident, ok := correlator.Get(id)
	require.True(t, ok)
	assert.Equal(t, incidents.StatusInvestigating, incident.Status)

	resp = doJSON(t, router, http.MethodPut, "/api/v1/incidents/"+id+"/status", map[string]interface{}{
		"status": "on-fire",
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestRouter_Rules(t *testing.T) {
	router, engine, _ := newTestRouter(t)

	resp := doJSON(t, router, http.MethodGet, "/api/v1/rules/", nil)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "high-error-rate")

	resp = doJSON(t, router, http.MethodPut, "/api/v1/rules/high-error-rate/enabled", map[string]interface{}{
		"enabled": false,
	})
	assert.Equal(t, http.StatusOK, resp.Code)

	rule, ok := engine.Registry().Get("high-error-rate")
	require.True(t, ok)
	assert.False(t, rule.Enabled)

	resp = doJSON(t, router, http.MethodPut, "/api/v1/rules/missing/enabled", map[string]interface{}{
		"enabled": true,
	})
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestRouter_MetricHistory(t *testing.T) {
	router, engine, _ := newTestRouter(t)

	now := time.Now()
	for i := 0; i < 3; i++ {
		engine.RecordMetricAt("cpu_usage", float64(50+i), now.Add(time.Duration(i)*time.Second))
	}

	resp := doJSON(t, router, http.MethodGet, "/api/v1/metrics/cpu_usage/history?window=10m", nil)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"count":3`)

	resp = doJSON(t, router, http.MethodGet, "/api/v1/metrics/cpu_usage/history?window=banana", nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestRouter_Stats(t *testing.T) {
	router, engine, _ := newTestRouter(t)

	engine.RecordMetric("error_rate", 9)

	resp := doJSON(t, router, http.MethodGet, "/api/v1/stats", nil)
	assert.Equal(t, http.StatusOK, resp.Code)

	var envelope struct {
		Data alerting.Statistics `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, 1, envelope.Data.TotalAlerts)
	assert.Equal(t, 1, envelope.Data.ActiveAlerts)
	assert.Equal(t, 1, envelope.Data.OpenIncidents)
}

func TestRouter_RateLimiterAllowsNormalTraffic(t *testing.T) {
	router, _, _ := newTestRouter(t)

	for i := 0; i < 20; i++ {
		resp := doJSON(t, router, http.MethodGet, fmt.Sprintf("/health?i=%d", i), nil)
		assert.Equal(t, http.StatusOK, resp.Code)
	}
}
