package alerting

import (
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// fakeDispatcher records dispatched alerts.
type fakeDispatcher struct {
	mu         sync.Mutex
	dispatched []Alert
	escalated  []Alert
}

func (f *fakeDispatcher) Dispatch(alert Alert, channels []NotificationChannel) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dispatched = append(f.dispatched, alert)
}

func (f *fakeDispatcher) DispatchEscalation(alert Alert) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.escalated = append(f.escalated, alert)
}

func (f *fakeDispatcher) dispatchedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.dispatched)
}

func (f *fakeDispatcher) escalatedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.escalated)
}

// fakeCorrelator records correlated alerts.
type fakeCorrelator struct {
	mu         sync.Mutex
	correlated []Alert
}

func (f *fakeCorrelator) Correlate(alert Alert) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.correlated = append(f.correlated, alert)
}

func (f *fakeCorrelator) OpenIncidentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.correlated)
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	engine := NewEngine(EngineConfig{Enabled: true}, testLogger())
	t.Cleanup(engine.Stop)
	return engine
}

func errorRateRule(cooldown time.Duration, consecutive int) AlertRule {
	return AlertRule{
		ID:       "high-error-rate",
		Name:     "High error rate",
		Category: "availability",
		Severity: SeverityError,
		Enabled:  true,
		Condition: Condition{
			Metric:              "error_rate",
			Operator:            OpGreaterThan,
			Threshold:           5,
			TimeWindow:          5 * time.Minute,
			ConsecutiveFailures: consecutive,
		},
		CooldownPeriod: cooldown,
	}
}

func TestEngine_FiresOnBreach(t *testing.T) {
	engine := newTestEngine(t)
	require.NoError(t, engine.Registry().Add(errorRateRule(10*time.Minute, 0)))

	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	engine.RecordMetricAt("error_rate", 3, t0)
	assert.Empty(t, engine.GetActiveAlerts())

	engine.RecordMetricAt("error_rate", 8, t0.Add(time.Minute))
	active := engine.GetActiveAlerts()
	require.Len(t, active, 1)

	alert := active[0]
	assert.Equal(t, "high-error-rate", alert.RuleID)
	assert.Equal(t, "High error rate", alert.Title)
	assert.Equal(t, SeverityError, alert.Severity)
	assert.Equal(t, "availability", alert.Category)
	assert.Equal(t, "vigil", alert.Source)
	assert.Equal(t, "error_rate", alert.Metadata["metric"])
	assert.Equal(t, 8.0, alert.Metadata["value"])
	assert.Equal(t, 5.0, alert.Metadata["threshold"])
}

func TestEngine_CooldownSuppressesRefire(t *testing.T) {
	engine := newTestEngine(t)
	require.NoError(t, engine.Registry().Add(errorRateRule(10*time.Minute, 0)))

	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	engine.RecordMetricAt("error_rate", 8, t0)
	require.Len(t, engine.GetActiveAlerts(), 1)

	// Still breaching inside the cooldown.
	engine.RecordMetricAt("error_rate", 9, t0.Add(5*time.Minute))
	assert.Len(t, engine.GetActiveAlerts(), 1)

	// Cooldown elapsed, breach fires again.
	engine.RecordMetricAt("error_rate", 9, t0.Add(10*time.Minute))
	assert.Len(t, engine.GetActiveAlerts(), 2)
}

func TestEngine_ConsecutiveFailuresEndToEnd(t *testing.T) {
	engine := newTestEngine(t)
	require.NoError(t, engine.Registry().Add(errorRateRule(10*time.Minute, 2)))

	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	engine.RecordMetricAt("error_rate", 8, t0)
	assert.Empty(t, engine.GetActiveAlerts(), "single breach does not fire")

	engine.RecordMetricAt("error_rate", 2, t0.Add(time.Minute))
	engine.RecordMetricAt("error_rate", 9, t0.Add(2*time.Minute))
	assert.Empty(t, engine.GetActiveAlerts(), "recovery resets the streak")

	engine.RecordMetricAt("error_rate", 9, t0.Add(3*time.Minute))
	assert.Len(t, engine.GetActiveAlerts(), 1, "second straight breach fires")
}

func TestEngine_DisabledRecordsSamplesOnly(t *testing.T) {
	engine := NewEngine(EngineConfig{Enabled: false}, testLogger())
	defer engine.Stop()
	require.NoError(t, engine.Registry().Add(errorRateRule(0, 0)))

	engine.RecordMetric("error_rate", 99)

	assert.Empty(t, engine.GetActiveAlerts())
	assert.Equal(t, 1, engine.Store().HistoryLength("error_rate"))
}

func TestEngine_DisabledRuleSkipped(t *testing.T) {
	engine := newTestEngine(t)
	rule := errorRateRule(0, 0)
	rule.Enabled = false
	require.NoError(t, engine.Registry().Add(rule))

	engine.RecordMetric("error_rate", 99)
	assert.Empty(t, engine.GetActiveAlerts())
}

func TestEngine_ResolveAlert(t *testing.T) {
	engine := newTestEngine(t)
	require.NoError(t, engine.Registry().Add(errorRateRule(0, 0)))

	engine.RecordMetricAt("error_rate", 8, time.Now())
	active := engine.GetActiveAlerts()
	require.Len(t, active, 1)
	id := active[0].ID

	assert.True(t, engine.ResolveAlert(id, ""))
	resolved, ok := engine.GetAlert(id)
	require.True(t, ok)
	assert.True(t, resolved.Resolved)
	assert.Equal(t, "system", resolved.ResolvedBy, "empty resolver defaults to system")

	assert.False(t, engine.ResolveAlert(id, "ops"), "resolve is idempotent")
	assert.False(t, engine.ResolveAlert("missing", "ops"))
}

func TestEngine_SweepStaleAlerts(t *testing.T) {
	engine := newTestEngine(t)
	require.NoError(t, engine.Registry().Add(errorRateRule(0, 0)))

	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	engine.RecordMetricAt("error_rate", 8, t0)
	engine.RecordMetricAt("error_rate", 9, t0.Add(2*time.Hour))
	require.Len(t, engine.GetActiveAlerts(), 2)

	// Only the first alert is older than the 24h threshold.
	swept := engine.SweepStaleAlerts(t0.Add(25 * time.Hour))
	assert.Equal(t, 1, swept)

	active := engine.GetActiveAlerts()
	require.Len(t, active, 1)

	for _, alert := range engine.GetAllAlerts() {
		if alert.Resolved {
			assert.Equal(t, SystemAutoResolve, alert.ResolvedBy)
		}
	}

	assert.Zero(t, engine.SweepStaleAlerts(t0.Add(25*time.Hour)), "second sweep finds nothing")
}

func TestEngine_DispatchesToChannels(t *testing.T) {
	engine := newTestEngine(t)
	dispatcher := &fakeDispatcher{}
	engine.SetDispatcher(dispatcher)

	rule := errorRateRule(0, 0)
	rule.Channels = []NotificationChannel{{Type: ChannelSlack, Enabled: true}}
	require.NoError(t, engine.Registry().Add(rule))

	engine.RecordMetric("error_rate", 8)

	require.Eventually(t, func() bool {
		return dispatcher.dispatchedCount() == 1
	}, time.Second, 5*time.Millisecond)
}

func TestEngine_NoDispatchWithoutChannels(t *testing.T) {
	engine := newTestEngine(t)
	dispatcher := &fakeDispatcher{}
	engine.SetDispatcher(dispatcher)
	require.NoError(t, engine.Registry().Add(errorRateRule(0, 0)))

	engine.RecordMetric("error_rate", 8)

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, dispatcher.dispatchedCount())
}

func TestEngine_CorrelatesBySeverity(t *testing.T) {
	tests := []struct {
		name       string
		severity   Severity
		correlated bool
	}{
		{"info is not correlated", SeverityInfo, false},
		{"warning is not correlated", SeverityWarning, false},
		{"error is correlated", SeverityError, true},
		{"critical is correlated", SeverityCritical, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newTestEngine(t)
			correlator := &fakeCorrelator{}
			engine.SetCorrelator(correlator)

			rule := errorRateRule(0, 0)
			rule.Severity = tt.severity
			require.NoError(t, engine.Registry().Add(rule))

			engine.RecordMetric("error_rate", 8)

			require.Len(t, engine.GetActiveAlerts(), 1)
			if tt.correlated {
				assert.Equal(t, 1, correlator.OpenIncidentCount())
			} else {
				assert.Zero(t, correlator.OpenIncidentCount())
			}
		})
	}
}

func TestEngine_EscalationLifecycle(t *testing.T) {
	engine := newTestEngine(t)
	dispatcher := &fakeDispatcher{}
	engine.SetDispatcher(dispatcher)

	rule := errorRateRule(0, 0)
	rule.EscalationDelay = 20 * time.Millisecond
	require.NoError(t, engine.Registry().Add(rule))

	engine.RecordMetric("error_rate", 8)
	active := engine.GetActiveAlerts()
	require.Len(t, active, 1)

	require.Eventually(t, func() bool {
		return dispatcher.escalatedCount() == 1
	}, time.Second, 5*time.Millisecond)

	escalated, _ := engine.GetAlert(active[0].ID)
	assert.True(t, escalated.Escalated)
}

func TestEngine_ResolveCancelsEscalation(t *testing.T) {
	engine := newTestEngine(t)
	dispatcher := &fakeDispatcher{}
	engine.SetDispatcher(dispatcher)

	rule := errorRateRule(0, 0)
	rule.EscalationDelay = 50 * time.Millisecond
	require.NoError(t, engine.Registry().Add(rule))

	engine.RecordMetric("error_rate", 8)
	active := engine.GetActiveAlerts()
	require.Len(t, active, 1)
	require.True(t, engine.ResolveAlert(active[0].ID, "ops"))

	time.Sleep(120 * time.Millisecond)
	assert.Zero(t, dispatcher.escalatedCount())

	alert, _ := engine.GetAlert(active[0].ID)
	assert.False(t, alert.Escalated)
}

func TestEngine_CategoricalRuleMetadata(t *testing.T) {
	engine := newTestEngine(t)
	require.NoError(t, engine.Registry().Add(AlertRule{
		ID:       "bad-status",
		Name:     "Server error status",
		Category: "availability",
		Severity: SeverityWarning,
		Enabled:  true,
		Condition: Condition{
			Metric:     "status_code",
			Operator:   OpContains,
			Pattern:    "50",
			TimeWindow: time.Minute,
		},
	}))

	engine.RecordMetric("status_code", 503)

	active := engine.GetActiveAlerts()
	require.Len(t, active, 1)
	assert.Equal(t, "50", active[0].Metadata["pattern"])
	assert.NotContains(t, active[0].Metadata, "threshold")
}

func TestEngine_Statistics(t *testing.T) {
	engine := newTestEngine(t)
	correlator := &fakeCorrelator{}
	engine.SetCorrelator(correlator)

	rule := errorRateRule(0, 0)
	rule.Severity = SeverityCritical
	require.NoError(t, engine.Registry().Add(rule))

	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	engine.RecordMetricAt("error_rate", 8, t0)
	engine.RecordMetricAt("error_rate", 9, t0.Add(time.Minute))

	active := engine.GetActiveAlerts()
	require.Len(t, active, 2)
	require.True(t, engine.ResolveAlert(active[0].ID, "ops"))

	stats := engine.GetStatistics()
	assert.Equal(t, 2, stats.TotalAlerts)
	assert.Equal(t, 1, stats.ActiveAlerts)
	assert.Equal(t, 1, stats.ResolvedAlerts)
	assert.Equal(t, 2, stats.CriticalAlerts)
	assert.Equal(t, 2, stats.OpenIncidents)
}

func TestEngine_AlertCallbacks(t *testing.T) {
	engine := newTestEngine(t)
	require.NoError(t, engine.Registry().Add(errorRateRule(0, 0)))

	var mu sync.Mutex
	var created, resolved []Alert
	engine.OnAlertCreated(func(alert Alert) {
		mu.Lock()
		defer mu.Unlock()
		created = append(created, alert)
	})
	engine.OnAlertResolved(func(alert Alert) {
		mu.Lock()
		defer mu.Unlock()
		resolved = append(resolved, alert)
	})

	engine.RecordMetric("error_rate", 8)
	active := engine.GetActiveAlerts()
	require.Len(t, active, 1)
	require.True(t, engine.ResolveAlert(active[0].ID, "ops"))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(created) == 1 && len(resolved) == 1
	}, time.Second, 5*time.Millisecond)
}
