package alerting

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vigil-ops/vigil-backend-go/internal/core/metrics"
)

// SystemAutoResolve is the resolver recorded when the stale sweep
// closes an alert.
const SystemAutoResolve = "system_auto_resolve"

// EngineConfig contains rule engine configuration
type EngineConfig struct {
	Enabled        bool
	ServiceName    string
	MaxHistorySize int
	StaleThreshold time.Duration
}

// Engine orchestrates the alerting pipeline: on each recorded sample it
// evaluates every enabled rule watching that metric, gated by the
// rule's cooldown, and on a pass fires an alert with its side effects
// (notification fan-out, incident correlation, escalation arming).
type Engine struct {
	config      EngineConfig
	logger      *logrus.Logger
	store       *metrics.Store
	registry    *Registry
	evaluator   *Evaluator
	cooldowns   *CooldownTracker
	alerts      *AlertStore
	escalations *EscalationScheduler
	dispatcher  Dispatcher
	correlator  Correlator
	collector   *metrics.Collector

	// Ingestion of the same metric is serialized; different metrics
	// proceed independently.
	metricLocks sync.Map

	onAlertCreated   []func(Alert)
	onAlertResolved  []func(Alert)
	onAlertEscalated []func(Alert)
	cbMu             sync.RWMutex
}

// NewEngine creates an engine owning its own stores. Collaborators are
// attached with SetDispatcher, SetCorrelator, and SetCollector before
// the first sample is recorded.
func NewEngine(config EngineConfig, logger *logrus.Logger) *Engine {
	if config.StaleThreshold <= 0 {
		config.StaleThreshold = 24 * time.Hour
	}
	if config.ServiceName == "" {
		config.ServiceName = "vigil"
	}

	e := &Engine{
		config:    config,
		logger:    logger,
		store:     metrics.NewStore(config.MaxHistorySize),
		registry:  NewRegistry(),
		cooldowns: NewCooldownTracker(),
		alerts:    NewAlertStore(),
	}
	e.evaluator = NewEvaluator(e.store)
	e.escalations = NewEscalationScheduler(e.alerts, logger, e.handleEscalated)
	return e
}

// SetDispatcher attaches the notification dispatcher.
func (e *Engine) SetDispatcher(d Dispatcher) {
	e.dispatcher = d
}

// SetCorrelator attaches the incident correlator.
func (e *Engine) SetCorrelator(c Correlator) {
	e.correlator = c
}

// SetCollector attaches the Prometheus self-metrics collector.
func (e *Engine) SetCollector(c *metrics.Collector) {
	e.collector = c
}

// Registry exposes the rule registry for loading and queries.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Store exposes the metric store for read-only queries.
func (e *Engine) Store() *metrics.Store {
	return e.store
}

// Stop cancels pending escalation timers.
func (e *Engine) Stop() {
	e.escalations.Stop()
}

// OnAlertCreated registers a callback invoked after an alert fires.
func (e *Engine) OnAlertCreated(callback func(Alert)) {
	e.cbMu.Lock()
	defer e.cbMu.Unlock()
	e.onAlertCreated = append(e.onAlertCreated, callback)
}

// OnAlertResolved registers a callback invoked after an alert resolves.
func (e *Engine) OnAlertResolved(callback func(Alert)) {
	e.cbMu.Lock()
	defer e.cbMu.Unlock()
	e.onAlertResolved = append(e.onAlertResolved, callback)
}

// OnAlertEscalated registers a callback invoked after an alert escalates.
func (e *Engine) OnAlertEscalated(callback func(Alert)) {
	e.cbMu.Lock()
	defer e.cbMu.Unlock()
	e.onAlertEscalated = append(e.onAlertEscalated, callback)
}

// RecordMetric is the sole ingestion entry point. It never fails and
// never panics out to the caller.
func (e *Engine) RecordMetric(name string, value float64) {
	e.RecordMetricAt(name, value, time.Now())
}

// RecordMetricAt records a sample at an explicit instant and evaluates
// the rules watching the metric. Timestamps per metric are expected to
// be monotonically non-decreasing.
func (e *Engine) RecordMetricAt(name string, value float64, timestamp time.Time) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.WithFields(logrus.Fields{
				"metric": name,
				"panic":  r,
			}).Error("Recovered panic during metric ingestion")
		}
	}()

	lock := e.metricLock(name)
	lock.Lock()
	defer lock.Unlock()

	e.store.RecordSample(name, value, timestamp)
	if e.collector != nil {
		e.collector.SampleRecorded(name)
	}

	if !e.config.Enabled {
		return
	}

	for _, rule := range e.registry.EnabledForMetric(name) {
		e.evaluateRule(rule, value, timestamp)
	}
}

// evaluateRule runs one rule against the just-recorded sample. Rules
// fail independently: an evaluation error skips this rule only.
func (e *Engine) evaluateRule(rule AlertRule, value float64, timestamp time.Time) {
	if e.collector != nil {
		e.collector.RuleEvaluated()
	}

	if !e.cooldowns.Allow(rule.ID, timestamp, rule.CooldownPeriod) {
		e.logger.WithFields(logrus.Fields{
			"rule_id": rule.ID,
			"metric":  rule.Condition.Metric,
		}).Debug("Rule suppressed by cooldown")
		return
	}

	pass, err := e.evaluator.Evaluate(rule.Condition, value, timestamp)
	if err != nil {
		if e.collector != nil {
			e.collector.EvaluationError(rule.ID)
		}
		e.logger.WithError(err).WithField("rule_id", rule.ID).Error("Failed to evaluate rule")
		return
	}
	if !pass {
		return
	}

	e.fire(rule, value, timestamp)
}

func (e *Engine) fire(rule AlertRule, value float64, timestamp time.Time) {
	alert := Alert{
		ID:          fmt.Sprintf("%s-%d", rule.ID, timestamp.UnixNano()),
		RuleID:      rule.ID,
		Title:       rule.Name,
		Description: describeFire(rule.Condition, value),
		Severity:    rule.Severity,
		Category:    rule.Category,
		Source:      e.config.ServiceName,
		Timestamp:   timestamp,
		Metadata: map[string]interface{}{
			"metric":   rule.Condition.Metric,
			"value":    value,
			"operator": string(rule.Condition.Operator),
		},
	}
	if rule.Condition.Operator.Categorical() {
		alert.Metadata["pattern"] = rule.Condition.Pattern
	} else {
		alert.Metadata["threshold"] = rule.Condition.Threshold
	}

	e.alerts.Add(alert)
	e.cooldowns.MarkFired(rule.ID, timestamp)

	e.logger.WithFields(logrus.Fields{
		"alert_id": alert.ID,
		"rule_id":  rule.ID,
		"severity": alert.Severity,
		"metric":   rule.Condition.Metric,
		"value":    value,
	}).Warn("Alert fired")

	if e.collector != nil {
		e.collector.AlertFired(rule.ID, string(alert.Severity))
		e.updateGauges()
	}

	if e.dispatcher != nil && len(rule.Channels) > 0 {
		go e.dispatcher.Dispatch(alert, rule.Channels)
	}

	if e.correlator != nil && alert.Severity.Rank() >= SeverityError.Rank() {
		e.correlator.Correlate(alert)
		if e.collector != nil {
			e.collector.SetOpenIncidents(e.correlator.OpenIncidentCount())
		}
	}

	if rule.EscalationDelay > 0 {
		e.escalations.Arm(alert.ID, rule.EscalationDelay)
	}

	e.cbMu.RLock()
	callbacks := e.onAlertCreated
	e.cbMu.RUnlock()
	for _, callback := range callbacks {
		go callback(alert)
	}
}

// ResolveAlert resolves an alert. It returns false, changing nothing,
// when the alert is missing or already resolved. Incidents the alert
// belongs to are untouched.
func (e *Engine) ResolveAlert(id, resolvedBy string) bool {
	if resolvedBy == "" {
		resolvedBy = "system"
	}

	alert, ok := e.alerts.Resolve(id, resolvedBy, time.Now())
	if !ok {
		return false
	}

	e.escalations.Cancel(id)

	e.logger.WithFields(logrus.Fields{
		"alert_id":    alert.ID,
		"resolved_by": resolvedBy,
	}).Info("Alert resolved")

	if e.collector != nil {
		e.collector.AlertResolved(resolvedBy)
		e.updateGauges()
	}

	e.cbMu.RLock()
	callbacks := e.onAlertResolved
	e.cbMu.RUnlock()
	for _, callback := range callbacks {
		go callback(alert)
	}
	return true
}

// SweepStaleAlerts auto-resolves unresolved alerts older than the
// stale threshold. It returns how many alerts were closed.
func (e *Engine) SweepStaleAlerts(now time.Time) int {
	swept := 0
	for _, alert := range e.alerts.Active() {
		if now.Sub(alert.Timestamp) > e.config.StaleThreshold {
			if e.resolveAs(alert.ID, SystemAutoResolve) {
				swept++
			}
		}
	}
	if swept > 0 {
		e.logger.WithField("count", swept).Info("Auto-resolved stale alerts")
	}
	return swept
}

func (e *Engine) resolveAs(id, resolvedBy string) bool {
	return e.ResolveAlert(id, resolvedBy)
}

// GetAlert returns the alert with the given id.
func (e *Engine) GetAlert(id string) (Alert, bool) {
	return e.alerts.Get(id)
}

// GetActiveAlerts returns all unresolved alerts.
func (e *Engine) GetActiveAlerts() []Alert {
	return e.alerts.Active()
}

// GetAllAlerts returns every alert the engine holds.
func (e *Engine) GetAllAlerts() []Alert {
	return e.alerts.All()
}

// GetStatistics returns aggregate counters for the query surface.
func (e *Engine) GetStatistics() Statistics {
	total, active, resolved, critical := e.alerts.Stats()
	stats := Statistics{
		TotalAlerts:    total,
		ActiveAlerts:   active,
		ResolvedAlerts: resolved,
		CriticalAlerts: critical,
	}
	if e.correlator != nil {
		stats.OpenIncidents = e.correlator.OpenIncidentCount()
	}
	return stats
}

func (e *Engine) handleEscalated(alert Alert) {
	if e.collector != nil {
		e.collector.AlertEscalated()
	}

	if e.dispatcher != nil {
		go e.dispatcher.DispatchEscalation(alert)
	}

	e.cbMu.RLock()
	callbacks := e.onAlertEscalated
	e.cbMu.RUnlock()
	for _, callback := range callbacks {
		go callback(alert)
	}
}

func (e *Engine) updateGauges() {
	_, active, _, _ := e.alerts.Stats()
	e.collector.SetActiveAlerts(active)
}

func (e *Engine) metricLock(name string) *sync.Mutex {
	lock, _ := e.metricLocks.LoadOrStore(name, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

func describeFire(cond Condition, value float64) string {
	if cond.Operator.Categorical() {
		return fmt.Sprintf("%s %s %q (value %s)", cond.Metric, cond.Operator, cond.Pattern, formatValue(value))
	}
	return fmt.Sprintf("%s %s %s (value %s)", cond.Metric, cond.Operator, formatValue(cond.Threshold), formatValue(value))
}
