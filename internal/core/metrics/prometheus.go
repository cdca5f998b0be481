package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector exposes the engine's own operational metrics to Prometheus.
type Collector struct {
	samplesRecorded    *prometheus.CounterVec
	rulesEvaluated     prometheus.Counter
	evaluationErrors   *prometheus.CounterVec
	alertsFired        *prometheus.CounterVec
	alertsResolved     *prometheus.CounterVec
	alertsEscalated    prometheus.Counter
	notificationsTotal *prometheus.CounterVec
	activeAlerts       prometheus.Gauge
	openIncidents      prometheus.Gauge
}

// NewCollector registers the engine metrics under the given prefix.
func NewCollector(prefix string) *Collector {
	if prefix == "" {
		prefix = "vigil"
	}

	return &Collector{
		samplesRecorded: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "_samples_recorded_total",
			Help: "Metric samples ingested, by metric name",
		}, []string{"metric"}),
		rulesEvaluated: promauto.NewCounter(prometheus.CounterOpts{
			Name: prefix + "_rules_evaluated_total",
			Help: "Alert rule evaluations performed",
		}),
		evaluationErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "_evaluation_errors_total",
			Help: "Rule evaluations that failed, by rule",
		}, []string{"rule"}),
		alertsFired: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "_alerts_fired_total",
			Help: "Alerts fired, by rule and severity",
		}, []string{"rule", "severity"}),
		alertsResolved: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "_alerts_resolved_total",
			Help: "Alerts resolved, by resolver",
		}, []string{"resolved_by"}),
		alertsEscalated: promauto.NewCounter(prometheus.CounterOpts{
			Name: prefix + "_alerts_escalated_total",
			Help: "Alerts escalated after going unacknowledged",
		}),
		notificationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "_notifications_total",
			Help: "Notification delivery attempts, by channel and outcome",
		}, []string{"channel", "outcome"}),
		activeAlerts: promauto.NewGauge(prometheus.GaugeOpts{
			Name: prefix + "_active_alerts",
			Help: "Currently unresolved alerts",
		}),
		openIncidents: promauto.NewGauge(prometheus.GaugeOpts{
			Name: prefix + "_open_incidents",
			Help: "Currently open incidents",
		}),
	}
}

func (c *Collector) SampleRecorded(metric string) {
	c.samplesRecorded.WithLabelValues(metric).Inc()
}

func (c *Collector) RuleEvaluated() {
	c.rulesEvaluated.Inc()
}

func (c *Collector) EvaluationError(rule string) {
	c.evaluationErrors.WithLabelValues(rule).Inc()
}

func (c *Collector) AlertFired(rule, severity string) {
	c.alertsFired.WithLabelValues(rule, severity).Inc()
}

func (c *Collector) AlertResolved(resolvedBy string) {
	c.alertsResolved.WithLabelValues(resolvedBy).Inc()
}

func (c *Collector) AlertEscalated() {
	c.alertsEscalated.Inc()
}

func (c *Collector) NotificationSent(channel string, ok bool) {
	outcome := "success"
	if !ok {
		outcome = "failure"
	}
	c.notificationsTotal.WithLabelValues(channel, outcome).Inc()
}

func (c *Collector) SetActiveAlerts(n int) {
	c.activeAlerts.Set(float64(n))
}

func (c *Collector) SetOpenIncidents(n int) {
	c.openIncidents.Set(float64(n))
}
