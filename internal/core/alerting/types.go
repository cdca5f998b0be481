package alerting

import (
	"time"
)

// Severity represents the severity level of an alert
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// Rank returns the severity's position in the total order
// info < warning < error < critical. Unknown severities rank 0.
func (s Severity) Rank() int {
	switch s {
	case SeverityInfo:
		return 1
	case SeverityWarning:
		return 2
	case SeverityError:
		return 3
	case SeverityCritical:
		return 4
	default:
		return 0
	}
}

// Valid reports whether s is a known severity.
func (s Severity) Valid() bool {
	return s.Rank() > 0
}

// Operator is a condition comparison operator
type Operator string

const (
	OpGreaterThan    Operator = "gt"
	OpLessThan       Operator = "lt"
	OpGreaterOrEqual Operator = "gte"
	OpLessOrEqual    Operator = "lte"
	OpEqual          Operator = "eq"
	OpContains       Operator = "contains"
	OpNotContains    Operator = "not_contains"
)

// Categorical reports whether the operator compares the stringified
// sample value against a pattern instead of comparing numbers.
func (o Operator) Categorical() bool {
	return o == OpContains || o == OpNotContains
}

// Valid reports whether o is a known operator.
func (o Operator) Valid() bool {
	switch o {
	case OpGreaterThan, OpLessThan, OpGreaterOrEqual, OpLessOrEqual, OpEqual, OpContains, OpNotContains:
		return true
	default:
		return false
	}
}

// Condition describes when a rule fires. Numeric operators compare the
// sample value against Threshold; categorical operators compare the
// string form of the value against Pattern. The two families are
// validated disjointly at registry load.
type Condition struct {
	Metric              string        `json:"metric"`
	Operator            Operator      `json:"operator"`
	Threshold           float64       `json:"threshold"`
	Pattern             string        `json:"pattern,omitempty"`
	TimeWindow          time.Duration `json:"time_window"`
	ConsecutiveFailures int           `json:"consecutive_failures,omitempty"`
}

// ChannelType identifies a notification channel implementation
type ChannelType string

const (
	ChannelSlack     ChannelType = "slack"
	ChannelEmail     ChannelType = "email"
	ChannelWebhook   ChannelType = "webhook"
	ChannelPagerDuty ChannelType = "pagerduty"
)

// NotificationChannel is channel configuration carried by a rule.
// It holds no runtime state.
type NotificationChannel struct {
	Type    ChannelType       `json:"type"`
	Enabled bool              `json:"enabled"`
	Config  map[string]string `json:"config,omitempty"`
}

// AlertRule defines a threshold rule evaluated against incoming samples.
// Rules are registered once at startup and only toggled via Enabled.
type AlertRule struct {
	ID              string                `json:"id"`
	Name            string                `json:"name"`
	Category        string                `json:"category"`
	Severity        Severity              `json:"severity"`
	Condition       Condition             `json:"condition"`
	Enabled         bool                  `json:"enabled"`
	CooldownPeriod  time.Duration         `json:"cooldown_period"`
	EscalationDelay time.Duration         `json:"escalation_delay"`
	Channels        []NotificationChannel `json:"channels,omitempty"`
}

// Alert is a fired rule instance. Resolution and escalation are
// independent, idempotent, one-way transitions.
type Alert struct {
	ID          string                 `json:"id"`
	RuleID      string                 `json:"rule_id"`
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	Severity    Severity               `json:"severity"`
	Category    string                 `json:"category"`
	Source      string                 `json:"source"`
	Timestamp   time.Time              `json:"timestamp"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	Resolved    bool                   `json:"resolved"`
	ResolvedAt  *time.Time             `json:"resolved_at,omitempty"`
	ResolvedBy  string                 `json:"resolved_by,omitempty"`
	Escalated   bool                   `json:"escalated"`
	EscalatedAt *time.Time             `json:"escalated_at,omitempty"`
}

// Statistics is the engine's aggregate counters
type Statistics struct {
	TotalAlerts    int `json:"total_alerts"`
	ActiveAlerts   int `json:"active_alerts"`
	ResolvedAlerts int `json:"resolved_alerts"`
	CriticalAlerts int `json:"critical_alerts"`
	OpenIncidents  int `json:"open_incidents"`
}

// Dispatcher fans an alert out to its rule's notification channels.
// Implementations must isolate per-channel failures and never fail as
// a whole.
type Dispatcher interface {
	Dispatch(alert Alert, channels []NotificationChannel)
	DispatchEscalation(alert Alert)
}

// Correlator groups qualifying alerts into incidents.
type Correlator interface {
	Correlate(alert Alert)
	OpenIncidentCount() int
}
