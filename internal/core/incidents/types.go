package incidents

import (
	"time"

	"github.com/vigil-ops/vigil-backend-go/internal/core/alerting"
)

// Status represents an incident's lifecycle state
type Status string

const (
	StatusOpen          Status = "open"
	StatusInvestigating Status = "investigating"
	StatusResolved      Status = "resolved"
	StatusClosed        Status = "closed"
)

// Timeline actions recorded by the correlator.
const (
	ActionIncidentCreated   = "incident_created"
	ActionAlertAdded        = "alert_added"
	ActionSeverityEscalated = "severity_escalated"
	ActionStatusChanged     = "status_changed"
)

// TimelineEntry is one append-only audit record on an incident
type TimelineEntry struct {
	Timestamp   time.Time              `json:"timestamp"`
	Action      string                 `json:"action"`
	Description string                 `json:"description"`
	User        string                 `json:"user,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// Incident groups correlated alerts sharing a category. Alerts and
// timeline are append-only; severity only ever rises to the maximum
// severity seen among the incident's alerts.
type Incident struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Severity    alerting.Severity `json:"severity"`
	Status      Status            `json:"status"`
	Alerts      []alerting.Alert  `json:"alerts"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	ResolvedAt  *time.Time        `json:"resolved_at,omitempty"`
	Timeline    []TimelineEntry   `json:"timeline"`
}

// Category returns the category shared by the incident's alerts.
func (i *Incident) Category() string {
	if len(i.Alerts) == 0 {
		return ""
	}
	return i.Alerts[0].Category
}
