package incidents

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/vigil-ops/vigil-backend-go/internal/core/alerting"
)

// Correlator merges qualifying alerts into open incidents by category.
// At most one incident per category is open at any time: a new alert
// either joins that incident or opens a new one.
type Correlator struct {
	incidents map[string]*Incident
	logger    *logrus.Logger
	mu        sync.RWMutex

	onCreated []func(Incident)
	onUpdated []func(Incident)
	cbMu      sync.RWMutex
}

// NewCorrelator creates an empty correlator.
func NewCorrelator(logger *logrus.Logger) *Correlator {
	return &Correlator{
		incidents: make(map[string]*Incident),
		logger:    logger,
	}
}

// OnIncidentCreated registers a callback invoked when a new incident opens.
func (c *Correlator) OnIncidentCreated(callback func(Incident)) {
	c.cbMu.Lock()
	defer c.cbMu.Unlock()
	c.onCreated = append(c.onCreated, callback)
}

// OnIncidentUpdated registers a callback invoked when an open incident
// absorbs an alert or escalates in severity.
func (c *Correlator) OnIncidentUpdated(callback func(Incident)) {
	c.cbMu.Lock()
	defer c.cbMu.Unlock()
	c.onUpdated = append(c.onUpdated, callback)
}

// Correlate appends the alert to the open incident for its category, or
// opens a new incident when none exists.
func (c *Correlator) Correlate(alert alerting.Alert) {
	c.mu.Lock()

	incident := c.findOpenLocked(alert.Category)
	if incident == nil {
		incident = c.openLocked(alert)
		snapshot := copyIncident(incident)
		c.mu.Unlock()

		c.logger.WithFields(logrus.Fields{
			"incident_id": snapshot.ID,
			"category":    alert.Category,
			"severity":    snapshot.Severity,
		}).Info("Incident opened")

		c.notifyCreated(snapshot)
		return
	}

	now := time.Now()
	incident.Alerts = append(incident.Alerts, alert)
	incident.UpdatedAt = now
	incident.Timeline = append(incident.Timeline, TimelineEntry{
		Timestamp:   now,
		Action:      ActionAlertAdded,
		Description: fmt.Sprintf("Alert %s added to incident", alert.ID),
		Metadata: map[string]interface{}{
			"alert_id": alert.ID,
			"severity": string(alert.Severity),
		},
	})

	if alert.Severity.Rank() > incident.Severity.Rank() {
		previous := incident.Severity
		incident.Severity = alert.Severity
		incident.Timeline = append(incident.Timeline, TimelineEntry{
			Timestamp:   now,
			Action:      ActionSeverityEscalated,
			Description: fmt.Sprintf("Severity escalated from %s to %s", previous, alert.Severity),
			Metadata: map[string]interface{}{
				"previous_severity": string(previous),
				"new_severity":      string(alert.Severity),
			},
		})

		c.logger.WithFields(logrus.Fields{
			"incident_id": incident.ID,
			"from":        previous,
			"to":          alert.Severity,
		}).Warn("Incident severity escalated")
	}

	snapshot := copyIncident(incident)
	c.mu.Unlock()

	c.logger.WithFields(logrus.Fields{
		"incident_id": snapshot.ID,
		"alert_id":    alert.ID,
		"alert_count": len(snapshot.Alerts),
	}).Info("Alert correlated into incident")

	c.notifyUpdated(snapshot)
}

// findOpenLocked returns the open incident containing at least one
// alert of the given category. Caller holds the lock.
func (c *Correlator) findOpenLocked(category string) *Incident {
	for _, incident := range c.incidents {
		if incident.Status != StatusOpen {
			continue
		}
		for _, alert := range incident.Alerts {
			if alert.Category == category {
				return incident
			}
		}
	}
	return nil
}

// openLocked creates a new incident seeded with the alert. Caller
// holds the lock.
func (c *Correlator) openLocked(alert alerting.Alert) *Incident {
	now := time.Now()
	incident := &Incident{
		ID:          uuid.New().String(),
		Title:       fmt.Sprintf("[%s] %s", alert.Category, alert.Title),
		Description: alert.Description,
		Severity:    alert.Severity,
		Status:      StatusOpen,
		Alerts:      []alerting.Alert{alert},
		CreatedAt:   now,
		UpdatedAt:   now,
		Timeline: []TimelineEntry{{
			Timestamp:   now,
			Action:      ActionIncidentCreated,
			Description: fmt.Sprintf("Incident opened from alert %s", alert.ID),
			Metadata: map[string]interface{}{
				"alert_id": alert.ID,
				"category": alert.Category,
			},
		}},
	}
	c.incidents[incident.ID] = incident
	return incident
}

// SetStatus moves an incident through its operational lifecycle. The
// transition is recorded on the timeline; resolved and closed also
// stamp ResolvedAt.
func (c *Correlator) SetStatus(id string, status Status, user string) bool {
	c.mu.Lock()

	incident, ok := c.incidents[id]
	if !ok || incident.Status == status {
		c.mu.Unlock()
		return false
	}

	now := time.Now()
	previous := incident.Status
	incident.Status = status
	incident.UpdatedAt = now
	if (status == StatusResolved || status == StatusClosed) && incident.ResolvedAt == nil {
		incident.ResolvedAt = &now
	}
	incident.Timeline = append(incident.Timeline, TimelineEntry{
		Timestamp:   now,
		Action:      ActionStatusChanged,
		Description: fmt.Sprintf("Status changed from %s to %s", previous, status),
		User:        user,
	})

	snapshot := copyIncident(incident)
	c.mu.Unlock()

	c.logger.WithFields(logrus.Fields{
		"incident_id": id,
		"from":        previous,
		"to":          status,
		"user":        user,
	}).Info("Incident status changed")

	c.notifyUpdated(snapshot)
	return true
}

// Get returns a copy of the incident with the given id.
func (c *Correlator) Get(id string) (Incident, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	incident, ok := c.incidents[id]
	if !ok {
		return Incident{}, false
	}
	return copyIncident(incident), true
}

// Open returns all open incidents, newest first.
func (c *Correlator) Open() []Incident {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var open []Incident
	for _, incident := range c.incidents {
		if incident.Status == StatusOpen {
			open = append(open, copyIncident(incident))
		}
	}
	sort.Slice(open, func(i, j int) bool {
		return open[i].CreatedAt.After(open[j].CreatedAt)
	})
	return open
}

// All returns every incident, newest first.
func (c *Correlator) All() []Incident {
	c.mu.RLock()
	defer c.mu.RUnlock()

	all := make([]Incident, 0, len(c.incidents))
	for _, incident := range c.incidents {
		all = append(all, copyIncident(incident))
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	return all
}

// OpenIncidentCount reports how many incidents are currently open.
func (c *Correlator) OpenIncidentCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	count := 0
	for _, incident := range c.incidents {
		if incident.Status == StatusOpen {
			count++
		}
	}
	return count
}

func (c *Correlator) notifyCreated(incident Incident) {
	c.cbMu.RLock()
	callbacks := c.onCreated
	c.cbMu.RUnlock()
	for _, callback := range callbacks {
		go callback(incident)
	}
}

func (c *Correlator) notifyUpdated(incident Incident) {
	c.cbMu.RLock()
	callbacks := c.onUpdated
	c.cbMu.RUnlock()
	for _, callback := range callbacks {
		go callback(incident)
	}
}

// copyIncident deep-copies the append-only slices so callers never see
// later mutations.
func copyIncident(incident *Incident) Incident {
	out := *incident
	out.Alerts = append([]alerting.Alert(nil), incident.Alerts...)
	out.Timeline = append([]TimelineEntry(nil), incident.Timeline...)
	return out
}
