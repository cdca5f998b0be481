package alerting

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// EscalationScheduler arms one deferred escalation check per alert.
// Resolving an alert cancels its pending timer; the resolved/escalated
// guard in the alert store remains as backstop against a timer that
// fires during the race window.
type EscalationScheduler struct {
	store       *AlertStore
	logger      *logrus.Logger
	onEscalated func(Alert)
	timers      map[string]*time.Timer
	mu          sync.Mutex
}

// NewEscalationScheduler creates a scheduler over the given alert
// store. onEscalated is invoked once per alert that actually escalates.
func NewEscalationScheduler(store *AlertStore, logger *logrus.Logger, onEscalated func(Alert)) *EscalationScheduler {
	return &EscalationScheduler{
		store:       store,
		logger:      logger,
		onEscalated: onEscalated,
		timers:      make(map[string]*time.Timer),
	}
}

// Arm schedules the one-shot escalation check for an alert. Arming the
// same alert twice replaces the earlier timer.
func (s *EscalationScheduler) Arm(alertID string, delay time.Duration) {
	if delay <= 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.timers[alertID]; ok {
		existing.Stop()
	}
	s.timers[alertID] = time.AfterFunc(delay, func() {
		s.fire(alertID)
	})
}

// Cancel drops a pending escalation, typically because the alert
// resolved first.
func (s *EscalationScheduler) Cancel(alertID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if timer, ok := s.timers[alertID]; ok {
		timer.Stop()
		delete(s.timers, alertID)
	}
}

// Stop cancels every pending escalation.
func (s *EscalationScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, timer := range s.timers {
		timer.Stop()
		delete(s.timers, id)
	}
}

func (s *EscalationScheduler) fire(alertID string) {
	s.mu.Lock()
	delete(s.timers, alertID)
	s.mu.Unlock()

	alert, ok := s.store.MarkEscalated(alertID, time.Now())
	if !ok {
		// Missing, resolved, or already escalated.
		return
	}

	s.logger.WithFields(logrus.Fields{
		"alert_id": alert.ID,
		"rule_id":  alert.RuleID,
		"severity": alert.Severity,
	}).Warn("Alert escalated")

	if s.onEscalated != nil {
		s.onEscalated(alert)
	}
}
