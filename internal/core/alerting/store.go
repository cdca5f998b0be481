package alerting

import (
	"sort"
	"sync"
	"time"
)

// AlertStore holds fired alerts keyed by id. Mutations go through the
// idempotent one-way transitions Resolve and MarkEscalated; everything
// returned to callers is a copy.
type AlertStore struct {
	alerts map[string]*Alert
	mu     sync.RWMutex
}

// NewAlertStore creates an empty alert store.
func NewAlertStore() *AlertStore {
	return &AlertStore{
		alerts: make(map[string]*Alert),
	}
}

// Add stores a newly fired alert.
func (s *AlertStore) Add(alert Alert) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts[alert.ID] = &alert
}

// Get returns a copy of the alert with the given id.
func (s *AlertStore) Get(id string) (Alert, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	alert, ok := s.alerts[id]
	if !ok {
		return Alert{}, false
	}
	return *alert, true
}

// Resolve marks an alert resolved. It returns false, changing nothing,
// when the alert is missing or already resolved.
func (s *AlertStore) Resolve(id, resolvedBy string, now time.Time) (Alert, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	alert, ok := s.alerts[id]
	if !ok || alert.Resolved {
		return Alert{}, false
	}

	alert.Resolved = true
	alert.ResolvedAt = &now
	alert.ResolvedBy = resolvedBy
	return *alert, true
}

// MarkEscalated marks an alert escalated. It is a no-op returning false
// when the alert is missing, resolved, or already escalated.
func (s *AlertStore) MarkEscalated(id string, now time.Time) (Alert, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	alert, ok := s.alerts[id]
	if !ok || alert.Resolved || alert.Escalated {
		return Alert{}, false
	}

	alert.Escalated = true
	alert.EscalatedAt = &now
	return *alert, true
}

// Active returns all unresolved alerts, newest first.
func (s *AlertStore) Active() []Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var alerts []Alert
	for _, alert := range s.alerts {
		if !alert.Resolved {
			alerts = append(alerts, *alert)
		}
	}
	sortByTimestamp(alerts)
	return alerts
}

// All returns every stored alert, newest first.
func (s *AlertStore) All() []Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()

	alerts := make([]Alert, 0, len(s.alerts))
	for _, alert := range s.alerts {
		alerts = append(alerts, *alert)
	}
	sortByTimestamp(alerts)
	return alerts
}

// Stats returns aggregate alert counters.
func (s *AlertStore) Stats() (total, active, resolved, critical int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, alert := range s.alerts {
		total++
		if alert.Resolved {
			resolved++
		} else {
			active++
		}
		if alert.Severity == SeverityCritical {
			critical++
		}
	}
	return total, active, resolved, critical
}

func sortByTimestamp(alerts []Alert) {
	sort.Slice(alerts, func(i, j int) bool {
		return alerts[i].Timestamp.After(alerts[j].Timestamp)
	})
}
