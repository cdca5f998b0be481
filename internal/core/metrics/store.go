package metrics

import (
	"sync"
	"time"
)

// DefaultMaxHistory caps how many samples are kept per metric.
const DefaultMaxHistory = 1000

// Sample is a single observation of a metric
type Sample struct {
	Metric    string    `json:"metric"`
	Value     float64   `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

// Store keeps a bounded, insertion-ordered sample history per metric.
// When a history exceeds the cap the oldest samples are evicted.
type Store struct {
	maxHistory int
	histories  map[string][]Sample
	mu         sync.RWMutex
}

// NewStore creates a metric store. A non-positive maxHistory falls back
// to DefaultMaxHistory.
func NewStore(maxHistory int) *Store {
	if maxHistory <= 0 {
		maxHistory = DefaultMaxHistory
	}
	return &Store{
		maxHistory: maxHistory,
		histories:  make(map[string][]Sample),
	}
}

// RecordSample appends a sample to the metric's history and trims to the cap.
func (s *Store) RecordSample(metric string, value float64, timestamp time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := append(s.histories[metric], Sample{
		Metric:    metric,
		Value:     value,
		Timestamp: timestamp,
	})
	if len(history) > s.maxHistory {
		history = history[len(history)-s.maxHistory:]
	}
	s.histories[metric] = history
}

// SamplesInWindow returns the contiguous suffix of the metric's history
// with timestamps at or after since.
func (s *Store) SamplesInWindow(metric string, since time.Time) []Sample {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.histories[metric]
	start := len(history)
	for start > 0 && !history[start-1].Timestamp.Before(since) {
		start--
	}

	window := make([]Sample, len(history)-start)
	copy(window, history[start:])
	return window
}

// Latest returns the most recent sample for a metric, if any.
func (s *Store) Latest(metric string) (Sample, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.histories[metric]
	if len(history) == 0 {
		return Sample{}, false
	}
	return history[len(history)-1], true
}

// HistoryLength returns the number of retained samples for a metric.
func (s *Store) HistoryLength(metric string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.histories[metric])
}

// MetricNames returns the names of all metrics with recorded samples.
func (s *Store) MetricNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.histories))
	for name := range s.histories {
		names = append(names, name)
	}
	return names
}
