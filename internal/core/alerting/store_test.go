package alerting

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storedAlert(id string, severity Severity, ts time.Time) Alert {
	return Alert{
		ID:        id,
		RuleID:    "rule-" + id,
		Title:     "Test alert " + id,
		Severity:  severity,
		Category:  "availability",
		Timestamp: ts,
	}
}

func TestAlertStore_Resolve(t *testing.T) {
	store := NewAlertStore()
	now := time.Now()
	store.Add(storedAlert("a1", SeverityError, now))

	resolved, ok := store.Resolve("a1", "ops", now.Add(time.Minute))
	require.True(t, ok)
	assert.True(t, resolved.Resolved)
	assert.Equal(t, "ops", resolved.ResolvedBy)
	require.NotNil(t, resolved.ResolvedAt)

	// Second resolve is a no-op.
	_, ok = store.Resolve("a1", "someone-else", now.Add(2*time.Minute))
	assert.False(t, ok)

	kept, _ := store.Get("a1")
	assert.Equal(t, "ops", kept.ResolvedBy, "first resolver wins")

	_, ok = store.Resolve("missing", "ops", now)
	assert.False(t, ok)
}

func TestAlertStore_MarkEscalated(t *testing.T) {
	store := NewAlertStore()
	now := time.Now()
	store.Add(storedAlert("a1", SeverityError, now))
	store.Add(storedAlert("a2", SeverityError, now))

	escalated, ok := store.MarkEscalated("a1", now.Add(time.Minute))
	require.True(t, ok)
	assert.True(t, escalated.Escalated)
	require.NotNil(t, escalated.EscalatedAt)

	_, ok = store.MarkEscalated("a1", now.Add(2*time.Minute))
	assert.False(t, ok, "already escalated")

	store.Resolve("a2", "ops", now.Add(time.Minute))
	_, ok = store.MarkEscalated("a2", now.Add(2*time.Minute))
	assert.False(t, ok, "resolved alerts never escalate")

	_, ok = store.MarkEscalated("missing", now)
	assert.False(t, ok)
}

func TestAlertStore_ActiveAndAll(t *testing.T) {
	store := NewAlertStore()
	now := time.Now()
	store.Add(storedAlert("old", SeverityWarning, now.Add(-time.Hour)))
	store.Add(storedAlert("new", SeverityError, now))
	store.Resolve("old", "ops", now)

	active := store.Active()
	require.Len(t, active, 1)
	assert.Equal(t, "new", active[0].ID)

	all := store.All()
	require.Len(t, all, 2)
	assert.Equal(t, "new", all[0].ID, "newest first")
	assert.Equal(t, "old", all[1].ID)
}

func TestAlertStore_Stats(t *testing.T) {
	store := NewAlertStore()
	now := time.Now()
	store.Add(storedAlert("a1", SeverityCritical, now))
	store.Add(storedAlert("a2", SeverityWarning, now))
	store.Add(storedAlert("a3", SeverityCritical, now))
	store.Resolve("a3", "ops", now)

	total, active, resolved, critical := store.Stats()
	assert.Equal(t, 3, total)
	assert.Equal(t, 2, active)
	assert.Equal(t, 1, resolved)
	assert.Equal(t, 2, critical, "critical counts resolved and active alike")
}

func TestAlertStore_GetReturnsCopy(t *testing.T) {
	store := NewAlertStore()
	store.Add(storedAlert("a1", SeverityInfo, time.Now()))

	copy1, ok := store.Get("a1")
	require.True(t, ok)
	copy1.Title = "mutated"

	copy2, _ := store.Get("a1")
	assert.Equal(t, "Test alert a1", copy2.Title)
}
