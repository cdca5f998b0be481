package monitor

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
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

// fakeRecorder captures recorded samples by metric name.
type fakeRecorder struct {
	mu      sync.Mutex
	samples map[string][]float64
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{samples: make(map[string][]float64)}
}

func (r *fakeRecorder) RecordMetric(name string, value float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.samples[name] = append(r.samples[name], value)
}

func (r *fakeRecorder) last(name string) (float64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	values := r.samples[name]
	if len(values) == 0 {
		return 0, false
	}
	return values[len(values)-1], true
}

func TestHealthProbe_HealthyEndpoint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	recorder := newFakeRecorder()
	probe := NewHealthProbe(server.URL, 5*time.Second, recorder, testLogger())
	probe.Check(context.Background())

	latency, ok := recorder.last("api_response_time")
	require.True(t, ok)
	assert.GreaterOrEqual(t, latency, 0.0)
	assert.Less(t, latency, 5000.0)

	health, ok := recorder.last("database_health")
	require.True(t, ok)
	assert.Equal(t, 1.0, health)
}

func TestHealthProbe_NonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	recorder := newFakeRecorder()
	probe := NewHealthProbe(server.URL, 5*time.Second, recorder, testLogger())
	probe.Check(context.Background())

	health, ok := recorder.last("database_health")
	require.True(t, ok)
	assert.Equal(t, 0.0, health)
}

func TestHealthProbe_UnreachableRecordsSentinels(t *testing.T) {
	recorder := newFakeRecorder()
	probe := NewHealthProbe("http://127.0.0.1:1", 2*time.Second, recorder, testLogger())
	probe.Check(context.Background())

	latency, ok := recorder.last("api_response_time")
	require.True(t, ok)
	assert.Equal(t, 2000.0, latency, "sentinel latency is the full timeout")

	health, ok := recorder.last("database_health")
	require.True(t, ok)
	assert.Equal(t, 0.0, health)
}

func TestHealthProbe_DefaultTimeout(t *testing.T) {
	probe := NewHealthProbe("http://localhost/health", 0, newFakeRecorder(), testLogger())
	assert.Equal(t, 30*time.Second, probe.timeout)
}
