package monitor

import (
	"context"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// HealthProbe polls an external health endpoint and feeds the outcome
// back into the metric store as samples. A failed probe is converted
// into sentinel samples instead of an error, so the rule engine can
// alert on probe failure itself.
type HealthProbe struct {
	url      string
	timeout  time.Duration
	client   *http.Client
	recorder Recorder
	logger   *logrus.Logger
}

// NewHealthProbe creates a probe against the given URL.
func NewHealthProbe(url string, timeout time.Duration, recorder Recorder, logger *logrus.Logger) *HealthProbe {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HealthProbe{
		url:      url,
		timeout:  timeout,
		client:   &http.Client{Timeout: timeout},
		recorder: recorder,
		logger:   logger,
	}
}

// Check performs one probe round.
func (p *HealthProbe) Check(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		p.recordFailure(err)
		return
	}

	resp, err := p.client.Do(req)
	if err != nil {
		p.recordFailure(err)
		return
	}
	defer resp.Body.Close()

	latency := float64(time.Since(start).Milliseconds())
	healthy := 0.0
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		healthy = 1.0
	}

	p.recorder.RecordMetric("api_response_time", latency)
	p.recorder.RecordMetric("database_health", healthy)
}

// recordFailure records sentinel samples: the full timeout as latency
// and an unhealthy database signal.
func (p *HealthProbe) recordFailure(err error) {
	p.logger.WithError(err).WithField("url", p.url).Warn("Health probe failed")
	p.recorder.RecordMetric("api_response_time", float64(p.timeout.Milliseconds()))
	p.recorder.RecordMetric("database_health", 0)
}
