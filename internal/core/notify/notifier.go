package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/vigil-ops/vigil-backend-go/internal/core/alerting"
)

// Notifier delivers an alert to one channel type. Implementations build
// the channel-specific payload and must respect the context deadline.
type Notifier interface {
	Name() string
	Send(ctx context.Context, alert alerting.Alert, channel alerting.NotificationChannel) error
}

// SMTPOptions configures the email notifier's outbound server.
type SMTPOptions struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// postJSON marshals a payload and POSTs it, treating any non-2xx
// response as a delivery failure.
func postJSON(ctx context.Context, client *http.Client, url string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
