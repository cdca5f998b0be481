package notify

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/vigil-ops/vigil-backend-go/internal/core/alerting"
)

// WebhookNotifier POSTs the full alert to an arbitrary endpoint
// configured per channel ("url").
type WebhookNotifier struct {
	client      *http.Client
	serviceName string
}

func NewWebhookNotifier(client *http.Client, serviceName string) *WebhookNotifier {
	return &WebhookNotifier{client: client, serviceName: serviceName}
}

func (n *WebhookNotifier) Name() string {
	return "webhook"
}

type webhookPayload struct {
	Alert     alerting.Alert `json:"alert"`
	Timestamp string         `json:"timestamp"`
	Service   string         `json:"service"`
}

func (n *WebhookNotifier) Send(ctx context.Context, alert alerting.Alert, channel alerting.NotificationChannel) error {
	url := channel.Config["url"]
	if url == "" {
		return fmt.Errorf("webhook channel has no url")
	}

	payload := webhookPayload{
		Alert:     alert,
		Timestamp: formatTimestamp(time.Now()),
		Service:   n.serviceName,
	}

	return postJSON(ctx, n.client, url, payload)
}
