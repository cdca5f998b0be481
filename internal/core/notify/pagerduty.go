package notify

import (
	"context"
	"fmt"
	"net/http"

	"github.com/vigil-ops/vigil-backend-go/internal/core/alerting"
)

const pagerDutyEventsURL = "https://events.pagerduty.com/v2/enqueue"

// PagerDutyNotifier sends Events API v2 trigger events. The alert ID
// doubles as the dedup key so redelivery is idempotent on the
// PagerDuty side.
type PagerDutyNotifier struct {
	client *http.Client
}

func NewPagerDutyNotifier(client *http.Client) *PagerDutyNotifier {
	return &PagerDutyNotifier{client: client}
}

func (n *PagerDutyNotifier) Name() string {
	return "pagerduty"
}

type pagerDutyPayload struct {
	Summary       string                 `json:"summary"`
	Severity      string                 `json:"severity"`
	Source        string                 `json:"source"`
	Component     string                 `json:"component,omitempty"`
	Timestamp     string                 `json:"timestamp"`
	CustomDetails map[string]interface{} `json:"custom_details,omitempty"`
}

type pagerDutyEvent struct {
	RoutingKey  string           `json:"routing_key"`
	EventAction string           `json:"event_action"`
	DedupKey    string           `json:"dedup_key"`
	Payload     pagerDutyPayload `json:"payload"`
}

func (n *PagerDutyNotifier) Send(ctx context.Context, alert alerting.Alert, channel alerting.NotificationChannel) error {
	routingKey := channel.Config["routing_key"]
	if routingKey == "" {
		return fmt.Errorf("pagerduty channel has no routing_key")
	}

	url := channel.Config["url"]
	if url == "" {
		url = pagerDutyEventsURL
	}

	event := pagerDutyEvent{
		RoutingKey:  routingKey,
		EventAction: "trigger",
		DedupKey:    alert.ID,
		Payload: pagerDutyPayload{
			Summary:       fmt.Sprintf("%s: %s", alert.Title, alert.Description),
			Severity:      string(alert.Severity),
			Source:        alert.Source,
			Component:     alert.Category,
			Timestamp:     formatTimestamp(alert.Timestamp),
			CustomDetails: alert.Metadata,
		},
	}

	return postJSON(ctx, n.client, url, event)
}
