package notify

import (
	"context"
	"fmt"
	"net/http"

	"github.com/vigil-ops/vigil-backend-go/internal/core/alerting"
)

// SlackNotifier posts chat-style alert messages to a Slack incoming
// webhook configured per channel ("webhook_url").
type SlackNotifier struct {
	client *http.Client
}

func NewSlackNotifier(client *http.Client) *SlackNotifier {
	return &SlackNotifier{client: client}
}

func (n *SlackNotifier) Name() string {
	return "slack"
}

type slackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

type slackAttachment struct {
	Color  string       `json:"color"`
	Title  string       `json:"title"`
	Text   string       `json:"text"`
	Fields []slackField `json:"fields"`
	Footer string       `json:"footer"`
}

type slackPayload struct {
	Text        string            `json:"text"`
	Attachments []slackAttachment `json:"attachments"`
}

func (n *SlackNotifier) Send(ctx context.Context, alert alerting.Alert, channel alerting.NotificationChannel) error {
	url := channel.Config["webhook_url"]
	if url == "" {
		return fmt.Errorf("slack channel has no webhook_url")
	}

	payload := slackPayload{
		Text: fmt.Sprintf(":rotating_light: %s", alert.Title),
		Attachments: []slackAttachment{{
			Color: severityColor(alert.Severity),
			Title: alert.Title,
			Text:  alert.Description,
			Fields: []slackField{
				{Title: "Severity", Value: string(alert.Severity), Short: true},
				{Title: "Category", Value: alert.Category, Short: true},
				{Title: "Timestamp", Value: formatTimestamp(alert.Timestamp), Short: true},
				{Title: "Alert ID", Value: alert.ID, Short: true},
			},
			Footer: alert.Source,
		}},
	}

	return postJSON(ctx, n.client, url, payload)
}

func severityColor(severity alerting.Severity) string {
	switch severity {
	case alerting.SeverityCritical:
		return "#d50200"
	case alerting.SeverityError:
		return "#e8912d"
	case alerting.SeverityWarning:
		return "#f2c744"
	default:
		return "#36a64f"
	}
}
