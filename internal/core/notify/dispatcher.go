package notify

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vigil-ops/vigil-backend-go/internal/core/alerting"
	"github.com/vigil-ops/vigil-backend-go/internal/core/metrics"
)

// Options configures the dispatcher and its notifiers.
type Options struct {
	Timeout           time.Duration
	ServiceName       string
	SMTP              SMTPOptions
	EscalationChannel alerting.NotificationChannel
}

// Dispatcher fans an alert out to every enabled channel of the firing
// rule. Channel attempts run concurrently; each failure is logged and
// counted but never aborts the siblings or propagates to the caller.
// There is no automatic retry.
type Dispatcher struct {
	logger     *logrus.Logger
	collector  *metrics.Collector
	notifiers  map[alerting.ChannelType]Notifier
	timeout    time.Duration
	escalation alerting.NotificationChannel
}

// NewDispatcher creates a dispatcher with one notifier per supported
// channel type, all sharing a bounded-timeout HTTP client.
func NewDispatcher(opts Options, logger *logrus.Logger, collector *metrics.Collector) *Dispatcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.ServiceName == "" {
		opts.ServiceName = "vigil"
	}

	client := &http.Client{Timeout: opts.Timeout}

	return &Dispatcher{
		logger:    logger,
		collector: collector,
		timeout:   opts.Timeout,
		notifiers: map[alerting.ChannelType]Notifier{
			alerting.ChannelSlack:     NewSlackNotifier(client),
			alerting.ChannelEmail:     NewEmailNotifier(opts.SMTP),
			alerting.ChannelWebhook:   NewWebhookNotifier(client, opts.ServiceName),
			alerting.ChannelPagerDuty: NewPagerDutyNotifier(client),
		},
		escalation: opts.EscalationChannel,
	}
}

// Dispatch attempts delivery on every enabled channel and waits for all
// attempts to settle. It never fails as a whole.
func (d *Dispatcher) Dispatch(alert alerting.Alert, channels []alerting.NotificationChannel) {
	var wg sync.WaitGroup
	for _, channel := range channels {
		if !channel.Enabled {
			continue
		}
		wg.Add(1)
		go func(channel alerting.NotificationChannel) {
			defer wg.Done()
			d.send(alert, channel)
		}(channel)
	}
	wg.Wait()
}

// DispatchEscalation sends the single escalation notification to the
// configured escalation channel, if one exists.
func (d *Dispatcher) DispatchEscalation(alert alerting.Alert) {
	if d.escalation.Type == "" {
		return
	}

	escalated := alert
	escalated.Title = "[ESCALATED] " + alert.Title
	d.send(escalated, d.escalation)
}

func (d *Dispatcher) send(alert alerting.Alert, channel alerting.NotificationChannel) {
	notifier, ok := d.notifiers[channel.Type]
	if !ok {
		d.logger.WithFields(logrus.Fields{
			"alert_id": alert.ID,
			"channel":  channel.Type,
		}).Error("No notifier for channel type")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	err := notifier.Send(ctx, alert, channel)
	if d.collector != nil {
		d.collector.NotificationSent(notifier.Name(), err == nil)
	}
	if err != nil {
		d.logger.WithError(err).WithFields(logrus.Fields{
			"alert_id": alert.ID,
			"channel":  notifier.Name(),
		}).Error("Notification delivery failed")
		return
	}

	d.logger.WithFields(logrus.Fields{
		"alert_id": alert.ID,
		"channel":  notifier.Name(),
	}).Debug("Notification delivered")
}
