package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"

	"github.com/vigil-ops/vigil-backend-go/internal/core/alerting"
)

// EmailNotifier delivers alerts over SMTP. Recipients come from the
// channel config ("to", comma separated); the server comes from the
// process-wide SMTP options.
type EmailNotifier struct {
	opts SMTPOptions
}

func NewEmailNotifier(opts SMTPOptions) *EmailNotifier {
	return &EmailNotifier{opts: opts}
}

func (n *EmailNotifier) Name() string {
	return "email"
}

func (n *EmailNotifier) Send(ctx context.Context, alert alerting.Alert, channel alerting.NotificationChannel) error {
	recipients := splitRecipients(channel.Config["to"])
	if len(recipients) == 0 {
		return fmt.Errorf("email channel has no recipients")
	}
	if n.opts.Host == "" {
		return fmt.Errorf("smtp host not configured")
	}

	addr := fmt.Sprintf("%s:%d", n.opts.Host, n.opts.Port)

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dialing smtp server: %w", err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, n.opts.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: n.opts.Host}); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}

	if n.opts.Username != "" {
		auth := smtp.PlainAuth("", n.opts.Username, n.opts.Password, n.opts.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}

	if err := client.Mail(n.opts.From); err != nil {
		return err
	}
	for _, rcpt := range recipients {
		if err := client.Rcpt(rcpt); err != nil {
			return err
		}
	}

	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write([]byte(buildMessage(n.opts.From, recipients, alert))); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	return client.Quit()
}

func buildMessage(from string, to []string, alert alerting.Alert) string {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&b, "Subject: [%s] %s\r\n", strings.ToUpper(string(alert.Severity)), alert.Title)
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	fmt.Fprintf(&b, "%s\r\n\r\n", alert.Description)
	fmt.Fprintf(&b, "Severity:  %s\r\n", alert.Severity)
	fmt.Fprintf(&b, "Category:  %s\r\n", alert.Category)
	fmt.Fprintf(&b, "Source:    %s\r\n", alert.Source)
	fmt.Fprintf(&b, "Time:      %s\r\n", formatTimestamp(alert.Timestamp))
	fmt.Fprintf(&b, "Alert ID:  %s\r\n", alert.ID)
	return b.String()
}

func splitRecipients(value string) []string {
	var recipients []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			recipients = append(recipients, trimmed)
		}
	}
	return recipients
}
