package service

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// Notifier delivers messages to settlement contacts. Delivery is best
// effort: implementations run asynchronously, log failures, and never
// propagate them — a committed order transition is never rolled back
// because a notification could not be sent.
type Notifier interface {
	Notify(recipients []string, subject, body string)
}

// notifyPayload is the JSON body posted to the notification gateway.
type notifyPayload struct {
	Recipients []string `json:"recipients"`
	Subject    string   `json:"subject"`
	Body       string   `json:"body"`
}

// GatewayNotifier posts messages to an HTTP notification gateway (the
// mail relay sits behind it). With no gateway URL configured it only
// logs, which keeps development setups working without a relay.
type GatewayNotifier struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

// NewGatewayNotifier creates a GatewayNotifier. url may be empty.
func NewGatewayNotifier(url string, timeout time.Duration, logger *slog.Logger) *GatewayNotifier {
	return &GatewayNotifier{
		url:    url,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Notify dispatches the message on its own goroutine.
func (n *GatewayNotifier) Notify(recipients []string, subject, body string) {
	if len(recipients) == 0 {
		n.logger.Warn("notification skipped: no recipients", slog.String("subject", subject))
		return
	}
	if n.url == "" {
		n.logger.Info("notification gateway not configured",
			slog.String("subject", subject),
			slog.Int("recipients", len(recipients)),
		)
		return
	}

	go func() {
		raw, err := json.Marshal(notifyPayload{
			Recipients: recipients,
			Subject:    subject,
			Body:       body,
		})
		if err != nil {
			n.logger.Error("notification marshal failed", slog.String("error", err.Error()))
			return
		}

		resp, err := n.client.Post(n.url, "application/json", bytes.NewReader(raw))
		if err != nil {
			n.logger.Error("notification delivery failed",
				slog.String("subject", subject),
				slog.String("error", err.Error()),
			)
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			n.logger.Error("notification gateway rejected message",
				slog.String("subject", subject),
				slog.Int("status", resp.StatusCode),
			)
			return
		}
		n.logger.Info("notification sent",
			slog.String("subject", subject),
			slog.Int("recipients", len(recipients)),
		)
	}()
}
