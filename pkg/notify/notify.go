// Package notify carries submission alerts to the external notifier
// capability. The gate decides nothing about recipients: the stored notify
// value travels verbatim, un-split, and its interpretation belongs to the
// capability behind the Notifier interface.
package notify

import (
	"context"
	"encoding/json"
	"strings"

	"simplist/pkg/config"
	"simplist/pkg/errs"
	"simplist/pkg/logger"
	"simplist/pkg/models"
	"simplist/pkg/telemetry"
)

// Notifier is the external notification capability. Payload is an opaque
// JSON document; recipients is the form's raw notify value.
type Notifier interface {
	Send(ctx context.Context, recipients string, payload []byte) error
}

// Gate decides, from form metadata, whether a submission triggers a
// notification, and forwards at most one dispatch per submission.
type Gate struct {
	n Notifier
}

// NewGate wraps the given notifier backend.
func NewGate(n Notifier) *Gate {
	return &Gate{n: n}
}

// Dispatch forwards the entry to the notifier. An empty recipients value is
// a no-op; any notifier failure propagates wrapped in the notification
// sentinel.
func (g *Gate) Dispatch(ctx context.Context, recipients string, e models.Entry) error {
	if strings.TrimSpace(recipients) == "" {
		return nil
	}
	payload, err := json.Marshal(e)
	if err != nil {
		return errs.Notification("encode entry", err)
	}
	if err := g.n.Send(ctx, recipients, payload); err != nil {
		telemetry.NotificationFailures.Inc()
		logger.Error("notification_dispatch_failed", "form", e.FormID, "error", err)
		return errs.Notification("dispatch", err)
	}
	telemetry.NotificationsTotal.Inc()
	logger.Info("notification_dispatched", "form", e.FormID)
	return nil
}

// New builds the notifier backend selected by cfg. Unknown or empty
// backends fall back to the log notifier.
func New(cfg config.NotifyConfig) Notifier {
	switch strings.ToLower(cfg.Backend) {
	case "webhook":
		return NewWebhook(cfg.Webhook)
	case "smtp":
		return NewSMTP(cfg.SMTP)
	default:
		return LogNotifier{}
	}
}

// LogNotifier records dispatches in the log instead of sending them. It is
// the default backend and keeps dev setups side-effect free.
type LogNotifier struct{}

func (LogNotifier) Send(_ context.Context, recipients string, payload []byte) error {
	logger.Info("notification_logged", "recipients", recipients, "payload", string(payload))
	return nil
}
