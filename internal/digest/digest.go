// Package digest runs a scheduled summary job: forms with notification
// recipients configured get a periodic message with their recent
// submission activity, decoupled from the per-submission dispatch path.
package digest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/adhocore/gronx"

	"simplist/pkg/config"
	"simplist/pkg/logger"
	"simplist/pkg/notify"
	"simplist/pkg/submissions"
)

const defaultCron = "0 2 * * *"

// Start starts the digest scheduler if enabled. Returns a cancel func.
func Start(ctx context.Context, cfg config.DigestConfig, svc *submissions.Service, n notify.Notifier) (context.CancelFunc, error) {
	if !cfg.Enabled {
		logger.Info("digest_disabled")
		return func() {}, nil
	}

	cronExpr := cfg.Cron
	if cronExpr == "" {
		cronExpr = defaultCron
	}
	if !gronx.IsValid(cronExpr) {
		logger.Error("digest_invalid_cron", "cron", cfg.Cron)
		return nil, fmt.Errorf("invalid digest cron expression: %s", cfg.Cron)
	}

	logger.Info("digest_enabled", "cron", cronExpr)
	ctx2, cancel := context.WithCancel(ctx)
	go runScheduler(ctx2, cronExpr, svc, n)
	return cancel, nil
}

// runScheduler uses gronx to compute the next tick for the configured cron
// expression and sleeps until that time.
func runScheduler(ctx context.Context, cronExpr string, svc *submissions.Service, n notify.Notifier) {
	for {
		select {
		case <-ctx.Done():
			logger.Info("digest_scheduler_stopping")
			return
		default:
		}

		now := time.Now().UTC()
		next, err := gronx.NextTickAfter(cronExpr, now, false)
		if err != nil {
			logger.Error("digest_nexttick_failed", "cron", cronExpr, "error", err)
			select {
			case <-time.After(30 * time.Second):
			case <-ctx.Done():
				logger.Info("digest_scheduler_stopping")
				return
			}
			continue
		}

		wait := time.Until(next)
		if wait <= 0 {
			wait = time.Second
		}
		select {
		case <-time.After(wait):
			if err := RunOnce(ctx, svc, n); err != nil {
				logger.Error("digest_run_error", "error", err)
			}
		case <-ctx.Done():
			logger.Info("digest_scheduler_stopping")
			return
		}
	}
}

// summary is the digest payload sent per form.
type summary struct {
	FormID          string `json:"formId"`
	SubmissionCount int64  `json:"submissionCount"`
	EntriesLastDay  int    `json:"entriesLastDay"`
	GeneratedAt     int64  `json:"generatedAt"`
}

// RunOnce walks all forms and sends a digest to each form that has
// notification recipients configured. Per-form failures are logged and do
// not stop the walk.
func RunOnce(ctx context.Context, svc *submissions.Service, n notify.Notifier) error {
	forms, err := svc.ListForms(ctx)
	if err != nil {
		return fmt.Errorf("digest form walk failed: %w", err)
	}

	sent := 0
	for _, f := range forms {
		if f.Notify == "" {
			continue
		}
		entries, err := svc.ListEntries(ctx, f.FormID, submissions.FromYesterday, "")
		if err != nil {
			logger.Error("digest_entries_failed", "form", f.FormID, "error", err)
			continue
		}
		payload, err := json.Marshal(summary{
			FormID:          f.FormID,
			SubmissionCount: f.SubmissionCount,
			EntriesLastDay:  len(entries),
			GeneratedAt:     time.Now().Unix(),
		})
		if err != nil {
			logger.Error("digest_encode_failed", "form", f.FormID, "error", err)
			continue
		}
		if err := n.Send(ctx, f.Notify, payload); err != nil {
			logger.Error("digest_send_failed", "form", f.FormID, "error", err)
			continue
		}
		sent++
	}
	logger.Info("digest_run_complete", "forms", len(forms), "sent", sent)
	return nil
}
