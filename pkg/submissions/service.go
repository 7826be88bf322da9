// Package submissions orchestrates the submit pipeline and listing
// operations over the form store.
package submissions

import (
	"context"
	"strconv"
	"strings"
	"time"

	"simplist/pkg/errs"
	"simplist/pkg/logger"
	"simplist/pkg/models"
	"simplist/pkg/notify"
	"simplist/pkg/paging"
	"simplist/pkg/telemetry"
)

// Symbolic lower bounds accepted by ListEntries.
const (
	FromAllTime   = "alltime"
	FromYesterday = "yesterday"
	FromLastWeek  = "lastweek"

	daySeconds = 86400
)

// Store is the durable backend for Forms and Entries. All form/entry
// mutation goes through its atomic operations; the service never caches
// state across calls.
type Store interface {
	UpsertFormOnSubmission(ctx context.Context, formID string, ts int64) (models.Form, error)
	PutEntry(ctx context.Context, e models.Entry) error
	QueryEntries(ctx context.Context, formID string, from, to int64, token string) ([]models.Entry, string, error)
	ScanForms(ctx context.Context, token string) ([]models.Form, string, error)
	UpdateFormNotify(ctx context.Context, formID, recipients string) (models.Form, error)
}

// Service exposes submit, listing and settings operations. Stateless per
// invocation; safe for concurrent use.
type Service struct {
	store Store
	gate  *notify.Gate
	now   func() int64
}

// NewService constructs a Service over the given store and notification
// gate.
func NewService(st Store, gate *notify.Gate) *Service {
	return &Service{
		store: st,
		gate:  gate,
		now:   func() int64 { return time.Now().Unix() },
	}
}

// Submit runs the three-step pipeline: atomic form upsert, entry write,
// conditional notification. The steps are strictly sequential; a failure
// aborts the remaining steps without rolling back committed ones. A
// notification failure surfaces to the caller even though the entry is
// already durable.
func (s *Service) Submit(ctx context.Context, formID string, fields map[string]any) (models.Entry, error) {
	if strings.TrimSpace(formID) == "" {
		telemetry.SubmissionErrors.WithLabelValues("validation").Inc()
		return models.Entry{}, errs.Validationf("missing formId")
	}
	if len(fields) == 0 {
		telemetry.SubmissionErrors.WithLabelValues("validation").Inc()
		return models.Entry{}, errs.Validationf("missing fields")
	}

	ts := s.now()
	form, err := s.store.UpsertFormOnSubmission(ctx, formID, ts)
	if err != nil {
		telemetry.SubmissionErrors.WithLabelValues("storage").Inc()
		logger.Error("submit_upsert_failed", "op", "submit", "form", formID, "error", err)
		return models.Entry{}, err
	}
	if form.FormID == "" {
		telemetry.SubmissionErrors.WithLabelValues("storage").Inc()
		return models.Entry{}, errs.Storagef("no form data returned")
	}
	logger.Info("form_submission_count", "form", formID, "count", form.SubmissionCount)

	entry := models.Entry{FormID: formID, Timestamp: ts, Fields: copyFields(fields)}
	if err := s.store.PutEntry(ctx, entry); err != nil {
		telemetry.SubmissionErrors.WithLabelValues("storage").Inc()
		logger.Error("submit_put_entry_failed", "op", "submit", "form", formID, "error", err)
		return models.Entry{}, err
	}

	if strings.TrimSpace(form.Notify) != "" {
		if err := s.gate.Dispatch(ctx, form.Notify, entry); err != nil {
			telemetry.SubmissionErrors.WithLabelValues("notification").Inc()
			logger.Error("submit_notify_failed", "op", "submit", "form", formID, "error", err)
			return models.Entry{}, err
		}
	}

	telemetry.SubmissionsTotal.Inc()
	return entry, nil
}

// ListEntries returns every entry for formID within [from, to], draining
// backend pagination. from accepts a literal unix-seconds value or one of
// the symbolic values alltime, yesterday, lastweek; empty means alltime.
// An empty to means now. from > to yields an empty result.
func (s *Service) ListEntries(ctx context.Context, formID, from, to string) ([]models.Entry, error) {
	if strings.TrimSpace(formID) == "" {
		return nil, errs.Validationf("missing formId")
	}
	fromTs, err := s.resolveFrom(from)
	if err != nil {
		return nil, err
	}
	toTs, err := s.resolveTo(to)
	if err != nil {
		return nil, err
	}
	entries, err := paging.Drain(func(token string) ([]models.Entry, string, error) {
		return s.store.QueryEntries(ctx, formID, fromTs, toTs, token)
	})
	if err != nil {
		logger.Error("list_entries_failed", "op", "listEntries", "form", formID, "error", err)
		return nil, err
	}
	logger.Debug("entries_listed", "form", formID, "count", len(entries))
	return entries, nil
}

// ListForms returns all forms, unfiltered, in backend order.
func (s *Service) ListForms(ctx context.Context) ([]models.Form, error) {
	forms, err := paging.Drain(func(token string) ([]models.Form, string, error) {
		return s.store.ScanForms(ctx, token)
	})
	if err != nil {
		logger.Error("list_forms_failed", "op", "listForms", "error", err)
		return nil, err
	}
	logger.Debug("forms_listed", "count", len(forms))
	return forms, nil
}

// UpdateNotificationSettings overwrites the form's notify recipients.
func (s *Service) UpdateNotificationSettings(ctx context.Context, formID, emails string) (models.Form, error) {
	if strings.TrimSpace(formID) == "" {
		return models.Form{}, errs.Validationf("missing formId")
	}
	if strings.TrimSpace(emails) == "" {
		return models.Form{}, errs.Validationf("missing emails")
	}
	form, err := s.store.UpdateFormNotify(ctx, formID, emails)
	if err != nil {
		logger.Error("update_settings_failed", "op", "updateNotificationSettings", "form", formID, "error", err)
		return models.Form{}, err
	}
	return form, nil
}

func (s *Service) resolveFrom(from string) (int64, error) {
	switch strings.TrimSpace(from) {
	case "", FromAllTime:
		return 0, nil
	case FromYesterday:
		return s.now() - daySeconds, nil
	case FromLastWeek:
		return s.now() - 7*daySeconds, nil
	}
	ts, err := strconv.ParseInt(strings.TrimSpace(from), 10, 64)
	if err != nil {
		return 0, errs.Validationf("invalid from value %q", from)
	}
	return ts, nil
}

func (s *Service) resolveTo(to string) (int64, error) {
	if strings.TrimSpace(to) == "" {
		return s.now(), nil
	}
	ts, err := strconv.ParseInt(strings.TrimSpace(to), 10, 64)
	if err != nil {
		return 0, errs.Validationf("invalid to value %q", to)
	}
	return ts, nil
}

// copyFields detaches the entry from the caller's map. Reserved keys stay in
// the copy; Entry marshaling guarantees they can never shadow the real
// formId/timestamp.
func copyFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}
