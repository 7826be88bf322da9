package models

// Form is the per-form aggregate record. It is created implicitly on the
// first submission for a never-seen formId (or by a notification settings
// update) and is never deleted.
type Form struct {
	FormID string `json:"formId"`
	// Created timestamp (unix seconds), set once on first submission
	Created int64 `json:"created,omitempty"`
	// Updated timestamp (unix seconds), moved on every submission
	Updated int64 `json:"updated,omitempty"`
	// SubmissionCount increments by exactly 1 per successful submission
	SubmissionCount int64 `json:"submissionCount"`
	// Notify holds the recipients for submission notifications as a single
	// opaque string. The service never splits it; the notifier capability
	// owns its interpretation.
	Notify string `json:"notify,omitempty"`
}
