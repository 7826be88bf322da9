// Package api exposes the HTTP surface of the submission service.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"simplist/pkg/errs"
	"simplist/pkg/logger"
	"simplist/pkg/models"
	"simplist/pkg/submissions"
)

// Handler returns the router for all /v1 endpoints.
func Handler(svc *submissions.Service) http.Handler {
	h := &handlers{svc: svc}
	r := mux.NewRouter()
	r.HandleFunc("/v1/submissions", h.createSubmission).Methods(http.MethodPost)
	r.HandleFunc("/v1/forms", h.listForms).Methods(http.MethodGet)
	r.HandleFunc("/v1/forms/{formId}/entries", h.listEntries).Methods(http.MethodGet)
	r.HandleFunc("/v1/forms/{formId}/notify", h.updateNotify).Methods(http.MethodPut)
	return r
}

type handlers struct {
	svc *submissions.Service
}

type submissionRequest struct {
	Action string         `json:"action,omitempty"`
	FormID string         `json:"formId"`
	Fields map[string]any `json:"fields"`
}

type successResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

func (h *handlers) createSubmission(w http.ResponseWriter, r *http.Request) {
	var req submissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errs.Validationf("invalid json"))
		return
	}
	if req.Action == "ping" {
		writeSuccess(w, map[string]bool{"pong": true})
		return
	}
	entry, err := h.svc.Submit(r.Context(), req.FormID, req.Fields)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, successResponse{Success: true, Data: entry})
}

func (h *handlers) listEntries(w http.ResponseWriter, r *http.Request) {
	formID := mux.Vars(r)["formId"]
	q := r.URL.Query()
	entries, err := h.svc.ListEntries(r.Context(), formID, q.Get("from"), q.Get("to"))
	if err != nil {
		writeError(w, err)
		return
	}
	if entries == nil {
		entries = []models.Entry{}
	}
	writeSuccess(w, entries)
}

func (h *handlers) listForms(w http.ResponseWriter, r *http.Request) {
	forms, err := h.svc.ListForms(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if forms == nil {
		forms = []models.Form{}
	}
	writeSuccess(w, forms)
}

func (h *handlers) updateNotify(w http.ResponseWriter, r *http.Request) {
	formID := mux.Vars(r)["formId"]
	var req struct {
		Emails string `json:"emails"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errs.Validationf("invalid json"))
		return
	}
	form, err := h.svc.UpdateNotificationSettings(r.Context(), formID, req.Emails)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, successResponse{Success: true, Data: form})
}

// writeSuccess writes v as JSON with the cross-origin header pair every
// successful response carries.
func writeSuccess(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Credentials", "true")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("response_encode_failed", "error", err)
	}
}

// writeError maps the error taxonomy onto status codes. Internal errors
// carry no CORS pair.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, errs.ErrValidation) {
		status = http.StatusBadRequest
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
