package registration

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"eventreg-backend/internal/auth"
	"eventreg-backend/internal/components/assert"
	"eventreg-backend/internal/components/serviceutil"
	"eventreg-backend/internal/components/telemetry"
	"eventreg-backend/internal/gforms/payload"
	"eventreg-backend/internal/gforms/submit"
)

const (
	report_http_request = "http.request"
)

// views only change when the form is edited
const displayCacheControl = "public, s-maxage=3600, stale-while-revalidate=86400"

const maxSubmitBody = 1 << 20

type SubmitResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type Handler struct {
	service *Service
	// gate wraps the submission route, nil leaves it open.
	gate func(http.Handler) http.Handler
	tel  telemetry.API
}

func NewHandler(service *Service, gate func(http.Handler) http.Handler, tel telemetry.API) *Handler {
	assert.NotNil(service)
	assert.NotNil(tel)
	return &Handler{
		service: service,
		gate:    gate,
		tel:     telemetry.NewScopedAPI("registration", tel),
	}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/forms", h.getForm)

	var submitHandler http.Handler = http.HandlerFunc(h.submit)
	if h.gate != nil {
		submitHandler = h.gate(submitHandler)
	}
	mux.Handle("POST /api/forms/submit", submitHandler)

	if h.service.cfg.DebugRoutes {
		mux.HandleFunc("GET /api/forms/debug", h.debugItem)
	}
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		serviceutil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}

func errorStatus(err error) int {
	var rejected *submit.RejectedError
	switch {
	// upstream and transport errors wrap the deadline
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, ErrUnknownType), errors.Is(err, payload.ErrInvalidAnswer):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnresolved):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrConfig):
		return http.StatusInternalServerError
	case errors.As(err, &rejected), errors.Is(err, submit.ErrTransport), errors.Is(err, ErrUpstream):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (h *Handler) writeError(w http.ResponseWriter, message string, err error) {
	status := errorStatus(err)
	if status >= 500 {
		h.tel.ReportBroken(report_http_request, message, err)
	}

	details := err.Error()
	var rejected *submit.RejectedError
	if errors.As(err, &rejected) {
		message = "Form submission failed"
		details = rejected.Body
	}
	var unresolved *UnresolvedKeysError
	if errors.As(err, &unresolved) {
		message = "Some answers could not be matched to the live form"
	}
	serviceutil.WriteError(w, status, message, details)
}

func (h *Handler) getForm(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.GetForm(r.Context(), r.URL.Query().Get("type"))
	if err != nil {
		h.writeError(w, "Failed to fetch form", err)
		return
	}
	w.Header().Set("Cache-Control", displayCacheControl)
	serviceutil.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSubmitBody)).Decode(&req)
	if err != nil {
		serviceutil.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	var identity *auth.Identity
	if id, ok := auth.IdentityFromContext(r.Context()); ok {
		identity = &id
	}

	_, err = h.service.Submit(r.Context(), req, identity)
	if err != nil {
		h.writeError(w, "Failed to submit form", err)
		return
	}
	serviceutil.WriteJSON(w, http.StatusOK, SubmitResponse{
		Success: true,
		Message: "Form submitted successfully!",
	})
}

func (h *Handler) debugItem(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	title := query.Get("title")
	if title == "" {
		serviceutil.WriteError(w, http.StatusBadRequest, "Missing title", "")
		return
	}

	item, err := h.service.DebugItem(r.Context(), query.Get("type"), title)
	if err != nil {
		h.writeError(w, "Failed to read form data", err)
		return
	}
	if item == nil {
		serviceutil.WriteError(w, http.StatusNotFound, "No item with that title", title)
		return
	}
	serviceutil.WriteJSON(w, http.StatusOK, map[string]json.RawMessage{"item": item})
}
