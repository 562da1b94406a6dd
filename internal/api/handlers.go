// Vigil - Keystroke Keyword Lockdown Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/vigil/internal/audit"
	"github.com/tomtom215/vigil/internal/lockdown"
	"github.com/tomtom215/vigil/internal/logging"
	"github.com/tomtom215/vigil/internal/validation"
)

// Controller is the part of lockdown.Controller the API drives.
type Controller interface {
	Status() lockdown.Status
	Unlock(ctx context.Context) bool
	TriggerBypass(ctx context.Context, source string) lockdown.Status
	ResetViolationCount(ctx context.Context) lockdown.Status
}

// Journal is the part of audit.Logger the API reads and writes.
type Journal interface {
	Query(ctx context.Context, filter audit.QueryFilter) ([]audit.Event, error)
	Count(ctx context.Context, filter audit.QueryFilter) (int64, error)
	Get(ctx context.Context, id string) (*audit.Event, error)
	LogAdminAction(ctx context.Context, action, remoteAddr string, metadata map[string]any)
	LogAuthFailure(ctx context.Context, route, remoteAddr string)
}

const maxBodyBytes = 4 << 10

// Handler implements the admin endpoints.
type Handler struct {
	ctrl    Controller
	journal Journal
	version string
	logger  zerolog.Logger
}

// NewHandler creates a Handler. journal may be nil when the journal is
// disabled; /events then answers 503.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewHandler(ctrl Controller, journal Journal, version string, logger zerolog.Logger) *Handler {
	return &Handler{
		ctrl:    ctrl,
		journal: journal,
		version: version,
		logger:  logger,
	}
}

// Health reports liveness. A lock without a running loop is unhealthy.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	s := h.ctrl.Status()
	resp := HealthResponse{
		Status:    "healthy",
		Locked:    s.Locked,
		LoopAlive: s.LoopAlive,
		Journal:   h.journal != nil,
		Version:   h.version,
	}
	status := http.StatusOK
	if s.Locked && !s.LoopAlive {
		resp.Status = "degraded"
		status = http.StatusServiceUnavailable
	}
	respondJSON(w, r, status, &Response{Status: "success", Data: resp})
}

// Status returns the current lock status.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	respondData(w, r, NewStatusResponse(h.ctrl.Status()))
}

// Unlock ends the active lock.
func (h *Handler) Unlock(w http.ResponseWriter, r *http.Request) {
	wasLocked := h.ctrl.Unlock(r.Context())
	h.logAdmin(r, "unlock", map[string]any{"was_locked": wasLocked})
	logging.Ctx(r.Context()).Warn().Bool("was_locked", wasLocked).Msg("Admin unlock")

	respondData(w, r, UnlockResponse{
		WasLocked: wasLocked,
		Status:    NewStatusResponse(h.ctrl.Status()),
	})
}

// Bypass reports a bypass attempt and applies the penalty lock.
func (h *Handler) Bypass(w http.ResponseWriter, r *http.Request) {
	var req BypassRequest
	if err := decodeOptionalBody(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, CodeBadRequest, "Invalid request body", nil)
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondJSON(w, r, http.StatusBadRequest, &Response{
			Status: "error",
			Error:  &APIError{Code: CodeValidation, Message: verr.Error(), Details: verr.Fields},
		})
		return
	}

	source := "api"
	if req.Source != "" {
		source = "api:" + req.Source
	}
	s := h.ctrl.TriggerBypass(r.Context(), source)
	h.logAdmin(r, "bypass", map[string]any{"source": source})
	respondData(w, r, NewStatusResponse(s))
}

// ResetViolations resets escalation to the first step.
func (h *Handler) ResetViolations(w http.ResponseWriter, r *http.Request) {
	s := h.ctrl.ResetViolationCount(r.Context())
	h.logAdmin(r, "reset_violations", nil)
	respondData(w, r, NewStatusResponse(s))
}

// Events queries the journal.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	if h.journal == nil {
		respondError(w, r, http.StatusServiceUnavailable, CodeUnavailable, "Event journal is disabled", nil)
		return
	}

	q, err := parseEventsQuery(r)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, CodeBadRequest, err.Error(), nil)
		return
	}
	if verr := validation.ValidateStruct(q); verr != nil {
		respondJSON(w, r, http.StatusBadRequest, &Response{
			Status: "error",
			Error:  &APIError{Code: CodeValidation, Message: verr.Error(), Details: verr.Fields},
		})
		return
	}

	filter := q.filter()
	events, err := h.journal.Query(r.Context(), filter)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, CodeInternalError, "Failed to query events", err)
		return
	}
	total, err := h.journal.Count(r.Context(), filter)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, CodeInternalError, "Failed to count events", err)
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	respondData(w, r, EventsResponse{
		Events: events,
		Total:  total,
		Limit:  q.Limit,
		Offset: q.Offset,
	})
}

// Event returns one journal event.
func (h *Handler) Event(w http.ResponseWriter, r *http.Request) {
	if h.journal == nil {
		respondError(w, r, http.StatusServiceUnavailable, CodeUnavailable, "Event journal is disabled", nil)
		return
	}
	id := chi.URLParam(r, "id")
	event, err := h.journal.Get(r.Context(), id)
	if errors.Is(err, audit.ErrEventNotFound) {
		respondError(w, r, http.StatusNotFound, CodeNotFound, "Event not found", nil)
		return
	}
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, CodeInternalError, "Failed to get event", err)
		return
	}
	respondData(w, r, event)
}

func (h *Handler) logAdmin(r *http.Request, action string, metadata map[string]any) {
	if h.journal != nil {
		h.journal.LogAdminAction(r.Context(), action, r.RemoteAddr, metadata)
	}
}

// decodeOptionalBody decodes a JSON body into v. An empty body is allowed.
func decodeOptionalBody(r *http.Request, v any) error {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

func parseEventsQuery(r *http.Request) (*eventsQuery, error) {
	values := r.URL.Query()
	q := &eventsQuery{
		EpisodeID: values.Get("episode_id"),
		Limit:     100,
	}

	for _, raw := range values["type"] {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				q.Types = append(q.Types, t)
			}
		}
	}

	var err error
	if q.Limit, err = intParam(values.Get("limit"), q.Limit); err != nil {
		return nil, errors.New("limit must be an integer")
	}
	if q.Offset, err = intParam(values.Get("offset"), 0); err != nil {
		return nil, errors.New("offset must be an integer")
	}
	if q.Since, err = timeParam(values.Get("since")); err != nil {
		return nil, errors.New("since must be an RFC 3339 timestamp")
	}
	if q.Until, err = timeParam(values.Get("until")); err != nil {
		return nil, errors.New("until must be an RFC 3339 timestamp")
	}
	if q.Since != nil && q.Until != nil && q.Until.Before(*q.Since) {
		return nil, errors.New("until must not be before since")
	}
	return q, nil
}

func intParam(value string, defaultValue int) (int, error) {
	if value == "" {
		return defaultValue, nil
	}
	return strconv.Atoi(value)
}

func timeParam(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
