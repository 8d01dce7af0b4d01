// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/telekom/pathmon/internal/logger"
	"github.com/telekom/pathmon/pkg/session"
	"github.com/telekom/pathmon/pkg/store"
)

// StartRequest is the body of a session start.
type StartRequest struct {
	Target string `json:"target"`
	// IntervalSeconds is the probe interval. Zero selects the default interval.
	IntervalSeconds float64 `json:"intervalSeconds,omitempty"`
}

// StartResponse acknowledges an accepted session start.
type StartResponse struct {
	Target          string  `json:"target"`
	IntervalSeconds float64 `json:"intervalSeconds"`
}

// SaveResponse names a saved session.
type SaveResponse struct {
	Name string `json:"name"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Handler serves the session endpoints.
type Handler struct {
	sessions session.Manager
	store    store.Store
	metrics  http.Handler
	upgrader websocket.Upgrader
}

// NewHandler creates the endpoints for the given session manager and store.
// The metrics endpoint serves the collectors of the registry.
func NewHandler(m session.Manager, st store.Store, registry *prometheus.Registry) *Handler {
	return &Handler{
		sessions: m,
		store:    st,
		metrics:  promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}
}

// Routes returns every route of the API.
func (h *Handler) Routes() []Route {
	return []Route{
		{Path: "/v1/session", Method: http.MethodGet, Handler: h.getSession},
		{Path: "/v1/session", Method: http.MethodPost, Handler: h.startSession},
		{Path: "/v1/session/pause", Method: http.MethodPost, Handler: h.lifecycle(h.sessions.Pause)},
		{Path: "/v1/session/resume", Method: http.MethodPost, Handler: h.lifecycle(h.sessions.Resume)},
		{Path: "/v1/session/stop", Method: http.MethodPost, Handler: h.lifecycle(h.sessions.Stop)},
		{Path: "/v1/session/export", Method: http.MethodGet, Handler: h.exportSession},
		{Path: "/v1/session/save", Method: http.MethodPost, Handler: h.saveSession},
		{Path: "/v1/session/stream", Method: http.MethodGet, Handler: h.streamSession},
		{Path: "/v1/sessions", Method: http.MethodGet, Handler: h.listSessions},
		{Path: "/v1/sessions/{name}", Method: http.MethodGet, Handler: h.loadSession},
		{Path: "/v1/sessions/{name}/export", Method: http.MethodGet, Handler: h.exportSaved},
		{Path: "/v1/sessions/{name}/restore", Method: http.MethodPost, Handler: h.restoreSaved},
		{Path: "/openapi", Method: http.MethodGet, Handler: h.openapi},
		{Path: "/metrics", Method: http.MethodGet, Handler: h.metrics.ServeHTTP},
	}
}

func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	s, err := view(h.sessions.Snapshot(), r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// startSession validates the request and starts the session in the
// background, since discovery takes up to hops times timeout.
func (h *Handler) startSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	var req StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	interval := session.DefaultInterval
	if req.IntervalSeconds != 0 {
		interval = time.Duration(req.IntervalSeconds * float64(time.Second))
	}
	if req.Target == "" {
		writeError(w, http.StatusBadRequest, session.ErrInvalidTarget)
		return
	}
	if err := session.ValidateInterval(interval); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if state := h.sessions.Snapshot().State; state.Live() || state == session.StateDiscovering {
		writeError(w, http.StatusConflict, fmt.Errorf("%w: session is %s", session.ErrInvalidTransition, state))
		return
	}

	ctx := context.WithoutCancel(r.Context())
	go func() {
		if err := h.sessions.Start(ctx, req.Target, interval); err != nil {
			log.ErrorContext(ctx, "Failed to start session", "target", req.Target, "error", err)
		}
	}()

	log.InfoContext(r.Context(), "Session start accepted", "target", req.Target, "interval", interval)
	writeJSON(w, http.StatusAccepted, StartResponse{Target: req.Target, IntervalSeconds: interval.Seconds()})
}

func (h *Handler) lifecycle(op func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := op(); err != nil {
			logger.FromContext(r.Context()).WarnContext(r.Context(), "Session transition rejected", "error", err)
			writeError(w, statusOf(err), err)
			return
		}
		writeJSON(w, http.StatusOK, h.sessions.Snapshot().Summary())
	}
}

func (h *Handler) exportSession(w http.ResponseWriter, r *http.Request) {
	s := h.sessions.Snapshot()
	if s.State == session.StateIdle {
		writeError(w, http.StatusConflict, ErrNoSession)
		return
	}
	export(w, r, &s)
}

func (h *Handler) saveSession(w http.ResponseWriter, r *http.Request) {
	s := h.sessions.Snapshot()
	if s.State == session.StateIdle || len(s.Hops) == 0 {
		writeError(w, http.StatusConflict, ErrNoSession)
		return
	}
	name, err := h.store.Save(r.Context(), &s)
	if err != nil {
		writeError(w, statusOf(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, SaveResponse{Name: name})
}

func (h *Handler) listSessions(w http.ResponseWriter, r *http.Request) {
	entries, err := h.store.List(r.Context())
	if err != nil {
		writeError(w, statusOf(err), err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) loadSession(w http.ResponseWriter, r *http.Request) {
	s, err := h.store.Load(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, statusOf(err), err)
		return
	}
	v, err := view(*s, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *Handler) exportSaved(w http.ResponseWriter, r *http.Request) {
	s, err := h.store.Load(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, statusOf(err), err)
		return
	}
	export(w, r, s)
}

func (h *Handler) restoreSaved(w http.ResponseWriter, r *http.Request) {
	s, err := h.store.Load(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, statusOf(err), err)
		return
	}
	if err := h.sessions.Restore(s); err != nil {
		writeError(w, statusOf(err), err)
		return
	}
	writeJSON(w, http.StatusOK, h.sessions.Snapshot().Summary())
}

func (h *Handler) openapi(w http.ResponseWriter, r *http.Request) {
	doc, err := OpenAPI()
	if err != nil {
		logger.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to create openapi document", "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// view applies the window and summary query parameters to a snapshot.
func view(s session.Snapshot, r *http.Request) (session.Snapshot, error) {
	q := r.URL.Query()
	if w := q.Get("window"); w != "" {
		d, err := time.ParseDuration(w)
		if err != nil || d <= 0 {
			return s, fmt.Errorf("%w: invalid window %q", ErrBadRequest, w)
		}
		s = s.Since(s.Taken.Add(-d))
	}
	if q.Has("summary") {
		summary, err := strconv.ParseBool(q.Get("summary"))
		if err != nil {
			return s, fmt.Errorf("%w: invalid summary flag %q", ErrBadRequest, q.Get("summary"))
		}
		if summary {
			s = s.Summary()
		}
	}
	return s, nil
}

// export renders the session in the requested format as an attachment.
func export(w http.ResponseWriter, r *http.Request, s *session.Snapshot) {
	f, err := store.ParseExportFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var buf bytes.Buffer
	if err := store.Export(&buf, s, f); err != nil {
		logger.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to export session", "format", f, "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", f.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", store.ExportName(s, f)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, session.ErrInvalidTransition), errors.Is(err, ErrNoSession):
		return http.StatusConflict
	case errors.Is(err, session.ErrInvalidTarget), errors.Is(err, session.ErrInvalidInterval),
		errors.Is(err, store.ErrUnknownFormat), errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrPersistence):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(b)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: err.Error()})
}
