package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"

	"aimigo/internal/core"
)

// sessionResponse is a snapshot addressed by the widget's stable handle.
type sessionResponse struct {
	ID string `json:"id"`
	core.Snapshot
}

func newSessionResponse(handle string, snap core.Snapshot) sessionResponse {
	return sessionResponse{ID: handle, Snapshot: snap}
}

type messageRequest struct {
	Text string `json:"text"`
}

// Handler serves the session API.
type Handler struct {
	registry *Registry
	hub      *Hub
	auth     *Authenticator
	logger   core.Logger
}

// NewHandler creates the session API handler.
func NewHandler(registry *Registry, hub *Hub, auth *Authenticator, logger core.Logger) *Handler {
	return &Handler{registry: registry, hub: hub, auth: auth, logger: logger}
}

// Create opens a session.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	handle, ctrl, err := h.registry.Open()
	if err != nil {
		h.logger.Error("open session", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Could not open a session", r)
		return
	}
	writeJSON(w, http.StatusCreated, newSessionResponse(handle, ctrl.Snapshot()))
}

// Get returns the current snapshot.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	handle, ctrl, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(handle, ctrl.Snapshot()))
}

// PostMessage submits user input and responds once it has been handled.
func (h *Handler) PostMessage(w http.ResponseWriter, r *http.Request) {
	handle, ctrl, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "Request body must be JSON with a text field", r)
		return
	}

	err := ctrl.Submit(r.Context(), req.Text)
	var vErr *core.ValidationError
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, newSessionResponse(handle, ctrl.Snapshot()))
	case errors.Is(err, core.ErrEmptyInput), errors.As(err, &vErr):
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error(), r)
	case core.IsRejection(err):
		writeError(w, http.StatusConflict, rejectionCode(err), err.Error(), r)
	case errors.Is(err, core.ErrClosed):
		writeError(w, http.StatusGone, "SESSION_CLOSED", err.Error(), r)
	default:
		h.logger.Error("submit failed", "handle", handle, "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Could not handle the message", r)
	}
}

// Reset restarts the conversation with a new persona.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	handle, ctrl, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if err := ctrl.Reset(); err != nil {
		writeError(w, http.StatusGone, "SESSION_CLOSED", err.Error(), r)
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(handle, ctrl.Snapshot()))
}

// Authenticate verifies the login token and lifts the gate.
func (h *Handler) Authenticate(w http.ResponseWriter, r *http.Request) {
	handle, ctrl, ok := h.lookup(w, r)
	if !ok {
		return
	}

	subject, err := h.auth.Verify(r)
	if err != nil {
		code := "UNAUTHORIZED"
		if errors.Is(err, jwt.ErrTokenExpired) {
			code = "TOKEN_EXPIRED"
		}
		writeError(w, http.StatusUnauthorized, code, err.Error(), r)
		return
	}

	if err := ctrl.Authenticate(); err != nil {
		writeError(w, http.StatusGone, "SESSION_CLOSED", err.Error(), r)
		return
	}
	h.logger.Info("session authenticated", "handle", handle, "subject", subject)
	writeJSON(w, http.StatusOK, newSessionResponse(handle, ctrl.Snapshot()))
}

// Delete closes the session.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.registry.Remove(chi.URLParam(r, "id")); err != nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error(), r)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// WebSocket streams snapshots of the session.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	handle, ctrl, ok := h.lookup(w, r)
	if !ok {
		return
	}
	h.hub.Serve(w, r, handle, ctrl.Snapshot)
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (string, *core.Controller, bool) {
	handle := chi.URLParam(r, "id")
	ctrl, err := h.registry.Get(handle)
	if err != nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error(), r)
		return "", nil, false
	}
	return handle, ctrl, true
}

func rejectionCode(err error) string {
	switch {
	case errors.Is(err, core.ErrGated):
		return "GATED"
	case errors.Is(err, core.ErrCallInFlight):
		return "REPLY_PENDING"
	case errors.Is(err, core.ErrTurnPending):
		return "QUESTION_PENDING"
	default:
		return "NOT_ACCEPTING_INPUT"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string, r *http.Request) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"code":       code,
			"message":    message,
			"request_id": r.Header.Get("X-Request-Id"),
		},
	})
}
