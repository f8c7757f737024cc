// Package api provides HTTP handlers for the call assistant API.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/mkorolev/callcue/internal/call"
	"github.com/mkorolev/callcue/internal/domain"
	"github.com/mkorolev/callcue/internal/store"
)

// Handler provides common handler dependencies.
type Handler struct {
	repo  store.Repository
	sched *call.Scheduler
}

// NewHandler creates a new Handler with common dependencies.
func NewHandler(repo store.Repository, sched *call.Scheduler) *Handler {
	return &Handler{repo: repo, sched: sched}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// RegisterRoutes registers the settings and call routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/settings", h.GetSettings)
		r.Put("/settings", h.UpdateSettings)
		r.Get("/call", h.GetCall)
		r.Post("/call/start", h.StartCall)
		r.Post("/call/end", h.EndCall)
		r.Post("/call/message", h.SendMessage)
	})
}

// GetSettings returns the settings currently in effect.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, h.sched.Settings())
}

// UpdateSettings validates, persists, and applies new settings. The running
// call picks them up on its next decision.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var settings domain.Settings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		Error(w, http.StatusBadRequest, "invalid settings payload")
		return
	}

	settings.Normalize()
	if err := settings.Validate(); err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.repo.SaveSettings(r.Context(), settings); err != nil {
		slog.Error("Failed to persist settings", "error", err)
		Error(w, http.StatusInternalServerError, "failed to save settings")
		return
	}

	h.sched.UpdateSettings(settings)
	JSON(w, http.StatusOK, settings)
}

// GetCall returns the current call state and conversation snapshot.
func (h *Handler) GetCall(w http.ResponseWriter, r *http.Request) {
	state, conv := h.sched.Snapshot()
	JSON(w, http.StatusOK, map[string]interface{}{
		"state":        state,
		"conversation": conv,
	})
}

// StartCall begins a new call session.
func (h *Handler) StartCall(w http.ResponseWriter, r *http.Request) {
	conv := h.sched.StartCall()
	slog.Info("Call start requested", "call_id", conv.ID, "ip", r.RemoteAddr)
	JSON(w, http.StatusOK, map[string]interface{}{
		"state":        domain.CallActive,
		"conversation": conv,
	})
}

// EndCall stops the active call session.
func (h *Handler) EndCall(w http.ResponseWriter, r *http.Request) {
	if err := h.sched.EndCall(); err != nil {
		if errors.Is(err, call.ErrNoActiveCall) {
			Error(w, http.StatusConflict, "no active call")
			return
		}
		slog.Error("Failed to end call", "error", err)
		Error(w, http.StatusInternalServerError, "failed to end call")
		return
	}
	JSON(w, http.StatusOK, map[string]string{"status": "ended"})
}

type sendMessageRequest struct {
	Text string `json:"text"`
}

// SendMessage forwards a free-text user message to the active call.
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid message payload")
		return
	}

	req.Text = strings.TrimSpace(req.Text)
	if req.Text == "" {
		Error(w, http.StatusBadRequest, "message text is required")
		return
	}

	if err := h.sched.SendMessage(req.Text); err != nil {
		if errors.Is(err, call.ErrNoActiveCall) {
			Error(w, http.StatusConflict, "no active call")
			return
		}
		slog.Error("Failed to send message", "error", err)
		Error(w, http.StatusInternalServerError, "failed to send message")
		return
	}
	JSON(w, http.StatusOK, map[string]string{"status": "accepted"})
}

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	repo store.Repository
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(repo store.Repository) *HealthHandler {
	return &HealthHandler{repo: repo}
}

// Health returns the health status of the API and its dependencies.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status": "healthy",
		"checks": map[string]string{"api": "ok"},
	}
	statusCode := http.StatusOK

	if err := h.repo.Ping(r.Context()); err != nil {
		slog.Error("Health check failed", "error", err)
		status["status"] = "degraded"
		status["checks"].(map[string]string)["database"] = "unreachable"
		statusCode = http.StatusServiceUnavailable
	} else {
		status["checks"].(map[string]string)["database"] = "ok"
	}

	JSON(w, statusCode, status)
}

// RegisterHealth registers the health check route.
func (h *HealthHandler) RegisterHealth(r chi.Router) {
	r.Get("/health", h.Health)
}
