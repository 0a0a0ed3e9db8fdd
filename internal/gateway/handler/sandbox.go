package handler

import (
	"errors"
	"net/http"

	"boron/internal/gateway/middleware"
	"boron/internal/gateway/service/sandbox"
)

// SandboxHandler manages the caller's preview instance: acquire on
// POST (idempotent per session), inspect on GET, tear down on DELETE.
type SandboxHandler struct {
	registry *sandbox.Registry
}

func NewSandboxHandler(registry *sandbox.Registry) *SandboxHandler {
	return &SandboxHandler{registry: registry}
}

func (h *SandboxHandler) HandleSandbox(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.SessionFrom(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	sessionID := session.UserID

	switch r.Method {
	case http.MethodPost:
		inst, err := h.registry.Acquire(sessionID)
		if err != nil {
			if errors.Is(err, sandbox.ErrBootFailed) {
				http.Error(w, err.Error(), http.StatusBadGateway)
				return
			}
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		url, _ := inst.URL()
		writeJSON(w, map[string]any{
			"state": inst.State(),
			"url":   url,
		})
	case http.MethodGet:
		inst, ok := h.registry.Lookup(sessionID)
		if !ok {
			http.Error(w, "no sandbox for session", http.StatusNotFound)
			return
		}
		url, _ := inst.URL()
		writeJSON(w, map[string]any{
			"state": inst.State(),
			"url":   url,
		})
	case http.MethodDelete:
		h.registry.Release(sessionID)
		writeJSON(w, map[string]any{"ok": true})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
