package handler

import (
	"errors"
	"net/http"
	"strings"

	"boron/internal/gateway/repository/snapshot"
)

// SnapshotHandler serves the persisted project files of a room so the
// editor can restore state without replaying the conversation.
type SnapshotHandler struct {
	store snapshot.Store
}

func NewSnapshotHandler(store snapshot.Store) *SnapshotHandler {
	return &SnapshotHandler{store: store}
}

func (h *SnapshotHandler) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h.store == nil {
		http.Error(w, "snapshot store is not configured", http.StatusNotImplemented)
		return
	}
	roomID := strings.TrimSpace(r.URL.Query().Get("roomId"))
	if roomID == "" {
		http.Error(w, "roomId is required", http.StatusBadRequest)
		return
	}

	path := strings.TrimSpace(r.URL.Query().Get("path"))
	if path == "" {
		paths, err := h.store.List(r.Context(), roomID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, map[string]any{
			"roomId": roomID,
			"paths":  paths,
		})
		return
	}

	content, err := h.store.Get(r.Context(), roomID, path)
	if err != nil {
		if errors.Is(err, snapshot.ErrNotFound) {
			http.Error(w, "file not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write(content)
}
