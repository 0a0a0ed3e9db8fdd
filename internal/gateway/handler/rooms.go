package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"boron/internal/gateway/middleware"
	"boron/internal/gateway/repository/roomstore"
)

type RoomsHandler struct {
	rooms *roomstore.Store
}

func NewRoomsHandler(rooms *roomstore.Store) *RoomsHandler {
	return &RoomsHandler{rooms: rooms}
}

func (h *RoomsHandler) HandleRooms(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listRooms(w, r)
	case http.MethodPost:
		h.createRoom(w, r)
	case http.MethodDelete:
		h.deleteRoom(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *RoomsHandler) listRooms(w http.ResponseWriter, r *http.Request) {
	session, _ := middleware.SessionFrom(r.Context())
	writeJSON(w, map[string]any{
		"rooms": h.rooms.ListRooms(session.UserID),
	})
}

func (h *RoomsHandler) createRoom(w http.ResponseWriter, r *http.Request) {
	session, _ := middleware.SessionFrom(r.Context())
	var in struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	room, err := h.rooms.CreateRoom(in.Name, session.UserID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"room": room})
}

func (h *RoomsHandler) deleteRoom(w http.ResponseWriter, r *http.Request) {
	roomID := strings.TrimSpace(r.URL.Query().Get("roomId"))
	if roomID == "" {
		http.Error(w, "roomId is required", http.StatusBadRequest)
		return
	}
	if !h.rooms.DeleteRoom(roomID) {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]any{"ok": true})
}

func (h *RoomsHandler) HandleTurns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	roomID := strings.TrimSpace(r.URL.Query().Get("roomId"))
	if roomID == "" {
		http.Error(w, "roomId is required", http.StatusBadRequest)
		return
	}
	if _, ok := h.rooms.GetRoom(roomID); !ok {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]any{
		"roomId": roomID,
		"turns":  h.rooms.ListTurns(roomID),
	})
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}
