package roomstore

import (
	"strings"
	"time"
)

// Sender distinguishes the two sides of a turn log.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// Room is one persistent conversation/project context: an id, a display
// name and an append-only turn log.
type Room struct {
	ID        string    `json:"room_id"`
	Name      string    `json:"room_name"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Turn is one message of a room's log. Assistant turns carry the full
// serialized artifact of a generation, user turns the raw input.
type Turn struct {
	ID        string    `json:"id"`
	RoomID    string    `json:"room_id"`
	Sender    Sender    `json:"sender"`
	Content   string    `json:"content"`
	UserID    string    `json:"user_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func normalizeRoom(room Room) Room {
	room.ID = strings.TrimSpace(room.ID)
	room.Name = strings.TrimSpace(room.Name)
	room.UserID = strings.TrimSpace(room.UserID)
	if room.Name == "" {
		room.Name = "New room"
	}
	return room
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRoom(row rowScanner) (Room, bool) {
	var room Room
	err := row.Scan(&room.ID, &room.Name, &room.UserID, &room.CreatedAt)
	if err != nil {
		return Room{}, false
	}
	return normalizeRoom(room), true
}

func scanTurn(row rowScanner) (Turn, bool) {
	var turn Turn
	err := row.Scan(&turn.ID, &turn.RoomID, &turn.Sender, &turn.Content, &turn.UserID, &turn.CreatedAt)
	if err != nil {
		return Turn{}, false
	}
	return turn, true
}
