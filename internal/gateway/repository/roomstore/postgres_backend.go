package roomstore

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

func (s *Store) ensureSchema() error {
	if s == nil || s.db == nil {
		return nil
	}
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.Exec(`
CREATE TABLE IF NOT EXISTS rooms (
  room_id TEXT PRIMARY KEY,
  room_name TEXT NOT NULL DEFAULT 'New room',
  user_id TEXT NOT NULL DEFAULT '',
  created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS turns (
  id TEXT PRIMARY KEY,
  room_id TEXT NOT NULL REFERENCES rooms (room_id) ON DELETE CASCADE,
  sender TEXT NOT NULL,
  content TEXT NOT NULL DEFAULT '',
  user_id TEXT NOT NULL DEFAULT '',
  created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_turns_room_id ON turns (room_id, created_at);
`)
	})
	return s.schemaErr
}

func (s *Store) createRoomDB(name, userID string) (Room, error) {
	if err := s.ensureSchema(); err != nil {
		return Room{}, err
	}
	room := normalizeRoom(Room{
		ID:        uuid.NewString(),
		Name:      name,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	})
	_, err := s.db.Exec(`
INSERT INTO rooms (room_id, room_name, user_id, created_at)
VALUES ($1,$2,$3,$4)`,
		room.ID, room.Name, room.UserID, room.CreatedAt)
	if err != nil {
		return Room{}, err
	}
	return room, nil
}

func (s *Store) getRoomDB(roomID string) (Room, bool) {
	if err := s.ensureSchema(); err != nil {
		return Room{}, false
	}
	id := strings.TrimSpace(roomID)
	if id == "" {
		return Room{}, false
	}
	row := s.db.QueryRow(`SELECT room_id, room_name, user_id, created_at
FROM rooms WHERE room_id = $1`, id)
	return scanRoom(row)
}

func (s *Store) listRoomsDB(userID string) []Room {
	if err := s.ensureSchema(); err != nil {
		return nil
	}
	uid := strings.TrimSpace(userID)
	query := `SELECT room_id, room_name, user_id, created_at FROM rooms ORDER BY created_at`
	args := []any{}
	if uid != "" {
		query = `SELECT room_id, room_name, user_id, created_at FROM rooms WHERE user_id = $1 ORDER BY created_at`
		args = append(args, uid)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil
	}
	defer rows.Close()
	out := make([]Room, 0, 32)
	for rows.Next() {
		if room, ok := scanRoom(rows); ok {
			out = append(out, room)
		}
	}
	return out
}

func (s *Store) renameRoomDB(roomID, newName string) (Room, bool) {
	if err := s.ensureSchema(); err != nil {
		return Room{}, false
	}
	id := strings.TrimSpace(roomID)
	name := strings.TrimSpace(newName)
	if id == "" || name == "" {
		return Room{}, false
	}
	row := s.db.QueryRow(`
UPDATE rooms SET room_name = $2 WHERE room_id = $1
RETURNING room_id, room_name, user_id, created_at`, id, name)
	return scanRoom(row)
}

func (s *Store) deleteRoomDB(roomID string) bool {
	if err := s.ensureSchema(); err != nil {
		return false
	}
	id := strings.TrimSpace(roomID)
	if id == "" {
		return false
	}
	res, err := s.db.Exec(`DELETE FROM rooms WHERE room_id = $1`, id)
	if err != nil {
		return false
	}
	n, _ := res.RowsAffected()
	return n > 0
}

func (s *Store) appendTurnDB(roomID string, sender Sender, content, userID string) (Turn, error) {
	if err := s.ensureSchema(); err != nil {
		return Turn{}, err
	}
	turn := Turn{
		ID:        uuid.NewString(),
		RoomID:    strings.TrimSpace(roomID),
		Sender:    sender,
		Content:   content,
		UserID:    strings.TrimSpace(userID),
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.db.Exec(`
INSERT INTO turns (id, room_id, sender, content, user_id, created_at)
VALUES ($1,$2,$3,$4,$5,$6)`,
		turn.ID, turn.RoomID, turn.Sender, turn.Content, turn.UserID, turn.CreatedAt)
	if err != nil {
		return Turn{}, err
	}
	return turn, nil
}

func (s *Store) listTurnsDB(roomID string) []Turn {
	if err := s.ensureSchema(); err != nil {
		return nil
	}
	id := strings.TrimSpace(roomID)
	if id == "" {
		return nil
	}
	rows, err := s.db.Query(`
SELECT id, room_id, sender, content, user_id, created_at
FROM turns WHERE room_id = $1 ORDER BY created_at`, id)
	if err != nil {
		return nil
	}
	defer rows.Close()
	var out []Turn
	for rows.Next() {
		if turn, ok := scanTurn(rows); ok {
			out = append(out, turn)
		}
	}
	return out
}

func (s *Store) lastAssistantTurnDB(roomID string) (Turn, bool) {
	if err := s.ensureSchema(); err != nil {
		return Turn{}, false
	}
	if roomID == "" {
		return Turn{}, false
	}
	row := s.db.QueryRow(`
SELECT id, room_id, sender, content, user_id, created_at
FROM turns WHERE room_id = $1 AND sender = 'assistant'
ORDER BY created_at DESC LIMIT 1`, roomID)
	return scanTurn(row)
}
