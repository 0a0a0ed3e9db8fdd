package roomstore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

type fileSnapshot struct {
	Rooms []Room `json:"rooms"`
	Turns []Turn `json:"turns"`
}

func (s *Store) ensureLoadedFile() {
	s.loadOnce.Do(func() {
		b, err := os.ReadFile(s.path)
		if err != nil {
			return
		}
		var snap fileSnapshot
		if err := json.Unmarshal(b, &snap); err != nil {
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		for _, room := range snap.Rooms {
			id := strings.TrimSpace(room.ID)
			if id == "" {
				continue
			}
			s.rooms[id] = normalizeRoom(room)
		}
		for _, turn := range snap.Turns {
			roomID := strings.TrimSpace(turn.RoomID)
			if roomID == "" {
				continue
			}
			s.turns[roomID] = append(s.turns[roomID], turn)
		}
		for roomID := range s.turns {
			list := s.turns[roomID]
			sort.SliceStable(list, func(i, j int) bool {
				return list[i].CreatedAt.Before(list[j].CreatedAt)
			})
			s.turns[roomID] = list
		}
	})
}

func (s *Store) saveFile() {
	s.ensureLoadedFile()
	s.mu.RLock()
	snap := fileSnapshot{
		Rooms: make([]Room, 0, len(s.rooms)),
		Turns: make([]Turn, 0, 64),
	}
	for _, room := range s.rooms {
		snap.Rooms = append(snap.Rooms, normalizeRoom(room))
	}
	for _, list := range s.turns {
		snap.Turns = append(snap.Turns, list...)
	}
	s.mu.RUnlock()

	sort.Slice(snap.Rooms, func(i, j int) bool { return snap.Rooms[i].CreatedAt.Before(snap.Rooms[j].CreatedAt) })
	sort.SliceStable(snap.Turns, func(i, j int) bool { return snap.Turns[i].CreatedAt.Before(snap.Turns[j].CreatedAt) })

	b, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return
	}
	_ = os.MkdirAll(filepath.Dir(s.path), 0o755)
	_ = os.WriteFile(s.path, b, 0o644)
}

func (s *Store) createRoomFile(name, userID string) (Room, error) {
	s.ensureLoadedFile()
	room := normalizeRoom(Room{
		ID:        uuid.NewString(),
		Name:      name,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	})
	s.mu.Lock()
	s.rooms[room.ID] = room
	s.mu.Unlock()
	s.saveFile()
	return room, nil
}

func (s *Store) getRoomFile(roomID string) (Room, bool) {
	s.ensureLoadedFile()
	id := strings.TrimSpace(roomID)
	if id == "" {
		return Room{}, false
	}
	s.mu.RLock()
	room, ok := s.rooms[id]
	s.mu.RUnlock()
	if !ok {
		return Room{}, false
	}
	return room, true
}

func (s *Store) listRoomsFile(userID string) []Room {
	s.ensureLoadedFile()
	uid := strings.TrimSpace(userID)
	s.mu.RLock()
	out := make([]Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		if uid != "" && room.UserID != uid {
			continue
		}
		out = append(out, room)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (s *Store) renameRoomFile(roomID, newName string) (Room, bool) {
	s.ensureLoadedFile()
	id := strings.TrimSpace(roomID)
	s.mu.Lock()
	room, ok := s.rooms[id]
	if ok {
		room.Name = strings.TrimSpace(newName)
		room = normalizeRoom(room)
		s.rooms[id] = room
	}
	s.mu.Unlock()
	if !ok {
		return Room{}, false
	}
	s.saveFile()
	return room, true
}

func (s *Store) deleteRoomFile(roomID string) bool {
	s.ensureLoadedFile()
	id := strings.TrimSpace(roomID)
	s.mu.Lock()
	_, ok := s.rooms[id]
	if ok {
		delete(s.rooms, id)
		delete(s.turns, id)
	}
	s.mu.Unlock()
	if ok {
		s.saveFile()
	}
	return ok
}

func (s *Store) appendTurnFile(roomID string, sender Sender, content, userID string) (Turn, error) {
	s.ensureLoadedFile()
	id := strings.TrimSpace(roomID)
	if id == "" {
		return Turn{}, ErrNotFound
	}
	turn := Turn{
		ID:        uuid.NewString(),
		RoomID:    id,
		Sender:    sender,
		Content:   content,
		UserID:    strings.TrimSpace(userID),
		CreatedAt: time.Now().UTC(),
	}
	s.mu.Lock()
	s.turns[id] = append(s.turns[id], turn)
	s.mu.Unlock()
	s.saveFile()
	return turn, nil
}

func (s *Store) listTurnsFile(roomID string) []Turn {
	s.ensureLoadedFile()
	id := strings.TrimSpace(roomID)
	s.mu.RLock()
	out := append([]Turn(nil), s.turns[id]...)
	s.mu.RUnlock()
	return out
}

func (s *Store) lastAssistantTurnFile(roomID string) (Turn, bool) {
	s.ensureLoadedFile()
	id := strings.TrimSpace(roomID)
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := s.turns[id]
	for i := len(list) - 1; i >= 0; i-- {
		if list[i].Sender == SenderAssistant {
			return list[i], true
		}
	}
	return Turn{}, false
}
