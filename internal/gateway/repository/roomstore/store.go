// Package roomstore persists rooms and their turn logs. It runs on
// Postgres when a DSN is configured and falls back to a JSON file for
// local development; both backends expose the same operations.
package roomstore

import (
	"database/sql"
	"errors"
	"os"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "github.com/jackc/pgx/v5/stdlib"
)

var ErrNotFound = errors.New("roomstore: not found")

type Store struct {
	path string
	db   *sql.DB

	loadOnce sync.Once
	mu       sync.RWMutex
	rooms    map[string]Room
	turns    map[string][]Turn

	schemaOnce sync.Once
	schemaErr  error

	// lastAssistantCache keys by room id; invalidated on append.
	lastAssistantCache *lru.Cache[string, Turn]
}

func New(path string) *Store {
	return &Store{
		path:  path,
		rooms: make(map[string]Room),
		turns: make(map[string][]Turn),
	}
}

func NewPostgres(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	cache, err := lru.New[string, Turn](1024)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{
		db:                 db,
		lastAssistantCache: cache,
	}, nil
}

// NewFromEnv prefers ROOM_STORE_PG_DSN and falls back to the file path.
func NewFromEnv(path string) *Store {
	dsn := strings.TrimSpace(os.Getenv("ROOM_STORE_PG_DSN"))
	if dsn == "" {
		return New(path)
	}
	s, err := NewPostgres(dsn)
	if err != nil {
		return New(path)
	}
	return s
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) CreateRoom(name, userID string) (Room, error) {
	if s == nil {
		return Room{}, ErrNotFound
	}
	if s.db != nil {
		return s.createRoomDB(name, userID)
	}
	return s.createRoomFile(name, userID)
}

func (s *Store) GetRoom(roomID string) (Room, bool) {
	if s == nil {
		return Room{}, false
	}
	if s.db != nil {
		return s.getRoomDB(roomID)
	}
	return s.getRoomFile(roomID)
}

func (s *Store) ListRooms(userID string) []Room {
	if s == nil {
		return nil
	}
	if s.db != nil {
		return s.listRoomsDB(userID)
	}
	return s.listRoomsFile(userID)
}

func (s *Store) RenameRoom(roomID, newName string) (Room, bool) {
	if s == nil {
		return Room{}, false
	}
	if s.db != nil {
		return s.renameRoomDB(roomID, newName)
	}
	return s.renameRoomFile(roomID, newName)
}

func (s *Store) DeleteRoom(roomID string) bool {
	if s == nil {
		return false
	}
	if s.lastAssistantCache != nil {
		s.lastAssistantCache.Remove(strings.TrimSpace(roomID))
	}
	if s.db != nil {
		return s.deleteRoomDB(roomID)
	}
	return s.deleteRoomFile(roomID)
}

func (s *Store) AppendTurn(roomID string, sender Sender, content, userID string) (Turn, error) {
	if s == nil {
		return Turn{}, ErrNotFound
	}
	if s.lastAssistantCache != nil && sender == SenderAssistant {
		s.lastAssistantCache.Remove(strings.TrimSpace(roomID))
	}
	if s.db != nil {
		return s.appendTurnDB(roomID, sender, content, userID)
	}
	return s.appendTurnFile(roomID, sender, content, userID)
}

func (s *Store) ListTurns(roomID string) []Turn {
	if s == nil {
		return nil
	}
	if s.db != nil {
		return s.listTurnsDB(roomID)
	}
	return s.listTurnsFile(roomID)
}

// LastAssistantTurn returns the most recent assistant turn of the room,
// by recency rather than explicit linkage.
func (s *Store) LastAssistantTurn(roomID string) (Turn, bool) {
	if s == nil {
		return Turn{}, false
	}
	if s.db != nil {
		id := strings.TrimSpace(roomID)
		if s.lastAssistantCache != nil {
			if cached, ok := s.lastAssistantCache.Get(id); ok {
				return cached, true
			}
		}
		turn, ok := s.lastAssistantTurnDB(id)
		if ok && s.lastAssistantCache != nil {
			s.lastAssistantCache.Add(id, turn)
		}
		return turn, ok
	}
	return s.lastAssistantTurnFile(roomID)
}
