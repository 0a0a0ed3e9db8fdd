package snapshot

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string][]byte),
	}
}

func (s *MemoryStore) Put(_ context.Context, roomID, path string, content []byte) error {
	if s == nil {
		return fmt.Errorf("store is nil")
	}
	roomID = strings.TrimSpace(roomID)
	path = strings.TrimSpace(path)
	if roomID == "" {
		return fmt.Errorf("room_id is required")
	}
	if path == "" {
		return fmt.Errorf("path is required")
	}
	key := roomID + "/" + strings.TrimLeft(path, "/")
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = append([]byte(nil), content...)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, roomID, path string) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("store is nil")
	}
	roomID = strings.TrimSpace(roomID)
	path = strings.TrimSpace(path)
	if roomID == "" {
		return nil, fmt.Errorf("room_id is required")
	}
	if path == "" {
		return nil, fmt.Errorf("path is required")
	}
	key := roomID + "/" + strings.TrimLeft(path, "/")
	s.mu.RLock()
	defer s.mu.RUnlock()
	raw, ok := s.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), raw...), nil
}

func (s *MemoryStore) List(_ context.Context, roomID string) ([]string, error) {
	if s == nil {
		return nil, fmt.Errorf("store is nil")
	}
	roomID = strings.TrimSpace(roomID)
	if roomID == "" {
		return nil, fmt.Errorf("room_id is required")
	}
	prefix := roomID + "/"
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, 16)
	for key := range s.data {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		out = append(out, strings.TrimPrefix(key, prefix))
	}
	sort.Strings(out)
	return out, nil
}

func (s *MemoryStore) GetURL(_ context.Context, _, _ string) (string, error) {
	return "", nil
}
