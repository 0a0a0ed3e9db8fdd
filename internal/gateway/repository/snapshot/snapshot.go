package snapshot

import (
	"context"
	"errors"

	"boron/internal/artifact"
)

// Store persists the generated project files of a room so the editor can
// restore them without replaying the conversation.
type Store interface {
	Put(ctx context.Context, roomID, path string, content []byte) error
	Get(ctx context.Context, roomID, path string) ([]byte, error)
	List(ctx context.Context, roomID string) ([]string, error)
	GetURL(ctx context.Context, roomID, path string) (string, error)
}

var ErrNotFound = errors.New("snapshot file not found")

// PutSteps stores every file step of a parsed artifact under the room.
// Later steps for the same path overwrite earlier ones.
func PutSteps(ctx context.Context, s Store, roomID string, steps []artifact.Step) error {
	if s == nil {
		return errors.New("store is nil")
	}
	for _, step := range steps {
		if step.Kind != artifact.StepKindFile || step.FilePath == "" {
			continue
		}
		if err := s.Put(ctx, roomID, step.FilePath, []byte(step.Content)); err != nil {
			return err
		}
	}
	return nil
}
