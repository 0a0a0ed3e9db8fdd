package generate

import (
	"context"
	"encoding/json"

	"boron/internal/artifact"
)

type EventKind string

const (
	// EventPartial carries a freshly parsed partial artifact.
	EventPartial EventKind = "partial"
	// EventDecline carries the plain-text answer for an out-of-scope request.
	EventDecline EventKind = "decline"
	// EventError is terminal; the stream closes after it.
	EventError EventKind = "error"
	// EventDone is terminal and carries the final artifact.
	EventDone EventKind = "done"
)

type Event struct {
	Kind     EventKind
	Response artifact.Response
	// NewSteps holds the indices that appeared since the previous partial.
	NewSteps map[int]struct{}
	// Text is the decline answer or the error message.
	Text string
	// Raw is the latest full serialization of the artifact payload.
	Raw json.RawMessage
}

// Stream is the live handle for one generation turn. Events arrive in
// order on Events(); the channel closes after a terminal event.
type Stream struct {
	RoomID string
	TurnID string
	events chan Event
}

func newStream(roomID string) *Stream {
	return &Stream{
		RoomID: roomID,
		events: make(chan Event, 16),
	}
}

func (s *Stream) Events() <-chan Event {
	return s.events
}

func (s *Stream) emit(ctx context.Context, ev Event) bool {
	select {
	case s.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

func (s *Stream) close() {
	close(s.events)
}
