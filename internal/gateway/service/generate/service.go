package generate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"boron/internal/artifact"
	"boron/internal/gateway/prompts"
	"boron/internal/gateway/repository/roomstore"
	"boron/internal/gateway/repository/snapshot"
	"boron/internal/llm"
	"boron/internal/util/jsonutil"
)

var (
	ErrUnauthorized = errors.New("generate: session is not authorized")
	ErrRoomNotFound = errors.New("generate: room not found")
	ErrEmptyInput   = errors.New("generate: input is required")
	// ErrTurnInFlight rejects a second concurrent turn on the same room.
	ErrTurnInFlight = errors.New("generate: a turn is already running for this room")
)

// Session is the verified caller identity attached by the middleware.
type Session struct {
	UserID string
	Token  string
}

// Service runs one generation turn end to end: classify, decline or
// stream the artifact, persist turns, rename the room on first use.
type Service struct {
	llm       llm.Client
	rooms     *roomstore.Store
	snapshots snapshot.Store

	mu       sync.Mutex
	inFlight map[string]struct{}
}

type Deps struct {
	LLM       llm.Client
	Rooms     *roomstore.Store
	Snapshots snapshot.Store
}

func New(deps Deps) *Service {
	return &Service{
		llm:       deps.LLM,
		rooms:     deps.Rooms,
		snapshots: deps.Snapshots,
		inFlight:  make(map[string]struct{}),
	}
}

// Start validates the request synchronously and launches the turn in the
// background. The returned stream delivers ordered events and closes
// after a terminal one.
func (s *Service) Start(ctx context.Context, session Session, roomID, input string) (*Stream, error) {
	if s == nil || s.llm == nil || s.rooms == nil {
		return nil, fmt.Errorf("generate: service is not configured")
	}
	if strings.TrimSpace(session.UserID) == "" {
		return nil, ErrUnauthorized
	}
	roomID = strings.TrimSpace(roomID)
	if roomID == "" {
		return nil, ErrRoomNotFound
	}
	if _, ok := s.rooms.GetRoom(roomID); !ok {
		return nil, ErrRoomNotFound
	}
	if strings.TrimSpace(input) == "" {
		return nil, ErrEmptyInput
	}
	if !s.acquire(roomID) {
		return nil, ErrTurnInFlight
	}

	stream := newStream(roomID)
	go func() {
		defer s.release(roomID)
		defer stream.close()
		s.runTurn(ctx, session, stream, roomID, input)
	}()
	return stream, nil
}

func (s *Service) acquire(roomID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[roomID]; busy {
		return false
	}
	s.inFlight[roomID] = struct{}{}
	return true
}

func (s *Service) release(roomID string) {
	s.mu.Lock()
	delete(s.inFlight, roomID)
	s.mu.Unlock()
}

func (s *Service) runTurn(ctx context.Context, session Session, stream *Stream, roomID, input string) {
	if _, err := s.rooms.AppendTurn(roomID, roomstore.SenderUser, input, session.UserID); err != nil {
		s.fail(ctx, stream, fmt.Errorf("persist user turn: %w", err))
		return
	}

	inScope, err := s.classify(ctx, input)
	if err != nil {
		s.fail(ctx, stream, fmt.Errorf("classify: %w", err))
		return
	}
	if !inScope {
		s.decline(ctx, stream, roomID, input)
		return
	}

	tpl, ok := prompts.Find("react")
	if !ok {
		s.fail(ctx, stream, fmt.Errorf("react template is not registered"))
		return
	}

	lastAssistant := ""
	prev, hasPrev := s.rooms.LastAssistantTurn(roomID)
	if hasPrev {
		lastAssistant = prev.Content
	}
	if !hasPrev {
		// The first generation names the room; later turns keep the
		// title. Best-effort, never joined with the turn's outcome.
		go s.renameRoom(roomID, input)
	}

	var tracker artifact.Tracker
	var latest json.RawMessage
	onChunk := func(accumulated string) {
		repaired, ok := jsonutil.CompletePartial([]byte(accumulated))
		if !ok {
			return
		}
		resp, err := artifact.Parse(repaired)
		if err != nil {
			// Incomplete prefix closed into a shape the parser rejects;
			// the next chunk supersedes it.
			return
		}
		merged, added := tracker.Apply(resp.Steps)
		latest = repaired
		resp.Steps = merged
		resp.Metadata.TotalSteps = len(merged)
		stream.emit(ctx, Event{
			Kind:     EventPartial,
			Response: resp,
			NewSteps: added,
			Raw:      repaired,
		})
	}

	final, err := s.llm.GenerateJSONStream(
		llm.WithPhase(ctx, "generate"),
		tpl.System(lastAssistant),
		input,
		tpl.Schema,
		onChunk,
	)
	if err != nil {
		s.fail(ctx, stream, fmt.Errorf("generate: %w", err))
		return
	}
	if len(final) == 0 {
		final = latest
	}

	resp, err := artifact.Parse(final)
	if err != nil {
		s.fail(ctx, stream, err)
		return
	}

	turn, err := s.rooms.AppendTurn(roomID, roomstore.SenderAssistant, string(final), "")
	if err != nil {
		s.fail(ctx, stream, fmt.Errorf("persist assistant turn: %w", err))
		return
	}
	stream.TurnID = turn.ID

	if s.snapshots != nil {
		if err := snapshot.PutSteps(ctx, s.snapshots, roomID, resp.Steps); err != nil {
			log.Printf("[generate] snapshot room=%s: %v", roomID, err)
		}
	}

	stream.emit(ctx, Event{
		Kind:     EventDone,
		Response: resp,
		Raw:      final,
	})
}

func (s *Service) classify(ctx context.Context, input string) (bool, error) {
	raw, err := s.llm.GenerateJSON(llm.WithPhase(ctx, "classify"), prompts.ClassifySystem, input, prompts.DecisionSchema)
	if err != nil {
		return false, err
	}
	var out struct {
		Decision bool `json:"decision"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return false, fmt.Errorf("decode decision: %w", err)
	}
	return out.Decision, nil
}

func (s *Service) decline(ctx context.Context, stream *Stream, roomID, input string) {
	text, err := s.llm.GenerateText(llm.WithPhase(ctx, "decline"), prompts.DeclineSystem, input)
	if err != nil {
		s.fail(ctx, stream, fmt.Errorf("decline: %w", err))
		return
	}
	turn, err := s.rooms.AppendTurn(roomID, roomstore.SenderAssistant, text, "")
	if err != nil {
		s.fail(ctx, stream, fmt.Errorf("persist assistant turn: %w", err))
		return
	}
	stream.TurnID = turn.ID
	stream.emit(ctx, Event{Kind: EventDecline, Text: text})
}

// renameRoom is best effort; a failed summarization only logs.
func (s *Service) renameRoom(roomID, input string) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	raw, err := s.llm.GenerateJSON(llm.WithPhase(ctx, "summarize"), prompts.SummarizeSystem, input, prompts.SummarizeSchema)
	if err != nil {
		log.Printf("[generate] summarize room=%s: %v", roomID, err)
		return
	}
	var out struct {
		Summarized string `json:"summarized"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		log.Printf("[generate] decode summary room=%s: %v", roomID, err)
		return
	}
	title := strings.TrimSpace(out.Summarized)
	if title == "" {
		return
	}
	if _, ok := s.rooms.RenameRoom(roomID, title); !ok {
		log.Printf("[generate] rename room=%s: room disappeared", roomID)
	}
}

func (s *Service) fail(ctx context.Context, stream *Stream, err error) {
	log.Printf("[generate] room=%s: %v", stream.RoomID, err)
	stream.emit(ctx, Event{Kind: EventError, Text: err.Error()})
}
