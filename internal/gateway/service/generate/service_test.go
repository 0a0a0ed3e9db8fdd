package generate

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	genai "google.golang.org/genai"

	"boron/internal/gateway/repository/roomstore"
	"boron/internal/gateway/repository/snapshot"
	"boron/internal/llm"
	"boron/internal/tester"
)

const finalArtifact = `{"boronArtifact":{"boronActions":[` +
	`{"type":"file","filePath":"package.json","content":"{\n  \"name\": \"todo\"\n}"},` +
	`{"type":"file","filePath":"src/App.tsx","content":"export default function App() { return <div>todo</div> }"}` +
	`]}}`

func newFixture(t *testing.T, fake *llm.FakeClient) (*Service, *roomstore.Store, *snapshot.MemoryStore, roomstore.Room) {
	t.Helper()
	rooms := roomstore.New(filepath.Join(t.TempDir(), "rooms.json"))
	snaps := snapshot.NewMemoryStore()
	svc := New(Deps{LLM: fake, Rooms: rooms, Snapshots: snaps})
	room, err := rooms.CreateRoom("New room", "user-1")
	tester.NoErr(t, err)
	return svc, rooms, snaps, room
}

func collect(t *testing.T, s *Stream) []Event {
	t.Helper()
	var out []Event
	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-s.Events():
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-deadline:
			t.Fatalf("stream did not close, got %d events", len(out))
		}
	}
}

func TestStartRejectsBadRequests(t *testing.T) {
	fake := &llm.FakeClient{Decision: true, Chunks: []string{finalArtifact}}
	svc, _, _, room := newFixture(t, fake)
	ctx := context.Background()

	_, err := svc.Start(ctx, Session{}, room.ID, "build a todo app")
	tester.Eq(t, err, ErrUnauthorized)

	_, err = svc.Start(ctx, Session{UserID: "user-1"}, "missing", "build a todo app")
	tester.Eq(t, err, ErrRoomNotFound)

	_, err = svc.Start(ctx, Session{UserID: "user-1"}, room.ID, "   ")
	tester.Eq(t, err, ErrEmptyInput)
}

func TestDeclineFlow(t *testing.T) {
	fake := &llm.FakeClient{Decision: false, DeclineText: "I can only help with React projects."}
	svc, rooms, _, room := newFixture(t, fake)

	stream, err := svc.Start(context.Background(), Session{UserID: "user-1"}, room.ID, "what is the weather")
	tester.NoErr(t, err)

	events := collect(t, stream)
	tester.Eq(t, len(events), 1)
	tester.Eq(t, events[0].Kind, EventDecline)
	tester.Eq(t, events[0].Text, "I can only help with React projects.")

	turns := rooms.ListTurns(room.ID)
	tester.Eq(t, len(turns), 2)
	tester.Eq(t, turns[0].Sender, roomstore.SenderUser)
	tester.Eq(t, turns[1].Sender, roomstore.SenderAssistant)
	tester.Eq(t, turns[1].Content, "I can only help with React projects.")
}

func TestGenerateFlow(t *testing.T) {
	// Truncated prefixes the repair pass has to close before parsing.
	fake := &llm.FakeClient{
		Decision: true,
		Title:    "Todo app scaffold",
		Chunks: []string{
			finalArtifact[:90],
			finalArtifact[:200],
			finalArtifact,
		},
		Final: finalArtifact,
	}
	svc, rooms, snaps, room := newFixture(t, fake)
	ctx := context.Background()

	stream, err := svc.Start(ctx, Session{UserID: "user-1"}, room.ID, "build a todo app")
	tester.NoErr(t, err)

	events := collect(t, stream)
	tester.True(t, len(events) >= 2, "want partials plus done")

	last := events[len(events)-1]
	tester.Eq(t, last.Kind, EventDone)
	tester.Eq(t, len(last.Response.Steps), 2)
	tester.Eq(t, last.Response.Steps[0].FilePath, "package.json")
	tester.Eq(t, last.Response.Steps[1].FilePath, "src/App.tsx")

	prevSteps := 0
	for _, ev := range events[:len(events)-1] {
		tester.Eq(t, ev.Kind, EventPartial)
		tester.True(t, len(ev.Response.Steps) >= prevSteps, "steps never shrink across partials")
		prevSteps = len(ev.Response.Steps)
	}

	turns := rooms.ListTurns(room.ID)
	tester.Eq(t, len(turns), 2)
	tester.Eq(t, turns[1].Sender, roomstore.SenderAssistant)
	tester.True(t, json.Valid([]byte(turns[1].Content)), "assistant turn stores the raw artifact")

	paths, err := snaps.List(ctx, room.ID)
	tester.NoErr(t, err)
	tester.Eq(t, len(paths), 2)

	waitFor(t, func() bool {
		got, _ := rooms.GetRoom(room.ID)
		return got.Name == "Todo app scaffold"
	}, "room renamed from summary")
}

func TestRenameOnlyOnFirstGeneration(t *testing.T) {
	fake := &llm.FakeClient{
		Decision: true,
		Title:    "Todo app scaffold",
		Chunks:   []string{finalArtifact},
	}
	svc, rooms, _, room := newFixture(t, fake)
	ctx := context.Background()

	first, err := svc.Start(ctx, Session{UserID: "user-1"}, room.ID, "build a todo app")
	tester.NoErr(t, err)
	collect(t, first)

	waitFor(t, func() bool {
		got, _ := rooms.GetRoom(room.ID)
		return got.Name == "Todo app scaffold"
	}, "room renamed after first generation")

	waitFor(t, func() bool {
		second, err := svc.Start(ctx, Session{UserID: "user-1"}, room.ID, "add a delete button")
		if err != nil {
			return false
		}
		collect(t, second)
		return true
	}, "second turn ran")

	got, _ := rooms.GetRoom(room.ID)
	tester.Eq(t, got.Name, "Todo app scaffold")

	summarizes := 0
	for _, phase := range fake.Calls() {
		if phase == "summarize" {
			summarizes++
		}
	}
	tester.Eq(t, summarizes, 1)
}

func TestSummarizeFailureNeverFailsTurn(t *testing.T) {
	fake := &llm.FakeClient{Decision: true, Chunks: []string{finalArtifact}, FailPhase: "summarize"}
	svc, rooms, _, room := newFixture(t, fake)

	stream, err := svc.Start(context.Background(), Session{UserID: "user-1"}, room.ID, "build a todo app")
	tester.NoErr(t, err)

	events := collect(t, stream)
	tester.Eq(t, events[len(events)-1].Kind, EventDone)

	got, _ := rooms.GetRoom(room.ID)
	tester.Eq(t, got.Name, "New room")
}

func TestGenerateErrorSurfacesOnStream(t *testing.T) {
	fake := &llm.FakeClient{Decision: true, FailPhase: "generate"}
	roomsPath := filepath.Join(t.TempDir(), "rooms.json")
	rooms := roomstore.New(roomsPath)
	svc := New(Deps{LLM: fake, Rooms: rooms, Snapshots: snapshot.NewMemoryStore()})
	room, err := rooms.CreateRoom("New room", "user-1")
	tester.NoErr(t, err)

	stream, err := svc.Start(context.Background(), Session{UserID: "user-1"}, room.ID, "build a todo app")
	tester.NoErr(t, err)

	events := collect(t, stream)
	tester.Eq(t, len(events), 1)
	tester.Eq(t, events[0].Kind, EventError)
	tester.True(t, events[0].Text != "", "error event carries a message")

	// The detached rename goroutine still writes rooms.json after the
	// stream closes on error; wait for the flush so the TempDir cleanup
	// does not race it.
	waitFor(t, func() bool {
		b, err := os.ReadFile(roomsPath)
		return err == nil && strings.Contains(string(b), "Untitled project")
	}, "rename flushed to disk")
}

func TestInFlightGuard(t *testing.T) {
	gate := make(chan struct{})
	fake := &gatedClient{
		FakeClient: llm.FakeClient{Decision: true, Chunks: []string{finalArtifact}},
		gate:       gate,
	}
	svc, _, _, room := newFixture(t, &fake.FakeClient)
	svc.llm = fake

	first, err := svc.Start(context.Background(), Session{UserID: "user-1"}, room.ID, "build a todo app")
	tester.NoErr(t, err)

	_, err = svc.Start(context.Background(), Session{UserID: "user-1"}, room.ID, "another one")
	tester.Eq(t, err, ErrTurnInFlight)

	close(gate)
	collect(t, first)

	// Guard released after the stream closes.
	waitFor(t, func() bool {
		s, err := svc.Start(context.Background(), Session{UserID: "user-1"}, room.ID, "third")
		if err != nil {
			return false
		}
		collect(t, s)
		return true
	}, "guard released after completion")
}

// gatedClient blocks the streaming phase until the gate opens.
type gatedClient struct {
	llm.FakeClient
	gate chan struct{}
}

func (g *gatedClient) GenerateJSONStream(ctx context.Context, system, prompt string, schema *genai.Schema, onChunk func(string)) (json.RawMessage, error) {
	select {
	case <-g.gate:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return g.FakeClient.GenerateJSONStream(ctx, system, prompt, schema, onChunk)
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting: %s", msg)
}
