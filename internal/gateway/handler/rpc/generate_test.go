package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	genai "google.golang.org/genai"

	"boron/internal/artifact"
	"boron/internal/gateway/middleware"
	"boron/internal/gateway/repository/roomstore"
	"boron/internal/gateway/repository/snapshot"
	"boron/internal/gateway/service/generate"
	"boron/internal/llm"
	"boron/internal/tester"
)

func TestMapGenerateEvent(t *testing.T) {
	partial := mapGenerateEvent(generate.Event{
		Kind: generate.EventPartial,
		Response: artifact.Response{
			Steps: []artifact.Step{
				{Kind: artifact.StepKindFile, FilePath: "a.txt", Content: "a"},
				{Kind: artifact.StepKindFile, FilePath: "b.txt", Content: "b"},
			},
			Metadata: artifact.Metadata{TotalSteps: 2},
		},
		NewSteps: map[int]struct{}{1: {}},
	})
	tester.Eq(t, partial.Type, "partial")
	tester.Eq(t, len(partial.Steps), 2)
	tester.Eq(t, partial.TotalSteps, 2)
	tester.Eq(t, len(partial.NewSteps), 1)
	tester.Eq(t, partial.NewSteps[0], 1)
	tester.True(t, partial.IsProjectCode == nil, "partial frames carry no flag")

	decline := mapGenerateEvent(generate.Event{Kind: generate.EventDecline, Text: "out of scope"})
	tester.Eq(t, decline.Type, "decline")
	tester.Eq(t, decline.Text, "out of scope")
	tester.True(t, decline.IsProjectCode != nil && !*decline.IsProjectCode, "decline is not project code")

	done := mapGenerateEvent(generate.Event{
		Kind: generate.EventDone,
		Response: artifact.Response{
			Steps:    []artifact.Step{{Kind: artifact.StepKindFile, FilePath: "a.txt"}},
			Metadata: artifact.Metadata{TotalSteps: 1},
		},
	})
	tester.Eq(t, done.Type, "done")
	tester.True(t, done.IsProjectCode != nil && *done.IsProjectCode, "done is project code")

	errFrame := mapGenerateEvent(generate.Event{Kind: generate.EventError, Text: "boom"})
	tester.Eq(t, errFrame.Type, "error")
	tester.Eq(t, errFrame.Message, "boom")
}

func TestStartErrCode(t *testing.T) {
	tester.Eq(t, startErrCode(generate.ErrUnauthorized), "unauthorized")
	tester.Eq(t, startErrCode(generate.ErrRoomNotFound), "not_found")
	tester.Eq(t, startErrCode(generate.ErrTurnInFlight), "turn_in_flight")
	tester.Eq(t, startErrCode(generate.ErrEmptyInput), "invalid_argument")
	tester.Eq(t, startErrCode(errors.New("other")), "internal")
}

const wsArtifact = `{"boronArtifact":{"boronActions":[` +
	`{"type":"file","filePath":"package.json","content":"{}"},` +
	`{"type":"file","filePath":"src/App.tsx","content":"export default function App() {}"}` +
	`]}}`

// gatedWSClient holds the streaming phase open until the gate closes.
type gatedWSClient struct {
	llm.FakeClient
	gate chan struct{}
}

func (g *gatedWSClient) GenerateJSONStream(ctx context.Context, system, prompt string, schema *genai.Schema, onChunk func(string)) (json.RawMessage, error) {
	select {
	case <-g.gate:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return g.FakeClient.GenerateJSONStream(ctx, system, prompt, schema, onChunk)
}

func readFrame(t *testing.T, conn *websocket.Conn) generateWSOutbound {
	t.Helper()
	tester.NoErr(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var out generateWSOutbound
	tester.NoErr(t, conn.ReadJSON(&out))
	return out
}

func TestGenerateWSAnswersPingMidTurn(t *testing.T) {
	gate := make(chan struct{})
	fake := &gatedWSClient{
		FakeClient: llm.FakeClient{Decision: true, Chunks: []string{wsArtifact}},
		gate:       gate,
	}
	rooms := roomstore.New(filepath.Join(t.TempDir(), "rooms.json"))
	room, err := rooms.CreateRoom("New room", "user-1")
	tester.NoErr(t, err)
	svc := generate.New(generate.Deps{
		LLM:       fake,
		Rooms:     rooms,
		Snapshots: snapshot.NewMemoryStore(),
	})

	verifier := middleware.StaticVerifier{Token: "test-token", UserID: "user-1"}
	h := middleware.Session(verifier)(http.HandlerFunc(NewGenerateHandler(svc).HandleGenerateWS))
	srv := httptest.NewServer(h)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") +
		"/?room_id=" + room.ID + "&access_token=test-token"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	tester.NoErr(t, err)
	defer conn.Close()

	tester.NoErr(t, conn.WriteJSON(map[string]string{"type": "generate", "input": "build a todo app"}))
	tester.Eq(t, readFrame(t, conn).Type, "started")

	// The turn is still held open on the gate; the read loop has to
	// keep serving inbound messages while it runs.
	tester.NoErr(t, conn.WriteJSON(map[string]string{"type": "ping"}))
	tester.Eq(t, readFrame(t, conn).Type, "pong")

	close(gate)
	var last generateWSOutbound
	for {
		last = readFrame(t, conn)
		if last.Type != "partial" {
			break
		}
	}
	tester.Eq(t, last.Type, "done")
	tester.Eq(t, last.TotalSteps, 2)
	tester.Eq(t, last.RoomID, room.ID)
}

func TestSortedIndices(t *testing.T) {
	tester.True(t, sortedIndices(nil) == nil, "empty set maps to nil")
	got := sortedIndices(map[int]struct{}{3: {}, 0: {}, 7: {}})
	tester.Eq(t, len(got), 3)
	tester.Eq(t, got[0], 0)
	tester.Eq(t, got[1], 3)
	tester.Eq(t, got[2], 7)
}
