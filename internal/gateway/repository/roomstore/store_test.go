package roomstore

import (
	"path/filepath"
	"testing"

	"boron/internal/tester"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "rooms.json"))
}

func TestCreateAndGetRoom(t *testing.T) {
	s := newTestStore(t)
	room, err := s.CreateRoom("Todo app", "user-1")
	tester.NoErr(t, err)
	tester.True(t, room.ID != "", "room id assigned")
	tester.Eq(t, room.Name, "Todo app")

	got, ok := s.GetRoom(room.ID)
	tester.True(t, ok)
	tester.Eq(t, got.Name, "Todo app")
}

func TestCreateRoomDefaultsName(t *testing.T) {
	s := newTestStore(t)
	room, err := s.CreateRoom("   ", "")
	tester.NoErr(t, err)
	tester.Eq(t, room.Name, "New room")
}

func TestListRoomsByUser(t *testing.T) {
	s := newTestStore(t)
	_, _ = s.CreateRoom("a", "user-1")
	_, _ = s.CreateRoom("b", "user-2")
	_, _ = s.CreateRoom("c", "user-1")

	tester.Eq(t, len(s.ListRooms("")), 3)
	mine := s.ListRooms("user-1")
	tester.Eq(t, len(mine), 2)
	tester.Eq(t, mine[0].Name, "a")
	tester.Eq(t, mine[1].Name, "c")
}

func TestRenameRoom(t *testing.T) {
	s := newTestStore(t)
	room, _ := s.CreateRoom("before", "")
	renamed, ok := s.RenameRoom(room.ID, "after")
	tester.True(t, ok)
	tester.Eq(t, renamed.Name, "after")

	_, ok = s.RenameRoom("missing", "x")
	tester.False(t, ok)
}

func TestDeleteRoomDropsTurns(t *testing.T) {
	s := newTestStore(t)
	room, _ := s.CreateRoom("r", "")
	_, _ = s.AppendTurn(room.ID, SenderUser, "hello", "user-1")
	tester.True(t, s.DeleteRoom(room.ID))
	tester.False(t, s.DeleteRoom(room.ID))
	tester.Eq(t, len(s.ListTurns(room.ID)), 0)
}

func TestAppendAndListTurns(t *testing.T) {
	s := newTestStore(t)
	room, _ := s.CreateRoom("r", "")
	_, err := s.AppendTurn(room.ID, SenderUser, "make a todo app", "user-1")
	tester.NoErr(t, err)
	_, err = s.AppendTurn(room.ID, SenderAssistant, `{"boronArtifact":{}}`, "")
	tester.NoErr(t, err)

	turns := s.ListTurns(room.ID)
	tester.Eq(t, len(turns), 2)
	tester.Eq(t, turns[0].Sender, SenderUser)
	tester.Eq(t, turns[1].Sender, SenderAssistant)
}

func TestAppendTurnRequiresRoomID(t *testing.T) {
	s := newTestStore(t)
	_, err := s.AppendTurn("  ", SenderUser, "x", "")
	tester.True(t, err != nil)
}

func TestLastAssistantTurn(t *testing.T) {
	s := newTestStore(t)
	room, _ := s.CreateRoom("r", "")

	_, ok := s.LastAssistantTurn(room.ID)
	tester.False(t, ok, "no assistant turn yet")

	_, _ = s.AppendTurn(room.ID, SenderUser, "first", "")
	_, _ = s.AppendTurn(room.ID, SenderAssistant, "one", "")
	_, _ = s.AppendTurn(room.ID, SenderUser, "again", "")
	_, _ = s.AppendTurn(room.ID, SenderAssistant, "two", "")

	last, ok := s.LastAssistantTurn(room.ID)
	tester.True(t, ok)
	tester.Eq(t, last.Content, "two")
}

func TestFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rooms.json")
	s := New(path)
	room, _ := s.CreateRoom("persisted", "user-1")
	_, _ = s.AppendTurn(room.ID, SenderUser, "hello", "user-1")
	_, _ = s.AppendTurn(room.ID, SenderAssistant, "world", "")

	reopened := New(path)
	got, ok := reopened.GetRoom(room.ID)
	tester.True(t, ok)
	tester.Eq(t, got.Name, "persisted")
	turns := reopened.ListTurns(room.ID)
	tester.Eq(t, len(turns), 2)
	tester.Eq(t, turns[1].Content, "world")

	last, ok := reopened.LastAssistantTurn(room.ID)
	tester.True(t, ok)
	tester.Eq(t, last.Content, "world")
}
