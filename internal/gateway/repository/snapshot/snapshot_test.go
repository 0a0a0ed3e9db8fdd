package snapshot

import (
	"context"
	"testing"

	"boron/internal/artifact"
	"boron/internal/tester"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	tester.NoErr(t, s.Put(ctx, "room-1", "src/App.tsx", []byte("export default function App() {}")))
	tester.NoErr(t, s.Put(ctx, "room-1", "/package.json", []byte("{}")))

	got, err := s.Get(ctx, "room-1", "src/App.tsx")
	tester.NoErr(t, err)
	tester.Eq(t, string(got), "export default function App() {}")

	// leading slash normalized away
	got, err = s.Get(ctx, "room-1", "package.json")
	tester.NoErr(t, err)
	tester.Eq(t, string(got), "{}")

	paths, err := s.List(ctx, "room-1")
	tester.NoErr(t, err)
	tester.Eq(t, len(paths), 2)
	tester.Eq(t, paths[0], "package.json")
	tester.Eq(t, paths[1], "src/App.tsx")
}

func TestMemoryStoreMissing(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.Get(context.Background(), "room-1", "nope.txt")
	tester.Eq(t, err, ErrNotFound)
}

func TestMemoryStoreValidation(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	tester.True(t, s.Put(ctx, "", "a.txt", nil) != nil)
	tester.True(t, s.Put(ctx, "room-1", "  ", nil) != nil)
	_, err := s.List(ctx, "")
	tester.True(t, err != nil)
}

func TestPutSteps(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	steps := []artifact.Step{
		{Kind: artifact.StepKindFile, FilePath: "index.html", Content: "<html></html>"},
		{Kind: artifact.StepKindFile, FilePath: "index.html", Content: "<html>v2</html>"},
		{Kind: artifact.StepKindFile, FilePath: "", Content: "skipped"},
	}
	tester.NoErr(t, PutSteps(ctx, s, "room-1", steps))

	got, err := s.Get(ctx, "room-1", "index.html")
	tester.NoErr(t, err)
	tester.Eq(t, string(got), "<html>v2</html>")

	paths, err := s.List(ctx, "room-1")
	tester.NoErr(t, err)
	tester.Eq(t, len(paths), 1)
}
