package artifact

import (
	"testing"

	"boron/internal/tester"
)

func TestBuildTreeNesting(t *testing.T) {
	steps := []Step{
		step("package.json", "{}"),
		step("src/App.tsx", "app"),
		step("src/components/TodoList.tsx", "list"),
	}
	roots := BuildTree(steps)
	tester.Eq(t, len(roots), 2)
	tester.Eq(t, roots[0].Name, "package.json")
	tester.Eq(t, roots[0].Type, NodeFile)

	src := roots[1]
	tester.Eq(t, src.Name, "src")
	tester.Eq(t, src.Type, NodeFolder)
	tester.Eq(t, len(src.Children), 2)
	tester.Eq(t, src.Children[0].Path, "src/App.tsx")
	tester.Eq(t, src.Children[1].Name, "components")
	tester.Eq(t, src.Children[1].Children[0].Content, "list")
}

func TestBuildTreeFirstSeenOrder(t *testing.T) {
	steps := []Step{
		step("b/x", "1"),
		step("a", "2"),
		step("b/y", "3"),
	}
	roots := BuildTree(steps)
	tester.Eq(t, roots[0].Name, "b")
	tester.Eq(t, roots[1].Name, "a")
	tester.Eq(t, roots[0].Children[0].Name, "x")
	tester.Eq(t, roots[0].Children[1].Name, "y")
}

func TestBuildTreeLastWriteWins(t *testing.T) {
	steps := []Step{
		step("src/App.tsx", "old"),
		step("src/App.tsx", "new"),
	}
	roots := BuildTree(steps)
	tester.Eq(t, len(roots), 1)
	tester.Eq(t, len(roots[0].Children), 1)
	tester.Eq(t, roots[0].Children[0].Content, "new")
}

func TestBuildTreeSkipsEmptyPath(t *testing.T) {
	roots := BuildTree([]Step{{Kind: StepKindFile, FilePath: "", Content: "x"}})
	tester.Eq(t, len(roots), 0)
}

func TestFlattenFiles(t *testing.T) {
	roots := BuildTree([]Step{
		step("src/a", "1"),
		step("src/sub/b", "2"),
		step("c", "3"),
	})
	files := FlattenFiles(roots)
	tester.Eq(t, len(files), 3)
	tester.Eq(t, files[0].Path, "src/a")
	tester.Eq(t, files[1].Path, "src/sub/b")
	tester.Eq(t, files[2].Path, "c")
}
