package prompts

import (
	"fmt"
	"strings"

	genai "google.golang.org/genai"

	"boron/internal/util/jsonutil"
)

// Template bundles everything a generation turn needs for one project
// kind: the system prompt fragments, the base file map the UI mounts
// before any step arrives, and the response schema.
type Template struct {
	Kind      string
	Prompts   []string
	UIPrompts []map[string]string
	Schema    *genai.Schema
}

// Find resolves a template by kind ("react" or "node").
func Find(kind string) (Template, bool) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "react":
		return Template{
			Kind: "react",
			Prompts: []string{
				BasePrompt,
				templateArtifactPrompt(reactBaseTemplate),
			},
			UIPrompts: []map[string]string{reactBaseTemplate},
			Schema:    ArtifactSchema,
		}, true
	case "node":
		return Template{
			Kind: "node",
			Prompts: []string{
				templateArtifactPrompt(nodeBaseTemplate),
			},
			UIPrompts: []map[string]string{nodeBaseTemplate},
			Schema:    ArtifactSchema,
		}, true
	}
	return Template{}, false
}

// System concatenates the prompt fragments, optionally appending the
// previous assistant response for continuation turns.
func (t Template) System(lastAssistant string) string {
	joined := strings.Join(t.Prompts, "\n\n")
	if strings.TrimSpace(lastAssistant) == "" {
		return joined
	}
	return fmt.Sprintf("%s\n\n=== Previous Conversation ===\n%s\n\n=== Current Request ===", joined, lastAssistant)
}

func templateArtifactPrompt(files map[string]string) string {
	b, err := jsonutil.MarshalNoEscape(files)
	if err != nil {
		b = []byte("{}")
	}
	return "Here is an artifact that contains all files of the project visible to you.\n" +
		"Consider the contents of ALL files in the project. Consider this as the base template. " +
		"Return all the files while giving a reply.\n" + string(b) + "\n" +
		"Here is a list of files that exist on the file system but are not being shown to you:\n\n  - .gitignore\n  - package-lock.json\n"
}
