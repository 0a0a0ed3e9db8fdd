package prompts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindReact(t *testing.T) {
	tpl, ok := Find("react")
	require.True(t, ok)
	assert.Equal(t, "react", tpl.Kind)
	require.Len(t, tpl.Prompts, 2)
	assert.Equal(t, BasePrompt, tpl.Prompts[0])
	assert.Contains(t, tpl.Prompts[1], "src/App.tsx")
	require.Len(t, tpl.UIPrompts, 1)
	assert.Contains(t, tpl.UIPrompts[0], "package.json")
	assert.NotNil(t, tpl.Schema)
}

func TestFindNode(t *testing.T) {
	tpl, ok := Find("node")
	require.True(t, ok)
	assert.Contains(t, tpl.UIPrompts[0], "index.js")
}

func TestFindNormalizesKind(t *testing.T) {
	_, ok := Find("  React\n")
	assert.True(t, ok)
}

func TestFindUnknown(t *testing.T) {
	_, ok := Find("rails")
	assert.False(t, ok)
}

func TestSystemWithoutHistory(t *testing.T) {
	tpl, _ := Find("react")
	sys := tpl.System("")
	assert.False(t, strings.Contains(sys, "Previous Conversation"))
}

func TestSystemWithHistory(t *testing.T) {
	tpl, _ := Find("react")
	sys := tpl.System(`{"boronArtifact":{}}`)
	assert.Contains(t, sys, "=== Previous Conversation ===")
	assert.Contains(t, sys, "=== Current Request ===")
	assert.True(t, strings.HasPrefix(sys, BasePrompt))
}

func TestTemplatePromptKeepsJSXUnescaped(t *testing.T) {
	tpl, _ := Find("react")
	assert.Contains(t, tpl.Prompts[1], "<StrictMode>")
	assert.NotContains(t, tpl.Prompts[1], `\u003c`)
}
