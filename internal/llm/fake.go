package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	genai "google.golang.org/genai"
)

// FakeClient returns deterministic payloads per phase for offline use and
// tests. Scripted fields cover the generation pipeline's call sites.
type FakeClient struct {
	Decision    bool
	DeclineText string
	Title       string
	// Chunks are the accumulated stream prefixes emitted in order by
	// GenerateJSONStream; the last one doubles as the final response
	// unless Final is set.
	Chunks []string
	Final  string

	// FailPhase makes any call tagged with that phase return an error.
	FailPhase string

	mu    sync.Mutex
	calls []string
}

func (f *FakeClient) Name() string { return "FakeLLM" }
func (f *FakeClient) Close() error { return nil }

// Calls reports the phases invoked so far, in order.
func (f *FakeClient) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *FakeClient) record(ctx context.Context) (string, error) {
	phase := PhaseFrom(ctx)
	f.mu.Lock()
	f.calls = append(f.calls, phase)
	f.mu.Unlock()
	if f.FailPhase != "" && phase == f.FailPhase {
		return phase, fmt.Errorf("fake llm: scripted failure in phase %q", phase)
	}
	return phase, nil
}

func (f *FakeClient) GenerateText(ctx context.Context, system, prompt string) (string, error) {
	if _, err := f.record(ctx); err != nil {
		return "", err
	}
	if f.DeclineText != "" {
		return f.DeclineText, nil
	}
	return "fake response", nil
}

func (f *FakeClient) GenerateJSON(ctx context.Context, system, prompt string, schema *genai.Schema) (json.RawMessage, error) {
	phase, err := f.record(ctx)
	if err != nil {
		return nil, err
	}
	var obj any
	switch phase {
	case "classify":
		obj = map[string]any{"decision": f.Decision}
	case "summarize":
		title := f.Title
		if title == "" {
			title = "Untitled project"
		}
		obj = map[string]any{"summarized": title}
	default:
		obj = map[string]any{}
	}
	b, _ := json.Marshal(obj)
	return b, nil
}

func (f *FakeClient) GenerateJSONStream(ctx context.Context, system, prompt string, schema *genai.Schema, onChunk func(accumulated string)) (json.RawMessage, error) {
	if _, err := f.record(ctx); err != nil {
		return nil, err
	}
	var last string
	for _, chunk := range f.Chunks {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		last = chunk
		if onChunk != nil {
			onChunk(chunk)
		}
	}
	final := f.Final
	if final == "" {
		final = last
	}
	if final == "" {
		final = "{}"
	}
	return json.RawMessage(final), nil
}
