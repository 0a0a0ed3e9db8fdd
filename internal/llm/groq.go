package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	genai "google.golang.org/genai"
)

// GroqClient calls the Groq Chat Completions API (OpenAI-compatible) and asks
// for JSON. Groq has no server-side schema constraint, so the schema is
// appended to the system prompt as guidance.
// See: https://console.groq.com/docs/api-reference
type GroqClient struct {
	http    *http.Client
	apiKey  string
	model   string
	baseURL string
}

// NewGroqClient creates a Groq client. If apiKey is empty, it falls back to
// GROQ_API_KEY env var.
func NewGroqClient(apiKey, model string) (*GroqClient, error) {
	if apiKey == "" {
		apiKey = os.Getenv("GROQ_API_KEY")
	}
	return &GroqClient{
		http:    &http.Client{Timeout: 60 * time.Second},
		apiKey:  apiKey,
		model:   model,
		baseURL: "https://api.groq.com/openai/v1/chat/completions",
	}, nil
}

func (g *GroqClient) Name() string { return "Groq:" + g.model }
func (g *GroqClient) Close() error { return nil }

type groqChatReq struct {
	Model          string            `json:"model"`
	Messages       []groqMessage     `json:"messages"`
	Temperature    float32           `json:"temperature,omitempty"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
}

type groqMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type groqChatResp struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (g *GroqClient) GenerateText(ctx context.Context, system, prompt string) (string, error) {
	out, err := g.complete(ctx, system, prompt, nil)
	if err != nil {
		return "", err
	}
	return out, nil
}

func (g *GroqClient) GenerateJSON(ctx context.Context, system, prompt string, schema *genai.Schema) (json.RawMessage, error) {
	format := map[string]string{"type": "json_object"}
	out, err := g.complete(ctx, withSchemaHint(system, schema), prompt, format)
	if err != nil {
		return nil, err
	}
	raw := json.RawMessage(ExtractJSONBlock(out))
	var scratch any
	if err := json.Unmarshal(raw, &scratch); err != nil {
		return nil, ErrInvalidJSON
	}
	return raw, nil
}

// GenerateJSONStream on Groq resolves the full response first and emits it
// as a single chunk; the consumer-side contract (accumulated text per call)
// holds either way.
func (g *GroqClient) GenerateJSONStream(ctx context.Context, system, prompt string, schema *genai.Schema, onChunk func(accumulated string)) (json.RawMessage, error) {
	raw, err := g.GenerateJSON(ctx, system, prompt, schema)
	if err != nil {
		return nil, err
	}
	if onChunk != nil {
		onChunk(string(raw))
	}
	return raw, nil
}

func (g *GroqClient) complete(ctx context.Context, system, prompt string, format map[string]string) (string, error) {
	messages := make([]groqMessage, 0, 2)
	if strings.TrimSpace(system) != "" {
		messages = append(messages, groqMessage{Role: "system", Content: system})
	}
	messages = append(messages, groqMessage{Role: "user", Content: prompt})

	reqBody := groqChatReq{
		Model:          g.model,
		Messages:       messages,
		Temperature:    0,
		ResponseFormat: format,
	}
	b, _ := json.Marshal(reqBody)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		const max = 2048
		if len(body) > max {
			body = body[:max]
		}
		err := fmt.Errorf("groq: unexpected status %s: %s", resp.Status, string(body))
		if resp.StatusCode == 400 && strings.Contains(string(body), `"code":"context_length_exceeded"`) {
			return "", NewPermanentError(err)
		}
		return "", err
	}
	var out groqChatResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == "" {
		return "", ErrInvalidJSON
	}
	return out.Choices[0].Message.Content, nil
}

func withSchemaHint(system string, schema *genai.Schema) string {
	if schema == nil {
		return system
	}
	b, err := json.Marshal(schema)
	if err != nil {
		return system
	}
	return system + "\n\nRespond with JSON matching this schema:\n" + string(b)
}
