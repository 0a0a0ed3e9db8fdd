package llm

import (
	"context"
	"encoding/json"
	"os"
	"strconv"
	"strings"

	genai "google.golang.org/genai"
)

// GeminiClient is a thin wrapper around the official genai client.
type GeminiClient struct {
	cli   *genai.Client
	model string
	rl    *rpsLimiter
}

func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  strings.TrimSpace(apiKey),
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	// Optional RPS limiter via env: LLM_RPS/GEMINI_RPS and LLM_BURST/GEMINI_BURST
	var rps float64
	var burst int
	if v := os.Getenv("LLM_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			rps = f
		}
	}
	if rps == 0 {
		if v := os.Getenv("GEMINI_RPS"); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				rps = f
			}
		}
	}
	if v := os.Getenv("LLM_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			burst = n
		}
	}
	if burst == 0 {
		if v := os.Getenv("GEMINI_BURST"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				burst = n
			}
		}
	}
	return &GeminiClient{cli: cli, model: model, rl: newRPSLimiter(rps, burst)}, nil
}

func (g *GeminiClient) Name() string { return "Gemini:" + g.model }

func (g *GeminiClient) Close() error {
	if g.rl != nil {
		g.rl.Stop()
	}
	return nil
}

func (g *GeminiClient) GenerateText(ctx context.Context, system, prompt string) (string, error) {
	if err := g.rl.Acquire(ctx); err != nil {
		return "", err
	}
	resp, err := g.cli.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: prompt}}}},
		&genai.GenerateContentConfig{SystemInstruction: systemContent(system)},
	)
	if err != nil {
		return "", err
	}
	txt := firstText(resp)
	if txt == "" {
		return "", ErrInvalidJSON
	}
	return txt, nil
}

// GenerateJSON requests application/json constrained by schema.
func (g *GeminiClient) GenerateJSON(ctx context.Context, system, prompt string, schema *genai.Schema) (json.RawMessage, error) {
	if err := g.rl.Acquire(ctx); err != nil {
		return nil, err
	}
	resp, err := g.cli.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: prompt}}}},
		&genai.GenerateContentConfig{
			SystemInstruction: systemContent(system),
			ResponseMIMEType:  "application/json",
			ResponseSchema:    schema,
		},
	)
	if err != nil {
		return nil, err
	}
	txt := firstText(resp)
	raw := json.RawMessage(ExtractJSONBlock(txt))
	var scratch any
	if err := json.Unmarshal(raw, &scratch); err != nil {
		return nil, ErrInvalidJSON
	}
	return raw, nil
}

// GenerateJSONStream iterates the model's stream, invoking onChunk
// with the accumulated text after every delta. The stream carries raw
// text fragments that may end mid-token; callers that need a usable
// value per chunk repair the accumulated prefix themselves.
func (g *GeminiClient) GenerateJSONStream(ctx context.Context, system, prompt string, schema *genai.Schema, onChunk func(accumulated string)) (json.RawMessage, error) {
	if err := g.rl.Acquire(ctx); err != nil {
		return nil, err
	}
	var buf strings.Builder
	for resp, err := range g.cli.Models.GenerateContentStream(ctx, g.model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: prompt}}}},
		&genai.GenerateContentConfig{
			SystemInstruction: systemContent(system),
			ResponseMIMEType:  "application/json",
			ResponseSchema:    schema,
		},
	) {
		if err != nil {
			return nil, err
		}
		delta := firstText(resp)
		if delta == "" {
			continue
		}
		buf.WriteString(delta)
		if onChunk != nil {
			onChunk(buf.String())
		}
	}
	raw := json.RawMessage(ExtractJSONBlock(buf.String()))
	var scratch any
	if err := json.Unmarshal(raw, &scratch); err != nil {
		return nil, ErrInvalidJSON
	}
	return raw, nil
}

func systemContent(system string) *genai.Content {
	system = strings.TrimSpace(system)
	if system == "" {
		return nil
	}
	return &genai.Content{Parts: []*genai.Part{{Text: system}}}
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	content := resp.Candidates[0].Content
	if content == nil || len(content.Parts) == 0 {
		return ""
	}
	return content.Parts[0].Text
}
