package llm

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	genai "google.golang.org/genai"
)

// Retry retries calls up to maxAttempts with exponential backoff starting at
// baseDelay. Permanent errors and context cancellation stop retries
// immediately. Streaming calls are retried whole, so the consumer sees the
// accumulated text restart from the beginning.
func Retry(maxAttempts int, baseDelay time.Duration) Middleware {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if baseDelay <= 0 {
		baseDelay = 300 * time.Millisecond
	}
	return func(next Client) Client {
		return &retrying{next: next, max: maxAttempts, base: baseDelay}
	}
}

type retrying struct {
	next Client
	max  int
	base time.Duration
}

func (r *retrying) Name() string { return r.next.Name() }
func (r *retrying) Close() error { return r.next.Close() }

func (r *retrying) GenerateText(ctx context.Context, system, prompt string) (string, error) {
	var out string
	err := r.attempt(ctx, func() error {
		var err error
		out, err = r.next.GenerateText(ctx, system, prompt)
		return err
	})
	return out, err
}

func (r *retrying) GenerateJSON(ctx context.Context, system, prompt string, schema *genai.Schema) (json.RawMessage, error) {
	var out json.RawMessage
	err := r.attempt(ctx, func() error {
		var err error
		out, err = r.next.GenerateJSON(ctx, system, prompt, schema)
		return err
	})
	return out, err
}

func (r *retrying) GenerateJSONStream(ctx context.Context, system, prompt string, schema *genai.Schema, onChunk func(accumulated string)) (json.RawMessage, error) {
	var out json.RawMessage
	err := r.attempt(ctx, func() error {
		var err error
		out, err = r.next.GenerateJSONStream(ctx, system, prompt, schema, onChunk)
		return err
	})
	return out, err
}

func (r *retrying) attempt(ctx context.Context, call func() error) error {
	var last error
	for i := 0; i < r.max; i++ {
		err := call()
		if err == nil {
			return nil
		}
		var pErr *PermanentError
		if errors.As(err, &pErr) {
			return err
		}
		last = err
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		time.Sleep(r.base * time.Duration(1<<i))
	}
	return last
}

// Logging logs every call with its duration and outcome.
func Logging() Middleware {
	return func(next Client) Client {
		return &logging{next: next}
	}
}

type logging struct {
	next Client
}

func (l *logging) Name() string { return l.next.Name() }
func (l *logging) Close() error { return l.next.Close() }

func (l *logging) GenerateText(ctx context.Context, system, prompt string) (string, error) {
	start := time.Now()
	out, err := l.next.GenerateText(ctx, system, prompt)
	logCall(l.next.Name(), "text", start, err)
	return out, err
}

func (l *logging) GenerateJSON(ctx context.Context, system, prompt string, schema *genai.Schema) (json.RawMessage, error) {
	start := time.Now()
	out, err := l.next.GenerateJSON(ctx, system, prompt, schema)
	logCall(l.next.Name(), "json", start, err)
	return out, err
}

func (l *logging) GenerateJSONStream(ctx context.Context, system, prompt string, schema *genai.Schema, onChunk func(accumulated string)) (json.RawMessage, error) {
	start := time.Now()
	out, err := l.next.GenerateJSONStream(ctx, system, prompt, schema, onChunk)
	logCall(l.next.Name(), "json-stream", start, err)
	return out, err
}

func logCall(name, kind string, start time.Time, err error) {
	if err != nil {
		log.Printf("llm %s %s failed after %s: %v", name, kind, time.Since(start).Round(time.Millisecond), err)
		return
	}
	log.Printf("llm %s %s ok in %s", name, kind, time.Since(start).Round(time.Millisecond))
}
