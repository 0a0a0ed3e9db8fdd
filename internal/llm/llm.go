package llm

import (
	"context"
	"encoding/json"
	"errors"

	genai "google.golang.org/genai"
)

var ErrInvalidJSON = errors.New("llm: invalid JSON from model")

// Client is the model invocation facade. Calls are opaque network
// operations that may fail or time out; retries, rate limiting and
// logging are layered on via middleware.
type Client interface {
	Name() string
	Close() error
	// GenerateText returns a plain-text completion.
	GenerateText(ctx context.Context, system, prompt string) (string, error)
	// GenerateJSON returns one complete JSON response constrained by
	// schema (schema may be nil for free-form JSON).
	GenerateJSON(ctx context.Context, system, prompt string, schema *genai.Schema) (json.RawMessage, error)
	// GenerateJSONStream streams the growing response text to onChunk.
	// Each call receives the full accumulated text so far, not a delta.
	// Returns the final complete JSON response.
	GenerateJSONStream(ctx context.Context, system, prompt string, schema *genai.Schema, onChunk func(accumulated string)) (json.RawMessage, error)
}

// PermanentError marks a failure that retrying cannot fix, such as a
// context-length overflow.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

func NewPermanentError(err error) *PermanentError {
	return &PermanentError{Err: err}
}

// Middleware wraps a Client with an orthogonal concern.
type Middleware func(next Client) Client

// Chain applies middlewares left to right, so the first one is the
// outermost layer.
func Chain(c Client, mws ...Middleware) Client {
	for i := len(mws) - 1; i >= 0; i-- {
		c = mws[i](c)
	}
	return c
}
