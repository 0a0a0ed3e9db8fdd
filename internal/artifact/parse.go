package artifact

import (
	"encoding/json"
	"fmt"
	"log"
)

// Payload field names for the artifact envelope. The action list may
// appear at the top level or nested one level under the envelope key.
const (
	envelopeKey = "boronArtifact"
	actionsKey  = "boronActions"
)

// ParseError reports a payload that could not be decoded as JSON.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return "Error parsing response: " + e.Err.Error()
}

func (e *ParseError) Unwrap() error { return e.Err }

// FormatError reports a payload that decoded fine but does not have
// the expected artifact shape.
type FormatError struct {
	msg string
}

func (e *FormatError) Error() string { return e.msg }

func formatErrorf(format string, args ...any) *FormatError {
	return &FormatError{msg: fmt.Sprintf(format, args...)}
}

// Parse converts one raw artifact payload into a validated Response.
//
// The payload may be a JSON-encoded string ([]byte, json.RawMessage or
// string) or an already-decoded value. Partial streaming payloads are
// expected here: every structural defect returns an error instead of
// panicking so the caller can discard the chunk and wait for the next
// one.
func Parse(payload any) (Response, error) {
	decoded, err := decodePayload(payload)
	if err != nil {
		log.Printf("artifact: parse error: %v: %s", err, describeRaw(payload))
		return Response{}, &ParseError{Err: err}
	}

	actions, ok := actionList(decoded)
	if !ok {
		log.Printf("artifact: invalid data structure: %s", describe(decoded))
		return Response{}, formatErrorf("Invalid response format: expected object with actions array")
	}

	steps := make([]Step, 0, len(actions))
	for i, raw := range actions {
		step, err := buildStep(raw, i)
		if err != nil {
			log.Printf("artifact: rejected action %d: %s", i, describe(raw))
			return Response{}, err
		}
		steps = append(steps, step)
	}

	if len(steps) == 0 {
		log.Printf("artifact: empty action list: %s", describe(decoded))
		return Response{}, formatErrorf("No valid actions found in response")
	}

	return Response{
		Steps:    steps,
		Metadata: Metadata{TotalSteps: len(steps)},
	}, nil
}

func decodePayload(payload any) (any, error) {
	var data []byte
	switch v := payload.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	case json.RawMessage:
		data = v
	default:
		return payload, nil
	}
	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, err
	}
	return decoded, nil
}

// actionList unwraps the optional envelope and extracts the action
// array. A nil payload, a missing field or a non-array field all
// report "not ok" rather than failing in different ways.
func actionList(decoded any) ([]any, bool) {
	obj, ok := decoded.(map[string]any)
	if !ok {
		return nil, false
	}
	if inner, ok := obj[envelopeKey].(map[string]any); ok {
		obj = inner
	}
	actions, ok := obj[actionsKey].([]any)
	if !ok {
		return nil, false
	}
	return actions, true
}

func buildStep(raw any, index int) (Step, error) {
	action, _ := raw.(map[string]any)

	filePath, _ := action["filePath"].(string)
	if filePath == "" {
		return Step{}, formatErrorf("Missing filePath at action %d", index)
	}

	content, present := action["content"]
	if !present || content == nil {
		return Step{}, formatErrorf("Missing content at action %d", index)
	}

	text, err := coerceContent(content)
	if err != nil {
		return Step{}, formatErrorf("Missing content at action %d", index)
	}

	// The schema only supports file actions; a raw "type" field is
	// ignored on purpose.
	return Step{
		Kind:     StepKindFile,
		FilePath: filePath,
		Content:  text,
	}, nil
}

// coerceContent normalizes raw content to a string. Objects and
// arrays become pretty-printed JSON, scalars use their standard JSON
// rendering. Empty strings and zero are valid content.
func coerceContent(content any) (string, error) {
	switch v := content.(type) {
	case string:
		return v, nil
	case map[string]any, []any:
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return "", err
		}
		return string(b), nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}

// describe renders a rejected value for diagnostics without risking a
// second failure.
// describeRaw renders an undecodable payload as-is, truncated, where
// describe cannot because marshalling it would fail again.
func describeRaw(payload any) string {
	var data []byte
	switch v := payload.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	case json.RawMessage:
		data = v
	default:
		return describe(payload)
	}
	const max = 512
	if len(data) > max {
		data = data[:max]
	}
	return string(data)
}

func describe(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%T", v)
	}
	const max = 512
	if len(b) > max {
		b = b[:max]
	}
	return string(b)
}
