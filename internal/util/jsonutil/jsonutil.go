package jsonutil

import (
	"bytes"
	"encoding/json"
	"strings"
)

// MarshalNoEscape encodes v into JSON without escaping <, >, & into <,
// etc. Template file maps carry JSX and HTML, which must survive a round
// trip through a prompt verbatim.
func MarshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	// Remove trailing newline from json.Encoder.Encode
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// CompletePartial repairs a JSON document truncated at an arbitrary byte
// boundary into the largest valid prefix document: it trims any dangling
// partial token, closes an open string, and closes open objects and
// arrays. Reports false when no usable prefix exists yet (e.g. only
// whitespace or a lone brace fragment has arrived).
func CompletePartial(data []byte) (json.RawMessage, bool) {
	s := strings.TrimSpace(string(data))
	for len(s) > 0 {
		if out, ok := tryClose(s); ok {
			return out, true
		}
		// Drop the last byte and retry; truncation damage is almost
		// always confined to the tail (a half-written key or literal),
		// so this converges in a handful of steps.
		s = strings.TrimRight(s[:len(s)-1], " \t\r\n,:")
	}
	return nil, false
}

// tryClose appends the closers implied by the scan state and validates the
// result. It fails on prefixes whose tail is not a value boundary (inside
// a literal, after a dangling key, and so on); the caller trims and
// retries.
func tryClose(s string) (json.RawMessage, bool) {
	var stack []byte
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			stack = append(stack, c)
		case '}', ']':
			if len(stack) == 0 {
				return nil, false
			}
			stack = stack[:len(stack)-1]
		}
	}
	if escaped {
		return nil, false
	}

	var b strings.Builder
	b.WriteString(s)
	if inString {
		b.WriteByte('"')
	}
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == '{' {
			b.WriteByte('}')
		} else {
			b.WriteByte(']')
		}
	}
	out := b.String()
	if !json.Valid([]byte(out)) {
		return nil, false
	}
	return json.RawMessage(out), true
}
