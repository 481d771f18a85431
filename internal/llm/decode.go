package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Decoded is the outcome of decoding a model reply: either a value or the
// reason decoding failed. Callers pick their own fallback with Or.
type Decoded[T any] struct {
	Value T
	Err   error
}

// OK reports whether decoding succeeded.
func (d Decoded[T]) OK() bool { return d.Err == nil }

// Or returns the decoded value, or def when decoding failed.
func (d Decoded[T]) Or(def T) T {
	if d.Err != nil {
		return def
	}
	return d.Value
}

// DecodeJSON decodes raw model output into T. Markdown code fences around
// the JSON are tolerated. Failures are reported as *ErrInvalidResponse and
// never panic.
func DecodeJSON[T any](raw json.RawMessage) Decoded[T] {
	var out Decoded[T]

	body := StripFences(string(raw))
	if body == "" {
		out.Err = &ErrInvalidResponse{Content: raw, Err: errors.New("empty response")}
		return out
	}
	if err := json.Unmarshal([]byte(body), &out.Value); err != nil {
		out.Err = &ErrInvalidResponse{Content: raw, Err: fmt.Errorf("decode JSON: %w", err)}
	}
	return out
}

// StripFences removes a surrounding ``` or ```json fence and whitespace.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
