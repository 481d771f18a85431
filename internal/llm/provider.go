package llm

import (
	"context"
	"encoding/json"
	"strings"
)

// Provider is the seam between readmind and a hosted text-completion model.
// Question generation and answer evaluation ask for schema-constrained JSON;
// the guided dialogue asks for plain text.
type Provider interface {
	// Generate sends one request and returns the model output. When
	// req.Schema is set the returned Content has already been checked
	// against it as req.Validation asks.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this provider sends requests to.
	ModelID() string
}

// Request describes a single model call.
type Request struct {
	// System carries the role and behavioral rules for the model.
	System string

	// Messages is the conversation so far. Generation and evaluation send a
	// single user message; the dialogue sends its bounded transcript.
	Messages []Message

	// Schema asks the provider for JSON output of this shape. Nil means a
	// plain-text reply.
	Schema *Schema

	// Validation decides whether a reply that breaks Schema fails the
	// request. Callers that filter items themselves use ValidatePerItem.
	Validation Validation

	MaxTokens int

	// Temperature in [0,1]. Zero leaves the provider default in place.
	Temperature float64
}

// Message is one entry of the conversation sent to the model.
type Message struct {
	Role    Role
	Content string
}

// Role is the sender of a Message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema is a named JSON Schema for structured output.
type Schema struct {
	// Name is a kebab-case identifier, e.g. "reading-questions". It doubles
	// as the schema name for OpenAI and the validation cache key.
	Name string

	Description string

	Definition map[string]any
}

// Response holds a model reply.
type Response struct {
	// Content is the checked JSON document for schema requests and the
	// raw reply text otherwise.
	Content json.RawMessage

	Usage Usage

	// Model is the model that actually served the request.
	Model string

	// StopReason is normalized to "end" or "max_tokens".
	StopReason string
}

// Text returns the reply as trimmed plain text.
func (r *Response) Text() string {
	if r == nil {
		return ""
	}
	return strings.TrimSpace(string(r.Content))
}

// Usage reports token consumption for one request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
