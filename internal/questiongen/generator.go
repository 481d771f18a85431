// Package questiongen turns a reading text and the learner's weakest
// capability dimension into a set of comprehension exercises.
package questiongen

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/abhisek/readmind/internal/capability"
	"github.com/abhisek/readmind/internal/i18n"
	"github.com/abhisek/readmind/internal/llm"
)

// Generator produces exercises for a text.
type Generator interface {
	// Generate returns at least one valid question or a *GenerationError.
	// A blank Input.Body yields ErrEmptyText without contacting the model.
	Generate(ctx context.Context, in Input) ([]Question, error)
}

// LLMGenerator implements Generator with an llm.Provider.
type LLMGenerator struct {
	provider llm.Provider
	config   Config
}

func New(provider llm.Provider, cfg Config) *LLMGenerator {
	return &LLMGenerator{provider: provider, config: cfg}
}

// rawQuestion is one item as returned by the model, before validation.
type rawQuestion struct {
	ID         string `json:"id"`
	Capability string `json:"capability"`
	Prompt     string `json:"prompt"`
}

func (g *LLMGenerator) Generate(ctx context.Context, in Input) ([]Question, error) {
	if strings.TrimSpace(in.Body) == "" {
		return nil, ErrEmptyText
	}
	ctx = llm.WithPurpose(ctx, llm.PurposeQuestions)

	userMsg, err := buildUserMessage(in,
		llm.Clip(in.Body, g.config.MaxTextChars),
		i18n.New(g.config.Lang).T("ReplyLanguage"))
	if err != nil {
		return nil, &GenerationError{Reason: ReasonPrompt, Err: err}
	}

	resp, err := g.provider.Generate(ctx, llm.Request{
		System:      systemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: userMsg}},
		Schema:      QuestionsSchema,
		Validation:  llm.ValidatePerItem,
		MaxTokens:   g.config.MaxTokens,
		Temperature: g.config.Temperature,
	})
	if err != nil {
		return nil, &GenerationError{Reason: ReasonTransport, Err: err}
	}

	raw, err := decodeQuestions(resp.Content)
	if err != nil {
		return nil, &GenerationError{Reason: ReasonDecode, Err: err}
	}

	questions := sanitize(raw)
	if len(questions) == 0 {
		return nil, &GenerationError{Reason: ReasonEmpty}
	}
	return questions, nil
}

// decodeQuestions accepts either {"questions":[...]} or a bare array.
func decodeQuestions(content json.RawMessage) ([]rawQuestion, error) {
	if arr := llm.DecodeJSON[[]rawQuestion](content); arr.OK() {
		return arr.Value, nil
	}
	wrapped := llm.DecodeJSON[struct {
		Questions []rawQuestion `json:"questions"`
	}](content)
	if !wrapped.OK() {
		return nil, wrapped.Err
	}
	return wrapped.Value.Questions, nil
}

// sanitize drops items with a missing id, an unknown dimension or an
// empty prompt, and keeps only the first item for each id.
func sanitize(raw []rawQuestion) []Question {
	seen := make(map[string]bool, len(raw))
	out := make([]Question, 0, len(raw))

	for i, r := range raw {
		id := strings.TrimSpace(r.ID)
		prompt := strings.TrimSpace(r.Prompt)
		dim, err := capability.Parse(r.Capability)

		switch {
		case id == "":
			slog.Debug("dropping generated question", "index", i, "reason", "missing id")
			continue
		case err != nil:
			slog.Debug("dropping generated question", "index", i, "id", id, "reason", err)
			continue
		case prompt == "":
			slog.Debug("dropping generated question", "index", i, "id", id, "reason", "empty prompt")
			continue
		case seen[id]:
			slog.Debug("dropping generated question", "index", i, "id", id, "reason", "duplicate id")
			continue
		}

		seen[id] = true
		out = append(out, Question{ID: id, Dimension: dim, Prompt: prompt})
	}
	return out
}
