// Package evaluator scores a learner's free-text answer against the rubric
// of the question's capability dimension.
package evaluator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"text/template"

	"github.com/abhisek/readmind/internal/capability"
	"github.com/abhisek/readmind/internal/catalog"
	"github.com/abhisek/readmind/internal/i18n"
	"github.com/abhisek/readmind/internal/llm"
)

// ErrEmptyAnswer is returned before any model call for a blank answer.
var ErrEmptyAnswer = errors.New("answer is empty")

// EvaluationError reports that no score could be obtained. It is distinct
// from a legitimate score of zero.
type EvaluationError struct {
	Err error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("answer evaluation failed: %v", e.Err)
}

func (e *EvaluationError) Unwrap() error { return e.Err }

// Result is the outcome of one evaluation.
type Result struct {
	Score       int    `json:"score"`
	Feedback    string `json:"feedback"`
	Suggestions string `json:"suggestions"`
}

// Input describes the answer to evaluate.
type Input struct {
	Dimension capability.Dimension
	Question  string
	Answer    string

	// Context is the passage excerpt the question refers to.
	Context  string
	TextType catalog.TextType
}

// Config controls the Evaluator.
type Config struct {
	MaxTokens   int
	Temperature float64

	// MaxContextChars caps the excerpt sent with each answer, in runes.
	MaxContextChars int

	// Lang selects the feedback language.
	Lang string
}

func DefaultConfig() Config {
	return Config{
		MaxTokens:       512,
		Temperature:     0.2,
		MaxContextChars: 2000,
		Lang:            i18n.DefaultLang,
	}
}

// Evaluator grades answers with an llm.Provider.
type Evaluator struct {
	provider llm.Provider
	config   Config
}

func New(provider llm.Provider, cfg Config) *Evaluator {
	return &Evaluator{provider: provider, config: cfg}
}

// ResultSchema is the structured output requested from the model.
var ResultSchema = &llm.Schema{
	Name:        "answer-evaluation",
	Description: "Score and feedback for a reading comprehension answer",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"score": map[string]any{
				"type":        "number",
				"description": "Score from 0 to 100",
			},
			"feedback": map[string]any{
				"type":        "string",
				"description": "Constructive feedback on the answer",
			},
			"suggestions": map[string]any{
				"type":        "string",
				"description": "How to improve, e.g. cite more evidence or refine the causal logic",
			},
		},
		"required":             []any{"score", "feedback", "suggestions"},
		"additionalProperties": false,
	},
}

const systemPrompt = `You are an experienced reading teacher grading answers against the PISA reading framework.

Rules:
- Grade only against the rubric of the given capability dimension.
- Score from 0 (no understanding) to 100 (complete and well grounded).
- Feedback is constructive and specific to the learner's answer; quote the text where it helps.
- Suggestions name one or two concrete ways to improve.
- Never rewrite the answer for the learner.`

var userTemplate = template.Must(template.New("evaluation").Parse(`Capability: {{.Dimension}} ({{.Name}})
Rubric: {{.Rubric}}
{{- if .Science}}
This is a science text: judge logical rigor and evidence-based reasoning.
{{- end}}

Text context:
"""
{{.Context}}
"""

Question: {{.Question}}

Student answer: {{.Answer}}

Write feedback and suggestions in {{.Language}}.`))

// evaluationOutput tolerates scores sent as numbers or numeric strings.
type evaluationOutput struct {
	Score       json.RawMessage `json:"score"`
	Feedback    string          `json:"feedback"`
	Suggestions string          `json:"suggestions"`
}

// Evaluate grades in.Answer. A blank answer yields ErrEmptyAnswer; any
// transport or decode failure yields *EvaluationError.
func (e *Evaluator) Evaluate(ctx context.Context, in Input) (*Result, error) {
	if strings.TrimSpace(in.Answer) == "" {
		return nil, ErrEmptyAnswer
	}
	ctx = llm.WithPurpose(ctx, llm.PurposeEvaluation)

	info := in.Dimension.Info()
	var buf bytes.Buffer
	err := userTemplate.Execute(&buf, map[string]any{
		"Dimension": in.Dimension,
		"Name":      info.Name,
		"Rubric":    info.Rubric,
		"Science":   in.TextType == catalog.Science,
		"Context":   llm.Clip(in.Context, e.config.MaxContextChars),
		"Question":  in.Question,
		"Answer":    in.Answer,
		"Language":  i18n.New(e.config.Lang).T("ReplyLanguage"),
	})
	if err != nil {
		return nil, &EvaluationError{Err: fmt.Errorf("build prompt: %w", err)}
	}

	resp, err := e.provider.Generate(ctx, llm.Request{
		System:      systemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: buf.String()}},
		Schema:      ResultSchema,
		Validation:  llm.ValidatePerItem,
		MaxTokens:   e.config.MaxTokens,
		Temperature: e.config.Temperature,
	})
	if err != nil {
		return nil, &EvaluationError{Err: err}
	}

	out := llm.DecodeJSON[evaluationOutput](resp.Content)
	if !out.OK() {
		return nil, &EvaluationError{Err: out.Err}
	}
	score, err := parseScore(out.Value.Score)
	if err != nil {
		return nil, &EvaluationError{Err: err}
	}

	return &Result{
		Score:       score,
		Feedback:    strings.TrimSpace(out.Value.Feedback),
		Suggestions: strings.TrimSpace(out.Value.Suggestions),
	}, nil
}

// parseScore rounds a numeric score and clamps it to [0,100].
func parseScore(raw json.RawMessage) (int, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, errors.New("score missing")
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		var s string
		if json.Unmarshal(raw, &s) != nil {
			return 0, fmt.Errorf("score %s is not a number", raw)
		}
		f, err = strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, fmt.Errorf("score %q is not a number", s)
		}
	}
	if math.IsNaN(f) {
		return 0, errors.New("score is NaN")
	}

	f = math.Min(math.Max(f, capability.MinScore), capability.MaxScore)
	return int(math.Round(f)), nil
}
