package evaluator

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/abhisek/readmind/internal/capability"
	"github.com/abhisek/readmind/internal/catalog"
	"github.com/abhisek/readmind/internal/i18n"
	"github.com/abhisek/readmind/internal/llm"
)

func greenhouseInput(answer string) Input {
	return Input{
		Dimension: capability.R2,
		Question:  "为什么二氧化碳会导致地表升温？",
		Answer:    answer,
		Context:   "大气中的二氧化碳如同温室的玻璃。",
		TextType:  catalog.Science,
	}
}

func TestEvaluate_Success(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(
		`{"score":82,"feedback":" 因果链条清楚。 ","suggestions":"引用原文中的“长波热辐射”。"}`)})
	ev := New(mock, DefaultConfig())

	res, err := ev.Evaluate(context.Background(), greenhouseInput("因为它挡住了热量散失。"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Result{Score: 82, Feedback: "因果链条清楚。", Suggestions: "引用原文中的“长波热辐射”。"}
	if *res != want {
		t.Fatalf("result = %+v, want %+v", *res, want)
	}

	req := mock.Calls[0]
	if req.Schema != ResultSchema {
		t.Fatal("expected the answer-evaluation schema")
	}
	msg := req.Messages[0].Content
	for _, part := range []string{
		"Capability: R2 (Direct Inference)",
		capability.R2.Info().Rubric,
		"logical rigor and evidence-based reasoning",
		"Student answer: 因为它挡住了热量散失。",
		"in 简体中文",
	} {
		if !strings.Contains(msg, part) {
			t.Errorf("prompt missing %q:\n%s", part, msg)
		}
	}
}

func TestEvaluate_ScoreCoercion(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{`{"score":72.6,"feedback":"","suggestions":""}`, 73},
		{`{"score":72.4,"feedback":"","suggestions":""}`, 72},
		{`{"score":130,"feedback":"","suggestions":""}`, 100},
		{`{"score":-5,"feedback":"","suggestions":""}`, 0},
		{`{"score":"64","feedback":"","suggestions":""}`, 64},
		{`{"score":0,"feedback":"Off topic.","suggestions":""}`, 0},
		{`{"score":1e300}`, 100},
	}
	for _, tt := range tests {
		mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(tt.raw)})
		res, err := New(mock, DefaultConfig()).Evaluate(context.Background(), greenhouseInput("x"))
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.raw, err)
		}
		if res.Score != tt.want {
			t.Errorf("%s: score = %d, want %d", tt.raw, res.Score, tt.want)
		}
	}
}

func TestEvaluate_MissingTextFieldsBecomeEmpty(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(`{"score":50}`)})
	res, err := New(mock, DefaultConfig()).Evaluate(context.Background(), greenhouseInput("x"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Feedback != "" || res.Suggestions != "" {
		t.Fatalf("expected empty feedback and suggestions, got %+v", res)
	}
}

func TestEvaluate_EmptyAnswer(t *testing.T) {
	mock := llm.NewMockProvider()
	for _, answer := range []string{"", "   ", "\n"} {
		_, err := New(mock, DefaultConfig()).Evaluate(context.Background(), greenhouseInput(answer))
		if !errors.Is(err, ErrEmptyAnswer) {
			t.Fatalf("Evaluate(%q) err = %v, want ErrEmptyAnswer", answer, err)
		}
	}
	if mock.CallCount() != 0 {
		t.Fatal("model must not be called for blank answers")
	}
}

func TestEvaluate_Failures(t *testing.T) {
	tests := []struct {
		name string
		resp llm.MockResponse
	}{
		{"transport", llm.MockResponse{Err: &llm.ErrProviderUnavailable{Err: errors.New("down")}}},
		{"malformed", llm.MockResponse{Content: json.RawMessage(`{"score":`)}},
		{"missing score", llm.MockResponse{Content: json.RawMessage(`{"feedback":"good"}`)}},
		{"null score", llm.MockResponse{Content: json.RawMessage(`{"score":null}`)}},
		{"text score", llm.MockResponse{Content: json.RawMessage(`{"score":"excellent"}`)}},
		{"plain text", llm.TextResponse("Great answer!")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := New(llm.NewMockProvider(tt.resp), DefaultConfig()).
				Evaluate(context.Background(), greenhouseInput("answer"))
			if res != nil {
				t.Fatalf("expected no result, got %+v", res)
			}
			var evalErr *EvaluationError
			if !errors.As(err, &evalErr) {
				t.Fatalf("expected *EvaluationError, got %T (%v)", err, err)
			}
		})
	}
}

func TestEvaluate_ContextClippedAndLanguage(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(`{"score":10}`)})
	cfg := DefaultConfig()
	cfg.MaxContextChars = 5
	cfg.Lang = i18n.English

	in := greenhouseInput("x")
	in.Context = strings.Repeat("荷", 40)
	in.TextType = catalog.Prose
	if _, err := New(mock, cfg).Evaluate(context.Background(), in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	msg := mock.Calls[0].Messages[0].Content
	if strings.Count(msg, "荷") != 5 {
		t.Fatalf("expected 5 context runes, got %d", strings.Count(msg, "荷"))
	}
	if strings.Contains(msg, "science text") {
		t.Error("science guidance should be omitted for prose")
	}
	if !strings.Contains(msg, "in English") {
		t.Error("expected English reply language")
	}
}
