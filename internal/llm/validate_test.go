package llm

import (
	"encoding/json"
	"errors"
	"testing"
)

func evaluationSchema() *Schema {
	return &Schema{
		Name:        "answer-evaluation",
		Description: "Score and feedback for one answer",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"score":       map[string]any{"type": "number", "minimum": 0, "maximum": 100},
				"feedback":    map[string]any{"type": "string"},
				"suggestions": map[string]any{"type": "string"},
			},
			"required": []any{"score", "feedback", "suggestions"},
		},
	}
}

func questionsSchema() *Schema {
	return &Schema{
		Name:        "reading-questions",
		Description: "Comprehension questions for a passage",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"questions": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"id":         map[string]any{"type": "string"},
							"capability": map[string]any{"type": "string", "enum": []any{"R1", "R2", "R3", "R4"}},
							"prompt":     map[string]any{"type": "string"},
						},
						"required": []any{"id", "capability", "prompt"},
					},
				},
			},
			"required": []any{"questions"},
		},
	}
}

func TestValidateResponse_Strict(t *testing.T) {
	tests := []struct {
		name    string
		schema  *Schema
		raw     string
		wantErr bool
	}{
		{"evaluation", evaluationSchema(), `{"score":82,"feedback":"Good.","suggestions":"Quote the text."}`, false},
		{"missing feedback", evaluationSchema(), `{"score":82}`, true},
		{"score as string", evaluationSchema(), `{"score":"82","feedback":"","suggestions":""}`, true},
		{"score out of range", evaluationSchema(), `{"score":140,"feedback":"","suggestions":""}`, true},
		{"questions", questionsSchema(), `{"questions":[{"id":"q1","capability":"R2","prompt":"Why?"}]}`, false},
		{"unknown capability", questionsSchema(), `{"questions":[{"id":"q1","capability":"R9","prompt":"Why?"}]}`, true},
		{"item without prompt", questionsSchema(), `{"questions":[{"id":"q1","capability":"R1"}]}`, true},
		{"malformed", questionsSchema(), `{"questions":[`, true},
		{"empty", questionsSchema(), ``, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateResponse(tt.schema, ValidateStrict, json.RawMessage(tt.raw))
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var invalid *ErrInvalidResponse
			if !errors.As(err, &invalid) {
				t.Fatalf("expected ErrInvalidResponse, got: %T (%v)", err, err)
			}
			if string(invalid.Content) != tt.raw {
				t.Fatalf("expected the raw reply on the error, got %s", invalid.Content)
			}
		})
	}
}

func TestValidateResponse_PerItemToleratesSchemaBreaks(t *testing.T) {
	tests := []struct {
		name   string
		schema *Schema
		raw    string
	}{
		{"partial batch", questionsSchema(), `{"questions":[
			{"id":"q1","capability":"R1","prompt":"Where?"},
			{"id":"q2","capability":"R9","prompt":"What?"},
			{"id":"q3","capability":"R3"}
		]}`},
		{"score only", evaluationSchema(), `{"score":80}`},
		{"score as string", evaluationSchema(), `{"score":"90","feedback":"ok","suggestions":""}`},
		{"fenced", evaluationSchema(), "```json\n{\"score\":75}\n```"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := validateResponse(tt.schema, ValidatePerItem, json.RawMessage(tt.raw)); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateResponse_PerItemRejectsMalformedJSON(t *testing.T) {
	err := validateResponse(questionsSchema(), ValidatePerItem, json.RawMessage(`{"questions":[{"id":`))
	var invalid *ErrInvalidResponse
	if !errors.As(err, &invalid) {
		t.Fatalf("expected ErrInvalidResponse, got: %T (%v)", err, err)
	}
}

func TestValidateResponse_NilSchema(t *testing.T) {
	if err := validateResponse(nil, ValidateStrict, json.RawMessage(`Ask yourself what the dance tells the hive.`)); err != nil {
		t.Fatalf("expected no error with nil schema, got: %v", err)
	}
}

func TestValidation_String(t *testing.T) {
	if ValidateStrict.String() != "strict" || ValidatePerItem.String() != "per-item" {
		t.Fatalf("unexpected names %q %q", ValidateStrict, ValidatePerItem)
	}
}
