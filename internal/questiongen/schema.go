package questiongen

import (
	"github.com/abhisek/readmind/internal/capability"
	"github.com/abhisek/readmind/internal/llm"
)

// QuestionsSchema wraps the question array in an object so every provider
// can return it under strict structured output.
var QuestionsSchema = &llm.Schema{
	Name:        "reading-questions",
	Description: "Four reading comprehension questions, one per capability dimension",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"questions": map[string]any{
				"type":     "array",
				"minItems": 1,
				"maxItems": 8,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"id": map[string]any{
							"type":        "string",
							"description": "Short identifier such as q1, q2",
						},
						"capability": map[string]any{
							"type":        "string",
							"enum":        dimensionEnum(),
							"description": "The capability dimension the question exercises",
						},
						"prompt": map[string]any{
							"type":        "string",
							"description": "The question shown to the learner",
						},
					},
					"required":             []any{"id", "capability", "prompt"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"questions"},
		"additionalProperties": false,
	},
}

func dimensionEnum() []any {
	out := make([]any, len(capability.All))
	for i, d := range capability.All {
		out[i] = string(d)
	}
	return out
}
