package questiongen

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/abhisek/readmind/internal/capability"
	"github.com/abhisek/readmind/internal/catalog"
)

const systemPrompt = `You are an expert reading teacher writing PISA-aligned reading comprehension exercises for middle school students.

Rules:
- Write exactly four questions, one for each capability dimension R1, R2, R3 and R4, in that order.
- R1 Access & Retrieve: locate explicit facts, definitions, data or conditions stated in the text.
- R2 Direct Inference: infer emotions, causes and effects, or predict results that follow from the text.
- R3 Integrate & Interpret: summarize the main idea, explain motives, mechanisms or metaphors across the passage.
- R4 Evaluate & Reflect: judge the author's position, separate evidence from opinion, or weigh the wider impact.
- Every question must be answerable from the text alone and must not reveal its own answer.
- Use ids q1, q2, q3, q4.`

const scienceRules = `
Dimension rules for science texts:
- R1: focus on specific definitions, data, or explicit conditions.
- R2: infer causal relationships (if A then B), mechanisms, or predict results.
- R3: synthesize the full mechanism or explain scientific metaphors and principles.
- R4: challenge scientific rigor, identify evidence versus opinion, or evaluate societal impact and ethics.`

var userTemplate = template.Must(template.New("questions").Parse(`Text type: {{.Type}}
Title: {{.Title}}
Difficulty: {{.Difficulty}}
{{- if .Science}}
{{.ScienceRules}}
{{- end}}

Personalization: {{.Focus}}

Write the questions in {{.Language}}.

Text:
"""
{{.Body}}
"""`))

type promptData struct {
	Type         catalog.TextType
	Title        string
	Difficulty   catalog.Difficulty
	Science      bool
	ScienceRules string
	Focus        string
	Language     string
	Body         string
}

func focusLine(target *capability.Dimension) string {
	if target == nil {
		return "the student is working on overall reading ability; balance all four dimensions."
	}
	return fmt.Sprintf("the student is currently struggling with %s; make the %s question more challenging.",
		target.DisplayName(), *target)
}

func buildUserMessage(in Input, body, language string) (string, error) {
	var buf bytes.Buffer
	err := userTemplate.Execute(&buf, promptData{
		Type:         in.TextType,
		Title:        in.Title,
		Difficulty:   in.Difficulty,
		Science:      in.TextType == catalog.Science,
		ScienceRules: scienceRules,
		Focus:        focusLine(in.Target),
		Language:     language,
		Body:         body,
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
