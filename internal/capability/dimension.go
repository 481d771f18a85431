package capability

import (
	"fmt"
	"strings"
)

// Dimension is one of the four reading-comprehension capability tags.
type Dimension string

const (
	R1 Dimension = "R1" // Access & retrieve
	R2 Dimension = "R2" // Direct inference
	R3 Dimension = "R3" // Integrate & interpret
	R4 Dimension = "R4" // Evaluate & reflect
)

// All lists the dimensions in canonical order. Anything that must be
// deterministic across dimensions iterates this slice, never a map.
var All = []Dimension{R1, R2, R3, R4}

// Info is the fixed reference data for a dimension.
type Info struct {
	ID          Dimension `json:"id"`
	Name        string    `json:"name"`
	NameZH      string    `json:"name_zh"`
	Description string    `json:"description"`
	Rubric      string    `json:"rubric"`
}

var infos = map[Dimension]Info{
	R1: {
		ID:          R1,
		Name:        "Access & Retrieve",
		NameZH:      "获取信息",
		Description: "Locate explicit facts in the text.",
		Rubric:      "Accuracy and completeness of the facts located; whether the answer points to the right place in the text.",
	},
	R2: {
		ID:          R2,
		Name:        "Direct Inference",
		NameZH:      "直接推论",
		Description: "Draw reasonable inferences such as emotions or cause and effect.",
		Rubric:      "Whether the inference follows from the text; soundness of the causal or emotional reasoning.",
	},
	R3: {
		ID:          R3,
		Name:        "Integrate & Interpret",
		NameZH:      "整合与解释",
		Description: "Summarize main ideas and explain motives and deeper logic.",
		Rubric:      "Synthesis across the passage; quality of the explanation of main idea, motive or mechanism.",
	},
	R4: {
		ID:          R4,
		Name:        "Evaluate & Reflect",
		NameZH:      "评价与批判",
		Description: "Judge the author's position and form an independent view.",
		Rubric:      "Logical rigor, separation of evidence from opinion, and how well the judgement is grounded in the text.",
	},
}

// Valid reports whether d belongs to the closed dimension set.
func (d Dimension) Valid() bool {
	_, ok := infos[d]
	return ok
}

// Info returns the reference data for d. Unknown dimensions yield a
// zero Info with only the ID set.
func (d Dimension) Info() Info {
	if info, ok := infos[d]; ok {
		return info
	}
	return Info{ID: d, Name: string(d)}
}

// DisplayName returns "R1 Access & Retrieve".
func (d Dimension) DisplayName() string {
	return fmt.Sprintf("%s %s", d, d.Info().Name)
}

// Parse converts a tag such as "r3" or "R3" into a Dimension.
func Parse(s string) (Dimension, error) {
	d := Dimension(strings.ToUpper(strings.TrimSpace(s)))
	if !d.Valid() {
		return "", fmt.Errorf("unknown capability dimension %q", s)
	}
	return d, nil
}
