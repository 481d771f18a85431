package questiongen

import (
	"github.com/abhisek/readmind/internal/capability"
	"github.com/abhisek/readmind/internal/catalog"
)

// Question is one generated exercise.
type Question struct {
	ID        string               `json:"id"`
	Dimension capability.Dimension `json:"capability"`
	Prompt    string               `json:"prompt"`
}

// Input is everything the generator needs to know about the text and the
// learner.
type Input struct {
	Title      string
	Body       string
	TextType   catalog.TextType
	Difficulty catalog.Difficulty

	// Target is the learner's weakest dimension. Nil asks for an overall
	// set with no dimension emphasized.
	Target *capability.Dimension
}

// InputFor builds an Input from a catalog text and an optional target.
func InputFor(t *catalog.Text, target *capability.Dimension) Input {
	return Input{
		Title:      t.Title,
		Body:       t.Body(),
		TextType:   t.Type,
		Difficulty: t.Difficulty,
		Target:     target,
	}
}
