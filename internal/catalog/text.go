package catalog

import (
	"strings"

	"github.com/abhisek/readmind/internal/capability"
)

// Difficulty is the difficulty tier of a reading text.
type Difficulty string

const (
	Beginner     Difficulty = "Beginner"
	Intermediate Difficulty = "Intermediate"
	Advanced     Difficulty = "Advanced"
)

// Rank orders difficulties from easiest (0) to hardest. Unknown values rank -1.
func (d Difficulty) Rank() int {
	switch d {
	case Beginner:
		return 0
	case Intermediate:
		return 1
	case Advanced:
		return 2
	default:
		return -1
	}
}

// TextType tags the genre of a reading text.
type TextType string

const (
	Prose   TextType = "Prose"
	Novel   TextType = "Novel"
	News    TextType = "News"
	Poetry  TextType = "Poetry"
	Science TextType = "Science"
	History TextType = "History"
)

// AllTypes returns all text types in display order.
func AllTypes() []TextType {
	return []TextType{Prose, Novel, News, Poetry, Science, History}
}

// Segment is one ordered slice of a reading text.
type Segment struct {
	ID      string `yaml:"id" json:"id"`
	Content string `yaml:"content" json:"content"`
	Hint    string `yaml:"hint,omitempty" json:"hint,omitempty"`
}

// Text is a reading text supplied by the catalog. Immutable once loaded.
type Text struct {
	ID                 string                 `yaml:"id" json:"id"`
	Title              string                 `yaml:"title" json:"title"`
	Author             string                 `yaml:"author" json:"author"`
	Level              string                 `yaml:"level,omitempty" json:"level,omitempty"`
	Difficulty         Difficulty             `yaml:"difficulty" json:"difficulty"`
	Type               TextType               `yaml:"type" json:"type"`
	Tags               []string               `yaml:"tags,omitempty" json:"tags,omitempty"`
	TargetCapabilities []capability.Dimension `yaml:"target_capabilities" json:"target_capabilities"`
	Segments           []Segment              `yaml:"segments" json:"segments"`
}

// Body joins all segment contents with newlines.
func (t *Text) Body() string {
	parts := make([]string, len(t.Segments))
	for i, s := range t.Segments {
		parts[i] = s.Content
	}
	return strings.Join(parts, "\n")
}

// Excerpt returns the first segment's content, the passage used as
// evaluation context.
func (t *Text) Excerpt() string {
	if len(t.Segments) == 0 {
		return ""
	}
	return t.Segments[0].Content
}

// Targets reports whether the text is designed to exercise d.
func (t *Text) Targets(d capability.Dimension) bool {
	for _, c := range t.TargetCapabilities {
		if c == d {
			return true
		}
	}
	return false
}
