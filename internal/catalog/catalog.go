package catalog

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/abhisek/readmind/internal/capability"
)

//go:embed data/texts.yaml
var sampleFS embed.FS

// ErrTextNotFound is returned when a text ID is not in the catalog.
var ErrTextNotFound = errors.New("text not found")

// Catalog is an ordered, read-only collection of reading texts.
type Catalog struct {
	texts []*Text
	byID  map[string]*Text
}

// New builds a catalog from texts after validating each one.
func New(texts []*Text) (*Catalog, error) {
	c := &Catalog{byID: make(map[string]*Text, len(texts))}
	for _, t := range texts {
		if err := validateText(t); err != nil {
			return nil, err
		}
		if _, dup := c.byID[t.ID]; dup {
			return nil, fmt.Errorf("duplicate text id %q", t.ID)
		}
		c.byID[t.ID] = t
		c.texts = append(c.texts, t)
	}
	return c, nil
}

// Sample returns the built-in catalog of sample texts.
func Sample() (*Catalog, error) {
	data, err := sampleFS.ReadFile("data/texts.yaml")
	if err != nil {
		return nil, fmt.Errorf("read sample catalog: %w", err)
	}
	return Parse(data, "yaml")
}

// LoadFile reads a catalog from a YAML or JSON file; the format is chosen by
// extension (.json, otherwise YAML).
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	format := "yaml"
	if strings.EqualFold(filepath.Ext(path), ".json") {
		format = "json"
	}
	c, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes a list of texts in the given format ("yaml" or "json").
func Parse(data []byte, format string) (*Catalog, error) {
	var texts []*Text
	var err error
	switch format {
	case "json":
		err = json.Unmarshal(data, &texts)
	case "yaml":
		err = yaml.Unmarshal(data, &texts)
	default:
		return nil, fmt.Errorf("unsupported catalog format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s catalog: %w", format, err)
	}
	return New(texts)
}

// All returns the texts in catalog order.
func (c *Catalog) All() []*Text {
	return c.texts
}

// Len returns the number of texts.
func (c *Catalog) Len() int {
	return len(c.texts)
}

// Get returns the text with the given id.
func (c *Catalog) Get(id string) (*Text, error) {
	t, ok := c.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrTextNotFound, id)
	}
	return t, nil
}

// ByType returns texts of the given type, in catalog order.
func (c *Catalog) ByType(tt TextType) []*Text {
	return lo.Filter(c.texts, func(t *Text, _ int) bool {
		return t.Type == tt
	})
}

// Recommend returns texts designed to exercise d. Texts that list d first
// come before those listing it later; within that, harder texts come first.
// Catalog order breaks remaining ties.
func (c *Catalog) Recommend(d capability.Dimension) []*Text {
	matches := lo.Filter(c.texts, func(t *Text, _ int) bool {
		return t.Targets(d)
	})
	sort.SliceStable(matches, func(i, j int) bool {
		pi, pj := targetPosition(matches[i], d), targetPosition(matches[j], d)
		if pi != pj {
			return pi < pj
		}
		return matches[i].Difficulty.Rank() > matches[j].Difficulty.Rank()
	})
	return matches
}

func targetPosition(t *Text, d capability.Dimension) int {
	return lo.IndexOf(t.TargetCapabilities, d)
}

func validateText(t *Text) error {
	if t == nil {
		return errors.New("nil text")
	}
	if strings.TrimSpace(t.ID) == "" {
		return errors.New("text id is empty")
	}
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("text %q: title is empty", t.ID)
	}
	if t.Difficulty.Rank() < 0 {
		return fmt.Errorf("text %q: unknown difficulty %q", t.ID, t.Difficulty)
	}
	if !lo.Contains(AllTypes(), t.Type) {
		return fmt.Errorf("text %q: unknown type %q", t.ID, t.Type)
	}
	if len(t.Segments) == 0 {
		return fmt.Errorf("text %q: no segments", t.ID)
	}
	for _, s := range t.Segments {
		if strings.TrimSpace(s.Content) == "" {
			return fmt.Errorf("text %q: segment %q is empty", t.ID, s.ID)
		}
	}
	for _, d := range t.TargetCapabilities {
		if !d.Valid() {
			return fmt.Errorf("text %q: unknown capability %q", t.ID, d)
		}
	}
	return nil
}
