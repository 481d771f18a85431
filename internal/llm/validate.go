package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Validation selects how a structured reply is checked against its schema.
type Validation int

const (
	// ValidateStrict rejects a reply that breaks the schema.
	ValidateStrict Validation = iota

	// ValidatePerItem only rejects malformed JSON. Schema violations are
	// logged and the caller keeps or drops each item itself.
	ValidatePerItem
)

func (v Validation) String() string {
	if v == ValidatePerItem {
		return "per-item"
	}
	return "strict"
}

// compiled schemas keyed by Schema.Name
var schemaCache sync.Map

// validateResponse checks raw against schema under mode. A nil schema
// accepts anything. Failures are *ErrInvalidResponse.
func validateResponse(schema *Schema, mode Validation, raw json.RawMessage) error {
	if schema == nil {
		return nil
	}

	doc := raw
	if mode == ValidatePerItem {
		doc = json.RawMessage(StripFences(string(raw)))
	}
	var parsed any
	if err := json.Unmarshal(doc, &parsed); err != nil {
		return &ErrInvalidResponse{
			Content: raw,
			Err:     fmt.Errorf("invalid JSON: %w", err),
		}
	}

	compiled, err := compileSchema(schema)
	if err != nil {
		return &ErrInvalidResponse{
			Content: raw,
			Err:     fmt.Errorf("compile schema %q: %w", schema.Name, err),
		}
	}

	if err := compiled.Validate(parsed); err != nil {
		if mode == ValidatePerItem {
			slog.Debug("structured reply deviates from schema",
				"schema", schema.Name, "error", err)
			return nil
		}
		return &ErrInvalidResponse{
			Content: raw,
			Err:     fmt.Errorf("reply does not match schema %q: %w", schema.Name, err),
		}
	}
	return nil
}

func compileSchema(schema *Schema) (*jsonschema.Schema, error) {
	if cached, ok := schemaCache.Load(schema.Name); ok {
		return cached.(*jsonschema.Schema), nil
	}

	// AddResource wants a decoded JSON value, so round-trip the Go map.
	b, err := json.Marshal(schema.Definition)
	if err != nil {
		return nil, fmt.Errorf("marshal definition: %w", err)
	}
	var def any
	if err := json.Unmarshal(b, &def); err != nil {
		return nil, fmt.Errorf("decode definition: %w", err)
	}

	url := "schema://" + schema.Name + ".json"
	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, def); err != nil {
		return nil, fmt.Errorf("add resource: %w", err)
	}
	compiled, err := c.Compile(url)
	if err != nil {
		return nil, err
	}

	schemaCache.Store(schema.Name, compiled)
	return compiled, nil
}
