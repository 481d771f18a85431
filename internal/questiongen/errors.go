package questiongen

import (
	"errors"
	"fmt"
)

// ErrEmptyText is returned before any model call when the text body is
// blank.
var ErrEmptyText = errors.New("text body is empty")

// Reasons a generation attempt produced no questions.
const (
	ReasonPrompt    = "prompt"
	ReasonTransport = "transport"
	ReasonDecode    = "decode"
	ReasonEmpty     = "empty"
)

// GenerationError reports why no questions could be produced.
type GenerationError struct {
	Reason string
	Err    error
}

func (e *GenerationError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("question generation failed (%s)", e.Reason)
	}
	return fmt.Sprintf("question generation failed (%s): %v", e.Reason, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }
