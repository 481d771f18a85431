package screen

import (
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/readmind/internal/ui/layout"
)

// Screen is one page of the terminal reader.
type Screen interface {
	Init() tea.Cmd
	Update(msg tea.Msg) (Screen, tea.Cmd)

	// View renders the content area, excluding header and footer.
	View(width, height int) string

	// Title is shown in the header.
	Title() string
}

// KeyHintProvider lets a screen replace the default footer hints.
type KeyHintProvider interface {
	KeyHints() []layout.KeyHint
}

// Closer is implemented by screens that hold resources, such as a reading
// session with model calls in flight. The router calls Close when the
// screen is popped.
type Closer interface {
	Close()
}

// InputCapturer is implemented by screens with a focused text field, so
// global shortcuts like q do not steal keystrokes.
type InputCapturer interface {
	CapturesInput() bool
}
