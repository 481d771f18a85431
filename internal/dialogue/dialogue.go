// Package dialogue runs a Socratic reading conversation: the guide answers
// every learner turn with a question or hint, never with the solution.
package dialogue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/abhisek/readmind/internal/i18n"
	"github.com/abhisek/readmind/internal/llm"
)

var (
	// ErrEmptyTurn is returned for blank learner input. Nothing is appended.
	ErrEmptyTurn = errors.New("learner turn is empty")

	// ErrTurnInFlight is returned while a guide reply is still pending.
	ErrTurnInFlight = errors.New("a guide reply is already pending")
)

// Role identifies who spoke a turn.
type Role string

const (
	Learner Role = "learner"
	Guide   Role = "guide"
)

// Turn is one utterance in the transcript.
type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// State is Idle until the first learner turn, Active afterwards.
type State int

const (
	Idle State = iota
	Active
)

func (s State) String() string {
	if s == Active {
		return "active"
	}
	return "idle"
}

// Config bounds the context sent with each turn.
type Config struct {
	MaxTokens   int
	Temperature float64

	// MaxHistoryTurns caps the transcript sent to the model. Zero sends all.
	MaxHistoryTurns int

	// MaxTextChars caps the passage body, in runes.
	MaxTextChars int

	// MaxWords bounds the length of guide replies.
	MaxWords int

	Lang string
}

func DefaultConfig() Config {
	return Config{
		MaxTokens:       400,
		Temperature:     0.7,
		MaxHistoryTurns: 20,
		MaxTextChars:    4000,
		MaxWords:        100,
		Lang:            i18n.DefaultLang,
	}
}

// Session holds one transcript. It is safe for concurrent use; at most one
// SendTurn runs at a time.
type Session struct {
	provider llm.Provider
	config   Config
	loc      *i18n.Localizer

	mu       sync.Mutex
	turns    []Turn
	inFlight bool
}

func NewSession(provider llm.Provider, cfg Config) *Session {
	return &Session{
		provider: provider,
		config:   cfg,
		loc:      i18n.New(cfg.Lang),
	}
}

// State reports whether any turn has been exchanged.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.turns) == 0 {
		return Idle
	}
	return Active
}

// Pending reports whether a guide reply is outstanding.
func (s *Session) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}

// Turns returns a copy of the transcript.
func (s *Session) Turns() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Turn(nil), s.turns...)
}

// SendTurn appends the learner turn, asks the model for the next guide turn
// and appends it. Service failures are masked by a fallback guide turn, so
// the only errors returned are ErrEmptyTurn and ErrTurnInFlight. The
// returned slice is the transcript after the exchange.
func (s *Session) SendTurn(ctx context.Context, textBody, currentQuestion, learnerText string) ([]Turn, error) {
	if strings.TrimSpace(learnerText) == "" {
		return nil, ErrEmptyTurn
	}

	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return nil, ErrTurnInFlight
	}
	s.inFlight = true
	s.turns = append(s.turns, Turn{Role: Learner, Text: learnerText})
	history := s.window()
	s.mu.Unlock()

	reply := s.reply(ctx, textBody, currentQuestion, history)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, Turn{Role: Guide, Text: reply})
	s.inFlight = false
	return append([]Turn(nil), s.turns...), nil
}

// window returns the tail of the transcript sent to the model. It always
// begins with a learner turn. Callers hold s.mu.
func (s *Session) window() []Turn {
	turns := s.turns
	if n := s.config.MaxHistoryTurns; n > 0 && len(turns) > n {
		turns = turns[len(turns)-n:]
	}
	for len(turns) > 1 && turns[0].Role != Learner {
		turns = turns[1:]
	}
	return append([]Turn(nil), turns...)
}

func (s *Session) reply(ctx context.Context, textBody, currentQuestion string, history []Turn) string {
	ctx = llm.WithPurpose(ctx, llm.PurposeDialogue)

	if strings.TrimSpace(currentQuestion) == "" {
		currentQuestion = s.loc.T("DiscussingText")
	}

	msgs := make([]llm.Message, 0, len(history))
	for _, t := range history {
		role := llm.RoleUser
		if t.Role == Guide {
			role = llm.RoleAssistant
		}
		msgs = append(msgs, llm.Message{Role: role, Content: t.Text})
	}

	resp, err := s.provider.Generate(ctx, llm.Request{
		System:      s.systemPrompt(textBody, currentQuestion),
		Messages:    msgs,
		MaxTokens:   s.config.MaxTokens,
		Temperature: s.config.Temperature,
	})
	if err != nil {
		slog.Warn("dialogue turn failed", "error", err)
		return s.loc.T("GuideFallback")
	}

	text := llm.StripFences(resp.Text())
	if text == "" {
		return s.loc.T("GuideRephrase")
	}
	return text
}

func (s *Session) systemPrompt(textBody, currentQuestion string) string {
	var b strings.Builder
	b.WriteString(`You are a Socratic reading buddy helping a student understand a text.

Rules:
- Never give the answer directly.
- Reply with guiding questions that lead the student back to the text.
- Encourage PISA reading skills: retrieving information, inferring, integrating and reflecting.
- Be warm and encouraging.
`)
	if s.config.MaxWords > 0 {
		fmt.Fprintf(&b, "- Keep every reply under %d words.\n", s.config.MaxWords)
	}
	fmt.Fprintf(&b, "- Reply in %s.\n", s.loc.T("ReplyLanguage"))
	fmt.Fprintf(&b, "\nText:\n\"\"\"\n%s\n\"\"\"\n\nCurrent question: %s\n",
		llm.Clip(textBody, s.config.MaxTextChars), currentQuestion)
	return b.String()
}
