package reader

import (
	"context"
	"errors"
	"log/slog"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/readmind/internal/catalog"
	"github.com/abhisek/readmind/internal/dialogue"
	"github.com/abhisek/readmind/internal/i18n"
	"github.com/abhisek/readmind/internal/notes"
	"github.com/abhisek/readmind/internal/reading"
	"github.com/abhisek/readmind/internal/screen"
	"github.com/abhisek/readmind/internal/ui/components"
	"github.com/abhisek/readmind/internal/ui/layout"
	"github.com/abhisek/readmind/internal/ui/theme"
)

// Factory opens a reading session for a text.
type Factory func(ctx context.Context, t *catalog.Text) (*reading.Session, error)

type panel int

const (
	panelQuestions panel = iota
	panelDialogue
	panelNotes
	panelCount
)

const inputLimit = 2000

// ReaderScreen shows one text next to the exercise, discussion and notes
// panels of its reading session.
type ReaderScreen struct {
	text    *catalog.Text
	loc     *i18n.Localizer
	factory Factory

	sess    *reading.Session
	openErr error
	closed  bool

	panel     panel
	selected  int
	noteSel   int
	showHints bool
	status    string

	input   components.TextInput
	spinner spinner.Model
}

var (
	_ screen.Screen          = (*ReaderScreen)(nil)
	_ screen.Closer          = (*ReaderScreen)(nil)
	_ screen.InputCapturer   = (*ReaderScreen)(nil)
	_ screen.KeyHintProvider = (*ReaderScreen)(nil)
)

func New(t *catalog.Text, loc *i18n.Localizer, factory Factory) *ReaderScreen {
	return &ReaderScreen{
		text:    t,
		loc:     loc,
		factory: factory,
		input:   components.NewTextInput(loc.T("AnswerPlaceholder"), inputLimit),
		spinner: spinner.New(
			spinner.WithSpinner(spinner.MiniDot),
			spinner.WithStyle(lipgloss.NewStyle().Foreground(theme.Accent)),
		),
	}
}

func (r *ReaderScreen) Init() tea.Cmd {
	return tea.Batch(r.input.Init(), r.spinner.Tick, r.open())
}

func (r *ReaderScreen) Title() string {
	return r.text.Title
}

func (r *ReaderScreen) CapturesInput() bool {
	return true
}

// Close ends the reading session and drops any late results.
func (r *ReaderScreen) Close() {
	r.closed = true
	if r.sess != nil {
		r.sess.Close()
	}
}

func (r *ReaderScreen) open() tea.Cmd {
	factory, text := r.factory, r.text
	return func() tea.Msg {
		s, err := factory(context.Background(), text)
		return sessionReadyMsg{Session: s, Err: err}
	}
}

func (r *ReaderScreen) loadQuestions() tea.Cmd {
	s := r.sess
	return func() tea.Msg {
		_, err := s.LoadQuestions(context.Background())
		return questionsLoadedMsg{Err: err}
	}
}

func (r *ReaderScreen) evaluate(questionID string) tea.Cmd {
	s := r.sess
	return func() tea.Msg {
		_, err := s.Evaluate(context.Background(), questionID)
		return evaluatedMsg{QuestionID: questionID, Err: err}
	}
}

func (r *ReaderScreen) sendTurn(text string) tea.Cmd {
	s := r.sess
	return func() tea.Msg {
		_, err := s.SendTurn(context.Background(), text)
		return guideReplyMsg{Err: err}
	}
}

func (r *ReaderScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		r.spinner, cmd = r.spinner.Update(msg)
		return r, cmd

	case sessionReadyMsg:
		if msg.Err != nil {
			slog.Error("open reading session", "text_id", r.text.ID, "error", msg.Err)
			r.openErr = msg.Err
			return r, nil
		}
		if r.closed {
			msg.Session.Close()
			return r, nil
		}
		r.sess = msg.Session
		return r, r.loadQuestions()

	case questionsLoadedMsg:
		if msg.Err != nil && !errors.Is(msg.Err, reading.ErrClosed) {
			r.status = msg.Err.Error()
		}
		r.selected = 0
		r.syncInput()
		return r, nil

	case evaluatedMsg:
		r.status = ""
		if msg.Err != nil && errors.Is(msg.Err, reading.ErrNoAnswer) {
			r.status = r.loc.T("AnswerPlaceholder")
		}
		return r, nil

	case guideReplyMsg:
		if msg.Err != nil && !errors.Is(msg.Err, reading.ErrClosed) && !errors.Is(msg.Err, dialogue.ErrEmptyTurn) {
			r.status = msg.Err.Error()
		}
		return r, nil

	case tea.KeyMsg:
		return r.handleKey(msg)
	}

	var cmd tea.Cmd
	r.input, cmd = r.input.Update(msg)
	return r, cmd
}

func (r *ReaderScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	switch msg.String() {
	case "tab":
		r.switchPanel(1)
		return r, nil
	case "shift+tab":
		r.switchPanel(-1)
		return r, nil
	case "ctrl+t":
		r.showHints = !r.showHints
		return r, nil
	}

	if r.sess == nil {
		return r, nil
	}

	switch r.panel {
	case panelQuestions:
		return r.handleQuestionKey(msg)
	case panelDialogue:
		if msg.String() == "enter" {
			return r.submitTurn()
		}
	case panelNotes:
		return r.handleNoteKey(msg)
	}

	var cmd tea.Cmd
	r.input, cmd = r.input.Update(msg)
	return r, cmd
}

func (r *ReaderScreen) switchPanel(dir int) {
	r.saveDraft()
	r.panel = (r.panel + panel(dir) + panelCount) % panelCount
	r.status = ""
	switch r.panel {
	case panelQuestions:
		r.input.SetPlaceholder(r.loc.T("AnswerPlaceholder"))
	case panelDialogue:
		r.input.SetPlaceholder(r.loc.T("DialoguePlaceholder"))
	case panelNotes:
		r.input.SetPlaceholder(r.loc.T("NotePlaceholder"))
	}
	r.syncInput()
}

// syncInput loads the field with the selected question's answer, or
// clears it on the other panels.
func (r *ReaderScreen) syncInput() {
	r.input.Reset()
	if r.panel != panelQuestions || r.sess == nil {
		return
	}
	if v, ok := r.selectedQuestion(); ok {
		r.input.SetValue(v.Record.Answer)
	}
}

// saveDraft stores the field as the selected question's answer. Records
// that are pending or scored reject it, which is fine.
func (r *ReaderScreen) saveDraft() {
	if r.panel != panelQuestions || r.sess == nil {
		return
	}
	if v, ok := r.selectedQuestion(); ok {
		if err := unexpectedDraftError(r.sess.SetAnswer(v.Question.ID, r.input.Value())); err != nil {
			slog.Warn("save answer draft", "text_id", r.text.ID, "question_id", v.Question.ID, "error", err)
		}
	}
}

// unexpectedDraftError filters out the refusals a read-only record gives
// for a draft; the input already shows the stored answer for those.
func unexpectedDraftError(err error) error {
	if errors.Is(err, reading.ErrAlreadyEvaluated) || errors.Is(err, reading.ErrEvaluationPending) {
		return nil
	}
	return err
}

func (r *ReaderScreen) selectedQuestion() (reading.QuestionView, bool) {
	qs := r.sess.Questions()
	if r.selected < 0 || r.selected >= len(qs) {
		return reading.QuestionView{}, false
	}
	return qs[r.selected], true
}

func (r *ReaderScreen) handleQuestionKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	qs := r.sess.Questions()
	if len(qs) == 0 {
		state := r.sess.QuestionState()
		if (msg.String() == "r" || msg.String() == "ctrl+r") && (state == reading.OpFailed || state == reading.OpDone) {
			r.status = ""
			return r, r.loadQuestions()
		}
		return r, nil
	}

	switch msg.String() {
	case "up", "down":
		r.saveDraft()
		if msg.String() == "up" {
			r.selected = max(r.selected-1, 0)
		} else {
			r.selected = min(r.selected+1, len(qs)-1)
		}
		r.syncInput()
		return r, nil
	case "enter":
		v := qs[r.selected]
		if v.Record.Evaluated() || v.Record.State == reading.OpPending {
			return r, nil
		}
		if r.input.Blank() {
			r.status = r.loc.T("AnswerPlaceholder")
			return r, nil
		}
		if err := r.sess.SetAnswer(v.Question.ID, r.input.Value()); err != nil {
			r.status = err.Error()
			return r, nil
		}
		r.status = ""
		return r, r.evaluate(v.Question.ID)
	}

	// Scored and in-flight answers are read-only.
	if v := qs[r.selected]; v.Record.Evaluated() || v.Record.State == reading.OpPending {
		return r, nil
	}
	var cmd tea.Cmd
	r.input, cmd = r.input.Update(msg)
	r.saveDraft()
	return r, cmd
}

func (r *ReaderScreen) submitTurn() (screen.Screen, tea.Cmd) {
	if r.input.Blank() || r.sess.DialogueState() == reading.OpPending {
		return r, nil
	}
	text := r.input.Value()
	r.input.Reset()
	r.status = ""
	return r, r.sendTurn(text)
}

func (r *ReaderScreen) handleNoteKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	book := r.sess.Notes()
	ctx := context.Background()

	switch msg.String() {
	case "up":
		r.noteSel = max(r.noteSel-1, 0)
		return r, nil
	case "down":
		r.noteSel = min(r.noteSel+1, max(book.Len()-1, 0))
		return r, nil
	case "enter":
		if r.input.Blank() {
			return r, nil
		}
		if _, err := book.Add(ctx, r.input.Value()); err != nil {
			r.status = err.Error()
			return r, nil
		}
		r.input.Reset()
		r.noteSel = 0
		r.status = ""
		return r, nil
	case "ctrl+s", "ctrl+d":
		list := book.List()
		if r.noteSel >= len(list) {
			return r, nil
		}
		var err error
		if msg.String() == "ctrl+s" {
			err = book.Submit(ctx, list[r.noteSel].ID)
		} else {
			err = book.Delete(ctx, list[r.noteSel].ID)
			r.noteSel = min(r.noteSel, max(book.Len()-1, 0))
		}
		r.status = ""
		if err != nil {
			r.status = err.Error()
		}
		return r, nil
	}

	var cmd tea.Cmd
	r.input, cmd = r.input.Update(msg)
	return r, cmd
}

func (r *ReaderScreen) KeyHints() []layout.KeyHint {
	hints := []layout.KeyHint{
		{Key: "Esc", Description: r.loc.T("Back")},
		{Key: "Tab", Description: r.loc.T("SwitchPanel")},
		{Key: "Ctrl+T", Description: r.loc.T("ToggleHints")},
	}
	switch r.panel {
	case panelQuestions:
		hints = append(hints, layout.KeyHint{Key: "Enter", Description: r.loc.T("Evaluate")})
		if r.sess != nil && len(r.sess.Questions()) == 0 && r.sess.QuestionState() == reading.OpFailed {
			hints = append(hints, layout.KeyHint{Key: "r", Description: r.loc.T("Retry")})
		}
	case panelDialogue:
		hints = append(hints, layout.KeyHint{Key: "Enter", Description: r.loc.T("Send")})
	case panelNotes:
		hints = append(hints,
			layout.KeyHint{Key: "Ctrl+S", Description: r.loc.T("SubmitNote")},
			layout.KeyHint{Key: "Ctrl+D", Description: r.loc.T("DeleteNote")},
		)
	}
	return hints
}

// notesBook is the session's note book, or nil before the session opens.
func (r *ReaderScreen) notesBook() *notes.Book {
	if r.sess == nil {
		return nil
	}
	return r.sess.Notes()
}
