// Package reading ties one learner, one text and one capability profile to
// the question generator, the evaluator, a dialogue and a note book.
package reading

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/abhisek/readmind/internal/capability"
	"github.com/abhisek/readmind/internal/catalog"
	"github.com/abhisek/readmind/internal/dialogue"
	"github.com/abhisek/readmind/internal/evaluator"
	"github.com/abhisek/readmind/internal/notes"
	"github.com/abhisek/readmind/internal/questiongen"
)

// AnswerEvaluator scores one answer.
type AnswerEvaluator interface {
	Evaluate(ctx context.Context, in evaluator.Input) (*evaluator.Result, error)
}

// Deps are the collaborators of a Session. Notes may be nil, in which case
// notes live in memory for the lifetime of the session.
type Deps struct {
	Generator questiongen.Generator
	Evaluator AnswerEvaluator
	Dialogue  *dialogue.Session
	Notes     *notes.Book
}

// Session is one reading session. All methods are safe for concurrent use;
// blocking calls release the lock while the model is working so dialogue,
// notes and other evaluations stay usable.
type Session struct {
	id      string
	text    *catalog.Text
	profile capability.Profile
	target  capability.Dimension
	deps    Deps

	base   context.Context
	cancel context.CancelFunc

	mu            sync.Mutex
	questions     []questiongen.Question
	questionState OpState
	questionErr   string
	records       map[string]*AnswerRecord
	closed        bool
}

// NewSession validates the profile and picks its weakest dimension as the
// generation target.
func NewSession(ctx context.Context, text *catalog.Text, profile capability.Profile, deps Deps) (*Session, error) {
	if text == nil {
		return nil, errors.New("reading session needs a text")
	}
	if deps.Generator == nil || deps.Evaluator == nil || deps.Dialogue == nil {
		return nil, errors.New("reading session needs a generator, an evaluator and a dialogue")
	}
	target, err := capability.Weakest(profile)
	if err != nil {
		return nil, err
	}
	if deps.Notes == nil {
		book, err := notes.Open(ctx, notes.NewMemoryRepository(), text.ID)
		if err != nil {
			return nil, fmt.Errorf("open notes: %w", err)
		}
		deps.Notes = book
	}

	base, cancel := context.WithCancel(context.WithoutCancel(ctx))
	return &Session{
		id:            uuid.NewString(),
		text:          text,
		profile:       profile.Clone(),
		target:        target,
		deps:          deps,
		base:          base,
		cancel:        cancel,
		questionState: OpIdle,
		records:       map[string]*AnswerRecord{},
	}, nil
}

func (s *Session) ID() string                   { return s.id }
func (s *Session) Text() *catalog.Text          { return s.text }
func (s *Session) Target() capability.Dimension { return s.target }
func (s *Session) Profile() capability.Profile  { return s.profile.Clone() }
func (s *Session) Notes() *notes.Book           { return s.deps.Notes }

// bind derives a context that also ends when the session is closed.
func (s *Session) bind(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(s.base, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// LoadQuestions generates a new batch targeted at the weakest dimension,
// replacing any previous batch and its answers. Generation failures are
// soft: the batch becomes empty and the question state failed, so the
// caller can offer a retry. Only ErrQuestionsPending and ErrClosed are
// returned as errors.
func (s *Session) LoadQuestions(ctx context.Context) ([]questiongen.Question, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	if s.questionState == OpPending {
		s.mu.Unlock()
		return nil, ErrQuestionsPending
	}
	s.questionState = OpPending
	s.questionErr = ""
	s.mu.Unlock()

	ctx, done := s.bind(ctx)
	defer done()

	target := s.target
	qs, err := s.deps.Generator.Generate(ctx, questiongen.InputFor(s.text, &target))

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	if err != nil {
		slog.Warn("question generation failed", "text_id", s.text.ID, "dimension", s.target, "error", err)
		s.questions = nil
		s.records = map[string]*AnswerRecord{}
		s.questionState = OpFailed
		s.questionErr = err.Error()
		return []questiongen.Question{}, nil
	}

	s.questions = qs
	s.records = make(map[string]*AnswerRecord, len(qs))
	for _, q := range qs {
		s.records[q.ID] = &AnswerRecord{QuestionID: q.ID, State: OpIdle}
	}
	s.questionState = OpDone
	return append([]questiongen.Question(nil), qs...), nil
}

// QuestionState returns the state of the current batch.
func (s *Session) QuestionState() OpState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.questionState
}

// Questions returns the current batch with answer records.
func (s *Session) Questions() []QuestionView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.questionViews()
}

func (s *Session) questionViews() []QuestionView {
	views := make([]QuestionView, 0, len(s.questions))
	for _, q := range s.questions {
		views = append(views, QuestionView{Question: q, Record: *s.records[q.ID]})
	}
	return views
}

// Record returns the answer record of a question.
func (s *Session) Record(questionID string) (AnswerRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[questionID]
	if !ok {
		return AnswerRecord{}, ErrUnknownQuestion
	}
	return *rec, nil
}

// SetAnswer replaces the answer text of a question that has not been
// evaluated yet.
func (s *Session) SetAnswer(questionID, answer string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[questionID]
	if !ok {
		return ErrUnknownQuestion
	}
	switch {
	case rec.Result != nil:
		return ErrAlreadyEvaluated
	case rec.State == OpPending:
		return ErrEvaluationPending
	}
	rec.Answer = answer
	return nil
}

// Evaluate scores the stored answer of a question. At most one evaluation
// runs per record and a record is scored at most once. A failed
// evaluation leaves the record in the failed state and returns the
// *evaluator.EvaluationError; the learner may resubmit.
func (s *Session) Evaluate(ctx context.Context, questionID string) (*evaluator.Result, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	rec, ok := s.records[questionID]
	if !ok {
		s.mu.Unlock()
		return nil, ErrUnknownQuestion
	}
	switch {
	case rec.Result != nil:
		s.mu.Unlock()
		return nil, ErrAlreadyEvaluated
	case rec.State == OpPending:
		s.mu.Unlock()
		return nil, ErrEvaluationPending
	case strings.TrimSpace(rec.Answer) == "":
		s.mu.Unlock()
		return nil, ErrNoAnswer
	}
	q := s.question(questionID)
	in := evaluator.Input{
		Dimension: q.Dimension,
		Question:  q.Prompt,
		Answer:    rec.Answer,
		Context:   s.text.Excerpt(),
		TextType:  s.text.Type,
	}
	rec.State = OpPending
	rec.Error = ""
	s.mu.Unlock()

	ctx, done := s.bind(ctx)
	defer done()
	res, err := s.deps.Evaluator.Evaluate(ctx, in)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	if s.records[questionID] != rec {
		return nil, fmt.Errorf("question batch replaced: %w", ErrUnknownQuestion)
	}
	if err != nil {
		slog.Warn("answer evaluation failed", "text_id", s.text.ID, "question", questionID, "error", err)
		rec.State = OpFailed
		rec.Error = err.Error()
		return nil, err
	}
	rec.Result = res
	rec.State = OpDone
	return res, nil
}

// question returns the question with id. Callers hold s.mu.
func (s *Session) question(id string) questiongen.Question {
	for _, q := range s.questions {
		if q.ID == id {
			return q
		}
	}
	return questiongen.Question{}
}

// CurrentQuestion is the prompt the dialogue is anchored to: the first
// generated question, or empty when none exist.
func (s *Session) CurrentQuestion() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.questions) == 0 {
		return ""
	}
	return s.questions[0].Prompt
}

// SendTurn forwards a learner turn to the dialogue.
func (s *Session) SendTurn(ctx context.Context, learnerText string) ([]dialogue.Turn, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}

	ctx, done := s.bind(ctx)
	defer done()
	return s.deps.Dialogue.SendTurn(ctx, s.text.Body(), s.CurrentQuestion(), learnerText)
}

// DialogueState maps the dialogue onto the shared operation states.
func (s *Session) DialogueState() OpState {
	switch {
	case s.deps.Dialogue.Pending():
		return OpPending
	case s.deps.Dialogue.State() == dialogue.Active:
		return OpDone
	default:
		return OpIdle
	}
}

// Transcript returns the dialogue turns.
func (s *Session) Transcript() []dialogue.Turn {
	return s.deps.Dialogue.Turns()
}

// Close cancels outstanding model calls. Results arriving afterwards are
// discarded.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cancel()
}

// Snapshot is a point-in-time view of a session.
type Snapshot struct {
	ID            string               `json:"id"`
	TextID        string               `json:"text_id"`
	Title         string               `json:"title"`
	Profile       capability.Profile   `json:"profile"`
	Target        capability.Dimension `json:"target"`
	QuestionState OpState              `json:"question_state"`
	QuestionError string               `json:"question_error,omitempty"`
	Questions     []QuestionView       `json:"questions"`
	DialogueState OpState              `json:"dialogue_state"`
	Transcript    []dialogue.Turn      `json:"transcript"`
	Notes         []notes.Note         `json:"notes"`
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	snap := Snapshot{
		ID:            s.id,
		TextID:        s.text.ID,
		Title:         s.text.Title,
		Profile:       s.profile.Clone(),
		Target:        s.target,
		QuestionState: s.questionState,
		QuestionError: s.questionErr,
		Questions:     s.questionViews(),
	}
	s.mu.Unlock()

	snap.DialogueState = s.DialogueState()
	snap.Transcript = s.Transcript()
	if snap.Transcript == nil {
		snap.Transcript = []dialogue.Turn{}
	}
	snap.Notes = s.deps.Notes.List()
	if snap.Notes == nil {
		snap.Notes = []notes.Note{}
	}
	return snap
}
