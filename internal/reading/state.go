package reading

import (
	"errors"

	"github.com/abhisek/readmind/internal/evaluator"
	"github.com/abhisek/readmind/internal/questiongen"
)

var (
	ErrUnknownQuestion   = errors.New("unknown question")
	ErrNoAnswer          = errors.New("question has no answer")
	ErrAlreadyEvaluated  = errors.New("answer already evaluated")
	ErrEvaluationPending = errors.New("evaluation already in progress")
	ErrQuestionsPending  = errors.New("question generation already in progress")
	ErrClosed            = errors.New("reading session closed")
)

// OpState tags an entity with the progress of the asynchronous operation
// that affects it.
type OpState string

const (
	OpIdle    OpState = "idle"
	OpPending OpState = "pending"
	OpDone    OpState = "done"
	OpFailed  OpState = "failed"
)

// AnswerRecord is the learner's answer to one question. The answer can be
// edited until a Result is attached.
type AnswerRecord struct {
	QuestionID string            `json:"question_id"`
	Answer     string            `json:"answer"`
	Result     *evaluator.Result `json:"result,omitempty"`
	State      OpState           `json:"state"`

	// Error describes the last failed evaluation.
	Error string `json:"error,omitempty"`
}

// Evaluated reports whether a result is attached.
func (r AnswerRecord) Evaluated() bool { return r.Result != nil }

// QuestionView pairs a question with its answer record.
type QuestionView struct {
	Question questiongen.Question `json:"question"`
	Record   AnswerRecord         `json:"record"`
}
