package reader

import "github.com/abhisek/readmind/internal/reading"

// sessionReadyMsg is sent when the reading session for the text is open.
type sessionReadyMsg struct {
	Session *reading.Session
	Err     error
}

// questionsLoadedMsg is sent when a generation round ends. Soft failures
// are read from the session state; Err only carries rejections.
type questionsLoadedMsg struct {
	Err error
}

// evaluatedMsg is sent when an answer evaluation ends.
type evaluatedMsg struct {
	QuestionID string
	Err        error
}

// guideReplyMsg is sent when the guide has answered a learner turn.
type guideReplyMsg struct {
	Err error
}
