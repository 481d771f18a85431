package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"

	"github.com/abhisek/readmind/internal/capability"
	"github.com/abhisek/readmind/internal/catalog"
)

type textSummary struct {
	ID                 string                 `json:"id"`
	Title              string                 `json:"title"`
	Author             string                 `json:"author"`
	Level              string                 `json:"level"`
	Difficulty         catalog.Difficulty     `json:"difficulty"`
	Type               catalog.TextType       `json:"type"`
	Tags               []string               `json:"tags"`
	TargetCapabilities []capability.Dimension `json:"target_capabilities"`
}

func summarize(t *catalog.Text, _ int) textSummary {
	return textSummary{
		ID:                 t.ID,
		Title:              t.Title,
		Author:             t.Author,
		Level:              t.Level,
		Difficulty:         t.Difficulty,
		Type:               t.Type,
		Tags:               t.Tags,
		TargetCapabilities: t.TargetCapabilities,
	}
}

// GET /api/texts?type=Science&target=R2
func (s *Server) handleListTexts(w http.ResponseWriter, r *http.Request) {
	texts := s.catalog.All()
	if tt := r.URL.Query().Get("type"); tt != "" {
		texts = s.catalog.ByType(catalog.TextType(tt))
	}
	if target := r.URL.Query().Get("target"); target != "" {
		d, err := capability.Parse(target)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		texts = lo.Filter(texts, func(t *catalog.Text, _ int) bool { return t.Targets(d) })
	}
	writeJSON(w, http.StatusOK, lo.Map(texts, summarize))
}

func (s *Server) handleGetText(w http.ResponseWriter, r *http.Request) {
	t, err := s.catalog.Get(chi.URLParam(r, "textID"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleCapabilities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, lo.Map(capability.All, func(d capability.Dimension, _ int) capability.Info {
		return d.Info()
	}))
}

type createSessionRequest struct {
	TextID  string         `json:"text_id"`
	Profile map[string]int `json:"profile"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	text, err := s.catalog.Get(req.TextID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	profile := s.defaultProfile.Clone()
	if req.Profile != nil {
		profile, err = capability.FromMap(req.Profile)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
	}

	sess, err := s.newSession(r.Context(), text, profile)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	s.mu.Lock()
	s.sessions[sess.ID()] = sess
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, sess.Snapshot())
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sessionFrom(r).Snapshot())
}

func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	s.mu.Lock()
	delete(s.sessions, sess.ID())
	s.mu.Unlock()
	sess.Close()
	w.WriteHeader(http.StatusNoContent)
}

// POST /questions generates the batch, or regenerates it after a failure.
// A soft failure still answers 200 with question_state "failed".
func (s *Server) handleLoadQuestions(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	if _, err := sess.LoadQuestions(r.Context()); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

type answerRequest struct {
	Answer string `json:"answer"`
}

func (s *Server) handleSetAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	sess := sessionFrom(r)
	qid := chi.URLParam(r, "questionID")
	if err := sess.SetAnswer(qid, req.Answer); err != nil {
		writeDomainError(w, r, err)
		return
	}
	rec, _ := sess.Record(qid)
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	qid := chi.URLParam(r, "questionID")
	if _, err := sess.Evaluate(r.Context(), qid); err != nil {
		writeDomainError(w, r, err)
		return
	}
	rec, _ := sess.Record(qid)
	writeJSON(w, http.StatusOK, rec)
}

type dialogueRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleDialogue(w http.ResponseWriter, r *http.Request) {
	var req dialogueRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	turns, err := sessionFrom(r).SendTurn(r.Context(), req.Text)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"transcript": turns})
}

func (s *Server) handleListNotes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sessionFrom(r).Snapshot().Notes)
}

type noteRequest struct {
	Content string `json:"content"`
}

func (s *Server) handleAddNote(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	n, err := sessionFrom(r).Notes().Add(r.Context(), req.Content)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

func (s *Server) handleSubmitNote(w http.ResponseWriter, r *http.Request) {
	book := sessionFrom(r).Notes()
	id := chi.URLParam(r, "noteID")
	if err := book.Submit(r.Context(), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	n, ok := book.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "note not found")
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (s *Server) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	if err := sessionFrom(r).Notes().Delete(r.Context(), chi.URLParam(r, "noteID")); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
