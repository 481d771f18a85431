// Package server exposes reading sessions over a JSON HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/abhisek/readmind/internal/capability"
	"github.com/abhisek/readmind/internal/catalog"
	"github.com/abhisek/readmind/internal/dialogue"
	"github.com/abhisek/readmind/internal/evaluator"
	"github.com/abhisek/readmind/internal/i18n"
	"github.com/abhisek/readmind/internal/notes"
	"github.com/abhisek/readmind/internal/reading"
)

// SessionFactory builds a reading session with its collaborators wired.
type SessionFactory func(ctx context.Context, text *catalog.Text, profile capability.Profile) (*reading.Session, error)

// Server holds the catalog and the live reading sessions.
type Server struct {
	catalog        *catalog.Catalog
	newSession     SessionFactory
	defaultProfile capability.Profile
	lang           string

	mu       sync.Mutex
	sessions map[string]*reading.Session
}

func New(cat *catalog.Catalog, factory SessionFactory, defaultProfile capability.Profile, lang string) *Server {
	return &Server{
		catalog:        cat,
		newSession:     factory,
		defaultProfile: defaultProfile,
		lang:           lang,
		sessions:       map[string]*reading.Session{},
	}
}

// Handler returns the root handler with middleware applied.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(i18n.Middleware(s.lang))
	r.Route("/api", s.Routes)
	return r
}

// Routes registers the API routes on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/texts", s.handleListTexts)
	r.Get("/texts/{textID}", s.handleGetText)
	r.Get("/capabilities", s.handleCapabilities)

	r.Post("/sessions", s.handleCreateSession)
	r.Route("/sessions/{sessionID}", func(r chi.Router) {
		r.Use(s.sessionCtx)
		r.Get("/", s.handleGetSession)
		r.Delete("/", s.handleCloseSession)
		r.Post("/questions", s.handleLoadQuestions)
		r.Put("/answers/{questionID}", s.handleSetAnswer)
		r.Post("/answers/{questionID}/evaluate", s.handleEvaluate)
		r.Post("/dialogue", s.handleDialogue)
		r.Get("/notes", s.handleListNotes)
		r.Post("/notes", s.handleAddNote)
		r.Post("/notes/{noteID}/submit", s.handleSubmitNote)
		r.Delete("/notes/{noteID}", s.handleDeleteNote)
	})
}

// Close ends every live session.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.sessions {
		sess.Close()
		delete(s.sessions, id)
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		slog.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

type ctxKey struct{}

func (s *Server) sessionCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "sessionID")
		s.mu.Lock()
		sess, ok := s.sessions[id]
		s.mu.Unlock()
		if !ok {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, sess)))
	})
}

func sessionFrom(r *http.Request) *reading.Session {
	return r.Context().Value(ctxKey{}).(*reading.Session)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// writeDomainError maps session errors onto HTTP statuses. Model-service
// failures get a neutral localized message.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var evalErr *evaluator.EvaluationError
	switch {
	case errors.Is(err, reading.ErrUnknownQuestion),
		errors.Is(err, catalog.ErrTextNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, reading.ErrNoAnswer),
		errors.Is(err, evaluator.ErrEmptyAnswer),
		errors.Is(err, dialogue.ErrEmptyTurn),
		errors.Is(err, notes.ErrEmptyContent),
		errors.Is(err, capability.ErrInvalidProfile):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, reading.ErrAlreadyEvaluated),
		errors.Is(err, reading.ErrEvaluationPending),
		errors.Is(err, reading.ErrQuestionsPending),
		errors.Is(err, dialogue.ErrTurnInFlight),
		errors.Is(err, reading.ErrClosed):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &evalErr):
		writeError(w, http.StatusBadGateway, i18n.T(r.Context(), "EvaluationFailed"))
	default:
		slog.Error("request failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, i18n.T(r.Context(), "ServiceUnavailable"))
	}
}
