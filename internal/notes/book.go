package notes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrEmptyContent is returned by Add for blank content.
var ErrEmptyContent = errors.New("note content is empty")

// Book is the note list for one reading text. Every mutation first reloads
// the stored list, so writes made through another Book for the same text
// are kept, then writes the result through to the Repository before it
// returns. If the write fails the in-memory list is left unchanged.
type Book struct {
	mu     sync.Mutex
	repo   Repository
	textID string
	notes  []Note

	newID func() string
	now   func() time.Time
}

// Option customizes a Book.
type Option func(*Book)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(b *Book) { b.now = now }
}

// WithIDs overrides the note id generator.
func WithIDs(newID func() string) Option {
	return func(b *Book) { b.newID = newID }
}

// Open loads the notes stored for textID. Absent or corrupt stored data
// yields an empty book; only a failing repository is an error.
func Open(ctx context.Context, repo Repository, textID string, opts ...Option) (*Book, error) {
	b := &Book{
		repo:   repo,
		textID: textID,
		newID:  newNoteID,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}

	if err := b.reload(ctx); err != nil {
		return nil, err
	}
	return b, nil
}

// reload replaces the in-memory list with the stored one. Callers hold
// b.mu or own b exclusively.
func (b *Book) reload(ctx context.Context) error {
	data, err := b.repo.Load(ctx, b.textID)
	if err != nil {
		return fmt.Errorf("load notes for %s: %w", b.textID, err)
	}
	notes, err := Decode(data)
	if err != nil {
		slog.Warn("discarding unreadable notes", "text_id", b.textID, "error", err)
		notes = nil
	}
	b.notes = notes
	return nil
}

// newNoteID returns a fresh time-ordered note id.
func newNoteID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// TextID returns the reading text this book belongs to.
func (b *Book) TextID() string {
	return b.textID
}

// List returns the notes, most recent first.
func (b *Book) List() []Note {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.notes)
}

// Len returns the number of notes.
func (b *Book) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.notes)
}

// Get returns the note with id.
func (b *Book) Get(id string) (Note, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i := b.index(id); i >= 0 {
		return b.notes[i], true
	}
	return Note{}, false
}

// Add creates a draft note at the front of the list. Content is stored as
// entered.
func (b *Book) Add(ctx context.Context, content string) (Note, error) {
	if strings.TrimSpace(content) == "" {
		return Note{}, ErrEmptyContent
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.reload(ctx); err != nil {
		return Note{}, err
	}

	n := Note{
		ID:        b.newID(),
		Content:   content,
		Timestamp: b.now().UnixMilli(),
		Status:    StatusDraft,
	}
	next := make([]Note, 0, len(b.notes)+1)
	next = append(next, n)
	next = append(next, b.notes...)

	if err := b.commit(ctx, next); err != nil {
		return Note{}, err
	}
	return n, nil
}

// Submit marks a draft as submitted. Unknown ids and already submitted
// notes are left alone.
func (b *Book) Submit(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.reload(ctx); err != nil {
		return err
	}

	i := b.index(id)
	if i < 0 || b.notes[i].Submitted() {
		return nil
	}
	next := slices.Clone(b.notes)
	next[i].Status = StatusSubmitted
	return b.commit(ctx, next)
}

// Delete removes the note with id regardless of its status.
func (b *Book) Delete(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.reload(ctx); err != nil {
		return err
	}

	i := b.index(id)
	if i < 0 {
		return nil
	}
	next := slices.Delete(slices.Clone(b.notes), i, i+1)
	return b.commit(ctx, next)
}

// commit persists next and only then makes it the current list.
// Callers hold b.mu.
func (b *Book) commit(ctx context.Context, next []Note) error {
	data, err := Encode(next)
	if err != nil {
		return err
	}
	if err := b.repo.Save(ctx, b.textID, data); err != nil {
		return fmt.Errorf("save notes for %s: %w", b.textID, err)
	}
	b.notes = next
	return nil
}

func (b *Book) index(id string) int {
	return slices.IndexFunc(b.notes, func(n Note) bool { return n.ID == id })
}
