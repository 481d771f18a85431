package notes

import (
	"context"
	"sync"
)

// Shelf hands out one Book per text id, so every session reading the same
// text in this process edits the same list.
type Shelf struct {
	mu    sync.Mutex
	repo  Repository
	opts  []Option
	books map[string]*Book
}

func NewShelf(repo Repository, opts ...Option) *Shelf {
	return &Shelf{repo: repo, opts: opts, books: make(map[string]*Book)}
}

// Open returns the shared Book for textID, loading it on first use.
func (s *Shelf) Open(ctx context.Context, textID string) (*Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.books[textID]; ok {
		return b, nil
	}
	b, err := Open(ctx, s.repo, textID, s.opts...)
	if err != nil {
		return nil, err
	}
	s.books[textID] = b
	return b, nil
}
