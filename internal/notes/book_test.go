package notes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"
)

type failingRepo struct {
	*MemoryRepository
	failSave bool
	failLoad bool
}

func (r *failingRepo) Load(ctx context.Context, textID string) ([]byte, error) {
	if r.failLoad {
		return nil, errors.New("storage offline")
	}
	return r.MemoryRepository.Load(ctx, textID)
}

func (r *failingRepo) Save(ctx context.Context, textID string, data []byte) error {
	if r.failSave {
		return errors.New("quota exceeded")
	}
	return r.MemoryRepository.Save(ctx, textID, data)
}

func testClock() func() time.Time {
	t := time.UnixMilli(1_700_000_000_000)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func testIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("n%03d", n)
	}
}

func openTestBook(t *testing.T, repo Repository) *Book {
	t.Helper()
	b, err := Open(context.Background(), repo, "txt_001", WithClock(testClock()), WithIDs(testIDs()))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return b
}

func TestAdd_PrependsDraft(t *testing.T) {
	ctx := context.Background()
	b := openTestBook(t, NewMemoryRepository())

	a, err := b.Add(ctx, "A")
	if err != nil {
		t.Fatalf("add A: %v", err)
	}
	if _, err := b.Add(ctx, "B"); err != nil {
		t.Fatalf("add B: %v", err)
	}

	list := b.List()
	if len(list) != 2 || list[0].Content != "B" || list[1].Content != "A" {
		t.Fatalf("expected [B, A], got %+v", list)
	}
	for _, n := range list {
		if n.Status != StatusDraft {
			t.Errorf("note %s status = %q, want draft", n.ID, n.Status)
		}
	}
	if a.Timestamp != 1_700_000_001_000 {
		t.Errorf("timestamp = %d, want 1700000001000", a.Timestamp)
	}
	if list[0].ID == list[1].ID {
		t.Fatal("ids must be unique")
	}
}

func TestAdd_BlankRejected(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	b := openTestBook(t, repo)

	for _, content := range []string{"", "   ", "\n\t"} {
		if _, err := b.Add(ctx, content); !errors.Is(err, ErrEmptyContent) {
			t.Fatalf("Add(%q) err = %v, want ErrEmptyContent", content, err)
		}
	}
	if b.Len() != 0 {
		t.Fatalf("expected no notes, got %d", b.Len())
	}
	if data, _ := repo.Load(ctx, "txt_001"); data != nil {
		t.Fatalf("nothing should be persisted, got %s", data)
	}
}

func TestAdd_KeepsContentVerbatim(t *testing.T) {
	b := openTestBook(t, NewMemoryRepository())
	n, err := b.Add(context.Background(), "  荷塘 月色  ")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if n.Content != "  荷塘 月色  " {
		t.Fatalf("content = %q", n.Content)
	}
}

func TestSubmit(t *testing.T) {
	ctx := context.Background()
	b := openTestBook(t, NewMemoryRepository())
	n, _ := b.Add(ctx, "draft")

	if err := b.Submit(ctx, n.ID); err != nil {
		t.Fatalf("submit: %v", err)
	}
	got, _ := b.Get(n.ID)
	if got.Status != StatusSubmitted {
		t.Fatalf("status = %q, want submitted", got.Status)
	}

	// Idempotent and tolerant of unknown ids.
	if err := b.Submit(ctx, n.ID); err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if err := b.Submit(ctx, "missing"); err != nil {
		t.Fatalf("submit unknown: %v", err)
	}
	if b.Len() != 1 {
		t.Fatalf("expected 1 note, got %d", b.Len())
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	b := openTestBook(t, NewMemoryRepository())
	a, _ := b.Add(ctx, "A")
	c, _ := b.Add(ctx, "B")
	_ = b.Submit(ctx, a.ID)

	if err := b.Delete(ctx, a.ID); err != nil {
		t.Fatalf("delete submitted: %v", err)
	}
	if err := b.Delete(ctx, "missing"); err != nil {
		t.Fatalf("delete unknown: %v", err)
	}
	list := b.List()
	if len(list) != 1 || list[0].ID != c.ID {
		t.Fatalf("expected only B, got %+v", list)
	}
}

func TestMutationsAreMirrored(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	b := openTestBook(t, repo)

	a, _ := b.Add(ctx, "A")
	_, _ = b.Add(ctx, "B")
	_ = b.Submit(ctx, a.ID)

	reopened, err := Open(ctx, repo, "txt_001")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got := reopened.List()
	want := b.List()
	if len(got) != len(want) {
		t.Fatalf("reopened %d notes, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("note %d = %+v, want %+v", i, got[i], want[i])
		}
	}

	data, _ := repo.Load(ctx, "txt_001")
	var raw []map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("stored value is not a JSON array: %v", err)
	}
	for _, key := range []string{"id", "content", "timestamp", "status"} {
		if _, ok := raw[0][key]; !ok {
			t.Errorf("stored note missing %q", key)
		}
	}
}

func TestDeleteLastNotePersistsEmptyList(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	b := openTestBook(t, repo)
	n, _ := b.Add(ctx, "only")
	_ = b.Delete(ctx, n.ID)

	data, _ := repo.Load(ctx, "txt_001")
	if string(data) != "[]" {
		t.Fatalf("expected [], got %s", data)
	}
}

func TestFailedFlushRollsBack(t *testing.T) {
	ctx := context.Background()
	repo := &failingRepo{MemoryRepository: NewMemoryRepository()}
	b := openTestBook(t, repo)
	n, _ := b.Add(ctx, "kept")

	repo.failSave = true
	if _, err := b.Add(ctx, "lost"); err == nil {
		t.Fatal("expected add to fail")
	}
	if err := b.Submit(ctx, n.ID); err == nil {
		t.Fatal("expected submit to fail")
	}
	if err := b.Delete(ctx, n.ID); err == nil {
		t.Fatal("expected delete to fail")
	}

	list := b.List()
	if len(list) != 1 || list[0].Content != "kept" || list[0].Status != StatusDraft {
		t.Fatalf("in-memory list diverged from storage: %+v", list)
	}
}

func TestOpen_CorruptOrMissingData(t *testing.T) {
	ctx := context.Background()
	tests := map[string]string{
		"not json":       `{{{`,
		"wrong shape":    `{"id":"x"}`,
		"missing id":     `[{"content":"x","timestamp":1,"status":"draft"}]`,
		"unknown status": `[{"id":"x","content":"x","timestamp":1,"status":"archived"}]`,
	}
	for name, stored := range tests {
		t.Run(name, func(t *testing.T) {
			repo := NewMemoryRepository()
			_ = repo.Save(ctx, "txt_001", []byte(stored))
			b, err := Open(ctx, repo, "txt_001")
			if err != nil {
				t.Fatalf("open: %v", err)
			}
			if b.Len() != 0 {
				t.Fatalf("expected empty book, got %d notes", b.Len())
			}
		})
	}

	b, err := Open(ctx, NewMemoryRepository(), "never-written")
	if err != nil || b.Len() != 0 {
		t.Fatalf("missing key: len=%v err=%v", b.Len(), err)
	}
}

func TestOpen_RepositoryError(t *testing.T) {
	repo := &failingRepo{MemoryRepository: NewMemoryRepository(), failLoad: true}
	if _, err := Open(context.Background(), repo, "txt_001"); err == nil {
		t.Fatal("expected load error")
	}
}

func TestDefaultIDsAreOrdered(t *testing.T) {
	ctx := context.Background()
	b, err := Open(ctx, NewMemoryRepository(), "sci_001")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	seen := map[string]bool{}
	var prev string
	for i := 0; i < 20; i++ {
		n, err := b.Add(ctx, fmt.Sprintf("note %d", i))
		if err != nil {
			t.Fatalf("add: %v", err)
		}
		if seen[n.ID] {
			t.Fatalf("duplicate id %s", n.ID)
		}
		seen[n.ID] = true
		if prev != "" && n.ID <= prev {
			t.Fatalf("id %s not after %s", n.ID, prev)
		}
		prev = n.ID
	}
}

func TestBooksOnSameTextKeepEachOthersNotes(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	a := openTestBook(t, repo)
	b, err := Open(ctx, repo, "txt_001", WithIDs(func() string { return "b001" }))
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	if _, err := a.Add(ctx, "from session A"); err != nil {
		t.Fatalf("add A: %v", err)
	}
	if _, err := b.Add(ctx, "from session B"); err != nil {
		t.Fatalf("add B: %v", err)
	}

	reopened := openTestBook(t, repo)
	list := reopened.List()
	if len(list) != 2 || list[0].Content != "from session B" || list[1].Content != "from session A" {
		t.Fatalf("expected both notes newest first, got %+v", list)
	}

	if err := a.Submit(ctx, "b001"); err != nil {
		t.Fatalf("submit B's note through A: %v", err)
	}
	if n, ok := openTestBook(t, repo).Get("b001"); !ok || !n.Submitted() {
		t.Fatalf("expected b001 submitted, got %+v ok=%v", n, ok)
	}
}

func TestMutationFailsWhenReloadFails(t *testing.T) {
	ctx := context.Background()
	repo := &failingRepo{MemoryRepository: NewMemoryRepository()}
	b := openTestBook(t, repo)
	n, _ := b.Add(ctx, "kept")

	repo.failLoad = true
	if _, err := b.Add(ctx, "new"); err == nil {
		t.Fatal("expected add to fail")
	}
	if err := b.Delete(ctx, n.ID); err == nil {
		t.Fatal("expected delete to fail")
	}
	repo.failLoad = false
	if got := openTestBook(t, repo).Len(); got != 1 {
		t.Fatalf("stored notes = %d, want 1", got)
	}
}

func TestShelfSharesBooks(t *testing.T) {
	ctx := context.Background()
	shelf := NewShelf(NewMemoryRepository())

	a, err := shelf.Open(ctx, "txt_001")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	b, _ := shelf.Open(ctx, "txt_001")
	other, _ := shelf.Open(ctx, "sci_002")
	if a != b {
		t.Fatal("expected the same book for one text")
	}
	if a == other {
		t.Fatal("expected separate books per text")
	}

	if _, err := a.Add(ctx, "shared"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if b.Len() != 1 || other.Len() != 0 {
		t.Fatalf("lens = %d, %d", b.Len(), other.Len())
	}
}

func TestShelfOpenError(t *testing.T) {
	shelf := NewShelf(&failingRepo{MemoryRepository: NewMemoryRepository(), failLoad: true})
	if _, err := shelf.Open(context.Background(), "txt_001"); err == nil {
		t.Fatal("expected load error")
	}
}
