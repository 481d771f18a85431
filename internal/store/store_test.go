package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	s, err := Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		// journal_mode reports "memory" for in-memory databases.
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestMigrationCreatesTables(t *testing.T) {
	s := openTestStore(t)
	for _, table := range []string{"llm_request_events", "notes", "global_sequence"} {
		var name string
		err := s.DB().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Fatalf("table %s: %v", table, err)
		}
	}
}

func TestOpenFileDatabaseTwice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "readmind.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.NoteRepo().Save(context.Background(), "sci_001", []byte(`[]`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	data, err := s.NoteRepo().Load(context.Background(), "sci_001")
	if err != nil || string(data) != `[]` {
		t.Fatalf("load after reopen = %q, %v", data, err)
	}
}

func TestSequenceCounter(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var prev int64
	for i := 0; i < 5; i++ {
		seq, err := s.seq.Next(ctx)
		if err != nil {
			t.Fatalf("next %d: %v", i, err)
		}
		if seq != int64(i+1) {
			t.Errorf("seq[%d] = %d, want %d", i, seq, i+1)
		}
		if seq <= prev {
			t.Errorf("sequence not increasing: %d after %d", seq, prev)
		}
		prev = seq
	}
}

func appendEvents(t *testing.T, repo EventRepo, events ...LLMRequestEventData) {
	t.Helper()
	for _, e := range events {
		if err := repo.AppendLLMRequest(context.Background(), e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
}

func TestLLMRequestEvents(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	appendEvents(t, repo,
		LLMRequestEventData{Provider: "gemini", Model: "gemini-2.5-flash", Purpose: "question-gen",
			InputTokens: 300, OutputTokens: 120, LatencyMs: 900, Success: true,
			RequestBody: "[user]\nbees", ResponseBody: `{"questions":[]}`},
		LLMRequestEventData{Provider: "gemini", Model: "gemini-2.5-flash", Purpose: "evaluation",
			InputTokens: 200, OutputTokens: 40, LatencyMs: 500, Success: true},
		LLMRequestEventData{Provider: "openai", Model: "gpt-4o-mini", Purpose: "dialogue",
			LatencyMs: 100, Success: false, ErrorMessage: "LLM provider unavailable"},
	)

	all, err := repo.QueryLLMRequests(ctx, QueryOpts{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 events, got %d", len(all))
	}
	if all[0].Purpose != "dialogue" || all[2].Purpose != "question-gen" {
		t.Fatalf("expected newest first, got %q..%q", all[0].Purpose, all[2].Purpose)
	}
	if all[0].Success || all[0].ErrorMessage == "" {
		t.Fatalf("expected failed dialogue event, got %+v", all[0])
	}
	if time.Since(all[0].Timestamp) > time.Minute {
		t.Fatalf("unexpected timestamp %v", all[0].Timestamp)
	}

	limited, err := repo.QueryLLMRequests(ctx, QueryOpts{Limit: 1, Before: all[0].Sequence})
	if err != nil {
		t.Fatalf("query limited: %v", err)
	}
	if len(limited) != 1 || limited[0].Purpose != "evaluation" {
		t.Fatalf("unexpected page %+v", limited)
	}

	byPurpose, err := repo.QueryLLMRequests(ctx, QueryOpts{Purpose: "question-gen"})
	if err != nil {
		t.Fatalf("query purpose: %v", err)
	}
	if len(byPurpose) != 1 || byPurpose[0].ResponseBody != `{"questions":[]}` {
		t.Fatalf("unexpected purpose filter result %+v", byPurpose)
	}

	got, err := repo.GetLLMRequest(ctx, byPurpose[0].Sequence)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.RequestBody != "[user]\nbees" {
		t.Fatalf("unexpected request body %q", got.RequestBody)
	}

	if _, err := repo.GetLLMRequest(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLLMUsage(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()

	appendEvents(t, repo,
		LLMRequestEventData{Provider: "gemini", Model: "gemini-2.5-flash", InputTokens: 100, OutputTokens: 10, LatencyMs: 200, Success: true},
		LLMRequestEventData{Provider: "gemini", Model: "gemini-2.5-flash", InputTokens: 50, OutputTokens: 5, LatencyMs: 400, Success: false},
		LLMRequestEventData{Provider: "anthropic", Model: "claude-haiku-4-5-20251001", InputTokens: 10, OutputTokens: 1, LatencyMs: 50, Success: true},
	)

	usage, err := repo.LLMUsage(context.Background())
	if err != nil {
		t.Fatalf("usage: %v", err)
	}
	if len(usage) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(usage))
	}
	g := usage[0]
	if g.Provider != "gemini" || g.Requests != 2 || g.Failures != 1 {
		t.Fatalf("unexpected gemini group %+v", g)
	}
	if g.InputTokens != 150 || g.OutputTokens != 15 || g.AvgLatencyMs != 300 {
		t.Fatalf("unexpected gemini totals %+v", g)
	}
}

func TestNoteRepo(t *testing.T) {
	s := openTestStore(t)
	repo := s.NoteRepo()
	ctx := context.Background()

	data, err := repo.Load(ctx, "txt_001")
	if err != nil {
		t.Fatalf("load empty: %v", err)
	}
	if data != nil {
		t.Fatalf("expected nil for absent key, got %q", data)
	}

	if err := repo.Save(ctx, "txt_001", []byte(`[{"id":"a"}]`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := repo.Save(ctx, "txt_001", []byte(`[{"id":"b"}]`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if err := repo.Save(ctx, "sci_002", []byte(`[]`)); err != nil {
		t.Fatalf("save second: %v", err)
	}

	data, err = repo.Load(ctx, "txt_001")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(data) != `[{"id":"b"}]` {
		t.Fatalf("expected overwritten value, got %q", data)
	}

	ids, err := repo.TextIDs(ctx)
	if err != nil {
		t.Fatalf("text ids: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 text ids, got %v", ids)
	}
}

func TestDefaultDBPath(t *testing.T) {
	dir := t.TempDir()

	t.Setenv("READMIND_DB", filepath.Join(dir, "custom", "r.db"))
	p, err := DefaultDBPath()
	if err != nil {
		t.Fatalf("default path: %v", err)
	}
	if p != filepath.Join(dir, "custom", "r.db") {
		t.Fatalf("unexpected path %q", p)
	}

	t.Setenv("READMIND_DB", "")
	t.Setenv("XDG_DATA_HOME", dir)
	p, err = DefaultDBPath()
	if err != nil {
		t.Fatalf("xdg path: %v", err)
	}
	if p != filepath.Join(dir, "readmind", "readmind.db") {
		t.Fatalf("unexpected xdg path %q", p)
	}
}
