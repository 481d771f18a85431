package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/abhisek/readmind/internal/capability"
	"github.com/abhisek/readmind/internal/catalog"
	"github.com/abhisek/readmind/internal/config"
	"github.com/abhisek/readmind/internal/dialogue"
	"github.com/abhisek/readmind/internal/evaluator"
	"github.com/abhisek/readmind/internal/llm"
	"github.com/abhisek/readmind/internal/notes"
	"github.com/abhisek/readmind/internal/questiongen"
	"github.com/abhisek/readmind/internal/reading"
	"github.com/abhisek/readmind/internal/store"
)

// deps are the long-lived resources shared by every reading session.
type deps struct {
	cfg      *config.Config
	dbPath   string
	store    *store.Store
	redis    *redis.Client
	notes    notes.Repository
	shelf    *notes.Shelf
	provider llm.Provider
}

func resolveDBPath(c *config.Config) (string, error) {
	if c.DB != "" {
		return c.DB, store.EnsureDir(c.DB)
	}
	return store.DefaultDBPath()
}

// openStore opens the SQLite database holding model request events and,
// with the sqlite backend, notes.
func openStore(c *config.Config) (*store.Store, string, error) {
	dbPath, err := resolveDBPath(c)
	if err != nil {
		return nil, "", fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return nil, "", fmt.Errorf("open database: %w", err)
	}
	return s, dbPath, nil
}

// openStorage opens the database and the configured note backend.
func openStorage(c *config.Config) (*deps, error) {
	s, dbPath, err := openStore(c)
	if err != nil {
		return nil, err
	}
	d := &deps{cfg: c, dbPath: dbPath, store: s}
	if d.notes, err = d.openNotes(); err != nil {
		d.Close()
		return nil, err
	}
	d.shelf = notes.NewShelf(d.notes)
	return d, nil
}

// openDeps wires storage, the note backend and the model provider.
func openDeps(ctx context.Context, c *config.Config) (*deps, error) {
	d, err := openStorage(c)
	if err != nil {
		return nil, err
	}
	d.provider, err = llm.NewProvider(ctx, c.LLM, d.store.EventRepo())
	if err != nil {
		d.Close()
		return nil, err
	}
	slog.Debug("model provider ready", "provider", c.LLM.Provider, "model", d.provider.ModelID())
	return d, nil
}

func (d *deps) openNotes() (notes.Repository, error) {
	switch d.cfg.Notes.Backend {
	case config.NotesFile:
		return notes.NewFileRepository(d.cfg.Notes.Dir)
	case config.NotesRedis:
		d.redis = redis.NewClient(&redis.Options{
			Addr:     d.cfg.Redis.Addr,
			Password: d.cfg.Redis.Password,
			DB:       d.cfg.Redis.DB,
		})
		return notes.NewRedisRepository(d.redis), nil
	case config.NotesMemory:
		return notes.NewMemoryRepository(), nil
	default:
		return d.store.NoteRepo(), nil
	}
}

func (d *deps) Close() {
	if d.redis != nil {
		if err := d.redis.Close(); err != nil {
			slog.Warn("close redis client", "error", err)
		}
	}
	if err := d.store.Close(); err != nil {
		slog.Warn("close database", "error", err)
	}
}

// newSession opens a reading session with its own dialogue transcript and
// the text's note book, shared with other sessions on the same text.
func (d *deps) newSession(ctx context.Context, t *catalog.Text, p capability.Profile) (*reading.Session, error) {
	lang := d.cfg.Lang

	gcfg := questiongen.DefaultConfig()
	gcfg.Lang = lang
	ecfg := evaluator.DefaultConfig()
	ecfg.Lang = lang
	dcfg := dialogue.DefaultConfig()
	dcfg.Lang = lang
	dcfg.MaxWords = d.cfg.Dialogue.MaxWords
	dcfg.MaxHistoryTurns = d.cfg.Dialogue.MaxHistoryTurns

	book, err := d.shelf.Open(ctx, t.ID)
	if err != nil {
		return nil, err
	}

	return reading.NewSession(ctx, t, p, reading.Deps{
		Generator: questiongen.New(d.provider, gcfg),
		Evaluator: evaluator.New(d.provider, ecfg),
		Dialogue:  dialogue.NewSession(d.provider, dcfg),
		Notes:     book,
	})
}

// loadCatalog returns the configured catalog or the built-in samples.
func loadCatalog(c *config.Config) (*catalog.Catalog, error) {
	if c.Catalog == "" {
		return catalog.Sample()
	}
	return catalog.LoadFile(c.Catalog)
}
