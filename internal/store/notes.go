package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// NoteRepo keeps one serialized note list per reading text. It satisfies
// notes.Repository.
type NoteRepo struct {
	db *sql.DB
}

// Load returns the stored value for textID, or nil when nothing is stored.
func (r *NoteRepo) Load(ctx context.Context, textID string) ([]byte, error) {
	var data string
	err := r.db.QueryRowContext(ctx, `SELECT data FROM notes WHERE text_id = ?`, textID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load notes for %q: %w", textID, err)
	}
	return []byte(data), nil
}

// Save replaces the stored value for textID.
func (r *NoteRepo) Save(ctx context.Context, textID string, data []byte) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO notes (text_id, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(text_id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		textID, string(data), time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("save notes for %q: %w", textID, err)
	}
	return nil
}

// TextIDs lists the texts that have stored notes, most recently updated
// first.
func (r *NoteRepo) TextIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT text_id FROM notes ORDER BY updated_at DESC, text_id`)
	if err != nil {
		return nil, fmt.Errorf("list note texts: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan note text id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
