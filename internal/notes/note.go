// Package notes implements the per-text learner notebook: drafts that can
// be submitted or deleted, mirrored to a Repository after every change.
package notes

import (
	"encoding/json"
	"fmt"
	"time"
)

// Status is the lifecycle state of a note.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusSubmitted Status = "submitted"
)

// Note is one learner note. Timestamp is Unix milliseconds.
type Note struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
	Status    Status `json:"status"`
}

// Time returns the creation time.
func (n Note) Time() time.Time {
	return time.UnixMilli(n.Timestamp)
}

// Submitted reports whether the note has been submitted.
func (n Note) Submitted() bool {
	return n.Status == StatusSubmitted
}

// Encode serializes notes in stored order (most recent first).
func Encode(notes []Note) ([]byte, error) {
	if notes == nil {
		notes = []Note{}
	}
	data, err := json.Marshal(notes)
	if err != nil {
		return nil, fmt.Errorf("encode notes: %w", err)
	}
	return data, nil
}

// Decode parses a stored note list. Empty input decodes to an empty list.
// Entries without an id or with an unknown status are rejected so a
// corrupt value is never partially loaded.
func Decode(data []byte) ([]Note, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var notes []Note
	if err := json.Unmarshal(data, &notes); err != nil {
		return nil, fmt.Errorf("decode notes: %w", err)
	}
	for i, n := range notes {
		if n.ID == "" {
			return nil, fmt.Errorf("decode notes: entry %d has no id", i)
		}
		if n.Status != StatusDraft && n.Status != StatusSubmitted {
			return nil, fmt.Errorf("decode notes: entry %d has unknown status %q", i, n.Status)
		}
	}
	return notes, nil
}
