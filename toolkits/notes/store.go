// Package notes is a notes backend for the notes_service tools: an append-only log of notes
// persisted in SQLite or kept in memory.
package notes

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

// ErrEmptyNote is returned when a note has no content.
var ErrEmptyNote = errors.New("notes: content must not be empty")

// Note is one appended note.
type Note struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists notes in insertion order.
type Store interface {
	Add(ctx context.Context, content string) (Note, error)
	List(ctx context.Context) ([]Note, error)
	Close() error
}

// Join renders notes as the contents of a notes file: one note per line.
func Join(notes []Note) string {
	var b strings.Builder
	for _, n := range notes {
		b.WriteString(n.Content)
		b.WriteByte('\n')
	}
	return b.String()
}

// MemoryStore keeps notes in memory. The zero value is ready to use.
type MemoryStore struct {
	mu    sync.Mutex
	notes []Note
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (s *MemoryStore) Add(_ context.Context, content string) (Note, error) {
	if strings.TrimSpace(content) == "" {
		return Note{}, ErrEmptyNote
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n := Note{ID: int64(len(s.notes) + 1), Content: content, CreatedAt: time.Now().UTC()}
	s.notes = append(s.notes, n)
	return n, nil
}

func (s *MemoryStore) List(context.Context) ([]Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Note(nil), s.notes...), nil
}

func (s *MemoryStore) Close() error { return nil }

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*SQLiteStore)(nil)
)
