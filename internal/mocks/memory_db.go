package mocks

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kotoba-learn/kotoba-api/internal/domain"
)

// MemoryDB is the in-memory data shared by the store mocks. It applies the
// same conditional status rules as the Postgres stores.
type MemoryDB struct {
	mu        sync.Mutex
	textbooks map[uuid.UUID]*domain.Textbook
	chapters  map[uuid.UUID][]*domain.Chapter
}

// NewMemoryDB creates an empty MemoryDB.
func NewMemoryDB() *MemoryDB {
	return &MemoryDB{
		textbooks: make(map[uuid.UUID]*domain.Textbook),
		chapters:  make(map[uuid.UUID][]*domain.Chapter),
	}
}

// Textbook returns a copy of the stored textbook, or nil.
func (db *MemoryDB) Textbook(id uuid.UUID) *domain.Textbook {
	db.mu.Lock()
	defer db.mu.Unlock()
	return copyTextbook(db.textbooks[id])
}

// Chapters returns the stored chapters of a textbook ordered by number.
func (db *MemoryDB) Chapters(textbookID uuid.UUID) []*domain.Chapter {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.sortedChapters(textbookID)
}

func (db *MemoryDB) sortedChapters(textbookID uuid.UUID) []*domain.Chapter {
	out := make([]*domain.Chapter, len(db.chapters[textbookID]))
	copy(out, db.chapters[textbookID])
	sort.Slice(out, func(i, j int) bool { return out[i].ChapterNumber < out[j].ChapterNumber })
	return out
}

func copyTextbook(t *domain.Textbook) *domain.Textbook {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

// lastActivity mirrors the Postgres staleness rule: the later of the
// textbook update time and its newest chapter. Callers hold mu.
func (db *MemoryDB) lastActivity(t *domain.Textbook) time.Time {
	last := t.UpdatedAt
	for _, c := range db.chapters[t.ID] {
		if c.GeneratedAt.After(last) {
			last = c.GeneratedAt
		}
	}
	return last
}
