package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/kotoba-learn/kotoba-api/internal/domain"
)

// ChapterStore defines the interface for chapter persistence. Chapters are
// insert-only; there is no update or delete.
type ChapterStore interface {
	// Create inserts a chapter of a generating textbook.
	// Returns ErrDuplicateChapter if the textbook already has that chapter number,
	// ErrTextbookNotFound if the textbook does not exist and
	// ErrTextbookNotGenerating if it already reached a terminal status.
	Create(ctx context.Context, chapter *domain.Chapter) error

	// Get retrieves one chapter with its full content.
	// Returns ErrChapterNotFound if it does not exist.
	Get(ctx context.Context, textbookID uuid.UUID, chapterNumber int) (*domain.Chapter, error)

	// ListSummaries returns the chapter summaries of a textbook ordered by
	// chapter number, without content.
	ListSummaries(ctx context.Context, textbookID uuid.UUID) ([]domain.ChapterSummary, error)

	// Count returns the number of persisted chapters of a textbook.
	Count(ctx context.Context, textbookID uuid.UUID) (int, error)

	// WithTx returns a new ChapterStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) ChapterStore
}

// TextbookProgress is a textbook together with the chapters persisted so far,
// read from one consistent snapshot.
type TextbookProgress struct {
	Textbook *domain.Textbook
	Chapters []domain.ChapterSummary
}

// ProgressReader reads a textbook and its chapter summaries together.
type ProgressReader interface {
	// GetTextbookWithChapters returns ErrTextbookNotFound for unknown ids.
	GetTextbookWithChapters(ctx context.Context, id uuid.UUID) (*TextbookProgress, error)
}
