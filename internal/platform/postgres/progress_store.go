package postgres

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/google/uuid"
	"github.com/kotoba-learn/kotoba-api/internal/store"
)

// PostgresProgressStore implements store.ProgressReader by reading the
// textbook row and its chapter summaries inside one read-only
// repeatable-read transaction.
type PostgresProgressStore struct {
	db       *sql.DB
	textbook *PostgresTextbookStore
	chapters *PostgresChapterStore
}

// NewPostgresProgressStore creates a PostgresProgressStore.
func NewPostgresProgressStore(db *sql.DB, logger *slog.Logger) *PostgresProgressStore {
	return &PostgresProgressStore{
		db:       db,
		textbook: NewPostgresTextbookStore(db, logger),
		chapters: NewPostgresChapterStore(db, logger),
	}
}

var _ store.ProgressReader = (*PostgresProgressStore)(nil)

// GetTextbookWithChapters implements store.ProgressReader.
func (s *PostgresProgressStore) GetTextbookWithChapters(ctx context.Context, id uuid.UUID) (*store.TextbookProgress, error) {
	var progress store.TextbookProgress

	err := store.RunInTransactionWithOptions(ctx, s.db, store.ReadOnlySnapshot,
		func(ctx context.Context, tx *sql.Tx) error {
			textbook, err := s.textbook.WithTx(tx).GetByID(ctx, id)
			if err != nil {
				return err
			}

			chapters, err := s.chapters.WithTx(tx).ListSummaries(ctx, id)
			if err != nil {
				return err
			}

			progress.Textbook = textbook
			progress.Chapters = chapters
			return nil
		})
	if err != nil {
		return nil, err
	}

	return &progress, nil
}
