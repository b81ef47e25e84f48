package postgres

import (
	"context"
	"log/slog"

	"github.com/kotoba-learn/kotoba-api/internal/domain"
	"github.com/kotoba-learn/kotoba-api/internal/platform/logger"
	"github.com/kotoba-learn/kotoba-api/internal/store"
)

// PostgresAudioQueueStore implements store.AudioQueueStore on the
// audio_generation_queue table, polled by the synthesis worker.
type PostgresAudioQueueStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresAudioQueueStore creates a PostgresAudioQueueStore.
func NewPostgresAudioQueueStore(db store.DBTX, logger *slog.Logger) *PostgresAudioQueueStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresAudioQueueStore{
		db:     db,
		logger: logger.With(slog.String("component", "audio_queue_store")),
	}
}

var _ store.AudioQueueStore = (*PostgresAudioQueueStore)(nil)

// Enqueue implements store.AudioQueueStore.Enqueue.
func (s *PostgresAudioQueueStore) Enqueue(ctx context.Context, item *domain.AudioQueueItem) error {
	query := `
		INSERT INTO audio_generation_queue (
			id, text, voice, speed, priority, status,
			source_textbook_id, source_chapter_number, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(ctx, query,
		item.ID,
		item.Text,
		item.Voice,
		item.Speed,
		item.Priority,
		item.Status,
		item.SourceTextbookID,
		item.SourceChapterNumber,
		item.CreatedAt,
	)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to enqueue audio item",
			slog.String("error", err.Error()),
			slog.String("textbook_id", item.SourceTextbookID.String()),
			slog.Int("chapter_number", item.SourceChapterNumber))
		return MapError(err)
	}

	return nil
}
