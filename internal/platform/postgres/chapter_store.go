package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/kotoba-learn/kotoba-api/internal/domain"
	"github.com/kotoba-learn/kotoba-api/internal/platform/logger"
	"github.com/kotoba-learn/kotoba-api/internal/store"
)

// PostgresChapterStore implements the store.ChapterStore interface.
type PostgresChapterStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresChapterStore creates a new PostgreSQL implementation of the ChapterStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresChapterStore(db store.DBTX, logger *slog.Logger) *PostgresChapterStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresChapterStore{
		db:     db,
		logger: logger.With(slog.String("component", "chapter_store")),
	}
}

var _ store.ChapterStore = (*PostgresChapterStore)(nil)

// WithTx implements store.ChapterStore.WithTx.
func (s *PostgresChapterStore) WithTx(tx *sql.Tx) store.ChapterStore {
	return &PostgresChapterStore{db: tx, logger: s.logger}
}

// Create implements store.ChapterStore.Create.
func (s *PostgresChapterStore) Create(ctx context.Context, chapter *domain.Chapter) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := chapter.Validate(); err != nil {
		log.Warn("chapter validation failed during create",
			slog.String("error", err.Error()),
			slog.String("textbook_id", chapter.TextbookID.String()),
			slog.Int("chapter_number", chapter.ChapterNumber))
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	content, err := json.Marshal(chapter.Content)
	if err != nil {
		return fmt.Errorf("%w: failed to encode chapter content: %v", store.ErrInvalidEntity, err)
	}

	// The insert only lands while the textbook is generating, so a sweep
	// that closed the textbook mid-chapter cannot be followed by a chapter.
	query := `
		INSERT INTO chapters (
			id, textbook_id, chapter_number, title, content,
			has_exercises, has_cultural_notes, estimated_duration_minutes, generated_at
		)
		SELECT $1::uuid, $2::uuid, $3::integer, $4::text, $5::jsonb,
			$6::boolean, $7::boolean, $8::integer, $9::timestamptz
		WHERE EXISTS (SELECT 1 FROM textbooks WHERE id = $2 AND status = $10)
	`
	result, err := s.db.ExecContext(ctx, query,
		chapter.ID,
		chapter.TextbookID,
		chapter.ChapterNumber,
		chapter.Title,
		string(content),
		chapter.HasExercises,
		chapter.HasCulturalNotes,
		chapter.EstimatedDurationMinutes,
		chapter.GeneratedAt,
		domain.TextbookStatusGenerating,
	)
	if err != nil {
		switch {
		case IsUniqueViolation(err):
			log.Warn("duplicate chapter number",
				slog.String("textbook_id", chapter.TextbookID.String()),
				slog.Int("chapter_number", chapter.ChapterNumber))
			return fmt.Errorf("%w: textbook %s chapter %d",
				store.ErrDuplicateChapter, chapter.TextbookID, chapter.ChapterNumber)
		case IsForeignKeyViolation(err):
			return store.ErrTextbookNotFound
		}

		log.Error("failed to create chapter",
			slog.String("error", err.Error()),
			slog.String("textbook_id", chapter.TextbookID.String()),
			slog.Int("chapter_number", chapter.ChapterNumber))
		return MapError(err)
	}

	n, err := rowsAffected(result)
	if err != nil {
		return err
	}
	if n == 0 {
		return s.rejectedInsert(ctx, chapter)
	}

	log.Info("chapter created successfully",
		slog.String("chapter_id", chapter.ID.String()),
		slog.String("textbook_id", chapter.TextbookID.String()),
		slog.Int("chapter_number", chapter.ChapterNumber))
	return nil
}

// rejectedInsert explains an insert that matched no generating textbook.
func (s *PostgresChapterStore) rejectedInsert(ctx context.Context, chapter *domain.Chapter) error {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM textbooks WHERE id = $1)`, chapter.TextbookID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check textbook existence: %w", err)
	}
	if !exists {
		return store.ErrTextbookNotFound
	}

	logger.FromContextOrDefault(ctx, s.logger).Warn("chapter rejected, textbook is no longer generating",
		slog.String("textbook_id", chapter.TextbookID.String()),
		slog.Int("chapter_number", chapter.ChapterNumber))
	return store.ErrTextbookNotGenerating
}

// Get implements store.ChapterStore.Get.
func (s *PostgresChapterStore) Get(ctx context.Context, textbookID uuid.UUID, chapterNumber int) (*domain.Chapter, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, textbook_id, chapter_number, title, content,
			has_exercises, has_cultural_notes, estimated_duration_minutes, generated_at
		FROM chapters
		WHERE textbook_id = $1 AND chapter_number = $2
	`

	var (
		chapter domain.Chapter
		content []byte
	)
	err := s.db.QueryRowContext(ctx, query, textbookID, chapterNumber).Scan(
		&chapter.ID,
		&chapter.TextbookID,
		&chapter.ChapterNumber,
		&chapter.Title,
		&content,
		&chapter.HasExercises,
		&chapter.HasCulturalNotes,
		&chapter.EstimatedDurationMinutes,
		&chapter.GeneratedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrChapterNotFound
		}
		log.Error("failed to get chapter",
			slog.String("error", err.Error()),
			slog.String("textbook_id", textbookID.String()),
			slog.Int("chapter_number", chapterNumber))
		return nil, err
	}

	if err := json.Unmarshal(content, &chapter.Content); err != nil {
		return nil, fmt.Errorf("failed to decode chapter content: %w", err)
	}

	return &chapter, nil
}

// ListSummaries implements store.ChapterStore.ListSummaries.
func (s *PostgresChapterStore) ListSummaries(ctx context.Context, textbookID uuid.UUID) ([]domain.ChapterSummary, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, chapter_number, title, has_exercises, has_cultural_notes,
			estimated_duration_minutes, generated_at
		FROM chapters
		WHERE textbook_id = $1
		ORDER BY chapter_number
	`
	rows, err := s.db.QueryContext(ctx, query, textbookID)
	if err != nil {
		log.Error("failed to list chapters",
			slog.String("error", err.Error()),
			slog.String("textbook_id", textbookID.String()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	summaries := []domain.ChapterSummary{}
	for rows.Next() {
		var summary domain.ChapterSummary
		if err := rows.Scan(
			&summary.ID,
			&summary.ChapterNumber,
			&summary.Title,
			&summary.HasExercises,
			&summary.HasCulturalNotes,
			&summary.EstimatedDurationMinutes,
			&summary.GeneratedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan chapter summary: %w", err)
		}
		summaries = append(summaries, summary)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chapters: %w", err)
	}

	return summaries, nil
}

// Count implements store.ChapterStore.Count.
func (s *PostgresChapterStore) Count(ctx context.Context, textbookID uuid.UUID) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM chapters WHERE textbook_id = $1`, textbookID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count chapters: %w", err)
	}
	return count, nil
}
