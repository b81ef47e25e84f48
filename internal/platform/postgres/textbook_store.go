package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/kotoba-learn/kotoba-api/internal/domain"
	"github.com/kotoba-learn/kotoba-api/internal/platform/logger"
	"github.com/kotoba-learn/kotoba-api/internal/store"
)

const textbookColumns = `id, title, category, target_params, total_chapters, status,
		generation_params, estimated_hours, published, created_at, updated_at`

// PostgresTextbookStore implements the store.TextbookStore interface
// using a PostgreSQL database as the storage backend.
type PostgresTextbookStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTextbookStore creates a new PostgreSQL implementation of the TextbookStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresTextbookStore(db store.DBTX, logger *slog.Logger) *PostgresTextbookStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTextbookStore{
		db:     db,
		logger: logger.With(slog.String("component", "textbook_store")),
	}
}

var _ store.TextbookStore = (*PostgresTextbookStore)(nil)

// WithTx implements store.TextbookStore.WithTx.
func (s *PostgresTextbookStore) WithTx(tx *sql.Tx) store.TextbookStore {
	return &PostgresTextbookStore{db: tx, logger: s.logger}
}

// Create implements store.TextbookStore.Create.
func (s *PostgresTextbookStore) Create(ctx context.Context, textbook *domain.Textbook) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := textbook.Validate(); err != nil {
		log.Warn("textbook validation failed during create",
			slog.String("error", err.Error()),
			slog.String("textbook_id", textbook.ID.String()))
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	targetParams, err := json.Marshal(textbook.TargetParams)
	if err != nil {
		return fmt.Errorf("%w: failed to encode target params: %v", store.ErrInvalidEntity, err)
	}

	generationParams, err := json.Marshal(textbook.GenerationParams)
	if err != nil {
		return fmt.Errorf("%w: failed to encode generation params: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO textbooks (` + textbookColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err = s.db.ExecContext(ctx, query,
		textbook.ID,
		textbook.Title,
		textbook.Category,
		string(targetParams),
		textbook.TotalChapters,
		textbook.Status,
		string(generationParams),
		textbook.EstimatedHours,
		textbook.Published,
		textbook.CreatedAt,
		textbook.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create textbook",
			slog.String("error", err.Error()),
			slog.String("textbook_id", textbook.ID.String()))
		return MapError(err)
	}

	log.Info("textbook created successfully",
		slog.String("textbook_id", textbook.ID.String()),
		slog.String("category", string(textbook.Category)),
		slog.Int("total_chapters", textbook.TotalChapters))
	return nil
}

// GetByID implements store.TextbookStore.GetByID.
func (s *PostgresTextbookStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Textbook, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + textbookColumns + ` FROM textbooks WHERE id = $1`

	textbook, err := scanTextbook(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("textbook not found", slog.String("textbook_id", id.String()))
			return nil, store.ErrTextbookNotFound
		}
		log.Error("failed to get textbook by ID",
			slog.String("error", err.Error()),
			slog.String("textbook_id", id.String()))
		return nil, err
	}

	return textbook, nil
}

// MarkStarted implements store.TextbookStore.MarkStarted.
func (s *PostgresTextbookStore) MarkStarted(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE textbooks
		SET updated_at = $2
		WHERE id = $1 AND status = $3
	`
	return s.transition(ctx, "mark_started", id, query,
		id, time.Now().UTC(), domain.TextbookStatusGenerating)
}

// MarkCompleted implements store.TextbookStore.MarkCompleted.
func (s *PostgresTextbookStore) MarkCompleted(ctx context.Context, id uuid.UUID, estimatedHours int) error {
	query := `
		UPDATE textbooks
		SET status = $2, published = TRUE, estimated_hours = $3, updated_at = $4
		WHERE id = $1 AND status = $5
	`
	return s.transition(ctx, "mark_completed", id, query,
		id, domain.TextbookStatusCompleted, estimatedHours, time.Now().UTC(), domain.TextbookStatusGenerating)
}

// MarkFailed implements store.TextbookStore.MarkFailed.
func (s *PostgresTextbookStore) MarkFailed(ctx context.Context, id uuid.UUID, failedAtUnit int, message string) error {
	query := `
		UPDATE textbooks
		SET status = $2,
			generation_params = generation_params || jsonb_build_object(
				'errorMessage', $3::text,
				'failedAtUnit', $4::integer),
			updated_at = $5
		WHERE id = $1 AND status = $6
	`
	return s.transition(ctx, "mark_failed", id, query,
		id, domain.TextbookStatusError, message, failedAtUnit, time.Now().UTC(), domain.TextbookStatusGenerating)
}

// transition runs a status update that only applies to generating textbooks
// and tells "unknown id" apart from "already terminal" when nothing changed.
func (s *PostgresTextbookStore) transition(
	ctx context.Context,
	operation string,
	id uuid.UUID,
	query string,
	args ...any,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to update textbook status",
			slog.String("operation", operation),
			slog.String("error", err.Error()),
			slog.String("textbook_id", id.String()))
		return MapError(err)
	}

	n, err := rowsAffected(result)
	if err != nil {
		return err
	}

	if n == 0 {
		exists, err := s.exists(ctx, id)
		if err != nil {
			return err
		}
		if !exists {
			return store.ErrTextbookNotFound
		}
		log.Warn("textbook status update skipped, textbook is terminal",
			slog.String("operation", operation),
			slog.String("textbook_id", id.String()))
		return store.ErrTextbookNotGenerating
	}

	log.Info("textbook status updated",
		slog.String("operation", operation),
		slog.String("textbook_id", id.String()))
	return nil
}

// SetPublished implements store.TextbookStore.SetPublished.
func (s *PostgresTextbookStore) SetPublished(ctx context.Context, id uuid.UUID, published bool) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE textbooks
		SET published = $2, updated_at = $3
		WHERE id = $1 AND status <> $4
	`
	result, err := s.db.ExecContext(ctx, query, id, published, time.Now().UTC(), domain.TextbookStatusGenerating)
	if err != nil {
		log.Error("failed to set textbook published flag",
			slog.String("error", err.Error()),
			slog.String("textbook_id", id.String()))
		return MapError(err)
	}

	n, err := rowsAffected(result)
	if err != nil {
		return err
	}

	if n == 0 {
		exists, err := s.exists(ctx, id)
		if err != nil {
			return err
		}
		if !exists {
			return store.ErrTextbookNotFound
		}
		return store.ErrTextbookStillGenerating
	}

	log.Info("textbook published flag updated",
		slog.String("textbook_id", id.String()),
		slog.Bool("published", published))
	return nil
}

// List implements store.TextbookStore.List.
func (s *PostgresTextbookStore) List(ctx context.Context, filter store.TextbookFilter) ([]*domain.Textbook, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := `
		SELECT ` + textbookColumns + `
		FROM textbooks
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	return s.query(ctx, "list", query, string(filter.Status), limit, offset)
}

// FindStale implements store.TextbookStore.FindStale. A textbook's last
// activity is the later of its own update time and its newest chapter.
func (s *PostgresTextbookStore) FindStale(ctx context.Context, before time.Time, limit int) ([]*domain.Textbook, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT ` + textbookColumns + `
		FROM textbooks t
		WHERE t.status = $1
		  AND GREATEST(
				t.updated_at,
				COALESCE((SELECT MAX(c.generated_at) FROM chapters c WHERE c.textbook_id = t.id), t.updated_at)
			) < $2
		ORDER BY t.updated_at
		LIMIT $3
	`
	return s.query(ctx, "find_stale", query, domain.TextbookStatusGenerating, before, limit)
}

func (s *PostgresTextbookStore) query(ctx context.Context, operation, query string, args ...any) ([]*domain.Textbook, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query textbooks",
			slog.String("operation", operation),
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	textbooks := []*domain.Textbook{}
	for rows.Next() {
		textbook, err := scanTextbook(rows)
		if err != nil {
			return nil, err
		}
		textbooks = append(textbooks, textbook)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate textbooks: %w", err)
	}

	return textbooks, nil
}

func (s *PostgresTextbookStore) exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM textbooks WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check textbook existence: %w", err)
	}
	return exists, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTextbook(row rowScanner) (*domain.Textbook, error) {
	var (
		textbook         domain.Textbook
		category         string
		status           string
		targetParams     []byte
		generationParams []byte
	)

	if err := row.Scan(
		&textbook.ID,
		&textbook.Title,
		&category,
		&targetParams,
		&textbook.TotalChapters,
		&status,
		&generationParams,
		&textbook.EstimatedHours,
		&textbook.Published,
		&textbook.CreatedAt,
		&textbook.UpdatedAt,
	); err != nil {
		return nil, err
	}

	textbook.Category = domain.Category(category)
	textbook.Status = domain.TextbookStatus(status)

	textbook.TargetParams = map[string]any{}
	if len(targetParams) > 0 {
		if err := json.Unmarshal(targetParams, &textbook.TargetParams); err != nil {
			return nil, fmt.Errorf("failed to decode target params: %w", err)
		}
	}

	if len(generationParams) > 0 {
		if err := json.Unmarshal(generationParams, &textbook.GenerationParams); err != nil {
			return nil, fmt.Errorf("failed to decode generation params: %w", err)
		}
	}

	return &textbook, nil
}
