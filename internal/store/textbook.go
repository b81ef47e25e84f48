package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/kotoba-learn/kotoba-api/internal/domain"
)

// TextbookFilter narrows a textbook listing. A zero Status lists every status.
type TextbookFilter struct {
	Status domain.TextbookStatus
	Limit  int
	Offset int
}

// TextbookStore defines the interface for textbook persistence.
type TextbookStore interface {
	// Create saves a new textbook in the generating state.
	// Returns validation errors from the domain Textbook if data is invalid.
	Create(ctx context.Context, textbook *domain.Textbook) error

	// GetByID retrieves a textbook by its unique ID.
	// Returns ErrTextbookNotFound if the textbook does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Textbook, error)

	// MarkStarted touches updated_at of a generating textbook so a worker
	// that just picked it up is not mistaken for an abandoned run.
	// Returns ErrTextbookNotFound or ErrTextbookNotGenerating.
	MarkStarted(ctx context.Context, id uuid.UUID) error

	// MarkCompleted moves a generating textbook to completed, publishes it and
	// records the study time estimate.
	// Returns ErrTextbookNotFound or ErrTextbookNotGenerating.
	MarkCompleted(ctx context.Context, id uuid.UUID, estimatedHours int) error

	// MarkFailed moves a generating textbook to error and merges errorMessage
	// and failedAtUnit into its generation params.
	// Returns ErrTextbookNotFound or ErrTextbookNotGenerating.
	MarkFailed(ctx context.Context, id uuid.UUID, failedAtUnit int, message string) error

	// SetPublished flips the published flag of a terminal textbook.
	// Returns ErrTextbookNotFound, or ErrTextbookStillGenerating when the
	// textbook has not reached a terminal status.
	SetPublished(ctx context.Context, id uuid.UUID, published bool) error

	// List returns textbooks newest first.
	List(ctx context.Context, filter TextbookFilter) ([]*domain.Textbook, error)

	// FindStale returns generating textbooks whose last write is older than
	// before, oldest first.
	FindStale(ctx context.Context, before time.Time, limit int) ([]*domain.Textbook, error)

	// WithTx returns a new TextbookStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) TextbookStore
}
