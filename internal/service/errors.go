package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/kotoba-learn/kotoba-api/internal/domain"
	"github.com/kotoba-learn/kotoba-api/internal/store"
)

// Sentinel errors returned by the services. The not-found and conflict
// errors are the store's own sentinels so that errors.Is works across layers.
var (
	// ErrTextbookNotFound indicates that the requested textbook does not exist.
	// API layer should map this to HTTP 404 Not Found.
	ErrTextbookNotFound = store.ErrTextbookNotFound

	// ErrChapterNotFound indicates that the requested chapter does not exist.
	// API layer should map this to HTTP 404 Not Found.
	ErrChapterNotFound = store.ErrChapterNotFound

	// ErrTextbookStillGenerating is returned when an operation needs a
	// terminal textbook. API layer should map this to HTTP 409 Conflict.
	ErrTextbookStillGenerating = store.ErrTextbookStillGenerating

	// ErrTextbookNotGenerating is returned when generation is requested for
	// a textbook that already reached a terminal status.
	ErrTextbookNotGenerating = store.ErrTextbookNotGenerating

	// ErrUnitTimeout is the cause recorded when a chapter exceeds its time budget.
	ErrUnitTimeout = errors.New("chapter generation timed out")

	// ErrGenerationCancelled is the cause recorded when the caller goes away
	// before a chapter is started.
	ErrGenerationCancelled = errors.New("generation cancelled")

	// ErrEmptyChapter is the cause recorded when the generator returns no content.
	ErrEmptyChapter = errors.New("generator returned no chapter content")

	// ErrAsyncUnavailable is returned by StartTextbook when no event emitter is wired.
	ErrAsyncUnavailable = errors.New("asynchronous generation is not configured")
)

// FieldError describes one failing request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned when a request fails validation. Nothing has
// been written when it is returned.
type ValidationError struct {
	Fields []FieldError
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Unwrap lets callers match ValidationError with errors.Is(err, domain.ErrValidation).
func (e *ValidationError) Unwrap() error {
	return domain.ErrValidation
}

// UnitGenerationError reports the chapter at which generation stopped.
type UnitGenerationError struct {
	ChapterNumber int
	Cause         error
}

// Error implements the error interface for UnitGenerationError.
func (e *UnitGenerationError) Error() string {
	return fmt.Sprintf("chapter %d generation failed: %v", e.ChapterNumber, e.Cause)
}

// Unwrap returns the cause to support errors.Is/errors.As.
func (e *UnitGenerationError) Unwrap() error {
	return e.Cause
}

// PersistenceError reports a failed store write during generation.
type PersistenceError struct {
	// Operation is the write that failed (e.g., "create_chapter", "mark_completed")
	Operation     string
	ChapterNumber int
	Err           error
}

// Error implements the error interface for PersistenceError.
func (e *PersistenceError) Error() string {
	if e.ChapterNumber > 0 {
		return fmt.Sprintf("%s for chapter %d failed: %v", e.Operation, e.ChapterNumber, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Operation, e.Err)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// PartialFailureError is returned when generation stopped after the
// textbook was created. CompletedUnits chapters were persisted.
type PartialFailureError struct {
	TextbookID     uuid.UUID
	CompletedUnits int
	Err            error
}

// Error implements the error interface for PartialFailureError.
func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("textbook %s stopped after %d chapters: %v", e.TextbookID, e.CompletedUnits, e.Err)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *PartialFailureError) Unwrap() error {
	return e.Err
}

// TextbookServiceError wraps unexpected errors from the textbook services.
type TextbookServiceError struct {
	// Operation is the operation that failed (e.g., "submit_textbook", "get_status")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for TextbookServiceError.
func (e *TextbookServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("textbook service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("textbook service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *TextbookServiceError) Unwrap() error {
	return e.Err
}

// NewTextbookServiceError creates a new TextbookServiceError.
// It returns known sentinel errors directly without wrapping.
func NewTextbookServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, ErrTextbookNotFound):
		return ErrTextbookNotFound
	case errors.Is(err, ErrChapterNotFound):
		return ErrChapterNotFound
	case errors.Is(err, ErrTextbookStillGenerating):
		return ErrTextbookStillGenerating
	case errors.Is(err, ErrTextbookNotGenerating):
		return ErrTextbookNotGenerating
	}

	return &TextbookServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
