package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/kotoba-learn/kotoba-api/internal/domain"
	"github.com/kotoba-learn/kotoba-api/internal/platform/logger"
	"github.com/kotoba-learn/kotoba-api/internal/store"
)

// Listing bounds for ListTextbooks.
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// TextbookStatus is a textbook as seen by a polling client: its scalar
// fields and the chapters persisted so far, without chapter content.
type TextbookStatus struct {
	ID               uuid.UUID               `json:"id"`
	Title            string                  `json:"title"`
	Category         domain.Category         `json:"category"`
	Status           domain.TextbookStatus   `json:"status"`
	TotalChapters    int                     `json:"total_chapters"`
	CompletedUnits   int                     `json:"completed_units"`
	EstimatedHours   int                     `json:"estimated_hours"`
	Published        bool                    `json:"published"`
	GenerationParams domain.GenerationParams `json:"generation_params"`
	CreatedAt        time.Time               `json:"created_at"`
	UpdatedAt        time.Time               `json:"updated_at"`
	Chapters         []domain.ChapterSummary `json:"chapters"`
}

// StatusService answers read-only queries about textbooks.
type StatusService struct {
	progress  store.ProgressReader
	textbooks store.TextbookStore
	chapters  store.ChapterStore
	logger    *slog.Logger
}

// NewStatusService creates a StatusService.
// It returns an error if any of the dependencies are nil.
func NewStatusService(
	progress store.ProgressReader,
	textbooks store.TextbookStore,
	chapters store.ChapterStore,
	logger *slog.Logger,
) (*StatusService, error) {
	if progress == nil || textbooks == nil || chapters == nil {
		return nil, &TextbookServiceError{Operation: "create_service", Message: "status service stores cannot be nil"}
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &StatusService{
		progress:  progress,
		textbooks: textbooks,
		chapters:  chapters,
		logger:    logger.With("component", "status_service"),
	}, nil
}

// GetTextbookStatus returns the textbook and the summaries of its persisted
// chapters, read from one snapshot. Polling during generation sees exactly
// the chapters written so far.
func (s *StatusService) GetTextbookStatus(ctx context.Context, id uuid.UUID) (*TextbookStatus, error) {
	progress, err := s.progress.GetTextbookWithChapters(ctx, id)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).DebugContext(ctx, "failed to read textbook status",
			"error", err,
			"textbook_id", id)
		return nil, NewTextbookServiceError("get_status", "failed to read textbook", err)
	}

	t := progress.Textbook
	chapters := progress.Chapters
	if chapters == nil {
		chapters = []domain.ChapterSummary{}
	}

	return &TextbookStatus{
		ID:               t.ID,
		Title:            t.Title,
		Category:         t.Category,
		Status:           t.Status,
		TotalChapters:    t.TotalChapters,
		CompletedUnits:   len(chapters),
		EstimatedHours:   t.EstimatedHours,
		Published:        t.Published,
		GenerationParams: t.GenerationParams,
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
		Chapters:         chapters,
	}, nil
}

// GetChapter returns one chapter with its full content.
func (s *StatusService) GetChapter(ctx context.Context, textbookID uuid.UUID, chapterNumber int) (*domain.Chapter, error) {
	chapter, err := s.chapters.Get(ctx, textbookID, chapterNumber)
	if err != nil {
		return nil, NewTextbookServiceError("get_chapter", "failed to read chapter", err)
	}
	return chapter, nil
}

// ListTextbooks returns textbooks newest first. A zero status lists every
// status; limit is clamped to 1..MaxListLimit.
func (s *StatusService) ListTextbooks(
	ctx context.Context,
	status domain.TextbookStatus,
	limit, offset int,
) ([]*domain.Textbook, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	limit = min(limit, MaxListLimit)
	offset = max(offset, 0)

	textbooks, err := s.textbooks.List(ctx, store.TextbookFilter{Status: status, Limit: limit, Offset: offset})
	if err != nil {
		return nil, NewTextbookServiceError("list_textbooks", "failed to list textbooks", err)
	}
	return textbooks, nil
}
