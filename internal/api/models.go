package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/kotoba-learn/kotoba-api/internal/domain"
	"github.com/kotoba-learn/kotoba-api/internal/service"
)

// TextbookResponse is the client view of a textbook.
type TextbookResponse struct {
	ID               uuid.UUID               `json:"id"`
	Title            string                  `json:"title"`
	Category         domain.Category         `json:"category"`
	Status           domain.TextbookStatus   `json:"status"`
	TotalChapters    int                     `json:"total_chapters"`
	EstimatedHours   int                     `json:"estimated_hours"`
	Published        bool                    `json:"published"`
	TargetParams     map[string]any          `json:"target_params"`
	GenerationParams domain.GenerationParams `json:"generation_params"`
	CreatedAt        time.Time               `json:"created_at"`
	UpdatedAt        time.Time               `json:"updated_at"`
}

// SubmitTextbookResponse is the body of a successful synchronous submit.
type SubmitTextbookResponse struct {
	Textbook TextbookResponse     `json:"textbook"`
	Chapters []service.ChapterRef `json:"chapters"`
}

// StartTextbookResponse is the body of an accepted asynchronous submit.
type StartTextbookResponse struct {
	Textbook TextbookResponse `json:"textbook"`
}

// ListTextbooksResponse is one page of textbooks.
type ListTextbooksResponse struct {
	Textbooks []TextbookResponse `json:"textbooks"`
	Limit     int                `json:"limit"`
	Offset    int                `json:"offset"`
}

// SetPublishedRequest is the body of PUT /api/textbooks/{id}/published.
type SetPublishedRequest struct {
	Published *bool `json:"published" validate:"required"`
}

// ChapterResponse is a chapter with its full content.
type ChapterResponse struct {
	ID                       uuid.UUID             `json:"id"`
	TextbookID               uuid.UUID             `json:"textbook_id"`
	ChapterNumber            int                   `json:"chapter_number"`
	Title                    string                `json:"title"`
	Content                  domain.ChapterContent `json:"content"`
	HasExercises             bool                  `json:"has_exercises"`
	HasCulturalNotes         bool                  `json:"has_cultural_notes"`
	EstimatedDurationMinutes int                   `json:"estimated_duration_minutes"`
	GeneratedAt              time.Time             `json:"generated_at"`
}

func textbookToResponse(t *domain.Textbook) TextbookResponse {
	return TextbookResponse{
		ID:               t.ID,
		Title:            t.Title,
		Category:         t.Category,
		Status:           t.Status,
		TotalChapters:    t.TotalChapters,
		EstimatedHours:   t.EstimatedHours,
		Published:        t.Published,
		TargetParams:     t.TargetParams,
		GenerationParams: t.GenerationParams,
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
	}
}

func chapterToResponse(c *domain.Chapter) ChapterResponse {
	return ChapterResponse{
		ID:                       c.ID,
		TextbookID:               c.TextbookID,
		ChapterNumber:            c.ChapterNumber,
		Title:                    c.Title,
		Content:                  c.Content,
		HasExercises:             c.HasExercises,
		HasCulturalNotes:         c.HasCulturalNotes,
		EstimatedDurationMinutes: c.EstimatedDurationMinutes,
		GeneratedAt:              c.GeneratedAt,
	}
}
