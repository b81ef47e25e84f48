package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Chapter-specific validation errors
var (
	// ErrChapterIDEmpty is returned when a chapter ID is empty or nil.
	ErrChapterIDEmpty = errors.New("chapter ID cannot be empty")

	// ErrChapterTextbookIDEmpty is returned when a chapter has no owning textbook.
	ErrChapterTextbookIDEmpty = errors.New("chapter textbook ID cannot be empty")

	// ErrInvalidChapterNumber is returned when a chapter number is outside 1..MaxChapters.
	ErrInvalidChapterNumber = fmt.Errorf("chapter number must be between %d and %d", MinChapters, MaxChapters)

	// ErrChapterTitleEmpty is returned when a chapter has no title after normalization.
	ErrChapterTitleEmpty = errors.New("chapter title cannot be empty")
)

// Section is one titled block of explanatory text inside a chapter.
type Section struct {
	Heading string `json:"heading"`
	Body    string `json:"body"`
}

// VocabularyItem is a single term taught in a chapter.
type VocabularyItem struct {
	Term         string `json:"term"`
	Reading      string `json:"reading"`
	Meaning      string `json:"meaning"`
	PartOfSpeech string `json:"part_of_speech"`
}

// Example is an example sentence in Japanese with its reading and translation.
type Example struct {
	Japanese    string `json:"japanese"`
	Reading     string `json:"reading"`
	Translation string `json:"translation"`
}

// Exercise is a practice question attached to a chapter.
type Exercise struct {
	Type        string   `json:"type"`
	Prompt      string   `json:"prompt"`
	Choices     []string `json:"choices"`
	Answer      string   `json:"answer"`
	Explanation string   `json:"explanation"`
}

// CulturalNote is a short aside on customs relevant to the chapter topic.
type CulturalNote struct {
	Topic string `json:"topic"`
	Body  string `json:"body"`
}

// ChapterContent is the normalized payload of a generated chapter. Every
// slice is non-nil and every string is set (possibly empty), so stored
// content never carries nulls.
type ChapterContent struct {
	Title                    string           `json:"title"`
	Summary                  string           `json:"summary"`
	Objectives               []string         `json:"objectives"`
	Sections                 []Section        `json:"sections"`
	Vocabulary               []VocabularyItem `json:"vocabulary"`
	Examples                 []Example        `json:"examples"`
	Exercises                []Exercise       `json:"exercises"`
	CulturalNotes            []CulturalNote   `json:"cultural_notes"`
	EstimatedDurationMinutes int              `json:"estimated_duration_minutes"`
}

// Chapter is one independently generated and persisted part of a textbook.
// Chapters are written once and never updated.
type Chapter struct {
	ID                       uuid.UUID      `json:"id"`
	TextbookID               uuid.UUID      `json:"textbook_id"`
	ChapterNumber            int            `json:"chapter_number"`
	Title                    string         `json:"title"`
	Content                  ChapterContent `json:"content"`
	HasExercises             bool           `json:"has_exercises"`
	HasCulturalNotes         bool           `json:"has_cultural_notes"`
	EstimatedDurationMinutes int            `json:"estimated_duration_minutes"`
	GeneratedAt              time.Time      `json:"generated_at"`
}

// ChapterSummary is the lightweight view of a chapter used for progress
// display. It never carries the content payload.
type ChapterSummary struct {
	ID                       uuid.UUID `json:"id"`
	ChapterNumber            int       `json:"chapter_number"`
	Title                    string    `json:"title"`
	HasExercises             bool      `json:"has_exercises"`
	HasCulturalNotes         bool      `json:"has_cultural_notes"`
	EstimatedDurationMinutes int       `json:"estimated_duration_minutes"`
	GeneratedAt              time.Time `json:"generated_at"`
}

// NewChapter creates a Chapter for the given textbook and chapter number
// from normalized content, deriving the summary flags from the content.
// Returns an error if validation fails.
func NewChapter(textbookID uuid.UUID, chapterNumber int, content ChapterContent) (*Chapter, error) {
	minutes := content.EstimatedDurationMinutes
	if minutes <= 0 {
		minutes = DefaultChapterMinutes
	}

	chapter := &Chapter{
		ID:                       uuid.New(),
		TextbookID:               textbookID,
		ChapterNumber:            chapterNumber,
		Title:                    content.Title,
		Content:                  content,
		HasExercises:             len(content.Exercises) > 0,
		HasCulturalNotes:         len(content.CulturalNotes) > 0,
		EstimatedDurationMinutes: minutes,
		GeneratedAt:              time.Now().UTC(),
	}

	if err := chapter.Validate(); err != nil {
		return nil, err
	}

	return chapter, nil
}

// Validate checks if the Chapter has valid data.
func (c *Chapter) Validate() error {
	if c.ID == uuid.Nil {
		return ErrChapterIDEmpty
	}

	if c.TextbookID == uuid.Nil {
		return ErrChapterTextbookIDEmpty
	}

	if c.ChapterNumber < MinChapters || c.ChapterNumber > MaxChapters {
		return ErrInvalidChapterNumber
	}

	if c.Title == "" {
		return ErrChapterTitleEmpty
	}

	return nil
}

// PlaceholderChapterTitle is the title used when a generator returns none.
func PlaceholderChapterTitle(chapterNumber int) string {
	return fmt.Sprintf("Chapter %d", chapterNumber)
}

// Summary returns the chapter without its content.
func (c *Chapter) Summary() ChapterSummary {
	return ChapterSummary{
		ID:                       c.ID,
		ChapterNumber:            c.ChapterNumber,
		Title:                    c.Title,
		HasExercises:             c.HasExercises,
		HasCulturalNotes:         c.HasCulturalNotes,
		EstimatedDurationMinutes: c.EstimatedDurationMinutes,
		GeneratedAt:              c.GeneratedAt,
	}
}
