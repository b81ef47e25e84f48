package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TextbookStatus represents the generation state of a textbook.
type TextbookStatus string

// Possible textbook status values. Generating is the only non-terminal state.
const (
	TextbookStatusGenerating TextbookStatus = "generating"
	TextbookStatusCompleted  TextbookStatus = "completed"
	TextbookStatusError      TextbookStatus = "error"
)

// Bounds on the number of chapters a single textbook may request.
const (
	MinChapters = 1
	MaxChapters = 50
)

// DefaultChapterMinutes is the study time assumed for a chapter whose
// generator did not provide an estimate.
const DefaultChapterMinutes = 60

// Common validation errors for Textbook
var (
	ErrEmptyTextbookID         = errors.New("textbook ID cannot be empty")
	ErrEmptyTextbookTitle      = errors.New("textbook title cannot be empty")
	ErrInvalidCategory         = errors.New("unsupported textbook category")
	ErrInvalidChapterCount     = fmt.Errorf("total chapters must be between %d and %d", MinChapters, MaxChapters)
	ErrInvalidTextbookStatus   = errors.New("invalid textbook status")
	ErrInvalidFailedAtUnit     = errors.New("failed chapter number is out of range")
	ErrTextbookAlreadyTerminal = fmt.Errorf("%w: textbook is no longer generating", ErrInvalidTransition)
)

// GenerationOptions are the feature flags a client chose for a textbook.
type GenerationOptions struct {
	IncludeAudio         bool `json:"includeAudio"`
	IncludeExercises     bool `json:"includeExercises"`
	IncludeCulturalNotes bool `json:"includeCulturalNotes"`
}

// GenerationParams is the snapshot of the validated request stored with the
// textbook. ErrorMessage and FailedAtUnit are only set once generation fails.
type GenerationParams struct {
	Title         string            `json:"title"`
	Category      Category          `json:"category"`
	TotalChapters int               `json:"totalChapters"`
	Options       GenerationOptions `json:"options"`
	TargetParams  map[string]any    `json:"targetParams,omitempty"`
	ErrorMessage  string            `json:"errorMessage,omitempty"`
	FailedAtUnit  int               `json:"failedAtUnit,omitempty"`
}

// Textbook is one request to produce a multi-chapter learning artifact.
// It is created in the generating state and transitions exactly once, to
// completed or error. After that only Published may change.
type Textbook struct {
	ID               uuid.UUID        `json:"id"`
	Title            string           `json:"title"`
	Category         Category         `json:"category"`
	TargetParams     map[string]any   `json:"target_params"`
	TotalChapters    int              `json:"total_chapters"`
	Status           TextbookStatus   `json:"status"`
	GenerationParams GenerationParams `json:"generation_params"`
	EstimatedHours   int              `json:"estimated_hours"`
	Published        bool             `json:"published"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// NewTextbook creates a Textbook in the generating state with a fresh ID and
// a snapshot of the request in GenerationParams.
// Returns an error if validation fails.
func NewTextbook(
	title string,
	category Category,
	totalChapters int,
	targetParams map[string]any,
	options GenerationOptions,
) (*Textbook, error) {
	if targetParams == nil {
		targetParams = map[string]any{}
	}

	title = strings.TrimSpace(title)
	now := time.Now().UTC()
	textbook := &Textbook{
		ID:            uuid.New(),
		Title:         title,
		Category:      category,
		TargetParams:  targetParams,
		TotalChapters: totalChapters,
		Status:        TextbookStatusGenerating,
		GenerationParams: GenerationParams{
			Title:         title,
			Category:      category,
			TotalChapters: totalChapters,
			Options:       options,
			TargetParams:  targetParams,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := textbook.Validate(); err != nil {
		return nil, err
	}

	return textbook, nil
}

// Validate checks if the Textbook has valid data.
// Returns an error if any field fails validation.
func (t *Textbook) Validate() error {
	if t.ID == uuid.Nil {
		return ErrEmptyTextbookID
	}

	if strings.TrimSpace(t.Title) == "" {
		return ErrEmptyTextbookTitle
	}

	if !t.Category.IsValid() {
		return ErrInvalidCategory
	}

	if t.TotalChapters < MinChapters || t.TotalChapters > MaxChapters {
		return ErrInvalidChapterCount
	}

	if !isValidTextbookStatus(t.Status) {
		return ErrInvalidTextbookStatus
	}

	return nil
}

// IsTerminal reports whether the textbook has left the generating state.
func (t *Textbook) IsTerminal() bool {
	return t.Status != TextbookStatusGenerating
}

// Complete moves a generating textbook to completed, publishes it, and
// records the aggregate study time estimate.
func (t *Textbook) Complete(estimatedHours int) error {
	if t.IsTerminal() {
		return ErrTextbookAlreadyTerminal
	}

	t.Status = TextbookStatusCompleted
	t.Published = true
	t.EstimatedHours = estimatedHours
	t.UpdatedAt = time.Now().UTC()
	return nil
}

// Fail moves a generating textbook to error, recording which chapter failed
// and why in the generation params.
func (t *Textbook) Fail(failedAtUnit int, message string) error {
	if t.IsTerminal() {
		return ErrTextbookAlreadyTerminal
	}

	if failedAtUnit < MinChapters || failedAtUnit > t.TotalChapters {
		return ErrInvalidFailedAtUnit
	}

	t.Status = TextbookStatusError
	t.GenerationParams.ErrorMessage = message
	t.GenerationParams.FailedAtUnit = failedAtUnit
	t.UpdatedAt = time.Now().UTC()
	return nil
}

// EstimateHours returns the aggregate study time for a set of chapters,
// rounded up to whole hours. Chapters without an estimate count as
// DefaultChapterMinutes.
func EstimateHours(chapters []*Chapter) int {
	totalMinutes := 0
	for _, chapter := range chapters {
		totalMinutes += chapterMinutes(chapter.EstimatedDurationMinutes)
	}
	return (totalMinutes + 59) / 60
}

// EstimateSummaryHours is EstimateHours over persisted chapter summaries.
func EstimateSummaryHours(summaries []ChapterSummary) int {
	totalMinutes := 0
	for _, summary := range summaries {
		totalMinutes += chapterMinutes(summary.EstimatedDurationMinutes)
	}
	return (totalMinutes + 59) / 60
}

func chapterMinutes(minutes int) int {
	if minutes <= 0 {
		return DefaultChapterMinutes
	}
	return minutes
}

// isValidTextbookStatus checks if the given status is a valid TextbookStatus.
func isValidTextbookStatus(status TextbookStatus) bool {
	switch status {
	case TextbookStatusGenerating, TextbookStatusCompleted, TextbookStatusError:
		return true
	default:
		return false
	}
}
