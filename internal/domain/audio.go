package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// AudioStatus is the processing state of an audio work item. Only pending is
// ever written here; the synthesis consumer owns every later state.
type AudioStatus string

// AudioStatusPending is the status of a freshly enqueued audio work item.
const AudioStatusPending AudioStatus = "pending"

// Defaults applied to every audio work item derived from a chapter.
const (
	DefaultAudioVoice    = "ja-JP-Neural2-B"
	DefaultAudioSpeed    = 1.0
	DefaultAudioPriority = 5
)

// ErrEmptyAudioText is returned when an audio work item has no text.
var ErrEmptyAudioText = errors.New("audio text cannot be empty")

// AudioQueueItem is a best-effort request to synthesize speech for a short
// piece of chapter text. The source fields are informational only; the item
// has no lifecycle tie to the textbook or chapter it came from.
type AudioQueueItem struct {
	ID                  uuid.UUID   `json:"id"`
	Text                string      `json:"text"`
	Voice               string      `json:"voice"`
	Speed               float64     `json:"speed"`
	Priority            int         `json:"priority"`
	Status              AudioStatus `json:"status"`
	SourceTextbookID    uuid.UUID   `json:"source_textbook_id"`
	SourceChapterNumber int         `json:"source_chapter_number"`
	CreatedAt           time.Time   `json:"created_at"`
}

// NewAudioQueueItem creates a pending audio work item with the default voice,
// speed and priority.
func NewAudioQueueItem(text string, textbookID uuid.UUID, chapterNumber int) (*AudioQueueItem, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyAudioText
	}

	return &AudioQueueItem{
		ID:                  uuid.New(),
		Text:                text,
		Voice:               DefaultAudioVoice,
		Speed:               DefaultAudioSpeed,
		Priority:            DefaultAudioPriority,
		Status:              AudioStatusPending,
		SourceTextbookID:    textbookID,
		SourceChapterNumber: chapterNumber,
		CreatedAt:           time.Now().UTC(),
	}, nil
}
