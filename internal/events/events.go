package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TypeTextbookGeneration asks for the chapters of an existing textbook to
// be generated.
const TypeTextbookGeneration = "textbook_generation"

// TaskRequestEvent asks whichever handler owns Type to run a background
// task with Payload as its input.
type TaskRequestEvent struct {
	ID        uuid.UUID       `json:"id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// TextbookGenerationPayload is the payload of a TypeTextbookGeneration event.
type TextbookGenerationPayload struct {
	TextbookID uuid.UUID `json:"textbook_id"`
}

func (e *TaskRequestEvent) UnmarshalPayload(v any) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Type, err)
	}
	return nil
}

// NewTaskRequestEvent stamps a fresh ID and time on a JSON encoded payload.
func NewTaskRequestEvent(eventType string, payload any) (*TaskRequestEvent, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}
	return &TaskRequestEvent{
		ID:        uuid.New(),
		Type:      eventType,
		Payload:   raw,
		CreatedAt: time.Now().UTC(),
	}, nil
}

func NewTextbookGenerationEvent(textbookID uuid.UUID) (*TaskRequestEvent, error) {
	return NewTaskRequestEvent(TypeTextbookGeneration, TextbookGenerationPayload{TextbookID: textbookID})
}

type EventHandler interface {
	HandleEvent(ctx context.Context, event *TaskRequestEvent) error
}

// EventEmitter hands an event to every registered handler.
type EventEmitter interface {
	EmitEvent(ctx context.Context, event *TaskRequestEvent) error
}
