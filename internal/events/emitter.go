package events

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/kotoba-learn/kotoba-api/internal/platform/logger"
)

// ErrNoHandler means nobody would have run the requested work.
var ErrNoHandler = errors.New("no handler registered for event")

// InMemoryEventEmitter calls its handlers synchronously, in registration
// order, on the emitting goroutine.
type InMemoryEventEmitter struct {
	logger *slog.Logger

	mu       sync.RWMutex
	handlers []EventHandler
}

func NewInMemoryEventEmitter(log *slog.Logger) *InMemoryEventEmitter {
	if log == nil {
		log = slog.Default()
	}
	return &InMemoryEventEmitter{logger: log.With(slog.String("component", "event_emitter"))}
}

func (e *InMemoryEventEmitter) RegisterHandler(handler EventHandler) {
	e.mu.Lock()
	e.handlers = append(e.handlers, handler)
	e.mu.Unlock()
}

// EmitEvent delivers event to all handlers even when one fails and returns
// the first failure.
func (e *InMemoryEventEmitter) EmitEvent(ctx context.Context, event *TaskRequestEvent) error {
	log := logger.FromContextOrDefault(ctx, e.logger).With(
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", event.Type))

	e.mu.RLock()
	handlers := slices.Clone(e.handlers)
	e.mu.RUnlock()

	if len(handlers) == 0 {
		log.Error("event dropped, no handlers registered")
		return ErrNoHandler
	}

	var firstErr error
	for i, h := range handlers {
		err := h.HandleEvent(ctx, event)
		if err == nil {
			continue
		}
		log.Error("event handler failed", slog.Int("handler", i), slog.Any("error", err))
		if firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
