package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/kotoba-learn/kotoba-api/internal/events"
)

// TaskFactory builds the generation task for a textbook.
type TaskFactory interface {
	CreateTask(textbookID uuid.UUID) (Task, error)
}

type TaskSubmitter interface {
	Submit(ctx context.Context, task Task) error
}

// TaskFactoryEventHandler turns textbook generation events into tasks on
// the runner. A failed Submit is returned to the emitter so the caller that
// requested generation sees it.
type TaskFactoryEventHandler struct {
	taskFactory TaskFactory
	taskRunner  TaskSubmitter
	logger      *slog.Logger
}

var _ events.EventHandler = (*TaskFactoryEventHandler)(nil)

func NewTaskFactoryEventHandler(taskFactory TaskFactory, taskRunner TaskSubmitter, logger *slog.Logger) *TaskFactoryEventHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskFactoryEventHandler{
		taskFactory: taskFactory,
		taskRunner:  taskRunner,
		logger:      logger.With(slog.String("component", "task_event_handler")),
	}
}

// HandleEvent ignores events of any type other than
// events.TypeTextbookGeneration.
func (h *TaskFactoryEventHandler) HandleEvent(ctx context.Context, event *events.TaskRequestEvent) error {
	log := h.logger.With(slog.String("event_id", event.ID.String()))

	if event.Type != events.TypeTextbookGeneration {
		log.DebugContext(ctx, "event ignored", slog.String("event_type", event.Type))
		return nil
	}

	var payload events.TextbookGenerationPayload
	if err := event.UnmarshalPayload(&payload); err != nil {
		log.ErrorContext(ctx, "bad generation event", slog.Any("error", err))
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	log = log.With(slog.String("textbook_id", payload.TextbookID.String()))

	t, err := h.taskFactory.CreateTask(payload.TextbookID)
	if err != nil {
		log.ErrorContext(ctx, "could not build generation task", slog.Any("error", err))
		return fmt.Errorf("failed to create task: %w", err)
	}

	if err := h.taskRunner.Submit(ctx, t); err != nil {
		log.ErrorContext(ctx, "could not schedule generation task", slog.Any("error", err))
		return fmt.Errorf("failed to submit task: %w", err)
	}

	log.InfoContext(ctx, "generation task scheduled", slog.String("task_id", t.ID().String()))
	return nil
}
