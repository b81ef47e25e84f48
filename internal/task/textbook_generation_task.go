package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/kotoba-learn/kotoba-api/internal/platform/logger"
)

// Common errors
var (
	ErrNilGenerator     = errors.New("textbook generator cannot be nil")
	ErrEmptyTextbookID  = errors.New("textbook ID cannot be empty")
	ErrUnknownTaskState = errors.New("task is not pending")
)

// TextbookGenerator runs the chapter loop for an existing textbook.
type TextbookGenerator interface {
	Generate(ctx context.Context, textbookID uuid.UUID) error
}

// textbookGenerationPayload represents the serialized data stored in the task
type textbookGenerationPayload struct {
	TextbookID uuid.UUID `json:"textbook_id"`
}

// TextbookGenerationTask generates every chapter of one textbook in the
// background. The generator owns the textbook's status; the task status
// only tracks this execution.
type TextbookGenerationTask struct {
	id         uuid.UUID
	textbookID uuid.UUID
	generator  TextbookGenerator
	logger     *slog.Logger

	mu     sync.Mutex
	status TaskStatus
}

var _ Task = (*TextbookGenerationTask)(nil)

// NewTextbookGenerationTask creates a pending task for textbookID.
func NewTextbookGenerationTask(
	textbookID uuid.UUID,
	generator TextbookGenerator,
	logger *slog.Logger,
) (*TextbookGenerationTask, error) {
	if textbookID == uuid.Nil {
		return nil, ErrEmptyTextbookID
	}
	if generator == nil {
		return nil, ErrNilGenerator
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &TextbookGenerationTask{
		id:         uuid.New(),
		textbookID: textbookID,
		generator:  generator,
		logger:     logger,
		status:     TaskStatusPending,
	}, nil
}

// ID returns the task's unique identifier
func (t *TextbookGenerationTask) ID() uuid.UUID {
	return t.id
}

// Type returns the task type identifier
func (t *TextbookGenerationTask) Type() string {
	return TaskTypeTextbookGeneration
}

// Payload returns the textbook ID as JSON.
func (t *TextbookGenerationTask) Payload() []byte {
	// Marshaling a struct holding a UUID cannot fail.
	data, _ := json.Marshal(textbookGenerationPayload{TextbookID: t.textbookID})
	return data
}

// Status returns the current task status
func (t *TextbookGenerationTask) Status() TaskStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// TextbookID returns the textbook this task generates.
func (t *TextbookGenerationTask) TextbookID() uuid.UUID {
	return t.textbookID
}

// Execute runs the generation loop. A task runs at most once.
func (t *TextbookGenerationTask) Execute(ctx context.Context) error {
	if !t.transition(TaskStatusPending, TaskStatusProcessing) {
		return ErrUnknownTaskState
	}

	log := logger.FromContextOrDefault(ctx, t.logger).With("textbook_id", t.textbookID)
	log.InfoContext(ctx, "starting textbook generation task")

	if err := t.generator.Generate(ctx, t.textbookID); err != nil {
		t.setStatus(TaskStatusFailed)
		return fmt.Errorf("textbook %s: %w", t.textbookID, err)
	}

	t.setStatus(TaskStatusCompleted)
	return nil
}

func (t *TextbookGenerationTask) transition(from, to TaskStatus) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status != from {
		return false
	}
	t.status = to
	return true
}

func (t *TextbookGenerationTask) setStatus(status TaskStatus) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = status
}

// TextbookGenerationTaskFactory creates TextbookGenerationTask instances
type TextbookGenerationTaskFactory struct {
	generator TextbookGenerator
	logger    *slog.Logger
}

// NewTextbookGenerationTaskFactory creates a new factory for TextbookGenerationTasks
func NewTextbookGenerationTaskFactory(generator TextbookGenerator, logger *slog.Logger) *TextbookGenerationTaskFactory {
	if logger == nil {
		logger = slog.Default()
	}
	return &TextbookGenerationTaskFactory{
		generator: generator,
		logger:    logger.With("component", "textbook_generation_task"),
	}
}

// CreateTask creates a new TextbookGenerationTask for the specified textbook
func (f *TextbookGenerationTaskFactory) CreateTask(textbookID uuid.UUID) (Task, error) {
	return NewTextbookGenerationTask(textbookID, f.generator, f.logger)
}
