package task

import (
	"context"

	"github.com/google/uuid"
)

// TaskStatus is the in-process state of a task. It is not persisted; the
// textbook row carries the durable state.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// TaskTypeTextbookGeneration generates every chapter of one textbook.
const TaskTypeTextbookGeneration = "textbook_generation"

// Task is a unit of background work run by the worker pool.
type Task interface {
	ID() uuid.UUID
	Type() string
	// Payload is the JSON form of the task input, used for logging.
	Payload() []byte
	Status() TaskStatus
	Execute(ctx context.Context) error
}

// TaskQueueReader is the consumer side of the queue used by workers.
type TaskQueueReader interface {
	Tasks() <-chan Task
}

// TaskQueueWriter is the producer side of the queue. Enqueue fails with
// ErrQueueFull or ErrQueueClosed instead of blocking.
type TaskQueueWriter interface {
	Enqueue(task Task) error
	Close()
}
