package task

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

var (
	ErrQueueClosed = errors.New("task queue is closed")
	ErrQueueFull   = errors.New("task queue is full")
)

// TaskQueue is a bounded, non-blocking queue between the event handler and
// the worker pool. Its capacity caps how many textbooks can wait for a worker.
type TaskQueue struct {
	logger *slog.Logger

	// mu guards closed. Senders hold it shared so Close cannot close the
	// channel under a send.
	mu     sync.RWMutex
	closed bool
	tasks  chan Task
}

var (
	_ TaskQueueReader = (*TaskQueue)(nil)
	_ TaskQueueWriter = (*TaskQueue)(nil)
)

// NewTaskQueue returns a queue holding up to size tasks (at least one).
func NewTaskQueue(size int, logger *slog.Logger) *TaskQueue {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskQueue{
		logger: logger,
		tasks:  make(chan Task, max(size, 1)),
	}
}

func (q *TaskQueue) Enqueue(t Task) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.tasks <- t:
	default:
		return fmt.Errorf("%w: capacity %d reached", ErrQueueFull, cap(q.tasks))
	}
	q.logger.Debug("task queued",
		slog.String("task_id", t.ID().String()),
		slog.String("task_type", t.Type()),
		slog.Int("depth", len(q.tasks)))
	return nil
}

// Close stops further Enqueue calls and closes the channel so workers drain
// what is left and exit. It is safe to call more than once.
func (q *TaskQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.tasks)
	q.logger.Info("task queue closed", slog.Int("pending", len(q.tasks)))
}

// Tasks is the channel workers receive from.
func (q *TaskQueue) Tasks() <-chan Task {
	return q.tasks
}
