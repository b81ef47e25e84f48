package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// TaskRunnerConfig holds configuration for the task runner
type TaskRunnerConfig struct {
	// WorkerCount determines how many concurrent workers process tasks
	WorkerCount int

	// QueueSize determines the buffer size for the in-memory task queue
	QueueSize int

	// StuckCheckInterval defines how often the sweeper runs.
	// If zero, defaults to 5 minutes
	StuckCheckInterval time.Duration
}

// DefaultTaskRunnerConfig returns a TaskRunnerConfig with reasonable defaults
func DefaultTaskRunnerConfig() TaskRunnerConfig {
	return TaskRunnerConfig{
		WorkerCount:        2,
		QueueSize:          100,
		StuckCheckInterval: 5 * time.Minute,
	}
}

// Sweeper closes out work that was interrupted.
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// TaskRunner manages background task processing: a bounded queue, the
// worker pool draining it, and a periodic sweep for interrupted textbooks.
type TaskRunner struct {
	queue    *TaskQueue
	pool     *WorkerPool
	sweeper  Sweeper
	inFlight *InFlightTextbooks
	config  TaskRunnerConfig
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewTaskRunner creates a new TaskRunner. sweeper may be nil. inFlight is
// filled with the textbooks of submitted tasks until they have run; pass the
// set the sweeper consults. A nil inFlight gets a private set.
func NewTaskRunner(sweeper Sweeper, inFlight *InFlightTextbooks, config TaskRunnerConfig, logger *slog.Logger) *TaskRunner {
	if logger == nil {
		logger = slog.Default()
	}
	if inFlight == nil {
		inFlight = NewInFlightTextbooks()
	}
	if config.StuckCheckInterval <= 0 {
		config.StuckCheckInterval = 5 * time.Minute
	}

	logger = logger.With("component", "task_runner")
	queue := NewTaskQueue(config.QueueSize, logger)
	pool := NewWorkerPool(queue, WorkerPoolConfig{WorkerCount: config.WorkerCount}, logger)

	ctx, cancel := context.WithCancel(context.Background())

	return &TaskRunner{
		queue:    queue,
		pool:     pool,
		sweeper:  sweeper,
		inFlight: inFlight,
		config:   config,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// SetErrorHandler allows setting a custom error handler function
func (r *TaskRunner) SetErrorHandler(handler func(task Task, err error)) {
	r.pool.SetErrorHandler(handler)
}

// Submit adds a new task to the queue. It fails with ErrQueueFull when
// the queue is at capacity and ErrQueueClosed after Stop.
func (r *TaskRunner) Submit(ctx context.Context, task Task) error {
	if tt, ok := task.(textbookTask); ok {
		id := tt.TextbookID()
		r.inFlight.add(id)
		task = &trackedTask{textbookTask: tt, release: func() { r.inFlight.done(id) }}

		if err := r.queue.Enqueue(task); err != nil {
			r.inFlight.done(id)
			return fmt.Errorf("failed to submit task: %w", err)
		}
		return nil
	}

	if err := r.queue.Enqueue(task); err != nil {
		return fmt.Errorf("failed to submit task: %w", err)
	}
	return nil
}

// Start sweeps once for textbooks left over from a previous run, then
// starts the workers and the periodic sweep.
func (r *TaskRunner) Start() error {
	if r.sweeper != nil {
		if _, err := r.sweeper.Sweep(r.ctx); err != nil {
			return fmt.Errorf("failed to sweep interrupted textbooks: %w", err)
		}

		r.wg.Add(1)
		go r.sweepLoop()
	}

	r.pool.Start()
	return nil
}

// Stop gracefully shuts down the task runner. Running tasks see their
// context cancelled. Textbooks whose tasks never started stay generating
// until the next sweep.
func (r *TaskRunner) Stop() {
	r.cancel()
	r.pool.Stop()
	r.queue.Close()
	r.wg.Wait()
}

func (r *TaskRunner) sweepLoop() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.StuckCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return

		case <-ticker.C:
			swept, err := r.sweeper.Sweep(r.ctx)
			if err != nil {
				r.logger.Error("failed to sweep interrupted textbooks", "error", err)
				continue
			}
			if swept > 0 {
				r.logger.Info("swept interrupted textbooks", "count", swept)
			}
		}
	}
}
