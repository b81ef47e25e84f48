package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/kotoba-learn/kotoba-api/internal/platform/logger"
)

// WorkerPool runs a fixed number of goroutines that execute tasks from a
// queue until the queue closes or Stop is called.
type WorkerPool struct {
	taskQueue   TaskQueueReader
	workerCount int
	logger      *slog.Logger

	// errorHandler sees every failed or panicking task. May be nil.
	errorHandler func(task Task, err error)

	// ctx is the parent of every task context. Stop cancels it.
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type WorkerPoolConfig struct {
	// WorkerCount below one is raised to one.
	WorkerCount int
}

func NewWorkerPool(taskQueue TaskQueueReader, config WorkerPoolConfig, logger *slog.Logger) *WorkerPool {
	if logger == nil {
		logger = slog.Default()
	}
	if config.WorkerCount <= 0 {
		logger.Warn("worker count must be positive, using 1", slog.Int("configured", config.WorkerCount))
		config.WorkerCount = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &WorkerPool{
		taskQueue:   taskQueue,
		workerCount: config.WorkerCount,
		logger:      logger,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// SetErrorHandler must be called before Start.
func (p *WorkerPool) SetErrorHandler(handler func(task Task, err error)) {
	p.errorHandler = handler
}

// Start launches the workers and returns.
func (p *WorkerPool) Start() {
	p.logger.Info("worker pool starting", slog.Int("workers", p.workerCount))
	for id := range p.workerCount {
		p.wg.Add(1)
		go p.worker(id)
	}
}

// Stop cancels running tasks and waits for every worker to return. Tasks
// still in the queue are never started.
func (p *WorkerPool) Stop() {
	p.cancel()
	p.wg.Wait()
	p.logger.Info("worker pool stopped")
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()
	tasks := p.taskQueue.Tasks()

	for {
		select {
		case <-p.ctx.Done():
			return
		case t, ok := <-tasks:
			if !ok {
				p.logger.Debug("queue closed, worker exiting", slog.Int("worker_id", id))
				return
			}
			p.run(id, t)
		}
	}
}

func (p *WorkerPool) run(workerID int, t Task) {
	log := p.logger.With(
		slog.String("task_id", t.ID().String()),
		slog.String("task_type", t.Type()),
		slog.Int("worker_id", workerID))

	log.Info("task started")
	if err := execute(logger.WithLogger(p.ctx, log), t); err != nil {
		log.Error("task failed", slog.Any("error", err))
		if p.errorHandler != nil {
			p.errorHandler(t, err)
		}
		return
	}
	log.Info("task finished")
}

// execute converts a panic in t into an error.
func execute(ctx context.Context, t Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	return t.Execute(ctx)
}
