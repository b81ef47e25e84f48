package task

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// textbookTask is implemented by tasks that work on a single textbook.
type textbookTask interface {
	Task
	TextbookID() uuid.UUID
}

// InFlightTextbooks records the textbooks this process has queued or is
// generating. The sweeper leaves them alone however old their last write is.
type InFlightTextbooks struct {
	mu  sync.Mutex
	ids map[uuid.UUID]int
}

func NewInFlightTextbooks() *InFlightTextbooks {
	return &InFlightTextbooks{ids: make(map[uuid.UUID]int)}
}

func (f *InFlightTextbooks) add(id uuid.UUID) {
	f.mu.Lock()
	f.ids[id]++
	f.mu.Unlock()
}

func (f *InFlightTextbooks) done(id uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ids[id] <= 1 {
		delete(f.ids, id)
		return
	}
	f.ids[id]--
}

// Contains reports whether a task for id is queued or running.
func (f *InFlightTextbooks) Contains(id uuid.UUID) bool {
	if f == nil {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ids[id] > 0
}

// trackedTask releases its textbook from the in-flight set once it has run,
// whether it returned or panicked.
type trackedTask struct {
	textbookTask
	release func()
}

func (t *trackedTask) Execute(ctx context.Context) error {
	defer t.release()
	return t.textbookTask.Execute(ctx)
}
