package mocks

import (
	"context"
	"sync"

	"github.com/kotoba-learn/kotoba-api/internal/domain"
	"github.com/kotoba-learn/kotoba-api/internal/store"
)

// MockAudioQueueStore implements store.AudioQueueStore for testing and
// records every accepted item.
type MockAudioQueueStore struct {
	EnqueueFn func(ctx context.Context, item *domain.AudioQueueItem) error

	mu    sync.Mutex
	items []*domain.AudioQueueItem
}

var _ store.AudioQueueStore = (*MockAudioQueueStore)(nil)

// Enqueue implements store.AudioQueueStore.
func (m *MockAudioQueueStore) Enqueue(ctx context.Context, item *domain.AudioQueueItem) error {
	if m.EnqueueFn != nil {
		if err := m.EnqueueFn(ctx, item); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, item)
	return nil
}

// Items returns the accepted items in order.
func (m *MockAudioQueueStore) Items() []*domain.AudioQueueItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.AudioQueueItem, len(m.items))
	copy(out, m.items)
	return out
}
