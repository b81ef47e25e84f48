package mocks

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/kotoba-learn/kotoba-api/internal/domain"
	"github.com/kotoba-learn/kotoba-api/internal/store"
)

// MockTextbookStore implements store.TextbookStore for testing.
type MockTextbookStore struct {
	DB *MemoryDB

	CreateFn        func(ctx context.Context, textbook *domain.Textbook) error
	GetByIDFn       func(ctx context.Context, id uuid.UUID) (*domain.Textbook, error)
	MarkStartedFn   func(ctx context.Context, id uuid.UUID) error
	MarkCompletedFn func(ctx context.Context, id uuid.UUID, estimatedHours int) error
	MarkFailedFn    func(ctx context.Context, id uuid.UUID, failedAtUnit int, message string) error
	SetPublishedFn  func(ctx context.Context, id uuid.UUID, published bool) error
	ListFn          func(ctx context.Context, filter store.TextbookFilter) ([]*domain.Textbook, error)
	FindStaleFn     func(ctx context.Context, before time.Time, limit int) ([]*domain.Textbook, error)
}

// NewMockTextbookStore creates a MockTextbookStore backed by db.
func NewMockTextbookStore(db *MemoryDB) *MockTextbookStore {
	return &MockTextbookStore{DB: db}
}

var _ store.TextbookStore = (*MockTextbookStore)(nil)

// Create implements store.TextbookStore.
func (m *MockTextbookStore) Create(ctx context.Context, textbook *domain.Textbook) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, textbook)
	}

	m.DB.mu.Lock()
	defer m.DB.mu.Unlock()
	if _, exists := m.DB.textbooks[textbook.ID]; exists {
		return store.ErrDuplicate
	}
	m.DB.textbooks[textbook.ID] = copyTextbook(textbook)
	return nil
}

// GetByID implements store.TextbookStore.
func (m *MockTextbookStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Textbook, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}

	if t := m.DB.Textbook(id); t != nil {
		return t, nil
	}
	return nil, store.ErrTextbookNotFound
}

// MarkStarted implements store.TextbookStore.
func (m *MockTextbookStore) MarkStarted(ctx context.Context, id uuid.UUID) error {
	if m.MarkStartedFn != nil {
		return m.MarkStartedFn(ctx, id)
	}

	return m.update(id, func(t *domain.Textbook) error {
		if t.IsTerminal() {
			return store.ErrTextbookNotGenerating
		}
		return nil
	})
}

// MarkCompleted implements store.TextbookStore.
func (m *MockTextbookStore) MarkCompleted(ctx context.Context, id uuid.UUID, estimatedHours int) error {
	if m.MarkCompletedFn != nil {
		return m.MarkCompletedFn(ctx, id, estimatedHours)
	}

	return m.update(id, func(t *domain.Textbook) error {
		if t.IsTerminal() {
			return store.ErrTextbookNotGenerating
		}
		t.Status = domain.TextbookStatusCompleted
		t.Published = true
		t.EstimatedHours = estimatedHours
		return nil
	})
}

// MarkFailed implements store.TextbookStore.
func (m *MockTextbookStore) MarkFailed(ctx context.Context, id uuid.UUID, failedAtUnit int, message string) error {
	if m.MarkFailedFn != nil {
		return m.MarkFailedFn(ctx, id, failedAtUnit, message)
	}

	return m.update(id, func(t *domain.Textbook) error {
		if t.IsTerminal() {
			return store.ErrTextbookNotGenerating
		}
		t.Status = domain.TextbookStatusError
		t.GenerationParams.FailedAtUnit = failedAtUnit
		t.GenerationParams.ErrorMessage = message
		return nil
	})
}

// SetPublished implements store.TextbookStore.
func (m *MockTextbookStore) SetPublished(ctx context.Context, id uuid.UUID, published bool) error {
	if m.SetPublishedFn != nil {
		return m.SetPublishedFn(ctx, id, published)
	}

	return m.update(id, func(t *domain.Textbook) error {
		if !t.IsTerminal() {
			return store.ErrTextbookStillGenerating
		}
		t.Published = published
		return nil
	})
}

// List implements store.TextbookStore.
func (m *MockTextbookStore) List(ctx context.Context, filter store.TextbookFilter) ([]*domain.Textbook, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, filter)
	}

	m.DB.mu.Lock()
	defer m.DB.mu.Unlock()

	out := []*domain.Textbook{}
	for _, t := range m.DB.textbooks {
		if filter.Status == "" || t.Status == filter.Status {
			out = append(out, copyTextbook(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

	if filter.Offset >= len(out) {
		return []*domain.Textbook{}, nil
	}
	out = out[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, nil
}

// FindStale implements store.TextbookStore.
func (m *MockTextbookStore) FindStale(ctx context.Context, before time.Time, limit int) ([]*domain.Textbook, error) {
	if m.FindStaleFn != nil {
		return m.FindStaleFn(ctx, before, limit)
	}

	m.DB.mu.Lock()
	defer m.DB.mu.Unlock()

	out := []*domain.Textbook{}
	for _, t := range m.DB.textbooks {
		if t.Status == domain.TextbookStatusGenerating && m.DB.lastActivity(t).Before(before) {
			out = append(out, copyTextbook(t))
		}
	}
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

// WithTx implements store.TextbookStore.
func (m *MockTextbookStore) WithTx(*sql.Tx) store.TextbookStore {
	return m
}

func (m *MockTextbookStore) update(id uuid.UUID, fn func(t *domain.Textbook) error) error {
	m.DB.mu.Lock()
	defer m.DB.mu.Unlock()

	t, ok := m.DB.textbooks[id]
	if !ok {
		return store.ErrTextbookNotFound
	}

	updated := copyTextbook(t)
	if err := fn(updated); err != nil {
		return err
	}
	updated.UpdatedAt = time.Now().UTC()
	m.DB.textbooks[id] = updated
	return nil
}
