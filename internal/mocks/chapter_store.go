package mocks

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/kotoba-learn/kotoba-api/internal/domain"
	"github.com/kotoba-learn/kotoba-api/internal/store"
)

// MockChapterStore implements store.ChapterStore for testing.
type MockChapterStore struct {
	DB *MemoryDB

	CreateFn        func(ctx context.Context, chapter *domain.Chapter) error
	GetFn           func(ctx context.Context, textbookID uuid.UUID, chapterNumber int) (*domain.Chapter, error)
	ListSummariesFn func(ctx context.Context, textbookID uuid.UUID) ([]domain.ChapterSummary, error)
	CountFn         func(ctx context.Context, textbookID uuid.UUID) (int, error)
}

// NewMockChapterStore creates a MockChapterStore backed by db.
func NewMockChapterStore(db *MemoryDB) *MockChapterStore {
	return &MockChapterStore{DB: db}
}

var _ store.ChapterStore = (*MockChapterStore)(nil)

// Create implements store.ChapterStore.
func (m *MockChapterStore) Create(ctx context.Context, chapter *domain.Chapter) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, chapter)
	}

	m.DB.mu.Lock()
	defer m.DB.mu.Unlock()

	textbook, ok := m.DB.textbooks[chapter.TextbookID]
	if !ok {
		return store.ErrTextbookNotFound
	}
	if textbook.IsTerminal() {
		return store.ErrTextbookNotGenerating
	}
	for _, existing := range m.DB.chapters[chapter.TextbookID] {
		if existing.ChapterNumber == chapter.ChapterNumber {
			return store.ErrDuplicateChapter
		}
	}
	m.DB.chapters[chapter.TextbookID] = append(m.DB.chapters[chapter.TextbookID], chapter)
	return nil
}

// Get implements store.ChapterStore.
func (m *MockChapterStore) Get(ctx context.Context, textbookID uuid.UUID, chapterNumber int) (*domain.Chapter, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, textbookID, chapterNumber)
	}

	for _, c := range m.DB.Chapters(textbookID) {
		if c.ChapterNumber == chapterNumber {
			return c, nil
		}
	}
	return nil, store.ErrChapterNotFound
}

// ListSummaries implements store.ChapterStore.
func (m *MockChapterStore) ListSummaries(ctx context.Context, textbookID uuid.UUID) ([]domain.ChapterSummary, error) {
	if m.ListSummariesFn != nil {
		return m.ListSummariesFn(ctx, textbookID)
	}

	chapters := m.DB.Chapters(textbookID)
	out := make([]domain.ChapterSummary, len(chapters))
	for i, c := range chapters {
		out[i] = c.Summary()
	}
	return out, nil
}

// Count implements store.ChapterStore.
func (m *MockChapterStore) Count(ctx context.Context, textbookID uuid.UUID) (int, error) {
	if m.CountFn != nil {
		return m.CountFn(ctx, textbookID)
	}
	return len(m.DB.Chapters(textbookID)), nil
}

// WithTx implements store.ChapterStore.
func (m *MockChapterStore) WithTx(*sql.Tx) store.ChapterStore {
	return m
}

// MockProgressReader implements store.ProgressReader for testing.
type MockProgressReader struct {
	DB *MemoryDB

	GetTextbookWithChaptersFn func(ctx context.Context, id uuid.UUID) (*store.TextbookProgress, error)
}

var _ store.ProgressReader = (*MockProgressReader)(nil)

// GetTextbookWithChapters implements store.ProgressReader. The in-memory
// read holds the lock across both reads, like a snapshot.
func (m *MockProgressReader) GetTextbookWithChapters(ctx context.Context, id uuid.UUID) (*store.TextbookProgress, error) {
	if m.GetTextbookWithChaptersFn != nil {
		return m.GetTextbookWithChaptersFn(ctx, id)
	}

	m.DB.mu.Lock()
	defer m.DB.mu.Unlock()

	t, ok := m.DB.textbooks[id]
	if !ok {
		return nil, store.ErrTextbookNotFound
	}

	chapters := m.DB.sortedChapters(id)
	summaries := make([]domain.ChapterSummary, len(chapters))
	for i, c := range chapters {
		summaries[i] = c.Summary()
	}
	return &store.TextbookProgress{Textbook: copyTextbook(t), Chapters: summaries}, nil
}
