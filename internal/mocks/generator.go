package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/kotoba-learn/kotoba-api/internal/generation"
)

// MockGenerator implements generation.Generator for testing.
type MockGenerator struct {
	// GenerateFn allows test cases to mock the Generate behavior
	GenerateFn func(ctx context.Context, params generation.Params) (*generation.RawChapter, error)

	mu    sync.Mutex
	calls []generation.Params
}

var _ generation.Generator = (*MockGenerator)(nil)

// Generate implements generation.Generator. Without GenerateFn it returns
// a small chapter with one vocabulary term and one example.
func (m *MockGenerator) Generate(ctx context.Context, params generation.Params) (*generation.RawChapter, error) {
	m.mu.Lock()
	m.calls = append(m.calls, params)
	m.mu.Unlock()

	if m.GenerateFn != nil {
		return m.GenerateFn(ctx, params)
	}
	return SampleRawChapter(params.ChapterNumber), nil
}

// Calls returns the params of every Generate call in order.
func (m *MockGenerator) Calls() []generation.Params {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]generation.Params, len(m.calls))
	copy(out, m.calls)
	return out
}

// NewFailingAtGenerator returns a generator that succeeds for every chapter
// except chapter k, which fails with err.
func NewFailingAtGenerator(k int, err error) *MockGenerator {
	return &MockGenerator{
		GenerateFn: func(_ context.Context, params generation.Params) (*generation.RawChapter, error) {
			if params.ChapterNumber == k {
				return nil, err
			}
			return SampleRawChapter(params.ChapterNumber), nil
		},
	}
}

// SampleRawChapter returns a chapter with a title, one vocabulary term, one
// example and a 45 minute estimate.
func SampleRawChapter(n int) *generation.RawChapter {
	title := fmt.Sprintf("Lesson %d", n)
	term := fmt.Sprintf("単語%d", n)
	sentence := fmt.Sprintf("これは例文%dです。", n)
	minutes := 45
	return &generation.RawChapter{
		Title:                    &title,
		Vocabulary:               []generation.RawVocabulary{{Term: &term}},
		Examples:                 []generation.RawExample{{Japanese: &sentence}},
		EstimatedDurationMinutes: &minutes,
	}
}
