package fanout

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/kotoba-learn/kotoba-api/internal/domain"
	"github.com/kotoba-learn/kotoba-api/internal/metrics"
	"github.com/kotoba-learn/kotoba-api/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingQueue fails the calls whose zero-based index is in failAt.
type recordingQueue struct {
	failAt map[int]bool
	calls  int
	items  []*domain.AudioQueueItem
}

func (q *recordingQueue) Enqueue(_ context.Context, item *domain.AudioQueueItem) error {
	defer func() { q.calls++ }()
	if q.failAt[q.calls] {
		return errors.New("queue unavailable")
	}
	q.items = append(q.items, item)
	return nil
}

func contentWith(vocab, examples int) domain.ChapterContent {
	content := domain.ChapterContent{Title: "Chapter"}
	for i := 0; i < vocab; i++ {
		content.Vocabulary = append(content.Vocabulary, domain.VocabularyItem{Term: fmt.Sprintf("term-%d", i)})
	}
	for i := 0; i < examples; i++ {
		content.Examples = append(content.Examples, domain.Example{Japanese: fmt.Sprintf("example-%d", i)})
	}
	return content
}

func TestExtractCandidates(t *testing.T) {
	tests := []struct {
		name     string
		content  domain.ChapterContent
		k        int
		expected []string
	}{
		{
			name:     "vocabulary before examples",
			content:  contentWith(2, 2),
			k:        20,
			expected: []string{"term-0", "term-1", "example-0", "example-1"},
		},
		{
			name:     "truncated to k",
			content:  contentWith(3, 3),
			k:        4,
			expected: []string{"term-0", "term-1", "term-2", "example-0"},
		},
		{
			name: "blank entries skipped",
			content: domain.ChapterContent{
				Vocabulary: []domain.VocabularyItem{{Term: " "}, {Term: "水"}},
				Examples:   []domain.Example{{Japanese: ""}, {Japanese: "水をください。"}},
			},
			k:        20,
			expected: []string{"水", "水をください。"},
		},
		{
			name:     "empty content",
			content:  domain.ChapterContent{},
			k:        20,
			expected: []string{},
		},
		{
			name:     "zero k",
			content:  contentWith(2, 0),
			k:        0,
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractCandidates(tt.content, tt.k))
		})
	}
}

func TestProducer_EnqueueFromChapter(t *testing.T) {
	textbookID := uuid.New()

	tests := []struct {
		name     string
		vocab    int
		examples int
		maxItems int
		failAt   map[int]bool
		expected Result
	}{
		{
			name:     "enqueues min of K and candidates",
			vocab:    3,
			examples: 2,
			maxItems: 20,
			expected: Result{Attempted: 5, Enqueued: 5},
		},
		{
			name:     "caps at K",
			vocab:    15,
			examples: 15,
			maxItems: 20,
			expected: Result{Attempted: 20, Enqueued: 20},
		},
		{
			name:     "failure on one item does not stop the rest",
			vocab:    4,
			examples: 1,
			maxItems: 20,
			failAt:   map[int]bool{1: true, 3: true},
			expected: Result{Attempted: 5, Enqueued: 3, Failed: 2},
		},
		{
			name:     "every item fails",
			vocab:    2,
			maxItems: 20,
			failAt:   map[int]bool{0: true, 1: true},
			expected: Result{Attempted: 2, Failed: 2},
		},
		{
			name:     "nothing to enqueue",
			maxItems: 20,
			expected: Result{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			queue := &recordingQueue{failAt: tt.failAt}
			log, _ := logger.NewTestLogger()
			p := NewProducer(queue, tt.maxItems, metrics.New(), log)

			chapter, err := domain.NewChapter(textbookID, 2, contentWith(tt.vocab, tt.examples))
			require.NoError(t, err)

			result := p.EnqueueFromChapter(context.Background(), textbookID, chapter)

			assert.Equal(t, tt.expected, result)
			assert.Equal(t, tt.expected.Attempted, queue.calls)
			for _, item := range queue.items {
				assert.Equal(t, domain.AudioStatusPending, item.Status)
				assert.Equal(t, domain.DefaultAudioVoice, item.Voice)
				assert.Equal(t, textbookID, item.SourceTextbookID)
				assert.Equal(t, 2, item.SourceChapterNumber)
			}
		})
	}
}

func TestProducer_LogsFailures(t *testing.T) {
	queue := &recordingQueue{failAt: map[int]bool{0: true}}
	log, buf := logger.NewTestLogger()
	p := NewProducer(queue, 0, nil, log)

	chapter, err := domain.NewChapter(uuid.New(), 1, contentWith(1, 0))
	require.NoError(t, err)

	result := p.EnqueueFromChapter(context.Background(), chapter.TextbookID, chapter)

	assert.Equal(t, 1, result.Failed)
	assert.Len(t, buf.EntriesWithMessage("failed to enqueue audio item"), 1)
	assert.Equal(t, DefaultMaxItems, p.maxItems)
}
