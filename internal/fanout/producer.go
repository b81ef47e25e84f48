package fanout

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/kotoba-learn/kotoba-api/internal/domain"
	"github.com/kotoba-learn/kotoba-api/internal/metrics"
	"github.com/kotoba-learn/kotoba-api/internal/platform/logger"
	"github.com/kotoba-learn/kotoba-api/internal/store"
)

// DefaultMaxItems caps the work items derived from one chapter.
const DefaultMaxItems = 20

// Result summarizes one EnqueueFromChapter call.
type Result struct {
	Attempted int
	Enqueued  int
	Failed    int
}

// Producer derives audio work items from chapters and offers them to an
// AudioQueueStore.
type Producer struct {
	queue    store.AudioQueueStore
	maxItems int
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewProducer creates a Producer. A non-positive maxItems uses DefaultMaxItems.
func NewProducer(queue store.AudioQueueStore, maxItems int, m *metrics.Metrics, logger *slog.Logger) *Producer {
	if queue == nil {
		panic("queue cannot be nil")
	}
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Producer{
		queue:    queue,
		maxItems: maxItems,
		metrics:  m,
		logger:   logger.With("component", "audio_fanout"),
	}
}

// EnqueueFromChapter enqueues one pending audio item per candidate text of
// the chapter. A failed item does not stop the items after it.
func (p *Producer) EnqueueFromChapter(ctx context.Context, textbookID uuid.UUID, chapter *domain.Chapter) Result {
	log := logger.FromContextOrDefault(ctx, p.logger).With(
		"textbook_id", textbookID,
		"chapter_number", chapter.ChapterNumber,
	)

	var result Result
	for i, text := range ExtractCandidates(chapter.Content, p.maxItems) {
		result.Attempted++

		item, err := domain.NewAudioQueueItem(text, textbookID, chapter.ChapterNumber)
		if err == nil {
			err = p.queue.Enqueue(ctx, item)
		}
		if err != nil {
			result.Failed++
			log.WarnContext(ctx, "failed to enqueue audio item",
				"index", i,
				"error", err)
			continue
		}
		result.Enqueued++
	}

	p.metrics.AudioItems(result.Enqueued, result.Failed)

	log.InfoContext(ctx, "audio fan-out finished",
		"attempted", result.Attempted,
		"enqueued", result.Enqueued,
		"failed", result.Failed)
	return result
}

// ExtractCandidates returns every vocabulary term in order followed by every
// example sentence, skipping blanks, truncated to k entries.
func ExtractCandidates(content domain.ChapterContent, k int) []string {
	if k <= 0 {
		return nil
	}

	candidates := make([]string, 0, min(k, len(content.Vocabulary)+len(content.Examples)))
	add := func(text string) bool {
		if text = strings.TrimSpace(text); text != "" {
			candidates = append(candidates, text)
		}
		return len(candidates) < k
	}

	for _, v := range content.Vocabulary {
		if !add(v.Term) {
			return candidates
		}
	}
	for _, e := range content.Examples {
		if !add(e.Japanese) {
			return candidates
		}
	}
	return candidates
}
