package task

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/kotoba-learn/kotoba-api/internal/domain"
	"github.com/kotoba-learn/kotoba-api/internal/metrics"
	"github.com/kotoba-learn/kotoba-api/internal/store"
)

// InterruptedMessage is the error message recorded on swept textbooks.
const InterruptedMessage = "generation interrupted"

// defaultSweepBatch bounds how many textbooks one sweep closes out.
const defaultSweepBatch = 100

// StuckTextbookSweeper closes out textbooks whose generation stopped without
// a terminal write, usually because the process died mid-loop.
type StuckTextbookSweeper struct {
	textbooks store.TextbookStore
	chapters  store.ChapterStore
	inFlight  *InFlightTextbooks
	age       time.Duration
	batch     int
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func() time.Time
}

// NewStuckTextbookSweeper creates a sweeper that treats a generating
// textbook with no write for longer than age as stuck. Textbooks in
// inFlight are never swept; inFlight may be nil.
func NewStuckTextbookSweeper(
	textbooks store.TextbookStore,
	chapters store.ChapterStore,
	inFlight *InFlightTextbooks,
	age time.Duration,
	m *metrics.Metrics,
	logger *slog.Logger,
) *StuckTextbookSweeper {
	if textbooks == nil || chapters == nil {
		panic("sweeper stores cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &StuckTextbookSweeper{
		textbooks: textbooks,
		chapters:  chapters,
		inFlight:  inFlight,
		age:       age,
		batch:     defaultSweepBatch,
		metrics:   m,
		logger:    logger.With("component", "stuck_textbook_sweeper"),
		now:       time.Now,
	}
}

// Sweep closes out every stuck textbook and returns how many it closed.
// A textbook with all of its chapters persisted only missed its completion
// write and is completed. Any other is failed at the chapter after its last
// persisted one. A textbook finalized concurrently is skipped.
func (s *StuckTextbookSweeper) Sweep(ctx context.Context) (int, error) {
	stale, err := s.textbooks.FindStale(ctx, s.now().Add(-s.age), s.batch)
	if err != nil {
		return 0, err
	}

	failed, completed := 0, 0
	for _, textbook := range stale {
		log := s.logger.With("textbook_id", textbook.ID)

		if s.inFlight.Contains(textbook.ID) {
			log.DebugContext(ctx, "stale textbook is still queued or running here")
			continue
		}

		persisted, err := s.chapters.Count(ctx, textbook.ID)
		if err != nil {
			log.ErrorContext(ctx, "failed to count chapters of stuck textbook", "error", err)
			continue
		}

		if persisted >= textbook.TotalChapters {
			if s.complete(ctx, log, textbook.ID) {
				completed++
			}
			continue
		}

		failedAt := persisted + 1
		err = s.textbooks.MarkFailed(ctx, textbook.ID, failedAt, InterruptedMessage)
		if !s.closed(ctx, log, err) {
			continue
		}

		failed++
		log.WarnContext(ctx, "closed out interrupted textbook",
			"persisted_chapters", persisted,
			"failed_at_unit", failedAt)
	}

	s.metrics.TextbooksSwept(failed)
	return failed + completed, nil
}

// complete finishes a textbook whose chapters are all persisted, estimating
// its hours from the stored chapter durations.
func (s *StuckTextbookSweeper) complete(ctx context.Context, log *slog.Logger, id uuid.UUID) bool {
	summaries, err := s.chapters.ListSummaries(ctx, id)
	if err != nil {
		log.ErrorContext(ctx, "failed to list chapters of stuck textbook", "error", err)
		return false
	}

	hours := domain.EstimateSummaryHours(summaries)
	if !s.closed(ctx, log, s.textbooks.MarkCompleted(ctx, id, hours)) {
		return false
	}

	s.metrics.TextbookFinished(string(domain.TextbookStatusCompleted))
	log.WarnContext(ctx, "completed textbook that missed its completion write",
		"persisted_chapters", len(summaries),
		"estimated_hours", hours)
	return true
}

// closed reports whether a terminal write took effect.
func (s *StuckTextbookSweeper) closed(ctx context.Context, log *slog.Logger, err error) bool {
	switch {
	case err == nil:
		return true
	case errors.Is(err, store.ErrTextbookNotGenerating), errors.Is(err, store.ErrTextbookNotFound):
		log.DebugContext(ctx, "stuck textbook was finalized concurrently")
	default:
		log.ErrorContext(ctx, "failed to close out stuck textbook", "error", err)
	}
	return false
}
