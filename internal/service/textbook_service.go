package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/kotoba-learn/kotoba-api/internal/domain"
	"github.com/kotoba-learn/kotoba-api/internal/events"
	"github.com/kotoba-learn/kotoba-api/internal/fanout"
	"github.com/kotoba-learn/kotoba-api/internal/generation"
	"github.com/kotoba-learn/kotoba-api/internal/metrics"
	"github.com/kotoba-learn/kotoba-api/internal/platform/logger"
	"github.com/kotoba-learn/kotoba-api/internal/store"
	"github.com/sethvargo/go-retry"
)

// Defaults for TextbookServiceConfig zero values.
const (
	DefaultUnitTimeout       = 2 * time.Minute
	DefaultFinalizeBaseDelay = 200 * time.Millisecond
	DefaultFinalizeMaxDelay  = 10 * time.Second
)

// AudioFanout enqueues audio work items for a persisted chapter.
type AudioFanout interface {
	EnqueueFromChapter(ctx context.Context, textbookID uuid.UUID, chapter *domain.Chapter) fanout.Result
}

// TextbookServiceConfig tunes the generation loop.
type TextbookServiceConfig struct {
	// UnitTimeout bounds one chapter's generator call.
	UnitTimeout time.Duration

	// FinalizeBaseDelay and FinalizeMaxDelay shape the backoff used when
	// the terminal status write fails.
	FinalizeBaseDelay time.Duration
	FinalizeMaxDelay  time.Duration
}

// TextbookServiceDeps are the collaborators of a TextbookService. Fanout,
// Emitter and Metrics are optional.
type TextbookServiceDeps struct {
	Textbooks store.TextbookStore
	Chapters  store.ChapterStore
	Generator generation.Generator
	Fanout    AudioFanout
	Emitter   events.EventEmitter
	Metrics   *metrics.Metrics

	// Lifetime bounds finalization retries; they stop when it is done.
	// Defaults to context.Background().
	Lifetime context.Context
}

// SubmitTextbookResult is the outcome of a fully generated textbook.
type SubmitTextbookResult struct {
	Textbook *domain.Textbook
	Chapters []ChapterRef
}

// ChapterRef is the minimal view of a generated chapter.
type ChapterRef struct {
	ID            uuid.UUID `json:"id"`
	ChapterNumber int       `json:"chapter_number"`
	Title         string    `json:"title"`
}

// TextbookService creates textbooks and drives their chapter generation.
type TextbookService struct {
	textbooks store.TextbookStore
	chapters  store.ChapterStore
	generator generation.Generator
	fanout    AudioFanout
	emitter   events.EventEmitter
	metrics   *metrics.Metrics
	lifetime  context.Context
	config    TextbookServiceConfig
	validate  *validator.Validate
	logger    *slog.Logger
}

// NewTextbookService creates a TextbookService.
// It returns an error if any of the required dependencies are nil.
func NewTextbookService(
	deps TextbookServiceDeps,
	config TextbookServiceConfig,
	logger *slog.Logger,
) (*TextbookService, error) {
	switch {
	case deps.Textbooks == nil:
		return nil, &TextbookServiceError{Operation: "create_service", Message: "textbook store cannot be nil"}
	case deps.Chapters == nil:
		return nil, &TextbookServiceError{Operation: "create_service", Message: "chapter store cannot be nil"}
	case deps.Generator == nil:
		return nil, &TextbookServiceError{Operation: "create_service", Message: "generator cannot be nil"}
	}

	if logger == nil {
		logger = slog.Default()
	}
	if deps.Lifetime == nil {
		deps.Lifetime = context.Background()
	}
	if config.UnitTimeout <= 0 {
		config.UnitTimeout = DefaultUnitTimeout
	}
	if config.FinalizeBaseDelay <= 0 {
		config.FinalizeBaseDelay = DefaultFinalizeBaseDelay
	}
	if config.FinalizeMaxDelay < config.FinalizeBaseDelay {
		config.FinalizeMaxDelay = max(DefaultFinalizeMaxDelay, config.FinalizeBaseDelay)
	}

	return &TextbookService{
		textbooks: deps.Textbooks,
		chapters:  deps.Chapters,
		generator: deps.Generator,
		fanout:    deps.Fanout,
		emitter:   deps.Emitter,
		metrics:   deps.Metrics,
		lifetime:  deps.Lifetime,
		config:    config,
		validate:  newRequestValidator(),
		logger:    logger.With("component", "textbook_service"),
	}, nil
}

// SubmitTextbook validates req, creates the textbook and generates every
// chapter before returning.
//
// A *ValidationError means nothing was written. A *PartialFailureError means
// the textbook exists in the error state with CompletedUnits chapters.
func (s *TextbookService) SubmitTextbook(ctx context.Context, req SubmitTextbookRequest) (*SubmitTextbookResult, error) {
	textbook, err := s.createTextbook(ctx, req)
	if err != nil {
		return nil, err
	}

	return s.run(ctx, textbook)
}

// StartTextbook validates req and creates the textbook, then requests
// background generation and returns without waiting for any chapter.
func (s *TextbookService) StartTextbook(ctx context.Context, req SubmitTextbookRequest) (*domain.Textbook, error) {
	if s.emitter == nil {
		return nil, ErrAsyncUnavailable
	}

	textbook, err := s.createTextbook(ctx, req)
	if err != nil {
		return nil, err
	}

	log := logger.FromContextOrDefault(ctx, s.logger)

	event, err := events.NewTextbookGenerationEvent(textbook.ID)
	if err == nil {
		err = s.emitter.EmitEvent(ctx, event)
	}
	if err != nil {
		log.ErrorContext(ctx, "failed to request textbook generation",
			"error", err,
			"textbook_id", textbook.ID)

		// Nothing will ever run this textbook, close it out.
		cause := fmt.Errorf("failed to schedule generation: %w", err)
		failErr := s.fail(ctx, textbook, domain.MinChapters, cause)
		return nil, failErr
	}

	log.InfoContext(ctx, "textbook generation scheduled",
		"textbook_id", textbook.ID,
		"event_id", event.ID)
	return textbook, nil
}

// Generate runs the chapter loop for an existing generating textbook. It is
// the entry point used by background tasks.
func (s *TextbookService) Generate(ctx context.Context, textbookID uuid.UUID) error {
	textbook, err := s.textbooks.GetByID(ctx, textbookID)
	if err != nil {
		return NewTextbookServiceError("generate", "failed to load textbook", err)
	}

	if textbook.IsTerminal() {
		return ErrTextbookNotGenerating
	}

	// The textbook may have waited in the queue for a long time. Refresh its
	// last activity so the sweeper measures staleness from now.
	if err := s.textbooks.MarkStarted(ctx, textbookID); err != nil {
		if errors.Is(err, store.ErrTextbookNotGenerating) {
			return ErrTextbookNotGenerating
		}
		logger.FromContextOrDefault(ctx, s.logger).WarnContext(ctx, "failed to record generation start",
			"error", err,
			"textbook_id", textbookID)
	}

	_, err = s.run(ctx, textbook)
	return err
}

// SetPublished changes the published flag of a finished textbook.
func (s *TextbookService) SetPublished(ctx context.Context, textbookID uuid.UUID, published bool) error {
	if err := s.textbooks.SetPublished(ctx, textbookID, published); err != nil {
		return NewTextbookServiceError("set_published", "failed to update published flag", err)
	}
	return nil
}

func (s *TextbookService) createTextbook(ctx context.Context, req SubmitTextbookRequest) (*domain.Textbook, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := validateRequest(s.validate, &req); err != nil {
		log.DebugContext(ctx, "textbook request rejected", "error", err)
		return nil, err
	}

	textbook, err := domain.NewTextbook(
		req.Title,
		req.Category,
		req.TotalChapters,
		req.TargetParams,
		domain.GenerationOptions{
			IncludeAudio:         req.Options.IncludeAudio,
			IncludeExercises:     req.Options.IncludeExercises,
			IncludeCulturalNotes: req.Options.IncludeCulturalNotes,
		},
	)
	if err != nil {
		return nil, &ValidationError{Fields: []FieldError{{Field: "request", Message: err.Error()}}}
	}

	if err := s.textbooks.Create(ctx, textbook); err != nil {
		log.ErrorContext(ctx, "failed to create textbook",
			"error", err,
			"textbook_id", textbook.ID)
		return nil, NewTextbookServiceError("create_textbook", "failed to save textbook", err)
	}

	log.InfoContext(ctx, "textbook created",
		"textbook_id", textbook.ID,
		"category", textbook.Category,
		"total_chapters", textbook.TotalChapters)
	return textbook, nil
}

// run generates chapters 1..N in order and finalizes the textbook.
func (s *TextbookService) run(ctx context.Context, textbook *domain.Textbook) (*SubmitTextbookResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With("textbook_id", textbook.ID)
	ctx = logger.WithLogger(ctx, log)

	s.metrics.TextbookStarted()

	chapters := make([]*domain.Chapter, 0, textbook.TotalChapters)
	for n := 1; n <= textbook.TotalChapters; n++ {
		if err := ctx.Err(); err != nil {
			log.WarnContext(ctx, "generation cancelled before chapter", "chapter_number", n)
			cause := &UnitGenerationError{ChapterNumber: n, Cause: fmt.Errorf("%w: %v", ErrGenerationCancelled, err)}
			return nil, s.fail(ctx, textbook, n, cause)
		}

		chapter, err := s.generateChapter(ctx, textbook, n)
		if err != nil {
			return nil, s.fail(ctx, textbook, n, err)
		}
		chapters = append(chapters, chapter)

		if textbook.GenerationParams.Options.IncludeAudio && s.fanout != nil {
			s.fanout.EnqueueFromChapter(context.WithoutCancel(ctx), textbook.ID, chapter)
		}
	}

	hours := domain.EstimateHours(chapters)
	err := s.finalize(ctx, "mark_completed", func(ctx context.Context) error {
		return s.textbooks.MarkCompleted(ctx, textbook.ID, hours)
	})
	if err != nil {
		log.ErrorContext(ctx, "failed to mark textbook completed", "error", err)
		s.metrics.TextbookFinished("unfinalized")
		return nil, &PartialFailureError{
			TextbookID:     textbook.ID,
			CompletedUnits: len(chapters),
			Err:            &PersistenceError{Operation: "mark_completed", Err: err},
		}
	}

	if err := textbook.Complete(hours); err != nil {
		return nil, NewTextbookServiceError("complete_textbook", "inconsistent textbook state", err)
	}
	s.metrics.TextbookFinished(string(domain.TextbookStatusCompleted))

	log.InfoContext(ctx, "textbook generation completed",
		"chapters", len(chapters),
		"estimated_hours", hours)

	refs := make([]ChapterRef, len(chapters))
	for i, c := range chapters {
		refs[i] = ChapterRef{ID: c.ID, ChapterNumber: c.ChapterNumber, Title: c.Title}
	}
	return &SubmitTextbookResult{Textbook: textbook, Chapters: refs}, nil
}

// generateChapter produces and persists chapter n. The generator call is
// bounded by UnitTimeout and is not interrupted by caller cancellation.
func (s *TextbookService) generateChapter(ctx context.Context, textbook *domain.Textbook, n int) (*domain.Chapter, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With("chapter_number", n)
	start := time.Now()

	params := generation.Params{
		Category:      textbook.Category,
		TargetParams:  textbook.TargetParams,
		ChapterNumber: n,
		TotalChapters: textbook.TotalChapters,
		Options:       textbook.GenerationParams.Options,
	}

	detached := context.WithoutCancel(ctx)
	unitCtx, cancel := context.WithTimeout(detached, s.config.UnitTimeout)
	raw, err := s.generator.Generate(unitCtx, params)
	timedOut := errors.Is(unitCtx.Err(), context.DeadlineExceeded)
	cancel()

	switch {
	case err != nil && timedOut:
		err = &UnitGenerationError{ChapterNumber: n, Cause: fmt.Errorf("%w after %s: %w", ErrUnitTimeout, s.config.UnitTimeout, err)}
	case err != nil:
		err = &UnitGenerationError{ChapterNumber: n, Cause: err}
	case raw.IsEmpty():
		err = &UnitGenerationError{ChapterNumber: n, Cause: ErrEmptyChapter}
	}
	if err != nil {
		s.metrics.ObserveChapter(metrics.OutcomeFailure, time.Since(start))
		log.WarnContext(ctx, "chapter generation failed", "error", err)
		return nil, err
	}

	chapter, err := domain.NewChapter(textbook.ID, n, raw.Normalize(n))
	if err != nil {
		s.metrics.ObserveChapter(metrics.OutcomeFailure, time.Since(start))
		return nil, &UnitGenerationError{ChapterNumber: n, Cause: err}
	}

	if err := s.chapters.Create(detached, chapter); err != nil {
		s.metrics.ObserveChapter(metrics.OutcomeFailure, time.Since(start))
		log.ErrorContext(ctx, "failed to persist chapter", "error", err)
		return nil, &PersistenceError{Operation: "create_chapter", ChapterNumber: n, Err: err}
	}

	s.metrics.ObserveChapter(metrics.OutcomeSuccess, time.Since(start))
	log.InfoContext(ctx, "chapter generated",
		"chapter_id", chapter.ID,
		"duration_ms", time.Since(start).Milliseconds())
	return chapter, nil
}

// fail records the failure of chapter n on the textbook and returns the
// error handed back to the caller.
func (s *TextbookService) fail(ctx context.Context, textbook *domain.Textbook, n int, cause error) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	err := s.finalize(ctx, "mark_failed", func(ctx context.Context) error {
		return s.textbooks.MarkFailed(ctx, textbook.ID, n, cause.Error())
	})
	if err != nil {
		log.ErrorContext(ctx, "failed to mark textbook failed",
			"error", err,
			"failed_at_unit", n)
	} else if failErr := textbook.Fail(n, cause.Error()); failErr != nil {
		log.WarnContext(ctx, "textbook state out of sync after failure", "error", failErr)
	}

	s.metrics.TextbookFinished(string(domain.TextbookStatusError))
	return &PartialFailureError{
		TextbookID:     textbook.ID,
		CompletedUnits: n - 1,
		Err:            cause,
	}
}

// finalize runs a terminal status write until it succeeds. The write is
// detached from the caller's cancellation and only gives up when the
// service lifetime ends or the textbook is no longer generating.
func (s *TextbookService) finalize(ctx context.Context, operation string, write func(ctx context.Context) error) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	defer cancel()
	stop := context.AfterFunc(s.lifetime, cancel)
	defer stop()

	backoff := retry.NewExponential(s.config.FinalizeBaseDelay)
	backoff = retry.WithJitterPercent(20, backoff)
	backoff = retry.WithCappedDuration(s.config.FinalizeMaxDelay, backoff)

	attempt := 0
	return retry.Do(fctx, backoff, func(ctx context.Context) error {
		attempt++
		err := write(ctx)
		if err == nil {
			return nil
		}

		if errors.Is(err, store.ErrTextbookNotGenerating) || errors.Is(err, store.ErrTextbookNotFound) {
			return err
		}

		s.metrics.FinalizeRetried()
		log.WarnContext(ctx, "textbook finalization failed, retrying",
			"operation", operation,
			"attempt", attempt,
			"error", err)
		return retry.RetryableError(err)
	})
}
