package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kotoba-learn/kotoba-api/internal/domain"
	"github.com/kotoba-learn/kotoba-api/internal/events"
	"github.com/kotoba-learn/kotoba-api/internal/fanout"
	"github.com/kotoba-learn/kotoba-api/internal/generation"
	"github.com/kotoba-learn/kotoba-api/internal/mocks"
	"github.com/kotoba-learn/kotoba-api/internal/platform/logger"
	"github.com/kotoba-learn/kotoba-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	db        *mocks.MemoryDB
	textbooks *mocks.MockTextbookStore
	chapters  *mocks.MockChapterStore
	generator *mocks.MockGenerator
	fanout    *recordingFanout
	service   *TextbookService
	logs      *logger.TestLogBuffer
}

type recordingFanout struct {
	mu       sync.Mutex
	chapters []int
}

func (f *recordingFanout) EnqueueFromChapter(_ context.Context, _ uuid.UUID, chapter *domain.Chapter) fanout.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chapters = append(f.chapters, chapter.ChapterNumber)
	return fanout.Result{}
}

func newHarness(t *testing.T, generator *mocks.MockGenerator, opts ...func(*TextbookServiceDeps)) *harness {
	t.Helper()

	db := mocks.NewMemoryDB()
	h := &harness{
		db:        db,
		textbooks: mocks.NewMockTextbookStore(db),
		chapters:  mocks.NewMockChapterStore(db),
		generator: generator,
		fanout:    &recordingFanout{},
	}

	deps := TextbookServiceDeps{
		Textbooks: h.textbooks,
		Chapters:  h.chapters,
		Generator: generator,
		Fanout:    h.fanout,
	}
	for _, opt := range opts {
		opt(&deps)
	}

	log, buf := logger.NewTestLogger()
	h.logs = buf

	svc, err := NewTextbookService(deps, TextbookServiceConfig{
		UnitTimeout:       time.Second,
		FinalizeBaseDelay: time.Millisecond,
		FinalizeMaxDelay:  5 * time.Millisecond,
	}, log)
	require.NoError(t, err)
	h.service = svc
	return h
}

// untitledGenerator returns chapters with no title and no duration.
func untitledGenerator() *mocks.MockGenerator {
	return &mocks.MockGenerator{
		GenerateFn: func(_ context.Context, params generation.Params) (*generation.RawChapter, error) {
			summary := fmt.Sprintf("summary %d", params.ChapterNumber)
			return &generation.RawChapter{Summary: &summary}, nil
		},
	}
}

func caregivingRequest(total int) SubmitTextbookRequest {
	return SubmitTextbookRequest{
		Title:         "Caregiving Basics",
		Category:      domain.CategorySSW1,
		TotalChapters: total,
		TargetParams:  map[string]any{"field": "caregiving"},
	}
}

func (h *harness) allTextbooks(t *testing.T) []*domain.Textbook {
	t.Helper()
	all, err := h.textbooks.List(context.Background(), store.TextbookFilter{})
	require.NoError(t, err)
	return all
}

func TestSubmitTextbook_ScenarioA(t *testing.T) {
	h := newHarness(t, untitledGenerator())

	result, err := h.service.SubmitTextbook(context.Background(), caregivingRequest(3))
	require.NoError(t, err)

	assert.Equal(t, domain.TextbookStatusCompleted, result.Textbook.Status)
	assert.True(t, result.Textbook.Published)
	assert.Equal(t, 3, result.Textbook.EstimatedHours)
	require.Len(t, result.Chapters, 3)
	for i, ref := range result.Chapters {
		assert.Equal(t, i+1, ref.ChapterNumber)
		assert.Equal(t, fmt.Sprintf("Chapter %d", i+1), ref.Title)
	}

	stored := h.db.Textbook(result.Textbook.ID)
	assert.Equal(t, domain.TextbookStatusCompleted, stored.Status)
	assert.True(t, stored.Published)
	assert.Equal(t, 3, stored.EstimatedHours)
	assert.Len(t, h.db.Chapters(result.Textbook.ID), 3)

	assert.Empty(t, h.fanout.chapters, "audio was not requested")
}

func TestSubmitTextbook_ScenarioB(t *testing.T) {
	h := newHarness(t, mocks.NewFailingAtGenerator(2, fmt.Errorf("%w: model overloaded", generation.ErrGenerationFailed)))

	result, err := h.service.SubmitTextbook(context.Background(), caregivingRequest(3))
	require.Error(t, err)
	assert.Nil(t, result)

	var partial *PartialFailureError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, 1, partial.CompletedUnits)

	var unitErr *UnitGenerationError
	require.ErrorAs(t, err, &unitErr)
	assert.Equal(t, 2, unitErr.ChapterNumber)
	assert.ErrorIs(t, err, generation.ErrGenerationFailed)

	stored := h.db.Textbook(partial.TextbookID)
	assert.Equal(t, domain.TextbookStatusError, stored.Status)
	assert.Equal(t, 2, stored.GenerationParams.FailedAtUnit)
	assert.Contains(t, stored.GenerationParams.ErrorMessage, "model overloaded")
	assert.False(t, stored.Published)

	chapters := h.db.Chapters(partial.TextbookID)
	require.Len(t, chapters, 1)
	assert.Equal(t, 1, chapters[0].ChapterNumber)
}

func TestSubmitTextbook_ScenarioC(t *testing.T) {
	h := newHarness(t, untitledGenerator())

	_, err := h.service.SubmitTextbook(context.Background(), caregivingRequest(0))

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Len(t, validationErr.Fields, 1)
	assert.Equal(t, "total_chapters", validationErr.Fields[0].Field)
	assert.ErrorIs(t, err, domain.ErrValidation)

	assert.Empty(t, h.allTextbooks(t))
	assert.Empty(t, h.generator.Calls())
}

func TestSubmitTextbook_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *SubmitTextbookRequest)
		fields []string
	}{
		{"blank title", func(r *SubmitTextbookRequest) { r.Title = "   " }, []string{"title"}},
		{"unknown category", func(r *SubmitTextbookRequest) { r.Category = "JLPT_N6" }, []string{"category"}},
		{"missing category", func(r *SubmitTextbookRequest) { r.Category = "" }, []string{"category"}},
		{"too many chapters", func(r *SubmitTextbookRequest) { r.TotalChapters = 51 }, []string{"total_chapters"}},
		{"negative chapters", func(r *SubmitTextbookRequest) { r.TotalChapters = -1 }, []string{"total_chapters"}},
		{
			"every field reported",
			func(r *SubmitTextbookRequest) { *r = SubmitTextbookRequest{Category: "nope"} },
			[]string{"title", "category", "total_chapters"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, untitledGenerator())
			req := caregivingRequest(3)
			tt.mutate(&req)

			_, err := h.service.SubmitTextbook(context.Background(), req)

			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			var got []string
			for _, f := range validationErr.Fields {
				got = append(got, f.Field)
				assert.NotEmpty(t, f.Message)
			}
			assert.Equal(t, tt.fields, got)
			assert.Empty(t, h.allTextbooks(t))
		})
	}
}

func TestSubmitTextbook_CategoryMessageListsSupported(t *testing.T) {
	h := newHarness(t, untitledGenerator())
	req := caregivingRequest(1)
	req.Category = "KANJI"

	_, err := h.service.SubmitTextbook(context.Background(), req)
	assert.ErrorContains(t, err, "JLPT_N5")
	assert.ErrorContains(t, err, "CONVERSATION")
}

func TestSubmitTextbook_AllChaptersSucceed(t *testing.T) {
	for _, n := range []int{1, 2, 7, 50} {
		t.Run(fmt.Sprintf("N=%d", n), func(t *testing.T) {
			h := newHarness(t, &mocks.MockGenerator{})

			result, err := h.service.SubmitTextbook(context.Background(), caregivingRequest(n))
			require.NoError(t, err)

			chapters := h.db.Chapters(result.Textbook.ID)
			require.Len(t, chapters, n)
			for i, c := range chapters {
				assert.Equal(t, i+1, c.ChapterNumber)
			}

			calls := h.generator.Calls()
			require.Len(t, calls, n)
			for i, p := range calls {
				assert.Equal(t, i+1, p.ChapterNumber)
				assert.Equal(t, n, p.TotalChapters)
				assert.Equal(t, domain.CategorySSW1, p.Category)
			}
			assert.Equal(t, (n*45+59)/60, result.Textbook.EstimatedHours)
		})
	}
}

func TestSubmitTextbook_FailAtK(t *testing.T) {
	const total = 5
	for k := 1; k <= total; k++ {
		t.Run(fmt.Sprintf("k=%d", k), func(t *testing.T) {
			h := newHarness(t, mocks.NewFailingAtGenerator(k, generation.ErrContentBlocked))

			_, err := h.service.SubmitTextbook(context.Background(), caregivingRequest(total))

			var partial *PartialFailureError
			require.ErrorAs(t, err, &partial)
			assert.Equal(t, k-1, partial.CompletedUnits)

			stored := h.db.Textbook(partial.TextbookID)
			assert.Equal(t, domain.TextbookStatusError, stored.Status)
			assert.Equal(t, k, stored.GenerationParams.FailedAtUnit)

			chapters := h.db.Chapters(partial.TextbookID)
			assert.Len(t, chapters, k-1)
			for _, c := range chapters {
				assert.Less(t, c.ChapterNumber, k)
			}
			assert.Len(t, h.generator.Calls(), k, "no chapter after k is attempted")
		})
	}
}

func TestSubmitTextbook_EmptyResultFails(t *testing.T) {
	tests := []struct {
		name string
		raw  *generation.RawChapter
	}{
		{"nil chapter", nil},
		{"empty chapter", &generation.RawChapter{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, &mocks.MockGenerator{
				GenerateFn: func(context.Context, generation.Params) (*generation.RawChapter, error) {
					return tt.raw, nil
				},
			})

			_, err := h.service.SubmitTextbook(context.Background(), caregivingRequest(2))
			assert.ErrorIs(t, err, ErrEmptyChapter)

			var partial *PartialFailureError
			require.ErrorAs(t, err, &partial)
			assert.Equal(t, 0, partial.CompletedUnits)
		})
	}
}

func TestSubmitTextbook_ChapterInsertFailure(t *testing.T) {
	h := newHarness(t, &mocks.MockGenerator{})
	diskFull := errors.New("disk full")
	h.chapters.CreateFn = func(ctx context.Context, c *domain.Chapter) error {
		if c.ChapterNumber == 3 {
			return diskFull
		}
		return mocks.NewMockChapterStore(h.db).Create(ctx, c)
	}

	_, err := h.service.SubmitTextbook(context.Background(), caregivingRequest(4))

	var persistErr *PersistenceError
	require.ErrorAs(t, err, &persistErr)
	assert.Equal(t, "create_chapter", persistErr.Operation)
	assert.Equal(t, 3, persistErr.ChapterNumber)
	assert.ErrorIs(t, err, diskFull)

	var partial *PartialFailureError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, 2, partial.CompletedUnits)
	assert.Equal(t, 3, h.db.Textbook(partial.TextbookID).GenerationParams.FailedAtUnit)
}

func TestSubmitTextbook_UnitTimeout(t *testing.T) {
	h := newHarness(t, &mocks.MockGenerator{
		GenerateFn: func(ctx context.Context, _ generation.Params) (*generation.RawChapter, error) {
			<-ctx.Done()
			return nil, fmt.Errorf("%w: %v", generation.ErrTransientFailure, ctx.Err())
		},
	})
	h.service.config.UnitTimeout = 20 * time.Millisecond

	_, err := h.service.SubmitTextbook(context.Background(), caregivingRequest(2))

	assert.ErrorIs(t, err, ErrUnitTimeout)
	var partial *PartialFailureError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, domain.TextbookStatusError, h.db.Textbook(partial.TextbookID).Status)
}

func TestSubmitTextbook_CancellationStopsBeforeNextChapter(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var sawCancelledCtx atomic.Bool
	h := newHarness(t, &mocks.MockGenerator{
		GenerateFn: func(callCtx context.Context, params generation.Params) (*generation.RawChapter, error) {
			if params.ChapterNumber == 2 {
				// The caller goes away while chapter 2 is in flight.
				cancel()
				sawCancelledCtx.Store(callCtx.Err() != nil)
			}
			return mocks.SampleRawChapter(params.ChapterNumber), nil
		},
	})

	_, err := h.service.SubmitTextbook(ctx, caregivingRequest(4))

	assert.ErrorIs(t, err, ErrGenerationCancelled)
	assert.False(t, sawCancelledCtx.Load(), "in-flight call is detached from the caller")

	var partial *PartialFailureError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, 2, partial.CompletedUnits, "chapter 2 finishes, chapter 3 never starts")

	stored := h.db.Textbook(partial.TextbookID)
	assert.Equal(t, domain.TextbookStatusError, stored.Status)
	assert.Equal(t, 3, stored.GenerationParams.FailedAtUnit)
	assert.Len(t, h.db.Chapters(partial.TextbookID), 2)
	assert.Len(t, h.generator.Calls(), 2)
}

func TestSubmitTextbook_FinalizationIsRetried(t *testing.T) {
	h := newHarness(t, &mocks.MockGenerator{})
	backing := mocks.NewMockTextbookStore(h.db)

	var attempts atomic.Int32
	h.textbooks.MarkCompletedFn = func(ctx context.Context, id uuid.UUID, hours int) error {
		if attempts.Add(1) < 4 {
			return errors.New("connection reset")
		}
		return backing.MarkCompleted(ctx, id, hours)
	}

	result, err := h.service.SubmitTextbook(context.Background(), caregivingRequest(2))
	require.NoError(t, err)

	assert.Equal(t, int32(4), attempts.Load())
	assert.Equal(t, domain.TextbookStatusCompleted, h.db.Textbook(result.Textbook.ID).Status)
	assert.Len(t, h.logs.EntriesWithMessage("textbook finalization failed, retrying"), 3)
}

func TestSubmitTextbook_FailureFinalizationIsRetried(t *testing.T) {
	h := newHarness(t, mocks.NewFailingAtGenerator(1, generation.ErrGenerationFailed))
	backing := mocks.NewMockTextbookStore(h.db)

	var attempts atomic.Int32
	h.textbooks.MarkFailedFn = func(ctx context.Context, id uuid.UUID, n int, msg string) error {
		if attempts.Add(1) < 3 {
			return errors.New("connection reset")
		}
		return backing.MarkFailed(ctx, id, n, msg)
	}

	_, err := h.service.SubmitTextbook(context.Background(), caregivingRequest(2))

	var partial *PartialFailureError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, int32(3), attempts.Load())
	assert.Equal(t, domain.TextbookStatusError, h.db.Textbook(partial.TextbookID).Status)
}

func TestSubmitTextbook_FinalizationStopsWhenTextbookIsTerminal(t *testing.T) {
	h := newHarness(t, &mocks.MockGenerator{})

	var attempts atomic.Int32
	h.textbooks.MarkCompletedFn = func(context.Context, uuid.UUID, int) error {
		attempts.Add(1)
		return store.ErrTextbookNotGenerating
	}

	_, err := h.service.SubmitTextbook(context.Background(), caregivingRequest(1))

	var persistErr *PersistenceError
	require.ErrorAs(t, err, &persistErr)
	assert.Equal(t, "mark_completed", persistErr.Operation)
	assert.ErrorIs(t, err, store.ErrTextbookNotGenerating)
	assert.Equal(t, int32(1), attempts.Load())
}

func TestSubmitTextbook_FinalizationStopsAtShutdown(t *testing.T) {
	lifetime, shutdown := context.WithCancel(context.Background())
	h := newHarness(t, &mocks.MockGenerator{}, func(d *TextbookServiceDeps) { d.Lifetime = lifetime })

	h.textbooks.MarkCompletedFn = func(context.Context, uuid.UUID, int) error {
		shutdown()
		return errors.New("connection refused")
	}

	done := make(chan error, 1)
	go func() {
		_, err := h.service.SubmitTextbook(context.Background(), caregivingRequest(1))
		done <- err
	}()

	select {
	case err := <-done:
		var partial *PartialFailureError
		assert.ErrorAs(t, err, &partial)
	case <-time.After(2 * time.Second):
		t.Fatal("finalization kept retrying after shutdown")
	}
}

func TestSubmitTextbook_AudioFanout(t *testing.T) {
	h := newHarness(t, &mocks.MockGenerator{})
	req := caregivingRequest(3)
	req.Options.IncludeAudio = true

	_, err := h.service.SubmitTextbook(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 3}, h.fanout.chapters)
}

func TestSubmitTextbook_AudioFailuresDoNotAffectTextbook(t *testing.T) {
	queue := &mocks.MockAudioQueueStore{
		EnqueueFn: func(context.Context, *domain.AudioQueueItem) error {
			return errors.New("queue down")
		},
	}
	producer := fanout.NewProducer(queue, 20, nil, nil)
	h := newHarness(t, &mocks.MockGenerator{}, func(d *TextbookServiceDeps) { d.Fanout = producer })

	req := caregivingRequest(2)
	req.Options.IncludeAudio = true

	result, err := h.service.SubmitTextbook(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, domain.TextbookStatusCompleted, h.db.Textbook(result.Textbook.ID).Status)
	assert.Len(t, h.db.Chapters(result.Textbook.ID), 2)
	assert.Empty(t, queue.Items())
}

type recordingEmitter struct {
	events []*events.TaskRequestEvent
	err    error
}

func (e *recordingEmitter) EmitEvent(_ context.Context, event *events.TaskRequestEvent) error {
	e.events = append(e.events, event)
	return e.err
}

func TestStartTextbook(t *testing.T) {
	t.Run("creates textbook and emits event", func(t *testing.T) {
		emitter := &recordingEmitter{}
		h := newHarness(t, &mocks.MockGenerator{}, func(d *TextbookServiceDeps) { d.Emitter = emitter })

		textbook, err := h.service.StartTextbook(context.Background(), caregivingRequest(3))
		require.NoError(t, err)

		assert.Equal(t, domain.TextbookStatusGenerating, textbook.Status)
		assert.Empty(t, h.generator.Calls())
		require.Len(t, emitter.events, 1)

		var payload events.TextbookGenerationPayload
		require.NoError(t, emitter.events[0].UnmarshalPayload(&payload))
		assert.Equal(t, textbook.ID, payload.TextbookID)
	})

	t.Run("emit failure closes the textbook", func(t *testing.T) {
		emitter := &recordingEmitter{err: errors.New("task queue is full")}
		h := newHarness(t, &mocks.MockGenerator{}, func(d *TextbookServiceDeps) { d.Emitter = emitter })

		_, err := h.service.StartTextbook(context.Background(), caregivingRequest(3))

		var partial *PartialFailureError
		require.ErrorAs(t, err, &partial)
		stored := h.db.Textbook(partial.TextbookID)
		assert.Equal(t, domain.TextbookStatusError, stored.Status)
		assert.Equal(t, 1, stored.GenerationParams.FailedAtUnit)
	})

	t.Run("without emitter", func(t *testing.T) {
		h := newHarness(t, &mocks.MockGenerator{})
		_, err := h.service.StartTextbook(context.Background(), caregivingRequest(3))
		assert.ErrorIs(t, err, ErrAsyncUnavailable)
	})

	t.Run("validation happens first", func(t *testing.T) {
		emitter := &recordingEmitter{}
		h := newHarness(t, &mocks.MockGenerator{}, func(d *TextbookServiceDeps) { d.Emitter = emitter })

		_, err := h.service.StartTextbook(context.Background(), caregivingRequest(0))
		var validationErr *ValidationError
		assert.ErrorAs(t, err, &validationErr)
		assert.Empty(t, emitter.events)
	})
}

func TestGenerate(t *testing.T) {
	t.Run("runs the loop for a created textbook", func(t *testing.T) {
		emitter := &recordingEmitter{}
		h := newHarness(t, &mocks.MockGenerator{}, func(d *TextbookServiceDeps) { d.Emitter = emitter })

		textbook, err := h.service.StartTextbook(context.Background(), caregivingRequest(2))
		require.NoError(t, err)

		require.NoError(t, h.service.Generate(context.Background(), textbook.ID))
		assert.Equal(t, domain.TextbookStatusCompleted, h.db.Textbook(textbook.ID).Status)
	})

	t.Run("unknown textbook", func(t *testing.T) {
		h := newHarness(t, &mocks.MockGenerator{})
		assert.ErrorIs(t, h.service.Generate(context.Background(), uuid.New()), ErrTextbookNotFound)
	})

	t.Run("terminal textbook is not regenerated", func(t *testing.T) {
		h := newHarness(t, &mocks.MockGenerator{})
		result, err := h.service.SubmitTextbook(context.Background(), caregivingRequest(1))
		require.NoError(t, err)

		err = h.service.Generate(context.Background(), result.Textbook.ID)
		assert.ErrorIs(t, err, ErrTextbookNotGenerating)
		assert.Len(t, h.generator.Calls(), 1)
	})
}

func TestGenerate_RecordsStart(t *testing.T) {
	t.Run("start is recorded before the first chapter", func(t *testing.T) {
		emitter := &recordingEmitter{}
		h := newHarness(t, &mocks.MockGenerator{}, func(d *TextbookServiceDeps) { d.Emitter = emitter })

		textbook, err := h.service.StartTextbook(context.Background(), caregivingRequest(1))
		require.NoError(t, err)

		var started []uuid.UUID
		h.textbooks.MarkStartedFn = func(_ context.Context, id uuid.UUID) error {
			started = append(started, id)
			assert.Empty(t, h.generator.Calls(), "start must be recorded before generating")
			return nil
		}

		require.NoError(t, h.service.Generate(context.Background(), textbook.ID))
		assert.Equal(t, []uuid.UUID{textbook.ID}, started)
	})

	t.Run("textbook closed while queued is not generated", func(t *testing.T) {
		emitter := &recordingEmitter{}
		h := newHarness(t, &mocks.MockGenerator{}, func(d *TextbookServiceDeps) { d.Emitter = emitter })

		textbook, err := h.service.StartTextbook(context.Background(), caregivingRequest(2))
		require.NoError(t, err)
		h.textbooks.MarkStartedFn = func(context.Context, uuid.UUID) error {
			return store.ErrTextbookNotGenerating
		}

		err = h.service.Generate(context.Background(), textbook.ID)
		assert.ErrorIs(t, err, ErrTextbookNotGenerating)
		assert.Empty(t, h.generator.Calls())
	})

	t.Run("a failed touch does not block generation", func(t *testing.T) {
		emitter := &recordingEmitter{}
		h := newHarness(t, &mocks.MockGenerator{}, func(d *TextbookServiceDeps) { d.Emitter = emitter })

		textbook, err := h.service.StartTextbook(context.Background(), caregivingRequest(1))
		require.NoError(t, err)
		h.textbooks.MarkStartedFn = func(context.Context, uuid.UUID) error {
			return errors.New("connection reset")
		}

		require.NoError(t, h.service.Generate(context.Background(), textbook.ID))
		assert.Equal(t, domain.TextbookStatusCompleted, h.db.Textbook(textbook.ID).Status)
	})
}

func TestSetPublished(t *testing.T) {
	h := newHarness(t, &mocks.MockGenerator{}, func(d *TextbookServiceDeps) { d.Emitter = &recordingEmitter{} })

	done, err := h.service.SubmitTextbook(context.Background(), caregivingRequest(1))
	require.NoError(t, err)
	require.NoError(t, h.service.SetPublished(context.Background(), done.Textbook.ID, false))
	assert.False(t, h.db.Textbook(done.Textbook.ID).Published)

	pending, err := h.service.StartTextbook(context.Background(), caregivingRequest(1))
	require.NoError(t, err)
	assert.ErrorIs(t, h.service.SetPublished(context.Background(), pending.ID, true), ErrTextbookStillGenerating)

	assert.ErrorIs(t, h.service.SetPublished(context.Background(), uuid.New(), true), ErrTextbookNotFound)
}

func TestNewTextbookService_RequiresDependencies(t *testing.T) {
	db := mocks.NewMemoryDB()
	full := TextbookServiceDeps{
		Textbooks: mocks.NewMockTextbookStore(db),
		Chapters:  mocks.NewMockChapterStore(db),
		Generator: &mocks.MockGenerator{},
	}

	tests := []struct {
		name   string
		mutate func(d *TextbookServiceDeps)
	}{
		{"textbooks", func(d *TextbookServiceDeps) { d.Textbooks = nil }},
		{"chapters", func(d *TextbookServiceDeps) { d.Chapters = nil }},
		{"generator", func(d *TextbookServiceDeps) { d.Generator = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := full
			tt.mutate(&deps)
			_, err := NewTextbookService(deps, TextbookServiceConfig{}, nil)
			var svcErr *TextbookServiceError
			assert.ErrorAs(t, err, &svcErr)
		})
	}

	svc, err := NewTextbookService(full, TextbookServiceConfig{}, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultUnitTimeout, svc.config.UnitTimeout)
	assert.Equal(t, DefaultFinalizeMaxDelay, svc.config.FinalizeMaxDelay)
}
