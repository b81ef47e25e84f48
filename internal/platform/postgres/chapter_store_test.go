package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/kotoba-learn/kotoba-api/internal/domain"
	"github.com/kotoba-learn/kotoba-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var summaryColumnNames = []string{
	"id", "chapter_number", "title", "has_exercises", "has_cultural_notes",
	"estimated_duration_minutes", "generated_at",
}

func newTestChapter(t *testing.T, textbookID uuid.UUID, number int) *domain.Chapter {
	t.Helper()
	chapter, err := domain.NewChapter(textbookID, number, domain.ChapterContent{
		Title:                    "At the care facility",
		Vocabulary:               []domain.VocabularyItem{{Term: "介護"}},
		Exercises:                []domain.Exercise{{Prompt: "Translate"}},
		EstimatedDurationMinutes: 45,
	})
	require.NoError(t, err)
	return chapter
}

func TestPostgresChapterStore_Create(t *testing.T) {
	textbookID := uuid.New()

	t.Run("inserts chapter", func(t *testing.T) {
		db, mock := newMockDB(t)
		s := NewPostgresChapterStore(db, nil)
		chapter := newTestChapter(t, textbookID, 1)

		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO chapters")).
			WithArgs(chapter.ID, textbookID, 1, "At the care facility", sqlmock.AnyArg(),
				true, false, 45, sqlmock.AnyArg(), domain.TextbookStatusGenerating).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, s.Create(context.Background(), chapter))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate chapter number", func(t *testing.T) {
		db, mock := newMockDB(t)
		s := NewPostgresChapterStore(db, nil)

		mock.ExpectExec("INSERT INTO chapters").
			WillReturnError(&pgconn.PgError{Code: codeUnique, ConstraintName: "chapters_textbook_number_key"})

		err := s.Create(context.Background(), newTestChapter(t, textbookID, 2))
		assert.ErrorIs(t, err, store.ErrDuplicateChapter)
		assert.True(t, store.IsDuplicateError(err))
	})

	t.Run("unknown textbook", func(t *testing.T) {
		db, mock := newMockDB(t)
		s := NewPostgresChapterStore(db, nil)

		mock.ExpectExec("INSERT INTO chapters").
			WillReturnError(&pgconn.PgError{Code: codeForeignKey})

		err := s.Create(context.Background(), newTestChapter(t, textbookID, 1))
		assert.ErrorIs(t, err, store.ErrTextbookNotFound)
	})

	t.Run("textbook closed before the insert", func(t *testing.T) {
		db, mock := newMockDB(t)
		s := NewPostgresChapterStore(db, nil)

		mock.ExpectExec(regexp.QuoteMeta("WHERE EXISTS (SELECT 1 FROM textbooks WHERE id = $2 AND status = $10)")).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
			WithArgs(textbookID).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		err := s.Create(context.Background(), newTestChapter(t, textbookID, 3))
		assert.ErrorIs(t, err, store.ErrTextbookNotGenerating)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("textbook missing when nothing is inserted", func(t *testing.T) {
		db, mock := newMockDB(t)
		s := NewPostgresChapterStore(db, nil)

		mock.ExpectExec("INSERT INTO chapters").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
			WithArgs(textbookID).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

		err := s.Create(context.Background(), newTestChapter(t, textbookID, 1))
		assert.ErrorIs(t, err, store.ErrTextbookNotFound)
	})

	t.Run("invalid chapter", func(t *testing.T) {
		db, _ := newMockDB(t)
		s := NewPostgresChapterStore(db, nil)
		chapter := newTestChapter(t, textbookID, 1)
		chapter.ChapterNumber = 0

		err := s.Create(context.Background(), chapter)
		assert.ErrorIs(t, err, store.ErrInvalidEntity)
		assert.ErrorIs(t, err, domain.ErrInvalidChapterNumber)
	})
}

func TestPostgresChapterStore_Get(t *testing.T) {
	textbookID := uuid.New()

	t.Run("decodes content", func(t *testing.T) {
		db, mock := newMockDB(t)
		s := NewPostgresChapterStore(db, nil)
		chapter := newTestChapter(t, textbookID, 2)
		content, err := json.Marshal(chapter.Content)
		require.NoError(t, err)

		mock.ExpectQuery(regexp.QuoteMeta("WHERE textbook_id = $1 AND chapter_number = $2")).
			WithArgs(textbookID, 2).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "textbook_id", "chapter_number", "title", "content",
				"has_exercises", "has_cultural_notes", "estimated_duration_minutes", "generated_at",
			}).AddRow(chapter.ID.String(), textbookID.String(), 2, chapter.Title, content,
				true, false, 45, chapter.GeneratedAt))

		got, err := s.Get(context.Background(), textbookID, 2)
		require.NoError(t, err)
		assert.Equal(t, chapter.ID, got.ID)
		assert.Equal(t, "介護", got.Content.Vocabulary[0].Term)
		assert.Equal(t, 45, got.Content.EstimatedDurationMinutes)
	})

	t.Run("not found", func(t *testing.T) {
		db, mock := newMockDB(t)
		s := NewPostgresChapterStore(db, nil)

		mock.ExpectQuery("FROM chapters").WillReturnError(sql.ErrNoRows)

		_, err := s.Get(context.Background(), textbookID, 9)
		assert.ErrorIs(t, err, store.ErrChapterNotFound)
	})
}

func TestPostgresChapterStore_ListSummaries(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewPostgresChapterStore(db, nil)
	textbookID := uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY chapter_number")).
		WithArgs(textbookID).
		WillReturnRows(sqlmock.NewRows(summaryColumnNames).
			AddRow(uuid.NewString(), 1, "One", true, false, 60, now).
			AddRow(uuid.NewString(), 2, "Two", false, true, 30, now))

	got, err := s.ListSummaries(context.Background(), textbookID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].ChapterNumber)
	assert.Equal(t, "Two", got[1].Title)
	assert.True(t, got[1].HasCulturalNotes)
}

func TestPostgresChapterStore_ListSummariesEmpty(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewPostgresChapterStore(db, nil)

	mock.ExpectQuery("FROM chapters").WillReturnRows(sqlmock.NewRows(summaryColumnNames))

	got, err := s.ListSummaries(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestPostgresChapterStore_Count(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewPostgresChapterStore(db, nil)
	textbookID := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM chapters")).
		WithArgs(textbookID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	n, err := s.Count(context.Background(), textbookID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
