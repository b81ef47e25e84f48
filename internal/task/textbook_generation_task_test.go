package task

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTextbookGenerator struct {
	calls []uuid.UUID
	err   error
}

func (g *fakeTextbookGenerator) Generate(_ context.Context, textbookID uuid.UUID) error {
	g.calls = append(g.calls, textbookID)
	return g.err
}

func TestNewTextbookGenerationTask(t *testing.T) {
	generator := &fakeTextbookGenerator{}
	textbookID := uuid.New()

	task, err := NewTextbookGenerationTask(textbookID, generator, nil)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, task.ID())
	assert.Equal(t, TaskTypeTextbookGeneration, task.Type())
	assert.Equal(t, TaskStatusPending, task.Status())
	assert.Equal(t, textbookID, task.TextbookID())

	var payload textbookGenerationPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, textbookID, payload.TextbookID)

	_, err = NewTextbookGenerationTask(uuid.Nil, generator, nil)
	assert.ErrorIs(t, err, ErrEmptyTextbookID)

	_, err = NewTextbookGenerationTask(textbookID, nil, nil)
	assert.ErrorIs(t, err, ErrNilGenerator)
}

func TestTextbookGenerationTask_Execute(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		generator := &fakeTextbookGenerator{}
		textbookID := uuid.New()
		task, err := NewTextbookGenerationTask(textbookID, generator, setupTestLogger())
		require.NoError(t, err)

		require.NoError(t, task.Execute(context.Background()))
		assert.Equal(t, TaskStatusCompleted, task.Status())
		assert.Equal(t, []uuid.UUID{textbookID}, generator.calls)
	})

	t.Run("generator failure", func(t *testing.T) {
		cause := errors.New("chapter 2 generation failed")
		task, err := NewTextbookGenerationTask(uuid.New(), &fakeTextbookGenerator{err: cause}, setupTestLogger())
		require.NoError(t, err)

		err = task.Execute(context.Background())
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, TaskStatusFailed, task.Status())
	})

	t.Run("runs at most once", func(t *testing.T) {
		generator := &fakeTextbookGenerator{}
		task, err := NewTextbookGenerationTask(uuid.New(), generator, setupTestLogger())
		require.NoError(t, err)

		require.NoError(t, task.Execute(context.Background()))
		assert.ErrorIs(t, task.Execute(context.Background()), ErrUnknownTaskState)
		assert.Len(t, generator.calls, 1)
	})
}

func TestTextbookGenerationTaskFactory(t *testing.T) {
	generator := &fakeTextbookGenerator{}
	factory := NewTextbookGenerationTaskFactory(generator, setupTestLogger())

	textbookID := uuid.New()
	created, err := factory.CreateTask(textbookID)
	require.NoError(t, err)

	task, ok := created.(*TextbookGenerationTask)
	require.True(t, ok)
	assert.Equal(t, textbookID, task.TextbookID())

	_, err = factory.CreateTask(uuid.Nil)
	assert.ErrorIs(t, err, ErrEmptyTextbookID)
}
