package domain_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/kanso-progress/internal/core/domain"
)

func TestNewTask(t *testing.T) {
	t.Run("Success: defaults to medium priority and pending", func(t *testing.T) {
		task, err := domain.NewTask("u1", " Buy milk ", "", "home", "", nil)

		require.NoError(t, err)
		assert.Equal(t, "Buy milk", task.Title)
		assert.Equal(t, domain.PriorityMedium, task.Priority)
		assert.Equal(t, domain.TaskStatusPending, task.Status)
		assert.Equal(t, "home", task.Category)
	})

	t.Run("Priority is normalized", func(t *testing.T) {
		task, err := domain.NewTask("u1", "x", "", "", " HIGH ", nil)
		require.NoError(t, err)
		assert.Equal(t, domain.PriorityHigh, task.Priority)
	})

	t.Run("Error: invalid input", func(t *testing.T) {
		_, err := domain.NewTask("u1", "", "", "", "", nil)
		assert.ErrorIs(t, err, domain.ErrTaskTitleEmpty)

		_, err = domain.NewTask("u1", "x", "", "", "urgent", nil)
		assert.ErrorIs(t, err, domain.ErrInvalidPriority)

		_, err = domain.NewTask("", "x", "", "", "", nil)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("Length limits count characters", func(t *testing.T) {
		_, err := domain.NewTask("u1", strings.Repeat("ñ", domain.MaxTitleLen), strings.Repeat("ñ", domain.MaxDescLen), "", "", nil)
		require.NoError(t, err)

		_, err = domain.NewTask("u1", strings.Repeat("ñ", domain.MaxTitleLen+1), "", "", "", nil)
		assert.ErrorIs(t, err, domain.ErrTaskTitleTooLong)

		_, err = domain.NewTask("u1", "x", strings.Repeat("ñ", domain.MaxDescLen+1), "", "", nil)
		assert.ErrorIs(t, err, domain.ErrTaskDescTooLong)
	})
}

func TestTask_CompleteAndReopen(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	task, err := domain.NewTask("u1", "x", "", "", "low", nil)
	require.NoError(t, err)

	task.Complete(now)
	assert.Equal(t, domain.TaskStatusCompleted, task.Status)
	require.NotNil(t, task.CompletedAt)
	assert.Equal(t, now, *task.CompletedAt)

	task.Complete(now.Add(time.Hour))
	assert.Equal(t, now, *task.CompletedAt, "completing twice keeps the first stamp")

	task.Reopen(now.Add(2 * time.Hour))
	assert.Equal(t, domain.TaskStatusPending, task.Status)
	assert.Nil(t, task.CompletedAt)
}
