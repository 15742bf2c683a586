package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/kanso-progress/internal/core/domain"
	"github.com/comitanigiacomo/kanso-progress/internal/core/services"
)

func TestTaskService_Lifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	task, err := f.tasks.Create(ctx, services.CreateTaskInput{UserID: "u1", Title: "Buy milk", Priority: "high"})
	require.NoError(t, err)
	assert.Equal(t, domain.PriorityHigh, task.Priority)

	done, err := f.tasks.Complete(ctx, task.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusCompleted, done.Status)
	assert.NotNil(t, done.CompletedAt)

	reopened, err := f.tasks.Reopen(ctx, task.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusPending, reopened.Status)
	assert.Nil(t, reopened.CompletedAt)

	list, err := f.tasks.ListByUserID(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, domain.TaskStatusPending, list[0].Status)

	require.NoError(t, f.tasks.Delete(ctx, task.ID, "u1"))
	list, err = f.tasks.ListByUserID(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestTaskService_Errors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.tasks.Create(ctx, services.CreateTaskInput{UserID: "u1", Title: ""})
	assert.ErrorIs(t, err, domain.ErrTaskTitleEmpty)

	task, err := f.tasks.Create(ctx, services.CreateTaskInput{UserID: "u1", Title: "Mine"})
	require.NoError(t, err)

	_, err = f.tasks.Complete(ctx, task.ID, "u2")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	err = f.tasks.Delete(ctx, task.ID, "u2")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.tasks.Reopen(ctx, "missing", "u1")
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}
