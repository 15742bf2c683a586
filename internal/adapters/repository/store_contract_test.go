package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/kanso-progress/internal/core/domain"
)

func ptr[T any](v T) *T {
	return &v
}

type storeUnderTest struct {
	goals    domain.GoalRepository
	tasks    domain.TaskRepository
	activity domain.ActivityRepository
	users    domain.UserRepository
}

// runStoreContract checks the behaviour every store backend shares.
func runStoreContract(t *testing.T, newStore func(t *testing.T) storeUnderTest) {
	ctx := context.Background()

	t.Run("Users", func(t *testing.T) {
		s := newStore(t)

		user, err := domain.NewUser(uuid.NewString(), "Ada", "Ada@Kanso.app")
		require.NoError(t, err)
		require.NoError(t, user.SetPassword("password123"))
		require.NoError(t, s.users.Create(ctx, user))

		dup, _ := domain.NewUser(uuid.NewString(), "Other", "ada@kanso.app")
		assert.ErrorIs(t, s.users.Create(ctx, dup), domain.ErrEmailAlreadyExists)

		got, err := s.users.GetByEmail(ctx, "ADA@kanso.app")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
		assert.NoError(t, got.CheckPassword("password123"))

		got, err = s.users.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "Ada", got.Name)

		require.NoError(t, s.users.Delete(ctx, user.ID))
		_, err = s.users.GetByID(ctx, user.ID)
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
		assert.ErrorIs(t, s.users.Delete(ctx, user.ID), domain.ErrUserNotFound)
	})

	t.Run("Deleting a user removes what it owns", func(t *testing.T) {
		s := newStore(t)

		user, err := domain.NewUser(uuid.NewString(), "Ada", "ada@kanso.app")
		require.NoError(t, err)
		require.NoError(t, s.users.Create(ctx, user))

		goal, err := domain.NewGoal(user.ID, domain.GoalParams{Title: "Learn Go"})
		require.NoError(t, err)
		require.NoError(t, s.goals.Create(ctx, goal))

		task, err := domain.NewTask(user.ID, "Pay rent", "", "", "high", nil)
		require.NoError(t, err)
		require.NoError(t, s.tasks.Create(ctx, task))

		event, err := domain.NewCommitEvent(user.ID, "shipped", time.Now())
		require.NoError(t, err)
		require.NoError(t, s.activity.Append(ctx, event))

		require.NoError(t, s.users.Delete(ctx, user.ID))

		goals, err := s.goals.ListByUserID(ctx, user.ID)
		require.NoError(t, err)
		assert.Empty(t, goals)

		tasks, err := s.tasks.ListByUserID(ctx, user.ID)
		require.NoError(t, err)
		assert.Empty(t, tasks)

		events, err := s.activity.ListByUserID(ctx, user.ID, time.Now().Add(-time.Hour))
		require.NoError(t, err)
		assert.Empty(t, events)
	})

	t.Run("Goals", func(t *testing.T) {
		s := newStore(t)
		userID := uuid.NewString()

		older, err := domain.NewGoal(userID, domain.GoalParams{Title: "Run 10k", Milestones: []string{"5k", "8k"}})
		require.NoError(t, err)
		older.CreatedAt = older.CreatedAt.Add(-time.Hour)
		require.NoError(t, s.goals.Create(ctx, older))

		newer, err := domain.NewGoal(userID, domain.GoalParams{Title: "Read a book"})
		require.NoError(t, err)
		require.NoError(t, s.goals.Create(ctx, newer))

		foreign, _ := domain.NewGoal(uuid.NewString(), domain.GoalParams{Title: "Someone else"})
		require.NoError(t, s.goals.Create(ctx, foreign))

		list, err := s.goals.ListByUserID(ctx, userID)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, newer.ID, list[0].ID, "newest first")

		got, err := s.goals.GetByID(ctx, older.ID)
		require.NoError(t, err)
		require.Len(t, got.Milestones, 2)
		assert.Equal(t, older.Milestones[1].ID, got.Milestones[1].ID)

		events, err := got.ApplyProgress(domain.ProgressUpdate{
			Milestones: []domain.MilestoneInput{
				{ID: got.Milestones[0].ID, Title: "5k", Completed: true},
				{ID: got.Milestones[1].ID, Title: "8k"},
			},
			LogText: ptr("first long run"),
		}, time.Now())
		require.NoError(t, err)
		require.NotEmpty(t, events)
		require.NoError(t, s.goals.SaveProgress(ctx, got, events))

		stored, err := s.goals.GetByID(ctx, older.ID)
		require.NoError(t, err)
		assert.True(t, stored.Milestones[0].Completed)
		require.Len(t, stored.Logs, 1)
		assert.Equal(t, "first long run", stored.Logs[0].Text)

		logged, err := s.activity.ListByUserID(ctx, userID, time.Time{})
		require.NoError(t, err)
		assert.Len(t, logged, len(events))

		ghost, _ := domain.NewGoal(userID, domain.GoalParams{Title: "Ghost"})
		ghostEvents, _ := ghost.ApplyProgress(domain.ProgressUpdate{LogText: ptr("boo")}, time.Now())
		assert.ErrorIs(t, s.goals.SaveProgress(ctx, ghost, ghostEvents), domain.ErrGoalNotFound)

		logged, err = s.activity.ListByUserID(ctx, userID, time.Time{})
		require.NoError(t, err)
		assert.Len(t, logged, len(events), "failed save must not leave events behind")

		idle, err := s.goals.ListActiveIdleSince(ctx, time.Now().Add(time.Minute))
		require.NoError(t, err)
		assert.Len(t, idle, 3)
		idle, err = s.goals.ListActiveIdleSince(ctx, time.Now().Add(-time.Minute))
		require.NoError(t, err)
		assert.Empty(t, idle)

		rec, err := stored.Archive("consistency beats intensity", time.Now())
		require.NoError(t, err)
		require.NoError(t, s.goals.Archive(ctx, rec))
		assert.ErrorIs(t, s.goals.Archive(ctx, rec), domain.ErrGoalNotFound)

		_, err = s.goals.GetByID(ctx, older.ID)
		assert.ErrorIs(t, err, domain.ErrGoalNotFound)

		archived, err := s.goals.ListArchived(ctx, userID)
		require.NoError(t, err)
		require.Len(t, archived, 1)
		assert.Equal(t, older.ID, archived[0].GoalID)
		assert.Equal(t, "consistency beats intensity", archived[0].Learning)

		require.NoError(t, s.goals.Delete(ctx, newer.ID))
		assert.ErrorIs(t, s.goals.Delete(ctx, newer.ID), domain.ErrGoalNotFound)

		list, err = s.goals.ListByUserID(ctx, userID)
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("Tasks", func(t *testing.T) {
		s := newStore(t)
		userID := uuid.NewString()

		task, err := domain.NewTask(userID, "Buy shoes", "", "health", "high", nil)
		require.NoError(t, err)
		require.NoError(t, s.tasks.Create(ctx, task))

		task.Complete(time.Now())
		require.NoError(t, s.tasks.Update(ctx, task))

		got, err := s.tasks.GetByID(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.TaskStatusCompleted, got.Status)
		require.NotNil(t, got.CompletedAt)

		list, err := s.tasks.ListByUserID(ctx, userID)
		require.NoError(t, err)
		assert.Len(t, list, 1)

		ghost, _ := domain.NewTask(userID, "Ghost", "", "", "low", nil)
		assert.ErrorIs(t, s.tasks.Update(ctx, ghost), domain.ErrTaskNotFound)

		require.NoError(t, s.tasks.Delete(ctx, task.ID))
		_, err = s.tasks.GetByID(ctx, task.ID)
		assert.ErrorIs(t, err, domain.ErrTaskNotFound)
	})

	t.Run("Activity is ordered and filtered by since", func(t *testing.T) {
		s := newStore(t)
		userID := uuid.NewString()
		base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

		for _, offset := range []time.Duration{48 * time.Hour, 0, 24 * time.Hour} {
			e, err := domain.NewCommitEvent(userID, "work", base.Add(offset))
			require.NoError(t, err)
			require.NoError(t, s.activity.Append(ctx, e))
		}
		other, _ := domain.NewCommitEvent(uuid.NewString(), "not mine", base)
		require.NoError(t, s.activity.Append(ctx, other))

		all, err := s.activity.ListByUserID(ctx, userID, time.Time{})
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.True(t, all[0].OccurredAt.Equal(base))
		assert.True(t, all[2].OccurredAt.Equal(base.Add(48*time.Hour)))

		recent, err := s.activity.ListByUserID(ctx, userID, base.Add(time.Hour))
		require.NoError(t, err)
		assert.Len(t, recent, 2)
	})
}
