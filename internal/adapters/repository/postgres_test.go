package repository

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/kanso-progress/internal/core/domain"
)

func getEnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func setupTestDB(t *testing.T, driver string) *sqlx.DB {
	t.Helper()

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		getEnvOr("DB_USER", "kanso_user"),
		getEnvOr("DB_PASSWORD", "secret"),
		getEnvOr("DB_HOST", "localhost"),
		getEnvOr("DB_PORT", "5432"),
		getEnvOr("DB_NAME", "kanso_db"),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	db, err := OpenPostgres(ctx, driver, dsn)
	if err != nil {
		t.Skipf("Skipping integration tests: database connection failed: %v", err)
	}

	require.NoError(t, RunMigrations(db.DB), "Failed to migrate test database")
	_, err = db.Exec("TRUNCATE TABLE activity_events, tasks, goal_archive, goals, users CASCADE")
	require.NoError(t, err, "Failed to clean up database")

	t.Cleanup(func() { db.Close() })
	return db
}

func createUserFixture(t *testing.T, repo *PostgresUserRepository) *domain.User {
	t.Helper()
	user, err := domain.NewUser(uuid.NewString(), "Fixture", fmt.Sprintf("u_%s@kanso.app", uuid.NewString()))
	require.NoError(t, err)
	user.PasswordHash = "hash"
	require.NoError(t, repo.Create(context.Background(), user))
	return user
}

func TestOpenPostgres_RejectsUnknownDriver(t *testing.T) {
	_, err := OpenPostgres(context.Background(), "mysql", "dsn")
	assert.ErrorContains(t, err, "unsupported postgres driver")
}

func TestPostgresUserRepository_Integration(t *testing.T) {
	for _, driver := range []string{DriverPgx, DriverPq} {
		t.Run(driver, func(t *testing.T) {
			db := setupTestDB(t, driver)
			repo := NewPostgresUserRepository(db)
			ctx := context.Background()

			user := createUserFixture(t, repo)

			found, err := repo.GetByEmail(ctx, user.Email)
			require.NoError(t, err)
			assert.Equal(t, user.ID, found.ID)
			assert.Equal(t, "Fixture", found.Name)

			dup, _ := domain.NewUser(uuid.NewString(), "Other", user.Email)
			dup.PasswordHash = "hash"
			assert.ErrorIs(t, repo.Create(ctx, dup), domain.ErrEmailAlreadyExists)

			_, err = repo.GetByID(ctx, uuid.NewString())
			assert.ErrorIs(t, err, domain.ErrUserNotFound)

			require.NoError(t, repo.Delete(ctx, user.ID))
			assert.ErrorIs(t, repo.Delete(ctx, user.ID), domain.ErrUserNotFound)
		})
	}
}

func TestPostgresGoalRepository_Integration(t *testing.T) {
	db := setupTestDB(t, DriverPgx)
	users := NewPostgresUserRepository(db)
	goals := NewPostgresGoalRepository(db)
	activity := NewPostgresActivityRepository(db)
	ctx := context.Background()

	user := createUserFixture(t, users)

	goal, err := domain.NewGoal(user.ID, domain.GoalParams{Title: "Learn Go", Milestones: []string{"Tour", "Book"}})
	require.NoError(t, err)
	require.NoError(t, goals.Create(ctx, goal))

	t.Run("Round trips milestones", func(t *testing.T) {
		got, err := goals.GetByID(ctx, goal.ID)
		require.NoError(t, err)
		require.Len(t, got.Milestones, 2)
		assert.Equal(t, goal.Milestones[0].ID, got.Milestones[0].ID)
		assert.Empty(t, got.Logs)
	})

	t.Run("SaveProgress stores goal and events", func(t *testing.T) {
		got, err := goals.GetByID(ctx, goal.ID)
		require.NoError(t, err)

		events, err := got.ApplyProgress(domain.ProgressUpdate{
			Milestones: []domain.MilestoneInput{{ID: got.Milestones[0].ID, Title: "Tour", Completed: true}},
			LogText:    ptr("done with the tour"),
		}, time.Now())
		require.NoError(t, err)
		require.NoError(t, goals.SaveProgress(ctx, got, events))

		stored, err := goals.GetByID(ctx, goal.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, stored.Streak)
		assert.True(t, stored.Milestones[0].Completed)
		require.Len(t, stored.Logs, 1)

		logged, err := activity.ListByUserID(ctx, user.ID, time.Time{})
		require.NoError(t, err)
		assert.Len(t, logged, 2)
	})

	t.Run("SaveProgress on a missing goal writes no events", func(t *testing.T) {
		ghost, _ := domain.NewGoal(user.ID, domain.GoalParams{Title: "Ghost"})
		events, _ := ghost.ApplyProgress(domain.ProgressUpdate{LogText: ptr("boo")}, time.Now())

		err := goals.SaveProgress(ctx, ghost, events)
		assert.ErrorIs(t, err, domain.ErrGoalNotFound)

		logged, err := activity.ListByUserID(ctx, user.ID, time.Time{})
		require.NoError(t, err)
		assert.Len(t, logged, 2)
	})

	t.Run("Idle listing only sees active goals", func(t *testing.T) {
		idle, err := goals.ListActiveIdleSince(ctx, time.Now().Add(time.Hour))
		require.NoError(t, err)
		require.Len(t, idle, 1)
		assert.Equal(t, goal.ID, idle[0].ID)

		idle, err = goals.ListActiveIdleSince(ctx, time.Now().Add(-time.Hour))
		require.NoError(t, err)
		assert.Empty(t, idle)
	})

	t.Run("Archive replaces the goal", func(t *testing.T) {
		got, err := goals.GetByID(ctx, goal.ID)
		require.NoError(t, err)
		rec, err := got.Archive("keep it small", time.Now())
		require.NoError(t, err)

		require.NoError(t, goals.Archive(ctx, rec))
		assert.ErrorIs(t, goals.Archive(ctx, rec), domain.ErrGoalNotFound)

		_, err = goals.GetByID(ctx, goal.ID)
		assert.ErrorIs(t, err, domain.ErrGoalNotFound)

		archived, err := goals.ListArchived(ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, archived, 1)
		assert.Equal(t, "keep it small", archived[0].Learning)
	})
}

func TestPostgresTaskRepository_Integration(t *testing.T) {
	db := setupTestDB(t, DriverPq)
	users := NewPostgresUserRepository(db)
	tasks := NewPostgresTaskRepository(db)
	ctx := context.Background()

	user := createUserFixture(t, users)

	task, err := domain.NewTask(user.ID, "Buy milk", "", "home", "high", nil)
	require.NoError(t, err)
	require.NoError(t, tasks.Create(ctx, task))

	task.Complete(time.Now())
	require.NoError(t, tasks.Update(ctx, task))

	got, err := tasks.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusCompleted, got.Status)
	assert.NotNil(t, got.CompletedAt)

	list, err := tasks.ListByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, tasks.Delete(ctx, task.ID))
	_, err = tasks.GetByID(ctx, task.ID)
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}
