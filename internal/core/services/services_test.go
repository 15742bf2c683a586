package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/kanso-progress/internal/adapters/repository"
	"github.com/comitanigiacomo/kanso-progress/internal/core/domain"
	"github.com/comitanigiacomo/kanso-progress/internal/core/services"
)

func ptr[T any](v T) *T {
	return &v
}

type stubPlanner struct {
	plan []string
	err  error
	got  []string
}

func (p *stubPlanner) SuggestMilestones(ctx context.Context, title, description string) ([]string, error) {
	p.got = []string{title, description}
	return p.plan, p.err
}

type fixture struct {
	store    *repository.MemoryStore
	goals    *services.GoalService
	tasks    *services.TaskService
	activity *services.ActivityService
	planner  *stubPlanner
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := repository.NewMemoryStore()
	planner := &stubPlanner{}

	return &fixture{
		store:    store,
		goals:    services.NewGoalService(store.Goals(), store.Tasks(), planner),
		tasks:    services.NewTaskService(store.Tasks()),
		activity: services.NewActivityService(store.Activity(), store.Goals(), store.Tasks()),
		planner:  planner,
	}
}

func (f *fixture) createGoal(t *testing.T, userID, title string, milestones ...string) *domain.Goal {
	t.Helper()
	g, err := f.goals.Create(context.Background(), services.CreateGoalInput{
		UserID:     userID,
		Title:      title,
		Milestones: milestones,
	})
	require.NoError(t, err)
	return g
}
