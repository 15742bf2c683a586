package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/comitanigiacomo/kanso-progress/internal/core/domain"
)

// StaleAfter is how long an active goal may go untouched before it is
// reported by the staleness sweep.
const StaleAfter = 24 * time.Hour

// MilestonePlanner proposes milestone titles for a goal.
type MilestonePlanner interface {
	SuggestMilestones(ctx context.Context, title, description string) ([]string, error)
}

type GoalService struct {
	repo    domain.GoalRepository
	tasks   domain.TaskRepository
	planner MilestonePlanner
	now     func() time.Time
}

func NewGoalService(repo domain.GoalRepository, tasks domain.TaskRepository, planner MilestonePlanner) *GoalService {
	return &GoalService{
		repo:    repo,
		tasks:   tasks,
		planner: planner,
		now:     time.Now,
	}
}

type CreateGoalInput struct {
	UserID          string
	Title           string
	Description     string
	Category        string
	StartDate       *time.Time
	TargetDate      *time.Time
	ReminderEnabled bool
	Milestones      []string
}

type UpdateProgressInput struct {
	GoalID     string
	UserID     string
	Progress   *int
	Milestones []domain.MilestoneInput
	LogText    *string
}

type ArchiveGoalInput struct {
	GoalID   string
	UserID   string
	Learning string
}

func (s *GoalService) Create(ctx context.Context, input CreateGoalInput) (*domain.Goal, error) {
	goal, err := domain.NewGoal(input.UserID, domain.GoalParams{
		Title:           input.Title,
		Description:     input.Description,
		Category:        input.Category,
		StartDate:       input.StartDate,
		TargetDate:      input.TargetDate,
		ReminderEnabled: input.ReminderEnabled,
		Milestones:      input.Milestones,
	})
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, goal); err != nil {
		return nil, err
	}

	return goal, nil
}

func (s *GoalService) ListByUserID(ctx context.Context, userID string) ([]*domain.Goal, error) {
	return s.repo.ListByUserID(ctx, userID)
}

func (s *GoalService) Get(ctx context.Context, id, userID string) (*domain.Goal, error) {
	return s.owned(ctx, id, userID)
}

func (s *GoalService) owned(ctx context.Context, id, userID string) (*domain.Goal, error) {
	goal, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if goal.UserID != userID {
		return nil, domain.ErrUnauthorized
	}
	return goal, nil
}

// UpdateProgress applies one progress interaction and persists the goal
// together with the activity it generated.
func (s *GoalService) UpdateProgress(ctx context.Context, input UpdateProgressInput) (*domain.Goal, error) {
	goal, err := s.owned(ctx, input.GoalID, input.UserID)
	if err != nil {
		return nil, err
	}

	events, err := goal.ApplyProgress(domain.ProgressUpdate{
		Progress:   input.Progress,
		Milestones: input.Milestones,
		LogText:    input.LogText,
	}, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.repo.SaveProgress(ctx, goal, events); err != nil {
		return nil, err
	}

	return goal, nil
}

// Archive closes a goal with a learning note. The active goal is removed and
// replaced by its archive record.
func (s *GoalService) Archive(ctx context.Context, input ArchiveGoalInput) (*domain.ArchiveRecord, error) {
	goal, err := s.owned(ctx, input.GoalID, input.UserID)
	if err != nil {
		return nil, err
	}

	record, err := goal.Archive(input.Learning, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.repo.Archive(ctx, record); err != nil {
		return nil, err
	}

	return record, nil
}

func (s *GoalService) Delete(ctx context.Context, id, userID string) error {
	if _, err := s.owned(ctx, id, userID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *GoalService) ListArchived(ctx context.Context, userID string) ([]*domain.ArchiveRecord, error) {
	return s.repo.ListArchived(ctx, userID)
}

var exportHeader = []string{"title", "type", "status", "progress", "createdAt"}

// Export writes every goal and task of the user as CSV. It fails with
// domain.ErrNoRecords before writing anything when there is nothing to export.
func (s *GoalService) Export(ctx context.Context, userID string, w io.Writer) error {
	goals, err := s.repo.ListByUserID(ctx, userID)
	if err != nil {
		return err
	}
	tasks, err := s.tasks.ListByUserID(ctx, userID)
	if err != nil {
		return err
	}

	if len(goals) == 0 && len(tasks) == 0 {
		return domain.ErrNoRecords
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return fmt.Errorf("goal service: export: %w", err)
	}

	for _, g := range goals {
		row := []string{g.Title, domain.GoalTypeModern, g.Status, strconv.Itoa(g.Progress), g.CreatedAt.UTC().Format(time.RFC3339)}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("goal service: export: %w", err)
		}
	}
	for _, t := range tasks {
		row := []string{t.Title, domain.TaskTypeTraditional, t.Status, "0", t.CreatedAt.UTC().Format(time.RFC3339)}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("goal service: export: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ListStaleGoals returns the active goals of every user that have not been
// touched within StaleAfter of now. Goal state is only read.
func (s *GoalService) ListStaleGoals(ctx context.Context, now time.Time) ([]*domain.Goal, error) {
	cutoff := now.Add(-StaleAfter)

	candidates, err := s.repo.ListActiveIdleSince(ctx, cutoff)
	if err != nil {
		return nil, err
	}

	stale := make([]*domain.Goal, 0, len(candidates))
	for _, g := range candidates {
		if g.IsActive() && g.IdleSince(cutoff) {
			stale = append(stale, g)
		}
	}
	return stale, nil
}

// SuggestMilestones asks the planner for a milestone breakdown of a goal
// that has not been created yet.
func (s *GoalService) SuggestMilestones(ctx context.Context, title, description string) ([]string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, domain.ErrGoalTitleEmpty
	}
	if utf8.RuneCountInString(title) > domain.MaxTitleLen {
		return nil, domain.ErrGoalTitleTooLong
	}

	plan, err := s.planner.SuggestMilestones(ctx, title, strings.TrimSpace(description))
	if err != nil {
		return nil, fmt.Errorf("goal service: suggest milestones: %w", err)
	}
	return plan, nil
}
