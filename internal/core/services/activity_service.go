package services

import (
	"context"
	"time"

	"github.com/comitanigiacomo/kanso-progress/internal/core/domain"
)

type ActivityService struct {
	activity domain.ActivityRepository
	goals    domain.GoalRepository
	tasks    domain.TaskRepository
	now      func() time.Time
}

func NewActivityService(activity domain.ActivityRepository, goals domain.GoalRepository, tasks domain.TaskRepository) *ActivityService {
	return &ActivityService{
		activity: activity,
		goals:    goals,
		tasks:    tasks,
		now:      time.Now,
	}
}

// RecordActivity stores a user commit stamped with the current instant.
func (s *ActivityService) RecordActivity(ctx context.Context, userID, message string) (*domain.ActivityEvent, error) {
	event, err := domain.NewCommitEvent(userID, message, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.activity.Append(ctx, event); err != nil {
		return nil, err
	}

	return event, nil
}

// GetActivitySummary builds the yearly heatmap and streaks for the calendar
// day containing today in loc.
func (s *ActivityService) GetActivitySummary(ctx context.Context, userID string, today time.Time, loc *time.Location) (*domain.ActivitySummary, error) {
	if userID == "" {
		return nil, domain.ErrInvalidUserID
	}
	if loc == nil {
		loc = time.UTC
	}

	events, err := s.activity.ListByUserID(ctx, userID, windowStart(today, loc, domain.CalendarDays))
	if err != nil {
		return nil, err
	}

	cal := domain.BuildCalendar(events, today, loc)

	return &domain.ActivitySummary{
		Today:         domain.DateKey(today, loc),
		Heatmap:       cal,
		Streak:        domain.CurrentStreak(cal),
		LongestStreak: domain.LongestStreak(cal),
		TotalCount:    cal.Total(),
	}, nil
}

// GetConsistencyStats reports the 30 day consistency score, completion
// counts across goals, archive and tasks, and the last week of activity.
func (s *ActivityService) GetConsistencyStats(ctx context.Context, userID string, today time.Time, loc *time.Location) (*domain.ConsistencyStats, error) {
	if userID == "" {
		return nil, domain.ErrInvalidUserID
	}
	if loc == nil {
		loc = time.UTC
	}

	events, err := s.activity.ListByUserID(ctx, userID, windowStart(today, loc, domain.ConsistencyDays))
	if err != nil {
		return nil, err
	}

	goals, err := s.goals.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	archived, err := s.goals.ListArchived(ctx, userID)
	if err != nil {
		return nil, err
	}
	tasks, err := s.tasks.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	completed := len(archived)
	pending := 0
	for _, g := range goals {
		if g.Status == domain.GoalStatusCompleted {
			completed++
		} else {
			pending++
		}
	}
	for _, t := range tasks {
		if t.Status == domain.TaskStatusCompleted {
			completed++
		} else {
			pending++
		}
	}

	cal := domain.BuildCalendar(events, today, loc)

	return &domain.ConsistencyStats{
		Consistency:    domain.ConsistencyScore(cal),
		CompletedCount: completed,
		PendingCount:   pending,
		Trend:          domain.Trend(cal),
	}, nil
}

// windowStart is the first instant of the oldest day in a window of the
// given length ending on today's local date.
func windowStart(today time.Time, loc *time.Location, days int) time.Time {
	y, m, d := today.In(loc).Date()
	return time.Date(y, m, d-(days-1), 0, 0, 0, 0, loc)
}
