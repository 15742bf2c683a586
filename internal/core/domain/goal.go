package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	GoalStatusPending    = "pending"
	GoalStatusInProgress = "in-progress"
	GoalStatusCompleted  = "completed"
	GoalStatusPaused     = "paused"

	GoalTypeModern = "modern"

	MaxProgress = 100
)

var (
	ErrGoalNotFound          = fmt.Errorf("goal %w", ErrNotFound)
	ErrGoalTitleEmpty        = fmt.Errorf("goal title cannot be empty: %w", ErrValidation)
	ErrGoalTitleTooLong      = fmt.Errorf("goal title is too long (max 100 chars): %w", ErrValidation)
	ErrGoalDescTooLong       = fmt.Errorf("goal description is too long (max 500 chars): %w", ErrValidation)
	ErrProgressOutOfRange    = fmt.Errorf("progress must be between 0 and 100: %w", ErrValidation)
	ErrMilestoneTitleEmpty   = fmt.Errorf("milestone title cannot be empty: %w", ErrValidation)
	ErrLearningEmpty         = fmt.Errorf("learning text is required to archive a goal: %w", ErrValidation)
	ErrInvalidGoalDateWindow = fmt.Errorf("target date cannot be before start date: %w", ErrValidation)
)

// Goal is a long-horizon objective tracked through milestones and progress.
// Progress == 100 holds exactly when Status is completed.
type Goal struct {
	ID              string      `json:"id"`
	UserID          string      `json:"user_id"`
	Title           string      `json:"title"`
	Description     string      `json:"description,omitempty"`
	Category        string      `json:"category,omitempty"`
	StartDate       *time.Time  `json:"start_date,omitempty"`
	TargetDate      *time.Time  `json:"target_date,omitempty"`
	ReminderEnabled bool        `json:"reminder_enabled"`
	Progress        int         `json:"progress"`
	Status          string      `json:"status"`
	Milestones      []Milestone `json:"milestones"`
	Logs            []GoalLog   `json:"logs"`
	Streak          int         `json:"streak"`
	CompletedAt     *time.Time  `json:"completed_at,omitempty"`
	LastUpdated     *time.Time  `json:"last_updated,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

type Milestone struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

type GoalLog struct {
	Date time.Time `json:"date"`
	Text string    `json:"text"`
}

// MilestoneInput is the client view of a milestone in a progress update.
// ID is optional; items without one are matched by title.
type MilestoneInput struct {
	ID        string
	Title     string
	Completed bool
}

// ProgressUpdate carries the independent, optional parts of a progress update.
// A nil Milestones slice means the milestone list is left untouched.
type ProgressUpdate struct {
	Progress   *int
	Milestones []MilestoneInput
	LogText    *string
}

type GoalParams struct {
	Title           string
	Description     string
	Category        string
	StartDate       *time.Time
	TargetDate      *time.Time
	ReminderEnabled bool
	Milestones      []string
}

func NewGoal(userID string, p GoalParams) (*Goal, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrInvalidUserID
	}

	title := strings.TrimSpace(p.Title)
	desc := strings.TrimSpace(p.Description)
	if err := validateGoalText(title, desc); err != nil {
		return nil, err
	}
	if p.StartDate != nil && p.TargetDate != nil && p.TargetDate.Before(*p.StartDate) {
		return nil, ErrInvalidGoalDateWindow
	}

	milestones := make([]Milestone, 0, len(p.Milestones))
	for _, t := range p.Milestones {
		t = strings.TrimSpace(t)
		if t == "" {
			return nil, ErrMilestoneTitleEmpty
		}
		milestones = append(milestones, Milestone{ID: uuid.NewString(), Title: t})
	}

	now := time.Now().UTC()
	start := p.StartDate
	if start == nil {
		start = &now
	}

	return &Goal{
		ID:              uuid.NewString(),
		UserID:          userID,
		Title:           title,
		Description:     desc,
		Category:        strings.TrimSpace(p.Category),
		StartDate:       start,
		TargetDate:      p.TargetDate,
		ReminderEnabled: p.ReminderEnabled,
		Status:          GoalStatusPending,
		Milestones:      milestones,
		Logs:            []GoalLog{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

func validateGoalText(title, desc string) error {
	if title == "" {
		return ErrGoalTitleEmpty
	}
	if utf8.RuneCountInString(title) > MaxTitleLen {
		return ErrGoalTitleTooLong
	}
	if utf8.RuneCountInString(desc) > MaxDescLen {
		return ErrGoalDescTooLong
	}
	return nil
}

// ApplyProgress runs one progress interaction against the goal and returns
// the activity events it produced. Inputs are validated before anything is
// touched, so a rejected update leaves the goal unchanged.
func (g *Goal) ApplyProgress(u ProgressUpdate, now time.Time) ([]*ActivityEvent, error) {
	now = now.UTC()

	if u.Progress != nil && (*u.Progress < 0 || *u.Progress > MaxProgress) {
		return nil, ErrProgressOutOfRange
	}
	for _, m := range u.Milestones {
		if strings.TrimSpace(m.Title) == "" {
			return nil, ErrMilestoneTitleEmpty
		}
	}

	var logText string
	if u.LogText != nil {
		logText = SanitizeText(*u.LogText)
		if utf8.RuneCountInString(logText) > MaxMessageLen {
			return nil, ErrMessageTooLong
		}
	}

	var events []*ActivityEvent

	if u.Progress != nil {
		if g.setProgress(*u.Progress, now) {
			events = append(events, newEvent(g.UserID, EventGoalCompleted, g.ID, "", now))
		}
	}

	if u.Milestones != nil {
		for _, m := range g.mergeMilestones(u.Milestones, now) {
			events = append(events, newEvent(g.UserID, EventMilestoneCompleted, g.ID, m.Title, now))
		}
	}

	if logText != "" {
		g.Logs = append(g.Logs, GoalLog{Date: now, Text: logText})
		events = append(events, newEvent(g.UserID, EventGoalLog, g.ID, logText, now))
	}

	g.Streak++
	g.LastUpdated = &now
	g.UpdatedAt = now

	return events, nil
}

// setProgress applies the status rules and reports whether the goal just
// became completed.
func (g *Goal) setProgress(progress int, now time.Time) bool {
	prior := g.Status
	g.Progress = progress

	if progress == MaxProgress {
		if prior == GoalStatusCompleted && g.CompletedAt != nil {
			return false
		}
		g.Status = GoalStatusCompleted
		g.CompletedAt = &now
		return prior != GoalStatusCompleted
	}

	switch prior {
	case GoalStatusPending:
		g.Status = GoalStatusInProgress
	case GoalStatusCompleted:
		g.Status = GoalStatusInProgress
		g.CompletedAt = nil
	}
	return false
}

// mergeMilestones replaces the milestone list, carrying completion stamps
// over from matching existing milestones. It returns the milestones that
// transitioned to completed.
func (g *Goal) mergeMilestones(incoming []MilestoneInput, now time.Time) []Milestone {
	matched := make([]bool, len(g.Milestones))

	find := func(in MilestoneInput) *Milestone {
		if in.ID != "" {
			for i := range g.Milestones {
				if !matched[i] && g.Milestones[i].ID == in.ID {
					matched[i] = true
					return &g.Milestones[i]
				}
			}
		}
		title := strings.TrimSpace(in.Title)
		for i := range g.Milestones {
			if !matched[i] && g.Milestones[i].Title == title {
				matched[i] = true
				return &g.Milestones[i]
			}
		}
		return nil
	}

	merged := make([]Milestone, 0, len(incoming))
	var completed []Milestone

	for _, in := range incoming {
		m := Milestone{
			Title:     strings.TrimSpace(in.Title),
			Completed: in.Completed,
		}

		// Client-supplied IDs are only honored when they name an existing
		// milestone, so the merged list never carries duplicates.
		existing := find(in)
		if existing != nil {
			m.ID = existing.ID
		} else {
			m.ID = uuid.NewString()
		}

		switch {
		case !m.Completed:
			m.CompletedAt = nil
		case existing != nil && existing.Completed && existing.CompletedAt != nil:
			at := *existing.CompletedAt
			m.CompletedAt = &at
		default:
			at := now
			m.CompletedAt = &at
			if existing == nil || !existing.Completed {
				completed = append(completed, m)
			}
		}

		merged = append(merged, m)
	}

	g.Milestones = merged
	return completed
}

// SuggestedProgress derives a progress value from milestone completion.
// It is advisory: ApplyProgress never recomputes progress on its own.
func SuggestedProgress(milestones []Milestone) int {
	if len(milestones) == 0 {
		return 0
	}
	done := 0
	for _, m := range milestones {
		if m.Completed {
			done++
		}
	}
	return int(math.Round(float64(MaxProgress*done) / float64(len(milestones))))
}

// IsActive reports whether the goal still takes part in reminders.
func (g *Goal) IsActive() bool {
	return g.Status == GoalStatusPending || g.Status == GoalStatusInProgress
}

// LastActivity is the instant of the last mutation, or creation if the goal
// was never updated.
func (g *Goal) LastActivity() time.Time {
	if g.LastUpdated != nil {
		return *g.LastUpdated
	}
	return g.CreatedAt
}

// IdleSince reports whether the goal has not been touched since cutoff.
func (g *Goal) IdleSince(cutoff time.Time) bool {
	return g.LastActivity().Before(cutoff)
}

// Archive turns the goal into its permanent archive record.
func (g *Goal) Archive(learning string, now time.Time) (*ArchiveRecord, error) {
	text := SanitizeText(learning)
	if text == "" {
		return nil, ErrLearningEmpty
	}

	start := g.CreatedAt
	if g.StartDate != nil {
		start = *g.StartDate
	}

	return &ArchiveRecord{
		ID:          uuid.NewString(),
		UserID:      g.UserID,
		GoalID:      g.ID,
		Title:       g.Title,
		Description: g.Description,
		StartDate:   start,
		CompletedAt: now.UTC(),
		Learning:    text,
	}, nil
}

// Clone returns a deep copy so callers can mutate without aliasing stored state.
func (g *Goal) Clone() *Goal {
	c := *g
	c.Milestones = make([]Milestone, len(g.Milestones))
	for i, m := range g.Milestones {
		c.Milestones[i] = m
		if m.CompletedAt != nil {
			at := *m.CompletedAt
			c.Milestones[i].CompletedAt = &at
		}
	}
	c.Logs = append([]GoalLog{}, g.Logs...)
	c.StartDate = cloneTime(g.StartDate)
	c.TargetDate = cloneTime(g.TargetDate)
	c.CompletedAt = cloneTime(g.CompletedAt)
	c.LastUpdated = cloneTime(g.LastUpdated)
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
