package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"
)

const (
	EventCommit             = "commit"
	EventGoalCompleted      = "goal_completed"
	EventMilestoneCompleted = "milestone_completed"
	EventGoalLog            = "goal_log"

	MaxMessageLen = 500
)

var (
	ErrMessageEmpty   = fmt.Errorf("activity message cannot be empty: %w", ErrValidation)
	ErrMessageTooLong = fmt.Errorf("activity message is too long (max 500 chars): %w", ErrValidation)
	ErrInvalidUserID  = fmt.Errorf("invalid user id: %w", ErrValidation)
)

// ActivityEvent is one dated activity occurrence. Events are append-only:
// once stored they are never updated or deleted.
type ActivityEvent struct {
	ID         string    `json:"id" db:"id"`
	UserID     string    `json:"user_id" db:"user_id"`
	Kind       string    `json:"kind" db:"kind"`
	GoalID     string    `json:"goal_id,omitempty" db:"goal_id"`
	Message    string    `json:"message,omitempty" db:"message"`
	OccurredAt time.Time `json:"occurred_at" db:"occurred_at"`
}

func newEvent(userID, kind, goalID, message string, at time.Time) *ActivityEvent {
	return &ActivityEvent{
		ID:         ulid.MustNew(ulid.Timestamp(at), ulid.DefaultEntropy()).String(),
		UserID:     userID,
		Kind:       kind,
		GoalID:     goalID,
		Message:    message,
		OccurredAt: at.UTC(),
	}
}

// NewCommitEvent builds a user "commit" for the given instant.
// The message is sanitized before validation.
func NewCommitEvent(userID, message string, at time.Time) (*ActivityEvent, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrInvalidUserID
	}

	clean := SanitizeText(message)
	if clean == "" {
		return nil, ErrMessageEmpty
	}
	if utf8.RuneCountInString(clean) > MaxMessageLen {
		return nil, ErrMessageTooLong
	}

	return newEvent(userID, EventCommit, "", clean, at), nil
}

// LocalDateKey returns the YYYY-MM-DD key of the event in the viewer's calendar.
func (e *ActivityEvent) LocalDateKey(loc *time.Location) string {
	return DateKey(e.OccurredAt, loc)
}
