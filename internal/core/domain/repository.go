package domain

import (
	"context"
	"time"
)

type GoalRepository interface {
	// Create persists a new goal.
	Create(ctx context.Context, goal *Goal) error

	// GetByID retrieves an active goal by its unique identifier.
	GetByID(ctx context.Context, id string) (*Goal, error)

	// ListByUserID returns the active goals of a user, newest first.
	ListByUserID(ctx context.Context, userID string) ([]*Goal, error)

	// SaveProgress stores the mutated goal together with the activity events
	// the mutation produced. Both writes succeed or neither does.
	SaveProgress(ctx context.Context, goal *Goal, events []*ActivityEvent) error

	// Delete permanently removes an active goal.
	Delete(ctx context.Context, id string) error

	// Archive stores the archive record and removes the active goal it
	// came from in a single write.
	Archive(ctx context.Context, record *ArchiveRecord) error

	// ListArchived returns the archive records of a user, most recent first.
	ListArchived(ctx context.Context, userID string) ([]*ArchiveRecord, error)

	// ListActiveIdleSince returns pending and in-progress goals of every user
	// whose last activity is older than cutoff. It never mutates goals.
	ListActiveIdleSince(ctx context.Context, cutoff time.Time) ([]*Goal, error)
}

type TaskRepository interface {
	Create(ctx context.Context, task *Task) error
	GetByID(ctx context.Context, id string) (*Task, error)
	ListByUserID(ctx context.Context, userID string) ([]*Task, error)
	Update(ctx context.Context, task *Task) error
	Delete(ctx context.Context, id string) error
}

// ActivityRepository is the append-only per-user event log.
type ActivityRepository interface {
	Append(ctx context.Context, event *ActivityEvent) error

	// ListByUserID returns the events of a user that occurred at or after
	// since, oldest first. A zero since returns the whole log.
	ListByUserID(ctx context.Context, userID string, since time.Time) ([]*ActivityEvent, error)
}

type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	Delete(ctx context.Context, id string) error
}
