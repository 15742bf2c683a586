package domain

import "time"

// ArchiveRecord is the permanent trace of a goal that was closed with a
// learning note. Archived goals only count towards historical stats.
type ArchiveRecord struct {
	ID          string    `json:"id" db:"id"`
	UserID      string    `json:"user_id" db:"user_id"`
	GoalID      string    `json:"goal_id" db:"goal_id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description,omitempty" db:"description"`
	StartDate   time.Time `json:"start_date" db:"start_date"`
	CompletedAt time.Time `json:"completed_at" db:"completed_at"`
	Learning    string    `json:"learning" db:"learning"`
}
