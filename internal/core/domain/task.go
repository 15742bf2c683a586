package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	TaskStatusPending   = "pending"
	TaskStatusCompleted = "completed"

	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"

	TaskTypeTraditional = "traditional"

	MaxTitleLen = 100
	MaxDescLen  = 500
)

var (
	ErrTaskNotFound     = fmt.Errorf("task %w", ErrNotFound)
	ErrTaskTitleEmpty   = fmt.Errorf("task title cannot be empty: %w", ErrValidation)
	ErrTaskTitleTooLong = fmt.Errorf("task title is too long (max 100 chars): %w", ErrValidation)
	ErrTaskDescTooLong  = fmt.Errorf("task description is too long (max 500 chars): %w", ErrValidation)
	ErrInvalidPriority  = fmt.Errorf("invalid priority (must be low, medium or high): %w", ErrValidation)
)

// Task is a short-lived traditional todo. It has no progress of its own.
type Task struct {
	ID          string     `json:"id" db:"id"`
	UserID      string     `json:"user_id" db:"user_id"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description,omitempty" db:"description"`
	Category    string     `json:"category,omitempty" db:"category"`
	DueDate     *time.Time `json:"due_date,omitempty" db:"due_date"`
	Priority    string     `json:"priority" db:"priority"`
	Status      string     `json:"status" db:"status"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

func NewTask(userID, title, description, category, priority string, dueDate *time.Time) (*Task, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrInvalidUserID
	}

	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	switch {
	case title == "":
		return nil, ErrTaskTitleEmpty
	case utf8.RuneCountInString(title) > MaxTitleLen:
		return nil, ErrTaskTitleTooLong
	case utf8.RuneCountInString(description) > MaxDescLen:
		return nil, ErrTaskDescTooLong
	}

	p, err := normalizePriority(priority)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Task{
		ID:          uuid.NewString(),
		UserID:      userID,
		Title:       title,
		Description: description,
		Category:    strings.TrimSpace(category),
		DueDate:     dueDate,
		Priority:    p,
		Status:      TaskStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func normalizePriority(p string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(p)) {
	case "":
		return PriorityMedium, nil
	case PriorityLow:
		return PriorityLow, nil
	case PriorityMedium:
		return PriorityMedium, nil
	case PriorityHigh:
		return PriorityHigh, nil
	}
	return "", ErrInvalidPriority
}

func (t *Task) Complete(now time.Time) {
	if t.Status == TaskStatusCompleted {
		return
	}
	now = now.UTC()
	t.Status = TaskStatusCompleted
	t.CompletedAt = &now
	t.UpdatedAt = now
}

func (t *Task) Reopen(now time.Time) {
	if t.Status == TaskStatusPending {
		return
	}
	t.Status = TaskStatusPending
	t.CompletedAt = nil
	t.UpdatedAt = now.UTC()
}
