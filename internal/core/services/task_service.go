package services

import (
	"context"
	"time"

	"github.com/comitanigiacomo/kanso-progress/internal/core/domain"
)

type TaskService struct {
	repo domain.TaskRepository
	now  func() time.Time
}

func NewTaskService(repo domain.TaskRepository) *TaskService {
	return &TaskService{
		repo: repo,
		now:  time.Now,
	}
}

type CreateTaskInput struct {
	UserID      string
	Title       string
	Description string
	Category    string
	Priority    string
	DueDate     *time.Time
}

func (s *TaskService) Create(ctx context.Context, input CreateTaskInput) (*domain.Task, error) {
	task, err := domain.NewTask(input.UserID, input.Title, input.Description, input.Category, input.Priority, input.DueDate)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, task); err != nil {
		return nil, err
	}

	return task, nil
}

func (s *TaskService) ListByUserID(ctx context.Context, userID string) ([]*domain.Task, error) {
	return s.repo.ListByUserID(ctx, userID)
}

func (s *TaskService) Complete(ctx context.Context, id, userID string) (*domain.Task, error) {
	return s.mutate(ctx, id, userID, func(t *domain.Task) { t.Complete(s.now()) })
}

func (s *TaskService) Reopen(ctx context.Context, id, userID string) (*domain.Task, error) {
	return s.mutate(ctx, id, userID, func(t *domain.Task) { t.Reopen(s.now()) })
}

func (s *TaskService) mutate(ctx context.Context, id, userID string, fn func(*domain.Task)) (*domain.Task, error) {
	task, err := s.owned(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	fn(task)

	if err := s.repo.Update(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *TaskService) Delete(ctx context.Context, id, userID string) error {
	if _, err := s.owned(ctx, id, userID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *TaskService) owned(ctx context.Context, id, userID string) (*domain.Task, error) {
	task, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if task.UserID != userID {
		return nil, domain.ErrUnauthorized
	}
	return task, nil
}
