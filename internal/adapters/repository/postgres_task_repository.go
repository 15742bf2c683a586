package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/comitanigiacomo/kanso-progress/internal/core/domain"
)

var _ domain.TaskRepository = (*PostgresTaskRepository)(nil)

type PostgresTaskRepository struct {
	db *sqlx.DB
}

func NewPostgresTaskRepository(db *sqlx.DB) *PostgresTaskRepository {
	return &PostgresTaskRepository{db: db}
}

const taskColumns = `id, user_id, title, description, category, due_date, priority, status,
	completed_at, created_at, updated_at`

func (r *PostgresTaskRepository) Create(ctx context.Context, t *domain.Task) error {
	query := `
        INSERT INTO tasks (` + taskColumns + `)
        VALUES (
            :id, :user_id, :title, :description, :category, :due_date, :priority, :status,
            :completed_at, :created_at, :updated_at
        )`

	if _, err := r.db.NamedExecContext(ctx, query, t); err != nil {
		return domain.StoreError("insert task", err)
	}
	return nil
}

func (r *PostgresTaskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	var t domain.Task
	if err := r.db.GetContext(ctx, &t, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id); err != nil {
		return nil, notFoundOr("get task", err, domain.ErrTaskNotFound)
	}
	return &t, nil
}

func (r *PostgresTaskRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Task, error) {
	tasks := make([]*domain.Task, 0)
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE user_id = $1 ORDER BY created_at DESC`

	if err := r.db.SelectContext(ctx, &tasks, query, userID); err != nil {
		return nil, domain.StoreError("list tasks", err)
	}
	return tasks, nil
}

func (r *PostgresTaskRepository) Update(ctx context.Context, t *domain.Task) error {
	query := `
        UPDATE tasks SET
            title = :title, description = :description, category = :category,
            due_date = :due_date, priority = :priority, status = :status,
            completed_at = :completed_at, updated_at = :updated_at
        WHERE id = :id`

	res, err := r.db.NamedExecContext(ctx, query, t)
	if err != nil {
		return domain.StoreError("update task", err)
	}
	return rowsAffectedOr("update task", res, domain.ErrTaskNotFound)
}

func (r *PostgresTaskRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return domain.StoreError("delete task", err)
	}
	return rowsAffectedOr("delete task", res, domain.ErrTaskNotFound)
}
