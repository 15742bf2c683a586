package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/comitanigiacomo/kanso-progress/internal/core/domain"
)

var _ domain.ActivityRepository = (*PostgresActivityRepository)(nil)

const insertEventQuery = `
    INSERT INTO activity_events (id, user_id, kind, goal_id, message, occurred_at)
    VALUES (:id, :user_id, :kind, :goal_id, :message, :occurred_at)`

type PostgresActivityRepository struct {
	db *sqlx.DB
}

func NewPostgresActivityRepository(db *sqlx.DB) *PostgresActivityRepository {
	return &PostgresActivityRepository{db: db}
}

func (r *PostgresActivityRepository) Append(ctx context.Context, e *domain.ActivityEvent) error {
	if _, err := r.db.NamedExecContext(ctx, insertEventQuery, e); err != nil {
		return domain.StoreError("insert activity event", err)
	}
	return nil
}

func (r *PostgresActivityRepository) ListByUserID(ctx context.Context, userID string, since time.Time) ([]*domain.ActivityEvent, error) {
	events := make([]*domain.ActivityEvent, 0)
	query := `
        SELECT id, user_id, kind, goal_id, message, occurred_at
        FROM activity_events
        WHERE user_id = $1 AND occurred_at >= $2
        ORDER BY occurred_at ASC, id ASC`

	if err := r.db.SelectContext(ctx, &events, query, userID, since); err != nil {
		return nil, domain.StoreError("list activity events", err)
	}
	return events, nil
}
