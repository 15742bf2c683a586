package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/comitanigiacomo/kanso-progress/internal/core/domain"
)

var _ domain.GoalRepository = (*PostgresGoalRepository)(nil)

type PostgresGoalRepository struct {
	db *sqlx.DB
}

func NewPostgresGoalRepository(db *sqlx.DB) *PostgresGoalRepository {
	return &PostgresGoalRepository{db: db}
}

// goalRow is the column layout of goals. Milestones and logs live in JSONB
// columns and travel as text so both drivers encode them the same way.
type goalRow struct {
	ID              string     `db:"id"`
	UserID          string     `db:"user_id"`
	Title           string     `db:"title"`
	Description     string     `db:"description"`
	Category        string     `db:"category"`
	StartDate       *time.Time `db:"start_date"`
	TargetDate      *time.Time `db:"target_date"`
	ReminderEnabled bool       `db:"reminder_enabled"`
	Progress        int        `db:"progress"`
	Status          string     `db:"status"`
	Milestones      string     `db:"milestones"`
	Logs            string     `db:"logs"`
	Streak          int        `db:"streak"`
	CompletedAt     *time.Time `db:"completed_at"`
	LastUpdated     *time.Time `db:"last_updated"`
	CreatedAt       time.Time  `db:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at"`
}

const goalColumns = `id, user_id, title, description, category, start_date, target_date,
	reminder_enabled, progress, status, milestones, logs, streak,
	completed_at, last_updated, created_at, updated_at`

func newGoalRow(g *domain.Goal) (*goalRow, error) {
	milestones := g.Milestones
	if milestones == nil {
		milestones = []domain.Milestone{}
	}
	ms, err := json.Marshal(milestones)
	if err != nil {
		return nil, fmt.Errorf("marshal milestones: %w", err)
	}

	logs := g.Logs
	if logs == nil {
		logs = []domain.GoalLog{}
	}
	ls, err := json.Marshal(logs)
	if err != nil {
		return nil, fmt.Errorf("marshal logs: %w", err)
	}

	return &goalRow{
		ID:              g.ID,
		UserID:          g.UserID,
		Title:           g.Title,
		Description:     g.Description,
		Category:        g.Category,
		StartDate:       g.StartDate,
		TargetDate:      g.TargetDate,
		ReminderEnabled: g.ReminderEnabled,
		Progress:        g.Progress,
		Status:          g.Status,
		Milestones:      string(ms),
		Logs:            string(ls),
		Streak:          g.Streak,
		CompletedAt:     g.CompletedAt,
		LastUpdated:     g.LastUpdated,
		CreatedAt:       g.CreatedAt,
		UpdatedAt:       g.UpdatedAt,
	}, nil
}

func (r *goalRow) toDomain() (*domain.Goal, error) {
	g := &domain.Goal{
		ID:              r.ID,
		UserID:          r.UserID,
		Title:           r.Title,
		Description:     r.Description,
		Category:        r.Category,
		StartDate:       r.StartDate,
		TargetDate:      r.TargetDate,
		ReminderEnabled: r.ReminderEnabled,
		Progress:        r.Progress,
		Status:          r.Status,
		Streak:          r.Streak,
		CompletedAt:     r.CompletedAt,
		LastUpdated:     r.LastUpdated,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
		Milestones:      []domain.Milestone{},
		Logs:            []domain.GoalLog{},
	}

	if r.Milestones != "" {
		if err := json.Unmarshal([]byte(r.Milestones), &g.Milestones); err != nil {
			return nil, fmt.Errorf("unmarshal milestones of goal %s: %w", r.ID, err)
		}
	}
	if r.Logs != "" {
		if err := json.Unmarshal([]byte(r.Logs), &g.Logs); err != nil {
			return nil, fmt.Errorf("unmarshal logs of goal %s: %w", r.ID, err)
		}
	}
	return g, nil
}

func rowsToGoals(rows []goalRow) ([]*domain.Goal, error) {
	goals := make([]*domain.Goal, 0, len(rows))
	for i := range rows {
		g, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		goals = append(goals, g)
	}
	return goals, nil
}

func (r *PostgresGoalRepository) Create(ctx context.Context, g *domain.Goal) error {
	row, err := newGoalRow(g)
	if err != nil {
		return err
	}

	query := `
        INSERT INTO goals (` + goalColumns + `)
        VALUES (
            :id, :user_id, :title, :description, :category, :start_date, :target_date,
            :reminder_enabled, :progress, :status, :milestones, :logs, :streak,
            :completed_at, :last_updated, :created_at, :updated_at
        )`

	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return domain.StoreError("insert goal", err)
	}
	return nil
}

func (r *PostgresGoalRepository) GetByID(ctx context.Context, id string) (*domain.Goal, error) {
	var row goalRow
	query := `SELECT ` + goalColumns + ` FROM goals WHERE id = $1`

	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, notFoundOr("get goal", err, domain.ErrGoalNotFound)
	}
	return row.toDomain()
}

func (r *PostgresGoalRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Goal, error) {
	var rows []goalRow
	query := `SELECT ` + goalColumns + ` FROM goals WHERE user_id = $1 ORDER BY created_at DESC`

	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, domain.StoreError("list goals", err)
	}
	return rowsToGoals(rows)
}

func (r *PostgresGoalRepository) SaveProgress(ctx context.Context, g *domain.Goal, events []*domain.ActivityEvent) error {
	row, err := newGoalRow(g)
	if err != nil {
		return err
	}

	return inTx(ctx, r.db, "save goal progress", func(tx *sqlx.Tx) error {
		query := `
            UPDATE goals SET
                progress = :progress, status = :status, milestones = :milestones,
                logs = :logs, streak = :streak, completed_at = :completed_at,
                last_updated = :last_updated, updated_at = :updated_at
            WHERE id = :id`

		res, err := tx.NamedExecContext(ctx, query, row)
		if err != nil {
			return domain.StoreError("update goal", err)
		}
		if err := rowsAffectedOr("update goal", res, domain.ErrGoalNotFound); err != nil {
			return err
		}

		for _, e := range events {
			if _, err := tx.NamedExecContext(ctx, insertEventQuery, e); err != nil {
				return domain.StoreError("insert activity event", err)
			}
		}
		return nil
	})
}

func (r *PostgresGoalRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM goals WHERE id = $1`, id)
	if err != nil {
		return domain.StoreError("delete goal", err)
	}
	return rowsAffectedOr("delete goal", res, domain.ErrGoalNotFound)
}

func (r *PostgresGoalRepository) Archive(ctx context.Context, rec *domain.ArchiveRecord) error {
	return inTx(ctx, r.db, "archive goal", func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM goals WHERE id = $1`, rec.GoalID)
		if err != nil {
			return domain.StoreError("delete archived goal", err)
		}
		if err := rowsAffectedOr("delete archived goal", res, domain.ErrGoalNotFound); err != nil {
			return err
		}

		query := `
            INSERT INTO goal_archive (id, user_id, goal_id, title, description, start_date, completed_at, learning)
            VALUES (:id, :user_id, :goal_id, :title, :description, :start_date, :completed_at, :learning)`

		if _, err := tx.NamedExecContext(ctx, query, rec); err != nil {
			return domain.StoreError("insert archive record", err)
		}
		return nil
	})
}

func (r *PostgresGoalRepository) ListArchived(ctx context.Context, userID string) ([]*domain.ArchiveRecord, error) {
	records := make([]*domain.ArchiveRecord, 0)
	query := `
        SELECT id, user_id, goal_id, title, description, start_date, completed_at, learning
        FROM goal_archive WHERE user_id = $1 ORDER BY completed_at DESC`

	if err := r.db.SelectContext(ctx, &records, query, userID); err != nil {
		return nil, domain.StoreError("list archived goals", err)
	}
	return records, nil
}

func (r *PostgresGoalRepository) ListActiveIdleSince(ctx context.Context, cutoff time.Time) ([]*domain.Goal, error) {
	var rows []goalRow
	query := `
        SELECT ` + goalColumns + ` FROM goals
        WHERE status IN ($1, $2) AND COALESCE(last_updated, created_at) < $3
        ORDER BY COALESCE(last_updated, created_at) ASC`

	if err := r.db.SelectContext(ctx, &rows, query, domain.GoalStatusPending, domain.GoalStatusInProgress, cutoff); err != nil {
		return nil, domain.StoreError("list idle goals", err)
	}
	return rowsToGoals(rows)
}
