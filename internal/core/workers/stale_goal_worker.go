package workers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/comitanigiacomo/kanso-progress/internal/core/domain"
)

// seenTTL outlives the calendar day a dedup key is scoped to.
const seenTTL = 48 * time.Hour

type StaleGoalLister interface {
	ListStaleGoals(ctx context.Context, now time.Time) ([]*domain.Goal, error)
}

// SeenSet records keys once. MarkIfNew reports true only for the first caller.
// Forget releases a key so a later sweep can claim it again.
type SeenSet interface {
	MarkIfNew(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Forget(ctx context.Context, key string) error
}

type Notifier interface {
	NotifyStale(ctx context.Context, goal *domain.Goal) error
}

type StaleGoalJob struct {
	Goal *domain.Goal
	// Key is the dedup key claimed for the goal; it is released when the
	// reminder does not go out.
	Key string
}

// StaleGoalWorker periodically looks for active goals nobody touched in the
// last day and hands each one to the notifier at most once per day.
type StaleGoalWorker struct {
	goals    StaleGoalLister
	seen     SeenSet
	notifier Notifier
	interval time.Duration
	jobs     chan StaleGoalJob
	now      func() time.Time
}

func NewStaleGoalWorker(goals StaleGoalLister, seen SeenSet, notifier Notifier, interval time.Duration) *StaleGoalWorker {
	return &StaleGoalWorker{
		goals:    goals,
		seen:     seen,
		notifier: notifier,
		interval: interval,
		jobs:     make(chan StaleGoalJob, 100),
		now:      time.Now,
	}
}

// Start launches the dispatcher and the sweep ticker. Both stop with ctx.
func (w *StaleGoalWorker) Start(ctx context.Context) {
	go w.dispatch(ctx)
	go w.run(ctx)
}

func (w *StaleGoalWorker) run(ctx context.Context) {
	slog.Info("stale goal worker started",
		"component", "worker",
		"worker", "stale-goals",
		"interval", w.interval.String(),
	)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("stale goal worker stopped",
				"component", "worker",
				"worker", "stale-goals",
				"reason", "context_cancelled",
			)
			return
		case <-ticker.C:
			if _, err := w.Sweep(ctx); err != nil {
				slog.Error("stale goal sweep failed",
					"component", "worker",
					"worker", "stale-goals",
					"error", err,
				)
			}
		}
	}
}

func (w *StaleGoalWorker) dispatch(ctx context.Context) {
	for {
		select {
		case job := <-w.jobs:
			w.process(ctx, job)
		case <-ctx.Done():
			return
		}
	}
}

// Sweep queues a reminder for every stale goal not yet reported today and
// returns how many were queued.
func (w *StaleGoalWorker) Sweep(ctx context.Context) (int, error) {
	fresh, err := w.collect(ctx)
	if err != nil {
		return 0, err
	}

	queued := 0
	for _, job := range fresh {
		if w.enqueue(job) {
			queued++
			continue
		}
		w.release(ctx, job)
	}

	slog.Info("stale goal sweep completed",
		"component", "worker",
		"worker", "stale-goals",
		"queued", queued,
	)
	return queued, nil
}

// RunOnce performs one sweep and notifies inline, without the queue. It
// returns how many reminders were delivered.
func (w *StaleGoalWorker) RunOnce(ctx context.Context) (int, error) {
	fresh, err := w.collect(ctx)
	if err != nil {
		return 0, err
	}

	notified := 0
	for _, job := range fresh {
		if w.process(ctx, job) {
			notified++
		}
	}
	return notified, nil
}

func (w *StaleGoalWorker) collect(ctx context.Context) ([]StaleGoalJob, error) {
	now := w.now()

	stale, err := w.goals.ListStaleGoals(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("list stale goals: %w", err)
	}

	day := now.UTC().Format("2006-01-02")
	fresh := make([]StaleGoalJob, 0, len(stale))
	for _, g := range stale {
		if ctx.Err() != nil {
			return fresh, ctx.Err()
		}

		key := dedupKey(day, g)
		first, err := w.seen.MarkIfNew(ctx, key, seenTTL)
		if err != nil {
			slog.Warn("stale goal dedup failed",
				"component", "worker",
				"worker", "stale-goals",
				"goal_id", g.ID,
				"error", err,
			)
			continue
		}
		if first {
			fresh = append(fresh, StaleGoalJob{Goal: g, Key: key})
		}
	}
	return fresh, nil
}

func dedupKey(day string, g *domain.Goal) string {
	return fmt.Sprintf("%s:%s:%s", day, g.UserID, g.ID)
}

// enqueue hands a job to the dispatcher. It never blocks; a full queue
// drops the job and reports false.
func (w *StaleGoalWorker) enqueue(job StaleGoalJob) bool {
	select {
	case w.jobs <- job:
		return true
	default:
		slog.Warn("stale goal queue full, dropping job",
			"component", "worker",
			"worker", "stale-goals",
			"goal_id", job.Goal.ID,
		)
		return false
	}
}

func (w *StaleGoalWorker) process(ctx context.Context, job StaleGoalJob) bool {
	if err := w.notifier.NotifyStale(ctx, job.Goal); err != nil {
		slog.Error("stale goal notification failed",
			"component", "worker",
			"worker", "stale-goals",
			"goal_id", job.Goal.ID,
			"user_id", job.Goal.UserID,
			"error", err,
		)
		w.release(ctx, job)
		return false
	}
	return true
}

// release forgets the dedup key of a reminder that was not delivered.
func (w *StaleGoalWorker) release(ctx context.Context, job StaleGoalJob) {
	if job.Key == "" {
		return
	}
	if err := w.seen.Forget(ctx, job.Key); err != nil {
		slog.Warn("stale goal dedup release failed",
			"component", "worker",
			"worker", "stale-goals",
			"goal_id", job.Goal.ID,
			"error", err,
		)
	}
}
