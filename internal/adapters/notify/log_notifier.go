// Package notify delivers stale-goal reminders.
package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/comitanigiacomo/kanso-progress/internal/core/domain"
)

// LogNotifier writes reminders to the structured log instead of sending them.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger.With("component", "notifier")}
}

func (n *LogNotifier) NotifyStale(ctx context.Context, goal *domain.Goal) error {
	n.logger.InfoContext(ctx, "goal reminder",
		"user_id", goal.UserID,
		"goal_id", goal.ID,
		"title", goal.Title,
		"progress", goal.Progress,
		"idle_for", time.Since(goal.LastActivity()).Round(time.Minute).String(),
	)
	return nil
}
