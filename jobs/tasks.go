// Package jobs runs background maintenance for the Stocklist backend.
package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTokenPurge is the task type for purging expired reset tokens.
	TaskTokenPurge = "token:purge"
)

// TokenPurger deletes reset tokens past their expiry.
type TokenPurger interface {
	DeleteExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)
}

// NewTokenPurgeTask constructs the purge task. It carries no payload.
func NewTokenPurgeTask() *asynq.Task {
	return asynq.NewTask(TaskTokenPurge, nil)
}

// NewTokenPurgeHandler builds the handler for TaskTokenPurge tasks.
// Purging is hygiene: token verification checks expiry itself, so a
// missed run never extends a token's life.
func NewTokenPurgeHandler(purger TokenPurger, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		deleted, err := purger.DeleteExpiredResetTokens(ctx, time.Now().UTC())
		if err != nil {
			return err
		}
		if logger != nil && deleted > 0 {
			logger.Info("purged expired reset tokens", slog.Int64("deleted", deleted))
		}
		return nil
	}
}
