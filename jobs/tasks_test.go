package jobs_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stocklist-app/stocklist/jobs"
)

type fakePurger struct {
	calls   int
	deleted int64
	err     error
	lastNow time.Time
}

func (f *fakePurger) DeleteExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	f.calls++
	f.lastNow = now
	return f.deleted, f.err
}

func TestTokenPurgeHandler(t *testing.T) {
	purger := &fakePurger{deleted: 3}
	handler := jobs.NewTokenPurgeHandler(purger, slog.Default())

	err := handler(context.Background(), jobs.NewTokenPurgeTask())
	require.NoError(t, err)
	assert.Equal(t, 1, purger.calls)
	assert.WithinDuration(t, time.Now().UTC(), purger.lastNow, time.Minute)
}

func TestTokenPurgeHandlerPropagatesError(t *testing.T) {
	purger := &fakePurger{err: errors.New("db down")}
	handler := jobs.NewTokenPurgeHandler(purger, slog.Default())

	err := handler(context.Background(), jobs.NewTokenPurgeTask())
	require.Error(t, err)
	assert.EqualError(t, err, "db down")
}

func TestTokenPurgeTaskType(t *testing.T) {
	task := jobs.NewTokenPurgeTask()
	assert.Equal(t, jobs.TaskTokenPurge, task.Type())
	assert.Empty(t, task.Payload())
}
