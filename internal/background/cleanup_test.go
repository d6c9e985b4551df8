package background

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mystic-aac/accountcenter/internal/auth"
	"github.com/mystic-aac/accountcenter/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEvents struct {
	cutoff time.Time
	calls  atomic.Int32
	err    error
}

func (f *fakeEvents) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	f.calls.Add(1)
	f.cutoff = cutoff
	return 3, f.err
}

type failingSessions struct{}

func (failingSessions) DeleteExpired(ctx context.Context) (int64, error) {
	return 0, errors.New("db down")
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunOnce_PurgesEverything(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	store := auth.NewMemoryStore()
	store.SetClock(clock)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, &models.SessionRecord{ID: "expired", ExpiresAt: now.Add(-time.Minute)}))
	require.NoError(t, store.Save(ctx, &models.SessionRecord{ID: "live", ExpiresAt: now.Add(time.Hour)}))

	guard := auth.NewLoginAttemptGuard(10, 30*time.Minute)
	guard.SetClock(func() time.Time { return now.Add(-time.Hour) })
	guard.Allow("alice", false)
	guard.SetClock(clock)

	events := &fakeEvents{}
	cm := NewCleanupManager(store, events, guard, 720*time.Hour, time.Hour, discardLogger())
	cm.now = clock

	cm.RunOnce(ctx)

	_, err := store.Get(ctx, "expired")
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, err = store.Get(ctx, "live")
	assert.NoError(t, err)

	assert.Equal(t, int32(1), events.calls.Load())
	assert.Equal(t, now.Add(-720*time.Hour), events.cutoff)
	assert.Equal(t, 0, guard.Len())
}

func TestRunOnce_ContinuesAfterFailure(t *testing.T) {
	events := &fakeEvents{}
	cm := NewCleanupManager(failingSessions{}, events, nil, time.Hour, time.Hour, discardLogger())

	cm.RunOnce(context.Background())

	assert.Equal(t, int32(1), events.calls.Load(), "event purge still runs when session purge fails")
}

func TestStart_StopsOnStop(t *testing.T) {
	events := &fakeEvents{}
	cm := NewCleanupManager(nil, events, nil, time.Hour, 10*time.Millisecond, discardLogger())

	done := make(chan struct{})
	go func() {
		cm.Start(context.Background())
		close(done)
	}()

	require.Eventually(t, func() bool { return events.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cm.Stop()
	cm.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cleanup manager did not stop")
	}
}

func TestStart_StopsOnContextCancel(t *testing.T) {
	cm := NewCleanupManager(nil, nil, nil, 0, time.Hour, discardLogger())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		cm.Start(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cleanup manager ignored context cancellation")
	}
}
