package background

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// SessionPurger removes expired sessions
type SessionPurger interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// LoginEventPurger removes login events recorded before cutoff
type LoginEventPurger interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// GuardSweeper drops attempt records whose block window has elapsed
type GuardSweeper interface {
	Sweep() int
}

// CleanupManager periodically purges expired sessions, old login events and
// stale login guard records
type CleanupManager struct {
	sessions  SessionPurger
	events    LoginEventPurger
	guard     GuardSweeper
	retention time.Duration
	interval  time.Duration
	logger    *slog.Logger
	now       func() time.Time
	stopCh    chan struct{}
	stopOnce  sync.Once
}

// NewCleanupManager creates a new cleanup manager. events and guard may be nil.
func NewCleanupManager(
	sessions SessionPurger,
	events LoginEventPurger,
	guard GuardSweeper,
	retention time.Duration,
	interval time.Duration,
	logger *slog.Logger,
) *CleanupManager {
	return &CleanupManager{
		sessions:  sessions,
		events:    events,
		guard:     guard,
		retention: retention,
		interval:  interval,
		logger:    logger,
		now:       time.Now,
		stopCh:    make(chan struct{}),
	}
}

// Start runs a cleanup immediately and then on every tick until Stop is
// called or ctx is cancelled. It blocks.
func (cm *CleanupManager) Start(ctx context.Context) {
	ticker := time.NewTicker(cm.interval)
	defer ticker.Stop()

	cm.RunOnce(ctx)

	for {
		select {
		case <-ticker.C:
			cm.RunOnce(ctx)
		case <-cm.stopCh:
			cm.logger.Info("cleanup manager stopped")
			return
		case <-ctx.Done():
			cm.logger.Info("cleanup manager context cancelled")
			return
		}
	}
}

// RunOnce performs a single cleanup pass. Failures are logged and do not
// stop the remaining steps.
func (cm *CleanupManager) RunOnce(ctx context.Context) {
	cleanupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if cm.sessions != nil {
		n, err := cm.sessions.DeleteExpired(cleanupCtx)
		if err != nil {
			cm.logger.Error("failed to delete expired sessions", slog.Any("error", err))
		} else if n > 0 {
			cm.logger.Info("expired sessions removed", slog.Int64("rows_deleted", n))
		}
	}

	if cm.events != nil && cm.retention > 0 {
		n, err := cm.events.DeleteOlderThan(cleanupCtx, cm.now().Add(-cm.retention))
		if err != nil {
			cm.logger.Error("failed to delete old login events", slog.Any("error", err))
		} else if n > 0 {
			cm.logger.Info("old login events removed", slog.Int64("rows_deleted", n))
		}
	}

	if cm.guard != nil {
		if n := cm.guard.Sweep(); n > 0 {
			cm.logger.Debug("stale login attempt records dropped", slog.Int("records", n))
		}
	}
}

// Stop signals the cleanup manager to stop. Safe to call more than once.
func (cm *CleanupManager) Stop() {
	cm.stopOnce.Do(func() { close(cm.stopCh) })
}
