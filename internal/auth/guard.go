package auth

import (
	"fmt"
	"sync"
	"time"

	"github.com/mystic-aac/accountcenter/internal/models"
)

const (
	DefaultMaxAttempts   = 10
	DefaultBlockDuration = 30 * time.Minute
)

// Clock returns the current time. Tests substitute a fake
type Clock func() time.Time

// RateLimitedError is returned by Check when a username is blocked
type RateLimitedError struct {
	RemainingMinutes int
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("too many login attempts, try again in %d minutes", e.RemainingMinutes)
}

func (e *RateLimitedError) Unwrap() error {
	return models.ErrRateLimited
}

// LoginAttemptGuard counts login attempts per username inside a sliding
// block window anchored at the last attempt. State is process-local
type LoginAttemptGuard struct {
	mu            sync.Mutex
	records       map[string]*models.LoginAttemptRecord
	maxAttempts   int
	blockDuration time.Duration
	now           Clock
}

// NewLoginAttemptGuard creates a guard allowing maxAttempts per blockDuration,
// falling back to the defaults for non-positive values
func NewLoginAttemptGuard(maxAttempts int, blockDuration time.Duration) *LoginAttemptGuard {
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}
	if blockDuration <= 0 {
		blockDuration = DefaultBlockDuration
	}
	return &LoginAttemptGuard{
		records:       make(map[string]*models.LoginAttemptRecord),
		maxAttempts:   maxAttempts,
		blockDuration: blockDuration,
		now:           time.Now,
	}
}

// SetClock replaces the time source
func (g *LoginAttemptGuard) SetClock(clock Clock) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.now = clock
}

// Allow records an attempt for key and reports whether it may proceed.
// Authenticated callers bypass counting and never touch the record
func (g *LoginAttemptGuard) Allow(key string, authenticated bool) bool {
	if authenticated {
		return true
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	rec, ok := g.records[key]
	if !ok || now.Sub(rec.LastAttempt) >= g.blockDuration {
		g.records[key] = &models.LoginAttemptRecord{Attempts: 1, LastAttempt: now}
		return true
	}

	// Blocked: keep LastAttempt so the window is not extended
	if rec.Attempts >= g.maxAttempts {
		return false
	}

	rec.Attempts++
	rec.LastAttempt = now
	return true
}

// Check is Allow returning a *RateLimitedError when blocked
func (g *LoginAttemptGuard) Check(key string, authenticated bool) error {
	if g.Allow(key, authenticated) {
		return nil
	}
	return &RateLimitedError{RemainingMinutes: g.RemainingBlockMinutes(key)}
}

// Clear forgets key after a verified login. Missing keys are a no-op
func (g *LoginAttemptGuard) Clear(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.records, key)
}

// RemainingBlockMinutes is the whole minutes, rounded up, until the window
// for key elapses; 0 when unknown or expired
func (g *LoginAttemptGuard) RemainingBlockMinutes(key string) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	rec, ok := g.records[key]
	if !ok {
		return 0
	}

	remaining := g.blockDuration - g.now().Sub(rec.LastAttempt)
	if remaining <= 0 {
		return 0
	}
	return int((remaining + time.Minute - 1) / time.Minute)
}

// Attempts returns the live attempt count for key
func (g *LoginAttemptGuard) Attempts(key string) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	if rec, ok := g.records[key]; ok {
		return rec.Attempts
	}
	return 0
}

// Sweep drops records whose window has elapsed and returns how many were removed.
// An expired record is already treated as absent by Allow
func (g *LoginAttemptGuard) Sweep() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	removed := 0
	for key, rec := range g.records {
		if now.Sub(rec.LastAttempt) >= g.blockDuration {
			delete(g.records, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked keys
func (g *LoginAttemptGuard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.records)
}
