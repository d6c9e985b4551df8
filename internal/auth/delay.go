package auth

import (
	"context"
	"crypto/rand"
	"math/big"
	"time"
)

// FailureDelay pads failed logins to a minimum duration so that an unknown
// username and a wrong password take about as long to answer
type FailureDelay struct {
	base   time.Duration
	jitter time.Duration
}

// NewFailureDelay creates a FailureDelay of base plus up to jitter
func NewFailureDelay(base, jitter time.Duration) *FailureDelay {
	return &FailureDelay{base: base, jitter: jitter}
}

// WaitFrom sleeps until at least base+random(jitter) has elapsed since start,
// or ctx is done
func (d *FailureDelay) WaitFrom(ctx context.Context, start time.Time) {
	if d == nil || d.base <= 0 && d.jitter <= 0 {
		return
	}

	target := d.base + randomDuration(d.jitter)
	remaining := target - time.Since(start)
	if remaining <= 0 {
		return
	}

	timer := time.NewTimer(remaining)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

func randomDuration(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		return 0
	}
	return time.Duration(n.Int64())
}
