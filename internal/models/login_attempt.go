package models

import "time"

// LoginAttemptRecord tracks consecutive login attempts for one username
// inside the current block window.
type LoginAttemptRecord struct {
	Attempts    int
	LastAttempt time.Time
}

// LoginEvent is an audit row describing one login decision.
type LoginEvent struct {
	ID            string    `db:"id"`
	Username      string    `db:"username"`
	IPAddress     string    `db:"ip_address"`
	UserAgent     string    `db:"user_agent"`
	Success       bool      `db:"success"`
	FailureReason *string   `db:"failure_reason"`
	CreatedAt     time.Time `db:"created_at"`
}
