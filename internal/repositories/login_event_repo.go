package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mystic-aac/accountcenter/internal/database"
	"github.com/mystic-aac/accountcenter/internal/models"
)

// LoginEventRepository keeps the login audit trail. It never feeds rate limiting.
type LoginEventRepository struct {
	db database.Querier
}

func NewLoginEventRepository(db database.Querier) *LoginEventRepository {
	return &LoginEventRepository{db: db}
}

func (r *LoginEventRepository) Record(ctx context.Context, event *models.LoginEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}

	query := `
		INSERT INTO login_events (id, username, ip_address, user_agent, success, failure_reason)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Exec(ctx, query,
		event.ID, event.Username, event.IPAddress, event.UserAgent, event.Success, event.FailureReason,
	)
	if err != nil {
		return fmt.Errorf("failed to record login event: %w", database.MapPostgresError(err))
	}
	return nil
}

// RecentByUsername returns the newest events for username
func (r *LoginEventRepository) RecentByUsername(ctx context.Context, username string, limit int) ([]models.LoginEvent, error) {
	query := `
		SELECT id::text, username, ip_address, user_agent, success, failure_reason, created_at
		FROM login_events WHERE username = $1
		ORDER BY created_at DESC LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, username, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query login events: %w", err)
	}
	defer rows.Close()

	events := make([]models.LoginEvent, 0)
	for rows.Next() {
		var e models.LoginEvent
		if err := rows.Scan(&e.ID, &e.Username, &e.IPAddress, &e.UserAgent, &e.Success, &e.FailureReason, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan login event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return events, nil
}

// DeleteOlderThan removes events created before cutoff
func (r *LoginEventRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.Exec(ctx, `DELETE FROM login_events WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}
	return result.RowsAffected(), nil
}
