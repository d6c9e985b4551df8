package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mystic-aac/accountcenter/internal/database"
	"github.com/mystic-aac/accountcenter/internal/models"
)

// SessionRepository stores sessions in postgres. It satisfies auth.SessionStore.
type SessionRepository struct {
	db database.Querier
}

func NewSessionRepository(db database.Querier) *SessionRepository {
	return &SessionRepository{db: db}
}

// sessionPayload is the JSONB body of a sessions row
type sessionPayload struct {
	User      *models.SessionUser `json:"user,omitempty"`
	Flash     []string            `json:"flash,omitempty"`
	CSRFToken string              `json:"csrfToken,omitempty"`
}

func (r *SessionRepository) Get(ctx context.Context, id string) (*models.SessionRecord, error) {
	query := `
		SELECT id::text, data, expires_at, created_at, updated_at
		FROM sessions WHERE id = $1 AND expires_at > NOW()
	`

	var record models.SessionRecord
	var data []byte
	err := r.db.QueryRow(ctx, query, id).Scan(
		&record.ID, &data, &record.ExpiresAt, &record.CreatedAt, &record.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	var payload sessionPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode session %s: %w", id, err)
	}
	if payload.User != nil {
		payload.User.NormalizeRole()
	}

	record.User = payload.User
	record.Flash = payload.Flash
	record.CSRFToken = payload.CSRFToken
	return &record, nil
}

func (r *SessionRepository) Save(ctx context.Context, record *models.SessionRecord) error {
	data, err := json.Marshal(sessionPayload{
		User:      record.User,
		Flash:     record.Flash,
		CSRFToken: record.CSRFToken,
	})
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	var accountID *int64
	if record.User != nil {
		accountID = &record.User.ID
	}

	query := `
		INSERT INTO sessions (id, account_id, data, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			account_id = EXCLUDED.account_id,
			data = EXCLUDED.data,
			expires_at = EXCLUDED.expires_at,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.Exec(ctx, query,
		record.ID, accountID, data, record.ExpiresAt, record.CreatedAt, record.UpdatedAt,
	)
	return database.MapPostgresError(err)
}

func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	return database.MapPostgresError(err)
}

func (r *SessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}
	return result.RowsAffected(), nil
}

// CountActive counts live signed-in sessions
func (r *SessionRepository) CountActive(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM sessions WHERE account_id IS NOT NULL AND expires_at > NOW()`,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return count, nil
}
