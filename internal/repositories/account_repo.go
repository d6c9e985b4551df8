package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/mystic-aac/accountcenter/internal/database"
	"github.com/mystic-aac/accountcenter/internal/models"
)

type AccountRepository struct {
	db database.Querier
}

func NewAccountRepository(db database.Querier) *AccountRepository {
	return &AccountRepository{db: db}
}

// rowScanner supports both pgx.Row and pgx.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

const accountColumns = `id, username, email, password_hash, role, is_active, last_login, created_at, updated_at`

// scanAccountRow rejects roles outside the allow-list at the storage boundary
func scanAccountRow(scanner rowScanner) (*models.Account, error) {
	var account models.Account
	var role string
	var lastLogin *time.Time

	err := scanner.Scan(
		&account.ID, &account.Username, &account.Email, &account.PasswordHash,
		&role, &account.IsActive, &lastLogin,
		&account.CreatedAt, &account.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	parsed, err := models.ParseRole(role)
	if err != nil {
		return nil, fmt.Errorf("account %d: %w", account.ID, err)
	}
	account.Role = parsed
	account.LastLogin = lastLogin

	return &account, nil
}

func (r *AccountRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	if account.Role == "" {
		account.Role = models.RoleUser
	}

	query := `
		INSERT INTO accounts (username, email, password_hash, role, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + accountColumns

	created, err := scanAccountRow(r.db.QueryRow(ctx, query,
		account.Username, account.Email, account.PasswordHash, string(account.Role), account.IsActive,
	))
	if err != nil {
		return nil, err
	}

	return created, nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return scanAccountRow(r.db.QueryRow(ctx, query, id))
}

func (r *AccountRepository) GetByUsername(ctx context.Context, username string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE username = $1`
	return scanAccountRow(r.db.QueryRow(ctx, query, username))
}

// ExistsByUsernameOrEmail reports which of the two identifiers is already registered
func (r *AccountRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (usernameTaken, emailTaken bool, err error) {
	query := `
		SELECT
			EXISTS (SELECT 1 FROM accounts WHERE username = $1),
			EXISTS (SELECT 1 FROM accounts WHERE LOWER(email) = LOWER($2))
	`

	if err := r.db.QueryRow(ctx, query, username, email).Scan(&usernameTaken, &emailTaken); err != nil {
		return false, false, fmt.Errorf("failed to check account existence: %w", err)
	}
	return usernameTaken, emailTaken, nil
}

func (r *AccountRepository) UpdateEmail(ctx context.Context, id int64, email string) (*models.Account, error) {
	query := `
		UPDATE accounts SET email = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING ` + accountColumns

	return scanAccountRow(r.db.QueryRow(ctx, query, email, id))
}

func (r *AccountRepository) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	query := `UPDATE accounts SET last_login = $1 WHERE id = $2`

	result, err := r.db.Exec(ctx, query, at, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
