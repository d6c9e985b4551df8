package repositories_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mystic-aac/accountcenter/internal/models"
	"github.com/mystic-aac/accountcenter/internal/repositories"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var accountCols = []string{"id", "username", "email", "password_hash", "role", "is_active", "last_login", "created_at", "updated_at"}

func TestAccountRepository_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repositories.NewAccountRepository(mock)
	ctx := context.Background()
	now := time.Now()

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO accounts").
			WithArgs("alice", "alice@example.com", "hash", "USER", true).
			WillReturnRows(pgxmock.NewRows(accountCols).
				AddRow(int64(1), "alice", "alice@example.com", "hash", "USER", true, (*time.Time)(nil), now, now))

		account, err := r.Create(ctx, &models.Account{
			Username:     "alice",
			Email:        "alice@example.com",
			PasswordHash: "hash",
			IsActive:     true,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), account.ID)
		assert.Equal(t, models.RoleUser, account.Role)
		assert.Nil(t, account.LastLogin)
	})

	t.Run("duplicate", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO accounts").
			WithArgs("alice", "alice@example.com", "hash", "USER", true).
			WillReturnError(&pgconn.PgError{Code: "23505"})

		_, err := r.Create(ctx, &models.Account{
			Username:     "alice",
			Email:        "alice@example.com",
			PasswordHash: "hash",
			IsActive:     true,
		})
		assert.ErrorIs(t, err, models.ErrConflict)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_GetByUsername(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repositories.NewAccountRepository(mock)
	ctx := context.Background()
	now := time.Now()

	t.Run("success normalises role", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, username").
			WithArgs("alice").
			WillReturnRows(pgxmock.NewRows(accountCols).
				AddRow(int64(1), "alice", "a@example.com", "hash", "admin", true, &now, now, now))

		account, err := r.GetByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, models.RoleAdmin, account.Role)
		require.NotNil(t, account.LastLogin)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, username").
			WithArgs("nobody").
			WillReturnError(pgx.ErrNoRows)

		_, err := r.GetByUsername(ctx, "nobody")
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("unknown role rejected", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, username").
			WithArgs("guest").
			WillReturnRows(pgxmock.NewRows(accountCols).
				AddRow(int64(2), "guest", "g@example.com", "hash", "GUEST", true, (*time.Time)(nil), now, now))

		_, err := r.GetByUsername(ctx, "guest")
		assert.ErrorIs(t, err, models.ErrUnknownRole)
	})

	t.Run("database error", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, username").
			WithArgs("alice").
			WillReturnError(fmt.Errorf("db error"))

		_, err := r.GetByUsername(ctx, "alice")
		assert.Error(t, err)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_ExistsByUsernameOrEmail(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repositories.NewAccountRepository(mock)

	mock.ExpectQuery("SELECT").
		WithArgs("alice", "alice@example.com").
		WillReturnRows(pgxmock.NewRows([]string{"u", "e"}).AddRow(true, false))

	usernameTaken, emailTaken, err := r.ExistsByUsernameOrEmail(context.Background(), "alice", "alice@example.com")
	require.NoError(t, err)
	assert.True(t, usernameTaken)
	assert.False(t, emailTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_UpdateLastLogin(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repositories.NewAccountRepository(mock)
	at := time.Now()

	mock.ExpectExec("UPDATE accounts SET last_login").
		WithArgs(at, int64(1)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	require.NoError(t, r.UpdateLastLogin(context.Background(), 1, at))

	mock.ExpectExec("UPDATE accounts SET last_login").
		WithArgs(at, int64(99)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	assert.ErrorIs(t, r.UpdateLastLogin(context.Background(), 99, at), models.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_UpdateEmail(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repositories.NewAccountRepository(mock)
	now := time.Now()

	mock.ExpectQuery("UPDATE accounts SET email").
		WithArgs("new@example.com", int64(1)).
		WillReturnRows(pgxmock.NewRows(accountCols).
			AddRow(int64(1), "alice", "new@example.com", "hash", "USER", true, (*time.Time)(nil), now, now))

	account, err := r.UpdateEmail(context.Background(), 1, "new@example.com")
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", account.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}
