package services

import (
	"context"
	"testing"

	"github.com/mystic-aac/accountcenter/internal/models"
	pkglogger "github.com/mystic-aac/accountcenter/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAccountService(repo AccountRepository) *AccountService {
	logger := discardLogger()
	return NewAccountService(repo, logger, pkglogger.NewAuditLogger(logger))
}

func TestAccountService_GetAccount(t *testing.T) {
	repo := &MockAccountRepository{
		GetByIDFunc: func(ctx context.Context, id int64) (*models.Account, error) {
			return NewTestAccount(id, "alice", "alice@example.com"), nil
		},
	}

	account, err := newAccountService(repo).GetAccount(context.Background(), 3)

	require.NoError(t, err)
	assert.Equal(t, int64(3), account.ID)
}

func TestAccountService_GetAccount_NotFound(t *testing.T) {
	_, err := newAccountService(&MockAccountRepository{}).GetAccount(context.Background(), 3)

	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestAccountService_UpdateEmail(t *testing.T) {
	var gotEmail string
	repo := &MockAccountRepository{
		UpdateEmailFunc: func(ctx context.Context, id int64, email string) (*models.Account, error) {
			gotEmail = email
			return NewTestAccount(id, "alice", email), nil
		},
	}

	account, err := newAccountService(repo).UpdateEmail(context.Background(), 1, " New@Example.COM ", "")

	require.NoError(t, err)
	assert.Equal(t, "new@example.com", gotEmail)
	assert.Equal(t, "new@example.com", account.Email)
}

func TestAccountService_UpdateEmail_Conflict(t *testing.T) {
	repo := &MockAccountRepository{
		UpdateEmailFunc: func(ctx context.Context, id int64, email string) (*models.Account, error) {
			return nil, models.ErrConflict
		},
	}

	_, err := newAccountService(repo).UpdateEmail(context.Background(), 1, "taken@example.com", "")

	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestAccountService_UpdateEmail_Empty(t *testing.T) {
	_, err := newAccountService(&MockAccountRepository{}).UpdateEmail(context.Background(), 1, "  ", "")

	assert.ErrorIs(t, err, models.ErrBadRequest)
}
