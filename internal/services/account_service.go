package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/mystic-aac/accountcenter/internal/models"
	pkglogger "github.com/mystic-aac/accountcenter/pkg/logger"
)

// AccountService handles profile reads and updates for logged-in accounts
type AccountService struct {
	repo        AccountRepository
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

// NewAccountService creates a new AccountService
func NewAccountService(repo AccountRepository, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *AccountService {
	return &AccountService{
		repo:        repo,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// GetAccount retrieves an account by ID
func (s *AccountService) GetAccount(ctx context.Context, id int64) (*models.Account, error) {
	account, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("account not found", slog.Int64("account_id", id))
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get account", slog.Int64("account_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return account, nil
}

// UpdateEmail changes the account email and returns the refreshed account
func (s *AccountService) UpdateEmail(ctx context.Context, id int64, email, ipAddress string) (*models.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, models.ErrBadRequest
	}

	account, err := s.repo.UpdateEmail(ctx, id, email)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrConflict):
			return nil, models.ErrConflict
		case errors.Is(err, models.ErrNotFound):
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to update email", slog.Int64("account_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.auditLogger.LogAccountAction("email_changed", id, ipAddress, map[string]string{
		"email": pkglogger.SanitizedEmail(email),
	})
	return account, nil
}
