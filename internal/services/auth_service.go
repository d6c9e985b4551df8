package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mystic-aac/accountcenter/internal/auth"
	"github.com/mystic-aac/accountcenter/internal/models"
	pkgauth "github.com/mystic-aac/accountcenter/pkg/auth"
	pkglogger "github.com/mystic-aac/accountcenter/pkg/logger"
)

// AccountRepository defines the interface for account data access
type AccountRepository interface {
	Create(ctx context.Context, account *models.Account) (*models.Account, error)
	GetByID(ctx context.Context, id int64) (*models.Account, error)
	GetByUsername(ctx context.Context, username string) (*models.Account, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (usernameTaken, emailTaken bool, err error)
	UpdateEmail(ctx context.Context, id int64, email string) (*models.Account, error)
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error
}

// LoginEventRepository defines the interface for the login history
type LoginEventRepository interface {
	Record(ctx context.Context, event *models.LoginEvent) error
	RecentByUsername(ctx context.Context, username string, limit int) ([]models.LoginEvent, error)
}

// Login failure reasons recorded in the audit log and login history
const (
	FailureInvalidCredentials = "invalid_credentials"
	FailureRateLimited        = "rate_limited"
)

// LoginAttempt describes one submission of the login form
type LoginAttempt struct {
	Username      string
	Password      string
	IPAddress     string
	UserAgent     string
	Authenticated bool
}

// RegisterRequest carries a validated registration form
type RegisterRequest struct {
	Username string
	Email    string
	Password string
}

// AuthService verifies credentials, registers accounts and runs the
// guarded login flow
type AuthService struct {
	accounts    AccountRepository
	events      LoginEventRepository
	guard       *auth.LoginAttemptGuard
	delay       *auth.FailureDelay
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
	now         func() time.Time
}

// NewAuthService creates a new AuthService. events and delay may be nil.
func NewAuthService(accounts AccountRepository, events LoginEventRepository, guard *auth.LoginAttemptGuard, delay *auth.FailureDelay, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *AuthService {
	return &AuthService{
		accounts:    accounts,
		events:      events,
		guard:       guard,
		delay:       delay,
		logger:      logger,
		auditLogger: auditLogger,
		now:         time.Now,
	}
}

// Validate looks up the account and compares the password. Any mismatch
// returns models.ErrInvalidCredentials without saying which part was wrong.
func (s *AuthService) Validate(ctx context.Context, username, password string) (*models.SessionUser, error) {
	username = pkgauth.NormalizeUsername(username)
	if username == "" || password == "" {
		return nil, models.ErrInvalidCredentials
	}

	account, err := s.accounts.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrInvalidCredentials
		}
		s.logger.Error("failed to get account by username", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := pkgauth.ComparePassword(account.PasswordHash, password); err != nil {
		return nil, models.ErrInvalidCredentials
	}

	user := account.SessionUser()
	return &user, nil
}

// Authenticate checks the attempt guard and then the credentials. On
// success the caller installs the returned principal in the session and
// calls CompleteLogin. A *auth.RateLimitedError is returned when the
// username is blocked.
func (s *AuthService) Authenticate(ctx context.Context, attempt LoginAttempt) (*models.SessionUser, error) {
	start := s.now()
	key := pkgauth.NormalizeUsername(attempt.Username)

	if err := s.guard.Check(key, attempt.Authenticated); err != nil {
		var rl *auth.RateLimitedError
		if errors.As(err, &rl) {
			s.auditLogger.LogRateLimited(key, rl.RemainingMinutes)
		}
		s.recordEvent(ctx, attempt, key, false, FailureRateLimited)
		return nil, err
	}

	user, err := s.Validate(ctx, key, attempt.Password)
	if err != nil {
		if errors.Is(err, models.ErrInvalidCredentials) {
			s.auditLogger.LogLogin(pkglogger.AuditEvent{
				EventType:     "login_failed",
				Username:      key,
				IPAddress:     attempt.IPAddress,
				UserAgent:     attempt.UserAgent,
				FailureReason: FailureInvalidCredentials,
			})
			s.recordEvent(ctx, attempt, key, false, FailureInvalidCredentials)
			s.delay.WaitFrom(ctx, start)
		}
		return nil, err
	}

	return user, nil
}

// CompleteLogin resets the attempt counter and records a successful login.
// It must only be called after the principal has been written to the session.
func (s *AuthService) CompleteLogin(ctx context.Context, user *models.SessionUser, attempt LoginAttempt) {
	key := pkgauth.NormalizeUsername(user.Username)
	s.guard.Clear(key)

	if err := s.accounts.UpdateLastLogin(ctx, user.ID, s.now()); err != nil {
		s.logger.Warn("failed to update last login", slog.Int64("account_id", user.ID), slog.Any("error", err))
	}

	s.recordEvent(ctx, attempt, key, true, "")
	s.auditLogger.LogLogin(pkglogger.AuditEvent{
		EventType: "login_success",
		AccountID: user.ID,
		Username:  key,
		IPAddress: attempt.IPAddress,
		UserAgent: attempt.UserAgent,
		Success:   true,
	})
	s.logger.Info("account logged in", slog.Int64("account_id", user.ID))
}

// Register creates a USER account. Usernames and emails are stored lowercased.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest, ipAddress string) (*models.Account, error) {
	username := pkgauth.NormalizeUsername(req.Username)
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if !pkgauth.ValidUsername(username) {
		return nil, fmt.Errorf("%w: invalid username", models.ErrBadRequest)
	}
	if err := pkgauth.ValidatePassword(req.Password); err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrBadRequest, err)
	}

	usernameTaken, emailTaken, err := s.accounts.ExistsByUsernameOrEmail(ctx, username, email)
	if err != nil {
		s.logger.Error("failed to check account existence", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	if usernameTaken || emailTaken {
		s.logger.Info("registration rejected: account exists",
			slog.Bool("username_taken", usernameTaken),
			slog.Bool("email_taken", emailTaken))
		return nil, models.ErrConflict
	}

	hash, err := pkgauth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	account, err := s.accounts.Create(ctx, &models.Account{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleUser,
		IsActive:     true,
	})
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, models.ErrConflict
		}
		s.logger.Error("failed to create account", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.auditLogger.LogAccountAction("account_created", account.ID, ipAddress, map[string]string{
		"username": pkglogger.SanitizedUsername(account.Username),
	})
	return account, nil
}

// Logout records the end of a session for the audit trail
func (s *AuthService) Logout(user *models.SessionUser, ipAddress string) {
	if user == nil {
		return
	}
	s.auditLogger.LogAccountAction("logout", user.ID, ipAddress, nil)
}

// RecentLogins returns the latest login decisions for a username
func (s *AuthService) RecentLogins(ctx context.Context, username string, limit int) ([]models.LoginEvent, error) {
	if s.events == nil {
		return nil, nil
	}
	events, err := s.events.RecentByUsername(ctx, pkgauth.NormalizeUsername(username), limit)
	if err != nil {
		s.logger.Error("failed to list login events", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return events, nil
}

// recordEvent appends to the login history. Failures are logged only.
func (s *AuthService) recordEvent(ctx context.Context, attempt LoginAttempt, username string, success bool, reason string) {
	if s.events == nil || username == "" {
		return
	}

	event := &models.LoginEvent{
		Username:  username,
		IPAddress: attempt.IPAddress,
		UserAgent: attempt.UserAgent,
		Success:   success,
	}
	if reason != "" {
		event.FailureReason = &reason
	}

	if err := s.events.Record(ctx, event); err != nil {
		s.logger.Warn("failed to record login event", slog.Any("error", err))
	}
}
