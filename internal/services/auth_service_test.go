package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/mystic-aac/accountcenter/internal/auth"
	"github.com/mystic-aac/accountcenter/internal/models"
	pkgauth "github.com/mystic-aac/accountcenter/pkg/auth"
	pkglogger "github.com/mystic-aac/accountcenter/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPassword = "Secure@Pass1"

var (
	testHashOnce sync.Once
	testHash     string
)

func passwordHash(t *testing.T) string {
	t.Helper()
	testHashOnce.Do(func() {
		h, err := pkgauth.HashPassword(testPassword)
		require.NoError(t, err)
		testHash = h
	})
	return testHash
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type eventLog struct {
	mu     sync.Mutex
	events []models.LoginEvent
}

func (l *eventLog) repo() *MockLoginEventRepository {
	return &MockLoginEventRepository{
		RecordFunc: func(ctx context.Context, event *models.LoginEvent) error {
			l.mu.Lock()
			defer l.mu.Unlock()
			l.events = append(l.events, *event)
			return nil
		},
	}
}

func newAuthService(accounts AccountRepository, events LoginEventRepository, guard *auth.LoginAttemptGuard) *AuthService {
	logger := discardLogger()
	return NewAuthService(accounts, events, guard, nil, logger, pkglogger.NewAuditLogger(logger))
}

func aliceRepo(t *testing.T) *MockAccountRepository {
	account := NewTestAccount(1, "alice", "alice@example.com")
	account.PasswordHash = passwordHash(t)
	return &MockAccountRepository{
		GetByUsernameFunc: func(ctx context.Context, username string) (*models.Account, error) {
			if username == "alice" {
				return account, nil
			}
			return nil, models.ErrNotFound
		},
	}
}

// ============================================================================
// Validate Tests
// ============================================================================

func TestAuthService_Validate_Success(t *testing.T) {
	svc := newAuthService(aliceRepo(t), nil, auth.NewLoginAttemptGuard(10, 30*time.Minute))

	user, err := svc.Validate(context.Background(), "  Alice ", testPassword)

	require.NoError(t, err)
	assert.Equal(t, int64(1), user.ID)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.True(t, user.IsActive)
}

func TestAuthService_Validate_WrongPassword(t *testing.T) {
	svc := newAuthService(aliceRepo(t), nil, auth.NewLoginAttemptGuard(10, 30*time.Minute))

	user, err := svc.Validate(context.Background(), "alice", "Wrong@Pass1")

	assert.ErrorIs(t, err, models.ErrInvalidCredentials)
	assert.Nil(t, user)
}

func TestAuthService_Validate_UnknownUser(t *testing.T) {
	svc := newAuthService(aliceRepo(t), nil, auth.NewLoginAttemptGuard(10, 30*time.Minute))

	_, err := svc.Validate(context.Background(), "mallory", testPassword)

	assert.ErrorIs(t, err, models.ErrInvalidCredentials)
}

func TestAuthService_Validate_RepositoryError(t *testing.T) {
	repo := &MockAccountRepository{
		GetByUsernameFunc: func(ctx context.Context, username string) (*models.Account, error) {
			return nil, errors.New("connection reset")
		},
	}
	svc := newAuthService(repo, nil, auth.NewLoginAttemptGuard(10, 30*time.Minute))

	_, err := svc.Validate(context.Background(), "alice", testPassword)

	assert.ErrorIs(t, err, models.ErrInternalServer)
}

func TestAuthService_Validate_EmptyInput(t *testing.T) {
	svc := newAuthService(&MockAccountRepository{}, nil, auth.NewLoginAttemptGuard(10, 30*time.Minute))

	_, err := svc.Validate(context.Background(), " ", testPassword)
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)

	_, err = svc.Validate(context.Background(), "alice", "")
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)
}

// ============================================================================
// Authenticate / CompleteLogin Tests
// ============================================================================

func TestAuthService_Authenticate_FailureRecordsAttempt(t *testing.T) {
	guard := auth.NewLoginAttemptGuard(10, 30*time.Minute)
	events := &eventLog{}
	svc := newAuthService(aliceRepo(t), events.repo(), guard)

	_, err := svc.Authenticate(context.Background(), LoginAttempt{
		Username:  "Alice",
		Password:  "Wrong@Pass1",
		IPAddress: "203.0.113.9",
	})

	assert.ErrorIs(t, err, models.ErrInvalidCredentials)
	assert.Equal(t, 1, guard.Attempts("alice"))
	require.Len(t, events.events, 1)
	assert.False(t, events.events[0].Success)
	require.NotNil(t, events.events[0].FailureReason)
	assert.Equal(t, FailureInvalidCredentials, *events.events[0].FailureReason)
	assert.Equal(t, "203.0.113.9", events.events[0].IPAddress)
}

func TestAuthService_Authenticate_BlocksAfterMaxAttempts(t *testing.T) {
	guard := auth.NewLoginAttemptGuard(10, 30*time.Minute)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	guard.SetClock(func() time.Time { return now })
	events := &eventLog{}
	svc := newAuthService(aliceRepo(t), events.repo(), guard)
	attempt := LoginAttempt{Username: "alice", Password: "Wrong@Pass1"}

	for i := 0; i < 10; i++ {
		_, err := svc.Authenticate(context.Background(), attempt)
		require.ErrorIs(t, err, models.ErrInvalidCredentials, "attempt %d", i+1)
	}

	// Even the right password is refused inside the block window
	attempt.Password = testPassword
	_, err := svc.Authenticate(context.Background(), attempt)

	require.ErrorIs(t, err, models.ErrRateLimited)
	var rl *auth.RateLimitedError
	require.ErrorAs(t, err, &rl)
	assert.Equal(t, 30, rl.RemainingMinutes)
	assert.Equal(t, FailureRateLimited, *events.events[len(events.events)-1].FailureReason)

	now = now.Add(31 * time.Minute)
	user, err := svc.Authenticate(context.Background(), attempt)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
}

func TestAuthService_Authenticate_AuthenticatedBypassesGuard(t *testing.T) {
	guard := auth.NewLoginAttemptGuard(1, 30*time.Minute)
	svc := newAuthService(aliceRepo(t), nil, guard)

	_, _ = svc.Authenticate(context.Background(), LoginAttempt{Username: "alice", Password: "x"})
	_, err := svc.Authenticate(context.Background(), LoginAttempt{Username: "alice", Password: "x"})
	require.ErrorIs(t, err, models.ErrRateLimited)

	user, err := svc.Authenticate(context.Background(), LoginAttempt{
		Username:      "alice",
		Password:      testPassword,
		Authenticated: true,
	})
	require.NoError(t, err)
	assert.NotNil(t, user)
	assert.Equal(t, 1, guard.Attempts("alice"))
}

func TestAuthService_Authenticate_SuccessDoesNotClear(t *testing.T) {
	guard := auth.NewLoginAttemptGuard(10, 30*time.Minute)
	svc := newAuthService(aliceRepo(t), nil, guard)

	_, err := svc.Authenticate(context.Background(), LoginAttempt{Username: "alice", Password: testPassword})

	require.NoError(t, err)
	assert.Equal(t, 1, guard.Attempts("alice"))
}

func TestAuthService_CompleteLogin(t *testing.T) {
	guard := auth.NewLoginAttemptGuard(10, 30*time.Minute)
	events := &eventLog{}
	var lastLoginID int64
	repo := aliceRepo(t)
	repo.UpdateLastLoginFunc = func(ctx context.Context, id int64, at time.Time) error {
		lastLoginID = id
		return nil
	}
	svc := newAuthService(repo, events.repo(), guard)
	attempt := LoginAttempt{Username: "alice", Password: testPassword, UserAgent: "test-agent"}

	user, err := svc.Authenticate(context.Background(), attempt)
	require.NoError(t, err)
	svc.CompleteLogin(context.Background(), user, attempt)

	assert.Equal(t, 0, guard.Attempts("alice"))
	assert.Equal(t, int64(1), lastLoginID)
	require.Len(t, events.events, 1)
	assert.True(t, events.events[0].Success)
	assert.Nil(t, events.events[0].FailureReason)
	assert.Equal(t, "test-agent", events.events[0].UserAgent)
}

func TestAuthService_CompleteLogin_IgnoresWriteFailures(t *testing.T) {
	guard := auth.NewLoginAttemptGuard(10, 30*time.Minute)
	guard.Allow("alice", false)
	repo := &MockAccountRepository{
		UpdateLastLoginFunc: func(ctx context.Context, id int64, at time.Time) error {
			return errors.New("db down")
		},
	}
	events := &MockLoginEventRepository{
		RecordFunc: func(ctx context.Context, event *models.LoginEvent) error {
			return errors.New("db down")
		},
	}
	svc := newAuthService(repo, events, guard)

	assert.NotPanics(t, func() {
		svc.CompleteLogin(context.Background(), &models.SessionUser{ID: 1, Username: "alice"}, LoginAttempt{})
	})
	assert.Equal(t, 0, guard.Attempts("alice"))
}

// ============================================================================
// Register Tests
// ============================================================================

func TestAuthService_Register_Success(t *testing.T) {
	var created *models.Account
	repo := &MockAccountRepository{
		CreateFunc: func(ctx context.Context, account *models.Account) (*models.Account, error) {
			created = account
			account.ID = 7
			return account, nil
		},
	}
	svc := newAuthService(repo, nil, auth.NewLoginAttemptGuard(10, 30*time.Minute))

	account, err := svc.Register(context.Background(), RegisterRequest{
		Username: "New_Player",
		Email:    " Player@Example.com ",
		Password: testPassword,
	}, "127.0.0.1")

	require.NoError(t, err)
	assert.Equal(t, int64(7), account.ID)
	assert.Equal(t, "new_player", created.Username)
	assert.Equal(t, "player@example.com", created.Email)
	assert.Equal(t, models.RoleUser, created.Role)
	assert.True(t, created.IsActive)
	assert.NoError(t, pkgauth.ComparePassword(created.PasswordHash, testPassword))
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	repo := &MockAccountRepository{
		ExistsByUsernameOrEmailFunc: func(ctx context.Context, username, email string) (bool, bool, error) {
			return false, true, nil
		},
	}
	svc := newAuthService(repo, nil, auth.NewLoginAttemptGuard(10, 30*time.Minute))

	_, err := svc.Register(context.Background(), RegisterRequest{
		Username: "someone",
		Email:    "taken@example.com",
		Password: testPassword,
	}, "")

	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestAuthService_Register_InvalidInput(t *testing.T) {
	svc := newAuthService(&MockAccountRepository{}, nil, auth.NewLoginAttemptGuard(10, 30*time.Minute))

	tests := []struct {
		name string
		req  RegisterRequest
	}{
		{"short username", RegisterRequest{Username: "ab", Email: "a@b.co", Password: testPassword}},
		{"bad characters", RegisterRequest{Username: "bad name", Email: "a@b.co", Password: testPassword}},
		{"weak password", RegisterRequest{Username: "player", Email: "a@b.co", Password: "password"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.req, "")
			assert.ErrorIs(t, err, models.ErrBadRequest)
		})
	}
}

func TestAuthService_RecentLogins(t *testing.T) {
	var gotUsername string
	events := &MockLoginEventRepository{
		RecentByUsernameFunc: func(ctx context.Context, username string, limit int) ([]models.LoginEvent, error) {
			gotUsername = username
			return []models.LoginEvent{{Username: username, Success: true}}, nil
		},
	}
	svc := newAuthService(&MockAccountRepository{}, events, auth.NewLoginAttemptGuard(10, 30*time.Minute))

	list, err := svc.RecentLogins(context.Background(), "Alice", 5)

	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, "alice", gotUsername)
}
