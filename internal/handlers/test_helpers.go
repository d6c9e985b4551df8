package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/mystic-aac/accountcenter/internal/auth"
	"github.com/mystic-aac/accountcenter/internal/models"
	"github.com/mystic-aac/accountcenter/internal/services"
	pkghttp "github.com/mystic-aac/accountcenter/pkg/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SessionCookieName is the cookie name used by TestEnv
const SessionCookieName = "test_session"

const testSecret = "handler-test-secret-with-32-chars"

// TestEnv wires a real session manager over an in-memory store
type TestEnv struct {
	Store    *auth.MemoryStore
	Codec    *auth.CookieCodec
	Sessions *auth.SessionManager
	Render   *Renderer
	Logger   *slog.Logger
}

// NewTestEnv creates a TestEnv whose pages report "Mystic" with 3 players online
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := auth.NewMemoryStore()
	codec := auth.NewCookieCodec(testSecret)
	sessions := auth.NewSessionManager(store, codec, time.Hour, auth.CookieConfig{Name: SessionCookieName, SameSite: "lax"}, logger)

	render, err := NewRenderer(sessions, StubStatus{Name: "Mystic", Online: 3}, logger)
	require.NoError(t, err)

	return &TestEnv{Store: store, Codec: codec, Sessions: sessions, Render: render, Logger: logger}
}

// Serve routes req to handler behind the session middleware. pattern may
// contain chi URL parameters.
func (e *TestEnv) Serve(method, pattern string, handler http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	router := chi.NewRouter()
	router.Use(e.Sessions.Middleware)
	router.Method(method, pattern, handler)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

// LoginAs stores a session holding user and returns its cookie
func (e *TestEnv) LoginAs(t *testing.T, user models.SessionUser) *http.Cookie {
	t.Helper()
	now := time.Now()
	record := &models.SessionRecord{
		ID:        uuid.NewString(),
		User:      &user,
		ExpiresAt: now.Add(time.Hour),
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, e.Store.Save(context.Background(), record))

	value, err := e.Codec.Encode(record.ID, record.ExpiresAt)
	require.NoError(t, err)
	return &http.Cookie{Name: SessionCookieName, Value: value}
}

// NewFormRequest creates a urlencoded form request
func NewFormRequest(method, target string, form url.Values) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

// NewTestRequest creates an HTTP request with JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body any) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// SessionCookie returns the named cookie set by the response, if any
func SessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == SessionCookieName {
			return c
		}
	}
	return nil
}

// AssertJSONResponse checks that response has correct status and decodes JSON body
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target any) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"), "Content-Type should be application/json")

	if target != nil {
		err := json.Unmarshal(w.Body.Bytes(), target)
		assert.NoError(t, err, "Failed to decode response JSON")
	}
}

// AssertErrorResponse checks that response is a valid error response
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedError string) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	var resp pkghttp.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err, "Failed to decode error response")
	assert.Equal(t, expectedError, resp.Error, "Error code mismatch")
	assert.NotEmpty(t, resp.Message, "Error message should not be empty")
}

// StubStatus implements StatusProvider with fixed values
type StubStatus services.ServerStatus

func (s StubStatus) Status(ctx context.Context) services.ServerStatus {
	return services.ServerStatus(s)
}

// StubPinger implements Pinger
type StubPinger struct {
	Err error
}

func (p StubPinger) HealthCheck(ctx context.Context) error {
	return p.Err
}

// MockAuthService implements AuthServiceInterface for testing
type MockAuthService struct {
	AuthenticateFunc  func(ctx context.Context, attempt services.LoginAttempt) (*models.SessionUser, error)
	CompleteLoginFunc func(ctx context.Context, user *models.SessionUser, attempt services.LoginAttempt)
	RegisterFunc      func(ctx context.Context, req services.RegisterRequest, ipAddress string) (*models.Account, error)
	LogoutFunc        func(user *models.SessionUser, ipAddress string)
}

func (m *MockAuthService) Authenticate(ctx context.Context, attempt services.LoginAttempt) (*models.SessionUser, error) {
	if m.AuthenticateFunc == nil {
		return nil, models.ErrInvalidCredentials
	}
	return m.AuthenticateFunc(ctx, attempt)
}

func (m *MockAuthService) CompleteLogin(ctx context.Context, user *models.SessionUser, attempt services.LoginAttempt) {
	if m.CompleteLoginFunc != nil {
		m.CompleteLoginFunc(ctx, user, attempt)
	}
}

func (m *MockAuthService) Register(ctx context.Context, req services.RegisterRequest, ipAddress string) (*models.Account, error) {
	if m.RegisterFunc == nil {
		return nil, models.ErrConflict
	}
	return m.RegisterFunc(ctx, req, ipAddress)
}

func (m *MockAuthService) Logout(user *models.SessionUser, ipAddress string) {
	if m.LogoutFunc != nil {
		m.LogoutFunc(user, ipAddress)
	}
}

// MockAccountService implements AccountServiceInterface for testing
type MockAccountService struct {
	GetAccountFunc  func(ctx context.Context, id int64) (*models.Account, error)
	UpdateEmailFunc func(ctx context.Context, id int64, email, ipAddress string) (*models.Account, error)
}

func (m *MockAccountService) GetAccount(ctx context.Context, id int64) (*models.Account, error) {
	if m.GetAccountFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.GetAccountFunc(ctx, id)
}

func (m *MockAccountService) UpdateEmail(ctx context.Context, id int64, email, ipAddress string) (*models.Account, error) {
	if m.UpdateEmailFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.UpdateEmailFunc(ctx, id, email, ipAddress)
}

// MockCharacterService implements CharacterServiceInterface for testing
type MockCharacterService struct {
	CreateFunc        func(ctx context.Context, accountID int64, req services.CreateCharacterRequest, ipAddress string) (*models.Player, error)
	ListByAccountFunc func(ctx context.Context, accountID int64) ([]models.Player, error)
	GetFunc           func(ctx context.Context, id int64) (*models.Player, error)
	UpdateFunc        func(ctx context.Context, id int64, editor models.SessionUser, upd models.PlayerUpdate) (*models.Player, error)
}

func (m *MockCharacterService) Create(ctx context.Context, accountID int64, req services.CreateCharacterRequest, ipAddress string) (*models.Player, error) {
	if m.CreateFunc == nil {
		return nil, models.ErrInternalServer
	}
	return m.CreateFunc(ctx, accountID, req, ipAddress)
}

func (m *MockCharacterService) ListByAccount(ctx context.Context, accountID int64) ([]models.Player, error) {
	if m.ListByAccountFunc == nil {
		return []models.Player{}, nil
	}
	return m.ListByAccountFunc(ctx, accountID)
}

func (m *MockCharacterService) Get(ctx context.Context, id int64) (*models.Player, error) {
	if m.GetFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.GetFunc(ctx, id)
}

func (m *MockCharacterService) Update(ctx context.Context, id int64, editor models.SessionUser, upd models.PlayerUpdate) (*models.Player, error) {
	if m.UpdateFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.UpdateFunc(ctx, id, editor, upd)
}

// MockNewsService implements NewsServiceInterface for testing
type MockNewsService struct {
	LatestFunc func(ctx context.Context, limit int) ([]models.News, error)
	GetFunc    func(ctx context.Context, id int64) (*models.News, error)
	CreateFunc func(ctx context.Context, authorID int64, in services.NewsInput) (*models.News, error)
	UpdateFunc func(ctx context.Context, id int64, in services.NewsInput) (*models.News, error)
	DeleteFunc func(ctx context.Context, id int64) error
}

func (m *MockNewsService) Latest(ctx context.Context, limit int) ([]models.News, error) {
	if m.LatestFunc == nil {
		return []models.News{}, nil
	}
	return m.LatestFunc(ctx, limit)
}

func (m *MockNewsService) Get(ctx context.Context, id int64) (*models.News, error) {
	if m.GetFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.GetFunc(ctx, id)
}

func (m *MockNewsService) Create(ctx context.Context, authorID int64, in services.NewsInput) (*models.News, error) {
	if m.CreateFunc == nil {
		return nil, models.ErrInternalServer
	}
	return m.CreateFunc(ctx, authorID, in)
}

func (m *MockNewsService) Update(ctx context.Context, id int64, in services.NewsInput) (*models.News, error) {
	if m.UpdateFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.UpdateFunc(ctx, id, in)
}

func (m *MockNewsService) Delete(ctx context.Context, id int64) error {
	if m.DeleteFunc == nil {
		return models.ErrNotFound
	}
	return m.DeleteFunc(ctx, id)
}

// MockLeaderboardService implements LeaderboardServiceInterface for testing
type MockLeaderboardService struct {
	PageFunc func(ctx context.Context, q services.LeaderboardQuery) (*services.LeaderboardPage, error)
}

func (m *MockLeaderboardService) Page(ctx context.Context, q services.LeaderboardQuery) (*services.LeaderboardPage, error) {
	if m.PageFunc == nil {
		return &services.LeaderboardPage{Page: 1, Limit: 10, Players: []models.Player{}}, nil
	}
	return m.PageFunc(ctx, q)
}

// MockLoginHistory implements LoginHistoryInterface for testing
type MockLoginHistory struct {
	RecentLoginsFunc func(ctx context.Context, username string, limit int) ([]models.LoginEvent, error)
}

func (m *MockLoginHistory) RecentLogins(ctx context.Context, username string, limit int) ([]models.LoginEvent, error) {
	if m.RecentLoginsFunc == nil {
		return []models.LoginEvent{}, nil
	}
	return m.RecentLoginsFunc(ctx, username, limit)
}
