package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mystic-aac/accountcenter/internal/models"
	pkgauth "github.com/mystic-aac/accountcenter/pkg/auth"
)

// contextKey is a custom type for context keys
type contextKey string

const sessionContextKey contextKey = "session"

// ErrNoSession means the session middleware did not run for the request
var ErrNoSession = errors.New("no session attached to request")

// Session is the per-request view of a session record.
// A fresh session is not written to the store until it is modified
type Session struct {
	mu        sync.Mutex
	record    models.SessionRecord
	persisted bool
}

func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record.ID
}

// State returns the session's principal as a SessionState
func (s *Session) State() models.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record.State()
}

// SessionFromContext returns the session attached by SessionManager.Middleware
func SessionFromContext(ctx context.Context) (*Session, bool) {
	sess, ok := ctx.Value(sessionContextKey).(*Session)
	return sess, ok && sess != nil
}

// WithSession attaches sess to ctx
func WithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, sess)
}

// NewSessionFromRecord wraps an existing record, used by tests and tooling
func NewSessionFromRecord(record models.SessionRecord) *Session {
	return &Session{record: record, persisted: true}
}

// SessionManager loads sessions from signed cookies and writes them back
// through a SessionStore
type SessionManager struct {
	store  SessionStore
	codec  *CookieCodec
	ttl    time.Duration
	cookie CookieConfig
	logger *slog.Logger
	now    Clock
}

// NewSessionManager creates a session manager whose sessions live for ttl
func NewSessionManager(store SessionStore, codec *CookieCodec, ttl time.Duration, cookie CookieConfig, logger *slog.Logger) *SessionManager {
	if cookie.Name == "" {
		cookie.Name = "session"
	}
	return &SessionManager{
		store:  store,
		codec:  codec,
		ttl:    ttl,
		cookie: cookie,
		logger: logger,
		now:    time.Now,
	}
}

// SetClock replaces the time source for the manager and its cookie codec
func (m *SessionManager) SetClock(clock Clock) {
	m.now = clock
	m.codec.now = clock
}

// Middleware attaches a *Session to every request context. Missing,
// tampered or expired cookies and store failures all produce a fresh
// anonymous session
func (m *SessionManager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := m.load(r)
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
	})
}

func (m *SessionManager) load(r *http.Request) *Session {
	cookie, err := r.Cookie(m.cookie.Name)
	if err != nil || cookie.Value == "" {
		return m.newSession()
	}

	id, err := m.codec.Decode(cookie.Value)
	if err != nil {
		m.logger.Debug("discarding session cookie", slog.String("error", err.Error()))
		return m.newSession()
	}

	rec, err := m.store.Get(r.Context(), id)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			m.logger.Error("failed to load session", slog.String("error", err.Error()))
		}
		return m.newSession()
	}

	return &Session{record: *rec, persisted: true}
}

func (m *SessionManager) newSession() *Session {
	now := m.now()
	return &Session{
		record: models.SessionRecord{
			ID:        uuid.NewString(),
			ExpiresAt: now.Add(m.ttl),
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
}

// Principal returns the session state of r, or ErrNoSession
func (m *SessionManager) Principal(r *http.Request) (models.SessionState, error) {
	sess, ok := SessionFromContext(r.Context())
	if !ok {
		return nil, ErrNoSession
	}
	return sess.State(), nil
}

// SetPrincipal installs user into the session under a new session id.
// The previous id is deleted so a pre-login cookie cannot be reused
func (m *SessionManager) SetPrincipal(w http.ResponseWriter, r *http.Request, user models.SessionUser) error {
	sess, ok := SessionFromContext(r.Context())
	if !ok {
		return ErrNoSession
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	oldID, wasPersisted := sess.record.ID, sess.persisted

	sess.record.ID = uuid.NewString()
	sess.record.User = &user
	sess.record.CSRFToken = ""
	sess.record.CreatedAt = m.now()

	if err := m.persistLocked(r.Context(), w, sess); err != nil {
		return err
	}

	if wasPersisted {
		if err := m.store.Delete(r.Context(), oldID); err != nil {
			m.logger.Warn("failed to delete previous session", slog.String("error", err.Error()))
		}
	}
	return nil
}

// RefreshPrincipal replaces the stored principal without rotating the id
func (m *SessionManager) RefreshPrincipal(w http.ResponseWriter, r *http.Request, user models.SessionUser) error {
	sess, ok := SessionFromContext(r.Context())
	if !ok {
		return ErrNoSession
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.record.User == nil {
		return models.ErrUnauthorized
	}
	sess.record.User = &user
	return m.persistLocked(r.Context(), w, sess)
}

// Destroy deletes the session and expires the cookie. The request continues
// with a fresh anonymous session
func (m *SessionManager) Destroy(w http.ResponseWriter, r *http.Request) error {
	clearSessionCookie(w, m.cookie)

	sess, ok := SessionFromContext(r.Context())
	if !ok {
		return nil
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	var err error
	if sess.persisted {
		if err = m.store.Delete(r.Context(), sess.record.ID); err != nil {
			err = fmt.Errorf("failed to delete session: %w", err)
		}
	}

	fresh := m.newSession()
	sess.record = fresh.record
	sess.persisted = false
	return err
}

// AddFlash queues a message for the next rendered page
func (m *SessionManager) AddFlash(w http.ResponseWriter, r *http.Request, message string) error {
	sess, ok := SessionFromContext(r.Context())
	if !ok {
		return ErrNoSession
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.record.Flash = append(sess.record.Flash, message)
	return m.persistLocked(r.Context(), w, sess)
}

// PopFlash returns and clears queued messages
func (m *SessionManager) PopFlash(w http.ResponseWriter, r *http.Request) []string {
	sess, ok := SessionFromContext(r.Context())
	if !ok {
		return nil
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if len(sess.record.Flash) == 0 {
		return nil
	}

	flash := sess.record.Flash
	sess.record.Flash = nil
	if err := m.persistLocked(r.Context(), w, sess); err != nil {
		m.logger.Warn("failed to clear flash messages", slog.String("error", err.Error()))
	}
	return flash
}

// CSRFToken returns the session's form token, issuing one if needed
func (m *SessionManager) CSRFToken(w http.ResponseWriter, r *http.Request) (string, error) {
	sess, ok := SessionFromContext(r.Context())
	if !ok {
		return "", ErrNoSession
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.record.CSRFToken != "" {
		return sess.record.CSRFToken, nil
	}

	token, err := pkgauth.GenerateRandomToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate csrf token: %w", err)
	}
	sess.record.CSRFToken = token

	if err := m.persistLocked(r.Context(), w, sess); err != nil {
		return "", err
	}
	return token, nil
}

// ValidCSRF reports whether token matches the session's form token
func (m *SessionManager) ValidCSRF(r *http.Request, token string) bool {
	sess, ok := SessionFromContext(r.Context())
	if !ok || token == "" {
		return false
	}

	sess.mu.Lock()
	expected := sess.record.CSRFToken
	sess.mu.Unlock()

	if expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(token)) == 1
}

func (m *SessionManager) persistLocked(ctx context.Context, w http.ResponseWriter, sess *Session) error {
	now := m.now()
	sess.record.UpdatedAt = now
	sess.record.ExpiresAt = now.Add(m.ttl)

	if err := m.store.Save(ctx, &sess.record); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	value, err := m.codec.Encode(sess.record.ID, sess.record.ExpiresAt)
	if err != nil {
		return err
	}

	setSessionCookie(w, value, sess.record.ExpiresAt, int(m.ttl.Seconds()), m.cookie)
	sess.persisted = true
	return nil
}
