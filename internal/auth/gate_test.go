package auth

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mystic-aac/accountcenter/internal/models"
	"github.com/stretchr/testify/assert"
)

// stubAccessor returns a fixed state or error, or panics when asked
type stubAccessor struct {
	state models.SessionState
	err   error
	panic bool
}

func (s stubAccessor) Principal(*http.Request) (models.SessionState, error) {
	if s.panic {
		panic("corrupted session")
	}
	return s.state, s.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func present(role models.Role, active bool) models.SessionState {
	return models.PresentSession{User: models.SessionUser{
		ID:       1,
		Username: "alice",
		Role:     role,
		IsActive: active,
	}}
}

func TestRequireAuth(t *testing.T) {
	tests := []struct {
		name     string
		accessor stubAccessor
		want     Decision
	}{
		{"no session container", stubAccessor{err: ErrNoSession}, Decision{Outcome: RedirectToLogin}},
		{"store failure", stubAccessor{err: errors.New("db down")}, Decision{Outcome: RedirectToLogin}},
		{"anonymous", stubAccessor{state: models.AnonymousSession{}}, Decision{Outcome: RedirectToLogin}},
		{"nil state", stubAccessor{}, Decision{Outcome: RedirectToLogin}},
		{"missing id", stubAccessor{state: models.PresentSession{User: models.SessionUser{Role: models.RoleUser, IsActive: true}}}, Decision{Outcome: RedirectToLogin}},
		{"guest role", stubAccessor{state: present("GUEST", true)}, Decision{Outcome: Forbidden, Reason: ReasonUnauthorizedRole}},
		{"empty role", stubAccessor{state: present("", true)}, Decision{Outcome: Forbidden, Reason: ReasonUnauthorizedRole}},
		{"inactive user", stubAccessor{state: present(models.RoleUser, false)}, Decision{Outcome: Forbidden, Reason: ReasonAccountInactive}},
		{"unknown role wins over inactive", stubAccessor{state: present("GUEST", false)}, Decision{Outcome: Forbidden, Reason: ReasonUnauthorizedRole}},
		{"active user", stubAccessor{state: present(models.RoleUser, true)}, Decision{Outcome: Proceed}},
		{"active admin", stubAccessor{state: present(models.RoleAdmin, true)}, Decision{Outcome: Proceed}},
		{"panic fails closed", stubAccessor{panic: true}, Decision{Outcome: RedirectToLogin}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gate := NewSessionAuthGate(tt.accessor, discardLogger())
			req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)

			assert.Equal(t, tt.want, gate.RequireAuth(req))
		})
	}
}

func TestCheckPermission(t *testing.T) {
	tests := []struct {
		name     string
		state    models.SessionState
		err      error
		required models.Role
		want     Outcome
	}{
		{"admin required, user", present(models.RoleUser, true), nil, models.RoleAdmin, Forbidden},
		{"admin required, admin", present(models.RoleAdmin, true), nil, models.RoleAdmin, Proceed},
		{"user required, user", present(models.RoleUser, true), nil, models.RoleUser, Proceed},
		{"user required, admin", present(models.RoleAdmin, true), nil, models.RoleUser, Proceed},
		{"unknown role", present("GUEST", true), nil, models.RoleUser, Forbidden},
		{"anonymous", models.AnonymousSession{}, nil, models.RoleUser, Unauthorized},
		{"no session", nil, ErrNoSession, models.RoleUser, Unauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gate := NewSessionAuthGate(stubAccessor{state: tt.state, err: tt.err}, discardLogger())
			check := gate.CheckPermission(tt.required)
			req := httptest.NewRequest(http.MethodGet, "/news/create", nil)

			assert.Equal(t, tt.want, check(req).Outcome)
		})
	}
}

func TestPreventAuthenticatedAccess(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/account/login", nil)

	gate := NewSessionAuthGate(stubAccessor{state: present(models.RoleUser, true)}, discardLogger())
	assert.Equal(t, RedirectToDashboard, gate.PreventAuthenticatedAccess(req).Outcome)

	gate = NewSessionAuthGate(stubAccessor{state: models.AnonymousSession{}}, discardLogger())
	assert.Equal(t, Proceed, gate.PreventAuthenticatedAccess(req).Outcome)

	gate = NewSessionAuthGate(stubAccessor{err: ErrNoSession}, discardLogger())
	assert.Equal(t, Proceed, gate.PreventAuthenticatedAccess(req).Outcome)
}

func TestLogActivity_NeverPanics(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	gate := NewSessionAuthGate(stubAccessor{panic: true}, discardLogger())
	assert.NotPanics(t, func() { gate.LogActivity(req) })

	gate = NewSessionAuthGate(stubAccessor{state: present(models.RoleUser, true)}, discardLogger())
	assert.NotPanics(t, func() { gate.LogActivity(req) })
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "proceed", Proceed.String())
	assert.Equal(t, "forbidden", Forbidden.String())
	assert.Equal(t, "outcome(42)", Outcome(42).String())
}
