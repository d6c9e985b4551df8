package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/mystic-aac/accountcenter/internal/models"
)

// Outcome is the routing decision produced by SessionAuthGate
type Outcome int

const (
	Proceed Outcome = iota
	RedirectToLogin
	RedirectToDashboard
	Unauthorized
	Forbidden
)

func (o Outcome) String() string {
	switch o {
	case Proceed:
		return "proceed"
	case RedirectToLogin:
		return "redirect-to-login"
	case RedirectToDashboard:
		return "redirect-to-dashboard"
	case Unauthorized:
		return "unauthorized"
	case Forbidden:
		return "forbidden"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Forbidden reasons
const (
	ReasonUnauthorizedRole = "unauthorized-role"
	ReasonAccountInactive  = "account-inactive"
	ReasonInsufficientRole = "insufficient-role"
)

// Decision is an Outcome plus the reason for a Forbidden result
type Decision struct {
	Outcome Outcome
	Reason  string
}

func (d Decision) Allowed() bool {
	return d.Outcome == Proceed
}

var (
	proceed         = Decision{Outcome: Proceed}
	redirectToLogin = Decision{Outcome: RedirectToLogin}
)

func forbidden(reason string) Decision {
	return Decision{Outcome: Forbidden, Reason: reason}
}

// SessionAccessor reads the principal attached to a request.
// It returns ErrNoSession when the request carries no session container
type SessionAccessor interface {
	Principal(r *http.Request) (models.SessionState, error)
}

// SessionAuthGate decides whether a request may reach a protected handler
type SessionAuthGate struct {
	sessions SessionAccessor
	logger   *slog.Logger
}

// NewSessionAuthGate creates a new SessionAuthGate
func NewSessionAuthGate(sessions SessionAccessor, logger *slog.Logger) *SessionAuthGate {
	return &SessionAuthGate{sessions: sessions, logger: logger}
}

// RequireAuth admits requests whose principal has an allowed role and an
// active account. Any fault while deciding yields RedirectToLogin
func (g *SessionAuthGate) RequireAuth(r *http.Request) (d Decision) {
	defer func() {
		if p := recover(); p != nil {
			g.logger.Error("session auth check failed",
				slog.String("path", r.URL.Path),
				slog.Any("panic", p),
			)
			d = redirectToLogin
		}
	}()

	state, err := g.sessions.Principal(r)
	if err != nil {
		if !errors.Is(err, ErrNoSession) {
			g.logger.Error("failed to read session principal", slog.String("error", err.Error()))
		}
		return redirectToLogin
	}

	user, ok := models.Principal(state)
	if !ok || user.ID == 0 {
		return redirectToLogin
	}

	if !user.Role.Valid() {
		return forbidden(ReasonUnauthorizedRole)
	}
	if !user.IsActive {
		return forbidden(ReasonAccountInactive)
	}

	return proceed
}

// CheckPermission returns a checker that fails with Unauthorized when no
// principal is present and Forbidden when its role ranks below required
func (g *SessionAuthGate) CheckPermission(required models.Role) func(r *http.Request) Decision {
	return func(r *http.Request) Decision {
		state, err := g.sessions.Principal(r)
		if err != nil {
			return Decision{Outcome: Unauthorized}
		}
		return Permits(state, required)
	}
}

// Permits compares a session state against a required role
func Permits(state models.SessionState, required models.Role) Decision {
	user, ok := models.Principal(state)
	if !ok {
		return Decision{Outcome: Unauthorized}
	}
	if !user.Role.AtLeast(required) {
		return forbidden(ReasonInsufficientRole)
	}
	return proceed
}

// PreventAuthenticatedAccess sends signed-in users to the dashboard
func (g *SessionAuthGate) PreventAuthenticatedAccess(r *http.Request) Decision {
	state, err := g.sessions.Principal(r)
	if err != nil {
		return proceed
	}
	if _, ok := models.Principal(state); ok {
		return Decision{Outcome: RedirectToDashboard}
	}
	return proceed
}

// Authenticated reports whether r carries a principal
func (g *SessionAuthGate) Authenticated(r *http.Request) bool {
	state, err := g.sessions.Principal(r)
	if err != nil {
		return false
	}
	_, ok := models.Principal(state)
	return ok
}

// LogActivity records who requested what. It never fails the request
func (g *SessionAuthGate) LogActivity(r *http.Request) {
	defer func() {
		_ = recover()
	}()

	attrs := []any{
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	}

	if state, err := g.sessions.Principal(r); err == nil {
		if user, ok := models.Principal(state); ok {
			attrs = append(attrs,
				slog.Int64("account_id", user.ID),
				slog.String("username", user.Username),
			)
		}
	}

	g.logger.Debug("user activity", attrs...)
}
