package auth

import (
	"net/http"

	"github.com/mystic-aac/accountcenter/internal/models"
	pkghttp "github.com/mystic-aac/accountcenter/pkg/http"
	"github.com/mystic-aac/accountcenter/pkg/logger"
)

// Page locations used for gate redirects
const (
	LoginPath           = "/account/login"
	DashboardPath       = "/dashboard"
	UnauthorizedPath    = "/unauthorized"
	AccountInactivePath = "/account-inactive"
)

// Middleware adapts SessionAuthGate decisions to HTTP responses
type Middleware struct {
	gate  *SessionAuthGate
	audit *logger.AuditLogger
}

// NewMiddleware creates a new auth middleware
func NewMiddleware(gate *SessionAuthGate, audit *logger.AuditLogger) *Middleware {
	return &Middleware{gate: gate, audit: audit}
}

// RequireAuth redirects anonymous, inactive or unknown-role sessions away
// from page routes
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d := m.gate.RequireAuth(r)
		switch d.Outcome {
		case Proceed:
			next.ServeHTTP(w, r)
		case Forbidden:
			m.denied(r, d.Reason)
			target := UnauthorizedPath
			if d.Reason == ReasonAccountInactive {
				target = AccountInactivePath
			}
			http.Redirect(w, r, target, http.StatusSeeOther)
		default:
			http.Redirect(w, r, LoginPath, http.StatusSeeOther)
		}
	})
}

// RequirePermission answers 401 or 403 JSON when the principal's role ranks
// below required
func (m *Middleware) RequirePermission(required models.Role) func(http.Handler) http.Handler {
	check := m.gate.CheckPermission(required)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := check(r)
			switch d.Outcome {
			case Proceed:
				next.ServeHTTP(w, r)
			case Unauthorized:
				pkghttp.WriteUnauthorized(w, "authentication required")
			default:
				m.denied(r, d.Reason)
				pkghttp.WriteForbidden(w, "insufficient permissions")
			}
		})
	}
}

// PreventAuthenticatedAccess keeps signed-in users off login and registration pages
func (m *Middleware) PreventAuthenticatedAccess(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.gate.PreventAuthenticatedAccess(r).Outcome == RedirectToDashboard {
			http.Redirect(w, r, DashboardPath, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// LogActivity runs the gate's activity hook before every request
func (m *Middleware) LogActivity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.gate.LogActivity(r)
		next.ServeHTTP(w, r)
	})
}

func (m *Middleware) denied(r *http.Request, reason string) {
	if m.audit == nil {
		return
	}
	var accountID int64
	if state, err := m.gate.sessions.Principal(r); err == nil {
		if user, ok := models.Principal(state); ok {
			accountID = user.ID
		}
	}
	m.audit.LogAccessDenied(accountID, r.URL.Path, reason)
}
