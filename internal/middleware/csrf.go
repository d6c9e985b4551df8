package middleware

import (
	"log/slog"
	"net/http"
)

// CSRFFormField is the hidden form input carrying the token
const CSRFFormField = "csrf_token"

// CSRFHeader carries the token for JSON requests
const CSRFHeader = "X-CSRF-Token"

// CSRFValidator checks a submitted token against the request's session
type CSRFValidator interface {
	ValidCSRF(r *http.Request, token string) bool
}

// CSRFProtection rejects state-changing requests whose token does not match
// the one issued to the session. Must run after the session middleware.
func CSRFProtection(validator CSRFValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isStateChangingMethod(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			token := r.Header.Get(CSRFHeader)
			if token == "" {
				token = r.PostFormValue(CSRFFormField)
			}

			if token == "" {
				logger.Warn("CSRF token missing in request",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path))
				http.Error(w, "CSRF token missing", http.StatusForbidden)
				return
			}

			if !validator.ValidCSRF(r, token) {
				logger.Warn("CSRF token validation failed",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path))
				http.Error(w, "CSRF token invalid", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// isStateChangingMethod checks if the HTTP method modifies state
func isStateChangingMethod(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch:
		return true
	default:
		return false
	}
}
