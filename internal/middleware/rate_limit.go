package middleware

import (
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/go-chi/httprate"
	"github.com/mystic-aac/accountcenter/internal/models"
	pkghttp "github.com/mystic-aac/accountcenter/pkg/http"
)

// PrincipalSource exposes the session principal of a request
type PrincipalSource interface {
	Principal(r *http.Request) (models.SessionState, error)
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// DefaultAPIRateLimit returns the limit for JSON endpoints (100 requests per minute)
func DefaultAPIRateLimit() RateLimitConfig {
	return RateLimitConfig{Requests: 100, Window: time.Minute}
}

// DefaultLoginRateLimit returns the limit for login submissions (10 per 30 minutes)
func DefaultLoginRateLimit() RateLimitConfig {
	return RateLimitConfig{Requests: 10, Window: 30 * time.Minute}
}

// APIRateLimit limits requests per session user, falling back to the client IP
// for anonymous callers
func APIRateLimit(config RateLimitConfig, sessions PrincipalSource, ipConfig *pkghttp.IPConfig) func(next http.Handler) http.Handler {
	return httprate.Limit(
		config.Requests,
		config.Window,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			if state, err := sessions.Principal(r); err == nil {
				if user, ok := models.Principal(state); ok {
					return fmt.Sprintf("user:%d", user.ID), nil
				}
			}
			return "ip:" + pkghttp.ExtractClientIP(r, ipConfig), nil
		}),
		httprate.WithLimitHandler(limitHandler(config.Window)),
	)
}

// LoginRateLimit limits login submissions per client IP. It complements the
// per-username LoginAttemptGuard.
func LoginRateLimit(config RateLimitConfig, ipConfig *pkghttp.IPConfig) func(next http.Handler) http.Handler {
	return httprate.Limit(
		config.Requests,
		config.Window,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			return pkghttp.ExtractClientIP(r, ipConfig), nil
		}),
		httprate.WithLimitHandler(limitHandler(config.Window)),
	)
}

func limitHandler(window time.Duration) http.HandlerFunc {
	retryAfter := int(math.Ceil(window.Seconds()))
	return func(w http.ResponseWriter, r *http.Request) {
		pkghttp.WriteTooManyRequests(w, "Rate limit exceeded", retryAfter)
	}
}
