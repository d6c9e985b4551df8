package logger

import (
	"log/slog"
	"strings"
)

// SanitizedEmail masks an email address for logging (e.g., "u***@*******.com")
func SanitizedEmail(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return "[invalid-email]"
	}

	local := maskTail(parts[0])
	domain := parts[1]

	// Keep the TLD only
	domainParts := strings.Split(domain, ".")
	if len(domainParts) > 1 {
		for i := 0; i < len(domainParts)-1; i++ {
			domainParts[i] = strings.Repeat("*", len(domainParts[i]))
		}
		domain = strings.Join(domainParts, ".")
	}

	return local + "@" + domain
}

// SanitizedUsername keeps the first two characters of a login name.
// Usernames are attacker-supplied on failed logins and may contain passwords typed in the wrong field.
func SanitizedUsername(username string) string {
	if username == "" {
		return "[empty]"
	}
	if len(username) <= 2 {
		return strings.Repeat("*", len(username))
	}
	return username[:2] + strings.Repeat("*", len(username)-2)
}

func maskTail(s string) string {
	if len(s) > 1 {
		return string(s[0]) + strings.Repeat("*", len(s)-1)
	}
	return s
}

// RedactedAttr returns "[REDACTED]" in production and the actual value elsewhere
func RedactedAttr(key, value, env string) slog.Attr {
	if env == "production" {
		return slog.String(key, "[REDACTED]")
	}
	return slog.String(key, value)
}

var sensitiveParams = []string{
	"password",
	"token",
	"secret",
	"session",
	"email",
	"auth",
	"csrf",
}

// SanitizeQueryString reports whether the query string carries a sensitive
// parameter and should be dropped from logs entirely
func SanitizeQueryString(rawQuery string) bool {
	query := strings.ToLower(rawQuery)
	for _, param := range sensitiveParams {
		if strings.Contains(query, param) {
			return true
		}
	}
	return false
}
