package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	SessionStorePostgres = "postgres"
	SessionStoreMemory   = "memory"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Session   SessionConfig
	RateLimit RateLimitConfig
	Cleanup   CleanupConfig
}

type ServerConfig struct {
	Port           string
	Env            string
	LogLevel       string
	Name           string
	AllowedOrigins []string
	TrustedProxies []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	RequestTimeout time.Duration
}

type DatabaseConfig struct {
	Host              string
	Port              int
	User              string
	Password          string
	Name              string
	SSLMode           string
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
	AutoMigrate       bool
}

type SessionConfig struct {
	Secret       string
	TTL          time.Duration
	CookieName   string
	CookieSecure bool
	Store        string
}

type RateLimitConfig struct {
	LoginMaxAttempts       int
	LoginBlockDuration     time.Duration
	APIRequestsPerMinute   int
	LoginRequestsPerWindow int
	LoginRequestWindow     time.Duration
	LoginFailureDelay      time.Duration
	LoginFailureJitter     time.Duration
}

type CleanupConfig struct {
	Interval            time.Duration
	LoginEventRetention time.Duration
}

// Load reads configuration from the environment, after an optional .env file
func Load() (*Config, error) {
	_ = godotenv.Load()

	env := getEnv("ENV", "development")

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			Env:            env,
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			Name:           getEnv("SERVER_NAME", "Mystic"),
			AllowedOrigins: parseAllowedOrigins(env),
			TrustedProxies: parseList(getEnv("TRUSTED_PROXIES", "")),
			ReadTimeout:    getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:   getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:    getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			RequestTimeout: getEnvAsDuration("SERVER_REQUEST_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			Host:              getEnv("DB_HOST", "localhost"),
			Port:              getEnvAsInt("DB_PORT", 5432),
			User:              getEnv("DB_USER", "postgres"),
			Password:          getEnv("DB_PASSWORD", ""),
			Name:              getEnv("DB_NAME", "accountcenter"),
			SSLMode:           getEnv("DB_SSLMODE", "disable"),
			MaxConns:          int32(getEnvAsInt("DB_MAX_CONNS", 25)),
			MinConns:          int32(getEnvAsInt("DB_MIN_CONNS", 5)),
			MaxConnLifetime:   getEnvAsDuration("DB_MAX_CONN_LIFETIME", 5*time.Minute),
			MaxConnIdleTime:   getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 1*time.Minute),
			HealthCheckPeriod: getEnvAsDuration("DB_HEALTH_CHECK_PERIOD", 1*time.Minute),
			AutoMigrate:       getEnvAsBool("DB_AUTO_MIGRATE", true),
		},
		Session: SessionConfig{
			Secret:       getEnv("SESSION_SECRET", ""),
			TTL:          getEnvAsDuration("SESSION_TTL", 24*time.Hour),
			CookieName:   getEnv("SESSION_COOKIE_NAME", "mystic_session"),
			CookieSecure: getEnvAsBool("SESSION_COOKIE_SECURE", env == "production"),
			Store:        strings.ToLower(getEnv("SESSION_STORE", SessionStorePostgres)),
		},
		RateLimit: RateLimitConfig{
			LoginMaxAttempts:       getEnvAsInt("LOGIN_MAX_ATTEMPTS", 10),
			LoginBlockDuration:     getEnvAsDuration("LOGIN_BLOCK_DURATION", 30*time.Minute),
			APIRequestsPerMinute:   getEnvAsInt("API_REQUESTS_PER_MINUTE", 100),
			LoginRequestsPerWindow: getEnvAsInt("LOGIN_REQUESTS_PER_WINDOW", 10),
			LoginRequestWindow:     getEnvAsDuration("LOGIN_REQUEST_WINDOW", 30*time.Minute),
			LoginFailureDelay:      getEnvAsDuration("LOGIN_FAILURE_DELAY", 250*time.Millisecond),
			LoginFailureJitter:     getEnvAsDuration("LOGIN_FAILURE_JITTER", 100*time.Millisecond),
		},
		Cleanup: CleanupConfig{
			Interval:            getEnvAsDuration("CLEANUP_INTERVAL", 1*time.Hour),
			LoginEventRetention: getEnvAsDuration("LOGIN_EVENT_RETENTION", 30*24*time.Hour),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Session.Secret == "" {
		return fmt.Errorf("SESSION_SECRET is required")
	}
	if err := validateSessionSecret(c.Session.Secret, c.Server.Env); err != nil {
		return err
	}

	switch c.Session.Store {
	case SessionStorePostgres:
		if c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD is required")
		}
	case SessionStoreMemory:
	default:
		return fmt.Errorf("SESSION_STORE must be %q or %q (got %q)",
			SessionStorePostgres, SessionStoreMemory, c.Session.Store)
	}

	if c.RateLimit.LoginMaxAttempts < 1 {
		return fmt.Errorf("LOGIN_MAX_ATTEMPTS must be positive")
	}
	if c.RateLimit.LoginBlockDuration <= 0 {
		return fmt.Errorf("LOGIN_BLOCK_DURATION must be positive")
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.RateLimit.APIRequestsPerMinute < 1 {
		return fmt.Errorf("API_REQUESTS_PER_MINUTE must be positive")
	}
	if c.RateLimit.LoginRequestsPerWindow < 1 {
		return fmt.Errorf("LOGIN_REQUESTS_PER_WINDOW must be positive")
	}
	if c.RateLimit.LoginRequestWindow <= 0 {
		return fmt.Errorf("LOGIN_REQUEST_WINDOW must be positive")
	}
	if c.Cleanup.Interval <= 0 {
		return fmt.Errorf("CLEANUP_INTERVAL must be positive")
	}
	if c.Cleanup.LoginEventRetention <= 0 {
		return fmt.Errorf("LOGIN_EVENT_RETENTION must be positive")
	}

	return nil
}

// validateSessionSecret enforces minimum strength for the cookie signing key
func validateSessionSecret(secret, env string) error {
	minLength := 16
	if env == "production" {
		minLength = 32
	}

	if len(secret) < minLength {
		return fmt.Errorf("SESSION_SECRET must be at least %d characters in %s environment (got %d)",
			minLength, env, len(secret))
	}

	weakSecrets := []string{
		"secret", "test", "password", "12345", "changeme",
		"admin", "root", "default", "example", "keyboard cat",
	}

	secretLower := strings.ToLower(secret)
	for _, weak := range weakSecrets {
		if strings.ReplaceAll(secretLower, weak, "") == "" {
			return fmt.Errorf("SESSION_SECRET cannot be a common weak value")
		}
	}

	return nil
}

// IsProduction reports whether the server runs with ENV=production
func (c *ServerConfig) IsProduction() bool {
	return c.Env == "production"
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}

func parseList(raw string) []string {
	if raw == "" {
		return []string{}
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseAllowedOrigins(env string) []string {
	if env == "production" {
		return parseList(getEnv("ALLOWED_ORIGINS", ""))
	}

	if origins := getEnv("ALLOWED_ORIGINS", ""); origins != "" {
		return parseList(origins)
	}

	return []string{
		"http://localhost:3000",
		"http://localhost:8080",
		"http://127.0.0.1:3000",
		"http://127.0.0.1:8080",
	}
}
