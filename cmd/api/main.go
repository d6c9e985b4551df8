package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mystic-aac/accountcenter/internal/auth"
	"github.com/mystic-aac/accountcenter/internal/background"
	"github.com/mystic-aac/accountcenter/internal/config"
	"github.com/mystic-aac/accountcenter/internal/database"
	"github.com/mystic-aac/accountcenter/internal/handlers"
	middlewareCustom "github.com/mystic-aac/accountcenter/internal/middleware"
	"github.com/mystic-aac/accountcenter/internal/models"
	"github.com/mystic-aac/accountcenter/internal/repositories"
	"github.com/mystic-aac/accountcenter/internal/routes"
	"github.com/mystic-aac/accountcenter/internal/services"
	pkgauth "github.com/mystic-aac/accountcenter/pkg/auth"
	pkghttp "github.com/mystic-aac/accountcenter/pkg/http"
	pkglogger "github.com/mystic-aac/accountcenter/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.Server.LogLevel)}))
	slog.SetDefault(logger)

	fmt.Println(figure.NewFigure(cfg.Server.Name, "cybermedium", true).String())
	logger.Info("configuration loaded",
		slog.String("env", cfg.Server.Env),
		slog.String("session_store", cfg.Session.Store))

	// Initialize database
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		err := database.Migrate(ctx, db.Pool, logger)
		cancel()
		if err != nil {
			logger.Error("failed to run migrations", slog.Any("error", err))
			os.Exit(1)
		}
	}

	// Initialize repositories
	accountRepo := repositories.NewAccountRepository(db.Pool)
	playerRepo := repositories.NewPlayerRepository(db.Pool)
	newsRepo := repositories.NewNewsRepository(db.Pool)
	loginEventRepo := repositories.NewLoginEventRepository(db.Pool)

	var sessionStore auth.SessionStore
	switch cfg.Session.Store {
	case config.SessionStoreMemory:
		sessionStore = auth.NewMemoryStore()
	default:
		sessionStore = repositories.NewSessionRepository(db.Pool)
	}

	// Sessions and the auth gate
	auditLogger := pkglogger.NewAuditLogger(logger)
	sessions := auth.NewSessionManager(
		sessionStore,
		auth.NewCookieCodec(cfg.Session.Secret),
		cfg.Session.TTL,
		auth.CookieConfig{
			Name:     cfg.Session.CookieName,
			Secure:   cfg.Session.CookieSecure,
			SameSite: "lax",
		},
		logger,
	)
	gate := auth.NewMiddleware(auth.NewSessionAuthGate(sessions, logger), auditLogger)
	guard := auth.NewLoginAttemptGuard(cfg.RateLimit.LoginMaxAttempts, cfg.RateLimit.LoginBlockDuration)
	delay := auth.NewFailureDelay(cfg.RateLimit.LoginFailureDelay, cfg.RateLimit.LoginFailureJitter)

	// Initialize services
	authService := services.NewAuthService(accountRepo, loginEventRepo, guard, delay, logger, auditLogger)
	accountService := services.NewAccountService(accountRepo, logger, auditLogger)
	characterService := services.NewCharacterService(playerRepo, logger, auditLogger)
	newsService := services.NewNewsService(newsRepo, logger)
	leaderboardService := services.NewLeaderboardService(playerRepo, logger)
	statusService := services.NewStatusService(cfg.Server.Name, sessionStore, logger)

	// Initialize handlers
	render, err := handlers.NewRenderer(sessions, statusService, logger)
	if err != nil {
		logger.Error("failed to parse page templates", slog.Any("error", err))
		os.Exit(1)
	}
	ipConfig := pkghttp.NewIPConfig(cfg.Server.TrustedProxies)

	h := routes.Handlers{
		Pages:      handlers.NewPageHandler(render, sessions, newsService, characterService, authService, logger),
		Accounts:   handlers.NewAccountHandler(authService, accountService, sessions, render, ipConfig, logger),
		Characters: handlers.NewCharacterHandler(characterService, sessions, render, ipConfig),
		News:       handlers.NewNewsHandler(newsService, sessions, render),
		Players:    handlers.NewPlayerHandler(leaderboardService, characterService, sessions),
		Health:     handlers.NewHealthHandler(db),
	}

	// Bootstrap first admin account if configured
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := ensureAdminAccount(ctx, accountRepo, logger); err != nil {
		logger.Error("failed to ensure admin account", slog.Any("error", err))
	}
	cancel()

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(middlewareCustom.DefaultCORSConfig(cfg.Server.AllowedOrigins)))
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(cfg.Server.RequestTimeout))

	routes.RegisterRoutes(router, h, sessions, gate, routes.Options{
		APIRateLimit: middlewareCustom.RateLimitConfig{
			Requests: cfg.RateLimit.APIRequestsPerMinute,
			Window:   time.Minute,
		},
		LoginRateLimit: middlewareCustom.RateLimitConfig{
			Requests: cfg.RateLimit.LoginRequestsPerWindow,
			Window:   cfg.RateLimit.LoginRequestWindow,
		},
		IPConfig: ipConfig,
		Logger:   logger,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start cleanup task
	cleanupManager := background.NewCleanupManager(
		sessionStore,
		loginEventRepo,
		guard,
		cfg.Cleanup.LoginEventRetention,
		cfg.Cleanup.Interval,
		logger,
	)
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()

	go cleanupManager.Start(cleanupCtx)

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	cleanupCancel()
	cleanupManager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ensureAdminAccount creates the first admin account if ADMIN_USERNAME,
// ADMIN_EMAIL and ADMIN_PASSWORD are set
func ensureAdminAccount(ctx context.Context, accounts *repositories.AccountRepository, logger *slog.Logger) error {
	username := pkgauth.NormalizeUsername(os.Getenv("ADMIN_USERNAME"))
	email := strings.ToLower(strings.TrimSpace(os.Getenv("ADMIN_EMAIL")))
	password := os.Getenv("ADMIN_PASSWORD")

	if username == "" || email == "" || password == "" {
		logger.Info("admin bootstrap variables not set, skipping admin account creation")
		return nil
	}

	_, err := accounts.GetByUsername(ctx, username)
	if err == nil {
		logger.Info("admin account already exists")
		return nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("failed to check if admin exists: %w", err)
	}

	if err := pkgauth.ValidatePassword(password); err != nil {
		return fmt.Errorf("admin password rejected: %w", err)
	}
	hashedPassword, err := pkgauth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	_, err = accounts.Create(ctx, &models.Account{
		Username:     username,
		Email:        email,
		PasswordHash: hashedPassword,
		Role:         models.RoleAdmin,
		IsActive:     true,
	})
	if err != nil {
		return fmt.Errorf("failed to create admin account: %w", err)
	}

	logger.Info("admin account created", slog.String("username", username))
	return nil
}
