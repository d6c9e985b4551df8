package routes

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mystic-aac/accountcenter/internal/auth"
	"github.com/mystic-aac/accountcenter/internal/handlers"
	"github.com/mystic-aac/accountcenter/internal/middleware"
	"github.com/mystic-aac/accountcenter/internal/models"
	pkghttp "github.com/mystic-aac/accountcenter/pkg/http"
)

// Handlers groups the HTTP handlers served by the router
type Handlers struct {
	Pages      *handlers.PageHandler
	Accounts   *handlers.AccountHandler
	Characters *handlers.CharacterHandler
	News       *handlers.NewsHandler
	Players    *handlers.PlayerHandler
	Health     *handlers.HealthHandler
}

// Options configures the per-route limiters
type Options struct {
	APIRateLimit   middleware.RateLimitConfig
	LoginRateLimit middleware.RateLimitConfig
	IPConfig       *pkghttp.IPConfig
	Logger         *slog.Logger
}

// RegisterRoutes registers all application routes. Every route runs behind
// the session middleware, the activity hook and CSRF validation.
func RegisterRoutes(
	router chi.Router,
	h Handlers,
	sessions *auth.SessionManager,
	gate *auth.Middleware,
	opts Options,
) {
	router.Use(sessions.Middleware)
	router.Use(gate.LogActivity)
	router.Use(middleware.CSRFProtection(sessions, opts.Logger))

	apiLimit := middleware.APIRateLimit(opts.APIRateLimit, sessions, opts.IPConfig)
	loginLimit := middleware.LoginRateLimit(opts.LoginRateLimit, opts.IPConfig)

	router.Get("/health", h.Health.Check)

	// Public pages
	router.Get("/", h.Pages.Home)
	router.Get("/download", h.Pages.Download)
	router.Get(auth.UnauthorizedPath, h.Pages.Unauthorized)
	router.Get(auth.AccountInactivePath, h.Pages.AccountInactive)
	router.Get("/login", h.Accounts.LegacyLogin)
	router.Get("/logout", h.Accounts.Logout)
	router.Post("/logout", h.Accounts.Logout)

	// Login submissions are not redirected for signed-in users so the
	// guard's authenticated bypass stays reachable
	router.With(loginLimit).Post(auth.LoginPath, h.Accounts.Login)

	router.Group(func(r chi.Router) {
		r.Use(gate.PreventAuthenticatedAccess)
		r.Get(auth.LoginPath, h.Accounts.LoginPage)
		r.Get("/account/create", h.Accounts.CreatePage)
		r.Post("/account/create", h.Accounts.Create)
	})

	// Public JSON
	router.With(apiLimit).Get("/players", h.Players.List)

	// Any active account
	router.Group(func(r chi.Router) {
		r.Use(gate.RequireAuth)

		r.Get(auth.DashboardPath, h.Pages.Dashboard)
		r.Get("/account/profile", h.Accounts.ProfilePage)
		r.Post("/account/profile", h.Accounts.UpdateProfile)
		r.Get("/character/create", h.Characters.CreatePage)
		r.Post("/character/create", h.Characters.Create)

		r.Group(func(r chi.Router) {
			r.Use(apiLimit)
			r.Get("/news", h.News.List)
			r.Get("/news/{id}", h.News.Get)
			r.Get("/players/{id}", h.Players.Get)
			r.Put("/players/{id}", h.Players.Update)
		})

		// Admin only
		r.Group(func(r chi.Router) {
			r.Use(gate.RequirePermission(models.RoleAdmin))
			r.Get("/news/create", h.News.CreatePage)
			r.Post("/news/create", h.News.Create)
			r.With(apiLimit).Put("/news/{id}", h.News.Update)
			r.With(apiLimit).Delete("/news/{id}", h.News.Delete)
		})
	})

	router.NotFound(h.Pages.NotFound)
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		pkghttp.WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
	})
}
