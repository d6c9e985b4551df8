package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/mystic-aac/accountcenter/internal/auth"
	"github.com/mystic-aac/accountcenter/internal/models"
	"github.com/mystic-aac/accountcenter/internal/services"
	"github.com/mystic-aac/accountcenter/internal/views"
)

// LoginHistoryInterface lists recent login decisions for the dashboard
type LoginHistoryInterface interface {
	RecentLogins(ctx context.Context, username string, limit int) ([]models.LoginEvent, error)
}

const dashboardLoginLimit = 5

// PageHandler serves the informational pages
type PageHandler struct {
	render     *Renderer
	sessions   SessionControl
	news       NewsServiceInterface
	characters CharacterServiceInterface
	history    LoginHistoryInterface
	logger     *slog.Logger
}

// NewPageHandler creates a new PageHandler
func NewPageHandler(render *Renderer, sessions SessionControl, news NewsServiceInterface, characters CharacterServiceInterface, history LoginHistoryInterface, logger *slog.Logger) *PageHandler {
	return &PageHandler{
		render:     render,
		sessions:   sessions,
		news:       news,
		characters: characters,
		history:    history,
		logger:     logger,
	}
}

type homeData struct {
	News []models.News
}

type dashboardData struct {
	Characters []models.Player
	News       []models.News
	Logins     []models.LoginEvent
	IsAdmin    bool
}

// Home shows the latest news
func (h *PageHandler) Home(w http.ResponseWriter, r *http.Request) {
	news, err := h.news.Latest(r.Context(), services.HomeNewsLimit)
	if err != nil {
		h.logger.Warn("home page rendered without news", slog.Any("error", err))
	}
	h.render.Render(w, r, http.StatusOK, views.PageHome, PageData{Title: "Home", Data: homeData{News: news}})
}

// Download renders the client download page
func (h *PageHandler) Download(w http.ResponseWriter, r *http.Request) {
	h.render.Render(w, r, http.StatusOK, views.PageDownload, PageData{Title: "Download"})
}

// Dashboard lists the account's characters, news and recent logins
func (h *PageHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	user := currentUser(h.sessions, r)
	if user == nil {
		http.Redirect(w, r, auth.LoginPath, http.StatusSeeOther)
		return
	}

	characters, err := h.characters.ListByAccount(r.Context(), user.ID)
	if err != nil {
		h.render.RenderError(w, r, http.StatusInternalServerError, "Could not load your characters.")
		return
	}

	news, err := h.news.Latest(r.Context(), services.HomeNewsLimit)
	if err != nil {
		h.logger.Warn("dashboard rendered without news", slog.Any("error", err))
	}

	logins, err := h.history.RecentLogins(r.Context(), user.Username, dashboardLoginLimit)
	if err != nil {
		h.logger.Warn("dashboard rendered without login history", slog.Any("error", err))
	}

	h.render.Render(w, r, http.StatusOK, views.PageDashboard, PageData{
		Title: "Dashboard",
		Data: dashboardData{
			Characters: characters,
			News:       news,
			Logins:     logins,
			IsAdmin:    user.Role.AtLeast(models.RoleAdmin),
		},
	})
}

// Unauthorized renders the access denied page
func (h *PageHandler) Unauthorized(w http.ResponseWriter, r *http.Request) {
	h.render.Render(w, r, http.StatusForbidden, views.PageUnauthorized, PageData{Title: "Access denied"})
}

// AccountInactive renders the suspended account page
func (h *PageHandler) AccountInactive(w http.ResponseWriter, r *http.Request) {
	h.render.Render(w, r, http.StatusForbidden, views.PageAccountInactive, PageData{Title: "Account inactive"})
}

// NotFound renders the error page for unknown routes
func (h *PageHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.render.RenderError(w, r, http.StatusNotFound, "Page not found.")
}
