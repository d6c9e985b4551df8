package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/mystic-aac/accountcenter/internal/auth"
	"github.com/mystic-aac/accountcenter/internal/models"
	"github.com/mystic-aac/accountcenter/internal/services"
	"github.com/mystic-aac/accountcenter/internal/views"
	pkghttp "github.com/mystic-aac/accountcenter/pkg/http"
)

// NewsServiceInterface defines the interface for news business logic
type NewsServiceInterface interface {
	Latest(ctx context.Context, limit int) ([]models.News, error)
	Get(ctx context.Context, id int64) (*models.News, error)
	Create(ctx context.Context, authorID int64, in services.NewsInput) (*models.News, error)
	Update(ctx context.Context, id int64, in services.NewsInput) (*models.News, error)
	Delete(ctx context.Context, id int64) error
}

// NewsHandler serves the news feed and its admin operations
type NewsHandler struct {
	service  NewsServiceInterface
	sessions SessionControl
	render   *Renderer
}

// NewNewsHandler creates a new NewsHandler
func NewNewsHandler(service NewsServiceInterface, sessions SessionControl, render *Renderer) *NewsHandler {
	return &NewsHandler{
		service:  service,
		sessions: sessions,
		render:   render,
	}
}

// NewsRequest represents a news item submitted as a form or as JSON
type NewsRequest struct {
	Title   string `json:"title" form:"title" validate:"required,min=3,max=100"`
	Summary string `json:"summary" form:"summary" validate:"required,min=10,max=255"`
	Content string `json:"content" form:"content" validate:"required,min=10"`
}

func (req NewsRequest) input() services.NewsInput {
	return services.NewsInput{Title: req.Title, Summary: req.Summary, Content: req.Content}
}

func parseID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

// List returns the latest news summaries
func (h *NewsHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.Latest(r.Context(), services.FeedNewsLimit)
	if err != nil {
		pkghttp.WriteInternalError(w, "Failed to list news")
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, items)
}

// Get returns a single news entry
func (h *NewsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		pkghttp.WriteBadRequest(w, "Invalid news ID")
		return
	}

	item, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, item)
}

// CreatePage renders the news form
func (h *NewsHandler) CreatePage(w http.ResponseWriter, r *http.Request) {
	h.render.Render(w, r, http.StatusOK, views.PageNewsCreate, PageData{Title: "Publish news", Data: NewsRequest{}})
}

// Create publishes a news item from the admin form
func (h *NewsHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := currentUser(h.sessions, r)
	if user == nil {
		http.Redirect(w, r, auth.LoginPath, http.StatusSeeOther)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.render.RenderError(w, r, http.StatusBadRequest, "Invalid form submission.")
		return
	}

	req := NewsRequest{
		Title:   r.PostFormValue("title"),
		Summary: r.PostFormValue("summary"),
		Content: r.PostFormValue("content"),
	}
	if err := ValidateRequest(req); err != nil {
		h.render.Render(w, r, http.StatusBadRequest, views.PageNewsCreate, PageData{
			Title: "Publish news", Error: err.Error(), Data: req,
		})
		return
	}

	if _, err := h.service.Create(r.Context(), user.ID, req.input()); err != nil {
		h.render.RenderError(w, r, http.StatusInternalServerError, "Could not publish the news.")
		return
	}
	http.Redirect(w, r, auth.DashboardPath, http.StatusSeeOther)
}

// Update replaces a news item from a JSON body
func (h *NewsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		pkghttp.WriteBadRequest(w, "Invalid news ID")
		return
	}

	var req NewsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		writeValidationError(w, req, err)
		return
	}

	item, err := h.service.Update(r.Context(), id, req.input())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, item)
}

// Delete removes a news entry
func (h *NewsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		pkghttp.WriteBadRequest(w, "Invalid news ID")
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *NewsHandler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		pkghttp.WriteNotFound(w, "News not found")
	case errors.Is(err, models.ErrBadRequest):
		pkghttp.WriteBadRequest(w, "Invalid news data")
	default:
		pkghttp.WriteInternalError(w, "Internal server error")
	}
}
