package handlers

import (
	"bytes"
	"context"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/mystic-aac/accountcenter/internal/models"
	"github.com/mystic-aac/accountcenter/internal/services"
	"github.com/mystic-aac/accountcenter/internal/views"
)

// SessionControl is the part of the session manager the handlers use
type SessionControl interface {
	Principal(r *http.Request) (models.SessionState, error)
	SetPrincipal(w http.ResponseWriter, r *http.Request, user models.SessionUser) error
	RefreshPrincipal(w http.ResponseWriter, r *http.Request, user models.SessionUser) error
	Destroy(w http.ResponseWriter, r *http.Request) error
	AddFlash(w http.ResponseWriter, r *http.Request, message string) error
	PopFlash(w http.ResponseWriter, r *http.Request) []string
	CSRFToken(w http.ResponseWriter, r *http.Request) (string, error)
}

// StatusProvider reports the server header data
type StatusProvider interface {
	Status(ctx context.Context) services.ServerStatus
}

// PageData is the value every page template receives
type PageData struct {
	Title     string
	Server    services.ServerStatus
	User      *models.SessionUser
	Flash     []string
	CSRFToken string
	Error     string
	Success   string
	Data      any
}

// Renderer executes embedded page templates with the session decorations
type Renderer struct {
	pages    map[string]*template.Template
	sessions SessionControl
	status   StatusProvider
	logger   *slog.Logger
}

// NewRenderer parses the embedded pages
func NewRenderer(sessions SessionControl, status StatusProvider, logger *slog.Logger) (*Renderer, error) {
	pages, err := views.Parse()
	if err != nil {
		return nil, err
	}
	return &Renderer{
		pages:    pages,
		sessions: sessions,
		status:   status,
		logger:   logger,
	}, nil
}

// Render writes page with status. Session writes happen before the header
// is sent; a template failure answers 500 without partial output.
func (rd *Renderer) Render(w http.ResponseWriter, r *http.Request, status int, page string, data PageData) {
	tmpl, ok := rd.pages[page]
	if !ok {
		rd.logger.Error("unknown page template", slog.String("page", page))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	data.Server = rd.status.Status(r.Context())
	data.User = currentUser(rd.sessions, r)
	data.Flash = append(data.Flash, rd.sessions.PopFlash(w, r)...)

	token, err := rd.sessions.CSRFToken(w, r)
	if err != nil {
		rd.logger.Warn("failed to issue csrf token", slog.Any("error", err))
	}
	data.CSRFToken = token

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		rd.logger.Error("failed to render page", slog.String("page", page), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// RenderError shows the generic error page
func (rd *Renderer) RenderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	rd.Render(w, r, status, views.PageError, PageData{Title: "Error", Data: message})
}

// currentUser returns the session principal, or nil when anonymous
func currentUser(sessions SessionControl, r *http.Request) *models.SessionUser {
	state, err := sessions.Principal(r)
	if err != nil {
		return nil
	}
	if user, ok := models.Principal(state); ok {
		return &user
	}
	return nil
}
