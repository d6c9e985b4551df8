package handlers_test

import (
	"context"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/mystic-aac/accountcenter/internal/auth"
	"github.com/mystic-aac/accountcenter/internal/handlers"
	"github.com/mystic-aac/accountcenter/internal/models"
	"github.com/mystic-aac/accountcenter/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var admin = models.SessionUser{ID: 1, Username: "admin", Email: "admin@example.com", Role: models.RoleAdmin, IsActive: true}

func sampleNews(id int64) models.News {
	return models.News{
		ID:         id,
		Title:      "Server launch",
		Summary:    "The server is now online",
		Content:    "Welcome everyone to the launch.",
		Date:       time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		AuthorName: "admin",
	}
}

func TestNewsList_UsesFeedLimit(t *testing.T) {
	env := handlers.NewTestEnv(t)
	svc := &handlers.MockNewsService{
		LatestFunc: func(ctx context.Context, limit int) ([]models.News, error) {
			assert.Equal(t, services.FeedNewsLimit, limit)
			return []models.News{sampleNews(2), sampleNews(1)}, nil
		},
	}
	handler := handlers.NewNewsHandler(svc, env.Sessions, env.Render)

	req := handlers.NewTestRequest(t, http.MethodGet, "/news", nil)
	w := env.Serve(http.MethodGet, "/news", handler.List, req)

	var items []models.News
	handlers.AssertJSONResponse(t, w, http.StatusOK, &items)
	require.Len(t, items, 2)
	assert.Equal(t, int64(2), items[0].ID)
}

func TestNewsGet(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		err        error
		wantStatus int
		wantError  string
	}{
		{"found", "/news/3", nil, http.StatusOK, ""},
		{"not found", "/news/9", models.ErrNotFound, http.StatusNotFound, "not_found"},
		{"invalid id", "/news/abc", nil, http.StatusBadRequest, "bad_request"},
		{"non-positive id", "/news/0", nil, http.StatusBadRequest, "bad_request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := handlers.NewTestEnv(t)
			svc := &handlers.MockNewsService{
				GetFunc: func(ctx context.Context, id int64) (*models.News, error) {
					if tt.err != nil {
						return nil, tt.err
					}
					n := sampleNews(id)
					return &n, nil
				},
			}
			handler := handlers.NewNewsHandler(svc, env.Sessions, env.Render)

			req := handlers.NewTestRequest(t, http.MethodGet, tt.path, nil)
			w := env.Serve(http.MethodGet, "/news/{id}", handler.Get, req)

			if tt.wantError != "" {
				handlers.AssertErrorResponse(t, w, tt.wantStatus, tt.wantError)
				return
			}
			var item models.News
			handlers.AssertJSONResponse(t, w, tt.wantStatus, &item)
			assert.Equal(t, int64(3), item.ID)
		})
	}
}

func TestNewsCreate_FormRedirectsToDashboard(t *testing.T) {
	env := handlers.NewTestEnv(t)
	var gotAuthor int64
	svc := &handlers.MockNewsService{
		CreateFunc: func(ctx context.Context, authorID int64, in services.NewsInput) (*models.News, error) {
			gotAuthor = authorID
			assert.Equal(t, "Patch notes", in.Title)
			n := sampleNews(5)
			return &n, nil
		},
	}
	handler := handlers.NewNewsHandler(svc, env.Sessions, env.Render)

	req := handlers.NewFormRequest(http.MethodPost, "/news/create", url.Values{
		"title":   {"Patch notes"},
		"summary": {"Balance changes for knights"},
		"content": {"Knights now deal more damage."},
	})
	req.AddCookie(env.LoginAs(t, admin))
	w := env.Serve(http.MethodPost, "/news/create", handler.Create, req)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, auth.DashboardPath, w.Header().Get("Location"))
	assert.Equal(t, admin.ID, gotAuthor)
}

func TestNewsCreate_InvalidFormRerenders(t *testing.T) {
	env := handlers.NewTestEnv(t)
	handler := handlers.NewNewsHandler(&handlers.MockNewsService{}, env.Sessions, env.Render)

	req := handlers.NewFormRequest(http.MethodPost, "/news/create", url.Values{
		"title":   {"Patch notes"},
		"summary": {"short"},
		"content": {"Knights now deal more damage."},
	})
	req.AddCookie(env.LoginAs(t, admin))
	w := env.Serve(http.MethodPost, "/news/create", handler.Create, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "summary")
	assert.Contains(t, w.Body.String(), `value="Patch notes"`)
}

func TestNewsCreate_RequiresSession(t *testing.T) {
	env := handlers.NewTestEnv(t)
	handler := handlers.NewNewsHandler(&handlers.MockNewsService{}, env.Sessions, env.Render)

	req := handlers.NewFormRequest(http.MethodPost, "/news/create", url.Values{})
	w := env.Serve(http.MethodPost, "/news/create", handler.Create, req)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, auth.LoginPath, w.Header().Get("Location"))
}

func TestNewsUpdate(t *testing.T) {
	env := handlers.NewTestEnv(t)
	svc := &handlers.MockNewsService{
		UpdateFunc: func(ctx context.Context, id int64, in services.NewsInput) (*models.News, error) {
			n := sampleNews(id)
			n.Title = in.Title
			return &n, nil
		},
	}
	handler := handlers.NewNewsHandler(svc, env.Sessions, env.Render)

	req := handlers.NewTestRequest(t, http.MethodPut, "/news/4", handlers.NewsRequest{
		Title:   "Updated title",
		Summary: "An updated summary line",
		Content: "The updated content body.",
	})
	w := env.Serve(http.MethodPut, "/news/{id}", handler.Update, req)

	var item models.News
	handlers.AssertJSONResponse(t, w, http.StatusOK, &item)
	assert.Equal(t, "Updated title", item.Title)
	assert.Equal(t, int64(4), item.ID)
}

func TestNewsUpdate_ValidationError(t *testing.T) {
	env := handlers.NewTestEnv(t)
	handler := handlers.NewNewsHandler(&handlers.MockNewsService{}, env.Sessions, env.Render)

	req := handlers.NewTestRequest(t, http.MethodPut, "/news/4", handlers.NewsRequest{Title: "No"})
	w := env.Serve(http.MethodPut, "/news/{id}", handler.Update, req)

	var resp handlers.ValidationFailure
	handlers.AssertJSONResponse(t, w, http.StatusBadRequest, &resp)
	assert.Len(t, resp.Fields, 3)
}

func TestNewsDelete(t *testing.T) {
	env := handlers.NewTestEnv(t)
	deleted := int64(0)
	svc := &handlers.MockNewsService{
		DeleteFunc: func(ctx context.Context, id int64) error {
			deleted = id
			return nil
		},
	}
	handler := handlers.NewNewsHandler(svc, env.Sessions, env.Render)

	req := handlers.NewTestRequest(t, http.MethodDelete, "/news/6", nil)
	w := env.Serve(http.MethodDelete, "/news/{id}", handler.Delete, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, int64(6), deleted)
}

func TestNewsDelete_NotFound(t *testing.T) {
	env := handlers.NewTestEnv(t)
	handler := handlers.NewNewsHandler(&handlers.MockNewsService{}, env.Sessions, env.Render)

	req := handlers.NewTestRequest(t, http.MethodDelete, "/news/6", nil)
	w := env.Serve(http.MethodDelete, "/news/{id}", handler.Delete, req)

	handlers.AssertErrorResponse(t, w, http.StatusNotFound, "not_found")
}
