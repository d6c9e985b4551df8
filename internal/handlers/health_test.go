package handlers_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mystic-aac/accountcenter/internal/handlers"
	"github.com/stretchr/testify/assert"
)

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		name       string
		pingErr    error
		wantStatus int
		want       handlers.HealthResponse
	}{
		{"database up", nil, http.StatusOK, handlers.HealthResponse{Status: "healthy", Database: "up"}},
		{"database down", errors.New("connection refused"), http.StatusServiceUnavailable, handlers.HealthResponse{Status: "unhealthy", Database: "down"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := handlers.NewHealthHandler(handlers.StubPinger{Err: tt.pingErr})

			w := httptest.NewRecorder()
			handler.Check(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			var resp handlers.HealthResponse
			handlers.AssertJSONResponse(t, w, tt.wantStatus, &resp)
			assert.Equal(t, tt.want, resp)
		})
	}
}
