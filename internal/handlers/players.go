package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/mystic-aac/accountcenter/internal/models"
	"github.com/mystic-aac/accountcenter/internal/services"
	pkghttp "github.com/mystic-aac/accountcenter/pkg/http"
)

// LeaderboardServiceInterface defines the interface for the leaderboard
type LeaderboardServiceInterface interface {
	Page(ctx context.Context, q services.LeaderboardQuery) (*services.LeaderboardPage, error)
}

// PlayerHandler serves the leaderboard and character details
type PlayerHandler struct {
	leaderboard LeaderboardServiceInterface
	characters  CharacterServiceInterface
	sessions    SessionControl
}

// NewPlayerHandler creates a new PlayerHandler
func NewPlayerHandler(leaderboard LeaderboardServiceInterface, characters CharacterServiceInterface, sessions SessionControl) *PlayerHandler {
	return &PlayerHandler{
		leaderboard: leaderboard,
		characters:  characters,
		sessions:    sessions,
	}
}

// UpdatePlayerRequest represents the request body for a character edit
type UpdatePlayerRequest struct {
	Name     *string `json:"name" validate:"omitempty,charname"`
	Avatar   *string `json:"avatar" validate:"omitempty,max=255"`
	Vocation *string `json:"vocation" validate:"omitempty"`
}

// queryInt returns the integer query parameter, or 0 when absent.
// Malformed values are reported as errors.
func queryInt(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

// List returns one leaderboard page
// @Param page query int false "Page (default 1)"
// @Param limit query int false "Page size (default 10, max 100)"
// @Param vocation query string false "Vocation id or name"
// @Param minLevel query int false "Minimum level"
// @Router /players [get]
func (h *PlayerHandler) List(w http.ResponseWriter, r *http.Request) {
	var q services.LeaderboardQuery
	var err error

	if q.Page, err = queryInt(r, "page"); err != nil {
		pkghttp.WriteBadRequest(w, "page must be a number")
		return
	}
	if q.Limit, err = queryInt(r, "limit"); err != nil {
		pkghttp.WriteBadRequest(w, "limit must be a number")
		return
	}
	if q.MinLevel, err = queryInt(r, "minLevel"); err != nil {
		pkghttp.WriteBadRequest(w, "minLevel must be a number")
		return
	}
	if raw := r.URL.Query().Get("vocation"); raw != "" {
		vocation, err := models.ParseVocation(raw)
		if err != nil {
			pkghttp.WriteBadRequest(w, "unknown vocation")
			return
		}
		q.Vocation = &vocation
	}

	page, err := h.leaderboard.Page(r.Context(), q)
	if err != nil {
		pkghttp.WriteInternalError(w, "Failed to list players")
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, page)
}

// Get returns a character with its owner name
func (h *PlayerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		pkghttp.WriteBadRequest(w, "Invalid player ID")
		return
	}

	player, err := h.characters.Get(r.Context(), id)
	if err != nil {
		writePlayerError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, player)
}

// Update edits a character owned by the caller; admins may edit any
func (h *PlayerHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := currentUser(h.sessions, r)
	if user == nil {
		pkghttp.WriteUnauthorized(w, "authentication required")
		return
	}

	id, ok := parseID(r)
	if !ok {
		pkghttp.WriteBadRequest(w, "Invalid player ID")
		return
	}

	var req UpdatePlayerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		writeValidationError(w, req, err)
		return
	}

	upd := models.PlayerUpdate{Name: req.Name, Avatar: req.Avatar}
	if req.Vocation != nil {
		vocation, err := models.ParseVocation(*req.Vocation)
		if err != nil {
			pkghttp.WriteBadRequest(w, "unknown vocation")
			return
		}
		upd.Vocation = &vocation
	}

	player, err := h.characters.Update(r.Context(), id, *user, upd)
	if err != nil {
		writePlayerError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, player)
}

func writePlayerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		pkghttp.WriteNotFound(w, "Player not found")
	case errors.Is(err, models.ErrForbidden):
		pkghttp.WriteForbidden(w, "You can only edit your own characters")
	case errors.Is(err, models.ErrNameTaken):
		pkghttp.WriteConflict(w, "Character name already exists")
	case errors.Is(err, models.ErrBadRequest):
		pkghttp.WriteBadRequest(w, "Invalid character data")
	default:
		pkghttp.WriteInternalError(w, "Internal server error")
	}
}
