package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strconv"

	"github.com/mystic-aac/accountcenter/internal/models"
	"github.com/mystic-aac/accountcenter/internal/services"
	"github.com/mystic-aac/accountcenter/internal/views"
	pkghttp "github.com/mystic-aac/accountcenter/pkg/http"
)

// CharacterServiceInterface defines the interface for character business logic
type CharacterServiceInterface interface {
	Create(ctx context.Context, accountID int64, req services.CreateCharacterRequest, ipAddress string) (*models.Player, error)
	ListByAccount(ctx context.Context, accountID int64) ([]models.Player, error)
	Get(ctx context.Context, id int64) (*models.Player, error)
	Update(ctx context.Context, id int64, editor models.SessionUser, upd models.PlayerUpdate) (*models.Player, error)
}

// CharacterHandler handles character creation
type CharacterHandler struct {
	service  CharacterServiceInterface
	sessions SessionControl
	render   *Renderer
	ipConfig *pkghttp.IPConfig
}

// NewCharacterHandler creates a new CharacterHandler
func NewCharacterHandler(service CharacterServiceInterface, sessions SessionControl, render *Renderer, ipConfig *pkghttp.IPConfig) *CharacterHandler {
	return &CharacterHandler{
		service:  service,
		sessions: sessions,
		render:   render,
		ipConfig: ipConfig,
	}
}

// CreateCharacterRequest is accepted as a form or as JSON
type CreateCharacterRequest struct {
	Name     string `json:"name" form:"name" validate:"required,charname"`
	Vocation string `json:"vocation" form:"vocation" validate:"required"`
	Sex      string `json:"sex" form:"sex" validate:"required,oneof=male female"`
	World    string `json:"world" form:"world" validate:"omitempty,numeric"`
}

type characterCreateData struct {
	Vocations []models.Vocation
}

// isJSON reports whether the request body is JSON
func isJSON(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/json"
}

// CreatePage renders the character form with the vocation list
func (h *CharacterHandler) CreatePage(w http.ResponseWriter, r *http.Request) {
	h.render.Render(w, r, http.StatusOK, views.PageCharacterCreate, PageData{
		Title: "Create character",
		Data:  characterCreateData{Vocations: models.Vocations()},
	})
}

// Create handles character creation
// @Success 201 {object} models.Player
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /character/create [post]
func (h *CharacterHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := currentUser(h.sessions, r)
	if user == nil {
		pkghttp.WriteUnauthorized(w, "authentication required")
		return
	}

	var req CreateCharacterRequest
	if isJSON(r) {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			pkghttp.WriteBadRequest(w, "Invalid request body")
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			pkghttp.WriteBadRequest(w, "Invalid form submission")
			return
		}
		req = CreateCharacterRequest{
			Name:     r.PostFormValue("name"),
			Vocation: r.PostFormValue("vocation"),
			Sex:      r.PostFormValue("sex"),
			World:    r.PostFormValue("world"),
		}
	}

	if err := ValidateRequest(req); err != nil {
		writeValidationError(w, req, err)
		return
	}

	vocation, err := models.ParseVocation(req.Vocation)
	if err != nil {
		pkghttp.WriteBadRequest(w, "validation failed: vocation: "+err.Error())
		return
	}

	world := 1
	if req.World != "" {
		world, _ = strconv.Atoi(req.World)
	}

	player, err := h.service.Create(r.Context(), user.ID, services.CreateCharacterRequest{
		Name:     req.Name,
		Vocation: vocation,
		Sex:      models.Sex(req.Sex),
		World:    world,
	}, pkghttp.ExtractClientIP(r, h.ipConfig))
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNameTaken):
			pkghttp.WriteConflict(w, "Character name already exists")
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, "Invalid character data")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, player)
}
