package services

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/mystic-aac/accountcenter/internal/models"
	pkglogger "github.com/mystic-aac/accountcenter/pkg/logger"
)

// PlayerRepository defines the interface for character data access
type PlayerRepository interface {
	Create(ctx context.Context, p *models.Player) (*models.Player, error)
	GetByID(ctx context.Context, id int64) (*models.Player, error)
	NameExists(ctx context.Context, name string) (bool, error)
	ListByAccount(ctx context.Context, accountID int64) ([]models.Player, error)
	List(ctx context.Context, filter models.PlayerFilter) ([]models.Player, int, error)
	Update(ctx context.Context, id, editorID int64, asAdmin bool, upd models.PlayerUpdate) (*models.Player, error)
}

// CreateCharacterRequest carries a validated character form
type CreateCharacterRequest struct {
	Name     string
	Vocation models.Vocation
	Sex      models.Sex
	World    int
}

// CharacterService handles character creation and edits
type CharacterService struct {
	repo        PlayerRepository
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

// NewCharacterService creates a new CharacterService
func NewCharacterService(repo PlayerRepository, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *CharacterService {
	return &CharacterService{
		repo:        repo,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// NormalizeCharacterName collapses inner whitespace and capitalises each word
func NormalizeCharacterName(name string) string {
	words := strings.Fields(name)
	for i, w := range words {
		w = strings.ToLower(w)
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// Create makes a starting character for the account. A taken name returns
// models.ErrNameTaken.
func (s *CharacterService) Create(ctx context.Context, accountID int64, req CreateCharacterRequest, ipAddress string) (*models.Player, error) {
	name := NormalizeCharacterName(req.Name)
	if name == "" || !req.Vocation.Valid() {
		return nil, models.ErrBadRequest
	}
	if req.Sex != models.SexMale && req.Sex != models.SexFemale {
		return nil, models.ErrBadRequest
	}

	exists, err := s.repo.NameExists(ctx, name)
	if err != nil {
		s.logger.Error("failed to check character name", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	if exists {
		return nil, models.ErrNameTaken
	}

	player, err := s.repo.Create(ctx, models.NewCharacter(accountID, name, req.Vocation, req.Sex, req.World))
	if err != nil {
		if errors.Is(err, models.ErrNameTaken) {
			return nil, models.ErrNameTaken
		}
		s.logger.Error("failed to create character", slog.Int64("account_id", accountID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.auditLogger.LogAccountAction("character_created", accountID, ipAddress, map[string]string{
		"player_id": strconv.FormatInt(player.ID, 10),
	})
	return player, nil
}

// ListByAccount returns the account's characters, highest level first
func (s *CharacterService) ListByAccount(ctx context.Context, accountID int64) ([]models.Player, error) {
	players, err := s.repo.ListByAccount(ctx, accountID)
	if err != nil {
		s.logger.Error("failed to list characters", slog.Int64("account_id", accountID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return players, nil
}

// Get retrieves a character by ID
func (s *CharacterService) Get(ctx context.Context, id int64) (*models.Player, error) {
	player, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get character", slog.Int64("player_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return player, nil
}

// Update edits a character owned by editor. Admins may edit any character.
func (s *CharacterService) Update(ctx context.Context, id int64, editor models.SessionUser, upd models.PlayerUpdate) (*models.Player, error) {
	if upd.Name != nil {
		name := NormalizeCharacterName(*upd.Name)
		if name == "" {
			return nil, models.ErrBadRequest
		}
		upd.Name = &name
	}
	if upd.Vocation != nil && !upd.Vocation.Valid() {
		return nil, models.ErrBadRequest
	}

	asAdmin := editor.Role.AtLeast(models.RoleAdmin)
	player, err := s.repo.Update(ctx, id, editor.ID, asAdmin, upd)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			return nil, models.ErrNotFound
		case errors.Is(err, models.ErrForbidden):
			s.auditLogger.LogAccessDenied(editor.ID, "/players/"+strconv.FormatInt(id, 10), "not-owner")
			return nil, models.ErrForbidden
		case errors.Is(err, models.ErrNameTaken):
			return nil, models.ErrNameTaken
		}
		s.logger.Error("failed to update character", slog.Int64("player_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("character updated", slog.Int64("player_id", id), slog.Int64("editor_id", editor.ID))
	return player, nil
}
