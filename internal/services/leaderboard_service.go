package services

import (
	"context"
	"log/slog"
	"math"

	"github.com/mystic-aac/accountcenter/internal/models"
)

const (
	DefaultPage             = 1
	DefaultLeaderboardLimit = 10
	MaxLeaderboardLimit     = 100
)

// LeaderboardQuery is the parsed query string of the leaderboard endpoint
type LeaderboardQuery struct {
	Page     int
	Limit    int
	Vocation *models.Vocation
	MinLevel int
}

// LeaderboardPage is one page of the leaderboard
type LeaderboardPage struct {
	Total   int             `json:"total"`
	Page    int             `json:"page"`
	Limit   int             `json:"limit"`
	Players []models.Player `json:"players"`
}

// LeaderboardService ranks characters by level
type LeaderboardService struct {
	repo   PlayerRepository
	logger *slog.Logger
}

// NewLeaderboardService creates a new LeaderboardService
func NewLeaderboardService(repo PlayerRepository, logger *slog.Logger) *LeaderboardService {
	return &LeaderboardService{
		repo:   repo,
		logger: logger,
	}
}

// Page returns the requested page. Out of range page and limit values are
// replaced with defaults, limit is capped, and page is capped so the offset
// cannot overflow.
func (s *LeaderboardService) Page(ctx context.Context, q LeaderboardQuery) (*LeaderboardPage, error) {
	if q.Page < 1 {
		q.Page = DefaultPage
	}
	if q.Limit < 1 {
		q.Limit = DefaultLeaderboardLimit
	}
	if q.Limit > MaxLeaderboardLimit {
		q.Limit = MaxLeaderboardLimit
	}
	if maxPage := math.MaxInt / q.Limit; q.Page > maxPage {
		q.Page = maxPage
	}
	if q.MinLevel < 0 {
		q.MinLevel = 0
	}

	players, total, err := s.repo.List(ctx, models.PlayerFilter{
		Vocation: q.Vocation,
		MinLevel: q.MinLevel,
		Limit:    q.Limit,
		Offset:   (q.Page - 1) * q.Limit,
	})
	if err != nil {
		s.logger.Error("failed to list leaderboard", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	if players == nil {
		players = []models.Player{}
	}

	return &LeaderboardPage{
		Total:   total,
		Page:    q.Page,
		Limit:   q.Limit,
		Players: players,
	}, nil
}
