package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/mystic-aac/accountcenter/internal/models"
)

// NewsRepository defines the interface for news data access
type NewsRepository interface {
	Latest(ctx context.Context, limit int) ([]models.News, error)
	GetByID(ctx context.Context, id int64) (*models.News, error)
	Create(ctx context.Context, news *models.News) (*models.News, error)
	Update(ctx context.Context, id int64, news *models.News) (*models.News, error)
	Delete(ctx context.Context, id int64) error
}

const (
	HomeNewsLimit = 5
	FeedNewsLimit = 10
)

// NewsInput carries the editable fields of a news item
type NewsInput struct {
	Title   string
	Summary string
	Content string
}

func (in NewsInput) normalize() (NewsInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Summary = strings.TrimSpace(in.Summary)
	in.Content = strings.TrimSpace(in.Content)
	if in.Title == "" || in.Summary == "" || in.Content == "" {
		return in, models.ErrBadRequest
	}
	return in, nil
}

// NewsService handles the news feed
type NewsService struct {
	repo   NewsRepository
	logger *slog.Logger
}

// NewNewsService creates a new NewsService
func NewNewsService(repo NewsRepository, logger *slog.Logger) *NewsService {
	return &NewsService{
		repo:   repo,
		logger: logger,
	}
}

// Latest returns up to limit items, newest first
func (s *NewsService) Latest(ctx context.Context, limit int) ([]models.News, error) {
	if limit <= 0 {
		limit = FeedNewsLimit
	}
	items, err := s.repo.Latest(ctx, limit)
	if err != nil {
		s.logger.Error("failed to list news", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return items, nil
}

func (s *NewsService) Get(ctx context.Context, id int64) (*models.News, error) {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapError("get", id, err)
	}
	return item, nil
}

// Create publishes a news item authored by authorID
func (s *NewsService) Create(ctx context.Context, authorID int64, in NewsInput) (*models.News, error) {
	in, err := in.normalize()
	if err != nil {
		return nil, err
	}

	item, err := s.repo.Create(ctx, &models.News{
		Title:    in.Title,
		Summary:  in.Summary,
		Content:  in.Content,
		AuthorID: &authorID,
	})
	if err != nil {
		s.logger.Error("failed to create news", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("news created", slog.Int64("news_id", item.ID), slog.Int64("author_id", authorID))
	return item, nil
}

func (s *NewsService) Update(ctx context.Context, id int64, in NewsInput) (*models.News, error) {
	in, err := in.normalize()
	if err != nil {
		return nil, err
	}

	item, err := s.repo.Update(ctx, id, &models.News{Title: in.Title, Summary: in.Summary, Content: in.Content})
	if err != nil {
		return nil, s.mapError("update", id, err)
	}
	return item, nil
}

func (s *NewsService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.mapError("delete", id, err)
	}
	s.logger.Info("news deleted", slog.Int64("news_id", id))
	return nil
}

func (s *NewsService) mapError(op string, id int64, err error) error {
	if errors.Is(err, models.ErrNotFound) {
		return models.ErrNotFound
	}
	s.logger.Error("news "+op+" failed", slog.Int64("news_id", id), slog.Any("error", err))
	return models.ErrInternalServer
}
