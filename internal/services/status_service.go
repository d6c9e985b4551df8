package services

import (
	"context"
	"log/slog"
)

// SessionCounter counts live sessions that carry a principal
type SessionCounter interface {
	CountActive(ctx context.Context) (int, error)
}

// ServerStatus is the header data shown on every page
type ServerStatus struct {
	Name   string
	Online int
}

// StatusService reports the server name and the number of players online
type StatusService struct {
	name     string
	sessions SessionCounter
	logger   *slog.Logger
}

// NewStatusService creates a new StatusService
func NewStatusService(name string, sessions SessionCounter, logger *slog.Logger) *StatusService {
	return &StatusService{
		name:     name,
		sessions: sessions,
		logger:   logger,
	}
}

// Status never fails; a counting error reports zero players online
func (s *StatusService) Status(ctx context.Context) ServerStatus {
	online, err := s.sessions.CountActive(ctx)
	if err != nil {
		s.logger.Warn("failed to count active sessions", slog.Any("error", err))
		online = 0
	}
	return ServerStatus{Name: s.name, Online: online}
}
