package team

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/gearguard/internal"
	"github.com/frahmantamala/gearguard/internal/authz"
)

type RepositoryAPI interface {
	List(ctx context.Context) ([]*Team, error)
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// List returns teams with members. Requesters get an empty list.
func (s *Service) List(ctx context.Context, actor *authz.Identity) ([]*Team, error) {
	scope, err := authz.ForIdentity(actor)
	if err != nil {
		return nil, err
	}
	if !scope.TeamsVisible() {
		return []*Team{}, nil
	}

	teams, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to list teams", "user_id", scope.UserID(), "error", err)
		return nil, internal.NewPersistenceError("failed to list teams", err)
	}
	return teams, nil
}
