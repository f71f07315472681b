package department

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/gearguard/internal"
	"github.com/frahmantamala/gearguard/internal/authz"
)

type RepositoryAPI interface {
	GetAll(ctx context.Context) ([]*Department, error)
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// List is the admin view with equipment counts.
func (s *Service) List(ctx context.Context, actor *authz.Identity) ([]*Department, error) {
	scope, err := authz.ForIdentity(actor)
	if err != nil {
		return nil, err
	}
	if !scope.IsAdmin() {
		return nil, internal.ErrRoleNotAllowed
	}

	departments, err := s.repo.GetAll(ctx)
	if err != nil {
		s.logger.Error("failed to get departments from repository", "error", err)
		return nil, internal.NewPersistenceError("failed to list departments", err)
	}

	s.logger.Info("retrieved departments", "count", len(departments))
	return departments, nil
}

func (s *Service) Options(ctx context.Context) ([]Option, error) {
	departments, err := s.repo.GetAll(ctx)
	if err != nil {
		s.logger.Error("failed to get departments from repository", "error", err)
		return nil, internal.NewPersistenceError("failed to list departments", err)
	}

	options := make([]Option, 0, len(departments))
	for _, d := range departments {
		options = append(options, d.ToOption())
	}
	return options, nil
}
