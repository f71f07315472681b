package report

import (
	"context"
	"log/slog"

	sq "github.com/Masterminds/squirrel"

	"github.com/frahmantamala/gearguard/internal"
	"github.com/frahmantamala/gearguard/internal/authz"
)

type RepositoryAPI interface {
	Overview(ctx context.Context, cond sq.Sqlizer) (*Overview, error)
	Requests(ctx context.Context, cond sq.Sqlizer) ([]RequestRow, error)
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (s *Service) Overview(ctx context.Context, actor *authz.Identity) (*Overview, error) {
	scope, err := authz.ForIdentity(actor)
	if err != nil {
		return nil, err
	}
	o, err := s.repo.Overview(ctx, scope.RequestCondition())
	if err != nil {
		s.logger.Error("failed to compute overview", "user_id", scope.UserID(), "error", err)
		return nil, internal.NewPersistenceError("failed to compute overview", err)
	}
	return o, nil
}

// Export gathers everything the spreadsheet needs in one scope.
func (s *Service) Export(ctx context.Context, actor *authz.Identity) (*Overview, []RequestRow, error) {
	scope, err := authz.ForIdentity(actor)
	if err != nil {
		return nil, nil, err
	}
	cond := scope.RequestCondition()

	o, err := s.repo.Overview(ctx, cond)
	if err != nil {
		s.logger.Error("failed to compute overview", "user_id", scope.UserID(), "error", err)
		return nil, nil, internal.NewPersistenceError("failed to compute overview", err)
	}
	rows, err := s.repo.Requests(ctx, cond)
	if err != nil {
		s.logger.Error("failed to load report rows", "user_id", scope.UserID(), "error", err)
		return nil, nil, internal.NewPersistenceError("failed to load report rows", err)
	}
	return o, rows, nil
}
