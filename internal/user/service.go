package user

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/gearguard/internal"
	"github.com/frahmantamala/gearguard/internal/authz"
	"github.com/frahmantamala/gearguard/internal/request"
)

type RepositoryAPI interface {
	GetByID(ctx context.Context, id int64) (*User, error)
	// ListTechnicians returns all technicians when ids is nil, otherwise only
	// those ids.
	ListTechnicians(ctx context.Context, ids []int64) ([]*Technician, error)
	// AssignedTechnicianIDs lists the distinct technicians assigned to
	// requests created by requesterID.
	AssignedTechnicianIDs(ctx context.Context, requesterID int64) ([]int64, error)
	ProfileStats(ctx context.Context, userID int64) (ProfileStats, error)
	RecentAssigned(ctx context.Context, technicianID int64, limit int) ([]*request.Request, error)
	RecentCreated(ctx context.Context, creatorID int64, limit int) ([]*request.Request, error)
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

func (s *Service) GetByID(ctx context.Context, id int64) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if internal.IsNotFound(err) {
			return nil, err
		}
		s.logger.Error("failed to get user", "user_id", id, "error", err)
		return nil, internal.NewPersistenceError("failed to get user", err)
	}
	return u, nil
}

// Technicians is the technician directory. Requesters only see technicians
// assigned to their own requests.
func (s *Service) Technicians(ctx context.Context, actor *authz.Identity) ([]*Technician, error) {
	scope, err := authz.ForIdentity(actor)
	if err != nil {
		return nil, err
	}

	var ids []int64
	if scope.TechniciansRestricted() {
		ids, err = s.repo.AssignedTechnicianIDs(ctx, scope.UserID())
		if err != nil {
			s.logger.Error("failed to resolve assigned technicians", "user_id", scope.UserID(), "error", err)
			return nil, internal.NewPersistenceError("failed to list technicians", err)
		}
		if len(ids) == 0 {
			return []*Technician{}, nil
		}
	}

	techs, err := s.repo.ListTechnicians(ctx, ids)
	if err != nil {
		s.logger.Error("failed to list technicians", "user_id", scope.UserID(), "error", err)
		return nil, internal.NewPersistenceError("failed to list technicians", err)
	}
	return techs, nil
}

// Profile summarises the actor's own account. Every list is the actor's own
// work, so no further scoping applies.
func (s *Service) Profile(ctx context.Context, actor *authz.Identity) (*Profile, error) {
	scope, err := authz.ForIdentity(actor)
	if err != nil {
		return nil, err
	}
	u, err := s.GetByID(ctx, scope.UserID())
	if err != nil {
		return nil, err
	}

	stats, err := s.repo.ProfileStats(ctx, u.ID)
	if err != nil {
		s.logger.Error("failed to count profile stats", "user_id", u.ID, "error", err)
		return nil, internal.NewPersistenceError("failed to load profile", err)
	}
	assigned, err := s.repo.RecentAssigned(ctx, u.ID, ProfileRecentLimit)
	if err != nil {
		s.logger.Error("failed to load assigned requests", "user_id", u.ID, "error", err)
		return nil, internal.NewPersistenceError("failed to load profile", err)
	}
	created, err := s.repo.RecentCreated(ctx, u.ID, ProfileRecentLimit)
	if err != nil {
		s.logger.Error("failed to load created requests", "user_id", u.ID, "error", err)
		return nil, internal.NewPersistenceError("failed to load profile", err)
	}

	return &Profile{
		User:           *u,
		Stats:          stats,
		RecentAssigned: assigned,
		RecentCreated:  created,
	}, nil
}
