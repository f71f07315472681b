package equipment

import (
	"context"
	"log/slog"

	sq "github.com/Masterminds/squirrel"

	"github.com/frahmantamala/gearguard/internal"
	"github.com/frahmantamala/gearguard/internal/authz"
	equipmentDatamodel "github.com/frahmantamala/gearguard/internal/core/datamodel/equipment"
	"github.com/frahmantamala/gearguard/internal/request"
)

type RepositoryAPI interface {
	List(ctx context.Context) ([]*Equipment, error)
	GetByID(ctx context.Context, id int64) (*Equipment, error)
	Create(ctx context.Context, m *equipmentDatamodel.Equipment) error
	SerialExists(ctx context.Context, serial string) (bool, error)
	DepartmentExists(ctx context.Context, id int64) (bool, error)
	TeamExists(ctx context.Context, id int64) (bool, error)
	// RecentRequests returns the newest requests on equipmentID that match
	// cond, by creation time.
	RecentRequests(ctx context.Context, equipmentID int64, cond sq.Sqlizer, limit int) ([]*request.Request, error)
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

func (s *Service) List(ctx context.Context) ([]*Equipment, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to list equipment", "error", err)
		return nil, internal.NewPersistenceError("failed to list equipment", err)
	}
	return items, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Equipment, error) {
	if id <= 0 {
		return nil, internal.NewValidationFieldError("id", "equipment id must be a positive number", internal.ErrCodeInvalidReference)
	}
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if internal.IsNotFound(err) {
			return nil, err
		}
		s.logger.Error("failed to get equipment", "equipment_id", id, "error", err)
		return nil, internal.NewPersistenceError("failed to get equipment", err)
	}
	return e, nil
}

// Detail is Get plus the latest requests on the equipment that the actor
// may see.
func (s *Service) Detail(ctx context.Context, actor *authz.Identity, id int64) (*Equipment, error) {
	scope, err := authz.ForIdentity(actor)
	if err != nil {
		return nil, err
	}
	e, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	recent, err := s.repo.RecentRequests(ctx, id, scope.RequestCondition(), RecentRequestLimit)
	if err != nil {
		s.logger.Error("failed to load equipment requests", "equipment_id", id, "user_id", scope.UserID(), "error", err)
		return nil, internal.NewPersistenceError("failed to get equipment", err)
	}
	e.RecentRequests = recent
	return e, nil
}

// Create registers equipment owned by the actor.
func (s *Service) Create(ctx context.Context, actor *authz.Identity, dto CreateEquipmentDTO) (*Equipment, error) {
	scope, err := authz.ForIdentity(actor)
	if err != nil {
		return nil, err
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	if err := s.checkReferences(ctx, dto); err != nil {
		return nil, err
	}

	m := dto.toDataModel(scope.UserID())
	if err := s.repo.Create(ctx, m); err != nil {
		s.logger.Error("failed to create equipment", "serial_number", dto.SerialNumber, "error", err)
		return nil, internal.NewPersistenceError("failed to create equipment", err)
	}

	s.logger.Info("equipment created", "equipment_id", m.ID, "owner_id", scope.UserID())
	return s.Get(ctx, m.ID)
}

func (s *Service) checkReferences(ctx context.Context, dto CreateEquipmentDTO) error {
	dup, err := s.repo.SerialExists(ctx, dto.SerialNumber)
	if err != nil {
		return internal.NewPersistenceError("failed to check serial number", err)
	}
	if dup {
		return internal.NewConflictError("serial number already registered", internal.ErrCodeDuplicate).
			WithDetails(map[string]string{"serial_number": dto.SerialNumber})
	}

	ok, err := s.repo.DepartmentExists(ctx, dto.DepartmentID.Int64())
	if err != nil {
		return internal.NewPersistenceError("failed to resolve department", err)
	}
	if !ok {
		return internal.ErrDepartmentNotFound
	}

	ok, err = s.repo.TeamExists(ctx, dto.MaintenanceTeamID.Int64())
	if err != nil {
		return internal.NewPersistenceError("failed to resolve maintenance team", err)
	}
	if !ok {
		return internal.ErrTeamNotFound
	}
	return nil
}
