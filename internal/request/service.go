package request

import (
	"context"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/frahmantamala/gearguard/internal"
	"github.com/frahmantamala/gearguard/internal/authz"
	"github.com/frahmantamala/gearguard/internal/core/common/coerce"
	"github.com/frahmantamala/gearguard/internal/core/events"
	coreUser "github.com/frahmantamala/gearguard/internal/core/user"
)

const (
	DefaultRecentLimit = 5
	MaxRecentLimit     = 50
)

// RepositoryAPI is the entity store for requests. Conditions come from authz
// and are applied while the query is built; a nil condition means unscoped.
type RepositoryAPI interface {
	Create(ctx context.Context, r *Request) error
	GetByID(ctx context.Context, id int64, cond sq.Sqlizer) (*Request, error)
	List(ctx context.Context, cond sq.Sqlizer) ([]*Request, error)
	Recent(ctx context.Context, cond sq.Sqlizer, limit int) ([]*Request, error)
	ListScheduledBetween(ctx context.Context, cond sq.Sqlizer, from, to time.Time) ([]*Request, error)
	Update(ctx context.Context, id int64, changes map[string]interface{}) error
	Delete(ctx context.Context, id int64) (int64, error)
	Stats(ctx context.Context, cond sq.Sqlizer) (*Stats, error)
	EquipmentExists(ctx context.Context, id int64) (bool, error)
	TechnicianExists(ctx context.Context, id int64) (bool, error)
	TeamExists(ctx context.Context, id int64) (bool, error)
}

type Service struct {
	repo      RepositoryAPI
	policy    TransitionPolicy
	publisher events.Publisher
	logger    *slog.Logger
}

func NewService(repo RepositoryAPI, policy TransitionPolicy, publisher events.Publisher, logger *slog.Logger) *Service {
	if policy == nil {
		policy = AllowAll{}
	}
	return &Service{
		repo:      repo,
		policy:    policy,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *Service) Create(ctx context.Context, actor *authz.Identity, dto CreateRequestDTO) (*Request, error) {
	scope, err := authz.ForIdentity(actor)
	if err != nil {
		return nil, err
	}

	if err := dto.Validate(); err != nil {
		s.logger.Warn("request validation failed", "error", err, "user_id", scope.UserID())
		return nil, err
	}

	if dto.CreatedByID != nil && dto.CreatedByID.Int64() != scope.UserID() {
		s.logger.Warn("ignoring client supplied created_by_id",
			"user_id", scope.UserID(),
			"supplied", dto.CreatedByID.Int64())
	}

	reqType := Type(dto.Type)
	if scope.Role() == coreUser.RoleRequester && reqType != TypeCorrective {
		s.logger.Warn("requester attempted non-corrective request", "user_id", scope.UserID(), "type", reqType)
		return nil, internal.ErrRoleNotAllowed.WithDetails(map[string]string{"field": "type"})
	}
	if dto.AssignedTechnicianID.Valid && !scope.CanEditPrivilegedFields() {
		return nil, internal.ErrRoleNotAllowed.WithDetails(map[string]string{"field": "assigned_technician_id"})
	}

	status := Status(dto.Status)
	if err := CheckTransition(s.policy, StatusNew, status, scope.Role()); err != nil {
		return nil, err
	}

	if err := s.checkReferences(ctx, dto.EquipmentID.Int64(), dto.AssignedTechnicianID, dto.MaintenanceTeamID, true); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	req := &Request{
		Subject:              dto.Subject,
		Description:          dto.Description,
		Type:                 reqType,
		Status:               status,
		EquipmentID:          dto.EquipmentID.Int64(),
		AssignedTechnicianID: dto.AssignedTechnicianID.Ptr(),
		MaintenanceTeamID:    dto.MaintenanceTeamID.Ptr(),
		CreatedByID:          scope.UserID(),
		ScheduledDate:        dto.ScheduledDate.Time,
		DurationHours:        dto.DurationHours,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	if err := s.repo.Create(ctx, req); err != nil {
		s.logger.Error("failed to create request", "error", err, "user_id", scope.UserID())
		return nil, persistence("failed to create maintenance request", err)
	}

	created, err := s.repo.GetByID(ctx, req.ID, nil)
	if err != nil {
		s.logger.Error("failed to reload created request", "error", err, "request_id", req.ID)
		return nil, persistence("failed to load maintenance request", err)
	}

	s.publish(ctx, events.NewRequestCreatedEvent(created.ID, scope.UserID(), string(created.Status)))

	s.logger.Info("request created",
		"request_id", created.ID,
		"user_id", scope.UserID(),
		"type", created.Type,
		"status", created.Status)

	return created, nil
}

func (s *Service) Get(ctx context.Context, actor *authz.Identity, id int64) (*Request, error) {
	scope, err := authz.ForIdentity(actor)
	if err != nil {
		return nil, err
	}
	return s.getScoped(ctx, scope, id)
}

func (s *Service) getScoped(ctx context.Context, scope authz.Scope, id int64) (*Request, error) {
	req, err := s.repo.GetByID(ctx, id, scope.RequestCondition())
	if err != nil {
		if internal.IsNotFound(err) {
			s.logger.Debug("request not visible", "request_id", id, "user_id", scope.UserID())
			return nil, internal.ErrRequestNotFound
		}
		s.logger.Error("failed to get request", "error", err, "request_id", id)
		return nil, persistence("failed to load maintenance request", err)
	}
	return req, nil
}

// List returns the caller's visible requests, most recently updated first.
func (s *Service) List(ctx context.Context, actor *authz.Identity) ([]*Request, error) {
	scope, err := authz.ForIdentity(actor)
	if err != nil {
		return nil, err
	}
	reqs, err := s.repo.List(ctx, scope.RequestCondition())
	if err != nil {
		s.logger.Error("failed to list requests", "error", err, "user_id", scope.UserID())
		return nil, persistence("failed to list maintenance requests", err)
	}
	return reqs, nil
}

func (s *Service) Recent(ctx context.Context, actor *authz.Identity, limit int) ([]*Request, error) {
	scope, err := authz.ForIdentity(actor)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	if limit > MaxRecentLimit {
		limit = MaxRecentLimit
	}
	reqs, err := s.repo.Recent(ctx, scope.StatsCondition(), limit)
	if err != nil {
		s.logger.Error("failed to list recent requests", "error", err, "user_id", scope.UserID())
		return nil, persistence("failed to list recent requests", err)
	}
	return reqs, nil
}

func (s *Service) Stats(ctx context.Context, actor *authz.Identity) (*Stats, error) {
	scope, err := authz.ForIdentity(actor)
	if err != nil {
		return nil, err
	}
	stats, err := s.repo.Stats(ctx, scope.StatsCondition())
	if err != nil {
		s.logger.Error("failed to compute dashboard stats", "error", err, "user_id", scope.UserID())
		return nil, persistence("failed to compute dashboard stats", err)
	}
	return stats, nil
}

// ListScheduled returns visible requests scheduled in [from, to).
func (s *Service) ListScheduled(ctx context.Context, actor *authz.Identity, from, to time.Time) ([]*Request, error) {
	scope, err := authz.ForIdentity(actor)
	if err != nil {
		return nil, err
	}
	reqs, err := s.repo.ListScheduledBetween(ctx, scope.RequestCondition(), from, to)
	if err != nil {
		s.logger.Error("failed to list scheduled requests", "error", err, "user_id", scope.UserID())
		return nil, persistence("failed to list scheduled requests", err)
	}
	return reqs, nil
}

// Update applies only the supplied fields. Requests outside the caller's
// scope are reported as not found.
func (s *Service) Update(ctx context.Context, actor *authz.Identity, id int64, dto UpdateRequestDTO) (*Request, error) {
	scope, err := authz.ForIdentity(actor)
	if err != nil {
		return nil, err
	}

	if err := dto.Validate(); err != nil {
		s.logger.Warn("request update validation failed", "error", err, "request_id", id)
		return nil, err
	}

	current, err := s.getScoped(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if !scope.CanMutateRequest(current.CreatedByID) {
		return nil, internal.ErrRequestNotFound
	}

	if dto.TouchesPrivilegedFields() && !scope.CanEditPrivilegedFields() {
		s.logger.Warn("privileged field edit denied", "request_id", id, "user_id", scope.UserID())
		return nil, internal.ErrRoleNotAllowed
	}

	if dto.Empty() {
		return current, nil
	}

	changes := map[string]interface{}{}
	if dto.Subject != nil {
		changes["subject"] = *dto.Subject
	}
	if dto.Description != nil {
		changes["description"] = trimOptional(dto.Description)
	}
	if dto.Type != nil {
		changes["type"] = *dto.Type
	}
	if dto.Status != nil {
		next := Status(*dto.Status)
		if err := CheckTransition(s.policy, current.Status, next, scope.Role()); err != nil {
			s.logger.Warn("status transition rejected",
				"request_id", id,
				"from", current.Status,
				"to", next,
				"role", scope.Role())
			return nil, err
		}
		changes["status"] = *dto.Status
	}
	if dto.ScheduledDate != nil {
		if dto.ScheduledDate.IsZero() {
			return nil, internal.NewValidationFieldError("scheduled_date", "scheduled_date is required", internal.ErrCodeInvalidDate)
		}
		changes["scheduled_date"] = dto.ScheduledDate.Time
	}
	if dto.DurationHours != nil {
		changes["duration_hours"] = *dto.DurationHours
	}

	equipmentID := int64(0)
	if dto.EquipmentID != nil {
		equipmentID = dto.EquipmentID.Int64()
		changes["equipment_id"] = equipmentID
	}
	if dto.MaintenanceTeamID.Set {
		changes["maintenance_team_id"] = dto.MaintenanceTeamID.Ptr()
	}
	if dto.AssignedTechnicianID.Set {
		changes["assigned_technician_id"] = dto.AssignedTechnicianID.Ptr()
	}
	if err := s.checkReferences(ctx, equipmentID, dto.AssignedTechnicianID, dto.MaintenanceTeamID, false); err != nil {
		return nil, err
	}

	changes["updated_at"] = time.Now().UTC()

	if err := s.repo.Update(ctx, id, changes); err != nil {
		if internal.IsNotFound(err) {
			return nil, internal.ErrRequestNotFound
		}
		s.logger.Error("failed to update request", "error", err, "request_id", id)
		return nil, persistence("failed to update maintenance request", err)
	}

	updated, err := s.repo.GetByID(ctx, id, nil)
	if err != nil {
		s.logger.Error("failed to reload updated request", "error", err, "request_id", id)
		return nil, persistence("failed to load maintenance request", err)
	}

	s.publish(ctx, events.NewRequestUpdatedEvent(id, scope.UserID(), string(updated.Status)))

	s.logger.Info("request updated",
		"request_id", id,
		"user_id", scope.UserID(),
		"fields", len(changes)-1)

	return updated, nil
}

// UpdateStatus is the drag path: status plus an optional assignment.
func (s *Service) UpdateStatus(ctx context.Context, actor *authz.Identity, id int64, dto StatusUpdateDTO) (*Request, error) {
	if _, err := authz.ForIdentity(actor); err != nil {
		return nil, err
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	return s.Update(ctx, actor, id, dto.ToUpdate())
}

// Delete hard-deletes. A second delete of the same id fails with not found.
func (s *Service) Delete(ctx context.Context, actor *authz.Identity, id int64) error {
	scope, err := authz.ForIdentity(actor)
	if err != nil {
		return err
	}

	current, err := s.getScoped(ctx, scope, id)
	if err != nil {
		return err
	}
	if !scope.CanMutateRequest(current.CreatedByID) {
		return internal.ErrRequestNotFound
	}

	affected, err := s.repo.Delete(ctx, id)
	if err != nil {
		s.logger.Error("failed to delete request", "error", err, "request_id", id)
		return persistence("failed to delete maintenance request", err)
	}
	if affected == 0 {
		return internal.ErrRequestNotFound
	}

	s.publish(ctx, events.NewRequestDeletedEvent(id, scope.UserID()))

	s.logger.Info("request deleted", "request_id", id, "user_id", scope.UserID())
	return nil
}

// checkReferences resolves foreign keys before they are written. equipmentID
// of zero is skipped on update.
func (s *Service) checkReferences(ctx context.Context, equipmentID int64, technician, team coerce.OptionalID, requireEquipment bool) error {
	if requireEquipment || equipmentID > 0 {
		ok, err := s.repo.EquipmentExists(ctx, equipmentID)
		if err != nil {
			return persistence("failed to resolve equipment", err)
		}
		if !ok {
			return internal.ErrEquipmentNotFound
		}
	}
	if id := technician.Ptr(); id != nil {
		ok, err := s.repo.TechnicianExists(ctx, *id)
		if err != nil {
			return persistence("failed to resolve technician", err)
		}
		if !ok {
			return internal.ErrUserNotFound.WithDetails(map[string]string{"field": "assigned_technician_id"})
		}
	}
	if id := team.Ptr(); id != nil {
		ok, err := s.repo.TeamExists(ctx, *id)
		if err != nil {
			return persistence("failed to resolve maintenance team", err)
		}
		if !ok {
			return internal.ErrTeamNotFound
		}
	}
	return nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("failed to publish request event", "error", err, "event_type", event.EventType())
	}
}

func persistence(msg string, err error) error {
	if appErr, ok := internal.IsAppError(err); ok {
		return appErr
	}
	return internal.NewPersistenceError(msg, err)
}
