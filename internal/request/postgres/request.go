package postgres

import (
	"context"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/frahmantamala/gearguard/internal"
	"github.com/frahmantamala/gearguard/internal/authz"
	equipmentDatamodel "github.com/frahmantamala/gearguard/internal/core/datamodel/equipment"
	requestDatamodel "github.com/frahmantamala/gearguard/internal/core/datamodel/request"
	teamDatamodel "github.com/frahmantamala/gearguard/internal/core/datamodel/team"
	userDatamodel "github.com/frahmantamala/gearguard/internal/core/datamodel/user"
	coreUser "github.com/frahmantamala/gearguard/internal/core/user"
	"github.com/frahmantamala/gearguard/internal/request"
)

const table = "maintenance_requests"

type RequestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) request.RepositoryAPI {
	return &RequestRepository{db: db}
}

func withRelations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Equipment").
		Preload("AssignedTechnician").
		Preload("CreatedBy").
		Preload("MaintenanceTeam")
}

func (r *RequestRepository) Create(ctx context.Context, req *request.Request) error {
	m := request.ToDataModel(req)
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(m).Error; err != nil {
		return err
	}
	req.ID = m.ID
	req.CreatedAt = m.CreatedAt
	req.UpdatedAt = m.UpdatedAt
	return nil
}

func (r *RequestRepository) GetByID(ctx context.Context, id int64, cond sq.Sqlizer) (*request.Request, error) {
	var m requestDatamodel.MaintenanceRequest
	q := authz.Where(r.db.WithContext(ctx).Scopes(withRelations), cond)
	if err := q.Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrRequestNotFound
		}
		return nil, err
	}
	return request.FromDataModel(&m), nil
}

func (r *RequestRepository) List(ctx context.Context, cond sq.Sqlizer) ([]*request.Request, error) {
	var models []*requestDatamodel.MaintenanceRequest
	err := authz.Where(r.db.WithContext(ctx).Scopes(withRelations), cond).
		Order("updated_at DESC").
		Order("id DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return request.FromDataModelSlice(models), nil
}

func (r *RequestRepository) Recent(ctx context.Context, cond sq.Sqlizer, limit int) ([]*request.Request, error) {
	var models []*requestDatamodel.MaintenanceRequest
	err := authz.Where(r.db.WithContext(ctx).Scopes(withRelations), cond).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return request.FromDataModelSlice(models), nil
}

func (r *RequestRepository) ListScheduledBetween(ctx context.Context, cond sq.Sqlizer, from, to time.Time) ([]*request.Request, error) {
	window := sq.And{
		sq.GtOrEq{"scheduled_date": from},
		sq.Lt{"scheduled_date": to},
	}
	if cond != nil {
		window = append(window, cond)
	}

	var models []*requestDatamodel.MaintenanceRequest
	err := authz.Where(r.db.WithContext(ctx).Scopes(withRelations), window).
		Order("scheduled_date ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return request.FromDataModelSlice(models), nil
}

func (r *RequestRepository) Update(ctx context.Context, id int64, changes map[string]interface{}) error {
	res := r.db.WithContext(ctx).
		Model(&requestDatamodel.MaintenanceRequest{}).
		Where("id = ?", id).
		Updates(changes)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return internal.ErrRequestNotFound
	}
	return nil
}

func (r *RequestRepository) Delete(ctx context.Context, id int64) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&requestDatamodel.MaintenanceRequest{}, id)
	return res.RowsAffected, res.Error
}

// Stats counts in one pass; pending is NEW and completed is REPAIRED.
func (r *RequestRepository) Stats(ctx context.Context, cond sq.Sqlizer) (*request.Stats, error) {
	q := sq.Select("COUNT(*) AS total").
		Column(sq.Expr("COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS pending", string(request.StatusNew))).
		Column(sq.Expr("COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS in_progress", string(request.StatusInProgress))).
		Column(sq.Expr("COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS completed", string(request.StatusRepaired))).
		From(table)
	q = authz.ApplySelect(q, cond)

	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	var stats request.Stats
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&stats).Error; err != nil {
		return nil, err
	}
	return &stats, nil
}

func (r *RequestRepository) EquipmentExists(ctx context.Context, id int64) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&equipmentDatamodel.Equipment{}).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

func (r *RequestRepository) TechnicianExists(ctx context.Context, id int64) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&userDatamodel.User{}).
		Where("id = ? AND role = ?", id, string(coreUser.RoleTechnician)).
		Count(&n).Error
	return n > 0, err
}

func (r *RequestRepository) TeamExists(ctx context.Context, id int64) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&teamDatamodel.MaintenanceTeam{}).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}
