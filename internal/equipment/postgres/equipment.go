package postgres

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/frahmantamala/gearguard/internal"
	"github.com/frahmantamala/gearguard/internal/authz"
	departmentDatamodel "github.com/frahmantamala/gearguard/internal/core/datamodel/department"
	equipmentDatamodel "github.com/frahmantamala/gearguard/internal/core/datamodel/equipment"
	requestDatamodel "github.com/frahmantamala/gearguard/internal/core/datamodel/request"
	teamDatamodel "github.com/frahmantamala/gearguard/internal/core/datamodel/team"
	"github.com/frahmantamala/gearguard/internal/equipment"
	"github.com/frahmantamala/gearguard/internal/request"
)

type EquipmentRepository struct {
	db *gorm.DB
}

func NewEquipmentRepository(db *gorm.DB) equipment.RepositoryAPI {
	return &EquipmentRepository{db: db}
}

func (r *EquipmentRepository) withRelations(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Department").
		Preload("MaintenanceTeam").
		Preload("Owner")
}

func (r *EquipmentRepository) List(ctx context.Context) ([]*equipment.Equipment, error) {
	var rows []equipmentDatamodel.Equipment
	if err := r.withRelations(ctx).Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*equipment.Equipment, 0, len(rows))
	for i := range rows {
		out = append(out, equipment.FromDataModel(&rows[i]))
	}
	return out, nil
}

func (r *EquipmentRepository) GetByID(ctx context.Context, id int64) (*equipment.Equipment, error) {
	var row equipmentDatamodel.Equipment
	err := r.withRelations(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrEquipmentNotFound
		}
		return nil, err
	}
	return equipment.FromDataModel(&row), nil
}

func (r *EquipmentRepository) Create(ctx context.Context, m *equipmentDatamodel.Equipment) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(m).Error
}

func (r *EquipmentRepository) SerialExists(ctx context.Context, serial string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&equipmentDatamodel.Equipment{}).Where("serial_number = ?", serial).Count(&n).Error
	return n > 0, err
}

func (r *EquipmentRepository) DepartmentExists(ctx context.Context, id int64) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&departmentDatamodel.Department{}).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

func (r *EquipmentRepository) TeamExists(ctx context.Context, id int64) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&teamDatamodel.MaintenanceTeam{}).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

func (r *EquipmentRepository) RecentRequests(ctx context.Context, equipmentID int64, cond sq.Sqlizer, limit int) ([]*request.Request, error) {
	q := r.db.WithContext(ctx).
		Preload("AssignedTechnician").
		Where("equipment_id = ?", equipmentID)
	q = authz.Where(q, cond)

	var rows []*requestDatamodel.MaintenanceRequest
	if err := q.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return request.FromDataModelSlice(rows), nil
}
