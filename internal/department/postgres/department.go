package postgres

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"gorm.io/gorm"

	departmentDatamodel "github.com/frahmantamala/gearguard/internal/core/datamodel/department"
	"github.com/frahmantamala/gearguard/internal/department"
)

type DepartmentRepository struct {
	db *gorm.DB
}

func NewDepartmentRepository(db *gorm.DB) department.RepositoryAPI {
	return &DepartmentRepository{db: db}
}

type departmentCount struct {
	DepartmentID int64 `gorm:"column:department_id"`
	Total        int   `gorm:"column:total"`
}

func (r *DepartmentRepository) GetAll(ctx context.Context) ([]*department.Department, error) {
	var rows []*departmentDatamodel.Department
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	query, args, err := sq.Select("department_id", "COUNT(*) AS total").
		From("equipment").
		Where(sq.NotEq{"department_id": nil}).
		GroupBy("department_id").
		ToSql()
	if err != nil {
		return nil, err
	}
	var counts []departmentCount
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&counts).Error; err != nil {
		return nil, err
	}
	byDepartment := make(map[int64]int, len(counts))
	for _, c := range counts {
		byDepartment[c.DepartmentID] = c.Total
	}

	out := make([]*department.Department, 0, len(rows))
	for _, row := range rows {
		d := department.FromDataModel(row)
		d.EquipmentCount = byDepartment[d.ID]
		out = append(out, d)
	}
	return out, nil
}
