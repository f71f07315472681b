package postgres

import (
	"context"

	"gorm.io/gorm"

	equipmentDatamodel "github.com/frahmantamala/gearguard/internal/core/datamodel/equipment"
	teamDatamodel "github.com/frahmantamala/gearguard/internal/core/datamodel/team"
	"github.com/frahmantamala/gearguard/internal/team"
)

type TeamRepository struct {
	db *gorm.DB
}

func NewTeamRepository(db *gorm.DB) team.RepositoryAPI {
	return &TeamRepository{db: db}
}

type equipmentCount struct {
	TeamID int64 `gorm:"column:maintenance_team_id"`
	Total  int   `gorm:"column:total"`
}

func (r *TeamRepository) List(ctx context.Context) ([]*team.Team, error) {
	db := r.db.WithContext(ctx)

	var rows []teamDatamodel.MaintenanceTeam
	err := db.Preload("Members", func(q *gorm.DB) *gorm.DB {
		return q.Order("users.name ASC")
	}).Order("name ASC").Find(&rows).Error
	if err != nil {
		return nil, err
	}

	var counts []equipmentCount
	err = db.Model(&equipmentDatamodel.Equipment{}).
		Select("maintenance_team_id, COUNT(*) AS total").
		Where("maintenance_team_id IS NOT NULL").
		Group("maintenance_team_id").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	byTeam := make(map[int64]int, len(counts))
	for _, c := range counts {
		byTeam[c.TeamID] = c.Total
	}

	out := make([]*team.Team, 0, len(rows))
	for i := range rows {
		t := team.FromDataModel(&rows[i])
		t.EquipmentCount = byTeam[t.ID]
		out = append(out, t)
	}
	return out, nil
}
