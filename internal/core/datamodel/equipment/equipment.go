package equipment

import (
	"time"

	departmentDatamodel "github.com/frahmantamala/gearguard/internal/core/datamodel/department"
	teamDatamodel "github.com/frahmantamala/gearguard/internal/core/datamodel/team"
	userDatamodel "github.com/frahmantamala/gearguard/internal/core/datamodel/user"
)

type Equipment struct {
	ID                int64                           `gorm:"primaryKey"`
	Name              string                          `gorm:"column:name;not null"`
	SerialNumber      string                          `gorm:"column:serial_number;uniqueIndex;not null"`
	Location          string                          `gorm:"column:location;not null"`
	PurchaseDate      time.Time                       `gorm:"column:purchase_date;not null"`
	WarrantyEnd       *time.Time                      `gorm:"column:warranty_end"`
	DepartmentID      *int64                          `gorm:"column:department_id;index"`
	Department        *departmentDatamodel.Department `gorm:"foreignKey:DepartmentID"`
	MaintenanceTeamID *int64                          `gorm:"column:maintenance_team_id;index"`
	MaintenanceTeam   *teamDatamodel.MaintenanceTeam  `gorm:"foreignKey:MaintenanceTeamID"`
	OwnerID           *int64                          `gorm:"column:owner_id;index"`
	Owner             *userDatamodel.User             `gorm:"foreignKey:OwnerID"`
	CreatedAt         time.Time                       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time                       `gorm:"column:updated_at;autoUpdateTime"`
}

func (Equipment) TableName() string {
	return "equipment"
}
