package request

import (
	"time"

	equipmentDatamodel "github.com/frahmantamala/gearguard/internal/core/datamodel/equipment"
	teamDatamodel "github.com/frahmantamala/gearguard/internal/core/datamodel/team"
	userDatamodel "github.com/frahmantamala/gearguard/internal/core/datamodel/user"
)

type MaintenanceRequest struct {
	ID                   int64                          `gorm:"primaryKey"`
	Subject              string                         `gorm:"column:subject;not null"`
	Description          *string                        `gorm:"column:description"`
	Type                 string                         `gorm:"column:type;not null;default:CORRECTIVE"`
	Status               string                         `gorm:"column:status;not null;default:NEW;index"`
	EquipmentID          int64                          `gorm:"column:equipment_id;not null;index"`
	Equipment            *equipmentDatamodel.Equipment  `gorm:"foreignKey:EquipmentID"`
	AssignedTechnicianID *int64                         `gorm:"column:assigned_technician_id;index"`
	AssignedTechnician   *userDatamodel.User            `gorm:"foreignKey:AssignedTechnicianID"`
	MaintenanceTeamID    *int64                         `gorm:"column:maintenance_team_id;index"`
	MaintenanceTeam      *teamDatamodel.MaintenanceTeam `gorm:"foreignKey:MaintenanceTeamID"`
	CreatedByID          int64                          `gorm:"column:created_by_id;not null;index"`
	CreatedBy            *userDatamodel.User            `gorm:"foreignKey:CreatedByID"`
	ScheduledDate        time.Time                      `gorm:"column:scheduled_date;not null;index"`
	DurationHours        *float64                       `gorm:"column:duration_hours"`
	CreatedAt            time.Time                      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time                      `gorm:"column:updated_at;autoUpdateTime"`
}

func (MaintenanceRequest) TableName() string {
	return "maintenance_requests"
}
