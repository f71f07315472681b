package team

import (
	"time"

	userDatamodel "github.com/frahmantamala/gearguard/internal/core/datamodel/user"
)

type MaintenanceTeam struct {
	ID        int64                `gorm:"primaryKey"`
	Name      string               `gorm:"column:name;uniqueIndex;not null"`
	Members   []userDatamodel.User `gorm:"many2many:team_members;joinForeignKey:TeamID;joinReferences:UserID"`
	CreatedAt time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (MaintenanceTeam) TableName() string {
	return "maintenance_teams"
}

// TeamMember is the join row between teams and technicians.
type TeamMember struct {
	TeamID int64 `gorm:"column:team_id;primaryKey"`
	UserID int64 `gorm:"column:user_id;primaryKey"`
}

func (TeamMember) TableName() string {
	return "team_members"
}
