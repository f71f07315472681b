package datamodel

import (
	departmentDatamodel "github.com/frahmantamala/gearguard/internal/core/datamodel/department"
	equipmentDatamodel "github.com/frahmantamala/gearguard/internal/core/datamodel/equipment"
	requestDatamodel "github.com/frahmantamala/gearguard/internal/core/datamodel/request"
	teamDatamodel "github.com/frahmantamala/gearguard/internal/core/datamodel/team"
	userDatamodel "github.com/frahmantamala/gearguard/internal/core/datamodel/user"
)

// All lists every model in dependency order, for AutoMigrate in tests and seeding.
func All() []interface{} {
	return []interface{}{
		&userDatamodel.User{},
		&departmentDatamodel.Department{},
		&teamDatamodel.MaintenanceTeam{},
		&teamDatamodel.TeamMember{},
		&equipmentDatamodel.Equipment{},
		&requestDatamodel.MaintenanceRequest{},
	}
}
