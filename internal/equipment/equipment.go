package equipment

import (
	"time"

	equipmentDatamodel "github.com/frahmantamala/gearguard/internal/core/datamodel/equipment"
	"github.com/frahmantamala/gearguard/internal/request"
)

// RecentRequestLimit caps the request history on the detail view.
const RecentRequestLimit = 5

type Ref struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Equipment struct {
	ID                int64      `json:"id"`
	Name              string     `json:"name"`
	SerialNumber      string     `json:"serial_number"`
	Location          string     `json:"location"`
	PurchaseDate      time.Time  `json:"purchase_date"`
	WarrantyEnd       *time.Time `json:"warranty_end,omitempty"`
	DepartmentID      *int64     `json:"department_id,omitempty"`
	Department        *Ref       `json:"department,omitempty"`
	MaintenanceTeamID *int64     `json:"maintenance_team_id,omitempty"`
	MaintenanceTeam   *Ref       `json:"maintenance_team,omitempty"`
	OwnerID           *int64     `json:"owner_id,omitempty"`
	Owner             *Ref       `json:"owner,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`

	// RecentRequests is filled on the detail view only, newest first.
	RecentRequests []*request.Request `json:"recent_requests,omitempty"`
}

// UnderWarranty reports whether the warranty covers at.
func (e *Equipment) UnderWarranty(at time.Time) bool {
	return e.WarrantyEnd != nil && !at.After(*e.WarrantyEnd)
}

func FromDataModel(m *equipmentDatamodel.Equipment) *Equipment {
	e := &Equipment{
		ID:                m.ID,
		Name:              m.Name,
		SerialNumber:      m.SerialNumber,
		Location:          m.Location,
		PurchaseDate:      m.PurchaseDate,
		WarrantyEnd:       m.WarrantyEnd,
		DepartmentID:      m.DepartmentID,
		MaintenanceTeamID: m.MaintenanceTeamID,
		OwnerID:           m.OwnerID,
		CreatedAt:         m.CreatedAt,
	}
	if m.Department != nil {
		e.Department = &Ref{ID: m.Department.ID, Name: m.Department.Name}
	}
	if m.MaintenanceTeam != nil {
		e.MaintenanceTeam = &Ref{ID: m.MaintenanceTeam.ID, Name: m.MaintenanceTeam.Name}
	}
	if m.Owner != nil {
		e.Owner = &Ref{ID: m.Owner.ID, Name: m.Owner.Name}
	}
	return e
}
