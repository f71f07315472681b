package request

import (
	"strconv"
	"time"

	equipmentDatamodel "github.com/frahmantamala/gearguard/internal/core/datamodel/equipment"
	requestDatamodel "github.com/frahmantamala/gearguard/internal/core/datamodel/request"
	teamDatamodel "github.com/frahmantamala/gearguard/internal/core/datamodel/team"
	userDatamodel "github.com/frahmantamala/gearguard/internal/core/datamodel/user"
)

type Request struct {
	ID                   int64     `json:"id"`
	Subject              string    `json:"subject"`
	Description          *string   `json:"description,omitempty"`
	Type                 Type      `json:"type"`
	Status               Status    `json:"status"`
	EquipmentID          int64     `json:"equipment_id"`
	AssignedTechnicianID *int64    `json:"assigned_technician_id"`
	MaintenanceTeamID    *int64    `json:"maintenance_team_id"`
	CreatedByID          int64     `json:"created_by_id"`
	ScheduledDate        time.Time `json:"scheduled_date"`
	DurationHours        *float64  `json:"duration_hours,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`

	Equipment          *EquipmentRef `json:"equipment,omitempty"`
	AssignedTechnician *UserRef      `json:"assigned_technician,omitempty"`
	CreatedBy          *UserRef      `json:"created_by,omitempty"`
	MaintenanceTeam    *TeamRef      `json:"maintenance_team,omitempty"`

	// TempID is set only on provisional board entries awaiting a server id.
	TempID string `json:"temp_id,omitempty"`
}

type EquipmentRef struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	SerialNumber string `json:"serial_number"`
	Location     string `json:"location"`
}

type UserRef struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Email string  `json:"email"`
	Role  string  `json:"role"`
	Image *string `json:"image,omitempty"`
}

type TeamRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Key is the id as compared on the board: the server id when known,
// otherwise the provisional one.
func (r Request) Key() string {
	if r.TempID != "" && r.ID == 0 {
		return r.TempID
	}
	return strconv.FormatInt(r.ID, 10)
}

func (r Request) Provisional() bool {
	return r.ID == 0 && r.TempID != ""
}

func ToDataModel(r *Request) *requestDatamodel.MaintenanceRequest {
	return &requestDatamodel.MaintenanceRequest{
		ID:                   r.ID,
		Subject:              r.Subject,
		Description:          r.Description,
		Type:                 string(r.Type),
		Status:               string(r.Status),
		EquipmentID:          r.EquipmentID,
		AssignedTechnicianID: r.AssignedTechnicianID,
		MaintenanceTeamID:    r.MaintenanceTeamID,
		CreatedByID:          r.CreatedByID,
		ScheduledDate:        r.ScheduledDate,
		DurationHours:        r.DurationHours,
		CreatedAt:            r.CreatedAt,
		UpdatedAt:            r.UpdatedAt,
	}
}

func FromDataModel(m *requestDatamodel.MaintenanceRequest) *Request {
	return &Request{
		ID:                   m.ID,
		Subject:              m.Subject,
		Description:          m.Description,
		Type:                 Type(m.Type),
		Status:               Status(m.Status),
		EquipmentID:          m.EquipmentID,
		AssignedTechnicianID: m.AssignedTechnicianID,
		MaintenanceTeamID:    m.MaintenanceTeamID,
		CreatedByID:          m.CreatedByID,
		ScheduledDate:        m.ScheduledDate.UTC(),
		DurationHours:        m.DurationHours,
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
		Equipment:            equipmentRef(m.Equipment),
		AssignedTechnician:   userRef(m.AssignedTechnician),
		CreatedBy:            userRef(m.CreatedBy),
		MaintenanceTeam:      teamRef(m.MaintenanceTeam),
	}
}

func FromDataModelSlice(models []*requestDatamodel.MaintenanceRequest) []*Request {
	result := make([]*Request, len(models))
	for i, m := range models {
		result[i] = FromDataModel(m)
	}
	return result
}

func equipmentRef(e *equipmentDatamodel.Equipment) *EquipmentRef {
	if e == nil {
		return nil
	}
	return &EquipmentRef{ID: e.ID, Name: e.Name, SerialNumber: e.SerialNumber, Location: e.Location}
}

func userRef(u *userDatamodel.User) *UserRef {
	if u == nil {
		return nil
	}
	return &UserRef{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, Image: u.Image}
}

func teamRef(t *teamDatamodel.MaintenanceTeam) *TeamRef {
	if t == nil {
		return nil
	}
	return &TeamRef{ID: t.ID, Name: t.Name}
}

// Stats is the dashboard summary.
type Stats struct {
	Total      int64 `json:"total"`
	Pending    int64 `json:"pending"`
	InProgress int64 `json:"in_progress"`
	Completed  int64 `json:"completed"`
}
