package request

import (
	"strings"

	"github.com/frahmantamala/gearguard/internal/core/common/coerce"
	"github.com/frahmantamala/gearguard/internal/core/common/validation"
)

// CreateRequestDTO is the create payload. Ids may arrive as numbers or strings.
// CreatedByID is accepted so that clients sending it do not fail decoding;
// it is never read.
type CreateRequestDTO struct {
	Subject              string            `json:"subject" validate:"required,min=1"`
	Description          *string           `json:"description,omitempty"`
	Type                 string            `json:"type" validate:"omitempty,oneof=CORRECTIVE PREVENTIVE"`
	Status               string            `json:"status" validate:"omitempty,oneof=NEW IN_PROGRESS REPAIRED SCRAP"`
	EquipmentID          coerce.ID         `json:"equipment_id" validate:"required,gt=0"`
	ScheduledDate        coerce.Time       `json:"scheduled_date" validate:"required"`
	DurationHours        *float64          `json:"duration_hours,omitempty" validate:"omitempty,gte=1"`
	MaintenanceTeamID    coerce.OptionalID `json:"maintenance_team_id" validate:"omitempty,gt=0"`
	AssignedTechnicianID coerce.OptionalID `json:"assigned_technician_id" validate:"omitempty,gt=0"`
	CreatedByID          *coerce.ID        `json:"created_by_id,omitempty"`
}

func (dto *CreateRequestDTO) normalize() {
	dto.Subject = strings.TrimSpace(dto.Subject)
	dto.Type = strings.ToUpper(strings.TrimSpace(dto.Type))
	dto.Status = strings.ToUpper(strings.TrimSpace(dto.Status))
	if dto.Type == "" {
		dto.Type = string(TypeCorrective)
	}
	if dto.Status == "" {
		dto.Status = string(StatusNew)
	}
	dto.Description = trimOptional(dto.Description)
}

// Validate normalizes the payload in place and checks field rules.
func (dto *CreateRequestDTO) Validate() error {
	dto.normalize()
	if err := validation.Struct(dto); err != nil {
		return err
	}
	return nil
}

// UpdateRequestDTO carries only the fields the client supplied.
type UpdateRequestDTO struct {
	Subject              *string           `json:"subject,omitempty" validate:"omitempty,min=1"`
	Description          *string           `json:"description,omitempty"`
	Type                 *string           `json:"type,omitempty" validate:"omitempty,oneof=CORRECTIVE PREVENTIVE"`
	Status               *string           `json:"status,omitempty" validate:"omitempty,oneof=NEW IN_PROGRESS REPAIRED SCRAP"`
	EquipmentID          *coerce.ID        `json:"equipment_id,omitempty" validate:"omitempty,gt=0"`
	ScheduledDate        *coerce.Time      `json:"scheduled_date,omitempty"`
	DurationHours        *float64          `json:"duration_hours,omitempty" validate:"omitempty,gte=1"`
	MaintenanceTeamID    coerce.OptionalID `json:"maintenance_team_id" validate:"omitempty,gt=0"`
	AssignedTechnicianID coerce.OptionalID `json:"assigned_technician_id" validate:"omitempty,gt=0"`
}

func (dto *UpdateRequestDTO) normalize() {
	if dto.Subject != nil {
		s := strings.TrimSpace(*dto.Subject)
		dto.Subject = &s
	}
	if dto.Type != nil {
		t := strings.ToUpper(strings.TrimSpace(*dto.Type))
		dto.Type = &t
	}
	if dto.Status != nil {
		s := strings.ToUpper(strings.TrimSpace(*dto.Status))
		dto.Status = &s
	}
}

func (dto *UpdateRequestDTO) Validate() error {
	dto.normalize()
	if err := validation.Struct(dto); err != nil {
		return err
	}
	return nil
}

// Empty reports a PATCH with no recognised fields.
func (dto UpdateRequestDTO) Empty() bool {
	return dto.Subject == nil &&
		dto.Description == nil &&
		dto.Type == nil &&
		dto.Status == nil &&
		dto.EquipmentID == nil &&
		dto.ScheduledDate == nil &&
		dto.DurationHours == nil &&
		!dto.MaintenanceTeamID.Set &&
		!dto.AssignedTechnicianID.Set
}

// TouchesPrivilegedFields reports edits reserved for admins and technicians.
func (dto UpdateRequestDTO) TouchesPrivilegedFields() bool {
	return dto.Type != nil ||
		dto.EquipmentID != nil ||
		dto.MaintenanceTeamID.Set ||
		dto.AssignedTechnicianID.Set
}

// StatusUpdateDTO is what a board drag sends.
type StatusUpdateDTO struct {
	Status               string            `json:"status" validate:"required,oneof=NEW IN_PROGRESS REPAIRED SCRAP"`
	AssignedTechnicianID coerce.OptionalID `json:"assigned_technician_id" validate:"omitempty,gt=0"`
}

func (dto *StatusUpdateDTO) Validate() error {
	dto.Status = strings.ToUpper(strings.TrimSpace(dto.Status))
	if err := validation.Struct(dto); err != nil {
		return err
	}
	return nil
}

func (dto StatusUpdateDTO) ToUpdate() UpdateRequestDTO {
	status := dto.Status
	return UpdateRequestDTO{
		Status:               &status,
		AssignedTechnicianID: dto.AssignedTechnicianID,
	}
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
