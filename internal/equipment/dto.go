package equipment

import (
	"strings"

	"github.com/frahmantamala/gearguard/internal"
	"github.com/frahmantamala/gearguard/internal/core/common/coerce"
	"github.com/frahmantamala/gearguard/internal/core/common/validation"
	equipmentDatamodel "github.com/frahmantamala/gearguard/internal/core/datamodel/equipment"
)

type CreateEquipmentDTO struct {
	Name              string       `json:"name" validate:"required,min=1"`
	SerialNumber      string       `json:"serial_number" validate:"required,min=1"`
	Location          string       `json:"location" validate:"required,min=1"`
	PurchaseDate      coerce.Time  `json:"purchase_date"`
	WarrantyEnd       *coerce.Time `json:"warranty_end,omitempty"`
	DepartmentID      coerce.ID    `json:"department_id" validate:"required,gt=0"`
	MaintenanceTeamID coerce.ID    `json:"maintenance_team_id" validate:"required,gt=0"`
}

func (dto *CreateEquipmentDTO) Validate() error {
	dto.Name = strings.TrimSpace(dto.Name)
	dto.SerialNumber = strings.TrimSpace(dto.SerialNumber)
	dto.Location = strings.TrimSpace(dto.Location)

	if err := validation.Struct(dto); err != nil {
		return err
	}
	if dto.PurchaseDate.IsZero() {
		return internal.NewValidationFieldError("purchase_date", "purchase_date is required", internal.ErrCodeInvalidDate)
	}
	if dto.WarrantyEnd != nil && !dto.WarrantyEnd.IsZero() && dto.WarrantyEnd.Before(dto.PurchaseDate.Time) {
		return internal.NewValidationFieldError("warranty_end", "warranty_end must not precede purchase_date", internal.ErrCodeInvalidDate)
	}
	return nil
}

func (dto *CreateEquipmentDTO) toDataModel(ownerID int64) *equipmentDatamodel.Equipment {
	departmentID := dto.DepartmentID.Int64()
	teamID := dto.MaintenanceTeamID.Int64()
	m := &equipmentDatamodel.Equipment{
		Name:              dto.Name,
		SerialNumber:      dto.SerialNumber,
		Location:          dto.Location,
		PurchaseDate:      dto.PurchaseDate.Time,
		DepartmentID:      &departmentID,
		MaintenanceTeamID: &teamID,
		OwnerID:           &ownerID,
	}
	if dto.WarrantyEnd != nil && !dto.WarrantyEnd.IsZero() {
		end := dto.WarrantyEnd.Time
		m.WarrantyEnd = &end
	}
	return m
}
