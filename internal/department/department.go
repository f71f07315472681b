package department

import (
	"time"

	departmentDatamodel "github.com/frahmantamala/gearguard/internal/core/datamodel/department"
)

type Department struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	EquipmentCount int       `json:"equipment_count"`
	CreatedAt      time.Time `json:"created_at"`
}

// Option is the slim shape used by equipment forms.
type Option struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func (d *Department) ToOption() Option {
	return Option{ID: d.ID, Name: d.Name}
}

func FromDataModel(d *departmentDatamodel.Department) *Department {
	return &Department{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		CreatedAt:   d.CreatedAt,
	}
}
