package team

import (
	"time"

	teamDatamodel "github.com/frahmantamala/gearguard/internal/core/datamodel/team"
)

type Member struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Email string  `json:"email"`
	Image *string `json:"image,omitempty"`
}

type Team struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Members        []Member  `json:"members"`
	EquipmentCount int       `json:"equipment_count"`
	CreatedAt      time.Time `json:"created_at"`
}

func FromDataModel(t *teamDatamodel.MaintenanceTeam) *Team {
	out := &Team{
		ID:        t.ID,
		Name:      t.Name,
		Members:   make([]Member, 0, len(t.Members)),
		CreatedAt: t.CreatedAt,
	}
	for _, m := range t.Members {
		out.Members = append(out.Members, Member{ID: m.ID, Name: m.Name, Email: m.Email, Image: m.Image})
	}
	return out
}
