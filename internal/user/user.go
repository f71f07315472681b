package user

import (
	"time"

	userDatamodel "github.com/frahmantamala/gearguard/internal/core/datamodel/user"
	coreUser "github.com/frahmantamala/gearguard/internal/core/user"
	"github.com/frahmantamala/gearguard/internal/request"
)

// ProfileRecentLimit caps each request list on the profile.
const ProfileRecentLimit = 5

// User is the public profile. The password hash never leaves the store.
type User struct {
	ID        int64         `json:"id"`
	Email     string        `json:"email"`
	Name      string        `json:"name"`
	Role      coreUser.Role `json:"role"`
	Image     *string       `json:"image,omitempty"`
	IsActive  bool          `json:"is_active"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

type TeamRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Technician is a directory entry. ActiveTasks counts assigned requests that
// are not scrapped.
type Technician struct {
	User
	Teams       []TeamRef `json:"teams"`
	ActiveTasks int       `json:"active_tasks"`
}

// ProfileStats counts everything tied to a user, scrapped requests included.
type ProfileStats struct {
	AssignedRequests int `json:"assigned_requests" gorm:"column:assigned_requests"`
	CreatedRequests  int `json:"created_requests" gorm:"column:created_requests"`
	OwnedEquipment   int `json:"owned_equipment" gorm:"column:owned_equipment"`
}

// Profile is a user with their counts and latest work. RecentAssigned skips
// scrapped requests and is ordered by last update; RecentCreated by creation.
type Profile struct {
	User
	Stats          ProfileStats       `json:"stats"`
	RecentAssigned []*request.Request `json:"recent_assigned"`
	RecentCreated  []*request.Request `json:"recent_created"`
}

func (u *User) IsTechnician() bool {
	return u.Role == coreUser.RoleTechnician
}

func FromDataModel(u *userDatamodel.User) *User {
	return &User{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      coreUser.Role(u.Role),
		Image:     u.Image,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
