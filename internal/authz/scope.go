// Package authz computes what an authenticated identity may see and mutate.
// Scopes are turned into query conditions at read time so counts and limits
// are computed over the visible rows only.
package authz

import (
	sq "github.com/Masterminds/squirrel"

	"github.com/frahmantamala/gearguard/internal"
	coreUser "github.com/frahmantamala/gearguard/internal/core/user"
)

const (
	ColumnCreatedBy          = "created_by_id"
	ColumnAssignedTechnician = "assigned_technician_id"
)

// Identity is the verified caller of every core operation.
type Identity struct {
	ID   int64
	Role coreUser.Role
}

func (i *Identity) valid() bool {
	return i != nil && i.ID > 0 && i.Role.Valid()
}

// Scope is the visibility and mutation envelope of one identity.
type Scope struct {
	identity Identity
}

// ForIdentity fails with an auth error when no usable identity is present.
func ForIdentity(identity *Identity) (Scope, error) {
	if !identity.valid() {
		return Scope{}, internal.ErrAuthRequired
	}
	return Scope{identity: *identity}, nil
}

func (s Scope) Identity() Identity {
	return s.identity
}

func (s Scope) UserID() int64 {
	return s.identity.ID
}

func (s Scope) Role() coreUser.Role {
	return s.identity.Role
}

// Unscoped reports full visibility of requests, equipment, teams and technicians.
func (s Scope) Unscoped() bool {
	return s.identity.Role.Privileged()
}

// RequestCondition restricts request listings. Nil means no restriction.
func (s Scope) RequestCondition() sq.Sqlizer {
	if s.Unscoped() {
		return nil
	}
	return sq.Eq{ColumnCreatedBy: s.identity.ID}
}

// StatsCondition restricts dashboard statistics and recent-request feeds.
// Technicians see their own assignments there even though their board is global.
func (s Scope) StatsCondition() sq.Sqlizer {
	switch s.identity.Role {
	case coreUser.RoleTechnician:
		return sq.Eq{ColumnAssignedTechnician: s.identity.ID}
	case coreUser.RoleRequester:
		return sq.Eq{ColumnCreatedBy: s.identity.ID}
	default:
		return nil
	}
}

func (s Scope) CanSeeRequest(createdByID int64) bool {
	return s.Unscoped() || createdByID == s.identity.ID
}

// CanMutateRequest is checked on every update and delete.
func (s Scope) CanMutateRequest(createdByID int64) bool {
	return s.CanSeeRequest(createdByID)
}

// CanEditPrivilegedFields covers type, assignment and team edits.
func (s Scope) CanEditPrivilegedFields() bool {
	return s.identity.Role.Privileged()
}

// TeamsVisible is false for requesters, who never see the teams section.
func (s Scope) TeamsVisible() bool {
	return s.identity.Role != coreUser.RoleRequester
}

// TechniciansRestricted means the technician directory must be narrowed to
// technicians assigned to the caller's own requests.
func (s Scope) TechniciansRestricted() bool {
	return s.identity.Role == coreUser.RoleRequester
}

func (s Scope) IsAdmin() bool {
	return s.identity.Role == coreUser.RoleAdmin
}
