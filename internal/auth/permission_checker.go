package auth

import (
	"context"

	coreUser "github.com/frahmantamala/gearguard/internal/core/user"
)

type Permission string

const (
	PermManageDepartments   Permission = "departments:manage"
	PermManageEquipment     Permission = "equipment:manage"
	PermAssignRequests      Permission = "requests:assign"
	PermCreatePreventive    Permission = "requests:create_preventive"
	PermViewTeams           Permission = "teams:view"
	PermBroadcastRevalidate Permission = "views:revalidate"
)

var rolePermissions = map[coreUser.Role][]Permission{
	coreUser.RoleAdmin: {
		PermManageDepartments,
		PermManageEquipment,
		PermAssignRequests,
		PermCreatePreventive,
		PermViewTeams,
		PermBroadcastRevalidate,
	},
	coreUser.RoleTechnician: {
		PermManageEquipment,
		PermAssignRequests,
		PermCreatePreventive,
		PermViewTeams,
	},
	coreUser.RoleRequester: {},
}

type PermissionChecker interface {
	HasPermission(ctx context.Context, role coreUser.Role, permission Permission) (bool, error)
	Permissions(role coreUser.Role) []Permission
}

type DefaultPermissionChecker struct{}

func NewPermissionChecker() PermissionChecker {
	return &DefaultPermissionChecker{}
}

func (c *DefaultPermissionChecker) HasPermission(_ context.Context, role coreUser.Role, permission Permission) (bool, error) {
	for _, p := range rolePermissions[role] {
		if p == permission {
			return true, nil
		}
	}
	return false, nil
}

func (c *DefaultPermissionChecker) Permissions(role coreUser.Role) []Permission {
	perms := rolePermissions[role]
	out := make([]Permission, len(perms))
	copy(out, perms)
	return out
}
