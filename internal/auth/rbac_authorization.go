package auth

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/gearguard/internal"
	coreUser "github.com/frahmantamala/gearguard/internal/core/user"
	"github.com/frahmantamala/gearguard/internal/transport"
)

type RBACAuthorization struct {
	*transport.BaseHandler
	checker PermissionChecker
	logger  *slog.Logger
}

func NewRBACAuthorization(checker PermissionChecker, logger *slog.Logger) *RBACAuthorization {
	if checker == nil {
		checker = NewPermissionChecker()
	}
	return &RBACAuthorization{
		BaseHandler: transport.NewBaseHandler(logger),
		checker:     checker,
		logger:      logger,
	}
}

func (ra *RBACAuthorization) Check(next http.HandlerFunc, permission Permission) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok || user == nil {
			ra.logger.Warn("authorization check failed: user not found in context")
			ra.HandleServiceError(w, internal.ErrAuthRequired)
			return
		}

		hasAccess, err := ra.checker.HasPermission(r.Context(), user.Role, permission)
		if err != nil {
			ra.logger.ErrorContext(r.Context(), "authorization check failed", "error", err, "user_id", user.ID, "permission", permission)
			ra.HandleServiceError(w, internal.NewInternalError("authorization check failed", err))
			return
		}

		if !hasAccess {
			ra.logger.WarnContext(r.Context(), "access denied: insufficient permissions",
				"user_id", user.ID,
				"role", user.Role,
				"required_permission", permission)
			ra.HandleServiceError(w, internal.ErrRoleNotAllowed)
			return
		}

		next.ServeHTTP(w, r)
	}
}

func (ra *RBACAuthorization) Middleware(permission Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return ra.Check(next.ServeHTTP, permission)
	}
}

// RequireRoles admits only the listed roles.
func (ra *RBACAuthorization) RequireRoles(roles ...coreUser.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok || user == nil {
				ra.HandleServiceError(w, internal.ErrAuthRequired)
				return
			}
			if !user.HasRole(roles...) {
				ra.logger.WarnContext(r.Context(), "access denied: role not allowed",
					"user_id", user.ID,
					"role", user.Role,
					"allowed", roles)
				ra.HandleServiceError(w, internal.ErrRoleNotAllowed)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (ra *RBACAuthorization) RequireAdmin() func(http.Handler) http.Handler {
	return ra.RequireRoles(coreUser.RoleAdmin)
}

func (ra *RBACAuthorization) RequirePrivileged() func(http.Handler) http.Handler {
	return ra.RequireRoles(coreUser.RoleAdmin, coreUser.RoleTechnician)
}
