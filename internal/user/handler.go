package user

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/gearguard/internal"
	"github.com/frahmantamala/gearguard/internal/auth"
	"github.com/frahmantamala/gearguard/internal/authz"
	coreUser "github.com/frahmantamala/gearguard/internal/core/user"
	"github.com/frahmantamala/gearguard/internal/transport"
	"github.com/frahmantamala/gearguard/pkg/logger"
)

type ServiceAPI interface {
	GetByID(ctx context.Context, id int64) (*User, error)
	Technicians(ctx context.Context, actor *authz.Identity) ([]*Technician, error)
	Profile(ctx context.Context, actor *authz.Identity) (*Profile, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
	}
}

// GetCurrentUser handles GET /users/me
func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.Logger.Error("GetCurrentUser: user not found in context")
		h.HandleServiceError(w, internal.ErrAuthRequired)
		return
	}

	u, err := h.Service.GetByID(r.Context(), user.ID)
	if err != nil {
		h.Logger.Error("GetCurrentUser: service GetByID failed", "user_id", user.ID, "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, u)
}

// GetProfile handles GET /users/me/profile
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.Logger.Error("GetProfile: user not found in context")
		h.HandleServiceError(w, internal.ErrAuthRequired)
		return
	}

	profile, err := h.Service.Profile(r.Context(), user.Identity())
	if err != nil {
		h.Logger.Error("GetProfile: service error", "user_id", user.ID, "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, profile)
}

// ListTechnicians handles GET /technicians
func (h *Handler) ListTechnicians(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.Logger.Error("ListTechnicians: user not found in context")
		h.HandleServiceError(w, internal.ErrAuthRequired)
		return
	}

	techs, err := h.Service.Technicians(r.Context(), user.Identity())
	if err != nil {
		h.Logger.Error("ListTechnicians: service error", "user_id", user.ID, "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"technicians": techs,
		"restricted":  user.Role == coreUser.RoleRequester,
	})
}
