package department

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/gearguard/internal"
	"github.com/frahmantamala/gearguard/internal/auth"
	"github.com/frahmantamala/gearguard/internal/authz"
	"github.com/frahmantamala/gearguard/internal/transport"
	"github.com/frahmantamala/gearguard/pkg/logger"
)

type ServiceAPI interface {
	List(ctx context.Context, actor *authz.Identity) ([]*Department, error)
	Options(ctx context.Context) ([]Option, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

func (h *Handler) GetDepartments(w http.ResponseWriter, r *http.Request) {
	departments, err := h.Service.List(r.Context(), auth.IdentityFromContext(r.Context()))
	if err != nil {
		h.Logger.Error("GetDepartments: failed to get departments", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"departments": departments})
}

func (h *Handler) GetDepartmentOptions(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.UserFromContext(r.Context()); !ok {
		h.HandleServiceError(w, internal.ErrAuthRequired)
		return
	}

	options, err := h.Service.Options(r.Context())
	if err != nil {
		h.Logger.Error("GetDepartmentOptions: failed to get departments", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"departments": options})
}
