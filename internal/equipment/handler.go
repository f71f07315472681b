package equipment

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/gearguard/internal"
	"github.com/frahmantamala/gearguard/internal/auth"
	"github.com/frahmantamala/gearguard/internal/authz"
	"github.com/frahmantamala/gearguard/internal/core/common/coerce"
	"github.com/frahmantamala/gearguard/internal/transport"
	"github.com/frahmantamala/gearguard/pkg/logger"
)

type ServiceAPI interface {
	List(ctx context.Context) ([]*Equipment, error)
	Detail(ctx context.Context, actor *authz.Identity, id int64) (*Equipment, error)
	Create(ctx context.Context, actor *authz.Identity, dto CreateEquipmentDTO) (*Equipment, error)
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

func (h *Handler) ListEquipment(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.List(r.Context())
	if err != nil {
		h.Logger.Error("ListEquipment: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"equipment": items})
}

func (h *Handler) GetEquipment(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.Logger.Error("GetEquipment: user not found in context")
		h.HandleServiceError(w, internal.ErrAuthRequired)
		return
	}

	id, err := coerce.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.HandleServiceError(w, internal.NewValidationFieldError("id", "equipment id must be numeric", internal.ErrCodeInvalidReference))
		return
	}

	e, err := h.Service.Detail(r.Context(), user.Identity(), id)
	if err != nil {
		h.Logger.Error("GetEquipment: service error", "equipment_id", id, "error", err)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, e)
}

func (h *Handler) CreateEquipment(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.Logger.Error("CreateEquipment: user not found in context")
		h.HandleServiceError(w, internal.ErrAuthRequired)
		return
	}

	var dto CreateEquipmentDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("CreateEquipment: failed to decode request body", "error", err)
		h.HandleServiceError(w, internal.NewValidationError("invalid request body: "+err.Error(), internal.ErrCodeValidationFailed))
		return
	}

	e, err := h.Service.Create(r.Context(), user.Identity(), dto)
	if err != nil {
		h.Logger.Error("CreateEquipment: service error", "user_id", user.ID, "error", err)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, e)
}
