package request

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
	Create(ctx context.Context, actor *authz.Identity, dto CreateRequestDTO) (*Request, error)
	Get(ctx context.Context, actor *authz.Identity, id int64) (*Request, error)
	List(ctx context.Context, actor *authz.Identity) ([]*Request, error)
	Recent(ctx context.Context, actor *authz.Identity, limit int) ([]*Request, error)
	Stats(ctx context.Context, actor *authz.Identity) (*Stats, error)
	Update(ctx context.Context, actor *authz.Identity, id int64, dto UpdateRequestDTO) (*Request, error)
	UpdateStatus(ctx context.Context, actor *authz.Identity, id int64, dto StatusUpdateDTO) (*Request, error)
	Delete(ctx context.Context, actor *authz.Identity, id int64) error
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

func (h *Handler) identity(w http.ResponseWriter, r *http.Request, op string) (*authz.Identity, bool) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.Logger.Error(op + ": user not found in context")
		h.HandleServiceError(w, internal.ErrAuthRequired)
		return nil, false
	}
	return user.Identity(), true
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, op string) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := coerce.ParseID(raw)
	if err != nil {
		h.Logger.Error(op+": invalid request ID", "id", raw)
		h.HandleServiceError(w, internal.NewValidationFieldError("id", "invalid request id", internal.ErrCodeInvalidReference))
		return 0, false
	}
	return id, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, op string, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.Logger.Error(op+": invalid request body", "error", err)
		h.HandleServiceError(w, internal.NewValidationError("invalid request body: "+err.Error(), internal.ErrCodeValidationFailed))
		return false
	}
	return true
}

func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.identity(w, r, "ListRequests")
	if !ok {
		return
	}

	reqs, err := h.Service.List(r.Context(), actor)
	if err != nil {
		h.Logger.Error("ListRequests: service error", "error", err, "user_id", actor.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"requests": reqs,
		"total":    len(reqs),
	})
}

func (h *Handler) GetRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.identity(w, r, "GetRequest")
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "GetRequest")
	if !ok {
		return
	}

	req, err := h.Service.Get(r.Context(), actor, id)
	if err != nil {
		h.Logger.Error("GetRequest: service error", "error", err, "request_id", id, "user_id", actor.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, req)
}

func (h *Handler) RecentRequests(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.identity(w, r, "RecentRequests")
	if !ok {
		return
	}

	limit := h.QueryInt(r, "limit", DefaultRecentLimit)
	reqs, err := h.Service.Recent(r.Context(), actor, limit)
	if err != nil {
		h.Logger.Error("RecentRequests: service error", "error", err, "user_id", actor.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"requests": reqs,
		"limit":    limit,
	})
}

func (h *Handler) DashboardStats(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.identity(w, r, "DashboardStats")
	if !ok {
		return
	}

	stats, err := h.Service.Stats(r.Context(), actor)
	if err != nil {
		h.Logger.Error("DashboardStats: service error", "error", err, "user_id", actor.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, stats)
}

func (h *Handler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.identity(w, r, "CreateRequest")
	if !ok {
		return
	}

	var dto CreateRequestDTO
	if !h.decode(w, r, "CreateRequest", &dto) {
		return
	}

	req, err := h.Service.Create(r.Context(), actor, dto)
	if err != nil {
		h.Logger.Error("CreateRequest: service error", "error", err, "user_id", actor.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("CreateRequest: request created",
		"request_id", req.ID,
		"user_id", actor.ID,
		"status", req.Status)

	h.WriteJSON(w, http.StatusCreated, req)
}

func (h *Handler) UpdateRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.identity(w, r, "UpdateRequest")
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "UpdateRequest")
	if !ok {
		return
	}

	var dto UpdateRequestDTO
	if !h.decode(w, r, "UpdateRequest", &dto) {
		return
	}

	req, err := h.Service.Update(r.Context(), actor, id, dto)
	if err != nil {
		h.Logger.Error("UpdateRequest: service error", "error", err, "request_id", id, "user_id", actor.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, req)
}

func (h *Handler) UpdateRequestStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.identity(w, r, "UpdateRequestStatus")
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "UpdateRequestStatus")
	if !ok {
		return
	}

	var dto StatusUpdateDTO
	if !h.decode(w, r, "UpdateRequestStatus", &dto) {
		return
	}

	req, err := h.Service.UpdateStatus(r.Context(), actor, id, dto)
	if err != nil {
		h.Logger.Error("UpdateRequestStatus: service error", "error", err, "request_id", id, "user_id", actor.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, req)
}

func (h *Handler) DeleteRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.identity(w, r, "DeleteRequest")
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "DeleteRequest")
	if !ok {
		return
	}

	if err := h.Service.Delete(r.Context(), actor, id); err != nil {
		h.Logger.Error("DeleteRequest: service error", "error", err, "request_id", id, "user_id", actor.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}
