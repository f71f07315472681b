package schedule

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/frahmantamala/gearguard/internal"
	"github.com/frahmantamala/gearguard/internal/auth"
	"github.com/frahmantamala/gearguard/internal/authz"
	"github.com/frahmantamala/gearguard/internal/core/common/coerce"
	"github.com/frahmantamala/gearguard/internal/request"
	"github.com/frahmantamala/gearguard/internal/transport"
	"github.com/frahmantamala/gearguard/pkg/logger"
)

// RequestLister is the scoped read side of the request service.
type RequestLister interface {
	List(ctx context.Context, actor *authz.Identity) ([]*request.Request, error)
	ListScheduled(ctx context.Context, actor *authz.Identity, from, to time.Time) ([]*request.Request, error)
}

type Handler struct {
	*transport.BaseHandler
	Requests  RequestLister
	weekStart time.Weekday
	now       func() time.Time
}

func NewHandler(requests RequestLister, weekStart time.Weekday) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Requests:    requests,
		weekStart:   weekStart,
		now:         time.Now,
	}
}

func (h *Handler) GetBoard(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.Logger.Error("GetBoard: user not found in context")
		h.HandleServiceError(w, internal.ErrAuthRequired)
		return
	}

	reqs, err := h.Requests.List(r.Context(), user.Identity())
	if err != nil {
		h.Logger.Error("GetBoard: service error", "error", err, "user_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, Kanban(Values(reqs)))
}

// GetCalendar serves ?month=YYYY-MM, defaulting to the current month.
func (h *Handler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.Logger.Error("GetCalendar: user not found in context")
		h.HandleServiceError(w, internal.ErrAuthRequired)
		return
	}

	now := h.now().UTC()
	year, month := now.Year(), now.Month()
	if raw := r.URL.Query().Get("month"); raw != "" {
		y, m, err := coerce.ParseMonth(raw)
		if err != nil {
			h.HandleServiceError(w, internal.NewValidationFieldError("month", err.Error(), internal.ErrCodeInvalidDate))
			return
		}
		year, month = y, m
	}

	from, to := GridBounds(year, month, h.weekStart)
	reqs, err := h.Requests.ListScheduled(r.Context(), user.Identity(), from, to)
	if err != nil {
		h.Logger.Error("GetCalendar: service error", "error", err, "user_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, CalendarMonth(year, month, Values(reqs), h.weekStart))
}
