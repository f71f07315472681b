package revalidation

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/gearguard/internal"
	"github.com/frahmantamala/gearguard/internal/auth"
	"github.com/frahmantamala/gearguard/internal/core/events"
	"github.com/frahmantamala/gearguard/internal/transport"
	"github.com/frahmantamala/gearguard/pkg/logger"
)

type ViewNotifier interface {
	Versions(ctx context.Context) (map[string]int64, error)
	Invalidate(ctx context.Context, cause string) (*events.ViewsInvalidatedEvent, error)
}

type Handler struct {
	*transport.BaseHandler
	versions ViewNotifier
}

func NewHandler(versions ViewNotifier) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		versions:    versions,
	}
}

// GetVersions serves the current view versions for polling clients.
func (h *Handler) GetVersions(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.UserFromContext(r.Context()); !ok {
		h.HandleServiceError(w, internal.ErrAuthRequired)
		return
	}

	versions, err := h.versions.Versions(r.Context())
	if err != nil {
		h.Logger.Error("GetVersions: failed to read versions", "error", err)
		h.HandleServiceError(w, internal.NewPersistenceError("failed to read view versions", err))
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"versions": versions})
}

// Revalidate forces every viewer to refetch. Routed behind the
// views:revalidate permission.
func (h *Handler) Revalidate(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.HandleServiceError(w, internal.ErrAuthRequired)
		return
	}

	ev, err := h.versions.Invalidate(r.Context(), "manual")
	if err != nil {
		h.Logger.Error("Revalidate: failed to invalidate views", "user_id", user.ID, "error", err)
		h.HandleServiceError(w, internal.NewPersistenceError("failed to invalidate views", err))
		return
	}

	h.Logger.Info("views revalidated", "user_id", user.ID, "event_id", ev.EventID())
	h.WriteJSON(w, http.StatusAccepted, messageFrom(ev))
}
