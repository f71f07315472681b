package report

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/frahmantamala/gearguard/internal"
	"github.com/frahmantamala/gearguard/internal/auth"
	"github.com/frahmantamala/gearguard/internal/authz"
	"github.com/frahmantamala/gearguard/internal/transport"
	"github.com/frahmantamala/gearguard/pkg/logger"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ServiceAPI interface {
	Overview(ctx context.Context, actor *authz.Identity) (*Overview, error)
	Export(ctx context.Context, actor *authz.Identity) (*Overview, []RequestRow, error)
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

func (h *Handler) GetOverview(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.HandleServiceError(w, internal.ErrAuthRequired)
		return
	}

	o, err := h.Service.Overview(r.Context(), user.Identity())
	if err != nil {
		h.Logger.Error("GetOverview: service error", "user_id", user.ID, "error", err)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, o)
}

func (h *Handler) ExportOverview(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.HandleServiceError(w, internal.ErrAuthRequired)
		return
	}

	o, rows, err := h.Service.Export(r.Context(), user.Identity())
	if err != nil {
		h.Logger.Error("ExportOverview: service error", "user_id", user.ID, "error", err)
		h.HandleServiceError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := WriteXLSX(&buf, o, rows); err != nil {
		h.Logger.Error("ExportOverview: failed to render workbook", "error", err)
		h.HandleServiceError(w, internal.NewInternalError("failed to render workbook", err))
		return
	}

	fileName := fmt.Sprintf("gearguard_report_%s.xlsx", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+fileName)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
