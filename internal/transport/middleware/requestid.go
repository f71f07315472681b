package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/frahmantamala/gearguard/internal"
	"github.com/frahmantamala/gearguard/pkg/logger"
)

const TraceHeader = "X-Trace-ID"

func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get(TraceHeader)
		if traceID == "" {
			traceID = uuid.NewString()
			r.Header.Set(TraceHeader, traceID)
		}

		// inject into context
		ctx := internal.ContextWithTraceID(r.Context(), traceID)
		ctx = logger.With(ctx, "traceID", traceID)

		// propagate back to response
		w.Header().Set(TraceHeader, traceID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
