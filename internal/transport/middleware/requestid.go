package middleware

import (
	"net/http"

	"github.com/avagut/dynamic-user-menus/pkg/logger"

	"github.com/google/uuid"
)

// TraceID honors an incoming X-Trace-ID header or mints one, binds it to
// the context logger and echoes it on the response so callers can correlate.
func TraceID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get("X-Trace-ID")
		if traceID == "" {
			traceID = uuid.NewString()
		}

		ctx := logger.With(r.Context(), "trace_id", traceID)
		w.Header().Set("X-Trace-ID", traceID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
