package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/middleware"
)

// redactedFields never reach the logs. The auth routes carry passwords and
// tokens in their JSON bodies, so request bodies are redacted field by
// field before logging.
var redactedFields = []string{
	"password",
	"password_hash",
	"token",
	"access_token",
	"refresh_token",
	"authorization",
	"secret",
}

const maxLoggedBody = 16 << 10

// RequestLogging emits one line per request and one per response. Request
// bodies are logged with credential fields masked; response bodies are not
// logged at all, only status, size and duration.
func RequestLogging(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqID := middleware.GetReqID(r.Context())

			logger.Info("request",
				"request_id", reqID,
				"method", r.Method,
				"path", r.URL.Path,
				"query", r.URL.RawQuery,
				"remote_addr", r.RemoteAddr,
				"body", redactBody(r),
			)

			cw := &countingWriter{ResponseWriter: w}
			next.ServeHTTP(cw, r)

			status := cw.status
			if status == 0 {
				status = http.StatusOK
			}
			level := slog.LevelInfo
			switch {
			case status >= 500:
				level = slog.LevelError
			case status >= 400:
				level = slog.LevelWarn
			}

			logger.Log(r.Context(), level, "response",
				"request_id", reqID,
				"status_code", status,
				"duration_ms", time.Since(start).Milliseconds(),
				"response_size", cw.size,
			)
		})
	}
}

type countingWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (w *countingWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *countingWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.size += n
	return n, err
}

// redactBody reads and restores the request body, returning a loggable
// form with credential fields masked. Non-JSON bodies are dropped rather
// than scanned.
func redactBody(r *http.Request) string {
	if r.Body == nil {
		return ""
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxLoggedBody+1))
	if err != nil {
		return ""
	}
	// Only the first maxLoggedBody+1 bytes were consumed; chain the rest of
	// the original stream back so the handler sees the full body.
	r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(raw), r.Body))

	if len(raw) == 0 {
		return ""
	}
	if len(raw) > maxLoggedBody {
		return "[TRUNCATED]"
	}

	var parsed interface{}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "[NON-JSON BODY]"
	}
	masked, err := json.Marshal(maskFields(parsed))
	if err != nil {
		return "[NON-JSON BODY]"
	}
	return string(masked)
}

func maskFields(data interface{}) interface{} {
	switch v := data.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, value := range v {
			if isRedacted(key) {
				out[key] = "[REDACTED]"
				continue
			}
			out[key] = maskFields(value)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = maskFields(item)
		}
		return out
	default:
		return v
	}
}

func isRedacted(key string) bool {
	lower := strings.ToLower(key)
	for _, f := range redactedFields {
		if strings.Contains(lower, f) {
			return true
		}
	}
	return false
}
