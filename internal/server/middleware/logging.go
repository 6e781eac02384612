package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/HolgerKurtz/meta-ads-insights/internal/redact"
)

// probePaths are logged at debug level so health checks do not flood the log.
var probePaths = map[string]bool{
	"/healthz": true,
	"/readyz":  true,
}

// Logger logs one structured line per request. The level follows the
// response status: 5xx is an error, 4xx a warning. Query strings are logged
// with access tokens redacted.
func Logger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(ww, r)

			level := slog.LevelInfo
			switch {
			case ww.status >= 500:
				level = slog.LevelError
			case ww.status >= 400:
				level = slog.LevelWarn
			case probePaths[r.URL.Path]:
				level = slog.LevelDebug
			}

			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Float64("duration_ms", float64(time.Since(start).Microseconds())/1000.0),
				slog.Int("bytes", ww.bytes),
				slog.String("request_id", GetRequestID(r.Context())),
				slog.String("remote_addr", r.RemoteAddr),
			}
			if r.URL.RawQuery != "" {
				attrs = append(attrs, slog.String("query", redact.Secrets(r.URL.RawQuery)))
			}
			logger.LogAttrs(r.Context(), level, "request", attrs...)
		})
	}
}

// responseWriter records the status code and body size of a response.
type responseWriter struct {
	http.ResponseWriter
	status      int
	bytes       int
	wroteHeader bool
}

func (w *responseWriter) WriteHeader(code int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// Unwrap exposes the wrapped writer to http.ResponseController.
func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
