package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// maxPathLogLen is the maximum length for logged paths before truncation.
const maxPathLogLen = 200

// slowRequestThreshold is the duration above which requests are logged at WARN level.
const slowRequestThreshold = 2 * time.Second

// HTTPRecorder counts served requests.
type HTTPRecorder interface {
	RecordHTTP(route, method string, status int)
}

// statusWriter captures the status code written by the wrapped handler.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

// LoggingMiddleware logs every request with its status and timing.
// Server errors are logged at ERROR, slow requests (>2s) at WARN, the rest at DEBUG.
func LoggingMiddleware(logger *slog.Logger, recorder HTTPRecorder) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w}

			next.ServeHTTP(sw, r)

			if sw.status == 0 {
				sw.status = http.StatusOK
			}
			duration := time.Since(start)
			route := routeTemplate(r)
			recorder.RecordHTTP(route, r.Method, sw.status)

			attrs := []any{
				"method", r.Method,
				"path", truncate(r.URL.Path, maxPathLogLen),
				"route", route,
				"status", sw.status,
				"duration_ms", duration.Milliseconds(),
			}

			switch {
			case sw.status >= http.StatusInternalServerError:
				logger.Error("request failed", attrs...)
			case duration > slowRequestThreshold:
				logger.Warn("slow request", attrs...)
			default:
				logger.Debug("request completed", attrs...)
			}
		})
	}
}

// routeTemplate returns the matched route pattern, keeping metric labels bounded.
func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen < 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
