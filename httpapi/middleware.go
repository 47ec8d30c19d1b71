package httpapi

import (
	"net/http"
	"time"
)

// accessLog wraps next with a structured access-log line, adapted from
// the teacher's App.Logger middleware (time.Now before/after, one line
// per request) but through slog instead of the standard logger.
func (h *Handler) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		h.log.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"remote", clientIP(r),
			"duration", time.Since(start),
		)
	})
}
