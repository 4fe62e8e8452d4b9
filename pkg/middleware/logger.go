// Package middleware holds the HTTP middleware of the fake canteen backend.
package middleware

import (
	"net/http"
	"time"

	"github.com/shashiranjanraj/canteen/pkg/logger"
	"github.com/shashiranjanraj/canteen/pkg/reqid"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// Logger logs one debug line per request, tagged with the X-Request-ID the
// client sent, so client and backend lines of one call share an ID. The
// tagged logger is injected into the request context for handlers.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log := logger.L.With("request_id", r.Header.Get(reqid.Header))
		r = r.WithContext(logger.InjectLogger(r.Context(), log))

		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)

		log.Debug("backend request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.status,
			"duration", time.Since(start).String(),
		)
	})
}
