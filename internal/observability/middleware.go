package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"
)

// RequestLogger logs each request with logrus and records its duration.
// Warn for 4xx, Error for 5xx, Debug otherwise.
func RequestLogger(metrics *Metrics) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				latency := time.Since(start)
				route := r.URL.Path
				if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
					route = rctx.RoutePattern()
				}
				if metrics != nil {
					metrics.RecordRequest(route, strconv.Itoa(status), latency)
				}

				entry := log.WithFields(log.Fields{
					"method":      r.Method,
					"path":        r.URL.Path,
					"status":      status,
					"latency":     latency.String(),
					"request_id":  middleware.GetReqID(r.Context()),
					"remote_addr": r.RemoteAddr,
				})
				switch {
				case status >= 500:
					entry.Error("http request")
				case status >= 400:
					entry.Warn("http request")
				default:
					entry.Debug("http request")
				}
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
