package logger

import (
	"SourceHub/internal/lib/metrics"
	"SourceHub/internal/lib/sl"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// New logs every request once it completes and records its metrics.
func New(log *slog.Logger) func(next http.Handler) http.Handler {
	mod := sl.Module("middleware.logger")

	return func(next http.Handler) http.Handler {

		fn := func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			t1 := time.Now()

			defer func() {
				duration := time.Since(t1)
				route := r.URL.Path
				if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
					route = rctx.RoutePattern()
				}
				metrics.RecordRequest(r.Method, route, strconv.Itoa(ww.Status()), duration.Seconds())

				log.With(
					mod,
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("remote_addr", r.RemoteAddr),
					slog.String("request_id", middleware.GetReqID(r.Context())),
					slog.Int("status", ww.Status()),
					slog.Int("size", ww.BytesWritten()),
					slog.Float64("duration", duration.Seconds()),
				).Info("incoming request")
			}()

			ww.Header().Set("X-Request-ID", middleware.GetReqID(r.Context()))
			next.ServeHTTP(ww, r)
		}

		return http.HandlerFunc(fn)
	}
}
