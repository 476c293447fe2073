package ratelimit

import (
	"SourceHub/internal/lib/api/response"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"
	"github.com/go-chi/render"
)

// New limits requests per client IP. It expects middleware.RealIP earlier in the chain.
func New(requests int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(
		requests,
		window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
			render.Status(r, http.StatusTooManyRequests)
			render.JSON(w, r, response.Error("Too many requests, please try again later"))
		}),
	)
}
