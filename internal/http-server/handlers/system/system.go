package system

import (
	"SourceHub/impl/core"
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
)

type Core interface {
	Health() *core.Health
	DatabaseStatus(ctx context.Context) map[string]interface{}
}

// Health reports liveness in the bare shape load balancers expect.
func Health(_ *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, handler.Health())
	}
}

func DatabaseStatus(_ *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, handler.DatabaseStatus(r.Context()))
	}
}
