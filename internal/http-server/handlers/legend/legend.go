package legend

import (
	"SourceHub/entity"
	"SourceHub/internal/lib/api/response"
	"SourceHub/internal/lib/sl"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

// List returns the public profiles of all admins.
func List(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.legend")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		admins, err := handler.Legends(r.Context())
		if err != nil {
			logger.Error("list legends", sl.Err(err))
			response.RenderError(w, r, err)
			return
		}

		render.JSON(w, r, response.Ok(admins))
	}
}

func Get(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.legend")

		username := entity.NormalizeUsername(chi.URLParam(r, "username"))
		logger := log.With(
			mod,
			slog.String("username", username),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		legend, err := handler.LegendByUsername(r.Context(), username)
		if err != nil {
			logger.Debug("get legend", sl.Err(err))
			response.RenderError(w, r, err)
			return
		}

		render.JSON(w, r, response.Ok(legend))
	}
}
