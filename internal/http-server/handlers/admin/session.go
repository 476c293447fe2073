package admin

import (
	"SourceHub/entity"
	"SourceHub/internal/lib/api/cont"
	"SourceHub/internal/lib/api/response"
	"SourceHub/internal/lib/sl"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

func Login(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.admin")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req entity.LoginRequest
		if err := response.Bind(r, &req); err != nil {
			logger.Debug("bad request", sl.Err(err))
			response.RenderError(w, r, err)
			return
		}
		logger = logger.With(slog.String("username", req.Username))

		result, err := handler.Login(r.Context(), req.Username, req.Password)
		if err != nil {
			logger.Warn("login failed", sl.Err(err))
			response.RenderError(w, r, err)
			return
		}

		logger.Info("admin logged in")
		render.JSON(w, r, response.Ok(result))
	}
}

func Logout(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.admin")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		admin := cont.GetAdmin(r.Context())
		if admin == nil {
			response.RenderError(w, r, entity.ErrUnauthorized)
			return
		}

		if err := handler.Logout(r.Context(), admin, cont.GetToken(r.Context())); err != nil {
			logger.With(slog.String("username", admin.Username), sl.Err(err)).Error("logout")
			response.RenderError(w, r, err)
			return
		}

		render.JSON(w, r, response.Ok(nil))
	}
}

// CheckAuth returns the admin behind the current token.
func CheckAuth(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.admin")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		admin := cont.GetAdmin(r.Context())
		if admin == nil {
			response.RenderError(w, r, entity.ErrUnauthorized)
			return
		}

		current, err := handler.CurrentAdmin(r.Context(), admin)
		if err != nil {
			logger.With(slog.String("username", admin.Username), sl.Err(err)).Debug("check auth")
			response.RenderError(w, r, err)
			return
		}

		render.JSON(w, r, response.Ok(current))
	}
}

func Stats(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.admin")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		admin := cont.GetAdmin(r.Context())
		if admin == nil {
			response.RenderError(w, r, entity.ErrUnauthorized)
			return
		}

		stats, err := handler.AdminStats(r.Context(), admin)
		if err != nil {
			logger.With(slog.String("username", admin.Username), sl.Err(err)).Error("admin stats")
			response.RenderError(w, r, err)
			return
		}

		render.JSON(w, r, response.Ok(stats))
	}
}
