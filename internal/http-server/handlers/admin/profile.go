package admin

import (
	"SourceHub/entity"
	"SourceHub/impl/core"
	"SourceHub/internal/lib/api/cont"
	"SourceHub/internal/lib/api/response"
	"SourceHub/internal/lib/sl"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

const formMemory = 1 << 20

func UpdateProfile(log *slog.Logger, handler Core) http.HandlerFunc {
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

		var req entity.ProfileRequest
		if err := response.Bind(r, &req); err != nil {
			logger.Debug("bad request", sl.Err(err))
			response.RenderError(w, r, err)
			return
		}

		updated, err := handler.UpdateProfile(r.Context(), admin, &req)
		if err != nil {
			logger.With(slog.String("username", admin.Username), sl.Err(err)).Error("update profile")
			response.RenderError(w, r, err)
			return
		}

		render.JSON(w, r, response.Ok(updated))
	}
}

func ChangePassword(log *slog.Logger, handler Core) http.HandlerFunc {
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

		var req entity.PasswordRequest
		if err := response.Bind(r, &req); err != nil {
			logger.Debug("bad request", sl.Err(err))
			response.RenderError(w, r, err)
			return
		}

		if err := handler.ChangePassword(r.Context(), admin, req.OldPassword, req.NewPassword); err != nil {
			logger.With(slog.String("username", admin.Username), sl.Err(err)).Warn("change password")
			response.RenderError(w, r, err)
			return
		}

		render.JSON(w, r, response.Ok(nil))
	}
}

// UpdatePhoto replaces the avatar with the multipart "avatar" part.
func UpdatePhoto(log *slog.Logger, handler Core) http.HandlerFunc {
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
		logger = logger.With(slog.String("username", admin.Username))

		r.Body = http.MaxBytesReader(w, r.Body, entity.MaxAvatarSize+formMemory)
		if err := r.ParseMultipartForm(formMemory); err != nil {
			logger.Debug("parse form", sl.Err(err))
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				response.RenderError(w, r, entity.FileTooLargeError("avatar", tooLarge.Limit, entity.MaxAvatarSize))
				return
			}
			response.RenderError(w, r, fmt.Errorf("%w: %v", entity.ErrInvalidInput, err))
			return
		}
		defer func() { _ = r.MultipartForm.RemoveAll() }()

		file, header, err := r.FormFile("avatar")
		if err != nil {
			response.RenderError(w, r, fmt.Errorf("%w: avatar file is required", entity.ErrInvalidInput))
			return
		}
		defer func() { _ = file.Close() }()

		updated, err := handler.UpdatePhoto(r.Context(), admin, &core.Upload{
			Name:     header.Filename,
			Size:     header.Size,
			MIMEType: header.Header.Get("Content-Type"),
			Reader:   file,
		})
		if err != nil {
			logger.Error("update photo", sl.Err(err))
			response.RenderError(w, r, err)
			return
		}

		render.JSON(w, r, response.Ok(updated))
	}
}
