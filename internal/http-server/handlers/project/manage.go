package project

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
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

const formMemory = 8 << 20

// Create accepts a JSON body or a multipart form with an optional "file" part.
func Create(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.project")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		admin := cont.GetAdmin(r.Context())
		if admin == nil {
			response.RenderError(w, r, entity.ErrUnauthorized)
			return
		}
		logger = logger.With(slog.String("admin", admin.Username))

		var req *entity.ProjectRequest
		var upload *core.Upload

		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			r.Body = http.MaxBytesReader(w, r.Body, entity.MaxProjectFileSize+formMemory)
			if err := r.ParseMultipartForm(formMemory); err != nil {
				logger.Debug("parse form", sl.Err(err))
				response.RenderError(w, r, formError(err))
				return
			}
			defer func() { _ = r.MultipartForm.RemoveAll() }()

			req = entity.ProjectFromForm(r)
			if err := req.Bind(r); err != nil {
				response.RenderError(w, r, err)
				return
			}

			file, header, err := r.FormFile("file")
			if err == nil {
				defer func() { _ = file.Close() }()
				upload = &core.Upload{
					Name:     header.Filename,
					Size:     header.Size,
					MIMEType: header.Header.Get("Content-Type"),
					Reader:   file,
				}
			} else if !errors.Is(err, http.ErrMissingFile) {
				response.RenderError(w, r, formError(err))
				return
			}
		} else {
			req = &entity.ProjectRequest{}
			if err := response.Bind(r, req); err != nil {
				logger.Debug("bad request", sl.Err(err))
				response.RenderError(w, r, err)
				return
			}
		}

		project, err := handler.CreateProject(r.Context(), admin, req, upload)
		if err != nil {
			logger.Error("create project", sl.Err(err))
			response.RenderError(w, r, err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, response.Ok(project))
	}
}

func Update(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.project")

		id := chi.URLParam(r, "id")
		logger := log.With(
			mod,
			slog.String("project", id),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		admin := cont.GetAdmin(r.Context())
		if admin == nil {
			response.RenderError(w, r, entity.ErrUnauthorized)
			return
		}

		var update entity.ProjectUpdate
		if err := response.Bind(r, &update); err != nil {
			logger.Debug("bad request", sl.Err(err))
			response.RenderError(w, r, err)
			return
		}

		project, err := handler.UpdateProject(r.Context(), admin, id, &update)
		if err != nil {
			logger.With(slog.String("admin", admin.Username), sl.Err(err)).Error("update project")
			response.RenderError(w, r, err)
			return
		}

		render.JSON(w, r, response.Ok(project))
	}
}

func Delete(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.project")

		id := chi.URLParam(r, "id")
		logger := log.With(
			mod,
			slog.String("project", id),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		admin := cont.GetAdmin(r.Context())
		if admin == nil {
			response.RenderError(w, r, entity.ErrUnauthorized)
			return
		}

		if err := handler.DeleteProject(r.Context(), admin, id); err != nil {
			logger.With(slog.String("admin", admin.Username), sl.Err(err)).Error("delete project")
			response.RenderError(w, r, err)
			return
		}

		render.JSON(w, r, response.Ok(map[string]string{"id": id}))
	}
}

func MyProjects(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.project")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		admin := cont.GetAdmin(r.Context())
		if admin == nil {
			response.RenderError(w, r, entity.ErrUnauthorized)
			return
		}

		projects, err := handler.MyProjects(r.Context(), admin)
		if err != nil {
			logger.With(slog.String("admin", admin.Username), sl.Err(err)).Error("my projects")
			response.RenderError(w, r, err)
			return
		}

		render.JSON(w, r, response.Ok(projects))
	}
}

// formError classifies multipart failures; an oversized body maps to 413.
func formError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return fmt.Errorf("%w: request body exceeds %d bytes", entity.ErrFileTooLarge, tooLarge.Limit)
	}
	return fmt.Errorf("%w: %v", entity.ErrInvalidInput, err)
}
