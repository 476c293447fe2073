package project

import (
	"SourceHub/entity"
	"SourceHub/internal/lib/api/query"
	"SourceHub/internal/lib/api/response"
	"SourceHub/internal/lib/sl"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

// List returns public projects filtered by type and language.
func List(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.project")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		page, limit := query.Page(r)
		filter := entity.ProjectFilter{
			Type:     entity.ProjectType(strings.ToUpper(query.String(r, "type"))),
			Language: query.String(r, "language"),
			Sort:     entity.ProjectSort(query.String(r, "sort")),
			Page:     page,
			Limit:    limit,
		}

		projects, err := handler.ListProjects(r.Context(), filter)
		if err != nil {
			logger.Error("list projects", sl.Err(err))
			response.RenderError(w, r, err)
			return
		}

		render.JSON(w, r, response.OkPage(projects.Items, projects.Pagination))
	}
}

func Search(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.project")

		q := query.String(r, "q")
		logger := log.With(
			mod,
			slog.String("query", q),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		page, limit := query.Page(r)
		projects, err := handler.SearchProjects(r.Context(), q, page, limit)
		if err != nil {
			logger.Debug("search projects", sl.Err(err))
			response.RenderError(w, r, err)
			return
		}

		render.JSON(w, r, response.OkPage(projects.Items, projects.Pagination))
	}
}

func Stats(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.project")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		stats, err := handler.PlatformStats(r.Context())
		if err != nil {
			logger.Error("platform stats", sl.Err(err))
			response.RenderError(w, r, err)
			return
		}

		render.JSON(w, r, response.Ok(stats))
	}
}
