package project

import (
	"SourceHub/internal/lib/api/response"
	"SourceHub/internal/lib/sl"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

// VisitorHeader carries the visitor identity used to deduplicate likes.
const VisitorHeader = "X-Visitor-ID"

func Get(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.project")

		id := chi.URLParam(r, "id")
		logger := log.With(
			mod,
			slog.String("project", id),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		project, err := handler.GetProject(r.Context(), id)
		if err != nil {
			logger.Debug("get project", sl.Err(err))
			response.RenderError(w, r, err)
			return
		}

		render.JSON(w, r, response.Ok(project))
	}
}

// Like counts one like per caller; repeats are answered with 409.
func Like(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.project")

		id := chi.URLParam(r, "id")
		caller := Caller(r)
		logger := log.With(
			mod,
			slog.String("project", id),
			slog.String("caller", caller),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		result, err := handler.LikeProject(r.Context(), id, caller)
		if err != nil {
			logger.Debug("like project", sl.Err(err))
			response.RenderError(w, r, err)
			return
		}

		render.JSON(w, r, response.Ok(result))
	}
}

func Download(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.project")

		id := chi.URLParam(r, "id")
		logger := log.With(
			mod,
			slog.String("project", id),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		result, err := handler.DownloadProject(r.Context(), id)
		if err != nil {
			logger.Debug("download project", sl.Err(err))
			response.RenderError(w, r, err)
			return
		}

		render.JSON(w, r, response.Ok(result))
	}
}

// DownloadFile sends the source of a CODE project as a text attachment.
func DownloadFile(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.project")

		id := chi.URLParam(r, "id")
		logger := log.With(
			mod,
			slog.String("project", id),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		project, err := handler.ProjectSource(r.Context(), id)
		if err != nil {
			logger.Debug("project source", sl.Err(err))
			response.RenderError(w, r, err)
			return
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", project.DownloadName()))
		if _, err = w.Write([]byte(project.Content)); err != nil {
			logger.Warn("write project source", sl.Err(err))
		}
	}
}

// Caller identifies who is liking: the visitor id when sent, otherwise the client address.
func Caller(r *http.Request) string {
	if visitor := strings.TrimSpace(r.Header.Get(VisitorHeader)); visitor != "" {
		return "visitor:" + visitor
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}
