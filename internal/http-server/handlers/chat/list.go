package chat

import (
	"SourceHub/internal/lib/api/query"
	"SourceHub/internal/lib/api/response"
	"SourceHub/internal/lib/sl"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

func VisitorChats(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.chat")

		visitorID := chi.URLParam(r, "visitorId")
		logger := log.With(
			mod,
			slog.String("visitor", visitorID),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		chats, err := handler.ListVisitorConversations(r.Context(), visitorID, query.String(r, "status"))
		if err != nil {
			logger.Error("list visitor chats", sl.Err(err))
			response.RenderError(w, r, err)
			return
		}

		render.JSON(w, r, response.Ok(chats))
	}
}

// AdminChats lists conversations addressed to one admin, open ones by default.
func AdminChats(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.chat")

		adminID := chi.URLParam(r, "adminId")
		logger := log.With(
			mod,
			slog.String("admin", adminID),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		page, limit := query.Page(r)
		chats, err := handler.ListAdminConversations(r.Context(), adminID, query.String(r, "status"), page, limit)
		if err != nil {
			logger.Error("list admin chats", sl.Err(err))
			response.RenderError(w, r, err)
			return
		}

		render.JSON(w, r, response.OkPage(chats.Items, chats.Pagination))
	}
}

func AllChats(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.chat")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		page, limit := query.Page(r)
		chats, err := handler.ListAllConversations(r.Context(), query.String(r, "status"), page, limit)
		if err != nil {
			logger.Error("list chats", sl.Err(err))
			response.RenderError(w, r, err)
			return
		}

		render.JSON(w, r, response.OkPage(chats.Items, chats.Pagination))
	}
}
