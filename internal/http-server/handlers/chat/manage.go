package chat

import (
	"SourceHub/entity"
	"SourceHub/internal/lib/api/cont"
	"SourceHub/internal/lib/api/response"
	"SourceHub/internal/lib/sl"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

// Reply posts an admin message into one of the admin's conversations.
func Reply(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.chat")

		chatID := chi.URLParam(r, "chatId")
		logger := log.With(
			mod,
			slog.String("chat", chatID),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		admin := cont.GetAdmin(r.Context())
		if admin == nil {
			response.RenderError(w, r, entity.ErrUnauthorized)
			return
		}
		logger = logger.With(slog.String("admin", admin.Username))

		var req entity.ChatMessageRequest
		if err := response.Bind(r, &req); err != nil {
			logger.Debug("bad request", sl.Err(err))
			response.RenderError(w, r, err)
			return
		}

		conv, err := handler.SendAdminReply(r.Context(), chatID, req.Message, admin.ID)
		if err != nil {
			logger.Error("admin reply", sl.Err(err))
			response.RenderError(w, r, err)
			return
		}

		render.JSON(w, r, response.Ok(conv))
	}
}

func Close(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.chat")

		chatID := chi.URLParam(r, "chatId")
		logger := log.With(
			mod,
			slog.String("chat", chatID),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		admin := cont.GetAdmin(r.Context())
		if admin == nil {
			response.RenderError(w, r, entity.ErrUnauthorized)
			return
		}

		conv, err := handler.CloseConversation(r.Context(), chatID, admin.ID)
		if err != nil {
			logger.With(slog.String("admin", admin.Username), sl.Err(err)).Error("close chat")
			response.RenderError(w, r, err)
			return
		}

		render.JSON(w, r, response.Ok(conv))
	}
}
