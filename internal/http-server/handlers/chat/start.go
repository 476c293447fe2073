package chat

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

// Start opens a new conversation between a visitor and an admin.
func Start(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.chat")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req entity.StartChatRequest
		if err := response.Bind(r, &req); err != nil {
			logger.Debug("bad request", sl.Err(err))
			response.RenderError(w, r, err)
			return
		}

		conv, err := handler.StartChat(r.Context(), req.VisitorID, req.AdminID, req.Message)
		if err != nil {
			logger.With(
				slog.String("admin", req.AdminID),
				sl.Err(err),
			).Error("start chat")
			response.RenderError(w, r, err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, response.Ok(conv))
	}
}

// SendMessage appends a visitor message to an existing conversation.
func SendMessage(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.chat")

		chatID := chi.URLParam(r, "chatId")
		logger := log.With(
			mod,
			slog.String("chat", chatID),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req entity.ChatMessageRequest
		if err := response.Bind(r, &req); err != nil {
			logger.Debug("bad request", sl.Err(err))
			response.RenderError(w, r, err)
			return
		}

		conv, err := handler.SendVisitorMessage(r.Context(), chatID, req.Message)
		if err != nil {
			logger.Error("send message", sl.Err(err))
			response.RenderError(w, r, err)
			return
		}

		render.JSON(w, r, response.Ok(conv))
	}
}
