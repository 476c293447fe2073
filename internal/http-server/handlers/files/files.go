package files

import (
	"SourceHub/entity"
	"SourceHub/internal/lib/api/response"
	"SourceHub/internal/lib/sl"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Core interface {
	OpenFile(ctx context.Context, key string) (string, entity.FileMetadata, io.ReadCloser, error)
}

// Verifier checks the signature of a file link.
type Verifier interface {
	Verify(fileID, expires, sig string) bool
}

// Download streams a stored file when the link signature is valid.
func Download(log *slog.Logger, verifier Verifier, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.files")

		id := chi.URLParam(r, "id")
		logger := log.With(
			mod,
			slog.String("file", id),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		q := r.URL.Query()
		if !verifier.Verify(id, q.Get("expires"), q.Get("sig")) {
			logger.Debug("invalid file signature")
			response.RenderError(w, r, fmt.Errorf("%w: invalid or expired link", entity.ErrForbidden))
			return
		}

		name, meta, reader, err := handler.OpenFile(r.Context(), id)
		if err != nil {
			logger.Debug("open file", sl.Err(err))
			response.RenderError(w, r, err)
			return
		}
		defer func() { _ = reader.Close() }()

		contentType := meta.MIMEType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", name))
		if _, err = io.Copy(w, reader); err != nil {
			logger.Warn("stream file", sl.Err(err))
		}
	}
}
