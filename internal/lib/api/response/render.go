package response

import (
	"SourceHub/entity"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/render"
)

// RenderError writes err with the status it maps to.
func RenderError(w http.ResponseWriter, r *http.Request, err error) {
	render.Status(r, StatusOf(err))
	render.JSON(w, r, Error(MessageOf(err)))
}

// Bind decodes and validates the request body; decoding failures count as invalid input.
func Bind(r *http.Request, v render.Binder) error {
	err := render.Bind(r, v)
	if err != nil && !errors.Is(err, entity.ErrInvalidInput) {
		return fmt.Errorf("%w: %v", entity.ErrInvalidInput, err)
	}
	return err
}
