package response

import (
	"SourceHub/entity"
	"errors"
	"net/http"
)

type Response struct {
	Success    bool        `json:"success"`
	Data       interface{} `json:"data,omitempty"`
	Message    string      `json:"message,omitempty"`
	Pagination interface{} `json:"pagination,omitempty"`
}

func Ok(data interface{}) Response {
	return Response{
		Success: true,
		Data:    data,
	}
}

func OkPage(data interface{}, page entity.Pagination) Response {
	return Response{
		Success:    true,
		Data:       data,
		Pagination: page,
	}
}

func Error(message string) Response {
	return Response{
		Success: false,
		Message: message,
	}
}

// StatusOf maps domain errors to HTTP status codes.
func StatusOf(err error) int {
	switch {
	case errors.Is(err, entity.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, entity.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, entity.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, entity.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, entity.ErrAlreadyLiked):
		return http.StatusConflict
	case errors.Is(err, entity.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

// MessageOf returns a client-safe message for err; internal failures are not exposed.
func MessageOf(err error) string {
	if StatusOf(err) == http.StatusInternalServerError {
		return "Server error"
	}
	return err.Error()
}
