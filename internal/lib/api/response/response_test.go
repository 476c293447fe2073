package response

import (
	"SourceHub/entity"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("conversation 1: %w", entity.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: empty message", entity.ErrInvalidInput), http.StatusBadRequest},
		{entity.ErrForbidden, http.StatusForbidden},
		{entity.ErrUnauthorized, http.StatusUnauthorized},
		{entity.ErrAlreadyLiked, http.StatusConflict},
		{errors.New("mongodb connect error"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := StatusOf(tt.err); got != tt.want {
			t.Errorf("StatusOf(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestMessageOfHidesInternalErrors(t *testing.T) {
	if got := MessageOf(errors.New("mongodb: connection refused")); got != "Server error" {
		t.Errorf("MessageOf = %q, want Server error", got)
	}
	err := fmt.Errorf("%w: content is empty", entity.ErrInvalidInput)
	if got := MessageOf(err); got != err.Error() {
		t.Errorf("MessageOf = %q, want %q", got, err.Error())
	}
}
