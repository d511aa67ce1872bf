package controller

import (
	"errors"
	"net/http"

	"github.com/qooqz/certificates/internal/certerr"
	"gorm.io/gorm"
)

// statusForError maps the lifecycle error taxonomy to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, certerr.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, certerr.ErrStateConflict), errors.Is(err, certerr.ErrIdentifierCollision):
		return http.StatusConflict
	case errors.Is(err, certerr.ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
