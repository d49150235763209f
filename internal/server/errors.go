package server

import (
	"errors"
	"net/http"

	"github.com/jonathan/resume-enhancer/internal/gateway"
	"github.com/jonathan/resume-enhancer/internal/ingest"
	"github.com/jonathan/resume-enhancer/internal/schema"
	"github.com/jonathan/resume-enhancer/internal/store"
)

// HTTPStatus returns the appropriate HTTP status code for an error.
func HTTPStatus(err error) int {
	var (
		invalidType *ingest.InvalidFileTypeError
		validation  *schema.ValidationError
		violation   *gateway.SchemaViolation
		model       *gateway.ModelError
		notFound    *store.NotFoundError
	)

	switch {
	case errors.As(err, &invalidType):
		return http.StatusUnsupportedMediaType
	case errors.As(err, &violation), errors.As(err, &model):
		// The upstream model failed us, not the client. Checked before
		// ValidationError: a SchemaViolation wraps the validation failure
		// of the model's own output.
		return http.StatusBadGateway
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
