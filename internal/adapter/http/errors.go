package http

import (
	"errors"
	"net/http"

	"github.com/couchcryptid/solar-eda/internal/chart"
	"github.com/couchcryptid/solar-eda/internal/domain"
	"github.com/couchcryptid/solar-eda/internal/pipeline"
	"github.com/go-chi/render"
)

// APIError is the JSON body of every failed API request.
type APIError struct {
	StatusCode int    `json:"-"`
	ErrorCode  string `json:"error_code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return e.Message
}

// Render implements render.Renderer.
func (e *APIError) Render(_ http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// errBadRequest marks malformed input that never reached validation.
var errBadRequest = errors.New("bad request")

// errorFor maps service errors to their HTTP representation.
func errorFor(err error) *APIError {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return &APIError{StatusCode: http.StatusRequestEntityTooLarge, ErrorCode: "PAYLOAD_TOO_LARGE", Message: err.Error()}
	case errors.Is(err, errBadRequest):
		return &APIError{StatusCode: http.StatusBadRequest, ErrorCode: "INVALID_REQUEST", Message: err.Error()}
	case errors.Is(err, domain.ErrDatasetNotFound):
		return &APIError{StatusCode: http.StatusNotFound, ErrorCode: "DATASET_NOT_FOUND", Message: err.Error()}
	case errors.Is(err, pipeline.ErrInvalidRequest):
		return &APIError{StatusCode: http.StatusUnprocessableEntity, ErrorCode: "VALIDATION_FAILED", Message: err.Error()}
	case errors.Is(err, domain.ErrUnknownColumn),
		errors.Is(err, domain.ErrNotNumeric),
		errors.Is(err, domain.ErrNoData),
		errors.Is(err, domain.ErrInvalidRange),
		errors.Is(err, domain.ErrNoTimestamps),
		errors.Is(err, domain.ErrUnsupportedFile),
		errors.Is(err, chart.ErrUnknownKind),
		errors.Is(err, chart.ErrUnsupportedFormat):
		return &APIError{StatusCode: http.StatusUnprocessableEntity, ErrorCode: "UNPROCESSABLE_ENTITY", Message: err.Error()}
	default:
		return &APIError{StatusCode: http.StatusInternalServerError, ErrorCode: "INTERNAL_SERVER_ERROR", Message: "internal server error"}
	}
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := errorFor(err)
	if apiErr.StatusCode >= http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err, "path", r.URL.Path, "request_id", requestID(r))
	}
	render.Render(w, r, apiErr) //nolint:errcheck // status already chosen
}
