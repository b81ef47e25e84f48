package api

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/kotoba-learn/kotoba-api/internal/api/shared"
	"github.com/kotoba-learn/kotoba-api/internal/domain"
	"github.com/kotoba-learn/kotoba-api/internal/service"
	"github.com/kotoba-learn/kotoba-api/internal/task"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	var validationErr *service.ValidationError
	var partialErr *service.PartialFailureError

	switch {
	// Generation failures are judged on their own, whatever their cause.
	case errors.As(err, &partialErr):
		if errors.Is(err, task.ErrQueueFull) {
			return http.StatusServiceUnavailable
		}
		return http.StatusInternalServerError

	case errors.As(err, &validationErr),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID):
		return http.StatusBadRequest

	case errors.Is(err, service.ErrTextbookNotFound),
		errors.Is(err, service.ErrChapterNotFound):
		return http.StatusNotFound

	case errors.Is(err, service.ErrTextbookStillGenerating),
		errors.Is(err, service.ErrTextbookNotGenerating):
		return http.StatusConflict

	case errors.Is(err, service.ErrAsyncUnavailable):
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var validationErr *service.ValidationError
	var partialErr *service.PartialFailureError

	if errors.As(err, &partialErr) {
		switch {
		case errors.Is(err, task.ErrQueueFull):
			return "Too many textbooks are generating, try again later"
		case errors.Is(err, service.ErrUnitTimeout):
			return "Chapter generation timed out"
		default:
			return "Textbook generation failed"
		}
	}

	switch {
	case errors.As(err, &validationErr):
		return "Validation failed"
	case errors.Is(err, domain.ErrInvalidID):
		return "Invalid ID"
	case errors.Is(err, domain.ErrValidation):
		return "Invalid request"
	case errors.Is(err, service.ErrTextbookNotFound):
		return "Textbook not found"
	case errors.Is(err, service.ErrChapterNotFound):
		return "Chapter not found"
	case errors.Is(err, service.ErrTextbookStillGenerating):
		return "Textbook is still generating"
	case errors.Is(err, service.ErrTextbookNotGenerating):
		return "Textbook generation has already finished"
	case errors.Is(err, service.ErrAsyncUnavailable):
		return "Asynchronous generation is not available"
	default:
		return "An unexpected error occurred"
	}
}

// ValidationErrorResponse is the body of a 400 for a rejected request.
type ValidationErrorResponse struct {
	Error   string               `json:"error"`
	Fields  []service.FieldError `json:"fields"`
	TraceID string               `json:"trace_id,omitempty"`
}

// PartialFailureResponse is the body returned when generation stopped
// after the textbook was created.
type PartialFailureResponse struct {
	Error          string    `json:"error"`
	JobID          uuid.UUID `json:"job_id"`
	CompletedUnits int       `json:"completed_units"`
	TraceID        string    `json:"trace_id,omitempty"`
}

// HandleAPIError writes the response for err. Validation and partial
// failures carry structured bodies; everything else gets the standard
// error body with a safe message. A non-empty message overrides the
// safe message.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, message string) {
	status := MapErrorToStatusCode(err)
	if message == "" {
		message = GetSafeErrorMessage(err)
	}
	traceID := shared.GetTraceID(r.Context())

	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		shared.RespondWithBodyAndLog(w, r, status, ValidationErrorResponse{
			Error:   message,
			Fields:  validationErr.Fields,
			TraceID: traceID,
		}, err)
		return
	}

	var partialErr *service.PartialFailureError
	if errors.As(err, &partialErr) {
		shared.RespondWithBodyAndLog(w, r, status, PartialFailureResponse{
			Error:          message,
			JobID:          partialErr.TextbookID,
			CompletedUnits: partialErr.CompletedUnits,
			TraceID:        traceID,
		}, err)
		return
	}

	var opts []shared.ResponseOption
	if status == http.StatusConflict {
		opts = append(opts, shared.WithElevatedLogLevel())
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err, opts...)
}
