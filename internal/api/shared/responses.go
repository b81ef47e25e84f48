package shared

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/kotoba-learn/kotoba-api/internal/platform/logger"
	"github.com/kotoba-learn/kotoba-api/internal/redact"
)

// ErrorResponse is the body of every plain error answer.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

type ResponseOption func(*responseOptions)

type responseOptions struct {
	elevated bool
}

// WithElevatedLogLevel logs a 4xx at WARN instead of DEBUG.
func WithElevatedLogLevel() ResponseOption {
	return func(o *responseOptions) { o.elevated = true }
}

func RespondWithJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.FromContextOrDefault(r.Context(), slog.Default()).
			ErrorContext(r.Context(), "encode response body", slog.Any("error", err))
	}
}

func RespondWithError(w http.ResponseWriter, r *http.Request, status int, message string) {
	RespondWithErrorAndLog(w, r, status, message, nil)
}

// RespondWithErrorAndLog sends userMessage to the client and keeps err,
// redacted, in the log only.
func RespondWithErrorAndLog(w http.ResponseWriter, r *http.Request, status int, userMessage string, err error, opts ...ResponseOption) {
	RespondWithBodyAndLog(w, r, status, ErrorResponse{Error: userMessage}, err, opts...)
}

// RespondWithBodyAndLog writes an arbitrary error body. An ErrorResponse
// body gets the request trace ID filled in.
func RespondWithBodyAndLog(w http.ResponseWriter, r *http.Request, status int, body any, err error, opts ...ResponseOption) {
	var o responseOptions
	for _, opt := range opts {
		opt(&o)
	}

	traceID := GetTraceID(r.Context())
	if er, ok := body.(ErrorResponse); ok {
		er.TraceID = traceID
		body = er
	}

	attrs := []slog.Attr{
		slog.String("trace_id", traceID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Int("status_code", status),
	}
	if err != nil {
		attrs = append(attrs,
			slog.String("error", redact.Error(err)),
			slog.String("error_type", fmt.Sprintf("%T", err)))
	}
	logger.FromContextOrDefault(r.Context(), slog.Default()).
		LogAttrs(r.Context(), errorLogLevel(status, o.elevated), "API error response", attrs...)

	RespondWithJSON(w, r, status, body)
}

// errorLogLevel keeps client mistakes at DEBUG so they do not drown
// server faults.
func errorLogLevel(status int, elevated bool) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status == http.StatusTooManyRequests, elevated && status >= http.StatusBadRequest:
		return slog.LevelWarn
	default:
		return slog.LevelDebug
	}
}
