package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/kotoba-learn/kotoba-api/internal/domain"
	"github.com/kotoba-learn/kotoba-api/internal/service"
)

// getPathUUID extracts and parses a UUID path parameter.
func getPathUUID(r *http.Request, paramName string) (uuid.UUID, error) {
	pathParam := chi.URLParam(r, paramName)
	if pathParam == "" {
		return uuid.Nil, fieldError(paramName, "is required")
	}

	id, err := uuid.Parse(pathParam)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s has invalid format", domain.ErrInvalidID, paramName)
	}

	return id, nil
}

// getPathInt extracts a positive integer path parameter.
func getPathInt(r *http.Request, paramName string) (int, error) {
	n, err := strconv.Atoi(chi.URLParam(r, paramName))
	if err != nil || n < 1 {
		return 0, fieldError(paramName, "must be a positive integer")
	}
	return n, nil
}

// getQueryInt parses an optional integer query parameter, returning def
// when it is absent.
func getQueryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fieldError(name, "must be an integer")
	}
	return n, nil
}

// getQueryBool parses an optional boolean query parameter.
func getQueryBool(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}

	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fieldError(name, "must be true or false")
	}
	return b, nil
}

func fieldError(field, message string) error {
	return &service.ValidationError{Fields: []service.FieldError{{Field: field, Message: message}}}
}
