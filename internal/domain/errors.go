package domain

import "errors"

// Base errors wrapped by the textbook and chapter constructors and state
// transitions. Match them with errors.Is.
var (
	ErrValidation        = errors.New("validation failed")
	ErrInvalidID         = errors.New("invalid ID")
	ErrInvalidTransition = errors.New("invalid status transition")
)
