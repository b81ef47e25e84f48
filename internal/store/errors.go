package store

import (
	"errors"
	"fmt"
)

// Base errors. Implementations wrap these so callers can match with
// errors.Is without knowing the backend.
var (
	ErrNotFound      = errors.New("entity not found")
	ErrDuplicate     = errors.New("entity already exists")
	ErrInvalidEntity = errors.New("invalid entity")
	ErrUpdateFailed  = errors.New("update failed")
)

var (
	ErrTextbookNotFound = fmt.Errorf("%w: textbook", ErrNotFound)
	ErrChapterNotFound  = fmt.Errorf("%w: chapter", ErrNotFound)

	// ErrTextbookNotGenerating is returned by a status transition on a
	// textbook that already reached completed or error.
	ErrTextbookNotGenerating = fmt.Errorf("%w: textbook is not generating", ErrUpdateFailed)

	// ErrTextbookStillGenerating is returned when publishing a textbook
	// whose generation has not finished.
	ErrTextbookStillGenerating = fmt.Errorf("%w: textbook is still generating", ErrUpdateFailed)

	// ErrDuplicateChapter means the chapter number is already taken for
	// the textbook.
	ErrDuplicateChapter = fmt.Errorf("%w: chapter number", ErrDuplicate)
)

// IsNotFoundError reports whether err wraps ErrNotFound.
func IsNotFoundError(err error) bool { return errors.Is(err, ErrNotFound) }

// IsDuplicateError reports whether err wraps ErrDuplicate.
func IsDuplicateError(err error) bool { return errors.Is(err, ErrDuplicate) }
