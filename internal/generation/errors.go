package generation

import "errors"

var (
	ErrGenerationFailed = errors.New("failed to generate chapter content")
	ErrInvalidConfig    = errors.New("invalid generator configuration")

	// ErrInvalidResponse means the model answered but the body could not be
	// decoded into a chapter.
	ErrInvalidResponse = errors.New("invalid response from language model")
	ErrEmptyResult     = errors.New("generator returned an empty chapter")

	// ErrContentBlocked is a safety refusal. It is never retried.
	ErrContentBlocked = errors.New("content blocked by language model safety filters")

	// ErrTransientFailure marks rate limits and 5xx answers.
	ErrTransientFailure = errors.New("transient error during chapter generation")
)
