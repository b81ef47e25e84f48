package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"
)

// RetryConfig controls how generator adapters retry transient API failures.
type RetryConfig struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int

	// BaseDelay is the delay before the first retry; later delays double.
	BaseDelay time.Duration
}

// CallWithRetry runs call until it succeeds, returns a permanent error, or
// the retry budget is spent. Errors wrapping ErrTransientFailure are retried
// with jittered exponential backoff; anything else is returned immediately.
func CallWithRetry(
	ctx context.Context,
	logger *slog.Logger,
	cfg RetryConfig,
	call func(ctx context.Context) error,
) error {
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		logger.WarnContext(ctx, "Invalid max retries value, using default", "max_retries", 3)
		maxRetries = 3
	}

	baseDelay := cfg.BaseDelay
	if baseDelay <= 0 {
		logger.WarnContext(ctx, "Invalid retry delay value, using default", "base_delay", "2s")
		baseDelay = 2 * time.Second
	}

	backoff := retry.NewExponential(baseDelay)
	backoff = retry.WithJitterPercent(50, backoff)
	backoff = retry.WithMaxRetries(uint64(maxRetries), backoff)

	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		err := call(ctx)
		if err == nil {
			return nil
		}

		if errors.Is(err, ErrTransientFailure) {
			logger.WarnContext(ctx, "Generator call failed, will retry if budget allows",
				"attempt", attempt,
				"max_attempts", maxRetries+1,
				"error", err)
			return retry.RetryableError(err)
		}

		logger.WarnContext(ctx, "Permanent generator error, not retrying",
			"attempt", attempt,
			"error", err)
		return err
	})
	if err == nil {
		return nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ErrTransientFailure) {
		return fmt.Errorf("%w: %v", ErrTransientFailure, ctxErr)
	}

	return err
}

// ClassifyStatus wraps a provider error by its HTTP status. A zero status
// means no answer arrived. Missing answers, timeouts, rate limits and server
// errors are transient; any other status is a rejected request and retrying
// it cannot help.
func ClassifyStatus(status int, err error) error {
	switch {
	case status == 0,
		status == http.StatusRequestTimeout,
		status == http.StatusTooManyRequests,
		status >= http.StatusInternalServerError:
		return fmt.Errorf("%w: %v", ErrTransientFailure, err)
	default:
		return fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
}
