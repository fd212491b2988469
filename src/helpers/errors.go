package helpers

import (
	"fmt"
	"time"

	"portfolio-observer/src/logger"
)

// -----------------------------------------------------------------------------
// Custom Error Types
//
// Data-quality problems never propagate as errors out of the alert core: a
// failed feed cycle degrades to an empty snapshot map, malformed rule input is
// coerced to unset, and unknown codes are dropped. The types below exist for
// the infrastructure layers (network, storage, config) where a real error is
// the right answer.
// -----------------------------------------------------------------------------

type ObserverError struct {
	Message string
	Cause   error
}

func (e *ObserverError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ObserverError) Unwrap() error {
	return e.Cause
}

// Distinct error types for type assertions at call sites.
type ConfigurationError struct{ ObserverError }
type NetworkError struct{ ObserverError }
type FeedError struct{ ObserverError }
type DatabaseError struct{ ObserverError }

// -----------------------------------------------------------------------------

// NewFeedError wraps a feed failure. Callers are expected to log it and carry
// on with an empty snapshot set ("no change"), not abort the poll loop.
func NewFeedError(message string, cause error) *FeedError {
	return &FeedError{ObserverError{Message: message, Cause: cause}}
}

// NewDatabaseError wraps a storage failure.
func NewDatabaseError(message string, cause error) *DatabaseError {
	return &DatabaseError{ObserverError{Message: message, Cause: cause}}
}

// -----------------------------------------------------------------------------
// Retry Logic
// -----------------------------------------------------------------------------

// RetryWithBackoff attempts to execute the operation up to maxRetries times
// with exponential backoff.
func RetryWithBackoff(operation string, maxRetries int, baseDelay time.Duration, log *logger.Logger, fn func() (interface{}, error)) (interface{}, error) {
	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		res, err := fn()
		if err == nil {
			return res, nil
		}

		lastErr = err
		if attempt == maxRetries-1 {
			break
		}

		delay := baseDelay * (1 << attempt)
		log.Warning("Attempt %d/%d failed for %s: %v. Retrying in %v", attempt+1, maxRetries, operation, err, delay)
		time.Sleep(delay)
	}

	return nil, lastErr
}
