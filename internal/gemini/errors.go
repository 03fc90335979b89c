package gemini

import (
	"errors"
	"fmt"
)

// ErrServiceUnavailable is returned when the completion service keeps rate
// limiting (or failing at the transport level) after all retries. It is
// the only error from this package that means "no analysis is possible right
// now"; callers surface it as a retry-later condition.
var ErrServiceUnavailable = errors.New("completion service unavailable")

// StatusError is a non-retryable HTTP failure from the completion service,
// carrying the status and response body for diagnosis.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("gemini API error (status %d): %s", e.StatusCode, e.Body)
}
