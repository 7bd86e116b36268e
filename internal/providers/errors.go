package providers

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// ErrInvalidResponseFormat is returned when a 2xx body matches no known shape
// or carries empty assistant text.
var ErrInvalidResponseFormat = errors.New("invalid response format from LLM API")

// HTTPError is a non-2xx upstream reply. Body is the raw upstream body.
type HTTPError struct {
	Status     int
	Body       string
	RetryAfter time.Duration
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Status, truncate(e.Body, 300))
}

// Retryable reports whether the upstream status is transient.
func (e *HTTPError) Retryable() bool {
	return e.Status == 429 || e.Status >= 500
}

// ParseRetryAfter parses a Retry-After header holding delay-seconds or an HTTP date.
func ParseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := time.Parse(time.RFC1123, v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
