package trends

import (
	"fmt"
	"time"
)

// RateLimitError is returned when the upstream quota denies a request.
// It is the only error Trends surfaces; every other failure degrades to a
// successful response with a source tag indicating provenance.
type RateLimitError struct {
	RetryAfter time.Duration
	Message    string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited: %s", e.Message)
}
