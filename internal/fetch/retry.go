package fetch

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"
)

const (
	retryAttempts  = 3
	retryBaseDelay = 700 * time.Millisecond
)

// transientPatterns covers transport failures that a short wait can fix.
// Structural failures (bad XML, selector drift) never match and are not
// retried.
var transientPatterns = []string{
	"timeout",
	"deadline exceeded",
	"connection refused",
	"connection reset",
	"no such host",
	"temporary failure",
	"network is unreachable",
	"i/o timeout",
	"EOF",
}

// IsTransient reports whether err looks like a recoverable network failure.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := err.Error()
	for _, pattern := range transientPatterns {
		if strings.Contains(strings.ToLower(msg), strings.ToLower(pattern)) {
			return true
		}
	}
	return false
}

// withRetry runs fn up to retryAttempts times with linear backoff
// (base delay times the attempt number) between attempts. Only transient
// errors are retried; the last error is surfaced along with the attempt
// count so callers can record it and move on to their next source.
func withRetry(ctx context.Context, fn func() error) (attempts int, err error) {
	for attempt := 1; attempt <= retryAttempts; attempt++ {
		attempts = attempt
		err = fn()
		if err == nil {
			return attempts, nil
		}
		if !IsTransient(err) || attempt == retryAttempts {
			return attempts, err
		}

		delay := retryBaseDelay * time.Duration(attempt)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return attempts, ctx.Err()
		}
	}
	return attempts, err
}
