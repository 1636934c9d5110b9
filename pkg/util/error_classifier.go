package util

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"strings"

	"github.com/jackc/pgx/v5"

	"shiftdesk/pkg/circuitbreaker"
)

// temporary is implemented by upstream errors that know whether a retry helps,
// e.g. relay responses carrying a 5xx status.
type temporary interface {
	Temporary() bool
}

// IsRetryableError determines if an error is retryable.
// Returns: (isRetryable, errorType)
func IsRetryableError(err error) (bool, string) {
	if err == nil {
		return false, ""
	}

	// JSON decode errors: malformed payload, never retried.
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return false, "json_decode_error"
	}

	if errors.Is(err, circuitbreaker.ErrCircuitBreakerOpen) {
		return true, "circuit_open"
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return false, "not_found"
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true, "timeout"
	}
	if errors.Is(err, context.Canceled) {
		return false, "context_canceled"
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return true, "network_timeout"
		}
		return true, "network_error"
	}

	var t temporary
	if errors.As(err, &t) {
		if t.Temporary() {
			return true, "upstream_unavailable"
		}
		return false, "upstream_rejected"
	}

	errStr := err.Error()
	if strings.Contains(errStr, "duplicate key") {
		return false, "duplicate_key"
	}
	if strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "connection reset") {
		return true, "connection_error"
	}

	// Unknown errors are not retried.
	return false, "unknown_error"
}

// ShouldRetry checks if an error should be retried based on retry count.
func ShouldRetry(retryCount int64, maxRetries int64, isRetryable bool) bool {
	if !isRetryable {
		return false
	}
	return retryCount <= maxRetries
}
