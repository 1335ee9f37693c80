// Package resilience wraps outbound provider calls with retry and
// circuit-breaking so a flaky registry or search backend degrades an
// analysis run instead of failing it.
package resilience

import (
	"errors"
	"net"
	"strings"
	"syscall"
)

// Transient marks an error as safe to retry (rate limit, 5xx, network blip).
type Transient struct {
	Err        error
	StatusCode int
}

func (t *Transient) Error() string { return t.Err.Error() }

func (t *Transient) Unwrap() error { return t.Err }

// MarkTransient tags err as retryable, carrying the HTTP status when known.
func MarkTransient(err error, statusCode int) *Transient {
	return &Transient{Err: err, StatusCode: statusCode}
}

// RetryableStatus reports whether an HTTP status is worth retrying.
func RetryableStatus(code int) bool {
	switch code {
	case 408, 429, 500, 502, 503, 504:
		return true
	}
	return false
}

var transientMessages = []string{
	"connection reset by peer",
	"broken pipe",
	"no such host",
	"tls handshake timeout",
	"i/o timeout",
	"temporary failure in name resolution",
}

// Retryable reports whether err is transient: an explicit Transient marker,
// a network timeout, a connection-level syscall error, or a message that
// matches known transient patterns from wrapped HTTP client errors.
func Retryable(err error) bool {
	if err == nil {
		return false
	}

	var t *Transient
	if errors.As(err, &t) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, m := range transientMessages {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}
