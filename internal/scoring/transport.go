package scoring

import (
	"errors"
	"net"
	"net/url"
	"syscall"
)

// isTransport reports a failure to reach the engine at all, as opposed to a bad answer.
func isTransport(err error) bool {
	var opErr *net.OpError
	var dnsErr *net.DNSError

	if errors.As(err, &opErr) || errors.As(err, &dnsErr) {
		return true
	}

	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return !urlErr.Timeout()
	}

	return false
}
