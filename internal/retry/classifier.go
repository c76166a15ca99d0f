package retry

import (
	"encoding/json"
	"encoding/xml"
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/vvka-141/sfmeta/pkg/sfmeta"
)

// retryablePatterns are message fragments of failures that clear up on their
// own: network blips, gateway errors and server-side cursor expiry.
var retryablePatterns = []string{
	"ETIMEDOUT",
	"ENOTFOUND",
	"ECONNRESET",
	"ECONNREFUSED",
	"EAI_AGAIN",
	"socket hang up",
	"Polling time out",
	"connection timeout",
	"network timeout",
	"503 Service Unavailable",
	"502 Bad Gateway",
	"ERROR_HTTP_420",
	"ERROR_HTTP_502",
	"ERROR_HTTP_503",
	"INVALID_QUERY_LOCATOR",
	"<h1>Bad Message 400</h1><pre>reason: Bad Request</pre>",
	"Unexpected token < in JSON",
}

// lowercase fragments matched case-insensitively, as reported by Go's net stack.
var connectionPatterns = []string{
	"connection refused",
	"connection reset",
	"no such host",
	"network is unreachable",
	"i/o timeout",
	"broken pipe",
	"unexpected eof",
	"tls handshake timeout",
}

// MetadataErrorClassifier implements ErrorClassifier for metadata API calls.
type MetadataErrorClassifier struct{}

// NewMetadataErrorClassifier creates a new metadata API error classifier.
func NewMetadataErrorClassifier() *MetadataErrorClassifier {
	return &MetadataErrorClassifier{}
}

// IsTransient determines if an error is temporary and retryable.
func (c *MetadataErrorClassifier) IsTransient(err error) bool {
	if err == nil {
		return false
	}

	// A truncated or HTML body where an envelope was expected.
	if errors.Is(err, sfmeta.ErrMalformedResponse) {
		return true
	}
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return true
	}
	var xmlErr *xml.SyntaxError
	if errors.As(err, &xmlErr) {
		return true
	}

	if c.isNetworkError(err) {
		return true
	}

	return c.matchesPattern(err.Error())
}

// isNetworkError checks for network-level errors.
func (c *MetadataErrorClassifier) isNetworkError(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.IsTemporary || dnsErr.IsTimeout || dnsErr.IsNotFound
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Timeout() {
			return true
		}
		if opErr.Err != nil {
			switch {
			case errors.Is(opErr.Err, syscall.ECONNREFUSED),
				errors.Is(opErr.Err, syscall.ECONNRESET),
				errors.Is(opErr.Err, syscall.ENETUNREACH),
				errors.Is(opErr.Err, syscall.EHOSTUNREACH):
				return true
			}
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	return false
}

func (c *MetadataErrorClassifier) matchesPattern(msg string) bool {
	for _, pattern := range retryablePatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}

	// "request to https://... failed, reason: ..." from the HTTP transport.
	if i := strings.Index(msg, "request to "); i >= 0 && strings.Contains(msg[i:], " failed") {
		return true
	}

	lower := strings.ToLower(msg)
	for _, pattern := range connectionPatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}
