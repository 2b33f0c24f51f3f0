package tui

import (
	"strings"
)

// categorizeRequestError turns a transport error string into an actionable
// message. Extraction problems and unknown errors are returned as is.
func categorizeRequestError(errStr string) string {
	if errStr == "" {
		return ""
	}

	errLower := strings.ToLower(errStr)

	if strings.HasPrefix(errStr, "Extraction issues") {
		return errStr
	}

	if strings.Contains(errLower, "context canceled") {
		return "Request cancelled"
	}

	if strings.Contains(errLower, "deadline exceeded") ||
		strings.Contains(errLower, "timeout") ||
		strings.Contains(errLower, "timed out") {
		return "Request timeout - raise timeout_seconds on the request or request_timeout_seconds in config.yaml"
	}

	// Proxy errors often contain "connection refused" too
	if strings.Contains(errLower, "proxy") {
		return "Proxy connection failed - check HTTP_PROXY / HTTPS_PROXY"
	}

	if strings.Contains(errLower, "no such host") ||
		strings.Contains(errLower, "dial tcp: lookup") {
		return "DNS resolution failed - verify the hostname (unresolved {{variables}} end up in the URL)"
	}

	if strings.Contains(errLower, "connection refused") {
		return "Connection refused - check if server is running and port is correct"
	}

	if strings.Contains(errLower, "connection reset") {
		return "Connection reset by server"
	}

	if strings.Contains(errLower, "network is unreachable") ||
		strings.Contains(errLower, "no route to host") {
		return "Network unreachable - check network connection and firewall settings"
	}

	if strings.Contains(errLower, "x509") ||
		strings.Contains(errLower, "certificate") ||
		strings.Contains(errLower, "tls") {
		return categorizeSSLError(errLower, errStr)
	}

	if strings.Contains(errLower, "stopped after") && strings.Contains(errLower, "redirect") {
		return "Too many redirects - check server configuration or URL"
	}

	if strings.Contains(errLower, "unsupported protocol") ||
		strings.Contains(errLower, "invalid url") ||
		strings.Contains(errLower, "missing protocol scheme") {
		return "Invalid URL - verify the URL format and protocol (http/https)"
	}

	if strings.Contains(errLower, "eof") {
		return "Connection closed unexpectedly"
	}

	return "Request failed: " + errStr
}

// categorizeSSLError provides specific guidance for TLS/SSL certificate errors
func categorizeSSLError(errLower, errStr string) string {
	switch {
	case strings.Contains(errLower, "unknown authority"):
		return "TLS certificate is not trusted - turn off verify_ssl on the request for self-signed servers"
	case strings.Contains(errLower, "expired"):
		return "TLS certificate has expired"
	case strings.Contains(errLower, "certificate is valid for"):
		return "TLS hostname mismatch - certificate doesn't match the requested hostname"
	case strings.Contains(errLower, "handshake"):
		return "TLS handshake failed - check TLS version compatibility"
	}
	return "TLS/SSL error: " + errStr
}
