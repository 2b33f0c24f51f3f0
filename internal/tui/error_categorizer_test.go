package tui

import (
	"strings"
	"testing"
)

func TestCategorizeRequestError(t *testing.T) {
	tests := []struct {
		name       string
		errStr     string
		wantPrefix string
	}{
		{"empty error", "", ""},
		{"deadline", `Get "http://example.com": context deadline exceeded`, "Request timeout"},
		{"dns", "dial tcp: lookup nope.example: no such host", "DNS resolution failed"},
		{"refused", "dial tcp 127.0.0.1:9999: connect: connection refused", "Connection refused"},
		{"proxy before refused", "proxyconnect tcp: dial tcp: connection refused", "Proxy connection failed"},
		{"reset", "read: connection reset by peer", "Connection reset"},
		{"unknown authority", "x509: certificate signed by unknown authority", "TLS certificate is not trusted"},
		{"expired", "x509: certificate has expired or is not yet valid", "TLS certificate has expired"},
		{"scheme", `Get "{{base}}/users": unsupported protocol scheme ""`, "Invalid URL"},
		{"extraction passthrough", "Extraction issues: e1: no match for 'id'", "Extraction issues"},
		{"unknown", "something odd", "Request failed: something odd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := categorizeRequestError(tt.errStr)
			if tt.wantPrefix == "" {
				if got != "" {
					t.Errorf("Expected empty message, got %q", got)
				}
				return
			}
			if !strings.HasPrefix(got, tt.wantPrefix) {
				t.Errorf("categorizeRequestError(%q) = %q, want prefix %q", tt.errStr, got, tt.wantPrefix)
			}
		})
	}
}
