package pexels

import (
	"strings"
	"testing"
)

func TestValidateBaseURL(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		allowed []string
		wantErr string
	}{
		{name: "default", baseURL: ""},
		{name: "trailing slash", baseURL: "https://api.pexels.com/"},
		{name: "http rejected", baseURL: "http://api.pexels.com", wantErr: "https is required"},
		{name: "unknown host", baseURL: "https://evil.example", wantErr: "not in PEXELS_ALLOWED_HOSTS"},
		{name: "custom allowed host", baseURL: "https://proxy.internal:8443", allowed: []string{"https://proxy.internal:8443/"}},
		{name: "userinfo", baseURL: "https://user:pw@api.pexels.com", wantErr: "userinfo"},
		{name: "query", baseURL: "https://api.pexels.com?x=1", wantErr: "query and fragment"},
		{name: "relative", baseURL: "api.pexels.com", wantErr: "absolute URL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBaseURL(tt.baseURL, tt.allowed)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestRedactSecrets(t *testing.T) {
	apiKey := "563492ad6f91700001000001abcdef"
	in := `status 401; Authorization: 563492ad6f91700001000001abcdef; api_key=563492ad6f91700001000001abcdef`
	got := redactSecrets(in, apiKey)

	if strings.Contains(got, apiKey) {
		t.Fatalf("expected API key to be redacted, got: %q", got)
	}
	if !strings.Contains(got, "Authorization: [REDACTED]") {
		t.Fatalf("expected authorization header to be redacted, got: %q", got)
	}
	if !strings.Contains(got, "api_key=[REDACTED]") {
		t.Fatalf("expected api_key field to be redacted, got: %q", got)
	}
}
