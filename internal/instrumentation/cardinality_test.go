package instrumentation

import "testing"

func TestExtractUserDomain(t *testing.T) {
	tests := []struct {
		email string
		want  string
	}{
		{"jane@example.com", "example.com"},
		{"Jane@Example.COM", "example.com"},
		{"invalid", "unknown"},
		{"a@b@c", "unknown"},
		{"user@", "unknown"},
		{"", "unknown"},
	}

	for _, tt := range tests {
		if got := ExtractUserDomain(tt.email); got != tt.want {
			t.Errorf("ExtractUserDomain(%q) = %q, want %q", tt.email, got, tt.want)
		}
	}
}

func TestStatusClass(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{0, "transport"},
		{200, "2xx"},
		{204, "2xx"},
		{302, "3xx"},
		{404, "4xx"},
		{503, "5xx"},
		{99, "unknown"},
		{700, "unknown"},
	}

	for _, tt := range tests {
		if got := StatusClass(tt.code); got != tt.want {
			t.Errorf("StatusClass(%d) = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestRoutePattern(t *testing.T) {
	tests := []struct {
		pattern string
		want    string
	}{
		{"GET /api/state", "/api/state"},
		{"POST /api/integrations/{id}/connect", "/api/integrations/{id}/connect"},
		{"/mcp", "/mcp"},
		{"", "unmatched"},
	}

	for _, tt := range tests {
		if got := RoutePattern(tt.pattern); got != tt.want {
			t.Errorf("RoutePattern(%q) = %q, want %q", tt.pattern, got, tt.want)
		}
	}
}
