package instrumentation

import "strings"

// Cardinality management helpers for metrics.
// These functions reduce high-cardinality label values to prevent metrics explosion.
//
// Always use these helpers when recording metrics with user identifiers,
// raw request paths or upstream status codes.

// ExtractUserDomain extracts the domain part from an email address.
//
// Example:
//
//	ExtractUserDomain("jane@example.com")  // "example.com"
//	ExtractUserDomain("invalid")           // "unknown"
//	ExtractUserDomain("")                  // "unknown"
func ExtractUserDomain(email string) string {
	if email == "" {
		return StatusUnknown
	}

	parts := strings.Split(email, "@")
	if len(parts) == 2 && parts[1] != "" {
		return strings.ToLower(parts[1])
	}

	return StatusUnknown
}

// StatusClass buckets an HTTP status code into "2xx", "4xx", and so on.
// A zero code means no response was received and maps to "transport".
func StatusClass(code int) string {
	switch {
	case code == 0:
		return RelayStatusTransport
	case code >= 100 && code < 600:
		return string(rune('0'+code/100)) + "xx"
	default:
		return StatusUnknown
	}
}

// RoutePattern returns a bounded path label for HTTP metrics. The mux
// pattern ("GET /api/integrations/{id}/connect") is preferred; requests
// that matched no route share a single label.
func RoutePattern(pattern string) string {
	if pattern == "" {
		return "unmatched"
	}
	if _, path, ok := strings.Cut(pattern, " "); ok {
		return path
	}
	return pattern
}
