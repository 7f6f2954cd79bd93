// Package logging provides structured logging utilities for the integration hub.
//
// This package centralizes logging patterns to ensure consistent, structured logging
// throughout the codebase using the standard library's slog package.
//
// # Key Features
//
//   - Structured logging with slog
//   - PII sanitization (email anonymization)
//   - Authorization code and secret masking
//   - Consistent attribute naming across the codebase
//
// # Usage Patterns
//
// Create a logger with standard attributes:
//
//	logger := logging.WithOperation(slog.Default(), "hub.callback")
//	logger.Info("callback handled",
//	    logging.Status(logging.StatusSuccess))
//
// Sanitize sensitive data before logging:
//
//	logger.Info("relaying authorization code",
//	    logging.UserHash(email),
//	    slog.String("code", logging.SanitizeCode(code)))
//
// # Security Considerations
//
//   - User emails are hashed to prevent PII leakage while allowing correlation
//   - Authorization codes and client secrets are never logged directly
package logging
