package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithHelpers(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, nil))

	WithOperation(base, "hub.callback").Info("a")
	WithIntegration(base, "github-1").Info("b")

	out := buf.String()
	assert.Contains(t, out, "operation=hub.callback")
	assert.Contains(t, out, "integration=github-1")
}

func TestAttrHelpers(t *testing.T) {
	tests := []struct {
		name    string
		attr    slog.Attr
		wantKey string
		wantVal string
	}{
		{"provider", Provider("github"), KeyProvider, "github"},
		{"phase", Phase("connecting"), KeyPhase, "connecting"},
		{"status", Status(StatusSuccess), KeyStatus, StatusSuccess},
		{"request id", RequestID("abc"), KeyRequestID, "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantKey, tt.attr.Key)
			assert.Equal(t, tt.wantVal, tt.attr.Value.String())
		})
	}
}

func TestErr(t *testing.T) {
	attr := Err(errors.New("test error"))
	assert.Equal(t, KeyError, attr.Key)
	assert.Equal(t, "test error", attr.Value.String())

	// Empty Group has empty key and is dropped by handlers
	attr = Err(nil)
	assert.Equal(t, "", attr.Key)
}

func TestAnonymizeEmail(t *testing.T) {
	tests := []struct {
		email    string
		wantLen  int
		hasValue bool
	}{
		{"jane@example.com", 21, true}, // "user:" + 16 hex chars
		{"a@x.com", 21, true},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			result := AnonymizeEmail(tt.email)
			if !tt.hasValue {
				assert.Empty(t, result)
				return
			}
			assert.Len(t, result, tt.wantLen)
			assert.True(t, strings.HasPrefix(result, "user:"))
		})
	}

	assert.Equal(t, AnonymizeEmail("test@example.com"), AnonymizeEmail("test@example.com"))
	assert.NotEqual(t, AnonymizeEmail("test@example.com"), AnonymizeEmail("other@example.com"))
}

func TestUserHash(t *testing.T) {
	attr := UserHash("jane@example.com")
	assert.Equal(t, KeyUserHash, attr.Key)
	assert.Len(t, attr.Value.String(), 21)
	assert.NotContains(t, attr.Value.String(), "jane")
}

func TestSanitizeCode(t *testing.T) {
	assert.Equal(t, "<empty>", SanitizeCode(""))
	assert.Equal(t, "[code:6 chars]", SanitizeCode("abc123"))
	assert.NotContains(t, SanitizeCode("abc123"), "abc")
}

func TestSanitizeSecret(t *testing.T) {
	assert.Equal(t, "<empty>", SanitizeSecret(""))
	assert.Equal(t, "[secret:10 chars]", SanitizeSecret("s3cr3t-val"))
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer

	logger, err := NewLogger(&buf, FormatJSON, true)
	require.NoError(t, err)
	logger.Debug("visible", "k", "v")
	assert.Contains(t, buf.String(), `"msg":"visible"`)

	buf.Reset()
	logger, err = NewLogger(&buf, "", false)
	require.NoError(t, err)
	logger.Debug("hidden")
	logger.Info("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown")

	_, err = NewLogger(&buf, "xml", false)
	assert.Error(t, err)
}
