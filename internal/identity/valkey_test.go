package identity

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValkeyConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ValkeyConfig
		wantErr string
	}{
		{name: "valid", cfg: ValkeyConfig{URL: "localhost:6379"}},
		{name: "missing url", cfg: ValkeyConfig{}, wantErr: "valkey URL is required"},
		{name: "negative db", cfg: ValkeyConfig{URL: "localhost:6379", DB: -1}, wantErr: "non-negative"},
		{name: "ca without tls", cfg: ValkeyConfig{URL: "localhost:6379", TLSCAFile: "/ca.pem"}, wantErr: "TLS is not enabled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValkeyConfig_Key(t *testing.T) {
	assert.Equal(t, "integrationhub:user_email", ValkeyConfig{}.key())
	assert.Equal(t, "test:user_email", ValkeyConfig{KeyPrefix: "test:"}.key())
}

func TestValkeyConfig_TLS(t *testing.T) {
	cfg, err := ValkeyConfig{URL: "x:6379"}.tlsConfig()
	require.NoError(t, err)
	assert.Nil(t, cfg)

	cfg, err = ValkeyConfig{URL: "x:6379", TLSEnabled: true}.tlsConfig()
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Nil(t, cfg.RootCAs)

	badCA := filepath.Join(t.TempDir(), "ca.pem")
	require.NoError(t, os.WriteFile(badCA, []byte("not a certificate"), 0600))
	_, err = ValkeyConfig{URL: "x:6379", TLSEnabled: true, TLSCAFile: badCA}.tlsConfig()
	assert.Error(t, err)
}
