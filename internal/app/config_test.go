package app

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("ADMIN_AUTH_BYPASS", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, ":8080", cfg.AppAddr)
	assert.False(t, bool(cfg.AdminAuthBypass))
	assert.Equal(t, 120, cfg.RateLimitPerMinute)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigAdminAuthBypass(t *testing.T) {
	tests := []struct {
		value   string
		want    bool
		wantErr bool
	}{
		{value: "", want: false},
		{value: "  ", want: false},
		{value: "true", want: true},
		{value: "1", want: true},
		{value: "false", want: false},
		{value: "sometimes", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("APP_ENV", "development")
			t.Setenv("ADMIN_AUTH_BYPASS", tt.value)

			cfg, err := LoadConfig()
			if tt.wantErr {
				assert.ErrorContains(t, err, "ADMIN_AUTH_BYPASS")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, bool(cfg.AdminAuthBypass))
		})
	}
}

func TestLoadConfigProductionRequiresSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := LoadConfig()
	assert.ErrorContains(t, err, "JWT_SECRET")

	t.Setenv("JWT_SECRET", "prod-secret")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, []byte("prod-secret"), cfg.SigningSecret(nil))
}

func TestSigningSecretFallback(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&Config{AppEnv: "development"}, &buf)

	cfg := &Config{AppEnv: "development"}
	assert.Equal(t, []byte(devJWTSecret), cfg.SigningSecret(logger))
	assert.Contains(t, buf.String(), "JWT_SECRET not set")

	prod := &Config{AppEnv: "production"}
	assert.Nil(t, prod.SigningSecret(logger))
}

func TestNewLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&Config{AppEnv: "production", LogFormat: "json"}, &buf).Info("hello")
	assert.Contains(t, buf.String(), `"msg":"hello"`)
	assert.Contains(t, buf.String(), `"env":"production"`)

	buf.Reset()
	newLogger(&Config{AppEnv: "production"}, &buf).Debug("hidden")
	assert.Empty(t, buf.String())
}
