package config

import (
	"bytes"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFrom_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadFrom(viper.New())
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.App.Port)
	assert.Equal(t, SourceFile, cfg.Data.Source)
	assert.Equal(t, "data", cfg.Data.Dir)
	assert.Equal(t, 366, cfg.Data.MaxRangeDays)
	assert.True(t, cfg.GeoIP.Enabled)
	assert.Equal(t, 45, cfg.GeoIP.RatePerMinute)
	assert.Equal(t, 24*time.Hour, cfg.GeoIP.CacheTTL)
	assert.False(t, cfg.Auth.Enabled())
	assert.Equal(t, "http://localhost:5000", cfg.Dashboard.APIURL)
	assert.Equal(t, time.Duration(0), cfg.Dashboard.Timeout)
	assert.Equal(t, 5*time.Second, cfg.Dashboard.NoticeTTL)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadFrom_Environment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("APP_ENV", "production")
	t.Setenv("APP_PORT", "8088")
	t.Setenv("DATA_SOURCE", "SSH")
	t.Setenv("SSH_HOST", "honeypot.internal")
	t.Setenv("GEOIP_ENABLED", "false")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("DASHBOARD_TIMEOUT", "15s")

	cfg, err := LoadFrom(viper.New())
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 8088, cfg.App.Port)
	assert.Equal(t, SourceSSH, cfg.Data.Source)
	assert.Equal(t, "honeypot.internal", cfg.SSH.Host)
	assert.False(t, cfg.GeoIP.Enabled)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.HTTP.CORSAllowedOrigins)
	assert.Equal(t, 15*time.Second, cfg.Dashboard.Timeout)
}

func TestLoadFrom_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown source", map[string]string{"DATA_SOURCE": "s3"}},
		{"negative range", map[string]string{"DATA_MAX_RANGE_DAYS": "-1"}},
		{"hash without user", map[string]string{"AUTH_PASSWORD_HASH": "$2a$10$abc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadFrom(viper.New())
			assert.Error(t, err)
		})
	}
}

func TestSetupLoggerTo(t *testing.T) {
	var buf bytes.Buffer

	logger := SetupLoggerTo(&Config{App: AppConfig{Env: "production"}}, &buf)
	logger.Info("hello", "k", "v")

	assert.Contains(t, buf.String(), `"msg":"hello"`)
	assert.Contains(t, buf.String(), `"k":"v"`)
}
