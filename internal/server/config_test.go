package server

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
[server]
port = "9090"

[database]
driver = "sqlite"
path = "portfolio.db"

[auth]
secret_key = "file-secret"
jwt_secret = "file-jwt"
token_expiration = "2h"

[testing.auth]
totp_issuer = "portfolio_staging"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0644))
	return dir
}

func TestLoadConfig_FileAndOverrides(t *testing.T) {
	t.Setenv("CONFIG_DIR", writeConfig(t, testConfig))
	t.Setenv("APP_ENV", EnvTesting)
	t.Setenv("PORTFOLIO_MEDIA_MAX_WIDTH", "1024")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "file-secret", cfg.Auth.SecretKey)
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenExpiration)

	// Environment table
	assert.Equal(t, "portfolio_staging", cfg.Auth.TOTPIssuer)

	// Environment variables
	assert.Equal(t, 1024, cfg.Media.MaxWidth)

	// Defaults
	assert.Equal(t, 480, cfg.Media.MaxHeight)
	assert.Equal(t, int64(5*1024*1024), cfg.Media.MaxUploadBytes)
	assert.Equal(t, "static", cfg.Media.Platform)
	assert.Equal(t, 10*time.Minute, cfg.Auth.MFATokenExpiration)
	assert.Equal(t, 8, cfg.Auth.BackupCodeCount)
}

func TestLoadConfig_EnvironmentOnly(t *testing.T) {
	t.Setenv("CONFIG_DIR", t.TempDir())
	t.Setenv("APP_ENV", EnvProduction)
	t.Setenv("PORTFOLIO_DATABASE_DRIVER", "sqlite")
	t.Setenv("PORTFOLIO_DATABASE_PATH", "/var/lib/portfolio.db")
	t.Setenv("PORTFOLIO_AUTH_SECRET_KEY", "env-secret")
	t.Setenv("PORTFOLIO_AUTH_JWT_SECRET", "env-jwt")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/portfolio.db", cfg.Database.Path)
	assert.Equal(t, "env-secret", cfg.Auth.SecretKey)
	assert.Equal(t, "8080", cfg.Server.Port)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "missing master secret",
			env:     map[string]string{"PORTFOLIO_AUTH_JWT_SECRET": "j"},
			wantErr: "auth.secret_key is required",
		},
		{
			name:    "missing jwt secret",
			env:     map[string]string{"PORTFOLIO_AUTH_SECRET_KEY": "s"},
			wantErr: "auth.jwt_secret is required",
		},
		{
			name: "unknown media platform",
			env: map[string]string{
				"PORTFOLIO_AUTH_SECRET_KEY": "s",
				"PORTFOLIO_AUTH_JWT_SECRET": "j",
				"PORTFOLIO_MEDIA_PLATFORM":  "ftp",
			},
			wantErr: "media.platform",
		},
		{
			name: "s3 without bucket",
			env: map[string]string{
				"PORTFOLIO_AUTH_SECRET_KEY": "s",
				"PORTFOLIO_AUTH_JWT_SECRET": "j",
				"PORTFOLIO_MEDIA_PLATFORM":  "s3",
			},
			wantErr: "media.s3.bucket",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("CONFIG_DIR", t.TempDir())
			t.Setenv("APP_ENV", EnvProduction)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := LoadConfig()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
