package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm/logger"

	"github.com/elskow/portfolio/internal/config"
)

func TestNewManager_SQLite(t *testing.T) {
	cfg := &config.DatabaseConfig{
		Driver:   "sqlite",
		Path:     filepath.Join(t.TempDir(), "portfolio.db"),
		LogLevel: "silent",
	}

	manager, err := NewManager(cfg, zap.NewNop())
	require.NoError(t, err)

	sqlDB, err := manager.DB().DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Ping())

	var fk int
	require.NoError(t, manager.DB().Raw("PRAGMA foreign_keys").Scan(&fk).Error)
	assert.Equal(t, 1, fk)

	require.NoError(t, manager.Close())
	assert.Error(t, sqlDB.Ping())
}

func TestNewManager_UnknownDriver(t *testing.T) {
	_, err := NewManager(&config.DatabaseConfig{Driver: "mysql"}, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}

func TestDSN(t *testing.T) {
	cfg := &config.DatabaseConfig{
		Host:     "db.internal",
		Port:     5433,
		User:     "blog",
		Password: "s3cret",
		Name:     "portfolio",
		SSLMode:  "require",
	}

	assert.Equal(t, "host=db.internal user=blog password=s3cret dbname=portfolio port=5433 sslmode=require", DSN(cfg))
}

func TestLogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  logger.LogLevel
	}{
		{level: "silent", want: logger.Silent},
		{level: "error", want: logger.Error},
		{level: "info", want: logger.Info},
		{level: "warn", want: logger.Warn},
		{level: "", want: logger.Warn},
		{level: "verbose", want: logger.Warn},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.want, logLevel(tt.level))
		})
	}
}
