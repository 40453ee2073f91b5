package migration

import (
	"context"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/elskow/portfolio/internal/auth"
	"github.com/elskow/portfolio/internal/config"
)

// Module brings the schema up to date on start. Postgres is migrated with goose;
// the sqlite development database is auto-migrated from the gorm models.
func Module() fx.Option {
	return fx.Options(
		fx.Invoke(registerHooks),
	)
}

func registerHooks(
	lifecycle fx.Lifecycle,
	cfg *config.AppConfig,
	db *gorm.DB,
	logger *zap.Logger,
) {
	if cfg.Database.Driver == "sqlite" {
		lifecycle.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				logger.Info("auto-migrating sqlite schema", zap.String("path", cfg.Database.Path))
				return db.WithContext(ctx).AutoMigrate(&auth.Account{})
			},
		})
		return
	}

	var migrator *Migrator
	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			var err error
			migrator, err = NewMigrator(&cfg.Database)
			if err != nil {
				return err
			}

			currentVersion, err := migrator.GetCurrentVersion()
			if err != nil {
				return fmt.Errorf("failed to get current migration version: %w", err)
			}

			latestVersion, err := migrator.GetLatestVersion()
			if err != nil {
				return fmt.Errorf("failed to get latest migration version: %w", err)
			}

			logger.Info("Database migration status",
				zap.Int64("current_version", currentVersion),
				zap.Int64("latest_version", latestVersion))

			if currentVersion == latestVersion {
				return nil
			}

			if currentVersion > latestVersion {
				logger.Info("Downgrading database schema",
					zap.Int64("from_version", currentVersion),
					zap.Int64("to_version", latestVersion))

				if err := migrator.DownTo(latestVersion); err != nil {
					return fmt.Errorf("failed to downgrade database: %w", err)
				}
				return nil
			}

			logger.Info("Upgrading database schema",
				zap.Int64("from_version", currentVersion),
				zap.Int64("to_version", latestVersion))

			if err := migrator.Up(); err != nil {
				return fmt.Errorf("failed to upgrade database: %w", err)
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if migrator == nil {
				return nil
			}
			return migrator.Close()
		},
	})
}
