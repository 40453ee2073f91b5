package app

import (
	"context"
	"os"

	"github.com/jonboulle/clockwork"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/elskow/portfolio/internal/auth"
	"github.com/elskow/portfolio/internal/database"
	"github.com/elskow/portfolio/internal/media"
	"github.com/elskow/portfolio/internal/migration"
	"github.com/elskow/portfolio/internal/server"
)

// Module combines all application modules
func Module() fx.Option {
	return fx.Options(
		// Logger
		fx.Provide(newLogger),

		// Configuration
		fx.Provide(server.LoadConfig),

		// Wall clock for lockouts, TOTP and tokens
		fx.Provide(clockwork.NewRealClock),

		// Storage
		database.Module(),
		migration.Module(),

		// Auth Module
		auth.NewModule(),

		// Image uploads
		media.Module(),

		// Server
		fx.Provide(server.NewServer),

		// Start the server
		fx.Invoke(registerHooks),
	)
}

func newLogger() (*zap.Logger, error) {
	env := os.Getenv("APP_ENV")
	return server.NewLogger(env)
}

func registerHooks(
	lifecycle fx.Lifecycle,
	srv *server.Server,
	log *zap.Logger,
) {
	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.Start(); err != nil {
					log.Error("failed to start server", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("shutting down server...")
			return srv.Stop(ctx)
		},
	})
}
