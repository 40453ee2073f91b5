package auth

import (
	"github.com/jonboulle/clockwork"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/elskow/portfolio/internal/config"
	"github.com/elskow/portfolio/internal/cryptox"
)

// NewModule returns the auth module options
func NewModule() fx.Option {
	return fx.Options(
		fx.Provide(
			// Provide repository
			fx.Annotate(
				func(db *gorm.DB) Repository {
					return NewRepository(db)
				},
			),
			// Provide the TOTP secret codec; a missing master secret aborts start-up
			fx.Annotate(
				func(config *config.AppConfig) (*cryptox.Codec, error) {
					return cryptox.NewCodec(config.Auth.SecretKey)
				},
			),
			// Provide service
			fx.Annotate(
				func(config *config.AppConfig, log *zap.Logger, repo Repository, codec *cryptox.Codec, clock clockwork.Clock) *Service {
					return NewService(&config.Auth, log, repo, codec, clock)
				},
			),
			// Provide handler
			fx.Annotate(
				func(svc *Service, log *zap.Logger) *Handler {
					return NewHandler(svc, log)
				},
			),
			// Provide middleware
			fx.Annotate(
				func(svc *Service, log *zap.Logger) *AuthMiddleware {
					return NewAuthMiddleware(svc, log)
				},
			),
		),
	)
}
