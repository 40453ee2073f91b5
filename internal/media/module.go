package media

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/elskow/portfolio/internal/config"
)

func Module() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				func() *Processor {
					return NewProcessor(nil)
				},
			),
			fx.Annotate(
				func(config *config.AppConfig, logger *zap.Logger) (Sink, error) {
					return NewSink(context.Background(), &config.Media, logger)
				},
			),
			fx.Annotate(
				func(processor *Processor, sink Sink, config *config.AppConfig, logger *zap.Logger) *Uploader {
					return NewUploader(processor, sink, &config.Media, logger)
				},
			),
			fx.Annotate(
				func(uploader *Uploader, logger *zap.Logger) *Handler {
					return NewHandler(uploader, logger)
				},
			),
		),
	)
}
