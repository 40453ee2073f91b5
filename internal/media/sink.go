package media

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/elskow/portfolio/internal/config"
)

var (
	ErrPathEscapesRoot = errors.New("path escapes storage root")
	ErrObjectNotFound  = errors.New("stored image not found")
)

// Sink persists rewritten images. Write returns the stored location relative
// to the sink root, using forward slashes.
type Sink interface {
	Write(ctx context.Context, subpath string, data []byte, mime string) (string, error)
	Delete(ctx context.Context, subpath string) error
}

func NewSink(ctx context.Context, config *config.MediaConfig, logger *zap.Logger) (Sink, error) {
	switch config.Platform {
	case "s3":
		return NewS3Sink(ctx, &config.S3, logger)
	case "static":
		return NewStaticSink(config.StaticPath, logger), nil
	default:
		return nil, fmt.Errorf("unsupported media platform: %s", config.Platform)
	}
}
