package media

import (
	"context"
	"errors"
	"io/fs"
	"strings"

	"go.uber.org/zap"

	"github.com/elskow/portfolio/internal/config"
)

const (
	DefaultMaxUploadBytes = 5 * 1024 * 1024
	DefaultMaxWidth       = 720
	DefaultMaxHeight      = 480
	DefaultSubdir         = "uploads"
)

// Uploader validates, rewrites and stores uploaded images.
type Uploader struct {
	processor *Processor
	sink      Sink
	maxBytes  int64
	maxSize   Dimensions
	logger    *zap.Logger
}

func NewUploader(processor *Processor, sink Sink, config *config.MediaConfig, logger *zap.Logger) *Uploader {
	u := &Uploader{
		processor: processor,
		sink:      sink,
		maxBytes:  config.MaxUploadBytes,
		maxSize:   Dimensions{Width: config.MaxWidth, Height: config.MaxHeight},
		logger:    logger,
	}
	if u.maxBytes <= 0 {
		u.maxBytes = DefaultMaxUploadBytes
	}
	if u.maxSize.Width <= 0 || u.maxSize.Height <= 0 {
		u.maxSize = Dimensions{Width: DefaultMaxWidth, Height: DefaultMaxHeight}
	}
	return u
}

func (u *Uploader) MaxBytes() int64 {
	return u.maxBytes
}

// Save stores the rewritten image under subdir with a random filename. Only
// the rewritten bytes are ever written.
func (u *Uploader) Save(ctx context.Context, data []byte, originalFilename, subdir string) Result {
	result := u.processor.ValidateAndRewrite(data, originalFilename, u.maxBytes, &u.maxSize)
	if !result.OK {
		u.logger.Warn("image rejected",
			zap.String("kind", string(result.Kind)),
			zap.Int("size", len(data)),
			zap.String("exception", result.Info.Exception))
		return result
	}

	dir := NormalizeSubdir(subdir)
	stored, err := u.sink.Write(ctx, dir+"/"+result.Filename, result.Data, result.Info.MIME)
	if err != nil {
		u.logger.Error("failed to store image",
			zap.String("subdir", dir),
			zap.Error(err))
		return failure(KindWriteFailed, Info{Exception: exceptionType(err)})
	}

	result.Path = stored
	u.logger.Info("image uploaded",
		zap.String("path", stored),
		zap.String("format", string(result.Format)),
		zap.Int("original_size", len(data)),
		zap.Int("stored_size", len(result.Data)))
	return result
}

// Remove deletes a previously stored image.
func (u *Uploader) Remove(ctx context.Context, storedPath string) error {
	if strings.Trim(storedPath, "/ ") == "" {
		return ErrObjectNotFound
	}
	return u.sink.Delete(ctx, cleanSubpath(storedPath))
}

// NormalizeSubdir strips surrounding slashes and dot segments, falling back to
// DefaultSubdir.
func NormalizeSubdir(subdir string) string {
	dir := cleanSubpath(strings.Trim(subdir, "/ "))
	if dir == "" {
		return DefaultSubdir
	}
	return dir
}

func exceptionType(err error) string {
	var pathErr *fs.PathError
	switch {
	case errors.Is(err, ErrPathEscapesRoot):
		return "PathEscapesRoot"
	case errors.As(err, &pathErr):
		return "PathError"
	default:
		return "StorageError"
	}
}
