package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

const defaultStaticPath = "./static"

// StaticSink writes images below a local directory served as static files.
type StaticSink struct {
	root   string
	logger *zap.Logger
}

func NewStaticSink(root string, logger *zap.Logger) *StaticSink {
	if root == "" {
		logger.Warn("static_path not configured, using default", zap.String("path", defaultStaticPath))
		root = defaultStaticPath
	}

	return &StaticSink{
		root:   root,
		logger: logger,
	}
}

func (s *StaticSink) Write(_ context.Context, subpath string, data []byte, _ string) (string, error) {
	target, err := s.resolve(subpath)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	// Write next to the target and rename so readers never see a partial file
	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to write image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to close image: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to set image permissions: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to move image into place: %w", err)
	}

	s.logger.Info("image stored",
		zap.String("target", target),
		zap.Int("size", len(data)))

	return filepath.ToSlash(subpath), nil
}

func (s *StaticSink) Delete(_ context.Context, subpath string) error {
	target, err := s.resolve(subpath)
	if err != nil {
		return err
	}

	if err := os.Remove(target); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrObjectNotFound
		}
		return fmt.Errorf("failed to delete image: %w", err)
	}

	s.logger.Info("image deleted", zap.String("target", target))
	return nil
}

// resolve maps subpath into the root, refusing anything that lands outside.
func (s *StaticSink) resolve(subpath string) (string, error) {
	if subpath == "" || filepath.IsAbs(subpath) {
		return "", ErrPathEscapesRoot
	}

	root, err := filepath.Abs(s.root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve static root: %w", err)
	}

	target := filepath.Join(root, filepath.FromSlash(subpath))
	rel, err := filepath.Rel(root, target)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ErrPathEscapesRoot
	}
	return target, nil
}
