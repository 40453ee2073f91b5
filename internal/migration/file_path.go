package migration

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/mod/modfile"
)

const (
	modulePath       = "github.com/elskow/portfolio"
	migrationsSubdir = "migrations"
)

var errModuleRootNotFound = errors.New("module root not found")

// getMigrationsDir prefers MIGRATIONS_DIR so a deployed binary can run without
// a source checkout, and otherwise locates the migrations next to go.mod.
func getMigrationsDir() (string, error) {
	if dir := os.Getenv("MIGRATIONS_DIR"); dir != "" {
		info, err := os.Stat(dir)
		if err != nil {
			return "", fmt.Errorf("MIGRATIONS_DIR: %w", err)
		}
		if !info.IsDir() {
			return "", fmt.Errorf("MIGRATIONS_DIR %q is not a directory", dir)
		}
		return filepath.Abs(dir)
	}

	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	root, err := findModuleRoot(wd, modulePath)
	if err != nil {
		return "", fmt.Errorf("failed to find project root: %w", err)
	}
	return filepath.Join(root, migrationsSubdir), nil
}

// findModuleRoot walks up from start to the directory whose go.mod declares module.
func findModuleRoot(start, module string) (string, error) {
	dir := start
	for {
		content, err := os.ReadFile(filepath.Join(dir, "go.mod"))
		switch {
		case err == nil:
			if modfile.ModulePath(content) == module {
				return dir, nil
			}
		case !errors.Is(err, os.ErrNotExist):
			return "", err
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%w: %s", errModuleRootNotFound, module)
		}
		dir = parent
	}
}
