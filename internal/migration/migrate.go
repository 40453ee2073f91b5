package migration

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"

	"github.com/elskow/portfolio/internal/config"
	"github.com/elskow/portfolio/internal/database"
)

const dialect = "postgres"

type Migrator struct {
	db     *sql.DB
	config *config.DatabaseConfig
}

func NewMigrator(config *config.DatabaseConfig) (*Migrator, error) {
	if config.Driver != "" && config.Driver != dialect {
		return nil, fmt.Errorf("goose migrations require the postgres driver, got %q", config.Driver)
	}

	db, err := sql.Open("postgres", database.DSN(config))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &Migrator{
		db:     db,
		config: config,
	}, nil
}

func (m *Migrator) Up() error {
	migrationsDir, err := m.prepare()
	if err != nil {
		return err
	}

	if err := goose.Up(m.db, migrationsDir); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

func (m *Migrator) Down() error {
	migrationsDir, err := m.prepare()
	if err != nil {
		return err
	}

	if err := goose.Down(m.db, migrationsDir); err != nil {
		return fmt.Errorf("failed to rollback migrations: %w", err)
	}

	return nil
}

func (m *Migrator) Close() error {
	return m.db.Close()
}

// GetCurrentVersion returns the current migration version
func (m *Migrator) GetCurrentVersion() (int64, error) {
	if err := goose.SetDialect(dialect); err != nil {
		return 0, fmt.Errorf("failed to set dialect: %w", err)
	}
	return goose.GetDBVersion(m.db)
}

// GetLatestVersion returns the latest available migration version
func (m *Migrator) GetLatestVersion() (int64, error) {
	migrationsDir, err := getMigrationsDir()
	if err != nil {
		return 0, err
	}

	migrations, err := goose.CollectMigrations(migrationsDir, 0, goose.MaxVersion)
	if err != nil {
		return 0, err
	}

	if len(migrations) == 0 {
		return 0, nil
	}

	return migrations[len(migrations)-1].Version, nil
}

// DownTo migrates the database down to a specific version
func (m *Migrator) DownTo(version int64) error {
	migrationsDir, err := m.prepare()
	if err != nil {
		return err
	}

	if err := goose.DownTo(m.db, migrationsDir, version); err != nil {
		return fmt.Errorf("failed to migrate down to version %d: %w", version, err)
	}

	return nil
}

func (m *Migrator) Status() error {
	migrationsDir, err := m.prepare()
	if err != nil {
		return err
	}

	if err := goose.Status(m.db, migrationsDir); err != nil {
		return fmt.Errorf("failed to get migration status: %w", err)
	}
	return nil
}

func (m *Migrator) Version() (int64, error) {
	return m.GetCurrentVersion()
}

func (m *Migrator) Reset() error {
	migrationsDir, err := m.prepare()
	if err != nil {
		return err
	}

	if err := goose.Reset(m.db, migrationsDir); err != nil {
		return fmt.Errorf("failed to reset migrations: %w", err)
	}
	return goose.Up(m.db, migrationsDir)
}

func (m *Migrator) prepare() (string, error) {
	if err := goose.SetDialect(dialect); err != nil {
		return "", fmt.Errorf("failed to set dialect: %w", err)
	}

	migrationsDir, err := getMigrationsDir()
	if err != nil {
		return "", fmt.Errorf("failed to get migrations directory: %w", err)
	}

	return migrationsDir, nil
}
