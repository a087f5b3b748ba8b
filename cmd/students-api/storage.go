package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aanand-mishra/student-records/internal/config"
	"github.com/aanand-mishra/student-records/internal/storage"
	"github.com/aanand-mishra/student-records/internal/storage/memory"
	"github.com/aanand-mishra/student-records/internal/storage/migrations"
	"github.com/aanand-mishra/student-records/internal/storage/postgres"
	"github.com/aanand-mishra/student-records/internal/storage/sqlite"
)

// migratable is implemented by the SQL backends.
type migratable interface {
	Migrator(logger zerolog.Logger) (*migrations.Migrator, error)
}

// openStorage picks the backend named by the config. The rest of the
// program only sees storage.Storage.
func openStorage(ctx context.Context, cfg config.Database) (storage.Storage, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		return sqlite.New(cfg.URL)
	case config.DriverPostgres:
		return postgres.New(ctx, cfg.URL)
	case config.DriverMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func migratorFor(store storage.Storage, log zerolog.Logger) (*migrations.Migrator, error) {
	m, ok := store.(migratable)
	if !ok {
		return nil, nil
	}
	return m.Migrator(log)
}

func migrateUp(ctx context.Context, store storage.Storage, log zerolog.Logger) error {
	m, err := migratorFor(store, log)
	if err != nil || m == nil {
		return err
	}
	return m.Up(ctx)
}
