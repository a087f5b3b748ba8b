// Package migrations owns the database schema. SQL files are embedded per
// dialect and applied with goose, so a fresh database is usable as soon as
// the binary starts (or after `students-api migrate up`).
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"
	"sync"

	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
)

//go:embed sqlite3/*.sql postgres/*.sql
var embedMigrations embed.FS

// Supported dialects. Each one is also the directory holding its files.
const (
	DialectSQLite   = "sqlite3"
	DialectPostgres = "postgres"
)

// goose keeps its base FS, dialect and logger in package globals.
var gooseMu sync.Mutex

// Migrator applies the embedded migrations to one database.
type Migrator struct {
	db      *sql.DB
	dialect string
	logger  zerolog.Logger
}

// New returns a Migrator for db. dialect must be DialectSQLite or
// DialectPostgres.
func New(db *sql.DB, dialect string, logger zerolog.Logger) (*Migrator, error) {
	switch dialect {
	case DialectSQLite, DialectPostgres:
	default:
		return nil, fmt.Errorf("migrations: unsupported dialect %q", dialect)
	}
	return &Migrator{db: db, dialect: dialect, logger: logger}, nil
}

// Up applies every pending migration.
func (m *Migrator) Up(ctx context.Context) error {
	return m.run(func() error {
		if err := goose.UpContext(ctx, m.db, m.dialect); err != nil {
			return fmt.Errorf("migrations: up: %w", err)
		}
		return nil
	})
}

// Down rolls back the most recent migration.
func (m *Migrator) Down(ctx context.Context) error {
	return m.run(func() error {
		if err := goose.DownContext(ctx, m.db, m.dialect); err != nil {
			return fmt.Errorf("migrations: down: %w", err)
		}
		return nil
	})
}

// Status logs the state of every migration.
func (m *Migrator) Status(ctx context.Context) error {
	return m.run(func() error {
		if err := goose.StatusContext(ctx, m.db, m.dialect); err != nil {
			return fmt.Errorf("migrations: status: %w", err)
		}
		return nil
	})
}

// Version returns the current schema version (0 for an empty database).
func (m *Migrator) Version(ctx context.Context) (int64, error) {
	var version int64
	err := m.run(func() error {
		v, err := goose.GetDBVersionContext(ctx, m.db)
		if err != nil {
			return fmt.Errorf("migrations: version: %w", err)
		}
		version = v
		return nil
	})
	return version, err
}

func (m *Migrator) run(fn func() error) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(gooseLogger{logger: m.logger.With().Str("component", "migrations").Logger()})
	if err := goose.SetDialect(m.dialect); err != nil {
		return fmt.Errorf("migrations: set dialect: %w", err)
	}
	return fn()
}

// gooseLogger routes goose output into zerolog.
type gooseLogger struct {
	logger zerolog.Logger
}

func (l gooseLogger) Fatalf(format string, v ...interface{}) {
	l.logger.Fatal().Msg(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l gooseLogger) Printf(format string, v ...interface{}) {
	l.logger.Info().Msg(strings.TrimSpace(fmt.Sprintf(format, v...)))
}
