// Package sqlite provides a SQLite-backed implementation of the
// storage.Storage interface using sqlx on top of database/sql.
//
// WHY SQLite?
// ───────────
// SQLite stores everything in a single file on disk. There is no
// network, no separate server process, and no installation beyond the
// driver. It is the default backend; PostgreSQL is available for
// deployments that need a shared server.
//
// The blank import below registers the sqlite3 driver with database/sql.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/aanand-mishra/student-records/internal/storage"
	"github.com/aanand-mishra/student-records/internal/storage/migrations"
	"github.com/aanand-mishra/student-records/internal/types"
)

const (
	selectStudent  = "SELECT id, name, age, grade, email FROM students WHERE id = ? LIMIT 1"
	selectStudents = "SELECT id, name, age, grade, email FROM students ORDER BY id"
	insertStudent  = "INSERT INTO students (name, age, grade, email) VALUES (?, ?, ?, ?)"
	updateStudent  = "UPDATE students SET name = ?, age = ?, grade = ?, email = ? WHERE id = ?"
	deleteStudent  = "DELETE FROM students WHERE id = ?"
)

// SQLite is the concrete implementation of storage.Storage.
// It holds a *sqlx.DB, a connection pool that is safe for concurrent use.
type SQLite struct {
	Db *sqlx.DB
}

var _ storage.Storage = (*SQLite)(nil)

// New opens the SQLite database at path and returns a ready-to-use *SQLite.
// The schema is not touched; call Migrate for that.
//
// path may be a plain file path, ":memory:", a "file:" URI, or a
// SQLAlchemy-style "sqlite:///relative.db" / "sqlite:////absolute.db" URL.
func New(path string) (*SQLite, error) {
	if err := ensureDir(path); err != nil {
		return nil, fmt.Errorf("sqlite.New: create directory: %w", err)
	}

	db, err := sqlx.Open("sqlite3", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: open db: %w", err)
	}

	// One connection: writers never see "database is locked", and an
	// in-memory database is the same database for every query.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite.New: ping: %w", err)
	}

	return &SQLite{Db: db}, nil
}

// Migrate applies the embedded schema migrations.
func (s *SQLite) Migrate(ctx context.Context, logger zerolog.Logger) error {
	m, err := s.Migrator(logger)
	if err != nil {
		return err
	}
	return m.Up(ctx)
}

// Migrator returns a schema migrator bound to this database.
func (s *SQLite) Migrator(logger zerolog.Logger) (*migrations.Migrator, error) {
	return migrations.New(s.Db.DB, migrations.DialectSQLite, logger)
}

// ─────────────────────────────────────────────────────────────────────────────
// CreateStudent validates the payload and inserts a new row inside one
// transaction, then reads the row back so the caller gets exactly what
// was stored.
//
// The ? placeholders keep user input out of the SQL text: the driver sends
// the query and the values separately.
// ─────────────────────────────────────────────────────────────────────────────
func (s *SQLite) CreateStudent(ctx context.Context, in types.StudentInput) (types.Student, error) {
	if err := storage.ValidateInput(in); err != nil {
		return types.Student{}, err
	}

	row := in.Student()
	var created types.Student

	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, insertStudent, row.Name, row.Age, row.Grade, row.Email)
		if err != nil {
			return classify("CreateStudent: exec", err)
		}

		// LastInsertId returns the auto-generated primary key of the new row.
		lastID, err := result.LastInsertId()
		if err != nil {
			return storage.Internal("CreateStudent: last insert id", err)
		}

		if err := tx.GetContext(ctx, &created, selectStudent, lastID); err != nil {
			return storage.Internal("CreateStudent: reload", err)
		}
		return nil
	})
	if err != nil {
		return types.Student{}, err
	}

	return created, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// GetStudentByID fetches exactly one student row matched by primary key.
// sql.ErrNoRows becomes a not-found error so the handler can answer 404.
// ─────────────────────────────────────────────────────────────────────────────
func (s *SQLite) GetStudentByID(ctx context.Context, id int64) (types.Student, error) {
	var student types.Student

	err := s.Db.GetContext(ctx, &student, selectStudent, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Student{}, storage.NotFound(id)
		}
		return types.Student{}, storage.Internal("GetStudentByID: scan", err)
	}

	return student, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// GetStudents returns all student rows ordered by primary key, as one
// snapshot read.
// ─────────────────────────────────────────────────────────────────────────────
func (s *SQLite) GetStudents(ctx context.Context) ([]types.Student, error) {
	// Pre-allocate an empty (non-nil) slice.
	// Returning [] instead of null in JSON is better API behaviour.
	students := make([]types.Student, 0)

	if err := s.Db.SelectContext(ctx, &students, selectStudents); err != nil {
		return nil, storage.Internal("GetStudents: query", err)
	}

	return students, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// UpdateStudentByID reads the current row, applies only the supplied
// fields, validates the merged record and writes it back, all inside one
// transaction. Any failure rolls the whole thing back.
// ─────────────────────────────────────────────────────────────────────────────
func (s *SQLite) UpdateStudentByID(ctx context.Context, id int64, patch types.StudentPatch) (types.Student, error) {
	var updated types.Student

	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		var current types.Student
		if err := tx.GetContext(ctx, &current, selectStudent, id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return storage.NotFound(id)
			}
			return storage.Internal("UpdateStudentByID: load", err)
		}

		updated = patch.Apply(current)
		if err := storage.ValidateStudent(updated); err != nil {
			return err
		}

		// Argument order matches the ? order in the SQL:
		//   name, age, grade, email, id
		_, err := tx.ExecContext(ctx, updateStudent,
			updated.Name, updated.Age, updated.Grade, updated.Email, id)
		if err != nil {
			return classify("UpdateStudentByID: exec", err)
		}
		return nil
	})
	if err != nil {
		return types.Student{}, err
	}

	return updated, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// DeleteStudentByID removes a student row by primary key. Zero affected
// rows means the id did not exist.
// ─────────────────────────────────────────────────────────────────────────────
func (s *SQLite) DeleteStudentByID(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, deleteStudent, id)
		if err != nil {
			return storage.Internal("DeleteStudentByID: exec", err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return storage.Internal("DeleteStudentByID: rows affected", err)
		}
		if affected == 0 {
			return storage.NotFound(id)
		}
		return nil
	})
}

// Ping runs SELECT 1.
func (s *SQLite) Ping(ctx context.Context) error {
	var one int
	if err := s.Db.QueryRowxContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return storage.Internal("Ping", err)
	}
	return nil
}

// Close closes the connection pool.
func (s *SQLite) Close() error {
	if err := s.Db.Close(); err != nil {
		return fmt.Errorf("sqlite: close: %w", err)
	}
	return nil
}

// withTx runs fn in a transaction. The transaction is committed if fn
// returns nil and rolled back otherwise, including on panic.
func (s *SQLite) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.Db.BeginTxx(ctx, nil)
	if err != nil {
		return storage.Internal("begin transaction", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return classify("commit", err)
	}
	return nil
}

// classify turns driver errors into storage categories. The only UNIQUE
// column besides the primary key is email.
func classify(op string, err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique:
			return storage.Duplicate("email", fmt.Errorf("%s: %w", op, err))
		case sqlite3.ErrConstraintNotNull, sqlite3.ErrConstraintCheck:
			return storage.Invalid("constraint violated", fmt.Errorf("%s: %w", op, err))
		}
	}
	return storage.Internal(op, err)
}

// trimScheme strips a sqlite:// or sqlite:/// prefix.
func trimScheme(path string) string {
	switch {
	case strings.HasPrefix(path, "sqlite:///"):
		return strings.TrimPrefix(path, "sqlite:///")
	case strings.HasPrefix(path, "sqlite://"):
		return strings.TrimPrefix(path, "sqlite://")
	}
	return path
}

// ensureDir creates the parent directory of a plain database file.
// go-sqlite3 will create the file but not its directory. In-memory
// databases and file: URIs are left to the driver.
func ensureDir(path string) error {
	path = trimScheme(path)
	if path == "" || path == ":memory:" || strings.HasPrefix(path, "file:") {
		return nil
	}
	path, _, _ = strings.Cut(path, "?")

	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// dsn normalises the configured path and adds the driver options.
func dsn(path string) string {
	path = trimScheme(path)

	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_busy_timeout=5000&_foreign_keys=on"
}
