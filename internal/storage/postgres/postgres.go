// Package postgres implements storage.Storage on PostgreSQL through a
// pgx connection pool.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"

	"github.com/aanand-mishra/student-records/internal/storage"
	"github.com/aanand-mishra/student-records/internal/storage/migrations"
	"github.com/aanand-mishra/student-records/internal/types"
)

// SQLSTATE codes the store reacts to.
const (
	codeUniqueViolation  = "23505"
	codeNotNullViolation = "23502"
	codeCheckViolation   = "23514"
	codeStringTooLong    = "22001"
)

const (
	selectStudent       = "SELECT id, name, age, grade, email FROM students WHERE id = $1"
	selectStudentLocked = "SELECT id, name, age, grade, email FROM students WHERE id = $1 FOR UPDATE"
	selectStudents      = "SELECT id, name, age, grade, email FROM students ORDER BY id"
	insertStudent       = "INSERT INTO students (name, age, grade, email) VALUES ($1, $2, $3, $4) RETURNING id, name, age, grade, email"
	updateStudent       = "UPDATE students SET name = $1, age = $2, grade = $3, email = $4 WHERE id = $5 RETURNING id, name, age, grade, email"
	deleteStudent       = "DELETE FROM students WHERE id = $1"
)

// Postgres is a pgxpool-backed student store.
type Postgres struct {
	pool *pgxpool.Pool

	sqlOnce sync.Once
	sqlDB   *sql.DB
}

var _ storage.Storage = (*Postgres)(nil)

// New connects to databaseURL and verifies the connection.
func New(ctx context.Context, databaseURL string) (*Postgres, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to parse database URL: %w", err)
	}

	if poolConfig.MaxConns == 0 {
		poolConfig.MaxConns = 10
	}
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: failed to ping database: %w", err)
	}

	return &Postgres{pool: pool}, nil
}

// Pool returns the underlying connection pool.
func (p *Postgres) Pool() *pgxpool.Pool {
	return p.pool
}

// Migrate applies the embedded schema migrations.
func (p *Postgres) Migrate(ctx context.Context, logger zerolog.Logger) error {
	m, err := p.Migrator(logger)
	if err != nil {
		return err
	}
	return m.Up(ctx)
}

// Migrator returns a schema migrator. goose needs database/sql, so the
// pool is exposed through pgx's stdlib adapter; both share connections.
func (p *Postgres) Migrator(logger zerolog.Logger) (*migrations.Migrator, error) {
	p.sqlOnce.Do(func() {
		p.sqlDB = stdlib.OpenDBFromPool(p.pool)
	})
	return migrations.New(p.sqlDB, migrations.DialectPostgres, logger)
}

func (p *Postgres) CreateStudent(ctx context.Context, in types.StudentInput) (types.Student, error) {
	if err := storage.ValidateInput(in); err != nil {
		return types.Student{}, err
	}

	row := in.Student()
	var created types.Student

	err := p.withTx(ctx, func(tx pgx.Tx) error {
		var err error
		created, err = scanStudent(tx.QueryRow(ctx, insertStudent, row.Name, row.Age, row.Grade, row.Email))
		if err != nil {
			return classify("CreateStudent: insert", err)
		}
		return nil
	})
	if err != nil {
		return types.Student{}, err
	}
	return created, nil
}

func (p *Postgres) GetStudentByID(ctx context.Context, id int64) (types.Student, error) {
	student, err := scanStudent(p.pool.QueryRow(ctx, selectStudent, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.Student{}, storage.NotFound(id)
		}
		return types.Student{}, storage.Internal("GetStudentByID: scan", err)
	}
	return student, nil
}

func (p *Postgres) GetStudents(ctx context.Context) ([]types.Student, error) {
	rows, err := p.pool.Query(ctx, selectStudents)
	if err != nil {
		return nil, storage.Internal("GetStudents: query", err)
	}
	defer rows.Close()

	students := make([]types.Student, 0)
	for rows.Next() {
		student, err := scanStudent(rows)
		if err != nil {
			return nil, storage.Internal("GetStudents: scan row", err)
		}
		students = append(students, student)
	}
	if err := rows.Err(); err != nil {
		return nil, storage.Internal("GetStudents: rows iteration", err)
	}

	return students, nil
}

// UpdateStudentByID locks the row, merges the patch and writes it back in
// one transaction.
func (p *Postgres) UpdateStudentByID(ctx context.Context, id int64, patch types.StudentPatch) (types.Student, error) {
	var updated types.Student

	err := p.withTx(ctx, func(tx pgx.Tx) error {
		current, err := scanStudent(tx.QueryRow(ctx, selectStudentLocked, id))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return storage.NotFound(id)
			}
			return storage.Internal("UpdateStudentByID: load", err)
		}

		merged := patch.Apply(current)
		if err := storage.ValidateStudent(merged); err != nil {
			return err
		}

		updated, err = scanStudent(tx.QueryRow(ctx, updateStudent,
			merged.Name, merged.Age, merged.Grade, merged.Email, id))
		if err != nil {
			return classify("UpdateStudentByID: update", err)
		}
		return nil
	})
	if err != nil {
		return types.Student{}, err
	}
	return updated, nil
}

func (p *Postgres) DeleteStudentByID(ctx context.Context, id int64) error {
	return p.withTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, deleteStudent, id)
		if err != nil {
			return storage.Internal("DeleteStudentByID: exec", err)
		}
		if tag.RowsAffected() == 0 {
			return storage.NotFound(id)
		}
		return nil
	})
}

// Ping runs SELECT 1 through the pool.
func (p *Postgres) Ping(ctx context.Context) error {
	var one int
	if err := p.pool.QueryRow(ctx, "SELECT 1").Scan(&one); err != nil {
		return storage.Internal("Ping", err)
	}
	return nil
}

// Close closes the pool.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

// withTx executes fn within a transaction. The transaction is committed
// if fn returns nil, rolled back otherwise.
func (p *Postgres) withTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return storage.Internal("begin transaction", err)
	}

	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback(ctx)
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return classify("commit", err)
	}
	return nil
}

func scanStudent(row pgx.Row) (types.Student, error) {
	var s types.Student
	err := row.Scan(&s.ID, &s.Name, &s.Age, &s.Grade, &s.Email)
	return s, err
}

func classify(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return storage.Duplicate("email", fmt.Errorf("%s: %w", op, err))
		case codeNotNullViolation, codeCheckViolation, codeStringTooLong:
			return storage.Invalid(pgErr.Message, fmt.Errorf("%s: %w", op, err))
		}
	}
	return storage.Internal(op, err)
}
