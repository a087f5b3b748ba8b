// Package storage defines the Storage interface: the persistence gateway
// every database backend must satisfy to work with this application.
//
// WHY AN INTERFACE?
// ─────────────────
// Handlers (HTTP layer) should not know or care which database they are
// talking to. By depending only on this interface:
//
//   - Switching databases = implement the interface for the new DB and
//     pick it in main. Zero handler changes. SQLite and PostgreSQL both
//     live behind it today.
//
//   - Writing tests = pass the in-memory store (storage/memory). No real
//     database needed for handler tests.
//
// CONSISTENCY CONTRACT
// ────────────────────
// Every mutating method (create, update, delete) runs as one atomic unit:
// on any failure nothing is written. Failures are returned as categorised
// errors (see errors.go) so the HTTP boundary can map them with a single
// lookup.
package storage

import (
	"context"

	"github.com/aanand-mishra/student-records/internal/types"
)

// Storage is the database contract.
type Storage interface {
	// CreateStudent validates and inserts a new student and returns the
	// stored record, including the generated ID.
	// Fails with a validation error or a conflict on a duplicate email.
	CreateStudent(ctx context.Context, in types.StudentInput) (types.Student, error)

	// GetStudentByID fetches a single student by primary key.
	// Returns a not-found error if no row matches.
	GetStudentByID(ctx context.Context, id int64) (types.Student, error)

	// GetStudents returns every student ordered by ID.
	// Returns an empty slice (not nil) if there are no students.
	GetStudents(ctx context.Context) ([]types.Student, error)

	// UpdateStudentByID applies only the fields present in the patch and
	// returns the updated record.
	UpdateStudentByID(ctx context.Context, id int64, patch types.StudentPatch) (types.Student, error)

	// DeleteStudentByID removes a student permanently.
	DeleteStudentByID(ctx context.Context, id int64) error

	// Ping runs a trivial round trip against the backend.
	Ping(ctx context.Context) error

	// Close releases the underlying connections.
	Close() error
}
