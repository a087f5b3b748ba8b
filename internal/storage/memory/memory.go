// Package memory provides an in-process implementation of storage.Storage.
//
// It applies the same validation and email-uniqueness rules as the SQL
// backends, and every mutation happens under one lock so a failed call
// leaves the map exactly as it was. Handler tests run against it; it can
// also back the server for local experiments (driver "memory").
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/aanand-mishra/student-records/internal/storage"
	"github.com/aanand-mishra/student-records/internal/types"
)

// Memory is a map-backed student store. The zero value is not usable;
// call New.
type Memory struct {
	mu     sync.RWMutex
	lastID int64
	rows   map[int64]types.Student
}

var _ storage.Storage = (*Memory)(nil)

// New returns an empty store.
func New() *Memory {
	return &Memory{rows: make(map[int64]types.Student)}
}

func (m *Memory) CreateStudent(_ context.Context, in types.StudentInput) (types.Student, error) {
	if err := storage.ValidateInput(in); err != nil {
		return types.Student{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	student := in.Student()
	if m.emailTaken(student.Email, 0) {
		return types.Student{}, storage.Duplicate("email", nil)
	}

	m.lastID++
	student.ID = m.lastID
	m.rows[student.ID] = student

	return student.Clone(), nil
}

func (m *Memory) GetStudentByID(_ context.Context, id int64) (types.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	student, ok := m.rows[id]
	if !ok {
		return types.Student{}, storage.NotFound(id)
	}
	return student.Clone(), nil
}

func (m *Memory) GetStudents(_ context.Context) ([]types.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	students := make([]types.Student, 0, len(m.rows))
	for _, id := range slices.Sorted(maps.Keys(m.rows)) {
		students = append(students, m.rows[id].Clone())
	}
	return students, nil
}

func (m *Memory) UpdateStudentByID(_ context.Context, id int64, patch types.StudentPatch) (types.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.rows[id]
	if !ok {
		return types.Student{}, storage.NotFound(id)
	}

	updated := patch.Apply(current)
	if err := storage.ValidateStudent(updated); err != nil {
		return types.Student{}, err
	}
	if m.emailTaken(updated.Email, id) {
		return types.Student{}, storage.Duplicate("email", nil)
	}

	m.rows[id] = updated
	return updated.Clone(), nil
}

func (m *Memory) DeleteStudentByID(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.rows[id]; !ok {
		return storage.NotFound(id)
	}
	delete(m.rows, id)
	return nil
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Close() error { return nil }

// emailTaken reports whether another row (not self) already uses email.
// NULL emails never collide. Callers hold the lock.
func (m *Memory) emailTaken(email *string, self int64) bool {
	if email == nil {
		return false
	}
	for id, row := range m.rows {
		if id != self && row.Email != nil && *row.Email == *email {
			return true
		}
	}
	return false
}
