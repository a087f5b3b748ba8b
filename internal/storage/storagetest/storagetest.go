// Package storagetest holds the behavioural contract every storage.Storage
// implementation must honour. Backend packages run it from their own tests.
package storagetest

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/student-records/internal/storage"
	"github.com/aanand-mishra/student-records/internal/types"
)

// Factory returns an empty store. The store is closed by the suite.
type Factory func(t *testing.T) storage.Storage

// Run executes the whole contract against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	tests := []struct {
		name string
		fn   func(t *testing.T, s storage.Storage)
	}{
		{"CreateAssignsPositiveUniqueIDs", testCreateAssignsIDs},
		{"CreateRequiresNameAndAge", testCreateRequiresFields},
		{"DuplicateEmailRejected", testDuplicateEmail},
		{"NullEmailsMayRepeat", testNullEmailsMayRepeat},
		{"GetAfterCreate", testGetAfterCreate},
		{"GetMissing", testGetMissing},
		{"ListEmpty", testListEmpty},
		{"ListAfterCreateAndDelete", testListAfterCreateAndDelete},
		{"PartialUpdate", testPartialUpdate},
		{"UpdateMissing", testUpdateMissing},
		{"UpdateDuplicateEmailIsAtomic", testUpdateDuplicateIsAtomic},
		{"UpdateInvalidIsAtomic", testUpdateInvalidIsAtomic},
		{"DeleteThenGet", testDeleteThenGet},
		{"DeleteMissing", testDeleteMissing},
		{"ConcurrentDuplicateCreates", testConcurrentDuplicateCreates},
		{"Ping", testPing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(t)
			t.Cleanup(func() { _ = s.Close() })
			tt.fn(t, s)
		})
	}
}

func str(s string) *string { return &s }
func num(i int) *int       { return &i }

func input(name string, age int, email string) types.StudentInput {
	in := types.StudentInput{Name: name, Age: num(age)}
	if email != "" {
		in.Email = str(email)
	}
	return in
}

func mustCreate(t *testing.T, s storage.Storage, in types.StudentInput) types.Student {
	t.Helper()
	created, err := s.CreateStudent(context.Background(), in)
	require.NoError(t, err)
	return created
}

func testCreateAssignsIDs(t *testing.T, s storage.Storage) {
	seen := make(map[int64]bool)
	for i := 0; i < 5; i++ {
		created := mustCreate(t, s, input(fmt.Sprintf("student-%d", i), 20+i, ""))
		assert.Positive(t, created.ID)
		assert.False(t, seen[created.ID], "id %d reused", created.ID)
		seen[created.ID] = true
	}
}

func testCreateRequiresFields(t *testing.T, s storage.Storage) {
	ctx := context.Background()

	_, err := s.CreateStudent(ctx, types.StudentInput{Age: num(20)})
	assert.True(t, storage.IsValidation(err), "missing name: %v", err)

	_, err = s.CreateStudent(ctx, types.StudentInput{Name: "NoAge"})
	assert.True(t, storage.IsValidation(err), "missing age: %v", err)

	list, err := s.GetStudents(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func testDuplicateEmail(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	mustCreate(t, s, input("Ada", 30, "ada@x.com"))

	_, err := s.CreateStudent(ctx, input("Other Ada", 31, "ada@x.com"))
	require.Error(t, err)
	assert.True(t, storage.IsDuplicate(err), "got %v", err)

	list, err := s.GetStudents(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func testNullEmailsMayRepeat(t *testing.T, s storage.Storage) {
	mustCreate(t, s, input("A", 1, ""))
	mustCreate(t, s, input("B", 2, ""))
}

func testGetAfterCreate(t *testing.T, s storage.Storage) {
	in := input("Ada", 30, "ada@x.com")
	in.Grade = str("A")
	created := mustCreate(t, s, in)

	got, err := s.GetStudentByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)
	assert.Equal(t, "Ada", got.Name)
	assert.Equal(t, 30, got.Age)
	assert.Equal(t, "A", *got.Grade)
	assert.Equal(t, "ada@x.com", *got.Email)
}

func testGetMissing(t *testing.T, s storage.Storage) {
	_, err := s.GetStudentByID(context.Background(), 999)
	assert.True(t, storage.IsNotFound(err), "got %v", err)
}

func testListEmpty(t *testing.T, s storage.Storage) {
	list, err := s.GetStudents(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func testListAfterCreateAndDelete(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	var ids []int64
	for i := 0; i < 5; i++ {
		ids = append(ids, mustCreate(t, s, input(fmt.Sprintf("s%d", i), 18, "")).ID)
	}
	require.NoError(t, s.DeleteStudentByID(ctx, ids[1]))
	require.NoError(t, s.DeleteStudentByID(ctx, ids[3]))

	list, err := s.GetStudents(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []int64{ids[0], ids[2], ids[4]}, []int64{list[0].ID, list[1].ID, list[2].ID})
}

func testPartialUpdate(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	in := input("Ada", 30, "ada@x.com")
	in.Grade = str("B")
	created := mustCreate(t, s, in)

	updated, err := s.UpdateStudentByID(ctx, created.ID, types.StudentPatch{Age: num(21)})
	require.NoError(t, err)

	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, 21, updated.Age)
	assert.Equal(t, "Ada", updated.Name)
	assert.Equal(t, "B", *updated.Grade)
	assert.Equal(t, "ada@x.com", *updated.Email)

	got, err := s.GetStudentByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, updated, got)

	// An empty patch is a no-op that still succeeds.
	same, err := s.UpdateStudentByID(ctx, created.ID, types.StudentPatch{})
	require.NoError(t, err)
	assert.Equal(t, updated, same)
}

func testUpdateMissing(t *testing.T, s storage.Storage) {
	_, err := s.UpdateStudentByID(context.Background(), 404, types.StudentPatch{Age: num(1)})
	assert.True(t, storage.IsNotFound(err), "got %v", err)
}

func testUpdateDuplicateIsAtomic(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	mustCreate(t, s, input("Ada", 30, "ada@x.com"))
	lin := mustCreate(t, s, input("Lin", 19, "lin@x.com"))

	_, err := s.UpdateStudentByID(ctx, lin.ID, types.StudentPatch{Name: str("Renamed"), Email: str("ada@x.com")})
	require.Error(t, err)
	assert.True(t, storage.IsDuplicate(err), "got %v", err)

	got, err := s.GetStudentByID(ctx, lin.ID)
	require.NoError(t, err)
	assert.Equal(t, lin, got, "failed update must leave the row untouched")
}

func testUpdateInvalidIsAtomic(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	ada := mustCreate(t, s, input("Ada", 30, ""))

	_, err := s.UpdateStudentByID(ctx, ada.ID, types.StudentPatch{Age: num(31), Name: str("")})
	require.Error(t, err)
	assert.True(t, storage.IsValidation(err), "got %v", err)

	got, err := s.GetStudentByID(ctx, ada.ID)
	require.NoError(t, err)
	assert.Equal(t, ada, got)
}

func testDeleteThenGet(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	created := mustCreate(t, s, input("Ada", 30, "ada@x.com"))

	require.NoError(t, s.DeleteStudentByID(ctx, created.ID))

	_, err := s.GetStudentByID(ctx, created.ID)
	assert.True(t, storage.IsNotFound(err))

	// The email is free again after a hard delete.
	mustCreate(t, s, input("Ada again", 30, "ada@x.com"))
}

func testDeleteMissing(t *testing.T, s storage.Storage) {
	err := s.DeleteStudentByID(context.Background(), 12345)
	assert.True(t, storage.IsNotFound(err), "got %v", err)
}

func testConcurrentDuplicateCreates(t *testing.T, s storage.Storage) {
	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.CreateStudent(context.Background(), input(fmt.Sprintf("racer-%d", i), 20, "same@x.com"))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case storage.IsDuplicate(err):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, workers-1, conflicts)
}

func testPing(t *testing.T, s storage.Storage) {
	assert.NoError(t, s.Ping(context.Background()))
}
