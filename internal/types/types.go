// Package types holds all shared data structures (models) used across
// the application. Keeping them in one place prevents import cycles:
// handlers, storage, and the codec can all import types without depending
// on each other.
package types

// Student represents a student record as it is persisted.
//
// Struct tags:
//
//  1. db:"...": column names used by sqlx / pgx when scanning rows.
//  2. validate:"...": rules checked by go-playground/validator before any
//     write reaches the database. The limits mirror the column widths.
//
// Grade and Email are optional, so they are pointers: nil means NULL in the
// database and null on the wire.
type Student struct {
	ID    int64   `db:"id"`
	Name  string  `db:"name"  validate:"required,max=100"`
	Age   int     `db:"age"`
	Grade *string `db:"grade" validate:"omitempty,max=10"`
	Email *string `db:"email" validate:"omitempty,max=150"`
}

// StudentInput carries the fields accepted when creating a student.
// Age is a pointer so that a missing age can be told apart from age 0.
type StudentInput struct {
	Name  string  `db:"name"  validate:"required,max=100"`
	Age   *int    `db:"age"   validate:"required"`
	Grade *string `db:"grade" validate:"omitempty,max=10"`
	Email *string `db:"email" validate:"omitempty,max=150"`
}

// Student builds the record that will be inserted. The ID is left at zero;
// the store assigns it.
func (in StudentInput) Student() Student {
	s := Student{
		Name:  in.Name,
		Grade: cloneString(in.Grade),
		Email: cloneString(in.Email),
	}
	if in.Age != nil {
		s.Age = *in.Age
	}
	return s
}

// StudentPatch is a partial update. A nil field means "keep the stored
// value"; an explicit JSON null decodes to nil as well, so null never
// clears a column.
type StudentPatch struct {
	Name  *string
	Age   *int
	Grade *string
	Email *string
}

// Apply returns a copy of s with every non-nil patch field applied.
// The ID is never touched.
func (p StudentPatch) Apply(s Student) Student {
	out := s.Clone()
	if p.Name != nil {
		out.Name = *p.Name
	}
	if p.Age != nil {
		out.Age = *p.Age
	}
	if p.Grade != nil {
		out.Grade = cloneString(p.Grade)
	}
	if p.Email != nil {
		out.Email = cloneString(p.Email)
	}
	return out
}

// IsEmpty reports whether the patch changes nothing.
func (p StudentPatch) IsEmpty() bool {
	return p.Name == nil && p.Age == nil && p.Grade == nil && p.Email == nil
}

// Clone returns a deep copy so callers never share the optional fields.
func (s Student) Clone() Student {
	s.Grade = cloneString(s.Grade)
	s.Email = cloneString(s.Email)
	return s
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
