package storage

import (
	"fmt"

	goerrors "github.com/goliatone/go-errors"
)

// Text codes attached to storage errors. They show up in logs; clients
// only ever see the generic message chosen by the handler.
const (
	TextCodeNotFound   = "STUDENT_NOT_FOUND"
	TextCodeDuplicate  = "STUDENT_DUPLICATE"
	TextCodeValidation = "STUDENT_INVALID"
	TextCodeInternal   = "STORAGE_FAILURE"
)

// NotFound reports that no student has the given id.
func NotFound(id int64) error {
	return goerrors.New(fmt.Sprintf("no student found with id: %d", id), goerrors.CategoryNotFound).
		WithTextCode(TextCodeNotFound)
}

// Duplicate reports a uniqueness violation on field.
func Duplicate(field string, source error) error {
	message := fmt.Sprintf("a student with this %s already exists", field)
	if source == nil {
		return goerrors.New(message, goerrors.CategoryConflict).WithTextCode(TextCodeDuplicate)
	}
	return goerrors.Wrap(source, goerrors.CategoryConflict, message).WithTextCode(TextCodeDuplicate)
}

// Invalid reports a constraint the database rejected that validation did
// not catch first (NOT NULL, length).
func Invalid(message string, source error) error {
	return goerrors.Wrap(source, goerrors.CategoryValidation, message).WithTextCode(TextCodeValidation)
}

// Internal wraps an infrastructure failure: connection loss, a failed
// commit, a driver error.
func Internal(op string, source error) error {
	return goerrors.Wrap(source, goerrors.CategoryInternal, op).WithTextCode(TextCodeInternal)
}

// CategoryOf returns the category of err. Errors that were never
// categorised count as internal.
func CategoryOf(err error) goerrors.Category {
	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		return rich.Category
	}
	return goerrors.CategoryInternal
}

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool {
	return err != nil && CategoryOf(err) == goerrors.CategoryNotFound
}

// IsDuplicate reports whether err is a uniqueness violation.
func IsDuplicate(err error) bool {
	return err != nil && CategoryOf(err) == goerrors.CategoryConflict
}

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool {
	return err != nil && CategoryOf(err) == goerrors.CategoryValidation
}
