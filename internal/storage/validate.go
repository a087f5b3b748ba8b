package storage

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	goerrors "github.com/goliatone/go-errors"

	"github.com/aanand-mishra/student-records/internal/types"
)

// validate is shared: validator caches struct metadata and is safe for
// concurrent use.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report columns ("name") rather than Go field names ("Name").
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("db"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// ValidateInput checks a creation payload.
func ValidateInput(in types.StudentInput) error {
	return check(in)
}

// ValidateStudent checks a full record, e.g. the result of applying a patch.
func ValidateStudent(s types.Student) error {
	return check(s)
}

func check(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	validateErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return Internal("validate", err)
	}

	fieldErrs := make([]goerrors.FieldError, 0, len(validateErrs))
	messages := make([]string, 0, len(validateErrs))
	for _, e := range validateErrs {
		msg := fieldMessage(e)
		messages = append(messages, msg)
		fieldErrs = append(fieldErrs, goerrors.FieldError{Field: e.Field(), Message: msg})
	}

	return goerrors.NewValidation(strings.Join(messages, ", "), fieldErrs...).
		WithTextCode(TextCodeValidation)
}

func fieldMessage(e validator.FieldError) string {
	switch e.ActualTag() {
	case "required":
		return fmt.Sprintf("field %s is required", e.Field())
	case "max":
		return fmt.Sprintf("field %s must be at most %s characters", e.Field(), e.Param())
	default:
		return fmt.Sprintf("field %s is invalid", e.Field())
	}
}
