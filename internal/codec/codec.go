// Package codec converts between the stored Student representation and
// the JSON wire format used by the HTTP API.
//
// Decoding is lenient about shape: unknown keys are ignored, "id" is
// read-only and dropped, and missing required fields are NOT reported
// here. The storage layer validates the decoded fields, so the same rules
// apply no matter which caller hands data to the store.
//
// Decoding is strict about types: a string where a number is expected, an
// empty body or a body that is not a JSON object is a decode error.
package codec

import (
	"encoding/json"
	"errors"
	"io"

	goerrors "github.com/goliatone/go-errors"

	"github.com/aanand-mishra/student-records/internal/types"
)

// MaxBodyBytes caps how much of a request body the decoder will read.
const MaxBodyBytes = 1 << 20

// TextCodeInvalidBody tags decode failures.
const TextCodeInvalidBody = "INVALID_BODY"

// Wire is the JSON shape of a student. Field order here is the key order
// on the wire: id, name, age, grade, email. Optional fields encode as null.
type Wire struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Age   int     `json:"age"`
	Grade *string `json:"grade"`
	Email *string `json:"email"`
}

// fields is what a client may send. Every key is optional at this stage.
type fields struct {
	Name  *string `json:"name"`
	Age   *int    `json:"age"`
	Grade *string `json:"grade"`
	Email *string `json:"email"`
}

// Encode maps a stored student to its wire form. Values pass through as-is.
func Encode(s types.Student) Wire {
	s = s.Clone()
	return Wire{
		ID:    s.ID,
		Name:  s.Name,
		Age:   s.Age,
		Grade: s.Grade,
		Email: s.Email,
	}
}

// EncodeList encodes every student, returning an empty (non-nil) slice
// for no students so the response body is [] rather than null.
func EncodeList(students []types.Student) []Wire {
	out := make([]Wire, 0, len(students))
	for _, s := range students {
		out = append(out, Encode(s))
	}
	return out
}

// DecodeStudent reads a creation payload.
func DecodeStudent(r io.Reader) (types.StudentInput, error) {
	f, err := decode(r)
	if err != nil {
		return types.StudentInput{}, err
	}

	in := types.StudentInput{
		Age:   f.Age,
		Grade: f.Grade,
		Email: f.Email,
	}
	if f.Name != nil {
		in.Name = *f.Name
	}
	return in, nil
}

// DecodePatch reads a partial update payload. Keys that are absent or null
// stay nil in the patch.
func DecodePatch(r io.Reader) (types.StudentPatch, error) {
	f, err := decode(r)
	if err != nil {
		return types.StudentPatch{}, err
	}

	return types.StudentPatch{
		Name:  f.Name,
		Age:   f.Age,
		Grade: f.Grade,
		Email: f.Email,
	}, nil
}

func decode(r io.Reader) (fields, error) {
	var f fields
	if r == nil {
		return f, emptyBody()
	}

	dec := json.NewDecoder(io.LimitReader(r, MaxBodyBytes))
	err := dec.Decode(&f)
	if errors.Is(err, io.EOF) {
		return f, emptyBody()
	}
	if err != nil {
		return f, invalidBody(err)
	}

	// The body must hold exactly one JSON value.
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			err = errors.New("unexpected data after JSON value")
		}
		return fields{}, invalidBody(err)
	}
	return f, nil
}

func invalidBody(err error) error {
	return goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid request body").
		WithTextCode(TextCodeInvalidBody)
}

func emptyBody() error {
	return goerrors.New("request body is empty", goerrors.CategoryBadInput).
		WithTextCode(TextCodeInvalidBody)
}
