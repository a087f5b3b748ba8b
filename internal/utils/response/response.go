// Package response provides helpers for writing consistent JSON HTTP responses.
//
// Every handler in this application sends JSON back to the client.
// Rather than repeating the same three lines (set header, set status,
// encode JSON) in every handler, we centralise them here.
//
// Response shapes are always flat objects:
//
//	{ "error": "Student not found" }
//	{ "message": "Student 3 deleted" }
//
// or the encoded resource itself.
package response

import (
	"encoding/json"
	"net/http"

	goerrors "github.com/goliatone/go-errors"

	"github.com/aanand-mishra/student-records/internal/storage"
)

// Response is the envelope returned for error cases.
type Response struct {
	Error string `json:"error"`
}

// MessageResponse is the envelope for plain confirmations.
type MessageResponse struct {
	Message string `json:"message"`
}

// Client-facing messages.
const (
	MsgNotFound         = "Student not found"
	MsgCreateFailed     = "Student could not be created"
	MsgUpdateFailed     = "Update failed"
	MsgDeleteFailed     = "Deletion failed"
	MsgInvalidBody      = "Invalid request body"
	MsgInternal         = "Internal server error"
	MsgRouteNotFound    = "Not found"
	MsgMethodNotAllowed = "Method not allowed"
)

// ─────────────────────────────────────────────────────────────────────────────
// WriteJSON writes a JSON-encoded response with the given HTTP status code.
//
// IMPORTANT ORDER: Header() → WriteHeader() → body writes.
// Once WriteHeader is called (or the first Write), headers are locked.
// ─────────────────────────────────────────────────────────────────────────────
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// Error builds the standard error envelope.
func Error(message string) Response {
	return Response{Error: message}
}

// Message builds the confirmation envelope.
func Message(message string) MessageResponse {
	return MessageResponse{Message: message}
}

// ─────────────────────────────────────────────────────────────────────────────
// statusByCategory is the whole boundary policy in one table.
//
// Validation and conflict failures deliberately collapse into 500 together
// with infrastructure failures: clients cannot tell a duplicate email from
// a database outage. Changing that is a one-line edit here.
// ─────────────────────────────────────────────────────────────────────────────
var statusByCategory = map[goerrors.Category]int{
	goerrors.CategoryNotFound:   http.StatusNotFound,
	goerrors.CategoryBadInput:   http.StatusBadRequest,
	goerrors.CategoryValidation: http.StatusInternalServerError,
	goerrors.CategoryConflict:   http.StatusInternalServerError,
	goerrors.CategoryInternal:   http.StatusInternalServerError,
}

// StatusFor maps an error to the HTTP status the client receives.
func StatusFor(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if status, ok := statusByCategory[storage.CategoryOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}
