// Package student contains all HTTP handlers related to the Student resource.
//
// HANDLER PATTERN USED HERE, THE CLOSURE / FACTORY PATTERN:
// ────────────────────────────────────────────────────────────
// Each exported function receives its dependencies (the storage gateway)
// once at startup and returns the http.HandlerFunc the router calls on
// every request:
//
//	r.Post("/students", student.New(store))
//
// Every handler is a single orchestration step: decode the body (if any),
// make exactly one storage call, encode the result or the error. No
// handler retries.
package student

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aanand-mishra/student-records/internal/codec"
	"github.com/aanand-mishra/student-records/internal/storage"
	"github.com/aanand-mishra/student-records/internal/utils/response"
)

// ─────────────────────────────────────────────────────────────────────────────
// New handles POST /api/v1/students
//
// Request body (JSON):
//
//	{ "name": "Ada", "age": 30, "grade": "A", "email": "ada@x.com" }
//
// Success response (201 Created): the stored student.
//
// Error responses:
//
//	400 Bad Request: empty or malformed body
//	500 Internal: any storage failure, including validation and a
//	              duplicate email ("Student could not be created")
//
// ─────────────────────────────────────────────────────────────────────────────
func New(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := zerolog.Ctx(r.Context())

		in, err := codec.DecodeStudent(r.Body)
		if err != nil {
			log.Warn().Err(err).Msg("invalid create payload")
			response.WriteJSON(w, http.StatusBadRequest, response.Error(response.MsgInvalidBody))
			return
		}

		created, err := store.CreateStudent(r.Context(), in)
		if err != nil {
			log.Error().Err(err).Msg("add student failed")
			response.WriteJSON(w, response.StatusFor(err), response.Error(response.MsgCreateFailed))
			return
		}

		log.Info().Int64("id", created.ID).Msg("student added")
		response.WriteJSON(w, http.StatusCreated, codec.Encode(created))
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// GetList handles GET /api/v1/students
// Returns a JSON array of all students, [] when there are none.
// ─────────────────────────────────────────────────────────────────────────────
func GetList(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := zerolog.Ctx(r.Context())

		students, err := store.GetStudents(r.Context())
		if err != nil {
			log.Error().Err(err).Msg("list students failed")
			response.WriteJSON(w, http.StatusInternalServerError, response.Error(response.MsgInternal))
			return
		}

		log.Info().Int("count", len(students)).Msg("fetched students")
		response.WriteJSON(w, http.StatusOK, codec.EncodeList(students))
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// GetByID handles GET /api/v1/students/{id}
//
//	200 OK: the student
//	404 Not Found: { "error": "Student not found" }
//
// ─────────────────────────────────────────────────────────────────────────────
func GetByID(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := zerolog.Ctx(r.Context())

		id, ok := pathID(r)
		if !ok {
			response.WriteJSON(w, http.StatusNotFound, response.Error(response.MsgNotFound))
			return
		}

		student, err := store.GetStudentByID(r.Context(), id)
		if err != nil {
			writeFailure(w, log, err, id, response.MsgInternal, "get student failed")
			return
		}

		response.WriteJSON(w, http.StatusOK, codec.Encode(student))
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Update handles PUT /api/v1/students/{id}
// Only the fields present in the body change; absent or null fields keep
// their stored values. The id is resolved before the body is read, so an
// unknown id is a 404 whatever the payload.
//
//	200 OK: the updated student
//	404 Not Found: unknown id
//	400 Bad Request: empty or malformed body
//	500 Internal: { "error": "Update failed" }
//
// ─────────────────────────────────────────────────────────────────────────────
func Update(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := zerolog.Ctx(r.Context())

		id, ok := pathID(r)
		if !ok {
			response.WriteJSON(w, http.StatusNotFound, response.Error(response.MsgNotFound))
			return
		}

		if _, err := store.GetStudentByID(r.Context(), id); err != nil {
			writeFailure(w, log, err, id, response.MsgUpdateFailed, "update lookup failed")
			return
		}

		patch, err := codec.DecodePatch(r.Body)
		if err != nil {
			log.Warn().Err(err).Int64("id", id).Msg("invalid update payload")
			response.WriteJSON(w, http.StatusBadRequest, response.Error(response.MsgInvalidBody))
			return
		}

		updated, err := store.UpdateStudentByID(r.Context(), id, patch)
		if err != nil {
			writeFailure(w, log, err, id, response.MsgUpdateFailed, "update failed")
			return
		}

		log.Info().Int64("id", id).Msg("student updated")
		response.WriteJSON(w, http.StatusOK, codec.Encode(updated))
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Delete handles DELETE /api/v1/students/{id}
// Permanently removes a student record (hard delete).
//
//	200 OK: { "message": "Student 3 deleted" }
//	404 Not Found: unknown id
//	500 Internal: { "error": "Deletion failed" }
//
// ─────────────────────────────────────────────────────────────────────────────
func Delete(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := zerolog.Ctx(r.Context())

		id, ok := pathID(r)
		if !ok {
			response.WriteJSON(w, http.StatusNotFound, response.Error(response.MsgNotFound))
			return
		}

		if err := store.DeleteStudentByID(r.Context(), id); err != nil {
			writeFailure(w, log, err, id, response.MsgDeleteFailed, "delete failed")
			return
		}

		log.Info().Int64("id", id).Msg("student deleted")
		response.WriteJSON(w, http.StatusOK, response.Message(fmt.Sprintf("Student %d deleted", id)))
	}
}

// pathID reads {id}. The route only matches digits, but the value can
// still overflow int64; such an id cannot exist.
func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// writeFailure answers 404 for a missing student and the status from the
// category table with failMsg for everything else.
func writeFailure(w http.ResponseWriter, log *zerolog.Logger, err error, id int64, failMsg, logMsg string) {
	status := response.StatusFor(err)
	if status == http.StatusNotFound {
		response.WriteJSON(w, status, response.Error(response.MsgNotFound))
		return
	}

	log.Error().Err(err).Int64("id", id).Msg(logMsg)
	response.WriteJSON(w, status, response.Error(failMsg))
}
