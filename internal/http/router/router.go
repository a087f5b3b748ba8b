// Package router assembles the HTTP surface.
//
// Route table:
//
//	GET    /healthcheck                → liveness probe
//	POST   /api/v1/students            → create a student
//	GET    /api/v1/students            → list all students
//	GET    /api/v1/students/{id}       → get one student
//	PUT    /api/v1/students/{id}       → partially update a student
//	DELETE /api/v1/students/{id}       → delete a student
//
// Every route goes through RequestID → Logger → Recoverer.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aanand-mishra/student-records/internal/http/handlers/health"
	"github.com/aanand-mishra/student-records/internal/http/handlers/student"
	"github.com/aanand-mishra/student-records/internal/http/middleware"
	"github.com/aanand-mishra/student-records/internal/storage"
	"github.com/aanand-mishra/student-records/internal/utils/response"
)

// APIPrefix is the versioned prefix of the student routes.
const APIPrefix = "/api/v1"

// New returns the application handler backed by store.
func New(store storage.Storage, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.WriteJSON(w, http.StatusNotFound, response.Error(response.MsgRouteNotFound))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.WriteJSON(w, http.StatusMethodNotAllowed, response.Error(response.MsgMethodNotAllowed))
	})

	r.Get("/healthcheck", health.New(store))

	r.Route(APIPrefix, func(r chi.Router) {
		r.Post("/students", student.New(store))
		r.Get("/students", student.GetList(store))
		r.Get("/students/{id:[0-9]+}", student.GetByID(store))
		r.Put("/students/{id:[0-9]+}", student.Update(store))
		r.Delete("/students/{id:[0-9]+}", student.Delete(store))
	})

	return r
}
