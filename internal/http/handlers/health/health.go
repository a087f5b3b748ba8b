// Package health serves the liveness probe.
package health

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/aanand-mishra/student-records/internal/utils/response"
)

// Pinger is the one storage capability the probe needs.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Status is the probe's response body.
type Status struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// New handles GET /healthcheck. It issues one trivial query; the failure
// detail is logged, never returned.
func New(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context()); err != nil {
			zerolog.Ctx(r.Context()).Error().Err(err).Msg("healthcheck failed")
			response.WriteJSON(w, http.StatusInternalServerError, Status{Status: "error", Database: "unreachable"})
			return
		}

		response.WriteJSON(w, http.StatusOK, Status{Status: "ok", Database: "ok"})
	}
}
