package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/student-records/internal/storage"
	"github.com/aanand-mishra/student-records/internal/storage/memory"
	"github.com/aanand-mishra/student-records/internal/storage/sqlite"
)

func serve(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Lifecycle(t *testing.T) {
	stores := map[string]func(t *testing.T) storage.Storage{
		"memory": func(t *testing.T) storage.Storage { return memory.New() },
		"sqlite": func(t *testing.T) storage.Storage {
			db, err := sqlite.New(filepath.Join(t.TempDir(), "students.db"))
			require.NoError(t, err)
			require.NoError(t, db.Migrate(context.Background(), zerolog.Nop()))
			return db
		},
	}

	for name, newStore := range stores {
		t.Run(name, func(t *testing.T) {
			store := newStore(t)
			t.Cleanup(func() { _ = store.Close() })
			h := New(store, zerolog.Nop())

			rec := serve(h, http.MethodPost, "/api/v1/students", `{"name":"Ada","age":30,"email":"ada@x.com"}`)
			require.Equal(t, http.StatusCreated, rec.Code)
			assert.JSONEq(t, `{"id":1,"name":"Ada","age":30,"grade":null,"email":"ada@x.com"}`, rec.Body.String())

			rec = serve(h, http.MethodPost, "/api/v1/students", `{"name":"Ada Twin","age":30,"email":"ada@x.com"}`)
			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.JSONEq(t, `{"error":"Student could not be created"}`, rec.Body.String())

			rec = serve(h, http.MethodPut, "/api/v1/students/1", `{"grade":"A"}`)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.JSONEq(t, `{"id":1,"name":"Ada","age":30,"grade":"A","email":"ada@x.com"}`, rec.Body.String())

			rec = serve(h, http.MethodGet, "/api/v1/students/1", "")
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.JSONEq(t, `{"id":1,"name":"Ada","age":30,"grade":"A","email":"ada@x.com"}`, rec.Body.String())

			rec = serve(h, http.MethodGet, "/api/v1/students", "")
			var list []map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
			assert.Len(t, list, 1)

			rec = serve(h, http.MethodDelete, "/api/v1/students/1", "")
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.JSONEq(t, `{"message":"Student 1 deleted"}`, rec.Body.String())

			rec = serve(h, http.MethodGet, "/api/v1/students/1", "")
			assert.Equal(t, http.StatusNotFound, rec.Code)
			assert.JSONEq(t, `{"error":"Student not found"}`, rec.Body.String())

			rec = serve(h, http.MethodGet, "/healthcheck", "")
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.JSONEq(t, `{"status":"ok","database":"ok"}`, rec.Body.String())
		})
	}
}

type downStore struct{ *memory.Memory }

func (downStore) Ping(context.Context) error {
	return storage.Internal("Ping", errors.New("connection refused"))
}

func TestRouter_HealthcheckStoreDown(t *testing.T) {
	h := New(downStore{memory.New()}, zerolog.Nop())

	rec := serve(h, http.MethodGet, "/healthcheck", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"status":"error","database":"unreachable"}`, rec.Body.String())
}

func TestRouter_UnknownRoutes(t *testing.T) {
	h := New(memory.New(), zerolog.Nop())

	rec := serve(h, http.MethodGet, "/api/v1/teachers", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Not found"}`, rec.Body.String())

	rec = serve(h, http.MethodGet, "/api/v1/students/abc", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	rec = serve(h, http.MethodPatch, "/api/v1/students/1", `{"age":3}`)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.JSONEq(t, `{"error":"Method not allowed"}`, rec.Body.String())

	rec = serve(h, http.MethodGet, "/students", "")
	assert.Equal(t, http.StatusNotFound, rec.Code, "student routes live under the /api/v1 prefix")
}

func TestRouter_LogsEveryRequest(t *testing.T) {
	var logs bytes.Buffer
	h := New(memory.New(), zerolog.New(&logs))

	serve(h, http.MethodGet, "/healthcheck", "")
	serve(h, http.MethodGet, "/api/v1/students/5", "")

	out := logs.String()
	assert.Contains(t, out, `"path":"/healthcheck"`)
	assert.Contains(t, out, `"path":"/api/v1/students/5"`)
	assert.Contains(t, out, `"status":404`)
	assert.NotEmpty(t, serve(h, http.MethodGet, "/healthcheck", "").Header().Get("X-Request-ID"))
}
