package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/sciencepath/internal/api"
	"github.com/phrazzld/sciencepath/internal/api/middleware"
	"github.com/phrazzld/sciencepath/internal/api/shared"
	"github.com/phrazzld/sciencepath/internal/domain"
	"github.com/phrazzld/sciencepath/internal/domain/curriculum"
	"github.com/phrazzld/sciencepath/internal/events"
	"github.com/phrazzld/sciencepath/internal/mocks"
	"github.com/phrazzld/sciencepath/internal/platform/logger"
	"github.com/phrazzld/sciencepath/internal/platform/memory"
	"github.com/phrazzld/sciencepath/internal/service"
	"github.com/phrazzld/sciencepath/internal/session"
	"github.com/phrazzld/sciencepath/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// neverFire holds automatic advances forever; tests press continue instead.
var neverFire = session.SchedulerFunc(func(time.Duration, func()) func() bool {
	return func() bool { return true }
})

func lessons(id string) []curriculum.Lesson {
	return []curriculum.Lesson{
		{ID: id + "-part-1", Number: 1},
		{ID: id + "-part-2", Number: 2},
		{ID: id + "-part-3", Number: 3},
	}
}

type testServer struct {
	router  http.Handler
	backend *memory.Backend
	gen     *mocks.MockGenerator
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerOn(t, memory.New(0))
}

func newTestServerOn(t *testing.T, backend *memory.Backend) *testServer {
	t.Helper()
	l, _ := logger.NewTestLogger()
	now := func() time.Time { return time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC) }

	c := curriculum.New(curriculum.Document{
		Version: "1.0",
		Topics: []curriculum.Topic{
			{ID: "Matter", Name: "Matter", Numbering: "1", Level: 1, Prerequisites: []string{}, Lessons: lessons("Matter")},
			{ID: "Heat", Name: "Heat", Numbering: "2", Level: 1, Prerequisites: []string{"Matter"}, Lessons: lessons("Heat")},
		},
	})

	st := store.NewAdapter(backend, "science", l)
	emitter := events.NewInMemoryEmitter(l)
	registry := service.NewRegistry(st, emitter, now, l)
	ledger := service.NewLedgerService(st, l)
	emitter.RegisterHandler(ledger)
	gen := mocks.NewMockGeneratorWithDefaultLesson()

	engine, err := service.NewEngine(service.EngineConfig{
		Registry:   registry,
		Ledger:     ledger,
		Lessons:    service.NewLessonService(c, gen, l),
		Transfer:   service.NewTransfer(st, emitter, now, l),
		Curriculum: c,
		Emitter:    emitter,
		Scheduler:  neverFire,
		Logger:     l,
	})
	require.NoError(t, err)
	engine.Reload(context.Background())
	t.Cleanup(engine.Close)

	r := chi.NewRouter()
	r.Use(middleware.Trace(l))
	r.Mount("/api", api.NewHandler(engine, l).Routes())

	return &testServer{router: r, backend: backend, gen: gen}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case []byte:
		buf.Write(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func (s *testServer) createUser(t *testing.T, name string) domain.User {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/users", map[string]string{"name": name})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[domain.User](t, w)
}

func assertError(t *testing.T, w *httptest.ResponseRecorder, status int, message string) shared.ErrorResponse {
	t.Helper()
	assert.Equal(t, status, w.Code, w.Body.String())
	resp := decode[shared.ErrorResponse](t, w)
	assert.Equal(t, message, resp.Error)
	assert.Len(t, resp.TraceID, 32)
	return resp
}
