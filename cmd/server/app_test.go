package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/phrazzld/sciencepath/internal/config"
	"github.com/phrazzld/sciencepath/internal/domain"
	"github.com/phrazzld/sciencepath/internal/platform/logger"
	"github.com/phrazzld/sciencepath/internal/platform/memory"
	"github.com/phrazzld/sciencepath/internal/platform/sqlkv"
	"github.com/phrazzld/sciencepath/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCurriculum = `{
  "version": "1.0",
  "topics": [
    {"id": "Matter", "name": "Matter", "numbering": "1", "level": 1, "prerequisites": [],
     "folderPath": "plans/01-Matter",
     "lessons": [{"id": "Matter-part-1", "number": 1}, {"id": "Matter-part-2", "number": 2}, {"id": "Matter-part-3", "number": 3}]}
  ]
}`

const testLesson = `{"cards": [
  {"id": "intro", "type": "intro", "title": "Matter", "content": "Everything is made of matter."},
  {"id": "sum", "type": "summary", "title": "Summary", "content": "Done."}
]}`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func testConfig(t *testing.T, driver, dsn string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "curriculum.json"), testCurriculum)
	writeFile(t, filepath.Join(dir, "content", "plans", "01-Matter", "lesson-1.json"), testLesson)

	return &config.Config{
		Server:     config.ServerConfig{Port: 8080, LogLevel: "debug", ShutdownTimeout: time.Second},
		Storage:    config.StorageConfig{Driver: driver, DSN: dsn, Namespace: "science"},
		Curriculum: config.CurriculumConfig{Path: filepath.Join(dir, "curriculum.json")},
		Content:    config.ContentConfig{Source: config.SourceFile, Dir: filepath.Join(dir, "content"), CacheSize: 8},
		Session:    config.SessionConfig{AdvanceDelay: time.Second},
		Tasks:      config.TasksConfig{WorkerCount: 1, QueueSize: 4, PrefetchNext: true},
	}
}

func startServer(t *testing.T, cfg *config.Config) string {
	t.Helper()
	l, _ := logger.NewTestLogger()
	ctx, cancel := context.WithCancel(context.Background())

	app, err := newApplication(ctx, cfg, l)
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- app.serve(ctx, ln) }()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("server did not shut down")
		}
	})

	return "http://" + ln.Addr().String()
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestServer_EndToEnd(t *testing.T) {
	base := startServer(t, testConfig(t, config.DriverMemory, ""))

	resp, err := http.Get(base + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var health healthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, healthResponse{Status: "ok", CurriculumVersion: "1.0", Topics: 1}, health)
	assert.Len(t, resp.Header.Get("X-Trace-ID"), 32)

	resp = postJSON(t, base+"/api/users", map[string]string{"name": "Ada"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = postJSON(t, base+"/api/lesson", map[string]interface{}{"topicId": "Matter"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var snap session.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	assert.Equal(t, 2, snap.Total)
	assert.Equal(t, "Matter", snap.Card.Title)

	resp = postJSON(t, base+"/api/lesson/cards/0/continue", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = postJSON(t, base+"/api/lesson/cards/1/continue", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(base + "/api/progress")
	require.NoError(t, err)
	defer resp.Body.Close()
	var ledger domain.Ledger
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ledger))
	assert.Equal(t, []int{1}, ledger.CompletedLessons["Matter"])
}

func TestServer_MissingLessonRedirects(t *testing.T) {
	base := startServer(t, testConfig(t, config.DriverMemory, ""))

	postJSON(t, base+"/api/users", map[string]string{"name": "Ada"})
	resp := postJSON(t, base+"/api/lesson", map[string]interface{}{"topicId": "Matter", "lessonNumber": 3})
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "/topics", body["redirect"])
}

func TestNewApplication_Errors(t *testing.T) {
	l, _ := logger.NewTestLogger()
	ctx := context.Background()

	cfg := testConfig(t, config.DriverMemory, "")
	cfg.Curriculum.Path = filepath.Join(t.TempDir(), "missing.json")
	_, err := newApplication(ctx, cfg, l)
	assert.ErrorContains(t, err, "failed to load curriculum")

	cfg = testConfig(t, "floppy", "")
	_, err = newApplication(ctx, cfg, l)
	assert.ErrorContains(t, err, `unknown storage driver "floppy"`)

	cfg = testConfig(t, config.DriverMemory, "")
	cfg.Content.Source = config.SourceGemini
	_, err = newApplication(ctx, cfg, l)
	assert.ErrorContains(t, err, "failed to initialize LLM generator")
}

func TestOpenBackend(t *testing.T) {
	l, _ := logger.NewTestLogger()
	ctx := context.Background()

	b, err := openBackend(ctx, config.StorageConfig{Driver: config.DriverMemory, QuotaBytes: 1024}, l)
	require.NoError(t, err)
	assert.IsType(t, &memory.Backend{}, b)

	path := filepath.Join(t.TempDir(), "science.db")
	b, err = openBackend(ctx, config.StorageConfig{Driver: config.DriverSQLite, DSN: path}, l)
	require.NoError(t, err)
	assert.IsType(t, &sqlkv.Backend{}, b)
	require.NoError(t, b.Set(ctx, "science:users", []byte("[]")))
	require.NoError(t, b.Close())
}

func TestServer_ProgressSurvivesRestartOnSQLite(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "science.db")
	cfg := testConfig(t, config.DriverSQLite, dsn)

	l, _ := logger.NewTestLogger()
	ctx, cancel := context.WithCancel(context.Background())
	app, err := newApplication(ctx, cfg, l)
	require.NoError(t, err)
	user, err := app.engine.AddUser(ctx, "Ada")
	require.NoError(t, err)
	require.NoError(t, app.engine.MarkLessonComplete(ctx, "Matter", 2))
	cancel()
	app.cleanup()

	app, err = newApplication(context.Background(), cfg, l)
	require.NoError(t, err)
	defer app.cleanup()

	current, ok := app.engine.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, user.ID, current.ID)
	progress, err := app.engine.Progress()
	require.NoError(t, err)
	assert.Equal(t, []int{2}, progress.CompletedLessons["Matter"])
}
