package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/phrazzld/sciencepath/internal/domain"
	"github.com/phrazzld/sciencepath/internal/domain/curriculum"
	"github.com/phrazzld/sciencepath/internal/events"
	"github.com/phrazzld/sciencepath/internal/platform/logger"
	"github.com/phrazzld/sciencepath/internal/platform/memory"
	"github.com/phrazzld/sciencepath/internal/service"
	"github.com/phrazzld/sciencepath/internal/store"
)

const namespace = "science"

var errBatch = errors.New("disk full")

// flakyBackend fails Apply while failApply is set.
type flakyBackend struct {
	*memory.Backend
	failApply bool
}

func (b *flakyBackend) Apply(ctx context.Context, ops []store.Op) error {
	if b.failApply {
		return errBatch
	}
	return b.Backend.Apply(ctx, ops)
}

// testClock advances one minute per call.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Minute)
	return c.now
}

// recorder collects emitted event types.
type recorder struct {
	mu    sync.Mutex
	types []string
}

func (r *recorder) HandleEvent(_ context.Context, event *events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types = append(r.types, event.Type)
	return nil
}

func (r *recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.types...)
}

type fixture struct {
	backend  *flakyBackend
	store    *store.Adapter
	emitter  *events.InMemoryEmitter
	events   *recorder
	clock    *testClock
	registry *service.Registry
	ledger   *service.LedgerService
	transfer *service.Transfer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureOn(t, &flakyBackend{Backend: memory.New(0)})
}

// newFixtureOn builds fresh services over an existing backend, as a
// process restart would.
func newFixtureOn(t *testing.T, backend *flakyBackend) *fixture {
	t.Helper()
	l, _ := logger.NewTestLogger()

	f := &fixture{
		backend: backend,
		store:   store.NewAdapter(backend, namespace, l),
		emitter: events.NewInMemoryEmitter(l),
		events:  &recorder{},
		clock:   newTestClock(),
	}
	f.registry = service.NewRegistry(f.store, f.emitter, f.clock.Now, l)
	f.ledger = service.NewLedgerService(f.store, l)
	f.transfer = service.NewTransfer(f.store, f.emitter, f.clock.Now, l)

	f.emitter.RegisterHandler(f.ledger)
	f.emitter.RegisterHandler(f.events)

	ctx := context.Background()
	f.registry.Reload(ctx)
	f.ledger.SetCurrentUser(ctx, f.registry.CurrentID())
	return f
}

func (f *fixture) addAndSelect(t *testing.T, name string) domain.User {
	t.Helper()
	ctx := context.Background()
	u, err := f.registry.AddUser(ctx, name)
	require.NoError(t, err)
	require.NoError(t, f.registry.SelectUser(ctx, u.ID))
	return *u
}

func (f *fixture) raw(t *testing.T, key string) ([]byte, bool) {
	t.Helper()
	data, err := f.backend.Get(context.Background(), key)
	if errors.Is(err, store.ErrNotFound) {
		return nil, false
	}
	require.NoError(t, err)
	return data, true
}

func lessonsOf(id string) []curriculum.Lesson {
	out := make([]curriculum.Lesson, 0, domain.LessonsPerTopic)
	for n := 1; n <= domain.LessonsPerTopic; n++ {
		out = append(out, curriculum.Lesson{ID: id + "-part-" + string(rune('0'+n)), Number: n})
	}
	return out
}

func testCurriculum() *curriculum.Curriculum {
	return curriculum.New(curriculum.Document{
		Version: "1.0",
		Topics: []curriculum.Topic{
			{ID: "A", Name: "A", Numbering: "1", Level: 1, Prerequisites: []string{}, Lessons: lessonsOf("A")},
			{ID: "B", Name: "B", Numbering: "2", Level: 1, Prerequisites: []string{"A"}, Lessons: lessonsOf("B")},
		},
	})
}
