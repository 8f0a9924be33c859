package task

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/sciencepath/internal/domain/curriculum"
	"github.com/phrazzld/sciencepath/internal/events"
	"github.com/phrazzld/sciencepath/internal/platform/logger"
)

// recordingPrefetcher records prefetched lessons and can fail.
type recordingPrefetcher struct {
	mu      sync.Mutex
	lessons []string
	err     error
	done    chan struct{}
}

func newRecordingPrefetcher() *recordingPrefetcher {
	return &recordingPrefetcher{done: make(chan struct{}, 16)}
}

func (p *recordingPrefetcher) Prefetch(_ context.Context, topic curriculum.Topic, n int) error {
	p.mu.Lock()
	p.lessons = append(p.lessons, topic.ID+"-"+string(rune('0'+n)))
	p.mu.Unlock()
	p.done <- struct{}{}
	return p.err
}

func (p *recordingPrefetcher) Lessons() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.lessons...)
}

func waitFor(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for task")
	}
}

var heat = curriculum.Topic{ID: "Heat", Name: "Heat", Numbering: "2.3", Level: 2}

func TestTaskQueue(t *testing.T) {
	l, _ := logger.NewTestLogger()
	q := NewTaskQueue(1, l)
	p := newRecordingPrefetcher()

	first, err := NewPrefetchTask(heat, 1, p, l)
	require.NoError(t, err)
	second, err := NewPrefetchTask(heat, 2, p, l)
	require.NoError(t, err)

	require.NoError(t, q.Enqueue(first))
	assert.ErrorIs(t, q.Enqueue(second), ErrQueueFull)

	q.Close()
	q.Close()
	assert.ErrorIs(t, q.Enqueue(second), ErrQueueClosed)

	got, ok := <-q.GetChannel()
	require.True(t, ok, "queued tasks drain after close")
	assert.Equal(t, first.ID(), got.ID())
	_, ok = <-q.GetChannel()
	assert.False(t, ok)
}

func TestNewPrefetchTask(t *testing.T) {
	p := newRecordingPrefetcher()

	task, err := NewPrefetchTask(heat, 3, p, nil)
	require.NoError(t, err)
	assert.Equal(t, TaskTypeLessonPrefetch, task.Type())
	assert.Equal(t, TaskStatusPending, task.Status())
	assert.Equal(t, "Heat-3", task.LessonID())

	_, err = NewPrefetchTask(heat, 4, p, nil)
	assert.Error(t, err)
	_, err = NewPrefetchTask(heat, 1, nil, nil)
	assert.Error(t, err)
}

func TestPrefetchTask_Execute(t *testing.T) {
	p := newRecordingPrefetcher()
	task, err := NewPrefetchTask(heat, 2, p, nil)
	require.NoError(t, err)

	require.NoError(t, task.Execute(context.Background()))
	assert.Equal(t, TaskStatusCompleted, task.Status())
	assert.Equal(t, []string{"Heat-2"}, p.Lessons())

	p.err = errors.New("model unavailable")
	task, err = NewPrefetchTask(heat, 3, p, nil)
	require.NoError(t, err)
	err = task.Execute(context.Background())
	assert.ErrorIs(t, err, p.err)
	assert.Equal(t, TaskStatusFailed, task.Status())
}

func TestNewWorkerPool(t *testing.T) {
	l, _ := logger.NewTestLogger()
	q := NewTaskQueue(4, l)

	pool := NewWorkerPool(q, WorkerPoolConfig{WorkerCount: 3}, l)
	assert.Equal(t, 3, pool.workerCount)
	assert.Nil(t, pool.errorHandler)

	pool = NewWorkerPool(q, WorkerPoolConfig{WorkerCount: 0}, l)
	assert.Equal(t, 1, pool.workerCount)

	assert.Equal(t, 2, DefaultWorkerPoolConfig().WorkerCount)
}

func TestWorkerPool_ExecutesAndReportsErrors(t *testing.T) {
	l, _ := logger.NewTestLogger()
	q := NewTaskQueue(4, l)
	pool := NewWorkerPool(q, WorkerPoolConfig{WorkerCount: 2}, l)

	failed := make(chan error, 1)
	pool.SetErrorHandler(func(task Task, err error) {
		failed <- err
	})
	pool.Start()
	defer pool.Stop()

	ok := newRecordingPrefetcher()
	task, err := NewPrefetchTask(heat, 2, ok, l)
	require.NoError(t, err)
	require.NoError(t, q.Enqueue(task))
	waitFor(t, ok.done)

	bad := newRecordingPrefetcher()
	bad.err = errors.New("boom")
	task, err = NewPrefetchTask(heat, 3, bad, l)
	require.NoError(t, err)
	require.NoError(t, q.Enqueue(task))

	select {
	case err := <-failed:
		assert.ErrorIs(t, err, bad.err)
	case <-time.After(2 * time.Second):
		t.Fatal("error handler not called")
	}
}

func TestWorkerPool_StopReturns(t *testing.T) {
	l, _ := logger.NewTestLogger()
	q := NewTaskQueue(1, l)
	pool := NewWorkerPool(q, DefaultWorkerPoolConfig(), l)
	pool.Start()

	stopped := make(chan struct{})
	go func() {
		pool.Stop()
		close(stopped)
	}()
	waitFor(t, stopped)
}

type topicMap map[string]curriculum.Topic

func (m topicMap) ByID(id string) (curriculum.Topic, bool) {
	t, ok := m[id]
	return t, ok
}

func TestPrefetchEventHandler(t *testing.T) {
	l, _ := logger.NewTestLogger()
	ctx := context.Background()
	topics := topicMap{"Heat": heat}

	opened := func(topicID string, n int) *events.Event {
		e, err := events.New(events.LessonOpened, events.LessonPayload{UserID: "u1", TopicID: topicID, LessonNumber: n})
		require.NoError(t, err)
		return e
	}

	t.Run("queues the following lesson", func(t *testing.T) {
		q := NewTaskQueue(4, l)
		h := NewPrefetchEventHandler(topics, q, newRecordingPrefetcher(), l)

		require.NoError(t, h.HandleEvent(ctx, opened("Heat", 1)))
		require.Len(t, q.GetChannel(), 1)
		task := (<-q.GetChannel()).(*PrefetchTask)
		assert.Equal(t, "Heat-2", task.LessonID())
	})

	t.Run("nothing after the last lesson or for unknown topics", func(t *testing.T) {
		q := NewTaskQueue(4, l)
		h := NewPrefetchEventHandler(topics, q, newRecordingPrefetcher(), l)

		require.NoError(t, h.HandleEvent(ctx, opened("Heat", 3)))
		require.NoError(t, h.HandleEvent(ctx, opened("Light", 1)))
		assert.Empty(t, q.GetChannel())
	})

	t.Run("ignores other events", func(t *testing.T) {
		q := NewTaskQueue(4, l)
		h := NewPrefetchEventHandler(topics, q, newRecordingPrefetcher(), l)

		e, err := events.New(events.LessonCompleted, events.LessonPayload{TopicID: "Heat", LessonNumber: 1})
		require.NoError(t, err)
		require.NoError(t, h.HandleEvent(ctx, e))
		assert.Empty(t, q.GetChannel())
	})

	t.Run("full queue drops the prefetch", func(t *testing.T) {
		q := NewTaskQueue(1, l)
		h := NewPrefetchEventHandler(topics, q, newRecordingPrefetcher(), l)

		require.NoError(t, h.HandleEvent(ctx, opened("Heat", 1)))
		assert.NoError(t, h.HandleEvent(ctx, opened("Heat", 2)))
		assert.Len(t, q.GetChannel(), 1)
	})

	t.Run("bad payload", func(t *testing.T) {
		q := NewTaskQueue(1, l)
		h := NewPrefetchEventHandler(topics, q, newRecordingPrefetcher(), l)
		assert.Error(t, h.HandleEvent(ctx, &events.Event{Type: events.LessonOpened, Payload: []byte(`"x"`)}))
	})
}
