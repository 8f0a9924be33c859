package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/phrazzld/sciencepath/internal/domain"
	"github.com/phrazzld/sciencepath/internal/domain/curriculum"
)

// Prefetcher warms a lesson cache.
type Prefetcher interface {
	Prefetch(ctx context.Context, topic curriculum.Topic, n int) error
}

// PrefetchTask generates one lesson ahead of time so opening it later is
// served from the cache.
type PrefetchTask struct {
	id         uuid.UUID
	topic      curriculum.Topic
	lesson     int
	prefetcher Prefetcher
	logger     *slog.Logger

	mu     sync.Mutex
	status TaskStatus
}

var _ Task = (*PrefetchTask)(nil)

// NewPrefetchTask creates a pending task for lesson n of topic.
func NewPrefetchTask(topic curriculum.Topic, n int, prefetcher Prefetcher, logger *slog.Logger) (*PrefetchTask, error) {
	if prefetcher == nil {
		return nil, fmt.Errorf("prefetcher cannot be nil")
	}
	if !domain.ValidLessonNumber(n) {
		return nil, fmt.Errorf("%w: lesson number %d", domain.ErrValidation, n)
	}
	if logger == nil {
		logger = slog.Default()
	}
	id := uuid.New()
	return &PrefetchTask{
		id:         id,
		topic:      topic,
		lesson:     n,
		prefetcher: prefetcher,
		logger: logger.With(
			"task_id", id,
			"lesson_id", domain.LessonID(topic.ID, n)),
		status: TaskStatusPending,
	}, nil
}

// ID implements Task.
func (t *PrefetchTask) ID() uuid.UUID { return t.id }

// Type implements Task.
func (t *PrefetchTask) Type() string { return TaskTypeLessonPrefetch }

// LessonID returns the lesson being prefetched.
func (t *PrefetchTask) LessonID() string { return domain.LessonID(t.topic.ID, t.lesson) }

// Status implements Task.
func (t *PrefetchTask) Status() TaskStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// Execute implements Task.
func (t *PrefetchTask) Execute(ctx context.Context) error {
	t.setStatus(TaskStatusProcessing)

	if err := t.prefetcher.Prefetch(ctx, t.topic, t.lesson); err != nil {
		t.setStatus(TaskStatusFailed)
		return fmt.Errorf("prefetch %s: %w", t.LessonID(), err)
	}

	t.setStatus(TaskStatusCompleted)
	t.logger.DebugContext(ctx, "lesson prefetched")
	return nil
}

func (t *PrefetchTask) setStatus(s TaskStatus) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = s
}
