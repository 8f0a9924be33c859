package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/sciencepath/internal/domain"
	"github.com/phrazzld/sciencepath/internal/domain/curriculum"
	"github.com/phrazzld/sciencepath/internal/events"
)

// TopicLookup finds curriculum topics by id.
type TopicLookup interface {
	ByID(id string) (curriculum.Topic, bool)
}

// PrefetchEventHandler queues generation of the following lesson whenever
// a lesson is opened. It never blocks the emitter: a full queue drops the
// prefetch.
type PrefetchEventHandler struct {
	topics     TopicLookup
	queue      TaskQueueWriter
	prefetcher Prefetcher
	logger     *slog.Logger
}

var _ events.Handler = (*PrefetchEventHandler)(nil)

// NewPrefetchEventHandler creates a handler that enqueues onto queue.
func NewPrefetchEventHandler(topics TopicLookup, queue TaskQueueWriter, prefetcher Prefetcher, logger *slog.Logger) *PrefetchEventHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PrefetchEventHandler{
		topics:     topics,
		queue:      queue,
		prefetcher: prefetcher,
		logger:     logger.With("component", "prefetch_event_handler"),
	}
}

// HandleEvent implements events.Handler.
func (h *PrefetchEventHandler) HandleEvent(ctx context.Context, event *events.Event) error {
	if event.Type != events.LessonOpened {
		return nil
	}

	var payload events.LessonPayload
	if err := event.UnmarshalPayload(&payload); err != nil {
		h.logger.ErrorContext(ctx, "failed to unmarshal payload", "error", err, "event_id", event.ID)
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	next := payload.LessonNumber + 1
	if next > domain.LessonsPerTopic {
		return nil
	}
	topic, ok := h.topics.ByID(payload.TopicID)
	if !ok {
		h.logger.WarnContext(ctx, "lesson opened for unknown topic", "topic_id", payload.TopicID)
		return nil
	}

	task, err := NewPrefetchTask(topic, next, h.prefetcher, h.logger)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	if err := h.queue.Enqueue(task); err != nil {
		if errors.Is(err, ErrQueueFull) || errors.Is(err, ErrQueueClosed) {
			h.logger.WarnContext(ctx, "prefetch dropped",
				"lesson_id", task.LessonID(),
				"reason", err.Error())
			return nil
		}
		return fmt.Errorf("failed to submit task: %w", err)
	}

	h.logger.DebugContext(ctx, "prefetch queued",
		"task_id", task.ID(),
		"lesson_id", task.LessonID(),
		"event_id", event.ID)
	return nil
}
