package generation

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/phrazzld/sciencepath/internal/domain"
	"github.com/phrazzld/sciencepath/internal/domain/curriculum"
)

// DefaultGenerateTimeout bounds one shared upstream call.
const DefaultGenerateTimeout = 2 * time.Minute

// Cache decorates a Generator with a bounded in-memory cache. Concurrent
// requests for the same lesson share one upstream call. Only content that
// validates is kept; the oldest entry is evicted first.
type Cache struct {
	next    Generator
	size    int
	logger  *slog.Logger
	timeout time.Duration

	group   singleflight.Group
	mu      sync.Mutex
	entries map[string]*domain.LessonContent
	order   []string
}

var _ Generator = (*Cache)(nil)

// NewCache wraps next. A size of zero disables caching but still merges
// concurrent calls.
func NewCache(next Generator, size int, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		next:    next,
		size:    size,
		logger:  logger.With(slog.String("component", "lesson_cache")),
		timeout: DefaultGenerateTimeout,
		entries: make(map[string]*domain.LessonContent),
	}
}

// GenerateLesson implements Generator.
func (c *Cache) GenerateLesson(ctx context.Context, topic curriculum.Topic, n int) (*domain.LessonContent, error) {
	key := domain.LessonID(topic.ID, n)

	if content, ok := c.lookup(key); ok {
		c.logger.DebugContext(ctx, "lesson cache hit", slog.String("lesson_id", key))
		return content, nil
	}

	// The shared call ignores the first caller's cancellation; each caller
	// still stops waiting when its own context ends.
	flight := c.group.DoChan(key, func() (interface{}, error) {
		genCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()

		content, err := c.next.GenerateLesson(genCtx, topic, n)
		if err != nil {
			return nil, err
		}
		if content != nil && content.Validate() == nil {
			c.store(key, content)
		}
		return content, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-flight:
	}
	if res.Err != nil {
		return nil, res.Err
	}
	if res.Shared {
		c.logger.DebugContext(ctx, "lesson generation shared", slog.String("lesson_id", key))
	}

	content, _ := res.Val.(*domain.LessonContent)
	return content, nil
}

// Prefetch generates and caches a lesson without returning it.
func (c *Cache) Prefetch(ctx context.Context, topic curriculum.Topic, n int) error {
	_, err := c.GenerateLesson(ctx, topic, n)
	return err
}

// Len returns the number of cached lessons.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) lookup(key string) (*domain.LessonContent, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	content, ok := c.entries[key]
	return content, ok
}

func (c *Cache) store(key string, content *domain.LessonContent) {
	if c.size <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; ok {
		c.entries[key] = content
		return
	}
	for len(c.order) >= c.size {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	c.entries[key] = content
	c.order = append(c.order, key)
}
