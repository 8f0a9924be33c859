package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/sciencepath/internal/domain"
	"github.com/phrazzld/sciencepath/internal/domain/curriculum"
	"github.com/phrazzld/sciencepath/internal/generation"
)

// LessonService resolves topics against the curriculum and loads lesson
// content from a generator.
type LessonService struct {
	curriculum *curriculum.Curriculum
	generator  generation.Generator
	logger     *slog.Logger
}

// NewLessonService creates a LessonService.
func NewLessonService(c *curriculum.Curriculum, g generation.Generator, logger *slog.Logger) *LessonService {
	if logger == nil {
		logger = slog.Default()
	}
	return &LessonService{
		curriculum: c,
		generator:  g,
		logger:     logger.With(slog.String("component", "lesson_service")),
	}
}

// Topic looks a topic up by id.
func (s *LessonService) Topic(topicID string) (curriculum.Topic, error) {
	topic, ok := s.curriculum.ByID(topicID)
	if !ok {
		return curriculum.Topic{}, fmt.Errorf("%w: topic %s", domain.ErrNotFound, topicID)
	}
	return topic, nil
}

// Load returns the cards of lesson n of topic. Any generator failure, or a
// lesson without cards, is reported as domain.ErrContentLoad with the cause
// still matchable.
func (s *LessonService) Load(ctx context.Context, topic curriculum.Topic, n int) (*domain.LessonContent, error) {
	if !domain.ValidLessonNumber(n) {
		return nil, fmt.Errorf("%w: lesson %d of topic %s", domain.ErrNotFound, n, topic.ID)
	}

	content, err := s.generator.GenerateLesson(ctx, topic, n)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to load lesson content",
			slog.String("topic_id", topic.ID),
			slog.Int("lesson_number", n),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %w", domain.ErrContentLoad, err)
	}
	if content == nil || len(content.Cards) == 0 {
		return nil, fmt.Errorf("%w: %w", domain.ErrContentLoad, domain.ErrLessonContentEmpty)
	}

	return content, nil
}
