package generation

import (
	"context"

	"github.com/phrazzld/sciencepath/internal/domain"
	"github.com/phrazzld/sciencepath/internal/domain/curriculum"
)

// Generator defines the interface for producing the cards of one lesson.
// This interface serves as a boundary between the application core and
// content sources (bundled files or an LLM), following the hexagonal
// architecture pattern.
type Generator interface {
	// GenerateLesson returns the ordered cards of lesson n of topic.
	// It may block while content is fetched or generated; ctx cancels it.
	// Errors wrap the sentinels in errors.go.
	GenerateLesson(ctx context.Context, topic curriculum.Topic, n int) (*domain.LessonContent, error)
}
