package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/sciencepath/internal/domain"
	"github.com/phrazzld/sciencepath/internal/domain/curriculum"
	"github.com/phrazzld/sciencepath/internal/generation"
)

// GenerateLessonCall records one GenerateLesson invocation.
type GenerateLessonCall struct {
	TopicID      string
	LessonNumber int
}

// MockGenerator implements generation.Generator for testing.
type MockGenerator struct {
	// GenerateLessonFn overrides the default Content/Err reply.
	GenerateLessonFn func(ctx context.Context, topic curriculum.Topic, n int) (*domain.LessonContent, error)

	Content *domain.LessonContent
	Err     error

	mu    sync.Mutex
	calls []GenerateLessonCall
}

var _ generation.Generator = (*MockGenerator)(nil)

// GenerateLesson implements generation.Generator.
func (m *MockGenerator) GenerateLesson(ctx context.Context, topic curriculum.Topic, n int) (*domain.LessonContent, error) {
	m.mu.Lock()
	m.calls = append(m.calls, GenerateLessonCall{TopicID: topic.ID, LessonNumber: n})
	m.mu.Unlock()

	if m.GenerateLessonFn != nil {
		return m.GenerateLessonFn(ctx, topic, n)
	}
	return m.Content, m.Err
}

// Calls returns a copy of the recorded calls.
func (m *MockGenerator) Calls() []GenerateLessonCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]GenerateLessonCall(nil), m.calls...)
}

// Reset clears the recorded calls.
func (m *MockGenerator) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

// NewMockGeneratorWithError returns a generator that always fails with err.
func NewMockGeneratorWithError(err error) *MockGenerator {
	return &MockGenerator{Err: err}
}

// NewMockGeneratorWithDefaultLesson returns a generator that serves the
// same four-card lesson for every request: intro, explanation, an input
// check whose answer is "7", and a summary.
func NewMockGeneratorWithDefaultLesson() *MockGenerator {
	return &MockGenerator{
		GenerateLessonFn: func(_ context.Context, topic curriculum.Topic, _ int) (*domain.LessonContent, error) {
			return DefaultLesson(topic.Name), nil
		},
	}
}

// DefaultLesson builds the four-card lesson served by
// NewMockGeneratorWithDefaultLesson.
func DefaultLesson(title string) *domain.LessonContent {
	return &domain.LessonContent{Cards: []domain.Card{
		{ID: "intro", Type: domain.CardTypeIntro, Title: title},
		{ID: "explain", Type: domain.CardTypeIDo},
		{ID: "check", Type: domain.CardTypeYouDo, Interactive: &domain.Interactive{
			Kind:          domain.InteractiveInput,
			CorrectAnswer: "7",
		}},
		{ID: "summary", Type: domain.CardTypeSummary},
	}}
}
