package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types emitted by the services.
const (
	UserSelected     = "user.selected"
	UserDeleted      = "user.deleted"
	UserLoggedOut    = "user.logged_out"
	LessonOpened     = "lesson.opened"
	LessonCompleted  = "lesson.completed"
	ProgressImported = "progress.imported"
)

// Event is a notification that something happened in the engine.
type Event struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type is one of the constants above
	Type string `json:"type"`

	// Payload contains the event-specific data serialized as JSON
	Payload json.RawMessage `json:"payload"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// UserPayload identifies the user an event is about.
type UserPayload struct {
	UserID string `json:"userId"`
}

// LessonPayload identifies a lesson of a topic for a user.
type LessonPayload struct {
	UserID       string `json:"userId"`
	TopicID      string `json:"topicId"`
	LessonNumber int    `json:"lessonNumber"`
}

// ImportPayload summarises a completed bulk import.
type ImportPayload struct {
	UserCount int `json:"userCount"`
}

// UnmarshalPayload decodes the event payload into the provided structure.
func (e *Event) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// New creates an Event with the specified type and payload.
func New(eventType string, payload interface{}) (*Event, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:        uuid.New(),
		Type:      eventType,
		Payload:   payloadBytes,
		CreatedAt: time.Now(),
	}, nil
}

// Handler defines an interface for components that can handle events.
type Handler interface {
	// HandleEvent processes the given event within the provided context.
	// Handlers ignore types they do not care about.
	HandleEvent(ctx context.Context, event *Event) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, event *Event) error

// HandleEvent implements Handler.
func (f HandlerFunc) HandleEvent(ctx context.Context, event *Event) error {
	return f(ctx, event)
}

// Emitter defines an interface for components that can emit events.
// This allows services to publish events without direct knowledge of handlers.
type Emitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	EmitEvent(ctx context.Context, event *Event) error
}
