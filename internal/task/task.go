package task

import (
	"context"

	"github.com/google/uuid"
)

// TaskStatus represents the current state of a task
type TaskStatus string

// Task statuses.
const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// Task types.
const (
	TaskTypeLessonPrefetch = "lesson_prefetch"
)

// Task defines the interface for background tasks.
type Task interface {
	// ID returns the unique identifier for this task
	ID() uuid.UUID

	// Type returns the task type identifier
	Type() string

	// Status returns the current status of the task
	Status() TaskStatus

	// Execute runs the task; ctx is cancelled when the pool stops
	Execute(ctx context.Context) error
}

// TaskQueueReader is the consuming side of a queue.
type TaskQueueReader interface {
	// GetChannel returns the channel workers receive tasks from
	GetChannel() <-chan Task
}

// TaskQueueWriter is the producing side of a queue.
type TaskQueueWriter interface {
	// Enqueue adds a task without blocking
	Enqueue(task Task) error

	// Close stops accepting tasks
	Close()
}
