// Package domain defines the core business entities and errors.
package domain

import "errors"

// Error taxonomy shared by every layer. Callers match with errors.Is; concrete
// failures wrap one of these with fmt.Errorf("...: %w", ...).
var (
	// ErrValidation is returned when input fails validation, such as an empty
	// or oversized user name. It is surfaced to the immediate caller.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when an operation names an unknown user, topic
	// or lesson.
	ErrNotFound = errors.New("not found")

	// ErrStorage is returned when the persistence substrate fails a read or
	// write. Most callers absorb it and continue with default state.
	ErrStorage = errors.New("storage failure")

	// ErrContentLoad is returned when lesson content could not be produced or
	// came back empty.
	ErrContentLoad = errors.New("lesson content could not be loaded")

	// ErrImportFormat is returned when a bulk import document is malformed.
	// An import that fails this way performs no writes.
	ErrImportFormat = errors.New("invalid import format")

	// ErrConfirmationRequired is returned when a destructive import is
	// attempted without explicit confirmation.
	ErrConfirmationRequired = errors.New("confirmation required")

	// ErrNoActiveUser is returned by operations that need an active learner.
	ErrNoActiveUser = errors.New("no active user")

	// ErrNoSession is returned when a lesson operation is issued while no
	// lesson is open.
	ErrNoSession = errors.New("no lesson session open")

	// ErrInvalidTransition is returned when a lesson transition is not allowed
	// from the current card, such as jumping ahead of unfinished cards.
	ErrInvalidTransition = errors.New("invalid lesson transition")
)
