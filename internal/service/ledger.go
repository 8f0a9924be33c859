package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/sciencepath/internal/domain"
	"github.com/phrazzld/sciencepath/internal/events"
	"github.com/phrazzld/sciencepath/internal/store"
)

// LedgerService owns the progress ledger of the active learner.
//
// With no active learner every mutation is a no-op and reads see the empty
// ledger. Every mutation is persisted before it returns; a failed write is
// absorbed by the store adapter and the in-memory ledger keeps the change.
type LedgerService struct {
	store  *store.Adapter
	logger *slog.Logger

	userID string
	ledger domain.Ledger
}

var _ events.Handler = (*LedgerService)(nil)

// NewLedgerService creates a LedgerService with no active learner.
func NewLedgerService(st *store.Adapter, logger *slog.Logger) *LedgerService {
	if logger == nil {
		logger = slog.Default()
	}
	return &LedgerService{
		store:  st,
		logger: logger.With(slog.String("component", "progress_ledger")),
		ledger: domain.NewLedger(),
	}
}

// Load reads userID's persisted ledger. Missing or malformed records load
// as the empty ledger; a malformed record is left in storage.
func (s *LedgerService) Load(ctx context.Context, userID string) domain.Ledger {
	if userID == "" {
		return domain.NewLedger()
	}
	ledger := store.GetJSON[domain.Ledger](ctx, s.store, s.store.Keys().Progress(userID)).Or(domain.NewLedger())
	ledger.Normalize()
	return ledger
}

// SetCurrentUser switches to userID's ledger. An empty id means none.
func (s *LedgerService) SetCurrentUser(ctx context.Context, userID string) {
	s.userID = userID
	s.ledger = s.Load(ctx, userID)
	s.logger.DebugContext(ctx, "ledger loaded", slog.String("user_id", userID))
}

// CurrentUserID returns the learner whose ledger is loaded, or "".
func (s *LedgerService) CurrentUserID() string {
	return s.userID
}

// Reload rereads the active learner's ledger from storage.
func (s *LedgerService) Reload(ctx context.Context) {
	s.SetCurrentUser(ctx, s.userID)
}

// MarkLessonComplete records lesson n of topicID. Repeating it changes
// nothing.
func (s *LedgerService) MarkLessonComplete(ctx context.Context, topicID string, n int) error {
	if !domain.ValidLessonNumber(n) {
		return fmt.Errorf("%w: lesson number %d", domain.ErrValidation, n)
	}
	if s.userID == "" {
		return nil
	}

	wasComplete := s.ledger.IsTopicComplete(topicID)
	s.ledger.MarkLessonComplete(topicID, n)
	s.persist(ctx)

	s.logger.InfoContext(ctx, "lesson completed",
		slog.String("user_id", s.userID),
		slog.String("topic_id", topicID),
		slog.Int("lesson_number", n))
	if !wasComplete && s.ledger.IsTopicComplete(topicID) {
		s.logger.InfoContext(ctx, "topic completed",
			slog.String("user_id", s.userID),
			slog.String("topic_id", topicID))
	}
	return nil
}

// UpdatePosition overwrites the saved card index of lessonID.
func (s *LedgerService) UpdatePosition(ctx context.Context, lessonID string, cardIndex int) error {
	if cardIndex < 0 {
		return fmt.Errorf("%w: card index %d", domain.ErrValidation, cardIndex)
	}
	if s.userID == "" {
		return nil
	}

	s.ledger.SetPosition(lessonID, cardIndex)
	s.persist(ctx)
	return nil
}

// Reset clears the active learner's ledger and deletes its record.
func (s *LedgerService) Reset(ctx context.Context) {
	if s.userID == "" {
		return
	}
	s.ledger = domain.NewLedger()
	_ = s.store.Remove(ctx, s.store.Keys().Progress(s.userID))
	s.logger.InfoContext(ctx, "progress reset", slog.String("user_id", s.userID))
}

// Ledger returns a deep copy of the active ledger.
func (s *LedgerService) Ledger() domain.Ledger {
	return s.ledger.Clone()
}

// CompletedLessons returns the completed lesson numbers of topicID.
func (s *LedgerService) CompletedLessons(topicID string) []int {
	return s.ledger.CompletedLessonsFor(topicID)
}

// CompletedLessonCount returns how many lessons of topicID are complete.
func (s *LedgerService) CompletedLessonCount(topicID string) int {
	return s.ledger.CompletedLessonCount(topicID)
}

// NextLesson returns the lowest-numbered incomplete lesson of topicID.
func (s *LedgerService) NextLesson(topicID string) (int, bool) {
	return s.ledger.NextLesson(topicID)
}

// IsTopicComplete reports whether topicID is complete.
func (s *LedgerService) IsTopicComplete(topicID string) bool {
	return s.ledger.IsTopicComplete(topicID)
}

// IsLessonComplete reports whether lesson n of topicID is complete.
func (s *LedgerService) IsLessonComplete(topicID string, n int) bool {
	return s.ledger.IsLessonComplete(topicID, n)
}

// Position returns the saved card index of lessonID.
func (s *LedgerService) Position(lessonID string) (int, bool) {
	return s.ledger.Position(lessonID)
}

// HandleEvent follows the registry: selecting a learner loads their ledger,
// deleting or logging out the active learner unloads it.
func (s *LedgerService) HandleEvent(ctx context.Context, event *events.Event) error {
	switch event.Type {
	case events.UserSelected, events.UserDeleted, events.UserLoggedOut:
	default:
		return nil
	}

	var payload events.UserPayload
	if err := event.UnmarshalPayload(&payload); err != nil {
		return fmt.Errorf("failed to decode %s payload: %w", event.Type, err)
	}

	if event.Type == events.UserSelected {
		s.SetCurrentUser(ctx, payload.UserID)
	} else if payload.UserID == s.userID {
		s.SetCurrentUser(ctx, "")
	}
	return nil
}

func (s *LedgerService) persist(ctx context.Context) {
	_ = s.store.SetJSON(ctx, s.store.Keys().Progress(s.userID), s.ledger)
}
