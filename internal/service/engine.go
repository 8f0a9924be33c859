package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/phrazzld/sciencepath/internal/domain"
	"github.com/phrazzld/sciencepath/internal/domain/curriculum"
	"github.com/phrazzld/sciencepath/internal/events"
	"github.com/phrazzld/sciencepath/internal/session"
)

// EngineConfig holds the collaborators of an Engine.
type EngineConfig struct {
	Registry   *Registry
	Ledger     *LedgerService
	Lessons    *LessonService
	Transfer   *Transfer
	Curriculum *curriculum.Curriculum
	Emitter    events.Emitter
	// Scheduler runs the automatic advance; defaults to real timers.
	Scheduler    session.Scheduler
	AdvanceDelay time.Duration
	Logger       *slog.Logger
}

// TopicView is a topic as the topic picker shows it.
type TopicView struct {
	curriculum.Topic
	CompletedLessons []int `json:"completedLessons"`
	Progress         int   `json:"progress"`
	// NextLesson is 0 when every lesson is complete.
	NextLesson int  `json:"nextLesson"`
	InProgress bool `json:"inProgress"`
	Remaining  int  `json:"remaining"`
}

// Engine is the single execution context of the learner client.
//
// One mutex serialises every public method. The open lesson's automatic
// advance re-enters through the same mutex, so a timer firing is just
// another event. Lesson content is loaded with the mutex released.
type Engine struct {
	mu sync.Mutex

	registry     *Registry
	ledger       *LedgerService
	lessons      *LessonService
	transfer     *Transfer
	curriculum   *curriculum.Curriculum
	emitter      events.Emitter
	timer        session.Scheduler
	advanceDelay time.Duration
	logger       *slog.Logger

	// baseCtx is handed to sessions for timer-driven transitions.
	baseCtx context.Context
	session *session.Session
}

// NewEngine wires an Engine. Call Reload before use.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Registry == nil || cfg.Ledger == nil || cfg.Lessons == nil || cfg.Transfer == nil || cfg.Curriculum == nil {
		return nil, errors.New("engine requires registry, ledger, lessons, transfer and curriculum")
	}
	if cfg.Scheduler == nil {
		cfg.Scheduler = session.TimerScheduler{}
	}
	if cfg.AdvanceDelay <= 0 {
		cfg.AdvanceDelay = session.DefaultAdvanceDelay
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	logger := cfg.Logger.With(slog.String("component", "engine"))

	return &Engine{
		registry:     cfg.Registry,
		ledger:       cfg.Ledger,
		lessons:      cfg.Lessons,
		transfer:     cfg.Transfer,
		curriculum:   cfg.Curriculum,
		emitter:      cfg.Emitter,
		timer:        cfg.Scheduler,
		advanceDelay: cfg.AdvanceDelay,
		logger:       logger,
		baseCtx:      context.Background(),
	}, nil
}

// AfterFunc implements session.Scheduler. The callback runs holding the
// engine mutex.
func (e *Engine) AfterFunc(d time.Duration, f func()) func() bool {
	return e.timer.AfterFunc(d, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		f()
	})
}

// Reload rereads the registry and the active ledger from storage.
func (e *Engine) Reload(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reloadLocked(ctx)
}

func (e *Engine) reloadLocked(ctx context.Context) {
	e.closeSessionLocked()
	e.registry.Reload(ctx)
	e.ledger.SetCurrentUser(ctx, e.registry.CurrentID())
}

// Users returns every learner profile.
func (e *Engine) Users() []domain.User {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.registry.Users()
}

// CurrentUser returns the active learner.
func (e *Engine) CurrentUser() (domain.User, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.registry.CurrentUser()
}

// AddUser creates a learner and makes it active.
func (e *Engine) AddUser(ctx context.Context, name string) (*domain.User, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	user, err := e.registry.AddUser(ctx, name)
	if err != nil {
		return nil, err
	}
	e.closeSessionLocked()
	if err := e.registry.SelectUser(ctx, user.ID); err != nil {
		return nil, err
	}
	e.syncLedgerLocked(ctx)
	selected, _ := e.registry.User(user.ID)
	return &selected, nil
}

// SelectUser makes id the active learner.
func (e *Engine) SelectUser(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.registry.User(id); !ok {
		return fmt.Errorf("%w: user %s", domain.ErrNotFound, id)
	}
	e.closeSessionLocked()
	if err := e.registry.SelectUser(ctx, id); err != nil {
		return err
	}
	e.syncLedgerLocked(ctx)
	return nil
}

// DeleteUser removes a learner and their progress.
func (e *Engine) DeleteUser(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	wasActive := e.registry.CurrentID() == id
	if err := e.registry.DeleteUser(ctx, id); err != nil {
		return err
	}
	// the open lesson belongs to the deleted learner only once the batch landed
	if wasActive {
		e.closeSessionLocked()
	}
	e.syncLedgerLocked(ctx)
	return nil
}

// Logout clears the active learner.
func (e *Engine) Logout(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.closeSessionLocked()
	e.registry.Logout(ctx)
	e.syncLedgerLocked(ctx)
}

// Progress returns a copy of the active learner's ledger.
func (e *Engine) Progress() (domain.Ledger, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.registry.CurrentID() == "" {
		return domain.NewLedger(), domain.ErrNoActiveUser
	}
	return e.ledger.Ledger(), nil
}

// ResetProgress clears the active learner's ledger.
func (e *Engine) ResetProgress(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.registry.CurrentID() == "" {
		return domain.ErrNoActiveUser
	}
	e.closeSessionLocked()
	e.ledger.Reset(ctx)
	return nil
}

// MarkLessonComplete records a lesson without playing it.
func (e *Engine) MarkLessonComplete(ctx context.Context, topicID string, n int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.registry.CurrentID() == "" {
		return domain.ErrNoActiveUser
	}
	if _, err := e.lessons.Topic(topicID); err != nil {
		return err
	}
	return e.ledger.MarkLessonComplete(ctx, topicID, n)
}

// AvailableTopics returns the topics the active learner can work on, in
// display order.
func (e *Engine) AvailableTopics() []TopicView {
	e.mu.Lock()
	defer e.mu.Unlock()

	available := curriculum.Available(e.curriculum.Topics(), e.ledger)
	views := make([]TopicView, 0, len(available))
	for _, t := range available {
		views = append(views, e.topicViewLocked(t))
	}
	return views
}

// Topic returns one topic with the active learner's progress.
func (e *Engine) Topic(topicID string) (TopicView, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, err := e.lessons.Topic(topicID)
	if err != nil {
		return TopicView{}, err
	}
	return e.topicViewLocked(t), nil
}

func (e *Engine) topicViewLocked(t curriculum.Topic) TopicView {
	completed := e.ledger.CompletedLessons(t.ID)
	next, _ := e.ledger.NextLesson(t.ID)
	return TopicView{
		Topic:            t,
		CompletedLessons: completed,
		Progress:         len(completed),
		NextLesson:       next,
		InProgress:       len(completed) > 0,
		Remaining:        domain.LessonsPerTopic - len(completed),
	}
}

// OpenLesson loads lesson n of topicID for the active learner and opens a
// session on it, replacing any open one. A lesson number of 0 opens the
// topic's next lesson. Content failures return domain.ErrContentLoad.
func (e *Engine) OpenLesson(ctx context.Context, topicID string, n int) (session.Snapshot, error) {
	e.mu.Lock()
	userID := e.registry.CurrentID()
	if userID == "" {
		e.mu.Unlock()
		return session.Snapshot{}, domain.ErrNoActiveUser
	}
	topic, err := e.lessons.Topic(topicID)
	if err != nil {
		e.mu.Unlock()
		return session.Snapshot{}, err
	}
	if n == 0 {
		next, ok := e.ledger.NextLesson(topicID)
		if !ok {
			e.mu.Unlock()
			return session.Snapshot{}, fmt.Errorf("%w: topic %s is complete", domain.ErrInvalidTransition, topicID)
		}
		n = next
	}
	e.mu.Unlock()

	content, err := e.lessons.Load(ctx, topic, n)
	if err != nil {
		return session.Snapshot{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.registry.CurrentID() != userID {
		return session.Snapshot{}, fmt.Errorf("%w: active user changed while loading", domain.ErrNoActiveUser)
	}

	s, err := session.New(session.Config{
		TopicID:      topic.ID,
		LessonNumber: n,
		Cards:        content.Cards,
		Store:        e.ledger,
		Scheduler:    e,
		AdvanceDelay: e.advanceDelay,
		Context:      e.baseCtx,
		Logger:       e.logger,
		OnFinish: func(ctx context.Context) {
			e.emitLesson(ctx, events.LessonCompleted, userID, topic.ID, n)
		},
	})
	if err != nil {
		return session.Snapshot{}, err
	}

	e.closeSessionLocked()
	e.session = s
	e.logger.InfoContext(ctx, "lesson opened",
		slog.String("user_id", userID),
		slog.String("lesson_id", s.LessonID()),
		slog.Int("start_index", s.Index()))
	e.emitLesson(ctx, events.LessonOpened, userID, topic.ID, n)

	return s.Snapshot(), nil
}

// Session returns the open lesson.
func (e *Engine) Session() (session.Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil {
		return session.Snapshot{}, domain.ErrNoSession
	}
	return e.session.Snapshot(), nil
}

// SetAnswer buffers input for card i of the open lesson.
func (e *Engine) SetAnswer(i int, text string) (session.Snapshot, error) {
	return e.withSession(func(s *session.Session) error {
		return s.SetAnswer(i, text)
	})
}

// Continue presses continue on card i of the open lesson.
func (e *Engine) Continue(ctx context.Context, i int) (session.Outcome, session.Snapshot, error) {
	var outcome session.Outcome
	snap, err := e.withSession(func(s *session.Session) error {
		var err error
		outcome, err = s.Continue(ctx, i)
		return err
	})
	return outcome, snap, err
}

// Previous moves the open lesson back one card.
func (e *Engine) Previous(ctx context.Context) (session.Snapshot, error) {
	return e.withSession(func(s *session.Session) error {
		return s.Previous(ctx)
	})
}

// JumpTo moves the open lesson to a completed card.
func (e *Engine) JumpTo(ctx context.Context, i int) (session.Snapshot, error) {
	return e.withSession(func(s *session.Session) error {
		return s.JumpTo(ctx, i)
	})
}

// CloseLesson discards the open lesson. Closing with none open succeeds.
func (e *Engine) CloseLesson() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closeSessionLocked()
}

// Export returns every persisted profile and ledger.
func (e *Engine) Export(ctx context.Context) *ExportDocument {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.transfer.Export(ctx)
}

// Import replaces all local state with data and reloads. Nothing else runs
// while it is in progress.
func (e *Engine) Import(ctx context.Context, data []byte, confirm bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := ParseImport(data); err != nil {
		return err
	}
	if !confirm {
		return fmt.Errorf("%w: import replaces all local data", domain.ErrConfirmationRequired)
	}

	e.closeSessionLocked()
	if err := e.transfer.Import(ctx, data, confirm); err != nil {
		return err
	}
	e.reloadLocked(ctx)
	return nil
}

// Close cancels any pending automatic advance.
func (e *Engine) Close() {
	e.CloseLesson()
}

func (e *Engine) withSession(fn func(s *session.Session) error) (session.Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil {
		return session.Snapshot{}, domain.ErrNoSession
	}
	if err := fn(e.session); err != nil {
		return e.session.Snapshot(), err
	}
	return e.session.Snapshot(), nil
}

// syncLedgerLocked loads the active learner's ledger unless an event
// handler already did.
func (e *Engine) syncLedgerLocked(ctx context.Context) {
	if id := e.registry.CurrentID(); e.ledger.CurrentUserID() != id {
		e.ledger.SetCurrentUser(ctx, id)
	}
}

func (e *Engine) closeSessionLocked() {
	if e.session != nil {
		e.session.Close()
		e.session = nil
	}
}

func (e *Engine) emitLesson(ctx context.Context, eventType, userID, topicID string, n int) {
	payload := events.LessonPayload{UserID: userID, TopicID: topicID, LessonNumber: n}
	if err := events.Emit(ctx, e.emitter, eventType, payload); err != nil {
		e.logger.ErrorContext(ctx, "failed to emit event",
			slog.String("event_type", eventType),
			slog.String("error", err.Error()))
	}
}
