package session

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/phrazzld/sciencepath/internal/domain"
)

// DefaultAdvanceDelay is the pause between a correct answer and the
// automatic move to the next card.
const DefaultAdvanceDelay = 1500 * time.Millisecond

// PositionStore is the part of the progress ledger a session writes to.
type PositionStore interface {
	Position(lessonID string) (int, bool)
	UpdatePosition(ctx context.Context, lessonID string, cardIndex int) error
	MarkLessonComplete(ctx context.Context, topicID string, lessonNumber int) error
}

// State is the lifecycle stage of a session.
type State string

// Session states.
const (
	StateViewing  State = "viewing"
	StateFinished State = "finished"
	StateClosed   State = "closed"
)

// Action says what a Continue call did.
type Action string

// Continue actions.
const (
	ActionMoved     Action = "moved"
	ActionCorrect   Action = "correct"
	ActionIncorrect Action = "incorrect"
	ActionFinished  Action = "finished"
)

// Outcome is the result of Continue.
type Outcome struct {
	Action   Action `json:"action"`
	Index    int    `json:"index"`
	Feedback string `json:"feedback,omitempty"`
}

// Config describes the lesson a session drives.
type Config struct {
	TopicID      string
	LessonNumber int
	Cards        []domain.Card
	Store        PositionStore
	Scheduler    Scheduler
	AdvanceDelay time.Duration
	// Context is used for transitions fired by the scheduler.
	Context context.Context
	Logger  *slog.Logger
	// OnFinish runs after the lesson is marked complete.
	OnFinish func(ctx context.Context)
}

// Session is the state machine of one open lesson.
//
// A Session is not safe for concurrent use. Its owner serialises every call,
// including the callbacks it hands to the Scheduler.
type Session struct {
	topicID      string
	lessonNumber int
	lessonID     string
	cards        []domain.Card
	store        PositionStore
	scheduler    Scheduler
	delay        time.Duration
	ctx          context.Context
	logger       *slog.Logger
	onFinish     func(ctx context.Context)

	index         int
	state         State
	completed     map[int]bool
	answers       map[int]string
	feedbackShown map[int]bool
	accepted      map[int]bool

	// generation invalidates scheduled advances; stop cancels the timer.
	generation uint64
	pending    bool
	stop       func() bool
}

// New opens a session. The starting card is the saved position when it is
// in range, and every card before it counts as completed.
func New(cfg Config) (*Session, error) {
	if len(cfg.Cards) == 0 {
		return nil, fmt.Errorf("%w: %v", domain.ErrContentLoad, domain.ErrLessonContentEmpty)
	}
	if !domain.ValidLessonNumber(cfg.LessonNumber) {
		return nil, fmt.Errorf("%w: lesson number %d", domain.ErrValidation, cfg.LessonNumber)
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("%w: session needs a position store", domain.ErrValidation)
	}

	s := &Session{
		topicID:       cfg.TopicID,
		lessonNumber:  cfg.LessonNumber,
		lessonID:      domain.LessonID(cfg.TopicID, cfg.LessonNumber),
		cards:         cfg.Cards,
		store:         cfg.Store,
		scheduler:     cfg.Scheduler,
		delay:         cfg.AdvanceDelay,
		ctx:           cfg.Context,
		logger:        cfg.Logger,
		onFinish:      cfg.OnFinish,
		state:         StateViewing,
		completed:     make(map[int]bool),
		answers:       make(map[int]string),
		feedbackShown: make(map[int]bool),
		accepted:      make(map[int]bool),
	}
	if s.scheduler == nil {
		s.scheduler = TimerScheduler{}
	}
	if s.delay <= 0 {
		s.delay = DefaultAdvanceDelay
	}
	if s.ctx == nil {
		s.ctx = context.Background()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With(slog.String("component", "session"), slog.String("lesson_id", s.lessonID))

	if pos, ok := cfg.Store.Position(s.lessonID); ok && pos >= 0 && pos < len(cfg.Cards) {
		s.index = pos
	}
	for i := 0; i < s.index; i++ {
		s.completed[i] = true
	}

	return s, nil
}

// LessonID returns the composite id of the open lesson.
func (s *Session) LessonID() string { return s.lessonID }

// TopicID returns the topic of the open lesson.
func (s *Session) TopicID() string { return s.topicID }

// LessonNumber returns the lesson number within the topic.
func (s *Session) LessonNumber() int { return s.lessonNumber }

// Index returns the card being viewed.
func (s *Session) Index() int { return s.index }

// State returns the lifecycle stage.
func (s *Session) State() State { return s.state }

// Cards returns the lesson's cards.
func (s *Session) Cards() []domain.Card { return s.cards }

// SetAnswer buffers the learner's input for card i without evaluating it.
// Editing the current card withdraws a pending automatic advance; the
// feedback stays visible and the next Continue evaluates again.
func (s *Session) SetAnswer(i int, text string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if i < 0 || i >= len(s.cards) {
		return fmt.Errorf("%w: card %d of %d", domain.ErrNotFound, i, len(s.cards))
	}
	if s.answers[i] == text {
		return nil
	}
	s.answers[i] = text
	if i == s.index && s.accepted[i] {
		s.accepted[i] = false
		s.cancelAdvance()
	}
	return nil
}

// Continue is the learner pressing "continue" on card i, which must be the
// current card.
func (s *Session) Continue(ctx context.Context, i int) (Outcome, error) {
	if err := s.checkOpen(); err != nil {
		return Outcome{}, err
	}
	if i != s.index {
		return Outcome{}, fmt.Errorf("%w: continue on card %d while viewing %d", domain.ErrInvalidTransition, i, s.index)
	}

	card := s.cards[i]
	if card.Interactive == nil || (s.feedbackShown[i] && s.accepted[i]) {
		return s.advance(ctx, i)
	}

	answer := s.answers[i]
	correct := Evaluate(card.Interactive, answer)
	s.feedbackShown[i] = true
	s.accepted[i] = correct
	message := FeedbackMessage(card.Interactive, answer, correct)

	if !correct {
		s.logger.DebugContext(ctx, "answer rejected", slog.Int("card", i))
		return Outcome{Action: ActionIncorrect, Index: i, Feedback: message}, nil
	}

	s.scheduleAdvance(i)
	return Outcome{Action: ActionCorrect, Index: i, Feedback: message}, nil
}

// Previous moves back one card. Answers and feedback of the card stay
// buffered.
func (s *Session) Previous(ctx context.Context) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	s.cancelAdvance()
	if s.index == 0 {
		return nil
	}
	return s.moveTo(ctx, s.index-1)
}

// JumpTo moves to card i, which must be completed or current.
func (s *Session) JumpTo(ctx context.Context, i int) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if i != s.index && !s.completed[i] {
		return fmt.Errorf("%w: card %d is not completed", domain.ErrInvalidTransition, i)
	}
	s.cancelAdvance()
	if i == s.index {
		return nil
	}
	return s.moveTo(ctx, i)
}

// Close discards the session. Only the committed position survives.
func (s *Session) Close() {
	s.cancelAdvance()
	if s.state == StateViewing {
		s.state = StateClosed
	}
}

// Feedback returns the message for card i, or "" when none is shown.
func (s *Session) Feedback(i int) string {
	if i < 0 || i >= len(s.cards) || !s.feedbackShown[i] {
		return ""
	}
	return FeedbackMessage(s.cards[i].Interactive, s.answers[i], s.accepted[i])
}

// AdvancePending reports whether an automatic advance is scheduled.
func (s *Session) AdvancePending() bool { return s.pending }

// advance leaves card i: the last card completes the lesson, any other
// card commits i+1 and moves there.
func (s *Session) advance(ctx context.Context, i int) (Outcome, error) {
	s.cancelAdvance()

	if i+1 == len(s.cards) {
		if err := s.store.MarkLessonComplete(ctx, s.topicID, s.lessonNumber); err != nil {
			return Outcome{}, err
		}
		s.completed[i] = true
		s.state = StateFinished
		s.logger.InfoContext(ctx, "lesson finished")
		if s.onFinish != nil {
			s.onFinish(ctx)
		}
		return Outcome{Action: ActionFinished, Index: i}, nil
	}

	if err := s.store.UpdatePosition(ctx, s.lessonID, i+1); err != nil {
		return Outcome{}, err
	}
	s.completed[i] = true
	s.index = i + 1
	return Outcome{Action: ActionMoved, Index: s.index}, nil
}

// moveTo commits i before the in-memory index changes.
func (s *Session) moveTo(ctx context.Context, i int) error {
	if err := s.store.UpdatePosition(ctx, s.lessonID, i); err != nil {
		return err
	}
	s.index = i
	return nil
}

func (s *Session) scheduleAdvance(i int) {
	s.cancelAdvance()
	s.generation++
	gen := s.generation
	s.pending = true
	s.stop = s.scheduler.AfterFunc(s.delay, func() {
		s.fire(gen, i)
	})
}

func (s *Session) fire(gen uint64, i int) {
	if gen != s.generation || !s.pending || s.state != StateViewing || s.index != i {
		s.logger.Debug("stale advance ignored", slog.Int("card", i))
		return
	}
	s.pending = false
	s.stop = nil
	if _, err := s.advance(s.ctx, i); err != nil {
		s.logger.Error("automatic advance failed", slog.Int("card", i), slog.String("error", err.Error()))
	}
}

func (s *Session) cancelAdvance() {
	if s.stop != nil {
		s.stop()
		s.stop = nil
	}
	if s.pending {
		s.generation++
		s.pending = false
	}
}

func (s *Session) checkOpen() error {
	if s.state != StateViewing {
		return fmt.Errorf("%w: session is %s", domain.ErrInvalidTransition, s.state)
	}
	return nil
}

// Snapshot is a read-only view of a session for presentation.
type Snapshot struct {
	LessonID       string         `json:"lessonId"`
	TopicID        string         `json:"topicId"`
	LessonNumber   int            `json:"lessonNumber"`
	State          State          `json:"state"`
	Index          int            `json:"index"`
	Total          int            `json:"total"`
	Percent        float64        `json:"percent"`
	Card           *domain.Card   `json:"card,omitempty"`
	Completed      []int          `json:"completed"`
	Answers        map[int]string `json:"answers"`
	FeedbackShown  map[int]bool   `json:"feedbackShown"`
	Feedback       string         `json:"feedback,omitempty"`
	Correct        bool           `json:"correct"`
	AdvancePending bool           `json:"advancePending"`
}

// Snapshot copies the session state.
func (s *Session) Snapshot() Snapshot {
	completed := make([]int, 0, len(s.completed))
	for i := range s.completed {
		completed = append(completed, i)
	}
	slices.Sort(completed)

	answers := make(map[int]string, len(s.answers))
	for k, v := range s.answers {
		answers[k] = v
	}
	shown := make(map[int]bool, len(s.feedbackShown))
	for k, v := range s.feedbackShown {
		shown[k] = v
	}

	card := s.cards[s.index]
	return Snapshot{
		LessonID:       s.lessonID,
		TopicID:        s.topicID,
		LessonNumber:   s.lessonNumber,
		State:          s.state,
		Index:          s.index,
		Total:          len(s.cards),
		Percent:        float64(s.index+1) / float64(len(s.cards)) * 100,
		Card:           &card,
		Completed:      completed,
		Answers:        answers,
		FeedbackShown:  shown,
		Feedback:       s.Feedback(s.index),
		Correct:        s.accepted[s.index],
		AdvancePending: s.pending,
	}
}
