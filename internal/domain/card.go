package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// CardType classifies a lesson card.
type CardType string

// Card types produced by lesson content sources.
const (
	CardTypeIntro     CardType = "intro"
	CardTypeObjective CardType = "objective"
	CardTypeIDo       CardType = "i-do"
	CardTypeYouDo     CardType = "you-do"
	CardTypeSummary   CardType = "summary"
)

// InteractiveKind classifies the interactive section of a card.
type InteractiveKind string

// Interactive kinds.
const (
	InteractiveQuiz     InteractiveKind = "quiz"
	InteractiveInput    InteractiveKind = "input"
	InteractivePractice InteractiveKind = "practice"
)

// Card validation errors.
var (
	ErrCardIDEmpty         = errors.New("card ID cannot be empty")
	ErrCardTypeInvalid     = errors.New("invalid card type")
	ErrInteractiveInvalid  = errors.New("invalid interactive kind")
	ErrLessonContentEmpty  = errors.New("lesson has no cards")
	ErrLessonCardsMismatch = errors.New("lesson total does not match card count")
)

// Card is one screen of lesson content. Cards are read-only input to a
// lesson session.
type Card struct {
	ID          string       `json:"id"`
	Type        CardType     `json:"type"`
	Cycle       *int         `json:"cycle,omitempty"`
	Title       string       `json:"title"`
	Content     string       `json:"content"`
	Image       *Image       `json:"image,omitempty"`
	Interactive *Interactive `json:"interactive,omitempty"`
}

// Image is an illustration attached to a card.
type Image struct {
	Src       string `json:"src"`
	Alt       string `json:"alt"`
	Type      string `json:"type,omitempty"`
	Prompt    string `json:"prompt,omitempty"`
	Placement string `json:"placement,omitempty"`
}

// Interactive is the answerable part of a card.
type Interactive struct {
	Kind          InteractiveKind `json:"type"`
	Question      string          `json:"question,omitempty"`
	CorrectAnswer Answer          `json:"correctAnswer"`
	Options       []string        `json:"options,omitempty"`
	Alternatives  []string        `json:"alternativeAnswers,omitempty"`
	Feedback      *Feedback       `json:"feedback,omitempty"`
	Hint          string          `json:"hint,omitempty"`
}

// Answer holds a correct answer that may arrive on the wire as a string or
// a number. Quiz answers are option indices.
type Answer string

// UnmarshalJSON accepts a JSON string or number.
func (a *Answer) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*a = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*a = Answer(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("correct answer must be a string or number: %w", err)
	}
	*a = Answer(n.String())
	return nil
}

// Index returns the answer as a quiz option index.
func (a Answer) Index() (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(string(a)))
	if err != nil {
		return 0, false
	}
	return n, true
}

// Feedback holds the messages shown after an answer is evaluated. On the
// wire it is either a plain string (used for correct answers) or an object.
type Feedback struct {
	Correct   string   `json:"correct,omitempty"`
	Incorrect []string `json:"incorrect,omitempty"`
	Partial   string   `json:"partial,omitempty"`
}

// UnmarshalJSON accepts a string or an object whose incorrect field is a
// string or a list of strings.
func (f *Feedback) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = Feedback{Correct: s}
		return nil
	}

	var raw struct {
		Correct   string          `json:"correct"`
		Incorrect json.RawMessage `json:"incorrect"`
		Partial   string          `json:"partial"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("feedback must be a string or object: %w", err)
	}

	out := Feedback{Correct: raw.Correct, Partial: raw.Partial}
	if len(raw.Incorrect) > 0 && string(raw.Incorrect) != "null" {
		var one string
		if err := json.Unmarshal(raw.Incorrect, &one); err == nil {
			out.Incorrect = []string{one}
		} else if err := json.Unmarshal(raw.Incorrect, &out.Incorrect); err != nil {
			return fmt.Errorf("feedback.incorrect must be a string or list: %w", err)
		}
	}
	*f = out
	return nil
}

// Validate checks the card's type and interactive kind.
func (c *Card) Validate() error {
	if c.ID == "" {
		return ErrCardIDEmpty
	}

	switch c.Type {
	case CardTypeIntro, CardTypeObjective, CardTypeIDo, CardTypeYouDo, CardTypeSummary:
	default:
		return fmt.Errorf("%w: %q", ErrCardTypeInvalid, c.Type)
	}

	if c.Interactive != nil {
		switch c.Interactive.Kind {
		case InteractiveQuiz, InteractiveInput, InteractivePractice:
		default:
			return fmt.Errorf("%w: %q", ErrInteractiveInvalid, c.Interactive.Kind)
		}
	}

	return nil
}

// LessonContent is the ordered card sequence of one lesson.
type LessonContent struct {
	Cards      []Card `json:"cards"`
	TotalCards int    `json:"totalCards"`
}

// Validate checks that the lesson has cards and that each card is valid.
// A missing total is filled from the card count.
func (lc *LessonContent) Validate() error {
	if len(lc.Cards) == 0 {
		return ErrLessonContentEmpty
	}
	if lc.TotalCards == 0 {
		lc.TotalCards = len(lc.Cards)
	}
	if lc.TotalCards != len(lc.Cards) {
		return fmt.Errorf("%w: total %d, cards %d", ErrLessonCardsMismatch, lc.TotalCards, len(lc.Cards))
	}
	for i := range lc.Cards {
		if err := lc.Cards[i].Validate(); err != nil {
			return fmt.Errorf("card %d: %w", i, err)
		}
	}
	return nil
}
