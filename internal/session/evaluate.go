package session

import (
	"strconv"
	"strings"

	"github.com/phrazzld/sciencepath/internal/domain"
)

// Fallback messages when a card carries no feedback of its own.
const (
	DefaultCorrect           = "Correct!"
	DefaultIncorrect         = "Not quite. Try again!"
	DefaultPracticeCorrect   = "Great work!"
	DefaultPracticeIncorrect = "Try again!"
)

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Evaluate reports whether answer satisfies the interactive section.
//
// Quiz answers are option indices and compare as integers. Input answers
// compare trimmed and case-folded against the correct answer. Practice
// answers also accept any of the listed alternatives.
func Evaluate(in *domain.Interactive, answer string) bool {
	if in == nil {
		return true
	}

	switch in.Kind {
	case domain.InteractiveQuiz:
		want, ok := in.CorrectAnswer.Index()
		if !ok {
			return false
		}
		got, err := strconv.Atoi(strings.TrimSpace(answer))
		return err == nil && got == want

	case domain.InteractivePractice:
		got := normalize(answer)
		if got == "" {
			return false
		}
		if got == normalize(string(in.CorrectAnswer)) {
			return true
		}
		for _, alt := range in.Alternatives {
			if got == normalize(alt) {
				return true
			}
		}
		return false

	default:
		got := normalize(answer)
		return got != "" && got == normalize(string(in.CorrectAnswer))
	}
}

// FeedbackMessage picks the message shown after evaluating answer.
func FeedbackMessage(in *domain.Interactive, answer string, correct bool) string {
	if in == nil {
		return ""
	}

	fb := in.Feedback
	if fb == nil {
		fb = &domain.Feedback{}
	}

	if correct {
		switch {
		case fb.Correct != "":
			return fb.Correct
		case in.Kind == domain.InteractivePractice:
			return DefaultPracticeCorrect
		default:
			return DefaultCorrect
		}
	}

	if in.Kind == domain.InteractiveQuiz && len(fb.Incorrect) > 0 {
		if i, err := strconv.Atoi(strings.TrimSpace(answer)); err == nil && i >= 0 && i < len(fb.Incorrect) && fb.Incorrect[i] != "" {
			return fb.Incorrect[i]
		}
	}
	if len(fb.Incorrect) > 0 && fb.Incorrect[0] != "" {
		return fb.Incorrect[0]
	}
	if in.Kind == domain.InteractivePractice {
		return DefaultPracticeIncorrect
	}
	return DefaultIncorrect
}
