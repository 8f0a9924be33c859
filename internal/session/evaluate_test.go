package session_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/phrazzld/sciencepath/internal/domain"
	"github.com/phrazzld/sciencepath/internal/session"
)

func TestEvaluate(t *testing.T) {
	t.Parallel()

	quiz := &domain.Interactive{Kind: domain.InteractiveQuiz, CorrectAnswer: "2", Options: []string{"a", "b", "c"}}
	in := &domain.Interactive{Kind: domain.InteractiveInput, CorrectAnswer: "Photosynthesis"}
	practice := &domain.Interactive{
		Kind:          domain.InteractivePractice,
		CorrectAnswer: "H2O",
		Alternatives:  []string{"water", "dihydrogen monoxide"},
	}

	testCases := []struct {
		name   string
		in     *domain.Interactive
		answer string
		want   bool
	}{
		{"quiz index", quiz, "2", true},
		{"quiz index with spaces", quiz, " 2 ", true},
		{"quiz wrong index", quiz, "1", false},
		{"quiz option text", quiz, "c", false},
		{"quiz empty", quiz, "", false},
		{"input case folded", in, "  photosynthesis ", true},
		{"input wrong", in, "respiration", false},
		{"input empty", in, "", false},
		{"input seven is not 7", &domain.Interactive{Kind: domain.InteractiveInput, CorrectAnswer: "7"}, "seven", false},
		{"practice main answer", practice, "h2o", true},
		{"practice alternative", practice, "WATER", true},
		{"practice other", practice, "ice", false},
		{"no interactive", nil, "", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, session.Evaluate(tc.in, tc.answer))
		})
	}
}

func TestFeedbackMessage(t *testing.T) {
	t.Parallel()

	quiz := &domain.Interactive{
		Kind:          domain.InteractiveQuiz,
		CorrectAnswer: "0",
		Feedback: &domain.Feedback{
			Correct:   "Yes, gravity.",
			Incorrect: []string{"", "Friction slows things down.", ""},
		},
	}
	assert.Equal(t, "Yes, gravity.", session.FeedbackMessage(quiz, "0", true))
	assert.Equal(t, "Friction slows things down.", session.FeedbackMessage(quiz, "1", false))
	assert.Equal(t, session.DefaultIncorrect, session.FeedbackMessage(quiz, "2", false))

	single := &domain.Interactive{Kind: domain.InteractiveInput, Feedback: &domain.Feedback{Incorrect: []string{"Count again."}}}
	assert.Equal(t, "Count again.", session.FeedbackMessage(single, "x", false))
	assert.Equal(t, session.DefaultCorrect, session.FeedbackMessage(single, "x", true))

	practice := &domain.Interactive{Kind: domain.InteractivePractice}
	assert.Equal(t, session.DefaultPracticeCorrect, session.FeedbackMessage(practice, "", true))
	assert.Equal(t, session.DefaultPracticeIncorrect, session.FeedbackMessage(practice, "", false))

	assert.Empty(t, session.FeedbackMessage(nil, "", true))
}
