package domain

import (
	"fmt"
	"slices"
)

// LessonsPerTopic is the fixed number of lessons in every topic.
const LessonsPerTopic = 3

// Ledger is a learner's durable record of completed lessons and topics and
// the last viewed card position per lesson.
//
// A topic appears in CompletedTopics iff its CompletedLessons entry holds
// every lesson number from 1 to LessonsPerTopic.
type Ledger struct {
	CompletedTopics  []string         `json:"completedTopics"`
	CompletedLessons map[string][]int `json:"completedLessons"`
	CurrentPosition  map[string]int   `json:"currentPosition"`
}

// NewLedger returns an empty ledger.
func NewLedger() Ledger {
	return Ledger{
		CompletedTopics:  []string{},
		CompletedLessons: map[string][]int{},
		CurrentPosition:  map[string]int{},
	}
}

// LessonID builds the composite identifier of a lesson within a topic.
func LessonID(topicID string, lessonNumber int) string {
	return fmt.Sprintf("%s-%d", topicID, lessonNumber)
}

// ValidLessonNumber reports whether n names one of a topic's lessons.
func ValidLessonNumber(n int) bool {
	return n >= 1 && n <= LessonsPerTopic
}

// Normalize fills nil collections so a decoded ledger behaves like an empty
// one. Stored data is otherwise trusted as-is.
func (l *Ledger) Normalize() {
	if l.CompletedTopics == nil {
		l.CompletedTopics = []string{}
	}
	if l.CompletedLessons == nil {
		l.CompletedLessons = map[string][]int{}
	}
	if l.CurrentPosition == nil {
		l.CurrentPosition = map[string]int{}
	}
}

// Clone returns a deep copy of the ledger.
func (l Ledger) Clone() Ledger {
	out := NewLedger()
	out.CompletedTopics = append(out.CompletedTopics, l.CompletedTopics...)
	for topicID, lessons := range l.CompletedLessons {
		out.CompletedLessons[topicID] = slices.Clone(lessons)
	}
	for lessonID, index := range l.CurrentPosition {
		out.CurrentPosition[lessonID] = index
	}
	return out
}

// MarkLessonComplete records lesson n of topicID as complete and promotes the
// topic once all of its lessons are recorded. Repeating a call is a no-op.
func (l *Ledger) MarkLessonComplete(topicID string, n int) {
	l.Normalize()

	lessons := l.CompletedLessons[topicID]
	if !slices.Contains(lessons, n) {
		lessons = append(slices.Clone(lessons), n)
		slices.Sort(lessons)
		l.CompletedLessons[topicID] = lessons
	}

	if l.allLessonsDone(topicID) && !l.IsTopicComplete(topicID) {
		l.CompletedTopics = append(l.CompletedTopics, topicID)
	}
}

func (l Ledger) allLessonsDone(topicID string) bool {
	for n := 1; n <= LessonsPerTopic; n++ {
		if !l.IsLessonComplete(topicID, n) {
			return false
		}
	}
	return true
}

// SetPosition overwrites the saved card index for lessonID.
func (l *Ledger) SetPosition(lessonID string, cardIndex int) {
	l.Normalize()
	l.CurrentPosition[lessonID] = cardIndex
}

// Position returns the saved card index for lessonID.
func (l Ledger) Position(lessonID string) (int, bool) {
	index, ok := l.CurrentPosition[lessonID]
	return index, ok
}

// CompletedLessonsFor returns the recorded lesson numbers of topicID, or an
// empty slice.
func (l Ledger) CompletedLessonsFor(topicID string) []int {
	lessons, ok := l.CompletedLessons[topicID]
	if !ok {
		return []int{}
	}
	return slices.Clone(lessons)
}

// CompletedLessonCount implements curriculum.ProgressView.
func (l Ledger) CompletedLessonCount(topicID string) int {
	return len(l.CompletedLessons[topicID])
}

// IsTopicComplete reports whether topicID is in the completed topic set.
func (l Ledger) IsTopicComplete(topicID string) bool {
	return slices.Contains(l.CompletedTopics, topicID)
}

// IsLessonComplete reports whether lesson n of topicID is recorded.
func (l Ledger) IsLessonComplete(topicID string, n int) bool {
	return slices.Contains(l.CompletedLessons[topicID], n)
}

// NextLesson returns the lowest-numbered lesson of topicID that is not yet
// complete. It returns false once all lessons are complete.
func (l Ledger) NextLesson(topicID string) (int, bool) {
	for n := 1; n <= LessonsPerTopic; n++ {
		if !l.IsLessonComplete(topicID, n) {
			return n, true
		}
	}
	return 0, false
}
