package curriculum

import (
	"slices"
	"strconv"
	"strings"
)

// ProgressView is the read side of a learner's ledger that the resolver
// needs.
type ProgressView interface {
	IsTopicComplete(topicID string) bool
	CompletedLessonCount(topicID string) int
}

// Available returns the topics a learner can work on now, in display order.
//
// A topic is available when it is not complete and every prerequisite name
// resolves to a completed topic. Names that match no topic fail closed. The
// result is sorted by completed lesson count (fewest first), then level,
// then numbering compared as dotted numbers. The full list is returned.
func Available(topics []Topic, progress ProgressView) []Topic {
	byName := make(map[string]Topic, len(topics))
	for _, t := range topics {
		if _, ok := byName[t.Name]; !ok {
			byName[t.Name] = t
		}
	}

	available := make([]Topic, 0, len(topics))
	for _, t := range topics {
		if progress.IsTopicComplete(t.ID) {
			continue
		}
		if !prerequisitesMet(t, byName, progress) {
			continue
		}
		available = append(available, t)
	}

	slices.SortStableFunc(available, func(a, b Topic) int {
		ac, bc := progress.CompletedLessonCount(a.ID), progress.CompletedLessonCount(b.ID)
		if ac != bc {
			return ac - bc
		}
		if a.Level != b.Level {
			return a.Level - b.Level
		}
		return CompareNumbering(a.Numbering, b.Numbering)
	})

	return available
}

func prerequisitesMet(t Topic, byName map[string]Topic, progress ProgressView) bool {
	for _, name := range t.Prerequisites {
		prereq, ok := byName[name]
		if !ok || !progress.IsTopicComplete(prereq.ID) {
			return false
		}
	}
	return true
}

// CompareNumbering orders dotted numberings segment by segment, numerically
// where both segments are numbers ("2.9" < "2.10"). A numbering that is a
// prefix of another sorts first. Non-numeric segments compare as strings.
func CompareNumbering(a, b string) int {
	as := strings.Split(strings.Trim(a, "."), ".")
	bs := strings.Split(strings.Trim(b, "."), ".")

	for i := 0; i < len(as) && i < len(bs); i++ {
		if c := compareSegment(as[i], bs[i]); c != 0 {
			return c
		}
	}

	return len(as) - len(bs)
}

func compareSegment(a, b string) int {
	an, aErr := strconv.Atoi(a)
	bn, bErr := strconv.Atoi(b)
	switch {
	case aErr == nil && bErr == nil:
		return an - bn
	case aErr == nil:
		return -1
	case bErr == nil:
		return 1
	default:
		return strings.Compare(a, b)
	}
}
