package catalog

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/phrazzld/sciencepath/internal/domain"
	"github.com/phrazzld/sciencepath/internal/domain/curriculum"
)

// DocumentVersion is the version written by ParseOutline.
const DocumentVersion = "1.0"

const prerequisitesPrefix = "Prerequisites:"

var headingPattern = regexp.MustCompile(`^([\d.]+)\.\s+(.+)$`)

// ParseOutline converts a numbered outline into a curriculum document.
//
// Each topic is a heading line such as "2.3. Heat". The line right after it
// may list prerequisite topic names as "Prerequisites: A, B" or
// "Prerequisites: None". Other lines are ignored.
func ParseOutline(r io.Reader) (curriculum.Document, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lines = append(lines, strings.TrimSpace(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return curriculum.Document{}, fmt.Errorf("failed to read outline: %w", err)
	}

	doc := curriculum.Document{Topics: []curriculum.Topic{}, Version: DocumentVersion}
	for i, line := range lines {
		match := headingPattern.FindStringSubmatch(line)
		if match == nil {
			continue
		}

		var prereqs []string
		if i+1 < len(lines) {
			prereqs = parsePrerequisites(lines[i+1])
		}

		topic, err := newTopic(match[1], match[2], prereqs)
		if err != nil {
			return curriculum.Document{}, fmt.Errorf("line %d: %w", i+1, err)
		}
		doc.Topics = append(doc.Topics, topic)
	}

	return doc, nil
}

func parsePrerequisites(line string) []string {
	if !strings.HasPrefix(line, prerequisitesPrefix) {
		return []string{}
	}
	text := strings.TrimSpace(strings.TrimPrefix(line, prerequisitesPrefix))
	if text == "None" || text == "" {
		return []string{}
	}

	parts := strings.Split(text, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}

func newTopic(numbering, name string, prereqs []string) (curriculum.Topic, error) {
	id := curriculum.TopicIDFromName(name)
	parts := strings.Split(numbering, ".")

	folder := make([]string, len(parts))
	copy(folder, parts)
	first, err := strconv.Atoi(parts[0])
	if err != nil {
		return curriculum.Topic{}, fmt.Errorf("%w: numbering %q", ErrInvalidDocument, numbering)
	}
	folder[0] = fmt.Sprintf("%02d", first)

	lessons := make([]curriculum.Lesson, 0, domain.LessonsPerTopic)
	for n := 1; n <= domain.LessonsPerTopic; n++ {
		lessons = append(lessons, curriculum.Lesson{ID: fmt.Sprintf("%s-part-%d", id, n), Number: n})
	}

	return curriculum.Topic{
		ID:            id,
		Name:          name,
		Numbering:     numbering,
		Level:         len(parts),
		Prerequisites: prereqs,
		FolderPath:    "plans/" + strings.Join(folder, "-") + "-" + id,
		Lessons:       lessons,
	}, nil
}
