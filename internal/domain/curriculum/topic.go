// Package curriculum holds the static topic graph and the rules that decide
// which topics a learner may work on next.
package curriculum

import (
	"fmt"
	"strings"
)

// Lesson is one of a topic's fixed lessons.
type Lesson struct {
	ID     string `json:"id"     yaml:"id"`
	Number int    `json:"number" yaml:"number"`
}

// Topic is a static curriculum unit. Prerequisites are topic names, not ids,
// and are resolved by exact name match.
type Topic struct {
	ID            string   `json:"id"            yaml:"id"            validate:"required"`
	Name          string   `json:"name"          yaml:"name"          validate:"required"`
	Numbering     string   `json:"numbering"     yaml:"numbering"     validate:"required"`
	Level         int      `json:"level"         yaml:"level"         validate:"gte=0"`
	Prerequisites []string `json:"prerequisites" yaml:"prerequisites"`
	FolderPath    string   `json:"folderPath"    yaml:"folderPath"`
	Lessons       []Lesson `json:"lessons"       yaml:"lessons"       validate:"len=3"`
}

// Document is the bundled curriculum definition.
type Document struct {
	Topics  []Topic `json:"topics"  yaml:"topics"  validate:"required,dive"`
	Version string  `json:"version" yaml:"version"`
}

// Curriculum is an immutable, indexed view of a Document.
type Curriculum struct {
	topics  []Topic
	byID    map[string]int
	byName  map[string]int
	version string
}

// New indexes the document's topics. When names repeat, the first topic with
// a name wins name lookups, matching a linear find.
func New(doc Document) *Curriculum {
	c := &Curriculum{
		topics:  make([]Topic, len(doc.Topics)),
		byID:    make(map[string]int, len(doc.Topics)),
		byName:  make(map[string]int, len(doc.Topics)),
		version: doc.Version,
	}
	copy(c.topics, doc.Topics)

	for i, t := range c.topics {
		if _, ok := c.byID[t.ID]; !ok {
			c.byID[t.ID] = i
		}
		if _, ok := c.byName[t.Name]; !ok {
			c.byName[t.Name] = i
		}
	}

	return c
}

// Topics returns a copy of the topics in document order.
func (c *Curriculum) Topics() []Topic {
	out := make([]Topic, len(c.topics))
	copy(out, c.topics)
	return out
}

// Version returns the document version string.
func (c *Curriculum) Version() string {
	return c.version
}

// ByID looks a topic up by id.
func (c *Curriculum) ByID(id string) (Topic, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Topic{}, false
	}
	return c.topics[i], true
}

// ByName looks a topic up by exact name.
func (c *Curriculum) ByName(name string) (Topic, bool) {
	i, ok := c.byName[name]
	if !ok {
		return Topic{}, false
	}
	return c.topics[i], true
}

// Warnings lists structural problems that do not stop the curriculum from
// loading: duplicate ids or names and prerequisite names that resolve to no
// topic. Such topics stay locked.
func (c *Curriculum) Warnings() []string {
	var warnings []string

	seenID := make(map[string]bool, len(c.topics))
	seenName := make(map[string]bool, len(c.topics))
	for _, t := range c.topics {
		if seenID[t.ID] {
			warnings = append(warnings, fmt.Sprintf("duplicate topic id %q", t.ID))
		}
		seenID[t.ID] = true

		if seenName[t.Name] {
			warnings = append(warnings, fmt.Sprintf("duplicate topic name %q", t.Name))
		}
		seenName[t.Name] = true

		for _, prereq := range t.Prerequisites {
			if _, ok := c.byName[prereq]; !ok {
				warnings = append(warnings,
					fmt.Sprintf("topic %q requires unknown topic %q", t.ID, prereq))
			}
		}
	}

	return warnings
}

// TopicIDFromName derives a topic id the way the outline converter does:
// runs of whitespace become a single dash.
func TopicIDFromName(name string) string {
	return strings.Join(strings.Fields(name), "-")
}
