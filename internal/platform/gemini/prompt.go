package gemini

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/phrazzld/sciencepath/internal/domain/curriculum"
	"github.com/phrazzld/sciencepath/internal/generation"
)

//go:embed prompt.tmpl
var defaultPrompt string

// promptData represents the data passed to the prompt template
type promptData struct {
	TopicID       string
	TopicName     string
	Numbering     string
	LessonNumber  int
	Prerequisites []string
}

// loadTemplate parses the template at path, or the built-in one when path
// is empty.
func loadTemplate(path string) (*template.Template, error) {
	text := defaultPrompt
	if path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read prompt template from %s: %v",
				generation.ErrInvalidConfig, path, err)
		}
		text = string(content)
	}

	tmpl, err := template.New("lesson").Funcs(template.FuncMap{"join": strings.Join}).Parse(text)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse prompt template: %v",
			generation.ErrInvalidConfig, err)
	}
	return tmpl, nil
}

func renderPrompt(tmpl *template.Template, topic curriculum.Topic, n int) (string, error) {
	var buf bytes.Buffer
	err := tmpl.Execute(&buf, promptData{
		TopicID:       topic.ID,
		TopicName:     topic.Name,
		Numbering:     topic.Numbering,
		LessonNumber:  n,
		Prerequisites: topic.Prerequisites,
	})
	if err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}
	return buf.String(), nil
}
