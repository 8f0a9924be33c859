// Package lessonfile serves bundled lesson content from JSON files laid out
// as <folder>/lesson-<n>.json, where folder is the topic's folder path or,
// when that is empty, its id.
package lessonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"strings"

	"github.com/phrazzld/sciencepath/internal/domain"
	"github.com/phrazzld/sciencepath/internal/domain/curriculum"
	"github.com/phrazzld/sciencepath/internal/generation"
)

// Source implements generation.Generator over a file system.
type Source struct {
	fsys   fs.FS
	logger *slog.Logger
}

var _ generation.Generator = (*Source)(nil)

// New returns a Source reading from fsys.
func New(fsys fs.FS, logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.Default()
	}
	return &Source{fsys: fsys, logger: logger.With(slog.String("component", "lesson_files"))}
}

// NewDir returns a Source rooted at dir on the local disk.
func NewDir(dir string, logger *slog.Logger) *Source {
	return New(os.DirFS(dir), logger)
}

// Path returns the file path of lesson n of topic, relative to the root.
func Path(topic curriculum.Topic, n int) string {
	folder := strings.Trim(path.Clean("/"+topic.FolderPath), "/")
	if topic.FolderPath == "" {
		folder = topic.ID
	}
	return path.Join(folder, fmt.Sprintf("lesson-%d.json", n))
}

// GenerateLesson implements generation.Generator.
func (s *Source) GenerateLesson(ctx context.Context, topic curriculum.Topic, n int) (*domain.LessonContent, error) {
	if !domain.ValidLessonNumber(n) {
		return nil, fmt.Errorf("%w: lesson number %d", generation.ErrLessonNotFound, n)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name := Path(topic, n)
	data, err := fs.ReadFile(s.fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", generation.ErrLessonNotFound, name)
		}
		return nil, fmt.Errorf("%w: read %s: %v", generation.ErrGenerationFailed, name, err)
	}

	var content domain.LessonContent
	if err := json.Unmarshal(data, &content); err != nil {
		s.logger.WarnContext(ctx, "malformed lesson file",
			slog.String("path", name),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %s: %v", generation.ErrInvalidResponse, name, err)
	}
	if err := content.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", generation.ErrInvalidResponse, name, err)
	}

	s.logger.DebugContext(ctx, "lesson file loaded",
		slog.String("path", name),
		slog.Int("card_count", len(content.Cards)))
	return &content, nil
}
