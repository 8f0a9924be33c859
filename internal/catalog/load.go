package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/phrazzld/sciencepath/internal/domain"
	"github.com/phrazzld/sciencepath/internal/domain/curriculum"
)

// Format names a curriculum document encoding.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ErrInvalidDocument is returned when a curriculum document cannot be
// decoded or fails validation.
var ErrInvalidDocument = errors.New("invalid curriculum document")

// FormatFromPath picks the format from a file extension. Anything other
// than .yaml or .yml is treated as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Load reads and decodes the curriculum at path. Structural warnings are
// logged and do not fail the load.
func Load(path string, logger *slog.Logger) (*curriculum.Curriculum, error) {
	if logger == nil {
		logger = slog.Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read curriculum %s: %w", path, err)
	}

	doc, err := Decode(data, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	c := curriculum.New(doc)
	for _, w := range c.Warnings() {
		logger.Warn("curriculum warning", slog.String("path", path), slog.String("warning", w))
	}
	logger.Info("curriculum loaded",
		slog.String("path", path),
		slog.String("version", c.Version()),
		slog.Int("topic_count", len(doc.Topics)))

	return c, nil
}

// Decode parses and validates a curriculum document.
func Decode(data []byte, format Format) (curriculum.Document, error) {
	var doc curriculum.Document

	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return doc, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(&doc); err != nil {
			return doc, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}
	default:
		return doc, fmt.Errorf("%w: unknown format %q", ErrInvalidDocument, format)
	}

	if err := domain.Validator().Struct(doc); err != nil {
		return doc, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return doc, nil
}

// Encode renders doc in format: indented JSON, or YAML with two-space
// indentation. Output ends with a newline.
func Encode(doc curriculum.Document, format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return nil, fmt.Errorf("failed to encode curriculum: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("failed to encode curriculum: %w", err)
		}
		return buf.Bytes(), nil
	case FormatJSON:
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode curriculum: %w", err)
		}
		return append(data, '\n'), nil
	default:
		return nil, fmt.Errorf("%w: unknown format %q", ErrInvalidDocument, format)
	}
}
