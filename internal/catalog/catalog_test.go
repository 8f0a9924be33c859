package catalog_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/sciencepath/internal/catalog"
	"github.com/phrazzld/sciencepath/internal/domain/curriculum"
	"github.com/phrazzld/sciencepath/internal/platform/logger"
)

const outline = `Physical Science Outline

1. States of Matter
Prerequisites: None

2. Energy
Prerequisites: None
2.3. Heat
Prerequisites: States of Matter, Energy
  2.3.1. Heat Transfer by Conduction
Prerequisites: Heat
`

func TestParseOutline(t *testing.T) {
	t.Parallel()
	doc, err := catalog.ParseOutline(strings.NewReader(outline))
	require.NoError(t, err)

	assert.Equal(t, "1.0", doc.Version)
	require.Len(t, doc.Topics, 4)

	matter := doc.Topics[0]
	assert.Equal(t, "States-of-Matter", matter.ID)
	assert.Equal(t, "plans/01-States-of-Matter", matter.FolderPath)
	assert.Equal(t, 1, matter.Level)
	assert.Empty(t, matter.Prerequisites)

	heat := doc.Topics[2]
	assert.Equal(t, curriculum.Topic{
		ID:            "Heat",
		Name:          "Heat",
		Numbering:     "2.3",
		Level:         2,
		Prerequisites: []string{"States of Matter", "Energy"},
		FolderPath:    "plans/02-3-Heat",
		Lessons: []curriculum.Lesson{
			{ID: "Heat-part-1", Number: 1},
			{ID: "Heat-part-2", Number: 2},
			{ID: "Heat-part-3", Number: 3},
		},
	}, heat)

	conduction := doc.Topics[3]
	assert.Equal(t, "Heat-Transfer-by-Conduction", conduction.ID)
	assert.Equal(t, 3, conduction.Level)
	assert.Equal(t, "plans/02-3-1-Heat-Transfer-by-Conduction", conduction.FolderPath)
	assert.Equal(t, []string{"Heat"}, conduction.Prerequisites)

	c := curriculum.New(doc)
	assert.Empty(t, c.Warnings())
}

func TestParseOutline_EncodeDecodeRoundTrip(t *testing.T) {
	t.Parallel()
	doc, err := catalog.ParseOutline(strings.NewReader(outline))
	require.NoError(t, err)

	data, err := catalog.Encode(doc, catalog.FormatJSON)
	require.NoError(t, err)

	decoded, err := catalog.Decode(data, catalog.FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, doc, decoded)
}

func TestDecode_YAML(t *testing.T) {
	t.Parallel()
	data := []byte(`version: "1.0"
topics:
  - id: Heat
    name: Heat
    numbering: "2.3"
    level: 2
    prerequisites: [Energy]
    folderPath: plans/02-3-Heat
    lessons:
      - {id: Heat-part-1, number: 1}
      - {id: Heat-part-2, number: 2}
      - {id: Heat-part-3, number: 3}
`)
	doc, err := catalog.Decode(data, catalog.FormatYAML)
	require.NoError(t, err)
	require.Len(t, doc.Topics, 1)
	assert.Equal(t, "2.3", doc.Topics[0].Numbering)
	assert.Equal(t, []string{"Energy"}, doc.Topics[0].Prerequisites)
}

func TestDecode_Invalid(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name   string
		data   string
		format catalog.Format
	}{
		{name: "broken json", data: `{"topics": [`, format: catalog.FormatJSON},
		{name: "no topics", data: `{"version": "1.0"}`, format: catalog.FormatJSON},
		{name: "topic without id", data: `{"topics": [{"name": "A", "numbering": "1",
			"lessons": [{"id":"a","number":1},{"id":"b","number":2},{"id":"c","number":3}]}]}`,
			format: catalog.FormatJSON},
		{name: "wrong lesson count", data: `{"topics": [{"id": "A", "name": "A", "numbering": "1",
			"lessons": []}]}`, format: catalog.FormatJSON},
		{name: "broken yaml", data: "topics: [", format: catalog.FormatYAML},
		{name: "unknown format", data: `{}`, format: catalog.Format("toml")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := catalog.Decode([]byte(tc.data), tc.format)
			assert.ErrorIs(t, err, catalog.ErrInvalidDocument)
		})
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()
	doc, err := catalog.ParseOutline(strings.NewReader(outline))
	require.NoError(t, err)
	doc.Topics[1].Prerequisites = []string{"Nonexistent"}
	data, err := catalog.Encode(doc, catalog.FormatJSON)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "curriculum.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	l, buf := logger.NewTestLogger()
	c, err := catalog.Load(path, l)
	require.NoError(t, err)

	assert.Len(t, c.Topics(), 4)
	assert.Contains(t, buf.String(), "curriculum warning")
	assert.Contains(t, buf.String(), "Nonexistent")

	_, err = catalog.Load(filepath.Join(t.TempDir(), "missing.json"), l)
	assert.Error(t, err)
}

func TestFormatFromPath(t *testing.T) {
	t.Parallel()
	assert.Equal(t, catalog.FormatYAML, catalog.FormatFromPath("c.YML"))
	assert.Equal(t, catalog.FormatYAML, catalog.FormatFromPath("c.yaml"))
	assert.Equal(t, catalog.FormatJSON, catalog.FormatFromPath("c.json"))
	assert.Equal(t, catalog.FormatJSON, catalog.FormatFromPath("curriculum"))
}

func TestEncode_YAMLRoundTrip(t *testing.T) {
	t.Parallel()
	doc, err := catalog.ParseOutline(strings.NewReader(outline))
	require.NoError(t, err)

	data, err := catalog.Encode(doc, catalog.FormatYAML)
	require.NoError(t, err)
	assert.Contains(t, string(data), "folderPath: plans/")

	back, err := catalog.Decode(data, catalog.FormatYAML)
	require.NoError(t, err)
	require.Len(t, back.Topics, len(doc.Topics))
	for i := range doc.Topics {
		assert.Equal(t, doc.Topics[i].ID, back.Topics[i].ID)
		assert.Equal(t, doc.Topics[i].FolderPath, back.Topics[i].FolderPath)
		assert.Equal(t, doc.Topics[i].Lessons, back.Topics[i].Lessons)
	}

	_, err = catalog.Encode(doc, catalog.Format("toml"))
	assert.ErrorIs(t, err, catalog.ErrInvalidDocument)
}
