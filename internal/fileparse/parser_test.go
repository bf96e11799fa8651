package fileparse

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHeadings(t *testing.T) {
	raw := "# Header.tsx\n\nexport function Header() {}\n\n## styles.css\n\n.header { color: red; }\n\n### notes.md\n\nSome notes."

	files := Parse(raw)
	require.Len(t, files, 3)

	assert.Equal(t, "Header.tsx", files[0].Name)
	assert.Equal(t, "export function Header() {}", files[0].Content)
	assert.Equal(t, "code", files[0].Kind)
	assert.Equal(t, "/generated/Header.tsx", files[0].Path)

	assert.Equal(t, "styles.css", files[1].Name)
	assert.Equal(t, ".header { color: red; }", files[1].Content)
	assert.Equal(t, "stylesheet", files[1].Kind)

	assert.Equal(t, "notes.md", files[2].Name)
	assert.Equal(t, "Some notes.", files[2].Content)
	assert.Equal(t, "markdown", files[2].Kind)
}

func TestParsePreservesHeadingOrder(t *testing.T) {
	raw := "# b.ts\n\nsecond\n\n# a.ts\n\nfirst"

	files := Parse(raw)
	require.Len(t, files, 2)
	assert.Equal(t, "b.ts", files[0].Name)
	assert.Equal(t, "a.ts", files[1].Name)
}

func TestParseIgnoresNonFilenameHeadings(t *testing.T) {
	// Headings whose text is not a filename belong to the surrounding content.
	raw := "# App.tsx\n\n# Overview\n\nexport default function App() {}"

	files := Parse(raw)
	require.Len(t, files, 1)
	assert.Equal(t, "App.tsx", files[0].Name)
	assert.Contains(t, files[0].Content, "# Overview")
	assert.Contains(t, files[0].Content, "export default function App() {}")
}

func TestParseFallbackNoHeadings(t *testing.T) {
	raw := "just a blob of code without any file markers"

	files := Parse(raw)
	require.Len(t, files, len(DefaultFileNames))

	var joined strings.Builder
	for i, f := range files {
		assert.Equal(t, DefaultFileNames[i], f.Name)
		joined.WriteString(f.Content)
	}
	// Partitioning must not lose or duplicate a single character.
	assert.Equal(t, raw, joined.String())
}

func TestParseFallbackMultibyte(t *testing.T) {
	raw := "héllo wörld, ünïcode content ✓"

	files := Parse(raw)
	require.Len(t, files, len(DefaultFileNames))

	var joined strings.Builder
	for _, f := range files {
		joined.WriteString(f.Content)
	}
	assert.Equal(t, raw, joined.String())
}

func TestParseEmptyInput(t *testing.T) {
	files := Parse("")
	require.Len(t, files, len(DefaultFileNames))
	for _, f := range files {
		assert.Empty(t, f.Content)
		assert.NotEmpty(t, f.ID)
	}
}

func TestParseAssignsUniqueIDs(t *testing.T) {
	files := Parse("# a.ts\n\nx\n\n# b.ts\n\ny")
	require.Len(t, files, 2)
	assert.NotEmpty(t, files[0].ID)
	assert.NotEqual(t, files[0].ID, files[1].ID)
}

func TestSerializeRoundTrip(t *testing.T) {
	original := []GeneratedFile{
		{Name: "App.tsx", Content: "export default function App() {}"},
		{Name: "styles.css", Content: ".app { margin: 0; }"},
	}

	parsed := Parse(Serialize(original))
	require.Len(t, parsed, len(original))
	for i := range original {
		assert.Equal(t, original[i].Name, parsed[i].Name)
		assert.Equal(t, original[i].Content, parsed[i].Content)
	}
}

func TestKindForName(t *testing.T) {
	assert.Equal(t, "markdown", KindForName("README.md"))
	assert.Equal(t, "json", KindForName("package.json"))
	assert.Equal(t, "stylesheet", KindForName("styles.css"))
	assert.Equal(t, "stylesheet", KindForName("theme.scss"))
	assert.Equal(t, "code", KindForName("App.tsx"))
	assert.Equal(t, "code", KindForName("index.html"))
}
