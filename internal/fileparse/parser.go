// Package fileparse splits a single model response into named files.
//
// The format is a best-effort text convention, version 1: a markdown heading
// line whose text is a bare filename with a recognized extension starts a new
// file; the file's content runs until the next heading or end of text. When
// no headings are found the raw text is partitioned evenly across a fixed
// default file list so no content is lost.
package fileparse

import (
	"path"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// GeneratedFile is one file recovered from a model response. Order is
// meaningful: the first file is conventionally the display entry point.
type GeneratedFile struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Content string `json:"content"`
	Path    string `json:"path"`
	Kind    string `json:"kind"`
}

// DefaultFileNames is the fallback partition used when a response contains no
// file headings.
var DefaultFileNames = []string{"App.tsx", "components.tsx", "styles.css", "README.md"}

// headingPattern matches a heading line whose text is a bare filename:
// one to three '#' marks, whitespace, then a name ending in a known extension.
var headingPattern = regexp.MustCompile(`(?m)^#{1,3}[ \t]+([\w.\-]+\.(?:tsx|ts|jsx|js|css|scss|html|json|md|vue|svelte))[ \t]*$`)

// Parse splits rawText into generated files. It never returns an empty list:
// with zero headings the default file list is produced, each file holding an
// even share of the text (all of it empty when rawText is empty).
func Parse(rawText string) []GeneratedFile {
	matches := headingPattern.FindAllStringSubmatchIndex(rawText, -1)
	if len(matches) == 0 {
		return fallbackPartition(rawText)
	}

	files := make([]GeneratedFile, 0, len(matches))
	for i, m := range matches {
		name := rawText[m[2]:m[3]]

		contentStart := m[1]
		contentEnd := len(rawText)
		if i+1 < len(matches) {
			contentEnd = matches[i+1][0]
		}

		files = append(files, newFile(name, strings.TrimSpace(rawText[contentStart:contentEnd])))
	}
	return files
}

// fallbackPartition assigns every character of rawText to exactly one default
// file: N near-equal rune chunks, no overlap, no gap.
func fallbackPartition(rawText string) []GeneratedFile {
	runes := []rune(rawText)
	n := len(DefaultFileNames)
	files := make([]GeneratedFile, 0, n)

	chunk := len(runes) / n
	rem := len(runes) % n

	start := 0
	for i, name := range DefaultFileNames {
		size := chunk
		if i < rem {
			size++
		}
		files = append(files, newFile(name, string(runes[start:start+size])))
		start += size
	}
	return files
}

// Serialize renders files back into the heading-delimited format, suitable
// for feeding a revision request.
func Serialize(files []GeneratedFile) string {
	var sb strings.Builder
	for i, f := range files {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString("# ")
		sb.WriteString(f.Name)
		sb.WriteString("\n\n")
		sb.WriteString(f.Content)
	}
	return sb.String()
}

func newFile(name, content string) GeneratedFile {
	return GeneratedFile{
		ID:      uuid.NewString(),
		Name:    name,
		Content: content,
		Path:    "/generated/" + name,
		Kind:    KindForName(name),
	}
}

// KindForName classifies a filename by extension.
func KindForName(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".md":
		return "markdown"
	case ".json":
		return "json"
	case ".css", ".scss":
		return "stylesheet"
	default:
		return "code"
	}
}
