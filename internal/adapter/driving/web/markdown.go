package web

import (
	"bytes"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/ericfisherdev/reviewchecker/internal/application"
)

var (
	mdRenderer    goldmark.Markdown
	htmlSanitizer *bluemonday.Policy
)

func init() {
	mdRenderer = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(gmhtml.WithUnsafe(), gmhtml.WithHardWraps()),
	)

	htmlSanitizer = bluemonday.UGCPolicy()
}

// RenderMarkdown converts a reply body written in GitHub-flavored markdown
// to sanitized HTML. Returns empty string for blank input.
func RenderMarkdown(src string) string {
	if strings.TrimSpace(src) == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(src), &buf); err != nil {
		return htmlSanitizer.Sanitize(html.EscapeString(src))
	}

	return htmlSanitizer.Sanitize(buf.String())
}

// RenderDiffHunk converts a (possibly truncated) diff hunk into HTML with one
// span per line. Classes: diff-header for "@@" lines, diff-add, diff-del,
// diff-elided for the truncation marker, and diff-ctx otherwise. Line text is
// escaped, never interpreted.
func RenderDiffHunk(hunk string) string {
	if hunk == "" {
		return ""
	}

	lines := strings.Split(hunk, "\n")
	var buf strings.Builder
	buf.Grow(len(hunk) * 2)

	for i, line := range lines {
		if i > 0 {
			buf.WriteByte('\n')
		}

		buf.WriteString(`<span class="`)
		buf.WriteString(classForDiffLine(line))
		buf.WriteString(`">`)
		buf.WriteString(html.EscapeString(line))
		buf.WriteString(`</span>`)
	}

	return buf.String()
}

func classForDiffLine(line string) string {
	switch {
	case line == application.HunkElisionMarker:
		return "diff-elided"
	case strings.HasPrefix(line, "@@"):
		return "diff-header"
	case strings.HasPrefix(line, "+"):
		return "diff-add"
	case strings.HasPrefix(line, "-"):
		return "diff-del"
	default:
		return "diff-ctx"
	}
}
