package memdoc

import (
	"strings"

	"github.com/kochmarvin/docedit/internal/host"
)

// FromMarkdown builds a document from Markdown-ish source: ATX headings
// (# through ###, deeper levels clamp to Heading3) become heading
// paragraphs, every other line becomes a normal paragraph. Blank lines are
// kept as empty paragraphs so the loaded document preserves the source
// layout; the semantic extractor skips them.
func FromMarkdown(src string) *Document {
	d := New()
	for _, line := range strings.Split(strings.TrimRight(src, "\n"), "\n") {
		if level, text, ok := headingLine(line); ok {
			d.AppendParagraph(text, host.HeadingStyle(level))
			continue
		}
		d.AppendParagraph(strings.TrimRight(line, " \t"), host.StyleNormal)
	}
	return d
}

// headingLine parses an ATX heading. A space after the hashes is required;
// lines with four or more leading spaces are indented code, not headings.
func headingLine(line string) (level int, text string, ok bool) {
	leading := 0
	for leading < len(line) && line[leading] == ' ' {
		leading++
	}
	if leading >= 4 {
		return 0, "", false
	}
	t := strings.TrimSpace(line)
	hashes := 0
	for hashes < len(t) && t[hashes] == '#' {
		hashes++
	}
	if hashes == 0 || hashes > 6 || hashes >= len(t) || t[hashes] != ' ' {
		return 0, "", false
	}
	return hashes, strings.TrimSpace(t[hashes:]), true
}

// Markdown renders the document back to Markdown, inverse of FromMarkdown.
func (d *Document) Markdown() string {
	var sb strings.Builder
	for n := d.head; n != nil; n = n.next {
		if lvl := n.style.HeadingLevel(); lvl > 0 {
			sb.WriteString(strings.Repeat("#", lvl))
			sb.WriteString(" ")
		}
		sb.WriteString(n.text)
		sb.WriteString("\n")
	}
	return sb.String()
}
