// Package patch applies reconciliation results to note bodies. The body is
// opaque except for one well-known section: Cover Art.
package patch

import (
	"fmt"
	"strings"
)

const coverHeading = "cover art"

// DefaultAnchors are the section headings a Cover Art section is inserted
// after, in preference order.
var DefaultAnchors = []string{"Game Details", "Book Information", "Repository Details"}

// Apply inserts a Cover Art section referencing imageRef into body. The
// section goes immediately after the first anchor section; with no anchor
// present it is prepended. A body that already has a Cover Art heading is
// returned unmodified, so re-running reconciliation never duplicates the
// section. An empty imageRef is a no-op.
func Apply(body, imageRef string, anchors []string) string {
	if imageRef == "" {
		return body
	}
	if hasCoverSection(body) {
		return body
	}

	section := coverSection(imageRef)
	lines := strings.Split(body, "\n")

	if end := anchorSectionEnd(lines, anchors); end >= 0 {
		var b strings.Builder
		b.WriteString(strings.Join(lines[:end], "\n"))
		if end > 0 {
			b.WriteString("\n")
		}
		b.WriteString(section)
		b.WriteString(strings.Join(lines[end:], "\n"))
		return b.String()
	}

	return section + body
}

// hasCoverSection reports whether any heading line matches "Cover Art",
// case-insensitively.
func hasCoverSection(body string) bool {
	for _, line := range strings.Split(body, "\n") {
		if heading, ok := headingText(line); ok && strings.EqualFold(heading, coverHeading) {
			return true
		}
	}
	return false
}

// anchorSectionEnd returns the line index just past the anchor section:
// the start of the next heading after the first matching anchor, or the
// end of the body when the anchor section runs to the end. Returns -1 when
// no anchor heading is present.
func anchorSectionEnd(lines []string, anchors []string) int {
	start := -1
	for i, line := range lines {
		heading, ok := headingText(line)
		if !ok {
			continue
		}
		if start >= 0 {
			return i
		}
		for _, a := range anchors {
			if strings.EqualFold(heading, a) {
				start = i
				break
			}
		}
	}
	if start >= 0 {
		return len(lines)
	}
	return -1
}

// headingText extracts the text of a Markdown heading line, stripping
// leading # markers and surrounding emoji/space noise.
func headingText(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "#") {
		return "", false
	}
	text := strings.TrimSpace(strings.TrimLeft(trimmed, "#"))
	// Headings like "## 📖 Book Information" carry a leading emoji.
	if i := strings.IndexFunc(text, func(r rune) bool {
		return r < 128
	}); i > 0 {
		text = strings.TrimSpace(text[i:])
	}
	return strings.ToLower(text), true
}

func coverSection(imageRef string) string {
	return fmt.Sprintf("## Cover Art\n![[%s]]\n\n", imageRef)
}
