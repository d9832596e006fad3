// Package tagutil normalizes arbitrary labels into the restricted tag
// alphabet [a-z0-9-_] used for note classification.
package tagutil

import (
	"regexp"
	"strings"
)

var (
	parenRe   = regexp.MustCompile(`\(([^)]+)\)`)
	invalidRe = regexp.MustCompile(`[^a-zA-Z0-9\-_]`)
	hyphenRe  = regexp.MustCompile(`-+`)
)

// Canonicalize reduces a raw label to a canonical tag. Labels that reduce
// to nothing yield the empty string. The function is pure and idempotent:
// an already-canonical tag comes back unchanged.
func Canonicalize(label string) string {
	// Hierarchical prefixes like "genre/action" keep only the last segment.
	if i := strings.LastIndex(label, "/"); i >= 0 {
		label = label[i+1:]
	}

	// "Turn-Based Strategy (TBS)" -> "Turn-Based Strategy-TBS".
	label = parenRe.ReplaceAllString(label, `-$1`)

	label = strings.ReplaceAll(label, "'", "")
	label = strings.ReplaceAll(label, `"`, "")
	label = strings.ReplaceAll(label, "&", "-and-")

	// Whitespace runs collapse to a single hyphen.
	label = strings.Join(strings.Fields(label), "-")

	label = invalidRe.ReplaceAllString(label, "")
	label = strings.ToLower(label)
	label = hyphenRe.ReplaceAllString(label, "-")
	return strings.Trim(label, "-")
}

// CanonicalizeSet canonicalizes every label, drops empties, and removes
// duplicates while preserving first-seen order.
func CanonicalizeSet(labels []string) []string {
	seen := make(map[string]struct{}, len(labels))
	var out []string
	for _, l := range labels {
		tag := Canonicalize(l)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
