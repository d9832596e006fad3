// Package frontmatter splits, parses, and serializes the YAML metadata
// block of vault notes.
package frontmatter

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/starford/othala/internal/apperr"
	"github.com/starford/othala/internal/models"
)

const delim = "---"

// Document is a note split into its header and body.
type Document struct {
	Header models.Header
	Body   string
}

// Parse splits raw note bytes into frontmatter and body. A note without a
// frontmatter block yields a nil header and the whole content as body.
// Invalid YAML inside the block is an ErrMalformedHeader: enrichment must
// refuse to overwrite a header it cannot faithfully reproduce.
func Parse(data []byte) (*Document, error) {
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return &Document{Body: string(data)}, nil
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		// Opening fence with no closing fence.
		return nil, fmt.Errorf("frontmatter: unterminated block: %w", apperr.ErrMalformedHeader)
	}

	yamlBlock := rest[:idx]
	afterDelim := rest[idx+1+len(delim):]
	body := strings.TrimLeft(string(afterDelim), "\n\r")

	var header models.Header
	if err := yaml.Unmarshal(yamlBlock, &header); err != nil {
		return nil, fmt.Errorf("frontmatter: %v: %w", err, apperr.ErrMalformedHeader)
	}

	return &Document{Header: header, Body: body}, nil
}

// ParseLenient is Parse for indexing paths: a malformed header degrades to
// a headerless document instead of an error, so one bad note cannot stall
// a vault walk.
func ParseLenient(data []byte) *Document {
	doc, err := Parse(data)
	if err != nil {
		return &Document{Body: string(data)}
	}
	return doc
}

// Title returns the header title, falling back to the first H1 heading.
func (d *Document) Title() string {
	if d.Header != nil {
		if s, ok := d.Header[models.FieldTitle].(string); ok && s != "" {
			return s
		}
		if s, ok := d.Header["game_title"].(string); ok && s != "" {
			return s
		}
	}
	for _, line := range strings.Split(d.Body, "\n") {
		t := strings.TrimSpace(line)
		if strings.HasPrefix(t, "# ") {
			return strings.TrimSpace(t[2:])
		}
	}
	return ""
}

// Tags returns the header tags as strings.
func (d *Document) Tags() []string {
	if d.Header == nil {
		return nil
	}
	return models.StringSlice(d.Header[models.FieldTags])
}

// fieldOrder places well-known fields first in serialized output so a
// refreshed note diffs cleanly against its previous version.
var fieldOrder = []string{
	models.FieldTitle,
	"game_title",
	models.FieldAuthors,
	models.FieldPlatforms,
	models.FieldGenres,
	models.FieldThemes,
	models.FieldFranchises,
	models.FieldDeveloper,
	models.FieldPublisher,
	models.FieldReleaseDate,
	models.FieldSeries,
	models.FieldSeriesIndex,
	models.FieldLanguages,
	models.FieldWebsites,
	models.FieldIGDBID,
	models.FieldSteamAppID,
	models.FieldCalibreID,
	models.FieldGitHubRepo,
	models.FieldPlaytime,
	models.FieldCalibreStamp,
	models.FieldImageURL,
	models.FieldEnriched,
	models.FieldTags,
}

var fieldRank = func() map[string]int {
	m := make(map[string]int, len(fieldOrder))
	for i, name := range fieldOrder {
		m[name] = i
	}
	return m
}()

// Serialize renders a complete note: header fenced in ---, then body.
// Field order is deterministic (well-known fields first, the rest
// alphabetically) so serialization is idempotent.
func Serialize(header models.Header, body string) ([]byte, error) {
	if len(header) == 0 {
		return []byte(body), nil
	}

	names := make([]string, 0, len(header))
	for name := range header {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		ri, iok := fieldRank[names[i]]
		rj, jok := fieldRank[names[j]]
		switch {
		case iok && jok:
			return ri < rj
		case iok:
			return true
		case jok:
			return false
		default:
			return names[i] < names[j]
		}
	})

	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, name := range names {
		var key, value yaml.Node
		key.SetString(name)
		if err := value.Encode(header[name]); err != nil {
			return nil, fmt.Errorf("frontmatter: encode %s: %w", name, err)
		}
		node.Content = append(node.Content, &key, &value)
	}

	var buf bytes.Buffer
	buf.WriteString(delim + "\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(node); err != nil {
		return nil, fmt.Errorf("frontmatter: encode header: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("frontmatter: close encoder: %w", err)
	}
	buf.WriteString(delim + "\n\n")
	buf.WriteString(body)
	return buf.Bytes(), nil
}
