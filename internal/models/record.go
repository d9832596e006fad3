// Package models defines the domain types for Othala.
package models

import "time"

// Provider identifies an external metadata catalog.
type Provider string

// Known catalog providers.
const (
	ProviderIGDB    Provider = "igdb"
	ProviderSteam   Provider = "steam"
	ProviderCalibre Provider = "calibre"
	ProviderGitHub  Provider = "github"
)

// Canonical field names shared between catalog records and note headers.
const (
	FieldTitle        = "title"
	FieldPlatforms    = "platforms"
	FieldGenres       = "genres"
	FieldThemes       = "themes"
	FieldFranchises   = "franchises"
	FieldDeveloper    = "developer"
	FieldPublisher    = "publisher"
	FieldReleaseDate  = "release_date"
	FieldWebsites     = "websites"
	FieldSummary      = "summary"
	FieldAuthors      = "authors"
	FieldSeries       = "series"
	FieldSeriesIndex  = "series_index"
	FieldLanguages    = "languages"
	FieldIGDBID       = "igdb_id"
	FieldSteamAppID   = "steam_appid"
	FieldCalibreID    = "calibre_id"
	FieldGitHubRepo   = "github_repo"
	FieldCoverRef     = "cover_ref"
	FieldTags         = "tags"
	FieldImageURL     = "image_url"
	FieldPlaytime     = "playtime_hours"
	FieldCalibreStamp = "calibre_timestamp"
	FieldEnriched     = "enriched"
)

// CatalogRecord is a normalized view of one catalog's response for one item.
// Only fields the provider actually returned are present. Records are built
// fresh on every query and never persisted.
type CatalogRecord struct {
	Provider Provider
	SourceID string
	Fields   map[string]any
}

// Get returns the value for a canonical field name, or nil.
func (r *CatalogRecord) Get(name string) any {
	if r == nil || r.Fields == nil {
		return nil
	}
	return r.Fields[name]
}

// Header is the structured frontmatter block of one note: a mapping from
// field name to semantic value (string, list of strings, number).
type Header map[string]any

// Clone returns a shallow copy of the header. Values are shared; callers
// replacing list values must assign new slices rather than mutate in place.
func (h Header) Clone() Header {
	out := make(Header, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}

// StringSlice coerces a header or record value into a list of strings.
// Scalars become a single-element list; non-string list items are skipped.
func StringSlice(v any) []string {
	switch val := v.(type) {
	case nil:
		return nil
	case []string:
		return val
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		if val == "" {
			return nil
		}
		return []string{val}
	default:
		return nil
	}
}

// IsEmptyValue reports whether v counts as "no value supplied" for merge
// purposes: nil, empty string, or an empty list.
func IsEmptyValue(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case []string:
		return len(val) == 0
	case []any:
		return len(val) == 0
	default:
		return false
	}
}

// DocumentMeta is a lightweight representation returned by list operations.
type DocumentMeta struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}
