// Package provenance classifies header fields by ownership and merges
// incoming catalog data into existing headers without touching user data.
package provenance

import (
	"fmt"

	"github.com/starford/othala/internal/apperr"
	"github.com/starford/othala/internal/models"
)

// Ownership governs whether an automated sync may overwrite a field.
type Ownership int

const (
	// OwnershipUser marks fields the merge engine must never touch.
	OwnershipUser Ownership = iota
	// OwnershipSource marks fields fully replaced on every successful sync.
	OwnershipSource
	// OwnershipDerived marks fields recomputed from other fields (tags, cover).
	OwnershipDerived
)

// String returns the ownership name for logging.
func (o Ownership) String() string {
	switch o {
	case OwnershipSource:
		return "source"
	case OwnershipDerived:
		return "derived"
	default:
		return "user"
	}
}

// FieldSpec is the static per-field merge policy.
type FieldSpec struct {
	Name      string
	Ownership Ownership
	// Precedence lists providers in authority order; the first provider
	// supplying a non-empty value for this field wins on merge.
	Precedence []models.Provider
}

var (
	gamePrecedence = []models.Provider{models.ProviderIGDB, models.ProviderSteam}
	steamFirst     = []models.Provider{models.ProviderSteam, models.ProviderIGDB}
	calibreOnly    = []models.Provider{models.ProviderCalibre}
	githubOnly     = []models.Provider{models.ProviderGitHub}
)

// specTable is the single declarative field table shared by every content
// type. Any field name absent from it classifies as user-owned, which is
// what keeps a sync from destroying vault-specific fields it has never
// been told about.
var specTable = []FieldSpec{
	{Name: models.FieldTitle, Ownership: OwnershipSource, Precedence: []models.Provider{models.ProviderIGDB, models.ProviderSteam, models.ProviderCalibre, models.ProviderGitHub}},
	{Name: models.FieldPlatforms, Ownership: OwnershipSource, Precedence: gamePrecedence},
	{Name: models.FieldGenres, Ownership: OwnershipSource, Precedence: gamePrecedence},
	{Name: models.FieldThemes, Ownership: OwnershipSource, Precedence: gamePrecedence},
	{Name: models.FieldFranchises, Ownership: OwnershipSource, Precedence: gamePrecedence},
	{Name: models.FieldDeveloper, Ownership: OwnershipSource, Precedence: gamePrecedence},
	{Name: models.FieldPublisher, Ownership: OwnershipSource, Precedence: []models.Provider{models.ProviderIGDB, models.ProviderSteam, models.ProviderCalibre}},
	{Name: models.FieldReleaseDate, Ownership: OwnershipSource, Precedence: []models.Provider{models.ProviderIGDB, models.ProviderSteam, models.ProviderCalibre}},
	{Name: models.FieldWebsites, Ownership: OwnershipSource, Precedence: []models.Provider{models.ProviderIGDB, models.ProviderGitHub}},
	{Name: models.FieldSummary, Ownership: OwnershipSource, Precedence: []models.Provider{models.ProviderIGDB, models.ProviderSteam, models.ProviderCalibre, models.ProviderGitHub}},
	{Name: "game_modes", Ownership: OwnershipSource, Precedence: gamePrecedence},
	{Name: "player_perspectives", Ownership: OwnershipSource, Precedence: gamePrecedence},
	{Name: models.FieldAuthors, Ownership: OwnershipSource, Precedence: calibreOnly},
	{Name: models.FieldSeries, Ownership: OwnershipSource, Precedence: calibreOnly},
	{Name: models.FieldSeriesIndex, Ownership: OwnershipSource, Precedence: calibreOnly},
	{Name: models.FieldLanguages, Ownership: OwnershipSource, Precedence: calibreOnly},
	{Name: models.FieldIGDBID, Ownership: OwnershipSource, Precedence: []models.Provider{models.ProviderIGDB}},
	{Name: models.FieldSteamAppID, Ownership: OwnershipSource, Precedence: []models.Provider{models.ProviderSteam}},
	{Name: models.FieldCalibreID, Ownership: OwnershipSource, Precedence: calibreOnly},
	{Name: models.FieldGitHubRepo, Ownership: OwnershipSource, Precedence: githubOnly},
	{Name: models.FieldPlaytime, Ownership: OwnershipSource, Precedence: steamFirst},
	{Name: models.FieldCalibreStamp, Ownership: OwnershipSource, Precedence: calibreOnly},
	{Name: "calibre_tags", Ownership: OwnershipSource, Precedence: calibreOnly},
	{Name: "calibre_path", Ownership: OwnershipSource, Precedence: calibreOnly},
	{Name: "stars", Ownership: OwnershipSource, Precedence: githubOnly},
	{Name: "language", Ownership: OwnershipSource, Precedence: githubOnly},
	{Name: "topics", Ownership: OwnershipSource, Precedence: githubOnly},
	{Name: "license", Ownership: OwnershipSource, Precedence: githubOnly},
	{Name: "last_pushed", Ownership: OwnershipSource, Precedence: githubOnly},
	{Name: models.FieldEnriched, Ownership: OwnershipDerived},

	{Name: models.FieldTags, Ownership: OwnershipDerived},
	{Name: models.FieldImageURL, Ownership: OwnershipDerived},

	// User fields are listed explicitly for documentation; classification
	// would default to user anyway.
	{Name: "status", Ownership: OwnershipUser},
	{Name: "play_status", Ownership: OwnershipUser},
	{Name: "reading_status", Ownership: OwnershipUser},
	{Name: "rating", Ownership: OwnershipUser},
	{Name: "notes", Ownership: OwnershipUser},
	{Name: "date_started", Ownership: OwnershipUser},
	{Name: "date_finished", Ownership: OwnershipUser},
}

var specByName map[string]FieldSpec

func init() {
	specByName = make(map[string]FieldSpec, len(specTable))
	for _, s := range specTable {
		specByName[s.Name] = s
	}
}

// ValidateTable checks the static table for duplicate names with
// inconsistent classifications. A conflict is a configuration defect and
// should abort startup rather than surface per-document.
func ValidateTable() error {
	seen := make(map[string]Ownership, len(specTable))
	for _, s := range specTable {
		if prev, ok := seen[s.Name]; ok && prev != s.Ownership {
			return fmt.Errorf("provenance: field %q classified as both %s and %s: %w",
				s.Name, prev, s.Ownership, apperr.ErrConflictingOwnership)
		}
		seen[s.Name] = s.Ownership
	}
	return nil
}

// Classify returns the ownership for a field name. Unknown names are
// user-owned.
func Classify(name string) Ownership {
	if s, ok := specByName[name]; ok {
		return s.Ownership
	}
	return OwnershipUser
}

// Known reports whether the field name appears in the static table.
func Known(name string) bool {
	_, ok := specByName[name]
	return ok
}

// Spec returns the FieldSpec for a name, defaulting to a user-owned spec
// with no precedence for unknown names.
func Spec(name string) FieldSpec {
	if s, ok := specByName[name]; ok {
		return s
	}
	return FieldSpec{Name: name, Ownership: OwnershipUser}
}

// SourceFields returns the names of all source-owned fields in table order.
func SourceFields() []string {
	var out []string
	for _, s := range specTable {
		if s.Ownership == OwnershipSource {
			out = append(out, s.Name)
		}
	}
	return out
}

// MergeHeader merges incoming into existing. Source and derived fields in
// incoming replace the existing values; user fields in incoming are
// discarded. Fields present in existing but absent from incoming are always
// kept: a sync is additive, never subtractive. Derived values in incoming
// are expected to have been freshly computed by their dedicated rules; the
// force flag that controls whether that computation starts from scratch
// lives with those rules, not here.
func MergeHeader(existing, incoming models.Header) models.Header {
	merged := existing.Clone()
	for name, value := range incoming {
		if Classify(name) == OwnershipUser {
			continue
		}
		merged[name] = value
	}
	return merged
}
