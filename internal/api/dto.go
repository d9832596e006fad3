package api

import (
	"github.com/starford/othala/internal/enrich"
	"github.com/starford/othala/internal/index"
)

// CreateDocumentRequest is the request body for creating a document.
type CreateDocumentRequest struct {
	Path    string `json:"path" example:"games/doom.md" validate:"required"`
	Content string `json:"content" example:"---\ntitle: Doom\n---\n# Doom" validate:"required"`
}

// UpdateDocumentRequest is the request body for updating a document.
type UpdateDocumentRequest struct {
	Content string `json:"content" example:"# Updated\nContent" validate:"required"`
}

// DocumentListResponse wraps paginated document listings.
type DocumentListResponse struct {
	Documents []DocumentListItem `json:"documents" validate:"required"`
	Total     int                `json:"total" example:"42" validate:"required"`
}

// SearchResponse wraps full-text search results.
type SearchResponse struct {
	Results []index.SearchResult `json:"results" validate:"required"`
}

// AddGameRequest creates a game document from an IGDB id.
type AddGameRequest struct {
	IGDBID string `json:"igdb_id" example:"1942" validate:"required"`
}

// EnrichRequest refreshes one document from its catalogs.
type EnrichRequest struct {
	Path  string `json:"path" example:"games/doom.md" validate:"required"`
	Force bool   `json:"force" example:"false"`
}

// ImportSteamRequest creates a game document from a Steam app id.
type ImportSteamRequest struct {
	AppID int64 `json:"appid" example:"292030" validate:"required"`
}

// ImportBookRequest creates a book document from a Calibre id.
type ImportBookRequest struct {
	CalibreID string `json:"calibre_id" example:"17" validate:"required"`
}

// ImportRepoRequest creates a repository document from a GitHub name.
type ImportRepoRequest struct {
	Repo string `json:"repo" example:"gorilla/mux" validate:"required"`
}

// SyncRequest triggers a library-wide sync. MinPlaytimeHours, Limit, and
// DryRun only apply to the Steam sync; Limit also caps the Calibre sync.
type SyncRequest struct {
	Force            bool    `json:"force" example:"false"`
	DryRun           bool    `json:"dry_run" example:"false"`
	MinPlaytimeHours float64 `json:"min_playtime_hours" example:"2"`
	Limit            int     `json:"limit" example:"100"`
}

// EnrichResult is the outcome of a create/refresh operation.
type EnrichResult = enrich.Result

// SyncReport summarizes a library-wide sync run.
type SyncReport = enrich.SyncReport

// PropertyOverview summarizes frontmatter property usage across the vault.
type PropertyOverview = enrich.PropertyOverview

// VaultStats carries document counts by kind.
type VaultStats = enrich.VaultStats
