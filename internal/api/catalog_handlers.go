package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/starford/othala/internal/enrich"
)

// AddGame handles POST /api/games.
//
//	@Summary		Create a game document from an IGDB id
//	@Tags			catalog
//	@Accept			json
//	@Produce		json
//	@Param			body	body		AddGameRequest	true	"IGDB id"
//	@Success		201		{object}	EnrichResult
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/games [post]
func (h *Handler) AddGame(w http.ResponseWriter, r *http.Request) {
	var req AddGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.IGDBID == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("igdb_id is required"))
		return
	}
	res, err := h.enrich.AddGame(r.Context(), req.IGDBID)
	if err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// Enrich handles POST /api/enrich. The document kind picks the catalog
// pipeline: games go through IGDB and Steam, books through Calibre,
// repos through GitHub.
//
//	@Summary		Refresh one document from its catalogs
//	@Tags			catalog
//	@Accept			json
//	@Produce		json
//	@Param			body	body		EnrichRequest	true	"Document to refresh"
//	@Success		200		{object}	EnrichResult
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/enrich [post]
func (h *Handler) Enrich(w http.ResponseWriter, r *http.Request) {
	var req EnrichRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}

	var (
		res any
		err error
	)
	switch {
	case strings.HasPrefix(req.Path, "books/"):
		res, err = h.enrich.UpdateBook(r.Context(), req.Path, req.Force)
	case strings.HasPrefix(req.Path, "repos/"):
		res, err = h.enrich.UpdateRepo(r.Context(), req.Path, req.Force)
	default:
		res, err = h.enrich.EnrichGame(r.Context(), req.Path, req.Force)
	}
	if err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ImportSteam handles POST /api/import/steam.
//
//	@Summary		Create a game document from a Steam app id
//	@Tags			catalog
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ImportSteamRequest	true	"Steam app id"
//	@Success		201		{object}	EnrichResult
//	@Security		BearerAuth
//	@Router			/import/steam [post]
func (h *Handler) ImportSteam(w http.ResponseWriter, r *http.Request) {
	var req ImportSteamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AppID <= 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("appid is required"))
		return
	}
	res, err := h.enrich.ImportSteamGame(r.Context(), req.AppID)
	if err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// ImportBook handles POST /api/import/book.
//
//	@Summary		Create a book document from a Calibre id
//	@Tags			catalog
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ImportBookRequest	true	"Calibre id"
//	@Success		201		{object}	EnrichResult
//	@Security		BearerAuth
//	@Router			/import/book [post]
func (h *Handler) ImportBook(w http.ResponseWriter, r *http.Request) {
	var req ImportBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CalibreID == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("calibre_id is required"))
		return
	}
	res, err := h.enrich.ImportBook(r.Context(), req.CalibreID)
	if err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// ImportRepo handles POST /api/import/repo.
//
//	@Summary		Create a repository document from a GitHub owner/repo name
//	@Tags			catalog
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ImportRepoRequest	true	"Repository name"
//	@Success		201		{object}	EnrichResult
//	@Security		BearerAuth
//	@Router			/import/repo [post]
func (h *Handler) ImportRepo(w http.ResponseWriter, r *http.Request) {
	var req ImportRepoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Repo == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("repo is required"))
		return
	}
	res, err := h.enrich.ImportRepo(r.Context(), req.Repo)
	if err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// SyncSteam handles POST /api/sync/steam.
//
//	@Summary		Import and refresh the whole Steam library
//	@Tags			catalog
//	@Accept			json
//	@Produce		json
//	@Param			body	body		SyncRequest	false	"Sync options"
//	@Success		200		{object}	SyncReport
//	@Security		BearerAuth
//	@Router			/sync/steam [post]
func (h *Handler) SyncSteam(w http.ResponseWriter, r *http.Request) {
	var req SyncRequest
	// Body is optional.
	_ = json.NewDecoder(r.Body).Decode(&req)
	report, err := h.enrich.SyncSteamLibrary(r.Context(), enrich.SteamSyncOptions{
		Force:            req.Force,
		DryRun:           req.DryRun,
		MinPlaytimeHours: req.MinPlaytimeHours,
		Limit:            req.Limit,
	})
	if err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// SyncCalibre handles POST /api/sync/calibre.
//
//	@Summary		Import and refresh the whole Calibre library
//	@Tags			catalog
//	@Accept			json
//	@Produce		json
//	@Param			body	body		SyncRequest	false	"Sync options"
//	@Success		200		{object}	SyncReport
//	@Security		BearerAuth
//	@Router			/sync/calibre [post]
func (h *Handler) SyncCalibre(w http.ResponseWriter, r *http.Request) {
	var req SyncRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	report, err := h.enrich.SyncCalibre(r.Context(), req.Force, req.Limit)
	if err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
