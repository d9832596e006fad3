package api

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
)

// CoverHandler serves cached cover images from the vault's covers
// directory. Covers are vault files like any other; this handler only
// makes them fetchable by image-src clients.
type CoverHandler struct {
	root string
}

// NewCoverHandler creates a handler rooted at vaultRoot/coversDir.
func NewCoverHandler(vaultRoot, coversDir string) *CoverHandler {
	return &CoverHandler{root: filepath.Join(vaultRoot, coversDir)}
}

// Serve handles GET /covers/*.
//
//	@Summary		Fetch a cached cover image
//	@Tags			covers
//	@Param			filename	path	string	true	"Cover file name"
//	@Success		200		{file}	binary
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/covers/{filename} [get]
func (h *CoverHandler) Serve(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "*")
	// Reject traversal before touching the filesystem.
	if name == "" || strings.Contains(name, "..") || strings.HasPrefix(name, "/") {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid cover path"))
		return
	}
	clean := filepath.Clean(filepath.FromSlash(name))
	if strings.HasPrefix(clean, "..") {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid cover path"))
		return
	}
	http.ServeFile(w, r, filepath.Join(h.root, clean))
}
