package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/othala/internal/enrich"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
// vaultRoot and coversDir locate the cached cover images.
func NewRouter(svc *Service, enrichSvc *enrich.Service, authEnabled bool, token string, sseHandler http.Handler, vaultRoot, coversDir string) chi.Router {
	h := NewHandler(svc, enrichSvc)
	ch := NewCoverHandler(vaultRoot, coversDir)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Documents CRUD.
	r.Get("/documents", h.ListDocuments)
	r.Post("/documents", h.CreateDocument)
	r.Get("/documents/*", h.GetDocument)
	r.Put("/documents/*", h.UpdateDocument)
	r.Delete("/documents/*", h.DeleteDocument)

	// Search.
	r.Get("/search", h.Search)

	// Property statistics.
	r.Get("/properties", h.ListProperties)
	r.Get("/properties/{name}/values", h.PropertyValues)
	r.Get("/properties/{name}/files", h.FilesWithProperty)
	r.Get("/stats", h.Stats)

	// Catalog operations.
	r.Post("/games", h.AddGame)
	r.Post("/enrich", h.Enrich)
	r.Post("/import/steam", h.ImportSteam)
	r.Post("/import/book", h.ImportBook)
	r.Post("/import/repo", h.ImportRepo)
	r.Post("/sync/steam", h.SyncSteam)
	r.Post("/sync/calibre", h.SyncCalibre)

	// Cached cover images.
	r.Get("/covers/*", ch.Serve)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
