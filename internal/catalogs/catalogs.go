// Package catalogs implements clients for the external metadata catalogs.
// Each client normalizes provider responses into models.CatalogRecord so
// the reconciliation engine never sees a provider wire format.
package catalogs

import (
	"context"

	"github.com/starford/othala/internal/models"
)

// Client is the narrow contract the enrichment service consumes.
type Client interface {
	// Provider identifies which catalog this client talks to.
	Provider() models.Provider
	// Search returns up to limit normalized records matching query.
	Search(ctx context.Context, query string, limit int) ([]*models.CatalogRecord, error)
	// GetByID returns the record for a provider-scoped identifier, or nil
	// when the catalog has no such item.
	GetByID(ctx context.Context, id string) (*models.CatalogRecord, error)
}
