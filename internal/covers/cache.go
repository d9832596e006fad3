// Package covers resolves and persists cover art for vault notes. A cover
// is a derived, non-essential enhancement: every failure here degrades to
// "no cover" and must never abort the surrounding enrichment.
package covers

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/starford/othala/internal/storage"
)

// FetchFunc downloads cover bytes from one candidate source.
type FetchFunc func(ctx context.Context) ([]byte, error)

// Source is one candidate cover origin, tried in order.
type Source struct {
	Name  string
	Fetch FetchFunc
}

// Cache stores covers at deterministic vault-relative paths.
type Cache struct {
	store  storage.Provider
	root   string // absolute vault root, for existence checks
	dir    string // vault-relative cover directory
	logger *slog.Logger
}

// New creates a cover cache writing under dir (relative to the vault root).
func New(store storage.Provider, vaultRoot, dir string, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{store: store, root: vaultRoot, dir: dir, logger: logger}
}

// Path returns the deterministic vault-relative path for a cover slug.
func (c *Cache) Path(slug string) string {
	return filepath.ToSlash(filepath.Join(c.dir, slug+".jpg"))
}

// Resolve returns the vault-relative path of the cover for slug. With an
// existing cached file and force false, the fetch is never invoked. On any
// fetch or write failure it logs a warning and returns the empty string.
func (c *Cache) Resolve(ctx context.Context, slug string, fetch FetchFunc, force bool) string {
	return c.ResolveFirst(ctx, slug, []Source{{Name: "default", Fetch: fetch}}, force)
}

// ResolveFirst tries each source in order and persists the first
// successful fetch; later sources are not attempted once one succeeds.
func (c *Cache) ResolveFirst(ctx context.Context, slug string, sources []Source, force bool) string {
	rel := c.Path(slug)

	if !force && c.exists(rel) {
		return rel
	}

	for _, src := range sources {
		if src.Fetch == nil {
			continue
		}
		data, err := src.Fetch(ctx)
		if err != nil {
			c.logger.Warn("cover fetch failed",
				slog.String("slug", slug),
				slog.String("source", src.Name),
				slog.String("error", err.Error()))
			continue
		}
		if len(data) == 0 {
			c.logger.Warn("cover fetch returned no data",
				slog.String("slug", slug),
				slog.String("source", src.Name))
			continue
		}
		if err := c.store.Write(rel, data); err != nil {
			c.logger.Warn("cover write failed",
				slog.String("path", rel),
				slog.String("error", err.Error()))
			return ""
		}
		return rel
	}
	// All sources failed. A previously cached file still serves a forced
	// refresh rather than losing the reference.
	if c.exists(rel) {
		return rel
	}
	return ""
}

func (c *Cache) exists(rel string) bool {
	info, err := os.Stat(filepath.Join(c.root, filepath.FromSlash(rel)))
	return err == nil && !info.IsDir() && info.Size() > 0
}
