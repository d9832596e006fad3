package index

import (
	"log/slog"
	"strings"

	"github.com/starford/othala/internal/checksum"
	"github.com/starford/othala/internal/frontmatter"
	"github.com/starford/othala/internal/models"
	"github.com/starford/othala/internal/storage"
)

// Sync walks the vault and brings the index up to date:
//   - new/changed files are parsed and upserted
//   - files removed from disk are deleted from the index
func Sync(db *DB, store storage.Provider, logger *slog.Logger) error {
	metas, err := store.List("")
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}

		if checksums[m.Path] == m.Checksum {
			continue
		}

		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if err := indexFile(db, m.Path, data); err != nil {
			logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("path", m.Path))
		}
	}

	// Remove stale entries.
	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := db.DeleteDocument(p); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	return nil
}

// indexFile parses data leniently and upserts it into the DB. Indexing
// never rejects a malformed header; the document is stored headerless so
// search still sees its body.
func indexFile(db *DB, path string, data []byte) error {
	doc := frontmatter.ParseLenient(data)
	cs := checksum.Sum(data)

	row := DocumentRow{
		Path:     path,
		Title:    doc.Title(),
		Checksum: cs,
		Kind:     documentKind(path, doc.Header),
		Tags:     doc.Tags(),
	}
	return db.UpsertDocument(row, doc.Header, doc.Body)
}

// documentKind classifies a document by its header type field, falling
// back to the top-level vault directory.
func documentKind(path string, header models.Header) string {
	if t, ok := header["type"].(string); ok && t != "" {
		return t
	}
	if i := strings.IndexByte(path, '/'); i > 0 {
		return path[:i]
	}
	return ""
}
