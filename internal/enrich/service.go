// Package enrich reconciles vault documents against external catalogs:
// it merges provider metadata into frontmatter, refreshes derived tags,
// caches cover art, and patches document bodies.
package enrich

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path"
	"time"

	"github.com/spf13/cast"

	"github.com/starford/othala/internal/apperr"
	"github.com/starford/othala/internal/catalogs"
	"github.com/starford/othala/internal/checksum"
	"github.com/starford/othala/internal/covers"
	"github.com/starford/othala/internal/frontmatter"
	"github.com/starford/othala/internal/index"
	"github.com/starford/othala/internal/models"
	"github.com/starford/othala/internal/patch"
	"github.com/starford/othala/internal/reconcile"
	"github.com/starford/othala/internal/storage"
	"github.com/starford/othala/internal/tagutil"
)

// SteamLibrary is the Steam surface the service consumes beyond the plain
// catalog contract.
type SteamLibrary interface {
	catalogs.Client
	OwnedGames(ctx context.Context) ([]catalogs.OwnedGame, error)
	LibraryImageURL(appid int64) string
	HeaderImageURL(appid int64) string
}

// BookLibrary is the Calibre surface the service consumes beyond the plain
// catalog contract.
type BookLibrary interface {
	catalogs.Client
	AllBooks(ctx context.Context) ([]*models.CatalogRecord, error)
	CoverPath(rec *models.CatalogRecord) string
}

// Notifier receives document change and progress events. *sse.Broker
// satisfies it.
type Notifier interface {
	PublishDocumentEvent(kind, path string)
	PublishProgress(op string, done, total int, detail string)
}

// Deps bundles the service collaborators. Catalog clients are optional;
// operations needing an absent client fail with a descriptive error.
type Deps struct {
	Store   storage.Provider
	Index   index.DocumentIndex
	Covers  *covers.Cache
	Broker  Notifier
	Logger  *slog.Logger
	IGDB    catalogs.Client
	Steam   SteamLibrary
	Calibre BookLibrary
	GitHub  catalogs.Client

	GamesDir string
	BooksDir string
	ReposDir string
}

// Service coordinates catalog lookups, reconciliation, cover caching, and
// vault writes.
type Service struct {
	store   storage.Provider
	db      index.DocumentIndex
	covers  *covers.Cache
	broker  Notifier
	logger  *slog.Logger
	igdb    catalogs.Client
	steam   SteamLibrary
	calibre BookLibrary
	github  catalogs.Client

	gamesDir string
	booksDir string
	reposDir string
}

// New creates the enrichment service.
func New(d Deps) *Service {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.GamesDir == "" {
		d.GamesDir = "games"
	}
	if d.BooksDir == "" {
		d.BooksDir = "books"
	}
	if d.ReposDir == "" {
		d.ReposDir = "repos"
	}
	return &Service{
		store:    d.Store,
		db:       d.Index,
		covers:   d.Covers,
		broker:   d.Broker,
		logger:   d.Logger,
		igdb:     d.IGDB,
		steam:    d.Steam,
		calibre:  d.Calibre,
		github:   d.GitHub,
		gamesDir: d.GamesDir,
		booksDir: d.BooksDir,
		reposDir: d.ReposDir,
	}
}

// Result reports one document enrichment.
type Result struct {
	Path      string   `json:"path"`
	Title     string   `json:"title"`
	Changed   bool     `json:"changed"`
	TagsAdded []string `json:"tags_added,omitempty"`
	CoverPath string   `json:"cover_path,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
}

// SyncReport summarizes a library-wide sync. Planned lists the documents
// a dry run would create.
type SyncReport struct {
	Total   int      `json:"total"`
	Created int      `json:"created"`
	Updated int      `json:"updated"`
	Skipped int      `json:"skipped"`
	Failed  []string `json:"failed,omitempty"`
	Planned []string `json:"planned,omitempty"`
}

// Slugify turns a display title into a stable file slug.
func Slugify(title string) string {
	return tagutil.Canonicalize(title)
}

// readDocument loads and strictly parses a vault document. A malformed
// header is a refusal, not a repair opportunity.
func (s *Service) readDocument(docPath string) ([]byte, *frontmatter.Document, error) {
	data, err := s.store.Read(docPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, apperr.ErrNotFound
		}
		return nil, nil, err
	}
	doc, err := frontmatter.Parse(data)
	if err != nil {
		return nil, nil, err
	}
	return data, doc, nil
}

// writeDocument serializes and persists a document when its content
// changed, reindexes it, and notifies subscribers. It reports whether a
// write happened.
func (s *Service) writeDocument(docPath string, original []byte, header models.Header, body string, created bool) (bool, error) {
	out, err := frontmatter.Serialize(header, body)
	if err != nil {
		return false, err
	}
	if original != nil && bytes.Equal(out, original) {
		return false, nil
	}
	if err := s.store.Write(docPath, out); err != nil {
		return false, err
	}
	if s.db != nil {
		doc := frontmatter.ParseLenient(out)
		row := index.DocumentRow{
			Path:      docPath,
			Title:     doc.Title(),
			Checksum:  checksum.Sum(out),
			Kind:      kindOf(docPath),
			Tags:      doc.Tags(),
			UpdatedAt: time.Now().UTC(),
		}
		if err := s.db.UpsertDocument(row, doc.Header, doc.Body); err != nil {
			s.logger.Warn("index update failed",
				slog.String("path", docPath),
				slog.String("error", err.Error()))
		}
	}
	if s.broker != nil {
		kind := "updated"
		if created {
			kind = "created"
		}
		s.broker.PublishDocumentEvent(kind, docPath)
	}
	return true, nil
}

func kindOf(docPath string) string {
	dir := path.Dir(docPath)
	if dir == "." {
		return ""
	}
	for {
		parent := path.Dir(dir)
		if parent == "." || parent == "/" {
			return dir
		}
		dir = parent
	}
}

// exists reports whether a vault file is present.
func (s *Service) exists(docPath string) bool {
	_, err := s.store.Read(docPath)
	return err == nil
}

func headerString(h models.Header, key string) string {
	return cast.ToString(h[key])
}

func headerInt64(h models.Header, key string) int64 {
	return cast.ToInt64(h[key])
}

func headerBool(h models.Header, key string) bool {
	return cast.ToBool(h[key])
}

// finalize runs the reconciliation, resolves the cover, patches the body,
// and persists the result. original is nil when creating a new document.
func (s *Service) finalize(ctx context.Context, docPath string, original []byte, existing models.Header, body string, records []*models.CatalogRecord, baseTags []string, coverSources []covers.Source, slug string, force, created bool) (*Result, error) {
	rec, err := reconcile.Reconcile(records, existing, baseTags, force)
	if err != nil {
		return nil, err
	}
	header := rec.Header

	cover := ""
	if s.covers != nil && len(coverSources) > 0 {
		cover = s.covers.ResolveFirst(ctx, slug, coverSources, force)
	}
	if cover != "" {
		header[models.FieldImageURL] = cover
		body = patch.Apply(body, cover, patch.DefaultAnchors)
	}
	header[models.FieldEnriched] = true

	changed, err := s.writeDocument(docPath, original, header, body, created)
	if err != nil {
		return nil, err
	}
	return &Result{
		Path:      docPath,
		Title:     headerString(header, models.FieldTitle),
		Changed:   changed,
		TagsAdded: rec.TagsAdded,
		CoverPath: cover,
		Warnings:  rec.Warnings,
	}, nil
}
