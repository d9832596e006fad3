package enrich

import (
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/spf13/cast"

	"github.com/starford/othala/internal/apperr"
	"github.com/starford/othala/internal/covers"
	"github.com/starford/othala/internal/models"
)

var bookBaseTags = []string{"book", "reading"}

// SearchBooks queries the Calibre library for candidate matches.
func (s *Service) SearchBooks(ctx context.Context, query string, limit int) ([]*models.CatalogRecord, error) {
	if s.calibre == nil {
		return nil, fmt.Errorf("calibre is not configured")
	}
	return s.calibre.Search(ctx, query, limit)
}

// ImportBook creates a new book document from a Calibre book id.
func (s *Service) ImportBook(ctx context.Context, calibreID string) (*Result, error) {
	if s.calibre == nil {
		return nil, fmt.Errorf("calibre is not configured")
	}
	rec, err := s.calibre.GetByID(ctx, calibreID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, apperr.ErrNoCatalogMatch
	}
	return s.createBook(ctx, rec)
}

func (s *Service) createBook(ctx context.Context, rec *models.CatalogRecord) (*Result, error) {
	title := cast.ToString(rec.Get(models.FieldTitle))
	slug := Slugify(title)
	if slug == "" {
		return nil, apperr.ErrNoCatalogMatch
	}
	docPath := path.Join(s.booksDir, slug+".md")
	if s.exists(docPath) {
		return nil, apperr.ErrAlreadyExists
	}

	records := []*models.CatalogRecord{rec}
	return s.finalize(ctx, docPath, nil, models.Header{}, bookBody(title),
		records, bookBaseTags, s.bookCoverSources(rec), slug, false, true)
}

// UpdateBook refreshes an existing book document from Calibre. An
// unchanged Calibre timestamp short-circuits unless force is set.
func (s *Service) UpdateBook(ctx context.Context, docPath string, force bool) (*Result, error) {
	if s.calibre == nil {
		return nil, fmt.Errorf("calibre is not configured")
	}
	data, doc, err := s.readDocument(docPath)
	if err != nil {
		return nil, err
	}

	var rec *models.CatalogRecord
	if id := headerString(doc.Header, models.FieldCalibreID); id != "" && id != "0" {
		rec, err = s.calibre.GetByID(ctx, id)
	} else if title := doc.Title(); title != "" {
		var hits []*models.CatalogRecord
		hits, err = s.calibre.Search(ctx, title, 1)
		if len(hits) > 0 {
			rec = hits[0]
		}
	}
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, apperr.ErrNoCatalogMatch
	}

	if !force {
		have := headerString(doc.Header, models.FieldCalibreStamp)
		want := cast.ToString(rec.Get(models.FieldCalibreStamp))
		if have != "" && have == want {
			return nil, apperr.ErrUpToDate
		}
	}

	slug := Slugify(docSlugTitle(docPath, doc.Title()))
	records := []*models.CatalogRecord{rec}
	return s.finalize(ctx, docPath, data, doc.Header, doc.Body,
		records, bookBaseTags, s.bookCoverSources(rec), slug, force, false)
}

// SyncCalibre walks the whole Calibre library, importing unknown books and
// refreshing stale ones. limit caps how many books are processed (zero
// means all). Individual failures are recorded and never abort the sync.
func (s *Service) SyncCalibre(ctx context.Context, force bool, limit int) (*SyncReport, error) {
	if s.calibre == nil {
		return nil, fmt.Errorf("calibre is not configured")
	}
	books, err := s.calibre.AllBooks(ctx)
	if err != nil {
		return nil, err
	}
	if limit > 0 && limit < len(books) {
		books = books[:limit]
	}

	report := &SyncReport{Total: len(books)}
	for i, rec := range books {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		title := cast.ToString(rec.Get(models.FieldTitle))
		if s.broker != nil {
			s.broker.PublishProgress("calibre-sync", i, len(books), title)
		}

		slug := Slugify(title)
		if slug == "" {
			report.Skipped++
			continue
		}
		docPath := path.Join(s.booksDir, slug+".md")

		if !s.exists(docPath) {
			if _, impErr := s.createBook(ctx, rec); impErr != nil {
				report.Failed = append(report.Failed, fmt.Sprintf("%s: %v", docPath, impErr))
			} else {
				report.Created++
			}
			continue
		}

		_, updErr := s.UpdateBook(ctx, docPath, force)
		switch {
		case updErr == nil:
			report.Updated++
		case errors.Is(updErr, apperr.ErrUpToDate):
			report.Skipped++
		default:
			report.Failed = append(report.Failed, fmt.Sprintf("%s: %v", docPath, updErr))
		}
	}
	if s.broker != nil {
		s.broker.PublishProgress("calibre-sync", len(books), len(books), "done")
	}
	return report, nil
}

// bookCoverSources reads the cover straight out of the Calibre library
// directory.
func (s *Service) bookCoverSources(rec *models.CatalogRecord) []covers.Source {
	if s.calibre == nil {
		return nil
	}
	p := s.calibre.CoverPath(rec)
	if p == "" {
		return nil
	}
	return []covers.Source{{Name: "calibre", Fetch: fetchFile(p)}}
}
