package enrich

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strconv"

	"github.com/spf13/cast"

	"github.com/starford/othala/internal/apperr"
	"github.com/starford/othala/internal/covers"
	"github.com/starford/othala/internal/models"
)

var (
	gameBaseTags = []string{"game", "games"}
	// Steam library imports carry an extra provenance tag.
	steamBaseTags = []string{"game", "games", "steam"}
)

// SearchGames queries IGDB for candidate matches.
func (s *Service) SearchGames(ctx context.Context, query string, limit int) ([]*models.CatalogRecord, error) {
	if s.igdb == nil {
		return nil, fmt.Errorf("igdb is not configured")
	}
	return s.igdb.Search(ctx, query, limit)
}

// AddGame creates a new game document from an IGDB id.
func (s *Service) AddGame(ctx context.Context, igdbID string) (*Result, error) {
	if s.igdb == nil {
		return nil, fmt.Errorf("igdb is not configured")
	}
	rec, err := s.igdb.GetByID(ctx, igdbID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, apperr.ErrNoCatalogMatch
	}

	title := cast.ToString(rec.Get(models.FieldTitle))
	slug := Slugify(title)
	if slug == "" {
		return nil, apperr.ErrNoCatalogMatch
	}
	docPath := path.Join(s.gamesDir, slug+".md")
	if s.exists(docPath) {
		return nil, apperr.ErrAlreadyExists
	}

	records := []*models.CatalogRecord{rec}
	return s.finalize(ctx, docPath, nil, models.Header{}, gameBody(title),
		records, gameBaseTags, s.gameCoverSources(records), slug, false, true)
}

// EnrichGame refreshes an existing game document from its catalogs. An
// already-enriched document short-circuits unless force is set.
func (s *Service) EnrichGame(ctx context.Context, docPath string, force bool) (*Result, error) {
	data, doc, err := s.readDocument(docPath)
	if err != nil {
		return nil, err
	}
	if !force && headerBool(doc.Header, models.FieldEnriched) {
		return nil, apperr.ErrUpToDate
	}

	records, warnings := s.gatherGameRecords(ctx, doc.Header, doc.Title())
	slug := Slugify(docSlugTitle(docPath, doc.Title()))

	res, err := s.finalize(ctx, docPath, data, doc.Header, doc.Body,
		records, gameBaseTags, s.gameCoverSources(records), slug, force, false)
	if err != nil {
		return nil, err
	}
	res.Warnings = append(warnings, res.Warnings...)
	return res, nil
}

// ImportSteamGame creates a game document from a Steam library entry,
// cross-referencing IGDB by title for richer metadata.
func (s *Service) ImportSteamGame(ctx context.Context, appid int64) (*Result, error) {
	if s.steam == nil {
		return nil, fmt.Errorf("steam is not configured")
	}
	steamRec, err := s.steam.GetByID(ctx, strconv.FormatInt(appid, 10))
	if err != nil {
		return nil, err
	}
	if steamRec == nil {
		return nil, apperr.ErrNoCatalogMatch
	}

	title := cast.ToString(steamRec.Get(models.FieldTitle))
	records := []*models.CatalogRecord{steamRec}
	if s.igdb != nil && title != "" {
		if hits, searchErr := s.igdb.Search(ctx, title, 1); searchErr == nil && len(hits) > 0 {
			records = append([]*models.CatalogRecord{hits[0]}, records...)
		} else if searchErr != nil {
			s.logger.Warn("igdb lookup during steam import failed",
				"title", title, "error", searchErr.Error())
		}
	}

	slug := Slugify(title)
	if slug == "" {
		return nil, apperr.ErrNoCatalogMatch
	}
	docPath := path.Join(s.gamesDir, slug+".md")
	if s.exists(docPath) {
		return nil, apperr.ErrAlreadyExists
	}
	return s.finalize(ctx, docPath, nil, models.Header{}, gameBody(title),
		records, steamBaseTags, s.gameCoverSources(records), slug, false, true)
}

// SteamSyncOptions tunes a library-wide Steam sync.
type SteamSyncOptions struct {
	// Force refreshes documents already marked enriched.
	Force bool
	// MinPlaytimeHours drops games played less than this many hours.
	MinPlaytimeHours float64
	// Limit caps how many games are processed; zero means no cap.
	Limit int
	// DryRun reports what would happen without writing anything.
	DryRun bool
}

// SyncSteamLibrary walks the whole Steam library, importing unknown games
// and, with force, refreshing known ones. Individual failures are recorded
// and never abort the sync.
func (s *Service) SyncSteamLibrary(ctx context.Context, opts SteamSyncOptions) (*SyncReport, error) {
	if s.steam == nil {
		return nil, fmt.Errorf("steam is not configured")
	}
	owned, err := s.steam.OwnedGames(ctx)
	if err != nil {
		return nil, err
	}

	games := owned[:0:0]
	for _, g := range owned {
		if opts.MinPlaytimeHours > 0 && g.PlaytimeHours() < opts.MinPlaytimeHours {
			continue
		}
		games = append(games, g)
		if opts.Limit > 0 && len(games) == opts.Limit {
			break
		}
	}

	report := &SyncReport{Total: len(games)}
	for i, g := range games {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		if s.broker != nil {
			s.broker.PublishProgress("steam-sync", i, len(games), g.Name)
		}

		slug := Slugify(g.Name)
		if slug == "" {
			report.Skipped++
			continue
		}
		docPath := path.Join(s.gamesDir, slug+".md")

		if !s.exists(docPath) {
			if opts.DryRun {
				report.Created++
				report.Planned = append(report.Planned, docPath)
				continue
			}
			if _, impErr := s.ImportSteamGame(ctx, g.AppID); impErr != nil {
				report.Failed = append(report.Failed, fmt.Sprintf("%s: %v", docPath, impErr))
			} else {
				report.Created++
			}
			continue
		}
		if opts.DryRun {
			report.Skipped++
			continue
		}

		_, enrErr := s.EnrichGame(ctx, docPath, opts.Force)
		switch {
		case enrErr == nil:
			report.Updated++
		case errors.Is(enrErr, apperr.ErrUpToDate):
			report.Skipped++
		default:
			report.Failed = append(report.Failed, fmt.Sprintf("%s: %v", docPath, enrErr))
		}
	}
	if s.broker != nil {
		s.broker.PublishProgress("steam-sync", len(games), len(games), "done")
	}
	return report, nil
}

// gatherGameRecords collects catalog records for an existing game header:
// IGDB via the stored id or a title search, Steam via the stored app id.
// Lookup failures degrade to warnings so one dead catalog never blocks
// the other.
func (s *Service) gatherGameRecords(ctx context.Context, header models.Header, title string) ([]*models.CatalogRecord, []string) {
	var (
		records  []*models.CatalogRecord
		warnings []string
	)

	if s.igdb != nil {
		var (
			rec *models.CatalogRecord
			err error
		)
		if id := headerString(header, models.FieldIGDBID); id != "" && id != "0" {
			rec, err = s.igdb.GetByID(ctx, id)
		} else if title != "" {
			var hits []*models.CatalogRecord
			hits, err = s.igdb.Search(ctx, title, 1)
			if len(hits) > 0 {
				rec = hits[0]
			}
		}
		if err != nil {
			warnings = append(warnings, "igdb lookup failed: "+err.Error())
		} else if rec != nil {
			records = append(records, rec)
		}
	}

	if s.steam != nil {
		if appid := headerInt64(header, models.FieldSteamAppID); appid > 0 {
			rec, err := s.steam.GetByID(ctx, strconv.FormatInt(appid, 10))
			if err != nil {
				warnings = append(warnings, "steam lookup failed: "+err.Error())
			} else if rec != nil {
				records = append(records, rec)
			}
		}
	}

	return records, warnings
}

// gameCoverSources builds the ordered cover fallback chain: the IGDB cover
// first, then the Steam library capsule, then the Steam header image.
func (s *Service) gameCoverSources(records []*models.CatalogRecord) []covers.Source {
	var sources []covers.Source
	var appid int64
	for _, r := range records {
		if r == nil {
			continue
		}
		if r.Provider == models.ProviderIGDB {
			if u := cast.ToString(r.Get(models.FieldCoverRef)); u != "" {
				sources = append(sources, covers.Source{Name: "igdb", Fetch: fetchURL(u)})
			}
		}
		if r.Provider == models.ProviderSteam && appid == 0 {
			appid = cast.ToInt64(r.Get(models.FieldSteamAppID))
		}
	}
	if appid > 0 && s.steam != nil {
		sources = append(sources,
			covers.Source{Name: "steam-library", Fetch: fetchURL(s.steam.LibraryImageURL(appid))},
			covers.Source{Name: "steam-header", Fetch: fetchURL(s.steam.HeaderImageURL(appid))},
		)
	}
	return sources
}

// docSlugTitle prefers the document title for slug derivation, falling
// back to the file name.
func docSlugTitle(docPath, title string) string {
	if title != "" {
		return title
	}
	base := path.Base(docPath)
	if ext := path.Ext(base); ext != "" {
		base = base[:len(base)-len(ext)]
	}
	return base
}
