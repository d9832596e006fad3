package catalogs

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/othala/internal/models"
)

// Calibre reads book metadata straight out of a Calibre library's
// metadata.db. The database is opened read-only so a running Calibre
// instance is never disturbed.
type Calibre struct {
	db          *sql.DB
	libraryPath string
}

// NewCalibre opens the metadata.db inside libraryPath.
func NewCalibre(libraryPath string) (*Calibre, error) {
	dsn := fmt.Sprintf("file:%s/metadata.db?mode=ro&_busy_timeout=5000", libraryPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("calibre: open metadata.db: %w", err)
	}
	return &Calibre{db: db, libraryPath: libraryPath}, nil
}

// Close releases the database handle.
func (c *Calibre) Close() error { return c.db.Close() }

// LibraryPath returns the configured Calibre library root.
func (c *Calibre) LibraryPath() string { return c.libraryPath }

// Provider implements Client.
func (c *Calibre) Provider() models.Provider { return models.ProviderCalibre }

const calibreSelect = `
SELECT
  b.id,
  b.title,
  b.timestamp,
  b.pubdate,
  b.series_index,
  b.path,
  COALESCE(GROUP_CONCAT(DISTINCT a.name), '')  AS authors,
  COALESCE(GROUP_CONCAT(DISTINCT p.name), '')  AS publishers,
  COALESCE(GROUP_CONCAT(DISTINCT t.name), '')  AS tags,
  COALESCE(GROUP_CONCAT(DISTINCT s.name), '')  AS series,
  COALESCE(GROUP_CONCAT(DISTINCT l.lang_code), '') AS languages,
  COALESCE((SELECT text FROM comments WHERE book = b.id), '') AS comments
FROM books b
LEFT JOIN books_authors_link bal    ON bal.book = b.id
LEFT JOIN authors a                 ON a.id = bal.author
LEFT JOIN books_publishers_link bpl ON bpl.book = b.id
LEFT JOIN publishers p              ON p.id = bpl.publisher
LEFT JOIN books_tags_link btl       ON btl.book = b.id
LEFT JOIN tags t                    ON t.id = btl.tag
LEFT JOIN books_series_link bsl     ON bsl.book = b.id
LEFT JOIN series s                  ON s.id = bsl.series
LEFT JOIN books_languages_link bll  ON bll.book = b.id
LEFT JOIN languages l               ON l.id = bll.lang_code
`

// Search implements Client with a case-insensitive title match.
func (c *Calibre) Search(ctx context.Context, query string, limit int) ([]*models.CatalogRecord, error) {
	if limit <= 0 {
		limit = 5
	}
	q := calibreSelect + `WHERE b.title LIKE ? COLLATE NOCASE GROUP BY b.id ORDER BY b.timestamp DESC LIMIT ?`
	rows, err := c.db.QueryContext(ctx, q, "%"+query+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("calibre: search: %w", err)
	}
	defer rows.Close()
	return c.scanRecords(rows)
}

// GetByID implements Client; id is a Calibre book id.
func (c *Calibre) GetByID(ctx context.Context, id string) (*models.CatalogRecord, error) {
	bookID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("calibre: invalid book id %q: %w", id, err)
	}
	q := calibreSelect + `WHERE b.id = ? GROUP BY b.id`
	rows, err := c.db.QueryContext(ctx, q, bookID)
	if err != nil {
		return nil, fmt.Errorf("calibre: get book %d: %w", bookID, err)
	}
	defer rows.Close()
	recs, err := c.scanRecords(rows)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, nil
	}
	return recs[0], nil
}

// AllBooks returns every book in the library, most recently added first.
func (c *Calibre) AllBooks(ctx context.Context) ([]*models.CatalogRecord, error) {
	q := calibreSelect + `GROUP BY b.id ORDER BY b.timestamp DESC`
	rows, err := c.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("calibre: list books: %w", err)
	}
	defer rows.Close()
	return c.scanRecords(rows)
}

// CoverPath returns the filesystem path of a book's cover inside the
// library, or "" when the record carries no book path.
func (c *Calibre) CoverPath(rec *models.CatalogRecord) string {
	rel, _ := rec.Get("calibre_path").(string)
	if rel == "" {
		return ""
	}
	return c.libraryPath + "/" + rel + "/cover.jpg"
}

func (c *Calibre) scanRecords(rows *sql.Rows) ([]*models.CatalogRecord, error) {
	var out []*models.CatalogRecord
	for rows.Next() {
		var (
			id                          int64
			title, timestamp, pubdate   sql.NullString
			seriesIndex                 sql.NullFloat64
			path                        sql.NullString
			authors, publishers, tags   string
			series, languages, comments string
		)
		if err := rows.Scan(&id, &title, &timestamp, &pubdate, &seriesIndex, &path,
			&authors, &publishers, &tags, &series, &languages, &comments); err != nil {
			return nil, fmt.Errorf("calibre: scan book row: %w", err)
		}

		fields := map[string]any{
			models.FieldCalibreID: id,
		}
		if title.Valid && title.String != "" {
			fields[models.FieldTitle] = title.String
		}
		if timestamp.Valid && timestamp.String != "" {
			fields[models.FieldCalibreStamp] = timestamp.String
		}
		if pubdate.Valid && len(pubdate.String) >= 10 && !strings.HasPrefix(pubdate.String, "0101") {
			fields[models.FieldReleaseDate] = pubdate.String[:10]
		}
		putConcat(fields, models.FieldAuthors, authors)
		putConcat(fields, models.FieldLanguages, languages)
		putConcat(fields, "calibre_tags", tags)
		if publishers != "" {
			fields[models.FieldPublisher] = firstConcat(publishers)
		}
		if series != "" {
			fields[models.FieldSeries] = firstConcat(series)
			if seriesIndex.Valid && seriesIndex.Float64 > 0 {
				fields[models.FieldSeriesIndex] = seriesIndex.Float64
			}
		}
		if comments != "" {
			fields[models.FieldSummary] = comments
		}
		if path.Valid && path.String != "" {
			fields["calibre_path"] = path.String
		}

		out = append(out, &models.CatalogRecord{
			Provider: models.ProviderCalibre,
			SourceID: strconv.FormatInt(id, 10),
			Fields:   fields,
		})
	}
	return out, rows.Err()
}

func putConcat(fields map[string]any, name, concat string) {
	if concat == "" {
		return
	}
	parts := strings.Split(concat, ",")
	vals := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			vals = append(vals, p)
		}
	}
	if len(vals) > 0 {
		fields[name] = vals
	}
}

func firstConcat(concat string) string {
	if i := strings.IndexByte(concat, ','); i >= 0 {
		return strings.TrimSpace(concat[:i])
	}
	return strings.TrimSpace(concat)
}
