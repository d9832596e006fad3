package index

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/starford/othala/internal/models"
)

// DocumentRow represents a row in the documents table.
type DocumentRow struct {
	Path      string
	Title     string
	Checksum  string
	Kind      string
	Tags      []string
	UpdatedAt time.Time
}

// HeaderRow pairs a document path with its parsed frontmatter.
type HeaderRow struct {
	Path   string
	Header models.Header
}

// SearchResult represents one search hit.
type SearchResult struct {
	Path    string
	Title   string
	Snippet string
}

// UpsertDocument inserts or replaces a document, its FTS entry, and its
// frontmatter property rows within a transaction.
func (db *DB) UpsertDocument(d DocumentRow, header models.Header, body string) error {
	if d.UpdatedAt.IsZero() {
		d.UpdatedAt = time.Now().UTC()
	}
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	tagsJSON, _ := json.Marshal(d.Tags)
	headerJSON, _ := json.Marshal(header)

	// Upsert documents table (includes body for fallback search).
	_, err = tx.Exec(`
		INSERT INTO documents (path, title, checksum, kind, tags, frontmatter, body, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			title       = excluded.title,
			checksum    = excluded.checksum,
			kind        = excluded.kind,
			tags        = excluded.tags,
			frontmatter = excluded.frontmatter,
			body        = excluded.body,
			updated_at  = excluded.updated_at
	`, d.Path, d.Title, d.Checksum, d.Kind, string(tagsJSON), string(headerJSON), body, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert document: %w", err)
	}

	// FTS upsert (no-op when FTS5 tag is absent).
	if err := ftsUpsert(tx, d.Path, d.Title, body, d.Tags); err != nil {
		return err
	}

	// Replace property rows: delete old then bulk insert.
	_, _ = tx.Exec(`DELETE FROM properties WHERE path = ?`, d.Path)
	if len(header) > 0 {
		stmt, err := tx.Prepare(`INSERT OR IGNORE INTO properties (path, name, value) VALUES (?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare property insert: %w", err)
		}
		defer stmt.Close()
		for name, value := range header {
			valJSON, _ := json.Marshal(value)
			if _, err := stmt.Exec(d.Path, name, string(valJSON)); err != nil {
				return fmt.Errorf("index: insert property: %w", err)
			}
		}
	}

	return tx.Commit()
}

// DeleteDocument removes a document, its FTS entry, and its property rows.
func (db *DB) DeleteDocument(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, path)
	_, _ = tx.Exec(`DELETE FROM properties WHERE path = ?`, path)
	_, _ = tx.Exec(`DELETE FROM documents WHERE path = ?`, path)

	return tx.Commit()
}

// GetChecksum returns the stored checksum for a document, or empty string
// if not found.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM documents WHERE path = ?`, path).Scan(&cs)
	if err != nil {
		return "", nil // not found is fine
	}
	return cs, nil
}

// GetDocument returns one indexed document with its frontmatter, or nil
// when the path is not indexed.
func (db *DB) GetDocument(path string) (*DocumentRow, models.Header, error) {
	var (
		d                    DocumentRow
		tagsJSON, headerJSON string
	)
	err := db.conn.QueryRow(`
		SELECT path, title, checksum, kind, tags, frontmatter, updated_at
		FROM documents WHERE path = ?
	`, path).Scan(&d.Path, &d.Title, &d.Checksum, &d.Kind, &tagsJSON, &headerJSON, &d.UpdatedAt)
	if err != nil {
		return nil, nil, nil
	}
	_ = json.Unmarshal([]byte(tagsJSON), &d.Tags)
	var header models.Header
	_ = json.Unmarshal([]byte(headerJSON), &header)
	return &d, header, nil
}

// ListDocuments returns paginated documents with optional tag and kind
// filters. sort is "updated" (default) or "title".
func (db *DB) ListDocuments(limit, offset int, tag, kind, sort string) ([]DocumentRow, int, error) {
	where := `WHERE 1=1`
	args := []any{}
	if tag != "" {
		where += ` AND tags LIKE ?`
		args = append(args, `%"`+tag+`"%`)
	}
	if kind != "" {
		where += ` AND kind = ?`
		args = append(args, kind)
	}

	var total int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM documents `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count documents: %w", err)
	}

	order := `updated_at DESC`
	if sort == "title" {
		order = `title COLLATE NOCASE ASC`
	}
	args = append(args, limit, offset)
	rows, err := db.conn.Query(`
		SELECT path, title, checksum, kind, tags, updated_at
		FROM documents `+where+` ORDER BY `+order+` LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list documents: %w", err)
	}
	defer rows.Close()

	var out []DocumentRow
	for rows.Next() {
		var d DocumentRow
		var tagsJSON string
		if err := rows.Scan(&d.Path, &d.Title, &d.Checksum, &d.Kind, &tagsJSON, &d.UpdatedAt); err != nil {
			return nil, 0, err
		}
		_ = json.Unmarshal([]byte(tagsJSON), &d.Tags)
		out = append(out, d)
	}
	return out, total, rows.Err()
}

// AllChecksums returns path → checksum for every indexed document.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// AllHeaders returns the parsed frontmatter of every indexed document,
// the input for property aggregation.
func (db *DB) AllHeaders() ([]HeaderRow, error) {
	rows, err := db.conn.Query(`SELECT path, frontmatter FROM documents ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("index: all headers: %w", err)
	}
	defer rows.Close()

	var out []HeaderRow
	for rows.Next() {
		var (
			path       string
			headerJSON string
		)
		if err := rows.Scan(&path, &headerJSON); err != nil {
			return nil, err
		}
		var header models.Header
		if err := json.Unmarshal([]byte(headerJSON), &header); err != nil {
			continue
		}
		out = append(out, HeaderRow{Path: path, Header: header})
	}
	return out, rows.Err()
}

// DocumentsWithProperty returns the paths of documents whose frontmatter
// carries the named property, sorted.
func (db *DB) DocumentsWithProperty(name string) ([]string, error) {
	rows, err := db.conn.Query(`SELECT path FROM properties WHERE name = ? ORDER BY path`, name)
	if err != nil {
		return nil, fmt.Errorf("index: documents with property: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// CountByKind returns document counts grouped by kind.
func (db *DB) CountByKind() (map[string]int, error) {
	rows, err := db.conn.Query(`SELECT kind, COUNT(*) FROM documents GROUP BY kind`)
	if err != nil {
		return nil, fmt.Errorf("index: count by kind: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, err
		}
		out[kind] = n
	}
	return out, rows.Err()
}
