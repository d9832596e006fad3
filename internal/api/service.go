package api

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/starford/othala/internal/apperr"
	"github.com/starford/othala/internal/checksum"
	"github.com/starford/othala/internal/frontmatter"
	"github.com/starford/othala/internal/index"
	"github.com/starford/othala/internal/models"
	"github.com/starford/othala/internal/storage"
)

// Notifier publishes vault change events to connected clients.
type Notifier interface {
	PublishDocumentEvent(kind, path string)
}

// Service coordinates storage and index operations for the API layer.
type Service struct {
	store  storage.Provider
	db     index.DocumentIndex
	broker Notifier
}

// NewService creates a new API service. broker may be nil.
func NewService(store storage.Provider, db index.DocumentIndex, broker Notifier) *Service {
	return &Service{store: store, db: db, broker: broker}
}

// DocumentDetail is the response payload for a single document.
type DocumentDetail struct {
	Path        string        `json:"path"`
	Title       string        `json:"title"`
	Kind        string        `json:"kind"`
	Content     string        `json:"content"`
	Checksum    string        `json:"checksum"`
	Tags        []string      `json:"tags"`
	Frontmatter models.Header `json:"frontmatter,omitempty"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// DocumentListItem is a lightweight item in a list response.
type DocumentListItem struct {
	Path      string    `json:"path"`
	Title     string    `json:"title"`
	Kind      string    `json:"kind"`
	Checksum  string    `json:"checksum"`
	Tags      []string  `json:"tags"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GetDocument reads a document from storage and splits its frontmatter.
func (s *Service) GetDocument(_ context.Context, path string) (*DocumentDetail, error) {
	data, err := s.store.Read(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, apperr.ErrNotFound)
	}
	doc := frontmatter.ParseLenient(data)
	tags := doc.Tags()
	if tags == nil {
		tags = []string{}
	}
	// The index remembers when the document was last touched; fall back
	// to now when it has not been indexed yet.
	updatedAt := time.Now()
	if row, _, err := s.db.GetDocument(path); err == nil && row != nil {
		updatedAt = row.UpdatedAt
	}
	return &DocumentDetail{
		Path:        path,
		Title:       doc.Title(),
		Kind:        kindOf(path, doc.Header),
		Content:     string(data),
		Checksum:    checksum.Sum(data),
		Tags:        tags,
		Frontmatter: doc.Header,
		UpdatedAt:   updatedAt,
	}, nil
}

// CreateDocument writes a new document and indexes it.
func (s *Service) CreateDocument(ctx context.Context, path string, content []byte) (*DocumentDetail, error) {
	if _, err := s.store.Read(path); err == nil {
		return nil, fmt.Errorf("%s: %w", path, apperr.ErrAlreadyExists)
	}
	if err := s.store.Write(path, content); err != nil {
		return nil, err
	}
	if err := s.indexFile(path, content); err != nil {
		return nil, err
	}
	if s.broker != nil {
		s.broker.PublishDocumentEvent("created", path)
	}
	return s.GetDocument(ctx, path)
}

// UpdateDocument writes updated content with optimistic concurrency: when
// ifMatch is non-empty it must equal the checksum of the stored bytes.
func (s *Service) UpdateDocument(ctx context.Context, path string, content []byte, ifMatch string) (*DocumentDetail, error) {
	existing, err := s.store.Read(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, apperr.ErrNotFound)
	}
	if ifMatch != "" && ifMatch != checksum.Sum(existing) {
		return nil, apperr.ErrConflict
	}
	if err := s.store.Write(path, content); err != nil {
		return nil, err
	}
	if err := s.indexFile(path, content); err != nil {
		return nil, err
	}
	if s.broker != nil {
		s.broker.PublishDocumentEvent("updated", path)
	}
	return s.GetDocument(ctx, path)
}

// DeleteDocument removes a document from storage and index.
func (s *Service) DeleteDocument(_ context.Context, path string) error {
	if err := s.store.Delete(path); err != nil {
		return fmt.Errorf("%s: %w", path, apperr.ErrNotFound)
	}
	if err := s.db.DeleteDocument(path); err != nil {
		return err
	}
	if s.broker != nil {
		s.broker.PublishDocumentEvent("deleted", path)
	}
	return nil
}

// ListDocuments returns paginated documents with optional tag and kind filters.
func (s *Service) ListDocuments(_ context.Context, limit, offset int, tag, kind, sort string) ([]DocumentListItem, int, error) {
	rows, total, err := s.db.ListDocuments(limit, offset, tag, kind, sort)
	if err != nil {
		return nil, 0, err
	}
	items := make([]DocumentListItem, len(rows))
	for i, r := range rows {
		tags := r.Tags
		if tags == nil {
			tags = []string{}
		}
		items[i] = DocumentListItem{
			Path:      r.Path,
			Title:     r.Title,
			Kind:      r.Kind,
			Checksum:  r.Checksum,
			Tags:      tags,
			UpdatedAt: r.UpdatedAt,
		}
	}
	return items, total, nil
}

// Search delegates to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	return s.db.Search(query, limit)
}

func (s *Service) indexFile(path string, data []byte) error {
	doc := frontmatter.ParseLenient(data)
	row := index.DocumentRow{
		Path:     path,
		Title:    doc.Title(),
		Checksum: checksum.Sum(data),
		Kind:     kindOf(path, doc.Header),
		Tags:     doc.Tags(),
	}
	return s.db.UpsertDocument(row, doc.Header, doc.Body)
}

// kindOf classifies a document by its header type field, falling back to
// the top-level vault directory.
func kindOf(path string, header models.Header) string {
	if t, ok := header["type"].(string); ok && t != "" {
		return t
	}
	if i := strings.IndexByte(path, '/'); i > 0 {
		return path[:i]
	}
	return ""
}
