package enrich

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/spf13/cast"

	"github.com/starford/othala/internal/apperr"
	"github.com/starford/othala/internal/models"
)

var repoBaseTags = []string{"repo", "repos"}

// SearchRepos queries GitHub for candidate repositories.
func (s *Service) SearchRepos(ctx context.Context, query string, limit int) ([]*models.CatalogRecord, error) {
	if s.github == nil {
		return nil, fmt.Errorf("github is not configured")
	}
	return s.github.Search(ctx, query, limit)
}

// ImportRepo creates a new repository document from an owner/repo name.
func (s *Service) ImportRepo(ctx context.Context, fullName string) (*Result, error) {
	if s.github == nil {
		return nil, fmt.Errorf("github is not configured")
	}
	rec, err := s.github.GetByID(ctx, fullName)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, apperr.ErrNoCatalogMatch
	}

	title := cast.ToString(rec.Get(models.FieldTitle))
	slug := repoSlug(fullName)
	if slug == "" {
		return nil, apperr.ErrNoCatalogMatch
	}
	docPath := path.Join(s.reposDir, slug+".md")
	if s.exists(docPath) {
		return nil, apperr.ErrAlreadyExists
	}

	records := []*models.CatalogRecord{rec}
	return s.finalize(ctx, docPath, nil, models.Header{}, repoBody(title),
		records, repoBaseTags, nil, slug, false, true)
}

// UpdateRepo refreshes an existing repository document from GitHub.
func (s *Service) UpdateRepo(ctx context.Context, docPath string, force bool) (*Result, error) {
	if s.github == nil {
		return nil, fmt.Errorf("github is not configured")
	}
	data, doc, err := s.readDocument(docPath)
	if err != nil {
		return nil, err
	}
	if !force && headerBool(doc.Header, models.FieldEnriched) {
		return nil, apperr.ErrUpToDate
	}

	fullName := headerString(doc.Header, models.FieldGitHubRepo)
	if fullName == "" {
		return nil, apperr.ErrNoCatalogMatch
	}
	rec, err := s.github.GetByID(ctx, fullName)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, apperr.ErrNoCatalogMatch
	}

	slug := repoSlug(fullName)
	records := []*models.CatalogRecord{rec}
	return s.finalize(ctx, docPath, data, doc.Header, doc.Body,
		records, repoBaseTags, nil, slug, force, false)
}

// repoSlug flattens owner/repo into a file slug keeping both parts, so
// forks of the same project do not collide.
func repoSlug(fullName string) string {
	return Slugify(strings.ReplaceAll(fullName, "/", " "))
}
