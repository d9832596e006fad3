package enrich

import (
	"context"
	"fmt"

	"github.com/starford/othala/internal/apperr"
	"github.com/starford/othala/internal/propstats"
)

// PropertyOverview lists every frontmatter property with usage counts.
type PropertyOverview struct {
	Names        []string                    `json:"names"`
	Stats        map[string]*propstats.Stats `json:"stats"`
	Unclassified []string                    `json:"unclassified"`
}

// PropertyStats aggregates frontmatter properties across the whole vault.
func (s *Service) PropertyStats(_ context.Context) (*PropertyOverview, error) {
	if s.db == nil {
		return nil, fmt.Errorf("index is not configured")
	}
	rows, err := s.db.AllHeaders()
	if err != nil {
		return nil, err
	}
	docs := make([]propstats.Doc, len(rows))
	for i, r := range rows {
		docs[i] = propstats.Doc{Path: r.Path, Header: r.Header}
	}
	stats := propstats.Aggregate(docs)
	return &PropertyOverview{
		Names:        propstats.PropertyNames(stats),
		Stats:        stats,
		Unclassified: propstats.Unclassified(stats),
	}, nil
}

// PropertyValues returns the ranked value histogram for one property.
func (s *Service) PropertyValues(ctx context.Context, name string) ([]propstats.ValueCount, error) {
	overview, err := s.PropertyStats(ctx)
	if err != nil {
		return nil, err
	}
	st, ok := overview.Stats[name]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return st.Ranked(), nil
}

// FilesWithProperty returns the paths of documents carrying a property.
func (s *Service) FilesWithProperty(_ context.Context, name string) ([]string, error) {
	if s.db == nil {
		return nil, fmt.Errorf("index is not configured")
	}
	return s.db.DocumentsWithProperty(name)
}

// VaultStats summarizes the vault by document kind.
type VaultStats struct {
	Total  int            `json:"total"`
	ByKind map[string]int `json:"by_kind"`
}

// Stats returns vault-wide document counts.
func (s *Service) Stats(_ context.Context) (*VaultStats, error) {
	if s.db == nil {
		return nil, fmt.Errorf("index is not configured")
	}
	counts, err := s.db.CountByKind()
	if err != nil {
		return nil, err
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	return &VaultStats{Total: total, ByKind: counts}, nil
}
