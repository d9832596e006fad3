package catalogs

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/time/rate"

	"github.com/starford/othala/internal/models"
)

// GitHub is a catalog client over the GitHub REST API. The token is
// optional; without one the client runs against the unauthenticated
// rate limit.
type GitHub struct {
	gh      *gh.Client
	limiter *rate.Limiter
}

// NewGitHub creates a GitHub client.
func NewGitHub(token string) *GitHub {
	client := gh.NewClient(&http.Client{Timeout: 15 * time.Second})
	if token != "" {
		client = client.WithAuthToken(token)
	}
	return &GitHub{
		gh:      client,
		limiter: rate.NewLimiter(rate.Every(time.Second), 2),
	}
}

// Provider implements Client.
func (c *GitHub) Provider() models.Provider { return models.ProviderGitHub }

// Search implements Client using the repository search endpoint.
func (c *GitHub) Search(ctx context.Context, query string, limit int) ([]*models.CatalogRecord, error) {
	if limit <= 0 {
		limit = 5
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	res, _, err := c.gh.Search.Repositories(ctx, query, &gh.SearchOptions{
		ListOptions: gh.ListOptions{PerPage: limit},
	})
	if err != nil {
		return nil, fmt.Errorf("github: search %q: %w", query, err)
	}
	out := make([]*models.CatalogRecord, 0, len(res.Repositories))
	for _, r := range res.Repositories {
		out = append(out, githubRecord(r))
	}
	return out, nil
}

// GetByID implements Client; id is "owner/repo".
func (c *GitHub) GetByID(ctx context.Context, id string) (*models.CatalogRecord, error) {
	owner, name, ok := strings.Cut(id, "/")
	if !ok {
		return nil, fmt.Errorf("github: repo id %q must be owner/repo", id)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	repo, resp, err := c.gh.Repositories.Get(ctx, owner, name)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("github: get %s: %w", id, err)
	}
	return githubRecord(repo), nil
}

func githubRecord(r *gh.Repository) *models.CatalogRecord {
	fields := map[string]any{
		models.FieldTitle:      r.GetName(),
		models.FieldGitHubRepo: r.GetFullName(),
		"stars":                r.GetStargazersCount(),
	}
	if d := r.GetDescription(); d != "" {
		fields[models.FieldSummary] = d
	}
	if l := r.GetLanguage(); l != "" {
		fields["language"] = l
	}
	if len(r.Topics) > 0 {
		fields["topics"] = r.Topics
	}
	urls := []string{r.GetHTMLURL()}
	if h := r.GetHomepage(); h != "" {
		urls = append(urls, h)
	}
	fields[models.FieldWebsites] = urls
	if spdx := r.GetLicense().GetSPDXID(); spdx != "" && spdx != "NOASSERTION" {
		fields["license"] = spdx
	}
	if pushed := r.GetPushedAt(); !pushed.IsZero() {
		fields["last_pushed"] = pushed.Format("2006-01-02")
	}
	return &models.CatalogRecord{
		Provider: models.ProviderGitHub,
		SourceID: r.GetFullName(),
		Fields:   fields,
	}
}
