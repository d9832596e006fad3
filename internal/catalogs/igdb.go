package catalogs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"

	"github.com/starford/othala/internal/models"
)

const (
	igdbBaseURL    = "https://api.igdb.com/v4"
	twitchTokenURL = "https://id.twitch.tv/oauth2/token"
	igdbCoverURL   = "https://images.igdb.com/igdb/image/upload/t_cover_big/%s.jpg"
)

// igdbFields is the field list requested for every game query.
var igdbFields = strings.Join([]string{
	"name", "summary", "first_release_date",
	"platforms.name", "genres.name", "themes.name", "franchises.name",
	"game_modes.name", "player_perspectives.name",
	"cover.image_id", "websites.url",
	"involved_companies.company.name", "involved_companies.developer", "involved_companies.publisher",
}, ",")

// IGDB is a client for the IGDB game database. Authentication uses Twitch
// client credentials; the oauth2 transport caches and refreshes the token.
type IGDB struct {
	clientID string
	http     *http.Client
	limiter  *rate.Limiter
}

// NewIGDB creates an IGDB client from Twitch credentials.
func NewIGDB(clientID, clientSecret string) *IGDB {
	cc := clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     twitchTokenURL,
	}
	return &IGDB{
		clientID: clientID,
		http:     cc.Client(context.Background()),
		// IGDB allows 4 requests per second per client.
		limiter: rate.NewLimiter(rate.Limit(4), 1),
	}
}

// Provider implements Client.
func (c *IGDB) Provider() models.Provider { return models.ProviderIGDB }

// Search implements Client using an Apicalypse search query.
func (c *IGDB) Search(ctx context.Context, query string, limit int) ([]*models.CatalogRecord, error) {
	if limit <= 0 {
		limit = 5
	}
	body := fmt.Sprintf("search %q; fields %s; limit %d;", query, igdbFields, limit)
	games, err := c.query(ctx, body)
	if err != nil {
		return nil, err
	}
	out := make([]*models.CatalogRecord, 0, len(games))
	for _, g := range games {
		out = append(out, igdbRecord(g))
	}
	return out, nil
}

// GetByID implements Client.
func (c *IGDB) GetByID(ctx context.Context, id string) (*models.CatalogRecord, error) {
	body := fmt.Sprintf("where id = %s; fields %s;", id, igdbFields)
	games, err := c.query(ctx, body)
	if err != nil {
		return nil, err
	}
	if len(games) == 0 {
		return nil, nil
	}
	return igdbRecord(games[0]), nil
}

func (c *IGDB) query(ctx context.Context, body string) ([]igdbGame, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, igdbBaseURL+"/games", strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("igdb: build request: %w", err)
	}
	req.Header.Set("Client-ID", c.clientID)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("igdb: query: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("igdb: status %d: %s", resp.StatusCode, msg)
	}

	var games []igdbGame
	if err := json.NewDecoder(resp.Body).Decode(&games); err != nil {
		return nil, fmt.Errorf("igdb: decode: %w", err)
	}
	return games, nil
}

type igdbNamed struct {
	Name string `json:"name"`
}

type igdbGame struct {
	ID               int64       `json:"id"`
	Name             string      `json:"name"`
	Summary          string      `json:"summary"`
	FirstReleaseDate int64       `json:"first_release_date"`
	Platforms        []igdbNamed `json:"platforms"`
	Genres           []igdbNamed `json:"genres"`
	Themes           []igdbNamed `json:"themes"`
	Franchises       []igdbNamed `json:"franchises"`
	GameModes        []igdbNamed `json:"game_modes"`
	Perspectives     []igdbNamed `json:"player_perspectives"`
	Cover            struct {
		ImageID string `json:"image_id"`
	} `json:"cover"`
	Websites []struct {
		URL string `json:"url"`
	} `json:"websites"`
	InvolvedCompanies []struct {
		Company   igdbNamed `json:"company"`
		Developer bool      `json:"developer"`
		Publisher bool      `json:"publisher"`
	} `json:"involved_companies"`
}

// igdbRecord normalizes one IGDB response into a CatalogRecord.
func igdbRecord(g igdbGame) *models.CatalogRecord {
	fields := map[string]any{}
	if g.Name != "" {
		fields[models.FieldTitle] = g.Name
	}
	if g.Summary != "" {
		fields[models.FieldSummary] = g.Summary
	}
	if g.FirstReleaseDate > 0 {
		fields[models.FieldReleaseDate] = time.Unix(g.FirstReleaseDate, 0).UTC().Format("2006-01-02")
	}
	putNames(fields, models.FieldPlatforms, g.Platforms)
	putNames(fields, models.FieldGenres, g.Genres)
	putNames(fields, models.FieldThemes, g.Themes)
	putNames(fields, models.FieldFranchises, g.Franchises)
	putNames(fields, "game_modes", g.GameModes)
	putNames(fields, "player_perspectives", g.Perspectives)

	if g.Cover.ImageID != "" {
		fields[models.FieldCoverRef] = fmt.Sprintf(igdbCoverURL, g.Cover.ImageID)
	}
	if len(g.Websites) > 0 {
		urls := make([]string, 0, len(g.Websites))
		for _, w := range g.Websites {
			if w.URL != "" {
				urls = append(urls, w.URL)
			}
		}
		if len(urls) > 0 {
			fields[models.FieldWebsites] = urls
		}
	}
	for _, ic := range g.InvolvedCompanies {
		if ic.Company.Name == "" {
			continue
		}
		if ic.Developer {
			if _, ok := fields[models.FieldDeveloper]; !ok {
				fields[models.FieldDeveloper] = ic.Company.Name
			}
		}
		if ic.Publisher {
			if _, ok := fields[models.FieldPublisher]; !ok {
				fields[models.FieldPublisher] = ic.Company.Name
			}
		}
	}
	fields[models.FieldIGDBID] = g.ID

	return &models.CatalogRecord{
		Provider: models.ProviderIGDB,
		SourceID: fmt.Sprintf("%d", g.ID),
		Fields:   fields,
	}
}

func putNames(fields map[string]any, key string, items []igdbNamed) {
	if len(items) == 0 {
		return
	}
	names := make([]string, 0, len(items))
	for _, item := range items {
		if item.Name != "" {
			names = append(names, item.Name)
		}
	}
	if len(names) > 0 {
		fields[key] = names
	}
}
