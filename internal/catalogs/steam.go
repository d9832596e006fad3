package catalogs

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/starford/othala/internal/models"
)

const (
	steamAPIBaseURL  = "https://api.steampowered.com"
	steamStoreAPIURL = "https://store.steampowered.com/api"
	steamCDNURL      = "https://cdn.cloudflare.steamstatic.com/steam/apps"
	steamHTTPTimeout = 15 * time.Second
)

// OwnedGame is one entry of a Steam library listing.
type OwnedGame struct {
	AppID           int64   `json:"appid"`
	Name            string  `json:"name"`
	PlaytimeForever int64   `json:"playtime_forever"` // minutes
	LastPlayed      int64   `json:"rtime_last_played"`
}

// PlaytimeHours converts minutes to hours rounded to one decimal.
func (g OwnedGame) PlaytimeHours() float64 {
	return float64(int64(float64(g.PlaytimeForever)/60*10+0.5)) / 10
}

// Steam is a client for the Steam Web API and store API.
type Steam struct {
	apiKey    string
	steamID64 string
	http      *http.Client
	limiter   *rate.Limiter
}

// NewSteam creates a Steam client for one user's library.
func NewSteam(apiKey, steamID64 string) *Steam {
	return &Steam{
		apiKey:    apiKey,
		steamID64: steamID64,
		http:      &http.Client{Timeout: steamHTTPTimeout},
		// Steam rate limits are undocumented; stay conservative.
		limiter: rate.NewLimiter(rate.Every(1500*time.Millisecond), 1),
	}
}

// Provider implements Client.
func (c *Steam) Provider() models.Provider { return models.ProviderSteam }

// Search implements Client by filtering the owned-games listing by name
// substring. Steam has no public title-search endpoint scoped to a library.
func (c *Steam) Search(ctx context.Context, query string, limit int) ([]*models.CatalogRecord, error) {
	if limit <= 0 {
		limit = 5
	}
	games, err := c.OwnedGames(ctx)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(query)
	var out []*models.CatalogRecord
	for _, g := range games {
		if !strings.Contains(strings.ToLower(g.Name), q) {
			continue
		}
		rec, err := c.GetByID(ctx, strconv.FormatInt(g.AppID, 10))
		if err != nil || rec == nil {
			continue
		}
		out = append(out, rec)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

// GetByID implements Client; id is a Steam app id. Library playtime is
// attached when the app appears in the configured user's library.
func (c *Steam) GetByID(ctx context.Context, id string) (*models.CatalogRecord, error) {
	appid, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("steam: invalid app id %q: %w", id, err)
	}

	details, err := c.appDetails(ctx, appid)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{
		models.FieldSteamAppID: appid,
		models.FieldPlatforms:  []string{"PC", "Steam"},
	}
	if details != nil {
		if details.Name != "" {
			fields[models.FieldTitle] = details.Name
		}
		if details.ShortDescription != "" {
			fields[models.FieldSummary] = details.ShortDescription
		}
		if len(details.Genres) > 0 {
			genres := make([]string, 0, len(details.Genres))
			for _, g := range details.Genres {
				if g.Description != "" {
					genres = append(genres, g.Description)
				}
			}
			if len(genres) > 0 {
				fields[models.FieldGenres] = genres
			}
		}
		if details.ReleaseDate.Date != "" {
			fields[models.FieldReleaseDate] = details.ReleaseDate.Date
		}
		if len(details.Developers) > 0 {
			fields[models.FieldDeveloper] = strings.Join(details.Developers, ", ")
		}
		if len(details.Publishers) > 0 {
			fields[models.FieldPublisher] = strings.Join(details.Publishers, ", ")
		}
	}
	fields[models.FieldCoverRef] = c.LibraryImageURL(appid)

	if games, err := c.OwnedGames(ctx); err == nil {
		for _, g := range games {
			if g.AppID == appid {
				fields[models.FieldPlaytime] = g.PlaytimeHours()
				if _, ok := fields[models.FieldTitle]; !ok && g.Name != "" {
					fields[models.FieldTitle] = g.Name
				}
				break
			}
		}
	}

	return &models.CatalogRecord{
		Provider: models.ProviderSteam,
		SourceID: id,
		Fields:   fields,
	}, nil
}

// OwnedGames returns the configured user's library with playtime.
func (c *Steam) OwnedGames(ctx context.Context) ([]OwnedGame, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	q := url.Values{
		"key":                       {c.apiKey},
		"steamid":                   {c.steamID64},
		"format":                    {"json"},
		"include_appinfo":           {"1"},
		"include_played_free_games": {"1"},
	}
	u := steamAPIBaseURL + "/IPlayerService/GetOwnedGames/v0001/?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("steam: build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("steam: owned games: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("steam: owned games: status %d", resp.StatusCode)
	}

	var payload struct {
		Response struct {
			Games []OwnedGame `json:"games"`
		} `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("steam: decode owned games: %w", err)
	}
	return payload.Response.Games, nil
}

// RecentlyPlayed returns up to count recently played games.
func (c *Steam) RecentlyPlayed(ctx context.Context, count int) ([]OwnedGame, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	if count <= 0 || count > 100 {
		count = 10
	}
	q := url.Values{
		"key":     {c.apiKey},
		"steamid": {c.steamID64},
		"format":  {"json"},
		"count":   {strconv.Itoa(count)},
	}
	u := steamAPIBaseURL + "/IPlayerService/GetRecentlyPlayedGames/v0001/?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("steam: build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("steam: recently played: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("steam: recently played: status %d", resp.StatusCode)
	}

	var payload struct {
		Response struct {
			Games []OwnedGame `json:"games"`
		} `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("steam: decode recently played: %w", err)
	}
	return payload.Response.Games, nil
}

// LibraryImageURL returns the high-quality library capsule image URL.
func (c *Steam) LibraryImageURL(appid int64) string {
	return fmt.Sprintf("%s/%d/library_600x900.jpg", steamCDNURL, appid)
}

// HeaderImageURL returns the lower-resolution header image URL, used as
// the fallback when no library capsule exists.
func (c *Steam) HeaderImageURL(appid int64) string {
	return fmt.Sprintf("%s/%d/header.jpg", steamCDNURL, appid)
}

type steamAppDetails struct {
	Name             string   `json:"name"`
	ShortDescription string   `json:"short_description"`
	Developers       []string `json:"developers"`
	Publishers       []string `json:"publishers"`
	Genres           []struct {
		Description string `json:"description"`
	} `json:"genres"`
	ReleaseDate struct {
		Date string `json:"date"`
	} `json:"release_date"`
}

func (c *Steam) appDetails(ctx context.Context, appid int64) (*steamAppDetails, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	u := fmt.Sprintf("%s/appdetails?appids=%d&l=english", steamStoreAPIURL, appid)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("steam: build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("steam: app details: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("steam: app details: status %d", resp.StatusCode)
	}

	var payload map[string]struct {
		Success bool            `json:"success"`
		Data    steamAppDetails `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("steam: decode app details: %w", err)
	}
	entry, ok := payload[strconv.FormatInt(appid, 10)]
	if !ok || !entry.Success {
		return nil, nil
	}
	return &entry.Data, nil
}
