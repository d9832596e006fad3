package catalogs

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"

	gh "github.com/google/go-github/v80/github"

	"github.com/starford/othala/internal/models"
)

func TestIGDBRecordNormalization(t *testing.T) {
	raw := `{
		"id": 1942,
		"name": "The Witcher 3: Wild Hunt",
		"summary": "A story-driven open world RPG.",
		"first_release_date": 1431993600,
		"platforms": [{"name": "PC (Microsoft Windows)"}, {"name": "PlayStation 4"}],
		"genres": [{"name": "Role-playing (RPG)"}],
		"themes": [{"name": "Fantasy"}, {"name": "Open world"}],
		"franchises": [{"name": "The Witcher"}],
		"cover": {"image_id": "co1wyy"},
		"websites": [{"url": "https://thewitcher.com"}],
		"involved_companies": [
			{"company": {"name": "CD Projekt Red"}, "developer": true, "publisher": false},
			{"company": {"name": "CD Projekt"}, "developer": false, "publisher": true}
		]
	}`
	var g igdbGame
	if err := json.Unmarshal([]byte(raw), &g); err != nil {
		t.Fatalf("unmarshal fixture: %v", err)
	}

	rec := igdbRecord(g)
	if rec.Provider != models.ProviderIGDB {
		t.Errorf("provider = %q, want igdb", rec.Provider)
	}
	if rec.SourceID != "1942" {
		t.Errorf("source id = %q, want 1942", rec.SourceID)
	}
	if got := rec.Get(models.FieldTitle); got != "The Witcher 3: Wild Hunt" {
		t.Errorf("title = %v", got)
	}
	if got := rec.Get(models.FieldReleaseDate); got != "2015-05-19" {
		t.Errorf("release_date = %v, want 2015-05-19", got)
	}
	wantGenres := []string{"Role-playing (RPG)"}
	if got := rec.Get(models.FieldGenres); !reflect.DeepEqual(got, wantGenres) {
		t.Errorf("genres = %v, want %v", got, wantGenres)
	}
	wantCover := "https://images.igdb.com/igdb/image/upload/t_cover_big/co1wyy.jpg"
	if got := rec.Get(models.FieldCoverRef); got != wantCover {
		t.Errorf("cover_ref = %v, want %v", got, wantCover)
	}
	if got := rec.Get(models.FieldDeveloper); got != "CD Projekt Red" {
		t.Errorf("developer = %v", got)
	}
	if got := rec.Get(models.FieldPublisher); got != "CD Projekt" {
		t.Errorf("publisher = %v", got)
	}
	if got := rec.Get(models.FieldIGDBID); got != int64(1942) {
		t.Errorf("igdb_id = %v (%T)", got, got)
	}
}

func TestIGDBRecordSparseGame(t *testing.T) {
	rec := igdbRecord(igdbGame{ID: 7, Name: "Obscure Title"})
	if got := rec.Get(models.FieldTitle); got != "Obscure Title" {
		t.Errorf("title = %v", got)
	}
	for _, absent := range []string{models.FieldReleaseDate, models.FieldGenres, models.FieldCoverRef, models.FieldWebsites} {
		if v := rec.Get(absent); v != nil {
			t.Errorf("field %q = %v, want absent", absent, v)
		}
	}
}

func TestGitHubRecordNormalization(t *testing.T) {
	r := &gh.Repository{
		FullName:        gh.Ptr("gorilla/mux"),
		Name:            gh.Ptr("mux"),
		Description:     gh.Ptr("A powerful HTTP router."),
		Homepage:        gh.Ptr("https://gorilla.github.io"),
		HTMLURL:         gh.Ptr("https://github.com/gorilla/mux"),
		Language:        gh.Ptr("Go"),
		Topics:          []string{"go", "router"},
		StargazersCount: gh.Ptr(20000),
		License:         &gh.License{SPDXID: gh.Ptr("BSD-3-Clause")},
		PushedAt:        &gh.Timestamp{Time: time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)},
	}

	rec := githubRecord(r)
	if rec.SourceID != "gorilla/mux" {
		t.Errorf("source id = %q", rec.SourceID)
	}
	if got := rec.Get(models.FieldTitle); got != "mux" {
		t.Errorf("title = %v", got)
	}
	if got := rec.Get(models.FieldGitHubRepo); got != "gorilla/mux" {
		t.Errorf("github_repo = %v", got)
	}
	wantSites := []string{"https://github.com/gorilla/mux", "https://gorilla.github.io"}
	if got := rec.Get(models.FieldWebsites); !reflect.DeepEqual(got, wantSites) {
		t.Errorf("websites = %v, want %v", got, wantSites)
	}
	if got := rec.Get("license"); got != "BSD-3-Clause" {
		t.Errorf("license = %v", got)
	}
	if got := rec.Get("last_pushed"); got != "2024-02-01" {
		t.Errorf("last_pushed = %v", got)
	}
}

func TestGitHubRecordNoAssertionLicense(t *testing.T) {
	r := &gh.Repository{
		FullName: gh.Ptr("x/y"),
		Name:     gh.Ptr("y"),
		HTMLURL:  gh.Ptr("https://github.com/x/y"),
		License:  &gh.License{SPDXID: gh.Ptr("NOASSERTION")},
	}
	rec := githubRecord(r)
	if v := rec.Get("license"); v != nil {
		t.Errorf("license = %v, want absent for NOASSERTION", v)
	}
	if v := rec.Get("last_pushed"); v != nil {
		t.Errorf("last_pushed = %v, want absent without a push timestamp", v)
	}
}

func TestSteamImageURLs(t *testing.T) {
	c := NewSteam("key", "7656119")
	wantLib := "https://cdn.cloudflare.steamstatic.com/steam/apps/292030/library_600x900.jpg"
	if got := c.LibraryImageURL(292030); got != wantLib {
		t.Errorf("library url = %q, want %q", got, wantLib)
	}
	wantHdr := "https://cdn.cloudflare.steamstatic.com/steam/apps/292030/header.jpg"
	if got := c.HeaderImageURL(292030); got != wantHdr {
		t.Errorf("header url = %q, want %q", got, wantHdr)
	}
}

func TestOwnedGamePlaytimeHours(t *testing.T) {
	cases := []struct {
		minutes int64
		want    float64
	}{
		{0, 0},
		{30, 0.5},
		{90, 1.5},
		{12345, 205.8},
	}
	for _, tc := range cases {
		g := OwnedGame{PlaytimeForever: tc.minutes}
		if got := g.PlaytimeHours(); got != tc.want {
			t.Errorf("PlaytimeHours(%d min) = %v, want %v", tc.minutes, got, tc.want)
		}
	}
}

func TestCalibreConcatHelpers(t *testing.T) {
	fields := map[string]any{}
	putConcat(fields, models.FieldAuthors, "Ursula K. Le Guin, ,Hayao Miyazaki")
	want := []string{"Ursula K. Le Guin", "Hayao Miyazaki"}
	if got := fields[models.FieldAuthors]; !reflect.DeepEqual(got, want) {
		t.Errorf("authors = %v, want %v", got, want)
	}

	putConcat(fields, models.FieldLanguages, "")
	if _, ok := fields[models.FieldLanguages]; ok {
		t.Error("empty concat must not set the field")
	}

	if got := firstConcat("Earthsea, Other Series"); got != "Earthsea" {
		t.Errorf("firstConcat = %q", got)
	}
	if got := firstConcat("Standalone"); got != "Standalone" {
		t.Errorf("firstConcat = %q", got)
	}
}
