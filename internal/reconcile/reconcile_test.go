package reconcile

import (
	"errors"
	"reflect"
	"testing"

	"github.com/starford/othala/internal/apperr"
	"github.com/starford/othala/internal/models"
)

var gameTags = []string{"game", "games"}

func igdbRecord(fields map[string]any) *models.CatalogRecord {
	return &models.CatalogRecord{Provider: models.ProviderIGDB, SourceID: "1", Fields: fields}
}

func steamRecord(fields map[string]any) *models.CatalogRecord {
	return &models.CatalogRecord{Provider: models.ProviderSteam, SourceID: "440", Fields: fields}
}

func TestReconcile_PreservesUserFieldsAndDerivesTags(t *testing.T) {
	existing := models.Header{"status": "Playing", "rating": 5}
	rec := igdbRecord(map[string]any{
		models.FieldPlatforms: []string{"PC"},
		models.FieldGenres:    []string{"Action"},
	})

	res, err := Reconcile([]*models.CatalogRecord{rec}, existing, gameTags, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	h := res.Header
	if h["status"] != "Playing" || h["rating"] != 5 {
		t.Errorf("user fields not preserved: %v", h)
	}
	if !reflect.DeepEqual(h[models.FieldPlatforms], []string{"PC"}) {
		t.Errorf("platforms = %v", h[models.FieldPlatforms])
	}
	wantTags := []string{"game", "games", "action"}
	if !reflect.DeepEqual(h[models.FieldTags], wantTags) {
		t.Errorf("tags = %v, want %v", h[models.FieldTags], wantTags)
	}
	if !reflect.DeepEqual(res.TagsAdded, wantTags) {
		t.Errorf("tags added = %v, want %v", res.TagsAdded, wantTags)
	}
}

func TestReconcile_ProviderPrecedence(t *testing.T) {
	// IGDB outranks Steam for genres; only Steam supplies developer, so the
	// per-field scan falls through to the Steam value.
	igdb := igdbRecord(map[string]any{
		models.FieldTitle:  "Team Fortress 2",
		models.FieldGenres: []string{"Shooter"},
	})
	steam := steamRecord(map[string]any{
		models.FieldTitle:     "Team Fortress 2",
		models.FieldGenres:    []string{"Action", "Free to Play"},
		models.FieldDeveloper: "Valve",
	})

	res, err := Reconcile([]*models.CatalogRecord{steam, igdb}, models.Header{}, gameTags, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Header[models.FieldDeveloper] != "Valve" {
		t.Errorf("developer = %v, want Steam value", res.Header[models.FieldDeveloper])
	}
	if !reflect.DeepEqual(res.Header[models.FieldGenres], []string{"Shooter"}) {
		t.Errorf("genres = %v, want IGDB value", res.Header[models.FieldGenres])
	}
	// IGDB genre labels canonicalize ahead of Steam's in the tag set.
	wantTags := []string{"game", "games", "shooter", "action", "free-to-play"}
	if !reflect.DeepEqual(res.Header[models.FieldTags], wantTags) {
		t.Errorf("tags = %v, want %v", res.Header[models.FieldTags], wantTags)
	}
}

func TestReconcile_UserTagsAppendedAfterComputed(t *testing.T) {
	existing := models.Header{
		models.FieldTags: []any{"game", "backlog", "gift-from-sam"},
	}
	rec := igdbRecord(map[string]any{models.FieldGenres: []string{"Strategy"}})

	res, err := Reconcile([]*models.CatalogRecord{rec}, existing, gameTags, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"game", "games", "strategy", "backlog", "gift-from-sam"}
	if !reflect.DeepEqual(res.Header[models.FieldTags], want) {
		t.Errorf("tags = %v, want %v", res.Header[models.FieldTags], want)
	}
	wantAdded := []string{"games", "strategy"}
	if !reflect.DeepEqual(res.TagsAdded, wantAdded) {
		t.Errorf("tags added = %v, want %v", res.TagsAdded, wantAdded)
	}
}

func TestReconcile_ForceKeepsUserAddedTags(t *testing.T) {
	existing := models.Header{
		models.FieldTags: []any{"game", "games", "shooter", "favorite"},
	}
	rec := igdbRecord(map[string]any{models.FieldGenres: []string{"Shooter"}})

	for _, force := range []bool{false, true} {
		res, err := Reconcile([]*models.CatalogRecord{rec}, existing, gameTags, force)
		if err != nil {
			t.Fatalf("force=%v: unexpected error: %v", force, err)
		}
		want := []string{"game", "games", "shooter", "favorite"}
		if !reflect.DeepEqual(res.Header[models.FieldTags], want) {
			t.Errorf("force=%v: tags = %v, want %v", force, res.Header[models.FieldTags], want)
		}
	}
}

func TestReconcile_SeriesContributesTag(t *testing.T) {
	rec := igdbRecord(map[string]any{
		models.FieldGenres:     []string{"Adventure"},
		models.FieldFranchises: []string{"The Legend of Zelda"},
	})
	res, err := Reconcile([]*models.CatalogRecord{rec}, models.Header{}, gameTags, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"game", "games", "adventure", "the-legend-of-zelda"}
	if !reflect.DeepEqual(res.Header[models.FieldTags], want) {
		t.Errorf("tags = %v, want %v", res.Header[models.FieldTags], want)
	}
}

func TestReconcile_NoRecords(t *testing.T) {
	_, err := Reconcile(nil, models.Header{}, gameTags, false)
	if !errors.Is(err, apperr.ErrNoCatalogMatch) {
		t.Fatalf("err = %v, want ErrNoCatalogMatch", err)
	}
}

func TestReconcile_EmptyRecordDoesNotBlockOthers(t *testing.T) {
	empty := steamRecord(nil)
	rec := igdbRecord(map[string]any{models.FieldTitle: "Hades"})

	res, err := Reconcile([]*models.CatalogRecord{empty, rec}, models.Header{}, gameTags, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Header[models.FieldTitle] != "Hades" {
		t.Errorf("title = %v", res.Header[models.FieldTitle])
	}
	if len(res.Warnings) != 1 {
		t.Errorf("warnings = %v, want one entry for the empty record", res.Warnings)
	}
}

func TestReconcile_AllRecordsEmpty(t *testing.T) {
	_, err := Reconcile([]*models.CatalogRecord{steamRecord(nil), nil}, models.Header{}, gameTags, false)
	if !errors.Is(err, apperr.ErrNoCatalogMatch) {
		t.Fatalf("err = %v, want ErrNoCatalogMatch", err)
	}
}

func TestReconcile_EmptyValueFallsThrough(t *testing.T) {
	igdb := igdbRecord(map[string]any{models.FieldDeveloper: ""})
	steam := steamRecord(map[string]any{models.FieldDeveloper: "Valve"})
	res, err := Reconcile([]*models.CatalogRecord{igdb, steam}, models.Header{}, gameTags, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Header[models.FieldDeveloper] != "Valve" {
		t.Errorf("empty IGDB value should fall through to Steam, got %v", res.Header[models.FieldDeveloper])
	}
}

func TestReconcile_FieldAbsentEverywhereLeavesExisting(t *testing.T) {
	existing := models.Header{models.FieldReleaseDate: "1998-11-08"}
	rec := igdbRecord(map[string]any{models.FieldTitle: "Half-Life"})
	res, err := Reconcile([]*models.CatalogRecord{rec}, existing, gameTags, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Header[models.FieldReleaseDate] != "1998-11-08" {
		t.Errorf("release_date = %v, want untouched existing value", res.Header[models.FieldReleaseDate])
	}
}
