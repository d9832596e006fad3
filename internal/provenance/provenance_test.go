package provenance

import (
	"errors"
	"reflect"
	"testing"

	"github.com/starford/othala/internal/apperr"
	"github.com/starford/othala/internal/models"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		want Ownership
	}{
		{models.FieldTitle, OwnershipSource},
		{models.FieldPlatforms, OwnershipSource},
		{models.FieldGenres, OwnershipSource},
		{models.FieldDeveloper, OwnershipSource},
		{models.FieldReleaseDate, OwnershipSource},
		{models.FieldTags, OwnershipDerived},
		{models.FieldImageURL, OwnershipDerived},
		{"rating", OwnershipUser},
		{"play_status", OwnershipUser},
		{"date_finished", OwnershipUser},
	}
	for _, c := range cases {
		if got := Classify(c.name); got != c.want {
			t.Errorf("Classify(%q) = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestClassify_UnknownDefaultsToUser(t *testing.T) {
	// The default-safe behavior: fields the table has never heard of are
	// user-owned and therefore never overwritten.
	if got := Classify("my_custom_vault_field"); got != OwnershipUser {
		t.Fatalf("unknown field classified as %v, want user", got)
	}
	if Known("my_custom_vault_field") {
		t.Error("unknown field reported as known")
	}
}

func TestValidateTable(t *testing.T) {
	if err := ValidateTable(); err != nil {
		t.Fatalf("static table invalid: %v", err)
	}
}

func TestValidateTable_ConflictDetected(t *testing.T) {
	orig := specTable
	defer func() { specTable = orig }()
	specTable = append([]FieldSpec{}, orig...)
	specTable = append(specTable, FieldSpec{Name: models.FieldTitle, Ownership: OwnershipUser})

	err := ValidateTable()
	if !errors.Is(err, apperr.ErrConflictingOwnership) {
		t.Fatalf("err = %v, want ErrConflictingOwnership", err)
	}
}

func TestMergeHeader_PreservesUserFields(t *testing.T) {
	existing := models.Header{"status": "Playing", "rating": 5}
	incoming := models.Header{"status": "Finished", "rating": 1, models.FieldPlatforms: []string{"PC"}}

	merged := MergeHeader(existing, incoming)

	if merged["status"] != "Playing" || merged["rating"] != 5 {
		t.Errorf("user fields overwritten: %v", merged)
	}
	if !reflect.DeepEqual(merged[models.FieldPlatforms], []string{"PC"}) {
		t.Errorf("source field not applied: %v", merged[models.FieldPlatforms])
	}
}

func TestMergeHeader_EmptyIncomingKeepsEverything(t *testing.T) {
	existing := models.Header{
		models.FieldTitle: "Outer Wilds",
		"rating":          5,
		"obscure_field":   "kept",
	}
	merged := MergeHeader(existing, models.Header{})
	if !reflect.DeepEqual(merged, existing) {
		t.Errorf("merged = %v, want %v", merged, existing)
	}
}

func TestMergeHeader_AdditiveNeverSubtractive(t *testing.T) {
	existing := models.Header{models.FieldDeveloper: "Mobius Digital"}
	// Incoming from a provider that happened not to return developer.
	merged := MergeHeader(existing, models.Header{models.FieldGenres: []string{"adventure"}})
	if merged[models.FieldDeveloper] != "Mobius Digital" {
		t.Errorf("field absent from incoming was dropped: %v", merged)
	}
}

func TestMergeHeader_DerivedReplaced(t *testing.T) {
	existing := models.Header{models.FieldTags: []string{"game", "old-tag"}}
	incoming := models.Header{models.FieldTags: []string{"game", "games", "action", "old-tag"}}
	merged := MergeHeader(existing, incoming)
	if !reflect.DeepEqual(merged[models.FieldTags], incoming[models.FieldTags]) {
		t.Errorf("derived field not replaced: %v", merged[models.FieldTags])
	}
}

func TestMergeHeader_DoesNotMutateExisting(t *testing.T) {
	existing := models.Header{models.FieldTitle: "A"}
	_ = MergeHeader(existing, models.Header{models.FieldTitle: "B"})
	if existing[models.FieldTitle] != "A" {
		t.Error("MergeHeader mutated its input")
	}
}
