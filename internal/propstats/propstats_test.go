package propstats

import (
	"reflect"
	"testing"

	"github.com/starford/othala/internal/models"
)

func TestAggregate_HistogramAndSamples(t *testing.T) {
	docs := []Doc{
		{Path: "a.md", Header: models.Header{"rating": 5}},
		{Path: "b.md", Header: models.Header{"rating": 5}},
		{Path: "c.md", Header: models.Header{"rating": 4}},
	}
	stats := Aggregate(docs)

	st := stats["rating"]
	if st == nil {
		t.Fatal("no stats for rating")
	}
	if st.Count != 3 {
		t.Errorf("count = %d, want 3", st.Count)
	}
	want := map[string]int{"5": 2, "4": 1}
	if !reflect.DeepEqual(st.Histogram, want) {
		t.Errorf("histogram = %v, want %v", st.Histogram, want)
	}
	if !reflect.DeepEqual(st.SampleValues, []string{"5", "4"}) {
		t.Errorf("sample values = %v", st.SampleValues)
	}
	if !reflect.DeepEqual(st.SampleDocs, []string{"a.md", "b.md", "c.md"}) {
		t.Errorf("sample docs = %v", st.SampleDocs)
	}
}

func TestAggregate_SampleCapNoReplacement(t *testing.T) {
	var docs []Doc
	values := []string{"one", "two", "three", "four", "five"}
	paths := []string{"1.md", "2.md", "3.md", "4.md", "5.md"}
	for i := range values {
		docs = append(docs, Doc{Path: paths[i], Header: models.Header{"status": values[i]}})
	}
	st := Aggregate(docs)["status"]
	if !reflect.DeepEqual(st.SampleValues, []string{"one", "two", "three"}) {
		t.Errorf("sample values = %v, want first three", st.SampleValues)
	}
	if !reflect.DeepEqual(st.SampleDocs, []string{"1.md", "2.md", "3.md"}) {
		t.Errorf("sample docs = %v, want first three", st.SampleDocs)
	}
}

func TestRanked_DescendingCountTiesFirstSeen(t *testing.T) {
	docs := []Doc{
		{Path: "a.md", Header: models.Header{"genre": "rpg"}},
		{Path: "b.md", Header: models.Header{"genre": "action"}},
		{Path: "c.md", Header: models.Header{"genre": "action"}},
		{Path: "d.md", Header: models.Header{"genre": "strategy"}},
	}
	got := Aggregate(docs)["genre"].Ranked()
	want := []ValueCount{
		{Value: "action", Count: 2},
		{Value: "rpg", Count: 1},      // tie with strategy, seen first
		{Value: "strategy", Count: 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ranked = %v, want %v", got, want)
	}
}

func TestStringify(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{"plain", "plain"},
		{5, "5"},
		{4.5, "4.5"},
		{true, "true"},
		{[]string{"PC", "Switch"}, "PC, Switch"},
		{[]any{"a", 1}, "a, 1"},
		{map[string]any{"name": "Valve"}, "Valve"},
		{map[string]any{"title": "Dune"}, "Dune"},
		{map[string]any{"value": 7}, "7"},
		{map[string]any{"unrelated": "x"}, "1 fields"},
	}
	for _, c := range cases {
		if got := Stringify(c.in); got != c.want {
			t.Errorf("Stringify(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestPropertyNames_OrderedByCount(t *testing.T) {
	docs := []Doc{
		{Path: "a.md", Header: models.Header{"title": "x", "rating": 5}},
		{Path: "b.md", Header: models.Header{"title": "y"}},
	}
	got := PropertyNames(Aggregate(docs))
	if !reflect.DeepEqual(got, []string{"title", "rating"}) {
		t.Errorf("names = %v", got)
	}
}

func TestUnclassified(t *testing.T) {
	docs := []Doc{
		{Path: "a.md", Header: models.Header{
			models.FieldTitle: "x",
			"rating":          5,
			"my_mood_field":   "cozy",
		}},
	}
	got := Unclassified(Aggregate(docs))
	if !reflect.DeepEqual(got, []string{"my_mood_field"}) {
		t.Errorf("unclassified = %v, want [my_mood_field]", got)
	}
}
