// Package propstats aggregates frontmatter property statistics across the
// vault for discovery tooling and provenance auditing.
package propstats

import (
	"sort"
	"strings"

	"github.com/spf13/cast"

	"github.com/starford/othala/internal/models"
	"github.com/starford/othala/internal/provenance"
)

const sampleCap = 3

// Doc pairs a document identifier with its parsed header.
type Doc struct {
	Path   string
	Header models.Header
}

// ValueCount is one histogram entry.
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Stats summarizes one property across the collection.
type Stats struct {
	Count        int            `json:"count"`
	Histogram    map[string]int `json:"histogram"`
	SampleValues []string       `json:"sample_values"`
	SampleDocs   []string       `json:"sample_docs"`

	// valueOrder remembers first-seen order for deterministic tie-breaks.
	valueOrder []string
}

// Ranked returns the histogram sorted by descending count, ties broken by
// first-seen order, so repeated runs over the same input rank identically.
func (s *Stats) Ranked() []ValueCount {
	out := make([]ValueCount, 0, len(s.Histogram))
	for _, v := range s.valueOrder {
		out = append(out, ValueCount{Value: v, Count: s.Histogram[v]})
	}
	// Stable sort over first-seen order gives the tie-break for free.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	return out
}

// Aggregate scans every header and builds per-property statistics: total
// count, per-value histogram, and up to three sample values and example
// documents in first-seen order.
func Aggregate(docs []Doc) map[string]*Stats {
	out := make(map[string]*Stats)
	for _, doc := range docs {
		for name, value := range doc.Header {
			st := out[name]
			if st == nil {
				st = &Stats{Histogram: make(map[string]int)}
				out[name] = st
			}
			st.Count++

			rendered := Stringify(value)
			if _, seen := st.Histogram[rendered]; !seen {
				st.valueOrder = append(st.valueOrder, rendered)
			}
			st.Histogram[rendered]++

			if len(st.SampleValues) < sampleCap && !contains(st.SampleValues, rendered) {
				st.SampleValues = append(st.SampleValues, rendered)
			}
			if len(st.SampleDocs) < sampleCap && !contains(st.SampleDocs, doc.Path) {
				st.SampleDocs = append(st.SampleDocs, doc.Path)
			}
		}
	}
	return out
}

// PropertyNames returns all aggregated property names sorted by descending
// document count, ties alphabetically.
func PropertyNames(stats map[string]*Stats) []string {
	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if stats[names[i]].Count != stats[names[j]].Count {
			return stats[names[i]].Count > stats[names[j]].Count
		}
		return names[i] < names[j]
	})
	return names
}

// Unclassified returns property names present in the collection that the
// provenance table has not classified, i.e. fields protected only by the
// user-by-default rule. They are candidates for extending the table.
func Unclassified(stats map[string]*Stats) []string {
	var out []string
	for _, name := range PropertyNames(stats) {
		if stats[name].Count > 0 && !provenance.Known(name) {
			out = append(out, name)
		}
	}
	return out
}

// Stringify renders a header value for histogram keys: lists join with a
// comma separator, nested maps fall back to a name/title/value sub-key,
// everything else renders through cast.
func Stringify(value any) string {
	switch v := value.(type) {
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, Stringify(item))
		}
		return strings.Join(parts, ", ")
	case []string:
		return strings.Join(v, ", ")
	case map[string]any:
		for _, key := range []string{"name", "title", "value"} {
			if sub, ok := v[key]; ok {
				return Stringify(sub)
			}
		}
		return cast.ToString(len(v)) + " fields"
	default:
		return cast.ToString(v)
	}
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
