// Package reconcile merges catalog records into a note header, applying
// the provenance rules and per-field provider precedence.
package reconcile

import (
	"github.com/starford/othala/internal/apperr"
	"github.com/starford/othala/internal/models"
	"github.com/starford/othala/internal/provenance"
	"github.com/starford/othala/internal/tagutil"
)

// Result reports what a reconciliation produced.
type Result struct {
	Header    models.Header
	TagsAdded []string
	// Warnings collects non-fatal degradations (a record with no usable
	// fields, a skipped malformed value). They never abort the merge.
	Warnings []string
}

// Reconcile combines records into a header update and merges it into
// existing. baseTags is the fixed tag set for the document's content type
// (e.g. {"game","games"}). force bypasses the callers' freshness
// short-circuits and cover reuse; the merge rules themselves do not change
// under it. It returns ErrNoCatalogMatch when no record supplies a single
// usable field, so the caller never persists an empty merge.
func Reconcile(records []*models.CatalogRecord, existing models.Header, baseTags []string, force bool) (*Result, error) {
	var warnings []string
	records, dropped := usable(records)
	for _, p := range dropped {
		warnings = append(warnings, "catalog record from "+string(p)+" had no usable fields")
	}
	if len(records) == 0 {
		return nil, apperr.ErrNoCatalogMatch
	}

	incoming := models.Header{}
	for _, name := range provenance.SourceFields() {
		if v := firstNonEmpty(records, name); v != nil {
			incoming[name] = v
		}
	}
	if len(incoming) == 0 {
		return nil, apperr.ErrNoCatalogMatch
	}

	// Tags always refresh from source data with the document's existing
	// tags appended after; force rebuilds source fields but never drops
	// tags the user put on the document.
	incoming[models.FieldTags] = deriveTags(records, existing, baseTags)

	merged := provenance.MergeHeader(existing, incoming)

	return &Result{
		Header:    merged,
		TagsAdded: addedTags(existing, merged),
		Warnings:  warnings,
	}, nil
}

// usable drops records that carry no fields at all; one empty record must
// not block reconciliation against the rest.
func usable(records []*models.CatalogRecord) ([]*models.CatalogRecord, []models.Provider) {
	out := records[:0:0]
	var dropped []models.Provider
	for _, r := range records {
		if r == nil {
			continue
		}
		if len(r.Fields) == 0 {
			dropped = append(dropped, r.Provider)
			continue
		}
		out = append(out, r)
	}
	return out, dropped
}

// firstNonEmpty scans records in the field's declared provider precedence
// and returns the first non-empty value. Records whose provider has no rank
// for the field are considered last, in input order — the deterministic
// fallback when two records tie.
func firstNonEmpty(records []*models.CatalogRecord, field string) any {
	spec := provenance.Spec(field)
	for _, p := range spec.Precedence {
		for _, r := range records {
			if r.Provider != p {
				continue
			}
			if v := r.Get(field); !models.IsEmptyValue(v) {
				return v
			}
		}
	}
	for _, r := range records {
		if ranked(spec.Precedence, r.Provider) {
			continue // already scanned above
		}
		if v := r.Get(field); !models.IsEmptyValue(v) {
			return v
		}
	}
	return nil
}

func ranked(precedence []models.Provider, p models.Provider) bool {
	for _, rp := range precedence {
		if rp == p {
			return true
		}
	}
	return false
}

// deriveTags computes the derived tags field: the base set, canonicalized
// genre-like labels from every record in genre-field precedence order, a
// canonicalized franchise or series name, and finally any user-added tags
// already on the document that the computed set does not cover.
func deriveTags(records []*models.CatalogRecord, existing models.Header, baseTags []string) []string {
	labels := append([]string{}, baseTags...)

	for _, field := range []string{models.FieldGenres, models.FieldThemes, "calibre_tags", "topics"} {
		labels = append(labels, collectInPrecedence(records, field)...)
	}
	for _, field := range []string{models.FieldFranchises, models.FieldSeries} {
		labels = append(labels, collectInPrecedence(records, field)...)
	}

	computed := tagutil.CanonicalizeSet(labels)

	seen := make(map[string]struct{}, len(computed))
	for _, tag := range computed {
		seen[tag] = struct{}{}
	}
	for _, tag := range models.StringSlice(existing[models.FieldTags]) {
		canon := tagutil.Canonicalize(tag)
		if canon == "" {
			continue
		}
		if _, dup := seen[canon]; dup {
			continue
		}
		seen[canon] = struct{}{}
		computed = append(computed, canon)
	}
	return computed
}

// collectInPrecedence gathers a list-valued field from every record,
// ordered by the field's provider precedence so higher-authority labels
// canonicalize first.
func collectInPrecedence(records []*models.CatalogRecord, field string) []string {
	spec := provenance.Spec(field)
	var out []string
	for _, p := range spec.Precedence {
		for _, r := range records {
			if r.Provider == p {
				out = append(out, models.StringSlice(r.Get(field))...)
			}
		}
	}
	for _, r := range records {
		if !ranked(spec.Precedence, r.Provider) {
			out = append(out, models.StringSlice(r.Get(field))...)
		}
	}
	return out
}

// addedTags returns merged tags not present on the existing document.
func addedTags(existing, merged models.Header) []string {
	before := make(map[string]struct{})
	for _, tag := range models.StringSlice(existing[models.FieldTags]) {
		before[tagutil.Canonicalize(tag)] = struct{}{}
	}
	var out []string
	for _, tag := range models.StringSlice(merged[models.FieldTags]) {
		if _, ok := before[tag]; !ok {
			out = append(out, tag)
		}
	}
	return out
}
