package ops

import (
	"context"
	"strings"

	"github.com/hpungsan/pantry/internal/db"
	"github.com/hpungsan/pantry/internal/pantry"
)

// MatchedCatalog is a name resolved against the shared catalog.
type MatchedCatalog struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// MatchedFallback is a name resolved against the owner's unrecognized registry.
type MatchedFallback struct {
	ID      string `json:"id"`
	RawText string `json:"rawText"`
}

// Resolution partitions a batch of names. Every input name lands in exactly
// one of the three lists (after normalization and deduplication).
type Resolution struct {
	MatchedCatalog  []MatchedCatalog  `json:"matchedCatalog"`
	MatchedFallback []MatchedFallback `json:"matchedFallback"`
	StillUnmatched  []string          `json:"stillUnmatched"`

	refs map[string]pantry.Ref
	name map[pantry.Ref]string
}

// Lookup returns the Ref and display name a name resolved to.
func (r *Resolution) Lookup(name string) (pantry.Ref, string, bool) {
	ref, ok := r.refs[pantry.Normalize(name)]
	if !ok {
		return pantry.Ref{}, "", false
	}
	return ref, r.name[ref], true
}

// Refs returns every resolved Ref, catalog matches first, in input order.
func (r *Resolution) Refs() []pantry.Ref {
	out := make([]pantry.Ref, 0, len(r.MatchedCatalog)+len(r.MatchedFallback))
	for _, m := range r.MatchedCatalog {
		out = append(out, pantry.CatalogRef(m.ID))
	}
	for _, m := range r.MatchedFallback {
		out = append(out, pantry.FallbackRef(m.ID))
	}
	return out
}

// ResolveNames matches names against the catalog, then against the scope
// owner's unrecognized registry. Matching is exact on the normalized form;
// the catalog wins when both sides know a name. Unmatched names are returned
// trimmed, in the form first seen.
func ResolveNames(ctx context.Context, s *db.Scope, names []string) (*Resolution, error) {
	res := &Resolution{
		MatchedCatalog:  []MatchedCatalog{},
		MatchedFallback: []MatchedFallback{},
		StillUnmatched:  []string{},
		refs:            make(map[string]pantry.Ref),
		name:            make(map[pantry.Ref]string),
	}

	// norm -> first-seen trimmed original, in input order
	var norms []string
	original := make(map[string]string)
	for _, n := range names {
		norm := pantry.Normalize(n)
		if norm == "" {
			continue
		}
		if _, seen := original[norm]; seen {
			continue
		}
		original[norm] = strings.TrimSpace(n)
		norms = append(norms, norm)
	}
	if len(norms) == 0 {
		return res, nil
	}

	catalog, err := s.FindCatalogByNames(ctx, norms)
	if err != nil {
		return nil, err
	}
	catalogByNorm := make(map[string]pantry.CatalogIngredient, len(catalog))
	for _, c := range catalog {
		catalogByNorm[pantry.Normalize(c.Name)] = c
	}

	var remaining []string
	for _, norm := range norms {
		c, ok := catalogByNorm[norm]
		if !ok {
			remaining = append(remaining, norm)
			continue
		}
		ref := pantry.CatalogRef(c.ID)
		res.MatchedCatalog = append(res.MatchedCatalog, MatchedCatalog{ID: c.ID, Name: c.Name})
		res.refs[norm] = ref
		res.name[ref] = c.Name
	}
	if len(remaining) == 0 {
		return res, nil
	}

	fallback, err := s.FindUnrecognizedByNames(ctx, remaining)
	if err != nil {
		return nil, err
	}
	fallbackByNorm := make(map[string]pantry.UnrecognizedEntry, len(fallback))
	for _, e := range fallback {
		fallbackByNorm[pantry.Normalize(e.RawText)] = e
	}

	for _, norm := range remaining {
		e, ok := fallbackByNorm[norm]
		if !ok {
			res.StillUnmatched = append(res.StillUnmatched, original[norm])
			continue
		}
		ref := pantry.FallbackRef(e.ID)
		res.MatchedFallback = append(res.MatchedFallback, MatchedFallback{ID: e.ID, RawText: e.RawText})
		res.refs[norm] = ref
		res.name[ref] = e.RawText
	}

	return res, nil
}
