package ops

import (
	"context"
	"strings"

	"github.com/hpungsan/pantry/internal/db"
	"github.com/hpungsan/pantry/internal/pantry"
)

// EnsureUnrecognized registers names in the scope owner's unrecognized
// registry and returns an entry for every distinct name, whether it was
// created now or already existed (including rows a concurrent request just
// inserted). contextTag is stored on newly created rows only.
func EnsureUnrecognized(ctx context.Context, s *db.Scope, names []string, contextTag *string) ([]MatchedFallback, error) {
	contextTag = cleanOptionalString(contextTag)
	now := nowUnix()

	var norms []string
	seen := make(map[string]bool)
	for _, n := range names {
		norm := pantry.Normalize(n)
		if norm == "" || seen[norm] {
			continue
		}
		seen[norm] = true
		norms = append(norms, norm)

		_, err := s.InsertUnrecognizedIfAbsent(ctx, pantry.UnrecognizedEntry{
			ID:        newID(),
			RawText:   strings.TrimSpace(n),
			Context:   contextTag,
			CreatedAt: now,
		})
		if err != nil {
			return nil, err
		}
	}
	if len(norms) == 0 {
		return []MatchedFallback{}, nil
	}

	entries, err := s.FindUnrecognizedByNames(ctx, norms)
	if err != nil {
		return nil, err
	}
	byNorm := make(map[string]pantry.UnrecognizedEntry, len(entries))
	for _, e := range entries {
		byNorm[pantry.Normalize(e.RawText)] = e
	}

	out := make([]MatchedFallback, 0, len(norms))
	for _, norm := range norms {
		if e, ok := byNorm[norm]; ok {
			out = append(out, MatchedFallback{ID: e.ID, RawText: e.RawText})
		}
	}
	return out, nil
}
