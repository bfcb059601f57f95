package ops

import (
	"context"
	"database/sql"

	"github.com/hpungsan/pantry/internal/db"
)

// Match sources reported by ValidateIngredients.
const (
	SourceCatalog      = "catalog"
	SourceUnrecognized = "unrecognized"
)

// ValidateInput contains parameters for the ValidateIngredients operation.
type ValidateInput struct {
	OwnerID         string   `json:"-"`
	IngredientNames []string `json:"ingredientNames"`
}

// MatchedIngredient is a name that resolved to a known ingredient.
type MatchedIngredient struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Source string `json:"source"`
}

// ValidateOutput partitions the input names.
type ValidateOutput struct {
	Matched      []MatchedIngredient `json:"matched"`
	Unrecognized []string            `json:"unrecognized"`
}

// ValidateIngredients resolves names without writing anything. Catalog
// matches come first, then the owner's registry matches.
func ValidateIngredients(ctx context.Context, database *sql.DB, input ValidateInput) (*ValidateOutput, error) {
	var res *Resolution
	err := db.WithReadTx(ctx, database, input.OwnerID, func(s *db.Scope) error {
		var err error
		res, err = ResolveNames(ctx, s, input.IngredientNames)
		return err
	})
	if err != nil {
		return nil, err
	}

	out := &ValidateOutput{
		Matched:      make([]MatchedIngredient, 0, len(res.MatchedCatalog)+len(res.MatchedFallback)),
		Unrecognized: res.StillUnmatched,
	}
	for _, m := range res.MatchedCatalog {
		out.Matched = append(out.Matched, MatchedIngredient{ID: m.ID, Name: m.Name, Source: SourceCatalog})
	}
	for _, m := range res.MatchedFallback {
		out.Matched = append(out.Matched, MatchedIngredient{ID: m.ID, Name: m.RawText, Source: SourceUnrecognized})
	}
	return out, nil
}
