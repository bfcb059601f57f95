package ops

import (
	"bytes"
	"context"
	"database/sql"
	"html"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/hpungsan/pantry/internal/db"
	"github.com/hpungsan/pantry/internal/errors"
	"github.com/hpungsan/pantry/internal/pantry"
)

// RecipeView is a stored recipe with its availability against inventory.
type RecipeView struct {
	pantry.Recipe
	DescriptionHTML string   `json:"descriptionHtml,omitempty"`
	Available       bool     `json:"available"`
	Missing         []string `json:"missing"`
}

// RecipesOutput contains the result of the ListRecipes operation.
type RecipesOutput struct {
	Items []RecipeView `json:"items"`
}

// ListRecipes returns the owner's recipes, most recently updated first.
func ListRecipes(ctx context.Context, database *sql.DB, ownerID string) (*RecipesOutput, error) {
	out := &RecipesOutput{Items: []RecipeView{}}
	err := db.WithReadTx(ctx, database, ownerID, func(s *db.Scope) error {
		recipes, err := s.ListRecipes(ctx)
		if err != nil {
			return err
		}
		stock, err := inventoryIndex(ctx, s)
		if err != nil {
			return err
		}
		for _, r := range recipes {
			out.Items = append(out.Items, newRecipeView(r, stock, false))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetRecipe returns one of the owner's recipes with its description
// rendered from markdown.
func GetRecipe(ctx context.Context, database *sql.DB, ownerID, id string) (*RecipeView, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.NewValidation("id", "is required")
	}

	var view RecipeView
	err := db.WithReadTx(ctx, database, ownerID, func(s *db.Scope) error {
		r, err := s.GetRecipe(ctx, id)
		if err != nil {
			return err
		}
		stock, err := inventoryIndex(ctx, s)
		if err != nil {
			return err
		}
		view = newRecipeView(*r, stock, true)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

func inventoryIndex(ctx context.Context, s *db.Scope) (map[pantry.Ref]pantry.InventoryEntry, error) {
	entries, err := s.ListInventory(ctx)
	if err != nil {
		return nil, err
	}
	idx := make(map[pantry.Ref]pantry.InventoryEntry, len(entries))
	for _, e := range entries {
		idx[e.Ref] = e
	}
	return idx, nil
}

// newRecipeView marks the recipe available when every anchor ingredient is
// a catalog-assumed staple, an inventory staple, or in stock. Optional
// ingredients never block availability.
func newRecipeView(r pantry.Recipe, stock map[pantry.Ref]pantry.InventoryEntry, withHTML bool) RecipeView {
	v := RecipeView{Recipe: r, Missing: []string{}}
	for _, link := range r.Ingredients {
		if link.Role != pantry.RoleAnchor || link.AssumedStaple {
			continue
		}
		if e, ok := stock[link.Ref]; ok && e.Available() {
			continue
		}
		v.Missing = append(v.Missing, link.Name)
	}
	v.Available = len(v.Missing) == 0

	if withHTML && r.Description != nil {
		v.DescriptionHTML = renderMarkdown(*r.Description)
	}
	return v
}

// renderMarkdown converts markdown text to HTML using goldmark.
// Raw HTML in the source is not passed through.
func renderMarkdown(md string) string {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return html.EscapeString(md)
	}
	return buf.String()
}
