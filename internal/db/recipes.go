package db

import (
	"context"
	"database/sql"

	"github.com/hpungsan/pantry/internal/errors"
	"github.com/hpungsan/pantry/internal/pantry"
)

// InsertRecipe stores a new recipe row for the scope owner. Links are
// written separately with InsertRecipeLinks.
func (s *Scope) InsertRecipe(ctx context.Context, r *pantry.Recipe) error {
	_, err := s.tx.ExecContext(ctx, `
		INSERT INTO recipes (id, owner_id, title, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, r.ID, s.owner, r.Title, toNullString(r.Description), r.CreatedAt, r.UpdatedAt)
	if err != nil {
		if isUniqueConstraintError(err) {
			return errors.NewConflict("recipe id already exists: " + r.ID)
		}
		return errors.NewInternal(err)
	}
	r.OwnerID = s.owner
	return nil
}

// GetRecipe returns one of the owner's recipes with its links. A recipe that
// exists but belongs to someone else is reported as not found.
func (s *Scope) GetRecipe(ctx context.Context, id string) (*pantry.Recipe, error) {
	row := s.tx.QueryRowContext(ctx, `
		SELECT id, owner_id, title, description, created_at, updated_at
		FROM recipes
		WHERE id = ? AND owner_id = ?
	`, id, s.owner)

	r, err := scanRecipe(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("recipe", id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	links, err := s.recipeLinks(ctx, `rl.recipe_id = ?`, id)
	if err != nil {
		return nil, err
	}
	r.Ingredients = links[id]
	if r.Ingredients == nil {
		r.Ingredients = []pantry.RecipeIngredientLink{}
	}
	return r, nil
}

// ListRecipes returns all of the owner's recipes, most recently updated first.
func (s *Scope) ListRecipes(ctx context.Context) ([]pantry.Recipe, error) {
	rows, err := s.tx.QueryContext(ctx, `
		SELECT id, owner_id, title, description, created_at, updated_at
		FROM recipes
		WHERE owner_id = ?
		ORDER BY updated_at DESC, id DESC
	`, s.owner)
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	var recipes []pantry.Recipe
	for rows.Next() {
		r, err := scanRecipe(rows)
		if err != nil {
			rows.Close()
			return nil, errors.NewInternal(err)
		}
		recipes = append(recipes, *r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, errors.NewInternal(err)
	}
	rows.Close()

	links, err := s.recipeLinks(ctx, `1 = 1`)
	if err != nil {
		return nil, err
	}
	for i := range recipes {
		recipes[i].Ingredients = links[recipes[i].ID]
		if recipes[i].Ingredients == nil {
			recipes[i].Ingredients = []pantry.RecipeIngredientLink{}
		}
	}
	return recipes, nil
}

// CheckRecipeOwned returns NOT_FOUND unless id is one of the owner's recipes.
func (s *Scope) CheckRecipeOwned(ctx context.Context, id string) error {
	var one int
	err := s.tx.QueryRowContext(ctx, `SELECT 1 FROM recipes WHERE id = ? AND owner_id = ?`, id, s.owner).Scan(&one)
	if err == sql.ErrNoRows {
		return errors.NewNotFound("recipe", id)
	}
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// UpdateRecipe rewrites title and description of one of the owner's recipes.
func (s *Scope) UpdateRecipe(ctx context.Context, r *pantry.Recipe) error {
	result, err := s.tx.ExecContext(ctx, `
		UPDATE recipes
		SET title = ?, description = ?, updated_at = ?
		WHERE id = ? AND owner_id = ?
	`, r.Title, toNullString(r.Description), r.UpdatedAt, r.ID, s.owner)
	if err != nil {
		return errors.NewInternal(err)
	}
	return requireOneRow(result, "recipe", r.ID)
}

// DeleteRecipe removes one of the owner's recipe rows. Links must be
// deleted first; the foreign key rejects the delete otherwise.
func (s *Scope) DeleteRecipe(ctx context.Context, id string) error {
	result, err := s.tx.ExecContext(ctx, `DELETE FROM recipes WHERE id = ? AND owner_id = ?`, id, s.owner)
	if err != nil {
		return errors.NewInternal(err)
	}
	return requireOneRow(result, "recipe", id)
}

// DeleteRecipeLinks removes every ingredient link of one of the owner's recipes.
func (s *Scope) DeleteRecipeLinks(ctx context.Context, recipeID string) error {
	_, err := s.tx.ExecContext(ctx, `DELETE FROM recipe_ingredients WHERE recipe_id = ? AND owner_id = ?`, recipeID, s.owner)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// InsertRecipeLinks writes links for recipeID in order. Every link must
// carry a valid exclusive Ref and role.
func (s *Scope) InsertRecipeLinks(ctx context.Context, recipeID string, links []pantry.RecipeIngredientLink) error {
	for i, link := range links {
		if err := link.Ref.Validate(); err != nil {
			return err
		}
		if link.Role != pantry.RoleAnchor && link.Role != pantry.RoleOptional {
			return errors.NewValidation("role", "must be anchor or optional")
		}

		catalogID, fallbackID := refArgs(link.Ref)
		_, err := s.tx.ExecContext(ctx, `
			INSERT INTO recipe_ingredients (recipe_id, owner_id, position, catalog_id, unrecognized_id, role)
			VALUES (?, ?, ?, ?, ?, ?)
		`, recipeID, s.owner, i, catalogID, fallbackID, string(link.Role))
		if err != nil {
			if isUniqueConstraintError(err) {
				return errors.NewConflict("duplicate ingredient link: " + link.Ref.String())
			}
			return errors.NewInternal(err)
		}
	}
	return nil
}

// recipeLinks loads the owner's links matching an extra predicate, grouped by recipe id.
func (s *Scope) recipeLinks(ctx context.Context, predicate string, args ...any) (map[string][]pantry.RecipeIngredientLink, error) {
	query := `
		SELECT rl.recipe_id, rl.catalog_id, rl.unrecognized_id, rl.role,
			COALESCE(c.name, u.raw_text, ''), COALESCE(c.is_assumed_staple, 0)
		FROM recipe_ingredients rl
		LEFT JOIN catalog_ingredients c ON c.id = rl.catalog_id
		LEFT JOIN unrecognized_entries u ON u.id = rl.unrecognized_id
		WHERE rl.owner_id = ? AND ` + predicate + `
		ORDER BY rl.recipe_id, rl.position
	`
	rows, err := s.tx.QueryContext(ctx, query, append([]any{s.owner}, args...)...)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	out := make(map[string][]pantry.RecipeIngredientLink)
	for rows.Next() {
		var (
			recipeID   string
			catalogID  sql.NullString
			fallbackID sql.NullString
			role       string
			link       pantry.RecipeIngredientLink
		)
		if err := rows.Scan(&recipeID, &catalogID, &fallbackID, &role, &link.Name, &link.AssumedStaple); err != nil {
			return nil, errors.NewInternal(err)
		}
		link.Ref = pantry.Ref{CatalogID: catalogID.String, FallbackID: fallbackID.String}
		link.Role = pantry.Role(role)
		out[recipeID] = append(out[recipeID], link)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return out, nil
}

func scanRecipe(row rowScanner) (*pantry.Recipe, error) {
	var (
		r           pantry.Recipe
		description sql.NullString
	)
	if err := row.Scan(&r.ID, &r.OwnerID, &r.Title, &description, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	r.Description = fromNullString(description)
	return &r, nil
}

func requireOneRow(result sql.Result, kind, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if n == 0 {
		return errors.NewNotFound(kind, id)
	}
	return nil
}
