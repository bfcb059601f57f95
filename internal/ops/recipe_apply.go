package ops

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/hpungsan/pantry/internal/config"
	"github.com/hpungsan/pantry/internal/db"
	"github.com/hpungsan/pantry/internal/errors"
	"github.com/hpungsan/pantry/internal/pantry"
)

// ApplyRecipesInput contains parameters for the ApplyRecipes operation.
type ApplyRecipesInput struct {
	OwnerID string
	Recipes []ToolResult
}

// ApplyRecipesOutput reports counts, per-item failures and the ingredient
// names that were not persisted because they did not resolve.
type ApplyRecipesOutput struct {
	Created      int          `json:"created"`
	Updated      int          `json:"updated"`
	Deleted      int          `json:"deleted"`
	Errors       []string     `json:"errors,omitempty"`
	Unrecognized []string     `json:"unrecognized,omitempty"`
	Results      []ItemResult `json:"results"`
}

// ApplyRecipes persists confirmed recipe tool results in one transaction.
// Each atomic operation runs in its own savepoint: a failing item (stale or
// foreign id, malformed id, storage error) rolls back only its own writes
// and is reported in Results and Errors, and the rest still commit.
//
// Only ingredient links whose names resolve are written. Every linked
// ingredient is ensured present in inventory at the configured floor.
func ApplyRecipes(ctx context.Context, database *sql.DB, cfg *config.Config, input ApplyRecipesInput) (*ApplyRecipesOutput, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	floor := cfg.EnsureFloorQuantity
	if err := pantry.ValidateQuantity(floor); err != nil {
		return nil, errors.NewValidation("ensure_floor_quantity", "must be between 0 and 3")
	}

	ops := Expand(input.Recipes)
	out := &ApplyRecipesOutput{Results: make([]ItemResult, 0, len(ops))}
	var unrecognized []string

	a := &applier{floor: floor}
	err := db.WithTx(ctx, database, input.OwnerID, func(s *db.Scope) error {
		a.s = s
		n := 0
		for _, op := range ops {
			for _, step := range a.steps(op) {
				if err := ctx.Err(); err != nil {
					return err
				}
				n++
				var res ItemResult
				fnErr, err := s.Savepoint(ctx, fmt.Sprintf("item_%d", n), func() error {
					var err error
					res, err = step(ctx)
					return err
				})
				if err != nil {
					return err
				}
				if fnErr != nil {
					id := res.RecipeID
					if op.Op.Kind() == KindCreate {
						id = "" // rolled back, never stored
					}
					res = failedResult(op, id, fnErr)
				}
				out.Results = append(out.Results, res)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, res := range out.Results {
		if res.Failed() {
			out.Errors = append(out.Errors, res.describe())
			continue
		}
		switch res.Op {
		case KindCreate:
			out.Created++
		case KindUpdate:
			out.Updated++
		case KindDelete, KindDeleteAll:
			out.Deleted++
		}
		unrecognized = append(unrecognized, res.Unrecognized...)
	}
	out.Unrecognized = uniqueStrings(unrecognized)
	return out, nil
}

// applier writes atomic operations through one scope.
type applier struct {
	s     *db.Scope
	floor int
}

type applyStep func(ctx context.Context) (ItemResult, error)

// steps splits op into independently committed units. DeleteAll yields one
// step per id; everything else yields one step.
func (a *applier) steps(op IndexedOp) []applyStep {
	switch o := op.Op.(type) {
	case CreateOp:
		return []applyStep{func(ctx context.Context) (ItemResult, error) { return a.create(ctx, op, o) }}
	case UpdateOp:
		return []applyStep{func(ctx context.Context) (ItemResult, error) { return a.update(ctx, op, o) }}
	case DeleteOp:
		return []applyStep{func(ctx context.Context) (ItemResult, error) { return a.delete(ctx, op, o.RecipeID) }}
	case DeleteAllOp:
		steps := make([]applyStep, 0, len(o.RecipeIDs))
		for _, id := range o.RecipeIDs {
			steps = append(steps, func(ctx context.Context) (ItemResult, error) { return a.delete(ctx, op, id) })
		}
		return steps
	}
	return nil
}

func (a *applier) create(ctx context.Context, op IndexedOp, o CreateOp) (ItemResult, error) {
	now := nowUnix()
	recipe := &pantry.Recipe{
		ID:          newID(),
		Title:       o.State.Title,
		Description: cleanOptionalString(o.State.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	res := okResult(op, recipe.ID)

	if err := a.s.InsertRecipe(ctx, recipe); err != nil {
		return res, err
	}
	unresolved, err := a.writeLinks(ctx, recipe.ID, o.State.Ingredients)
	if err != nil {
		return res, err
	}
	res.Unrecognized = unresolved
	return res, nil
}

func (a *applier) update(ctx context.Context, op IndexedOp, o UpdateOp) (ItemResult, error) {
	id := strings.TrimSpace(o.RecipeID)
	res := okResult(op, id)
	if err := checkRecipeID(id); err != nil {
		return res, err
	}

	current, err := a.s.GetRecipe(ctx, id)
	if err != nil {
		return res, err
	}

	if o.Title != nil {
		current.Title = *o.Title
	}
	if o.Description != nil {
		current.Description = cleanOptionalString(o.Description)
	}
	current.UpdatedAt = nowUnix()
	if err := a.s.UpdateRecipe(ctx, current); err != nil {
		return res, err
	}

	if !o.TouchesIngredients() {
		return res, nil
	}
	next := patchIngredients(sessionIngredientsFromLinks(current.Ingredients), o)
	if err := a.s.DeleteRecipeLinks(ctx, id); err != nil {
		return res, err
	}
	unresolved, err := a.writeLinks(ctx, id, next)
	if err != nil {
		return res, err
	}
	res.Unrecognized = unresolved
	return res, nil
}

func (a *applier) delete(ctx context.Context, op IndexedOp, rawID string) (ItemResult, error) {
	id := strings.TrimSpace(rawID)
	res := okResult(op, id)
	if err := checkRecipeID(id); err != nil {
		return res, err
	}
	if err := a.s.CheckRecipeOwned(ctx, id); err != nil {
		return res, err
	}
	if err := a.s.DeleteRecipeLinks(ctx, id); err != nil {
		return res, err
	}
	return res, a.s.DeleteRecipe(ctx, id)
}

// writeLinks resolves ingredient names, links the ones that resolved and
// ensures each of them is present in inventory. The first occurrence of an
// ingredient decides its role. Returns the names that did not resolve.
func (a *applier) writeLinks(ctx context.Context, recipeID string, ings []RecipeIngredient) ([]string, error) {
	names := make([]string, 0, len(ings))
	for _, ing := range ings {
		names = append(names, ing.Name)
	}
	res, err := ResolveNames(ctx, a.s, names)
	if err != nil {
		return nil, err
	}

	links := make([]pantry.RecipeIngredientLink, 0, len(ings))
	ensure := make([]EnsureRef, 0, len(ings))
	linked := make(map[pantry.Ref]bool, len(ings))
	for _, ing := range ings {
		ref, name, ok := res.Lookup(ing.Name)
		if !ok || linked[ref] {
			continue
		}
		linked[ref] = true
		role := ing.Role
		if role == "" {
			role = pantry.RoleAnchor
		}
		links = append(links, pantry.RecipeIngredientLink{Ref: ref, Name: name, Role: role})
		ensure = append(ensure, EnsureRef{Ref: ref, Floor: a.floor})
	}

	if err := a.s.InsertRecipeLinks(ctx, recipeID, links); err != nil {
		return nil, err
	}
	if err := EnsurePresent(ctx, a.s, ensure); err != nil {
		return nil, err
	}
	return res.StillUnmatched, nil
}

// checkRecipeID rejects ids that cannot name a stored recipe, including
// session placeholders.
func checkRecipeID(id string) error {
	if id == "" {
		return errors.NewValidation("recipeId", "is required")
	}
	if strings.HasPrefix(id, SessionIDPrefix) {
		return errors.NewValidation("recipeId", "refers to an unsaved session recipe: "+id)
	}
	if !isWellFormedID(id) {
		return errors.NewValidation("recipeId", "malformed id: "+id)
	}
	return nil
}
