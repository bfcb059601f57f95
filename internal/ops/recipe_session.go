package ops

import (
	"encoding/json"
	"fmt"

	"github.com/hpungsan/pantry/internal/errors"
	"github.com/hpungsan/pantry/internal/pantry"
)

// SessionIDPrefix marks placeholder ids of recipes not yet persisted.
const SessionIDPrefix = "tmp_"

// Item result statuses.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// ItemError is the failure of one operation.
type ItemError struct {
	Code    errors.ErrorCode `json:"code"`
	Message string           `json:"message"`
}

// ItemResult is the outcome of one atomic operation. Failed items carry an
// Error and never abort their siblings.
type ItemResult struct {
	Result       int        `json:"result"`
	Index        int        `json:"index"`
	Op           ToolKind   `json:"op"`
	RecipeID     string     `json:"recipeId,omitempty"`
	Status       string     `json:"status"`
	Error        *ItemError `json:"error,omitempty"`
	Unrecognized []string   `json:"unrecognized,omitempty"`
}

// Failed reports whether the item failed.
func (r ItemResult) Failed() bool { return r.Status == StatusFailed }

func okResult(op IndexedOp, recipeID string) ItemResult {
	return ItemResult{Result: op.Result, Index: op.Index, Op: op.Op.Kind(), RecipeID: recipeID, Status: StatusOK}
}

func failedResult(op IndexedOp, recipeID string, err error) ItemResult {
	r := ItemResult{Result: op.Result, Index: op.Index, Op: op.Op.Kind(), RecipeID: recipeID, Status: StatusFailed}
	if pe := errors.As(err); pe != nil {
		r.Error = &ItemError{Code: pe.Code, Message: pe.Message}
	} else {
		r.Error = &ItemError{Code: errors.ErrInternal, Message: err.Error()}
	}
	return r
}

// describe renders a failed result as one human-readable line.
func (r ItemResult) describe() string {
	if r.Error == nil {
		return ""
	}
	return fmt.Sprintf("%s #%d.%d: %s", r.Op, r.Result, r.Index, r.Error.Message)
}

// SessionRecipe is a recipe held in request memory before the user confirms.
// Its id may be a placeholder (SessionIDPrefix) with no stored row behind it.
type SessionRecipe struct {
	ID          string             `json:"id"`
	Title       string             `json:"title"`
	Description *string            `json:"description,omitempty"`
	Ingredients []RecipeIngredient `json:"ingredients"`
}

func (r SessionRecipe) clone() SessionRecipe {
	c := r
	c.Ingredients = append([]RecipeIngredient{}, r.Ingredients...)
	if r.Description != nil {
		d := *r.Description
		c.Description = &d
	}
	return c
}

// ApplyToSession applies ops in order to a copy of session and returns the
// new list with one result per affected id. It never touches storage and
// never checks names against the catalog. Updates or deletes naming an id
// that is not in the list are reported as NOT_FOUND and leave it unchanged.
func ApplyToSession(session []SessionRecipe, ops []IndexedOp) ([]SessionRecipe, []ItemResult) {
	out := make([]SessionRecipe, 0, len(session)+len(ops))
	for _, r := range session {
		out = append(out, r.clone())
	}

	indexOf := func(id string) int {
		for i := range out {
			if out[i].ID == id {
				return i
			}
		}
		return -1
	}
	remove := func(op IndexedOp, id string) ItemResult {
		i := indexOf(id)
		if i < 0 {
			return failedResult(op, id, errors.NewNotFound("recipe", id))
		}
		out = append(out[:i], out[i+1:]...)
		return okResult(op, id)
	}

	results := make([]ItemResult, 0, len(ops))
	for _, op := range ops {
		switch o := op.Op.(type) {
		case CreateOp:
			r := SessionRecipe{
				ID:          SessionIDPrefix + newID(),
				Title:       o.State.Title,
				Description: cleanOptionalString(o.State.Description),
				Ingredients: append([]RecipeIngredient{}, o.State.Ingredients...),
			}
			out = append(out, r)
			results = append(results, okResult(op, r.ID))

		case UpdateOp:
			i := indexOf(o.RecipeID)
			if i < 0 {
				results = append(results, failedResult(op, o.RecipeID, errors.NewNotFound("recipe", o.RecipeID)))
				continue
			}
			out[i] = updateSessionRecipe(out[i], o)
			results = append(results, okResult(op, o.RecipeID))

		case DeleteOp:
			results = append(results, remove(op, o.RecipeID))

		case DeleteAllOp:
			for _, id := range o.RecipeIDs {
				results = append(results, remove(op, id))
			}
		}
	}
	return out, results
}

func updateSessionRecipe(r SessionRecipe, u UpdateOp) SessionRecipe {
	if u.Title != nil {
		r.Title = *u.Title
	}
	if u.Description != nil {
		r.Description = cleanOptionalString(u.Description)
	}
	if u.TouchesIngredients() {
		r.Ingredients = patchIngredients(r.Ingredients, u)
	}
	return r
}

// sessionIngredientsFromLinks converts stored links back into the
// extractor's vocabulary.
func sessionIngredientsFromLinks(links []pantry.RecipeIngredientLink) []RecipeIngredient {
	out := make([]RecipeIngredient, 0, len(links))
	for _, l := range links {
		out = append(out, RecipeIngredient{Name: l.Name, Role: l.Role})
	}
	return out
}

// SessionInput is a session list plus raw tool results to apply to it.
type SessionInput struct {
	Session []SessionRecipe   `json:"session"`
	Recipes []json.RawMessage `json:"recipes"`
}

// SessionOutput contains the result of the ApplySession operation.
type SessionOutput struct {
	Session []SessionRecipe `json:"session"`
	Results []ItemResult    `json:"results"`
}

// ApplySession decodes raw tool results and applies them to the session list.
func ApplySession(input SessionInput) (*SessionOutput, error) {
	results, err := DecodeToolResults(input.Recipes)
	if err != nil {
		return nil, err
	}
	session, items := ApplyToSession(input.Session, Expand(results))
	return &SessionOutput{Session: session, Results: items}, nil
}
