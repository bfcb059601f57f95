package ops

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hpungsan/pantry/internal/errors"
	"github.com/hpungsan/pantry/internal/pantry"
)

// ToolKind names a recipe tool result variant.
type ToolKind string

const (
	KindCreate    ToolKind = "create_recipe"
	KindUpdate    ToolKind = "update_recipe"
	KindDelete    ToolKind = "delete_recipe"
	KindDeleteAll ToolKind = "delete_all_recipes"
)

// batchSuffix marks the batch wrapper of a singular kind.
const batchSuffix = "_batch"

// RecipeIngredient is an ingredient as named by the extractor, before
// resolution. On the wire it is either a plain string or {"name","role"}.
type RecipeIngredient struct {
	Name string      `json:"name"`
	Role pantry.Role `json:"role"`
}

// UnmarshalJSON accepts "egg" as well as {"name":"egg","role":"optional"}.
func (ri *RecipeIngredient) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}
		*ri = RecipeIngredient{Name: name, Role: pantry.RoleAnchor}
		return nil
	}

	var wire struct {
		Name string `json:"name"`
		Role string `json:"role"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	role, ok := pantry.ParseRole(wire.Role)
	if !ok {
		return fmt.Errorf("unknown ingredient role %q", wire.Role)
	}
	*ri = RecipeIngredient{Name: wire.Name, Role: role}
	return nil
}

// RecipeState is a recipe's title, description and ingredients.
type RecipeState struct {
	Title       string             `json:"title"`
	Description *string            `json:"description,omitempty"`
	Ingredients []RecipeIngredient `json:"ingredients"`
}

// RecipeOp is one atomic recipe operation.
type RecipeOp interface {
	Kind() ToolKind
}

// CreateOp creates a recipe.
type CreateOp struct {
	State RecipeState
}

// UpdateOp patches an existing recipe. Nil fields are left untouched.
// Ingredients, when non-nil, replaces the whole ingredient list; Add and
// Remove are applied after it. Previous, Matched and Unrecognized describe
// the extractor's view and are informational only.
type UpdateOp struct {
	RecipeID     string
	Title        *string
	Description  *string
	Ingredients  *[]RecipeIngredient
	Add          []RecipeIngredient
	Remove       []string
	Previous     *RecipeState
	Matched      []string
	Unrecognized []string
}

// DeleteOp deletes one recipe.
type DeleteOp struct {
	RecipeID string
}

// DeleteAllOp deletes every recipe in RecipeIDs.
type DeleteAllOp struct {
	RecipeIDs []string
}

func (CreateOp) Kind() ToolKind    { return KindCreate }
func (UpdateOp) Kind() ToolKind    { return KindUpdate }
func (DeleteOp) Kind() ToolKind    { return KindDelete }
func (DeleteAllOp) Kind() ToolKind { return KindDeleteAll }

// TouchesIngredients reports whether applying u can change the ingredient set.
func (u UpdateOp) TouchesIngredients() bool {
	return u.Ingredients != nil || len(u.Add) > 0 || len(u.Remove) > 0
}

// ToolResult is a decoded recipe tool result: a singular operation, or a
// batch wrapper of one kind holding an ordered list of items.
type ToolResult struct {
	Kind  ToolKind
	Batch bool
	Items []BatchItem
}

// BatchItem is one operation of a tool result. Index is the item's
// position as reported by the extractor.
type BatchItem struct {
	Index int
	Op    RecipeOp
}

// IndexedOp is an operation after expansion, tagged with where it came from.
type IndexedOp struct {
	Result int      // position of the tool result in the request
	Index  int      // item index inside a batch (0 for singular results)
	Op     RecipeOp // the operation itself
}

// Expand flattens tool results into atomic operations. Batch items keep
// their relative order, which is the order they are applied in.
func Expand(results []ToolResult) []IndexedOp {
	var out []IndexedOp
	for r, res := range results {
		for _, item := range res.Items {
			out = append(out, IndexedOp{Result: r, Index: item.Index, Op: item.Op})
		}
	}
	return out
}

// wire shapes for decoding
type (
	wireState struct {
		Title       *string             `json:"title"`
		Description *string             `json:"description"`
		Ingredients *[]RecipeIngredient `json:"ingredients"`
	}

	wireOp struct {
		Type  string `json:"type"`
		Index *int   `json:"index"`

		// create
		Title       *string            `json:"title"`
		Description *string            `json:"description"`
		Ingredients []RecipeIngredient `json:"ingredients"`

		// update / delete
		RecipeID string `json:"recipeId"`

		// update
		PreviousState           *RecipeState       `json:"previousState"`
		ProposedState           *wireState         `json:"proposedState"`
		AddIngredients          []RecipeIngredient `json:"addIngredients"`
		RemoveIngredients       []string           `json:"removeIngredients"`
		MatchedIngredients      []string           `json:"matchedIngredients"`
		UnrecognizedIngredients []string           `json:"unrecognizedIngredients"`

		// delete_all
		DeletedIDs []string `json:"deletedIds"`

		// *_batch
		Items []json.RawMessage `json:"items"`
	}
)

// DecodeToolResults validates loosely typed tool results into ToolResults.
// Any malformed shape rejects the whole request; id values are checked
// later, per item.
func DecodeToolResults(raw []json.RawMessage) ([]ToolResult, error) {
	out := make([]ToolResult, 0, len(raw))
	for i, msg := range raw {
		res, err := DecodeToolResult(msg)
		if err != nil {
			if pe := errors.As(err); pe != nil {
				pe.Message = fmt.Sprintf("recipes[%d]: %s", i, pe.Message)
				return nil, pe
			}
			return nil, err
		}
		out = append(out, res)
	}
	return out, nil
}

// DecodeToolResult decodes one tool result.
func DecodeToolResult(raw json.RawMessage) (ToolResult, error) {
	var w wireOp
	if err := json.Unmarshal(raw, &w); err != nil {
		return ToolResult{}, errors.NewInvalidRequest(fmt.Sprintf("invalid tool result: %v", err))
	}

	typ := strings.TrimSpace(w.Type)
	if base, ok := strings.CutSuffix(typ, batchSuffix); ok {
		kind := ToolKind(base)
		if !knownKind(kind) {
			return ToolResult{}, errors.NewInvalidRequest(fmt.Sprintf("unknown tool result type %q", typ))
		}
		res := ToolResult{Kind: kind, Batch: true, Items: make([]BatchItem, 0, len(w.Items))}
		for pos, itemRaw := range w.Items {
			var item wireOp
			if err := json.Unmarshal(itemRaw, &item); err != nil {
				return ToolResult{}, errors.NewInvalidRequest(fmt.Sprintf("items[%d]: invalid item: %v", pos, err))
			}
			if item.Type != "" && ToolKind(item.Type) != kind {
				return ToolResult{}, errors.NewInvalidRequest(fmt.Sprintf("items[%d]: type %q inside %s", pos, item.Type, typ))
			}
			op, err := decodeOp(kind, item)
			if err != nil {
				return ToolResult{}, errors.NewInvalidRequest(fmt.Sprintf("items[%d]: %s", pos, err))
			}
			idx := pos
			if item.Index != nil {
				idx = *item.Index
			}
			res.Items = append(res.Items, BatchItem{Index: idx, Op: op})
		}
		return res, nil
	}

	kind := ToolKind(typ)
	if !knownKind(kind) {
		return ToolResult{}, errors.NewInvalidRequest(fmt.Sprintf("unknown tool result type %q", typ))
	}
	op, err := decodeOp(kind, w)
	if err != nil {
		return ToolResult{}, errors.NewInvalidRequest(err.Error())
	}
	return ToolResult{Kind: kind, Items: []BatchItem{{Index: 0, Op: op}}}, nil
}

func knownKind(k ToolKind) bool {
	switch k {
	case KindCreate, KindUpdate, KindDelete, KindDeleteAll:
		return true
	}
	return false
}

func decodeOp(kind ToolKind, w wireOp) (RecipeOp, error) {
	switch kind {
	case KindCreate:
		if w.Title == nil || strings.TrimSpace(*w.Title) == "" {
			return nil, fmt.Errorf("%s: title is required", kind)
		}
		if err := checkIngredientNames(w.Ingredients); err != nil {
			return nil, fmt.Errorf("%s: %w", kind, err)
		}
		return CreateOp{State: RecipeState{
			Title:       strings.TrimSpace(*w.Title),
			Description: w.Description,
			Ingredients: w.Ingredients,
		}}, nil

	case KindUpdate:
		op := UpdateOp{
			RecipeID:     w.RecipeID,
			Add:          w.AddIngredients,
			Remove:       w.RemoveIngredients,
			Previous:     w.PreviousState,
			Matched:      w.MatchedIngredients,
			Unrecognized: w.UnrecognizedIngredients,
		}
		if ps := w.ProposedState; ps != nil {
			if ps.Title != nil {
				title := strings.TrimSpace(*ps.Title)
				if title == "" {
					return nil, fmt.Errorf("%s: proposedState.title must not be empty", kind)
				}
				op.Title = &title
			}
			op.Description = ps.Description
			op.Ingredients = ps.Ingredients
			if ps.Ingredients != nil {
				if err := checkIngredientNames(*ps.Ingredients); err != nil {
					return nil, fmt.Errorf("%s: %w", kind, err)
				}
			}
		}
		if err := checkIngredientNames(op.Add); err != nil {
			return nil, fmt.Errorf("%s: %w", kind, err)
		}
		return op, nil

	case KindDelete:
		return DeleteOp{RecipeID: w.RecipeID}, nil

	case KindDeleteAll:
		return DeleteAllOp{RecipeIDs: w.DeletedIDs}, nil
	}
	return nil, fmt.Errorf("unknown tool result type %q", kind)
}

func checkIngredientNames(ings []RecipeIngredient) error {
	for i, ing := range ings {
		if strings.TrimSpace(ing.Name) == "" {
			return fmt.Errorf("ingredients[%d].name is required", i)
		}
	}
	return nil
}

// patchIngredients returns current with u's ingredient changes applied:
// full replacement first, then additions (skipping names already present),
// then removals by normalized name. current is not modified.
func patchIngredients(current []RecipeIngredient, u UpdateOp) []RecipeIngredient {
	base := current
	if u.Ingredients != nil {
		base = *u.Ingredients
	}
	out := make([]RecipeIngredient, 0, len(base)+len(u.Add))
	present := make(map[string]bool, len(base)+len(u.Add))
	for _, ing := range append(append([]RecipeIngredient{}, base...), u.Add...) {
		norm := pantry.Normalize(ing.Name)
		if norm == "" || present[norm] {
			continue
		}
		present[norm] = true
		out = append(out, ing)
	}

	if len(u.Remove) == 0 {
		return out
	}
	drop := make(map[string]bool, len(u.Remove))
	for _, name := range u.Remove {
		drop[pantry.Normalize(name)] = true
	}
	kept := out[:0]
	for _, ing := range out {
		if !drop[pantry.Normalize(ing.Name)] {
			kept = append(kept, ing)
		}
	}
	return kept
}
