package ops

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/pantry/internal/errors"
	"github.com/hpungsan/pantry/internal/pantry"
)

func decode(t *testing.T, docs ...string) []ToolResult {
	t.Helper()
	raw := make([]json.RawMessage, 0, len(docs))
	for _, d := range docs {
		raw = append(raw, json.RawMessage(d))
	}
	out, err := DecodeToolResults(raw)
	require.NoError(t, err)
	return out
}

func TestDecodeToolResult_Create(t *testing.T) {
	res := decode(t, `{
		"type": "create_recipe",
		"title": "  Shakshuka ",
		"description": "Eggs in *spicy* tomato sauce",
		"ingredients": ["egg", {"name": "tomato"}, {"name": "feta", "role": "optional"}]
	}`)
	require.Len(t, res, 1)
	assert.Equal(t, KindCreate, res[0].Kind)
	assert.False(t, res[0].Batch)
	require.Len(t, res[0].Items, 1)

	op, ok := res[0].Items[0].Op.(CreateOp)
	require.True(t, ok)
	assert.Equal(t, "Shakshuka", op.State.Title)
	assert.Equal(t, []RecipeIngredient{
		{Name: "egg", Role: pantry.RoleAnchor},
		{Name: "tomato", Role: pantry.RoleAnchor},
		{Name: "feta", Role: pantry.RoleOptional},
	}, op.State.Ingredients)
}

func TestDecodeToolResult_Update(t *testing.T) {
	res := decode(t, `{
		"type": "update_recipe",
		"recipeId": "01HZZZZZZZZZZZZZZZZZZZZZZZ",
		"previousState": {"title": "Old", "ingredients": ["egg"]},
		"proposedState": {"title": "New"},
		"addIngredients": [],
		"matchedIngredients": ["egg"],
		"unrecognizedIngredients": []
	}`)
	op := res[0].Items[0].Op.(UpdateOp)
	require.NotNil(t, op.Title)
	assert.Equal(t, "New", *op.Title)
	assert.Nil(t, op.Description)
	assert.Nil(t, op.Ingredients)
	assert.False(t, op.TouchesIngredients(), "empty addIngredients is not an ingredient change")
	require.NotNil(t, op.Previous)
	assert.Equal(t, "Old", op.Previous.Title)

	res = decode(t, `{"type": "update_recipe", "recipeId": "x", "proposedState": {"ingredients": []}}`)
	op = res[0].Items[0].Op.(UpdateOp)
	assert.True(t, op.TouchesIngredients(), "explicit empty list clears ingredients")

	res = decode(t, `{"type": "update_recipe", "recipeId": "x", "removeIngredients": ["egg"]}`)
	assert.True(t, res[0].Items[0].Op.(UpdateOp).TouchesIngredients())
}

func TestDecodeToolResult_DeleteAndBatch(t *testing.T) {
	res := decode(t,
		`{"type": "delete_recipe", "recipeId": "a"}`,
		`{"type": "delete_all_recipes", "deletedIds": ["b", "c"]}`,
		`{"type": "delete_recipe_batch", "items": [
			{"index": 2, "recipeId": "d"},
			{"index": 0, "recipeId": "e"},
			{"recipeId": "f"}
		]}`,
	)
	require.Len(t, res, 3)
	assert.Equal(t, DeleteOp{RecipeID: "a"}, res[0].Items[0].Op)
	assert.Equal(t, DeleteAllOp{RecipeIDs: []string{"b", "c"}}, res[1].Items[0].Op)

	assert.True(t, res[2].Batch)
	assert.Equal(t, KindDelete, res[2].Kind)
	require.Len(t, res[2].Items, 3)
	assert.Equal(t, 2, res[2].Items[0].Index)
	assert.Equal(t, 0, res[2].Items[1].Index)
	assert.Equal(t, 2, res[2].Items[2].Index, "missing index falls back to position")
}

func TestDecodeToolResult_Rejects(t *testing.T) {
	bad := []string{
		`{"type": "bake_recipe"}`,
		`{"type": "bake_recipe_batch", "items": []}`,
		`{"type": "create_recipe"}`,
		`{"type": "create_recipe", "title": "  "}`,
		`{"type": "create_recipe", "title": "x", "ingredients": [{"name": ""}]}`,
		`{"type": "create_recipe", "title": "x", "ingredients": [{"name": "egg", "role": "garnish"}]}`,
		`{"type": "update_recipe", "recipeId": "x", "proposedState": {"title": ""}}`,
		`{"type": "create_recipe_batch", "items": [{"type": "delete_recipe", "recipeId": "x"}]}`,
		`{"type": "create_recipe_batch", "items": [{"title": "ok"}, {"title": ""}]}`,
		`[1, 2]`,
	}
	for _, doc := range bad {
		_, err := DecodeToolResults([]json.RawMessage{json.RawMessage(doc)})
		assert.True(t, errors.Is(err, errors.ErrInvalidRequest), doc)
	}
}

func TestExpand_PreservesOrder(t *testing.T) {
	res := decode(t,
		`{"type": "create_recipe_batch", "items": [{"title": "A"}, {"title": "B"}]}`,
		`{"type": "delete_recipe", "recipeId": "x"}`,
		`{"type": "create_recipe", "title": "C"}`,
	)
	ops := Expand(res)
	require.Len(t, ops, 4)

	var titles []string
	for _, op := range ops {
		if c, ok := op.Op.(CreateOp); ok {
			titles = append(titles, c.State.Title)
		}
	}
	assert.Equal(t, []string{"A", "B", "C"}, titles)
	assert.Equal(t, IndexedOp{Result: 1, Index: 0, Op: DeleteOp{RecipeID: "x"}}, ops[2])
	assert.Equal(t, 1, ops[1].Index)
	assert.Equal(t, 2, ops[3].Result)
}

func TestPatchIngredients(t *testing.T) {
	current := []RecipeIngredient{{Name: "egg", Role: pantry.RoleAnchor}, {Name: "milk", Role: pantry.RoleOptional}}

	got := patchIngredients(current, UpdateOp{
		Add:    []RecipeIngredient{{Name: "Egg"}, {Name: "butter", Role: pantry.RoleAnchor}},
		Remove: []string{"MILK"},
	})
	assert.Equal(t, []RecipeIngredient{{Name: "egg", Role: pantry.RoleAnchor}, {Name: "butter", Role: pantry.RoleAnchor}}, got)
	assert.Len(t, current, 2, "input untouched")
	assert.Equal(t, "milk", current[1].Name)

	replaced := patchIngredients(current, UpdateOp{Ingredients: &[]RecipeIngredient{{Name: "flour"}}})
	assert.Equal(t, []RecipeIngredient{{Name: "flour"}}, replaced)
}
