package ops

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/pantry/internal/errors"
	"github.com/hpungsan/pantry/internal/pantry"
)

func TestListRecipes_Availability(t *testing.T) {
	database := openTestDB(t)
	ids := seedCatalog(t, database,
		CatalogSeed{Name: "Pasta"},
		CatalogSeed{Name: "Egg"},
		CatalogSeed{Name: "Salt", IsAssumedStaple: true},
		CatalogSeed{Name: "Parsley"},
	)
	ctx := context.Background()

	out := applyDocs(t, database, "alice", `{
		"type": "create_recipe",
		"title": "Carbonara",
		"description": "Toss **off** the heat.",
		"ingredients": ["pasta", "egg", "salt", {"name": "parsley", "role": "optional"}]
	}`)
	id := out.Results[0].RecipeID

	// Linking ensures presence at the floor, so everything starts in stock.
	list, err := ListRecipes(ctx, database, "alice")
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.True(t, list.Items[0].Available)
	assert.Empty(t, list.Items[0].DescriptionHTML, "list does not render markdown")

	_, err = ConfirmProposal(ctx, database, ConfirmInput{
		OwnerID: "alice",
		Recognized: []ConfirmItem{
			{Ref: pantry.CatalogRef(ids["egg"]), ProposedQuantity: 0},
			{Ref: pantry.CatalogRef(ids["salt"]), ProposedQuantity: 0},
			{Ref: pantry.CatalogRef(ids["parsley"]), ProposedQuantity: 0},
		},
	})
	require.NoError(t, err)

	view, err := GetRecipe(ctx, database, "alice", id)
	require.NoError(t, err)
	assert.False(t, view.Available)
	assert.Equal(t, []string{"Egg"}, view.Missing, "assumed staples and optional ingredients never block")
	assert.Contains(t, view.DescriptionHTML, "<strong>off</strong>")
}

func TestGetRecipe_OwnerScoped(t *testing.T) {
	database := openTestDB(t)
	id := createRecipe(t, database, "bob", "Bob's")

	_, err := GetRecipe(context.Background(), database, "alice", id)
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	_, err = GetRecipe(context.Background(), database, "alice", "")
	assert.True(t, errors.Is(err, errors.ErrValidation))
}

func TestRenderMarkdown_EscapesRawHTML(t *testing.T) {
	got := renderMarkdown("hi <script>alert(1)</script>")
	assert.NotContains(t, got, "<script>")
	assert.Contains(t, got, "<p>hi ")
}
