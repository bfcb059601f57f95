package ops

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/pantry/internal/db"
	"github.com/hpungsan/pantry/internal/errors"
	"github.com/hpungsan/pantry/internal/pantry"
)

func TestListAndDeleteInventory(t *testing.T) {
	database := openTestDB(t)
	ids := seedNames(t, database, "Egg", "Salt")
	ctx := context.Background()

	_, err := ConfirmProposal(ctx, database, ConfirmInput{
		OwnerID: "alice",
		Recognized: []ConfirmItem{
			{Ref: pantry.CatalogRef(ids["egg"]), ProposedQuantity: 0},
			{Ref: pantry.CatalogRef(ids["salt"]), ProposedQuantity: 0, ProposedStaple: ptr(true)},
		},
	})
	require.NoError(t, err)

	out, err := ListInventory(ctx, database, "alice")
	require.NoError(t, err)
	require.Len(t, out.Items, 2)
	assert.Equal(t, "Egg", out.Items[0].Name)
	assert.Equal(t, 1, out.Available, "only the staple counts")

	// Another owner cannot delete it.
	err = DeleteInventory(ctx, database, "bob", out.Items[0].ID)
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	require.NoError(t, DeleteInventory(ctx, database, "alice", out.Items[0].ID))
	out, err = ListInventory(ctx, database, "alice")
	require.NoError(t, err)
	assert.Len(t, out.Items, 1)

	err = DeleteInventory(ctx, database, "alice", " ")
	assert.True(t, errors.Is(err, errors.ErrValidation))
}

func TestMarkResolved(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()

	var entries []MatchedFallback
	inScope(t, database, "alice", func(s *db.Scope) error {
		var err error
		entries, err = EnsureUnrecognized(ctx, s, []string{"sumac"}, nil)
		return err
	})

	assert.True(t, errors.Is(MarkResolved(ctx, database, "bob", entries[0].ID), errors.ErrNotFound))
	require.NoError(t, MarkResolved(ctx, database, "alice", entries[0].ID))
	assert.True(t, errors.Is(MarkResolved(ctx, database, "alice", entries[0].ID), errors.ErrNotFound), "already resolved")

	// The entry is kept and still resolves.
	v, err := ValidateIngredients(ctx, database, ValidateInput{OwnerID: "alice", IngredientNames: []string{"sumac"}})
	require.NoError(t, err)
	assert.Len(t, v.Matched, 1)
}
