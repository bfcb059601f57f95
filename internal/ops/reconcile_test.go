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

func TestEnsurePresent_InsertsAtFloor(t *testing.T) {
	database := openTestDB(t)
	ids := seedNames(t, database, "Onion")
	ref := pantry.CatalogRef(ids["onion"])

	inScope(t, database, "alice", func(s *db.Scope) error {
		return EnsurePresent(context.Background(), s, []EnsureRef{{Ref: ref, Floor: pantry.QuantityLow}})
	})

	inv := inventoryOf(t, database, "alice")
	require.Contains(t, inv, ref)
	assert.Equal(t, pantry.QuantityLow, inv[ref].QuantityLevel)
	assert.False(t, inv[ref].IsPantryStaple)
}

func TestEnsurePresent_Idempotent(t *testing.T) {
	database := openTestDB(t)
	ids := seedNames(t, database, "Onion")
	ref := pantry.CatalogRef(ids["onion"])
	refs := []EnsureRef{{Ref: ref, Floor: pantry.QuantityMedium}}

	for range 2 {
		inScope(t, database, "alice", func(s *db.Scope) error {
			return EnsurePresent(context.Background(), s, refs)
		})
	}

	inv := inventoryOf(t, database, "alice")
	assert.Len(t, inv, 1)
	assert.Equal(t, pantry.QuantityMedium, inv[ref].QuantityLevel)
}

func TestEnsurePresent_NeverDecreases(t *testing.T) {
	database := openTestDB(t)
	ids := seedNames(t, database, "Onion", "Garlic")
	onion := pantry.CatalogRef(ids["onion"])
	garlic := pantry.CatalogRef(ids["garlic"])
	ctx := context.Background()

	inScope(t, database, "alice", func(s *db.Scope) error {
		if err := ApplyExplicitUpdate(ctx, s, onion, pantry.QuantityHigh, nil); err != nil {
			return err
		}
		return ApplyExplicitUpdate(ctx, s, garlic, pantry.QuantityNone, ptr(true))
	})
	inScope(t, database, "alice", func(s *db.Scope) error {
		return EnsurePresent(ctx, s, []EnsureRef{
			{Ref: onion, Floor: pantry.QuantityLow},
			{Ref: garlic, Floor: pantry.QuantityLow},
		})
	})

	inv := inventoryOf(t, database, "alice")
	assert.Equal(t, pantry.QuantityHigh, inv[onion].QuantityLevel)
	assert.Equal(t, pantry.QuantityLow, inv[garlic].QuantityLevel, "raised to floor")
	assert.True(t, inv[garlic].IsPantryStaple, "staple flag untouched")
}

func TestEnsurePresent_ValidatesBeforeWriting(t *testing.T) {
	database := openTestDB(t)
	ids := seedNames(t, database, "Onion")
	ctx := context.Background()

	err := db.WithTx(ctx, database, "alice", func(s *db.Scope) error {
		return EnsurePresent(ctx, s, []EnsureRef{
			{Ref: pantry.CatalogRef(ids["onion"]), Floor: 1},
			{Ref: pantry.Ref{}, Floor: 1},
		})
	})
	assert.True(t, errors.Is(err, errors.ErrValidation))

	err = db.WithTx(ctx, database, "alice", func(s *db.Scope) error {
		return EnsurePresent(ctx, s, []EnsureRef{{Ref: pantry.CatalogRef(ids["onion"]), Floor: 4}})
	})
	assert.True(t, errors.Is(err, errors.ErrValidation))
	assert.Empty(t, inventoryOf(t, database, "alice"))
}

func TestApplyExplicitUpdate_RejectsOutOfRange(t *testing.T) {
	database := openTestDB(t)
	ids := seedNames(t, database, "Onion")
	ref := pantry.CatalogRef(ids["onion"])
	ctx := context.Background()

	for _, q := range []int{4, -1} {
		err := db.WithTx(ctx, database, "alice", func(s *db.Scope) error {
			return ApplyExplicitUpdate(ctx, s, ref, q, nil)
		})
		assert.True(t, errors.Is(err, errors.ErrValidation), "quantity %d", q)
	}
	assert.Empty(t, inventoryOf(t, database, "alice"))
}

func TestApplyExplicitUpdate_SetsExactValue(t *testing.T) {
	database := openTestDB(t)
	ids := seedNames(t, database, "Onion")
	ref := pantry.CatalogRef(ids["onion"])
	ctx := context.Background()

	for _, q := range []int{pantry.QuantityHigh, pantry.QuantityNone, pantry.QuantityMedium, pantry.QuantityMedium} {
		inScope(t, database, "alice", func(s *db.Scope) error {
			return ApplyExplicitUpdate(ctx, s, ref, q, nil)
		})
		assert.Equal(t, q, inventoryOf(t, database, "alice")[ref].QuantityLevel)
	}
	assert.Len(t, inventoryOf(t, database, "alice"), 1)
}

func TestApplyExplicitUpdate_ExclusiveReference(t *testing.T) {
	database := openTestDB(t)
	ids := seedNames(t, database, "Onion")
	ctx := context.Background()

	for _, ref := range []pantry.Ref{
		{},
		{CatalogID: ids["onion"], FallbackID: "fb-1"},
	} {
		err := db.WithTx(ctx, database, "alice", func(s *db.Scope) error {
			return ApplyExplicitUpdate(ctx, s, ref, 1, nil)
		})
		assert.True(t, errors.Is(err, errors.ErrValidation), "ref %+v", ref)
	}
}

func TestApplyExplicitUpdate_RejectsForeignFallback(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()

	var entries []MatchedFallback
	inScope(t, database, "alice", func(s *db.Scope) error {
		var err error
		entries, err = EnsureUnrecognized(ctx, s, []string{"sumac"}, nil)
		return err
	})

	err := db.WithTx(ctx, database, "bob", func(s *db.Scope) error {
		return ApplyExplicitUpdate(ctx, s, pantry.FallbackRef(entries[0].ID), 2, nil)
	})
	assert.True(t, errors.Is(err, errors.ErrNotFound))
	assert.Empty(t, inventoryOf(t, database, "bob"))
}

func TestSetInventory(t *testing.T) {
	database := openTestDB(t)
	ids := seedNames(t, database, "Salt")
	ref := pantry.CatalogRef(ids["salt"])

	e, err := SetInventory(context.Background(), database, SetInventoryInput{
		OwnerID:        "alice",
		Ref:            ref,
		QuantityLevel:  pantry.QuantityNone,
		IsPantryStaple: ptr(true),
	})
	require.NoError(t, err)
	assert.Equal(t, "Salt", e.Name)
	assert.True(t, e.IsPantryStaple)
	assert.True(t, e.Available())

	_, err = SetInventory(context.Background(), database, SetInventoryInput{OwnerID: "", Ref: ref, QuantityLevel: 1})
	assert.True(t, errors.Is(err, errors.ErrValidation))
}

func TestSetInventory_BlankCatalogIDUsesFallback(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()

	var id string
	inScope(t, database, "alice", func(s *db.Scope) error {
		entries, err := EnsureUnrecognized(ctx, s, []string{"Sumac"}, nil)
		if err != nil {
			return err
		}
		id = entries[0].ID
		return nil
	})

	e, err := SetInventory(ctx, database, SetInventoryInput{
		OwnerID:       "alice",
		Ref:           pantry.Ref{CatalogID: " ", FallbackID: id},
		QuantityLevel: pantry.QuantityLow,
	})
	require.NoError(t, err)
	assert.Equal(t, pantry.FallbackRef(id), e.Ref)
	assert.Equal(t, pantry.QuantityLow, e.QuantityLevel)
}
