package ops

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/pantry/internal/pantry"
)

func TestBuildDiff(t *testing.T) {
	egg := pantry.CatalogRef("c-egg")
	milk := pantry.CatalogRef("c-milk")
	salt := pantry.CatalogRef("c-salt")
	oil := pantry.CatalogRef("c-oil")
	sumac := pantry.FallbackRef("f-sumac")

	previous := map[pantry.Ref]SnapshotEntry{
		egg:  {Quantity: 1},
		milk: {Quantity: 3},
		salt: {Quantity: 2},
		oil:  {Quantity: 2, IsPantryStaple: true},
	}
	resolved := []ResolvedTarget{
		{Ref: egg, Name: "Egg", ProposedQuantity: 3, Confidence: ConfidenceHigh},
		{Ref: milk, Name: "Milk", ProposedQuantity: 0},
		{Ref: salt, Name: "Salt", ProposedQuantity: 2, ProposedStaple: ptr(true)},
		{Ref: oil, Name: "Oil", ProposedQuantity: 2, ProposedStaple: ptr(true)},
		{Ref: sumac, Name: "sumac", ProposedQuantity: 1, Confidence: ConfidenceLow},
	}

	p := BuildDiff(previous, resolved, []string{"Dragon Fruit"})
	require.Len(t, p.Recognized, 5)
	assert.Equal(t, []string{"Dragon Fruit"}, p.Unrecognized)

	eggRow := p.Recognized[0]
	require.NotNil(t, eggRow.PreviousQuantity)
	assert.Equal(t, 1, *eggRow.PreviousQuantity)
	assert.Equal(t, 3, eggRow.ProposedQuantity)
	assert.Equal(t, ChangeIncrease, eggRow.Change)
	assert.Equal(t, ConfidenceHigh, eggRow.Confidence)

	assert.Equal(t, ChangeDecrease, p.Recognized[1].Change)

	saltRow := p.Recognized[2]
	assert.True(t, saltRow.StapleTransition)
	assert.Equal(t, ChangeStaple, saltRow.Change)
	require.NotNil(t, saltRow.PreviousQuantity, "previous shows the superseded quantity")
	assert.Equal(t, 2, *saltRow.PreviousQuantity)

	oilRow := p.Recognized[3]
	assert.False(t, oilRow.StapleTransition, "already a staple")
	assert.Equal(t, ChangeUnchanged, oilRow.Change)

	sumacRow := p.Recognized[4]
	assert.Nil(t, sumacRow.PreviousQuantity)
	assert.Equal(t, ChangeNew, sumacRow.Change)
}

func TestBuildDiff_NewStaple(t *testing.T) {
	p := BuildDiff(nil, []ResolvedTarget{
		{Ref: pantry.CatalogRef("c-salt"), Name: "Salt", ProposedQuantity: 0, ProposedStaple: ptr(true)},
	}, nil)
	require.Len(t, p.Recognized, 1)
	assert.Nil(t, p.Recognized[0].PreviousQuantity)
	assert.True(t, p.Recognized[0].StapleTransition)
	assert.Equal(t, ChangeNew, p.Recognized[0].Change)
	assert.NotNil(t, p.Unrecognized)
}

func TestBuildDiff_CopiesUnmatched(t *testing.T) {
	unmatched := []string{"a", "b"}
	p := BuildDiff(nil, nil, unmatched)
	unmatched[0] = "changed"
	assert.Equal(t, []string{"a", "b"}, p.Unrecognized)
	assert.Empty(t, p.Recognized)
}
