package pantry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/pantry/internal/errors"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Tomato", "tomato"},
		{"tomato ", "tomato"},
		{"  Olive   Oil\t", "olive oil"},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in), "Normalize(%q)", tt.in)
	}
}

func TestNormalizeUnique(t *testing.T) {
	got := NormalizeUnique([]string{"Egg", "milk", " egg", "", "MILK ", "flour"})
	assert.Equal(t, []string{"egg", "milk", "flour"}, got)
}

func TestValidateQuantity(t *testing.T) {
	for _, q := range []int{0, 1, 2, 3} {
		assert.NoError(t, ValidateQuantity(q))
	}
	for _, q := range []int{-1, 4, 100} {
		err := ValidateQuantity(q)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrValidation))
	}
}

func TestRef_Validate(t *testing.T) {
	assert.NoError(t, CatalogRef("c1").Validate())
	assert.NoError(t, FallbackRef("u1").Validate())

	err := Ref{CatalogID: "c1", FallbackID: "u1"}.Validate()
	assert.True(t, errors.Is(err, errors.ErrValidation))

	err = Ref{}.Validate()
	assert.True(t, errors.Is(err, errors.ErrValidation))

	err = Ref{CatalogID: "  "}.Validate()
	assert.True(t, errors.Is(err, errors.ErrValidation))
}

func TestRef_Accessors(t *testing.T) {
	c := CatalogRef("c1")
	assert.True(t, c.IsCatalog())
	assert.Equal(t, "c1", c.ID())
	assert.Equal(t, "catalog:c1", c.String())

	f := FallbackRef("u1")
	assert.False(t, f.IsCatalog())
	assert.Equal(t, "u1", f.ID())
	assert.Equal(t, "unrecognized:u1", f.String())
}

func TestRef_BlankSideIgnored(t *testing.T) {
	r := Ref{CatalogID: " ", FallbackID: " u1 "}
	require.NoError(t, r.Validate())
	assert.False(t, r.IsCatalog())
	assert.Equal(t, "u1", r.ID())
	assert.Equal(t, "unrecognized:u1", r.String())
	assert.Equal(t, FallbackRef("u1"), r.Trim())
}

func TestParseRole(t *testing.T) {
	r, ok := ParseRole("")
	assert.True(t, ok)
	assert.Equal(t, RoleAnchor, r)

	r, ok = ParseRole(" Optional ")
	assert.True(t, ok)
	assert.Equal(t, RoleOptional, r)

	_, ok = ParseRole("garnish")
	assert.False(t, ok)
}

func TestInventoryEntry_Available(t *testing.T) {
	assert.False(t, InventoryEntry{QuantityLevel: 0}.Available())
	assert.True(t, InventoryEntry{QuantityLevel: 1}.Available())
	assert.True(t, InventoryEntry{QuantityLevel: 0, IsPantryStaple: true}.Available())
}

func TestCategory_Valid(t *testing.T) {
	assert.True(t, CategoryDairy.Valid())
	assert.False(t, Category("candy").Valid())
}
