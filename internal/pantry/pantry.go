// Package pantry holds the domain vocabulary shared by storage and the
// reconciliation core: entities, the exclusive ingredient reference, the
// quantity scale and name normalization.
package pantry

// Category is the curated catalog category tag.
type Category string

const (
	CategoryProduce   Category = "produce"
	CategoryDairy     Category = "dairy"
	CategoryProtein   Category = "protein"
	CategoryGrain     Category = "grain"
	CategorySpice     Category = "spice"
	CategoryCondiment Category = "condiment"
	CategoryBaking    Category = "baking"
	CategoryOther     Category = "other"
)

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryProduce, CategoryDairy, CategoryProtein, CategoryGrain,
		CategorySpice, CategoryCondiment, CategoryBaking, CategoryOther:
		return true
	}
	return false
}

// CatalogIngredient is a canonical, curator-owned ingredient. Read-only to the core.
type CatalogIngredient struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Category        Category `json:"category"`
	IsAssumedStaple bool     `json:"isAssumedStaple"`
}

// UnrecognizedEntry is a per-user fallback for a name with no catalog match.
// Uniqueness is scoped to (OwnerID, normalized RawText).
type UnrecognizedEntry struct {
	ID         string  `json:"id"`
	OwnerID    string  `json:"ownerId"`
	RawText    string  `json:"rawText"`
	Context    *string `json:"context,omitempty"`
	ResolvedAt *int64  `json:"resolvedAt,omitempty"`
	CreatedAt  int64   `json:"createdAt"`
}

// InventoryEntry is a per-user stock record for exactly one ingredient reference.
type InventoryEntry struct {
	ID             string `json:"id"`
	OwnerID        string `json:"ownerId"`
	Ref            Ref    `json:"ref"`
	Name           string `json:"name"`
	QuantityLevel  int    `json:"quantityLevel"`
	IsPantryStaple bool   `json:"isPantryStaple"`
	UpdatedAt      int64  `json:"updatedAt"`
}

// Available reports whether the entry counts as in stock.
// Staples are always available regardless of quantity.
func (e InventoryEntry) Available() bool {
	return e.IsPantryStaple || e.QuantityLevel > QuantityNone
}

// Role classifies a recipe ingredient.
type Role string

const (
	RoleAnchor   Role = "anchor"
	RoleOptional Role = "optional"
)

// ParseRole maps a free-form role to a Role. Empty defaults to anchor.
func ParseRole(s string) (Role, bool) {
	switch Normalize(s) {
	case "", "anchor", "required":
		return RoleAnchor, true
	case "optional":
		return RoleOptional, true
	}
	return "", false
}

// RecipeIngredientLink links a persisted recipe to a resolved ingredient.
type RecipeIngredientLink struct {
	Ref  Ref    `json:"ref"`
	Name string `json:"name"`
	Role Role   `json:"role"`

	// AssumedStaple is the catalog's "always on hand" flag for this ingredient.
	AssumedStaple bool `json:"assumedStaple,omitempty"`
}

// Recipe is a persisted per-user recipe aggregate.
type Recipe struct {
	ID          string                 `json:"id"`
	OwnerID     string                 `json:"ownerId"`
	Title       string                 `json:"title"`
	Description *string                `json:"description,omitempty"`
	Ingredients []RecipeIngredientLink `json:"ingredients"`
	CreatedAt   int64                  `json:"createdAt"`
	UpdatedAt   int64                  `json:"updatedAt"`
}
