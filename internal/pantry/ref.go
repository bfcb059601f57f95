package pantry

import (
	"strings"

	"github.com/hpungsan/pantry/internal/errors"
)

// Ref points at an ingredient: either a catalog ingredient or a per-user
// unrecognized entry. Exactly one side is set on every valid Ref.
type Ref struct {
	CatalogID  string `json:"catalogId,omitempty"`
	FallbackID string `json:"unrecognizedId,omitempty"`
}

// CatalogRef returns a Ref to a catalog ingredient.
func CatalogRef(id string) Ref { return Ref{CatalogID: id} }

// FallbackRef returns a Ref to an unrecognized entry.
func FallbackRef(id string) Ref { return Ref{FallbackID: id} }

// Trim returns r with surrounding whitespace removed from both ids.
func (r Ref) Trim() Ref {
	return Ref{CatalogID: strings.TrimSpace(r.CatalogID), FallbackID: strings.TrimSpace(r.FallbackID)}
}

// Validate enforces the exclusive reference rule. Blank ids count as unset.
func (r Ref) Validate() error {
	r = r.Trim()
	hasCatalog := r.CatalogID != ""
	hasFallback := r.FallbackID != ""
	switch {
	case hasCatalog && hasFallback:
		return errors.NewValidation("ref", "must reference a catalog ingredient or an unrecognized entry, not both")
	case !hasCatalog && !hasFallback:
		return errors.NewValidation("ref", "must reference a catalog ingredient or an unrecognized entry")
	}
	return nil
}

// IsCatalog reports whether r points at the catalog.
func (r Ref) IsCatalog() bool { return strings.TrimSpace(r.CatalogID) != "" }

// ID returns whichever id is set, trimmed.
func (r Ref) ID() string {
	if r.IsCatalog() {
		return strings.TrimSpace(r.CatalogID)
	}
	return strings.TrimSpace(r.FallbackID)
}

// String renders r as "catalog:<id>" or "unrecognized:<id>".
func (r Ref) String() string {
	if r.IsCatalog() {
		return "catalog:" + r.ID()
	}
	return "unrecognized:" + r.ID()
}
