package ops

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hpungsan/pantry/internal/db"
	"github.com/hpungsan/pantry/internal/errors"
	"github.com/hpungsan/pantry/internal/pantry"
)

// EnsureRef asks for ref to be present in inventory at no less than Floor.
type EnsureRef struct {
	Ref   pantry.Ref
	Floor int
}

// EnsurePresent guarantees an inventory entry exists for every ref. Missing
// entries are inserted at their floor (not a staple); existing entries below
// the floor are raised to it. Quantities are never lowered, so calling it
// again with the same input changes nothing.
//
// Every ref is validated before the first write.
func EnsurePresent(ctx context.Context, s *db.Scope, refs []EnsureRef) error {
	for i, r := range refs {
		if err := r.Ref.Validate(); err != nil {
			return err
		}
		if err := pantry.ValidateQuantity(r.Floor); err != nil {
			return errors.NewValidation(fmt.Sprintf("refs[%d].floor", i), "must be between 0 and 3")
		}
	}

	now := nowUnix()
	for _, r := range refs {
		if err := s.EnsureInventoryFloor(ctx, newID(), r.Ref, r.Floor, now); err != nil {
			return err
		}
	}
	return nil
}

// ApplyExplicitUpdate sets the inventory entry for ref to exactly quantity,
// raising or lowering it. A nil staple keeps the stored flag. The ref must
// name a catalog ingredient or one of the owner's unrecognized entries.
func ApplyExplicitUpdate(ctx context.Context, s *db.Scope, ref pantry.Ref, quantity int, staple *bool) error {
	if err := pantry.ValidateQuantity(quantity); err != nil {
		return err
	}
	if err := ref.Validate(); err != nil {
		return err
	}
	if err := s.CheckRefExists(ctx, ref); err != nil {
		return err
	}
	return s.UpsertInventory(ctx, newID(), ref, quantity, staple, nowUnix())
}

// SetInventoryInput is a direct user edit of one inventory entry.
type SetInventoryInput struct {
	OwnerID        string     `json:"-"`
	Ref            pantry.Ref `json:"ref"`
	QuantityLevel  int        `json:"quantityLevel"`
	IsPantryStaple *bool      `json:"isPantryStaple,omitempty"`
}

// SetInventory applies one explicit edit in its own transaction and returns
// the stored entry.
func SetInventory(ctx context.Context, database *sql.DB, input SetInventoryInput) (*pantry.InventoryEntry, error) {
	input.Ref = input.Ref.Trim()
	var out *pantry.InventoryEntry
	err := db.WithTx(ctx, database, input.OwnerID, func(s *db.Scope) error {
		if err := ApplyExplicitUpdate(ctx, s, input.Ref, input.QuantityLevel, input.IsPantryStaple); err != nil {
			return err
		}
		e, err := s.GetInventoryByRef(ctx, input.Ref)
		if err != nil {
			return err
		}
		out = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
