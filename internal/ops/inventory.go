package ops

import (
	"context"
	"database/sql"
	"strings"

	"github.com/hpungsan/pantry/internal/db"
	"github.com/hpungsan/pantry/internal/errors"
	"github.com/hpungsan/pantry/internal/pantry"
)

// InventoryOutput contains the result of the ListInventory operation.
type InventoryOutput struct {
	Items     []pantry.InventoryEntry `json:"items"`
	Available int                     `json:"available"`
}

// ListInventory returns every inventory entry of the owner.
func ListInventory(ctx context.Context, database *sql.DB, ownerID string) (*InventoryOutput, error) {
	out := &InventoryOutput{Items: []pantry.InventoryEntry{}}
	err := db.WithReadTx(ctx, database, ownerID, func(s *db.Scope) error {
		items, err := s.ListInventory(ctx)
		if err != nil {
			return err
		}
		if items != nil {
			out.Items = items
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, e := range out.Items {
		if e.Available() {
			out.Available++
		}
	}
	return out, nil
}

// DeleteInventory removes one of the owner's inventory entries. This is the
// only path that deletes inventory.
func DeleteInventory(ctx context.Context, database *sql.DB, ownerID, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return errors.NewValidation("id", "is required")
	}
	return db.WithTx(ctx, database, ownerID, func(s *db.Scope) error {
		return s.DeleteInventory(ctx, id)
	})
}

// MarkResolved soft-marks one of the owner's unrecognized entries as
// promoted to the catalog. The entry is kept.
func MarkResolved(ctx context.Context, database *sql.DB, ownerID, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return errors.NewValidation("id", "is required")
	}
	return db.WithTx(ctx, database, ownerID, func(s *db.Scope) error {
		return s.MarkUnrecognizedResolved(ctx, id, nowUnix())
	})
}
