package db

import (
	"context"
	"database/sql"

	"github.com/hpungsan/pantry/internal/errors"
	"github.com/hpungsan/pantry/internal/pantry"
)

const inventorySelect = `
	SELECT i.id, i.owner_id, i.catalog_id, i.unrecognized_id,
		COALESCE(c.name, u.raw_text, ''), i.quantity_level, i.is_pantry_staple, i.updated_at
	FROM inventory_entries i
	LEFT JOIN catalog_ingredients c ON c.id = i.catalog_id
	LEFT JOIN unrecognized_entries u ON u.id = i.unrecognized_id
`

// refColumn returns the inventory column that holds ref's id.
func refColumn(ref pantry.Ref) string {
	if ref.IsCatalog() {
		return "catalog_id"
	}
	return "unrecognized_id"
}

// refArgs returns (catalog_id, unrecognized_id) bind values for ref.
func refArgs(ref pantry.Ref) (sql.NullString, sql.NullString) {
	if ref.IsCatalog() {
		return sql.NullString{String: ref.ID(), Valid: true}, sql.NullString{}
	}
	return sql.NullString{}, sql.NullString{String: ref.ID(), Valid: true}
}

// CheckRefExists returns NOT_FOUND unless ref points at a catalog ingredient
// or at one of the owner's unrecognized entries.
func (s *Scope) CheckRefExists(ctx context.Context, ref pantry.Ref) error {
	if err := ref.Validate(); err != nil {
		return err
	}

	var (
		query string
		args  []any
	)
	if ref.IsCatalog() {
		query = `SELECT 1 FROM catalog_ingredients WHERE id = ?`
		args = []any{ref.ID()}
	} else {
		query = `SELECT 1 FROM unrecognized_entries WHERE id = ? AND owner_id = ?`
		args = []any{ref.ID(), s.owner}
	}

	var one int
	err := s.tx.QueryRowContext(ctx, query, args...).Scan(&one)
	if err == sql.ErrNoRows {
		return errors.NewNotFound("ingredient", ref.String())
	}
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// GetInventoryByRef returns the owner's entry for ref.
func (s *Scope) GetInventoryByRef(ctx context.Context, ref pantry.Ref) (*pantry.InventoryEntry, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}

	query := inventorySelect + ` WHERE i.owner_id = ? AND i.` + refColumn(ref) + ` = ?`
	row := s.tx.QueryRowContext(ctx, query, s.owner, ref.ID())
	e, err := scanInventory(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("inventory entry", ref.String())
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return e, nil
}

// InventoryByRefs returns the owner's entries for refs keyed by Ref.
// Refs without an entry are absent from the map.
func (s *Scope) InventoryByRefs(ctx context.Context, refs []pantry.Ref) (map[pantry.Ref]pantry.InventoryEntry, error) {
	var catalogIDs, fallbackIDs []string
	for _, ref := range refs {
		if ref.IsCatalog() {
			catalogIDs = append(catalogIDs, ref.ID())
		} else if ref.ID() != "" {
			fallbackIDs = append(fallbackIDs, ref.ID())
		}
	}

	out := make(map[pantry.Ref]pantry.InventoryEntry, len(refs))
	for _, part := range []struct {
		column string
		ids    []string
	}{
		{"catalog_id", catalogIDs},
		{"unrecognized_id", fallbackIDs},
	} {
		if len(part.ids) == 0 {
			continue
		}
		query := inventorySelect + ` WHERE i.owner_id = ? AND i.` + part.column + ` IN (` + placeholders(len(part.ids)) + `)`
		entries, err := s.queryInventory(ctx, query, append([]any{s.owner}, stringArgs(part.ids)...)...)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			out[e.Ref] = e
		}
	}
	return out, nil
}

// ListInventory returns all of the owner's entries ordered by name.
func (s *Scope) ListInventory(ctx context.Context) ([]pantry.InventoryEntry, error) {
	query := inventorySelect + ` WHERE i.owner_id = ? ORDER BY lower(COALESCE(c.name, u.raw_text, '')), i.id`
	return s.queryInventory(ctx, query, s.owner)
}

// EnsureInventoryFloor inserts an entry for ref at floor, or raises an
// existing entry's quantity to floor. It never lowers a quantity and never
// touches the staple flag. id is used only when a row is inserted.
func (s *Scope) EnsureInventoryFloor(ctx context.Context, id string, ref pantry.Ref, floor int, now int64) error {
	if err := ref.Validate(); err != nil {
		return err
	}
	if err := pantry.ValidateQuantity(floor); err != nil {
		return err
	}

	col := refColumn(ref)
	query := `
		INSERT INTO inventory_entries (id, owner_id, catalog_id, unrecognized_id, quantity_level, is_pantry_staple, updated_at)
		VALUES (?, ?, ?, ?, ?, 0, ?)
		ON CONFLICT(owner_id, ` + col + `) WHERE ` + col + ` IS NOT NULL DO UPDATE SET
			quantity_level = excluded.quantity_level,
			updated_at = excluded.updated_at
		WHERE excluded.quantity_level > inventory_entries.quantity_level
	`
	catalogID, fallbackID := refArgs(ref)
	if _, err := s.tx.ExecContext(ctx, query, id, s.owner, catalogID, fallbackID, floor, now); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// UpsertInventory sets the entry for ref to exactly quantity, inserting it if
// absent. A nil staple keeps the stored flag (false for new rows).
func (s *Scope) UpsertInventory(ctx context.Context, id string, ref pantry.Ref, quantity int, staple *bool, now int64) error {
	if err := ref.Validate(); err != nil {
		return err
	}
	if err := pantry.ValidateQuantity(quantity); err != nil {
		return err
	}

	var stapleArg sql.NullBool
	if staple != nil {
		stapleArg = sql.NullBool{Bool: *staple, Valid: true}
	}

	col := refColumn(ref)
	query := `
		INSERT INTO inventory_entries (id, owner_id, catalog_id, unrecognized_id, quantity_level, is_pantry_staple, updated_at)
		VALUES (?, ?, ?, ?, ?, COALESCE(?, 0), ?)
		ON CONFLICT(owner_id, ` + col + `) WHERE ` + col + ` IS NOT NULL DO UPDATE SET
			quantity_level = excluded.quantity_level,
			is_pantry_staple = COALESCE(?, inventory_entries.is_pantry_staple),
			updated_at = excluded.updated_at
	`
	catalogID, fallbackID := refArgs(ref)
	_, err := s.tx.ExecContext(ctx, query, id, s.owner, catalogID, fallbackID, quantity, stapleArg, now, stapleArg)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// DeleteInventory removes one of the owner's entries by id.
func (s *Scope) DeleteInventory(ctx context.Context, id string) error {
	result, err := s.tx.ExecContext(ctx, `DELETE FROM inventory_entries WHERE id = ? AND owner_id = ?`, id, s.owner)
	if err != nil {
		return errors.NewInternal(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if n == 0 {
		return errors.NewNotFound("inventory entry", id)
	}
	return nil
}

func (s *Scope) queryInventory(ctx context.Context, query string, args ...any) ([]pantry.InventoryEntry, error) {
	rows, err := s.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var out []pantry.InventoryEntry
	for rows.Next() {
		e, err := scanInventory(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		out = append(out, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return out, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanInventory(row rowScanner) (*pantry.InventoryEntry, error) {
	var (
		e          pantry.InventoryEntry
		catalogID  sql.NullString
		fallbackID sql.NullString
	)
	err := row.Scan(&e.ID, &e.OwnerID, &catalogID, &fallbackID,
		&e.Name, &e.QuantityLevel, &e.IsPantryStaple, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	e.Ref = pantry.Ref{CatalogID: catalogID.String, FallbackID: fallbackID.String}
	return &e, nil
}
