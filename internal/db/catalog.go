package db

import (
	"context"
	"database/sql"

	"github.com/hpungsan/pantry/internal/errors"
	"github.com/hpungsan/pantry/internal/pantry"
)

// UpsertCatalogIngredient inserts a catalog ingredient or, when one with the
// same normalized name exists, refreshes its display name, category and staple
// flag. Returns the id of the stored row (the existing id on conflict).
// The catalog is shared, so this runs outside any owner scope.
func UpsertCatalogIngredient(ctx context.Context, database *sql.DB, c pantry.CatalogIngredient) (string, error) {
	query := `
		INSERT INTO catalog_ingredients (id, name, name_norm, category, is_assumed_staple)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name_norm) DO UPDATE SET
			name = excluded.name,
			category = excluded.category,
			is_assumed_staple = excluded.is_assumed_staple
		RETURNING id
	`

	var id string
	err := database.QueryRowContext(ctx, query,
		c.ID, c.Name, pantry.Normalize(c.Name), string(c.Category), c.IsAssumedStaple,
	).Scan(&id)
	if err != nil {
		return "", errors.NewInternal(err)
	}
	return id, nil
}

// ListCatalog returns every catalog ingredient ordered by name.
func ListCatalog(ctx context.Context, database *sql.DB) ([]pantry.CatalogIngredient, error) {
	rows, err := database.QueryContext(ctx, `
		SELECT id, name, category, is_assumed_staple
		FROM catalog_ingredients
		ORDER BY name_norm
	`)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()
	return scanCatalogRows(rows)
}

// FindCatalogByNames returns catalog ingredients whose normalized name is in
// norms, in one round-trip. norms must already be normalized.
func (s *Scope) FindCatalogByNames(ctx context.Context, norms []string) ([]pantry.CatalogIngredient, error) {
	if len(norms) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, name, category, is_assumed_staple
		FROM catalog_ingredients
		WHERE name_norm IN (` + placeholders(len(norms)) + `)
	`
	rows, err := s.tx.QueryContext(ctx, query, stringArgs(norms)...)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()
	return scanCatalogRows(rows)
}

func scanCatalogRows(rows *sql.Rows) ([]pantry.CatalogIngredient, error) {
	var out []pantry.CatalogIngredient
	for rows.Next() {
		var (
			c        pantry.CatalogIngredient
			category string
		)
		if err := rows.Scan(&c.ID, &c.Name, &category, &c.IsAssumedStaple); err != nil {
			return nil, errors.NewInternal(err)
		}
		c.Category = pantry.Category(category)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return out, nil
}
