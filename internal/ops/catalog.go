package ops

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hpungsan/pantry/internal/db"
	"github.com/hpungsan/pantry/internal/errors"
	"github.com/hpungsan/pantry/internal/pantry"
)

// MaxSeedFileSize caps catalog seed files.
const MaxSeedFileSize = 8 << 20

// CatalogSeed is one curated ingredient in a seed file.
type CatalogSeed struct {
	Name            string          `json:"name"`
	Category        pantry.Category `json:"category,omitempty"`
	IsAssumedStaple bool            `json:"isAssumedStaple,omitempty"`
}

// SeedOutput contains the result of the SeedCatalog operation.
type SeedOutput struct {
	Upserted int `json:"upserted"`
	Total    int `json:"total"`
}

// SeedCatalog upserts curated ingredients into the shared catalog. Names
// are unique case-insensitively; re-seeding an existing name keeps its id.
// An empty category defaults to "other".
func SeedCatalog(ctx context.Context, database *sql.DB, seeds []CatalogSeed) (*SeedOutput, error) {
	for i, seed := range seeds {
		if pantry.Normalize(seed.Name) == "" {
			return nil, errors.NewValidation(fmt.Sprintf("items[%d].name", i), "is required")
		}
		if seed.Category != "" && !seed.Category.Valid() {
			return nil, errors.NewValidation(fmt.Sprintf("items[%d].category", i), "unknown category "+string(seed.Category))
		}
	}

	out := &SeedOutput{}
	for _, seed := range seeds {
		category := seed.Category
		if category == "" {
			category = pantry.CategoryOther
		}
		_, err := db.UpsertCatalogIngredient(ctx, database, pantry.CatalogIngredient{
			ID:              newID(),
			Name:            strings.Join(strings.Fields(seed.Name), " "),
			Category:        category,
			IsAssumedStaple: seed.IsAssumedStaple,
		})
		if err != nil {
			return nil, err
		}
		out.Upserted++
	}

	all, err := db.ListCatalog(ctx, database)
	if err != nil {
		return nil, err
	}
	out.Total = len(all)
	return out, nil
}

// CatalogOutput contains the result of the ListCatalog operation.
type CatalogOutput struct {
	Items []pantry.CatalogIngredient `json:"items"`
}

// ListCatalog returns every catalog ingredient ordered by name.
func ListCatalog(ctx context.Context, database *sql.DB) (*CatalogOutput, error) {
	items, err := db.ListCatalog(ctx, database)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []pantry.CatalogIngredient{}
	}
	return &CatalogOutput{Items: items}, nil
}

// LoadCatalogFile reads a JSON array of CatalogSeed from path.
func LoadCatalogFile(path string) ([]CatalogSeed, error) {
	var seeds []CatalogSeed
	if err := ReadJSONFile(path, &seeds); err != nil {
		return nil, err
	}
	return seeds, nil
}

// ReadJSONFile validates path, opens it without following symlinks and
// decodes one JSON document into v.
func ReadJSONFile(path string, v any) error {
	if err := ValidateInputPath(path, ".json"); err != nil {
		return err
	}

	f, err := openFileNoFollowRead(path)
	if err != nil {
		return err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxSeedFileSize+1))
	if err != nil {
		return errors.NewInternal(err)
	}
	if len(data) > MaxSeedFileSize {
		return errors.NewInvalidRequest(fmt.Sprintf("file exceeds %d bytes", MaxSeedFileSize))
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.NewInvalidRequest(fmt.Sprintf("invalid JSON in %s: %v", path, err))
	}
	return nil
}
