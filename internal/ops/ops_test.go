package ops

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/pantry/internal/db"
	"github.com/hpungsan/pantry/internal/pantry"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.Init(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

// seedNames adds catalog ingredients and returns their ids by normalized name.
func seedNames(t *testing.T, database *sql.DB, names ...string) map[string]string {
	t.Helper()
	seeds := make([]CatalogSeed, 0, len(names))
	for _, n := range names {
		seeds = append(seeds, CatalogSeed{Name: n})
	}
	return seedCatalog(t, database, seeds...)
}

func seedCatalog(t *testing.T, database *sql.DB, seeds ...CatalogSeed) map[string]string {
	t.Helper()
	_, err := SeedCatalog(context.Background(), database, seeds)
	require.NoError(t, err)

	all, err := db.ListCatalog(context.Background(), database)
	require.NoError(t, err)
	ids := make(map[string]string, len(all))
	for _, c := range all {
		ids[pantry.Normalize(c.Name)] = c.ID
	}
	return ids
}

// inScope runs fn in a committed transaction for owner.
func inScope(t *testing.T, database *sql.DB, owner string, fn func(s *db.Scope) error) {
	t.Helper()
	require.NoError(t, db.WithTx(context.Background(), database, owner, fn))
}

func inventoryOf(t *testing.T, database *sql.DB, owner string) map[pantry.Ref]pantry.InventoryEntry {
	t.Helper()
	out, err := ListInventory(context.Background(), database, owner)
	require.NoError(t, err)
	idx := make(map[pantry.Ref]pantry.InventoryEntry, len(out.Items))
	for _, e := range out.Items {
		idx[e.Ref] = e
	}
	return idx
}

func ptr[T any](v T) *T { return &v }

func TestNewID(t *testing.T) {
	id := newID()
	if len(id) != 26 {
		t.Errorf("ID length = %d, want 26 (ULID)", len(id))
	}
	if !isWellFormedID(id) {
		t.Errorf("isWellFormedID(%q) = false", id)
	}
	if isWellFormedID("not-a-ulid") {
		t.Error("isWellFormedID accepted a malformed id")
	}
}
