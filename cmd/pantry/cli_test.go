package main

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/hpungsan/pantry/internal/config"
	"github.com/hpungsan/pantry/internal/db"
)

// setupTestDB creates a temporary database with a seeded catalog.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dir := t.TempDir()
	database, err := db.Init(dir)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	seed := writeFile(t, "catalog.json", `[
		{"name": "Tomato", "category": "produce"},
		{"name": "Pasta", "category": "grain"},
		{"name": "Olive  Oil", "category": "condiment", "isAssumedStaple": true}
	]`)
	_, err = run(t, database, "", "catalog", "seed", seed)
	require.NoError(t, err)
	return database
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

// run executes the CLI with stdin and returns what it wrote to stdout.
func run(t *testing.T, database *sql.DB, stdin string, args ...string) (string, error) {
	t.Helper()
	app := newCLIApp(database, config.DefaultConfig(), zap.NewNop())
	var out bytes.Buffer
	app.Writer = &out
	app.ErrWriter = &bytes.Buffer{}
	app.Reader = strings.NewReader(stdin)
	err := app.Run(append([]string{"pantry"}, args...))
	return out.String(), err
}

func runJSON(t *testing.T, database *sql.DB, stdin string, args ...string) map[string]any {
	t.Helper()
	out, err := run(t, database, stdin, args...)
	require.NoError(t, err)
	var v map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &v), out)
	return v
}

func exitMessage(t *testing.T, err error) string {
	t.Helper()
	require.Error(t, err)
	exit, ok := err.(cli.ExitCoder)
	require.True(t, ok, "expected cli.ExitCoder, got %T", err)
	assert.Equal(t, 1, exit.ExitCode())
	return exit.Error()
}

func TestCLICatalog(t *testing.T) {
	database := setupTestDB(t)

	out := runJSON(t, database, "", "catalog", "list")
	items := out["items"].([]any)
	require.Len(t, items, 3)
	assert.Equal(t, "Olive Oil", items[0].(map[string]any)["name"])

	t.Run("missing path", func(t *testing.T) {
		_, err := run(t, database, "", "catalog", "seed")
		assert.Contains(t, exitMessage(t, err), "[INVALID_REQUEST]")
	})

	t.Run("wrong extension", func(t *testing.T) {
		path := writeFile(t, "catalog.txt", "[]")
		_, err := run(t, database, "", "catalog", "seed", path)
		assert.Contains(t, exitMessage(t, err), "[INVALID_REQUEST]")
	})
}

func TestCLIValidate(t *testing.T) {
	database := setupTestDB(t)

	out := runJSON(t, database, "", "validate", "--user", "alice", "tomato", "gochujang")
	assert.Len(t, out["matched"], 1)
	assert.Equal(t, []any{"gochujang"}, out["unrecognized"])

	_, err := run(t, database, "", "validate", "tomato")
	assert.Contains(t, exitMessage(t, err), "[VALIDATION]")

	_, err = run(t, database, "", "validate", "--user", "alice")
	assert.Contains(t, exitMessage(t, err), "at least one ingredient")
}

func TestCLIProposeConfirm(t *testing.T) {
	database := setupTestDB(t)

	proposal := runJSON(t, database,
		`{"updates":[{"name":"tomato","quantityLevel":2,"confidence":"high"},{"name":"gochujang","quantityLevel":1,"confidence":"low"}]}`,
		"propose", "--user", "alice")
	require.Len(t, proposal["recognized"], 1)

	body, err := json.Marshal(map[string]any{
		"recognized":       proposal["recognized"],
		"unrecognized":     proposal["unrecognized"],
		"keepUnrecognized": []any{map[string]any{"name": "gochujang", "quantityLevel": 1}},
	})
	require.NoError(t, err)
	path := writeFile(t, "confirm.json", string(body))

	out := runJSON(t, database, "", "confirm", "--user", "alice", "--file", path)
	assert.EqualValues(t, 2, out["updatedCount"])

	inv := runJSON(t, database, "", "inventory", "list", "--user", "alice")
	assert.Len(t, inv["items"], 2)
}

func TestCLIProposeBadInput(t *testing.T) {
	database := setupTestDB(t)

	_, err := run(t, database, "{not json", "propose", "--user", "alice")
	assert.Contains(t, exitMessage(t, err), "[INVALID_REQUEST]")
}

func TestCLIInventorySetDelete(t *testing.T) {
	database := setupTestDB(t)

	v := runJSON(t, database, "", "validate", "--user", "alice", "pasta")
	pastaID := v["matched"].([]any)[0].(map[string]any)["id"].(string)

	entry := runJSON(t, database, "", "inventory", "set", "--user", "alice", "--catalog-id", pastaID, "--quantity", "3", "--staple")
	assert.EqualValues(t, 3, entry["quantityLevel"])
	assert.Equal(t, true, entry["isPantryStaple"])

	// Explicit edits may lower the level.
	entry = runJSON(t, database, "", "inventory", "set", "--user", "alice", "--catalog-id", pastaID, "--quantity", "0")
	assert.EqualValues(t, 0, entry["quantityLevel"])
	assert.Equal(t, true, entry["isPantryStaple"])

	_, err := run(t, database, "", "inventory", "set", "--user", "alice", "--catalog-id", pastaID, "--quantity", "9")
	assert.Contains(t, exitMessage(t, err), "[VALIDATION]")

	id := entry["id"].(string)
	_, err = run(t, database, "", "inventory", "delete", "--user", "bob", id)
	assert.Contains(t, exitMessage(t, err), "[NOT_FOUND]")

	out := runJSON(t, database, "", "inventory", "delete", "--user", "alice", id)
	assert.Equal(t, true, out["deleted"])
}

func TestCLIRecipes(t *testing.T) {
	database := setupTestDB(t)

	applied := runJSON(t, database,
		`[{"type":"create_recipe","title":"Pasta al pomodoro","description":"Cook **al dente**.","ingredients":["pasta","tomato","olive oil",{"name":"basil","role":"optional"}]}]`,
		"recipes", "apply", "--user", "alice")
	assert.EqualValues(t, 1, applied["created"])
	assert.Equal(t, []any{"basil"}, applied["unrecognized"])

	list := runJSON(t, database, "", "recipes", "list", "--user", "alice")
	items := list["items"].([]any)
	require.Len(t, items, 1)
	recipe := items[0].(map[string]any)
	assert.Equal(t, true, recipe["available"])

	got := runJSON(t, database, "", "recipes", "get", "--user", "alice", recipe["id"].(string))
	assert.Contains(t, got["descriptionHtml"], "<strong>al dente</strong>")

	// Every linked ingredient was raised to the floor.
	inv := runJSON(t, database, "", "inventory", "list", "--user", "alice")
	for _, it := range inv["items"].([]any) {
		assert.EqualValues(t, 1, it.(map[string]any)["quantityLevel"])
	}
}

func TestCLIRecipesSession(t *testing.T) {
	database := setupTestDB(t)

	out := runJSON(t, database,
		`{"session":[{"id":"tmp_1","title":"Salad","ingredients":["tomato"]}],"recipes":[{"type":"update_recipe","recipeId":"tmp_1","addIngredients":["olive oil"]}]}`,
		"recipes", "session")
	session := out["session"].([]any)
	require.Len(t, session, 1)
	assert.Len(t, session[0].(map[string]any)["ingredients"], 2)

	// Nothing stored.
	list := runJSON(t, database, "", "recipes", "list", "--user", "alice")
	assert.Empty(t, list["items"])
}

func TestCLIEval(t *testing.T) {
	cases := writeFile(t, "cases.json", `[
		{"name": "exact",
		 "output": {"ingredients": ["Egg", "flour"], "titles": ["Pancakes"]},
		 "expected": {"ingredients": ["egg", "flour"], "titles": ["Pancakes"]}},
		{"name": "miss",
		 "output": {"ingredients": ["egg"], "titles": ["Soup"]},
		 "expected": {"ingredients": ["rice"], "titles": ["Risotto"]}}
	]`)

	out, err := run(t, nil, "", "eval", cases)
	require.NoError(t, err)
	var report map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Len(t, report["cases"], 2)
	assert.InDelta(t, 0.5, report["mean"].(map[string]any)["ingredientF1"], 1e-9)

	_, err = run(t, nil, "", "eval", "--threshold", "0.9", cases)
	assert.Contains(t, exitMessage(t, err), "below threshold")

	_, err = run(t, nil, "", "eval", "--threshold", "0.5", cases)
	assert.NoError(t, err)
}

func TestCLIVersion(t *testing.T) {
	out, err := run(t, nil, "", "--version")
	require.NoError(t, err)
	assert.Contains(t, out, Version)
}
