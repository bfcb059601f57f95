package mcp

import "github.com/mark3labs/mcp-go/mcp"

var userIDParam = mcp.WithString("user_id",
	mcp.Required(),
	mcp.Description("Owner of the pantry data. Every read and write is scoped to this user."),
)

var validateToolDef = mcp.NewTool("ingredients_validate",
	mcp.WithDescription("Match ingredient names against the catalog and the user's unrecognized registry. Read-only."),
	userIDParam,
	mcp.WithArray("ingredient_names",
		mcp.Required(),
		mcp.Description("Free-text ingredient names"),
		mcp.Items(map[string]any{"type": "string"}),
	),
)

var proposeToolDef = mcp.NewTool("inventory_propose",
	mcp.WithDescription("Turn an inventory extraction into a proposal: recognized items with previous and proposed quantities, plus unrecognized names. Nothing is written."),
	userIDParam,
	mcp.WithArray("updates",
		mcp.Required(),
		mcp.Description(`Extracted updates: {"name", "quantityLevel" 0-3, "confidence" high|medium|low, "isPantryStaple"?}`),
		mcp.Items(map[string]any{"type": "object"}),
	),
)

var confirmToolDef = mcp.NewTool("inventory_confirm",
	mcp.WithDescription("Apply a confirmed proposal. Each recognized row is stored with its own quantity. Returns updatedCount and skipped names."),
	userIDParam,
	mcp.WithArray("recognized",
		mcp.Description(`Recognized rows from inventory_propose, possibly edited: {"ref", "proposedQuantity", "isPantryStaple"?}`),
		mcp.Items(map[string]any{"type": "object"}),
	),
	mcp.WithArray("unrecognized",
		mcp.Description("Unrecognized names from the proposal"),
		mcp.Items(map[string]any{"type": "string"}),
	),
	mcp.WithArray("keep_unrecognized",
		mcp.Description(`Unrecognized names to track anyway: {"name", "quantityLevel", "isPantryStaple"?}`),
		mcp.Items(map[string]any{"type": "object"}),
	),
)

var inventoryListToolDef = mcp.NewTool("inventory_list",
	mcp.WithDescription("List the user's inventory."),
	userIDParam,
)

var inventorySetToolDef = mcp.NewTool("inventory_set",
	mcp.WithDescription("Set one inventory entry to an exact quantity (may lower it)."),
	userIDParam,
	mcp.WithString("catalog_id", mcp.Description("Catalog ingredient id (exactly one of catalog_id or unrecognized_id)")),
	mcp.WithString("unrecognized_id", mcp.Description("Unrecognized entry id")),
	mcp.WithNumber("quantity_level", mcp.Required(), mcp.Description("0 (none) to 3 (plenty)")),
	mcp.WithBoolean("is_pantry_staple", mcp.Description("Always treat as available")),
)

var inventoryDeleteToolDef = mcp.NewTool("inventory_delete",
	mcp.WithDescription("Delete one inventory entry by id."),
	userIDParam,
	mcp.WithString("id", mcp.Required(), mcp.Description("Inventory entry id")),
)

var resolveToolDef = mcp.NewTool("unrecognized_resolve",
	mcp.WithDescription("Mark an unrecognized entry as promoted to the catalog. The entry and its inventory row are kept."),
	userIDParam,
	mcp.WithString("id", mcp.Required(), mcp.Description("Unrecognized entry id")),
)

var recipesApplyToolDef = mcp.NewTool("recipes_apply",
	mcp.WithDescription("Persist confirmed recipe tool results (create_recipe, update_recipe, delete_recipe, delete_all_recipes and their _batch forms). Items fail independently."),
	userIDParam,
	mcp.WithArray("recipes",
		mcp.Required(),
		mcp.Description("Recipe tool results"),
		mcp.Items(map[string]any{"type": "object"}),
	),
)

var sessionApplyToolDef = mcp.NewTool("recipes_session_apply",
	mcp.WithDescription("Apply recipe tool results to an unsaved session list and return the new list. Nothing is stored."),
	mcp.WithArray("session",
		mcp.Description(`Current session recipes: {"id", "title", "description"?, "ingredients"}`),
		mcp.Items(map[string]any{"type": "object"}),
	),
	mcp.WithArray("recipes",
		mcp.Required(),
		mcp.Description("Recipe tool results"),
		mcp.Items(map[string]any{"type": "object"}),
	),
)

var recipesListToolDef = mcp.NewTool("recipes_list",
	mcp.WithDescription("List the user's recipes with availability against inventory."),
	userIDParam,
)

var recipesGetToolDef = mcp.NewTool("recipes_get",
	mcp.WithDescription("Get one recipe with its description rendered to HTML."),
	userIDParam,
	mcp.WithString("id", mcp.Required(), mcp.Description("Recipe id")),
)
