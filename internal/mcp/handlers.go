package mcp

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/hpungsan/pantry/internal/config"
	"github.com/hpungsan/pantry/internal/errors"
	"github.com/hpungsan/pantry/internal/ops"
	"github.com/hpungsan/pantry/internal/pantry"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	db  *sql.DB
	cfg *config.Config
	log *zap.Logger
}

// NewHandlers creates a new Handlers instance. A nil logger discards output.
func NewHandlers(db *sql.DB, cfg *config.Config, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{db: db, cfg: cfg, log: logger}
}

// Request types for each tool

// ValidateRequest represents the arguments for ingredients_validate.
type ValidateRequest struct {
	UserID          string   `json:"user_id"`
	IngredientNames []string `json:"ingredient_names"`
}

// ProposeRequest represents the arguments for inventory_propose.
type ProposeRequest struct {
	UserID  string                 `json:"user_id"`
	Updates []ops.ExtractionUpdate `json:"updates"`
}

// ConfirmRequest represents the arguments for inventory_confirm.
type ConfirmRequest struct {
	UserID           string            `json:"user_id"`
	Recognized       []ops.ConfirmItem `json:"recognized"`
	Unrecognized     []string          `json:"unrecognized"`
	KeepUnrecognized []ops.KeepItem    `json:"keep_unrecognized,omitempty"`
}

// UserRequest represents the arguments of tools that only need the owner.
type UserRequest struct {
	UserID string `json:"user_id"`
}

// InventorySetRequest represents the arguments for inventory_set.
type InventorySetRequest struct {
	UserID         string `json:"user_id"`
	CatalogID      string `json:"catalog_id,omitempty"`
	UnrecognizedID string `json:"unrecognized_id,omitempty"`
	QuantityLevel  *int   `json:"quantity_level"`
	IsPantryStaple *bool  `json:"is_pantry_staple,omitempty"`
}

// ByIDRequest represents the arguments of tools addressing one row by id.
type ByIDRequest struct {
	UserID string `json:"user_id"`
	ID     string `json:"id"`
}

// RecipesApplyRequest represents the arguments for recipes_apply.
type RecipesApplyRequest struct {
	UserID  string            `json:"user_id"`
	Recipes []json.RawMessage `json:"recipes"`
}

// SessionApplyRequest represents the arguments for recipes_session_apply.
type SessionApplyRequest struct {
	Session []ops.SessionRecipe `json:"session"`
	Recipes []json.RawMessage   `json:"recipes"`
}

// Handler implementations

// HandleValidate handles the ingredients_validate tool call.
func (h *Handlers) HandleValidate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ValidateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.ValidateIngredients(ctx, h.db, ops.ValidateInput{
		OwnerID:         input.UserID,
		IngredientNames: input.IngredientNames,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandlePropose handles the inventory_propose tool call.
func (h *Handlers) HandlePropose(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ProposeRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.BuildProposal(ctx, h.db, input.UserID, ops.InventoryExtraction{Updates: input.Updates})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleConfirm handles the inventory_confirm tool call.
func (h *Handlers) HandleConfirm(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ConfirmRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.ConfirmProposal(ctx, h.db, ops.ConfirmInput{
		OwnerID:          input.UserID,
		Recognized:       input.Recognized,
		Unrecognized:     input.Unrecognized,
		KeepUnrecognized: input.KeepUnrecognized,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleInventoryList handles the inventory_list tool call.
func (h *Handlers) HandleInventoryList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[UserRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.ListInventory(ctx, h.db, input.UserID)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleInventorySet handles the inventory_set tool call.
func (h *Handlers) HandleInventorySet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[InventorySetRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.QuantityLevel == nil {
		return errorResult(errors.NewValidation("quantity_level", "is required")), nil
	}

	result, err := ops.SetInventory(ctx, h.db, ops.SetInventoryInput{
		OwnerID:        input.UserID,
		Ref:            pantry.Ref{CatalogID: input.CatalogID, FallbackID: input.UnrecognizedID},
		QuantityLevel:  *input.QuantityLevel,
		IsPantryStaple: input.IsPantryStaple,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleInventoryDelete handles the inventory_delete tool call.
func (h *Handlers) HandleInventoryDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ByIDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	if err := ops.DeleteInventory(ctx, h.db, input.UserID, input.ID); err != nil {
		return errorResult(err), nil
	}

	return successResult(map[string]any{"deleted": true, "id": input.ID})
}

// HandleResolve handles the unrecognized_resolve tool call.
func (h *Handlers) HandleResolve(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ByIDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	if err := ops.MarkResolved(ctx, h.db, input.UserID, input.ID); err != nil {
		return errorResult(err), nil
	}

	return successResult(map[string]any{"resolved": true, "id": input.ID})
}

// HandleRecipesApply handles the recipes_apply tool call.
func (h *Handlers) HandleRecipesApply(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[RecipesApplyRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	results, err := ops.DecodeToolResults(input.Recipes)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.ApplyRecipes(ctx, h.db, h.cfg, ops.ApplyRecipesInput{
		OwnerID: input.UserID,
		Recipes: results,
	})
	if err != nil {
		return errorResult(err), nil
	}

	if len(result.Errors) > 0 {
		h.log.Warn("recipe items failed",
			zap.String("user_id", input.UserID),
			zap.Strings("errors", result.Errors),
		)
	}
	return successResult(result)
}

// HandleSessionApply handles the recipes_session_apply tool call.
func (h *Handlers) HandleSessionApply(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SessionApplyRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.ApplySession(ops.SessionInput{
		Session: input.Session,
		Recipes: input.Recipes,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleRecipesList handles the recipes_list tool call.
func (h *Handlers) HandleRecipesList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[UserRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.ListRecipes(ctx, h.db, input.UserID)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleRecipesGet handles the recipes_get tool call.
func (h *Handlers) HandleRecipesGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ByIDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.GetRecipe(ctx, h.db, input.UserID, input.ID)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// errorResult creates an MCP error result from an error.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if pe := errors.As(err); pe != nil {
		errorObj := map[string]any{
			"code":    pe.Code,
			"message": pe.Message,
			"status":  pe.Status,
		}
		// Details of internal errors may carry SQL text.
		if pe.Code != errors.ErrInternal && pe.Details != nil {
			errorObj["details"] = pe.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    errors.ErrInternal,
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
