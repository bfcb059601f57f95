package web

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/hpungsan/pantry/internal/config"
	"github.com/hpungsan/pantry/internal/errors"
	"github.com/hpungsan/pantry/internal/ops"
)

// Handlers contains HTTP route handlers for the JSON API.
type Handlers struct {
	db      *sql.DB
	cfg     *config.Config
	log     *zap.Logger
	version string
}

// recipesBody is the body of POST /recipes/apply.
type recipesBody struct {
	Recipes []json.RawMessage `json:"recipes"`
}

// HandleHealth handles GET /healthz.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.db.PingContext(r.Context()); err != nil {
		h.renderError(w, r, errors.NewInternal(err))
		return
	}
	renderJSON(w, http.StatusOK, map[string]any{"status": "ok", "version": h.version})
}

// HandleValidate handles POST /ingredients/validate.
func (h *Handlers) HandleValidate(w http.ResponseWriter, r *http.Request) {
	var input ops.ValidateInput
	if err := decodeBody(w, r, &input); err != nil {
		h.renderError(w, r, err)
		return
	}
	input.OwnerID = userID(r)

	result, err := ops.ValidateIngredients(r.Context(), h.db, input)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandlePropose handles POST /inventory/proposal. Nothing is written.
func (h *Handlers) HandlePropose(w http.ResponseWriter, r *http.Request) {
	var ext ops.InventoryExtraction
	if err := decodeBody(w, r, &ext); err != nil {
		h.renderError(w, r, err)
		return
	}

	result, err := ops.BuildProposal(r.Context(), h.db, userID(r), ext)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleConfirm handles POST /inventory/confirm.
func (h *Handlers) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	var input ops.ConfirmInput
	if err := decodeBody(w, r, &input); err != nil {
		h.renderError(w, r, err)
		return
	}
	input.OwnerID = userID(r)

	result, err := ops.ConfirmProposal(r.Context(), h.db, input)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleInventoryList handles GET /inventory.
func (h *Handlers) HandleInventoryList(w http.ResponseWriter, r *http.Request) {
	result, err := ops.ListInventory(r.Context(), h.db, userID(r))
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleInventorySet handles PUT /inventory: an explicit edit that may
// lower the quantity.
func (h *Handlers) HandleInventorySet(w http.ResponseWriter, r *http.Request) {
	var input ops.SetInventoryInput
	if err := decodeBody(w, r, &input); err != nil {
		h.renderError(w, r, err)
		return
	}
	input.OwnerID = userID(r)

	result, err := ops.SetInventory(r.Context(), h.db, input)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleInventoryDelete handles DELETE /inventory/{id}.
func (h *Handlers) HandleInventoryDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := ops.DeleteInventory(r.Context(), h.db, userID(r), id); err != nil {
		h.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, map[string]any{"deleted": true, "id": id})
}

// HandleResolve handles POST /unrecognized/{id}/resolve.
func (h *Handlers) HandleResolve(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := ops.MarkResolved(r.Context(), h.db, userID(r), id); err != nil {
		h.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, map[string]any{"resolved": true, "id": id})
}

// HandleRecipesApply handles POST /recipes/apply. Per-item failures are
// part of a 200 response; only a malformed request is rejected.
func (h *Handlers) HandleRecipesApply(w http.ResponseWriter, r *http.Request) {
	var body recipesBody
	if err := decodeBody(w, r, &body); err != nil {
		h.renderError(w, r, err)
		return
	}

	results, err := ops.DecodeToolResults(body.Recipes)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	out, err := ops.ApplyRecipes(r.Context(), h.db, h.cfg, ops.ApplyRecipesInput{
		OwnerID: userID(r),
		Recipes: results,
	})
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// HandleSessionApply handles POST /recipes/session. Nothing is stored and
// no owner is needed.
func (h *Handlers) HandleSessionApply(w http.ResponseWriter, r *http.Request) {
	var input ops.SessionInput
	if err := decodeBody(w, r, &input); err != nil {
		h.renderError(w, r, err)
		return
	}

	out, err := ops.ApplySession(input)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// HandleRecipesList handles GET /recipes.
func (h *Handlers) HandleRecipesList(w http.ResponseWriter, r *http.Request) {
	result, err := ops.ListRecipes(r.Context(), h.db, userID(r))
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleRecipesGet handles GET /recipes/{id}.
func (h *Handlers) HandleRecipesGet(w http.ResponseWriter, r *http.Request) {
	result, err := ops.GetRecipe(r.Context(), h.db, userID(r), r.PathValue("id"))
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// userID returns the owner named by the request header. Missing owners are
// rejected by the storage layer.
func userID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(UserHeader))
}
