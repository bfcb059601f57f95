package ops

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/hpungsan/pantry/internal/db"
	"github.com/hpungsan/pantry/internal/errors"
	"github.com/hpungsan/pantry/internal/pantry"
)

// contextInventory tags unrecognized entries created from inventory input.
const contextInventory = "inventory"

// ExtractionUpdate is one item of an inventory extraction.
type ExtractionUpdate struct {
	Name           string     `json:"name"`
	QuantityLevel  int        `json:"quantityLevel"`
	Confidence     Confidence `json:"confidence,omitempty"`
	IsPantryStaple *bool      `json:"isPantryStaple,omitempty"`
}

// InventoryExtraction is the structured object the extractor produces for
// inventory updates.
type InventoryExtraction struct {
	Updates []ExtractionUpdate `json:"updates"`
}

// Validate checks every update. Nothing is resolved or stored.
func (e InventoryExtraction) Validate() error {
	for i, u := range e.Updates {
		if strings.TrimSpace(u.Name) == "" {
			return errors.NewValidation(fmt.Sprintf("updates[%d].name", i), "is required")
		}
		if pantry.ValidateQuantity(u.QuantityLevel) != nil {
			return errors.NewValidation(fmt.Sprintf("updates[%d].quantityLevel", i), "must be between 0 and 3")
		}
		switch u.Confidence {
		case "", ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		default:
			return errors.NewValidation(fmt.Sprintf("updates[%d].confidence", i), "must be high, medium or low")
		}
	}
	return nil
}

// BuildProposal resolves an extraction against the catalog and the owner's
// registry and diffs it against current inventory. It never writes.
// When a name appears more than once the last update wins, keeping the
// position of the first occurrence.
func BuildProposal(ctx context.Context, database *sql.DB, ownerID string, ext InventoryExtraction) (*Proposal, error) {
	if err := ext.Validate(); err != nil {
		return nil, err
	}

	var order []string
	latest := make(map[string]ExtractionUpdate)
	names := make([]string, 0, len(ext.Updates))
	for _, u := range ext.Updates {
		norm := pantry.Normalize(u.Name)
		if _, seen := latest[norm]; !seen {
			order = append(order, norm)
		}
		latest[norm] = u
		names = append(names, u.Name)
	}

	var proposal Proposal
	err := db.WithReadTx(ctx, database, ownerID, func(s *db.Scope) error {
		res, err := ResolveNames(ctx, s, names)
		if err != nil {
			return err
		}

		targets := make([]ResolvedTarget, 0, len(order))
		refs := make([]pantry.Ref, 0, len(order))
		for _, norm := range order {
			ref, name, ok := res.Lookup(norm)
			if !ok {
				continue
			}
			u := latest[norm]
			targets = append(targets, ResolvedTarget{
				Ref:              ref,
				Name:             name,
				ProposedQuantity: u.QuantityLevel,
				ProposedStaple:   u.IsPantryStaple,
				Confidence:       u.Confidence,
			})
			refs = append(refs, ref)
		}

		existing, err := s.InventoryByRefs(ctx, refs)
		if err != nil {
			return err
		}
		previous := make(map[pantry.Ref]SnapshotEntry, len(existing))
		for ref, e := range existing {
			previous[ref] = SnapshotEntry{Quantity: e.QuantityLevel, IsPantryStaple: e.IsPantryStaple}
		}

		proposal = BuildDiff(previous, targets, res.StillUnmatched)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &proposal, nil
}

// ConfirmItem is one recognized proposal row as confirmed (and possibly
// edited) by the user.
type ConfirmItem struct {
	Ref              pantry.Ref `json:"ref"`
	Name             string     `json:"name,omitempty"`
	ProposedQuantity int        `json:"proposedQuantity"`
	ProposedStaple   *bool      `json:"isPantryStaple,omitempty"`
}

// KeepItem is an unrecognized name the user chose to track anyway.
type KeepItem struct {
	Name           string `json:"name"`
	QuantityLevel  int    `json:"quantityLevel"`
	IsPantryStaple *bool  `json:"isPantryStaple,omitempty"`
}

// ConfirmInput is a confirmed proposal.
type ConfirmInput struct {
	OwnerID          string        `json:"-"`
	Recognized       []ConfirmItem `json:"recognized"`
	Unrecognized     []string      `json:"unrecognized"`
	KeepUnrecognized []KeepItem    `json:"keepUnrecognized,omitempty"`
}

// ConfirmOutput reports what was applied and what was not.
type ConfirmOutput struct {
	UpdatedCount int      `json:"updatedCount"`
	Skipped      []string `json:"skipped"`
}

// ConfirmProposal applies every confirmed row with its own quantity and
// staple flag. Names listed in KeepUnrecognized are stocked too: under their
// catalog or registry ref when one now matches, otherwise as newly registered
// unrecognized entries. Other unrecognized names are reported as skipped,
// as are rows whose ref no longer exists. The whole input is validated
// before anything is written.
func ConfirmProposal(ctx context.Context, database *sql.DB, input ConfirmInput) (*ConfirmOutput, error) {
	for i, item := range input.Recognized {
		if err := item.Ref.Validate(); err != nil {
			return nil, errors.NewValidation(fmt.Sprintf("recognized[%d].ref", i), "must set exactly one of catalogId or unrecognizedId")
		}
		if pantry.ValidateQuantity(item.ProposedQuantity) != nil {
			return nil, errors.NewValidation(fmt.Sprintf("recognized[%d].proposedQuantity", i), "must be between 0 and 3")
		}
	}
	for i, k := range input.KeepUnrecognized {
		if strings.TrimSpace(k.Name) == "" {
			return nil, errors.NewValidation(fmt.Sprintf("keepUnrecognized[%d].name", i), "is required")
		}
		if pantry.ValidateQuantity(k.QuantityLevel) != nil {
			return nil, errors.NewValidation(fmt.Sprintf("keepUnrecognized[%d].quantityLevel", i), "must be between 0 and 3")
		}
	}

	// Later rows for the same ref win.
	var refs []pantry.Ref
	rows := make(map[pantry.Ref]ConfirmItem)
	for _, item := range input.Recognized {
		item.Ref = item.Ref.Trim()
		if _, seen := rows[item.Ref]; !seen {
			refs = append(refs, item.Ref)
		}
		rows[item.Ref] = item
	}

	out := &ConfirmOutput{Skipped: []string{}}
	err := db.WithTx(ctx, database, input.OwnerID, func(s *db.Scope) error {
		for _, ref := range refs {
			item := rows[ref]
			err := ApplyExplicitUpdate(ctx, s, ref, item.ProposedQuantity, item.ProposedStaple)
			if errors.Is(err, errors.ErrNotFound) {
				out.Skipped = append(out.Skipped, displayName(item.Name, ref))
				continue
			}
			if err != nil {
				return err
			}
			out.UpdatedCount++
		}

		// Kept names go through resolution first: a name the catalog or the
		// registry already knows is stocked under that ref, and only the rest
		// are registered.
		kept := make(map[string]KeepItem, len(input.KeepUnrecognized))
		var keptOrder, keepNames []string
		for _, k := range input.KeepUnrecognized {
			norm := pantry.Normalize(k.Name)
			if _, seen := kept[norm]; !seen {
				keptOrder = append(keptOrder, norm)
				keepNames = append(keepNames, k.Name)
			}
			kept[norm] = k
		}
		res, err := ResolveNames(ctx, s, keepNames)
		if err != nil {
			return err
		}
		for _, norm := range keptOrder {
			ref, _, ok := res.Lookup(norm)
			if !ok {
				continue
			}
			k := kept[norm]
			if err := ApplyExplicitUpdate(ctx, s, ref, k.QuantityLevel, k.IsPantryStaple); err != nil {
				return err
			}
			if _, done := rows[ref]; !done {
				out.UpdatedCount++
			}
		}

		tag := contextInventory
		entries, err := EnsureUnrecognized(ctx, s, res.StillUnmatched, &tag)
		if err != nil {
			return err
		}
		for _, e := range entries {
			k := kept[pantry.Normalize(e.RawText)]
			if err := ApplyExplicitUpdate(ctx, s, pantry.FallbackRef(e.ID), k.QuantityLevel, k.IsPantryStaple); err != nil {
				return err
			}
			out.UpdatedCount++
		}

		for _, name := range input.Unrecognized {
			if _, ok := kept[pantry.Normalize(name)]; ok {
				continue
			}
			if strings.TrimSpace(name) == "" {
				continue
			}
			out.Skipped = append(out.Skipped, strings.TrimSpace(name))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func displayName(name string, ref pantry.Ref) string {
	if n := strings.TrimSpace(name); n != "" {
		return n
	}
	return ref.String()
}
