package ops

import "github.com/hpungsan/pantry/internal/pantry"

// Confidence is the extractor's self-reported certainty for one update.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// ChangeKind classifies a recognized proposal row.
type ChangeKind string

const (
	ChangeNew       ChangeKind = "new"
	ChangeIncrease  ChangeKind = "increase"
	ChangeDecrease  ChangeKind = "decrease"
	ChangeStaple    ChangeKind = "staple"
	ChangeUnchanged ChangeKind = "unchanged"
)

// SnapshotEntry is the prior state of one inventory entry.
type SnapshotEntry struct {
	Quantity       int  `json:"quantity"`
	IsPantryStaple bool `json:"isPantryStaple"`
}

// ResolvedTarget is one resolved name with its requested new state.
type ResolvedTarget struct {
	Ref              pantry.Ref
	Name             string
	ProposedQuantity int
	ProposedStaple   *bool
	Confidence       Confidence
}

// RecognizedItem is one row of a proposal shown to the user for confirmation.
// When StapleTransition is set, PreviousQuantity still shows the quantity
// being superseded by "always available".
type RecognizedItem struct {
	Ref              pantry.Ref `json:"ref"`
	Name             string     `json:"name"`
	PreviousQuantity *int       `json:"previousQuantity"`
	ProposedQuantity int        `json:"proposedQuantity"`
	ProposedStaple   *bool      `json:"isPantryStaple,omitempty"`
	StapleTransition bool       `json:"stapleTransition,omitempty"`
	Confidence       Confidence `json:"confidence,omitempty"`
	Change           ChangeKind `json:"change"`
}

// Proposal is the recognized/unrecognized partition presented before confirmation.
type Proposal struct {
	Recognized   []RecognizedItem `json:"recognized"`
	Unrecognized []string         `json:"unrecognized"`
}

// BuildDiff computes the previous-to-proposed delta for each resolved target.
// A ref missing from previous is a new item with a nil PreviousQuantity.
// unmatched names are copied verbatim into Unrecognized. No I/O.
func BuildDiff(previous map[pantry.Ref]SnapshotEntry, resolved []ResolvedTarget, unmatched []string) Proposal {
	p := Proposal{
		Recognized:   make([]RecognizedItem, 0, len(resolved)),
		Unrecognized: append([]string{}, unmatched...),
	}

	for _, r := range resolved {
		item := RecognizedItem{
			Ref:              r.Ref,
			Name:             r.Name,
			ProposedQuantity: r.ProposedQuantity,
			ProposedStaple:   r.ProposedStaple,
			Confidence:       r.Confidence,
		}

		prev, ok := previous[r.Ref]
		if !ok {
			item.Change = ChangeNew
			if r.ProposedStaple != nil && *r.ProposedStaple {
				item.StapleTransition = true
			}
			p.Recognized = append(p.Recognized, item)
			continue
		}

		q := prev.Quantity
		item.PreviousQuantity = &q
		if r.ProposedStaple != nil && *r.ProposedStaple != prev.IsPantryStaple {
			item.StapleTransition = true
		}

		switch {
		case item.StapleTransition:
			item.Change = ChangeStaple
		case r.ProposedQuantity > q:
			item.Change = ChangeIncrease
		case r.ProposedQuantity < q:
			item.Change = ChangeDecrease
		default:
			item.Change = ChangeUnchanged
		}
		p.Recognized = append(p.Recognized, item)
	}

	return p
}
