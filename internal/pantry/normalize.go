package pantry

import (
	"regexp"
	"strings"

	"github.com/hpungsan/pantry/internal/errors"
)

// whitespaceRegex matches one or more whitespace characters
var whitespaceRegex = regexp.MustCompile(`\s+`)

// Normalize trims, lowercases and collapses internal whitespace.
// Every name comparison in the core goes through it.
func Normalize(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return whitespaceRegex.ReplaceAllString(s, " ")
}

// NormalizeUnique normalizes names and drops empties and duplicates,
// keeping first-seen order.
func NormalizeUnique(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		norm := Normalize(n)
		if norm == "" || seen[norm] {
			continue
		}
		seen[norm] = true
		out = append(out, norm)
	}
	return out
}

// Quantity scale. Closed 4-point ordinal.
const (
	QuantityNone   = 0
	QuantityLow    = 1
	QuantityMedium = 2
	QuantityHigh   = 3
)

// ValidateQuantity rejects levels outside [QuantityNone, QuantityHigh].
func ValidateQuantity(level int) error {
	if level < QuantityNone || level > QuantityHigh {
		return errors.NewValidation("quantity_level", "must be between 0 and 3")
	}
	return nil
}
