// Package score grades extraction output against known-good targets.
// It is used by the offline evaluation harness only and performs no I/O.
package score

import (
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// TitleMatchThreshold is the minimum similarity for two titles to match.
const TitleMatchThreshold = 0.70

// PRF is a precision/recall/F1 triple.
type PRF struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
}

// prf applies the empty-set policy, then the usual ratios.
//
//	both empty           -> (1, 1, 1)
//	output empty only    -> (1, 0, 0)  no false positives, zero recall
//	expected empty only  -> (0, 1, 0)  no false negatives, zero precision
func prf(correct, outputLen, expectedLen int) PRF {
	switch {
	case outputLen == 0 && expectedLen == 0:
		return PRF{Precision: 1, Recall: 1, F1: 1}
	case outputLen == 0:
		return PRF{Precision: 1, Recall: 0, F1: 0}
	case expectedLen == 0:
		return PRF{Precision: 0, Recall: 1, F1: 0}
	}

	p := float64(correct) / float64(outputLen)
	r := float64(correct) / float64(expectedLen)
	return PRF{Precision: p, Recall: r, F1: f1(p, r)}
}

func f1(p, r float64) float64 {
	if p+r == 0 {
		return 0
	}
	return 2 * p * r / (p + r)
}

// SetScore scores output against expected as sets. Names are compared
// trimmed and lowercased; duplicates count once.
func SetScore(output, expected []string) PRF {
	out := toSet(output)
	exp := toSet(expected)

	correct := 0
	for name := range out {
		if exp[name] {
			correct++
		}
	}
	return prf(correct, len(out), len(exp))
}

func toSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		if k := strings.ToLower(strings.TrimSpace(n)); k != "" {
			set[k] = true
		}
	}
	return set
}

// Ratio is the normalized edit-distance similarity of a and b,
// 1 - distance/max(len(a), len(b)), with lengths and distance counted in
// characters. Titles are compared as given: no trimming or case folding.
// Identical strings score 1; otherwise an empty side scores 0.
func Ratio(a, b string) float64 {
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}

	maxLen := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(maxLen)
}

// TitleMatch pairs an output title with the expected title it matched.
type TitleMatch struct {
	Output   string  `json:"output"`
	Expected string  `json:"expected"`
	Ratio    float64 `json:"ratio"`
}

// TitleScore is the result of FuzzyTitles.
type TitleScore struct {
	PRF
	AvgSimilarity float64      `json:"avgSimilarity"`
	Matches       []TitleMatch `json:"matches"`
}

// FuzzyTitles matches output titles to expected titles greedily: each output
// title, in order, takes the best-scoring expected title not yet used, and
// keeps it if the ratio reaches TitleMatchThreshold. Ties go to the earlier
// expected title. The result is order-dependent by construction.
func FuzzyTitles(output, expected []string) TitleScore {
	used := make([]bool, len(expected))
	score := TitleScore{Matches: []TitleMatch{}}

	var sum float64
	for _, out := range output {
		best, bestRatio := -1, 0.0
		for j, exp := range expected {
			if used[j] {
				continue
			}
			if r := Ratio(out, exp); best < 0 || r > bestRatio {
				best, bestRatio = j, r
			}
		}
		if best < 0 || bestRatio < TitleMatchThreshold {
			continue
		}
		used[best] = true
		sum += bestRatio
		score.Matches = append(score.Matches, TitleMatch{Output: out, Expected: expected[best], Ratio: bestRatio})
	}

	matched := len(score.Matches)
	score.PRF = prf(matched, len(output), len(expected))
	if matched > 0 {
		score.AvgSimilarity = sum / float64(matched)
	}
	return score
}
