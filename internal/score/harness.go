package score

// Sample is one side of an evaluation case: what the system produced or
// what it should have produced.
type Sample struct {
	Ingredients []string `json:"ingredients"`
	Titles      []string `json:"titles"`
}

// Case is one gold evaluation case.
type Case struct {
	Name     string `json:"name"`
	Output   Sample `json:"output"`
	Expected Sample `json:"expected"`
}

// CaseResult holds the scores of one case.
type CaseResult struct {
	Name        string     `json:"name"`
	Ingredients PRF        `json:"ingredients"`
	Titles      TitleScore `json:"titles"`
}

// Summary averages case scores.
type Summary struct {
	IngredientF1  float64 `json:"ingredientF1"`
	TitleF1       float64 `json:"titleF1"`
	AvgSimilarity float64 `json:"avgSimilarity"`
}

// Report is the outcome of RunCases.
type Report struct {
	Cases []CaseResult `json:"cases"`
	Mean  Summary      `json:"mean"`
}

// RunCases scores every case and averages the results. An empty case list
// yields an empty report with zero means.
func RunCases(cases []Case) Report {
	report := Report{Cases: make([]CaseResult, 0, len(cases))}
	if len(cases) == 0 {
		return report
	}

	var sum Summary
	for _, c := range cases {
		res := CaseResult{
			Name:        c.Name,
			Ingredients: SetScore(c.Output.Ingredients, c.Expected.Ingredients),
			Titles:      FuzzyTitles(c.Output.Titles, c.Expected.Titles),
		}
		report.Cases = append(report.Cases, res)

		sum.IngredientF1 += res.Ingredients.F1
		sum.TitleF1 += res.Titles.F1
		sum.AvgSimilarity += res.Titles.AvgSimilarity
	}

	n := float64(len(cases))
	report.Mean = Summary{
		IngredientF1:  sum.IngredientF1 / n,
		TitleF1:       sum.TitleF1 / n,
		AvgSimilarity: sum.AvgSimilarity / n,
	}
	return report
}

// Passed reports whether every mean F1 reaches threshold.
func (r Report) Passed(threshold float64) bool {
	return r.Mean.IngredientF1 >= threshold && r.Mean.TitleF1 >= threshold
}
