package memory

// RelevanceVersion identifies the request-category relevance table below.
// Bump it whenever the table changes so stored selection metadata can be
// traced back to the rules that produced it.
const RelevanceVersion = 1

// RequestGeneral admits every fact category.
const RequestGeneral = "general"

// categoryRelevance maps a request category to the fact categories worth
// injecting for it. A request category absent from the table is treated
// as general.
var categoryRelevance = map[string][]string{
	"coding":        {CategoryPreference, CategoryDecision, CategoryConstraint},
	"debugging":     {CategoryConstraint, CategoryDecision, CategoryFact},
	"planning":      {CategoryDecision, CategoryConstraint, CategoryFact},
	"output_format": {CategoryPreference},
}

// relevantCategories returns the admitted fact categories for a request
// category, or nil when every category is relevant.
func relevantCategories(requestCategory string) map[string]bool {
	if requestCategory == "" || requestCategory == RequestGeneral {
		return nil
	}
	cats, ok := categoryRelevance[requestCategory]
	if !ok {
		return nil
	}
	admitted := make(map[string]bool, len(cats))
	for _, c := range cats {
		admitted[c] = true
	}
	return admitted
}
