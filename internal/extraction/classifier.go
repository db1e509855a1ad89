package extraction

import (
	"strings"
)

// UnknownCategory is returned when no category keyword matches.
const UnknownCategory = "desconhecido"

// documentCategories is ordered: ties keep the first declared category.
// Keywords may be multi-word phrases and are matched case-insensitively.
var documentCategories = []struct {
	name     string
	keywords []string
}{
	{name: "fatura", keywords: []string{"fatura", "tarifa social de energia"}},
}

// Classify does a best-effort keyword-frequency classification of free text
// into a coarse document type. It is independent of the extraction pipeline
// and has no failure modes: empty or unrecognized input yields
// UnknownCategory.
func Classify(text string) string {
	lower := strings.ToLower(text)

	best := UnknownCategory
	maxMatches := 0
	for _, cat := range documentCategories {
		matches := 0
		for _, kw := range cat.keywords {
			matches += strings.Count(lower, strings.ToLower(kw))
		}
		if matches > maxMatches {
			maxMatches = matches
			best = cat.name
		}
	}
	return best
}
