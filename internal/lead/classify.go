package lead

import "strings"

// PainIndicator maps a tag name to the substrings that trigger it.
type PainIndicator struct {
	Tag      string
	Keywords []string
}

// painIndicators is the built-in complaint vocabulary. Order matters:
// tags are emitted in table order.
var painIndicators = []PainIndicator{
	{Tag: "complexity", Keywords: []string{"complex", "complicated", "confusing", "hard to use", "difficult"}},
	{Tag: "bugs", Keywords: []string{"buggy", "crash", "error", "issue", "downtime", "glitch"}},
	{Tag: "support", Keywords: []string{"support", "service", "helpdesk", "customer service", "response time"}},
	{Tag: "integration", Keywords: []string{"integration", "integrate", "api", "sync", "doesn't connect"}},
	{Tag: "cost", Keywords: []string{"expensive", "too costly", "price", "pricing", "overpriced"}},
	{Tag: "performance", Keywords: []string{"slow", "laggy", "performance", "takes forever"}},
}

// minBadRating is the inclusive threshold below which a rated review is
// treated as negative regardless of its text.
const minBadRating = 3.0

// Indicators returns the built-in pain indicator table in match order.
func Indicators() []PainIndicator {
	out := make([]PainIndicator, len(painIndicators))
	copy(out, painIndicators)
	return out
}

// ClassifyPains returns the pain tags whose keywords occur in text,
// case-insensitively, preserving table order. Each tag appears at most
// once.
func ClassifyPains(text string) []string {
	lower := strings.ToLower(text)
	var tags []string
	for _, ind := range painIndicators {
		for _, kw := range ind.Keywords {
			if strings.Contains(lower, kw) {
				tags = append(tags, ind.Tag)
				break
			}
		}
	}
	return tags
}

// IsNegative reports whether a review qualifies as a lead: a rating at
// or below the bad-rating threshold, or at least one pain tag in the
// text. This is the sole admission gate into the pipeline.
func IsNegative(text string, rating *float64) bool {
	if rating != nil && *rating <= minBadRating {
		return true
	}
	return len(ClassifyPains(text)) > 0
}
