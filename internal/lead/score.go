package lead

import "strings"

// highValueTags earn an extra bonus because they map directly onto the
// product's strongest selling points.
var highValueTags = []string{"complexity", "bugs", "performance"}

// placeholderNames are treated as "no name extracted".
var placeholderNames = map[string]struct{}{
	"":        {},
	"unknown": {},
	"n/a":     {},
}

// Score computes the sales-readiness score for a review, in [0,100].
// The formula is additive and deterministic:
//
//	rating      <=1.0 +30, <=2.0 +25, <=2.5 +20, <=3.0 +15, else +5
//	pain count  >=3 +40, ==2 +30, ==1 +20
//	high-value  +7 per tag in {complexity, bugs, performance}
//	body length >300 +10, >150 +5
//	named company +5, named reviewer +5
//
// The sum is capped at 100.
func Score(r Review) float64 {
	score := 0.0

	if r.Rating != nil {
		switch rating := *r.Rating; {
		case rating <= 1.0:
			score += 30
		case rating <= 2.0:
			score += 25
		case rating <= 2.5:
			score += 20
		case rating <= 3.0:
			score += 15
		default:
			score += 5
		}
	}

	switch painCount := len(r.PainTags); {
	case painCount >= 3:
		score += 40
	case painCount == 2:
		score += 30
	case painCount == 1:
		score += 20
	}

	joined := strings.ToLower(strings.Join(r.PainTags, ","))
	for _, tag := range highValueTags {
		if strings.Contains(joined, tag) {
			score += 7
		}
	}

	// Length thresholds count characters, not bytes, so multibyte text
	// is not over-rewarded.
	switch bodyLen := len([]rune(r.Body)); {
	case bodyLen > 300:
		score += 10
	case bodyLen > 150:
		score += 5
	}

	if isKnownName(r.CompanyName) {
		score += 5
	}
	if isKnownName(r.ReviewerName) {
		score += 5
	}

	if score > 100 {
		return 100
	}
	return score
}

func isKnownName(name string) bool {
	_, placeholder := placeholderNames[strings.ToLower(name)]
	return !placeholder
}
