package parse

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/primlogix/leadscout/internal/lead"
)

// textClassHints mark elements likely to hold the review body.
var textClassHints = []string{"text", "content", "body", "description", "review"}

// ratingLineRe and ratedLabelRe identify paragraphs that are rating
// chrome rather than prose ("4.5 (123)", "Overall 4.0").
var (
	ratingLineRe = regexp.MustCompile(`^\d+\.?\d*\s*\(?\d*\)?`)
	ratedLabelRe = regexp.MustCompile(`^[A-Z][a-z]+\s+\d+\.?\d*`)
)

// functionWords separate real sentences from navigation debris.
var functionWords = []string{
	"the", "and", "is", "was", "are", "have", "has",
	"this", "that", "with", "for", "from",
}

var numberRe = regexp.MustCompile(`(\d+\.?\d*)`)

// byLineRes recover a reviewer name from free text when no structured
// markup names one.
var byLineRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i:reviewed|written|posted)\s+(?i:by)\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)?)`),
	regexp.MustCompile(`(?i:by)\s*:?\s*([A-Z][a-z]+(?:\s+[A-Z][a-z]+)?)`),
	regexp.MustCompile(`([A-Z][a-z]+\s+[A-Z][a-z]+)\s+reviewed`),
}

// firstOf runs extractors in order and returns the first non-empty hit.
func firstOf(card *goquery.Selection, extractors ...func(*goquery.Selection) string) string {
	for _, extract := range extractors {
		if got := extract(card); got != "" {
			return got
		}
	}
	return ""
}

// extractText finds the review body. Three layers: elements whose class
// advertises review text, then the longest prose paragraph, then any
// child that reads like a sentence.
func extractText(card *goquery.Selection) string {
	return firstOf(card, hintedText, longestParagraph, sentenceLikeChild)
}

func hintedText(card *goquery.Selection) string {
	var best string
	card.Find("p, div, span").Each(func(_ int, s *goquery.Selection) {
		if !classContainsAny(s, textClassHints) {
			return
		}
		text := collapse(s.Text())
		if len(text) > len(best) {
			best = text
		}
	})
	if len(best) < minBodyLen {
		return ""
	}
	return best
}

func longestParagraph(card *goquery.Selection) string {
	var best string
	card.Find("p").Each(func(_ int, s *goquery.Selection) {
		text := collapse(s.Text())
		if ratingLineRe.MatchString(text) || ratedLabelRe.MatchString(text) {
			return
		}
		if len(text) > len(best) {
			best = text
		}
	})
	if len(best) < minBodyLen {
		return ""
	}
	return best
}

func sentenceLikeChild(card *goquery.Selection) string {
	var found string
	card.Children().EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := collapse(s.Text())
		if len(text) <= 50 || len(text) >= 2000 {
			return true
		}
		if !hasFunctionWord(text) {
			return true
		}
		found = text
		return false
	})
	return found
}

// extractTitle prefers heading elements, then anything titled by class,
// then falls back to the opening of the body text.
func extractTitle(card *goquery.Selection, body string) string {
	title := firstOf(card,
		func(c *goquery.Selection) string {
			return collapse(c.Find("h3, h4, h5").First().Text())
		},
		func(c *goquery.Selection) string {
			var got string
			c.Find("div, span").EachWithBreak(func(_ int, s *goquery.Selection) bool {
				if !classContainsAll(s, "title") {
					return true
				}
				got = collapse(s.Text())
				return got == ""
			})
			return got
		},
	)
	if title != "" {
		return lead.TruncateRunes(title, lead.MaxTitleLen)
	}
	return lead.TruncateRunes(body, 50)
}

// extractRating pulls the first plausible star rating off the card.
// Values outside (0, 5] are treated as not-a-rating.
func extractRating(card *goquery.Selection) *float64 {
	var rating *float64
	card.Find("[class*='rating'], [class*='star'], [itemprop='ratingValue'], [data-rating]").
		EachWithBreak(func(_ int, s *goquery.Selection) bool {
			for _, raw := range ratingCandidates(s) {
				match := numberRe.FindString(raw)
				if match == "" {
					continue
				}
				value, err := strconv.ParseFloat(match, 64)
				if err != nil || value <= 0 || value > 5 {
					continue
				}
				rating = &value
				return false
			}
			return true
		})
	return rating
}

func ratingCandidates(s *goquery.Selection) []string {
	var out []string
	if v, ok := s.Attr("content"); ok {
		out = append(out, v)
	}
	if v, ok := s.Attr("data-rating"); ok {
		out = append(out, v)
	}
	out = append(out, collapse(s.Text()))
	return out
}

// extractReviewer layers microdata, data attributes, class heuristics,
// profile links, and finally by-line regexes over the card text.
func extractReviewer(card *goquery.Selection) string {
	name := firstOf(card, microdataAuthor, dataAttrAuthor, classHeuristicAuthor, profileLinkAuthor, byLineAuthor)
	if name == "" {
		return "Unknown"
	}
	return name
}

func microdataAuthor(card *goquery.Selection) string {
	return validName(card.Find("[itemprop='author']").First().Text())
}

func dataAttrAuthor(card *goquery.Selection) string {
	var got string
	card.Find("[data-reviewer], [data-author], [data-user]").
		EachWithBreak(func(_ int, s *goquery.Selection) bool {
			for _, attr := range []string{"data-reviewer", "data-author", "data-user"} {
				if v, ok := s.Attr(attr); ok {
					if name := validName(v); name != "" {
						got = name
						return false
					}
				}
			}
			if name := validName(s.Text()); name != "" {
				got = name
				return false
			}
			return true
		})
	return got
}

// authorClassHints are tried in order; each entry is a set of substrings
// that must all appear in the element's class attribute.
var authorClassHints = [][]string{
	{"author"},
	{"reviewer", "name"},
	{"user", "name"},
	{"profile", "name"},
	{"writer"},
	{"posted", "by"},
}

func classHeuristicAuthor(card *goquery.Selection) string {
	for _, hints := range authorClassHints {
		var got string
		card.Find("*").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if !classContainsAll(s, hints...) {
				return true
			}
			if name := validName(s.Text()); name != "" {
				got = name
				return false
			}
			return true
		})
		if got != "" {
			return got
		}
	}
	return ""
}

// profileLinkJunk disqualifies link text that is navigation, not a name.
var profileLinkJunk = []string{"view", "more", "read", "see", "profile", "review", "author"}

func profileLinkAuthor(card *goquery.Selection) string {
	var got string
	card.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		href = strings.ToLower(href)
		if !strings.Contains(href, "user") && !strings.Contains(href, "profile") &&
			!strings.Contains(href, "reviewer") && !strings.Contains(href, "author") {
			return true
		}
		name := validName(s.Text())
		if name == "" {
			return true
		}
		lower := strings.ToLower(name)
		for _, junk := range profileLinkJunk {
			if strings.Contains(lower, junk) {
				return true
			}
		}
		got = name
		return false
	})
	return got
}

func byLineAuthor(card *goquery.Selection) string {
	text := collapse(card.Text())
	for _, re := range byLineRes {
		if m := re.FindStringSubmatch(text); m != nil {
			if name := validName(m[1]); name != "" {
				return name
			}
		}
	}
	return ""
}

// companyClassHints mirror the author heuristics for the reviewer's
// employer.
var companyClassHints = [][]string{
	{"company", "name"},
	{"organization"},
	{"business", "name"},
	{"firm"},
	{"company"},
}

func extractCompany(card *goquery.Selection) string {
	for _, hints := range companyClassHints {
		var got string
		card.Find("*").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if !classContainsAll(s, hints...) {
				return true
			}
			if name := validName(s.Text()); name != "" {
				got = name
				return false
			}
			return true
		})
		if got != "" {
			return got
		}
	}
	return "Unknown"
}

func validName(raw string) string {
	name := collapse(raw)
	if len(name) < 2 || len(name) > 50 {
		return ""
	}
	return name
}

func classContainsAny(s *goquery.Selection, substrs []string) bool {
	class, _ := s.Attr("class")
	class = strings.ToLower(class)
	for _, sub := range substrs {
		if strings.Contains(class, sub) {
			return true
		}
	}
	return false
}

func classContainsAll(s *goquery.Selection, substrs ...string) bool {
	class, ok := s.Attr("class")
	if !ok {
		return false
	}
	class = strings.ToLower(class)
	for _, sub := range substrs {
		if !strings.Contains(class, sub) {
			return false
		}
	}
	return true
}

func hasFunctionWord(text string) bool {
	lower := " " + strings.ToLower(text) + " "
	for _, w := range functionWords {
		if strings.Contains(lower, " "+w+" ") {
			return true
		}
	}
	return false
}

// collapse trims and squeezes all runs of whitespace to single spaces.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
