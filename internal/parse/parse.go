// Package parse extracts review leads from fetched HTML. Each supported
// review site has a strategy holding its card-selector cascade; the
// field-level extraction logic is shared and itself layered, so a
// strategy degrades gracefully when a site reshuffles its markup.
package parse

import (
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/primlogix/leadscout/internal/lead"
	"github.com/primlogix/leadscout/internal/metrics"
)

// maxCards bounds how many candidate review cards a single page may
// contribute. Overly broad generic selectors can match hundreds of
// unrelated nodes on a bad day.
const maxCards = 200

// minBodyLen rejects fragments too short to be a review.
const minBodyLen = 20

// strategy is a per-site card selector cascade. Selectors are tried in
// order; the first one with matches wins the whole page.
type strategy struct {
	name          string
	cardSelectors []string
}

var strategies = []struct {
	hostPart string
	strategy strategy
}{
	{"getapp", strategy{
		name: "getapp",
		cardSelectors: []string{
			"div[data-testid*='review']",
			".review-item",
			".review-card",
			"[class*='ReviewCard']",
			"[class*='review-card']",
			"div[class*='review']",
		},
	}},
	{"g2.com", strategy{
		name: "g2",
		cardSelectors: []string{
			"div[data-testid*='review']",
			".review-card",
			"[class*='ReviewCard']",
			"article[class*='review']",
		},
	}},
	{"trustradius", strategy{
		name: "trustradius",
		cardSelectors: []string{
			".review-card",
			".review-item",
			"article[class*='review']",
			"div[class*='ReviewCard']",
			"[data-review-id]",
		},
	}},
	{"softwareadvice", strategy{
		name: "softwareadvice",
		cardSelectors: []string{
			".review-card",
			".review-item",
			"article.review",
			"div[class*='review']",
			"[data-review]",
		},
	}},
}

var genericStrategy = strategy{
	name: "generic",
	cardSelectors: []string{
		".review-card, .review-item, article.review, [data-review]",
		"[class*='review']",
		"[id*='review']",
		"article",
		".review",
	},
}

func strategyFor(sourceURL string) strategy {
	lower := strings.ToLower(sourceURL)
	for _, entry := range strategies {
		if strings.Contains(lower, entry.hostPart) {
			return entry.strategy
		}
	}
	return genericStrategy
}

// Parser turns page HTML into scored negative-review leads.
type Parser struct {
	log *zap.Logger
}

// New builds a Parser. A nil logger means silent.
func New(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log}
}

// Parse extracts the negative reviews from a page. An empty slice with
// a nil error is a valid outcome: the page parsed fine and simply held
// no qualifying reviews.
func (p *Parser) Parse(html, sourceURL string) ([]lead.Review, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	st := strategyFor(sourceURL)
	cards := findCards(doc, st.cardSelectors)
	if len(cards) == 0 {
		p.log.Debug("no review cards matched",
			zap.String("site", st.name),
			zap.String("url", sourceURL))
		return nil, nil
	}
	if len(cards) > maxCards {
		cards = cards[:maxCards]
	}

	now := time.Now().UTC()
	var reviews []lead.Review
	for _, card := range cards {
		r, ok := extractReview(card, sourceURL, now)
		if !ok {
			continue
		}
		reviews = append(reviews, r)
	}

	metrics.ReviewsParsedTotal.Add(float64(len(reviews)))
	p.log.Debug("page parsed",
		zap.String("site", st.name),
		zap.String("url", sourceURL),
		zap.Int("cards", len(cards)),
		zap.Int("leads", len(reviews)))
	return reviews, nil
}

// findCards walks the selector cascade and returns the matches of the
// first selector that hits anything.
func findCards(doc *goquery.Document, selectors []string) []*goquery.Selection {
	for _, selector := range selectors {
		matched := doc.Find(selector)
		if matched.Length() == 0 {
			continue
		}
		cards := make([]*goquery.Selection, 0, matched.Length())
		matched.Each(func(_ int, s *goquery.Selection) {
			cards = append(cards, s)
		})
		return cards
	}
	return nil
}

// extractReview pulls one lead out of a card. It reports false when the
// card has no usable text or the review is not negative.
func extractReview(card *goquery.Selection, sourceURL string, capturedAt time.Time) (lead.Review, bool) {
	body := extractText(card)
	if len(body) < minBodyLen {
		return lead.Review{}, false
	}

	rating := extractRating(card)
	tags := lead.ClassifyPains(body)
	if !lead.IsNegative(body, rating) {
		return lead.Review{}, false
	}

	r := lead.Review{
		CompanyName:  extractCompany(card),
		ReviewerName: extractReviewer(card),
		Title:        extractTitle(card, body),
		Body:         lead.TruncateRunes(body, lead.MaxBodyLen),
		Rating:       rating,
		PainTags:     tags,
		SourceURL:    sourceURL,
		CapturedAt:   capturedAt,
	}
	lead.Finalize(&r)
	return r, true
}
