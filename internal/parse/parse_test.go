package parse

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const reviewCardHTML = `
<html><body>
<div class="review-card">
  <h3>Too complicated</h3>
  <div class="review-rating">2.0</div>
  <p class="review-text">Support response time was terrible and the UI is too complex to learn</p>
  <span class="author-name">Jane Smith</span>
  <span class="company-name">Acme Staffing</span>
</div>
<div class="review-card">
  <h3>Great product</h3>
  <div class="review-rating">5.0</div>
  <p class="review-text">Everything works wonderfully, the team loves it and onboarding went smoothly.</p>
  <span class="author-name">Sam Green</span>
</div>
</body></html>`

func TestParseExtractsNegativeReviewOnly(t *testing.T) {
	t.Parallel()

	p := New(nil)
	reviews, err := p.Parse(reviewCardHTML, "https://reviews.example.com/product")
	require.NoError(t, err)
	require.Len(t, reviews, 1)

	r := reviews[0]
	require.Equal(t, "Too complicated", r.Title)
	require.Equal(t, "Support response time was terrible and the UI is too complex to learn", r.Body)
	require.Equal(t, "Jane Smith", r.ReviewerName)
	require.Equal(t, "Acme Staffing", r.CompanyName)
	require.NotNil(t, r.Rating)
	require.Equal(t, 2.0, *r.Rating)
	require.Equal(t, []string{"complexity", "support"}, r.PainTags)
	require.Equal(t, "https://reviews.example.com/product", r.SourceURL)
	require.NotEmpty(t, r.IdentityHash)
	// 25 rating + 30 two tags + 7 complexity + 5 company + 5 reviewer.
	require.Equal(t, 72.0, r.Score)
}

func TestParseEmptyPageIsNotAnError(t *testing.T) {
	t.Parallel()

	p := New(nil)
	reviews, err := p.Parse("<html><body><p>Nothing here.</p></body></html>", "https://example.com")
	require.NoError(t, err)
	require.Empty(t, reviews)
}

func TestParseSkipsShortFragments(t *testing.T) {
	t.Parallel()

	html := `<div class="review-card"><p class="review-text">buggy</p></div>`
	p := New(nil)
	reviews, err := p.Parse(html, "https://example.com")
	require.NoError(t, err)
	require.Empty(t, reviews)
}

func TestParseG2DataTestidCards(t *testing.T) {
	t.Parallel()

	html := `
<div data-testid="review-1">
  <div itemprop="ratingValue" content="1.5"></div>
  <p>The api integration keeps breaking and support never responds to our tickets.</p>
  <a href="/users/jdoe">John Doe</a>
</div>`
	p := New(nil)
	reviews, err := p.Parse(html, "https://www.g2.com/products/example/reviews")
	require.NoError(t, err)
	require.Len(t, reviews, 1)

	r := reviews[0]
	require.Equal(t, "John Doe", r.ReviewerName)
	require.Equal(t, "Unknown", r.CompanyName)
	require.NotNil(t, r.Rating)
	require.Equal(t, 1.5, *r.Rating)
	require.Equal(t, []string{"support", "integration"}, r.PainTags)
}

func TestParseByLineReviewer(t *testing.T) {
	t.Parallel()

	html := `
<article class="review">
  <p>The dashboard is confusing and the reports take forever to generate.</p>
  <p>Reviewed by Maria Lopez</p>
</article>`
	p := New(nil)
	reviews, err := p.Parse(html, "https://reviews.example.com")
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	require.Equal(t, "Maria Lopez", reviews[0].ReviewerName)
}

func TestParseUnratedNegativeTextQualifies(t *testing.T) {
	t.Parallel()

	html := `
<div class="review-item">
  <p class="review-body">This tool is overpriced for what it does and the sync constantly fails.</p>
</div>`
	p := New(nil)
	reviews, err := p.Parse(html, "https://reviews.example.com")
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	require.Nil(t, reviews[0].Rating)
	require.Equal(t, []string{"integration", "cost"}, reviews[0].PainTags)
}

func TestParseCapsCardsPerPage(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	b.WriteString("<html><body>")
	for i := 0; i < maxCards+50; i++ {
		fmt.Fprintf(&b,
			`<div class="review-card"><p class="review-text">Review %d: the app is buggy and crashes during every payroll run.</p></div>`, i)
	}
	b.WriteString("</body></html>")

	p := New(nil)
	reviews, err := p.Parse(b.String(), "https://reviews.example.com")
	require.NoError(t, err)
	require.Len(t, reviews, maxCards)
}

func TestParseTruncatesLongFields(t *testing.T) {
	t.Parallel()

	longBody := strings.Repeat("This product is slow and clunky. ", 30)
	html := fmt.Sprintf(
		`<div class="review-card"><h3>%s</h3><p class="review-text">%s</p></div>`,
		strings.Repeat("Very long title ", 20), longBody)

	p := New(nil)
	reviews, err := p.Parse(html, "https://reviews.example.com")
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	require.LessOrEqual(t, len([]rune(reviews[0].Title)), 100)
	require.LessOrEqual(t, len([]rune(reviews[0].Body)), 500)
}

func TestStrategyFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		url  string
		want string
	}{
		{"https://www.getapp.com/hr/avionte/", "getapp"},
		{"https://www.g2.com/products/avionte/reviews", "g2"},
		{"https://www.trustradius.com/products/avionte/reviews", "trustradius"},
		{"https://www.softwareadvice.com/hr/avionte-profile/", "softwareadvice"},
		{"https://reviews.example.com/avionte", "generic"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, strategyFor(tt.url).name, tt.url)
	}
}

func TestExtractTextFallsBackToLongestParagraph(t *testing.T) {
	t.Parallel()

	// No class hints anywhere; rating-looking lines must lose to prose.
	html := `
<article>
  <p>4.5 (123)</p>
  <p>Overall 4.0</p>
  <p>We moved off this platform because the error rate made it unusable for the team.</p>
</article>`
	p := New(nil)
	reviews, err := p.Parse(html, "https://reviews.example.com")
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	require.Equal(t,
		"We moved off this platform because the error rate made it unusable for the team.",
		reviews[0].Body)
}
