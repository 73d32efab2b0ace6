// Package crawl sequences fetching and parsing across a set of review
// URLs, handling pagination, pacing, and the site denylist.
package crawl

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/primlogix/leadscout/internal/fetch"
	"github.com/primlogix/leadscout/internal/lead"
	"github.com/primlogix/leadscout/internal/parse"
)

// DefaultMaxPages is how deep pagination goes when the caller does not
// say otherwise.
const DefaultMaxPages = 3

// pageDelay is the minimum spacing between successive page fetches of
// the same crawl.
const pageDelay = 2 * time.Second

// deniedHosts are sites whose terms of service prohibit scraping.
// They are rejected before any request is made.
var deniedHosts = []string{"capterra.com", "capterra.ca"}

// paginatedHosts support simple ?page=N pagination on their review
// listings.
var paginatedHosts = []string{"g2.com", "trustradius.com", "getapp.com"}

// Error records a failure for one URL during a crawl. The crawl itself
// continues; partial results are always returned.
type Error struct {
	URL string
	Err error
}

func (e Error) Error() string {
	return fmt.Sprintf("crawl %s: %v", e.URL, e.Err)
}

// Parser is what the controller needs from the parse layer.
type Parser interface {
	Parse(html, sourceURL string) ([]lead.Review, error)
}

// Controller walks review URLs page by page, feeding fetched HTML to
// the parser and collecting leads.
type Controller struct {
	fetcher fetch.Fetcher
	parser  Parser
	limiter *rate.Limiter
	log     *zap.Logger
}

// New builds a Controller. A nil logger means silent.
func New(fetcher fetch.Fetcher, parser Parser, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{
		fetcher: fetcher,
		parser:  parser,
		limiter: rate.NewLimiter(rate.Every(pageDelay), 1),
		log:     log,
	}
}

var _ Parser = (*parse.Parser)(nil)

// Crawl processes each URL in order and returns every lead found plus
// the per-URL failures. A failing URL never aborts the rest.
func (c *Controller) Crawl(ctx context.Context, urls []string, maxPages int) ([]lead.Review, []Error) {
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}

	var (
		leads []lead.Review
		errs  []Error
	)
	for _, rawURL := range urls {
		if err := ctx.Err(); err != nil {
			errs = append(errs, Error{URL: rawURL, Err: err})
			return leads, errs
		}
		if denied(rawURL) {
			c.log.Warn("url on denylist, skipping", zap.String("url", rawURL))
			errs = append(errs, Error{URL: rawURL, Err: fmt.Errorf("host is on the scraping denylist")})
			continue
		}

		found, err := c.crawlURL(ctx, rawURL, maxPages)
		leads = append(leads, found...)
		if err != nil {
			errs = append(errs, Error{URL: rawURL, Err: err})
		}
	}
	return leads, errs
}

// crawlURL fetches the first page and, on paginating hosts, follows
// ?page=N up to maxPages. A first-page failure is the URL's error; a
// later-page failure just ends pagination early.
func (c *Controller) crawlURL(ctx context.Context, rawURL string, maxPages int) ([]lead.Review, error) {
	page, err := c.fetchPage(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	leads, err := c.parser.Parse(page, rawURL)
	if err != nil {
		return nil, err
	}
	c.log.Info("page crawled",
		zap.String("url", rawURL),
		zap.Int("page", 1),
		zap.Int("leads", len(leads)))

	if !paginates(rawURL) {
		return leads, nil
	}

	base := stripQuery(rawURL)
	for n := 2; n <= maxPages; n++ {
		if err := ctx.Err(); err != nil {
			return leads, err
		}
		pageURL := fmt.Sprintf("%s?page=%d", base, n)

		html, err := c.fetchPage(ctx, pageURL)
		if err != nil {
			c.log.Warn("pagination fetch failed, stopping",
				zap.String("url", pageURL), zap.Error(err))
			break
		}
		found, err := c.parser.Parse(html, pageURL)
		if err != nil {
			c.log.Warn("pagination parse failed, stopping",
				zap.String("url", pageURL), zap.Error(err))
			break
		}
		if len(found) == 0 {
			c.log.Debug("empty page, pagination exhausted", zap.String("url", pageURL))
			break
		}
		c.log.Info("page crawled",
			zap.String("url", rawURL),
			zap.Int("page", n),
			zap.Int("leads", len(found)))
		leads = append(leads, found...)
	}
	return leads, nil
}

func (c *Controller) fetchPage(ctx context.Context, rawURL string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return c.fetcher.Fetch(ctx, rawURL, false)
}

func denied(rawURL string) bool {
	return hostMatches(rawURL, deniedHosts)
}

func paginates(rawURL string) bool {
	return hostMatches(rawURL, paginatedHosts)
}

func hostMatches(rawURL string, hosts []string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	for _, h := range hosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}

func stripQuery(rawURL string) string {
	if i := strings.IndexByte(rawURL, '?'); i >= 0 {
		return rawURL[:i]
	}
	return rawURL
}
