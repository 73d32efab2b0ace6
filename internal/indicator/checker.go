package indicator

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/primlogix/leadscout/internal/lead"
)

// Detection is the outcome of checking one company against the
// indicator set.
type Detection struct {
	Found     bool   `json:"found"`
	Indicator string `json:"indicator,omitempty"`
	Method    string `json:"method,omitempty"`
	Evidence  string `json:"evidence,omitempty"`
}

// Detection methods, strongest signal first.
const (
	MethodSubdomain = "subdomain"
	MethodLink      = "link"
	MethodKeyword   = "keyword"
)

// maxBodyBytes caps how much of a company homepage gets read.
const maxBodyBytes = 2 << 20

type httpDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Checker probes companies for competitor-product usage.
type Checker struct {
	client httpDoer
	log    *zap.Logger
}

// NewChecker builds a Checker with a short-timeout HTTP client.
func NewChecker(log *zap.Logger) *Checker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Checker{
		client: &http.Client{Timeout: 10 * time.Second},
		log:    log,
	}
}

// Check runs the detection layers in order of signal strength:
// vendor subdomains named after the company, then competitor links on
// the company homepage, then keywords in the page text. The first hit
// wins.
func (c *Checker) Check(ctx context.Context, company, website string, indicators []TargetIndicator) (Detection, error) {
	for _, ind := range indicators {
		if det := c.checkSubdomains(ctx, company, ind); det.Found {
			return det, nil
		}
	}

	if website == "" {
		return Detection{}, nil
	}
	html, err := c.fetchHomepage(ctx, website)
	if err != nil {
		return Detection{}, fmt.Errorf("fetch homepage: %w", err)
	}

	for _, ind := range indicators {
		if det := checkLinks(html, ind); det.Found {
			return det, nil
		}
	}
	for _, ind := range indicators {
		if det := checkKeywords(html, ind); det.Found {
			return det, nil
		}
	}
	return Detection{}, nil
}

// CheckLinkedIn is a deliberate no-op: scraping authentication-gated
// profiles is out of bounds.
func (c *Checker) CheckLinkedIn(_ context.Context, company string) Detection {
	c.log.Debug("linkedin check skipped", zap.String("company", company))
	return Detection{}
}

// CheckGlassdoor is a deliberate no-op, same reason as LinkedIn.
func (c *Checker) CheckGlassdoor(_ context.Context, company string) Detection {
	c.log.Debug("glassdoor check skipped", zap.String("company", company))
	return Detection{}
}

// checkSubdomains probes "{variation}.{vendor}" hosts built from the
// company name. Vendors hand each customer a subdomain, so a live host
// is a strong signal.
func (c *Checker) checkSubdomains(ctx context.Context, company string, ind TargetIndicator) Detection {
	if ind.SubdomainPattern == "" {
		return Detection{}
	}
	for _, variation := range nameVariations(company) {
		host := strings.Replace(ind.SubdomainPattern, "*", variation, 1)
		url := "https://" + host
		if !c.hostResponds(ctx, url) {
			continue
		}
		return Detection{
			Found:     true,
			Indicator: ind.Name,
			Method:    MethodSubdomain,
			Evidence:  url,
		}
	}
	return Detection{}
}

func (c *Checker) hostResponds(ctx context.Context, url string) bool {
	for _, method := range []string{http.MethodHead, http.MethodGet} {
		req, err := http.NewRequestWithContext(ctx, method, url, nil)
		if err != nil {
			return false
		}
		resp, err := c.client.Do(req)
		if err != nil {
			continue
		}
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes)) //nolint:errcheck
		resp.Body.Close()
		if resp.StatusCode < http.StatusBadRequest {
			return true
		}
	}
	return false
}

func (c *Checker) fetchHomepage(ctx context.Context, website string) (string, error) {
	if !strings.HasPrefix(website, "http://") && !strings.HasPrefix(website, "https://") {
		website = "https://" + website
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, website, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("homepage returned %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// checkLinks scans anchor hrefs first, then the raw source, for the
// indicator's link patterns.
func checkLinks(html string, ind TargetIndicator) Detection {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err == nil {
		var found Detection
		doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			href, _ := s.Attr("href")
			lower := strings.ToLower(href)
			for _, pattern := range ind.LinkPatterns {
				if strings.Contains(lower, strings.ToLower(pattern)) {
					found = Detection{
						Found:     true,
						Indicator: ind.Name,
						Method:    MethodLink,
						Evidence:  href,
					}
					return false
				}
			}
			return true
		})
		if found.Found {
			return found
		}
	}

	lower := strings.ToLower(html)
	for _, pattern := range ind.LinkPatterns {
		if strings.Contains(lower, strings.ToLower(pattern)) {
			return Detection{
				Found:     true,
				Indicator: ind.Name,
				Method:    MethodLink,
				Evidence:  pattern,
			}
		}
	}
	return Detection{}
}

func checkKeywords(html string, ind TargetIndicator) Detection {
	text := html
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(html)); err == nil {
		text = doc.Text()
	}
	lower := strings.ToLower(text)
	for _, kw := range ind.Keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return Detection{
				Found:     true,
				Indicator: ind.Name,
				Method:    MethodKeyword,
				Evidence:  kw,
			}
		}
	}
	return Detection{}
}

// corporateSuffixes are dropped from company names before building
// subdomain variations.
var corporateSuffixes = map[string]struct{}{
	"inc": {}, "llc": {}, "ltd": {}, "corp": {}, "co": {},
	"company": {}, "group": {},
}

// nameVariations turns "Acme Staffing Inc." into the subdomain-safe
// candidates a vendor might have assigned: "acmestaffing", "acme-staffing",
// "acme".
func nameVariations(company string) []string {
	var words []string
	for _, word := range strings.Fields(strings.ToLower(company)) {
		cleaned := keepAlnum(word)
		if cleaned == "" {
			continue
		}
		if _, skip := corporateSuffixes[cleaned]; skip {
			continue
		}
		words = append(words, cleaned)
	}
	if len(words) == 0 {
		return nil
	}

	var out []string
	seen := map[string]struct{}{}
	add := func(v string) {
		if v == "" {
			return
		}
		if _, dup := seen[v]; dup {
			return
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	add(strings.Join(words, ""))
	add(strings.Join(words, "-"))
	add(words[0])
	return out
}

func keepAlnum(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ToDiscoveryLead converts a detection into a storable lead. Discovery
// leads carry no rating; their pain tags mark the detected product.
func ToDiscoveryLead(company, website string, det Detection) lead.Review {
	r := lead.Review{
		CompanyName:  company,
		ReviewerName: "Discovery",
		Title:        fmt.Sprintf("Uses %s", det.Indicator),
		Body: fmt.Sprintf("%s appears to use %s (detected via %s: %s)",
			company, det.Indicator, det.Method, det.Evidence),
		PainTags:   []string{"discovery", strings.ToLower(det.Indicator)},
		SourceURL:  website,
		CapturedAt: time.Now().UTC(),
	}
	lead.Finalize(&r)
	return r
}
