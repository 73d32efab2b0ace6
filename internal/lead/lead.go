// Package lead defines the review-lead domain model together with the
// pain-tag classifier, the lead scorer, and the dedup identity hash.
package lead

import "time"

// Status is the sales-pipeline state of a lead.
type Status string

// Status values persisted in the leads table. Transitions are free-form.
const (
	StatusNew       Status = "new"
	StatusContacted Status = "contacted"
	StatusConverted Status = "converted"
	StatusLost      Status = "lost"
)

// Review is one scraped negative review, ready for persistence.
type Review struct {
	ID           int64      `json:"id,omitempty"`
	CompanyName  string     `json:"company_name"`
	ReviewerName string     `json:"reviewer_name"`
	Title        string     `json:"review_title"`
	Body         string     `json:"review_text"`
	Rating       *float64   `json:"rating,omitempty"`
	PainTags     []string   `json:"pain_tags"`
	SourceURL    string     `json:"source_url"`
	CapturedAt   time.Time  `json:"captured_at"`
	Score        float64    `json:"lead_score"`
	Status       Status     `json:"status"`
	Notes        string     `json:"notes,omitempty"`
	ContactedAt  *time.Time `json:"contacted_at,omitempty"`
	ConvertedAt  *time.Time `json:"converted_at,omitempty"`
	IdentityHash string     `json:"identity_hash,omitempty"`
}

// MaxTitleLen and MaxBodyLen bound what parsers may emit.
const (
	MaxTitleLen = 100
	MaxBodyLen  = 500
)

// TruncateRunes shortens s to at most n runes.
func TruncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
