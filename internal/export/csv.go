// Package export renders leads as CSV or XLSX for handoff to sales
// tooling.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/primlogix/leadscout/internal/lead"
)

// baseColumns is the fixed export column order.
var baseColumns = []string{
	"company_name",
	"reviewer_name",
	"review_title",
	"review_text",
	"rating",
	"pain_tags",
	"source_url",
	"scraped_at",
}

// pipelineColumns are appended when exporting stored leads, which carry
// scoring and pipeline state.
var pipelineColumns = []string{"lead_score", "status"}

func header(withPipeline bool) []string {
	if !withPipeline {
		return baseColumns
	}
	return append(append([]string{}, baseColumns...), pipelineColumns...)
}

func row(r lead.Review, withPipeline bool) []string {
	rating := ""
	if r.Rating != nil {
		rating = strconv.FormatFloat(*r.Rating, 'f', 1, 64)
	}
	out := []string{
		r.CompanyName,
		r.ReviewerName,
		r.Title,
		r.Body,
		rating,
		strings.Join(r.PainTags, ","),
		r.SourceURL,
		r.CapturedAt.UTC().Format(time.RFC3339),
	}
	if withPipeline {
		out = append(out,
			strconv.FormatFloat(r.Score, 'f', 0, 64),
			string(r.Status),
		)
	}
	return out
}

// WriteCSV streams the leads as CSV. withPipeline adds the score and
// status columns used for database-sourced exports.
func WriteCSV(w io.Writer, reviews []lead.Review, withPipeline bool) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header(withPipeline)); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range reviews {
		if err := cw.Write(row(r, withPipeline)); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
