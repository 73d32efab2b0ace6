package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/primlogix/leadscout/internal/lead"
)

func sampleLeads() []lead.Review {
	rating := 2.0
	return []lead.Review{
		{
			CompanyName:  "Acme Staffing",
			ReviewerName: "Jane Smith",
			Title:        "Too complicated",
			Body:         "Support response time was terrible and the UI is too complex to learn",
			Rating:       &rating,
			PainTags:     []string{"complexity", "support"},
			SourceURL:    "https://www.g2.com/products/example/reviews",
			CapturedAt:   time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC),
			Score:        72,
			Status:       lead.StatusNew,
		},
		{
			CompanyName:  "Unknown",
			ReviewerName: "Unknown",
			Body:         "The pricing is outrageous for a tool this slow.",
			PainTags:     []string{"cost", "performance"},
			SourceURL:    "https://reviews.example.com/product",
			CapturedAt:   time.Date(2026, 8, 21, 9, 30, 0, 0, time.UTC),
			Score:        57,
			Status:       lead.StatusContacted,
		},
	}
}

func TestWriteCSV(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleLeads(), false))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Equal(t, []string{
		"company_name", "reviewer_name", "review_title", "review_text",
		"rating", "pain_tags", "source_url", "scraped_at",
	}, records[0])
	require.Equal(t, []string{
		"Acme Staffing", "Jane Smith", "Too complicated",
		"Support response time was terrible and the UI is too complex to learn",
		"2.0", "complexity,support",
		"https://www.g2.com/products/example/reviews", "2026-08-20T12:00:00Z",
	}, records[1])
	// Unrated lead exports an empty rating cell.
	require.Equal(t, "", records[2][4])
}

func TestWriteCSVWithPipelineColumns(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleLeads(), true))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Equal(t, []string{
		"company_name", "reviewer_name", "review_title", "review_text",
		"rating", "pain_tags", "source_url", "scraped_at", "lead_score", "status",
	}, records[0])
	require.Equal(t, "72", records[1][8])
	require.Equal(t, "new", records[1][9])
	require.Equal(t, "contacted", records[2][9])
}

func TestWriteXLSX(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, sampleLeads(), true))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck // read-only workbook

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, "company_name", rows[0][0])
	require.Equal(t, "Acme Staffing", rows[1][0])
	require.Equal(t, "72", rows[1][8])
}

func TestWriteCSVEmpty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil, false))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1)
}
