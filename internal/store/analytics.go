package store

import (
	"context"
	"fmt"
)

// TagCount is one pain-tag combination and how many leads carry it.
type TagCount struct {
	Tags  string `json:"tags"`
	Count int64  `json:"count"`
}

// Analytics is the aggregate view of the lead table.
type Analytics struct {
	TotalLeads   int64            `json:"total_leads"`
	ByStatus     map[string]int64 `json:"by_status"`
	TopPainTags  []TagCount       `json:"top_pain_tags"`
	BySource     map[string]int64 `json:"by_source"`
	AverageScore float64          `json:"average_score"`
	HighPriority int64            `json:"high_priority"`
}

// Leads scoring 70 or above count as high priority in analytics.
const totalsSQL = `
SELECT COUNT(*),
	COALESCE(AVG(lead_score), 0),
	COUNT(*) FILTER (WHERE lead_score >= 70)
FROM leads`

const byStatusSQL = `SELECT status, COUNT(*) FROM leads GROUP BY status`

const topPainSQL = `
SELECT pain_tags, COUNT(*) AS n
FROM leads
WHERE pain_tags <> ''
GROUP BY pain_tags
ORDER BY n DESC
LIMIT 10`

const bySourceSQL = `
SELECT CASE
	WHEN source_url LIKE '%g2.com%' THEN 'G2'
	WHEN source_url LIKE '%getapp%' THEN 'GetApp'
	WHEN source_url LIKE '%trustradius%' THEN 'TrustRadius'
	WHEN source_url LIKE '%softwareadvice%' THEN 'Software Advice'
	ELSE 'Other'
END AS source, COUNT(*)
FROM leads
GROUP BY source`

// Analytics aggregates the lead table for reporting.
func (s *LeadStore) Analytics(ctx context.Context) (Analytics, error) {
	out := Analytics{
		ByStatus: map[string]int64{},
		BySource: map[string]int64{},
	}

	err := s.pool.QueryRow(ctx, totalsSQL).
		Scan(&out.TotalLeads, &out.AverageScore, &out.HighPriority)
	if err != nil {
		return Analytics{}, fmt.Errorf("lead totals: %w", err)
	}

	if err := s.groupCounts(ctx, byStatusSQL, out.ByStatus); err != nil {
		return Analytics{}, fmt.Errorf("leads by status: %w", err)
	}
	if err := s.groupCounts(ctx, bySourceSQL, out.BySource); err != nil {
		return Analytics{}, fmt.Errorf("leads by source: %w", err)
	}

	rows, err := s.pool.Query(ctx, topPainSQL)
	if err != nil {
		return Analytics{}, fmt.Errorf("top pain tags: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var tc TagCount
		if err := rows.Scan(&tc.Tags, &tc.Count); err != nil {
			return Analytics{}, fmt.Errorf("scan pain tags: %w", err)
		}
		out.TopPainTags = append(out.TopPainTags, tc)
	}
	if err := rows.Err(); err != nil {
		return Analytics{}, fmt.Errorf("iterate pain tags: %w", err)
	}
	return out, nil
}

func (s *LeadStore) groupCounts(ctx context.Context, query string, into map[string]int64) error {
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			key   string
			count int64
		)
		if err := rows.Scan(&key, &count); err != nil {
			return err
		}
		into[key] = count
	}
	return rows.Err()
}
