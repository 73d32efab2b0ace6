package store

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/primlogix/leadscout/internal/lead"
)

func testReview(hash string) lead.Review {
	rating := 2.0
	return lead.Review{
		CompanyName:  "Acme Staffing",
		ReviewerName: "Jane Smith",
		Title:        "Too complicated",
		Body:         "Support response time was terrible and the UI is too complex to learn",
		Rating:       &rating,
		PainTags:     []string{"complexity", "support"},
		SourceURL:    "https://www.g2.com/products/example/reviews",
		CapturedAt:   time.Unix(1700000000, 0).UTC(),
		Score:        72,
		Status:       lead.StatusNew,
		IdentityHash: hash,
	}
}

func expectInsert(mock pgxmock.PgxPoolIface, r lead.Review, rowsAffected int64) {
	mock.ExpectExec("INSERT INTO leads").
		WithArgs(
			r.CompanyName,
			r.ReviewerName,
			r.Title,
			r.Body,
			r.Rating,
			"complexity,support",
			r.SourceURL,
			r.CapturedAt,
			r.Score,
			"new",
			r.Notes,
			r.IdentityHash,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", rowsAffected))
}

func TestSaveCountsNewAndDuplicate(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, nil)
	require.NoError(t, err)

	fresh := testReview("hash-a")
	dupe := testReview("hash-b")

	expectInsert(mock, fresh, 1)
	// ON CONFLICT DO NOTHING reports zero rows for an existing hash.
	expectInsert(mock, dupe, 0)

	saved, duplicates, err := store.Save(context.Background(), []lead.Review{fresh, dupe})
	require.NoError(t, err)
	require.Equal(t, 1, saved)
	require.Equal(t, 1, duplicates)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryAppliesFiltersAndSort(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, nil)
	require.NoError(t, err)

	r := testReview("hash-a")
	rows := pgxmock.NewRows([]string{
		"id", "company_name", "reviewer_name", "review_title", "review_text",
		"rating", "pain_tags", "source_url", "captured_at", "lead_score",
		"status", "notes", "contacted_at", "converted_at", "identity_hash",
	}).AddRow(
		int64(1), r.CompanyName, r.ReviewerName, r.Title, r.Body,
		r.Rating, "complexity,support", r.SourceURL, r.CapturedAt, r.Score,
		"new", "", (*time.Time)(nil), (*time.Time)(nil), r.IdentityHash,
	)

	mock.ExpectQuery("SELECT (.+) FROM leads WHERE pain_tags LIKE \\$1 AND status = \\$2 AND lead_score >= \\$3 ORDER BY lead_score DESC LIMIT \\$4").
		WithArgs("%support%", "new", 50.0, 10).
		WillReturnRows(rows)

	got, err := store.Query(context.Background(), Filter{
		Pain:     "support",
		Status:   lead.StatusNew,
		MinScore: 50,
		SortBy:   "score",
		Limit:    10,
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, int64(1), got[0].ID)
	require.Equal(t, []string{"complexity", "support"}, got[0].PainTags)
	require.Equal(t, lead.StatusNew, got[0].Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryUnknownSortFallsBackToScore(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, nil)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT (.+) FROM leads ORDER BY lead_score DESC").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "company_name", "reviewer_name", "review_title", "review_text",
			"rating", "pain_tags", "source_url", "captured_at", "lead_score",
			"status", "notes", "contacted_at", "converted_at", "identity_hash",
		}))

	got, err := store.Query(context.Background(), Filter{SortBy: "bogus"})
	require.NoError(t, err)
	require.Empty(t, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatus(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, nil)
	require.NoError(t, err)

	mock.ExpectExec("UPDATE leads SET").
		WithArgs("contacted", "left voicemail", int64(42)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err = store.UpdateStatus(context.Background(), 42, lead.StatusContacted, "left voicemail")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusNotFound(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, nil)
	require.NoError(t, err)

	mock.ExpectExec("UPDATE leads SET").
		WithArgs("lost", "", int64(99)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err = store.UpdateStatus(context.Background(), 99, lead.StatusLost, "")
	require.ErrorContains(t, err, "not found")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalytics(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, nil)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\),").
		WillReturnRows(pgxmock.NewRows([]string{"count", "avg", "high"}).
			AddRow(int64(12), 58.5, int64(4)))
	mock.ExpectQuery("SELECT status, COUNT\\(\\*\\) FROM leads GROUP BY status").
		WillReturnRows(pgxmock.NewRows([]string{"status", "count"}).
			AddRow("new", int64(10)).
			AddRow("contacted", int64(2)))
	mock.ExpectQuery("SELECT CASE").
		WillReturnRows(pgxmock.NewRows([]string{"source", "count"}).
			AddRow("G2", int64(8)).
			AddRow("Other", int64(4)))
	mock.ExpectQuery("SELECT pain_tags, COUNT\\(\\*\\)").
		WillReturnRows(pgxmock.NewRows([]string{"pain_tags", "n"}).
			AddRow("complexity,support", int64(5)).
			AddRow("bugs", int64(3)))

	got, err := store.Analytics(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(12), got.TotalLeads)
	require.Equal(t, 58.5, got.AverageScore)
	require.Equal(t, int64(4), got.HighPriority)
	require.Equal(t, int64(10), got.ByStatus["new"])
	require.Equal(t, int64(8), got.BySource["G2"])
	require.Equal(t, []TagCount{
		{Tags: "complexity,support", Count: 5},
		{Tags: "bugs", Count: 3},
	}, got.TopPainTags)
	require.NoError(t, mock.ExpectationsWereMet())
}
