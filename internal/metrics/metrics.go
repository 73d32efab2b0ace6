// Package metrics exposes the Prometheus instruments shared by the
// fetch, parse, and persistence layers.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FetchesTotal tracks page fetches by transport mode (http or browser).
	FetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leadscout_fetches_total",
		Help: "The total number of page fetches, labeled by transport mode.",
	}, []string{"mode"})
	// FetchErrorsTotal tracks fetches that ended in an error, by error kind.
	FetchErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leadscout_fetch_errors_total",
		Help: "The total number of failed fetches, labeled by error kind.",
	}, []string{"kind"})
	// EscalationsTotal tracks HTTP fetches that fell back to the browser.
	EscalationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "leadscout_fetch_escalations_total",
		Help: "The total number of fetches escalated from plain HTTP to a scripted browser.",
	})
	// ForbiddenTotal tracks forbidden responses (HTTP 403) from review sites.
	ForbiddenTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "leadscout_forbidden_hits_total",
		Help: "The total number of forbidden responses received.",
	})
	// ReviewsParsedTotal tracks negative reviews extracted from fetched pages.
	ReviewsParsedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "leadscout_reviews_parsed_total",
		Help: "The total number of negative reviews extracted.",
	})
	// LeadsSavedTotal tracks leads newly persisted to storage.
	LeadsSavedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "leadscout_leads_saved_total",
		Help: "The total number of leads saved to storage.",
	})
	// DuplicatesTotal tracks leads skipped because their identity hash already existed.
	DuplicatesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "leadscout_duplicate_leads_total",
		Help: "The total number of leads skipped as duplicates.",
	})
)
