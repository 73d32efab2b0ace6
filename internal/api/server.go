// Package api exposes the HTTP interface for the lead scout service.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/primlogix/leadscout/internal/export"
	"github.com/primlogix/leadscout/internal/lead"
	"github.com/primlogix/leadscout/internal/store"
	"github.com/primlogix/leadscout/internal/worker"
)

// LeadReader is the store surface the API needs.
type LeadReader interface {
	Query(ctx context.Context, f store.Filter) ([]lead.Review, error)
	UpdateStatus(ctx context.Context, id int64, status lead.Status, notes string) error
	Analytics(ctx context.Context) (store.Analytics, error)
}

// JobRunner is the worker-pool surface the API needs.
type JobRunner interface {
	Enqueue(urls []string, maxPages int, save bool) (worker.Job, error)
}

// Server wires HTTP handlers to the worker pool and lead store.
type Server struct {
	router chi.Router
	pool   JobRunner
	jobs   *worker.JobStore
	leads  LeadReader
	log    *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(pool JobRunner, jobs *worker.JobStore, leads LeadReader, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		pool:  pool,
		jobs:  jobs,
		leads: leads,
		log:   log,
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(log))
	r.Use(recoverMiddleware(log))
	r.Use(timeoutMiddleware(60 * time.Second))

	r.Get("/healthz", s.healthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/crawl", s.submitCrawl)
		r.Get("/jobs/{job_id}", s.getJob)
		r.Get("/leads", s.listLeads)
		r.Post("/leads/{lead_id}/status", s.updateLeadStatus)
		r.Get("/analytics", s.getAnalytics)
		r.Get("/export", s.exportLeads)
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(s.log, w, http.StatusOK, map[string]string{"status": "ok"})
}

type crawlRequest struct {
	URLs     []string `json:"urls"`
	MaxPages int      `json:"max_pages"`
	Save     *bool    `json:"save"`
}

func (s *Server) submitCrawl(w http.ResponseWriter, r *http.Request) {
	var req crawlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(s.log, w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if len(req.URLs) == 0 {
		writeError(s.log, w, http.StatusBadRequest, "urls required")
		return
	}
	save := true
	if req.Save != nil {
		save = *req.Save
	}
	job, err := s.pool.Enqueue(req.URLs, req.MaxPages, save)
	if err != nil {
		writeError(s.log, w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(s.log, w, http.StatusAccepted, map[string]string{
		"job_id": job.ID,
		"status": string(job.Status),
	})
}

func (s *Server) getJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.jobs.Get(chi.URLParam(r, "job_id"))
	if err != nil {
		writeError(s.log, w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(s.log, w, http.StatusOK, job)
}

func (s *Server) listLeads(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		writeError(s.log, w, http.StatusBadRequest, err.Error())
		return
	}
	leads, err := s.leads.Query(r.Context(), filter)
	if err != nil {
		writeError(s.log, w, http.StatusInternalServerError, "query leads failed")
		return
	}
	if leads == nil {
		leads = []lead.Review{}
	}
	writeJSON(s.log, w, http.StatusOK, map[string]any{
		"leads": leads,
		"count": len(leads),
	})
}

type statusRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

// validStatuses are the pipeline states accepted over the API.
var validStatuses = map[lead.Status]struct{}{
	lead.StatusNew:       {},
	lead.StatusContacted: {},
	lead.StatusConverted: {},
	lead.StatusLost:      {},
}

func (s *Server) updateLeadStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "lead_id"), 10, 64)
	if err != nil {
		writeError(s.log, w, http.StatusBadRequest, "invalid lead id")
		return
	}
	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(s.log, w, http.StatusBadRequest, "invalid JSON")
		return
	}
	status := lead.Status(req.Status)
	if _, ok := validStatuses[status]; !ok {
		writeError(s.log, w, http.StatusBadRequest, fmt.Sprintf("invalid status %q", req.Status))
		return
	}
	if err := s.leads.UpdateStatus(r.Context(), id, status, req.Notes); err != nil {
		writeError(s.log, w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(s.log, w, http.StatusOK, map[string]any{
		"id":     id,
		"status": string(status),
	})
}

func (s *Server) getAnalytics(w http.ResponseWriter, r *http.Request) {
	analytics, err := s.leads.Analytics(r.Context())
	if err != nil {
		writeError(s.log, w, http.StatusInternalServerError, "analytics failed")
		return
	}
	writeJSON(s.log, w, http.StatusOK, analytics)
}

func (s *Server) exportLeads(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		writeError(s.log, w, http.StatusBadRequest, err.Error())
		return
	}
	leads, err := s.leads.Query(r.Context(), filter)
	if err != nil {
		writeError(s.log, w, http.StatusInternalServerError, "query leads failed")
		return
	}

	format := r.URL.Query().Get("format")
	switch format {
	case "", "csv":
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="leads.csv"`)
		if err := export.WriteCSV(w, leads, true); err != nil {
			s.log.Error("csv export failed", zap.Error(err))
		}
	case "xlsx":
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="leads.xlsx"`)
		if err := export.WriteXLSX(w, leads, true); err != nil {
			s.log.Error("xlsx export failed", zap.Error(err))
		}
	default:
		writeError(s.log, w, http.StatusBadRequest, fmt.Sprintf("unsupported format %q", format))
	}
}

func filterFromQuery(r *http.Request) (store.Filter, error) {
	q := r.URL.Query()
	filter := store.Filter{
		Pain:   q.Get("pain"),
		Status: lead.Status(q.Get("status")),
		SortBy: q.Get("sort"),
	}
	if raw := q.Get("min_score"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return store.Filter{}, fmt.Errorf("invalid min_score %q", raw)
		}
		filter.MinScore = v
	}
	if raw := q.Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			return store.Filter{}, fmt.Errorf("invalid limit %q", raw)
		}
		filter.Limit = v
	}
	return filter, nil
}
