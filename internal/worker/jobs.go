// Package worker runs crawl jobs on a fixed pool of workers, each
// owning its own fetch session.
package worker

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// JobStatus is the lifecycle state of a crawl job.
type JobStatus string

// Job lifecycle states.
const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusSucceeded JobStatus = "succeeded"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCanceled  JobStatus = "canceled"
)

// Job tracks one crawl request through the pool.
type Job struct {
	ID         string     `json:"id"`
	URLs       []string   `json:"urls"`
	MaxPages   int        `json:"max_pages"`
	Save       bool       `json:"save"`
	Status     JobStatus  `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	LeadsFound int        `json:"leads_found"`
	LeadsSaved int        `json:"leads_saved"`
	Duplicates int        `json:"duplicates"`
	Errors     []string   `json:"errors,omitempty"`
}

// JobStore is an in-memory registry of jobs, enough for one process.
// Jobs are not persisted across restarts.
type JobStore struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewJobStore builds an empty JobStore.
func NewJobStore() *JobStore {
	return &JobStore{jobs: map[string]*Job{}}
}

// Create registers a new queued job and returns it.
func (s *JobStore) Create(urls []string, maxPages int, save bool) Job {
	job := Job{
		ID:        uuid.NewString(),
		URLs:      append([]string(nil), urls...),
		MaxPages:  maxPages,
		Save:      save,
		Status:    JobStatusQueued,
		CreatedAt: time.Now().UTC(),
	}
	s.mu.Lock()
	s.jobs[job.ID] = &job
	s.mu.Unlock()
	return job
}

// Get returns a snapshot of the job.
func (s *JobStore) Get(id string) (Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return Job{}, fmt.Errorf("job %s not found", id)
	}
	return cloneJob(job), nil
}

// update applies fn to the stored job under the lock.
func (s *JobStore) update(id string, fn func(*Job)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[id]; ok {
		fn(job)
	}
}

func cloneJob(job *Job) Job {
	out := *job
	out.URLs = append([]string(nil), job.URLs...)
	out.Errors = append([]string(nil), job.Errors...)
	return out
}
