package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/primlogix/leadscout/internal/crawl"
	"github.com/primlogix/leadscout/internal/lead"
)

// Crawler is what the pool needs from the crawl layer.
type Crawler interface {
	Crawl(ctx context.Context, urls []string, maxPages int) ([]lead.Review, []crawl.Error)
}

// Saver persists crawl results. A nil Saver means crawl-only jobs.
type Saver interface {
	Save(ctx context.Context, reviews []lead.Review) (saved, duplicates int, err error)
}

// CrawlerFactory builds one Crawler per worker plus its cleanup func.
// Each worker owns its crawler, and with it its browser session, for
// the pool's whole lifetime.
type CrawlerFactory func() (Crawler, func())

// Pool executes queued crawl jobs concurrently.
type Pool struct {
	factory CrawlerFactory
	saver   Saver
	store   *JobStore
	queue   chan string
	workers int
	log     *zap.Logger
	wg      sync.WaitGroup
}

// NewPool builds a Pool with the given worker count.
func NewPool(workers int, factory CrawlerFactory, saver Saver, store *JobStore, log *zap.Logger) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Pool{
		factory: factory,
		saver:   saver,
		store:   store,
		queue:   make(chan string, 64),
		workers: workers,
		log:     log,
	}
}

// Start launches the workers. They run until ctx is canceled.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			p.runWorker(ctx, id)
		}(i)
	}
}

// Wait blocks until every worker has exited.
func (p *Pool) Wait() {
	p.wg.Wait()
}

// Enqueue registers a job and queues it for execution.
func (p *Pool) Enqueue(urls []string, maxPages int, save bool) (Job, error) {
	if len(urls) == 0 {
		return Job{}, fmt.Errorf("at least one url is required")
	}
	job := p.store.Create(urls, maxPages, save)
	select {
	case p.queue <- job.ID:
		return job, nil
	default:
		p.store.update(job.ID, func(j *Job) {
			j.Status = JobStatusFailed
			j.Errors = append(j.Errors, "job queue is full")
		})
		return Job{}, fmt.Errorf("job queue is full")
	}
}

func (p *Pool) runWorker(ctx context.Context, id int) {
	crawler, closeCrawler := p.factory()
	defer closeCrawler()

	log := p.log.With(zap.Int("worker", id))
	log.Debug("worker started")
	for {
		select {
		case <-ctx.Done():
			log.Debug("worker stopping")
			return
		case jobID := <-p.queue:
			p.process(ctx, crawler, jobID, log)
		}
	}
}

func (p *Pool) process(ctx context.Context, crawler Crawler, jobID string, log *zap.Logger) {
	job, err := p.store.Get(jobID)
	if err != nil {
		log.Error("queued job vanished", zap.String("job_id", jobID))
		return
	}

	started := time.Now().UTC()
	p.store.update(jobID, func(j *Job) {
		j.Status = JobStatusRunning
		j.StartedAt = &started
	})
	log.Info("job started", zap.String("job_id", jobID), zap.Int("urls", len(job.URLs)))

	leads, crawlErrs := crawler.Crawl(ctx, job.URLs, job.MaxPages)

	var (
		saved      int
		duplicates int
		errTexts   []string
	)
	for _, cerr := range crawlErrs {
		errTexts = append(errTexts, cerr.Error())
	}
	if job.Save && p.saver != nil && len(leads) > 0 {
		saved, duplicates, err = p.saver.Save(ctx, leads)
		if err != nil {
			errTexts = append(errTexts, fmt.Sprintf("save leads: %v", err))
		}
	}

	status := finalStatus(ctx, len(leads), len(job.URLs), len(crawlErrs))
	finished := time.Now().UTC()
	p.store.update(jobID, func(j *Job) {
		j.Status = status
		j.FinishedAt = &finished
		j.LeadsFound = len(leads)
		j.LeadsSaved = saved
		j.Duplicates = duplicates
		j.Errors = errTexts
	})
	log.Info("job finished",
		zap.String("job_id", jobID),
		zap.String("status", string(status)),
		zap.Int("leads", len(leads)),
		zap.Int("saved", saved),
		zap.Int("duplicates", duplicates),
		zap.Int("errors", len(crawlErrs)))
}

// finalStatus mirrors how the crawl went: canceled if the context died,
// failed if every URL errored and nothing was found, succeeded otherwise.
func finalStatus(ctx context.Context, leads, urls, errs int) JobStatus {
	switch {
	case ctx.Err() != nil:
		return JobStatusCanceled
	case leads == 0 && errs >= urls && urls > 0:
		return JobStatusFailed
	default:
		return JobStatusSucceeded
	}
}
