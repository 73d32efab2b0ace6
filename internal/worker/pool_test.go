package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/primlogix/leadscout/internal/crawl"
	"github.com/primlogix/leadscout/internal/lead"
)

type fakeCrawler struct {
	leads []lead.Review
	errs  []crawl.Error
}

func (f *fakeCrawler) Crawl(context.Context, []string, int) ([]lead.Review, []crawl.Error) {
	return f.leads, f.errs
}

type fakeSaver struct {
	mu    sync.Mutex
	got   []lead.Review
	err   error
	calls int
}

func (f *fakeSaver) Save(_ context.Context, reviews []lead.Review) (int, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.got = reviews
	if f.err != nil {
		return 0, 0, f.err
	}
	return len(reviews) - 1, 1, nil
}

func staticFactory(c Crawler) CrawlerFactory {
	return func() (Crawler, func()) { return c, func() {} }
}

func waitForStatus(t *testing.T, store *JobStore, id string, want JobStatus) Job {
	t.Helper()
	var job Job
	require.Eventually(t, func() bool {
		var err error
		job, err = store.Get(id)
		return err == nil && job.Status == want
	}, 2*time.Second, 10*time.Millisecond)
	return job
}

func TestPoolRunsJobAndSaves(t *testing.T) {
	t.Parallel()

	crawler := &fakeCrawler{leads: []lead.Review{
		{Body: "too buggy", IdentityHash: "a"},
		{Body: "too slow", IdentityHash: "b"},
	}}
	saver := &fakeSaver{}
	store := NewJobStore()
	pool := NewPool(1, staticFactory(crawler), saver, store, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)

	job, err := pool.Enqueue([]string{"https://reviews.example.com"}, 3, true)
	require.NoError(t, err)

	done := waitForStatus(t, store, job.ID, JobStatusSucceeded)
	require.Equal(t, 2, done.LeadsFound)
	require.Equal(t, 1, done.LeadsSaved)
	require.Equal(t, 1, done.Duplicates)
	require.NotNil(t, done.StartedAt)
	require.NotNil(t, done.FinishedAt)
	require.Empty(t, done.Errors)
}

func TestPoolCrawlOnlyJobSkipsSaver(t *testing.T) {
	t.Parallel()

	crawler := &fakeCrawler{leads: []lead.Review{{Body: "too buggy"}}}
	saver := &fakeSaver{}
	store := NewJobStore()
	pool := NewPool(1, staticFactory(crawler), saver, store, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)

	job, err := pool.Enqueue([]string{"https://reviews.example.com"}, 3, false)
	require.NoError(t, err)

	done := waitForStatus(t, store, job.ID, JobStatusSucceeded)
	require.Equal(t, 1, done.LeadsFound)
	require.Zero(t, done.LeadsSaved)
	saver.mu.Lock()
	defer saver.mu.Unlock()
	require.Zero(t, saver.calls)
}

func TestPoolJobFailsWhenEveryURLErrors(t *testing.T) {
	t.Parallel()

	crawler := &fakeCrawler{errs: []crawl.Error{
		{URL: "https://a.example.com", Err: errors.New("blocked")},
		{URL: "https://b.example.com", Err: errors.New("timeout")},
	}}
	store := NewJobStore()
	pool := NewPool(1, staticFactory(crawler), nil, store, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)

	job, err := pool.Enqueue([]string{"https://a.example.com", "https://b.example.com"}, 3, true)
	require.NoError(t, err)

	done := waitForStatus(t, store, job.ID, JobStatusFailed)
	require.Len(t, done.Errors, 2)
	require.Zero(t, done.LeadsFound)
}

func TestPoolPartialFailureStillSucceeds(t *testing.T) {
	t.Parallel()

	crawler := &fakeCrawler{
		leads: []lead.Review{{Body: "too buggy"}},
		errs:  []crawl.Error{{URL: "https://bad.example.com", Err: errors.New("blocked")}},
	}
	store := NewJobStore()
	pool := NewPool(1, staticFactory(crawler), nil, store, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)

	job, err := pool.Enqueue([]string{"https://bad.example.com", "https://good.example.com"}, 3, false)
	require.NoError(t, err)

	done := waitForStatus(t, store, job.ID, JobStatusSucceeded)
	require.Len(t, done.Errors, 1)
	require.Equal(t, 1, done.LeadsFound)
}

func TestPoolEachWorkerGetsOwnCrawler(t *testing.T) {
	t.Parallel()

	var (
		mu    sync.Mutex
		built int
	)
	factory := func() (Crawler, func()) {
		mu.Lock()
		built++
		mu.Unlock()
		return &fakeCrawler{}, func() {}
	}
	pool := NewPool(3, factory, nil, NewJobStore(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx)
	cancel()
	pool.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, 3, built)
}

func TestEnqueueRequiresURLs(t *testing.T) {
	t.Parallel()

	pool := NewPool(1, staticFactory(&fakeCrawler{}), nil, NewJobStore(), nil)
	_, err := pool.Enqueue(nil, 3, true)
	require.Error(t, err)
}

func TestJobStoreGetUnknown(t *testing.T) {
	t.Parallel()

	store := NewJobStore()
	_, err := store.Get("nope")
	require.Error(t, err)
}
