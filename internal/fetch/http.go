package fetch

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
)

// defaultHTTPTimeout bounds a single plain HTTP request.
const defaultHTTPTimeout = 20 * time.Second

// httpClient performs plain HTTP fetches via a Colly collector.
type httpClient struct {
	base    *colly.Collector
	timeout time.Duration
}

func newHTTPClient(timeout time.Duration) *httpClient {
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	c := colly.NewCollector(colly.Async(false))
	c.IgnoreRobotsTxt = true
	c.WithTransport(newHTTPTransport())
	return &httpClient{base: c, timeout: timeout}
}

// get executes a single GET with browser-like headers and returns the
// body and status code. A non-nil error may still carry a status code
// (colly reports non-2xx responses as errors).
func (c *httpClient) get(ctx context.Context, rawURL string) (string, int, error) {
	collector := c.base.Clone()
	collector.IgnoreRobotsTxt = true
	collector.SetRequestTimeout(c.timeout)

	var (
		body     string
		status   int
		fetchErr error
	)
	collector.OnRequest(func(r *colly.Request) {
		for key, value := range browserHeaders {
			r.Headers.Set(key, value)
		}
		if ref := refererFor(rawURL); ref != "" {
			r.Headers.Set("Referer", ref)
		}
	})
	collector.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = string(r.Body)
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil {
			status = r.StatusCode
		}
		fetchErr = err
	})

	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(rawURL)
	}()

	select {
	case <-ctx.Done():
		return "", 0, fmt.Errorf("http fetch canceled: %w", ctx.Err())
	case err := <-done:
		if fetchErr != nil {
			return "", status, fetchErr
		}
		if err != nil {
			return "", status, fmt.Errorf("http visit failed: %w", err)
		}
		return body, status, nil
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
