package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/primlogix/leadscout/internal/metrics"
)

// browserFetcher is the scripted side of the orchestrator, implemented
// by Session and by fakes in tests.
type browserFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
	Close()
}

// httpGetter is the plain side, implemented by httpClient.
type httpGetter interface {
	get(ctx context.Context, url string) (string, int, error)
}

// Config controls orchestrator behavior.
type Config struct {
	HTTPTimeout time.Duration
}

// Orchestrator implements Fetcher. Hosts known to need a browser are
// rendered directly; everything else tries plain HTTP first and
// escalates to the scripted browser when a site blocks the request or
// the transport fails.
type Orchestrator struct {
	http    httpGetter
	browser browserFetcher
	log     *zap.Logger
}

// New builds an Orchestrator with its own browser session.
func New(cfg Config, log *zap.Logger) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{
		http:    newHTTPClient(cfg.HTTPTimeout),
		browser: NewSession(log.Named("browser")),
		log:     log,
	}
}

// Close releases the browser session.
func (o *Orchestrator) Close() {
	o.browser.Close()
}

// Fetch returns the page HTML. The decision ladder:
//
//  1. forceScripted, or a host known to need a browser, goes straight
//     to the browser. Those sites serve bot walls over plain HTTP.
//  2. A plain HTTP 2xx wins.
//  3. A 403 escalates to the browser; the result is Blocked only when
//     the scripted attempt fails too.
//  4. Any other failure gets exactly one scripted retry.
func (o *Orchestrator) Fetch(ctx context.Context, rawURL string, forceScripted bool) (string, error) {
	if forceScripted || SupportsScripted(rawURL) {
		return o.scripted(ctx, rawURL)
	}

	html, status, err := o.http.get(ctx, rawURL)
	metrics.FetchesTotal.WithLabelValues("http").Inc()
	if err == nil && status < http.StatusBadRequest {
		return html, nil
	}

	if status == http.StatusForbidden {
		metrics.ForbiddenTotal.Inc()
		o.log.Info("forbidden response, escalating to browser", zap.String("url", rawURL))
		if scriptedHTML, scriptedErr := o.escalate(ctx, rawURL); scriptedErr == nil {
			return scriptedHTML, nil
		}
		return "", o.fail(&Error{URL: rawURL, Kind: KindBlocked, Err: err})
	}

	o.log.Info("http fetch failed, escalating to browser",
		zap.String("url", rawURL),
		zap.Int("status", status),
		zap.Error(err))
	if scriptedHTML, scriptedErr := o.escalate(ctx, rawURL); scriptedErr == nil {
		return scriptedHTML, nil
	}
	return "", o.fail(classify(rawURL, status, err))
}

func (o *Orchestrator) escalate(ctx context.Context, rawURL string) (string, error) {
	metrics.EscalationsTotal.Inc()
	return o.scripted(ctx, rawURL)
}

func (o *Orchestrator) scripted(ctx context.Context, rawURL string) (string, error) {
	html, err := o.browser.Fetch(ctx, rawURL)
	metrics.FetchesTotal.WithLabelValues("browser").Inc()
	if err != nil {
		return "", o.fail(classify(rawURL, 0, fmt.Errorf("scripted fetch: %w", err)))
	}
	return html, nil
}

func (o *Orchestrator) fail(ferr *Error) error {
	metrics.FetchErrorsTotal.WithLabelValues(string(ferr.Kind)).Inc()
	o.log.Warn("fetch failed",
		zap.String("url", ferr.URL),
		zap.String("kind", string(ferr.Kind)),
		zap.Error(ferr.Err))
	return ferr
}

// classify maps a transport failure onto a fetch error kind.
func classify(rawURL string, status int, err error) *Error {
	kind := KindNetwork
	var netErr net.Error
	switch {
	case status == http.StatusForbidden:
		kind = KindBlocked
	case errors.Is(err, context.DeadlineExceeded):
		kind = KindTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		kind = KindTimeout
	case status >= http.StatusBadRequest:
		kind = KindUnavailable
	}
	return &Error{URL: rawURL, Kind: kind, Err: err}
}
