package fetch

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

const (
	// navTimeout bounds each navigation attempt.
	navTimeout = 60 * time.Second
	// challengeWait is the maximum time to sit out an anti-bot challenge.
	challengeWait = 30 * time.Second
	// challengePoll is the interval between challenge re-checks.
	challengePoll = 2 * time.Second
	// challengeMinLen marks a page as suspiciously small (likely an
	// interstitial) when the rendered HTML is shorter.
	challengeMinLen = 10_000
	// challengeDoneLen marks a challenge as resolved once the rendered
	// HTML grows past it.
	challengeDoneLen = 50_000
)

// challengeMarkers identify anti-bot interstitials in rendered HTML.
var challengeMarkers = []string{
	"cf-browser-verification",
	"challenge-platform",
	"Just a moment",
}

// Session owns one headless browser for the lifetime of a worker. The
// browser starts lazily on first use and is reused across fetches, so
// a worker pays the startup cost once per job instead of once per page.
type Session struct {
	mu          sync.Mutex
	allocator   context.Context
	allocCancel context.CancelFunc
	browser     context.Context
	cancel      context.CancelFunc
	started     atomic.Bool
	closed      bool
	log         *zap.Logger
}

// NewSession prepares a browser session without starting the browser.
func NewSession(log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{log: log}
}

// ensureStarted lazily boots the browser. The started flag is checked
// before taking the lock and re-checked under it, so concurrent fetches
// on the same session start the browser exactly once.
func (s *Session) ensureStarted() error {
	if s.started.Load() {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started.Load() {
		return nil
	}
	if s.closed {
		return fmt.Errorf("browser session already closed")
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("enable-automation", false),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
	)
	s.allocator, s.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	s.browser, s.cancel = chromedp.NewContext(s.allocator)

	// Starting the browser eagerly here surfaces launch failures at the
	// first fetch instead of deep inside a navigation.
	if err := chromedp.Run(s.browser); err != nil {
		s.allocCancel()
		s.allocator, s.allocCancel = nil, nil
		s.browser, s.cancel = nil, nil
		return fmt.Errorf("start browser: %w", err)
	}

	s.started.Store(true)
	s.log.Debug("browser session started")
	return nil
}

// Close shuts the browser down. Safe to call repeatedly and before the
// browser ever started.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if s.cancel != nil {
		s.cancel()
	}
	if s.allocCancel != nil {
		s.allocCancel()
	}
	s.started.Store(false)
}

// Fetch renders the page in a fresh tab and returns the final DOM. The
// tab is always closed, even on failure.
func (s *Session) Fetch(ctx context.Context, rawURL string) (string, error) {
	if err := s.ensureStarted(); err != nil {
		return "", err
	}

	tab, closeTab := chromedp.NewContext(s.browser)
	defer closeTab()

	if err := s.prepareTab(tab, rawURL); err != nil {
		return "", err
	}
	if err := s.navigate(ctx, tab, rawURL); err != nil {
		return "", err
	}

	html, err := s.awaitChallenge(ctx, tab, rawURL)
	if err != nil {
		return "", err
	}
	if err := s.scroll(ctx, tab, rawURL); err != nil {
		s.log.Debug("scroll script failed, using pre-scroll DOM",
			zap.String("url", rawURL), zap.Error(err))
		return html, nil
	}

	if err := chromedp.Run(tab, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("read rendered dom: %w", err)
	}
	return html, nil
}

func (s *Session) prepareTab(tab context.Context, rawURL string) error {
	headers := network.Headers{}
	for key, value := range browserHeaders {
		if key == "User-Agent" {
			continue
		}
		headers[key] = value
	}
	if ref := refererFor(rawURL); ref != "" {
		headers["Referer"] = ref
	}

	return chromedp.Run(tab, chromedp.ActionFunc(func(ctx context.Context) error {
		if err := network.Enable().Do(ctx); err != nil {
			return fmt.Errorf("enable network domain: %w", err)
		}
		if err := emulation.SetUserAgentOverride(browserHeaders["User-Agent"]).Do(ctx); err != nil {
			return fmt.Errorf("set user-agent: %w", err)
		}
		if err := network.SetExtraHTTPHeaders(headers).Do(ctx); err != nil {
			return fmt.Errorf("set extra headers: %w", err)
		}
		return nil
	}))
}

// navigate tries progressively weaker readiness conditions. Heavy review
// pages routinely blow past full-load waits while still rendering the
// cards we need.
func (s *Session) navigate(ctx context.Context, tab context.Context, rawURL string) error {
	attempts := []struct {
		name    string
		actions []chromedp.Action
	}{
		{"ready", []chromedp.Action{chromedp.Navigate(rawURL), chromedp.WaitReady("body", chromedp.ByQuery)}},
		{"settled", []chromedp.Action{chromedp.Navigate(rawURL), chromedp.Sleep(2 * time.Second)}},
		{"bare", []chromedp.Action{chromedp.Navigate(rawURL)}},
	}

	var lastErr error
	for _, attempt := range attempts {
		if err := ctx.Err(); err != nil {
			return err
		}
		attemptCtx, cancel := context.WithTimeout(tab, navTimeout)
		err := chromedp.Run(attemptCtx, attempt.actions...)
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err
		s.log.Debug("navigation attempt failed",
			zap.String("url", rawURL),
			zap.String("attempt", attempt.name),
			zap.Error(err))
	}
	return fmt.Errorf("navigate %s: %w", rawURL, lastErr)
}

// awaitChallenge waits out anti-bot interstitials by polling the DOM
// until it looks like real content, then gives scripts a moment to
// finish rendering.
func (s *Session) awaitChallenge(ctx context.Context, tab context.Context, rawURL string) (string, error) {
	var html string
	if err := chromedp.Run(tab, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("read dom: %w", err)
	}

	if looksResolved(html) {
		return html, nil
	}

	s.log.Info("challenge page detected, waiting", zap.String("url", rawURL))
	deadline := time.Now().Add(challengeWait)
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(challengePoll):
		}
		if err := chromedp.Run(tab, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
			return "", fmt.Errorf("read dom: %w", err)
		}
		if len(html) > challengeDoneLen && !hasChallengeMarker(html) {
			break
		}
	}

	// Settle time for late-rendering review cards.
	if err := chromedp.Run(tab, chromedp.Sleep(3*time.Second),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("read dom: %w", err)
	}
	return html, nil
}

func looksResolved(html string) bool {
	return len(html) >= challengeMinLen && !hasChallengeMarker(html)
}

func hasChallengeMarker(html string) bool {
	for _, marker := range challengeMarkers {
		if strings.Contains(html, marker) {
			return true
		}
	}
	return false
}
