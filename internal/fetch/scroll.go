package fetch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

const (
	scrollBottomJS = `window.scrollTo(0, document.body.scrollHeight)`
	scrollTopJS    = `window.scrollTo(0, 0)`

	// clickLoadMoreJS presses any visible "load more" style button and
	// returns how many it clicked.
	clickLoadMoreJS = `(() => {
		const words = ['load more', 'show more', 'see more reviews'];
		let clicked = 0;
		for (const el of document.querySelectorAll('button, a')) {
			const text = (el.textContent || '').trim().toLowerCase();
			if (words.some(w => text.includes(w))) {
				el.click();
				clicked++;
			}
		}
		return clicked;
	})()`
)

// scroll runs the host-specific scroll routine that coaxes lazy-loaded
// review cards into the DOM, then does a final bottom-top-bottom sweep.
func (s *Session) scroll(ctx context.Context, tab context.Context, rawURL string) error {
	host := hostOf(rawURL)
	var err error
	switch {
	case strings.Contains(host, "getapp"):
		err = s.scrollGetApp(ctx, tab)
	case strings.Contains(host, "g2.com"):
		err = s.scrollRepeat(ctx, tab, 4, 2*time.Second)
	case strings.Contains(host, "trustradius"):
		err = s.scrollRepeat(ctx, tab, 4, 2*time.Second)
	default:
		err = s.scrollStepped(ctx, tab)
	}
	if err != nil {
		return err
	}
	return s.finalSweep(ctx, tab)
}

// scrollGetApp alternates scrolling and pressing load-more buttons;
// GetApp paginates reviews behind them instead of infinite scroll.
func (s *Session) scrollGetApp(ctx context.Context, tab context.Context) error {
	for i := 0; i < 5; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		var clicked int
		err := chromedp.Run(tab,
			chromedp.Evaluate(scrollBottomJS, nil),
			chromedp.Sleep(2*time.Second),
			chromedp.Evaluate(clickLoadMoreJS, &clicked),
		)
		if err != nil {
			return fmt.Errorf("getapp scroll step %d: %w", i, err)
		}
	}
	return nil
}

// scrollRepeat scrolls to the bottom n times with a fixed pause,
// enough for infinite-scroll feeds to load a few batches.
func (s *Session) scrollRepeat(ctx context.Context, tab context.Context, n int, pause time.Duration) error {
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := chromedp.Run(tab,
			chromedp.Evaluate(scrollBottomJS, nil),
			chromedp.Sleep(pause),
		)
		if err != nil {
			return fmt.Errorf("scroll step %d: %w", i, err)
		}
	}
	return nil
}

// scrollStepped walks down the page in quarter-height steps so lazy
// content between the top and the bottom gets a chance to load.
func (s *Session) scrollStepped(ctx context.Context, tab context.Context) error {
	for i := 0; i < 5; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		js := fmt.Sprintf("window.scrollTo(0, document.body.scrollHeight * %d / 4)", i)
		err := chromedp.Run(tab,
			chromedp.Evaluate(js, nil),
			chromedp.Sleep(1500*time.Millisecond),
		)
		if err != nil {
			return fmt.Errorf("stepped scroll %d: %w", i, err)
		}
	}
	return nil
}

func (s *Session) finalSweep(ctx context.Context, tab context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := chromedp.Run(tab,
		chromedp.Evaluate(scrollBottomJS, nil),
		chromedp.Sleep(3*time.Second),
		chromedp.Evaluate(scrollTopJS, nil),
		chromedp.Sleep(1*time.Second),
		chromedp.Evaluate(scrollBottomJS, nil),
		chromedp.Sleep(2*time.Second),
	)
	if err != nil {
		return fmt.Errorf("final sweep: %w", err)
	}
	return nil
}
