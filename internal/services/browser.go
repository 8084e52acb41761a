package services

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/codyseavey/cardscout/internal/metrics"
)

type BrowserOptions struct {
	ChromeBin    string
	WaitSelector string
	Timeout      time.Duration
}

// BrowserFetcher renders pages in headless Chrome and returns the final
// HTML. One browser is started lazily and each fetch opens its own tab.
type BrowserFetcher struct {
	opts BrowserOptions

	mu            sync.Mutex
	browserCtx    context.Context
	cancelBrowser context.CancelFunc
	cancelAlloc   context.CancelFunc
}

func NewBrowserFetcher(opts BrowserOptions) *BrowserFetcher {
	if opts.WaitSelector == "" {
		opts.WaitSelector = "body"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 45 * time.Second
	}
	return &BrowserFetcher{opts: opts}
}

func (b *BrowserFetcher) browser() (context.Context, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.browserCtx != nil {
		return b.browserCtx, nil
	}

	chromeBin := b.opts.ChromeBin
	if chromeBin == "" {
		chromeBin = findChromeBinary()
	}
	log.Printf("Browser fetcher: using browser binary %q", chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(browserUserAgent),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	// Suppress chromedp log noise
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	// Start the browser now so every tab shares it.
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("start browser: %w", err)
	}

	b.browserCtx = browserCtx
	b.cancelBrowser = cancelBrowser
	b.cancelAlloc = cancelAlloc
	return browserCtx, nil
}

// FetchPage navigates to rawURL, waits for the configured selector and
// returns the rendered document.
func (b *BrowserFetcher) FetchPage(ctx context.Context, rawURL string, params url.Values) ([]byte, error) {
	target := rawURL
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	browserCtx, err := b.browser()
	if err != nil {
		return nil, err
	}
	tabCtx, cancelTab := chromedp.NewContext(browserCtx)
	defer cancelTab()
	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, b.opts.Timeout)
	defer cancelTimeout()
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	start := time.Now()
	var html string
	err = chromedp.Run(tabCtx,
		chromedp.Navigate(target),
		chromedp.WaitVisible(b.opts.WaitSelector, chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	metrics.UpstreamRequestDuration.WithLabelValues("browser").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues("browser", "network").Inc()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("chromedp render %s: %w", target, err)
	}

	metrics.UpstreamRequestsTotal.WithLabelValues("browser", "ok").Inc()
	return []byte(html), nil
}

// Close shuts the browser down. It is safe to call more than once.
func (b *BrowserFetcher) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cancelBrowser != nil {
		b.cancelBrowser()
		b.cancelAlloc()
		b.browserCtx, b.cancelBrowser, b.cancelAlloc = nil, nil, nil
	}
}

// findChromeBinary locates a Chrome/Chromium binary, or returns "" to let
// chromedp search its defaults.
func findChromeBinary() string {
	for _, name := range []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"} {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	for _, p := range []string{"/usr/bin/chromium", "/snap/bin/chromium", "/opt/google/chrome/google-chrome"} {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
