package navigator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/kataras/golog"

	"leadfinder/internal/config"
	"leadfinder/internal/model"
)

// ErrNotAuthenticated is returned when the browser lands on a login or checkpoint page
var ErrNotAuthenticated = errors.New("browser session is not logged in")

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

var loginPaths = []string{"/login", "/checkpoint", "/authwall", "/uas/login"}

// ChromeFetcher loads pages in a shared headless Chrome, one tab per fetch
type ChromeFetcher struct {
	cfg config.BrowserConfig

	startOnce  sync.Once
	startErr   error
	browserCtx context.Context
	cancel     context.CancelFunc
}

// NewChromeFetcher prepares a browser. Chrome is launched on the first fetch.
func NewChromeFetcher(cfg config.BrowserConfig) *ChromeFetcher {
	ua := cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-notifications", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(ua),
	)
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	if cfg.UserDataDir != "" {
		// reuse a profile that is already logged in
		opts = append(opts, chromedp.UserDataDir(cfg.UserDataDir))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(golog.Debugf))

	return &ChromeFetcher{
		cfg:        cfg,
		browserCtx: browserCtx,
		cancel: func() {
			browserCancel()
			allocCancel()
		},
	}
}

// Fetch navigates to url, waits for the page to settle and returns its HTML
func (f *ChromeFetcher) Fetch(ctx context.Context, url string) (*model.Page, error) {
	f.startOnce.Do(func() {
		f.startErr = chromedp.Run(f.browserCtx)
		if f.startErr == nil {
			golog.Infof("🌐 Browser started (headless=%t)", f.cfg.Headless)
		}
	})
	if f.startErr != nil {
		return nil, fmt.Errorf("start browser: %w", f.startErr)
	}

	tabCtx, cancelTab := chromedp.NewContext(f.browserCtx)
	defer cancelTab()

	timeout := f.cfg.PageTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, timeout)
	defer cancelTimeout()

	// abort the tab when the caller gives up
	stop := context.AfterFunc(ctx, cancelTimeout)
	defer stop()

	var html, location string
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(f.cfg.SettleDelay),
		chromedp.Location(&location),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("navigate %s: %w", url, err)
	}

	if isLoginPage(location) {
		return nil, fmt.Errorf("%w (redirected to %s)", ErrNotAuthenticated, location)
	}

	return &model.Page{URL: location, HTML: html}, nil
}

// Close shuts the browser down
func (f *ChromeFetcher) Close() {
	f.cancel()
}

func isLoginPage(location string) bool {
	for _, p := range loginPaths {
		if strings.Contains(location, p) {
			return true
		}
	}
	return false
}
