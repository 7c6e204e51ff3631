package directory

import (
	"context"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ChromeOptions configures the Chrome process.
type ChromeOptions struct {
	UserDataDir    string
	Headless       bool
	ExecPath       string
	ViewportWidth  int
	ViewportHeight int
	NavTimeout     time.Duration
}

// Chrome is a Browser backed by chromedp with a persistent user-data dir so
// the directory login survives restarts.
type Chrome struct {
	opts          ChromeOptions
	ctx           context.Context
	cancelAlloc   context.CancelFunc
	cancelBrowser context.CancelFunc
}

// LaunchChrome starts Chrome. Failure here is fatal for callers that need
// the directory.
func LaunchChrome(ctx context.Context, opts ChromeOptions) (*Chrome, error) {
	if opts.ViewportWidth <= 0 {
		opts.ViewportWidth = 1280
	}
	if opts.ViewportHeight <= 0 {
		opts.ViewportHeight = 800
	}
	if opts.NavTimeout <= 0 {
		opts.NavTimeout = 30 * time.Second
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserDataDir(opts.UserDataDir),
		chromedp.Flag("headless", opts.Headless),
		chromedp.NoSandbox,
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-features", "VizDisplayCompositor"),
		chromedp.WindowSize(opts.ViewportWidth, opts.ViewportHeight),
	)
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}

	// The browser outlives the launching request, so it is rooted in a
	// background context and torn down by Close.
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	if err := startBounded(ctx, browserCtx, cancelBrowser, opts.NavTimeout); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, eris.Wrap(err, "directory: launch chrome")
	}

	zap.L().Info("directory: browser launched",
		zap.String("user_data_dir", opts.UserDataDir),
		zap.Bool("headless", opts.Headless),
	)
	return &Chrome{opts: opts, ctx: browserCtx, cancelAlloc: cancelAlloc, cancelBrowser: cancelBrowser}, nil
}

// NewPage opens a tab sized to the configured viewport.
func (c *Chrome) NewPage(ctx context.Context) (Page, error) {
	tabCtx, cancel := chromedp.NewContext(c.ctx)
	err := startBounded(ctx, tabCtx, cancel, c.opts.NavTimeout,
		emulation.SetDeviceMetricsOverride(int64(c.opts.ViewportWidth), int64(c.opts.ViewportHeight), 1, false))
	if err != nil {
		cancel()
		return nil, eris.Wrap(err, "directory: open page")
	}
	return &chromePage{ctx: tabCtx, cancel: cancel, timeout: c.opts.NavTimeout}, nil
}

// startBounded performs the first Run on runCtx. chromedp binds the browser
// process or tab to the context of that first Run, so it cannot carry a
// timeout of its own; instead cancel is called when timeout elapses or ctx
// is done first.
func startBounded(ctx, runCtx context.Context, cancel context.CancelFunc, timeout time.Duration, actions ...chromedp.Action) error {
	timer := time.AfterFunc(timeout, cancel)
	stop := context.AfterFunc(ctx, cancel)
	err := chromedp.Run(runCtx, actions...)
	timedOut := !timer.Stop()
	callerDone := !stop()
	switch {
	case err == nil && timedOut:
		return eris.Errorf("startup exceeded %s", timeout)
	case err == nil && callerDone:
		return ctx.Err()
	}
	return err
}

// Close shuts the browser down.
func (c *Chrome) Close() error {
	err := chromedp.Cancel(c.ctx)
	c.cancelBrowser()
	c.cancelAlloc()
	return eris.Wrap(err, "directory: close chrome")
}

type chromePage struct {
	ctx     context.Context
	cancel  context.CancelFunc
	timeout time.Duration
}

// run executes actions on the tab, bounded by the page timeout and the
// caller's context.
func (p *chromePage) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(p.ctx, p.timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

func (p *chromePage) Navigate(ctx context.Context, url string) error {
	return eris.Wrapf(p.run(ctx, chromedp.Navigate(url)), "directory: navigate %s", url)
}

func (p *chromePage) Reload(ctx context.Context) error {
	return eris.Wrap(p.run(ctx, chromedp.Reload()), "directory: reload")
}

func (p *chromePage) HTML(ctx context.Context) (string, error) {
	var html string
	if err := p.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", eris.Wrap(err, "directory: read html")
	}
	return html, nil
}

func (p *chromePage) BodyText(ctx context.Context) (string, error) {
	var text string
	if err := p.run(ctx, chromedp.Evaluate(`document.body ? document.body.innerText : ""`, &text)); err != nil {
		return "", eris.Wrap(err, "directory: read body text")
	}
	return text, nil
}

func (p *chromePage) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	err := p.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		buf, err = page.CaptureScreenshot().
			WithFormat(page.CaptureScreenshotFormatPng).
			WithCaptureBeyondViewport(true).
			Do(ctx)
		return err
	}))
	if err != nil {
		return nil, eris.Wrap(err, "directory: screenshot")
	}
	return buf, nil
}

func (p *chromePage) Close() error {
	err := chromedp.Cancel(p.ctx)
	p.cancel()
	return eris.Wrap(err, "directory: close page")
}
