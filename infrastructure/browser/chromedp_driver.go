package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"
)

// ChromeDPDriver implements Driver using chromedp.
type ChromeDPDriver struct {
	config      *DriverConfig
	allocCtx    context.Context
	allocCancel context.CancelFunc
	ctx         context.Context
	cancel      context.CancelFunc
	mu          sync.Mutex
	running     bool
}

// NewChromeDPDriver creates a new ChromeDP-based browser driver.
func NewChromeDPDriver(config *DriverConfig) *ChromeDPDriver {
	if config == nil {
		config = DefaultDriverConfig()
	}
	return &ChromeDPDriver{
		config: config,
	}
}

// buildExecAllocatorOptions builds chromedp options from config.
func (d *ChromeDPDriver) buildExecAllocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", d.config.Headless),
		chromedp.Flag("disable-gpu", d.config.DisableGPU),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("enable-automation", false),
		chromedp.WindowSize(d.config.WindowWidth, d.config.WindowHeight),
	)

	if d.config.NoSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}
	if d.config.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(d.config.ExecPath))
	}
	if d.config.UserDataDir != "" {
		opts = append(opts, chromedp.UserDataDir(d.config.UserDataDir))
	}

	return opts
}

// Start launches the browser and opens a tab.
func (d *ChromeDPDriver) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running {
		return fmt.Errorf("browser already running")
	}

	// The allocator hangs off context.Background() so the browser outlives the
	// caller's context; Stop is the only way to tear it down.
	d.allocCtx, d.allocCancel = chromedp.NewExecAllocator(
		context.Background(),
		d.buildExecAllocatorOptions()...,
	)
	d.ctx, d.cancel = chromedp.NewContext(d.allocCtx)

	if d.config.AcceptDialogs {
		browserCtx := d.ctx
		chromedp.ListenTarget(browserCtx, func(ev interface{}) {
			if _, ok := ev.(*page.EventJavascriptDialogOpening); ok {
				// Listeners must not block the event loop.
				go func() {
					_ = chromedp.Run(browserCtx, page.HandleJavaScriptDialog(true))
				}()
			}
		})
	}

	startTimeout := d.config.StartTimeout
	if startTimeout <= 0 {
		startTimeout = 30 * time.Second
	}
	launchCtx, launchCancel := context.WithTimeout(d.ctx, startTimeout)
	defer launchCancel()

	launched := make(chan error, 1)
	go func() { launched <- chromedp.Run(launchCtx) }()

	var err error
	select {
	case err = <-launched:
	case <-ctx.Done():
		err = ctx.Err()
	}
	if err != nil {
		d.cleanup()
		return fmt.Errorf("failed to launch browser: %w", err)
	}

	d.running = true
	return nil
}

// Stop closes the browser and releases resources.
func (d *ChromeDPDriver) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.running {
		return nil
	}

	d.cleanup()
	return nil
}

func (d *ChromeDPDriver) cleanup() {
	d.running = false
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if d.allocCancel != nil {
		d.allocCancel()
		d.allocCancel = nil
	}
	d.ctx = nil
	d.allocCtx = nil
}

// IsRunning returns true if the browser is active.
func (d *ChromeDPDriver) IsRunning() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}

// run executes actions against the browser tab. The caller's deadline is
// carried over to a context derived from the tab context; calls without a
// deadline are capped at CommandTimeout so nothing waits forever.
func (d *ChromeDPDriver) run(ctx context.Context, actions ...chromedp.Action) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	d.mu.Lock()
	browserCtx := d.ctx
	running := d.running
	d.mu.Unlock()

	if !running || browserCtx == nil {
		return ErrNotRunning
	}

	timeout := d.config.CommandTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			return context.DeadlineExceeded
		}
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	execCtx, cancel := context.WithTimeout(browserCtx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- chromedp.Run(execCtx, actions...)
	}()

	select {
	case err := <-done:
		if err != nil && errors.Is(execCtx.Err(), context.DeadlineExceeded) {
			return context.DeadlineExceeded
		}
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func queryOption(loc Locator) chromedp.QueryOption {
	if loc.Strategy == ByCSS {
		return chromedp.ByQuery
	}
	return chromedp.BySearch
}

// Navigate loads url in the current tab.
func (d *ChromeDPDriver) Navigate(ctx context.Context, url string) error {
	return d.run(ctx, chromedp.Navigate(url))
}

// Reload refreshes the current page.
func (d *ChromeDPDriver) Reload(ctx context.Context) error {
	return d.run(ctx, chromedp.Reload())
}

// CurrentURL returns the URL of the current document.
func (d *ChromeDPDriver) CurrentURL(ctx context.Context) (string, error) {
	var url string
	if err := d.run(ctx, chromedp.Location(&url)); err != nil {
		return "", err
	}
	return url, nil
}

// WaitVisible blocks until the first match of loc is visible.
func (d *ChromeDPDriver) WaitVisible(ctx context.Context, loc Locator) error {
	return d.run(ctx, chromedp.WaitVisible(loc.Query, queryOption(loc)))
}

// WaitPresent blocks until loc matches a node.
func (d *ChromeDPDriver) WaitPresent(ctx context.Context, loc Locator) error {
	return d.run(ctx, chromedp.WaitReady(loc.Query, queryOption(loc)))
}

// WaitNotPresent blocks until loc matches nothing.
func (d *ChromeDPDriver) WaitNotPresent(ctx context.Context, loc Locator) error {
	return d.run(ctx, chromedp.WaitNotPresent(loc.Query, queryOption(loc)))
}

// Exists reports whether loc currently matches a node.
func (d *ChromeDPDriver) Exists(ctx context.Context, loc Locator) (bool, error) {
	n, err := d.Count(ctx, loc)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Count returns the number of nodes loc currently matches.
func (d *ChromeDPDriver) Count(ctx context.Context, loc Locator) (int, error) {
	var n int
	if err := d.run(ctx, chromedp.Evaluate(countJS(loc), &n)); err != nil {
		return 0, fmt.Errorf("count %s: %w", loc, err)
	}
	return n, nil
}

// Click clicks the first match of loc.
func (d *ChromeDPDriver) Click(ctx context.Context, loc Locator) error {
	return d.run(ctx, chromedp.Click(loc.Query, queryOption(loc)))
}

// JSClick scrolls the first match of loc into view and clicks it from script.
func (d *ChromeDPDriver) JSClick(ctx context.Context, loc Locator) error {
	var clicked bool
	if err := d.run(ctx, chromedp.Evaluate(jsClickJS(loc), &clicked)); err != nil {
		return fmt.Errorf("click %s: %w", loc, err)
	}
	if !clicked {
		return fmt.Errorf("click %s: %w", loc, ErrNodeNotFound)
	}
	return nil
}

// SendKeys types text into the first match of loc.
func (d *ChromeDPDriver) SendKeys(ctx context.Context, loc Locator, text string) error {
	return d.run(ctx, chromedp.SendKeys(loc.Query, text, queryOption(loc)))
}

// Clear empties the value of the first match of loc.
func (d *ChromeDPDriver) Clear(ctx context.Context, loc Locator) error {
	return d.run(ctx, chromedp.Clear(loc.Query, queryOption(loc)))
}

// Text returns the visible text of the first match of loc.
func (d *ChromeDPDriver) Text(ctx context.Context, loc Locator) (string, error) {
	var text string
	if err := d.run(ctx, chromedp.Text(loc.Query, &text, queryOption(loc))); err != nil {
		return "", err
	}
	return text, nil
}

// Texts returns the text of every current match of loc.
func (d *ChromeDPDriver) Texts(ctx context.Context, loc Locator) ([]string, error) {
	var texts []string
	if err := d.run(ctx, chromedp.Evaluate(textsJS(loc), &texts)); err != nil {
		return nil, fmt.Errorf("texts %s: %w", loc, err)
	}
	return texts, nil
}

// Value returns the live value property of the first match of loc.
func (d *ChromeDPDriver) Value(ctx context.Context, loc Locator) (string, error) {
	var value *string
	if err := d.run(ctx, chromedp.Evaluate(valueJS(loc), &value)); err != nil {
		return "", fmt.Errorf("value %s: %w", loc, err)
	}
	if value == nil {
		return "", fmt.Errorf("value %s: %w", loc, ErrNodeNotFound)
	}
	return *value, nil
}

// Attribute returns the named attribute of the first match of loc.
func (d *ChromeDPDriver) Attribute(ctx context.Context, loc Locator, name string) (string, bool, error) {
	var (
		value string
		ok    bool
	)
	if err := d.run(ctx, chromedp.AttributeValue(loc.Query, name, &value, &ok, queryOption(loc))); err != nil {
		return "", false, err
	}
	return value, ok, nil
}

// OuterHTML returns the serialized HTML of the first match of loc.
func (d *ChromeDPDriver) OuterHTML(ctx context.Context, loc Locator) (string, error) {
	var html string
	if err := d.run(ctx, chromedp.OuterHTML(loc.Query, &html, queryOption(loc))); err != nil {
		return "", err
	}
	return html, nil
}

// Evaluate runs a script expression and decodes the result into res.
func (d *ChromeDPDriver) Evaluate(ctx context.Context, expression string, res any) error {
	return d.run(ctx, chromedp.Evaluate(expression, res))
}

// ClearCookies deletes every browser cookie.
func (d *ChromeDPDriver) ClearCookies(ctx context.Context) error {
	return d.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		return storage.ClearCookies().Do(ctx)
	}))
}

// ClearLocalStorage clears window.localStorage. On about:blank the storage
// is inaccessible and the call is a no-op.
func (d *ChromeDPDriver) ClearLocalStorage(ctx context.Context) error {
	const script = `(function(){try{window.localStorage.clear();return true;}catch(e){return false;}})()`
	var cleared bool
	return d.run(ctx, chromedp.Evaluate(script, &cleared))
}

// CaptureScreenshot returns a PNG of the current viewport.
func (d *ChromeDPDriver) CaptureScreenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := d.run(ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, fmt.Errorf("failed to capture screenshot: %w", err)
	}
	return buf, nil
}

// Ensure ChromeDPDriver implements Driver
var _ Driver = (*ChromeDPDriver)(nil)
