// Package pages holds the page objects for the GroceryMate storefront. Each
// page owns its locators and turns DOM states into domain values or fault
// errors; none of them sleeps for a fixed duration.
package pages

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"grocerycheck/core/fault"
	"grocerycheck/infrastructure/browser"
)

// pollInterval is how often multi-outcome waits re-check the page.
const pollInterval = 200 * time.Millisecond

// snapshotTimeout bounds the diagnostic DOM read attached to wait errors.
const snapshotTimeout = 2 * time.Second

// Timeouts are the wait bounds pages apply.
type Timeouts struct {
	// Wait is the default bound for elements that must appear.
	Wait time.Duration
	// Probe is the short bound for elements that may legitimately be absent.
	Probe time.Duration
	// Slow bounds navigations and server round-trips such as checkout.
	Slow time.Duration
}

// DefaultTimeouts returns the bounds used when a caller passes zero values.
func DefaultTimeouts() Timeouts {
	return Timeouts{Wait: 10 * time.Second, Probe: 3 * time.Second, Slow: 30 * time.Second}
}

// Site describes the storefront under test.
type Site struct {
	BaseURL  string
	Timeouts Timeouts
}

// URL joins p onto the site base URL.
func (s Site) URL(p string) string {
	return strings.TrimRight(s.BaseURL, "/") + "/" + strings.TrimLeft(p, "/")
}

func (s Site) withDefaults() Site {
	d := DefaultTimeouts()
	if s.Timeouts.Wait <= 0 {
		s.Timeouts.Wait = d.Wait
	}
	if s.Timeouts.Probe <= 0 {
		s.Timeouts.Probe = d.Probe
	}
	if s.Timeouts.Slow <= 0 {
		s.Timeouts.Slow = d.Slow
	}
	return s
}

// page is embedded by every page object.
type page struct {
	d    browser.Driver
	site Site
}

func newPage(d browser.Driver, site Site) page {
	return page{d: d, site: site.withDefaults()}
}

// open navigates to the site-relative path p.
func (p *page) open(ctx context.Context, path string) error {
	nctx, cancel := context.WithTimeout(ctx, p.site.Timeouts.Slow)
	defer cancel()
	if err := p.d.Navigate(nctx, p.site.URL(path)); err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	return nil
}

// waitVisible waits up to timeout for loc and reports an expiry as a
// fault.WaitTimeoutError carrying the visible page text.
func (p *page) waitVisible(ctx context.Context, loc browser.Locator, timeout time.Duration) error {
	start := time.Now()
	wctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := p.d.WaitVisible(wctx, loc); err != nil {
		return p.waitFailed(ctx, loc.String(), start, err)
	}
	return nil
}

func (p *page) waitNotPresent(ctx context.Context, loc browser.Locator, timeout time.Duration) error {
	start := time.Now()
	wctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := p.d.WaitNotPresent(wctx, loc); err != nil {
		return p.waitFailed(ctx, "absence of "+loc.String(), start, err)
	}
	return nil
}

func (p *page) waitFailed(ctx context.Context, what string, start time.Time, err error) error {
	if !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("wait for %s: %w", what, err)
	}
	return &fault.WaitTimeoutError{
		Locator:   what,
		Elapsed:   time.Since(start),
		LastState: p.visibleText(ctx),
		Err:       err,
	}
}

// probe reports whether loc becomes visible within timeout. An expired probe
// is not an error; a cancelled caller is.
func (p *page) probe(ctx context.Context, loc browser.Locator, timeout time.Duration) (bool, error) {
	wctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	err := p.d.WaitVisible(wctx, loc)
	switch {
	case err == nil:
		return true, nil
	case ctx.Err() != nil:
		return false, ctx.Err()
	case errors.Is(err, context.DeadlineExceeded):
		return false, nil
	default:
		return false, err
	}
}

// poll runs check until it reports done, returns an error, or timeout expires.
// Expiry becomes a fault.WaitTimeoutError naming what.
func (p *page) poll(ctx context.Context, what string, timeout time.Duration, check func(context.Context) (bool, error)) error {
	start := time.Now()
	pctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		done, err := check(pctx)
		if err != nil && !(errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil) {
			return err
		}
		if done {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-pctx.Done():
			return p.waitFailed(ctx, what, start, pctx.Err())
		case <-ticker.C:
		}
	}
}

// typeInto replaces the value of loc with text.
func (p *page) typeInto(ctx context.Context, loc browser.Locator, text string) error {
	if err := p.waitVisible(ctx, loc, p.site.Timeouts.Wait); err != nil {
		return err
	}
	if err := p.d.Clear(ctx, loc); err != nil {
		return fmt.Errorf("clear %s: %w", loc.Name, err)
	}
	if text == "" {
		return nil
	}
	if err := p.d.SendKeys(ctx, loc, text); err != nil {
		return fmt.Errorf("type into %s: %w", loc.Name, err)
	}
	return nil
}

// click waits for loc and clicks it.
func (p *page) click(ctx context.Context, loc browser.Locator) error {
	if err := p.waitVisible(ctx, loc, p.site.Timeouts.Wait); err != nil {
		return err
	}
	if err := p.d.Click(ctx, loc); err != nil {
		return fmt.Errorf("click %s: %w", loc.Name, err)
	}
	return nil
}

// jsClick waits for loc and clicks it from script, past any overlay.
func (p *page) jsClick(ctx context.Context, loc browser.Locator) error {
	if err := p.waitVisible(ctx, loc, p.site.Timeouts.Wait); err != nil {
		return err
	}
	if err := p.d.JSClick(ctx, loc); err != nil {
		return fmt.Errorf("click %s: %w", loc.Name, err)
	}
	return nil
}

// text waits for loc and returns its text.
func (p *page) text(ctx context.Context, loc browser.Locator) (string, error) {
	if err := p.waitVisible(ctx, loc, p.site.Timeouts.Wait); err != nil {
		return "", err
	}
	s, err := p.d.Text(ctx, loc)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", loc.Name, err)
	}
	return strings.TrimSpace(s), nil
}

// firstText returns the text of the first current match of loc, or "".
func (p *page) firstText(ctx context.Context, loc browser.Locator) (string, error) {
	texts, err := p.d.Texts(ctx, loc)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", loc.Name, err)
	}
	for _, t := range texts {
		if t != "" {
			return t, nil
		}
	}
	return "", nil
}

// path returns the path component of the current URL.
func (p *page) path(ctx context.Context) (string, error) {
	u, err := p.d.CurrentURL(ctx)
	if err != nil {
		return "", fmt.Errorf("read current url: %w", err)
	}
	return urlPath(u), nil
}

// Snapshot returns the page body HTML. It is read with a fresh bound so
// diagnostics survive an expired caller context.
func (p *page) Snapshot(ctx context.Context) (string, error) {
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), snapshotTimeout)
	defer cancel()
	return p.d.OuterHTML(sctx, PageBody)
}

// visibleText is the diagnostic text of the page, or "" when unreadable.
func (p *page) visibleText(ctx context.Context) string {
	html, err := p.Snapshot(ctx)
	if err != nil {
		return ""
	}
	text, err := VisibleText(html)
	if err != nil {
		return ""
	}
	return text
}
