// Package browser provides browser automation infrastructure.
package browser

import (
	"context"
	"errors"
	"time"
)

// ErrNotRunning is returned by every driver operation issued before Start or after Stop.
var ErrNotRunning = errors.New("browser not running")

// ErrNodeNotFound is returned by immediate (non-waiting) element operations
// when the locator matches nothing.
var ErrNodeNotFound = errors.New("no element matches locator")

// Driver defines the interface for DOM-level browser automation.
// Every method that touches the page honours the deadline of ctx; callers are
// expected to bound their waits, and implementations cap calls that carry no
// deadline at DriverConfig.CommandTimeout.
type Driver interface {
	// Start initializes the browser instance.
	Start(ctx context.Context) error

	// Stop closes the browser and releases resources.
	Stop() error

	// IsRunning returns true if the browser is active.
	IsRunning() bool

	// Navigate loads url in the current tab.
	Navigate(ctx context.Context, url string) error

	// Reload refreshes the current page.
	Reload(ctx context.Context) error

	// CurrentURL returns the URL of the current document.
	CurrentURL(ctx context.Context) (string, error)

	// WaitVisible blocks until the first match of loc is visible.
	WaitVisible(ctx context.Context, loc Locator) error

	// WaitPresent blocks until loc matches at least one node in the DOM.
	WaitPresent(ctx context.Context, loc Locator) error

	// WaitNotPresent blocks until loc matches nothing.
	WaitNotPresent(ctx context.Context, loc Locator) error

	// Exists reports whether loc currently matches a node. It never waits.
	Exists(ctx context.Context, loc Locator) (bool, error)

	// Count returns the number of nodes loc currently matches. It never waits.
	Count(ctx context.Context, loc Locator) (int, error)

	// Click clicks the first match of loc with a dispatched mouse event.
	Click(ctx context.Context, loc Locator) error

	// JSClick scrolls the first match of loc into view and clicks it from script.
	// Use it for controls that overlays intercept.
	JSClick(ctx context.Context, loc Locator) error

	// SendKeys types text into the first match of loc.
	SendKeys(ctx context.Context, loc Locator, text string) error

	// Clear empties the value of the first match of loc.
	Clear(ctx context.Context, loc Locator) error

	// Text returns the visible text of the first match of loc.
	Text(ctx context.Context, loc Locator) (string, error)

	// Texts returns the trimmed visible text of every current match of loc. It never waits.
	Texts(ctx context.Context, loc Locator) ([]string, error)

	// Value returns the live value property of the first match of loc, or
	// ErrNodeNotFound. It never waits.
	Value(ctx context.Context, loc Locator) (string, error)

	// Attribute returns the named attribute of the first match of loc.
	Attribute(ctx context.Context, loc Locator, name string) (string, bool, error)

	// OuterHTML returns the serialized HTML of the first match of loc.
	OuterHTML(ctx context.Context, loc Locator) (string, error)

	// Evaluate runs a script expression and decodes its result into res (res may be nil).
	Evaluate(ctx context.Context, expression string, res any) error

	// ClearCookies deletes every browser cookie.
	ClearCookies(ctx context.Context) error

	// ClearLocalStorage clears window.localStorage of the current origin.
	ClearLocalStorage(ctx context.Context) error

	// CaptureScreenshot returns a PNG of the current viewport.
	CaptureScreenshot(ctx context.Context) ([]byte, error)
}

// DriverConfig holds configuration for browser drivers.
type DriverConfig struct {
	// Headless runs the browser without a visible window.
	Headless bool

	// WindowWidth is the browser window width.
	WindowWidth int

	// WindowHeight is the browser window height.
	WindowHeight int

	// DisableGPU disables GPU acceleration.
	DisableGPU bool

	// NoSandbox disables the Chrome sandbox (needed in most containers).
	NoSandbox bool

	// AcceptDialogs auto-confirms JavaScript alert/confirm dialogs.
	AcceptDialogs bool

	// StartTimeout bounds browser launch.
	StartTimeout time.Duration

	// CommandTimeout caps any call whose context carries no deadline.
	CommandTimeout time.Duration

	// ExecPath overrides the Chrome binary; empty lets chromedp search for it.
	ExecPath string

	// UserDataDir specifies a custom user data directory.
	UserDataDir string
}

// DefaultDriverConfig returns default browser configuration.
func DefaultDriverConfig() *DriverConfig {
	return &DriverConfig{
		Headless:       true,
		WindowWidth:    1366,
		WindowHeight:   900,
		DisableGPU:     true,
		NoSandbox:      true,
		AcceptDialogs:  true,
		StartTimeout:   30 * time.Second,
		CommandTimeout: 30 * time.Second,
	}
}
