package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"grocerycheck/infrastructure/browser"
)

// BrowserController handles browser-level housekeeping for a session.
type BrowserController struct {
	driver  browser.Driver
	baseURL string
	logger  *slog.Logger
}

// NewBrowserController creates a new browser controller.
func NewBrowserController(driver browser.Driver, baseURL string, logger *slog.Logger) *BrowserController {
	if logger == nil {
		logger = slog.Default()
	}
	return &BrowserController{
		driver:  driver,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

// Reset deletes cookies and clears local storage. Local storage is per
// origin, so the shop origin is loaded first when a base URL is known.
func (c *BrowserController) Reset(ctx context.Context) error {
	if !c.driver.IsRunning() {
		return browser.ErrNotRunning
	}
	if c.baseURL != "" {
		if err := c.driver.Navigate(ctx, c.baseURL+"/"); err != nil {
			return fmt.Errorf("open %s: %w", c.baseURL, err)
		}
	}
	if err := c.driver.ClearCookies(ctx); err != nil {
		return fmt.Errorf("clear cookies: %w", err)
	}
	if err := c.driver.ClearLocalStorage(ctx); err != nil {
		return fmt.Errorf("clear local storage: %w", err)
	}
	c.logger.Debug("Browser state cleared")
	return nil
}

// Stop closes the browser if it is still running.
func (c *BrowserController) Stop() error {
	if !c.driver.IsRunning() {
		return nil
	}
	if err := c.driver.Stop(); err != nil {
		return fmt.Errorf("failed to stop browser: %w", err)
	}
	return nil
}

// IsRunning returns true if the browser is active.
func (c *BrowserController) IsRunning() bool {
	return c.driver.IsRunning()
}
