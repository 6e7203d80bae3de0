package session

import (
	"context"
	"errors"
	"testing"

	"grocerycheck/application/pages/pagestest"
	"grocerycheck/infrastructure/browser"
)

func TestBrowserController_ResetNotRunning(t *testing.T) {
	ctrl := NewBrowserController(pagestest.New(), pagestest.BaseURL, nil)

	if err := ctrl.Reset(context.Background()); !errors.Is(err, browser.ErrNotRunning) {
		t.Errorf("Reset() error = %v, want ErrNotRunning", err)
	}
	if err := ctrl.Stop(); err != nil {
		t.Errorf("Stop() on a stopped browser returned %v", err)
	}
}

func TestBrowserController_Reset(t *testing.T) {
	shop := pagestest.New()
	ctx := context.Background()
	if err := shop.Start(ctx); err != nil {
		t.Fatal(err)
	}
	ctrl := NewBrowserController(shop, pagestest.BaseURL+"/", nil)

	if err := ctrl.Reset(ctx); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if got := shop.StateClears(); got != 2 {
		t.Errorf("StateClears() = %d, want 2", got)
	}
	url, _ := shop.CurrentURL(ctx)
	if url != pagestest.BaseURL+"/" {
		t.Errorf("CurrentURL() = %q, want the shop origin", url)
	}

	if err := ctrl.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
	if ctrl.IsRunning() {
		t.Error("IsRunning() = true after Stop()")
	}
}
