package browser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixturePage = `<!doctype html>
<html><body>
<h5>Shipment:</h5><h5 id="fee">8.00 €</h5>
<ul><li class="item">Ginger</li><li class="item">Kale</li></ul>
<input placeholder="Email address" value="">
<button id="del" onclick="if (confirm('Delete?')) { document.getElementById('gone').remove(); }">Delete</button>
<div id="gone">review</div>
<a href="/store" data-role="nav">Store</a>
</body></html>`

func startChrome(t *testing.T) (*ChromeDPDriver, string) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	found := false
	for _, name := range []string{"google-chrome", "chromium", "chromium-browser", "chrome"} {
		if _, err := exec.LookPath(name); err == nil {
			found = true
			break
		}
	}
	if !found {
		t.Skip("chrome not installed")
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(fixturePage))
	}))
	t.Cleanup(srv.Close)

	driver := NewChromeDPDriver(nil)
	require.NoError(t, driver.Start(context.Background()))
	t.Cleanup(func() { _ = driver.Stop() })
	return driver, srv.URL
}

func TestChromeDPDriver_AgainstFixture(t *testing.T) {
	driver, url := startChrome(t)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	require.NoError(t, driver.Navigate(ctx, url))

	text, err := driver.Text(ctx, XPath("fee", "//h5[text()='Shipment:']/following-sibling::h5"))
	require.NoError(t, err)
	assert.Equal(t, "8.00 €", text)

	texts, err := driver.Texts(ctx, CSS("items", "li.item"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Ginger", "Kale"}, texts)

	n, err := driver.Count(ctx, XPath("missing", "//table"))
	require.NoError(t, err)
	assert.Zero(t, n)

	href, ok, err := driver.Attribute(ctx, CSS("store link", "a[data-role=nav]"), "href")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "/store", href)

	email := XPath("email", "//input[@placeholder='Email address']")
	require.NoError(t, driver.SendKeys(ctx, email, "maria@example.com"))
	var value string
	require.NoError(t, driver.Evaluate(ctx, `document.querySelector("input").value`, &value))
	assert.Equal(t, "maria@example.com", value)

	live, err := driver.Value(ctx, email)
	require.NoError(t, err)
	assert.Equal(t, "maria@example.com", live)

	_, err = driver.Value(ctx, CSS("missing", "#missing"))
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestChromeDPDriver_AcceptsConfirmDialog(t *testing.T) {
	driver, url := startChrome(t)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	require.NoError(t, driver.Navigate(ctx, url))
	require.NoError(t, driver.JSClick(ctx, CSS("delete", "#del")))
	require.NoError(t, driver.WaitNotPresent(ctx, CSS("review", "#gone")))
}

func TestChromeDPDriver_WaitHonoursDeadline(t *testing.T) {
	driver, url := startChrome(t)
	require.NoError(t, driver.Navigate(context.Background(), url))

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	start := time.Now()
	err := driver.WaitVisible(ctx, CSS("never", "#never"))
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}
