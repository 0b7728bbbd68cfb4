package playwright

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookqa/bookqa/pkg/core"
)

func TestSelector(t *testing.T) {
	assert.Equal(t, "css=.art-item", selector(core.CSS(".art-item")))
	assert.Equal(t, "xpath=//h1", selector(core.XPath("//h1")))
}

func TestWrapScript(t *testing.T) {
	assert.Equal(t, "(arguments) => { return document.readyState }", wrapScript("return document.readyState"))
}

func TestConsoleLevel(t *testing.T) {
	assert.Equal(t, "SEVERE", consoleLevel("error"))
	assert.Equal(t, "WARNING", consoleLevel("warning"))
	assert.Equal(t, "INFO", consoleLevel("log"))
}

func TestMapError(t *testing.T) {
	assert.NoError(t, mapError(nil))
	assert.ErrorIs(t, mapError(errors.New("Element is not attached to the DOM")), core.ErrStaleElement)
	assert.ErrorIs(t, mapError(errors.New("<div class=overlay> intercepts pointer events")), core.ErrElementNotInteractable)
	assert.ErrorIs(t, mapError(errors.New("Target page, context or browser has been closed")), core.ErrSessionClosed)

	plain := errors.New("boom")
	assert.Same(t, plain, mapError(plain))
}

func TestTimeoutMillis(t *testing.T) {
	assert.Nil(t, timeoutMillis(context.Background(), 0))
	assert.Equal(t, 1000.0, *timeoutMillis(context.Background(), time.Second))

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	got := timeoutMillis(ctx, time.Second)
	require.NotNil(t, got)
	assert.LessOrEqual(t, *got, 200.0)

	budget := core.WithAttemptBudget(context.Background(), 100*time.Millisecond)
	assert.Equal(t, 100.0, *timeoutMillis(budget, time.Second))
	assert.Equal(t, 50.0, *timeoutMillis(budget, 50*time.Millisecond))
}

// TestDriver_Chromium needs installed browsers:
//
//	go run github.com/playwright-community/playwright-go/cmd/playwright install chromium
func TestDriver_Chromium(t *testing.T) {
	if os.Getenv("BOOKQA_PLAYWRIGHT") == "" {
		t.Skip("set BOOKQA_PLAYWRIGHT=1 to run against a local chromium")
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><body>
<h1>Война и мир</h1>
<input type="search">
<button id="buy" onclick="console.error('bought'); this.textContent='В корзине'">Купить</button>
</body></html>`))
	}))
	defer server.Close()

	ctx := context.Background()
	d, err := New(ctx, DefaultOptions())
	require.NoError(t, err)
	defer d.Close()

	require.NoError(t, d.Navigate(ctx, server.URL))
	state, err := d.ExecuteScript(ctx, "return document.readyState")
	require.NoError(t, err)
	assert.Equal(t, "complete", state)

	els, err := d.FindElements(ctx, core.XPath("//h1"))
	require.NoError(t, err)
	require.Len(t, els, 1)
	txt, err := els[0].Text(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Война и мир", txt)

	buttons, err := d.FindElements(ctx, core.CSS("#buy"))
	require.NoError(t, err)
	require.NoError(t, buttons[0].Click(ctx))
	txt, _ = buttons[0].Text(ctx)
	assert.Equal(t, "В корзине", txt)

	logs, err := d.BrowserLogs(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, logs)
	assert.Equal(t, "SEVERE", logs[0].Level)

	png, err := d.Screenshot(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, png)
}
