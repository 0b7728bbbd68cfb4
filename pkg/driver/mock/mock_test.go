package mock

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bookqa/bookqa/pkg/core"
)

func TestFindElements_AppearAfter(t *testing.T) {
	loc := core.CSS("h1")
	d := New(Config{}).Add(loc, &Node{Text: "late", AppearAfter: 30 * time.Millisecond})
	ctx := context.Background()

	els, err := d.FindElements(ctx, loc)
	if err != nil || len(els) != 0 {
		t.Fatalf("FindElements() = %d, %v; want 0 elements before appearance", len(els), err)
	}

	time.Sleep(40 * time.Millisecond)
	els, _ = d.FindElements(ctx, loc)
	if len(els) != 1 {
		t.Fatalf("FindElements() = %d elements, want 1", len(els))
	}
	if txt, _ := els[0].Text(ctx); txt != "late" {
		t.Errorf("Text() = %q, want late", txt)
	}
}

func TestFindElements_FailQuery(t *testing.T) {
	loc := core.CSS("a")
	d := New(Config{})
	d.FailQuery(loc, core.ErrInvalidLocator)

	if _, err := d.FindElements(context.Background(), loc); !errors.Is(err, core.ErrInvalidLocator) {
		t.Errorf("FindElements() error = %v, want ErrInvalidLocator", err)
	}
}

func TestElement_StaleAfterDetach(t *testing.T) {
	loc := core.CSS("button")
	n := &Node{}
	d := New(Config{}).Add(loc, n)
	ctx := context.Background()

	els, _ := d.FindElements(ctx, loc)
	d.Detach(n)

	if _, err := els[0].Displayed(ctx); !errors.Is(err, core.ErrStaleElement) {
		t.Errorf("Displayed() error = %v, want ErrStaleElement", err)
	}

	fresh, _ := d.FindElements(ctx, loc)
	if ok, err := fresh[0].Displayed(ctx); err != nil || !ok {
		t.Errorf("fresh Displayed() = %v, %v", ok, err)
	}
}

func TestElement_Overlay(t *testing.T) {
	loc := core.CSS("button")
	clicked := 0
	d := New(Config{}).Add(loc, &Node{Overlay: true, OnClick: func(*Driver) { clicked++ }})
	ctx := context.Background()

	els, _ := d.FindElements(ctx, loc)
	if err := els[0].Click(ctx); !errors.Is(err, core.ErrElementNotInteractable) {
		t.Fatalf("Click() error = %v, want ErrElementNotInteractable", err)
	}
	if err := els[0].ClickScript(ctx); err != nil {
		t.Fatalf("ClickScript() error = %v", err)
	}
	if clicked != 1 {
		t.Errorf("OnClick ran %d times, want 1", clicked)
	}
	st := d.Stats()
	if st.Intercepted != 1 || st.ScriptClicks != 1 || st.Clicks != 0 {
		t.Errorf("Stats() = %+v", st)
	}
}

func TestElement_StaleClicks(t *testing.T) {
	loc := core.CSS("button")
	d := New(Config{}).Add(loc, &Node{StaleClicks: 1})
	ctx := context.Background()

	els, _ := d.FindElements(ctx, loc)
	if err := els[0].Click(ctx); !errors.Is(err, core.ErrStaleElement) {
		t.Fatalf("first Click() error = %v, want stale", err)
	}
	if err := els[0].Click(ctx); !errors.Is(err, core.ErrStaleElement) {
		t.Fatalf("old handle Click() error = %v, want stale", err)
	}
	els, _ = d.FindElements(ctx, loc)
	if err := els[0].Click(ctx); err != nil {
		t.Fatalf("fresh Click() error = %v", err)
	}
}

func TestElement_StaleOps(t *testing.T) {
	loc := core.CSS("h1")
	d := New(Config{}).Add(loc, &Node{Text: "Корзина", StaleOps: 1})
	ctx := context.Background()

	els, _ := d.FindElements(ctx, loc)
	if shown, err := els[0].Displayed(ctx); err != nil || !shown {
		t.Fatalf("Displayed() = %v, %v; checks must not spend the budget", shown, err)
	}
	if _, err := els[0].Text(ctx); !errors.Is(err, core.ErrStaleElement) {
		t.Fatalf("first Text() error = %v, want stale", err)
	}
	els, _ = d.FindElements(ctx, loc)
	if got, err := els[0].Text(ctx); err != nil || got != "Корзина" {
		t.Fatalf("fresh Text() = %q, %v", got, err)
	}
}

func TestExecuteScript_ReadyState(t *testing.T) {
	d := New(Config{ReadyAfter: 30 * time.Millisecond})
	ctx := context.Background()
	_ = d.Navigate(ctx, "https://www.litres.ru/")

	state, _ := d.ExecuteScript(ctx, "return document.readyState")
	if state != "loading" {
		t.Errorf("readyState = %v, want loading", state)
	}
	time.Sleep(40 * time.Millisecond)
	state, _ = d.ExecuteScript(ctx, "return document.readyState")
	if state != "complete" {
		t.Errorf("readyState = %v, want complete", state)
	}
}

func TestNavigate_Hook(t *testing.T) {
	loc := core.CSS("h1")
	d := New(Config{OnNavigate: func(d *Driver, url string) {
		d.Reset()
		d.Add(loc, &Node{Text: url})
	}})
	ctx := context.Background()
	_ = d.Navigate(ctx, "https://www.litres.ru/basket/")

	els, _ := d.FindElements(ctx, loc)
	if len(els) != 1 {
		t.Fatalf("got %d elements, want 1", len(els))
	}
	if u, _ := d.CurrentURL(ctx); u != "https://www.litres.ru/basket/" {
		t.Errorf("CurrentURL() = %q", u)
	}
	if got := d.Navigated(); len(got) != 1 {
		t.Errorf("Navigated() = %v", got)
	}
}

func TestSendKeys_Enter(t *testing.T) {
	loc := core.CSS("input")
	submitted := false
	n := &Node{OnClick: func(*Driver) { submitted = true }}
	d := New(Config{}).Add(loc, n)
	ctx := context.Background()

	els, _ := d.FindElements(ctx, loc)
	_ = els[0].SendKeys(ctx, "Толстой")
	_ = els[0].SendKeys(ctx, core.KeyEnter)

	if n.Value != "Толстой" {
		t.Errorf("Value = %q", n.Value)
	}
	if !submitted {
		t.Error("Enter did not submit")
	}
}

func TestClose(t *testing.T) {
	d := New(Config{})
	_ = d.Close()
	if !d.Closed() {
		t.Error("Closed() = false")
	}
	if _, err := d.FindElements(context.Background(), core.CSS("a")); !errors.Is(err, core.ErrSessionClosed) {
		t.Errorf("FindElements() after Close error = %v", err)
	}
}

func TestPageSourceAndLogs(t *testing.T) {
	d := New(Config{}).Add(core.CSS("h1"), &Node{Tag: "h1", Text: "Корзина"})
	d.AddLog("SEVERE", "boom")
	ctx := context.Background()

	src, _ := d.PageSource(ctx)
	if !strings.Contains(src, "Корзина") {
		t.Errorf("PageSource() = %q", src)
	}
	logs, _ := d.BrowserLogs(ctx)
	if len(logs) != 1 || logs[0].Message != "boom" {
		t.Errorf("BrowserLogs() = %+v", logs)
	}
	logs, _ = d.BrowserLogs(ctx)
	if len(logs) != 0 {
		t.Error("BrowserLogs() should drain")
	}
}
