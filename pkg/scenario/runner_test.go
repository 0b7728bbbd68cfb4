package scenario

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookqa/bookqa/pkg/action"
	"github.com/bookqa/bookqa/pkg/api"
	"github.com/bookqa/bookqa/pkg/core"
	"github.com/bookqa/bookqa/pkg/driver/mock"
	"github.com/bookqa/bookqa/pkg/report"
)

var fast = core.MustWaitPolicy(150*time.Millisecond, 10*time.Millisecond)

const storeURL = "https://www.litres.ru/"

// fakeStore renders a tiny stateful store: the cart fills once the buy
// button on a book page was clicked.
type fakeStore struct {
	mu     sync.Mutex
	inCart bool
}

func (f *fakeStore) render(d *mock.Driver, u string) {
	d.Reset()
	parsed, _ := url.Parse(u)
	switch {
	case parsed.Path == "/" || parsed.Path == "":
		d.Add(core.CSS("[data-testid='header--logo']"), &mock.Node{Tag: "a", Text: "Литрес"})
		input := &mock.Node{Tag: "input"}
		input.OnClick = func(d *mock.Driver) {
			_ = d.Navigate(context.Background(), storeURL+"search/?q="+url.QueryEscape(input.Value))
		}
		d.Add(core.CSS("input[type='search']"), input)
		d.Add(core.CSS("[href*='basket']"), &mock.Node{Tag: "a", OnClick: func(d *mock.Driver) {
			_ = d.Navigate(context.Background(), storeURL+"basket/")
		}})
		d.Add(core.CSS(".art-item"), &mock.Node{}, &mock.Node{}, &mock.Node{})
	case strings.HasPrefix(parsed.Path, "/search"):
		if strings.Contains(parsed.Query().Get("q"), "asdf") {
			d.Add(core.CSS(".no-results"), &mock.Node{Text: "Ничего не нашлось"})
			return
		}
		d.Add(core.CSS(".art-item"), &mock.Node{}, &mock.Node{})
		d.Add(core.CSS(".art-item:first-child"), &mock.Node{OnClick: func(d *mock.Driver) {
			_ = d.Navigate(context.Background(), storeURL+"book/some-book/")
		}})
	case strings.HasPrefix(parsed.Path, "/book"):
		d.Add(core.CSS("h1"), &mock.Node{Tag: "h1", Text: "Война и мир"})
		d.Add(core.CSS("[class*='buy']"), &mock.Node{Overlay: true, OnClick: func(*mock.Driver) {
			f.mu.Lock()
			f.inCart = true
			f.mu.Unlock()
		}})
	case strings.HasPrefix(parsed.Path, "/basket"):
		d.Add(core.CSS("h1"), &mock.Node{Tag: "h1", Text: "Корзина"})
		f.mu.Lock()
		full := f.inCart
		f.mu.Unlock()
		if full {
			d.Add(core.CSS(".cart-item"), &mock.Node{Text: "Война и мир"})
			return
		}
		d.Add(core.CSS(".empty-cart"), &mock.Node{})
		d.Add(core.CSS(".empty-cart h2"), &mock.Node{Tag: "h2", Text: "Корзина пуста"})
	}
}

// trackingDriver counts open sessions.
type trackingDriver struct {
	*mock.Driver
	onClose func()
	once    sync.Once
}

func (t *trackingDriver) Close() error {
	t.once.Do(t.onClose)
	return t.Driver.Close()
}

type driverPool struct {
	opened  atomic.Int32
	closed  atomic.Int32
	active  atomic.Int32
	maxSeen atomic.Int32
}

func (p *driverPool) open(ctx context.Context) (core.Driver, error) {
	store := &fakeStore{}
	drv := mock.New(mock.Config{OnNavigate: store.render})
	p.opened.Add(1)
	n := p.active.Add(1)
	for {
		m := p.maxSeen.Load()
		if n <= m || p.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}
	return &trackingDriver{Driver: drv, onClose: func() {
		p.active.Add(-1)
		p.closed.Add(1)
	}}, nil
}

func fakeAPI(t *testing.T) *api.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"payload":{"data":[]}}`))
	}))
	t.Cleanup(srv.Close)
	return api.NewClient(api.Options{BaseURL: srv.URL})
}

func newRunner(t *testing.T, pool *driverPool, mutate func(*RunnerConfig)) (*Runner, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "allure-results")
	cfg := RunnerConfig{
		ResultsDir: dir,
		BaseURL:    storeURL,
		Policy:     fast,
		Artifacts:  core.DefaultArtifactConfig(),
		OpenDriver: pool.open,
		API:        fakeAPI(t),
		DriverName: "mock",
	}
	if mutate != nil {
		mutate(&cfg)
	}
	r, err := NewRunner(cfg)
	require.NoError(t, err)
	return r, dir
}

func readResults(t *testing.T, dir string) map[string]report.AllureResult {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "*-result.json"))
	require.NoError(t, err)
	out := map[string]report.AllureResult{}
	for _, m := range matches {
		data, err := os.ReadFile(m)
		require.NoError(t, err)
		var r report.AllureResult
		require.NoError(t, json.Unmarshal(data, &r))
		out[r.UUID] = r
	}
	return out
}

func TestRunner_CatalogAgainstFakes(t *testing.T) {
	pool := &driverPool{}
	r, dir := newRunner(t, pool, nil)

	suite := Catalog()
	res, err := r.Run(context.Background(), suite)
	require.NoError(t, err)

	for _, sr := range res.Results {
		assert.Equal(t, core.StatusPassed, sr.Status, "%s: %v", sr.FullName, sr.Err)
	}
	assert.True(t, res.OK())
	assert.Equal(t, len(suite), res.Total)
	assert.Equal(t, len(suite), res.Passed)

	ui := len(Filter(suite, []string{"ui"}, nil, nil))
	assert.Equal(t, int32(ui), pool.opened.Load(), "one driver per UI scenario")
	assert.Equal(t, int32(ui), pool.closed.Load(), "every driver released")

	results := readResults(t, dir)
	assert.Len(t, results, len(suite))

	for _, name := range []string{"summary.json", "report.html", "categories.json", "environment.properties", "executor.json"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
	summary, err := report.ReadSummary(dir)
	require.NoError(t, err)
	assert.Equal(t, len(suite), summary.Passed)
	assert.Equal(t, "mock", summary.Driver)
}

func TestRunner_UIArtifactsAndLabels(t *testing.T) {
	pool := &driverPool{}
	r, dir := newRunner(t, pool, nil)

	suite := Filter(Catalog(), []string{"ui"}, []string{"smoke"}, nil)[:1]
	res, err := r.Run(context.Background(), suite)
	require.NoError(t, err)
	require.Len(t, res.Results, 1)

	got := readResults(t, dir)[res.Results[0].ResultID]
	assert.Equal(t, "passed", got.Status)

	var names []string
	for _, a := range got.Attachments {
		names = append(names, a.Name)
	}
	assert.Contains(t, names, core.AttachmentScreenshot)
	assert.Contains(t, names, core.AttachmentPageSource)
	assert.Contains(t, names, core.AttachmentBrowserLogs)

	labels := map[string]string{}
	for _, l := range got.Labels {
		labels[l.Name] = l.Value
	}
	assert.Equal(t, epicUI, labels["epic"])
	assert.Equal(t, "critical", labels["severity"])
	assert.Equal(t, "ui", labels["suite"])
	require.NotEmpty(t, got.Steps)
	assert.Equal(t, "Открытие главной страницы", got.Steps[0].Name)
}

func TestRunner_StatusClassification(t *testing.T) {
	pool := &driverPool{}
	r, dir := newRunner(t, pool, nil)

	suite := []Scenario{
		{Name: "check fails", Kind: KindFiles, Run: func(_ context.Context, env *Env) error {
			one := 1
			return env.Step("compare", func() error { return env.Checkf(one == 2, "one is not two") })
		}},
		{Name: "unexpected error", Kind: KindFiles, Run: func(context.Context, *Env) error {
			return errors.New("disk on fire")
		}},
		{Name: "panics", Kind: KindFiles, Run: func(context.Context, *Env) error {
			panic("boom")
		}},
		{Name: "skips", Kind: KindFiles, Run: func(context.Context, *Env) error {
			return Skipf("not today")
		}},
		{Name: "element missing", Kind: KindUI, Run: func(ctx context.Context, env *Env) error {
			return env.Session.Click(ctx, core.NewTarget("ghost", core.CSS(".ghost")), action.ClickOptions{}).Err()
		}},
		{Name: "http status", Kind: KindAPI, Run: func(ctx context.Context, env *Env) error {
			resp, err := env.API.GetCart(ctx)
			if err != nil {
				return err
			}
			return resp.ExpectStatus(http.StatusTeapot)
		}},
	}
	res, err := r.Run(context.Background(), suite)
	require.NoError(t, err)

	want := []core.StepStatus{
		core.StatusFailed, core.StatusErrored, core.StatusErrored,
		core.StatusSkipped, core.StatusFailed, core.StatusFailed,
	}
	for i, sr := range res.Results {
		assert.Equal(t, want[i], sr.Status, sr.Name)
	}
	assert.Equal(t, 3, res.Failed)
	assert.Equal(t, 2, res.Broken)
	assert.Equal(t, 1, res.Skipped)
	assert.False(t, res.OK())

	results := readResults(t, dir)
	check := results[res.Results[0].ResultID]
	assert.Equal(t, "failed", check.Status)
	assert.Contains(t, check.StatusDetails.Message, "one is not two")
	assert.Equal(t, "broken", results[res.Results[2].ResultID].Status)
	assert.Contains(t, results[res.Results[2].ResultID].StatusDetails.Message, "boom")

	// The UI failure still released its driver.
	assert.Equal(t, int32(1), pool.closed.Load())
}

func TestRunner_StopOnFail(t *testing.T) {
	pool := &driverPool{}
	r, _ := newRunner(t, pool, func(c *RunnerConfig) { c.StopOnFail = true })

	ran := 0
	body := func(context.Context, *Env) error { ran++; return nil }
	suite := []Scenario{
		{Name: "first", Kind: KindFiles, Run: body},
		{Name: "breaks", Kind: KindFiles, Run: func(context.Context, *Env) error { return errors.New("x") }},
		{Name: "never", Kind: KindFiles, Run: body},
	}
	res, err := r.Run(context.Background(), suite)
	require.NoError(t, err)
	assert.Equal(t, 1, ran)
	assert.Equal(t, core.StatusSkipped, res.Results[2].Status)
	assert.ErrorIs(t, res.Results[2].Err, ErrSkip)
}

func TestRunner_ParallelBoundsDrivers(t *testing.T) {
	pool := &driverPool{}
	r, _ := newRunner(t, pool, func(c *RunnerConfig) { c.Parallelism = 2 })

	var suite []Scenario
	for i := 0; i < 6; i++ {
		suite = append(suite, Scenario{Name: "wait", Kind: KindUI, Run: func(ctx context.Context, env *Env) error {
			time.Sleep(30 * time.Millisecond)
			return env.Pages.Main.Open(ctx)
		}})
	}

	var started atomic.Int32
	r.config.OnScenarioStart = func(int, int, Scenario) { started.Add(1) }

	res, err := r.Run(context.Background(), suite)
	require.NoError(t, err)
	assert.Equal(t, 6, res.Passed)
	assert.Equal(t, int32(6), started.Load())
	assert.LessOrEqual(t, pool.maxSeen.Load(), int32(2))
	assert.Equal(t, int32(6), pool.closed.Load())
}

func TestRunner_CancelledRunSkipsRest(t *testing.T) {
	pool := &driverPool{}
	r, _ := newRunner(t, pool, nil)

	ctx, cancel := context.WithCancel(context.Background())
	suite := []Scenario{
		{Name: "cancels", Kind: KindFiles, Run: func(context.Context, *Env) error { cancel(); return nil }},
		{Name: "after", Kind: KindFiles, Run: func(context.Context, *Env) error { return nil }},
	}
	res, err := r.Run(ctx, suite)
	require.NoError(t, err)
	assert.Equal(t, core.StatusPassed, res.Results[0].Status)
	assert.Equal(t, core.StatusSkipped, res.Results[1].Status)
}

func TestRunner_MissingDriverIsBroken(t *testing.T) {
	pool := &driverPool{}
	r, _ := newRunner(t, pool, func(c *RunnerConfig) { c.OpenDriver = nil })

	res, err := r.Run(context.Background(), []Scenario{{Name: "ui", Kind: KindUI, Run: func(context.Context, *Env) error { return nil }}})
	require.NoError(t, err)
	assert.Equal(t, core.StatusErrored, res.Results[0].Status)
	assert.ErrorIs(t, res.Results[0].Err, core.ErrMissingRequired)
}

func TestRunner_TempDirsRemoved(t *testing.T) {
	pool := &driverPool{}
	r, _ := newRunner(t, pool, nil)

	var dir string
	_, err := r.Run(context.Background(), []Scenario{{Name: "tmp", Kind: KindFiles, Run: func(_ context.Context, env *Env) error {
		var err error
		dir, err = env.TempDir()
		return err
	}}})
	require.NoError(t, err)
	require.NotEmpty(t, dir)
	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

func TestNewRunner_Validation(t *testing.T) {
	_, err := NewRunner(RunnerConfig{})
	assert.ErrorIs(t, err, core.ErrMissingRequired)

	_, err = NewRunner(RunnerConfig{ResultsDir: t.TempDir(), Policy: core.WaitPolicy{Timeout: time.Millisecond, PollInterval: time.Second}})
	assert.ErrorIs(t, err, core.ErrInvalidPolicy)
}
