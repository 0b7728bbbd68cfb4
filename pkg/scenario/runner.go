package scenario

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/bookqa/bookqa/pkg/action"
	"github.com/bookqa/bookqa/pkg/api"
	"github.com/bookqa/bookqa/pkg/core"
	"github.com/bookqa/bookqa/pkg/logger"
	"github.com/bookqa/bookqa/pkg/pages"
	"github.com/bookqa/bookqa/pkg/report"
)

// artifactTimeout bounds artifact capture after a scenario, including after
// the run context was cancelled.
const artifactTimeout = 30 * time.Second

// RunnerConfig configures the suite runner.
type RunnerConfig struct {
	ResultsDir  string // Allure results directory
	Parallelism int    // Max concurrent scenarios (0 or 1 = sequential)
	StopOnFail  bool   // Skip scenarios not yet started after the first failure

	BaseURL   string
	Policy    core.WaitPolicy // zero uses core.DefaultWaitPolicy
	Artifacts core.ArtifactConfig

	// OpenDriver provisions one browser per UI scenario.
	OpenDriver action.OpenFunc
	// API is shared by API scenarios; each scenario gets a copy attaching
	// to its own result.
	API *api.Client

	// Run metadata for the report
	DriverName  string
	BuildName   string
	Environment map[string]string

	// Live progress callbacks
	OnScenarioStart func(idx, total int, s Scenario)
	OnScenarioEnd   func(idx, total int, r ScenarioResult)
}

// ScenarioResult is the outcome of one scenario.
type ScenarioResult struct {
	Name     string
	FullName string
	Kind     Kind
	Status   core.StepStatus
	Duration time.Duration
	Err      error
	ResultID string
	Tags     []string
}

// RunResult contains the outcome of a suite run.
type RunResult struct {
	Total    int
	Passed   int
	Failed   int
	Broken   int
	Skipped  int
	Duration time.Duration
	Results  []ScenarioResult
	Summary  *report.Summary
}

// OK reports whether nothing failed or broke.
func (r *RunResult) OK() bool {
	return r.Failed == 0 && r.Broken == 0
}

// Runner executes scenarios and records their results.
type Runner struct {
	config RunnerConfig
	rec    *report.Recorder
}

// NewRunner creates the results directory and a runner writing into it.
func NewRunner(cfg RunnerConfig) (*Runner, error) {
	if cfg.ResultsDir == "" {
		return nil, core.ErrMissingRequired.WithMessage("results directory is not set")
	}
	if cfg.Policy.IsZero() {
		cfg.Policy = core.DefaultWaitPolicy
	}
	if err := cfg.Policy.Validate(); err != nil {
		return nil, err
	}
	rec, err := report.NewRecorder(cfg.ResultsDir)
	if err != nil {
		return nil, err
	}
	return &Runner{config: cfg, rec: rec}, nil
}

// Run executes all scenarios and writes the run-level report files.
func (r *Runner) Run(ctx context.Context, scenarios []Scenario) (*RunResult, error) {
	start := time.Now()
	results := r.executeScenarios(ctx, scenarios)
	end := time.Now()

	res := r.buildRunResult(results, end.Sub(start))
	res.Summary = r.buildSummary(results, start, end)

	if err := r.writeReports(res.Summary); err != nil {
		return res, err
	}
	return res, nil
}

// executeScenarios runs scenarios either sequentially or in parallel.
func (r *Runner) executeScenarios(ctx context.Context, scenarios []Scenario) []ScenarioResult {
	results := make([]ScenarioResult, len(scenarios))
	total := len(scenarios)

	if r.config.Parallelism <= 1 {
		// Sequential execution
		stop := false
		for i := range scenarios {
			if stop || ctx.Err() != nil {
				results[i] = r.skipScenario(scenarios[i], "run stopped")
				continue
			}
			results[i] = r.executeScenario(ctx, scenarios[i], i, total)
			if r.config.StopOnFail && failed(results[i].Status) {
				stop = true
			}
		}
		return results
	}

	// Parallel execution with semaphore
	sem := make(chan struct{}, r.config.Parallelism)
	var wg sync.WaitGroup
	var mu sync.Mutex
	stopAll := false

	for i := range scenarios {
		// Acquire before checking, so scenarios queued behind a failure skip
		sem <- struct{}{}
		mu.Lock()
		shouldStop := stopAll
		mu.Unlock()
		if shouldStop || ctx.Err() != nil {
			<-sem
			results[i] = r.skipScenario(scenarios[i], "run stopped")
			continue
		}

		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()

			result := r.executeScenario(ctx, scenarios[idx], idx, total)
			results[idx] = result

			if r.config.StopOnFail && failed(result.Status) {
				mu.Lock()
				stopAll = true
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	return results
}

func failed(s core.StepStatus) bool {
	return s == core.StatusFailed || s == core.StatusErrored
}

func labelsFor(s Scenario) []report.AllureLabel {
	labels := []report.AllureLabel{
		report.Label("epic", s.Epic),
		report.Label("feature", s.Feature),
		report.Label("story", s.Story),
		report.Label("suite", string(s.Kind)),
	}
	if s.Severity != "" {
		labels = append(labels, report.Label("severity", string(s.Severity)))
	}
	for _, t := range s.Tags {
		labels = append(labels, report.Label("tag", t))
	}
	return labels
}

func (r *Runner) startCase(s Scenario) *report.TestCase {
	tc := r.rec.Start(s.Name, s.FullName(), labelsFor(s)...)
	for _, p := range s.Params {
		tc.AddParameter(p.Name, p.Value)
	}
	return tc
}

// skipScenario records a scenario that never ran.
func (r *Runner) skipScenario(s Scenario, reason string) ScenarioResult {
	tc := r.startCase(s)
	err := Skipf("%s", reason)
	if _, wErr := tc.Finish(core.StatusSkipped, err); wErr != nil {
		logger.Warn("recording skipped scenario %s: %v", s.Name, wErr)
	}
	return ScenarioResult{
		Name:     s.Name,
		FullName: s.FullName(),
		Kind:     s.Kind,
		Status:   core.StatusSkipped,
		Err:      err,
		ResultID: tc.UUID(),
		Tags:     s.Tags,
	}
}

// executeScenario runs one scenario with its own collaborators and writes
// its Allure result.
func (r *Runner) executeScenario(ctx context.Context, s Scenario, idx, total int) ScenarioResult {
	if r.config.OnScenarioStart != nil {
		r.config.OnScenarioStart(idx, total, s)
	}
	logger.Info("scenario %d/%d: %s", idx+1, total, s.FullName())

	tc := r.startCase(s)
	started := time.Now()

	status, err := r.runWithEnv(ctx, s, tc)

	if _, wErr := tc.Finish(status, err); wErr != nil {
		logger.Warn("recording scenario %s: %v", s.Name, wErr)
	}

	result := ScenarioResult{
		Name:     s.Name,
		FullName: s.FullName(),
		Kind:     s.Kind,
		Status:   status,
		Duration: time.Since(started),
		Err:      err,
		ResultID: tc.UUID(),
		Tags:     s.Tags,
	}
	if err != nil {
		logger.Info("scenario %s: %s: %v", s.Name, status, err)
	} else {
		logger.Info("scenario %s: %s (%s)", s.Name, status, result.Duration.Round(time.Millisecond))
	}
	if r.config.OnScenarioEnd != nil {
		r.config.OnScenarioEnd(idx, total, result)
	}
	return result
}

// runWithEnv builds the scenario's environment, runs it and tears the
// environment down on every exit path.
func (r *Runner) runWithEnv(ctx context.Context, s Scenario, tc *report.TestCase) (status core.StepStatus, err error) {
	env := &Env{rec: tc, tempDir: os.TempDir()}
	defer env.cleanup()

	switch s.Kind {
	case KindUI:
		if r.config.OpenDriver == nil {
			return core.StatusErrored, core.ErrMissingRequired.WithMessage("no browser driver configured")
		}
		session, release, aErr := action.Acquire(ctx, r.config.OpenDriver,
			action.WithPolicy(r.config.Policy),
			action.WithSink(tc),
			action.WithBaseURL(r.config.BaseURL),
		)
		if aErr != nil {
			return core.StatusErrored, aErr
		}
		defer func() {
			if cErr := release(); cErr != nil {
				logger.Warn("releasing session for %s: %v", s.Name, cErr)
			}
		}()
		defer func() {
			if r.config.Artifacts.ShouldCapture(status) {
				actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), artifactTimeout)
				defer cancel()
				_ = session.CaptureArtifacts(actx, r.config.Artifacts)
			}
		}()
		env.Session = session
		env.Pages = pages.New(session, r.config.BaseURL, core.WaitPolicy{})
	case KindAPI:
		client := r.config.API
		if client == nil {
			client = api.NewClient(api.Options{})
		}
		env.API = client.WithSink(tc)
	case KindFiles:
	default:
		return core.StatusErrored, core.ErrInvalidConfig.WithMessage(fmt.Sprintf("unknown scenario kind %q", s.Kind))
	}

	err = safeRun(ctx, s, env)
	return statusFor(err), err
}

// safeRun turns a panic in a scenario body into an error.
func safeRun(ctx context.Context, s Scenario, env *Env) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("scenario panicked: %v", p)
		}
	}()
	if s.Run == nil {
		return core.ErrMissingRequired.WithMessage("scenario has no body")
	}
	return s.Run(ctx, env)
}

func statusFor(err error) core.StepStatus {
	if errors.Is(err, ErrSkip) {
		return core.StatusSkipped
	}
	return core.StatusOf(err)
}

// buildRunResult aggregates scenario results into a run result.
func (r *Runner) buildRunResult(results []ScenarioResult, wall time.Duration) *RunResult {
	res := &RunResult{
		Total:    len(results),
		Results:  results,
		Duration: wall,
	}
	for _, sr := range results {
		switch sr.Status {
		case core.StatusPassed, core.StatusWarned:
			res.Passed++
		case core.StatusFailed:
			res.Failed++
		case core.StatusErrored:
			res.Broken++
		case core.StatusSkipped:
			res.Skipped++
		}
	}
	return res
}

func (r *Runner) buildSummary(results []ScenarioResult, start, end time.Time) *report.Summary {
	s := &report.Summary{
		StartTime: start,
		EndTime:   end,
		Driver:    r.config.DriverName,
		BaseURL:   r.config.BaseURL,
	}
	for _, sr := range results {
		e := report.ScenarioEntry{
			Name:     sr.Name,
			FullName: sr.FullName,
			Kind:     string(sr.Kind),
			Status:   report.AllureStatus(sr.Status),
			Duration: sr.Duration.Milliseconds(),
			Tags:     sr.Tags,
			ResultID: sr.ResultID,
		}
		if sr.Err != nil {
			e.Error = sr.Err.Error()
		}
		s.Add(e)
	}
	return s
}

// writeReports writes the run-level files next to the scenario results.
func (r *Runner) writeReports(s *report.Summary) error {
	dir := r.rec.Dir()
	env := map[string]string{
		"base.url": r.config.BaseURL,
		"driver":   r.config.DriverName,
	}
	if r.config.API != nil {
		env["api.url"] = r.config.API.BaseURL()
	}
	for k, v := range r.config.Environment {
		env[k] = v
	}

	return errors.Join(
		report.WriteSummary(dir, s),
		report.GenerateHTML(dir, s, report.HTMLConfig{}),
		report.WriteCategories(dir),
		report.WriteEnvironment(dir, env),
		report.WriteExecutor(dir, r.config.BuildName),
	)
}
