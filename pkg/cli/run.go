package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/bookqa/bookqa/pkg/action"
	"github.com/bookqa/bookqa/pkg/api"
	"github.com/bookqa/bookqa/pkg/config"
	"github.com/bookqa/bookqa/pkg/core"
	playwrightdriver "github.com/bookqa/bookqa/pkg/driver/playwright"
	"github.com/bookqa/bookqa/pkg/driver/webdriver"
	"github.com/bookqa/bookqa/pkg/logger"
	"github.com/bookqa/bookqa/pkg/scenario"
)

// selectionFlags choose scenarios; shared by run and list.
var selectionFlags = []cli.Flag{
	&cli.StringSliceFlag{
		Name:  "kind",
		Usage: "Only run these scenario kinds (ui, api, files)",
	},
	&cli.StringSliceFlag{
		Name:  "include-tags",
		Usage: "Only include scenarios with these tags",
	},
	&cli.StringSliceFlag{
		Name:  "exclude-tags",
		Usage: "Exclude scenarios with these tags",
	},
}

var runCommand = &cli.Command{
	Name:  "run",
	Usage: "Run the QA suite and write Allure results",
	Description: `Run the UI, API and file scenarios.

UI scenarios need a browser: a Selenoid grid (SELENOID_URL, SELENOID_LOGIN,
SELENOID_PASS) for the webdriver backend, or a local Chromium with
--driver playwright. Results go to the Allure results directory
(default ./allure-results).

Examples:
  bookqa run
  bookqa run --kind api
  bookqa run --include-tags smoke --parallel 4
  bookqa --driver playwright run --kind ui --headless=false`,
	Flags: append([]cli.Flag{
		&cli.IntFlag{
			Name:  "parallel",
			Usage: "Run up to N scenarios at once",
		},
		&cli.StringFlag{
			Name:  "results-dir",
			Usage: "Allure results directory",
		},
		&cli.StringFlag{
			Name:  "base-url",
			Usage: "Store front URL",
		},
		&cli.BoolFlag{
			Name:  "stop-on-fail",
			Usage: "Skip remaining scenarios after the first failure",
		},
		&cli.BoolFlag{
			Name:  "headless",
			Usage: "Run the local browser headless (playwright only)",
			Value: true,
		},
	}, selectionFlags...),
	Action: runSuite,
}

// Helpers to get a flag value from the current or parent context. Global
// flags live in the parent context when run as a subcommand.
func getString(c *cli.Context, name string) string {
	if c.IsSet(name) {
		return c.String(name)
	}
	for _, p := range c.Lineage()[1:] {
		if p != nil && p.IsSet(name) {
			return p.String(name)
		}
	}
	return c.String(name)
}

func getBool(c *cli.Context, name string) bool {
	if c.IsSet(name) {
		return c.Bool(name)
	}
	for _, p := range c.Lineage()[1:] {
		if p != nil && p.IsSet(name) {
			return p.Bool(name)
		}
	}
	return c.Bool(name)
}

// loadConfig builds the configuration: defaults, workspace file, .env,
// environment, then command-line flags.
func loadConfig(c *cli.Context) (*config.Config, error) {
	if err := config.LoadEnvFile(getString(c, "env-file")); err != nil {
		return nil, err
	}

	var cfg *config.Config
	var err error
	if path := getString(c, "config"); path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.LoadFromDir(".")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}

	if d := getString(c, "driver"); d != "" {
		cfg.Browser.Driver = d
	}
	if c.IsSet("kind") {
		cfg.Kinds = c.StringSlice("kind")
	}
	if c.IsSet("include-tags") {
		cfg.IncludeTags = c.StringSlice("include-tags")
	}
	if c.IsSet("exclude-tags") {
		cfg.ExcludeTags = c.StringSlice("exclude-tags")
	}
	return cfg, nil
}

func selectScenarios(cfg *config.Config) []scenario.Scenario {
	return scenario.Filter(scenario.Catalog(), cfg.Kinds, cfg.IncludeTags, cfg.ExcludeTags)
}

func runSuite(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if c.IsSet("parallel") {
		cfg.Parallel = c.Int("parallel")
	}
	if c.IsSet("results-dir") {
		cfg.ResultsDir = c.String("results-dir")
	}
	if c.IsSet("base-url") {
		cfg.BaseURL = c.String("base-url")
	}
	if c.IsSet("headless") {
		cfg.Browser.Headless = c.Bool("headless")
	}

	scenarios := selectScenarios(cfg)
	if len(scenarios) == 0 {
		return fmt.Errorf("no scenarios match the selection")
	}
	if err := cfg.Validate(scenario.NeedsBrowser(scenarios)); err != nil {
		return err
	}
	return executeSuite(c, cfg, scenarios)
}

func executeSuite(c *cli.Context, cfg *config.Config, scenarios []scenario.Scenario) error {
	out := c.App.Writer
	resultsDir := cfg.ResolvedResultsDir()

	// 1. Initialize logging
	logPath := cfg.ResolvedLogFile()
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	if err := logger.Init(logPath); err != nil {
		fmt.Fprintf(out, "Warning: Failed to initialize logger: %v\n", err)
	}
	defer logger.Close()
	if getBool(c, "verbose") {
		logger.EnableConsole(c.App.ErrWriter)
		cfg.LogLevel = "debug"
	}
	if err := logger.SetLevel(cfg.LogLevel); err != nil {
		fmt.Fprintf(out, "Warning: %v\n", err)
	}

	logger.Info("=== Suite run started ===")
	logger.Info("Results directory: %s", resultsDir)
	logger.Info("Base URL: %s", cfg.BaseURL)
	logger.Info("Driver: %s", cfg.Browser.Driver)
	logger.Info("Scenarios: %d", len(scenarios))

	policy, err := cfg.Wait.Policy()
	if err != nil {
		return err
	}

	// 2. Cancel the run on SIGINT/SIGTERM; a second signal exits at once
	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer func() {
		signal.Stop(sigCh)
		close(sigCh)
	}()
	go func() {
		sig, ok := <-sigCh
		if !ok {
			return
		}
		logger.Info("Received signal %v, stopping run...", sig)
		fmt.Fprintf(os.Stderr, "\nReceived %v, finishing current scenarios...\n", sig)
		cancel()
		if _, ok := <-sigCh; ok {
			os.Exit(1)
		}
	}()

	artifacts := cfg.Artifacts
	artifacts.Video = artifacts.Video && cfg.Browser.EnableVideo && cfg.Browser.Driver == config.DriverWebDriver
	artifacts.VideoURL = cfg.VideoBaseURL()

	p := progress{w: out}
	runner, err := scenario.NewRunner(scenario.RunnerConfig{
		ResultsDir:  resultsDir,
		Parallelism: cfg.Parallel,
		StopOnFail:  c.Bool("stop-on-fail"),
		BaseURL:     cfg.BaseURL,
		Policy:      policy,
		Artifacts:   artifacts,
		OpenDriver:  driverFactory(cfg),
		API: api.NewClient(api.Options{
			BaseURL:   cfg.APIBaseURL,
			Timeout:   cfg.API.Timeout,
			UserAgent: cfg.API.UserAgent,
			RateLimit: cfg.API.RateLimit,
		}),
		DriverName: cfg.Browser.Driver,
		BuildName:  "bookqa " + Version,
		Environment: map[string]string{
			"browser":         cfg.Browser.Name,
			"browser.version": cfg.Browser.Version,
		},
		OnScenarioStart: p.onScenarioStart,
		OnScenarioEnd:   p.onScenarioEnd,
	})
	if err != nil {
		return err
	}

	// 3. Execute scenarios
	fmt.Fprintf(out, "\n  %sbookqa %s%s: %d scenario(s) against %s\n\n",
		color(colorBold), Version, color(colorReset), len(scenarios), cfg.BaseURL)
	result, err := runner.Run(ctx, scenarios)
	if err != nil {
		// Results are on disk even if a run-level file failed
		fmt.Fprintf(out, "  %s⚠%s Warning: %v\n", color(colorYellow), color(colorReset), err)
		logger.Error("Writing run reports: %v", err)
	}
	logger.Info("Suite finished: %d passed, %d failed, %d broken, %d skipped",
		result.Passed, result.Failed, result.Broken, result.Skipped)

	// 4. Summary and report locations
	printSummary(out, result)
	fmt.Fprintln(out, "  Reports:")
	fmt.Fprintf(out, "    Allure: %s\n", resultsDir)
	fmt.Fprintf(out, "    HTML:   %s\n", filepath.Join(resultsDir, "report.html"))
	fmt.Fprintf(out, "    Log:    %s\n", logPath)
	fmt.Fprintln(out)

	// Exit with code 1 if anything failed (summary already printed)
	if !result.OK() {
		return cli.Exit("", 1)
	}
	return nil
}

// driverFactory returns how UI scenarios get their browser.
func driverFactory(cfg *config.Config) action.OpenFunc {
	switch cfg.Browser.Driver {
	case config.DriverPlaywright:
		opts := playwrightdriver.DefaultOptions()
		opts.Headless = cfg.Browser.Headless
		return func(ctx context.Context) (core.Driver, error) {
			d, err := playwrightdriver.New(ctx, opts)
			if err != nil {
				return nil, err
			}
			return d, nil
		}
	default:
		opts := webdriver.Options{
			ServerURL:      cfg.Browser.SelenoidURL,
			Username:       cfg.Browser.SelenoidLogin,
			Password:       cfg.Browser.SelenoidPass,
			BrowserName:    cfg.Browser.Name,
			BrowserVersion: cfg.Browser.Version,
			EnableVNC:      cfg.Browser.EnableVNC,
			EnableVideo:    cfg.Browser.EnableVideo,
			EnableLog:      cfg.Browser.EnableLog,
		}
		return func(ctx context.Context) (core.Driver, error) {
			d, err := webdriver.New(ctx, opts)
			if err != nil {
				return nil, err
			}
			return d, nil
		}
	}
}
