// Package config handles configuration for bookqa: the workspace YAML file,
// .env loading and environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/bookqa/bookqa/pkg/core"
)

// Driver backends.
const (
	DriverWebDriver  = "webdriver"
	DriverPlaywright = "playwright"
)

// Config represents the workspace configuration (bookqa.yaml).
type Config struct {
	// Scenario selection
	Kinds       []string `yaml:"kinds"`       // ui, api, files; empty means all
	IncludeTags []string `yaml:"includeTags"` // Tags to include
	ExcludeTags []string `yaml:"excludeTags"` // Tags to exclude
	Parallel    int      `yaml:"parallel"`    // Scenarios run at once; 0 or 1 is sequential

	// Site under test
	BaseURL    string `yaml:"baseUrl"`
	APIBaseURL string `yaml:"apiBaseUrl"`

	Wait      WaitConfig          `yaml:"wait"`
	Browser   BrowserConfig       `yaml:"browser"`
	API       APIConfig           `yaml:"api"`
	Artifacts core.ArtifactConfig `yaml:"artifacts"`

	// Output
	ResultsDir string `yaml:"resultsDir"` // Allure results; relative to home
	LogFile    string `yaml:"logFile"`
	LogLevel   string `yaml:"logLevel"`
}

// WaitConfig is the default wait policy in YAML-friendly form.
type WaitConfig struct {
	Timeout      time.Duration `yaml:"timeout"`
	PollInterval time.Duration `yaml:"pollInterval"`
}

// Policy converts to a core.WaitPolicy.
func (w WaitConfig) Policy() (core.WaitPolicy, error) {
	return core.NewWaitPolicy(w.Timeout, w.PollInterval)
}

// BrowserConfig selects and configures the browser backend.
type BrowserConfig struct {
	Driver string `yaml:"driver"` // webdriver or playwright

	// Remote grid (Selenoid)
	SelenoidURL   string `yaml:"selenoidUrl"`
	SelenoidLogin string `yaml:"selenoidLogin"`
	SelenoidPass  string `yaml:"selenoidPass"`
	Name          string `yaml:"name"`
	Version       string `yaml:"version"`
	EnableVNC     bool   `yaml:"enableVNC"`
	EnableVideo   bool   `yaml:"enableVideo"`
	EnableLog     bool   `yaml:"enableLog"`

	// Local playwright
	Headless bool `yaml:"headless"`
}

// APIConfig configures the HTTP client.
type APIConfig struct {
	Timeout   time.Duration `yaml:"timeout"`
	RateLimit float64       `yaml:"rateLimit"` // requests per second; 0 disables
	UserAgent string        `yaml:"userAgent"`
}

// Default returns the built-in configuration.
func Default() *Config {
	art := core.DefaultArtifactConfig()
	art.Video = true
	return &Config{
		BaseURL:    "https://www.litres.ru/",
		APIBaseURL: "https://api.litres.ru/foundation/api",
		Wait: WaitConfig{
			Timeout:      core.DefaultTimeout,
			PollInterval: core.DefaultPollInterval,
		},
		Browser: BrowserConfig{
			Driver:      DriverWebDriver,
			Name:        "chrome",
			Version:     "128.0",
			EnableVNC:   true,
			EnableVideo: true,
			EnableLog:   true,
			Headless:    true,
		},
		API: APIConfig{
			Timeout: 30 * time.Second,
		},
		Artifacts:  art,
		ResultsDir: "allure-results",
		LogLevel:   "info",
	}
}

// Load loads configuration from a file on top of the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- user-provided config file
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, core.ErrInvalidConfig.WithMessage(fmt.Sprintf("parse %s", path)).WithCause(err)
	}

	return cfg, nil
}

// LoadFromDir looks for bookqa.yaml or bookqa.yml in the directory.
func LoadFromDir(dir string) (*Config, error) {
	for _, name := range []string{"bookqa.yaml", "bookqa.yml"} {
		configPath := filepath.Join(dir, name)
		if _, err := os.Stat(configPath); err == nil {
			return Load(configPath)
		}
	}

	// No config file found, use defaults
	return Default(), nil
}

// LoadEnvFile loads KEY=VALUE pairs into the process environment without
// overriding variables that are already set. A missing default .env is not
// an error; a missing explicit path is.
func LoadEnvFile(path string) error {
	explicit := path != ""
	if !explicit {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides fields from the environment. SELENOID_* names match
// the grid's usual CI secrets; the rest use the BOOKQA_ prefix.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if getenv == nil {
		getenv = os.Getenv
	}
	str := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	str("SELENOID_URL", &c.Browser.SelenoidURL)
	str("SELENOID_LOGIN", &c.Browser.SelenoidLogin)
	str("SELENOID_PASS", &c.Browser.SelenoidPass)
	str("BOOKQA_BASE_URL", &c.BaseURL)
	str("BOOKQA_API_URL", &c.APIBaseURL)
	str("BOOKQA_DRIVER", &c.Browser.Driver)
	str("BOOKQA_BROWSER_VERSION", &c.Browser.Version)
	str("BOOKQA_RESULTS_DIR", &c.ResultsDir)
	str("BOOKQA_LOG_LEVEL", &c.LogLevel)

	var errs []error
	dur := func(key string, dst *time.Duration) {
		if v := getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}
	dur("BOOKQA_TIMEOUT", &c.Wait.Timeout)
	dur("BOOKQA_POLL_INTERVAL", &c.Wait.PollInterval)

	if v := getenv("BOOKQA_HEADLESS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("BOOKQA_HEADLESS: %w", err))
		} else {
			c.Browser.Headless = b
		}
	}
	if v := getenv("BOOKQA_PARALLEL"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("BOOKQA_PARALLEL: %w", err))
		} else {
			c.Parallel = n
		}
	}
	if v := getenv("BOOKQA_TAGS"); v != "" {
		c.IncludeTags = splitList(v)
	}

	if len(errs) > 0 {
		return core.ErrInvalidConfig.WithMessage("invalid environment override").WithCause(errors.Join(errs...))
	}
	return nil
}

// Validate checks the configuration for the given scenario kinds. A UI run on
// the webdriver backend needs the grid URL.
func (c *Config) Validate(needsBrowser bool) error {
	var errs []error
	if _, err := c.Wait.Policy(); err != nil {
		errs = append(errs, err)
	}
	if c.BaseURL == "" {
		errs = append(errs, core.ErrMissingRequired.WithMessage("baseUrl is not set"))
	}
	if c.Parallel < 0 {
		errs = append(errs, core.ErrInvalidConfig.WithMessage("parallel must not be negative"))
	}
	switch c.Browser.Driver {
	case DriverWebDriver:
		if needsBrowser && c.Browser.SelenoidURL == "" {
			errs = append(errs, core.ErrMissingRequired.WithMessage("SELENOID_URL is not set"))
		}
	case DriverPlaywright:
	default:
		errs = append(errs, core.ErrInvalidConfig.WithMessage(fmt.Sprintf("unknown driver %q", c.Browser.Driver)))
	}
	for _, k := range c.Kinds {
		switch k {
		case "ui", "api", "files":
		default:
			errs = append(errs, core.ErrInvalidConfig.WithMessage(fmt.Sprintf("unknown scenario kind %q", k)))
		}
	}
	return errors.Join(errs...)
}

// VideoBaseURL returns where the grid serves recordings, derived from the
// Selenoid host unless set explicitly.
func (c *Config) VideoBaseURL() string {
	if c.Artifacts.VideoURL != "" {
		return c.Artifacts.VideoURL
	}
	host := c.Browser.SelenoidURL
	if host == "" {
		return ""
	}
	if !strings.Contains(host, "://") {
		host = "https://" + host
	}
	host = strings.TrimSuffix(strings.TrimSuffix(host, "/"), "/wd/hub")
	return host + "/video/"
}

// ResolvedResultsDir returns ResultsDir, relative paths resolved against home.
func (c *Config) ResolvedResultsDir() string {
	return ResultsDir(c.ResultsDir)
}

// ResolvedLogFile returns LogFile, defaulting to the home logs directory.
func (c *Config) ResolvedLogFile() string {
	return LogFile(c.LogFile)
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
