package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bookqa/bookqa/pkg/core"
)

func TestLoad_ValidConfig(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "bookqa.yaml")

	content := `
kinds: [ui, api]
includeTags:
  - smoke
excludeTags:
  - wip
parallel: 4
baseUrl: https://staging.litres.ru/
wait:
  timeout: 15s
  pollInterval: 250ms
browser:
  driver: playwright
  headless: false
artifacts:
  captureOnSuccess: false
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(cfg.Kinds) != 2 || cfg.Kinds[1] != "api" {
		t.Errorf("expected kinds [ui api], got %v", cfg.Kinds)
	}
	if len(cfg.IncludeTags) != 1 || cfg.IncludeTags[0] != "smoke" {
		t.Errorf("expected includeTags [smoke], got %v", cfg.IncludeTags)
	}
	if len(cfg.ExcludeTags) != 1 || cfg.ExcludeTags[0] != "wip" {
		t.Errorf("expected excludeTags [wip], got %v", cfg.ExcludeTags)
	}
	if cfg.Parallel != 4 {
		t.Errorf("expected parallel 4, got %d", cfg.Parallel)
	}
	if cfg.BaseURL != "https://staging.litres.ru/" {
		t.Errorf("expected staging base url, got %s", cfg.BaseURL)
	}
	if cfg.Wait.Timeout != 15*time.Second || cfg.Wait.PollInterval != 250*time.Millisecond {
		t.Errorf("unexpected wait %+v", cfg.Wait)
	}
	if cfg.Browser.Driver != DriverPlaywright || cfg.Browser.Headless {
		t.Errorf("unexpected browser %+v", cfg.Browser)
	}
	if cfg.Artifacts.CaptureOnSuccess {
		t.Error("expected captureOnSuccess false")
	}
	// Fields absent from the file keep their defaults.
	if cfg.APIBaseURL != Default().APIBaseURL || !cfg.Artifacts.Screenshot {
		t.Errorf("defaults not preserved: api=%s screenshot=%v", cfg.APIBaseURL, cfg.Artifacts.Screenshot)
	}
}

func TestLoad_NonExistentFile(t *testing.T) {
	_, err := Load("/nonexistent/bookqa.yaml")
	if err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "bookqa.yaml")
	if err := os.WriteFile(configPath, []byte("wait: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(configPath)
	if !errors.Is(err, core.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestLoadFromDir(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadFromDir(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Browser.Driver != DriverWebDriver {
		t.Errorf("expected default driver, got %s", cfg.Browser.Driver)
	}

	if err := os.WriteFile(filepath.Join(dir, "bookqa.yml"), []byte("parallel: 2\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err = LoadFromDir(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Parallel != 2 {
		t.Errorf("expected parallel 2 from bookqa.yml, got %d", cfg.Parallel)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"SELENOID_URL":     "selenoid.example.com",
		"SELENOID_LOGIN":   "user1",
		"SELENOID_PASS":    "1234",
		"BOOKQA_DRIVER":    "playwright",
		"BOOKQA_TIMEOUT":   "20s",
		"BOOKQA_HEADLESS":  "false",
		"BOOKQA_PARALLEL":  "3",
		"BOOKQA_TAGS":      "smoke, cart ,",
		"BOOKQA_BASE_URL":  "https://www.litres.ru/",
		"BOOKQA_LOG_LEVEL": "debug",
	}
	cfg := Default()
	if err := cfg.ApplyEnv(func(k string) string { return env[k] }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Browser.SelenoidURL != "selenoid.example.com" || cfg.Browser.SelenoidLogin != "user1" || cfg.Browser.SelenoidPass != "1234" {
		t.Errorf("selenoid not applied: %+v", cfg.Browser)
	}
	if cfg.Browser.Driver != DriverPlaywright || cfg.Browser.Headless {
		t.Errorf("browser not applied: %+v", cfg.Browser)
	}
	if cfg.Wait.Timeout != 20*time.Second {
		t.Errorf("expected timeout 20s, got %v", cfg.Wait.Timeout)
	}
	if cfg.Parallel != 3 {
		t.Errorf("expected parallel 3, got %d", cfg.Parallel)
	}
	if len(cfg.IncludeTags) != 2 || cfg.IncludeTags[0] != "smoke" || cfg.IncludeTags[1] != "cart" {
		t.Errorf("expected tags [smoke cart], got %v", cfg.IncludeTags)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected log level debug, got %s", cfg.LogLevel)
	}
}

func TestApplyEnv_InvalidValues(t *testing.T) {
	env := map[string]string{
		"BOOKQA_TIMEOUT":  "soon",
		"BOOKQA_PARALLEL": "many",
	}
	cfg := Default()
	err := cfg.ApplyEnv(func(k string) string { return env[k] })
	if !errors.Is(err, core.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
	if cfg.Wait.Timeout != core.DefaultTimeout {
		t.Errorf("invalid override changed timeout to %v", cfg.Wait.Timeout)
	}
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "SELENOID_LOGIN=from-file\nBOOKQA_TEST_ONLY=loaded\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	// Already-set variables win over the file.
	t.Setenv("SELENOID_LOGIN", "from-env")
	t.Setenv("BOOKQA_TEST_ONLY", "")
	os.Unsetenv("BOOKQA_TEST_ONLY")

	if err := LoadEnvFile(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := os.Getenv("SELENOID_LOGIN"); got != "from-env" {
		t.Errorf("SELENOID_LOGIN = %q, want from-env", got)
	}
	if got := os.Getenv("BOOKQA_TEST_ONLY"); got != "loaded" {
		t.Errorf("BOOKQA_TEST_ONLY = %q, want loaded", got)
	}

	if err := LoadEnvFile(filepath.Join(dir, "missing.env")); err == nil {
		t.Error("expected error for explicit missing env file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		browser bool
		want    error
	}{
		{"defaults without browser", func(*Config) {}, false, nil},
		{"webdriver needs grid", func(*Config) {}, true, core.ErrMissingRequired},
		{"webdriver with grid", func(c *Config) { c.Browser.SelenoidURL = "selenoid.example.com" }, true, nil},
		{"playwright needs no grid", func(c *Config) { c.Browser.Driver = DriverPlaywright }, true, nil},
		{"unknown driver", func(c *Config) { c.Browser.Driver = "lynx" }, false, core.ErrInvalidConfig},
		{"poll longer than timeout", func(c *Config) { c.Wait.PollInterval = time.Minute }, false, core.ErrInvalidPolicy},
		{"unknown kind", func(c *Config) { c.Kinds = []string{"mobile"} }, false, core.ErrInvalidConfig},
		{"negative parallel", func(c *Config) { c.Parallel = -1 }, false, core.ErrInvalidConfig},
		{"missing base url", func(c *Config) { c.BaseURL = "" }, false, core.ErrMissingRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate(tt.browser)
			if tt.want == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestVideoBaseURL(t *testing.T) {
	tests := []struct {
		grid, explicit, want string
	}{
		{"", "", ""},
		{"selenoid.autotests.cloud", "", "https://selenoid.autotests.cloud/video/"},
		{"https://grid.example/wd/hub/", "", "https://grid.example/video/"},
		{"selenoid.autotests.cloud", "https://videos.example/", "https://videos.example/"},
	}
	for _, tt := range tests {
		cfg := Default()
		cfg.Browser.SelenoidURL = tt.grid
		cfg.Artifacts.VideoURL = tt.explicit
		if got := cfg.VideoBaseURL(); got != tt.want {
			t.Errorf("VideoBaseURL(%q, %q) = %q, want %q", tt.grid, tt.explicit, got, tt.want)
		}
	}
}
