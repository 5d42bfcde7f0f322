// Package config holds the settings of a test run: target URLs, credentials, browser options and timeouts.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultBaseURL    = "https://www.demoblaze.com"
	DefaultAPIBaseURL = "https://api.demoblaze.com"
	DefaultWorkers    = 3
)

// Config is read once and passed explicitly into the worker fixtures.
type Config struct {
	BaseURL    string `yaml:"baseURL"`
	APIBaseURL string `yaml:"apiBaseURL"`
	Username   string `yaml:"username"`
	Password   string `yaml:"password"`

	Browser  Browser  `yaml:"browser"`
	Timeouts Timeouts `yaml:"timeouts"`

	// Workers is the number of parallel workers, each with its own browser.
	Workers int `yaml:"workers"`
	// ArtifactDir receives traces and screenshots of failed tests.
	ArtifactDir string `yaml:"artifactDir"`
}

// Browser configures the Chromium instance of a worker.
type Browser struct {
	Headless bool          `yaml:"headless"`
	SlowMo   time.Duration `yaml:"slowMo"`
	Args     []string      `yaml:"args"`
	// Trace records a Playwright trace per test and keeps it for failed tests.
	Trace bool `yaml:"trace"`
	// Screenshot captures a full page screenshot of failed tests.
	Screenshot bool `yaml:"screenshot"`
}

// Timeouts bound the different kinds of waiting.
type Timeouts struct {
	// Test bounds a whole test including setup and teardown.
	Test time.Duration `yaml:"test"`
	// Expect is the default timeout of element assertions.
	Expect time.Duration `yaml:"expect"`
	// Dialog is how long to wait for a native dialog after an action.
	Dialog time.Duration `yaml:"dialog"`
	// Login is how long to wait for either the login alert or the closed login modal.
	Login time.Duration `yaml:"login"`
	// CartUpdate bounds waiting for cart rows and totals to settle.
	CartUpdate time.Duration `yaml:"cartUpdate"`
	// Verification bounds retried cart assertions.
	Verification time.Duration `yaml:"verification"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		BaseURL:    DefaultBaseURL,
		APIBaseURL: DefaultAPIBaseURL,
		Browser: Browser{
			Headless:   true,
			Args:       []string{"--start-maximized"},
			Trace:      true,
			Screenshot: true,
		},
		Timeouts: Timeouts{
			Test:         30 * time.Second,
			Expect:       5 * time.Second,
			Dialog:       5 * time.Second,
			Login:        3 * time.Second,
			CartUpdate:   5 * time.Second,
			Verification: 10 * time.Second,
		},
		Workers:     DefaultWorkers,
		ArtifactDir: "reports/test-results",
	}
}

// Load returns the defaults overlaid with the YAML file at path (if path is not empty) and the environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("reading config: %w", err)
		}
		if err := cfg.decode(data); err != nil {
			return cfg, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) decode(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil {
		// An empty file is fine
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	return nil
}

// ApplyEnv overrides settings from BASE_URL, API_BASE_URL, USERNAME, PASSWORD and HEADLESS.
func (c *Config) ApplyEnv(lookup func(key string) (string, bool)) error {
	if v, ok := lookup("BASE_URL"); ok && v != "" {
		c.BaseURL = v
	}
	if v, ok := lookup("API_BASE_URL"); ok && v != "" {
		c.APIBaseURL = v
	}
	if v, ok := lookup("USERNAME"); ok && v != "" {
		c.Username = v
	}
	if v, ok := lookup("PASSWORD"); ok && v != "" {
		c.Password = v
	}
	if v, ok := lookup("HEADLESS"); ok && v != "" {
		headless, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parsing HEADLESS: %w", err)
		}
		c.Browser.Headless = headless
	}
	return nil
}

// Validate reports all invalid settings at once.
func (c Config) Validate() error {
	var errs []error
	if err := validateURL("baseURL", c.BaseURL); err != nil {
		errs = append(errs, err)
	}
	if err := validateURL("apiBaseURL", c.APIBaseURL); err != nil {
		errs = append(errs, err)
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be at least 1, got %d", c.Workers))
	}
	timeouts := []struct {
		name string
		d    time.Duration
	}{
		{"timeouts.test", c.Timeouts.Test},
		{"timeouts.expect", c.Timeouts.Expect},
		{"timeouts.dialog", c.Timeouts.Dialog},
		{"timeouts.login", c.Timeouts.Login},
		{"timeouts.cartUpdate", c.Timeouts.CartUpdate},
		{"timeouts.verification", c.Timeouts.Verification},
	}
	for _, to := range timeouts {
		if to.d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", to.name))
		}
	}
	if c.Browser.SlowMo < 0 {
		errs = append(errs, errors.New("browser.slowMo must not be negative"))
	}
	return errors.Join(errs...)
}

// RequireCredentials fails if no login credentials are configured.
func (c Config) RequireCredentials() error {
	if c.Username == "" || c.Password == "" {
		return errors.New("USERNAME and PASSWORD must be set for tests that log in")
	}
	return nil
}

// LogValue hides the password in structured logs.
func (c Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("baseURL", c.BaseURL),
		slog.String("apiBaseURL", c.APIBaseURL),
		slog.String("username", c.Username),
		slog.Bool("headless", c.Browser.Headless),
		slog.Int("workers", c.Workers),
	)
}

func validateURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must be an http(s) URL, got %q", field, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%s has no host: %q", field, raw)
	}
	return nil
}
