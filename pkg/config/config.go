// Package config loads ollamagen settings from YAML, .env files, and the
// environment, and builds a ready-to-use generator from them.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/germanamz/ollamagen/pkg/modeladapter"
	"github.com/germanamz/ollamagen/pkg/providers/ollama"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up when none is given explicitly.
const DefaultPath = "ollamagen.yaml"

// Config is the top-level configuration.
type Config struct {
	BaseURL  string            `yaml:"base_url"`
	Model    string            `yaml:"model"`
	APIKey   string            `yaml:"api_key"` //nolint:gosec // configuration field, not a hardcoded secret
	Timeout  string            `yaml:"timeout"` // Duration string (e.g. "30s"); "0" disables the client timeout.
	Headers  map[string]string `yaml:"headers"`
	LogLevel string            `yaml:"log_level"`
}

// Default returns the configuration used when no file is present: the local
// server, the mistral model, and the adapter's default timeout.
func Default() Config {
	return Config{
		BaseURL:  ollama.DefaultBaseURL,
		Model:    ollama.DefaultModel,
		Timeout:  modeladapter.DefaultTimeout.String(),
		LogLevel: "warn",
	}
}

// Load reads a YAML file over Default and returns the result. An empty path
// returns Default unchanged.
// Environment variables referenced as ${VAR} or $VAR in the YAML are expanded
// before parsing, so secrets can live in the environment (e.g. loaded from a
// .env file) rather than in the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // path is caller-provided configuration, not user input
	if err != nil {
		return Config{}, fmt.Errorf("config: load: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse: %w", err)
	}

	return cfg, nil
}

// ResolvePath returns explicit when set, otherwise DefaultPath when that file
// exists, otherwise "" (meaning built-in defaults).
func ResolvePath(explicit string) string {
	if explicit != "" {
		return explicit
	}

	if _, err := os.Stat(DefaultPath); err == nil {
		return DefaultPath
	}

	return ""
}

// LoadDotEnv loads KEY=VALUE pairs from path into the environment.
// A missing file is not an error.
func LoadDotEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// ApplyEnv overrides fields from OLLAMA_HOST and OLLAMA_MODEL when set.
// OLLAMA_HOST may be a bare host:port, in which case http:// is assumed.
func (c *Config) ApplyEnv() {
	if host := os.Getenv("OLLAMA_HOST"); host != "" {
		if !strings.Contains(host, "://") {
			host = "http://" + host
		}
		c.BaseURL = host
	}

	if model := os.Getenv("OLLAMA_MODEL"); model != "" {
		c.Model = model
	}
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("config: base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("config: base_url %q: scheme must be http or https", c.BaseURL)
	}
	if u.Host == "" {
		return fmt.Errorf("config: base_url %q: host is required", c.BaseURL)
	}

	if c.Model == "" {
		return errors.New("config: model is required")
	}

	if _, err := c.timeout(); err != nil {
		return err
	}

	if _, err := c.level(); err != nil {
		return err
	}

	return nil
}

// NewAdapter builds the Ollama adapter described by the configuration.
func (c Config) NewAdapter() (*ollama.Adapter, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	timeout, _ := c.timeout()

	a := ollama.New(c.BaseURL, c.Model)
	a.Auth = modeladapter.Auth{Key: c.APIKey}
	a.Headers = c.Headers
	a.Client = &http.Client{Timeout: timeout}

	return a, nil
}

// Logger returns a text slog.Logger writing to w at the configured level.
func (c Config) Logger(w io.Writer) (*slog.Logger, error) {
	level, err := c.level()
	if err != nil {
		return nil, err
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), nil
}

func (c Config) timeout() (time.Duration, error) {
	if c.Timeout == "" {
		return modeladapter.DefaultTimeout, nil
	}

	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, fmt.Errorf("config: invalid timeout %q: %w", c.Timeout, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("config: timeout %q must not be negative", c.Timeout)
	}

	return d, nil
}

func (c Config) level() (slog.Level, error) {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("config: unknown log_level %q", c.LogLevel)
	}
}
