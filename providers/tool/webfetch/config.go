package webfetch

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/leofalp/safefetch/internal/capture"
)

const (
	// EnvAllowPrivateHosts disables the private-network guard when set to
	// exactly "1", "true" or "yes".
	EnvAllowPrivateHosts = "WEBFETCH_ALLOW_PRIVATE_HOSTS"
	EnvTimeout           = "WEBFETCH_TIMEOUT"
	EnvUserAgent         = "WEBFETCH_USER_AGENT"
	EnvTempDir           = "WEBFETCH_TEMP_DIR"

	// DefaultTimeout bounds a whole invocation, including every redirect hop
	// and smart-strategy attempt.
	DefaultTimeout = 30 * time.Second
	// DefaultUserAgent is sent when neither the caller nor the config sets one.
	DefaultUserAgent = "safefetch/1.0 (+https://github.com/leofalp/safefetch)"
)

// Config holds the operator-level settings of a Fetcher. Per-call options
// live in Input.
type Config struct {
	AllowPrivateHosts bool              `yaml:"allow_private_hosts"`
	Timeout           time.Duration     `yaml:"timeout"`
	UserAgent         string            `yaml:"user_agent"`
	MaxRedirects      int               `yaml:"max_redirects"`
	MaxLines          int               `yaml:"max_lines"`
	MaxBytes          int               `yaml:"max_bytes"`
	ProbeBytes        int               `yaml:"probe_bytes"`
	TempDir           string            `yaml:"temp_dir"`
	ExtraTextTypes    []string          `yaml:"extra_text_types"`
	DefaultHeaders    map[string]string `yaml:"default_headers"`
}

// WithDefaults fills unset fields. MaxRedirects is capped at the hard limit
// of 10 hops.
func (c Config) WithDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if strings.TrimSpace(c.UserAgent) == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.MaxRedirects <= 0 || c.MaxRedirects > maxRedirects {
		c.MaxRedirects = maxRedirects
	}
	if c.MaxLines <= 0 {
		c.MaxLines = capture.DefaultMaxLines
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = capture.DefaultMaxBytes
	}
	if c.ProbeBytes <= 0 {
		c.ProbeBytes = capture.DefaultProbeBytes
	}
	return c
}

// ConfigFromEnv builds a config from defaults and WEBFETCH_* variables.
func ConfigFromEnv() Config {
	return Config{}.ApplyEnv().WithDefaults()
}

// ApplyEnv overrides fields whose environment variable is set. The private
// host override is read on every call and never cached.
func (c Config) ApplyEnv() Config {
	if allowPrivateFromEnv() {
		c.AllowPrivateHosts = true
	}
	if v := strings.TrimSpace(os.Getenv(EnvTimeout)); v != "" {
		if d, err := parseTimeout(v); err == nil {
			c.Timeout = d
		}
	}
	c.UserAgent = envOr(c.UserAgent, os.Getenv(EnvUserAgent))
	c.TempDir = envOr(c.TempDir, os.Getenv(EnvTempDir))
	return c
}

// LoadConfigFile reads a YAML config file. Environment overrides and
// defaults are applied on top.
func LoadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg.ApplyEnv().WithDefaults(), nil
}

func allowPrivateFromEnv() bool {
	switch os.Getenv(EnvAllowPrivateHosts) {
	case "1", "true", "yes":
		return true
	}
	return false
}

// parseTimeout accepts a Go duration or a number of seconds.
func parseTimeout(v string) (time.Duration, error) {
	if secs, err := strconv.Atoi(v); err == nil {
		if secs <= 0 {
			return 0, fmt.Errorf("timeout must be positive")
		}
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("timeout must be positive")
	}
	return d, nil
}

func envOr(current, value string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return current
}
