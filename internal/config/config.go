// Package config assembles the server configuration from, in order of
// precedence: environment variables, an optional YAML file, and profile
// defaults. A .env file in the working directory feeds the environment
// before anything is read.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full server configuration, resolved and validated once at
// startup.
type Config struct {
	Profile string

	BaseURL string
	// Token is a permanent YouTrack token. Either Token or the Hub
	// credentials must be set.
	Token           string
	HubURL          string
	HubClientID     string
	HubClientSecret string

	EnforcedProject string
	ScopeStrict     bool

	OpsListen    string
	PollEnabled  bool
	PollInterval time.Duration

	LogLevel string
}

// fileConfig mirrors the YAML config file shape. Every field is optional;
// environment variables override whatever the file sets.
type fileConfig struct {
	BaseURL         string  `yaml:"base_url"`
	Token           string  `yaml:"token"`
	HubURL          string  `yaml:"hub_url"`
	HubClientID     string  `yaml:"hub_client_id"`
	HubClientSecret string  `yaml:"hub_client_secret"`
	EnforcedProject string  `yaml:"enforced_project"`
	ScopeStrict     *bool   `yaml:"scope_strict"`
	OpsListen       *string `yaml:"ops_listen"`
	PollEnabled     *bool   `yaml:"poll_enabled"`
	PollSeconds     int     `yaml:"poll_interval_seconds"`
	LogLevel        string  `yaml:"log_level"`
}

// Load resolves the configuration. configFile may be empty; a named file
// that does not exist is an error, so a typoed --config never silently
// falls back to defaults.
func Load(configFile string) (*Config, error) {
	// Missing .env is fine; it only exists in development.
	_ = godotenv.Load()

	profile, err := LoadProfile(os.Getenv("TRACKHUB_PROFILE"))
	if err != nil {
		return nil, err
	}

	var file fileConfig
	if configFile != "" {
		data, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", configFile, err)
		}
	}

	cfg := &Config{
		Profile:         profile.Name,
		BaseURL:         firstOf(os.Getenv("YOUTRACK_URL"), file.BaseURL),
		Token:           firstOf(os.Getenv("YOUTRACK_TOKEN"), file.Token),
		HubURL:          firstOf(os.Getenv("YOUTRACK_HUB_URL"), file.HubURL),
		HubClientID:     firstOf(os.Getenv("YOUTRACK_HUB_CLIENT_ID"), file.HubClientID),
		HubClientSecret: firstOf(os.Getenv("YOUTRACK_HUB_CLIENT_SECRET"), file.HubClientSecret),
		EnforcedProject: firstOf(os.Getenv("TRACKHUB_PROJECT"), file.EnforcedProject),
		LogLevel:        firstOf(os.Getenv("TRACKHUB_LOG_LEVEL"), file.LogLevel, profile.LogLevel),
	}

	cfg.ScopeStrict, err = resolveBool("TRACKHUB_SCOPE_STRICT", file.ScopeStrict, profile.ScopeStrict)
	if err != nil {
		return nil, err
	}
	cfg.PollEnabled, err = resolveBool("TRACKHUB_POLL_ENABLED", file.PollEnabled, profile.PollEnabled)
	if err != nil {
		return nil, err
	}

	if v, ok := os.LookupEnv("TRACKHUB_OPS_LISTEN"); ok {
		cfg.OpsListen = v
	} else if file.OpsListen != nil {
		cfg.OpsListen = *file.OpsListen
	} else {
		cfg.OpsListen = profile.OpsListen
	}

	pollSeconds := profile.PollIntervalSeconds
	if file.PollSeconds > 0 {
		pollSeconds = file.PollSeconds
	}
	if raw := strings.TrimSpace(os.Getenv("TRACKHUB_POLL_INTERVAL_SECONDS")); raw != "" {
		pollSeconds, err = strconv.Atoi(raw)
		if err != nil || pollSeconds <= 0 {
			return nil, fmt.Errorf("invalid TRACKHUB_POLL_INTERVAL_SECONDS %q", raw)
		}
	}
	cfg.PollInterval = time.Duration(pollSeconds) * time.Second

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return fmt.Errorf("YOUTRACK_URL is required")
	}
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return fmt.Errorf("YOUTRACK_URL must start with http:// or https://")
	}

	hasToken := strings.TrimSpace(c.Token) != ""
	hasHub := strings.TrimSpace(c.HubClientID) != "" && strings.TrimSpace(c.HubClientSecret) != ""
	switch {
	case hasToken && hasHub:
		return fmt.Errorf("set either YOUTRACK_TOKEN or the Hub client credentials, not both")
	case !hasToken && !hasHub:
		return fmt.Errorf("authentication missing: set YOUTRACK_TOKEN, or YOUTRACK_HUB_CLIENT_ID and YOUTRACK_HUB_CLIENT_SECRET")
	case hasHub && strings.TrimSpace(c.HubURL) == "":
		return fmt.Errorf("YOUTRACK_HUB_URL is required with Hub client credentials")
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q: use debug, info, warn, or error", c.LogLevel)
	}
	return nil
}

func firstOf(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func resolveBool(envKey string, fileValue *bool, fallback bool) (bool, error) {
	if raw, ok := os.LookupEnv(envKey); ok && strings.TrimSpace(raw) != "" {
		v, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return false, fmt.Errorf("invalid %s %q", envKey, raw)
		}
		return v, nil
	}
	if fileValue != nil {
		return *fileValue, nil
	}
	return fallback, nil
}
