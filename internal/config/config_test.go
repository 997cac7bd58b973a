package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// clearEnv removes every variable the loader reads, so tests control the
// full environment.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"TRACKHUB_PROFILE", "YOUTRACK_URL", "YOUTRACK_TOKEN",
		"YOUTRACK_HUB_URL", "YOUTRACK_HUB_CLIENT_ID", "YOUTRACK_HUB_CLIENT_SECRET",
		"TRACKHUB_PROJECT", "TRACKHUB_SCOPE_STRICT", "TRACKHUB_OPS_LISTEN",
		"TRACKHUB_POLL_ENABLED", "TRACKHUB_POLL_INTERVAL_SECONDS", "TRACKHUB_LOG_LEVEL",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadMinimalEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("YOUTRACK_URL", "https://yt.example.com")
	t.Setenv("YOUTRACK_TOKEN", "perm:abc")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Profile != "dev" {
		t.Fatalf("profile = %q, want dev default", cfg.Profile)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("log level = %q, want the dev profile default", cfg.LogLevel)
	}
	if cfg.ScopeStrict {
		t.Fatal("dev profile should not be strict")
	}
}

func TestLoadEnvOverridesFileAndProfile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	file := filepath.Join(dir, "trackhub.yaml")
	data := strings.Join([]string{
		"base_url: https://file.example.com",
		"token: perm:file",
		"enforced_project: FILEPROJ",
		"log_level: error",
		"poll_interval_seconds: 30",
	}, "\n")
	if err := os.WriteFile(file, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("TRACKHUB_PROFILE", "prod")
	t.Setenv("YOUTRACK_URL", "https://env.example.com")
	t.Setenv("TRACKHUB_PROJECT", "ENVPROJ")

	cfg, err := Load(file)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BaseURL != "https://env.example.com" {
		t.Fatalf("base url = %q, env must win over file", cfg.BaseURL)
	}
	if cfg.Token != "perm:file" {
		t.Fatalf("token = %q, file value should apply when env is unset", cfg.Token)
	}
	if cfg.EnforcedProject != "ENVPROJ" {
		t.Fatalf("project = %q", cfg.EnforcedProject)
	}
	if cfg.LogLevel != "error" {
		t.Fatalf("log level = %q, file must win over profile", cfg.LogLevel)
	}
	if cfg.PollInterval != 30*time.Second {
		t.Fatalf("poll interval = %s", cfg.PollInterval)
	}
	if !cfg.ScopeStrict {
		t.Fatal("prod profile default should make scope strict")
	}
}

func TestLoadRejectsMissingAuth(t *testing.T) {
	clearEnv(t)
	t.Setenv("YOUTRACK_URL", "https://yt.example.com")

	if _, err := Load(""); err == nil || !strings.Contains(err.Error(), "authentication missing") {
		t.Fatalf("err = %v", err)
	}
}

func TestLoadRejectsBothAuthModes(t *testing.T) {
	clearEnv(t)
	t.Setenv("YOUTRACK_URL", "https://yt.example.com")
	t.Setenv("YOUTRACK_TOKEN", "perm:abc")
	t.Setenv("YOUTRACK_HUB_URL", "https://hub.example.com")
	t.Setenv("YOUTRACK_HUB_CLIENT_ID", "id")
	t.Setenv("YOUTRACK_HUB_CLIENT_SECRET", "secret")

	if _, err := Load(""); err == nil || !strings.Contains(err.Error(), "not both") {
		t.Fatalf("err = %v", err)
	}
}

func TestLoadHubRequiresURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("YOUTRACK_URL", "https://yt.example.com")
	t.Setenv("YOUTRACK_HUB_CLIENT_ID", "id")
	t.Setenv("YOUTRACK_HUB_CLIENT_SECRET", "secret")

	if _, err := Load(""); err == nil || !strings.Contains(err.Error(), "YOUTRACK_HUB_URL") {
		t.Fatalf("err = %v", err)
	}
}

func TestLoadRejectsMissingConfigFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("YOUTRACK_URL", "https://yt.example.com")
	t.Setenv("YOUTRACK_TOKEN", "perm:abc")

	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("a named but missing config file must not fall back silently")
	}
}

func TestLoadRejectsBadURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("YOUTRACK_URL", "yt.example.com")
	t.Setenv("YOUTRACK_TOKEN", "perm:abc")

	if _, err := Load(""); err == nil || !strings.Contains(err.Error(), "http") {
		t.Fatalf("err = %v", err)
	}
}

func TestLoadProfile(t *testing.T) {
	for _, name := range []string{"", "dev", "staging", "prod", "PROD", " prod "} {
		if _, err := LoadProfile(name); err != nil {
			t.Errorf("LoadProfile(%q): %v", name, err)
		}
	}
	if _, err := LoadProfile("qa"); err == nil {
		t.Error("unknown profile accepted")
	}
}
