package config

import (
	"fmt"
	"strings"
)

// ProfileDefaults holds environment-specific default configuration values.
// Profiles provide defaults only — explicit configuration always overrides.
type ProfileDefaults struct {
	Name                string
	LogLevel            string
	OpsListen           string
	PollEnabled         bool
	PollIntervalSeconds int
	ScopeStrict         bool
}

var profiles = map[string]ProfileDefaults{
	"dev": {
		Name:                "dev",
		LogLevel:            "debug",
		OpsListen:           "127.0.0.1:8080",
		PollEnabled:         false,
		PollIntervalSeconds: 60,
		ScopeStrict:         false,
	},
	"staging": {
		Name:                "staging",
		LogLevel:            "info",
		OpsListen:           "0.0.0.0:8080",
		PollEnabled:         true,
		PollIntervalSeconds: 60,
		ScopeStrict:         false,
	},
	"prod": {
		Name:                "prod",
		LogLevel:            "info",
		OpsListen:           "",
		PollEnabled:         true,
		PollIntervalSeconds: 120,
		ScopeStrict:         true,
	},
}

// LoadProfile returns the defaults for the named profile. An empty name
// selects dev.
func LoadProfile(name string) (ProfileDefaults, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = "dev"
	}
	p, ok := profiles[name]
	if !ok {
		return ProfileDefaults{}, fmt.Errorf("unknown profile %q: valid profiles are dev, staging, prod", name)
	}
	return p, nil
}
