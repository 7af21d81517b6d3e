package persistence

import (
	"fmt"
	"time"

	"social-support-wizard/internal/common/config"
)

// Policy decides which states are worth writing.
type Policy string

const (
	// PolicyProgress skips untouched wizards: step 1 with default personal
	// info.
	PolicyProgress Policy = "progress"
	PolicyAlways   Policy = "always"
)

func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicyProgress, "":
		return PolicyProgress, nil
	case PolicyAlways:
		return PolicyAlways, nil
	}
	return "", fmt.Errorf("unknown autosave policy %q", s)
}

type Config struct {
	SnapshotKey   string
	CredentialKey string
	Policy        Policy
	TTL           time.Duration
}

func LoadConfig(cfg config.PersistenceConfig) (*Config, error) {
	policy, err := ParsePolicy(cfg.AutosavePolicy)
	if err != nil {
		return nil, err
	}
	return &Config{
		SnapshotKey:   cfg.SnapshotKey,
		CredentialKey: cfg.CredentialKey,
		Policy:        policy,
		TTL:           time.Duration(cfg.SnapshotTTL) * time.Second,
	}, nil
}

// CredentialSessionKey scopes the stored API key to one session.
func (c *Config) CredentialSessionKey(sessionID string) string {
	if sessionID == "" {
		return c.CredentialKey
	}
	return c.CredentialKey + ":" + sessionID
}

// SessionKey scopes the snapshot key to one session.
func (c *Config) SessionKey(sessionID string) string {
	if sessionID == "" {
		return c.SnapshotKey
	}
	return c.SnapshotKey + ":" + sessionID
}
