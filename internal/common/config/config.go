// internal/common/config/config.go
package config

import (
	"fmt"
	"time"
)

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig          `mapstructure:"app"`
	Server        ServerConfig       `mapstructure:"server"`
	Database      DatabaseConfig     `mapstructure:"database"`
	Persistence   PersistenceConfig  `mapstructure:"persistence"`
	Suggestion    SuggestionConfig   `mapstructure:"suggestion"`
	Submission    SubmissionConfig   `mapstructure:"submission"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	I18n          I18nConfig         `mapstructure:"i18n"`
	Logging       LoggingConfig      `mapstructure:"logging"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address            string `mapstructure:"address"`
	ReadTimeout        int    `mapstructure:"read_timeout"`         // milliseconds
	WriteTimeout       int    `mapstructure:"write_timeout"`        // milliseconds
	SessionIdleTimeout int    `mapstructure:"session_idle_timeout"` // milliseconds
	SuggestionRate     int    `mapstructure:"suggestion_rate"`      // requests per second per session
	SuggestionBurst    int    `mapstructure:"suggestion_burst"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// PersistenceConfig controls where and when wizard snapshots are written.
type PersistenceConfig struct {
	Backend        string `mapstructure:"backend"` // "redis" or "memory"
	SnapshotKey    string `mapstructure:"snapshot_key"`
	CredentialKey  string `mapstructure:"credential_key"`
	AutosavePolicy string `mapstructure:"autosave_policy"` // "progress" or "always"
	SnapshotTTL    int    `mapstructure:"snapshot_ttl"`    // seconds, 0 keeps forever
}

// SuggestionConfig configures the OpenAI-compatible completion endpoint.
type SuggestionConfig struct {
	BaseURL     string  `mapstructure:"base_url"`
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
	Timeout     int     `mapstructure:"timeout"` // milliseconds
	MaxRetries  int     `mapstructure:"max_retries"`
}

type SubmissionConfig struct {
	Backend string `mapstructure:"backend"` // "postgres", "http" or "camunda"
	Timeout int    `mapstructure:"timeout"` // milliseconds

	HTTP struct {
		Endpoint string `mapstructure:"endpoint"`
	} `mapstructure:"http"`

	Camunda struct {
		BrokerAddress string `mapstructure:"broker_address"`
		ProcessID     string `mapstructure:"process_id"`
		Plaintext     bool   `mapstructure:"plaintext"`
	} `mapstructure:"camunda"`
}

// NotificationConfig holds settings for the submission confirmation notifier.
type NotificationConfig struct {
	Email struct {
		Enabled   bool   `mapstructure:"enabled"`
		FromEmail string `mapstructure:"from_email"`
	} `mapstructure:"email"`
	SMS struct {
		Enabled  bool   `mapstructure:"enabled"`
		SenderID string `mapstructure:"sender_id"`
	} `mapstructure:"sms"`
	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
}

func (n NotificationConfig) Enabled() bool {
	return n.Email.Enabled || n.SMS.Enabled
}

type I18nConfig struct {
	DefaultLocale string `mapstructure:"default_locale"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
