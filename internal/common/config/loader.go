// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DefaultSnapshotKey   = "socialSupportForm"
	DefaultCredentialKey = "openai_api_key"
)

// Load reads configs/config.yaml, merges config.<APP_ENVIRONMENT>.yaml over it
// and applies environment overrides.
func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig()

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func loadEnvFile() {
	candidates := []string{".env", "../.env", "../../.env"}
	if root := findProjectRoot(); root != "" {
		candidates = append(candidates, filepath.Join(root, ".env"))
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// expandEnvVars resolves ${VAR} placeholders in string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok || !strings.Contains(strVal, "$") {
			continue
		}
		if expanded := os.ExpandEnv(strVal); expanded != strVal {
			v.Set(key, expanded)
		}
	}
}

func overrideEmptyConfig(cfg *Config) {
	setIfEmpty(&cfg.Suggestion.APIKey, "OPENAI_API_KEY")
	setIfEmpty(&cfg.Database.Postgres.User, "DB_USER")
	setIfEmpty(&cfg.Database.Postgres.Password, "DB_PASSWORD")
	setIfEmpty(&cfg.Database.Redis.Password, "REDIS_PASSWORD")
	setIfEmpty(&cfg.Submission.HTTP.Endpoint, "SUBMISSION_ENDPOINT")
}

func setIfEmpty(dst *string, envKey string) {
	if *dst != "" {
		return
	}
	if val := os.Getenv(envKey); val != "" {
		*dst = val
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "social-support-wizard"
	}

	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15000
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 90000
	}
	if cfg.Server.SessionIdleTimeout == 0 {
		cfg.Server.SessionIdleTimeout = 1800000
	}
	if cfg.Server.SuggestionRate == 0 {
		cfg.Server.SuggestionRate = 1
	}
	if cfg.Server.SuggestionBurst == 0 {
		cfg.Server.SuggestionBurst = 3
	}

	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}

	if cfg.Persistence.Backend == "" {
		cfg.Persistence.Backend = "redis"
	}
	if cfg.Persistence.SnapshotKey == "" {
		cfg.Persistence.SnapshotKey = DefaultSnapshotKey
	}
	if cfg.Persistence.CredentialKey == "" {
		cfg.Persistence.CredentialKey = DefaultCredentialKey
	}
	if cfg.Persistence.AutosavePolicy == "" {
		cfg.Persistence.AutosavePolicy = "progress"
	}

	if cfg.Suggestion.BaseURL == "" {
		cfg.Suggestion.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Suggestion.Model == "" {
		cfg.Suggestion.Model = "gpt-3.5-turbo"
	}
	if cfg.Suggestion.MaxTokens == 0 {
		cfg.Suggestion.MaxTokens = 200
	}
	if cfg.Suggestion.Temperature == 0 {
		cfg.Suggestion.Temperature = 0.7
	}
	if cfg.Suggestion.Timeout == 0 {
		cfg.Suggestion.Timeout = 30000
	}
	if cfg.Suggestion.MaxRetries == 0 {
		cfg.Suggestion.MaxRetries = 2
	}

	if cfg.Submission.Backend == "" {
		cfg.Submission.Backend = "postgres"
	}
	if cfg.Submission.Timeout == 0 {
		cfg.Submission.Timeout = 30000
	}
	if cfg.Submission.Camunda.ProcessID == "" {
		cfg.Submission.Camunda.ProcessID = "social-support-application"
	}

	if cfg.I18n.DefaultLocale == "" {
		cfg.I18n.DefaultLocale = "en"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	switch cfg.Persistence.Backend {
	case "redis":
		if cfg.Database.Redis.Address == "" {
			return fmt.Errorf("database.redis.address is required for redis persistence")
		}
	case "memory":
	default:
		return fmt.Errorf("persistence.backend must be redis or memory, got %q", cfg.Persistence.Backend)
	}

	switch cfg.Persistence.AutosavePolicy {
	case "progress", "always":
	default:
		return fmt.Errorf("persistence.autosave_policy must be progress or always, got %q", cfg.Persistence.AutosavePolicy)
	}

	switch cfg.Submission.Backend {
	case "postgres":
		if cfg.Database.Postgres.Host == "" {
			return fmt.Errorf("database.postgres.host is required")
		}
		if cfg.Database.Postgres.Database == "" {
			return fmt.Errorf("database.postgres.database is required")
		}
		if cfg.Database.Postgres.User == "" {
			return fmt.Errorf("database.postgres.user is required")
		}
	case "http":
		if cfg.Submission.HTTP.Endpoint == "" {
			return fmt.Errorf("submission.http.endpoint is required")
		}
	case "camunda":
		if cfg.Submission.Camunda.BrokerAddress == "" {
			return fmt.Errorf("submission.camunda.broker_address is required")
		}
	default:
		return fmt.Errorf("submission.backend must be postgres, http or camunda, got %q", cfg.Submission.Backend)
	}

	if cfg.Notifications.Enabled() && cfg.Notifications.AWS.Region == "" {
		return fmt.Errorf("notifications.aws.region is required when notifications are enabled")
	}
	if cfg.Notifications.Email.Enabled && cfg.Notifications.Email.FromEmail == "" {
		return fmt.Errorf("notifications.email.from_email is required")
	}

	return nil
}
