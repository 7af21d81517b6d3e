package suggestion

import (
	"strings"
	"time"

	"social-support-wizard/internal/common/config"
)

type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
	MaxRetries  int
	RetryDelay  time.Duration

	BreakerThreshold int
	BreakerTimeout   time.Duration
}

func LoadConfig(cfg config.SuggestionConfig) *Config {
	return &Config{
		BaseURL:          strings.TrimRight(cfg.BaseURL, "/"),
		APIKey:           cfg.APIKey,
		Model:            cfg.Model,
		MaxTokens:        cfg.MaxTokens,
		Temperature:      cfg.Temperature,
		Timeout:          config.GetDuration(cfg.Timeout),
		MaxRetries:       cfg.MaxRetries,
		RetryDelay:       500 * time.Millisecond,
		BreakerThreshold: 5,
		BreakerTimeout:   30 * time.Second,
	}
}
