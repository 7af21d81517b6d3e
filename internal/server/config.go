package server

import (
	"time"

	"social-support-wizard/internal/common/config"
)

type Config struct {
	Address            string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	SessionIdleTimeout time.Duration
	SuggestionRate     int
	SuggestionBurst    int
}

func LoadConfig(cfg config.ServerConfig) *Config {
	return &Config{
		Address:            cfg.Address,
		ReadTimeout:        config.GetDuration(cfg.ReadTimeout),
		WriteTimeout:       config.GetDuration(cfg.WriteTimeout),
		SessionIdleTimeout: config.GetDuration(cfg.SessionIdleTimeout),
		SuggestionRate:     cfg.SuggestionRate,
		SuggestionBurst:    cfg.SuggestionBurst,
	}
}
