package submission

import (
	"fmt"
	"time"

	"social-support-wizard/internal/common/config"
)

const (
	BackendPostgres = "postgres"
	BackendHTTP     = "http"
	BackendCamunda  = "camunda"
)

type Config struct {
	Backend   string
	Timeout   time.Duration
	Endpoint  string
	ProcessID string
}

func LoadConfig(cfg config.SubmissionConfig) (*Config, error) {
	switch cfg.Backend {
	case BackendPostgres, BackendHTTP, BackendCamunda:
	default:
		return nil, fmt.Errorf("unknown submission backend %q", cfg.Backend)
	}

	timeout := config.GetDuration(cfg.Timeout)
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Config{
		Backend:   cfg.Backend,
		Timeout:   timeout,
		Endpoint:  cfg.HTTP.Endpoint,
		ProcessID: cfg.Camunda.ProcessID,
	}, nil
}
