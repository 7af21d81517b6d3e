package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"social-support-wizard/internal/common/aws"
	"social-support-wizard/internal/common/camunda"
	"social-support-wizard/internal/common/config"
	"social-support-wizard/internal/common/database"
	"social-support-wizard/internal/common/i18n"
	"social-support-wizard/internal/common/logger"
	"social-support-wizard/internal/common/observability"
	"social-support-wizard/internal/persistence"
	"social-support-wizard/internal/server"
	"social-support-wizard/internal/submission"
	"social-support-wizard/internal/suggestion"

	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the wizard HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("config load failed: %w", err)
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

// app holds everything serve opens so it can be closed in one place.
type app struct {
	closers []func() error
	checks  map[string]server.HealthCheck
}

func (a *app) close(log logger.Logger) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Warn("close failed", map[string]interface{}{"error": err.Error()})
		}
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	zapLog := logger.New(logger.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	defer func() { _ = zapLog.Sync() }()
	log := logger.Wrap(zapLog).With(map[string]interface{}{
		"service": cfg.App.Name,
		"version": cfg.App.Version,
	})

	log.Info("Starting wizard server...", map[string]interface{}{
		"environment": cfg.App.Environment,
		"persistence": cfg.Persistence.Backend,
		"submission":  cfg.Submission.Backend,
	})

	a := &app{checks: map[string]server.HealthCheck{}}
	defer a.close(log)

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		log.Warn("observability disabled", map[string]interface{}{"error": err.Error()})
	} else {
		a.closers = append(a.closers, func() error { return obs.Shutdown(context.Background()) })
	}

	persistCfg, err := persistence.LoadConfig(cfg.Persistence)
	if err != nil {
		return err
	}
	store, err := openStore(ctx, cfg, persistCfg, a, log)
	if err != nil {
		return err
	}

	translator := i18n.New(cfg.I18n.DefaultLocale)

	submitter, err := openSubmitter(ctx, cfg, a, log)
	if err != nil {
		return err
	}
	subCfg, err := submission.LoadConfig(cfg.Submission)
	if err != nil {
		return err
	}
	notifier, err := openNotifier(ctx, cfg, translator, log)
	if err != nil {
		return err
	}

	srv := server.New(server.Deps{
		Config:      server.LoadConfig(cfg.Server),
		Store:       store,
		Persistence: persistCfg,
		Suggestions: suggestion.NewClient(suggestion.LoadConfig(cfg.Suggestion), logger.Component(log, "suggestion")),
		Credentials: suggestion.NewStoreCredentials(cfg.Suggestion.APIKey, store, persistCfg.CredentialKey, log),
		Pipeline:    submission.NewPipeline(subCfg, submitter, notifier, translator, obs, logger.Component(log, "submission")),
		Translator:  translator,
		Checks:      a.checks,
		Logger:      logger.Component(log, "server"),
	})
	httpServer := srv.HTTPServer()

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", map[string]interface{}{"address": httpServer.Addr})
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-sigCh:
		log.Info("Shutdown signal received, draining requests...", nil)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	log.Info("Wizard server stopped", nil)
	return nil
}

func openStore(ctx context.Context, cfg *config.Config, persistCfg *persistence.Config, a *app, log logger.Logger) (persistence.Store, error) {
	if cfg.Persistence.Backend == "memory" {
		log.Warn("Using in-memory persistence; snapshots are lost on restart", nil)
		return persistence.NewMemoryStore(), nil
	}

	rdb := database.NewRedis(cfg.Database.Redis)
	err := retryWithBackoff(func() error {
		return rdb.Ping(ctx)
	}, 10, 2*time.Second, log, "Redis connection")
	if err != nil {
		_ = rdb.Close()
		return nil, err
	}
	a.closers = append(a.closers, rdb.Close)
	a.checks["redis"] = rdb.Ping
	log.Info("Redis connected successfully", nil)

	return persistence.NewRedisStore(rdb.Client, persistCfg.TTL), nil
}

func openSubmitter(ctx context.Context, cfg *config.Config, a *app, log logger.Logger) (submission.Submitter, error) {
	subLog := logger.Component(log, "submission")

	switch cfg.Submission.Backend {
	case submission.BackendPostgres:
		var pg *database.PostgresClient
		err := retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			if err := pg.Ping(ctx); err != nil {
				_ = pg.Close()
				return err
			}
			return nil
		}, 15, 2*time.Second, log, "PostgreSQL connection")
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, pg.Close)
		a.checks["postgres"] = pg.Ping
		log.Info("PostgreSQL connected successfully", nil)
		return submission.NewPostgresSubmitter(pg.DB, subLog), nil

	case submission.BackendHTTP:
		return submission.NewHTTPSubmitter(cfg.Submission.HTTP.Endpoint, config.GetDuration(cfg.Submission.Timeout), subLog), nil

	case submission.BackendCamunda:
		var zc *camunda.Client
		err := retryWithBackoff(func() error {
			var err error
			zc, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
				GatewayAddress:         cfg.Submission.Camunda.BrokerAddress,
				UsePlaintextConnection: cfg.Submission.Camunda.Plaintext,
			})
			return err
		}, 10, 2*time.Second, log, "Zeebe client initialization")
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, zc.Close)
		a.checks["zeebe"] = zc.HealthCheck
		log.Info("Zeebe client connected successfully", nil)
		return submission.NewCamundaSubmitter(zc, cfg.Submission.Camunda.ProcessID, subLog), nil
	}
	return nil, fmt.Errorf("unknown submission backend %q", cfg.Submission.Backend)
}

func openNotifier(ctx context.Context, cfg *config.Config, translator *i18n.Translator, log logger.Logger) (*submission.Notifier, error) {
	n := cfg.Notifications
	if !n.Enabled() {
		return nil, nil
	}

	var email submission.EmailSender
	var sms submission.SMSSender
	if n.Email.Enabled {
		client, err := aws.NewSESClient(ctx, n.AWS.Region, n.Email.FromEmail)
		if err != nil {
			return nil, err
		}
		email = client
	}
	if n.SMS.Enabled {
		client, err := aws.NewSNSClient(ctx, n.AWS.Region, n.SMS.SenderID)
		if err != nil {
			return nil, err
		}
		sms = client
	}
	return submission.NewNotifier(email, sms, translator, logger.Component(log, "notifier")), nil
}
