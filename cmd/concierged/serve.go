package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/haasonsaas/concierge/internal/apps"
	"github.com/haasonsaas/concierge/internal/broker"
	"github.com/haasonsaas/concierge/internal/config"
	"github.com/haasonsaas/concierge/internal/dispatch"
	"github.com/haasonsaas/concierge/internal/observability"
	"github.com/haasonsaas/concierge/internal/retry"
	"github.com/haasonsaas/concierge/internal/server"
)

func buildServeCmd() *cobra.Command {
	var (
		configPath string
		debug      bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Concierge HTTP server",
		Long: `Start the Concierge server: loads configuration, connects the tool broker
and app capabilities, and serves the streaming chat API with health checks
and Prometheus metrics. Shuts down gracefully on SIGINT/SIGTERM.`,
		Example: `  # Start with defaults and environment credentials
  concierged serve

  # Start with a config file
  concierged serve --config /etc/concierge/production.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), configPath, debug)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to YAML configuration file")
	cmd.Flags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")
	return cmd
}

func runServe(ctx context.Context, configPath string, debug bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if debug {
		cfg.Logging.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logOutput := io.Writer(os.Stderr)
	if cfg.Logging.Output == "stdout" {
		logOutput = os.Stdout
	}
	logger := observability.NewLogger(observability.LogConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: logOutput,
	})
	metrics := observability.NewMetrics()

	b, err := broker.NewComposioClient(broker.ComposioConfig{
		APIKey:  cfg.Broker.APIKey,
		BaseURL: cfg.Broker.BaseURL,
		Timeout: cfg.Broker.Timeout,
	}, logger)
	if err != nil {
		return err
	}

	registry := apps.NewRegistry(
		apps.NewLinearCapability(b, logger),
		apps.NewSlackCapability(b, cfg.Apps.SlackBotToken, logger),
		apps.NewGitHubCapability(ctx, cfg.Apps.GitHubToken, logger),
		apps.NewNotionCapability(),
		apps.NewGmailCapability(),
		apps.NewCalendarCapability(),
	)

	retryConfig := retry.DefaultConfig()
	retryConfig.MaxAttempts = cfg.Dispatcher.MaxRetries + 1

	dispatcher := dispatch.New(registry, b, dispatch.Config{
		MaxIterations: cfg.Dispatcher.MaxIterations,
		Retry:         retryConfig,
		PayloadLimit:  cfg.Dispatcher.PayloadLimit,
		GatePairs:     cfg.Dispatcher.GatePairs,
	}, logger, metrics)

	srv := server.New(server.Options{
		Config:     cfg,
		Dispatcher: dispatcher,
		Registry:   registry,
		Broker:     b,
		Logger:     logger,
	})

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	logger.Info(shutdownCtx, "shutting down")
	return srv.Shutdown(shutdownCtx)
}
