// Remedyd watches a support channel for pasted error logs, drafts
// remediation messages for the affected users, and routes every draft
// through a human approval workflow before delivery.
//
// Configuration comes from an optional YAML file and environment
// variables. See internal/config for details.
//
// Usage:
//
//	# Start with environment configuration
//	SLACK_BOT_TOKEN=... SLACK_SIGNING_SECRET=... SLACK_APPROVER_IDS=U123 OPENAI_API_KEY=... remedyd
//
//	# Start with a config file
//	remedyd --config /etc/remedyd/config.yaml
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/remedyd/internal/approval"
	"github.com/fyrsmithlabs/remedyd/internal/bot"
	"github.com/fyrsmithlabs/remedyd/internal/config"
	"github.com/fyrsmithlabs/remedyd/internal/draft"
	"github.com/fyrsmithlabs/remedyd/internal/extract"
	"github.com/fyrsmithlabs/remedyd/internal/gateway"
	"github.com/fyrsmithlabs/remedyd/internal/logging"
	"github.com/fyrsmithlabs/remedyd/internal/summarize"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "remedyd",
	Short: "Error-log remediation bot with human approval",
	Long: `remedyd watches a chat channel for pasted error logs, extracts
structured error records, drafts remediation messages, and asks a set of
approvers to approve, edit, or reject each draft before it is delivered
to the affected user.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context())
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the remedyd server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context())
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("remedyd by Fyrsmith Labs\n")
		fmt.Printf("Version:    %s\n", version)
		fmt.Printf("Commit:     %s\n", gitCommit)
		fmt.Printf("Build Date: %s\n", buildDate)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run wires the full pipeline and blocks until the context is cancelled:
//
//  1. Loads and validates configuration
//  2. Initializes the structured logger
//  3. Creates the chat gateway and LLM summarizer
//  4. Builds the extraction, drafting, and approval pipeline
//  5. Starts the HTTP server and waits for shutdown
func run(ctx context.Context) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logging.Sync(logger) // Best-effort sync on shutdown
	}()

	logger.Info("Starting remedyd",
		zap.Int("port", cfg.Server.Port),
		zap.Int("approvers", len(cfg.Slack.ApproverIDs)),
		zap.Duration("shutdown_timeout", cfg.Server.ShutdownTimeout))

	gw := gateway.NewSlack(cfg.Slack.BotToken.Value(), logger)

	summarizer, err := summarize.NewOpenAI(summarize.Config{
		APIKey: cfg.Summarizer.APIKey.Value(),
		Model:  cfg.Summarizer.Model,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to create summarizer: %w", err)
	}

	dispatcher := approval.NewDispatcher(cfg.Approval.Workers, cfg.Approval.QueueSize, logger)
	defer dispatcher.Close()

	workflow, err := approval.NewWorkflow(gw, cfg.Slack.ApproverIDs, dispatcher, logger)
	if err != nil {
		return fmt.Errorf("failed to create approval workflow: %w", err)
	}

	handler, err := bot.NewHandler(
		extract.NewExtractor(),
		draft.NewComposer(summarizer, logger),
		workflow,
		gw,
		cfg.Slack.SigningSecret.Value(),
		logger,
	)
	if err != nil {
		return fmt.Errorf("failed to create handler: %w", err)
	}

	srv, err := bot.NewServer(handler, logger, &bot.Config{Port: cfg.Server.Port})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	// Register metrics endpoint
	srv.Echo().GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	logger.Info("Server configured",
		zap.String("health_endpoint", fmt.Sprintf("http://localhost:%d/health", cfg.Server.Port)),
		zap.String("events_endpoint", "/slack/events"),
		zap.String("metrics_endpoint", "/metrics"))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	logger.Info("Shutdown complete")
	return nil
}
