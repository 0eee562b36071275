// Package config provides configuration loading for remedyd.
//
// Configuration comes from an optional YAML file overridden by environment
// variables, with hardcoded defaults underneath. Credentials are held in
// the Secret type so they redact themselves in logs and serialization.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/fyrsmithlabs/remedyd/internal/logging"
)

// Config holds the complete remedyd configuration.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Slack      SlackConfig      `koanf:"slack"`
	Summarizer SummarizerConfig `koanf:"summarizer"`
	Approval   ApprovalConfig   `koanf:"approval"`
	Logging    logging.Config   `koanf:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            int           `koanf:"port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// SlackConfig holds chat-platform credentials and the approver set.
type SlackConfig struct {
	BotToken      Secret   `koanf:"bot_token"`
	SigningSecret Secret   `koanf:"signing_secret"`
	ApproverIDs   []string `koanf:"approver_ids"`
}

// SummarizerConfig holds LLM summarizer configuration.
type SummarizerConfig struct {
	APIKey Secret `koanf:"api_key"`
	Model  string `koanf:"model"`
}

// ApprovalConfig holds worker-pool sizing for approval side effects.
type ApprovalConfig struct {
	Workers   int `koanf:"workers"`
	QueueSize int `koanf:"queue_size"`
}

// Default returns the configuration defaults applied under file and
// environment overrides.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            3000,
			ShutdownTimeout: 10 * time.Second,
		},
		Summarizer: SummarizerConfig{
			Model: "gpt-4o-mini",
		},
		Approval: ApprovalConfig{
			Workers:   4,
			QueueSize: 64,
		},
		Logging: logging.DefaultConfig(),
	}
}

// Validate checks the configuration for startup.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return errors.New("shutdown timeout must be positive")
	}

	if !c.Slack.BotToken.IsSet() {
		return errors.New("slack bot token is required (SLACK_BOT_TOKEN)")
	}
	if !c.Slack.SigningSecret.IsSet() {
		return errors.New("slack signing secret is required (SLACK_SIGNING_SECRET)")
	}
	if len(c.Slack.ApproverIDs) == 0 {
		return errors.New("at least one approver is required (SLACK_APPROVER_IDS)")
	}

	if !c.Summarizer.APIKey.IsSet() {
		return errors.New("summarizer API key is required (OPENAI_API_KEY)")
	}

	if c.Approval.Workers < 1 {
		return errors.New("approval workers must be positive")
	}
	if c.Approval.QueueSize < 1 {
		return errors.New("approval queue size must be positive")
	}

	if err := c.Logging.Validate(); err != nil {
		return err
	}

	return nil
}
