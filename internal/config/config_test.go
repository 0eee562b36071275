package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validConfig returns a config that passes Validate.
func validConfig() *Config {
	cfg := Default()
	cfg.Slack.BotToken = "xoxb-token"
	cfg.Slack.SigningSecret = "signing"
	cfg.Slack.ApproverIDs = []string{"U1"}
	cfg.Summarizer.APIKey = "sk-key"
	return cfg
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "gpt-4o-mini", cfg.Summarizer.Model)
	assert.Equal(t, 4, cfg.Approval.Workers)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "port"},
		{"zero shutdown timeout", func(c *Config) { c.Server.ShutdownTimeout = 0 }, "shutdown timeout"},
		{"missing bot token", func(c *Config) { c.Slack.BotToken = "" }, "bot token"},
		{"missing signing secret", func(c *Config) { c.Slack.SigningSecret = "" }, "signing secret"},
		{"no approvers", func(c *Config) { c.Slack.ApproverIDs = nil }, "approver"},
		{"missing api key", func(c *Config) { c.Summarizer.APIKey = "" }, "API key"},
		{"zero workers", func(c *Config) { c.Approval.Workers = 0 }, "workers"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "8080")
	t.Setenv("SLACK_BOT_TOKEN", "xoxb-env")
	t.Setenv("SLACK_SIGNING_SECRET", "env-secret")
	t.Setenv("SLACK_APPROVER_IDS", "U1, U2,U3")
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("OPENAI_MODEL", "gpt-4o")
	t.Setenv("APPROVAL_WORKERS", "8")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "xoxb-env", cfg.Slack.BotToken.Value())
	assert.Equal(t, "env-secret", cfg.Slack.SigningSecret.Value())
	assert.Equal(t, []string{"U1", "U2", "U3"}, cfg.Slack.ApproverIDs)
	assert.Equal(t, "sk-env", cfg.Summarizer.APIKey.Value())
	assert.Equal(t, "gpt-4o", cfg.Summarizer.Model)
	assert.Equal(t, 8, cfg.Approval.Workers)

	require.NoError(t, cfg.Validate())
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 4000
slack:
  bot_token: xoxb-file
  signing_secret: file-secret
  approver_ids:
    - UFILE
summarizer:
  api_key: sk-file
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	// Env wins over file.
	t.Setenv("SERVER_PORT", "5000")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, "xoxb-file", cfg.Slack.BotToken.Value())
	assert.Equal(t, []string{"UFILE"}, cfg.Slack.ApproverIDs)
}

func TestLoad_MissingFileIgnored(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Server.Port, cfg.Server.Port)
}

func TestSecret_Redaction(t *testing.T) {
	s := Secret("super-secret")

	assert.Equal(t, "[REDACTED]", s.String())
	assert.Equal(t, "[REDACTED]", fmt.Sprintf("%s", s))
	assert.Equal(t, "Secret([REDACTED])", fmt.Sprintf("%#v", s))
	assert.Equal(t, "super-secret", s.Value())
	assert.True(t, s.IsSet())

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Equal(t, `"[REDACTED]"`, string(data))

	assert.False(t, Secret("").IsSet())
	assert.Equal(t, "", Secret("").String())
}
