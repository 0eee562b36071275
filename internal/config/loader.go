package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// envSections maps environment variable prefixes to config sections.
// Variables outside these prefixes are ignored.
//
//	SERVER_PORT           -> server.port
//	SLACK_BOT_TOKEN       -> slack.bot_token
//	SLACK_APPROVER_IDS    -> slack.approver_ids (comma separated)
//	OPENAI_API_KEY        -> summarizer.api_key
//	APPROVAL_WORKERS      -> approval.workers
//	LOG_LEVEL             -> logging.level
var envSections = map[string]string{
	"SERVER_":   "server",
	"SLACK_":    "slack",
	"OPENAI_":   "summarizer",
	"APPROVAL_": "approval",
	"LOG_":      "logging",
}

// listKeys are env-sourced values split on commas into string slices.
var listKeys = map[string]bool{
	"slack.approver_ids": true,
}

// Load builds the configuration: defaults, then the YAML file at configPath
// (if it exists), then environment variables on top.
//
// An empty configPath skips the file layer entirely.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath != "" {
		content, err := os.ReadFile(configPath)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.ProviderWithValue("", ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// envTransform maps an environment variable to its config key, splitting
// list values. Returning an empty key skips the variable.
func envTransform(key, value string) (string, interface{}) {
	for prefix, section := range envSections {
		if !strings.HasPrefix(key, prefix) {
			continue
		}

		mapped := section + "." + strings.ToLower(strings.TrimPrefix(key, prefix))
		if listKeys[mapped] {
			parts := strings.Split(value, ",")
			items := make([]string, 0, len(parts))
			for _, p := range parts {
				if trimmed := strings.TrimSpace(p); trimmed != "" {
					items = append(items, trimmed)
				}
			}
			return mapped, items
		}
		return mapped, value
	}
	return "", nil
}
