package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load builds the configuration: defaults, then the YAML file at path (if
// non-empty) with ${ENV} references expanded, then environment-variable
// overrides for credentials left empty.
func Load(path string) (*Config, error) {
	cfg := Default()

	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		expanded := os.ExpandEnv(string(data))

		decoder := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
		decoder.KnownFields(true)
		if err := decoder.Decode(cfg); err != nil && err != io.EOF {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

// applyEnv fills credentials from the environment when the file left them
// empty. File values win over the environment.
func applyEnv(cfg *Config) {
	setIfEmpty(&cfg.Broker.APIKey, "COMPOSIO_API_KEY")
	setIfEmpty(&cfg.Apps.SlackBotToken, "SLACK_BOT_TOKEN")
	setIfEmpty(&cfg.Apps.GitHubToken, "GITHUB_TOKEN")

	switch strings.ToLower(cfg.LLM.Provider) {
	case "anthropic", "claude":
		setIfEmpty(&cfg.LLM.APIKey, "ANTHROPIC_API_KEY")
	case "openai":
		setIfEmpty(&cfg.LLM.APIKey, "OPENAI_API_KEY")
	default:
		setIfEmpty(&cfg.LLM.APIKey, "GOOGLE_API_KEY", "GEMINI_API_KEY")
	}
}

func setIfEmpty(target *string, envKeys ...string) {
	if *target != "" {
		return
	}
	for _, key := range envKeys {
		if value := os.Getenv(key); value != "" {
			*target = value
			return
		}
	}
}
