// Package config defines the daemon configuration: defaults, YAML file
// loading with environment expansion, and environment-variable overrides for
// credentials.
package config

import (
	"fmt"
	"time"

	"github.com/haasonsaas/concierge/internal/dispatch"
)

// Config is the root configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	LLM        LLMConfig        `yaml:"llm"`
	Broker     BrokerConfig     `yaml:"broker"`
	Apps       AppsConfig       `yaml:"apps"`
	Dispatcher DispatcherConfig `yaml:"dispatcher"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LLMConfig configures the default model session.
type LLMConfig struct {
	Provider     string `yaml:"provider"`
	Model        string `yaml:"model"`
	APIKey       string `yaml:"api_key"`
	BaseURL      string `yaml:"base_url"`
	SystemPrompt string `yaml:"system_prompt"`
}

// BrokerConfig configures the tool-execution broker client.
type BrokerConfig struct {
	APIKey  string        `yaml:"api_key"`
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// AppsConfig carries optional per-app credentials used for proposal
// enrichment. All app actions themselves go through the broker.
type AppsConfig struct {
	SlackBotToken string `yaml:"slack_bot_token"`
	GitHubToken   string `yaml:"github_token"`
}

// DispatcherConfig tunes the turn loop.
type DispatcherConfig struct {
	MaxIterations int                 `yaml:"max_iterations"`
	MaxRetries    int                 `yaml:"max_retries"`
	PayloadLimit  int                 `yaml:"payload_limit"`
	GatePairs     []dispatch.GatePair `yaml:"gate_pairs"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		LLM: LLMConfig{
			Provider: "google",
		},
		Broker: BrokerConfig{
			Timeout: 60 * time.Second,
		},
		Dispatcher: DispatcherConfig{
			MaxIterations: 5,
			MaxRetries:    2,
			PayloadLimit:  30000,
			GatePairs:     dispatch.DefaultGatePairs(),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stderr",
		},
	}
}

// Validate checks that required credentials are present.
func (c *Config) Validate() error {
	if c.Broker.APIKey == "" {
		return fmt.Errorf("broker api_key is required (set COMPOSIO_API_KEY)")
	}
	if c.LLM.APIKey == "" {
		return fmt.Errorf("llm api_key is required for provider %q", c.LLM.Provider)
	}
	if c.Dispatcher.MaxIterations <= 0 {
		return fmt.Errorf("dispatcher max_iterations must be positive")
	}
	return nil
}
