package llm

import (
	"context"
	"fmt"
	"strings"
)

// NewChat opens a conversation session with the configured provider. An empty
// provider selects Gemini.
func NewChat(ctx context.Context, cfg SessionConfig) (Chat, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "google", "gemini":
		return NewGeminiChat(ctx, cfg)
	case "anthropic", "claude":
		return NewAnthropicChat(cfg)
	case "openai":
		return NewOpenAIChat(cfg)
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", cfg.Provider)
	}
}
