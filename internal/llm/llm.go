// Package llm provides the model chat client consumed by the dispatcher: a
// provider-agnostic session contract plus Gemini, Anthropic, and
// OpenAI-compatible implementations.
//
// A Chat is a stateful, single-turn-at-a-time conversation session. The
// dispatcher owns exactly one Chat per turn and calls it synchronously;
// implementations are not required to be safe for concurrent use.
package llm

import (
	"context"

	"github.com/haasonsaas/concierge/pkg/models"
)

// Response is one model reply: optional text, zero or more proposed tool
// calls, and best-effort reasoning fragments.
type Response struct {
	Text      string
	ToolCalls []models.ToolCall
	Thoughts  []string
}

// HasToolCalls reports whether the model proposed at least one action.
func (r *Response) HasToolCalls() bool {
	return r != nil && len(r.ToolCalls) > 0
}

// Chat is a model conversation session.
type Chat interface {
	// SendUserMessage sends user-authored text and returns the model reply.
	SendUserMessage(ctx context.Context, text string) (*Response, error)

	// SendToolResult feeds one tool execution outcome back to the model.
	// callID correlates the result with the originating tool call when the
	// provider assigned one; providers that do not use call IDs ignore it.
	SendToolResult(ctx context.Context, tool string, result map[string]any, callID string) (*Response, error)
}

// Turn is one prior conversation entry supplied by the caller. Role is
// "user" or "assistant".
type Turn struct {
	Role    string
	Content string
}

// SessionConfig carries everything needed to open a Chat.
type SessionConfig struct {
	Provider string
	Model    string
	APIKey   string
	// BaseURL overrides the provider endpoint for OpenAI-compatible servers.
	BaseURL string
	System  string
	Tools   []models.ToolDefinition
	History []Turn
}
