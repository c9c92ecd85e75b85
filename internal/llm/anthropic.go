package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/haasonsaas/concierge/pkg/models"
)

const (
	defaultAnthropicModel     = "claude-sonnet-4-20250514"
	defaultAnthropicMaxTokens = 4096
)

// AnthropicChat is a Chat backed by Anthropic's Messages API.
type AnthropicChat struct {
	client  anthropic.Client
	model   string
	system  []anthropic.TextBlockParam
	tools   []anthropic.ToolUnionParam
	history []anthropic.MessageParam
}

// NewAnthropicChat opens a Claude conversation session.
func NewAnthropicChat(cfg SessionConfig) (*AnthropicChat, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("anthropic: api key is required")
	}

	options := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		options = append(options, option.WithBaseURL(cfg.BaseURL))
	}

	model := cfg.Model
	if model == "" {
		model = defaultAnthropicModel
	}

	var system []anthropic.TextBlockParam
	if cfg.System != "" {
		system = []anthropic.TextBlockParam{{Type: "text", Text: cfg.System}}
	}

	tools, err := toAnthropicTools(cfg.Tools)
	if err != nil {
		return nil, err
	}

	history := make([]anthropic.MessageParam, 0, len(cfg.History))
	for _, turn := range cfg.History {
		if turn.Role == "assistant" {
			history = append(history, anthropic.NewAssistantMessage(anthropic.NewTextBlock(turn.Content)))
		} else {
			history = append(history, anthropic.NewUserMessage(anthropic.NewTextBlock(turn.Content)))
		}
	}

	return &AnthropicChat{
		client:  anthropic.NewClient(options...),
		model:   model,
		system:  system,
		tools:   tools,
		history: history,
	}, nil
}

// SendUserMessage implements Chat.
func (c *AnthropicChat) SendUserMessage(ctx context.Context, text string) (*Response, error) {
	return c.send(ctx, anthropic.NewUserMessage(anthropic.NewTextBlock(text)))
}

// SendToolResult implements Chat. The Messages API requires the result to
// reference the originating tool_use block by ID.
func (c *AnthropicChat) SendToolResult(ctx context.Context, tool string, result map[string]any, callID string) (*Response, error) {
	payload, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("anthropic: encode tool result for %s: %w", tool, err)
	}
	isError := false
	if successful, ok := result["successful"].(bool); ok && !successful {
		isError = true
	}
	return c.send(ctx, anthropic.NewUserMessage(
		anthropic.NewToolResultBlock(callID, string(payload), isError),
	))
}

func (c *AnthropicChat) send(ctx context.Context, message anthropic.MessageParam) (*Response, error) {
	c.history = append(c.history, message)

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		Messages:  c.history,
		MaxTokens: defaultAnthropicMaxTokens,
	}
	if len(c.system) > 0 {
		params.System = c.system
	}
	if len(c.tools) > 0 {
		params.Tools = c.tools
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, c.wrapError(err)
	}
	c.history = append(c.history, resp.ToParam())

	out := &Response{}
	var text strings.Builder
	for _, block := range resp.Content {
		switch b := block.AsAny().(type) {
		case anthropic.TextBlock:
			text.WriteString(b.Text)
		case anthropic.ThinkingBlock:
			if b.Thinking != "" {
				out.Thoughts = append(out.Thoughts, b.Thinking)
			}
		case anthropic.ToolUseBlock:
			var args map[string]any
			if len(b.Input) > 0 {
				if err := json.Unmarshal(b.Input, &args); err != nil {
					return nil, NewProviderError("anthropic", c.model,
						fmt.Errorf("invalid tool input for %s: %w", b.Name, err))
				}
			}
			out.ToolCalls = append(out.ToolCalls, models.ToolCall{
				Name:   b.Name,
				Args:   args,
				CallID: b.ID,
			})
		}
	}
	out.Text = text.String()
	return out, nil
}

func (c *AnthropicChat) wrapError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return NewProviderError("anthropic", c.model, err).WithStatus(apiErr.StatusCode)
	}
	return NewProviderError("anthropic", c.model, err)
}

func toAnthropicTools(tools []models.ToolDefinition) ([]anthropic.ToolUnionParam, error) {
	if len(tools) == 0 {
		return nil, nil
	}
	result := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, tool := range tools {
		raw, err := json.Marshal(tool.Parameters)
		if err != nil {
			return nil, fmt.Errorf("invalid tool schema for %s: %w", tool.Name, err)
		}
		var schema anthropic.ToolInputSchemaParam
		if err := json.Unmarshal(raw, &schema); err != nil {
			return nil, fmt.Errorf("invalid tool schema for %s: %w", tool.Name, err)
		}

		param := anthropic.ToolUnionParamOfTool(schema, tool.Name)
		if param.OfTool == nil {
			return nil, fmt.Errorf("invalid tool schema for %s: missing tool definition", tool.Name)
		}
		param.OfTool.Description = anthropic.String(tool.Description)
		result = append(result, param)
	}
	return result, nil
}
