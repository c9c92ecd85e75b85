package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/haasonsaas/concierge/pkg/models"
	openai "github.com/sashabaranov/go-openai"
)

const defaultOpenAIModel = "gpt-4o"

// OpenAIChat is a Chat backed by the OpenAI chat completions API. Setting
// BaseURL points it at any OpenAI-compatible server.
type OpenAIChat struct {
	client  *openai.Client
	model   string
	tools   []openai.Tool
	history []openai.ChatCompletionMessage
}

// NewOpenAIChat opens an OpenAI conversation session.
func NewOpenAIChat(cfg SessionConfig) (*OpenAIChat, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai: api key is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if strings.TrimSpace(cfg.BaseURL) != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
	}

	history := make([]openai.ChatCompletionMessage, 0, len(cfg.History)+1)
	if cfg.System != "" {
		history = append(history, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: cfg.System,
		})
	}
	for _, turn := range cfg.History {
		role := openai.ChatMessageRoleUser
		if turn.Role == "assistant" {
			role = openai.ChatMessageRoleAssistant
		}
		history = append(history, openai.ChatCompletionMessage{Role: role, Content: turn.Content})
	}

	return &OpenAIChat{
		client:  openai.NewClientWithConfig(clientConfig),
		model:   model,
		tools:   toOpenAITools(cfg.Tools),
		history: history,
	}, nil
}

// SendUserMessage implements Chat.
func (c *OpenAIChat) SendUserMessage(ctx context.Context, text string) (*Response, error) {
	return c.send(ctx, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: text,
	})
}

// SendToolResult implements Chat. OpenAI requires the tool message to carry
// the originating call ID.
func (c *OpenAIChat) SendToolResult(ctx context.Context, tool string, result map[string]any, callID string) (*Response, error) {
	payload, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("openai: encode tool result for %s: %w", tool, err)
	}
	return c.send(ctx, openai.ChatCompletionMessage{
		Role:       openai.ChatMessageRoleTool,
		Content:    string(payload),
		ToolCallID: callID,
	})
}

func (c *OpenAIChat) send(ctx context.Context, message openai.ChatCompletionMessage) (*Response, error) {
	c.history = append(c.history, message)

	req := openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: c.history,
	}
	if len(c.tools) > 0 {
		req.Tools = c.tools
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, c.wrapError(err)
	}
	if len(resp.Choices) == 0 {
		return &Response{}, nil
	}

	reply := resp.Choices[0].Message
	c.history = append(c.history, reply)

	out := &Response{Text: reply.Content}
	for _, call := range reply.ToolCalls {
		if call.Type != openai.ToolTypeFunction {
			continue
		}
		var args map[string]any
		if call.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
				return nil, NewProviderError("openai", c.model,
					fmt.Errorf("invalid tool arguments for %s: %w", call.Function.Name, err))
			}
		}
		out.ToolCalls = append(out.ToolCalls, models.ToolCall{
			Name:   call.Function.Name,
			Args:   args,
			CallID: call.ID,
		})
	}
	return out, nil
}

func (c *OpenAIChat) wrapError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return NewProviderError("openai", c.model, err).WithStatus(apiErr.HTTPStatusCode)
	}
	return NewProviderError("openai", c.model, err)
}

func toOpenAITools(tools []models.ToolDefinition) []openai.Tool {
	if len(tools) == 0 {
		return nil
	}
	result := make([]openai.Tool, 0, len(tools))
	for _, tool := range tools {
		result = append(result, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  tool.Parameters,
			},
		})
	}
	return result
}
