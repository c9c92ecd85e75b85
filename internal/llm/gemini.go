package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/haasonsaas/concierge/pkg/models"
	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.0-flash"

// GeminiChat is a Chat backed by Google's Gemini API. The session holds the
// full content history and replays it on every call, which is how the genai
// SDK models multi-turn conversations.
type GeminiChat struct {
	client  *genai.Client
	model   string
	config  *genai.GenerateContentConfig
	history []*genai.Content
}

// NewGeminiChat opens a Gemini conversation session.
func NewGeminiChat(ctx context.Context, cfg SessionConfig) (*GeminiChat, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = defaultGeminiModel
	}

	genConfig := &genai.GenerateContentConfig{}
	if cfg.System != "" {
		genConfig.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{genai.NewPartFromText(cfg.System)},
		}
	}
	if tools := toGeminiTools(cfg.Tools); tools != nil {
		genConfig.Tools = tools
	}

	history := make([]*genai.Content, 0, len(cfg.History))
	for _, turn := range cfg.History {
		role := genai.RoleUser
		if turn.Role == "assistant" {
			role = genai.RoleModel
		}
		history = append(history, genai.NewContentFromText(turn.Content, genai.Role(role)))
	}

	return &GeminiChat{
		client:  client,
		model:   model,
		config:  genConfig,
		history: history,
	}, nil
}

// SendUserMessage implements Chat.
func (c *GeminiChat) SendUserMessage(ctx context.Context, text string) (*Response, error) {
	return c.send(ctx, genai.NewContentFromText(text, genai.RoleUser))
}

// SendToolResult implements Chat. Gemini correlates function responses by
// name; callID is carried through when the model assigned one.
func (c *GeminiChat) SendToolResult(ctx context.Context, tool string, result map[string]any, callID string) (*Response, error) {
	part := genai.NewPartFromFunctionResponse(tool, result)
	if callID != "" {
		part.FunctionResponse.ID = callID
	}
	return c.send(ctx, &genai.Content{Role: genai.RoleUser, Parts: []*genai.Part{part}})
}

func (c *GeminiChat) send(ctx context.Context, content *genai.Content) (*Response, error) {
	c.history = append(c.history, content)

	resp, err := c.client.Models.GenerateContent(ctx, c.model, c.history, c.config)
	if err != nil {
		// The input stays in history so a retried call replays the same
		// conversation.
		return nil, NewProviderError("google", c.model, err)
	}

	out := &Response{}
	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		candidate := resp.Candidates[0].Content
		c.history = append(c.history, candidate)

		var text strings.Builder
		for _, part := range candidate.Parts {
			if part == nil {
				continue
			}
			if part.Thought {
				if part.Text != "" {
					out.Thoughts = append(out.Thoughts, part.Text)
				}
				continue
			}
			if part.Text != "" {
				text.WriteString(part.Text)
			}
			if fc := part.FunctionCall; fc != nil {
				out.ToolCalls = append(out.ToolCalls, models.ToolCall{
					Name:   fc.Name,
					Args:   fc.Args,
					CallID: fc.ID,
				})
			}
		}
		out.Text = text.String()
	}
	return out, nil
}

// toGeminiTools converts tool definitions into a single genai.Tool carrying
// every function declaration, which is the layout Gemini expects.
func toGeminiTools(tools []models.ToolDefinition) []*genai.Tool {
	if len(tools) == 0 {
		return nil
	}
	declarations := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, tool := range tools {
		declarations = append(declarations, &genai.FunctionDeclaration{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  toGeminiSchema(tool.Parameters),
		})
	}
	return []*genai.Tool{{FunctionDeclarations: declarations}}
}

// toGeminiSchema converts a JSON-schema map to Gemini's Schema type,
// dropping metadata fields the API rejects.
func toGeminiSchema(schemaMap map[string]any) *genai.Schema {
	if schemaMap == nil {
		return nil
	}

	schema := &genai.Schema{}

	if t, ok := schemaMap["type"].(string); ok {
		schema.Type = genai.Type(strings.ToUpper(t))
	}
	if desc, ok := schemaMap["description"].(string); ok {
		schema.Description = desc
	}
	if enum, ok := schemaMap["enum"].([]any); ok {
		for _, e := range enum {
			if s, ok := e.(string); ok {
				schema.Enum = append(schema.Enum, s)
			}
		}
	}
	if props, ok := schemaMap["properties"].(map[string]any); ok {
		schema.Properties = make(map[string]*genai.Schema)
		for name, prop := range props {
			if propMap, ok := prop.(map[string]any); ok {
				schema.Properties[name] = toGeminiSchema(propMap)
			}
		}
	}
	if required, ok := schemaMap["required"].([]any); ok {
		for _, r := range required {
			if s, ok := r.(string); ok {
				// A required name without a matching property definition is
				// rejected by the API.
				if _, defined := schema.Properties[s]; defined {
					schema.Required = append(schema.Required, s)
				}
			}
		}
	}
	if items, ok := schemaMap["items"].(map[string]any); ok {
		schema.Items = toGeminiSchema(items)
	}

	return schema
}
