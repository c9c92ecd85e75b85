package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/haasonsaas/concierge/pkg/models"
	"google.golang.org/genai"
)

func TestProviderError_Classification(t *testing.T) {
	cases := []struct {
		name string
		text string
		want ErrorReason
	}{
		{"rate limit text", "429 Too Many Requests: rate limit exceeded", ReasonRateLimit},
		{"quota", "rpc error: RESOURCE_EXHAUSTED: quota exceeded", ReasonRateLimit},
		{"auth", "401 unauthorized: invalid api key", ReasonAuth},
		{"server", "503 service overloaded", ReasonServerError},
		{"unknown", "something odd happened", ReasonUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := NewProviderError("google", "gemini-2.0-flash", errors.New(tc.text))
			if err.Reason != tc.want {
				t.Errorf("reason = %s, want %s", err.Reason, tc.want)
			}
		})
	}
}

func TestProviderError_StatusOverridesText(t *testing.T) {
	err := NewProviderError("openai", "gpt-4o", errors.New("opaque failure")).WithStatus(429)
	if err.Reason != ReasonRateLimit {
		t.Errorf("reason = %s, want rate_limit", err.Reason)
	}
	if !IsRateLimited(err) {
		t.Error("IsRateLimited should recognize the wrapped error")
	}
}

func TestIsRateLimited_RawError(t *testing.T) {
	if !IsRateLimited(errors.New("googleapi: Error 429: quota exceeded")) {
		t.Error("raw 429 text should classify as rate limited")
	}
	if IsRateLimited(errors.New("connection refused")) {
		t.Error("connection error is not a rate limit")
	}
	if IsRateLimited(nil) {
		t.Error("nil is not rate limited")
	}
}

func TestProviderError_RetryHint(t *testing.T) {
	err := NewProviderError("google", "gemini-2.0-flash", errors.New("quota exceeded")).
		WithRetryHint(12 * time.Second)
	d, ok := err.RetryAfter()
	if !ok || d != 12*time.Second {
		t.Errorf("RetryAfter = %v, %v; want 12s, true", d, ok)
	}

	bare := NewProviderError("google", "gemini-2.0-flash", errors.New("quota exceeded"))
	if _, ok := bare.RetryAfter(); ok {
		t.Error("expected no hint when none was set")
	}
}

func TestProviderError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := NewProviderError("anthropic", "claude-sonnet-4-20250514", cause)
	if !errors.Is(err, cause) {
		t.Error("errors.Is should reach the cause")
	}
}

func testToolDefs() []models.ToolDefinition {
	return []models.ToolDefinition{
		{
			Name:        "LINEAR_CREATE_LINEAR_ISSUE",
			Description: "Create a Linear issue",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"title":    map[string]any{"type": "string", "description": "Issue title"},
					"priority": map[string]any{"type": "integer"},
					"labels": map[string]any{
						"type":  "array",
						"items": map[string]any{"type": "string"},
					},
				},
				"required": []any{"title", "project_id"},
			},
		},
	}
}

func TestToGeminiSchema(t *testing.T) {
	tools := toGeminiTools(testToolDefs())
	if len(tools) != 1 || len(tools[0].FunctionDeclarations) != 1 {
		t.Fatalf("expected one tool with one declaration, got %+v", tools)
	}

	decl := tools[0].FunctionDeclarations[0]
	if decl.Name != "LINEAR_CREATE_LINEAR_ISSUE" {
		t.Errorf("name = %q", decl.Name)
	}
	schema := decl.Parameters
	if schema.Type != genai.TypeObject {
		t.Errorf("type = %s, want OBJECT", schema.Type)
	}
	if schema.Properties["title"].Type != genai.TypeString {
		t.Errorf("title type = %s, want STRING", schema.Properties["title"].Type)
	}
	if schema.Properties["labels"].Items == nil || schema.Properties["labels"].Items.Type != genai.TypeString {
		t.Error("array items not converted")
	}
	// project_id is required but undeclared; it must be dropped from the
	// converted schema or the API rejects the tool.
	if len(schema.Required) != 1 || schema.Required[0] != "title" {
		t.Errorf("required = %v, want [title]", schema.Required)
	}
}

func TestToGeminiSchema_Nil(t *testing.T) {
	if toGeminiSchema(nil) != nil {
		t.Error("nil schema should stay nil")
	}
	if toGeminiTools(nil) != nil {
		t.Error("no tools should yield nil")
	}
}

func TestToOpenAITools(t *testing.T) {
	tools := toOpenAITools(testToolDefs())
	if len(tools) != 1 {
		t.Fatalf("len = %d, want 1", len(tools))
	}
	fn := tools[0].Function
	if fn == nil || fn.Name != "LINEAR_CREATE_LINEAR_ISSUE" || fn.Description == "" {
		t.Errorf("unexpected function definition: %+v", fn)
	}
}

func TestToAnthropicTools(t *testing.T) {
	tools, err := toAnthropicTools(testToolDefs())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tools) != 1 || tools[0].OfTool == nil {
		t.Fatalf("expected one converted tool, got %+v", tools)
	}
	if tools[0].OfTool.Name != "LINEAR_CREATE_LINEAR_ISSUE" {
		t.Errorf("name = %q", tools[0].OfTool.Name)
	}
}

func TestNewChat_UnknownProvider(t *testing.T) {
	_, err := NewChat(context.Background(), SessionConfig{Provider: "cohere", APIKey: "k"})
	if err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestNewChat_RequiresAPIKey(t *testing.T) {
	for _, provider := range []string{"google", "anthropic", "openai"} {
		if _, err := NewChat(context.Background(), SessionConfig{Provider: provider}); err == nil {
			t.Errorf("%s: expected error without api key", provider)
		}
	}
}

func TestResponse_HasToolCalls(t *testing.T) {
	var nilResp *Response
	if nilResp.HasToolCalls() {
		t.Error("nil response has no tool calls")
	}
	if (&Response{Text: "hi"}).HasToolCalls() {
		t.Error("text-only response has no tool calls")
	}
	withCall := &Response{ToolCalls: []models.ToolCall{{Name: "SLACK_SEND_MESSAGE"}}}
	if !withCall.HasToolCalls() {
		t.Error("expected tool calls")
	}
}
