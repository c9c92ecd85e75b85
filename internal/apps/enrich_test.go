package apps

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/haasonsaas/concierge/pkg/models"
)

type fakeBroker struct {
	executed []string
	execute  func(slug string, args map[string]any) (*models.ToolResult, error)
	fetch    func(slugs []string) ([]models.ToolDefinition, error)
}

func (f *fakeBroker) Execute(ctx context.Context, userID, slug string, args map[string]any) (*models.ToolResult, error) {
	f.executed = append(f.executed, slug)
	if f.execute == nil {
		return nil, errors.New("unexpected Execute call")
	}
	return f.execute(slug, args)
}

func (f *fakeBroker) FetchTools(ctx context.Context, userID string, slugs []string) ([]models.ToolDefinition, error) {
	if f.fetch == nil {
		return nil, errors.New("unexpected FetchTools call")
	}
	return f.fetch(slugs)
}

func successResult(data any) *models.ToolResult {
	ok := true
	return &models.ToolResult{Data: data, Successful: &ok}
}

func TestSlackEnrichProposal_ChannelAndUser(t *testing.T) {
	b := &fakeBroker{execute: func(slug string, args map[string]any) (*models.ToolResult, error) {
		switch slug {
		case "SLACK_LIST_CONVERSATIONS":
			return successResult(map[string]any{
				"channels": []any{
					map[string]any{"id": "C0AAA", "name": "support"},
					map[string]any{"id": "C0BBB", "name": "random"},
				},
			}), nil
		case "SLACK_LIST_ALL_USERS":
			return successResult(map[string]any{
				"members": []any{
					map[string]any{"id": "U0XYZ", "real_name": "Dana Ops"},
				},
			}), nil
		}
		return nil, errors.New("unexpected slug " + slug)
	}}

	slack := NewSlackCapability(b, "", nil)
	args := map[string]any{"channel": "C0AAA", "user": "U0XYZ", "text": "hi"}
	enriched := slack.EnrichProposal(context.Background(), "user-1", "SLACK_SEND_MESSAGE", args)

	if enriched["channelName"] != "#support" {
		t.Errorf("channelName = %v, want #support", enriched["channelName"])
	}
	if enriched["userName"] != "Dana Ops" {
		t.Errorf("userName = %v, want Dana Ops", enriched["userName"])
	}
	if _, mutated := args["channelName"]; mutated {
		t.Error("original args must not be mutated")
	}
}

func TestSlackEnrichProposal_CachesLookups(t *testing.T) {
	calls := 0
	b := &fakeBroker{execute: func(slug string, args map[string]any) (*models.ToolResult, error) {
		calls++
		return successResult(map[string]any{
			"channels": []any{map[string]any{"id": "C0AAA", "name": "support"}},
		}), nil
	}}

	slack := NewSlackCapability(b, "", nil)
	args := map[string]any{"channel": "C0AAA"}
	slack.EnrichProposal(context.Background(), "user-1", "SLACK_SEND_MESSAGE", args)
	slack.EnrichProposal(context.Background(), "user-1", "SLACK_SEND_MESSAGE", args)

	if calls != 1 {
		t.Errorf("broker calls = %d, want 1 (second lookup cached)", calls)
	}
}

func TestSlackEnrichProposal_DMChannelResolvesUser(t *testing.T) {
	b := &fakeBroker{execute: func(slug string, args map[string]any) (*models.ToolResult, error) {
		if slug != "SLACK_LIST_ALL_USERS" {
			return nil, errors.New("unexpected slug " + slug)
		}
		return successResult(map[string]any{
			"members": []any{map[string]any{"id": "U0123", "name": "jordan"}},
		}), nil
	}}

	slack := NewSlackCapability(b, "", nil)
	enriched := slack.EnrichProposal(context.Background(), "user-1", "SLACK_SEND_MESSAGE",
		map[string]any{"channel": "U0123"})

	if enriched["channelName"] != "jordan" {
		t.Errorf("channelName = %v, want jordan", enriched["channelName"])
	}
}

func TestSlackEnrichProposal_LookupFailureDegrades(t *testing.T) {
	b := &fakeBroker{execute: func(slug string, args map[string]any) (*models.ToolResult, error) {
		return nil, errors.New("broker down")
	}}

	slack := NewSlackCapability(b, "", nil)
	enriched := slack.EnrichProposal(context.Background(), "user-1", "SLACK_SEND_MESSAGE",
		map[string]any{"channel": "C0AAA", "text": "hi"})

	if _, present := enriched["channelName"]; present {
		t.Error("failed lookup should leave args unenriched")
	}
	if enriched["text"] != "hi" {
		t.Error("original args must survive")
	}
}

func TestSlackTransformResult_AggregatesChannelPages(t *testing.T) {
	b := &fakeBroker{execute: func(slug string, args map[string]any) (*models.ToolResult, error) {
		if args["cursor"] != "page2" {
			t.Errorf("cursor = %v, want page2", args["cursor"])
		}
		return successResult(map[string]any{
			"channels":          []any{map[string]any{"id": "C2", "name": "two"}},
			"response_metadata": map[string]any{"next_cursor": ""},
		}), nil
	}}
	slack := NewSlackCapability(b, "", nil)

	first := successResult(map[string]any{
		"channels":          []any{map[string]any{"id": "C1", "name": "one"}},
		"response_metadata": map[string]any{"next_cursor": "page2"},
	})

	out := slack.TransformResult(context.Background(), "user-1", "SLACK_LIST_ALL_CHANNELS",
		map[string]any{"limit": 200}, first)

	data := out.Data.(map[string]any)
	channels := data["channels"].([]any)
	if len(channels) != 2 {
		t.Fatalf("aggregated channels = %d, want 2", len(channels))
	}
	if cursor := nextCursor(data); cursor != "" {
		t.Errorf("next_cursor should be cleared, got %q", cursor)
	}
}

func TestSlackTransformResult_SimplifiesHistory(t *testing.T) {
	slack := NewSlackCapability(nil, "", nil)

	result := successResult(map[string]any{
		"messages": []any{
			map[string]any{"user": "U1", "text": "hello", "ts": "1.0", "blocks": []any{"noise"}},
			map[string]any{"type": "structural"},
		},
	})

	out := slack.TransformResult(context.Background(), "user-1", "SLACK_FETCH_CONVERSATION_HISTORY", nil, result)

	messages := out.Data.(map[string]any)["messages"].([]any)
	if len(messages) != 1 {
		t.Fatalf("messages = %d, want 1 (textless dropped)", len(messages))
	}
	kept := messages[0].(map[string]any)
	if kept["text"] != "hello" {
		t.Errorf("text = %v", kept["text"])
	}
	if _, hasBlocks := kept["blocks"]; hasBlocks {
		t.Error("noisy fields should be stripped")
	}
}

func TestLinearEnrichProposal_ResolvesNames(t *testing.T) {
	b := &fakeBroker{execute: func(slug string, args map[string]any) (*models.ToolResult, error) {
		if slug != "LINEAR_RUN_QUERY_OR_MUTATION" {
			return nil, errors.New("unexpected slug " + slug)
		}
		query, _ := args["query_or_mutation"].(string)
		switch {
		case strings.Contains(query, "team("):
			return successResult(map[string]any{
				"data": map[string]any{"team": map[string]any{"id": "t1", "name": "Platform"}},
			}), nil
		case strings.Contains(query, "workflowState("):
			return successResult(map[string]any{
				"data": map[string]any{"workflowState": map[string]any{"id": "s1", "name": "In Progress"}},
			}), nil
		}
		return successResult(map[string]any{}), nil
	}}

	linear := NewLinearCapability(b, nil)
	enriched := linear.EnrichProposal(context.Background(), "user-1", "LINEAR_CREATE_LINEAR_ISSUE",
		map[string]any{"team_id": "t1", "state_id": "s1", "priority": float64(1), "title": "Fix login"})

	if enriched["teamName"] != "Platform" {
		t.Errorf("teamName = %v", enriched["teamName"])
	}
	if enriched["stateName"] != "In Progress" {
		t.Errorf("stateName = %v", enriched["stateName"])
	}
	if enriched["priorityLabel"] != "Urgent" {
		t.Errorf("priorityLabel = %v", enriched["priorityLabel"])
	}
}

func TestLinearEnrichProposal_FailureReturnsOriginal(t *testing.T) {
	b := &fakeBroker{execute: func(slug string, args map[string]any) (*models.ToolResult, error) {
		return nil, errors.New("broker down")
	}}

	linear := NewLinearCapability(b, nil)
	enriched := linear.EnrichProposal(context.Background(), "user-1", "LINEAR_UPDATE_ISSUE",
		map[string]any{"team_id": "t1", "title": "Fix"})

	if _, present := enriched["teamName"]; present {
		t.Error("failed lookup should not add names")
	}
	if enriched["title"] != "Fix" {
		t.Error("original args must survive")
	}
}

func TestLoadTools_CollectsPerAppErrors(t *testing.T) {
	b := &fakeBroker{fetch: func(slugs []string) ([]models.ToolDefinition, error) {
		if slugs[0] == gmailToolSlugs[0] {
			return nil, errors.New("gmail unavailable")
		}
		defs := make([]models.ToolDefinition, len(slugs))
		for i, slug := range slugs {
			defs[i] = models.ToolDefinition{Name: slug}
		}
		return defs, nil
	}}

	registry := NewRegistry(NewNotionCapability(), NewGmailCapability())
	tools, errs := LoadTools(context.Background(), b, registry, "user-1", nil, nil)

	if len(errs) != 1 {
		t.Fatalf("errs = %v, want one gmail error", errs)
	}
	if len(tools) != len(notionToolSlugs) {
		t.Errorf("tools = %d, want %d notion tools", len(tools), len(notionToolSlugs))
	}
}

func TestLoadTools_RequiredAppsFilter(t *testing.T) {
	b := &fakeBroker{fetch: func(slugs []string) ([]models.ToolDefinition, error) {
		defs := make([]models.ToolDefinition, len(slugs))
		for i, slug := range slugs {
			defs[i] = models.ToolDefinition{Name: slug}
		}
		return defs, nil
	}}

	registry := NewRegistry(NewNotionCapability(), NewGmailCapability(), NewCalendarCapability())
	tools, errs := LoadTools(context.Background(), b, registry, "user-1", []string{"Google Calendar"}, nil)

	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(tools) != len(calendarToolSlugs) {
		t.Errorf("tools = %d, want only calendar's %d", len(tools), len(calendarToolSlugs))
	}
	for _, tool := range tools {
		if AppForTool(tool.Name) != AppGoogleCalendar {
			t.Errorf("unexpected tool %s", tool.Name)
		}
	}
}

