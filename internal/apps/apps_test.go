package apps

import (
	"context"
	"reflect"
	"testing"
)

func TestAppForTool(t *testing.T) {
	cases := []struct {
		tool string
		want string
	}{
		{"LINEAR_CREATE_LINEAR_ISSUE", AppLinear},
		{"SLACK_SEND_MESSAGE", AppSlack},
		{"GITHUB_CREATE_AN_ISSUE", AppGitHub},
		{"NOTION_SEARCH_NOTION_PAGE", AppNotion},
		{"GMAIL_SEND_EMAIL", AppGmail},
		{"GOOGLECALENDAR_CREATE_EVENT", AppGoogleCalendar},
		{"GOOGLE_CALENDAR_EVENTS_LIST", AppGoogleCalendar},
		{"WEATHER_GET_FORECAST", "weather"},
		{"standalone", "standalone"},
	}
	for _, tc := range cases {
		if got := AppForTool(tc.tool); got != tc.want {
			t.Errorf("AppForTool(%q) = %q, want %q", tc.tool, got, tc.want)
		}
	}
}

func TestNormalizeAppID(t *testing.T) {
	cases := map[string]string{
		"Linear":          AppLinear,
		"googlecalendar":  AppGoogleCalendar,
		"Google Calendar": AppGoogleCalendar,
		"calendar":        AppGoogleCalendar,
		"googlemail":      AppGmail,
		"SLACK":           AppSlack,
	}
	for in, want := range cases {
		if got := NormalizeAppID(in); got != want {
			t.Errorf("NormalizeAppID(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDisplayName(t *testing.T) {
	if got := DisplayName(AppGitHub); got != "GitHub" {
		t.Errorf("DisplayName(github) = %q", got)
	}
	if got := DisplayName("my_custom_app"); got != "My Custom App" {
		t.Errorf("DisplayName(my_custom_app) = %q", got)
	}
}

func TestEarlySummary(t *testing.T) {
	if got := EarlySummary(AppLinear); got != "I'll search Linear to help with your request." {
		t.Errorf("unexpected linear summary: %q", got)
	}
	if got := EarlySummary("airtable"); got != "I'll look in Airtable to help with your request." {
		t.Errorf("unexpected fallback summary: %q", got)
	}
}

func TestDetectApps(t *testing.T) {
	apps := DetectApps("file a bug and tell the billing team on slack")
	want := []string{AppLinear, AppSlack}
	if !reflect.DeepEqual(apps, want) {
		t.Errorf("DetectApps = %v, want %v", apps, want)
	}

	if got := DetectApps("hello there"); got != nil {
		t.Errorf("no keywords should detect nothing, got %v", got)
	}
}

func TestLooksLikeToolRequest(t *testing.T) {
	if !LooksLikeToolRequest("Create an issue about the login bug") {
		t.Error("create should look like a tool request")
	}
	if LooksLikeToolRequest("thanks!") {
		t.Error("small talk is not a tool request")
	}
}

func TestIsCapabilitiesQuery(t *testing.T) {
	for _, q := range []string{"help", "What can you do?", "  list commands  "} {
		if !IsCapabilitiesQuery(q) {
			t.Errorf("%q should be a capabilities query", q)
		}
	}
	for _, q := range []string{"", "create an issue", "help me send a message"} {
		if IsCapabilitiesQuery(q) {
			t.Errorf("%q should not be a capabilities query", q)
		}
	}
}

func TestLinearWriteClassification(t *testing.T) {
	linear := NewLinearCapability(nil, nil)

	if !linear.IsWriteAction("LINEAR_CREATE_LINEAR_ISSUE", nil) {
		t.Error("create is a write")
	}
	if linear.IsWriteAction("LINEAR_LIST_LINEAR_ISSUES", nil) {
		t.Error("list is a read")
	}
	if !linear.IsWriteAction("LINEAR_RUN_QUERY_OR_MUTATION", map[string]any{
		"query_or_mutation": " mutation IssueUpdate { ... }",
	}) {
		t.Error("graphql mutation is a write")
	}
	if linear.IsWriteAction("LINEAR_RUN_QUERY_OR_MUTATION", map[string]any{
		"query_or_mutation": "{ issues { nodes { id } } }",
	}) {
		t.Error("graphql query is a read")
	}
}

func TestSlackWriteClassification(t *testing.T) {
	slack := NewSlackCapability(nil, "", nil)

	if !slack.IsWriteAction("SLACK_SEND_MESSAGE", nil) {
		t.Error("send message is a write")
	}
	if slack.IsWriteAction("SLACK_SEARCH_MESSAGES", nil) {
		t.Error("search is a read")
	}
	if slack.IsWriteAction("SLACK_FETCH_CONVERSATION_HISTORY", nil) {
		t.Error("history fetch is a read")
	}
}

func TestGitHubWriteClassification(t *testing.T) {
	gh := NewGitHubCapability(context.Background(), "", nil)

	if !gh.IsWriteAction("GITHUB_MERGE_A_PULL_REQUEST", nil) {
		t.Error("merge is a write")
	}
	if gh.IsWriteAction("GITHUB_LIST_PULL_REQUESTS", nil) {
		t.Error("list is a read")
	}
}

func TestCalendarWriteClassification(t *testing.T) {
	cal := NewCalendarCapability()

	if !cal.IsWriteAction("GOOGLECALENDAR_QUICK_ADD", nil) {
		t.Error("quick add is a write")
	}
	if !cal.IsWriteAction("GOOGLECALENDAR_EVENTS_MOVE", nil) {
		t.Error("move is a write")
	}
	if cal.IsWriteAction("GOOGLECALENDAR_FREE_BUSY_QUERY", nil) {
		t.Error("free/busy is a read")
	}
}

func TestRegistry_UnknownAppIsRead(t *testing.T) {
	registry := NewRegistry(NewNotionCapability())

	if registry.IsWriteAction("WEATHER_GET_FORECAST", nil) {
		t.Error("unknown-app tool should classify as a read")
	}
	if registry.IsWriteAction("NOTION_QUERY_DATABASE", nil) {
		t.Error("known read stays a read")
	}
	if !registry.IsWriteAction("NOTION_CREATE_NOTION_PAGE", nil) {
		t.Error("known write stays a write")
	}
}

func TestRegistry_Lookup(t *testing.T) {
	registry := NewRegistry(
		NewNotionCapability(),
		NewGmailCapability(),
	)

	if capability, ok := registry.ForTool("GMAIL_SEND_EMAIL"); !ok || capability.ID() != AppGmail {
		t.Error("ForTool should route to gmail")
	}
	if _, ok := registry.ForApp("linear"); ok {
		t.Error("unregistered app should not resolve")
	}
	if got := len(registry.All()); got != 2 {
		t.Errorf("All() len = %d, want 2", got)
	}
}
