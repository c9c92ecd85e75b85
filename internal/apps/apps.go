// Package apps holds the per-app knowledge the dispatcher needs: which app a
// tool slug belongs to, which tools mutate state, how to phrase app names for
// users, and how to enrich write proposals with human-readable context.
package apps

import "strings"

// Well-known app identifiers.
const (
	AppLinear         = "linear"
	AppSlack          = "slack"
	AppGitHub         = "github"
	AppNotion         = "notion"
	AppGmail          = "gmail"
	AppGoogleCalendar = "google_calendar"
)

// AppForTool maps a tool slug to its app identifier. Unknown slugs fall back
// to their first underscore-delimited token, lowercased.
func AppForTool(tool string) string {
	upper := strings.ToUpper(tool)
	switch {
	case strings.HasPrefix(upper, "LINEAR_"):
		return AppLinear
	case strings.HasPrefix(upper, "SLACK_"):
		return AppSlack
	case strings.HasPrefix(upper, "GITHUB_"):
		return AppGitHub
	case strings.HasPrefix(upper, "NOTION_"):
		return AppNotion
	case strings.HasPrefix(upper, "GMAIL_"):
		return AppGmail
	case strings.HasPrefix(upper, "GOOGLECALENDAR_"), strings.HasPrefix(upper, "GOOGLE_CALENDAR_"):
		return AppGoogleCalendar
	}
	if idx := strings.Index(tool, "_"); idx > 0 {
		return strings.ToLower(tool[:idx])
	}
	return strings.ToLower(tool)
}

// NormalizeAppID canonicalizes user-supplied app names.
func NormalizeAppID(app string) string {
	normalized := strings.ToLower(strings.NewReplacer("-", "_", " ", "_").Replace(app))
	switch normalized {
	case "googlecalendar", "google_calendar", "calendar":
		return AppGoogleCalendar
	case "googlemail":
		return AppGmail
	}
	return normalized
}

var displayNames = map[string]string{
	AppGitHub:         "GitHub",
	AppGmail:          "Gmail",
	AppGoogleCalendar: "Google Calendar",
	AppLinear:         "Linear",
	AppNotion:         "Notion",
	AppSlack:          "Slack",
}

// DisplayName formats an app ID for user-facing messages.
func DisplayName(appID string) string {
	if name, ok := displayNames[appID]; ok {
		return name
	}
	words := strings.Split(strings.ReplaceAll(appID, "_", " "), " ")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

var earlySummaries = map[string]string{
	AppLinear:         "I'll search Linear to help with your request.",
	AppSlack:          "I'll read Slack to help with your request.",
	AppGitHub:         "I'll check GitHub to help with your request.",
	AppNotion:         "I'll look in Notion to help with your request.",
	AppGmail:          "I'll check Gmail to help with your request.",
	AppGoogleCalendar: "I'll check Google Calendar to help with your request.",
}

// EarlySummary returns the deterministic summary line emitted when the first
// read against an app starts.
func EarlySummary(appID string) string {
	if summary, ok := earlySummaries[appID]; ok {
		return summary
	}
	return "I'll look in " + DisplayName(appID) + " to help with your request."
}

var detectionKeywords = []struct {
	app      string
	keywords []string
}{
	{AppLinear, []string{"linear", "issue", "ticket", "bug", "task", "file it", "file a", "urgent"}},
	{AppSlack, []string{"slack", "message", "channel", "notify", "confirm with", "tell", "send to", "billing team", "team on slack"}},
	{AppGitHub, []string{"github", "repo", "repository", "pr", "pull request", "commit"}},
	{AppNotion, []string{"notion", "page", "database", "doc"}},
	{AppGmail, []string{"gmail", "email", "inbox", "mail"}},
	{AppGoogleCalendar, []string{"calendar", "meeting", "schedule", "availability", "free busy"}},
}

// DetectApps pre-detects likely apps from keywords in the user input.
func DetectApps(userInput string) []string {
	lower := strings.ToLower(userInput)
	var detected []string
	for _, entry := range detectionKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				detected = append(detected, entry.app)
				break
			}
		}
	}
	return detected
}

var intentKeywords = []string{
	"create", "make", "add", "schedule", "book", "plan",
	"send", "message", "notify", "email", "post",
	"update", "edit", "change", "delete", "remove",
	"assign", "file", "open", "close",
	"summarize", "check", "look", "find", "search", "list", "fetch",
}

// LooksLikeToolRequest reports whether the input likely needs tool calls.
func LooksLikeToolRequest(userInput string) bool {
	lower := strings.ToLower(userInput)
	for _, kw := range intentKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

var capabilityPhrases = []string{
	"what can you do",
	"what can u do",
	"what do you do",
	"what are your capabilities",
	"list your capabilities",
	"list your commands",
}

var capabilityDirect = map[string]bool{
	"help": true, "help?": true,
	"capabilities": true, "your capabilities": true,
	"list commands": true, "list commands?": true,
	"what commands do you have": true, "what commands do you have?": true,
}

// IsCapabilitiesQuery detects short help prompts that should get a static
// answer instead of a tool-calling turn.
func IsCapabilitiesQuery(userInput string) bool {
	text := strings.Join(strings.Fields(strings.ToLower(userInput)), " ")
	if text == "" {
		return false
	}
	if capabilityDirect[text] {
		return true
	}
	for _, phrase := range capabilityPhrases {
		if strings.Contains(text, phrase) {
			return true
		}
	}
	return false
}

// CapabilitySummary is the deterministic reply to capability queries.
func CapabilitySummary() string {
	return "I can help across Slack, Linear, GitHub, Gmail, and Google Calendar: " +
		"send/read Slack messages, create/update Linear issues, manage GitHub issues/PRs, " +
		"draft/search emails, and create/update calendar events."
}
