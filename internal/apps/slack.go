package apps

import (
	"context"
	"strings"
	"sync"

	"github.com/haasonsaas/concierge/internal/broker"
	"github.com/haasonsaas/concierge/internal/observability"
	"github.com/haasonsaas/concierge/pkg/models"
	"github.com/slack-go/slack"
)

var slackToolSlugs = []string{
	"SLACK_SEND_MESSAGE",
	"SLACK_SEND_EPHEMERAL_MESSAGE",
	"SLACK_SCHEDULE_MESSAGE",
	"SLACK_LIST_ALL_CHANNELS",
	"SLACK_LIST_CONVERSATIONS",
	"SLACK_LIST_ALL_USERS",
	"SLACK_SEARCH_MESSAGES",
	"SLACK_SEARCH_ALL",
	"SLACK_FETCH_CONVERSATION_HISTORY",
	"SLACK_ARCHIVE_CHANNEL",
	"SLACK_CREATE_CHANNEL",
	"SLACK_INVITE_USER_TO_CHANNEL",
	"SLACK_KICK_USER_FROM_CHANNEL",
	"SLACK_LEAVE_CHANNEL",
	"SLACK_RENAME_CHANNEL",
	"SLACK_SET_PURPOSE",
	"SLACK_SET_TOPIC",
}

var slackWriteActions = []string{
	"slack_send_message",
	"slack_send_ephemeral_message",
	"slack_schedule_message",
	"slack_archive_channel",
	"slack_create_channel",
	"slack_invite_user_to_channel",
	"slack_kick_user_from_channel",
	"slack_leave_channel",
	"slack_rename_channel",
	"slack_set_purpose",
	"slack_set_topic",
}

const slackMaxPages = 10

// SlackCapability implements Capability for Slack. When a bot token is
// configured, name resolution goes straight to the Slack Web API; otherwise
// it falls back to listing tools through the broker.
type SlackCapability struct {
	broker broker.Broker
	api    *slack.Client
	logger *observability.Logger

	mu    sync.Mutex
	cache map[string]string
}

// NewSlackCapability creates the Slack capability. botToken may be empty.
func NewSlackCapability(b broker.Broker, botToken string, logger *observability.Logger) *SlackCapability {
	if logger == nil {
		logger = observability.NewDefaultLogger()
	}
	c := &SlackCapability{
		broker: b,
		logger: logger.WithComponent("slack"),
		cache:  make(map[string]string),
	}
	if botToken != "" {
		c.api = slack.New(botToken)
	}
	return c
}

// ID implements Capability.
func (c *SlackCapability) ID() string { return AppSlack }

// ToolSlugs implements Capability.
func (c *SlackCapability) ToolSlugs() []string { return slackToolSlugs }

// IsWriteAction implements Capability. Slack uses an explicit action list;
// prefix heuristics misfire on slugs like SLACK_SEARCH_MESSAGES.
func (c *SlackCapability) IsWriteAction(tool string, args map[string]any) bool {
	lower := strings.ToLower(tool)
	for _, action := range slackWriteActions {
		if strings.Contains(lower, action) {
			return true
		}
	}
	return false
}

// EnrichProposal implements Capability. Channel and user IDs get companion
// name fields so a confirmation card can say "#support" instead of
// "C0123456789".
func (c *SlackCapability) EnrichProposal(ctx context.Context, userID, tool string, args map[string]any) map[string]any {
	enriched := cloneArgs(args)

	if channelID, ok := args["channel"].(string); ok && channelID != "" {
		if _, present := enriched["channelName"]; !present {
			if strings.HasPrefix(channelID, "U") || strings.HasPrefix(channelID, "W") {
				// Direct messages carry a user ID in the channel slot.
				if name := c.resolveUserName(ctx, userID, channelID); name != "" {
					enriched["channelName"] = name
				}
			} else if name := c.resolveChannelName(ctx, userID, channelID); name != "" {
				enriched["channelName"] = "#" + name
			}
		}
	}

	if target, ok := args["user"].(string); ok && target != "" {
		if _, present := enriched["userName"]; !present {
			if name := c.resolveUserName(ctx, userID, target); name != "" {
				enriched["userName"] = name
			}
		}
	}
	return enriched
}

func (c *SlackCapability) cached(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	name, ok := c.cache[key]
	return name, ok
}

func (c *SlackCapability) store(key, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache[key] = name
}

func (c *SlackCapability) resolveChannelName(ctx context.Context, userID, channelID string) string {
	if name, ok := c.cached("channel:" + channelID); ok {
		return name
	}

	if c.api != nil {
		info, err := c.api.GetConversationInfoContext(ctx, &slack.GetConversationInfoInput{ChannelID: channelID})
		if err == nil && info.Name != "" {
			c.store("channel:"+channelID, info.Name)
			return info.Name
		}
		c.logger.Debug(ctx, "slack api channel lookup failed", "channel", channelID, "error", err)
	}

	result, err := c.broker.Execute(ctx, userID, "SLACK_LIST_CONVERSATIONS", map[string]any{
		"types": "public_channel,private_channel",
		"limit": 1000,
	})
	if err != nil || !result.Succeeded() {
		c.logger.Debug(ctx, "channel list failed", "channel", channelID, "error", err)
		return ""
	}
	data, _ := result.Data.(map[string]any)
	channels, _ := data["channels"].([]any)
	for _, raw := range channels {
		channel, _ := raw.(map[string]any)
		if channel["id"] == channelID {
			if name, _ := channel["name"].(string); name != "" {
				c.store("channel:"+channelID, name)
				return name
			}
		}
	}
	return ""
}

func (c *SlackCapability) resolveUserName(ctx context.Context, userID, targetID string) string {
	if name, ok := c.cached("user:" + targetID); ok {
		return name
	}

	if c.api != nil {
		info, err := c.api.GetUserInfoContext(ctx, targetID)
		if err == nil {
			name := info.RealName
			if name == "" {
				name = info.Name
			}
			if name != "" {
				c.store("user:"+targetID, name)
				return name
			}
		}
		c.logger.Debug(ctx, "slack api user lookup failed", "user", targetID, "error", err)
	}

	result, err := c.broker.Execute(ctx, userID, "SLACK_LIST_ALL_USERS", map[string]any{"limit": 1000})
	if err != nil || !result.Succeeded() {
		c.logger.Debug(ctx, "user list failed", "user", targetID, "error", err)
		return ""
	}
	data, _ := result.Data.(map[string]any)
	members, _ := data["members"].([]any)
	for _, raw := range members {
		member, _ := raw.(map[string]any)
		if member["id"] == targetID {
			name, _ := member["real_name"].(string)
			if name == "" {
				name, _ = member["name"].(string)
			}
			if name != "" {
				c.store("user:"+targetID, name)
				return name
			}
		}
	}
	return ""
}

// TransformResult implements ResultTransformer. Channel listings are paged
// to completion and conversation history is stripped to the fields the model
// actually needs.
func (c *SlackCapability) TransformResult(ctx context.Context, userID, tool string, args map[string]any, result *models.ToolResult) *models.ToolResult {
	switch strings.ToLower(tool) {
	case "slack_list_all_channels":
		return c.aggregateChannelPages(ctx, userID, tool, args, result)
	case "slack_fetch_conversation_history":
		return simplifyHistory(result)
	default:
		return result
	}
}

func (c *SlackCapability) aggregateChannelPages(ctx context.Context, userID, tool string, args map[string]any, result *models.ToolResult) *models.ToolResult {
	data, ok := result.Data.(map[string]any)
	if !ok {
		return result
	}
	channels, _ := data["channels"].([]any)
	cursor := nextCursor(data)

	for page := 1; cursor != "" && page < slackMaxPages; page++ {
		pagedArgs := cloneArgs(args)
		pagedArgs["cursor"] = cursor

		pageResult, err := c.broker.Execute(ctx, userID, tool, pagedArgs)
		if err != nil || !pageResult.Succeeded() {
			c.logger.Debug(ctx, "channel pagination stopped", "page", page, "error", err)
			break
		}
		pageData, ok := pageResult.Data.(map[string]any)
		if !ok {
			break
		}
		more, _ := pageData["channels"].([]any)
		channels = append(channels, more...)
		cursor = nextCursor(pageData)
	}

	data["channels"] = channels
	if meta, ok := data["response_metadata"].(map[string]any); ok {
		meta["next_cursor"] = ""
	}
	return result
}

func nextCursor(data map[string]any) string {
	meta, _ := data["response_metadata"].(map[string]any)
	cursor, _ := meta["next_cursor"].(string)
	return cursor
}

// simplifyHistory keeps only user, text, ts, and subtype per message.
func simplifyHistory(result *models.ToolResult) *models.ToolResult {
	data, ok := result.Data.(map[string]any)
	if !ok {
		return result
	}
	messages, ok := data["messages"].([]any)
	if !ok {
		return result
	}

	simplified := make([]any, 0, len(messages))
	for _, raw := range messages {
		message, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if _, hasText := message["text"]; !hasText {
			continue
		}
		simplified = append(simplified, map[string]any{
			"user":    message["user"],
			"text":    message["text"],
			"ts":      message["ts"],
			"subtype": message["subtype"],
		})
	}
	data["messages"] = simplified
	return result
}

var (
	_ Capability        = (*SlackCapability)(nil)
	_ ResultTransformer = (*SlackCapability)(nil)
)
