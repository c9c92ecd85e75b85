package apps

import (
	"context"
	"strings"
)

var notionToolSlugs = []string{
	"NOTION_SEARCH_NOTION_PAGE",
	"NOTION_FETCH_NOTION_PAGE",
	"NOTION_FETCH_NOTION_BLOCK",
	"NOTION_FETCH_NOTION_CHILD_BLOCK",
	"NOTION_FETCH_DATABASE",
	"NOTION_QUERY_DATABASE",
	"NOTION_CREATE_NOTION_PAGE",
	"NOTION_UPDATE_PAGE",
	"NOTION_ADD_PAGE_CONTENT",
	"NOTION_APPEND_BLOCK_CHILDREN",
	"NOTION_UPDATE_BLOCK",
	"NOTION_DELETE_BLOCK",
	"NOTION_CREATE_DATABASE",
	"NOTION_UPDATE_DATABASE",
	"NOTION_ARCHIVE_NOTION_PAGE",
	"NOTION_CREATE_COMMENT",
	"NOTION_RETRIEVE_COMMENT",
	"NOTION_LIST_USERS",
	"NOTION_GET_ABOUT_USER",
}

var notionWritePrefixes = []string{
	"notion_create_",
	"notion_update_",
	"notion_delete_",
	"notion_archive_",
	"notion_append_",
	"notion_add_",
	"notion_remove_",
}

// NotionCapability implements Capability for Notion.
type NotionCapability struct{}

// NewNotionCapability creates the Notion capability.
func NewNotionCapability() *NotionCapability { return &NotionCapability{} }

// ID implements Capability.
func (c *NotionCapability) ID() string { return AppNotion }

// ToolSlugs implements Capability.
func (c *NotionCapability) ToolSlugs() []string { return notionToolSlugs }

// IsWriteAction implements Capability.
func (c *NotionCapability) IsWriteAction(tool string, args map[string]any) bool {
	return hasWritePrefix(strings.ToLower(tool), notionWritePrefixes)
}

// EnrichProposal implements Capability; Notion proposals pass through.
func (c *NotionCapability) EnrichProposal(ctx context.Context, userID, tool string, args map[string]any) map[string]any {
	return args
}

var _ Capability = (*NotionCapability)(nil)
