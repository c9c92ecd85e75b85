package apps

import (
	"context"
	"strings"
)

var gmailToolSlugs = []string{
	"GMAIL_FETCH_EMAILS",
	"GMAIL_FETCH_MESSAGE_BY_MESSAGE_ID",
	"GMAIL_FETCH_MESSAGE_BY_THREAD_ID",
	"GMAIL_LIST_THREADS",
	"GMAIL_LIST_LABELS",
	"GMAIL_LIST_DRAFTS",
	"GMAIL_LIST_HISTORY",
	"GMAIL_GET_PROFILE",
	"GMAIL_GET_ATTACHMENT",
	"GMAIL_SEND_EMAIL",
	"GMAIL_CREATE_EMAIL_DRAFT",
	"GMAIL_SEND_DRAFT",
	"GMAIL_REPLY_TO_THREAD",
	"GMAIL_FORWARD_MESSAGE",
	"GMAIL_ADD_LABEL_TO_EMAIL",
	"GMAIL_MODIFY_THREAD_LABELS",
	"GMAIL_MOVE_TO_TRASH",
	"GMAIL_DELETE_MESSAGE",
	"GMAIL_BATCH_MODIFY_MESSAGES",
	"GMAIL_BATCH_DELETE_MESSAGES",
	"GMAIL_CREATE_LABEL",
	"GMAIL_PATCH_LABEL",
	"GMAIL_DELETE_LABEL",
	"GMAIL_DELETE_DRAFT",
}

var gmailWritePrefixes = []string{
	"gmail_send_",
	"gmail_reply_",
	"gmail_forward_",
	"gmail_create_",
	"gmail_delete_",
	"gmail_patch_",
	"gmail_modify_",
	"gmail_add_",
	"gmail_move_",
	"gmail_batch_",
}

// GmailCapability implements Capability for Gmail.
type GmailCapability struct{}

// NewGmailCapability creates the Gmail capability.
func NewGmailCapability() *GmailCapability { return &GmailCapability{} }

// ID implements Capability.
func (c *GmailCapability) ID() string { return AppGmail }

// ToolSlugs implements Capability.
func (c *GmailCapability) ToolSlugs() []string { return gmailToolSlugs }

// IsWriteAction implements Capability.
func (c *GmailCapability) IsWriteAction(tool string, args map[string]any) bool {
	return hasWritePrefix(strings.ToLower(tool), gmailWritePrefixes)
}

// EnrichProposal implements Capability; Gmail proposals pass through.
func (c *GmailCapability) EnrichProposal(ctx context.Context, userID, tool string, args map[string]any) map[string]any {
	return args
}

var _ Capability = (*GmailCapability)(nil)
